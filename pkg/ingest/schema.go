package ingest

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/qri-io/jsonschema"
)

const elementSchema = `{
  "type": "object",
  "required": ["type", "id", "label"],
  "properties": {
    "type": {"enum": ["vertex", "edge"]},
    "id": {"type": "string", "minLength": 1},
    "label": {"type": "string", "minLength": 1},
    "properties": {"type": "object", "no_nulls": true},
    "out": {
      "type": "object",
      "required": ["id", "label"],
      "properties": {
        "id": {"type": "string", "minLength": 1},
        "label": {"type": "string", "minLength": 1}
      }
    },
    "in": {
      "type": "object",
      "required": ["id", "label"],
      "properties": {
        "id": {"type": "string", "minLength": 1},
        "label": {"type": "string", "minLength": 1}
      }
    }
  }
}`

// NoNulls rejects null anywhere below the value it is applied to. Property
// values and meta-property values must never be null.
type NoNulls bool

func (nn NoNulls) Validate(propPath string, data interface{}, errs *[]jsonschema.ValError) {
	if !bool(nn) {
		return
	}

	switch data := data.(type) {
	case nil:
		*errs = append(*errs, jsonschema.ValError{
			PropertyPath: propPath,
			RulePath:     "no_nulls",
			InvalidValue: data,
			Message:      "value must not be null",
		})
	case map[string]interface{}:
		for k, v := range data {
			nn.Validate(propPath+"/"+k, v, errs)
		}
	case []interface{}:
		for idx, v := range data {
			nn.Validate(fmt.Sprintf("%s/%d", propPath, idx), v, errs)
		}
	}
}

func NewNoNulls() jsonschema.Validator {
	return new(NoNulls)
}

func init() {
	jsonschema.RegisterValidator("no_nulls", NewNoNulls)
}

type Schema struct {
	root *jsonschema.RootSchema
}

func NewSchema() (*Schema, error) {
	root := &jsonschema.RootSchema{}
	if err := json.Unmarshal([]byte(elementSchema), root); err != nil {
		return nil, fmt.Errorf("failed to load element schema: %w", err)
	}

	return &Schema{root: root}, nil
}

// Validate returns nil when line is a valid element, otherwise an error
// listing every problem found.
func (s *Schema) Validate(line []byte) error {
	valErrs, err := s.root.ValidateBytes(line)
	if err != nil {
		return err
	}
	if len(valErrs) == 0 {
		return nil
	}

	msgs := make([]string, len(valErrs))
	for idx, valErr := range valErrs {
		path := valErr.PropertyPath
		if path == "" {
			path = "/"
		}
		msgs[idx] = fmt.Sprintf("%s: %s", path, valErr.Message)
	}

	return fmt.Errorf("%s: %w", strings.Join(msgs, "; "), ErrInvalidElement)
}
