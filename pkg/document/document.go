// Package document is the flat representation graph elements are stored as.
package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var ErrFieldExists = errors.New("field already exists")

// Document is a JSON object that remembers the order its fields were added in.
type Document struct {
	keys   []string
	values map[string]interface{}
}

func New() *Document {
	return &Document{values: map[string]interface{}{}}
}

// Add sets a field that must not already be present.
func (d *Document) Add(key string, value interface{}) error {
	if _, ok := d.values[key]; ok {
		return fmt.Errorf("'%s': %w", key, ErrFieldExists)
	}

	d.Set(key, value)
	return nil
}

// Set adds or replaces a field, keeping the position of a replaced one.
func (d *Document) Set(key string, value interface{}) {
	if d.values == nil {
		d.values = map[string]interface{}{}
	}

	if _, ok := d.values[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.values[key] = value
}

func (d *Document) Get(key string) (interface{}, bool) {
	if d == nil {
		return nil, false
	}

	value, ok := d.values[key]
	return value, ok
}

func (d *Document) Has(key string) bool {
	_, ok := d.Get(key)
	return ok
}

// String returns the field as a string if it is one.
func (d *Document) String(key string) (string, bool) {
	value, ok := d.Get(key)
	if !ok {
		return "", false
	}

	str, ok := value.(string)
	return str, ok
}

func (d *Document) Keys() []string {
	if d == nil {
		return nil
	}

	return append([]string{}, d.keys...)
}

func (d *Document) Len() int {
	if d == nil {
		return 0
	}

	return len(d.keys)
}

// Clone copies the document and any nested documents or arrays.
func (d *Document) Clone() *Document {
	out := New()

	for _, key := range d.keys {
		out.Set(key, cloneValue(d.values[key]))
	}

	return out
}

func cloneValue(value interface{}) interface{} {
	switch value := value.(type) {
	case *Document:
		return value.Clone()
	case []interface{}:
		out := make([]interface{}, len(value))
		for idx, v := range value {
			out[idx] = cloneValue(v)
		}
		return out
	default:
		return value
	}
}

func (d *Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte('{')

	for idx, key := range d.keys {
		if idx > 0 {
			buf.WriteByte(',')
		}

		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}

		v, err := json.Marshal(d.values[key])
		if err != nil {
			return nil, fmt.Errorf("field '%s': %w", key, err)
		}

		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// UnmarshalJSON keeps the field order of the input. Nested objects become
// *Document and numbers are decoded as json.Number.
func (d *Document) UnmarshalJSON(data []byte) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	tok, err := decoder.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("document must be a JSON object, got %v", tok)
	}

	parsed, err := decodeObject(decoder)
	if err != nil {
		return err
	}

	*d = *parsed
	return nil
}

func decodeObject(decoder *json.Decoder) (*Document, error) {
	doc := New()

	for decoder.More() {
		tok, err := decoder.Token()
		if err != nil {
			return nil, err
		}

		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected an object key, got %v", tok)
		}

		value, err := decodeValue(decoder)
		if err != nil {
			return nil, err
		}

		doc.Set(key, value)
	}

	// closing '}'
	if _, err := decoder.Token(); err != nil {
		return nil, err
	}

	return doc, nil
}

func decodeValue(decoder *json.Decoder) (interface{}, error) {
	tok, err := decoder.Token()
	if err != nil {
		return nil, err
	}

	switch tok := tok.(type) {
	case json.Delim:
		switch tok {
		case '{':
			return decodeObject(decoder)
		case '[':
			arr := []interface{}{}
			for decoder.More() {
				value, err := decodeValue(decoder)
				if err != nil {
					return nil, err
				}
				arr = append(arr, value)
			}
			if _, err := decoder.Token(); err != nil {
				return nil, err
			}
			return arr, nil
		default:
			return nil, fmt.Errorf("unexpected delimiter %v", tok)
		}
	default:
		return tok, nil
	}
}
