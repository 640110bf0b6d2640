package encoding

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/uswitch/graphbulk/pkg/document"
	"github.com/uswitch/graphbulk/pkg/graph"
)

// Mode is how vertex properties are laid out. It is fixed per container:
// readers expect every document in a container to have the same shape.
type Mode int

const (
	// MultiValued stores every property as an array of {_value, id, _meta}.
	MultiValued Mode = iota
	// Flattened stores the first value of every property as a plain field.
	Flattened
)

func (m Mode) String() string {
	switch m {
	case MultiValued:
		return "multi-valued"
	case Flattened:
		return "flattened"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "", "multi-valued", "multivalued":
		return MultiValued, nil
	case "flattened", "flat":
		return Flattened, nil
	default:
		return MultiValued, fmt.Errorf("unknown property mode '%s'", s)
	}
}

func newPropertyID() string { return uuid.New().String() }

type VertexEncoder struct {
	partition PartitionConfig
	mode      Mode
	newID     func() string
}

func NewVertexEncoder(partition PartitionConfig, mode Mode) *VertexEncoder {
	return &VertexEncoder{
		partition: partition,
		mode:      mode,
		newID:     newPropertyID,
	}
}

func (ve *VertexEncoder) Encode(v *graph.Vertex) (*document.Document, error) {
	if err := v.Validate(); err != nil {
		return nil, err
	}

	doc := document.New()
	doc.Set(document.FieldID, v.ID)
	doc.Set(document.FieldLabel, v.Label)

	partitionProvided := false

	if ve.partition.Partitioned() && ve.partition.VertexProperty == document.FieldID {
		doc.Set(ve.partition.Field, v.ID)
		partitionProvided = true
	}

	for _, key := range v.PropertyKeys() {
		if ve.partition.Partitioned() && key == ve.partition.VertexProperty {
			vp, ok := v.FirstProperty(key)
			if !ok {
				return nil, fmt.Errorf("'%s': %w", key, ErrMissingPartitionKeyValue)
			}

			doc.Set(ve.partition.Field, vp.Value)
			partitionProvided = true

			// _partition mirrors the property, which is still stored as itself
			if ve.partition.Field == ve.partition.VertexProperty {
				continue
			}
		}

		if key == document.FieldID || key == document.FieldLabel || (ve.partition.Partitioned() && key == ve.partition.Field) {
			return nil, fmt.Errorf("vertex property '%s': %w", key, ErrReservedPropertyCollision)
		}

		if ve.mode == Flattened || strings.EqualFold(key, document.FieldTTL) {
			vp, ok := v.FirstProperty(key)
			if !ok {
				return nil, fmt.Errorf("'%s': %w", key, ErrMissingPropertyValue)
			}

			doc.Set(key, vp.Value)
			continue
		}

		doc.Set(key, ve.encodeValues(v.Properties(key)))
	}

	if ve.partition.Partitioned() && !partitionProvided {
		return nil, fmt.Errorf("'%s': %w", ve.partition.VertexProperty, ErrPartitionKeyRequired)
	}

	return doc, nil
}

func (ve *VertexEncoder) encodeValues(vps []*graph.VertexProperty) []interface{} {
	values := make([]interface{}, len(vps))

	for idx, vp := range vps {
		element := document.New()
		element.Set(document.FieldPropertyValue, vp.Value)
		element.Set(document.FieldPropertyID, ve.newID())

		if vp.HasMeta() {
			meta := document.New()
			for _, p := range vp.Meta().All() {
				meta.Set(p.Key, p.Value)
			}

			element.Set(document.FieldPropertyMeta, meta)
		}

		values[idx] = element
	}

	return values
}
