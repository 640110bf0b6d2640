package graph

import (
	"fmt"
)

// VertexProperty is one value recorded for a vertex property key. A key can
// hold several of them and each can carry its own meta-properties.
type VertexProperty struct {
	// ID is assigned by the store, never by the encoder.
	ID    interface{}
	Key   string
	Value interface{}

	meta *PropertyCollection
}

func NewVertexProperty(key string, value interface{}) *VertexProperty {
	return &VertexProperty{Key: key, Value: value}
}

func (vp *VertexProperty) Validate() error {
	if vp == nil {
		return fmt.Errorf("vertex property is nil: %w", ErrValidationFailed)
	}
	if vp.Key == "" {
		return fmt.Errorf("vertex property must have a key: %w", ErrValidationFailed)
	}
	if vp.Value == nil {
		return fmt.Errorf("vertex property '%s' must not have a nil value: %w", vp.Key, ErrValidationFailed)
	}

	return nil
}

// AddProperty attaches a meta-property.
func (vp *VertexProperty) AddProperty(key string, value interface{}) error {
	if vp.meta == nil {
		vp.meta = &PropertyCollection{}
	}

	if err := vp.meta.Add(NewProperty(key, value)); err != nil {
		return fmt.Errorf("meta property of '%s': %w", vp.Key, err)
	}

	return nil
}

// WithProperty is AddProperty for building literals; it panics on error.
func (vp *VertexProperty) WithProperty(key string, value interface{}) *VertexProperty {
	if err := vp.AddProperty(key, value); err != nil {
		panic(err)
	}

	return vp
}

func (vp *VertexProperty) Meta() *PropertyCollection { return vp.meta }
func (vp *VertexProperty) HasMeta() bool            { return vp.meta.Len() > 0 }

type Vertex struct {
	ID    string
	Label string

	keys       []string
	properties map[string][]*VertexProperty
}

func NewVertex(id, label string) *Vertex {
	return &Vertex{ID: id, Label: label}
}

func (v *Vertex) element()             {}
func (v *Vertex) ElementID() string    { return v.ID }
func (v *Vertex) ElementLabel() string { return v.Label }

func (v *Vertex) Validate() error {
	if v == nil {
		return fmt.Errorf("vertex is nil: %w", ErrValidationFailed)
	}
	if v.ID == "" {
		return fmt.Errorf("vertex must have an id: %w", ErrValidationFailed)
	}
	if v.Label == "" {
		return fmt.Errorf("vertex '%s' must have a label: %w", v.ID, ErrValidationFailed)
	}

	return nil
}

// AddProperty appends another value for key, keeping any already recorded.
func (v *Vertex) AddProperty(key string, value interface{}) error {
	_, err := v.AddVertexProperty(NewVertexProperty(key, value))
	return err
}

func (v *Vertex) AddVertexProperty(vp *VertexProperty) (*VertexProperty, error) {
	if err := vp.Validate(); err != nil {
		return nil, err
	}

	v.declare(vp.Key)
	v.properties[vp.Key] = append(v.properties[vp.Key], vp)

	return vp, nil
}

// SetProperties replaces the values recorded for key. The key keeps its
// position; an empty list leaves it declared without values.
func (v *Vertex) SetProperties(key string, vps ...*VertexProperty) error {
	if key == "" {
		return fmt.Errorf("vertex property must have a key: %w", ErrValidationFailed)
	}

	for _, vp := range vps {
		if err := vp.Validate(); err != nil {
			return err
		}
		if vp.Key != key {
			return fmt.Errorf("vertex property '%s' cannot be stored under '%s': %w", vp.Key, key, ErrValidationFailed)
		}
	}

	v.declare(key)
	v.properties[key] = append([]*VertexProperty{}, vps...)

	return nil
}

func (v *Vertex) declare(key string) {
	if v.properties == nil {
		v.properties = map[string][]*VertexProperty{}
	}

	if _, ok := v.properties[key]; !ok {
		v.keys = append(v.keys, key)
		v.properties[key] = nil
	}
}

// PropertyKeys returns keys in the order they were first added.
func (v *Vertex) PropertyKeys() []string {
	return append([]string{}, v.keys...)
}

func (v *Vertex) Properties(key string) []*VertexProperty {
	return v.properties[key]
}

// FirstProperty returns the first value recorded for key, if there is one.
func (v *Vertex) FirstProperty(key string) (*VertexProperty, bool) {
	if vps := v.properties[key]; len(vps) > 0 {
		return vps[0], true
	}

	return nil, false
}

func (v *Vertex) AllProperties() []*VertexProperty {
	out := []*VertexProperty{}

	for _, key := range v.keys {
		out = append(out, v.properties[key]...)
	}

	return out
}
