package graph

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

var (
	ErrValidationFailed = errors.New("validation failed")
	ErrDuplicateKey     = errors.New("duplicate key")
)

// Property is a single key/value pair. It is used for edge properties and for
// the meta-properties attached to a VertexProperty.
type Property struct {
	Key   string      `json:"key"`
	Value interface{} `json:"value"`
}

func NewProperty(key string, value interface{}) Property {
	return Property{Key: key, Value: value}
}

func (p Property) Validate() error {
	if p.Key == "" {
		return fmt.Errorf("property must have a key: %w", ErrValidationFailed)
	}
	if p.Value == nil {
		return fmt.Errorf("property '%s' must not have a nil value: %w", p.Key, ErrValidationFailed)
	}

	return nil
}

// Equal compares keys case-insensitively and requires the values to be of the
// same dynamic type.
func (p Property) Equal(other Property) bool {
	if !strings.EqualFold(p.Key, other.Key) {
		return false
	}

	if reflect.TypeOf(p.Value) != reflect.TypeOf(other.Value) {
		return false
	}

	return reflect.DeepEqual(p.Value, other.Value)
}

// PropertyCollection keeps properties in insertion order and refuses a second
// property with the same key.
type PropertyCollection struct {
	keys  []string
	items map[string]Property
}

func NewPropertyCollection(props ...Property) (*PropertyCollection, error) {
	c := &PropertyCollection{}

	for _, p := range props {
		if err := c.Add(p); err != nil {
			return nil, err
		}
	}

	return c, nil
}

func (c *PropertyCollection) Add(p Property) error {
	if err := p.Validate(); err != nil {
		return err
	}

	if c.items == nil {
		c.items = map[string]Property{}
	}

	if _, ok := c.items[p.Key]; ok {
		return fmt.Errorf("property '%s': %w", p.Key, ErrDuplicateKey)
	}

	c.keys = append(c.keys, p.Key)
	c.items[p.Key] = p

	return nil
}

func (c *PropertyCollection) Get(key string) (Property, bool) {
	if c == nil || c.items == nil {
		return Property{}, false
	}

	p, ok := c.items[key]
	return p, ok
}

func (c *PropertyCollection) Len() int {
	if c == nil {
		return 0
	}

	return len(c.keys)
}

// All returns the properties in the order they were added.
func (c *PropertyCollection) All() []Property {
	if c == nil {
		return nil
	}

	out := make([]Property, len(c.keys))
	for idx, key := range c.keys {
		out[idx] = c.items[key]
	}

	return out
}
