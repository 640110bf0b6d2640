// Package mapping builds vertices and edges from tagged Go structs.
//
//	type Person struct {
//		ID      string `graph:"id"`
//		Country string `graph:"partitionKey,name=country"`
//		Email   string `graph:"name=ElectronicMail"`
//		Secret  bool   `graph:"-"`
//		Extra   map[string]interface{} `graph:"properties"`
//	}
//
// Untagged exported fields become properties named after the field with its
// first letter lowered. Slices give a property several values. The label is
// a field tagged "label", then a GraphLabel() method, then the type name.
// Edges have "out" and "in" fields holding a graph.Endpoint or a mapped
// vertex struct.
package mapping

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/uswitch/graphbulk/pkg/graph"
)

var (
	ErrNotStruct       = errors.New("value is not a struct")
	ErrMissingID       = errors.New("struct has no id")
	ErrMissingEndpoint = errors.New("edge struct needs both out and in")
	ErrInvalidTag      = errors.New("invalid graph tag")
)

const tagName = "graph"

type role int

const (
	roleProperty role = iota
	roleID
	roleLabel
	rolePartitionKey
	roleProperties
	roleOut
	roleIn
)

type field struct {
	index []int
	name  string
	role  role
}

type plan struct {
	fields []field

	partitionKey string
	hasOut       bool
	hasIn        bool
}

func (p *plan) isEdge() bool { return p.hasOut || p.hasIn }

var plans sync.Map

func planFor(t reflect.Type) (*plan, error) {
	if cached, ok := plans.Load(t); ok {
		return cached.(*plan), nil
	}

	p := &plan{}

	for idx := 0; idx < t.NumField(); idx++ {
		sf := t.Field(idx)
		if sf.PkgPath != "" {
			continue
		}

		f, skip, err := parseTag(sf)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", t.Name(), sf.Name, err)
		}
		if skip {
			continue
		}

		switch f.role {
		case rolePartitionKey:
			p.partitionKey = f.name
		case roleOut:
			p.hasOut = true
		case roleIn:
			p.hasIn = true
		}

		p.fields = append(p.fields, f)
	}

	plans.Store(t, p)

	return p, nil
}

func parseTag(sf reflect.StructField) (field, bool, error) {
	f := field{index: sf.Index, name: lowerFirst(sf.Name), role: roleProperty}

	tag, ok := sf.Tag.Lookup(tagName)
	if !ok || tag == "" {
		return f, false, nil
	}
	if tag == "-" {
		return f, true, nil
	}

	for idx, opt := range strings.Split(tag, ",") {
		opt = strings.TrimSpace(opt)

		if strings.HasPrefix(opt, "name=") {
			f.name = strings.TrimPrefix(opt, "name=")
			if f.name == "" {
				return f, false, fmt.Errorf("empty name: %w", ErrInvalidTag)
			}
			continue
		}

		if idx > 0 {
			return f, false, fmt.Errorf("'%s': %w", opt, ErrInvalidTag)
		}

		switch opt {
		case "id":
			f.role = roleID
		case "label":
			f.role = roleLabel
		case "partitionKey":
			f.role = rolePartitionKey
		case "properties":
			f.role = roleProperties
		case "out":
			f.role = roleOut
		case "in":
			f.role = roleIn
		default:
			return f, false, fmt.Errorf("'%s': %w", opt, ErrInvalidTag)
		}
	}

	return f, false, nil
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToLower(r)) + s[size:]
}

func structValue(v interface{}) (reflect.Value, error) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return rv, ErrNotStruct
		}
		rv = rv.Elem()
	}

	if rv.Kind() != reflect.Struct {
		return rv, fmt.Errorf("%T: %w", v, ErrNotStruct)
	}

	return rv, nil
}

// labeller lets a type pick its own label.
type labeller interface {
	GraphLabel() string
}

func labelOf(v interface{}, rv reflect.Value, p *plan) string {
	for _, f := range p.fields {
		if f.role == roleLabel {
			if label := fmt.Sprint(rv.FieldByIndex(f.index).Interface()); label != "" {
				return label
			}
		}
	}

	if l, ok := v.(labeller); ok {
		return l.GraphLabel()
	}
	if rv.CanAddr() {
		if l, ok := rv.Addr().Interface().(labeller); ok {
			return l.GraphLabel()
		}
	}

	return rv.Type().Name()
}

func idOf(rv reflect.Value, p *plan) (string, error) {
	for _, f := range p.fields {
		if f.role != roleID {
			continue
		}

		value, ok := indirect(rv.FieldByIndex(f.index))
		if !ok {
			break
		}
		if id := fmt.Sprint(value.Interface()); id != "" {
			return id, nil
		}
	}

	return "", fmt.Errorf("%s: %w", rv.Type().Name(), ErrMissingID)
}

// indirect follows pointers and interfaces, reporting false for nils.
func indirect(rv reflect.Value) (reflect.Value, bool) {
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return rv, false
		}
		rv = rv.Elem()
	}

	if (rv.Kind() == reflect.Map || rv.Kind() == reflect.Slice) && rv.IsNil() {
		return rv, false
	}

	return rv, true
}

// values spreads slices, other than []byte, into one value per element.
func values(rv reflect.Value) []interface{} {
	if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() != reflect.Uint8 {
		out := []interface{}{}
		for idx := 0; idx < rv.Len(); idx++ {
			if elem, ok := indirect(rv.Index(idx)); ok {
				out = append(out, elem.Interface())
			}
		}
		return out
	}

	return []interface{}{rv.Interface()}
}

func ToVertex(v interface{}) (*graph.Vertex, error) {
	rv, err := structValue(v)
	if err != nil {
		return nil, err
	}

	p, err := planFor(rv.Type())
	if err != nil {
		return nil, err
	}
	if p.isEdge() {
		return nil, fmt.Errorf("%s is an edge: %w", rv.Type().Name(), ErrNotStruct)
	}

	id, err := idOf(rv, p)
	if err != nil {
		return nil, err
	}

	vertex := graph.NewVertex(id, labelOf(v, rv, p))

	for _, f := range p.fields {
		value, ok := indirect(rv.FieldByIndex(f.index))
		if !ok {
			continue
		}

		switch f.role {
		case roleProperty, rolePartitionKey:
			for _, value := range values(value) {
				if err := vertex.AddProperty(f.name, value); err != nil {
					return nil, err
				}
			}
		case roleProperties:
			if err := eachProperty(value, vertex.AddProperty); err != nil {
				return nil, err
			}
		}
	}

	return vertex, nil
}

// EndpointOf describes a vertex struct, or passes a graph.Endpoint through.
func EndpointOf(v interface{}) (graph.Endpoint, error) {
	switch v := v.(type) {
	case graph.Endpoint:
		return v, nil
	case *graph.Endpoint:
		if v != nil {
			return *v, nil
		}
		return graph.Endpoint{}, ErrMissingEndpoint
	case *graph.Vertex:
		return graph.EndpointOf(v, ""), nil
	}

	rv, err := structValue(v)
	if err != nil {
		return graph.Endpoint{}, err
	}

	p, err := planFor(rv.Type())
	if err != nil {
		return graph.Endpoint{}, err
	}

	vertex, err := ToVertex(v)
	if err != nil {
		return graph.Endpoint{}, err
	}

	return graph.EndpointOf(vertex, p.partitionKey), nil
}

func ToEdge(v interface{}) (*graph.Edge, error) {
	rv, err := structValue(v)
	if err != nil {
		return nil, err
	}

	p, err := planFor(rv.Type())
	if err != nil {
		return nil, err
	}
	if !p.hasOut || !p.hasIn {
		return nil, fmt.Errorf("%s: %w", rv.Type().Name(), ErrMissingEndpoint)
	}

	id, err := idOf(rv, p)
	if err != nil {
		return nil, err
	}

	var out, in graph.Endpoint
	props := []func(*graph.Edge) error{}

	for _, f := range p.fields {
		value, ok := indirect(rv.FieldByIndex(f.index))

		switch f.role {
		case roleOut, roleIn:
			if !ok {
				return nil, fmt.Errorf("%s.%s: %w", rv.Type().Name(), f.name, ErrMissingEndpoint)
			}

			ep, err := EndpointOf(rv.FieldByIndex(f.index).Interface())
			if err != nil {
				return nil, err
			}

			if f.role == roleOut {
				out = ep
			} else {
				in = ep
			}
		case roleProperty, rolePartitionKey:
			if ok {
				name, value := f.name, value.Interface()
				props = append(props, func(e *graph.Edge) error { return e.AddProperty(name, value) })
			}
		case roleProperties:
			if ok {
				props = append(props, func(e *graph.Edge) error { return eachProperty(value, e.AddProperty) })
			}
		}
	}

	edge := graph.NewEdge(id, labelOf(v, rv, p), out, in)

	for _, add := range props {
		if err := add(edge); err != nil {
			return nil, err
		}
	}

	return edge, nil
}

// ToElement maps structs with out and in fields to edges, others to vertices.
func ToElement(v interface{}) (graph.Element, error) {
	rv, err := structValue(v)
	if err != nil {
		return nil, err
	}

	p, err := planFor(rv.Type())
	if err != nil {
		return nil, err
	}

	if p.isEdge() {
		return ToEdge(v)
	}

	return ToVertex(v)
}

func eachProperty(rv reflect.Value, add func(string, interface{}) error) error {
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return fmt.Errorf("properties field must be a map with string keys: %w", ErrInvalidTag)
	}

	keys := make([]string, 0, rv.Len())
	for _, key := range rv.MapKeys() {
		keys = append(keys, key.String())
	}
	sort.Strings(keys)

	for _, key := range keys {
		value, ok := indirect(rv.MapIndex(reflect.ValueOf(key).Convert(rv.Type().Key())))
		if !ok {
			continue
		}

		if err := add(key, value.Interface()); err != nil {
			return err
		}
	}

	return nil
}
