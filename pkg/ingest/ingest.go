// Package ingest reads and writes graph elements as JSON lines:
//
//	{"type":"vertex","id":"1","label":"person","properties":{"name":"a","tag":[{"value":"x","meta":{"by":"me"}},"y"]}}
//	{"type":"edge","id":"e1","label":"knows","out":{"id":"1","label":"person","partitionKey":5},"in":{"id":"2","label":"person"}}
//
// A vertex property holding an array has one value per element. Any value can
// be written as {"value": ..., "meta": {...}} to attach meta-properties.
package ingest

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/uswitch/graphbulk/pkg/document"
	"github.com/uswitch/graphbulk/pkg/graph"
)

var ErrInvalidElement = errors.New("invalid element")

const (
	TypeVertex = "vertex"
	TypeEdge   = "edge"

	maxLineSize = 4 * 1024 * 1024
)

type LineError struct {
	Line int
	Err  error
}

func (e *LineError) Error() string { return fmt.Sprintf("line %d: %v", e.Line, e.Err) }
func (e *LineError) Unwrap() error { return e.Err }

type Parser struct {
	schema *Schema
}

func NewParser() (*Parser, error) {
	schema, err := NewSchema()
	if err != nil {
		return nil, err
	}

	return &Parser{schema: schema}, nil
}

// ParseLine validates and converts a single element.
func (p *Parser) ParseLine(line []byte) (graph.Element, error) {
	if err := p.schema.Validate(line); err != nil {
		return nil, err
	}

	doc := document.New()
	if err := json.Unmarshal(line, doc); err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrInvalidElement)
	}

	typ, _ := doc.String("type")
	id, _ := doc.String("id")
	label, _ := doc.String("label")

	props, err := object(doc, "properties")
	if err != nil {
		return nil, err
	}

	switch typ {
	case TypeVertex:
		return parseVertex(id, label, props)
	case TypeEdge:
		return parseEdge(doc, id, label, props)
	default:
		return nil, fmt.Errorf("unknown type '%s': %w", typ, ErrInvalidElement)
	}
}

// Read parses every non-blank line of r.
func (p *Parser) Read(r io.Reader) ([]graph.Element, error) {
	elements := []graph.Element{}

	er := &errReader{r: r}

	scanner := bufio.NewScanner(er)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	for num := 1; scanner.Scan(); num++ {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		element, err := p.ParseLine(line)
		if err != nil {
			// a failed read hands the scanner a truncated last line
			if er.err != nil && er.err != io.EOF {
				return nil, er.err
			}
			return nil, &LineError{Line: num, Err: err}
		}

		elements = append(elements, element)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return elements, nil
}

// errReader remembers the first error from r.
type errReader struct {
	r   io.Reader
	err error
}

func (er *errReader) Read(p []byte) (int, error) {
	n, err := er.r.Read(p)
	if err != nil && er.err == nil {
		er.err = err
	}
	return n, err
}

func object(doc *document.Document, key string) (*document.Document, error) {
	value, ok := doc.Get(key)
	if !ok {
		return document.New(), nil
	}

	obj, ok := value.(*document.Document)
	if !ok {
		return nil, fmt.Errorf("'%s' must be an object: %w", key, ErrInvalidElement)
	}

	return obj, nil
}

func parseVertex(id, label string, props *document.Document) (*graph.Vertex, error) {
	v := graph.NewVertex(id, label)

	for _, key := range props.Keys() {
		value, _ := props.Get(key)

		values, ok := value.([]interface{})
		if !ok {
			values = []interface{}{value}
		}

		vps := make([]*graph.VertexProperty, len(values))
		for idx, value := range values {
			vp, err := parseVertexProperty(key, value)
			if err != nil {
				return nil, err
			}
			vps[idx] = vp
		}

		if err := v.SetProperties(key, vps...); err != nil {
			return nil, fmt.Errorf("%v: %w", err, ErrInvalidElement)
		}
	}

	return v, nil
}

func parseVertexProperty(key string, value interface{}) (*graph.VertexProperty, error) {
	obj, ok := value.(*document.Document)
	if !ok || !obj.Has("value") {
		return graph.NewVertexProperty(key, value), nil
	}

	inner, _ := obj.Get("value")
	vp := graph.NewVertexProperty(key, inner)

	meta, err := object(obj, "meta")
	if err != nil {
		return nil, err
	}

	for _, metaKey := range meta.Keys() {
		metaValue, _ := meta.Get(metaKey)
		if err := vp.AddProperty(metaKey, metaValue); err != nil {
			return nil, fmt.Errorf("%v: %w", err, ErrInvalidElement)
		}
	}

	return vp, nil
}

func parseEdge(doc *document.Document, id, label string, props *document.Document) (*graph.Edge, error) {
	out, err := parseEndpoint(doc, "out")
	if err != nil {
		return nil, err
	}
	in, err := parseEndpoint(doc, "in")
	if err != nil {
		return nil, err
	}

	e := graph.NewEdge(id, label, out, in)

	for _, key := range props.Keys() {
		value, _ := props.Get(key)

		if err := e.AddProperty(key, value); err != nil {
			return nil, fmt.Errorf("%v: %w", err, ErrInvalidElement)
		}
	}

	return e, nil
}

func parseEndpoint(doc *document.Document, key string) (graph.Endpoint, error) {
	if !doc.Has(key) {
		return graph.Endpoint{}, fmt.Errorf("edge must have '%s': %w", key, ErrInvalidElement)
	}

	obj, err := object(doc, key)
	if err != nil {
		return graph.Endpoint{}, err
	}

	id, _ := obj.String("id")
	label, _ := obj.String("label")
	pk, _ := obj.Get("partitionKey")

	return graph.Endpoint{ID: id, Label: label, PartitionKey: pk}, nil
}
