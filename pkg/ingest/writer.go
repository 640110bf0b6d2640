package ingest

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/uswitch/graphbulk/pkg/document"
	"github.com/uswitch/graphbulk/pkg/graph"
)

// Marshal is the inverse of ParseLine.
func Marshal(element graph.Element) (*document.Document, error) {
	doc := document.New()

	switch element := element.(type) {
	case *graph.Vertex:
		doc.Set("type", TypeVertex)
		doc.Set("id", element.ID)
		doc.Set("label", element.Label)

		props := document.New()
		for _, key := range element.PropertyKeys() {
			vps := element.Properties(key)

			if len(vps) == 1 && !vps[0].HasMeta() {
				props.Set(key, vps[0].Value)
				continue
			}

			values := make([]interface{}, len(vps))
			for idx, vp := range vps {
				values[idx] = marshalVertexProperty(vp)
			}
			props.Set(key, values)
		}
		doc.Set("properties", props)

	case *graph.Edge:
		doc.Set("type", TypeEdge)
		doc.Set("id", element.ID)
		doc.Set("label", element.Label)
		doc.Set("out", element.Out())
		doc.Set("in", element.In())

		props := document.New()
		for _, p := range element.Properties() {
			props.Set(p.Key, p.Value)
		}
		doc.Set("properties", props)

	default:
		return nil, fmt.Errorf("cannot marshal %T: %w", element, ErrInvalidElement)
	}

	return doc, nil
}

func marshalVertexProperty(vp *graph.VertexProperty) interface{} {
	if !vp.HasMeta() {
		return vp.Value
	}

	meta := document.New()
	for _, p := range vp.Meta().All() {
		meta.Set(p.Key, p.Value)
	}

	obj := document.New()
	obj.Set("value", vp.Value)
	obj.Set("meta", meta)

	return obj
}

type Writer struct {
	encoder *json.Encoder
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{encoder: json.NewEncoder(w)}
}

func (w *Writer) Write(elements ...graph.Element) error {
	for _, element := range elements {
		doc, err := Marshal(element)
		if err != nil {
			return err
		}

		if err := w.encoder.Encode(doc); err != nil {
			return err
		}
	}

	return nil
}
