// Package encoding turns graph elements into documents.
//
// Vertices become {id, label, <partition field>, <properties>...} where each
// property is either a flat value or, in multi-valued mode, an array of
// {_value, id, _meta}. Edges become documents carrying their endpoints in
// _vertexId/_vertexLabel (out) and _sink/_sinkLabel/_sinkPartition (in),
// flagged with _isEdge, and stored in the partition of the out vertex.
package encoding

import (
	"fmt"

	"github.com/uswitch/graphbulk/pkg/document"
	"github.com/uswitch/graphbulk/pkg/graph"
)

type Encoder struct {
	partition PartitionConfig
	mode      Mode

	vertex *VertexEncoder
	edge   *EdgeEncoder
}

type Option func(*Encoder)

// WithIDGenerator replaces the generator of array element ids in
// multi-valued mode. They are random UUIDs otherwise.
func WithIDGenerator(fn func() string) Option {
	return func(enc *Encoder) {
		enc.vertex.newID = fn
	}
}

func New(partition PartitionConfig, mode Mode, opts ...Option) *Encoder {
	enc := &Encoder{
		partition: partition,
		mode:      mode,
		vertex:    NewVertexEncoder(partition, mode),
		edge:      NewEdgeEncoder(partition),
	}

	for _, opt := range opts {
		opt(enc)
	}

	return enc
}

func (enc *Encoder) Partition() PartitionConfig { return enc.partition }
func (enc *Encoder) Mode() Mode                 { return enc.mode }
func (enc *Encoder) Registry() *Registry        { return enc.edge.Registry() }

func (enc *Encoder) Encode(element graph.Element) (*document.Document, error) {
	return enc.encode(-1, element)
}

// EncodeAll stops at the first element that cannot be encoded.
func (enc *Encoder) EncodeAll(elements []graph.Element) ([]*document.Document, error) {
	docs := make([]*document.Document, len(elements))

	for idx, element := range elements {
		doc, err := enc.encode(idx, element)
		if err != nil {
			return nil, err
		}

		docs[idx] = doc
	}

	return docs, nil
}

func (enc *Encoder) encode(idx int, element graph.Element) (*document.Document, error) {
	var (
		doc  *document.Document
		err  error
		kind string
	)

	switch element := element.(type) {
	case *graph.Vertex:
		kind = "vertex"
		doc, err = enc.vertex.Encode(element)
	case *graph.Edge:
		kind = "edge"
		doc, err = enc.edge.Encode(element)
	default:
		return nil, &ElementError{
			Kind:  fmt.Sprintf("%T", element),
			Index: idx,
			Err:   ErrUnsupportedElement,
		}
	}

	if err != nil {
		return nil, &ElementError{Kind: kind, ID: elementID(element), Index: idx, Err: err}
	}

	return doc, nil
}

func elementID(element graph.Element) string {
	switch element := element.(type) {
	case *graph.Vertex:
		if element != nil {
			return element.ID
		}
	case *graph.Edge:
		if element != nil {
			return element.ID
		}
	}

	return ""
}
