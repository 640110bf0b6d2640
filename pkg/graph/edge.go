package graph

import (
	"fmt"
)

// Endpoint identifies one end of an edge. PartitionKey is nil when the vertex
// lives in an unpartitioned container.
type Endpoint struct {
	ID           string      `json:"id"`
	Label        string      `json:"label"`
	PartitionKey interface{} `json:"partitionKey,omitempty"`
}

// EndpointOf describes v as an edge endpoint, taking the partition key from
// the first value of partitionProperty. An empty partitionProperty, or "id",
// behaves as the container conventions expect.
func EndpointOf(v *Vertex, partitionProperty string) Endpoint {
	ep := Endpoint{ID: v.ID, Label: v.Label}

	switch partitionProperty {
	case "":
	case "id":
		ep.PartitionKey = v.ID
	default:
		if vp, ok := v.FirstProperty(partitionProperty); ok {
			ep.PartitionKey = vp.Value
		}
	}

	return ep
}

// Edge goes from the out vertex to the in vertex: out -label-> in.
type Edge struct {
	ID    string
	Label string

	OutVertexID           string
	OutVertexLabel        string
	OutVertexPartitionKey interface{}

	InVertexID           string
	InVertexLabel        string
	InVertexPartitionKey interface{}

	properties *PropertyCollection
}

func NewEdge(id, label string, out, in Endpoint) *Edge {
	return &Edge{
		ID:    id,
		Label: label,

		OutVertexID:           out.ID,
		OutVertexLabel:        out.Label,
		OutVertexPartitionKey: out.PartitionKey,

		InVertexID:           in.ID,
		InVertexLabel:        in.Label,
		InVertexPartitionKey: in.PartitionKey,
	}
}

func (e *Edge) element()             {}
func (e *Edge) ElementID() string    { return e.ID }
func (e *Edge) ElementLabel() string { return e.Label }

func (e *Edge) Out() Endpoint {
	return Endpoint{ID: e.OutVertexID, Label: e.OutVertexLabel, PartitionKey: e.OutVertexPartitionKey}
}

func (e *Edge) In() Endpoint {
	return Endpoint{ID: e.InVertexID, Label: e.InVertexLabel, PartitionKey: e.InVertexPartitionKey}
}

func (e *Edge) Validate() error {
	switch {
	case e == nil:
		return fmt.Errorf("edge is nil: %w", ErrValidationFailed)
	case e.ID == "":
		return fmt.Errorf("edge must have an id: %w", ErrValidationFailed)
	case e.Label == "":
		return fmt.Errorf("edge '%s' must have a label: %w", e.ID, ErrValidationFailed)
	case e.InVertexID == "":
		return fmt.Errorf("edge '%s' must have an in vertex id: %w", e.ID, ErrValidationFailed)
	case e.OutVertexID == "":
		return fmt.Errorf("edge '%s' must have an out vertex id: %w", e.ID, ErrValidationFailed)
	case e.InVertexLabel == "":
		return fmt.Errorf("edge '%s' must have an in vertex label: %w", e.ID, ErrValidationFailed)
	case e.OutVertexLabel == "":
		return fmt.Errorf("edge '%s' must have an out vertex label: %w", e.ID, ErrValidationFailed)
	}

	return nil
}

func (e *Edge) AddProperty(key string, value interface{}) error {
	if e.properties == nil {
		e.properties = &PropertyCollection{}
	}

	if err := e.properties.Add(NewProperty(key, value)); err != nil {
		return fmt.Errorf("edge '%s': %w", e.ID, err)
	}

	return nil
}

func (e *Edge) Property(key string) (Property, bool) {
	return e.properties.Get(key)
}

func (e *Edge) Properties() []Property {
	return e.properties.All()
}
