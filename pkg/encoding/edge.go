package encoding

import (
	"fmt"

	"github.com/uswitch/graphbulk/pkg/document"
	"github.com/uswitch/graphbulk/pkg/graph"
)

// EdgeEncoder stores an edge in the partition of its out vertex, so outgoing
// traversals stay inside one partition. The in vertex partition is kept in
// _sinkPartition for incoming traversals.
type EdgeEncoder struct {
	partition PartitionConfig
	registry  *Registry
}

func NewEdgeEncoder(partition PartitionConfig) *EdgeEncoder {
	return &EdgeEncoder{
		partition: partition,
		registry:  NewRegistry(partition.Field),
	}
}

func (ee *EdgeEncoder) Registry() *Registry { return ee.registry }

func (ee *EdgeEncoder) Encode(e *graph.Edge) (*document.Document, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}

	doc := document.New()
	doc.Set(document.FieldID, e.ID)
	doc.Set(document.FieldLabel, e.Label)
	doc.Set(document.FieldSink, e.InVertexID)
	doc.Set(document.FieldVertexID, e.OutVertexID)
	doc.Set(document.FieldSinkLabel, e.InVertexLabel)
	doc.Set(document.FieldVertexLabel, e.OutVertexLabel)
	doc.Set(document.FieldIsEdge, true)

	if ee.partition.Partitioned() {
		if e.InVertexPartitionKey == nil {
			return nil, fmt.Errorf("in vertex '%s': %w", e.InVertexID, ErrMissingEndpointPartitionKey)
		}
		if e.OutVertexPartitionKey == nil {
			return nil, fmt.Errorf("out vertex '%s': %w", e.OutVertexID, ErrMissingEndpointPartitionKey)
		}

		doc.Set(ee.partition.Field, e.OutVertexPartitionKey)
		doc.Set(document.FieldSinkPartition, e.InVertexPartitionKey)
	}

	for _, p := range e.Properties() {
		if ee.registry.IsReserved(p.Key) {
			return nil, fmt.Errorf("edge property '%s': %w", p.Key, ErrReservedPropertyCollision)
		}

		doc.Set(p.Key, p.Value)
	}

	return doc, nil
}
