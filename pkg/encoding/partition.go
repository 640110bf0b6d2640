package encoding

import (
	"fmt"
	"strings"

	"github.com/uswitch/graphbulk/pkg/document"
)

// PartitionConfig says where partition values come from and where they go.
// The zero value describes an unpartitioned container.
type PartitionConfig struct {
	// Field is the document field the container is partitioned on.
	Field string
	// VertexProperty is the vertex property supplying the value of Field. It
	// equals Field except for "/_partition" containers, where it defaults to
	// the vertex id.
	VertexProperty string
}

func (pc PartitionConfig) Partitioned() bool { return pc.Field != "" }

// ResolvePartitionKeyPath turns a container's partition key path, such as
// "/pk", into a PartitionConfig. vertexProperty only matters for containers
// partitioned on "/_partition".
func ResolvePartitionKeyPath(path, vertexProperty string) (PartitionConfig, error) {
	switch path {
	case "":
		return PartitionConfig{}, nil
	case "/" + document.FieldID, "/" + document.FieldLabel:
		return PartitionConfig{}, fmt.Errorf("'%s': %w", path, ErrInvalidPartitionKeyPath)
	case "/" + document.FieldPartition:
		if vertexProperty == "" {
			vertexProperty = document.FieldID
		}

		return PartitionConfig{
			Field:          document.FieldPartition,
			VertexProperty: vertexProperty,
		}, nil
	}

	segments := strings.FieldsFunc(path, func(r rune) bool { return r == '/' })
	if len(segments) == 0 {
		return PartitionConfig{}, fmt.Errorf("'%s': %w", path, ErrInvalidPartitionKeyPath)
	}

	return PartitionConfig{
		Field:          segments[0],
		VertexProperty: segments[0],
	}, nil
}

// PartitionValue reads the partition key an encoded document is stored under.
func (pc PartitionConfig) PartitionValue(doc *document.Document) (interface{}, bool) {
	if !pc.Partitioned() {
		return nil, false
	}

	return doc.Get(pc.Field)
}
