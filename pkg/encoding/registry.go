package encoding

import (
	"sort"

	"github.com/uswitch/graphbulk/pkg/document"
)

// Registry is the set of document fields the encoding owns. User properties
// on edges cannot use any of them.
type Registry struct {
	reserved map[string]struct{}
}

func NewRegistry(partitionKeyField string) *Registry {
	r := &Registry{
		reserved: map[string]struct{}{},
	}

	for _, key := range []string{
		document.FieldID,
		document.FieldLabel,
		document.FieldSink,
		document.FieldSinkLabel,
		document.FieldSinkPartition,
		document.FieldSource,
		document.FieldSourceLabel,
		document.FieldSourcePartition,
		document.FieldVertexID,
		document.FieldVertexLabel,
		document.FieldIsEdge,
	} {
		r.reserved[key] = struct{}{}
	}

	if partitionKeyField != "" {
		r.reserved[partitionKeyField] = struct{}{}
	}

	return r
}

func (r *Registry) IsReserved(key string) bool {
	_, ok := r.reserved[key]
	return ok
}

func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.reserved))
	for key := range r.reserved {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	return keys
}
