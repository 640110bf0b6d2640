package document

// Field names owned by the document schema. The asymmetric naming of the edge
// endpoint fields (_sink* for the in vertex, _vertex* for the out vertex) is
// what readers of existing collections expect.
const (
	FieldID    = "id"
	FieldLabel = "label"
	FieldTTL   = "ttl"

	// FieldPartition is the partition marker used by containers partitioned on
	// "/_partition".
	FieldPartition = "_partition"

	FieldPropertyID    = "id"
	FieldPropertyValue = "_value"
	FieldPropertyMeta  = "_meta"

	FieldSource          = "_src"
	FieldSourceLabel     = "_srcLabel"
	FieldSourcePartition = "_srcPartition"
	FieldSink            = "_sink"
	FieldSinkLabel       = "_sinkLabel"
	FieldSinkPartition   = "_sinkPartition"

	FieldVertexID    = "_vertexId"
	FieldVertexLabel = "_vertexLabel"
	FieldIsEdge      = "_isEdge"
)

// IsEdge reports whether d carries the edge discriminator.
func IsEdge(d *Document) bool {
	isEdge, ok := d.Get(FieldIsEdge)
	if !ok {
		return false
	}

	b, ok := isEdge.(bool)
	return ok && b
}
