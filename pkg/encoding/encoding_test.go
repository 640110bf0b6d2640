package encoding

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/kr/pretty"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uswitch/graphbulk/pkg/document"
	"github.com/uswitch/graphbulk/pkg/graph"
)

var pk = PartitionConfig{Field: "pk", VertexProperty: "pk"}

func sequentialIDs() func() string {
	next := 0
	return func() string {
		next++
		return fmt.Sprintf("p%d", next)
	}
}

func assertDocument(t *testing.T, expected string, doc *document.Document) {
	t.Helper()

	actual, err := json.Marshal(doc)
	require.NoError(t, err)

	if string(actual) != expected {
		var e, a interface{}
		json.Unmarshal([]byte(expected), &e)
		json.Unmarshal(actual, &a)

		t.Errorf("expected %s\n but got %s\n diff: %v", expected, actual, pretty.Diff(e, a))
	}
}

func vertex(t *testing.T, id, label string, kvs ...interface{}) *graph.Vertex {
	v := graph.NewVertex(id, label)

	for idx := 0; idx < len(kvs); idx += 2 {
		require.NoError(t, v.AddProperty(kvs[idx].(string), kvs[idx+1]))
	}

	return v
}

func TestVertexFlattened(t *testing.T) {
	enc := New(pk, Flattened)

	doc, err := enc.Encode(vertex(t, "1", "vertex", "pk", 5, "name", "a"))
	require.NoError(t, err)

	assertDocument(t, `{"id":"1","label":"vertex","pk":5,"name":"a"}`, doc)
}

func TestVertexFlattenedOnlyKeepsFirstValue(t *testing.T) {
	enc := New(pk, Flattened)

	doc, err := enc.Encode(vertex(t, "1", "vertex", "pk", 5, "name", "a", "name", "b", "pk", 6))
	require.NoError(t, err)

	assertDocument(t, `{"id":"1","label":"vertex","pk":5,"name":"a"}`, doc)
}

func TestVertexMultiValued(t *testing.T) {
	enc := New(pk, MultiValued, WithIDGenerator(sequentialIDs()))

	v := vertex(t, "1", "person", "name", "a", "pk", "GBR")
	_, err := v.AddVertexProperty(
		graph.NewVertexProperty("name", "b").
			WithProperty("source", "hr").
			WithProperty("at", 2019),
	)
	require.NoError(t, err)

	doc, err := enc.Encode(v)
	require.NoError(t, err)

	assertDocument(t,
		`{"id":"1","label":"person","name":[{"_value":"a","id":"p1"},{"_value":"b","id":"p2","_meta":{"source":"hr","at":2019}}],"pk":"GBR"}`,
		doc,
	)
}

func TestVertexMultiValuedGeneratesDistinctIDs(t *testing.T) {
	enc := New(pk, MultiValued)

	v := vertex(t, "1", "person", "pk", 1)
	for idx := 0; idx < 50; idx++ {
		require.NoError(t, v.AddProperty("visit", idx))
	}

	doc, err := enc.Encode(v)
	require.NoError(t, err)

	visits, ok := doc.Get("visit")
	require.True(t, ok)

	values := visits.([]interface{})
	require.Len(t, values, 50)

	seen := map[string]bool{}
	for idx, value := range values {
		element := value.(*document.Document)

		id, ok := element.String(document.FieldPropertyID)
		require.True(t, ok)
		assert.False(t, seen[id], "id %s was generated twice", id)
		seen[id] = true

		stored, _ := element.Get(document.FieldPropertyValue)
		assert.Equal(t, idx, stored)
		assert.False(t, element.Has(document.FieldPropertyMeta))
	}
}

func TestVertexTTLIsAlwaysFlat(t *testing.T) {
	enc := New(PartitionConfig{}, MultiValued, WithIDGenerator(sequentialIDs()))

	doc, err := enc.Encode(vertex(t, "1", "person", "TTL", 60, "ttl", 30, "name", "a"))
	require.NoError(t, err)

	assertDocument(t, `{"id":"1","label":"person","TTL":60,"ttl":30,"name":[{"_value":"a","id":"p1"}]}`, doc)
}

func TestVertexPartitionKeyRequired(t *testing.T) {
	for _, mode := range []Mode{Flattened, MultiValued} {
		_, err := New(pk, mode).Encode(vertex(t, "1", "person", "name", "a"))
		assert.True(t, errors.Is(err, ErrPartitionKeyRequired), "%v: got %v", mode, err)
	}

	// without a partitioned container nothing is required
	doc, err := New(PartitionConfig{}, Flattened).Encode(vertex(t, "1", "person", "name", "a"))
	require.NoError(t, err)
	assertDocument(t, `{"id":"1","label":"person","name":"a"}`, doc)
}

func TestVertexPartitionKeyIsNotDuplicated(t *testing.T) {
	doc, err := New(pk, MultiValued).Encode(vertex(t, "1", "person", "pk", 5))
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "label", "pk"}, doc.Keys())
	value, _ := doc.Get("pk")
	assert.Equal(t, 5, value)
}

func TestVertexMissingValues(t *testing.T) {
	v := vertex(t, "1", "person", "pk", 1)
	require.NoError(t, v.SetProperties("pk"))

	_, err := New(pk, Flattened).Encode(v)
	assert.True(t, errors.Is(err, ErrMissingPartitionKeyValue), "got %v", err)

	v = vertex(t, "1", "person", "pk", 1, "name", "a")
	require.NoError(t, v.SetProperties("name"))

	_, err = New(pk, Flattened).Encode(v)
	assert.True(t, errors.Is(err, ErrMissingPropertyValue), "got %v", err)

	// an empty multi-valued key is an empty array
	doc, err := New(pk, MultiValued).Encode(v)
	require.NoError(t, err)
	assertDocument(t, `{"id":"1","label":"person","pk":1,"name":[]}`, doc)
}

func TestVertexReservedKeys(t *testing.T) {
	for _, key := range []string{"id", "label"} {
		_, err := New(pk, Flattened).Encode(vertex(t, "1", "person", "pk", 1, key, "x"))
		assert.True(t, errors.Is(err, ErrReservedPropertyCollision), "%s: got %v", key, err)
	}

	partitioned := PartitionConfig{Field: document.FieldPartition, VertexProperty: "country"}
	_, err := New(partitioned, Flattened).Encode(vertex(t, "1", "person", "country", "GBR", "_partition", "x"))
	assert.True(t, errors.Is(err, ErrReservedPropertyCollision), "got %v", err)
}

func TestVertexPartitionMarker(t *testing.T) {
	byID, err := ResolvePartitionKeyPath("/_partition", "")
	require.NoError(t, err)

	doc, err := New(byID, Flattened).Encode(vertex(t, "1", "person", "name", "a"))
	require.NoError(t, err)
	assertDocument(t, `{"id":"1","label":"person","_partition":"1","name":"a"}`, doc)

	byCountry, err := ResolvePartitionKeyPath("/_partition", "country")
	require.NoError(t, err)

	doc, err = New(byCountry, Flattened).Encode(vertex(t, "1", "person", "name", "a", "country", "GBR"))
	require.NoError(t, err)
	assertDocument(t, `{"id":"1","label":"person","name":"a","_partition":"GBR","country":"GBR"}`, doc)

	enc := New(byCountry, MultiValued, WithIDGenerator(func() string { return "p" }))
	doc, err = enc.Encode(vertex(t, "1", "person", "country", "GBR", "country", "USA"))
	require.NoError(t, err)
	assertDocument(t, `{"id":"1","label":"person","_partition":"GBR","country":[{"_value":"GBR","id":"p"},{"_value":"USA","id":"p"}]}`, doc)
}

func TestVertexValidationFailure(t *testing.T) {
	_, err := New(pk, Flattened).Encode(graph.NewVertex("", "person"))
	assert.True(t, errors.Is(err, graph.ErrValidationFailed), "got %v", err)

	var elementErr *ElementError
	require.True(t, errors.As(err, &elementErr))
	assert.Equal(t, "vertex", elementErr.Kind)
}

func TestVertexEncodingDoesNotMutate(t *testing.T) {
	v := vertex(t, "1", "person", "pk", 1, "name", "a", "name", "b")
	enc := New(pk, MultiValued, WithIDGenerator(func() string { return "same" }))

	first, err := enc.Encode(v)
	require.NoError(t, err)
	second, err := enc.Encode(v)
	require.NoError(t, err)

	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	assert.Equal(t, string(a), string(b))

	assert.Equal(t, []string{"pk", "name"}, v.PropertyKeys())
	assert.Len(t, v.Properties("name"), 2)
}

func knows(t *testing.T, props ...interface{}) *graph.Edge {
	e := graph.NewEdge("e1", "knows",
		graph.Endpoint{ID: "1", Label: "vertex", PartitionKey: 5},
		graph.Endpoint{ID: "2", Label: "vertex", PartitionKey: 6},
	)

	for idx := 0; idx < len(props); idx += 2 {
		require.NoError(t, e.AddProperty(props[idx].(string), props[idx+1]))
	}

	return e
}

func TestEdgePartitioned(t *testing.T) {
	doc, err := New(pk, MultiValued).Encode(knows(t))
	require.NoError(t, err)

	assertDocument(t,
		`{"id":"e1","label":"knows","_sink":"2","_vertexId":"1","_sinkLabel":"vertex","_vertexLabel":"vertex","_isEdge":true,"pk":5,"_sinkPartition":6}`,
		doc,
	)
	assert.True(t, document.IsEdge(doc))
}

func TestEdgeProperties(t *testing.T) {
	doc, err := New(PartitionConfig{}, MultiValued).Encode(knows(t, "since", 2019, "weight", 0.5))
	require.NoError(t, err)

	assertDocument(t,
		`{"id":"e1","label":"knows","_sink":"2","_vertexId":"1","_sinkLabel":"vertex","_vertexLabel":"vertex","_isEdge":true,"since":2019,"weight":0.5}`,
		doc,
	)
}

func TestEdgeReservedPropertyCollision(t *testing.T) {
	enc := New(pk, Flattened)

	for _, key := range enc.Registry().Keys() {
		_, err := enc.Encode(knows(t, key, "x"))
		assert.True(t, errors.Is(err, ErrReservedPropertyCollision), "%s: got %v", key, err)
	}

	assert.Contains(t, enc.Registry().Keys(), "pk")
}

func TestEdgeMissingEndpointPartitionKey(t *testing.T) {
	enc := New(pk, Flattened)

	e := knows(t)
	e.InVertexPartitionKey = nil
	_, err := enc.Encode(e)
	assert.True(t, errors.Is(err, ErrMissingEndpointPartitionKey), "got %v", err)

	e = knows(t)
	e.OutVertexPartitionKey = nil
	_, err = enc.Encode(e)
	assert.True(t, errors.Is(err, ErrMissingEndpointPartitionKey), "got %v", err)

	// unpartitioned containers ignore endpoint partitions
	_, err = New(PartitionConfig{}, Flattened).Encode(e)
	assert.NoError(t, err)
}

func TestEdgeValidationFailure(t *testing.T) {
	e := knows(t)
	e.OutVertexLabel = ""

	_, err := New(pk, Flattened).Encode(e)
	assert.True(t, errors.Is(err, graph.ErrValidationFailed), "got %v", err)
}

func TestEncodeAllStopsAtFirstError(t *testing.T) {
	elements := []graph.Element{
		vertex(t, "1", "person", "pk", 1),
		vertex(t, "2", "person"),
		knows(t),
	}

	docs, err := New(pk, Flattened).EncodeAll(elements)
	assert.Nil(t, docs)

	var elementErr *ElementError
	require.True(t, errors.As(err, &elementErr))
	assert.Equal(t, 1, elementErr.Index)
	assert.Equal(t, "2", elementErr.ID)
	assert.True(t, errors.Is(err, ErrPartitionKeyRequired))
}

func TestEncodeUnsupportedElement(t *testing.T) {
	_, err := New(pk, Flattened).Encode(nil)
	assert.True(t, errors.Is(err, ErrUnsupportedElement), "got %v", err)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry("pk")

	for _, key := range []string{"id", "label", "pk", "_sink", "_sinkLabel", "_sinkPartition", "_vertexId", "_vertexLabel", "_isEdge", "_src", "_srcLabel", "_srcPartition"} {
		assert.True(t, r.IsReserved(key), key)
	}
	for _, key := range []string{"name", "PK", "Id", "_value"} {
		assert.False(t, r.IsReserved(key), key)
	}

	assert.False(t, NewRegistry("").IsReserved(""))
}

func TestResolvePartitionKeyPath(t *testing.T) {
	cases := []struct {
		Path     string
		Override string
		Expected PartitionConfig
		Err      error
	}{
		{Path: "", Expected: PartitionConfig{}},
		{Path: "/pk", Expected: PartitionConfig{Field: "pk", VertexProperty: "pk"}},
		{Path: "/country/code", Expected: PartitionConfig{Field: "country", VertexProperty: "country"}},
		{Path: "/_partition", Expected: PartitionConfig{Field: "_partition", VertexProperty: "id"}},
		{Path: "/_partition", Override: "country", Expected: PartitionConfig{Field: "_partition", VertexProperty: "country"}},
		{Path: "/id", Err: ErrInvalidPartitionKeyPath},
		{Path: "/label", Err: ErrInvalidPartitionKeyPath},
		{Path: "/", Err: ErrInvalidPartitionKeyPath},
	}

	for _, c := range cases {
		actual, err := ResolvePartitionKeyPath(c.Path, c.Override)

		if c.Err != nil {
			assert.True(t, errors.Is(err, c.Err), "%s: got %v", c.Path, err)
			continue
		}

		require.NoError(t, err, c.Path)
		assert.Equal(t, c.Expected, actual, c.Path)
	}
}

func TestParseMode(t *testing.T) {
	for in, expected := range map[string]Mode{"": MultiValued, "multi-valued": MultiValued, "Flattened": Flattened, "flat": Flattened} {
		actual, err := ParseMode(in)
		require.NoError(t, err)
		assert.Equal(t, expected, actual)
	}

	_, err := ParseMode("sideways")
	assert.Error(t, err)
}
