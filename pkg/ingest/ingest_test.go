package ingest

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uswitch/graphbulk/pkg/graph"
)

const input = `{"type":"vertex","id":"1","label":"person","properties":{"name":"a","pk":5,"tag":[{"value":"x","meta":{"by":"me"}},"y"]}}

{"type":"edge","id":"e1","label":"knows","out":{"id":"1","label":"person","partitionKey":5},"in":{"id":"2","label":"person","partitionKey":6},"properties":{"since":2019}}
`

func parser(t *testing.T) *Parser {
	p, err := NewParser()
	require.NoError(t, err)

	return p
}

func TestRead(t *testing.T) {
	elements, err := parser(t).Read(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, elements, 2)

	v, ok := elements[0].(*graph.Vertex)
	require.True(t, ok)
	assert.Equal(t, "1", v.ID)
	assert.Equal(t, "person", v.Label)
	assert.Equal(t, []string{"name", "pk", "tag"}, v.PropertyKeys())

	pk, ok := v.FirstProperty("pk")
	require.True(t, ok)
	assert.Equal(t, json.Number("5"), pk.Value)

	tags := v.Properties("tag")
	require.Len(t, tags, 2)
	assert.Equal(t, "x", tags[0].Value)
	require.True(t, tags[0].HasMeta())
	by, ok := tags[0].Meta().Get("by")
	require.True(t, ok)
	assert.Equal(t, "me", by.Value)
	assert.Equal(t, "y", tags[1].Value)
	assert.False(t, tags[1].HasMeta())

	e, ok := elements[1].(*graph.Edge)
	require.True(t, ok)
	assert.Equal(t, "1", e.OutVertexID)
	assert.Equal(t, "2", e.InVertexID)
	assert.Equal(t, json.Number("5"), e.OutVertexPartitionKey)
	assert.Equal(t, json.Number("6"), e.InVertexPartitionKey)

	since, ok := e.Property("since")
	require.True(t, ok)
	assert.Equal(t, json.Number("2019"), since.Value)
}

func TestReadReportsLine(t *testing.T) {
	cases := map[string]string{
		"not json":        `{"type":"vertex",`,
		"missing id":      `{"type":"vertex","label":"person"}`,
		"empty label":     `{"type":"vertex","id":"1","label":""}`,
		"unknown type":    `{"type":"hyperedge","id":"1","label":"x"}`,
		"null property":   `{"type":"vertex","id":"1","label":"person","properties":{"name":null}}`,
		"null meta":       `{"type":"vertex","id":"1","label":"person","properties":{"name":[{"value":"a","meta":{"by":null}}]}}`,
		"edge without in": `{"type":"edge","id":"e1","label":"knows","out":{"id":"1","label":"person"}}`,
		"bad endpoint":    `{"type":"edge","id":"e1","label":"knows","out":{"id":"1"},"in":{"id":"2","label":"person"}}`,
		"array props":     `{"type":"vertex","id":"1","label":"person","properties":[]}`,
	}

	for name, line := range cases {
		_, err := parser(t).Read(strings.NewReader(`{"type":"vertex","id":"0","label":"ok"}` + "\n" + line + "\n"))

		var lineErr *LineError
		if assert.True(t, errors.As(err, &lineErr), "%s: got %v", name, err) {
			assert.Equal(t, 2, lineErr.Line, name)
		}
	}
}

func TestSchemaRejectionsAreInvalidElements(t *testing.T) {
	_, err := parser(t).ParseLine([]byte(`{"type":"vertex","id":"1","label":"person","properties":{"name":null}}`))
	assert.True(t, errors.Is(err, ErrInvalidElement), "got %v", err)
	assert.Contains(t, err.Error(), "/properties/name")
}

func TestWriteRoundTrip(t *testing.T) {
	p := parser(t)

	elements, err := p.Read(strings.NewReader(input))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, NewWriter(&buf).Write(elements...))

	again, err := p.Read(&buf)
	require.NoError(t, err)
	require.Len(t, again, 2)

	var first, second bytes.Buffer
	require.NoError(t, NewWriter(&first).Write(elements...))
	require.NoError(t, NewWriter(&second).Write(again...))
	assert.Equal(t, first.String(), second.String())

	lines := strings.Split(strings.TrimSpace(first.String()), "\n")
	assert.Equal(t,
		`{"type":"vertex","id":"1","label":"person","properties":{"name":"a","pk":5,"tag":[{"value":"x","meta":{"by":"me"}},"y"]}}`,
		lines[0],
	)
}

func TestMarshalUnsupported(t *testing.T) {
	_, err := Marshal(nil)
	assert.True(t, errors.Is(err, ErrInvalidElement))
}

func TestReadReportsReaderErrors(t *testing.T) {
	errBroken := errors.New("connection reset")

	r := io.MultiReader(
		strings.NewReader(`{"type":"vertex","id":"0","label":"ok"}`+"\n"+`{"type":"ver`),
		iotest.ErrReader(errBroken),
	)

	_, err := parser(t).Read(r)
	assert.True(t, errors.Is(err, errBroken), "got %v", err)

	var lineErr *LineError
	assert.False(t, errors.As(err, &lineErr), "a truncated line is the reader's fault")
}
