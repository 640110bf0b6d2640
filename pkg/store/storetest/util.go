package storetest

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/uswitch/graphbulk/pkg/document"
)

func Doc(id string, kvs ...interface{}) *document.Document {
	doc := document.New()
	doc.Set(document.FieldID, id)

	for idx := 0; idx+1 < len(kvs); idx += 2 {
		doc.Set(kvs[idx].(string), kvs[idx+1])
	}

	return doc
}

// LargeDoc is roughly size bytes once marshalled.
func LargeDoc(id string, size int) *document.Document {
	return Doc(id, "padding", strings.Repeat("x", size))
}

func AssertSameJSON(t *testing.T, expected, actual *document.Document) {
	t.Helper()

	e, err := json.Marshal(expected)
	if err != nil {
		t.Fatal(err)
	}
	a, err := json.Marshal(actual)
	if err != nil {
		t.Fatal(err)
	}

	if string(e) != string(a) {
		t.Errorf("expected %s, but got %s", e, a)
	}
}
