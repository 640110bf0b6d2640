package gremlin

import (
	"encoding/json"
	"testing"

	"github.com/uswitch/graphbulk/pkg/document"
)

func TestLang(t *testing.T) {
	out := Graph().V().Has("name", "hercules").Count().String()
	if expected := "graph.traversal().V().has('name', 'hercules').count()"; out != expected {
		t.Errorf("expected '%s', but got '%s'", expected, out)
	}

	out = Var("g").V("1").Drop().Iterate().String()
	if expected := "g.V('1').drop().iterate()"; out != expected {
		t.Errorf("expected '%s', but got '%s'", expected, out)
	}

	out = Var("g").AddE("knows").From(Var("g").V("1")).To(Var("g").V("2")).ID("e1").String()
	if expected := "g.addE('knows').from(g.V('1')).to(g.V('2')).property(id, 'e1')"; out != expected {
		t.Errorf("expected '%s', but got '%s'", expected, out)
	}
}

func TestStatementsDoNotShareSteps(t *testing.T) {
	base := Var("g").V("1")

	a := base.Count()
	b := base.Drop()

	if a.String() != "g.V('1').count()" || b.String() != "g.V('1').drop()" {
		t.Errorf("expected independent statements, but got '%s' and '%s'", a, b)
	}
}

func TestPropertyList(t *testing.T) {
	meta := document.New()
	meta.Set("by", "me")
	meta.Set("at", 2019)

	out := Var("g").AddV("person").PropertyList("name", "a", meta).PropertyList("name", "b", nil).String()
	if expected := "g.addV('person').property(list, 'name', 'a', 'by', 'me', 'at', 2019).property(list, 'name', 'b')"; out != expected {
		t.Errorf("expected '%s', but got '%s'", expected, out)
	}
}

func TestLiteral(t *testing.T) {
	doc := document.New()
	doc.Set("b", 1)
	doc.Set("a", "x")

	cases := []struct {
		Value    interface{}
		Expected string
	}{
		{nil, "null"},
		{"plain", "'plain'"},
		{"it's", `'it\'s'`},
		{`back\slash`, `'back\\slash'`},
		{"line\nbreak", `'line\nbreak'`},
		{"'); g.V().drop(); ('", `'\'); g.V().drop(); (\''`},
		{true, "true"},
		{5, "5"},
		{int64(5), "5L"},
		{json.Number("5"), "5"},
		{0.5, "0.5d"},
		{[]interface{}{1, "a"}, "[1, 'a']"},
		{doc, "['b': 1, 'a': 'x']"},
		{document.New(), "[:]"},
		{map[string]interface{}{"z": 1, "y": 2}, "['y': 2, 'z': 1]"},
	}

	for _, c := range cases {
		if actual := Literal(c.Value); actual != c.Expected {
			t.Errorf("%#v: expected %s, but got %s", c.Value, c.Expected, actual)
		}
	}
}
