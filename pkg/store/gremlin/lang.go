package gremlin

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/uswitch/graphbulk/pkg/document"
)

type Statements []Statement

func (ss Statements) String() string {
	lines := make([]string, len(ss))

	for idx, s := range ss {
		lines[idx] = s.String()
	}

	return strings.Join(lines, "\n")
}

// Statement is a Groovy traversal built up one step at a time. Every value
// passed to a step is rendered with Literal, never pasted in.
type Statement struct {
	parts []string
}

func Graph() Statement {
	return Statement{
		parts: []string{"graph.traversal()"},
	}
}

func Var(k string) Statement {
	return Statement{
		parts: []string{k},
	}
}

func (s Statement) String() string {
	return strings.Join(s.parts, ".")
}

func (s Statement) step(format string, args ...interface{}) Statement {
	parts := make([]string, len(s.parts), len(s.parts)+1)
	copy(parts, s.parts)

	return Statement{
		parts: append(parts, fmt.Sprintf(format, args...)),
	}
}

func (s Statement) V(ids ...interface{}) Statement {
	return s.step("V(%s)", literals(ids))
}

func (s Statement) E(ids ...interface{}) Statement {
	return s.step("E(%s)", literals(ids))
}

func (s Statement) AddV(label string) Statement {
	return s.step("addV(%s)", Literal(label))
}

func (s Statement) AddE(label string) Statement {
	return s.step("addE(%s)", Literal(label))
}

func (s Statement) From(other Statement) Statement {
	return s.step("from(%s)", other.String())
}

func (s Statement) To(other Statement) Statement {
	return s.step("to(%s)", other.String())
}

func (s Statement) Has(k string, v interface{}) Statement {
	return s.step("has(%s, %s)", Literal(k), Literal(v))
}

// ID sets the element id through the T.id token.
func (s Statement) ID(v interface{}) Statement {
	return s.step("property(id, %s)", Literal(v))
}

func (s Statement) Property(k string, v interface{}) Statement {
	return s.step("property(%s, %s)", Literal(k), Literal(v))
}

// PropertyList adds one more value under k with list cardinality, followed
// by its meta-properties as key/value pairs.
func (s Statement) PropertyList(k string, v interface{}, meta *document.Document) Statement {
	args := []string{"list", Literal(k), Literal(v)}

	for _, key := range meta.Keys() {
		value, _ := meta.Get(key)
		args = append(args, Literal(key), Literal(value))
	}

	return s.step("property(%s)", strings.Join(args, ", "))
}

func (s Statement) Drop() Statement {
	return s.step("drop()")
}

func (s Statement) Iterate() Statement {
	return s.step("iterate()")
}

func (s Statement) Count() Statement {
	return s.step("count()")
}

func (s Statement) Next() Statement {
	return s.step("next()")
}

func literals(vs []interface{}) string {
	out := make([]string, len(vs))
	for idx, v := range vs {
		out[idx] = Literal(v)
	}

	return strings.Join(out, ", ")
}

// Literal renders v as a Groovy literal.
func Literal(v interface{}) string {
	switch v := v.(type) {
	case nil:
		return "null"
	case string:
		return quote(v)
	case bool:
		return strconv.FormatBool(v)
	case json.Number:
		return v.String()
	case int:
		return strconv.Itoa(v)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10) + "L"
	case uint:
		return strconv.FormatUint(uint64(v), 10)
	case float32:
		return formatFloat(float64(v))
	case float64:
		return formatFloat(v)
	case []interface{}:
		return "[" + literals(v) + "]"
	case *document.Document:
		pairs := make([]string, 0, v.Len())
		for _, key := range v.Keys() {
			value, _ := v.Get(key)
			pairs = append(pairs, fmt.Sprintf("%s: %s", quote(key), Literal(value)))
		}
		if len(pairs) == 0 {
			return "[:]"
		}
		return "[" + strings.Join(pairs, ", ") + "]"
	case map[string]interface{}:
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		doc := document.New()
		for _, key := range keys {
			doc.Set(key, v[key])
		}
		return Literal(doc)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return quote(fmt.Sprint(v))
		}
		return quote(string(b))
	}
}

func formatFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return quote(strconv.FormatFloat(f, 'g', -1, 64))
	}

	return strconv.FormatFloat(f, 'g', -1, 64) + "d"
}

func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	s = strings.ReplaceAll(s, "\n", `\n`)

	return "'" + s + "'"
}
