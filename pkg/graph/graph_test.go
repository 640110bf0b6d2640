package graph

import (
	"errors"
	"testing"
)

func TestPropertyEqual(t *testing.T) {
	cases := []struct {
		P1, P2        Property
		ShouldBeEqual bool
	}{
		{P1: NewProperty("name", "a"), P2: NewProperty("name", "a"), ShouldBeEqual: true},
		{P1: NewProperty("Name", "a"), P2: NewProperty("nAME", "a"), ShouldBeEqual: true},
		{P1: NewProperty("name", "a"), P2: NewProperty("name", "b"), ShouldBeEqual: false},
		{P1: NewProperty("age", 5), P2: NewProperty("age", int64(5)), ShouldBeEqual: false},
		{P1: NewProperty("age", 5), P2: NewProperty("age", 5.0), ShouldBeEqual: false},
		{P1: NewProperty("tags", []string{"a"}), P2: NewProperty("tags", []string{"a"}), ShouldBeEqual: true},
		{P1: NewProperty("name", "a"), P2: NewProperty("other", "a"), ShouldBeEqual: false},
	}

	for _, c := range cases {
		if c.P1.Equal(c.P2) != c.ShouldBeEqual {
			t.Errorf("expected %v equal to %v to be %v, it wasn't", c.P1, c.P2, c.ShouldBeEqual)
		}
	}
}

func TestPropertyCollectionRejectsDuplicates(t *testing.T) {
	c := &PropertyCollection{}

	if err := c.Add(NewProperty("since", 2019)); err != nil {
		t.Fatalf("couldn't add first property: %v", err)
	}
	if err := c.Add(NewProperty("weight", 0.5)); err != nil {
		t.Fatalf("couldn't add second property: %v", err)
	}

	if err := c.Add(NewProperty("since", 2020)); !errors.Is(err, ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, but got %v", err)
	}

	// lookups are case-sensitive, so this is a different key
	if err := c.Add(NewProperty("Since", 2020)); err != nil {
		t.Errorf("expected a differently cased key to be accepted, but got %v", err)
	}

	all := c.All()
	if expected := 3; len(all) != expected {
		t.Fatalf("expected %d properties, but got %d", expected, len(all))
	}
	for idx, key := range []string{"since", "weight", "Since"} {
		if all[idx].Key != key {
			t.Errorf("expected key %d to be '%s', but was '%s'", idx, key, all[idx].Key)
		}
	}

	if p, ok := c.Get("since"); !ok || p.Value != 2019 {
		t.Errorf("expected since to keep its first value, got %v", p)
	}
}

func TestPropertyCollectionValidates(t *testing.T) {
	c := &PropertyCollection{}

	if err := c.Add(NewProperty("", 1)); !errors.Is(err, ErrValidationFailed) {
		t.Errorf("expected an empty key to fail validation, but got %v", err)
	}
	if err := c.Add(NewProperty("nil", nil)); !errors.Is(err, ErrValidationFailed) {
		t.Errorf("expected a nil value to fail validation, but got %v", err)
	}
	if c.Len() != 0 {
		t.Errorf("expected nothing to be added, but have %d", c.Len())
	}
}

func TestVertexMultiValuedProperties(t *testing.T) {
	v := NewVertex("1", "person")

	for _, kv := range []struct {
		K string
		V interface{}
	}{{"name", "a"}, {"pk", 5}, {"name", "b"}, {"age", 30}} {
		if err := v.AddProperty(kv.K, kv.V); err != nil {
			t.Fatalf("couldn't add %s: %v", kv.K, err)
		}
	}

	keys := v.PropertyKeys()
	if expected := []string{"name", "pk", "age"}; len(keys) != len(expected) {
		t.Fatalf("expected keys %v, but got %v", expected, keys)
	} else {
		for idx := range expected {
			if keys[idx] != expected[idx] {
				t.Errorf("expected keys %v, but got %v", expected, keys)
			}
		}
	}

	names := v.Properties("name")
	if len(names) != 2 || names[0].Value != "a" || names[1].Value != "b" {
		t.Errorf("expected name to hold [a b] in order, got %v", names)
	}

	if first, ok := v.FirstProperty("name"); !ok || first.Value != "a" {
		t.Errorf("expected first name to be 'a', got %v", first)
	}

	if expected := 4; len(v.AllProperties()) != expected {
		t.Errorf("expected %d properties in total, got %d", expected, len(v.AllProperties()))
	}
}

func TestVertexPropertyMeta(t *testing.T) {
	vp := NewVertexProperty("name", "a")

	if vp.HasMeta() {
		t.Error("a fresh vertex property shouldn't have meta properties")
	}

	if err := vp.AddProperty("source", "hr"); err != nil {
		t.Fatalf("couldn't add meta property: %v", err)
	}
	if err := vp.AddProperty("source", "crm"); !errors.Is(err, ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey for a repeated meta key, got %v", err)
	}

	if !vp.HasMeta() || vp.Meta().Len() != 1 {
		t.Errorf("expected exactly one meta property, got %d", vp.Meta().Len())
	}
}

func TestVertexSetProperties(t *testing.T) {
	v := NewVertex("1", "person")
	v.AddProperty("name", "a")
	v.AddProperty("age", 1)

	if err := v.SetProperties("name"); err != nil {
		t.Fatalf("couldn't clear name: %v", err)
	}
	if _, ok := v.FirstProperty("name"); ok {
		t.Error("expected name to have no values after clearing")
	}
	if keys := v.PropertyKeys(); len(keys) != 2 || keys[0] != "name" {
		t.Errorf("expected name to keep its position, got %v", keys)
	}

	if err := v.SetProperties("name", NewVertexProperty("other", 1)); !errors.Is(err, ErrValidationFailed) {
		t.Errorf("expected a mismatched key to fail, got %v", err)
	}
}

func TestVertexValidate(t *testing.T) {
	cases := []struct {
		Vertex *Vertex
		Valid  bool
	}{
		{NewVertex("1", "person"), true},
		{NewVertex("", "person"), false},
		{NewVertex("1", ""), false},
	}

	for _, c := range cases {
		err := c.Vertex.Validate()
		if c.Valid && err != nil {
			t.Errorf("expected %+v to be valid, got %v", c.Vertex, err)
		} else if !c.Valid && !errors.Is(err, ErrValidationFailed) {
			t.Errorf("expected %+v to fail validation, got %v", c.Vertex, err)
		}
	}

	if err := NewVertex("1", "p").AddProperty("", "x"); !errors.Is(err, ErrValidationFailed) {
		t.Errorf("expected empty key to fail, got %v", err)
	}
	if err := NewVertex("1", "p").AddProperty("x", nil); !errors.Is(err, ErrValidationFailed) {
		t.Errorf("expected nil value to fail, got %v", err)
	}
}

func TestEdgeValidate(t *testing.T) {
	out := Endpoint{ID: "1", Label: "person", PartitionKey: 5}
	in := Endpoint{ID: "2", Label: "person", PartitionKey: 6}

	valid := NewEdge("e1", "knows", out, in)
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected edge to be valid: %v", err)
	}

	broken := []func(e *Edge){
		func(e *Edge) { e.ID = "" },
		func(e *Edge) { e.Label = "" },
		func(e *Edge) { e.InVertexID = "" },
		func(e *Edge) { e.OutVertexID = "" },
		func(e *Edge) { e.InVertexLabel = "" },
		func(e *Edge) { e.OutVertexLabel = "" },
	}

	for idx, breakEdge := range broken {
		e := NewEdge("e1", "knows", out, in)
		breakEdge(e)

		if err := e.Validate(); !errors.Is(err, ErrValidationFailed) {
			t.Errorf("case %d: expected ErrValidationFailed, got %v", idx, err)
		}
	}
}

func TestEdgeProperties(t *testing.T) {
	e := NewEdge("e1", "knows", Endpoint{ID: "1", Label: "p"}, Endpoint{ID: "2", Label: "p"})

	if err := e.AddProperty("since", 2019); err != nil {
		t.Fatal(err)
	}
	if err := e.AddProperty("since", 2020); !errors.Is(err, ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}

	if p, ok := e.Property("since"); !ok || p.Value != 2019 {
		t.Errorf("expected since=2019, got %v", p)
	}
}

func TestEndpointOf(t *testing.T) {
	v := NewVertex("1", "person")
	v.AddProperty("country", "GBR")
	v.AddProperty("country", "USA")

	if ep := EndpointOf(v, "country"); ep.PartitionKey != "GBR" {
		t.Errorf("expected first country to be the partition key, got %v", ep.PartitionKey)
	}
	if ep := EndpointOf(v, "id"); ep.PartitionKey != "1" {
		t.Errorf("expected id to be the partition key, got %v", ep.PartitionKey)
	}
	if ep := EndpointOf(v, ""); ep.PartitionKey != nil {
		t.Errorf("expected no partition key, got %v", ep.PartitionKey)
	}
}
