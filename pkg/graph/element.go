// Package graph holds the property-graph model handed to the encoders:
// vertices with multi-valued, meta-annotated properties and edges with
// single-valued properties.
package graph

// Element is either a *Vertex or an *Edge. The interface is sealed so a type
// switch over those two covers every element.
type Element interface {
	ElementID() string
	ElementLabel() string
	Validate() error

	element()
}

var (
	_ Element = &Vertex{}
	_ Element = &Edge{}
)
