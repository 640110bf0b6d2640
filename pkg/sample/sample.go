// Package sample generates graphs of people and their relationships for
// trying out a container.
package sample

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"

	"github.com/uswitch/graphbulk/pkg/graph"
	"github.com/uswitch/graphbulk/pkg/mapping"
)

var (
	firstNames     = []string{"John", "Shawn", "Sean", "Shawna", "Jane", "Alexis", "Allan", "Sara", "Sarah", "Janet", "Selah", "Anastasia", "Juanita", "Jesus"}
	lastNames      = []string{"Doe", "Smith", "Nagarajan", "Jones", "Jackson", "Diaz", "Williams", "Brown", "Garcia", "Miller", "Davis", "Rodriguez", "Martinez"}
	countries      = []string{"AFG", "USA", "ALB", "BHS", "BRA", "CHN", "CZE", "EGY", "GUM", "GIN", "HND", "HUN", "MDG", "MLI"}
	emailProviders = []string{"gmail", "yahoo", "me", "outlook", "aol", "yandex", "proton", "zoho", "tutanota"}
	relationships  = []string{"spouse", "child", "friend", "enemy", "co-worker", "guardian", "parent", "grand parent", "cousin", "partner", "ally"}
)

// Person is stored partitioned by country.
type Person struct {
	ID        string `graph:"id"`
	FirstName string
	LastName  string
	Email     string `graph:"name=ElectronicMail"`
	Country   string `graph:"partitionKey,name=country"`
	IsSpecial bool   `graph:"-"`
}

func (Person) GraphLabel() string { return "PERSON" }

type Relationship struct {
	ID   string `graph:"id"`
	Type string `graph:"label"`

	Source      *Person `graph:"out"`
	Destination *Person `graph:"in"`
}

// PartitionKeyPath is the path a container holding these samples needs.
const PartitionKeyPath = "/country"

type Generator struct {
	rand *rand.Rand
}

// NewGenerator is deterministic for a given source, ids included.
func NewGenerator(source rand.Source) *Generator {
	return &Generator{rand: rand.New(source)}
}

func (g *Generator) pick(from []string) string {
	return from[g.rand.Intn(len(from))]
}

func (g *Generator) id() string {
	id, err := uuid.NewRandomFromReader(g.rand)
	if err != nil {
		// reading from a math/rand source doesn't fail
		panic(err)
	}

	return id.String()
}

func (g *Generator) People(n int) []*Person {
	people := make([]*Person, n)

	for idx := range people {
		first, last := g.pick(firstNames), g.pick(lastNames)

		people[idx] = &Person{
			ID:        g.id(),
			FirstName: first,
			LastName:  last,
			Email:     fmt.Sprintf("%s.%s@%s.com", first, last, g.pick(emailProviders)),
			Country:   g.pick(countries),
			IsSpecial: g.rand.Intn(2) == 0,
		}
	}

	return people
}

// Relationships gives every person between 1 and factor relationships with
// someone else. There are none with fewer than two people.
func (g *Generator) Relationships(people []*Person, factor int) []*Relationship {
	rels := []*Relationship{}

	if len(people) < 2 || factor < 1 {
		return rels
	}

	for idx, source := range people {
		num := g.rand.Intn(factor) + 1

		for i := 0; i < num; i++ {
			other := g.rand.Intn(len(people) - 1)
			if other >= idx {
				other++
			}

			rels = append(rels, &Relationship{
				ID:          g.id(),
				Type:        g.pick(relationships),
				Source:      source,
				Destination: people[other],
			})
		}
	}

	return rels
}

// Elements maps people and relationships to graph elements, vertices first.
func Elements(people []*Person, rels []*Relationship) ([]graph.Element, error) {
	elements := make([]graph.Element, 0, len(people)+len(rels))

	for _, p := range people {
		v, err := mapping.ToVertex(p)
		if err != nil {
			return nil, err
		}
		elements = append(elements, v)
	}

	for _, r := range rels {
		e, err := mapping.ToEdge(r)
		if err != nil {
			return nil, err
		}
		elements = append(elements, e)
	}

	return elements, nil
}

// Graph generates n people with their relationships.
func (g *Generator) Graph(n, factor int) ([]graph.Element, error) {
	people := g.People(n)
	return Elements(people, g.Relationships(people, factor))
}
