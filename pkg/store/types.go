package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/uswitch/graphbulk/pkg/document"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrConflict             = errors.New("document already exists")
	ErrClosed               = errors.New("container is closed")
	ErrMissingID            = errors.New("document has no string id")
	ErrPartitionKeyMismatch = errors.New("partition key path does not match the container")
)

type WriteMode int

const (
	// Create fails with ErrConflict when the id is already in the partition.
	Create WriteMode = iota
	Upsert
)

func (m WriteMode) String() string {
	switch m {
	case Create:
		return "create"
	case Upsert:
		return "upsert"
	default:
		return fmt.Sprintf("WriteMode(%d)", int(m))
	}
}

// Container is where encoded documents are written. Implementations must be
// safe for concurrent Write calls.
type Container interface {
	// PartitionKeyPath is "" for an unpartitioned container, "/pk" etc.
	// otherwise.
	PartitionKeyPath(context.Context) (string, error)
	// Write returns the cost of the request, including failed ones.
	Write(ctx context.Context, doc *document.Document, partitionKey interface{}, mode WriteMode) (float64, error)
	Close() error
}

type Reader interface {
	Read(ctx context.Context, id string, partitionKey interface{}) (*document.Document, error)
}

// ConflictCharge is what a rejected Create costs.
const ConflictCharge = 1.0

// RequestCharge is one unit per started KiB written, and never less than one.
func RequestCharge(size int) float64 {
	if size <= 0 {
		return 1
	}

	return float64((size + 1023) / 1024)
}

// DocumentID is the id a container files doc under.
func DocumentID(doc *document.Document) (string, error) {
	id, ok := doc.String(document.FieldID)
	if !ok || id == "" {
		return "", ErrMissingID
	}

	return id, nil
}

// PartitionKeyString renders a partition key as JSON, so 5 and "5" end up in
// different partitions.
func PartitionKeyString(partitionKey interface{}) (string, error) {
	b, err := json.Marshal(partitionKey)
	if err != nil {
		return "", fmt.Errorf("partition key %v: %w", partitionKey, err)
	}

	return string(b), nil
}
