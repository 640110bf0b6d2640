package inmem

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/uswitch/graphbulk/pkg/document"
	"github.com/uswitch/graphbulk/pkg/store"
)

// Container keeps documents in maps of partition -> id. Stored documents are
// copies, so callers can keep mutating what they wrote.
type Container struct {
	partitionKeyPath string

	partitions map[string]map[string]*document.Document
	closed     bool

	rw sync.RWMutex
}

func NewContainer(partitionKeyPath string) *Container {
	return &Container{
		partitionKeyPath: partitionKeyPath,
		partitions:       map[string]map[string]*document.Document{},
	}
}

func (c *Container) PartitionKeyPath(_ context.Context) (string, error) {
	return c.partitionKeyPath, nil
}

func (c *Container) Len(_ context.Context) (int, error) {
	c.rw.RLock()
	defer c.rw.RUnlock()

	num := 0
	for _, docs := range c.partitions {
		num += len(docs)
	}

	return num, nil
}

func (c *Container) Write(ctx context.Context, doc *document.Document, partitionKey interface{}, mode store.WriteMode) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	id, err := store.DocumentID(doc)
	if err != nil {
		return 0, err
	}

	pk, err := store.PartitionKeyString(partitionKey)
	if err != nil {
		return 0, err
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return 0, err
	}

	c.rw.Lock()
	defer c.rw.Unlock()

	if c.closed {
		return 0, store.ErrClosed
	}

	docs, ok := c.partitions[pk]
	if !ok {
		docs = map[string]*document.Document{}
		c.partitions[pk] = docs
	}

	if _, exists := docs[id]; exists && mode == store.Create {
		return store.ConflictCharge, store.ErrConflict
	}

	docs[id] = doc.Clone()

	return store.RequestCharge(len(body)), nil
}

func (c *Container) Read(ctx context.Context, id string, partitionKey interface{}) (*document.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pk, err := store.PartitionKeyString(partitionKey)
	if err != nil {
		return nil, err
	}

	c.rw.RLock()
	defer c.rw.RUnlock()

	if c.closed {
		return nil, store.ErrClosed
	}

	if doc, ok := c.partitions[pk][id]; !ok {
		return nil, store.ErrNotFound
	} else {
		return doc.Clone(), nil
	}
}

func (c *Container) Close() error {
	c.rw.Lock()
	defer c.rw.Unlock()

	c.closed = true

	return nil
}
