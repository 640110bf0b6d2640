// Package badger is a durable document container on top of BadgerDB.
//
// Documents live under d/<partition key as JSON>/<id>. The container's
// partition key path is written under m/partitionKeyPath the first time the
// database is opened and must match on every later open.
package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/dgraph-io/badger/v4"

	"github.com/uswitch/graphbulk/pkg/document"
	"github.com/uswitch/graphbulk/pkg/store"
)

const (
	prefixDocument = "d/"
	keyPartition   = "m/partitionKeyPath"

	// conflicting transactions are retried this many times
	maxAttempts = 5
)

type Options struct {
	Dir              string
	InMemory         bool
	PartitionKeyPath string
	// Logger receives badger's own logging. Nil keeps it quiet.
	Logger *log.Logger
}

type Container struct {
	db *badger.DB

	partitionKeyPath string

	mu     sync.RWMutex
	closed bool
}

func Open(opts Options) (*Container, error) {
	badgerOpts := badger.DefaultOptions(opts.Dir)

	if opts.InMemory {
		badgerOpts = badgerOpts.WithInMemory(true)
	}

	if opts.Logger != nil {
		badgerOpts = badgerOpts.WithLogger(&logger{opts.Logger})
	} else {
		badgerOpts = badgerOpts.WithLogger(nil)
	}

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger at '%s': %w", opts.Dir, err)
	}

	c := &Container{db: db}

	if err := c.loadPartitionKeyPath(opts.PartitionKeyPath); err != nil {
		db.Close()
		return nil, err
	}

	return c, nil
}

func (c *Container) loadPartitionKeyPath(path string) error {
	return c.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPartition))
		if err == badger.ErrKeyNotFound {
			c.partitionKeyPath = path
			return txn.Set([]byte(keyPartition), []byte(path))
		} else if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			if string(val) != path {
				return fmt.Errorf("container has '%s', asked for '%s': %w", val, path, store.ErrPartitionKeyMismatch)
			}

			c.partitionKeyPath = path
			return nil
		})
	})
}

func documentKey(id string, partitionKey interface{}) ([]byte, error) {
	pk, err := store.PartitionKeyString(partitionKey)
	if err != nil {
		return nil, err
	}

	return []byte(prefixDocument + pk + "/" + id), nil
}

func (c *Container) PartitionKeyPath(_ context.Context) (string, error) {
	return c.partitionKeyPath, nil
}

func (c *Container) Write(ctx context.Context, doc *document.Document, partitionKey interface{}, mode store.WriteMode) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return 0, store.ErrClosed
	}

	id, err := store.DocumentID(doc)
	if err != nil {
		return 0, err
	}

	key, err := documentKey(id, partitionKey)
	if err != nil {
		return 0, err
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return 0, fmt.Errorf("failed to encode document '%s': %w", id, err)
	}

	for attempt := 1; ; attempt++ {
		err = c.db.Update(func(txn *badger.Txn) error {
			if mode == store.Create {
				_, err := txn.Get(key)
				if err == nil {
					return store.ErrConflict
				}
				if err != badger.ErrKeyNotFound {
					return err
				}
			}

			return txn.Set(key, body)
		})

		if errors.Is(err, badger.ErrConflict) && attempt < maxAttempts {
			continue
		}

		break
	}

	switch {
	case errors.Is(err, store.ErrConflict):
		return store.ConflictCharge, err
	case err != nil:
		return 0, err
	}

	return store.RequestCharge(len(body)), nil
}

func (c *Container) Read(ctx context.Context, id string, partitionKey interface{}) (*document.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return nil, store.ErrClosed
	}

	key, err := documentKey(id, partitionKey)
	if err != nil {
		return nil, err
	}

	var doc *document.Document
	err = c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err == badger.ErrKeyNotFound {
			return store.ErrNotFound
		}
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			doc = document.New()
			return json.Unmarshal(val, doc)
		})
	})

	return doc, err
}

// Len counts stored documents.
func (c *Container) Len(_ context.Context) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return 0, store.ErrClosed
	}

	num := 0
	err := c.db.View(func(txn *badger.Txn) error {
		prefix := []byte(prefixDocument)
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			num++
		}
		return nil
	})

	return num, err
}

func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	c.closed = true
	return c.db.Close()
}

// logger adapts a *log.Logger to badger.Logger.
type logger struct {
	*log.Logger
}

func (l *logger) Errorf(format string, args ...interface{})   { l.Printf("badger: ERROR: "+format, args...) }
func (l *logger) Warningf(format string, args ...interface{}) { l.Printf("badger: WARNING: "+format, args...) }
func (l *logger) Infof(format string, args ...interface{})    {}
func (l *logger) Debugf(format string, args ...interface{})   {}
