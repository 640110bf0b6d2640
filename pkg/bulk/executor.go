package bulk

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"

	"github.com/uswitch/graphbulk/pkg/document"
	"github.com/uswitch/graphbulk/pkg/encoding"
	"github.com/uswitch/graphbulk/pkg/graph"
	"github.com/uswitch/graphbulk/pkg/store"
)

var ErrClosed = errors.New("executor is closed")

// Executor encodes graph elements for a container and writes them through a
// Coordinator. The container's partitioning is looked up once, on first use.
type Executor struct {
	container   store.Container
	coordinator *Coordinator

	mode                    encoding.Mode
	writeMode               store.WriteMode
	vertexPartitionProperty string
	newID                   func() string
	logger                  *log.Logger

	initLock chan struct{}
	ready    atomic.Bool
	encoder  *encoding.Encoder

	closed atomic.Bool
}

type Option func(*Executor)

func WithMode(mode encoding.Mode) Option {
	return func(ex *Executor) { ex.mode = mode }
}

// WithUpsert replaces existing documents instead of failing on them.
func WithUpsert(upsert bool) Option {
	return func(ex *Executor) {
		if upsert {
			ex.writeMode = store.Upsert
		} else {
			ex.writeMode = store.Create
		}
	}
}

// WithVertexPartitionProperty picks the vertex property that fills
// "/_partition" containers. It is the vertex id otherwise.
func WithVertexPartitionProperty(key string) Option {
	return func(ex *Executor) { ex.vertexPartitionProperty = key }
}

func WithLogger(logger *log.Logger) Option {
	return func(ex *Executor) { ex.logger = logger }
}

func WithIDGenerator(fn func() string) Option {
	return func(ex *Executor) { ex.newID = fn }
}

func NewExecutor(container store.Container, opts ...Option) *Executor {
	ex := &Executor{
		container: container,
		mode:      encoding.MultiValued,
		writeMode: store.Create,
		logger:    log.Default(),
		initLock:  make(chan struct{}, 1),
	}

	for _, opt := range opts {
		opt(ex)
	}

	ex.coordinator = NewCoordinator(ex.logger)

	return ex
}

func (ex *Executor) init(ctx context.Context) (*encoding.Encoder, error) {
	if ex.ready.Load() {
		return ex.encoder, nil
	}

	select {
	case ex.initLock <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-ex.initLock }()

	if ex.ready.Load() {
		return ex.encoder, nil
	}

	path, err := ex.container.PartitionKeyPath(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read the container's partition key path: %w", err)
	}

	partition, err := encoding.ResolvePartitionKeyPath(path, ex.vertexPartitionProperty)
	if err != nil {
		return nil, err
	}

	opts := []encoding.Option{}
	if ex.newID != nil {
		opts = append(opts, encoding.WithIDGenerator(ex.newID))
	}

	ex.encoder = encoding.New(partition, ex.mode, opts...)
	ex.ready.Store(true)

	if partition.Partitioned() {
		ex.logger.Printf("bulk: container partitioned on '%s' from vertex property '%s', %s properties", partition.Field, partition.VertexProperty, ex.mode)
	} else {
		ex.logger.Printf("bulk: container is not partitioned, %s properties", ex.mode)
	}

	return ex.encoder, nil
}

// Encode produces the documents Import would write, without writing them.
func (ex *Executor) Encode(ctx context.Context, elements []graph.Element) ([]*document.Document, error) {
	if ex.closed.Load() {
		return nil, ErrClosed
	}

	encoder, err := ex.init(ctx)
	if err != nil {
		return nil, err
	}

	return encoder.EncodeAll(elements)
}

// Import writes every element. Nothing is written if any element fails to
// encode. Failed writes are reported in the summary, not as an error.
func (ex *Executor) Import(ctx context.Context, elements []graph.Element) (*Summary, error) {
	if ex.closed.Load() {
		return nil, ErrClosed
	}

	encoder, err := ex.init(ctx)
	if err != nil {
		return nil, err
	}

	docs, err := encoder.EncodeAll(elements)
	if err != nil {
		return nil, err
	}

	items := make([]Item, len(docs))
	for idx, doc := range docs {
		pk, _ := encoder.Partition().PartitionValue(doc)
		items[idx] = Item{Document: doc, PartitionKey: pk}
	}

	summary, err := ex.coordinator.Execute(ctx, items, ex.write)
	if err != nil {
		return nil, err
	}

	ex.logger.Printf("bulk: %s", summary)

	return summary, nil
}

func (ex *Executor) write(ctx context.Context, item Item) Outcome {
	cost, err := ex.container.Write(ctx, item.Document, item.PartitionKey, ex.writeMode)
	if err != nil {
		return Outcome{Item: item, Cost: cost, Err: &WriteError{ID: item.ID(), Cause: err}}
	}

	return Outcome{Item: item, Cost: cost, Success: true}
}

func (ex *Executor) Close() error {
	if !ex.closed.CompareAndSwap(false, true) {
		return nil
	}

	return ex.container.Close()
}
