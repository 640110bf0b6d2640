package gremlin

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"

	"github.com/qasaur/gremgo"

	"github.com/uswitch/graphbulk/pkg/document"
	"github.com/uswitch/graphbulk/pkg/encoding"
	"github.com/uswitch/graphbulk/pkg/store"
)

type executor interface {
	Execute(query string, bindings, rebindings map[string]string) (interface{}, error)
}

// Container replays documents against a Gremlin server as traversals. The
// client doesn't report request costs, so every write is charged 0.
type Container struct {
	client executor
	close  func()

	partitionKeyPath string
	partitionField   string

	logger *log.Logger
	closed int32
}

func NewContainer(url, partitionKeyPath string, logger *log.Logger) (*Container, error) {
	if logger == nil {
		logger = log.Default()
	}

	errs := make(chan error)
	go func(errs chan error) {
		for err := range errs {
			logger.Printf("gremlin: lost connection to %s: %v", url, err)
		}
	}(errs)

	client, err := dial(url, errs)
	if err != nil {
		// nothing else holds errs when the dial fails
		close(errs)
		return nil, fmt.Errorf("failed to dial %s: %w", url, err)
	}

	return newContainer(client, client.Close, partitionKeyPath, logger)
}

var dial = func(url string, errs chan error) (*gremgo.Client, error) {
	client, err := gremgo.Dial(gremgo.NewDialer(url), errs)
	if err != nil {
		return nil, err
	}

	return &client, nil
}

func newContainer(client executor, close func(), partitionKeyPath string, logger *log.Logger) (*Container, error) {
	partition, err := encoding.ResolvePartitionKeyPath(partitionKeyPath, "")
	if err != nil {
		return nil, err
	}

	return &Container{
		client:           client,
		close:            close,
		partitionKeyPath: partitionKeyPath,
		partitionField:   partition.Field,
		logger:           logger,
	}, nil
}

func (c *Container) PartitionKeyPath(_ context.Context) (string, error) {
	return c.partitionKeyPath, nil
}

func (c *Container) Write(ctx context.Context, doc *document.Document, _ interface{}, mode store.WriteMode) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if atomic.LoadInt32(&c.closed) == 1 {
		return 0, store.ErrClosed
	}

	id, err := store.DocumentID(doc)
	if err != nil {
		return 0, err
	}

	lookup := Var("g").V(id)
	if document.IsEdge(doc) {
		lookup = Var("g").E(id)
	}

	add, err := Translate(doc, c.partitionField)
	if err != nil {
		return 0, err
	}

	switch mode {
	case store.Create:
		values, err := c.execute(ctx, Statements{lookup.Count()})
		if err != nil {
			return 0, err
		}
		if count, err := countOf(values); err != nil {
			return 0, err
		} else if count > 0 {
			return 0, store.ErrConflict
		}
	case store.Upsert:
		if _, err := c.execute(ctx, Statements{lookup.Drop().Iterate()}); err != nil {
			return 0, err
		}
	}

	if _, err := c.execute(ctx, Statements{add}); err != nil {
		return 0, err
	}

	return 0, nil
}

func (c *Container) Close() error {
	if atomic.CompareAndSwapInt32(&c.closed, 0, 1) && c.close != nil {
		c.close()
	}

	return nil
}

func (c *Container) execute(ctx context.Context, statement Statements) ([]interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out, err := c.client.Execute(statement.String(), nil, nil)
	if err != nil {
		return nil, err
	}

	results, ok := out.([]interface{})
	if !ok {
		return nil, fmt.Errorf("failed to get results from data: %v", out)
	}
	if len(results) == 0 {
		return []interface{}{}, nil
	}

	if values, ok := results[0].([]interface{}); ok {
		return values, nil
	} else if err, ok := results[0].(error); ok {
		return nil, err
	} else if results[0] == nil {
		return []interface{}{}, nil
	} else {
		return nil, fmt.Errorf("failed to get values from result: %v", results[0])
	}
}

// countOf reads the result of a count() step, plain or GraphSON typed.
func countOf(values []interface{}) (int64, error) {
	if len(values) == 0 {
		return 0, nil
	}

	switch v := values[0].(type) {
	case float64:
		return int64(v), nil
	case int64:
		return v, nil
	case map[string]interface{}:
		if inner, ok := v["@value"]; ok {
			return countOf([]interface{}{inner})
		}
	}

	return 0, fmt.Errorf("unexpected count result: %v", values[0])
}

// Translate turns an encoded document back into the traversal that creates
// the same element. Array valued vertex properties become list cardinality
// properties carrying their meta-properties.
func Translate(doc *document.Document, partitionField string) (Statement, error) {
	id, err := store.DocumentID(doc)
	if err != nil {
		return Statement{}, err
	}

	label, ok := doc.String(document.FieldLabel)
	if !ok {
		return Statement{}, fmt.Errorf("document '%s' has no label", id)
	}

	if document.IsEdge(doc) {
		return translateEdge(doc, id, label, partitionField)
	}

	st := Var("g").AddV(label).ID(id)

	for _, key := range doc.Keys() {
		if key == document.FieldID || key == document.FieldLabel {
			continue
		}

		value, _ := doc.Get(key)

		if values, ok := propertyValues(value); ok {
			for _, element := range values {
				v, _ := element.Get(document.FieldPropertyValue)
				meta, _ := element.Get(document.FieldPropertyMeta)
				metaDoc, _ := meta.(*document.Document)

				st = st.PropertyList(key, v, metaDoc)
			}
			continue
		}

		st = st.Property(key, value)
	}

	return st, nil
}

func translateEdge(doc *document.Document, id, label, partitionField string) (Statement, error) {
	outID, ok := doc.String(document.FieldVertexID)
	if !ok {
		return Statement{}, fmt.Errorf("edge '%s' has no out vertex", id)
	}
	inID, ok := doc.String(document.FieldSink)
	if !ok {
		return Statement{}, fmt.Errorf("edge '%s' has no in vertex", id)
	}

	out := Var("g").V(outID)
	in := Var("g").V(inID)

	if partitionField != "" {
		if pk, ok := doc.Get(partitionField); ok {
			out = out.Has(partitionField, pk)
		}
		if pk, ok := doc.Get(document.FieldSinkPartition); ok {
			in = in.Has(partitionField, pk)
		}
	}

	st := Var("g").AddE(label).From(out).To(in).ID(id)

	registry := encoding.NewRegistry(partitionField)
	for _, key := range doc.Keys() {
		if registry.IsReserved(key) {
			continue
		}

		value, _ := doc.Get(key)
		st = st.Property(key, value)
	}

	return st, nil
}

// propertyValues recognises the multi-valued layout: an array whose elements
// all carry a _value.
func propertyValues(value interface{}) ([]*document.Document, bool) {
	arr, ok := value.([]interface{})
	if !ok {
		return nil, false
	}

	out := make([]*document.Document, len(arr))
	for idx, element := range arr {
		doc, ok := element.(*document.Document)
		if !ok || !doc.Has(document.FieldPropertyValue) {
			return nil, false
		}
		out[idx] = doc
	}

	return out, true
}
