package storetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/uswitch/graphbulk/pkg/store"
)

type Container interface {
	store.Container
	store.Reader
}

type NewContainerFunc func(t *testing.T, partitionKeyPath string) Container

func Conformance(t *testing.T, newContainer NewContainerFunc) {
	tests := map[string]func(*testing.T, NewContainerFunc){
		"PartitionKeyPath":          TestPartitionKeyPath,
		"CreateAndRead":             TestCreateAndRead,
		"CreateConflict":            TestCreateConflict,
		"Upsert":                    TestUpsert,
		"SameIDInOtherPartition":    TestSameIDInOtherPartition,
		"PartitionKeyTypesDiffer":   TestPartitionKeyTypesDiffer,
		"ReadNotFound":              TestReadNotFound,
		"RequestCharge":             TestRequestCharge,
		"MissingID":                 TestMissingID,
		"CancelledContext":          TestCancelledContext,
		"ConcurrentWrites":          TestConcurrentWrites,
		"StoresACopy":               TestStoresACopy,
		"WriteAfterClose":           TestWriteAfterClose,
		"UnpartitionedNilPartition": TestUnpartitionedNilPartition,
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			test(t, newContainer)
		})
	}
}

func open(t *testing.T, newContainer NewContainerFunc, partitionKeyPath string) Container {
	c := newContainer(t, partitionKeyPath)
	t.Cleanup(func() { c.Close() })

	return c
}

func TestPartitionKeyPath(t *testing.T, newContainer NewContainerFunc) {
	ctx := context.Background()

	for _, path := range []string{"", "/pk", "/_partition"} {
		c := open(t, newContainer, path)

		if actual, err := c.PartitionKeyPath(ctx); err != nil {
			t.Error(err)
		} else if actual != path {
			t.Errorf("expected partition key path '%s', but got '%s'", path, actual)
		}
	}
}

func TestCreateAndRead(t *testing.T, newContainer NewContainerFunc) {
	ctx := context.Background()
	c := open(t, newContainer, "/pk")

	doc := Doc("1", "label", "person", "pk", "GBR", "name", "a")

	if charge, err := c.Write(ctx, doc, "GBR", store.Create); err != nil {
		t.Fatalf("couldn't write: %v", err)
	} else if charge < 1 {
		t.Errorf("expected a charge of at least 1, but got %v", charge)
	}

	actual, err := c.Read(ctx, "1", "GBR")
	if err != nil {
		t.Fatalf("couldn't read: %v", err)
	}

	AssertSameJSON(t, doc, actual)
}

func TestCreateConflict(t *testing.T, newContainer NewContainerFunc) {
	ctx := context.Background()
	c := open(t, newContainer, "/pk")

	if _, err := c.Write(ctx, Doc("1", "name", "a"), 5, store.Create); err != nil {
		t.Fatal(err)
	}

	charge, err := c.Write(ctx, Doc("1", "name", "b"), 5, store.Create)
	if !errors.Is(err, store.ErrConflict) {
		t.Errorf("expected %v, but got %v", store.ErrConflict, err)
	}
	if charge != store.ConflictCharge {
		t.Errorf("expected a conflict to cost %v, but got %v", store.ConflictCharge, charge)
	}

	actual, err := c.Read(ctx, "1", 5)
	if err != nil {
		t.Fatal(err)
	}
	AssertSameJSON(t, Doc("1", "name", "a"), actual)
}

func TestUpsert(t *testing.T, newContainer NewContainerFunc) {
	ctx := context.Background()
	c := open(t, newContainer, "/pk")

	for _, name := range []string{"a", "b"} {
		if _, err := c.Write(ctx, Doc("1", "name", name), 5, store.Upsert); err != nil {
			t.Fatal(err)
		}
	}

	actual, err := c.Read(ctx, "1", 5)
	if err != nil {
		t.Fatal(err)
	}
	AssertSameJSON(t, Doc("1", "name", "b"), actual)
}

func TestSameIDInOtherPartition(t *testing.T, newContainer NewContainerFunc) {
	ctx := context.Background()
	c := open(t, newContainer, "/pk")

	for _, pk := range []string{"GBR", "USA"} {
		if _, err := c.Write(ctx, Doc("1", "pk", pk), pk, store.Create); err != nil {
			t.Errorf("partition %s: %v", pk, err)
		}
	}

	for _, pk := range []string{"GBR", "USA"} {
		if actual, err := c.Read(ctx, "1", pk); err != nil {
			t.Error(err)
		} else if value, _ := actual.String("pk"); value != pk {
			t.Errorf("expected pk %s, but got %s", pk, value)
		}
	}
}

func TestPartitionKeyTypesDiffer(t *testing.T, newContainer NewContainerFunc) {
	ctx := context.Background()
	c := open(t, newContainer, "/pk")

	if _, err := c.Write(ctx, Doc("1"), 5, store.Create); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Write(ctx, Doc("1"), "5", store.Create); err != nil {
		t.Errorf("5 and \"5\" should be different partitions: %v", err)
	}
}

func TestReadNotFound(t *testing.T, newContainer NewContainerFunc) {
	ctx := context.Background()
	c := open(t, newContainer, "/pk")

	if _, err := c.Read(ctx, "missing", 5); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected %v, but got %v", store.ErrNotFound, err)
	}

	if _, err := c.Write(ctx, Doc("1"), 5, store.Create); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Read(ctx, "1", 6); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected %v from the wrong partition, but got %v", store.ErrNotFound, err)
	}
}

func TestRequestCharge(t *testing.T, newContainer NewContainerFunc) {
	ctx := context.Background()
	c := open(t, newContainer, "")

	small, err := c.Write(ctx, Doc("small"), nil, store.Create)
	if err != nil {
		t.Fatal(err)
	}
	large, err := c.Write(ctx, LargeDoc("large", 10*1024), nil, store.Create)
	if err != nil {
		t.Fatal(err)
	}

	if small != 1 {
		t.Errorf("expected a small document to cost 1, but got %v", small)
	}
	if large < 10 {
		t.Errorf("expected a 10KiB document to cost at least 10, but got %v", large)
	}
}

func TestMissingID(t *testing.T, newContainer NewContainerFunc) {
	ctx := context.Background()
	c := open(t, newContainer, "")

	doc := Doc("")
	if _, err := c.Write(ctx, doc, nil, store.Create); !errors.Is(err, store.ErrMissingID) {
		t.Errorf("expected %v, but got %v", store.ErrMissingID, err)
	}
}

func TestCancelledContext(t *testing.T, newContainer NewContainerFunc) {
	c := open(t, newContainer, "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := c.Write(ctx, Doc("1"), nil, store.Create); !errors.Is(err, context.Canceled) {
		t.Errorf("expected %v, but got %v", context.Canceled, err)
	}
}

func TestConcurrentWrites(t *testing.T, newContainer NewContainerFunc) {
	ctx := context.Background()
	c := open(t, newContainer, "/pk")

	const num = 100

	var wg sync.WaitGroup
	errs := make([]error, num)

	for idx := 0; idx < num; idx++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			_, errs[idx] = c.Write(ctx, Doc(fmt.Sprintf("%d", idx)), idx%7, store.Create)
		}(idx)
	}
	wg.Wait()

	for idx, err := range errs {
		if err != nil {
			t.Errorf("write %d: %v", idx, err)
		}
	}

	for idx := 0; idx < num; idx++ {
		if _, err := c.Read(ctx, fmt.Sprintf("%d", idx), idx%7); err != nil {
			t.Errorf("read %d: %v", idx, err)
		}
	}
}

func TestStoresACopy(t *testing.T, newContainer NewContainerFunc) {
	ctx := context.Background()
	c := open(t, newContainer, "")

	doc := Doc("1", "name", "a")
	if _, err := c.Write(ctx, doc, nil, store.Create); err != nil {
		t.Fatal(err)
	}
	doc.Set("name", "b")

	actual, err := c.Read(ctx, "1", nil)
	if err != nil {
		t.Fatal(err)
	}
	AssertSameJSON(t, Doc("1", "name", "a"), actual)
}

func TestWriteAfterClose(t *testing.T, newContainer NewContainerFunc) {
	c := newContainer(t, "")
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}

	if _, err := c.Write(context.Background(), Doc("1"), nil, store.Create); !errors.Is(err, store.ErrClosed) {
		t.Errorf("expected %v, but got %v", store.ErrClosed, err)
	}
}

func TestUnpartitionedNilPartition(t *testing.T, newContainer NewContainerFunc) {
	ctx := context.Background()
	c := open(t, newContainer, "")

	if _, err := c.Write(ctx, Doc("1"), nil, store.Create); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Write(ctx, Doc("1"), nil, store.Create); !errors.Is(err, store.ErrConflict) {
		t.Errorf("expected %v, but got %v", store.ErrConflict, err)
	}
}
