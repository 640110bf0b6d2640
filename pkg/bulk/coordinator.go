// Package bulk writes many documents at once and sums up how it went.
package bulk

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/uswitch/graphbulk/pkg/document"
)

var (
	ErrWriteFailed = errors.New("write failed")
	ErrNoWriter    = errors.New("no write function")
)

// WriteError is the failure of a single document write. It matches
// ErrWriteFailed and unwraps to whatever the backend returned.
type WriteError struct {
	ID    string
	Cause error
}

func (e *WriteError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("write of '%s' failed", e.ID)
	}

	return fmt.Sprintf("write of '%s' failed: %v", e.ID, e.Cause)
}

func (e *WriteError) Is(target error) bool { return target == ErrWriteFailed }
func (e *WriteError) Unwrap() error        { return e.Cause }

type Item struct {
	Document     *document.Document
	PartitionKey interface{}
}

func (i Item) ID() string {
	id, _ := i.Document.String(document.FieldID)
	return id
}

// Outcome of one write. Cost counts even when the write failed.
type Outcome struct {
	Item    Item
	Cost    float64
	Success bool
	Err     error
}

type WriteFunc func(context.Context, Item) Outcome

type Failure struct {
	Item Item
	Err  error
}

type Summary struct {
	Elapsed   time.Duration
	TotalCost float64
	Succeeded int
	// Failures are in the order the items were submitted.
	Failures []Failure
}

func (s *Summary) Failed() int { return len(s.Failures) }
func (s *Summary) Total() int  { return s.Succeeded + len(s.Failures) }

func (s *Summary) String() string {
	return fmt.Sprintf(
		"%s written, %s failed, %s request units in %v",
		humanize.Comma(int64(s.Succeeded)),
		humanize.Comma(int64(len(s.Failures))),
		humanize.Commaf(s.TotalCost),
		s.Elapsed.Round(time.Millisecond),
	)
}

type Coordinator struct {
	logger *log.Logger
}

func NewCoordinator(logger *log.Logger) *Coordinator {
	if logger == nil {
		logger = log.Default()
	}

	return &Coordinator{logger: logger}
}

// Execute writes every item on its own goroutine and waits for all of them.
// Individual failures end up in the summary; an error is only returned when
// nothing could be submitted.
func (c *Coordinator) Execute(ctx context.Context, items []Item, write WriteFunc) (*Summary, error) {
	if write == nil {
		return nil, ErrNoWriter
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	outcomes := make([]Outcome, len(items))

	var g errgroup.Group

	for idx, item := range items {
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					c.logger.Printf("bulk: write of '%s' panicked: %v", item.ID(), r)

					outcomes[idx] = Outcome{
						Item: item,
						Err:  &WriteError{ID: item.ID(), Cause: fmt.Errorf("panic: %v", r)},
					}
				}
			}()

			outcome := write(ctx, item)
			outcome.Item = item
			outcomes[idx] = outcome

			return nil
		})
	}

	g.Wait()

	summary := summarize(outcomes)
	summary.Elapsed = time.Since(start)

	return summary, nil
}

func summarize(outcomes []Outcome) *Summary {
	summary := &Summary{Failures: []Failure{}}

	for _, outcome := range outcomes {
		summary.TotalCost += outcome.Cost

		if outcome.Success {
			summary.Succeeded++
			continue
		}

		err := outcome.Err
		if err == nil {
			err = &WriteError{ID: outcome.Item.ID()}
		}

		summary.Failures = append(summary.Failures, Failure{Item: outcome.Item, Err: err})
	}

	return summary
}
