package encoding

import (
	"errors"
	"fmt"
)

var (
	ErrMissingPartitionKeyValue    = errors.New("partition key property has no value")
	ErrPartitionKeyRequired        = errors.New("partition key property must be specified for a partitioned container")
	ErrMissingEndpointPartitionKey = errors.New("edge endpoints must have partition keys in a partitioned container")
	ErrReservedPropertyCollision   = errors.New("property key is reserved")
	ErrMissingPropertyValue        = errors.New("vertex property has no value")
	ErrInvalidPartitionKeyPath     = errors.New("partition key path cannot be used for graph storage")
	ErrUnsupportedElement          = errors.New("unsupported graph element")
)

// ElementError says which element failed to encode.
type ElementError struct {
	Kind  string
	ID    string
	Index int
	Err   error
}

func (e *ElementError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("element %d (%s '%s'): %v", e.Index, e.Kind, e.ID, e.Err)
	}

	return fmt.Sprintf("%s '%s': %v", e.Kind, e.ID, e.Err)
}

func (e *ElementError) Unwrap() error { return e.Err }
