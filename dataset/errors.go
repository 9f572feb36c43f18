package dataset

import (
	"errors"
	"fmt"
)

// ErrEmptyDataset is returned when a build is started without sources.
var ErrEmptyDataset = errors.New("no images to build a dataset from")

// VectorizationError reports a source that could not be read or vectorized.
// The original underlying error can be accessed via errors.Unwrap.
type VectorizationError struct {
	Index int
	Name  string
	cause error
}

func (e *VectorizationError) Error() string {
	return fmt.Sprintf("vectorize image %d (%s): %v", e.Index, e.Name, e.cause)
}

func (e *VectorizationError) Unwrap() error { return e.cause }
