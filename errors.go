package kohonen

import (
	"errors"
	"fmt"

	"github.com/hupe1980/kohonen/blobstore"
	"github.com/hupe1980/kohonen/dataset"
	"github.com/hupe1980/kohonen/som"
	"github.com/hupe1980/kohonen/store"
)

var (
	// ErrInvalidConfiguration is returned for unusable training configurations,
	// including references to configurations that do not exist.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrEmptyDataset is returned when there are no images to vectorize or no
	// vectors to train on.
	ErrEmptyDataset = errors.New("empty dataset")

	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrClosed is returned by a closed Service.
	ErrClosed = errors.New("service closed")
)

// VectorizationError reports an image that could not be decoded or vectorized.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type VectorizationError struct {
	// Index is the position of the image in its batch, or -1 for uploads.
	Index int
	Name  string
	cause error
}

func (e *VectorizationError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("vectorization failed for %s: %v", e.Name, e.cause)
	}
	return fmt.Sprintf("vectorization failed for image %d (%s): %v", e.Index, e.Name, e.cause)
}

func (e *VectorizationError) Unwrap() error { return e.cause }

// ErrDimensionMismatch indicates stored vectors of different lengths.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
	cause    error
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

func (e *ErrDimensionMismatch) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	// Not found unification.
	if errors.Is(err, store.ErrNotFound) || errors.Is(err, blobstore.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}

	// Empty inputs.
	if errors.Is(err, dataset.ErrEmptyDataset) || errors.Is(err, som.ErrEmptyDataset) {
		return fmt.Errorf("%w: %w", ErrEmptyDataset, err)
	}

	var ve *dataset.VectorizationError
	if errors.As(err, &ve) {
		return &VectorizationError{Index: ve.Index, Name: ve.Name, cause: err}
	}

	var dm *som.ErrDimensionMismatch
	if errors.As(err, &dm) {
		return &ErrDimensionMismatch{Expected: dm.Expected, Actual: dm.Actual, cause: err}
	}

	// Argument normalization.
	if errors.Is(err, som.ErrInvalidNeuronCount) ||
		errors.Is(err, som.ErrInvalidIterations) ||
		errors.Is(err, som.ErrUnknownNeighborhood) {
		return fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}

	return err
}
