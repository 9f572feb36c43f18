package som

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidNeuronCount is returned for odd or negative neuron counts.
	ErrInvalidNeuronCount = errors.New("neuron count must be a non-negative even number")

	// ErrInvalidIterations is returned for non-positive iteration counts or
	// iteration indices outside [0, total).
	ErrInvalidIterations = errors.New("invalid iteration")

	// ErrEmptyDataset is returned when a map is created without training data.
	ErrEmptyDataset = errors.New("no vectors to train on")

	// ErrUnknownNeighborhood is returned by ParseNeighborhood.
	ErrUnknownNeighborhood = errors.New("unknown neighborhood function")

	// ErrInvalidPosition is returned for grid positions outside the map.
	ErrInvalidPosition = errors.New("position outside the grid")
)

// ErrDimensionMismatch indicates a vector whose length differs from the map's
// feature dimensionality.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}
