package som

import (
	"fmt"
	"math"
	"slices"
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// sharedRandMu serializes draws from caller-supplied *rand.Rand values.
var sharedRandMu sync.Mutex

// Position addresses a neuron on the grid.
type Position struct {
	Row int
	Col int
}

// Map is a square grid of weight vectors trained over an owned dataset.
type Map struct {
	side       int
	dim        int
	iterations int
	// weights holds side*side*dim values, neurons in row-major order.
	weights []float64
	data    [][]float64
	scratch []float64
	opts    options
}

// New creates a map for data with at least the requested number of neurons.
// neurons must be even; the effective count is max(neurons, 2*dim), truncated
// to the largest square that fits.
func New(data [][]float64, neurons, iterations int, optFns ...Option) (*Map, error) {
	if len(data) == 0 {
		return nil, ErrEmptyDataset
	}

	dim := len(data[0])
	if dim == 0 {
		return nil, fmt.Errorf("%w: vectors have no features", ErrEmptyDataset)
	}

	owned := make([][]float64, len(data))
	for i, v := range data {
		if len(v) != dim {
			return nil, &ErrDimensionMismatch{Expected: dim, Actual: len(v)}
		}
		owned[i] = slices.Clone(v)
	}

	if neurons < 0 || neurons%2 != 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidNeuronCount, neurons)
	}
	if iterations <= 0 {
		return nil, fmt.Errorf("%w: %d iterations", ErrInvalidIterations, iterations)
	}

	side := GridSide(neurons, dim)
	opts := applyOptions(optFns)

	weights := make([]float64, side*side*dim)
	if opts.sharedRand {
		sharedRandMu.Lock()
	}
	for i := range weights {
		weights[i] = opts.rand.Float64()*2 - 1
	}
	if opts.sharedRand {
		sharedRandMu.Unlock()
	}

	return &Map{
		side:       side,
		dim:        dim,
		iterations: iterations,
		weights:    weights,
		data:       owned,
		scratch:    make([]float64, dim),
		opts:       opts,
	}, nil
}

// GridSide returns floor(sqrt(max(neurons, 2*dim))).
func GridSide(neurons, dim int) int {
	n := max(neurons, 2*dim)
	side := int(math.Sqrt(float64(n)))
	for side*side > n {
		side--
	}
	for (side+1)*(side+1) <= n {
		side++
	}
	return side
}

// Side returns the grid side length.
func (m *Map) Side() int { return m.side }

// Neurons returns the number of neurons on the grid (Side squared).
func (m *Map) Neurons() int { return m.side * m.side }

// Dim returns the feature dimensionality.
func (m *Map) Dim() int { return m.dim }

// Iterations returns the configured number of training passes.
func (m *Map) Iterations() int { return m.iterations }

// Len returns the number of training vectors.
func (m *Map) Len() int { return len(m.data) }

// Sample returns training vector i. The slice must not be modified.
func (m *Map) Sample(i int) []float64 { return m.data[i] }

// Neighborhood returns the configured neighborhood function.
func (m *Map) Neighborhood() Neighborhood { return m.opts.neighborhood }

func (m *Map) neuron(row, col int) []float64 {
	off := (row*m.side + col) * m.dim
	return m.weights[off : off+m.dim]
}

// Winner returns the neuron closest to x (Euclidean) and its distance.
// Ties go to the first neuron in row-major order.
func (m *Map) Winner(x []float64) (Position, float64, error) {
	if len(x) != m.dim {
		return Position{}, 0, &ErrDimensionMismatch{Expected: m.dim, Actual: len(x)}
	}

	best := Position{}
	bestDist := math.Inf(1)
	for r := 0; r < m.side; r++ {
		for c := 0; c < m.side; c++ {
			if d := floats.Distance(x, m.neuron(r, c), 2); d < bestDist {
				best, bestDist = Position{Row: r, Col: c}, d
			}
		}
	}
	return best, bestDist, nil
}

// Update moves the winner and its grid neighbors towards x. Learning rate and
// radius are scaled by the decay schedule at iteration of total.
func (m *Map) Update(x []float64, winner Position, iteration, total int) error {
	if len(x) != m.dim {
		return &ErrDimensionMismatch{Expected: m.dim, Actual: len(x)}
	}
	if winner.Row < 0 || winner.Row >= m.side || winner.Col < 0 || winner.Col >= m.side {
		return fmt.Errorf("%w: %+v", ErrInvalidPosition, winner)
	}
	if total <= 0 || iteration < 0 || iteration >= total {
		return fmt.Errorf("%w: %d of %d", ErrInvalidIterations, iteration, total)
	}

	decay := m.opts.decay(iteration, total)
	lr := m.opts.learningRate * decay
	sigma := m.opts.sigma * decay

	for r := 0; r < m.side; r++ {
		for c := 0; c < m.side; c++ {
			h := m.opts.neighborhood.influence(r-winner.Row, c-winner.Col, sigma)
			if h == 0 {
				continue
			}
			w := m.neuron(r, c)
			floats.SubTo(m.scratch, x, w)
			floats.AddScaled(w, lr*h, m.scratch)
		}
	}
	return nil
}

// MeanQuantizationError returns the arithmetic mean of the winner distances
// of one pass. An empty pass yields 0.
func (m *Map) MeanQuantizationError(distances []float64) float64 {
	if len(distances) == 0 {
		return 0
	}
	return stat.Mean(distances, nil)
}

// QuantizationError returns the mean winner distance over the training data
// without changing any weights.
func (m *Map) QuantizationError() float64 {
	distances := make([]float64, len(m.data))
	for i, x := range m.data {
		_, d, _ := m.Winner(x)
		distances[i] = d
	}
	return m.MeanQuantizationError(distances)
}

// WeightAt returns a copy of the weight vector at p.
func (m *Map) WeightAt(p Position) ([]float64, error) {
	if p.Row < 0 || p.Row >= m.side || p.Col < 0 || p.Col >= m.side {
		return nil, fmt.Errorf("%w: %+v", ErrInvalidPosition, p)
	}
	return slices.Clone(m.neuron(p.Row, p.Col)), nil
}

// Weights returns a copy of the grid as side x side x dim.
func (m *Map) Weights() [][][]float64 {
	out := make([][][]float64, m.side)
	for r := range out {
		out[r] = make([][]float64, m.side)
		for c := range out[r] {
			out[r][c] = slices.Clone(m.neuron(r, c))
		}
	}
	return out
}
