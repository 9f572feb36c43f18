package kohonen

import (
	"math"
	"sync/atomic"
	"time"

	"github.com/hupe1980/kohonen/training"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems; the
// prommetrics package provides a Prometheus implementation.
type MetricsCollector interface {
	// RecordVectorize is called after each vectorization run.
	// images is the batch size, err is nil if successful.
	RecordVectorize(images int, duration time.Duration, err error)

	// RecordIteration is called after each training pass with the pass's
	// mean quantization error and duration.
	RecordIteration(iteration int, dm float64, duration time.Duration)

	// RecordTraining is called once per run with its terminal state and the
	// number of passes executed.
	RecordTraining(state training.State, iterations int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordVectorize(int, time.Duration, error)   {}
func (NoopMetricsCollector) RecordIteration(int, float64, time.Duration) {}
func (NoopMetricsCollector) RecordTraining(training.State, int, time.Duration, error) {
}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	VectorizeCount      atomic.Int64
	VectorizeErrors     atomic.Int64
	VectorizedImages    atomic.Int64
	VectorizeTotalNanos atomic.Int64
	IterationCount      atomic.Int64
	IterationTotalNanos atomic.Int64
	lastDM              atomic.Uint64 // math.Float64bits
	TrainingCount       atomic.Int64
	TrainingErrors      atomic.Int64
	ConvergedCount      atomic.Int64
	TrainingTotalNanos  atomic.Int64
}

// RecordVectorize implements MetricsCollector.
func (b *BasicMetricsCollector) RecordVectorize(images int, duration time.Duration, err error) {
	b.VectorizeCount.Add(1)
	b.VectorizeTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.VectorizeErrors.Add(1)
		return
	}
	b.VectorizedImages.Add(int64(images))
}

// RecordIteration implements MetricsCollector.
func (b *BasicMetricsCollector) RecordIteration(_ int, dm float64, duration time.Duration) {
	b.IterationCount.Add(1)
	b.IterationTotalNanos.Add(duration.Nanoseconds())
	b.lastDM.Store(math.Float64bits(dm))
}

// RecordTraining implements MetricsCollector.
func (b *BasicMetricsCollector) RecordTraining(state training.State, _ int, duration time.Duration, err error) {
	b.TrainingCount.Add(1)
	b.TrainingTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.TrainingErrors.Add(1)
	}
	if state == training.Converged {
		b.ConvergedCount.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		VectorizeCount:    b.VectorizeCount.Load(),
		VectorizeErrors:   b.VectorizeErrors.Load(),
		VectorizedImages:  b.VectorizedImages.Load(),
		IterationCount:    b.IterationCount.Load(),
		IterationAvgNanos: avg(b.IterationTotalNanos.Load(), b.IterationCount.Load()),
		LastDM:            math.Float64frombits(b.lastDM.Load()),
		TrainingCount:     b.TrainingCount.Load(),
		TrainingErrors:    b.TrainingErrors.Load(),
		ConvergedCount:    b.ConvergedCount.Load(),
		TrainingAvgNanos:  avg(b.TrainingTotalNanos.Load(), b.TrainingCount.Load()),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	VectorizeCount    int64
	VectorizeErrors   int64
	VectorizedImages  int64
	IterationCount    int64
	IterationAvgNanos int64
	LastDM            float64
	TrainingCount     int64
	TrainingErrors    int64
	ConvergedCount    int64
	TrainingAvgNanos  int64
}
