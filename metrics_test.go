package kohonen

import (
	"errors"
	"testing"
	"time"

	"github.com/hupe1980/kohonen/training"
	"github.com/stretchr/testify/assert"
)

func TestBasicMetricsCollector(t *testing.T) {
	var m BasicMetricsCollector

	m.RecordVectorize(3, 2*time.Millisecond, nil)
	m.RecordVectorize(5, time.Millisecond, errors.New("decode"))
	m.RecordIteration(0, 0.5, 10*time.Millisecond)
	m.RecordIteration(1, 0.25, 30*time.Millisecond)
	m.RecordTraining(training.Converged, 2, time.Second, nil)
	m.RecordTraining(training.Failed, 0, 0, errors.New("cancelled"))

	stats := m.GetStats()
	assert.Equal(t, int64(2), stats.VectorizeCount)
	assert.Equal(t, int64(1), stats.VectorizeErrors)
	assert.Equal(t, int64(3), stats.VectorizedImages)
	assert.Equal(t, int64(2), stats.IterationCount)
	assert.Equal(t, (20 * time.Millisecond).Nanoseconds(), stats.IterationAvgNanos)
	assert.Equal(t, 0.25, stats.LastDM)
	assert.Equal(t, int64(2), stats.TrainingCount)
	assert.Equal(t, int64(1), stats.TrainingErrors)
	assert.Equal(t, int64(1), stats.ConvergedCount)
	assert.Equal(t, (500 * time.Millisecond).Nanoseconds(), stats.TrainingAvgNanos)
}

func TestBasicMetricsCollectorEmpty(t *testing.T) {
	var m BasicMetricsCollector
	assert.Zero(t, m.GetStats())
}

func TestNoopMetricsCollector(t *testing.T) {
	var mc MetricsCollector = NoopMetricsCollector{}
	mc.RecordVectorize(1, time.Second, nil)
	mc.RecordIteration(0, 1, time.Second)
	mc.RecordTraining(training.Completed, 1, time.Second, nil)
}
