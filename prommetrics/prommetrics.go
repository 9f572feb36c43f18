// Package prommetrics exports service metrics to Prometheus.
//
//	reg := prometheus.NewRegistry()
//	svc := kohonen.New(bs, kohonen.WithMetricsCollector(prommetrics.New(reg)))
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
package prommetrics

import (
	"time"

	"github.com/hupe1980/kohonen"
	"github.com/hupe1980/kohonen/training"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "kohonen"

var _ kohonen.MetricsCollector = (*Collector)(nil)

// Collector implements kohonen.MetricsCollector with Prometheus metrics.
type Collector struct {
	vectorizeLatency *prometheus.HistogramVec
	vectorizedImages prometheus.Counter
	iterationLatency prometheus.Histogram
	iterations       prometheus.Counter
	dm               prometheus.Gauge
	trainingLatency  prometheus.Histogram
	trainingRuns     *prometheus.CounterVec
	trainingPasses   prometheus.Histogram
}

// New creates a Collector and registers its metrics with reg.
// A nil reg registers with prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := &Collector{
		vectorizeLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "vectorize_duration_seconds",
			Help:      "Duration of image vectorization runs",
			Buckets:   prometheus.DefBuckets,
		}, []string{"status"}),
		vectorizedImages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vectorized_images_total",
			Help:      "Images turned into feature vectors",
		}),
		iterationLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "training_iteration_duration_seconds",
			Help:      "Duration of single training passes",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 10),
		}),
		iterations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "training_iterations_total",
			Help:      "Training passes executed",
		}),
		dm: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "training_dm",
			Help:      "Mean quantization error of the last training pass",
		}),
		trainingLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "training_duration_seconds",
			Help:      "Duration of training runs",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10),
		}),
		trainingRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "training_runs_total",
			Help:      "Training runs by terminal state",
		}, []string{"state"}),
		trainingPasses: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "training_run_iterations",
			Help:      "Passes executed per training run",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
	}

	reg.MustRegister(
		c.vectorizeLatency,
		c.vectorizedImages,
		c.iterationLatency,
		c.iterations,
		c.dm,
		c.trainingLatency,
		c.trainingRuns,
		c.trainingPasses,
	)
	return c
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordVectorize implements kohonen.MetricsCollector.
func (c *Collector) RecordVectorize(images int, duration time.Duration, err error) {
	c.vectorizeLatency.WithLabelValues(status(err)).Observe(duration.Seconds())
	if err == nil {
		c.vectorizedImages.Add(float64(images))
	}
}

// RecordIteration implements kohonen.MetricsCollector.
func (c *Collector) RecordIteration(_ int, dm float64, duration time.Duration) {
	c.iterationLatency.Observe(duration.Seconds())
	c.iterations.Inc()
	c.dm.Set(dm)
}

// RecordTraining implements kohonen.MetricsCollector.
func (c *Collector) RecordTraining(state training.State, iterations int, duration time.Duration, err error) {
	if err != nil {
		state = training.Failed
	}
	c.trainingRuns.WithLabelValues(state.String()).Inc()
	if err != nil {
		return
	}
	c.trainingLatency.Observe(duration.Seconds())
	c.trainingPasses.Observe(float64(iterations))
}
