package training

import (
	"io"
	"log/slog"
	"time"
)

const (
	// DefaultTopic is the topic all events are published on.
	DefaultTopic = "training"
	// DefaultConvergenceThreshold is the dm at or below which training stops early.
	DefaultConvergenceThreshold = 0.01
)

type options struct {
	topic       string
	threshold   float64
	runID       string
	logger      *slog.Logger
	now         func() time.Time
	onIteration func(Progress)
}

// Option configures a Coordinator.
type Option func(*options)

// WithTopic sets the topic events are published on.
func WithTopic(topic string) Option {
	return func(o *options) {
		if topic != "" {
			o.topic = topic
		}
	}
}

// WithConvergenceThreshold sets the dm at or below which training stops.
func WithConvergenceThreshold(threshold float64) Option {
	return func(o *options) {
		o.threshold = threshold
	}
}

// WithRunID sets the run id instead of generating one.
func WithRunID(id string) Option {
	return func(o *options) {
		o.runID = id
	}
}

// WithLogger sets the logger. Pass nil to disable logging.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithClock replaces time.Now for elapsed time measurement.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithIterationHook registers a callback invoked synchronously after every
// progress event.
func WithIterationHook(fn func(Progress)) Option {
	return func(o *options) {
		o.onIteration = fn
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		topic:     DefaultTopic,
		threshold: DefaultConvergenceThreshold,
		now:       time.Now,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o
}
