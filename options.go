package kohonen

import (
	"log/slog"

	"github.com/hupe1980/kohonen/codec"
	"github.com/hupe1980/kohonen/dataset"
	"github.com/hupe1980/kohonen/imaging"
	"github.com/hupe1980/kohonen/resource"
	"github.com/hupe1980/kohonen/som"
	"github.com/hupe1980/kohonen/store"
	"github.com/hupe1980/kohonen/training"
)

type options struct {
	codec                codec.Codec
	compression          store.Compression
	configs              store.ConfigRepository
	sink                 training.Sink
	topic                string
	convergenceThreshold float64
	vectorizerOptions    []imaging.Option
	workers              int
	precision            int
	somOptions           []som.Option
	resources            *resource.Controller
	metricsCollector     MetricsCollector
	logger               *Logger
}

// Option configures a Service.
type Option func(*options)

// WithCodec configures the codec used for stored records.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithCompression configures the compression of newly written records.
func WithCompression(c store.Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithConfigRepository stores configurations outside the blob store, for
// example in DynamoDB via store/dynamo.
func WithConfigRepository(repo store.ConfigRepository) Option {
	return func(o *options) {
		o.configs = repo
	}
}

// WithSink configures where training events are published.
// Pass nil to discard events.
//
// Example with an in-process broker:
//
//	broker := notify.NewBroker[training.Event]()
//	svc := kohonen.New(bs, kohonen.WithSink(broker))
func WithSink(sink training.Sink) Option {
	return func(o *options) {
		o.sink = sink
	}
}

// WithTopic sets the topic training events are published on. Default: "training".
func WithTopic(topic string) Option {
	return func(o *options) {
		if topic != "" {
			o.topic = topic
		}
	}
}

// WithConvergenceThreshold sets the dm at or below which training stops
// early. Default: 0.01.
func WithConvergenceThreshold(threshold float64) Option {
	return func(o *options) {
		o.convergenceThreshold = threshold
	}
}

// WithVectorizerOptions tunes image normalization (size, threshold, interpolator).
func WithVectorizerOptions(optFns ...imaging.Option) Option {
	return func(o *options) {
		o.vectorizerOptions = append(o.vectorizerOptions, optFns...)
	}
}

// WithWorkers sets how many images are vectorized in parallel.
// Values <= 0 select GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithPrecision sets the decimal places feature vectors are rounded to. Default: 5.
func WithPrecision(p int) Option {
	return func(o *options) {
		o.precision = p
	}
}

// WithSOMOptions sets map options (learning rate, sigma, decay, seed) applied
// to every training run. The neighborhood is always taken from the
// configuration's CompetitionType.
//
// som.WithSeed gives every run its own source with the same seed. A
// *rand.Rand passed with som.WithRand is shared by all runs.
func WithSOMOptions(optFns ...som.Option) Option {
	return func(o *options) {
		o.somOptions = append(o.somOptions, optFns...)
	}
}

// WithResourceController configures run admission, image memory and IO limits.
// Default: one concurrent run, no memory or IO limit.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.resources = rc
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &kohonen.BasicMetricsCollector{}
//	svc := kohonen.New(bs, kohonen.WithMetricsCollector(metrics))
//	// ... use svc ...
//	stats := metrics.GetStats()
//	fmt.Printf("Runs: %d, converged: %d\n", stats.TrainingCount, stats.ConvergedCount)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := kohonen.NewJSONLogger(slog.LevelInfo)
//	svc := kohonen.New(bs, kohonen.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		codec:                codec.Default,
		topic:                training.DefaultTopic,
		convergenceThreshold: training.DefaultConvergenceThreshold,
		precision:            dataset.DefaultPrecision,
	}
	for _, fn := range optFns {
		fn(&o)
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	if o.resources == nil {
		o.resources = resource.NewController(resource.Config{})
	}
	return o
}
