package som

import (
	"math/rand"
	"time"
)

const (
	// DefaultLearningRate is the initial learning rate.
	DefaultLearningRate = 0.5
	// DefaultSigma is the initial neighborhood radius in grid units.
	DefaultSigma = 1.0
)

type options struct {
	learningRate float64
	sigma        float64
	decay        DecayFunc
	neighborhood Neighborhood
	rand         *rand.Rand
	sharedRand   bool
}

// Option configures a Map.
type Option func(*options)

// WithLearningRate sets the initial learning rate. Values <= 0 are ignored.
func WithLearningRate(lr float64) Option {
	return func(o *options) {
		if lr > 0 {
			o.learningRate = lr
		}
	}
}

// WithSigma sets the initial neighborhood radius. Values <= 0 are ignored.
func WithSigma(sigma float64) Option {
	return func(o *options) {
		if sigma > 0 {
			o.sigma = sigma
		}
	}
}

// WithDecay sets the decay schedule. If nil is passed, LinearDecay is used.
func WithDecay(fn DecayFunc) Option {
	return func(o *options) {
		if fn == nil {
			fn = LinearDecay
		}
		o.decay = fn
	}
}

// WithNeighborhood sets the neighborhood function.
func WithNeighborhood(n Neighborhood) Option {
	return func(o *options) {
		o.neighborhood = n
	}
}

// WithSeed seeds the weight initializer for reproducible maps.
func WithSeed(seed int64) Option {
	return func(o *options) {
		o.rand = rand.New(rand.NewSource(seed))
		o.sharedRand = false
	}
}

// WithRand sets the random source used for weight initialization. r may be
// shared by maps created concurrently; draws from it are serialized.
func WithRand(r *rand.Rand) Option {
	return func(o *options) {
		if r != nil {
			o.rand = r
			o.sharedRand = true
		}
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		learningRate: DefaultLearningRate,
		sigma:        DefaultSigma,
		decay:        LinearDecay,
		neighborhood: Gaussian,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.rand == nil {
		o.rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return o
}
