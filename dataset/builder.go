package dataset

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"slices"

	"github.com/hupe1980/kohonen/imaging"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
)

// DefaultPrecision is the number of decimals normalized values are rounded to.
const DefaultPrecision = 5

type options struct {
	vectorizer *imaging.Vectorizer
	workers    int
	precision  int
	logger     *slog.Logger
}

// Option configures a Builder.
type Option func(*options)

// WithVectorizer sets the vectorizer used for every source.
func WithVectorizer(v *imaging.Vectorizer) Option {
	return func(o *options) {
		if v != nil {
			o.vectorizer = v
		}
	}
}

// WithWorkers bounds the number of images vectorized concurrently.
// Values <= 0 select runtime.GOMAXPROCS(0).
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithPrecision sets the number of decimals used when rounding normalized values.
func WithPrecision(p int) Option {
	return func(o *options) {
		if p >= 0 {
			o.precision = p
		}
	}
}

// WithLogger sets the logger. Pass nil to disable logging.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// Builder builds datasets from image sources.
type Builder struct {
	opts options
}

// NewBuilder creates a Builder.
func NewBuilder(optFns ...Option) *Builder {
	o := options{
		vectorizer: imaging.NewVectorizer(),
		precision:  DefaultPrecision,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.workers <= 0 {
		o.workers = runtime.GOMAXPROCS(0)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Builder{opts: o}
}

// Build vectorizes every source and assembles the dataset in source order.
// The first failing source aborts the whole build.
func (b *Builder) Build(ctx context.Context, sources []Source) (*Dataset, error) {
	if len(sources) == 0 {
		return nil, ErrEmptyDataset
	}

	names := make([]string, len(sources))
	mats := make([]*imaging.BinaryMatrix, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.opts.workers)

	for i, src := range sources {
		names[i] = src.Name()
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			img, err := src.Image()
			if err != nil {
				return &VectorizationError{Index: i, Name: src.Name(), cause: err}
			}

			m, cropped, err := b.opts.vectorizer.Vectorize(img)
			if err != nil {
				return &VectorizationError{Index: i, Name: src.Name(), cause: err}
			}
			if !cropped {
				b.opts.logger.WarnContext(gctx, "cropping skipped: image has no ink", "image", src.Name())
			}

			mats[i] = m
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return b.Assemble(names, mats)
}

// Assemble pads all matrices to the widest column count and turns each into a
// normalized column-sum vector. Row counts may differ: column sums do not
// depend on them.
func (b *Builder) Assemble(names []string, mats []*imaging.BinaryMatrix) (*Dataset, error) {
	if len(mats) == 0 {
		return nil, ErrEmptyDataset
	}
	if len(names) != len(mats) {
		return nil, fmt.Errorf("got %d names for %d matrices", len(names), len(mats))
	}

	maxCols := 0
	for _, m := range mats {
		_, cols := m.Dims()
		maxCols = max(maxCols, cols)
	}

	vectors := make([][]float64, len(mats))
	for i, m := range mats {
		vectors[i] = Normalize(m.PadColumns(maxCols).ColumnSums(), b.opts.precision)
	}

	b.opts.logger.Debug("dataset assembled", "count", len(vectors), "dimension", maxCols)

	return &Dataset{names: slices.Clone(names), vectors: vectors}, nil
}

// Normalize divides v by its maximum element and rounds every value to
// precision decimals (half to even). Vectors whose maximum is not positive
// are returned unchanged. v itself is never modified.
func Normalize(v []float64, precision int) []float64 {
	out := slices.Clone(v)
	if len(out) == 0 {
		return out
	}

	maxValue := floats.Max(out)
	if maxValue <= 0 {
		return out
	}

	for i, x := range out {
		out[i] = scalar.RoundEven(x/maxValue, precision)
	}
	return out
}
