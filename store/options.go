package store

import (
	"time"

	"github.com/hupe1980/kohonen/codec"
)

type options struct {
	codec       codec.Codec
	compression Compression
	configs     ConfigRepository
	now         func() time.Time
}

// Option configures a Store.
type Option func(*options)

// WithCodec sets the record codec. Default: codec.Default.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c != nil {
			o.codec = c
		}
	}
}

// WithCompression sets the compression of newly written records.
// Default: CompressionNone.
func WithCompression(c Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithConfigRepository stores configurations in repo instead of the blob store.
func WithConfigRepository(repo ConfigRepository) Option {
	return func(o *options) {
		o.configs = repo
	}
}

// WithClock sets the time source for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		codec: codec.Default,
		now:   time.Now,
	}
	for _, fn := range optFns {
		fn(&o)
	}
	return o
}
