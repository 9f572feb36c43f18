package kohonen

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"sync"
	"time"

	"github.com/hupe1980/kohonen/blobstore"
	"github.com/hupe1980/kohonen/dataset"
	"github.com/hupe1980/kohonen/export"
	"github.com/hupe1980/kohonen/imaging"
	"github.com/hupe1980/kohonen/resource"
	"github.com/hupe1980/kohonen/store"
)

// Config is a saved training configuration.
type Config = store.Config

// Image describes an uploaded image.
type Image = store.Image

// Vector is the stored feature vector of one image.
type Vector = store.Vector

// Service vectorizes uploaded images and trains maps over the vectors.
// It is safe for concurrent use.
type Service struct {
	store     *store.Store
	builder   *dataset.Builder
	resources *resource.Controller
	metrics   MetricsCollector
	logger    *Logger
	opts      options

	mu     sync.Mutex
	closed bool
	runs   sync.WaitGroup
}

// New creates a Service over bs.
func New(bs blobstore.BlobStore, optFns ...Option) *Service {
	o := applyOptions(optFns)

	storeOpts := []store.Option{
		store.WithCodec(o.codec),
		store.WithCompression(o.compression),
	}
	if o.configs != nil {
		storeOpts = append(storeOpts, store.WithConfigRepository(o.configs))
	}

	builder := dataset.NewBuilder(
		dataset.WithVectorizer(imaging.NewVectorizer(o.vectorizerOptions...)),
		dataset.WithWorkers(o.workers),
		dataset.WithPrecision(o.precision),
		dataset.WithLogger(o.logger.Logger),
	)

	return &Service{
		store:     store.New(bs, storeOpts...),
		builder:   builder,
		resources: o.resources,
		metrics:   o.metricsCollector,
		logger:    o.logger,
		opts:      o,
	}
}

// Store returns the underlying record store.
func (s *Service) Store() *store.Store { return s.store }

// Resources returns the resource controller.
func (s *Service) Resources() *resource.Controller { return s.resources }

func validateConfig(cfg Config) error {
	if cfg.Neurons < 0 || cfg.Neurons%2 != 0 {
		return fmt.Errorf("%w: neurons must be a non-negative even number, got %d", ErrInvalidConfiguration, cfg.Neurons)
	}
	if cfg.Iterations <= 0 {
		return fmt.Errorf("%w: iterations must be positive, got %d", ErrInvalidConfiguration, cfg.Iterations)
	}
	if _, err := neighborhood(cfg.CompetitionType); err != nil {
		return err
	}
	return nil
}

// CreateConfig validates and stores a configuration. The id is assigned.
func (s *Service) CreateConfig(ctx context.Context, cfg Config) (Config, error) {
	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	out, err := s.store.Configs().CreateConfig(ctx, cfg)
	return out, translateError(err)
}

// Config returns the configuration with id.
func (s *Service) Config(ctx context.Context, id uint32) (Config, error) {
	cfg, err := s.store.Configs().GetConfig(ctx, id)
	return cfg, translateError(err)
}

// Configs returns all configurations ordered by id.
func (s *Service) Configs(ctx context.Context) ([]Config, error) {
	cfgs, err := s.store.Configs().ListConfigs(ctx)
	return cfgs, translateError(err)
}

// UpdateConfig validates and overwrites the configuration with cfg.ID.
func (s *Service) UpdateConfig(ctx context.Context, cfg Config) (Config, error) {
	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	out, err := s.store.Configs().UpdateConfig(ctx, cfg)
	return out, translateError(err)
}

// DeleteConfig removes the configuration with id.
func (s *Service) DeleteConfig(ctx context.Context, id uint32) error {
	err := translateError(s.store.Configs().DeleteConfig(ctx, id))
	s.logger.LogDelete(ctx, "config", id, err)
	return err
}

// UploadImage stores data as a new image. Bytes that do not decode as an
// image are rejected with a *VectorizationError.
func (s *Service) UploadImage(ctx context.Context, name string, data []byte) (Image, error) {
	img, err := s.uploadImage(ctx, name, data)
	s.logger.LogUpload(ctx, name, img.ID, len(data), err)
	return img, err
}

func (s *Service) uploadImage(ctx context.Context, name string, data []byte) (Image, error) {
	_, format, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return Image{}, &VectorizationError{Index: -1, Name: name, cause: err}
	}

	if err := s.resources.AcquireIO(ctx, len(data)); err != nil {
		return Image{}, err
	}

	img, err := s.store.Images().CreateImage(ctx, Image{Name: name, Format: format}, data)
	return img, translateError(err)
}

// Images returns all images ordered by id.
func (s *Service) Images(ctx context.Context) ([]Image, error) {
	imgs, err := s.store.Images().ListImages(ctx)
	return imgs, translateError(err)
}

// Image returns the image record with id.
func (s *Service) Image(ctx context.Context, id uint32) (Image, error) {
	img, err := s.store.Images().GetImage(ctx, id)
	return img, translateError(err)
}

// ImageData returns the encoded bytes of the image with id.
func (s *Service) ImageData(ctx context.Context, id uint32) ([]byte, error) {
	data, err := s.store.Images().ImageData(ctx, id)
	if err != nil {
		return nil, translateError(err)
	}
	if err := s.resources.AcquireIO(ctx, len(data)); err != nil {
		return nil, err
	}
	return data, nil
}

// DeleteImage removes the image, its bytes and every vector built from it.
func (s *Service) DeleteImage(ctx context.Context, id uint32) error {
	err := s.deleteImage(ctx, id)
	s.logger.LogDelete(ctx, "image", id, err)
	return err
}

func (s *Service) deleteImage(ctx context.Context, id uint32) error {
	if _, err := s.store.Images().GetImage(ctx, id); err != nil {
		return translateError(err)
	}
	if _, err := s.store.Vectors().DeleteVectorsByImage(ctx, id); err != nil {
		return translateError(err)
	}
	return translateError(s.store.Images().DeleteImage(ctx, id))
}

// storedImage reads and decodes an uploaded image on demand.
type storedImage struct {
	ctx context.Context
	svc *Service
	img Image
}

func (si storedImage) Name() string { return si.img.Name }

func (si storedImage) Image() (image.Image, error) {
	rc := si.svc.resources
	if err := rc.AcquireMemory(si.ctx, si.img.Size); err != nil {
		return nil, err
	}
	defer rc.ReleaseMemory(si.img.Size)

	data, err := si.svc.store.Images().ImageData(si.ctx, si.img.ID)
	if err != nil {
		return nil, translateError(err)
	}
	img, _, err := imaging.Decode(resource.NewRateLimitedReader(si.ctx, bytes.NewReader(data), rc))
	return img, err
}

// ProcessImages vectorizes every uploaded image and replaces the stored
// vectors with the result. A failing image aborts the run and leaves the
// previous vectors in place.
func (s *Service) ProcessImages(ctx context.Context) ([]Vector, error) {
	start := time.Now()

	vectors, dim, n, err := s.processImages(ctx)

	elapsed := time.Since(start)
	s.metrics.RecordVectorize(n, elapsed, err)
	s.logger.LogVectorize(ctx, n, dim, elapsed, err)
	return vectors, err
}

func (s *Service) processImages(ctx context.Context) ([]Vector, int, int, error) {
	imgs, err := s.store.Images().ListImages(ctx)
	if err != nil {
		return nil, 0, 0, translateError(err)
	}

	sources := make([]dataset.Source, len(imgs))
	for i, img := range imgs {
		sources[i] = storedImage{ctx: ctx, svc: s, img: img}
	}

	ds, err := s.builder.Build(ctx, sources)
	if err != nil {
		return nil, 0, len(imgs), translateError(err)
	}

	vs := make([]Vector, ds.Len())
	for i, img := range imgs {
		vs[i] = Vector{
			ImageID:   img.ID,
			ImageName: img.Name,
			Values:    ds.Vector(i),
		}
	}

	stored, err := s.store.Vectors().ReplaceVectors(ctx, vs)
	if err != nil {
		return nil, ds.Dim(), len(imgs), translateError(err)
	}
	return stored, ds.Dim(), len(imgs), nil
}

// Vectors returns all stored vectors ordered by id.
func (s *Service) Vectors(ctx context.Context) ([]Vector, error) {
	vs, err := s.store.Vectors().ListVectors(ctx)
	if err != nil {
		return nil, translateError(err)
	}
	if len(vs) == 0 {
		return nil, fmt.Errorf("%w: no vectors stored, process images first", ErrEmptyDataset)
	}
	return vs, nil
}

// ExportVectors writes the stored vectors as CSV, one row per image sorted by
// name, under the header Image,X1..Xn. Output counts against the IO limit.
func (s *Service) ExportVectors(ctx context.Context, w io.Writer) error {
	vs, err := s.Vectors(ctx)
	if err != nil {
		s.logger.LogExport(ctx, 0, err)
		return err
	}

	rows := make([]export.Row, len(vs))
	for i, v := range vs {
		rows[i] = export.Row{Name: v.ImageName, Values: v.Values}
	}

	err = export.WriteCSV(resource.NewRateLimitedWriter(ctx, w, s.resources), rows)
	if errors.Is(err, export.ErrNoRows) {
		err = fmt.Errorf("%w: %w", ErrEmptyDataset, err)
	}
	s.logger.LogExport(ctx, len(rows), err)
	return err
}
