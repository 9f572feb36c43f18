package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/hupe1980/kohonen/blobstore"
)

// Store groups the repositories of a service.
type Store struct {
	bs      blobstore.BlobStore
	opts    options
	configs ConfigRepository
	images  *imageRepo
	vectors *vectorRepo
}

// New creates a Store over bs.
func New(bs blobstore.BlobStore, optFns ...Option) *Store {
	o := applyOptions(optFns)

	s := &Store{
		bs:   bs,
		opts: o,
		images: &imageRepo{
			records: newCollection[Image](bs, "images", o),
			bs:      bs,
			now:     o.now,
		},
		vectors: &vectorRepo{
			records: newCollection[Vector](bs, "vectors", o),
			now:     o.now,
		},
	}

	s.configs = o.configs
	if s.configs == nil {
		s.configs = &configRepo{
			records: newCollection[Config](bs, "configs", o),
			now:     o.now,
		}
	}
	return s
}

// Configs returns the configuration repository.
func (s *Store) Configs() ConfigRepository { return s.configs }

// Images returns the image repository.
func (s *Store) Images() ImageRepository { return s.images }

// Vectors returns the vector repository.
func (s *Store) Vectors() VectorRepository { return s.vectors }

// Blobs returns the underlying blob store.
func (s *Store) Blobs() blobstore.BlobStore { return s.bs }

// Compression returns the compression applied to new records.
func (s *Store) Compression() Compression { return s.opts.compression }

type configRepo struct {
	records *collection[Config]
	now     func() time.Time
}

func (r *configRepo) CreateConfig(ctx context.Context, cfg Config) (Config, error) {
	return r.records.insert(ctx, func(id uint32) (Config, error) {
		cfg.ID = id
		cfg.CreatedAt = r.now().UTC()
		return cfg, nil
	})
}

func (r *configRepo) GetConfig(ctx context.Context, id uint32) (Config, error) {
	return r.records.get(ctx, id)
}

func (r *configRepo) UpdateConfig(ctx context.Context, cfg Config) (Config, error) {
	cur, err := r.records.get(ctx, cfg.ID)
	if err != nil {
		return Config{}, err
	}
	cfg.CreatedAt = cur.CreatedAt
	if err := r.records.update(ctx, cfg.ID, cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (r *configRepo) ListConfigs(ctx context.Context) ([]Config, error) {
	return r.records.list(ctx)
}

func (r *configRepo) DeleteConfig(ctx context.Context, id uint32) error {
	return r.records.remove(ctx, true, id)
}

type imageRepo struct {
	records *collection[Image]
	bs      blobstore.BlobStore
	now     func() time.Time
}

func dataName(id uint32) string {
	return fmt.Sprintf("images/data/%010d", id)
}

func (r *imageRepo) CreateImage(ctx context.Context, img Image, data []byte) (Image, error) {
	return r.records.insert(ctx, func(id uint32) (Image, error) {
		img.ID = id
		img.Size = int64(len(data))
		img.UploadedAt = r.now().UTC()
		return img, r.bs.Put(ctx, dataName(id), data)
	})
}

func (r *imageRepo) GetImage(ctx context.Context, id uint32) (Image, error) {
	return r.records.get(ctx, id)
}

func (r *imageRepo) ImageData(ctx context.Context, id uint32) ([]byte, error) {
	if _, err := r.records.get(ctx, id); err != nil {
		return nil, err
	}
	data, err := blobstore.ReadAll(ctx, r.bs, dataName(id))
	if errors.Is(err, blobstore.ErrNotFound) {
		return nil, ErrNotFound
	}
	return data, err
}

func (r *imageRepo) ListImages(ctx context.Context) ([]Image, error) {
	return r.records.list(ctx)
}

func (r *imageRepo) DeleteImage(ctx context.Context, id uint32) error {
	if err := r.records.remove(ctx, true, id); err != nil {
		return err
	}
	return r.bs.Delete(ctx, dataName(id))
}

type vectorRepo struct {
	records *collection[Vector]
	now     func() time.Time
}

func (r *vectorRepo) ReplaceVectors(ctx context.Context, vs []Vector) ([]Vector, error) {
	created := r.now().UTC()
	return r.records.replaceAll(ctx, len(vs), func(i int, id uint32) Vector {
		v := vs[i]
		v.ID = id
		v.Values = slices.Clone(v.Values)
		v.CreatedAt = created
		return v
	})
}

func (r *vectorRepo) ListVectors(ctx context.Context) ([]Vector, error) {
	return r.records.list(ctx)
}

func (r *vectorRepo) DeleteVectorsByImage(ctx context.Context, imageID uint32) (int, error) {
	vs, err := r.records.list(ctx)
	if err != nil {
		return 0, err
	}

	var ids []uint32
	for _, v := range vs {
		if v.ImageID == imageID {
			ids = append(ids, v.ID)
		}
	}
	if len(ids) == 0 {
		return 0, nil
	}
	if err := r.records.remove(ctx, false, ids...); err != nil {
		return 0, err
	}
	return len(ids), nil
}
