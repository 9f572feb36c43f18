package store

import "context"

// ConfigRepository stores training configurations.
type ConfigRepository interface {
	// CreateConfig assigns an id to cfg and stores it.
	CreateConfig(ctx context.Context, cfg Config) (Config, error)
	GetConfig(ctx context.Context, id uint32) (Config, error)
	// UpdateConfig overwrites the fields of an existing configuration,
	// keeping its id and creation time.
	UpdateConfig(ctx context.Context, cfg Config) (Config, error)
	// ListConfigs returns all configurations ordered by id.
	ListConfigs(ctx context.Context) ([]Config, error)
	DeleteConfig(ctx context.Context, id uint32) error
}

// ImageRepository stores image records together with their encoded bytes.
type ImageRepository interface {
	// CreateImage assigns an id to img and stores it with data.
	CreateImage(ctx context.Context, img Image, data []byte) (Image, error)
	GetImage(ctx context.Context, id uint32) (Image, error)
	// ImageData returns the encoded bytes of the image.
	ImageData(ctx context.Context, id uint32) ([]byte, error)
	// ListImages returns all images ordered by id.
	ListImages(ctx context.Context) ([]Image, error)
	DeleteImage(ctx context.Context, id uint32) error
}

// VectorRepository stores image vectors.
type VectorRepository interface {
	// ReplaceVectors swaps the complete vector set for vs and returns the
	// stored vectors with ids assigned. Readers see either the old or the new set.
	ReplaceVectors(ctx context.Context, vs []Vector) ([]Vector, error)
	// ListVectors returns all vectors ordered by id.
	ListVectors(ctx context.Context) ([]Vector, error)
	// DeleteVectorsByImage removes the vectors of one image and returns how
	// many were removed.
	DeleteVectorsByImage(ctx context.Context, imageID uint32) (int, error)
}
