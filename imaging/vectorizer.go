package imaging

import (
	"image"

	"golang.org/x/image/draw"
)

const (
	// DefaultSize is the side length images are resized to before binarization.
	DefaultSize = 128
	// DefaultThreshold is the grayscale level in [0,1] above which a pixel is background.
	DefaultThreshold = 0.5
)

type options struct {
	size         int
	threshold    float64
	interpolator draw.Interpolator
}

// Option configures a Vectorizer.
type Option func(*options)

// WithSize sets the normalization size. Values <= 0 are ignored.
func WithSize(size int) Option {
	return func(o *options) {
		if size > 0 {
			o.size = size
		}
	}
}

// WithThreshold sets the binarization threshold on the [0,1] grayscale scale.
func WithThreshold(threshold float64) Option {
	return func(o *options) {
		o.threshold = threshold
	}
}

// WithInterpolator sets the resampling filter used for resizing.
// If nil is passed, draw.CatmullRom is used.
func WithInterpolator(i draw.Interpolator) Option {
	return func(o *options) {
		if i == nil {
			i = draw.CatmullRom
		}
		o.interpolator = i
	}
}

// Vectorizer converts images into cropped binary matrices.
// It holds no mutable state and is safe for concurrent use.
type Vectorizer struct {
	opts options
}

// NewVectorizer creates a Vectorizer with the given options.
func NewVectorizer(optFns ...Option) *Vectorizer {
	o := options{
		size:         DefaultSize,
		threshold:    DefaultThreshold,
		interpolator: draw.CatmullRom,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return &Vectorizer{opts: o}
}

// Size returns the normalization size.
func (v *Vectorizer) Size() int { return v.opts.size }

// Resize scales img to size x size and converts it to grayscale.
// Images that already have the target size are only converted.
func (v *Vectorizer) Resize(img image.Image) (*image.Gray, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, ErrEmptyImage
	}

	src := img.Bounds()
	rect := image.Rect(0, 0, v.opts.size, v.opts.size)
	gray := image.NewGray(rect)

	if src.Dx() == v.opts.size && src.Dy() == v.opts.size {
		draw.Draw(gray, rect, img, src.Min, draw.Src)
		return gray, nil
	}

	// Resample in RGBA first, then convert, so color is averaged before the gray conversion.
	rgba := image.NewRGBA(rect)
	v.opts.interpolator.Scale(rgba, rect, img, src, draw.Src, nil)
	draw.Draw(gray, rect, rgba, image.Point{}, draw.Src)

	return gray, nil
}

// Binarize maps every pixel to 1 (ink) when its level on the [0,1] scale is
// not above the threshold, and to 0 otherwise.
func (v *Vectorizer) Binarize(gray *image.Gray) (*BinaryMatrix, error) {
	if gray == nil || gray.Bounds().Empty() {
		return nil, ErrEmptyImage
	}

	b := gray.Bounds()
	rows, cols := b.Dy(), b.Dx()
	cells := make([]float64, rows*cols)

	for y := 0; y < rows; y++ {
		row := gray.Pix[y*gray.Stride : y*gray.Stride+cols]
		for x, p := range row {
			if float64(p)/255.0 <= v.opts.threshold {
				cells[y*cols+x] = 1
			}
		}
	}

	return NewBinaryMatrix(rows, cols, cells)
}

// Vectorize runs resize, binarize and crop. cropped is false when the image
// has no ink, in which case the full binary matrix is returned.
func (v *Vectorizer) Vectorize(img image.Image) (m *BinaryMatrix, cropped bool, err error) {
	gray, err := v.Resize(img)
	if err != nil {
		return nil, false, err
	}

	bin, err := v.Binarize(gray)
	if err != nil {
		return nil, false, err
	}

	m, cropped = bin.Crop()
	return m, cropped, nil
}
