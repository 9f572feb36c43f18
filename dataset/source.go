package dataset

import (
	"bytes"
	"image"

	"github.com/hupe1980/kohonen/imaging"
)

// Source is one named image of a batch.
type Source interface {
	Name() string
	Image() (image.Image, error)
}

type imageSource struct {
	name string
	img  image.Image
}

func (s imageSource) Name() string                { return s.name }
func (s imageSource) Image() (image.Image, error) { return s.img, nil }

// FromImage wraps an already decoded image.
func FromImage(name string, img image.Image) Source {
	return imageSource{name: name, img: img}
}

type bytesSource struct {
	name string
	data []byte
}

func (s bytesSource) Name() string { return s.name }

func (s bytesSource) Image() (image.Image, error) {
	img, _, err := imaging.Decode(bytes.NewReader(s.data))
	return img, err
}

// FromBytes wraps an encoded image. Decoding happens during the build.
func FromBytes(name string, data []byte) Source {
	return bytesSource{name: name, data: data}
}
