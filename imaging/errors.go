package imaging

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyImage is returned for images with zero width or height.
	ErrEmptyImage = errors.New("image has empty bounds")

	// ErrTargetTooSmall is returned when padding to a size smaller than the matrix.
	ErrTargetTooSmall = errors.New("pad target smaller than matrix")
)

// ErrDecode indicates bytes that could not be decoded as an image.
type ErrDecode struct {
	cause error
}

func (e *ErrDecode) Error() string {
	return fmt.Sprintf("decode image: %v", e.cause)
}

func (e *ErrDecode) Unwrap() error { return e.cause }
