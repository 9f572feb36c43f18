package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("store: record not found")

	// ErrCorrupt is returned when a stored blob cannot be decoded.
	ErrCorrupt = errors.New("store: corrupt blob")

	// ErrTooLarge is returned for records above MaxRecordSize.
	ErrTooLarge = errors.New("store: record too large")

	// ErrConflict is returned when a conditional write loses a race.
	ErrConflict = errors.New("store: concurrent modification")
)

// ErrUnknownCompression is returned for unsupported compression names or tags.
type ErrUnknownCompression struct {
	Name string
}

func (e *ErrUnknownCompression) Error() string {
	return fmt.Sprintf("store: unknown compression %q", e.Name)
}
