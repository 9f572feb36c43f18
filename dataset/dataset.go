package dataset

import "slices"

// Dataset is an ordered set of equal-length feature vectors, one per source.
// It is immutable once built.
type Dataset struct {
	names   []string
	vectors [][]float64
}

// Len returns the number of vectors.
func (d *Dataset) Len() int { return len(d.vectors) }

// Dim returns the common vector length.
func (d *Dataset) Dim() int {
	if len(d.vectors) == 0 {
		return 0
	}
	return len(d.vectors[0])
}

// Name returns the source name of vector i.
func (d *Dataset) Name(i int) string { return d.names[i] }

// Names returns the source names in dataset order.
func (d *Dataset) Names() []string { return slices.Clone(d.names) }

// Vector returns a copy of vector i.
func (d *Dataset) Vector(i int) []float64 { return slices.Clone(d.vectors[i]) }

// Vectors returns a deep copy of all vectors.
func (d *Dataset) Vectors() [][]float64 {
	out := make([][]float64, len(d.vectors))
	for i, v := range d.vectors {
		out[i] = slices.Clone(v)
	}
	return out
}
