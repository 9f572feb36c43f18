package imaging

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// BinaryMatrix is a row-major grid of {0,1} cells. A 1 marks an ink pixel.
// BinaryMatrix values are immutable; every transformation returns a new matrix.
type BinaryMatrix struct {
	m *mat.Dense
}

// NewBinaryMatrix creates a rows x cols matrix backed by data (row-major).
// A nil data slice yields an all-zero matrix. Non-zero cells are stored as 1.
func NewBinaryMatrix(rows, cols int, data []float64) (*BinaryMatrix, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("invalid matrix size %dx%d", rows, cols)
	}
	if data != nil && len(data) != rows*cols {
		return nil, fmt.Errorf("matrix data length %d does not match %dx%d", len(data), rows, cols)
	}
	cells := make([]float64, rows*cols)
	for i, v := range data {
		if v != 0 {
			cells[i] = 1
		}
	}
	return &BinaryMatrix{m: mat.NewDense(rows, cols, cells)}, nil
}

// Dims returns the number of rows and columns.
func (b *BinaryMatrix) Dims() (rows, cols int) {
	return b.m.Dims()
}

// At returns the cell at row i, column j.
func (b *BinaryMatrix) At(i, j int) uint8 {
	return uint8(b.m.At(i, j))
}

// Matrix returns a read-only view of the underlying gonum matrix.
func (b *BinaryMatrix) Matrix() mat.Matrix {
	return b.m
}

// Ones returns the number of ink cells.
func (b *BinaryMatrix) Ones() int {
	return int(mat.Sum(b.m))
}

// Bounds returns the inclusive bounding box of all ink cells.
// ok is false when the matrix contains no ink.
func (b *BinaryMatrix) Bounds() (rowMin, rowMax, colMin, colMax int, ok bool) {
	rows, cols := b.m.Dims()
	rowMin, colMin = rows, cols
	rowMax, colMax = -1, -1

	for i := 0; i < rows; i++ {
		for j, v := range b.m.RawRowView(i) {
			if v == 0 {
				continue
			}
			rowMin = min(rowMin, i)
			rowMax = max(rowMax, i)
			colMin = min(colMin, j)
			colMax = max(colMax, j)
		}
	}

	if rowMax < 0 {
		return 0, 0, 0, 0, false
	}
	return rowMin, rowMax, colMin, colMax, true
}

// Crop removes all-zero border rows and columns. If the matrix has no ink,
// cropping is skipped: the receiver is returned and cropped is false.
func (b *BinaryMatrix) Crop() (out *BinaryMatrix, cropped bool) {
	r0, r1, c0, c1, ok := b.Bounds()
	if !ok {
		return b, false
	}
	view := b.m.Slice(r0, r1+1, c0, c1+1)
	return &BinaryMatrix{m: mat.DenseCopyOf(view)}, true
}

// Pad embeds the matrix top-left into a zero matrix of rows x cols.
func (b *BinaryMatrix) Pad(rows, cols int) (*BinaryMatrix, error) {
	r, c := b.m.Dims()
	if rows < r || cols < c {
		return nil, fmt.Errorf("%w: %dx%d into %dx%d", ErrTargetTooSmall, r, c, rows, cols)
	}
	dst := mat.NewDense(rows, cols, nil)
	dst.Copy(b.m)
	return &BinaryMatrix{m: dst}, nil
}

// PadColumns right-pads the matrix with zero columns up to cols.
// Matrices that are already wide enough are returned as is.
func (b *BinaryMatrix) PadColumns(cols int) *BinaryMatrix {
	r, c := b.m.Dims()
	if cols <= c {
		return b
	}
	out, _ := b.Pad(r, cols)
	return out
}

// ColumnSums returns the number of ink cells in every column.
func (b *BinaryMatrix) ColumnSums() []float64 {
	rows, cols := b.m.Dims()
	sums := make([]float64, cols)
	col := make([]float64, rows)
	for j := range sums {
		mat.Col(col, j, b.m)
		sums[j] = floats.Sum(col)
	}
	return sums
}

// String renders the matrix as rows of 0 and 1.
func (b *BinaryMatrix) String() string {
	rows, cols := b.m.Dims()
	buf := make([]byte, 0, rows*(cols+1))
	for i := 0; i < rows; i++ {
		for _, v := range b.m.RawRowView(i) {
			if v != 0 {
				buf = append(buf, '1')
			} else {
				buf = append(buf, '0')
			}
		}
		buf = append(buf, '\n')
	}
	return string(buf)
}
