package export

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeader(t *testing.T) {
	assert.Equal(t, []string{"Image", "X1", "X2", "X3"}, Header(3))
	assert.Equal(t, []string{"Image"}, Header(0))
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer

	err := WriteCSV(&buf, []Row{
		{Name: "b.png", Values: []float64{1, 0.9375}},
		{Name: "a.png", Values: []float64{0, 1}},
		{Name: "c,d.png", Values: []float64{0.5}},
	})
	require.NoError(t, err)

	want := "Image,X1,X2\n" +
		"a.png,0,1\n" +
		"b.png,1,0.9375\n" +
		"\"c,d.png\",0.5,\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteCSVWidthFromFirstSortedRow(t *testing.T) {
	var buf bytes.Buffer

	err := WriteCSV(&buf, []Row{
		{Name: "z.png", Values: []float64{1, 0.5, 0.25}},
		{Name: "a.png", Values: []float64{1, 0}},
	})
	require.NoError(t, err)

	want := "Image,X1,X2\n" +
		"a.png,1,0\n" +
		"z.png,1,0.5\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteCSVEmpty(t *testing.T) {
	assert.ErrorIs(t, WriteCSV(&bytes.Buffer{}, nil), ErrNoRows)
}

type failingWriter struct{}

var errWrite = errors.New("disk full")

func (failingWriter) Write([]byte) (int, error) { return 0, errWrite }

func TestWriteCSVWriterError(t *testing.T) {
	err := WriteCSV(failingWriter{}, []Row{{Name: "a", Values: []float64{1}}})
	assert.ErrorIs(t, err, errWrite)
}
