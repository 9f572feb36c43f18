// Package export renders stored vectors for spreadsheets.
package export

import (
	"encoding/csv"
	"errors"
	"io"
	"sort"
	"strconv"
)

// ErrNoRows is returned when there is nothing to export.
var ErrNoRows = errors.New("export: no rows")

// Row is one labeled vector.
type Row struct {
	Name   string
	Values []float64
}

// Header returns the column labels for vectors of length n: Image, X1..Xn.
func Header(n int) []string {
	h := make([]string, 0, n+1)
	h = append(h, "Image")
	for i := 1; i <= n; i++ {
		h = append(h, "X"+strconv.Itoa(i))
	}
	return h
}

// WriteCSV writes rows sorted by name. The column count follows the first
// row after sorting; shorter rows leave trailing cells empty and longer rows
// are cut.
func WriteCSV(w io.Writer, rows []Row) error {
	if len(rows) == 0 {
		return ErrNoRows
	}

	sorted := make([]Row, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	n := len(sorted[0].Values)

	cw := csv.NewWriter(w)
	if err := cw.Write(Header(n)); err != nil {
		return err
	}

	record := make([]string, n+1)
	for _, r := range sorted {
		record[0] = r.Name
		for i := range n {
			record[i+1] = ""
			if i < len(r.Values) {
				record[i+1] = strconv.FormatFloat(r.Values[i], 'f', -1, 64)
			}
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
