// Package export serializes result rows for download.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"

	"github.com/gyeh/claimscope/internal/catalog"
	"github.com/gyeh/claimscope/internal/remote"
)

// WriteCSV writes rows as CSV: dimension columns sorted by name, the two
// measure columns last. encoding/csv handles quoting, so values containing
// commas survive round trips.
func WriteCSV(w io.Writer, rows []remote.Row) error {
	header := columns(rows)
	cw := csv.NewWriter(w)

	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	record := make([]string, len(header))
	for _, row := range rows {
		for i, col := range header {
			if v, ok := row[col]; ok && v != nil {
				record[i] = fmt.Sprint(v)
			} else {
				record[i] = ""
			}
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// columns returns the union of row keys, dimensions first.
func columns(rows []remote.Row) []string {
	seen := map[string]bool{}
	var dims, measures []string
	for _, row := range rows {
		for k := range row {
			if seen[k] {
				continue
			}
			seen[k] = true
			if catalog.IsMeasure(k) {
				measures = append(measures, k)
			} else {
				dims = append(dims, k)
			}
		}
	}
	sort.Strings(dims)
	sort.Strings(measures)
	return append(dims, measures...)
}
