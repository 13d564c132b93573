package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/gyeh/claimscope/internal/catalog"
	"github.com/gyeh/claimscope/internal/export"
	"github.com/gyeh/claimscope/internal/remote"
)

// printRows renders result rows as an aligned table: group-by columns in
// their display order, measures last.
func printRows(groupBy []string, rows []remote.Row) {
	if len(rows) == 0 {
		fmt.Println("(no rows)")
		return
	}

	header := append([]string(nil), groupBy...)
	// Pick up any extra dimension keys the service returned.
	seen := map[string]bool{}
	for _, h := range header {
		seen[h] = true
	}
	var extra []string
	for k := range rows[0] {
		if !seen[k] && !catalog.IsMeasure(k) {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	header = append(header, extra...)
	header = append(header, catalog.MeasureClaimLines, catalog.MeasureChargeCents)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(header, "\t"))
	for _, row := range rows {
		cells := make([]string, len(header))
		for i, col := range header {
			if v, ok := row[col]; ok && v != nil {
				cells[i] = fmt.Sprint(v)
			}
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	w.Flush()
}

// writeCSVFile writes rows to path via the export package.
func writeCSVFile(path string, rows []remote.Row) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := export.WriteCSV(f, rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
