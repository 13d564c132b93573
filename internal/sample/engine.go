// Package sample provides an in-memory implementation of the aggregation,
// distinct-values, and pathway services over a Parquet claims fixture. It
// backs the CLI's offline mode and the test suites; the production services
// run server-side and are out of scope here.
package sample

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/gyeh/claimscope/internal/catalog"
	"github.com/gyeh/claimscope/internal/query"
	"github.com/gyeh/claimscope/internal/remote"
)

const keySep = "\x1f"

// Engine answers aggregation queries from rows held in memory.
type Engine struct {
	rows []ClaimLine
	log  zerolog.Logger
}

// NewEngine wraps a row slice. Rows missing a setting are classified from
// their procedure code on the way in, so every query path sees a setting and
// dictionary gaps get logged once at load rather than per query.
func NewEngine(rows []ClaimLine, log zerolog.Logger) *Engine {
	for i := range rows {
		rows[i].Setting = catalog.ClassifySetting(log, rows[i].Code, rows[i].Setting)
		// Rows without a pathway pairing have no adjacent claim to classify.
		if rows[i].PathwayDirection != "" {
			rows[i].AdjacentSetting = catalog.ClassifySetting(log, rows[i].AdjacentCode, rows[i].AdjacentSetting)
		}
	}
	return &Engine{rows: rows, log: log}
}

// Load reads a Parquet fixture into an Engine.
func Load(path string, log zerolog.Logger) (*Engine, error) {
	rows, err := ReadAll(path)
	if err != nil {
		return nil, err
	}
	log.Info().Str("file", path).Int("rows", len(rows)).Msg("sample fixture loaded")
	return NewEngine(rows, log), nil
}

// MaxDate returns the newest service month in the fixture, for seeding the
// default window.
func (e *Engine) MaxDate() time.Time {
	newest := ""
	for i := range e.rows {
		if e.rows[i].ServiceMonth > newest {
			newest = e.rows[i].ServiceMonth
		}
	}
	if newest == "" {
		return time.Now().UTC()
	}
	t, err := time.Parse("2006-01", newest)
	if err != nil {
		return time.Now().UTC()
	}
	return t
}

// Aggregate implements the aggregation service over the fixture.
func (e *Engine) Aggregate(ctx context.Context, req remote.AggregateRequest) ([]remote.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	match := func(r *ClaimLine) bool {
		return matchIdentifiers(r, req.Identifiers, req.IdentifierRole) &&
			matchFilters(r, req.Filters, true) &&
			matchFilters(r, req.ExcludeFilters, false) &&
			matchSearch(r, req.GroupBy, req.Search)
	}
	return e.groupRows(req.GroupBy, req.Limit, match), nil
}

// Pathway implements the pathway service: only rows paired in the requested
// direction participate.
func (e *Engine) Pathway(ctx context.Context, req remote.PathwayRequest) ([]remote.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	match := func(r *ClaimLine) bool {
		return r.PathwayDirection == req.Direction &&
			matchFilters(r, req.Filters, true) &&
			matchFilters(r, req.ExcludeFilters, false)
	}
	return e.groupRows(req.GroupBy, req.Limit, match), nil
}

// DistinctValues implements the distinct-values service.
func (e *Engine) DistinctValues(ctx context.Context, req remote.DistinctRequest) (map[string][]remote.ValueCount, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make(map[string][]remote.ValueCount, len(req.Columns))
	for _, col := range req.Columns {
		counts := map[string]int64{}
		for i := range e.rows {
			r := &e.rows[i]
			if !matchIdentifiers(r, req.Identifiers, req.IdentifierRole) {
				continue
			}
			if !matchFilters(r, req.ExistingFilters, true) {
				continue
			}
			if !matchFilters(r, req.ExcludeFilters, false) {
				continue
			}
			if v, ok := dimValue(r, col); ok && v != "" {
				counts[v]++
			}
		}
		out[col] = sortedCounts(counts, req.Limit)
	}
	return out, nil
}

// PathwayDistinct implements the pathway distinct-values service.
func (e *Engine) PathwayDistinct(ctx context.Context, req remote.PathwayDistinctRequest) ([]remote.ValueCount, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	counts := map[string]int64{}
	for i := range e.rows {
		r := &e.rows[i]
		if r.PathwayDirection != req.Direction {
			continue
		}
		if !matchFilters(r, req.Filters, true) {
			continue
		}
		if v, ok := dimValue(r, req.Column); ok && v != "" {
			counts[v]++
		}
	}
	return sortedCounts(counts, req.Limit), nil
}

// groupRows groups matching rows by the given columns and sums the two
// fixed measures, ordered by claim lines descending.
func (e *Engine) groupRows(groupBy []string, limit int, match func(*ClaimLine) bool) []remote.Row {
	type agg struct {
		values []string
		lines  int64
		cents  int64
	}
	groups := map[string]*agg{}
	for i := range e.rows {
		r := &e.rows[i]
		if !match(r) {
			continue
		}
		values := make([]string, len(groupBy))
		for j, col := range groupBy {
			values[j], _ = dimValue(r, col)
		}
		key := strings.Join(values, keySep)
		g, ok := groups[key]
		if !ok {
			g = &agg{values: values}
			groups[key] = g
		}
		g.lines += r.ClaimLineCount
		g.cents += r.LineChargeCents
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := groups[keys[i]], groups[keys[j]]
		if a.lines != b.lines {
			return a.lines > b.lines
		}
		return keys[i] < keys[j]
	})
	if limit > 0 && len(keys) > limit {
		keys = keys[:limit]
	}

	out := make([]remote.Row, 0, len(keys))
	for _, k := range keys {
		g := groups[k]
		row := remote.Row{}
		for j, col := range groupBy {
			row[col] = g.values[j]
		}
		row[catalog.MeasureClaimLines] = g.lines
		row[catalog.MeasureChargeCents] = g.cents
		out = append(out, row)
	}
	return out
}

// matchIdentifiers checks the row's role identifier against the scope set.
// An empty set means no scope restriction.
func matchIdentifiers(r *ClaimLine, ids []string, role string) bool {
	if len(ids) == 0 {
		return true
	}
	id := roleIdentifier(r, role)
	for _, want := range ids {
		if id == want {
			return true
		}
	}
	return false
}

// matchFilters evaluates a filter map; include=false inverts each match
// (NOT IN semantics).
func matchFilters(r *ClaimLine, filters map[string]query.FilterValue, include bool) bool {
	for fieldID, fv := range filters {
		v, ok := dimValue(r, fieldID)
		if !ok {
			continue
		}
		matched := matchValue(fieldID, v, fv)
		if include && !matched {
			return false
		}
		if !include && matched {
			return false
		}
	}
	return true
}

// matchValue applies one filter value. A month-grain scalar containing a
// comma is an inclusive range ("2024-07,2025-06"); YYYY-MM compares
// correctly as text.
func matchValue(fieldID, v string, fv query.FilterValue) bool {
	if fv.Kind == query.FilterScalar {
		if fieldID == catalog.DateMonthGrain && strings.Contains(fv.Value, ",") {
			parts := strings.SplitN(fv.Value, ",", 2)
			return v >= parts[0] && v <= parts[1]
		}
		return v == fv.Value
	}
	for _, want := range fv.Values {
		if v == want {
			return true
		}
	}
	return false
}

// matchSearch applies the free-text result search across the group-by
// column values, case-insensitively.
func matchSearch(r *ClaimLine, groupBy []string, search string) bool {
	if search == "" {
		return true
	}
	needle := strings.ToLower(search)
	for _, col := range groupBy {
		if v, ok := dimValue(r, col); ok && strings.Contains(strings.ToLower(v), needle) {
			return true
		}
	}
	return false
}

func sortedCounts(counts map[string]int64, limit int) []remote.ValueCount {
	out := make([]remote.ValueCount, 0, len(counts))
	for v, c := range counts {
		out = append(out, remote.ValueCount{Value: v, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
