package query

import (
	"fmt"

	"github.com/gyeh/claimscope/internal/catalog"
)

// CellClick drills into a result cell: the clicked field leaves the GROUP BY
// set and its value is pinned as a one-element include filter. The returned
// bool is false when the click was a no-op (measure column), in which case
// the caller must not refetch. Clicking the same field again is idempotent:
// the column stays removed and the filter is overwritten, not duplicated.
func (s State) CellClick(fieldID string, value any) (State, bool) {
	if catalog.IsMeasure(fieldID) {
		return s, false
	}
	out := s.RemoveColumn(fieldID).Clone()
	// Pinning replaces any prior filter on the field, on either side.
	delete(out.Exclude, fieldID)
	out.Include[fieldID] = Set(fmt.Sprint(value))
	return out, true
}

// CellRightClick is the exclusion counterpart of CellClick: the value is
// pinned as a NOT-IN filter instead.
func (s State) CellRightClick(fieldID string, value any) (State, bool) {
	if catalog.IsMeasure(fieldID) {
		return s, false
	}
	out := s.RemoveColumn(fieldID).Clone()
	delete(out.Include, fieldID)
	out.Exclude[fieldID] = Set(fmt.Sprint(value))
	return out, true
}
