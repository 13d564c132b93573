package query

import (
	"time"

	"github.com/gyeh/claimscope/internal/catalog"
)

// DefaultLimit caps returned rows unless the caller overrides it.
const DefaultLimit = 100

// State is the complete configuration of one investigation query. All
// mutating operations are value-semantic: they return a new State and leave
// the receiver untouched, so a fetch issued against an older State can never
// observe a later mutation.
type State struct {
	// Columns is the ordered GROUP BY set; insertion order is display order.
	Columns []string
	// Include maps field id → filter value. Disjoint from Exclude.
	Include map[string]FilterValue
	// Exclude maps field id → NOT-IN filter value. Disjoint from Include.
	Exclude map[string]FilterValue
	// Search is applied server-side across the selected Columns.
	Search string
	// Limit caps returned rows.
	Limit int
	// Scope restricts the query to an identifier set.
	Scope Scope
	// Role selects which identifier column Scope matches against.
	Role IdentifierRole

	// defaultWindow is the month-range value seeded at construction and
	// restored by ClearAll without another metadata fetch.
	defaultWindow string
}

// New builds the initial State for a given server-reported max-available
// date: empty except for the default last-12-months window filter.
func New(maxDate time.Time) State {
	window := catalog.DefaultWindow(maxDate)
	return State{
		Include:       map[string]FilterValue{catalog.DateMonthGrain: Scalar(window)},
		Exclude:       map[string]FilterValue{},
		Limit:         DefaultLimit,
		Scope:         NoScope(),
		Role:          RoleBilling,
		defaultWindow: window,
	}
}

// Clone returns a deep copy.
func (s State) Clone() State {
	out := s
	out.Columns = append([]string(nil), s.Columns...)
	out.Include = cloneFilters(s.Include)
	out.Exclude = cloneFilters(s.Exclude)
	out.Scope = s.Scope.Clone()
	return out
}

// HasColumn reports whether the field is currently a GROUP BY column.
func (s State) HasColumn(fieldID string) bool {
	for _, c := range s.Columns {
		if c == fieldID {
			return true
		}
	}
	return false
}

// AddColumn appends a GROUP BY column. Adding a column that is already
// present, or a measure alias, is a no-op.
func (s State) AddColumn(fieldID string) State {
	if catalog.IsMeasure(fieldID) || s.HasColumn(fieldID) {
		return s
	}
	out := s.Clone()
	out.Columns = append(out.Columns, fieldID)
	return out
}

// RemoveColumn removes a GROUP BY column if present.
func (s State) RemoveColumn(fieldID string) State {
	if !s.HasColumn(fieldID) {
		return s
	}
	out := s.Clone()
	cols := out.Columns[:0]
	for _, c := range out.Columns {
		if c != fieldID {
			cols = append(cols, c)
		}
	}
	out.Columns = cols
	return out
}

// AddFilter sets a filter value for a field. If the field already carries an
// exclusion filter the exclusion's value is updated in place (the filter
// keeps its polarity); otherwise the value lands in Include, replacing any
// previous include value. Calling twice with the same value is idempotent.
func (s State) AddFilter(fieldID string, v FilterValue) State {
	out := s.Clone()
	if _, ok := out.Exclude[fieldID]; ok {
		out.Exclude[fieldID] = v.Clone()
		return out
	}
	out.Include[fieldID] = v.Clone()
	return out
}

// RemoveFilter deletes the field's filter from whichever side holds it.
func (s State) RemoveFilter(fieldID string) State {
	_, inc := s.Include[fieldID]
	_, exc := s.Exclude[fieldID]
	if !inc && !exc {
		return s
	}
	out := s.Clone()
	delete(out.Include, fieldID)
	delete(out.Exclude, fieldID)
	return out
}

// ToggleFilter moves a filter between Include and Exclude, preserving its
// value. No-op if the field has no filter. Applying it twice restores the
// original placement.
func (s State) ToggleFilter(fieldID string) State {
	if v, ok := s.Include[fieldID]; ok {
		out := s.Clone()
		delete(out.Include, fieldID)
		out.Exclude[fieldID] = v.Clone()
		return out
	}
	if v, ok := s.Exclude[fieldID]; ok {
		out := s.Clone()
		delete(out.Exclude, fieldID)
		out.Include[fieldID] = v.Clone()
		return out
	}
	return s
}

// SetScope replaces the active scope. Scope is a single value, so selecting
// a market necessarily clears a previously selected tag or CCN list.
func (s State) SetScope(scope Scope) State {
	out := s.Clone()
	out.Scope = scope.Clone()
	return out
}

// SetRole selects the identifier column the scope matches against.
func (s State) SetRole(role IdentifierRole) State {
	out := s.Clone()
	out.Role = role
	return out
}

// SetSearch sets the server-side result search string.
func (s State) SetSearch(search string) State {
	out := s.Clone()
	out.Search = search
	return out
}

// SetLimit sets the row cap; non-positive values are ignored.
func (s State) SetLimit(limit int) State {
	if limit <= 0 {
		return s
	}
	out := s.Clone()
	out.Limit = limit
	return out
}

// ClearAll resets columns, exclusions, scope, and search, and restores
// Include to exactly the default month-window filter. The window value is
// the one computed at construction, not re-fetched.
func (s State) ClearAll() State {
	out := s.Clone()
	out.Columns = nil
	out.Include = map[string]FilterValue{catalog.DateMonthGrain: Scalar(s.defaultWindow)}
	out.Exclude = map[string]FilterValue{}
	out.Search = ""
	out.Scope = NoScope()
	return out
}
