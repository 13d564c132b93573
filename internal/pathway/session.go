// Package pathway runs the upstream/downstream patient-pathway sub-query
// spawned from a result row. A Session is the state machine behind one
// pathway view: it is seeded from the clicked row and the main query's
// filters, carries its own group-by set and local filters, and is discarded
// wholesale on close.
package pathway

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gyeh/claimscope/internal/catalog"
	"github.com/gyeh/claimscope/internal/fetch"
	"github.com/gyeh/claimscope/internal/query"
	"github.com/gyeh/claimscope/internal/remote"
)

// Phase is the session lifecycle.
type Phase string

const (
	PhaseClosed  Phase = "closed"
	PhaseLoading Phase = "loading"
	PhaseReady   Phase = "ready"
	PhaseFailed  Phase = "failed" // view stays open; user can retry
)

// DefaultLimit caps pathway result rows.
const DefaultLimit = 50

// Service runs pathway aggregations and distinct-value lookups.
type Service interface {
	Pathway(ctx context.Context, req remote.PathwayRequest) ([]remote.Row, error)
	PathwayDistinct(ctx context.Context, req remote.PathwayDistinctRequest) ([]remote.ValueCount, error)
}

// Seed is the context a pathway session is opened with: the clicked row's
// column values pinned as filters plus a snapshot of the main query's
// filters at click time.
type Seed struct {
	Direction   catalog.Direction
	RowPins     map[string]query.FilterValue
	MainInclude map[string]query.FilterValue
	MainExclude map[string]query.FilterValue
}

// SeedFromRow builds a Seed from the main query state and a clicked result
// row. Each current column's cell value becomes a one-element pin.
func SeedFromRow(st query.State, row remote.Row, dir catalog.Direction) Seed {
	pins := make(map[string]query.FilterValue, len(st.Columns))
	for _, col := range st.Columns {
		if v, ok := row[col]; ok {
			pins[col] = query.Set(fmt.Sprint(v))
		}
	}
	snap := st.Clone()
	return Seed{
		Direction:   dir,
		RowPins:     pins,
		MainInclude: snap.Include,
		MainExclude: snap.Exclude,
	}
}

// Session is one open pathway view. Not safe for use from multiple
// goroutines except that an in-flight fetch superseded by a newer action is
// dropped via the same sequencing discipline as the main fetch controller.
type Session struct {
	svc Service
	log zerolog.Logger

	mu         sync.Mutex
	seq        uint64
	cancel     context.CancelFunc
	phase      Phase
	seed       Seed
	groupBy    []string
	customized bool
	filters    map[string]query.FilterValue
	rows       []remote.Row
	err        error
	limit      int
}

// NewSession builds a closed session.
func NewSession(svc Service, log zerolog.Logger) *Session {
	return &Session{
		svc:   svc,
		log:   log,
		phase: PhaseClosed,
		limit: DefaultLimit,
	}
}

// Phase returns the current lifecycle phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Rows returns the current result rows.
func (s *Session) Rows() []remote.Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rows
}

// Err returns the inline error shown when the phase is failed.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// GroupBy returns the active group-by set.
func (s *Session) GroupBy() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.groupBy...)
}

// Filters returns the pathway-local filters.
func (s *Session) Filters() map[string]query.FilterValue {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]query.FilterValue, len(s.filters))
	for k, v := range s.filters {
		out[k] = v.Clone()
	}
	return out
}

// Open seeds the session from a row and direction and fetches immediately.
// Opening from closed starts with the direction's default group-by; while
// already open, a user-customized group-by survives re-seeding from another
// row. Pathway-local filters never survive a re-seed.
func (s *Session) Open(ctx context.Context, seed Seed) error {
	if !seed.Direction.Valid() {
		return fmt.Errorf("invalid pathway direction %q", seed.Direction)
	}
	s.mu.Lock()
	keepGroupBy := s.phase != PhaseClosed && s.customized
	s.seed = seed
	if !keepGroupBy {
		s.groupBy = catalog.DefaultPathwayGroupBy(seed.Direction)
		s.customized = false
	}
	s.filters = map[string]query.FilterValue{}
	s.mu.Unlock()

	return s.refetch(ctx)
}

// ToggleField adds or removes a group-by field. It does not refetch; the
// caller triggers Refresh explicitly once the set is assembled.
func (s *Session) ToggleField(fieldID string) error {
	if _, ok := catalog.PathwayFieldByID(fieldID); !ok {
		return fmt.Errorf("unknown pathway field %q", fieldID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == PhaseClosed {
		return fmt.Errorf("pathway view is closed")
	}
	for i, g := range s.groupBy {
		if g == fieldID {
			s.groupBy = append(s.groupBy[:i], s.groupBy[i+1:]...)
			s.customized = true
			return nil
		}
	}
	s.groupBy = append(s.groupBy, fieldID)
	s.customized = true
	return nil
}

// ApplyPreset switches to a named preset view and refetches immediately.
func (s *Session) ApplyPreset(ctx context.Context, name string) error {
	s.mu.Lock()
	if s.phase == PhaseClosed {
		s.mu.Unlock()
		return fmt.Errorf("pathway view is closed")
	}
	var found *catalog.PathwayPreset
	for _, p := range catalog.PathwayPresets(s.seed.Direction) {
		if p.Name == name {
			found = &p
			break
		}
	}
	if found == nil {
		s.mu.Unlock()
		return fmt.Errorf("unknown pathway preset %q", name)
	}
	s.groupBy = append([]string(nil), found.GroupBy...)
	s.customized = true
	s.mu.Unlock()

	return s.refetch(ctx)
}

// FilterOptions fetches the distinct values for a pathway field, narrowed by
// the seed context and the filters already applied.
func (s *Session) FilterOptions(ctx context.Context, fieldID string) ([]remote.ValueCount, error) {
	if _, ok := catalog.PathwayFieldByID(fieldID); !ok {
		return nil, fmt.Errorf("unknown pathway field %q", fieldID)
	}
	s.mu.Lock()
	if s.phase == PhaseClosed {
		s.mu.Unlock()
		return nil, fmt.Errorf("pathway view is closed")
	}
	req := remote.PathwayDistinctRequest{
		Direction: string(s.seed.Direction),
		Column:    fieldID,
		Filters:   s.mergedFiltersLocked(fieldID),
		Limit:     s.limit,
	}
	s.mu.Unlock()

	return s.svc.PathwayDistinct(ctx, req)
}

// SetFilter commits a pathway-local filter value and refetches.
func (s *Session) SetFilter(ctx context.Context, fieldID string, v query.FilterValue) error {
	s.mu.Lock()
	if s.phase == PhaseClosed {
		s.mu.Unlock()
		return fmt.Errorf("pathway view is closed")
	}
	s.filters[fieldID] = v.Clone()
	s.mu.Unlock()

	return s.refetch(ctx)
}

// RemoveFilter drops a pathway-local filter. Like ToggleField this does not
// refetch; the query is expensive, so removal waits for an explicit Refresh.
func (s *Session) RemoveFilter(fieldID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.filters, fieldID)
}

// ClearFilters drops all pathway-local filters without refetching.
func (s *Session) ClearFilters() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters = map[string]query.FilterValue{}
}

// Refresh re-issues the sub-query with the current group-by and filters.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	closed := s.phase == PhaseClosed
	s.mu.Unlock()
	if closed {
		return fmt.Errorf("pathway view is closed")
	}
	return s.refetch(ctx)
}

// Close discards all pathway-local state and aborts any in-flight fetch.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.phase = PhaseClosed
	s.seed = Seed{}
	s.groupBy = nil
	s.customized = false
	s.filters = nil
	s.rows = nil
	s.err = nil
}

// refetch issues the pathway aggregation with latest-wins sequencing.
func (s *Session) refetch(ctx context.Context) error {
	s.mu.Lock()
	s.seq++
	my := s.seq
	if s.cancel != nil {
		s.cancel()
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.phase = PhaseLoading
	req := remote.PathwayRequest{
		RequestID:      uuid.NewString(),
		Direction:      string(s.seed.Direction),
		GroupBy:        append([]string(nil), s.groupBy...),
		Aggregates:     fetch.Aggregates(),
		Filters:        s.mergedFiltersLocked(""),
		ExcludeFilters: s.excludesLocked(),
		Limit:          s.limit,
	}
	s.mu.Unlock()

	start := time.Now()
	rows, err := s.svc.Pathway(runCtx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	if my != s.seq {
		// A newer action superseded this fetch.
		return nil
	}
	s.cancel = nil
	if err != nil {
		if remote.IsCanceled(err) {
			return nil
		}
		s.phase = PhaseFailed
		s.err = err
		s.rows = nil
		return err
	}
	if rows == nil {
		rows = []remote.Row{}
	}
	s.phase = PhaseReady
	s.err = nil
	s.rows = rows
	s.log.Debug().
		Str("direction", string(s.seed.Direction)).
		Int("rows", len(rows)).
		Dur("duration", time.Since(start)).
		Msg("pathway query complete")
	return nil
}

// mergedFiltersLocked unions pathway-local filters, the main query's include
// filters, and the row-context pins, in ascending precedence: a row pin
// defines which aggregate row was drilled into and always wins for its
// field. When omit is non-empty that field is left out (so a field's own
// option list is not narrowed by its current value).
func (s *Session) mergedFiltersLocked(omit string) map[string]query.FilterValue {
	out := map[string]query.FilterValue{}
	for k, v := range s.filters {
		out[k] = v.Clone()
	}
	for k, v := range s.seed.MainInclude {
		out[k] = v.Clone()
	}
	for k, v := range s.seed.RowPins {
		out[k] = v.Clone()
	}
	if omit != "" {
		delete(out, omit)
	}
	return out
}

// excludesLocked forwards the main query's exclusions, minus any field the
// row context pins (a pin overrides every other filter on its field).
func (s *Session) excludesLocked() map[string]query.FilterValue {
	out := map[string]query.FilterValue{}
	for k, v := range s.seed.MainExclude {
		if _, pinned := s.seed.RowPins[k]; pinned {
			continue
		}
		out[k] = v.Clone()
	}
	return out
}
