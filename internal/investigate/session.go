// Package investigate coordinates one claims investigation: it owns the
// query state, drives the fetch controller on every mutation, serves filter
// options through the shared cache, and spawns pathway sessions from result
// rows.
package investigate

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/gyeh/claimscope/internal/catalog"
	"github.com/gyeh/claimscope/internal/fetch"
	"github.com/gyeh/claimscope/internal/optioncache"
	"github.com/gyeh/claimscope/internal/pathway"
	"github.com/gyeh/claimscope/internal/query"
	"github.com/gyeh/claimscope/internal/remote"
)

// ErrFreeTextField signals that a field's filter editor takes raw text and
// has no distinct-value list to offer.
var ErrFreeTextField = errors.New("field takes free text")

// DistinctService returns distinct values for dimension columns.
type DistinctService interface {
	DistinctValues(ctx context.Context, req remote.DistinctRequest) (map[string][]remote.ValueCount, error)
}

// Session ties the query state to the fetch controller. Every state
// mutation refetches with the post-mutation state, so the displayed result
// can never belong to a configuration the user has since changed.
type Session struct {
	ctrl     *fetch.Controller
	cache    *optioncache.Cache
	distinct DistinctService
	resolver fetch.ScopeResolver
	pathSvc  pathway.Service
	log      zerolog.Logger

	mu    sync.Mutex
	state query.State
}

// NewSession builds a Session around an initial state.
func NewSession(
	initial query.State,
	ctrl *fetch.Controller,
	cache *optioncache.Cache,
	distinct DistinctService,
	resolver fetch.ScopeResolver,
	pathSvc pathway.Service,
	log zerolog.Logger,
) *Session {
	return &Session{
		ctrl:     ctrl,
		cache:    cache,
		distinct: distinct,
		resolver: resolver,
		pathSvc:  pathSvc,
		log:      log,
		state:    initial.Clone(),
	}
}

// State returns a copy of the current query state.
func (s *Session) State() query.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Result returns the current displayed result.
func (s *Session) Result() fetch.Result {
	return s.ctrl.Result()
}

// mutate swaps in the next state and refetches with it.
func (s *Session) mutate(ctx context.Context, next query.State) fetch.Result {
	s.mu.Lock()
	s.state = next
	s.mu.Unlock()
	return s.ctrl.Run(ctx, next)
}

// AddColumn appends a GROUP BY column and refetches.
func (s *Session) AddColumn(ctx context.Context, fieldID string) fetch.Result {
	return s.mutate(ctx, s.State().AddColumn(fieldID))
}

// RemoveColumn removes a GROUP BY column and refetches.
func (s *Session) RemoveColumn(ctx context.Context, fieldID string) fetch.Result {
	return s.mutate(ctx, s.State().RemoveColumn(fieldID))
}

// AddFilter commits a filter value and refetches.
func (s *Session) AddFilter(ctx context.Context, fieldID string, v query.FilterValue) fetch.Result {
	return s.mutate(ctx, s.State().AddFilter(fieldID, v))
}

// RemoveFilter drops a filter and refetches.
func (s *Session) RemoveFilter(ctx context.Context, fieldID string) fetch.Result {
	return s.mutate(ctx, s.State().RemoveFilter(fieldID))
}

// ToggleFilter flips a filter between include and exclude and refetches.
func (s *Session) ToggleFilter(ctx context.Context, fieldID string) fetch.Result {
	return s.mutate(ctx, s.State().ToggleFilter(fieldID))
}

// SetSearch updates the result search string and refetches.
func (s *Session) SetSearch(ctx context.Context, search string) fetch.Result {
	return s.mutate(ctx, s.State().SetSearch(search))
}

// SetLimit updates the row cap and refetches.
func (s *Session) SetLimit(ctx context.Context, limit int) fetch.Result {
	return s.mutate(ctx, s.State().SetLimit(limit))
}

// SetScope switches the active scope. Outstanding requests are aborted and
// the option cache is cleared so distinct-value lists from the previous
// scope are never shown.
func (s *Session) SetScope(ctx context.Context, sc query.Scope) fetch.Result {
	s.ctrl.Abort()
	s.cache.Clear()
	return s.mutate(ctx, s.State().SetScope(sc))
}

// SetRole switches the identifier role the scope matches against.
func (s *Session) SetRole(ctx context.Context, role query.IdentifierRole) fetch.Result {
	return s.mutate(ctx, s.State().SetRole(role))
}

// ClearAll resets the state to its default (columns gone, default month
// window restored) and refetches.
func (s *Session) ClearAll(ctx context.Context) fetch.Result {
	s.cache.Clear()
	return s.mutate(ctx, s.State().ClearAll())
}

// ClickCell drills into a dimension cell and refetches immediately with the
// drilled state. Clicks on measure columns do nothing.
func (s *Session) ClickCell(ctx context.Context, fieldID string, value any) fetch.Result {
	next, ok := s.State().CellClick(fieldID, value)
	if !ok {
		return s.ctrl.Result()
	}
	return s.mutate(ctx, next)
}

// RightClickCell pins a cell value as an exclusion and refetches.
func (s *Session) RightClickCell(ctx context.Context, fieldID string, value any) fetch.Result {
	next, ok := s.State().CellRightClick(fieldID, value)
	if !ok {
		return s.ctrl.Result()
	}
	return s.mutate(ctx, next)
}

// FilterOptions returns the distinct values for an enumerated field,
// narrowed by the current scope and every other applied filter. Results are
// served from the shared cache. Free-text fields return ErrFreeTextField;
// callers degrade to a raw text editor on any error here.
func (s *Session) FilterOptions(ctx context.Context, fieldID string) ([]remote.ValueCount, error) {
	f, ok := catalog.FieldByID(fieldID)
	if !ok {
		return nil, fmt.Errorf("unknown field %q", fieldID)
	}
	if f.Kind == catalog.FreeText {
		return nil, ErrFreeTextField
	}

	st := s.State()
	ids, err := s.resolver.Resolve(ctx, st.Scope)
	if err != nil {
		return nil, fmt.Errorf("resolve scope: %w", err)
	}
	if ids.Empty() {
		return []remote.ValueCount{}, nil
	}

	// Narrow by every other applied filter, on both sides, so the option
	// list matches the context it will be applied in.
	existing := make(map[string]query.FilterValue, len(st.Include))
	for k, v := range st.Include {
		if k != fieldID {
			existing[k] = v
		}
	}
	excludes := make(map[string]query.FilterValue, len(st.Exclude))
	for k, v := range st.Exclude {
		if k != fieldID {
			excludes[k] = v
		}
	}

	req := remote.DistinctRequest{
		Columns:         []string{fieldID},
		Limit:           200,
		ExistingFilters: existing,
		ExcludeFilters:  excludes,
	}
	if ids.Chosen {
		req.Identifiers = ids.IDs
		req.IdentifierRole = string(st.Role)
	}

	key := optioncache.Key("/api/claims/distinct", req)
	return s.cache.Get(ctx, key, func(ctx context.Context) ([]remote.ValueCount, error) {
		byField, err := s.distinct.DistinctValues(ctx, req)
		if err != nil {
			return nil, err
		}
		return byField[fieldID], nil
	})
}

// OpenPathway spawns a pathway session seeded from a result row and the
// current filters, and runs its first fetch.
func (s *Session) OpenPathway(ctx context.Context, row remote.Row, dir catalog.Direction) (*pathway.Session, error) {
	seed := pathway.SeedFromRow(s.State(), row, dir)
	ps := pathway.NewSession(s.pathSvc, s.log)
	if err := ps.Open(ctx, seed); err != nil {
		return ps, err
	}
	return ps, nil
}

// Shutdown aborts any outstanding fetch; called when the view unmounts.
func (s *Session) Shutdown() {
	s.ctrl.Abort()
}
