// Package fetch issues aggregation requests for a query state and owns the
// displayed result. It guarantees that only the most recent request's
// response is ever applied: every run takes a monotonic sequence number,
// cancels the previous in-flight request, and a response is dropped if a
// newer run has started since it was issued.
package fetch

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gyeh/claimscope/internal/catalog"
	"github.com/gyeh/claimscope/internal/query"
	"github.com/gyeh/claimscope/internal/remote"
	"github.com/gyeh/claimscope/internal/scope"
)

// Status is the lifecycle of the displayed result.
type Status string

const (
	StatusIdle    Status = "idle"    // no query run yet
	StatusLoading Status = "loading" // request in flight
	StatusReady   Status = "ready"   // rows present (possibly zero)
	StatusError   Status = "error"   // request failed; rows cleared
)

// Result is the consolidated displayed state. Ready with an empty non-nil
// Rows slice is an explicit empty result, distinct from Idle.
type Result struct {
	Status  Status
	Rows    []remote.Row
	Err     error
	Message string // user-facing note, e.g. empty-scope explanation
	Timing  time.Duration
	Seq     uint64
}

// AggregationService runs a grouped aggregation query.
type AggregationService interface {
	Aggregate(ctx context.Context, req remote.AggregateRequest) ([]remote.Row, error)
}

// ScopeResolver resolves a query scope to an identifier set.
type ScopeResolver interface {
	Resolve(ctx context.Context, sc query.Scope) (scope.IDSet, error)
}

// Controller sequences aggregation fetches. Safe for concurrent use.
type Controller struct {
	svc      AggregationService
	resolver ScopeResolver
	log      zerolog.Logger

	mu       sync.Mutex
	seq      uint64
	cancel   context.CancelFunc
	result   Result
	onUpdate func(Result)
}

// NewController builds a Controller with an Idle result.
func NewController(svc AggregationService, resolver ScopeResolver, log zerolog.Logger) *Controller {
	return &Controller{
		svc:      svc,
		resolver: resolver,
		log:      log,
		result:   Result{Status: StatusIdle},
	}
}

// OnUpdate registers a callback invoked whenever the result changes. The
// callback runs outside the controller's lock, so it may call back into the
// controller (e.g. Result) freely.
func (c *Controller) OnUpdate(fn func(Result)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUpdate = fn
}

// Result returns the current displayed result.
func (c *Controller) Result() Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result
}

// Abort cancels any outstanding request without starting a new one, for
// scope/context switches and teardown. The cancelled request will not
// clobber the result.
func (c *Controller) Abort() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++ // orphan any in-flight response
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

// Run resolves the scope, issues the aggregation request for st, and blocks
// until it settles. The returned Result is the controller's state as of this
// run settling; if a newer run superseded this one, the newer state wins and
// this run's response is discarded.
func (c *Controller) Run(ctx context.Context, st query.State) Result {
	runCtx, my := c.begin(ctx)
	start := time.Now()

	ids, err := c.resolver.Resolve(runCtx, st.Scope)
	if err != nil {
		return c.settle(my, err)
	}

	if ids.Empty() {
		// Explicit empty fast path: a chosen scope with no identifiers
		// must return zero rows, never the full data set.
		return c.apply(my, Result{
			Status:  StatusReady,
			Rows:    []remote.Row{},
			Message: "no identifiers for this scope",
			Timing:  time.Since(start),
		})
	}

	req := BuildRequest(st, ids)
	rows, err := c.svc.Aggregate(runCtx, req)
	if err != nil {
		return c.settle(my, err)
	}
	if rows == nil {
		rows = []remote.Row{}
	}
	return c.apply(my, Result{Status: StatusReady, Rows: rows, Timing: time.Since(start)})
}

// begin allocates a sequence number, cancels the previous request, and
// publishes the loading state.
func (c *Controller) begin(ctx context.Context) (context.Context, uint64) {
	c.mu.Lock()
	c.seq++
	my := c.seq
	if c.cancel != nil {
		c.cancel()
	}
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.result = Result{Status: StatusLoading, Seq: my}
	fn, r := c.onUpdate, c.result
	c.mu.Unlock()

	if fn != nil {
		fn(r)
	}
	return runCtx, my
}

// settle routes an error outcome: cancellation leaves the newer run's state
// untouched, a real failure clears rows and surfaces the error.
func (c *Controller) settle(my uint64, err error) Result {
	if remote.IsCanceled(err) {
		c.log.Debug().Uint64("seq", my).Msg("request superseded")
		return c.Result()
	}
	return c.apply(my, Result{Status: StatusError, Err: err})
}

// apply installs r if this run is still the latest; otherwise it is a stale
// response and the current (newer) result is returned unchanged. The update
// callback is invoked after the lock is released.
func (c *Controller) apply(my uint64, r Result) Result {
	c.mu.Lock()
	if my != c.seq {
		c.log.Debug().Uint64("seq", my).Uint64("latest", c.seq).Msg("dropping stale response")
		cur := c.result
		c.mu.Unlock()
		return cur
	}
	r.Seq = my
	c.result = r
	c.cancel = nil
	fn := c.onUpdate
	c.mu.Unlock()

	if fn != nil {
		fn(r)
	}
	return r
}

// Aggregates is the fixed measure pair computed for every request.
func Aggregates() []remote.AggregateSpec {
	return []remote.AggregateSpec{
		{Fn: "sum", Column: catalog.ClaimLineCountColumn, Alias: catalog.MeasureClaimLines},
		{Fn: "sum", Column: catalog.LineChargeColumn, Alias: catalog.MeasureChargeCents},
	}
}

// BuildRequest serializes a query state and resolved scope into the
// aggregation service's request body. The state is read-only input; nothing
// here reinterprets filters.
func BuildRequest(st query.State, ids scope.IDSet) remote.AggregateRequest {
	req := remote.AggregateRequest{
		RequestID:      uuid.NewString(),
		GroupBy:        append([]string(nil), st.Columns...),
		Aggregates:     Aggregates(),
		Filters:        st.Include,
		ExcludeFilters: st.Exclude,
		Search:         st.Search,
		Limit:          st.Limit,
	}
	if ids.Chosen {
		req.Identifiers = ids.IDs
		req.IdentifierRole = string(st.Role)
	}
	return req
}
