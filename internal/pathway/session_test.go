package pathway

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/gyeh/claimscope/internal/catalog"
	"github.com/gyeh/claimscope/internal/query"
	"github.com/gyeh/claimscope/internal/remote"
)

// fakePathwaySvc records every request and replays canned answers.
type fakePathwaySvc struct {
	mu        sync.Mutex
	requests  []remote.PathwayRequest
	distincts []remote.PathwayDistinctRequest
	rows      []remote.Row
	err       error
}

func (f *fakePathwaySvc) Pathway(ctx context.Context, req remote.PathwayRequest) ([]remote.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return f.rows, f.err
}

func (f *fakePathwaySvc) PathwayDistinct(ctx context.Context, req remote.PathwayDistinctRequest) ([]remote.ValueCount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.distincts = append(f.distincts, req)
	return []remote.ValueCount{{Value: "Primary Care", Count: 7}}, nil
}

func (f *fakePathwaySvc) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *fakePathwaySvc) lastRequest(t *testing.T) remote.PathwayRequest {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		t.Fatal("no pathway request issued")
	}
	return f.requests[len(f.requests)-1]
}

func upstreamSeed() Seed {
	return Seed{
		Direction: catalog.Upstream,
		RowPins: map[string]query.FilterValue{
			"billing_provider_name": query.Set("Acme Clinic"),
		},
		MainInclude: map[string]query.FilterValue{
			"payer_name": query.Set("Medicare"),
		},
		MainExclude: map[string]query.FilterValue{
			"setting": query.Set("emergency"),
		},
	}
}

func TestOpen_SeedsDefaultsAndFetches(t *testing.T) {
	svc := &fakePathwaySvc{rows: []remote.Row{{"adjacent_service_line": "Primary Care"}}}
	s := NewSession(svc, zerolog.Nop())

	if err := s.Open(context.Background(), upstreamSeed()); err != nil {
		t.Fatal(err)
	}
	if s.Phase() != PhaseReady {
		t.Fatalf("phase = %s, want ready", s.Phase())
	}
	gb := s.GroupBy()
	want := catalog.DefaultPathwayGroupBy(catalog.Upstream)
	if len(gb) != len(want) || gb[0] != want[0] || gb[1] != want[1] {
		t.Errorf("group by = %v, want direction default %v", gb, want)
	}
	if len(s.Rows()) != 1 {
		t.Errorf("rows = %v", s.Rows())
	}
}

func TestOpen_InvalidDirection(t *testing.T) {
	s := NewSession(&fakePathwaySvc{}, zerolog.Nop())
	if err := s.Open(context.Background(), Seed{Direction: "sideways"}); err == nil {
		t.Fatal("expected error for invalid direction")
	}
	if s.Phase() != PhaseClosed {
		t.Errorf("phase = %s, want closed", s.Phase())
	}
}

func TestMergedFilters_PinBeatsMainFilter(t *testing.T) {
	svc := &fakePathwaySvc{}
	s := NewSession(svc, zerolog.Nop())

	seed := upstreamSeed()
	// The main query filters billing_provider_name to a different set than
	// the clicked row's pin; the pin must win.
	seed.MainInclude["billing_provider_name"] = query.Set("Riverbend Medical Group")

	if err := s.Open(context.Background(), seed); err != nil {
		t.Fatal(err)
	}

	req := svc.lastRequest(t)
	got := req.Filters["billing_provider_name"]
	if got.Kind != query.FilterSet || len(got.Values) != 1 || got.Values[0] != "Acme Clinic" {
		t.Errorf("pinned field filter = %+v, row pin must win", got)
	}
	if payer := req.Filters["payer_name"]; !payer.Equal(query.Set("Medicare")) {
		t.Errorf("main include filter not forwarded: %+v", payer)
	}
	if excl := req.ExcludeFilters["setting"]; !excl.Equal(query.Set("emergency")) {
		t.Errorf("main exclude filter not forwarded: %+v", excl)
	}
}

func TestMergedFilters_PinSuppressesExcludeOnSameField(t *testing.T) {
	svc := &fakePathwaySvc{}
	s := NewSession(svc, zerolog.Nop())

	seed := upstreamSeed()
	seed.MainExclude["billing_provider_name"] = query.Set("Acme Clinic")

	if err := s.Open(context.Background(), seed); err != nil {
		t.Fatal(err)
	}

	req := svc.lastRequest(t)
	if _, ok := req.ExcludeFilters["billing_provider_name"]; ok {
		t.Error("exclusion on the pinned field must be dropped, or the pin matches nothing")
	}
	if got := req.Filters["billing_provider_name"]; !got.Equal(query.Set("Acme Clinic")) {
		t.Errorf("pin = %+v", got)
	}
}

func TestToggleField_DoesNotRefetch(t *testing.T) {
	svc := &fakePathwaySvc{}
	s := NewSession(svc, zerolog.Nop())
	if err := s.Open(context.Background(), upstreamSeed()); err != nil {
		t.Fatal(err)
	}
	before := svc.fetchCount()

	if err := s.ToggleField("adjacent_facility_name"); err != nil {
		t.Fatal(err)
	}
	if err := s.ToggleField("adjacent_service_line"); err != nil {
		t.Fatal(err)
	}
	if svc.fetchCount() != before {
		t.Fatalf("group-by edits refetched: %d calls, want %d", svc.fetchCount(), before)
	}

	if err := s.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	req := svc.lastRequest(t)
	want := []string{"adjacent_provider_specialty", "adjacent_facility_name"}
	if len(req.GroupBy) != 2 || req.GroupBy[0] != want[0] || req.GroupBy[1] != want[1] {
		t.Errorf("group by after edits = %v, want %v", req.GroupBy, want)
	}
}

func TestToggleField_UnknownField(t *testing.T) {
	s := NewSession(&fakePathwaySvc{}, zerolog.Nop())
	if err := s.Open(context.Background(), upstreamSeed()); err != nil {
		t.Fatal(err)
	}
	if err := s.ToggleField("service_line"); err == nil {
		t.Error("main-catalog field must be rejected in the pathway view")
	}
}

func TestApplyPreset_RefetchesImmediately(t *testing.T) {
	svc := &fakePathwaySvc{}
	s := NewSession(svc, zerolog.Nop())
	if err := s.Open(context.Background(), upstreamSeed()); err != nil {
		t.Fatal(err)
	}
	before := svc.fetchCount()

	if err := s.ApplyPreset(context.Background(), "Referral sources"); err != nil {
		t.Fatal(err)
	}
	if svc.fetchCount() != before+1 {
		t.Fatalf("preset did not refetch: %d calls", svc.fetchCount())
	}
	req := svc.lastRequest(t)
	if len(req.GroupBy) != 2 || req.GroupBy[0] != "adjacent_provider_name" {
		t.Errorf("preset group by = %v", req.GroupBy)
	}

	if err := s.ApplyPreset(context.Background(), "No such view"); err == nil {
		t.Error("unknown preset must error")
	}
}

func TestSetFilter_RefetchesAndRemoveWaits(t *testing.T) {
	svc := &fakePathwaySvc{}
	s := NewSession(svc, zerolog.Nop())
	if err := s.Open(context.Background(), upstreamSeed()); err != nil {
		t.Fatal(err)
	}
	before := svc.fetchCount()

	if err := s.SetFilter(context.Background(), "adjacent_setting", query.Set("office")); err != nil {
		t.Fatal(err)
	}
	if svc.fetchCount() != before+1 {
		t.Fatalf("SetFilter did not refetch")
	}
	if got := svc.lastRequest(t).Filters["adjacent_setting"]; !got.Equal(query.Set("office")) {
		t.Errorf("local filter not sent: %+v", got)
	}

	s.RemoveFilter("adjacent_setting")
	s.ClearFilters()
	if svc.fetchCount() != before+1 {
		t.Fatal("filter removal refetched before an explicit refresh")
	}
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, ok := svc.lastRequest(t).Filters["adjacent_setting"]; ok {
		t.Error("removed filter still sent after refresh")
	}
}

func TestFilterOptions_OmitsOwnField(t *testing.T) {
	svc := &fakePathwaySvc{}
	s := NewSession(svc, zerolog.Nop())
	if err := s.Open(context.Background(), upstreamSeed()); err != nil {
		t.Fatal(err)
	}
	if err := s.SetFilter(context.Background(), "adjacent_setting", query.Set("office")); err != nil {
		t.Fatal(err)
	}

	opts, err := s.FilterOptions(context.Background(), "adjacent_setting")
	if err != nil {
		t.Fatal(err)
	}
	if len(opts) != 1 {
		t.Fatalf("options = %v", opts)
	}
	req := svc.distincts[len(svc.distincts)-1]
	if req.Column != "adjacent_setting" || req.Direction != string(catalog.Upstream) {
		t.Errorf("distinct request = %+v", req)
	}
	if _, ok := req.Filters["adjacent_setting"]; ok {
		t.Error("option list narrowed by the field's own current value")
	}
	if _, ok := req.Filters["billing_provider_name"]; !ok {
		t.Error("row pin missing from option narrowing")
	}
}

func TestClose_DiscardsEverything(t *testing.T) {
	svc := &fakePathwaySvc{rows: []remote.Row{{"adjacent_service_line": "Imaging"}}}
	s := NewSession(svc, zerolog.Nop())
	if err := s.Open(context.Background(), upstreamSeed()); err != nil {
		t.Fatal(err)
	}
	if err := s.SetFilter(context.Background(), "adjacent_setting", query.Set("office")); err != nil {
		t.Fatal(err)
	}

	s.Close()
	if s.Phase() != PhaseClosed {
		t.Fatalf("phase = %s", s.Phase())
	}
	if len(s.Rows()) != 0 || len(s.Filters()) != 0 || len(s.GroupBy()) != 0 {
		t.Error("closed session retained state")
	}
	if err := s.Refresh(context.Background()); err == nil {
		t.Error("refresh on a closed session must error")
	}

	// A fresh open after close starts from the direction default again.
	if err := s.Open(context.Background(), upstreamSeed()); err != nil {
		t.Fatal(err)
	}
	gb := s.GroupBy()
	if gb[0] != "adjacent_service_line" {
		t.Errorf("group by after reopen = %v", gb)
	}
}

func TestReopen_KeepsCustomizedGroupBy(t *testing.T) {
	svc := &fakePathwaySvc{}
	s := NewSession(svc, zerolog.Nop())
	if err := s.Open(context.Background(), upstreamSeed()); err != nil {
		t.Fatal(err)
	}
	if err := s.ToggleField("adjacent_facility_name"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetFilter(context.Background(), "adjacent_setting", query.Set("office")); err != nil {
		t.Fatal(err)
	}

	// Re-seed from another row while the view is open: the customized
	// group-by survives, the local filters do not.
	seed2 := upstreamSeed()
	seed2.RowPins = map[string]query.FilterValue{
		"billing_provider_name": query.Set("Summit Cardiology"),
	}
	if err := s.Open(context.Background(), seed2); err != nil {
		t.Fatal(err)
	}

	gb := s.GroupBy()
	found := false
	for _, g := range gb {
		if g == "adjacent_facility_name" {
			found = true
		}
	}
	if !found {
		t.Errorf("customized group by lost on re-seed: %v", gb)
	}
	if len(s.Filters()) != 0 {
		t.Errorf("local filters survived re-seed: %v", s.Filters())
	}
	if got := svc.lastRequest(t).Filters["billing_provider_name"]; !got.Equal(query.Set("Summit Cardiology")) {
		t.Errorf("new seed pin not applied: %+v", got)
	}
}

func TestRefetch_FailureKeepsViewOpen(t *testing.T) {
	svc := &fakePathwaySvc{err: errors.New("upstream 500")}
	s := NewSession(svc, zerolog.Nop())

	if err := s.Open(context.Background(), upstreamSeed()); err == nil {
		t.Fatal("expected fetch error")
	}
	if s.Phase() != PhaseFailed {
		t.Fatalf("phase = %s, want failed", s.Phase())
	}
	if s.Err() == nil {
		t.Error("inline error missing")
	}

	// Retry succeeds and clears the error.
	svc.mu.Lock()
	svc.err = nil
	svc.rows = []remote.Row{{"adjacent_service_line": "Lab"}}
	svc.mu.Unlock()
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	if s.Phase() != PhaseReady || s.Err() != nil {
		t.Errorf("phase = %s err = %v after retry", s.Phase(), s.Err())
	}
}

func TestSeedFromRow(t *testing.T) {
	d, err := time.Parse("2006-01-02", "2025-06-15")
	if err != nil {
		t.Fatal(err)
	}
	st := query.New(d).
		AddColumn("billing_provider_name").
		AddColumn("service_line").
		AddFilter("payer_name", query.Set("Medicare"))
	row := remote.Row{
		"billing_provider_name":       "Acme Clinic",
		"service_line":                "Cardiology",
		catalog.MeasureClaimLines:     int64(120),
		"column_not_in_the_group_by":  "ignored",
	}

	seed := SeedFromRow(st, row, catalog.Downstream)
	if seed.Direction != catalog.Downstream {
		t.Errorf("direction = %s", seed.Direction)
	}
	if len(seed.RowPins) != 2 {
		t.Fatalf("pins = %v, want one per displayed column", seed.RowPins)
	}
	if got := seed.RowPins["billing_provider_name"]; !got.Equal(query.Set("Acme Clinic")) {
		t.Errorf("pin = %+v", got)
	}
	if _, ok := seed.MainInclude["payer_name"]; !ok {
		t.Error("main filters not snapshotted")
	}
}
