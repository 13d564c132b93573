package query

import (
	"testing"
	"time"

	"github.com/gyeh/claimscope/internal/catalog"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("parse date %q: %v", s, err)
	}
	return d
}

func TestNew_DefaultWindow(t *testing.T) {
	st := New(mustDate(t, "2025-06-15"))

	v, ok := st.Include[catalog.DateMonthGrain]
	if !ok {
		t.Fatal("expected default month-grain filter")
	}
	if v.Kind != FilterScalar || v.Value != "2024-07,2025-06" {
		t.Errorf("default window = %+v, want scalar 2024-07,2025-06", v)
	}
	if len(st.Columns) != 0 || len(st.Exclude) != 0 {
		t.Errorf("new state should have no columns or exclusions")
	}
	if st.Scope.Kind != ScopeNone {
		t.Errorf("new state scope = %s, want none", st.Scope.Kind)
	}
}

func TestAddColumn_NoDuplicates(t *testing.T) {
	st := New(mustDate(t, "2025-06-15")).
		AddColumn("service_line").
		AddColumn("payer_name").
		AddColumn("service_line")

	if len(st.Columns) != 2 {
		t.Fatalf("columns = %v, want 2 entries", st.Columns)
	}
	if st.Columns[0] != "service_line" || st.Columns[1] != "payer_name" {
		t.Errorf("column order = %v", st.Columns)
	}
}

func TestAddColumn_MeasureIgnored(t *testing.T) {
	st := New(mustDate(t, "2025-06-15")).AddColumn(catalog.MeasureClaimLines)
	if len(st.Columns) != 0 {
		t.Errorf("measure must not become a column: %v", st.Columns)
	}
}

func TestAddFilter_Idempotent(t *testing.T) {
	base := New(mustDate(t, "2025-06-15"))
	once := base.AddFilter("code", Set("99213"))
	twice := once.AddFilter("code", Set("99213"))

	if len(once.Include) != len(twice.Include) {
		t.Fatalf("repeat AddFilter changed filter count: %d vs %d", len(once.Include), len(twice.Include))
	}
	if !once.Include["code"].Equal(twice.Include["code"]) {
		t.Errorf("repeat AddFilter changed value")
	}
}

func TestAddFilter_UpdatesExcludeInPlace(t *testing.T) {
	st := New(mustDate(t, "2025-06-15")).
		AddFilter("code", Set("99213")).
		ToggleFilter("code").
		AddFilter("code", Set("99214"))

	if _, ok := st.Include["code"]; ok {
		t.Fatal("editing an exclusion must not move it to include")
	}
	if got := st.Exclude["code"]; !got.Equal(Set("99214")) {
		t.Errorf("exclude value = %+v, want [99214]", got)
	}
}

func TestToggleFilter_IsOwnInverse(t *testing.T) {
	base := New(mustDate(t, "2025-06-15")).AddFilter("code", Set("99213"))
	toggled := base.ToggleFilter("code")
	back := toggled.ToggleFilter("code")

	if _, ok := toggled.Include["code"]; ok {
		t.Fatal("toggle left filter in include")
	}
	if got := toggled.Exclude["code"]; !got.Equal(Set("99213")) {
		t.Errorf("toggled exclude = %+v", got)
	}
	if got := back.Include["code"]; !got.Equal(Set("99213")) {
		t.Errorf("double toggle include = %+v, want original", got)
	}
	if _, ok := back.Exclude["code"]; ok {
		t.Error("double toggle left filter in exclude")
	}
}

func TestFilterSidesAlwaysDisjoint(t *testing.T) {
	st := New(mustDate(t, "2025-06-15"))
	ops := []func(State) State{
		func(s State) State { return s.AddFilter("code", Set("99213")) },
		func(s State) State { return s.ToggleFilter("code") },
		func(s State) State { return s.AddFilter("payer_name", Scalar("Medicare")) },
		func(s State) State { return s.ToggleFilter("payer_name") },
		func(s State) State { return s.ToggleFilter("code") },
		func(s State) State { s2, _ := s.CellClick("payer_name", "Aetna"); return s2 },
		func(s State) State { s2, _ := s.CellRightClick("code", "99214"); return s2 },
		func(s State) State { return s.RemoveFilter("payer_name") },
	}
	for i, op := range ops {
		st = op(st)
		for k := range st.Include {
			if _, dup := st.Exclude[k]; dup {
				t.Fatalf("after op %d, field %q present in both include and exclude", i, k)
			}
		}
	}
}

func TestSetScope_MutuallyExclusive(t *testing.T) {
	st := New(mustDate(t, "2025-06-15")).
		SetScope(MarketScope("mkt-1")).
		SetScope(TagScope("team-9", "competitors"))

	if st.Scope.Kind != ScopeTag {
		t.Fatalf("scope kind = %s, want tag", st.Scope.Kind)
	}
	if st.Scope.MarketID != "" {
		t.Errorf("market id survived scope switch: %q", st.Scope.MarketID)
	}
}

func TestClearAll_RestoresDefaultWindow(t *testing.T) {
	st := New(mustDate(t, "2025-06-15")).
		AddColumn("service_line").
		AddFilter("code", Set("99213")).
		ToggleFilter("code").
		AddFilter("payer_name", Scalar("Medicare")).
		SetSearch("acme").
		SetScope(CCNScope([]string{"140001"})).
		ClearAll()

	if len(st.Columns) != 0 {
		t.Errorf("columns = %v, want empty", st.Columns)
	}
	if len(st.Exclude) != 0 {
		t.Errorf("exclude = %v, want empty", st.Exclude)
	}
	if st.Search != "" || st.Scope.Kind != ScopeNone {
		t.Errorf("search/scope not reset: %q %s", st.Search, st.Scope.Kind)
	}
	if len(st.Include) != 1 {
		t.Fatalf("include = %v, want only the default window", st.Include)
	}
	if got := st.Include[catalog.DateMonthGrain]; got.Value != "2024-07,2025-06" {
		t.Errorf("default window = %+v", got)
	}
}

func TestOperationsDoNotMutateReceiver(t *testing.T) {
	base := New(mustDate(t, "2025-06-15")).AddColumn("service_line")
	snapshot := base.Clone()

	_ = base.AddColumn("payer_name")
	_ = base.RemoveColumn("service_line")
	_ = base.AddFilter("code", Set("99213"))
	_, _ = base.CellClick("service_line", "Cardiology")

	if len(base.Columns) != len(snapshot.Columns) || base.Columns[0] != snapshot.Columns[0] {
		t.Errorf("receiver columns mutated: %v", base.Columns)
	}
	if len(base.Include) != len(snapshot.Include) {
		t.Errorf("receiver filters mutated: %v", base.Include)
	}
}
