package sample

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/rs/zerolog"

	"github.com/gyeh/claimscope/internal/catalog"
	"github.com/gyeh/claimscope/internal/query"
	"github.com/gyeh/claimscope/internal/remote"
)

func fixtureRows() []ClaimLine {
	return []ClaimLine{
		{
			BillingProviderName: "Acme Clinic", BillingProviderNPI: "1003000126",
			PerformingProviderNPI: "1013000224",
			ServiceLine:           "Cardiology", Setting: "office",
			PayerName: "Medicare", Code: "93000",
			ServiceMonth: "2024-08", ServiceYear: "2024",
			ClaimLineCount: 10, LineChargeCents: 50_000,
			PathwayDirection: "upstream", AdjacentServiceLine: "Primary Care",
		},
		{
			BillingProviderName: "Acme Clinic", BillingProviderNPI: "1003000126",
			PerformingProviderNPI: "1013000224",
			ServiceLine:           "Cardiology", Setting: "inpatient",
			PayerName: "Aetna", Code: "92928",
			ServiceMonth: "2025-03", ServiceYear: "2025",
			ClaimLineCount: 4, LineChargeCents: 900_000,
			PathwayDirection: "downstream", AdjacentServiceLine: "Imaging",
		},
		{
			BillingProviderName: "Riverbend Medical Group", BillingProviderNPI: "1013000224",
			PerformingProviderNPI: "1003000126",
			ServiceLine:           "Imaging", Setting: "outpatient",
			PayerName: "Medicare", Code: "70553",
			ServiceMonth: "2023-11", ServiceYear: "2023",
			ClaimLineCount: 7, LineChargeCents: 120_000,
			PathwayDirection: "upstream", AdjacentServiceLine: "Primary Care",
		},
	}
}

func testEngine() *Engine {
	return NewEngine(fixtureRows(), zerolog.Nop())
}

func TestAggregate_GroupsAndSums(t *testing.T) {
	rows, err := testEngine().Aggregate(context.Background(), remote.AggregateRequest{
		GroupBy: []string{"service_line"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %v", rows)
	}
	// Ordered by claim lines descending: Cardiology 14, Imaging 7.
	if rows[0]["service_line"] != "Cardiology" {
		t.Errorf("first group = %v", rows[0])
	}
	if rows[0][catalog.MeasureClaimLines] != int64(14) {
		t.Errorf("claim lines = %v", rows[0][catalog.MeasureClaimLines])
	}
	if rows[0][catalog.MeasureChargeCents] != int64(950_000) {
		t.Errorf("charge cents = %v", rows[0][catalog.MeasureChargeCents])
	}
}

func TestAggregate_IncludeAndExcludeFilters(t *testing.T) {
	rows, err := testEngine().Aggregate(context.Background(), remote.AggregateRequest{
		GroupBy: []string{"payer_name"},
		Filters: map[string]query.FilterValue{
			"service_line": query.Set("Cardiology"),
		},
		ExcludeFilters: map[string]query.FilterValue{
			"setting": query.Set("inpatient"),
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0]["payer_name"] != "Medicare" {
		t.Fatalf("rows = %v, want only the office cardiology line", rows)
	}
}

func TestAggregate_MonthRange(t *testing.T) {
	rows, err := testEngine().Aggregate(context.Background(), remote.AggregateRequest{
		GroupBy: []string{"service_line"},
		Filters: map[string]query.FilterValue{
			catalog.DateMonthGrain: query.Scalar("2024-07,2025-06"),
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	// The 2023-11 Imaging row falls outside the window.
	if len(rows) != 1 || rows[0]["service_line"] != "Cardiology" {
		t.Fatalf("rows = %v", rows)
	}
}

func TestAggregate_ScopeIdentifiers(t *testing.T) {
	rows, err := testEngine().Aggregate(context.Background(), remote.AggregateRequest{
		GroupBy:        []string{"billing_provider_name"},
		Identifiers:    []string{"1013000224"},
		IdentifierRole: "billing",
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0]["billing_provider_name"] != "Riverbend Medical Group" {
		t.Fatalf("rows = %v", rows)
	}

	// Same identifier under the performing role selects the other provider.
	rows, err = testEngine().Aggregate(context.Background(), remote.AggregateRequest{
		GroupBy:        []string{"billing_provider_name"},
		Identifiers:    []string{"1013000224"},
		IdentifierRole: "performing",
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0]["billing_provider_name"] != "Acme Clinic" {
		t.Fatalf("rows = %v", rows)
	}
}

func TestAggregate_Search(t *testing.T) {
	rows, err := testEngine().Aggregate(context.Background(), remote.AggregateRequest{
		GroupBy: []string{"billing_provider_name", "service_line"},
		Search:  "riverbend",
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0]["billing_provider_name"] != "Riverbend Medical Group" {
		t.Fatalf("rows = %v, search must be case-insensitive", rows)
	}
}

func TestAggregate_Limit(t *testing.T) {
	rows, err := testEngine().Aggregate(context.Background(), remote.AggregateRequest{
		GroupBy: []string{"code"},
		Limit:   2,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want limit applied", len(rows))
	}
}

func TestPathway_FiltersByDirection(t *testing.T) {
	rows, err := testEngine().Pathway(context.Background(), remote.PathwayRequest{
		Direction: "upstream",
		GroupBy:   []string{"adjacent_service_line"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0]["adjacent_service_line"] != "Primary Care" {
		t.Fatalf("rows = %v", rows)
	}
	if rows[0][catalog.MeasureClaimLines] != int64(17) {
		t.Errorf("claim lines = %v", rows[0][catalog.MeasureClaimLines])
	}
}

func TestDistinctValues(t *testing.T) {
	out, err := testEngine().DistinctValues(context.Background(), remote.DistinctRequest{
		Columns: []string{"payer_name"},
		ExistingFilters: map[string]query.FilterValue{
			"service_line": query.Set("Cardiology"),
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	vals := out["payer_name"]
	if len(vals) != 2 {
		t.Fatalf("values = %v", vals)
	}
	// Ordered by count descending; both payers have one cardiology row each,
	// so the tie breaks alphabetically.
	if vals[0].Value != "Aetna" || vals[1].Value != "Medicare" {
		t.Errorf("values = %v", vals)
	}
}

func TestDistinctValues_ExcludeFilters(t *testing.T) {
	out, err := testEngine().DistinctValues(context.Background(), remote.DistinctRequest{
		Columns: []string{"payer_name"},
		ExcludeFilters: map[string]query.FilterValue{
			"setting": query.Set("inpatient"),
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, v := range out["payer_name"] {
		if v.Value == "Aetna" {
			t.Errorf("values = %v, the excluded inpatient row's payer must not appear", out["payer_name"])
		}
	}
	if len(out["payer_name"]) != 1 || out["payer_name"][0].Value != "Medicare" {
		t.Errorf("values = %v", out["payer_name"])
	}
}

func TestPathwayDistinct(t *testing.T) {
	vals, err := testEngine().PathwayDistinct(context.Background(), remote.PathwayDistinctRequest{
		Direction: "upstream",
		Column:    "adjacent_service_line",
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(vals) != 1 || vals[0].Value != "Primary Care" || vals[0].Count != 2 {
		t.Fatalf("values = %v", vals)
	}
}

func TestMaxDate(t *testing.T) {
	d := testEngine().MaxDate()
	if d.Format("2006-01") != "2025-03" {
		t.Errorf("max date = %s", d)
	}
}

func TestParquetRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "claims.parquet")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	w := parquet.NewGenericWriter[ClaimLine](f)
	if _, err := w.Write(fixtureRows()); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	eng, err := Load(path, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	rows, err := eng.Aggregate(context.Background(), remote.AggregateRequest{
		GroupBy: []string{"service_line"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %v", rows)
	}
}

func TestNewEngine_ClassifiesMissingSettings(t *testing.T) {
	rows := []ClaimLine{
		{ServiceLine: "Primary Care", Code: "99284", Setting: "", ClaimLineCount: 1,
			PathwayDirection: "upstream", AdjacentCode: "J9271", AdjacentSetting: ""},
		{ServiceLine: "Primary Care", Code: "99213", Setting: "office", ClaimLineCount: 1},
	}
	eng := NewEngine(rows, zerolog.Nop())

	out, err := eng.Aggregate(context.Background(), remote.AggregateRequest{GroupBy: []string{"setting"}})
	if err != nil {
		t.Fatal(err)
	}
	got := map[string]bool{}
	for _, r := range out {
		got[r["setting"].(string)] = true
	}
	if !got["emergency"] {
		t.Errorf("groups = %v, 99284 with no setting must classify as emergency", out)
	}
	if !got["office"] {
		t.Errorf("groups = %v, dictionary setting must pass through untouched", out)
	}

	vals, err := eng.PathwayDistinct(context.Background(), remote.PathwayDistinctRequest{
		Direction: "upstream",
		Column:    "adjacent_setting",
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(vals) != 1 || vals[0].Value != "pharmacy" {
		t.Errorf("adjacent settings = %v, J9271 must classify as pharmacy", vals)
	}
}

func TestAggregate_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := testEngine().Aggregate(ctx, remote.AggregateRequest{GroupBy: []string{"code"}}); err == nil {
		t.Error("canceled context must error")
	}
}
