// mkfixture generates a synthetic claims Parquet fixture for offline mode
// and the test suites. Values are drawn from small fixed pools with a
// seeded RNG so fixtures are reproducible.
// Usage: go run ./cmd/mkfixture --out testdata/claims-small.parquet --rows 2000
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"

	goparquet "github.com/parquet-go/parquet-go"

	"github.com/gyeh/claimscope/internal/sample"
)

var (
	providers = []struct{ name, npi, specialty string }{
		{"Acme Clinic", "1003000126", "Family Medicine"},
		{"Riverbend Medical Group", "1013000224", "Internal Medicine"},
		{"Lakeside Orthopedics", "1023000322", "Orthopedic Surgery"},
		{"Summit Cardiology", "1033000420", "Cardiology"},
		{"Prairie Oncology Partners", "1043000528", "Oncology"},
		{"Harborview Imaging", "1053000626", "Radiology"},
	}
	facilities = []struct{ name, ccn, ftype, state, county string }{
		{"St. Mary General Hospital", "140001", "Short Term Acute Care", "IL", "Cook"},
		{"Northside Surgical Center", "140102", "Ambulatory Surgical Center", "IL", "Cook"},
		{"Eastlake Community Hospital", "140203", "Short Term Acute Care", "IN", "Lake"},
		{"Westfield Rehab Institute", "143304", "Rehabilitation", "IL", "DuPage"},
	}
	serviceLines = map[string][]string{
		"Cardiology":   {"Electrophysiology", "Interventional"},
		"Orthopedics":  {"Joint Replacement", "Spine"},
		"Oncology":     {"Medical Oncology", "Radiation Oncology"},
		"Imaging":      {"MRI", "CT"},
		"Primary Care": {"Office Visits", "Preventive"},
	}
	lineNames = []string{"Cardiology", "Orthopedics", "Oncology", "Imaging", "Primary Care"}
	codes     = map[string][]string{
		"Cardiology":   {"93000", "92928", "93306"},
		"Orthopedics":  {"27447", "29881", "22612"},
		"Oncology":     {"96413", "77385", "J9271"},
		"Imaging":      {"70553", "74177", "71275"},
		"Primary Care": {"99213", "99214", "99396"},
	}
	payers   = []struct{ name, ptype string }{{"Medicare", "Medicare"}, {"BlueCross", "Commercial"}, {"Aetna", "Commercial"}, {"Medicaid", "Medicaid"}}
	settings = []string{"office", "inpatient", "outpatient", "emergency"}
	ageBands = []string{"0-17", "18-44", "45-64", "65+"}
	offsets  = []string{"1-7 days", "8-30 days", "31-90 days"}
	months   = []string{"2024-07", "2024-08", "2024-09", "2024-10", "2024-11", "2024-12", "2025-01", "2025-02", "2025-03", "2025-04", "2025-05", "2025-06"}
	adjLines = []string{"Primary Care", "Imaging", "Physical Therapy", "Lab", "Cardiology"}
	adjCodes = []string{"99213", "97110", "80053", "70553", "93000"}
	adjTypes = []string{"Short Term Acute Care", "Ambulatory Surgical Center", "Independent Lab"}
)

func main() {
	out := flag.String("out", "testdata/claims-small.parquet", "output parquet path")
	rows := flag.Int("rows", 2000, "rows to generate")
	seed := flag.Int64("seed", 1, "rng seed")
	flag.Parse()

	rng := rand.New(rand.NewSource(*seed))
	lines := make([]sample.ClaimLine, 0, *rows)
	for i := 0; i < *rows; i++ {
		lines = append(lines, makeLine(rng, i))
	}

	f, err := os.Create(*out)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create output: %v\n", err)
		os.Exit(1)
	}
	w := goparquet.NewGenericWriter[sample.ClaimLine](f)
	if _, err := w.Write(lines); err != nil {
		fmt.Fprintf(os.Stderr, "write parquet: %v\n", err)
		os.Exit(1)
	}
	if err := w.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "close writer: %v\n", err)
		os.Exit(1)
	}
	if err := f.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "close file: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("wrote %d rows to %s\n", len(lines), *out)
}

func makeLine(rng *rand.Rand, i int) sample.ClaimLine {
	prov := providers[rng.Intn(len(providers))]
	perf := providers[rng.Intn(len(providers))]
	fac := facilities[rng.Intn(len(facilities))]
	line := lineNames[rng.Intn(len(lineNames))]
	subs := serviceLines[line]
	payer := payers[rng.Intn(len(payers))]
	code := codes[line][rng.Intn(len(codes[line]))]
	adj := providers[rng.Intn(len(providers))]

	direction := "downstream"
	if i%2 == 0 {
		direction = "upstream"
	}
	month := months[rng.Intn(len(months))]

	return sample.ClaimLine{
		BillingProviderName:    prov.name,
		BillingProviderNPI:     prov.npi,
		PerformingProviderName: perf.name,
		PerformingProviderNPI:  perf.npi,
		ReferringProviderNPI:   providers[rng.Intn(len(providers))].npi,
		ProviderSpecialty:      perf.specialty,

		FacilityName:          fac.name,
		FacilityCCN:           fac.ccn,
		FacilityType:          fac.ftype,
		ServiceLocationState:  fac.state,
		ServiceLocationCounty: fac.county,

		ServiceLine:    line,
		SubServiceLine: subs[rng.Intn(len(subs))],
		PlaceOfService: fmt.Sprintf("%02d", 11+rng.Intn(12)),
		Setting:        settings[rng.Intn(len(settings))],

		Code:            code,
		CodeDescription: fmt.Sprintf("%s procedure %s", line, code),
		CodeSystem:      "HCPCS",
		DiagnosisCode:   fmt.Sprintf("I%02d.%d", rng.Intn(70), rng.Intn(9)),

		PayerName: payer.name,
		PayerType: payer.ptype,

		PatientState:   fac.state,
		PatientAgeBand: ageBands[rng.Intn(len(ageBands))],

		ServiceMonth: month,
		ServiceYear:  month[:4],

		ClaimLineCount:  int64(1 + rng.Intn(40)),
		LineChargeCents: int64(2500 + rng.Intn(2_000_000)),

		PathwayDirection:          direction,
		AdjacentServiceLine:       adjLines[rng.Intn(len(adjLines))],
		AdjacentSubServiceLine:    "General",
		AdjacentCode:              adjCodes[rng.Intn(len(adjCodes))],
		AdjacentSetting:           settings[rng.Intn(len(settings))],
		AdjacentProviderName:      adj.name,
		AdjacentProviderNPI:       adj.npi,
		AdjacentProviderSpecialty: adj.specialty,
		AdjacentFacilityName:      facilities[rng.Intn(len(facilities))].name,
		AdjacentFacilityType:      adjTypes[rng.Intn(len(adjTypes))],
		DaysOffsetBand:            offsets[rng.Intn(len(offsets))],
	}
}
