package catalog

// InputKind determines how a filter editor sources values for a field.
type InputKind string

const (
	// Enumerated fields populate their filter editor from a distinct-values
	// query against the current scope.
	Enumerated InputKind = "enumerated"
	// FreeText fields accept raw text. Used for identifier-like columns
	// (NPIs, codes, years) where enumeration is too large or a comma can be
	// part of a legitimate value.
	FreeText InputKind = "freeText"
)

// Field describes one queryable dimension column of the claims fact table.
type Field struct {
	ID    string // column name sent to the aggregation service
	Label string // display label
	Kind  InputKind
	Group string // picker grouping, e.g. "Provider"
}

// Measure aliases returned by every aggregation request. These are not
// dimension fields and can never be grouped, filtered, or drilled into.
const (
	MeasureClaimLines  = "total_claim_lines"
	MeasureChargeCents = "total_charge_cents"
)

// Aggregate source columns behind the two fixed measures.
const (
	ClaimLineCountColumn = "claim_line_count"
	LineChargeColumn     = "line_charge_cents"
)

// DateMonthGrain is the month-window dimension that carries the default
// last-12-months filter seeded at load.
const DateMonthGrain = "date__month_grain"

// AllFields lists the claims dimension catalog in display order.
var AllFields = []Field{
	{ID: "billing_provider_name", Label: "Billing Provider", Kind: Enumerated, Group: "Provider"},
	{ID: "billing_provider_npi", Label: "Billing NPI", Kind: FreeText, Group: "Provider"},
	{ID: "performing_provider_name", Label: "Performing Provider", Kind: Enumerated, Group: "Provider"},
	{ID: "performing_provider_npi", Label: "Performing NPI", Kind: FreeText, Group: "Provider"},
	{ID: "referring_provider_npi", Label: "Referring NPI", Kind: FreeText, Group: "Provider"},
	{ID: "provider_specialty", Label: "Provider Specialty", Kind: Enumerated, Group: "Provider"},
	{ID: "facility_name", Label: "Facility", Kind: Enumerated, Group: "Facility"},
	{ID: "facility_ccn", Label: "Facility CCN", Kind: FreeText, Group: "Facility"},
	{ID: "facility_type", Label: "Facility Type", Kind: Enumerated, Group: "Facility"},
	{ID: "service_location_state", Label: "Service State", Kind: Enumerated, Group: "Facility"},
	{ID: "service_location_county", Label: "Service County", Kind: Enumerated, Group: "Facility"},
	{ID: "service_line", Label: "Service Line", Kind: Enumerated, Group: "Service"},
	{ID: "sub_service_line", Label: "Sub-Service Line", Kind: Enumerated, Group: "Service"},
	{ID: "place_of_service", Label: "Place of Service", Kind: Enumerated, Group: "Service"},
	{ID: "setting", Label: "Setting", Kind: Enumerated, Group: "Service"},
	{ID: "code", Label: "Procedure Code", Kind: FreeText, Group: "Codes"},
	{ID: "code_description", Label: "Code Description", Kind: Enumerated, Group: "Codes"},
	{ID: "code_system", Label: "Code System", Kind: Enumerated, Group: "Codes"},
	{ID: "diagnosis_code", Label: "Diagnosis Code", Kind: FreeText, Group: "Codes"},
	{ID: "payer_name", Label: "Payer", Kind: Enumerated, Group: "Payer"},
	{ID: "payer_type", Label: "Payer Type", Kind: Enumerated, Group: "Payer"},
	{ID: "patient_state", Label: "Patient State", Kind: Enumerated, Group: "Patient"},
	{ID: "patient_age_band", Label: "Patient Age Band", Kind: Enumerated, Group: "Patient"},
	{ID: DateMonthGrain, Label: "Month Window", Kind: FreeText, Group: "Time"},
	{ID: "date__year_grain", Label: "Year", Kind: FreeText, Group: "Time"},
}

// FieldByID returns the Field for the given column id, or ok=false.
func FieldByID(id string) (Field, bool) {
	for _, f := range AllFields {
		if f.ID == id {
			return f, true
		}
	}
	return Field{}, false
}

// IsMeasure reports whether the given column is one of the two fixed
// aggregate measures rather than a dimension.
func IsMeasure(id string) bool {
	return id == MeasureClaimLines || id == MeasureChargeCents
}

// Groups returns the distinct picker groups of a field catalog in catalog
// order.
func Groups(fields []Field) []string {
	seen := map[string]bool{}
	var out []string
	for _, f := range fields {
		if !seen[f.Group] {
			seen[f.Group] = true
			out = append(out, f.Group)
		}
	}
	return out
}
