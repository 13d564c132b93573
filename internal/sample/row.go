package sample

// ClaimLine mirrors the Parquet schema of the sample claims fixture: one
// claim line joined with one adjacent pathway claim. Main-catalog queries
// read the claim-line columns; pathway queries filter on pathway_direction
// and read the adjacent_* columns.
type ClaimLine struct {
	BillingProviderName    string `parquet:"billing_provider_name"`
	BillingProviderNPI     string `parquet:"billing_provider_npi"`
	PerformingProviderName string `parquet:"performing_provider_name"`
	PerformingProviderNPI  string `parquet:"performing_provider_npi"`
	ReferringProviderNPI   string `parquet:"referring_provider_npi"`
	ProviderSpecialty      string `parquet:"provider_specialty"`

	FacilityName          string `parquet:"facility_name"`
	FacilityCCN           string `parquet:"facility_ccn"`
	FacilityType          string `parquet:"facility_type"`
	ServiceLocationState  string `parquet:"service_location_state"`
	ServiceLocationCounty string `parquet:"service_location_county"`

	ServiceLine    string `parquet:"service_line"`
	SubServiceLine string `parquet:"sub_service_line"`
	PlaceOfService string `parquet:"place_of_service"`
	Setting        string `parquet:"setting"`

	Code            string `parquet:"code"`
	CodeDescription string `parquet:"code_description"`
	CodeSystem      string `parquet:"code_system"`
	DiagnosisCode   string `parquet:"diagnosis_code"`

	PayerName string `parquet:"payer_name"`
	PayerType string `parquet:"payer_type"`

	PatientState   string `parquet:"patient_state"`
	PatientAgeBand string `parquet:"patient_age_band"`

	// ServiceMonth is YYYY-MM; ServiceYear is YYYY.
	ServiceMonth string `parquet:"service_month"`
	ServiceYear  string `parquet:"service_year"`

	// Measure source columns.
	ClaimLineCount  int64 `parquet:"claim_line_count"`
	LineChargeCents int64 `parquet:"line_charge_cents"`

	// Pathway columns: the adjacent claim this line is paired with.
	PathwayDirection          string `parquet:"pathway_direction"`
	AdjacentServiceLine       string `parquet:"adjacent_service_line"`
	AdjacentSubServiceLine    string `parquet:"adjacent_sub_service_line"`
	AdjacentCode              string `parquet:"adjacent_code"`
	AdjacentSetting           string `parquet:"adjacent_setting"`
	AdjacentProviderName      string `parquet:"adjacent_provider_name"`
	AdjacentProviderNPI       string `parquet:"adjacent_provider_npi"`
	AdjacentProviderSpecialty string `parquet:"adjacent_provider_specialty"`
	AdjacentFacilityName      string `parquet:"adjacent_facility_name"`
	AdjacentFacilityType      string `parquet:"adjacent_facility_type"`
	DaysOffsetBand            string `parquet:"days_offset_band"`
}

// dimValue returns a row's value for a catalog field id, covering both the
// main and pathway catalogs.
func dimValue(r *ClaimLine, fieldID string) (string, bool) {
	switch fieldID {
	case "billing_provider_name":
		return r.BillingProviderName, true
	case "billing_provider_npi":
		return r.BillingProviderNPI, true
	case "performing_provider_name":
		return r.PerformingProviderName, true
	case "performing_provider_npi":
		return r.PerformingProviderNPI, true
	case "referring_provider_npi":
		return r.ReferringProviderNPI, true
	case "provider_specialty":
		return r.ProviderSpecialty, true
	case "facility_name":
		return r.FacilityName, true
	case "facility_ccn":
		return r.FacilityCCN, true
	case "facility_type":
		return r.FacilityType, true
	case "service_location_state":
		return r.ServiceLocationState, true
	case "service_location_county":
		return r.ServiceLocationCounty, true
	case "service_line":
		return r.ServiceLine, true
	case "sub_service_line":
		return r.SubServiceLine, true
	case "place_of_service":
		return r.PlaceOfService, true
	case "setting":
		return r.Setting, true
	case "code":
		return r.Code, true
	case "code_description":
		return r.CodeDescription, true
	case "code_system":
		return r.CodeSystem, true
	case "diagnosis_code":
		return r.DiagnosisCode, true
	case "payer_name":
		return r.PayerName, true
	case "payer_type":
		return r.PayerType, true
	case "patient_state":
		return r.PatientState, true
	case "patient_age_band":
		return r.PatientAgeBand, true
	case "date__month_grain":
		return r.ServiceMonth, true
	case "date__year_grain":
		return r.ServiceYear, true
	case "adjacent_service_line":
		return r.AdjacentServiceLine, true
	case "adjacent_sub_service_line":
		return r.AdjacentSubServiceLine, true
	case "adjacent_code":
		return r.AdjacentCode, true
	case "adjacent_setting":
		return r.AdjacentSetting, true
	case "adjacent_provider_name":
		return r.AdjacentProviderName, true
	case "adjacent_provider_npi":
		return r.AdjacentProviderNPI, true
	case "adjacent_provider_specialty":
		return r.AdjacentProviderSpecialty, true
	case "adjacent_facility_name":
		return r.AdjacentFacilityName, true
	case "adjacent_facility_type":
		return r.AdjacentFacilityType, true
	case "days_offset_band":
		return r.DaysOffsetBand, true
	default:
		return "", false
	}
}

// roleIdentifier returns the identifier column value for a scope role.
func roleIdentifier(r *ClaimLine, role string) string {
	switch role {
	case "performing":
		return r.PerformingProviderNPI
	case "facility", "service_location":
		return r.FacilityCCN
	default: // billing
		return r.BillingProviderNPI
	}
}
