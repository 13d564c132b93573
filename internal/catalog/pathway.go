package catalog

// Direction selects which side of the seed cohort a pathway query looks at.
type Direction string

const (
	Upstream   Direction = "upstream"
	Downstream Direction = "downstream"
)

// Valid reports whether d is a known pathway direction.
func (d Direction) Valid() bool {
	return d == Upstream || d == Downstream
}

// PathwayFields lists the dimension catalog for pathway sub-queries. This is
// a separate, smaller catalog: pathway records describe the adjacent claim,
// not the seed claim, so most main-catalog columns do not apply.
var PathwayFields = []Field{
	{ID: "adjacent_service_line", Label: "Service Line", Kind: Enumerated, Group: "Service"},
	{ID: "adjacent_sub_service_line", Label: "Sub-Service Line", Kind: Enumerated, Group: "Service"},
	{ID: "adjacent_code", Label: "Procedure Code", Kind: FreeText, Group: "Service"},
	{ID: "adjacent_setting", Label: "Setting", Kind: Enumerated, Group: "Service"},
	{ID: "adjacent_provider_name", Label: "Provider", Kind: Enumerated, Group: "Provider"},
	{ID: "adjacent_provider_npi", Label: "Provider NPI", Kind: FreeText, Group: "Provider"},
	{ID: "adjacent_provider_specialty", Label: "Provider Specialty", Kind: Enumerated, Group: "Provider"},
	{ID: "adjacent_facility_name", Label: "Facility", Kind: Enumerated, Group: "Facility"},
	{ID: "adjacent_facility_type", Label: "Facility Type", Kind: Enumerated, Group: "Facility"},
	{ID: "days_offset_band", Label: "Days Offset", Kind: Enumerated, Group: "Time"},
}

// PathwayFieldByID returns the pathway Field for the given id, or ok=false.
func PathwayFieldByID(id string) (Field, bool) {
	for _, f := range PathwayFields {
		if f.ID == id {
			return f, true
		}
	}
	return Field{}, false
}

// DefaultPathwayGroupBy returns the default group-by set for a freshly
// opened pathway view in the given direction.
func DefaultPathwayGroupBy(d Direction) []string {
	if d == Upstream {
		return []string{"adjacent_service_line", "adjacent_provider_specialty"}
	}
	return []string{"adjacent_service_line", "adjacent_setting"}
}

// PathwayPreset is a named group-by combination offered in the pathway view.
type PathwayPreset struct {
	Name    string
	GroupBy []string
}

// PathwayPresets returns the preset views available for a direction.
func PathwayPresets(d Direction) []PathwayPreset {
	if d == Upstream {
		return []PathwayPreset{
			{Name: "Referral sources", GroupBy: []string{"adjacent_provider_name", "adjacent_provider_specialty"}},
			{Name: "Prior settings", GroupBy: []string{"adjacent_setting", "adjacent_service_line"}},
			{Name: "Prior procedures", GroupBy: []string{"adjacent_code", "adjacent_service_line"}},
		}
	}
	return []PathwayPreset{
		{Name: "Next settings", GroupBy: []string{"adjacent_setting", "adjacent_service_line"}},
		{Name: "Downstream providers", GroupBy: []string{"adjacent_provider_name", "adjacent_facility_name"}},
		{Name: "Follow-up timing", GroupBy: []string{"days_offset_band", "adjacent_service_line"}},
	}
}
