package remote

import (
	"github.com/gyeh/claimscope/internal/query"
)

// Row is one aggregated result row: dimension columns plus measure aliases.
type Row map[string]any

// AggregateSpec describes one aggregate the service should compute.
type AggregateSpec struct {
	Fn     string `json:"fn"`
	Column string `json:"column"`
	Alias  string `json:"alias"`
}

// AggregateRequest is the aggregation service's request body.
type AggregateRequest struct {
	RequestID      string                       `json:"request_id,omitempty"`
	Identifiers    []string                     `json:"identifiers,omitempty"`
	IdentifierRole string                       `json:"identifier_role,omitempty"`
	GroupBy        []string                     `json:"group_by"`
	Aggregates     []AggregateSpec              `json:"aggregates"`
	Filters        map[string]query.FilterValue `json:"filters,omitempty"`
	ExcludeFilters map[string]query.FilterValue `json:"exclude_filters,omitempty"`
	Search         string                       `json:"search,omitempty"`
	Limit          int                          `json:"limit"`
}

// ValueCount is one distinct value with its row count.
type ValueCount struct {
	Value string `json:"value"`
	Count int64  `json:"count"`
}

// DistinctRequest asks for distinct values of one or more columns, narrowed
// by the scope identifiers and the already-applied filters on both sides.
type DistinctRequest struct {
	Identifiers     []string                     `json:"identifiers,omitempty"`
	IdentifierRole  string                       `json:"identifier_role,omitempty"`
	Columns         []string                     `json:"columns"`
	Limit           int                          `json:"limit"`
	ExistingFilters map[string]query.FilterValue `json:"existing_filters,omitempty"`
	ExcludeFilters  map[string]query.FilterValue `json:"exclude_filters,omitempty"`
}

// PathwayRequest is the pathway service's request body. Filters carry the
// merged row-context pins, main-query filters, and pathway-local filters.
type PathwayRequest struct {
	RequestID      string                       `json:"request_id,omitempty"`
	Direction      string                       `json:"direction"`
	GroupBy        []string                     `json:"group_by"`
	Aggregates     []AggregateSpec              `json:"aggregates"`
	Filters        map[string]query.FilterValue `json:"filters,omitempty"`
	ExcludeFilters map[string]query.FilterValue `json:"exclude_filters,omitempty"`
	Limit          int                          `json:"limit"`
}

// PathwayDistinctRequest asks for distinct values of one pathway column.
type PathwayDistinctRequest struct {
	Direction string                       `json:"direction"`
	Column    string                       `json:"column"`
	Filters   map[string]query.FilterValue `json:"filters,omitempty"`
	Limit     int                          `json:"limit"`
}

// Facility is one provider location returned by the nearby-facilities
// service. DHC is the internal join key, CCN the billing identifier.
type Facility struct {
	DHC  string `json:"dhc"`
	CCN  string `json:"ccn"`
	Name string `json:"name"`
}
