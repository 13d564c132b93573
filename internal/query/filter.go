package query

import "encoding/json"

// FilterKind tags the two legal shapes of a filter value.
type FilterKind string

const (
	// FilterScalar is a single raw string. A comma inside a scalar is part
	// of the value (month ranges, descriptions with commas).
	FilterScalar FilterKind = "scalar"
	// FilterSet is an explicit list of values. Drill-down always produces a
	// one-element set so a pinned value is never comma-split downstream.
	FilterSet FilterKind = "set"
)

// FilterValue is the single representation for a filter's value. Every
// construction site picks scalar or set explicitly; there is no implicit
// string-splitting anywhere in the pipeline.
type FilterValue struct {
	Kind   FilterKind
	Value  string   // set when Kind == FilterScalar
	Values []string // set when Kind == FilterSet
}

// Scalar builds a scalar filter value.
func Scalar(v string) FilterValue {
	return FilterValue{Kind: FilterScalar, Value: v}
}

// Set builds a set filter value.
func Set(vs ...string) FilterValue {
	out := make([]string, len(vs))
	copy(out, vs)
	return FilterValue{Kind: FilterSet, Values: out}
}

// Members returns the individual values: the set members, or the scalar as a
// one-element slice.
func (v FilterValue) Members() []string {
	if v.Kind == FilterSet {
		return v.Values
	}
	return []string{v.Value}
}

// Equal reports deep equality of two filter values.
func (v FilterValue) Equal(o FilterValue) bool {
	if v.Kind != o.Kind {
		return false
	}
	if v.Kind == FilterScalar {
		return v.Value == o.Value
	}
	if len(v.Values) != len(o.Values) {
		return false
	}
	for i := range v.Values {
		if v.Values[i] != o.Values[i] {
			return false
		}
	}
	return true
}

// Clone returns a deep copy.
func (v FilterValue) Clone() FilterValue {
	if v.Kind == FilterSet {
		return Set(v.Values...)
	}
	return v
}

// MarshalJSON encodes a scalar as a JSON string and a set as a JSON array,
// matching the aggregation service's filter wire format.
func (v FilterValue) MarshalJSON() ([]byte, error) {
	if v.Kind == FilterSet {
		return json.Marshal(v.Values)
	}
	return json.Marshal(v.Value)
}

// UnmarshalJSON accepts either wire shape.
func (v *FilterValue) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = Scalar(s)
		return nil
	}
	var vs []string
	if err := json.Unmarshal(data, &vs); err != nil {
		return err
	}
	*v = Set(vs...)
	return nil
}

// cloneFilters deep-copies a filter map.
func cloneFilters(m map[string]FilterValue) map[string]FilterValue {
	out := make(map[string]FilterValue, len(m))
	for k, v := range m {
		out[k] = v.Clone()
	}
	return out
}
