package normalize

import (
	"regexp"
	"strings"
)

var nonAlphanumeric = regexp.MustCompile(`[^A-Za-z0-9]`)

// Code trims whitespace, uppercases, and strips non-alphanumeric characters
// from a user-entered billing code, so "99213 " and "99-213" filter the same
// rows. Returns "" when nothing survives.
func Code(v string) string {
	s := strings.ToUpper(strings.TrimSpace(v))
	return nonAlphanumeric.ReplaceAllString(s, "")
}

// codeFields lists the free-text catalog fields that hold billing codes and
// identifiers, whose filter values get normalized before they are sent.
var codeFields = map[string]bool{
	"code":                    true,
	"diagnosis_code":          true,
	"billing_provider_npi":    true,
	"performing_provider_npi": true,
	"referring_provider_npi":  true,
	"facility_ccn":            true,
	"adjacent_code":           true,
	"adjacent_provider_npi":   true,
}

// FilterValue normalizes a raw filter value for the given field: code-like
// fields are cleaned with Code, everything else is only trimmed.
func FilterValue(fieldID, v string) string {
	if codeFields[fieldID] {
		return Code(v)
	}
	return strings.TrimSpace(v)
}
