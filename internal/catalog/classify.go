package catalog

import (
	"strings"

	"github.com/rs/zerolog"
)

// settingByPrefix maps procedure-code prefixes to a care setting, used only
// when the code dictionary has no setting for a code. Longest prefix wins.
var settingByPrefix = map[string]string{
	"99201": "office",
	"99211": "office",
	"9922":  "inpatient",
	"9923":  "inpatient",
	"9928":  "emergency",
	"992":   "office",
	"0":     "facility",
	"1":     "facility",
	"G":     "outpatient",
	"J":     "pharmacy",
	"A":     "ambulance",
}

// ClassifySetting returns the care setting for a code. When the dictionary
// value is present it is returned unchanged. Otherwise the code is matched
// against the prefix table and the gap is logged as a data-quality signal so
// missing dictionary rows can be backfilled rather than silently patched.
func ClassifySetting(log zerolog.Logger, code, dictionarySetting string) string {
	if dictionarySetting != "" {
		return dictionarySetting
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	best := ""
	setting := "unknown"
	for prefix, s := range settingByPrefix {
		if strings.HasPrefix(code, prefix) && len(prefix) > len(best) {
			best = prefix
			setting = s
		}
	}
	log.Warn().
		Str("code", code).
		Str("fallback_setting", setting).
		Msg("code missing from setting dictionary, classified by prefix")
	return setting
}
