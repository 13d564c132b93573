package query

import "testing"

func TestParseRole(t *testing.T) {
	for _, s := range []string{"billing", "performing", "facility", "service_location"} {
		role, err := ParseRole(s)
		if err != nil {
			t.Errorf("ParseRole(%q) err = %v", s, err)
		}
		if string(role) != s {
			t.Errorf("ParseRole(%q) = %q", s, role)
		}
	}
	if _, err := ParseRole("rendering"); err == nil {
		t.Error("unknown role must error")
	}
	if _, err := ParseRole(""); err == nil {
		t.Error("empty role must error")
	}
}

func TestScopeConstructors(t *testing.T) {
	if NoScope().Kind != ScopeNone {
		t.Error("NoScope kind")
	}
	sc := TagScope("team-9", "competitors")
	if sc.Kind != ScopeTag || sc.TeamID != "team-9" || sc.Tag != "competitors" {
		t.Errorf("tag scope = %+v", sc)
	}

	ccns := []string{"140001"}
	sc = CCNScope(ccns)
	ccns[0] = "mutated"
	if sc.CCNs[0] != "140001" {
		t.Error("CCNScope must copy the identifier list")
	}
	clone := sc.Clone()
	clone.CCNs[0] = "mutated"
	if sc.CCNs[0] != "140001" {
		t.Error("Clone must not share the identifier list")
	}
}
