package query

import "fmt"

// ScopeKind names the identifier-set restriction applied to a query.
type ScopeKind string

const (
	ScopeNone   ScopeKind = "none"   // full data set
	ScopeMarket ScopeKind = "market" // saved geographic market
	ScopeTag    ScopeKind = "tag"    // team facility tag
	ScopeCCNs   ScopeKind = "ccns"   // explicit CCN/NPI list
)

// Scope restricts a query to an identifier set. At most one kind is active;
// the constructors below make it impossible to carry two kinds at once.
type Scope struct {
	Kind     ScopeKind
	MarketID string   // set when Kind == ScopeMarket
	TeamID   string   // set when Kind == ScopeTag
	Tag      string   // set when Kind == ScopeTag
	CCNs     []string // set when Kind == ScopeCCNs
}

// NoScope returns the unrestricted scope.
func NoScope() Scope { return Scope{Kind: ScopeNone} }

// MarketScope restricts to a saved market's radius.
func MarketScope(marketID string) Scope {
	return Scope{Kind: ScopeMarket, MarketID: marketID}
}

// TagScope restricts to a team's tagged facilities.
func TagScope(teamID, tag string) Scope {
	return Scope{Kind: ScopeTag, TeamID: teamID, Tag: tag}
}

// CCNScope restricts to an explicit identifier list.
func CCNScope(ccns []string) Scope {
	out := make([]string, len(ccns))
	copy(out, ccns)
	return Scope{Kind: ScopeCCNs, CCNs: out}
}

// Clone returns a deep copy.
func (s Scope) Clone() Scope {
	if s.Kind == ScopeCCNs {
		return CCNScope(s.CCNs)
	}
	return s
}

// IdentifierRole names which claim-line identifier column the scope's
// identifier set is matched against.
type IdentifierRole string

const (
	RoleBilling         IdentifierRole = "billing"
	RolePerforming      IdentifierRole = "performing"
	RoleFacility        IdentifierRole = "facility"
	RoleServiceLocation IdentifierRole = "service_location"
)

// ParseRole validates a user-supplied role name.
func ParseRole(s string) (IdentifierRole, error) {
	switch IdentifierRole(s) {
	case RoleBilling, RolePerforming, RoleFacility, RoleServiceLocation:
		return IdentifierRole(s), nil
	}
	return "", fmt.Errorf("unknown identifier role %q", s)
}
