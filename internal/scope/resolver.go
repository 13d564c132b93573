// Package scope translates a query scope (saved market, team tag, or
// explicit CCN list) into the identifier set the aggregation service matches
// claims against.
package scope

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/gyeh/claimscope/internal/query"
	"github.com/gyeh/claimscope/internal/remote"
	"github.com/gyeh/claimscope/internal/store"
)

// IDSet is a resolved identifier set. Chosen distinguishes "no scope
// selected" (full data set) from "scope selected but it resolved to nothing"
// (zero rows, never a full-data query).
type IDSet struct {
	IDs    []string
	Chosen bool
}

// Empty reports whether a chosen scope resolved to zero identifiers.
func (s IDSet) Empty() bool {
	return s.Chosen && len(s.IDs) == 0
}

// TranslationService provides the two HTTP lookups used to turn a market
// into billing identifiers.
type TranslationService interface {
	NearbyFacilities(ctx context.Context, lat, lng, radiusMiles float64) ([]remote.Facility, error)
	RelatedIdentifiers(ctx context.Context, ccns []string) ([]string, error)
}

// MarketStore reads persisted market and tag configuration.
type MarketStore interface {
	Market(ctx context.Context, marketID string) (store.Market, error)
	TaggedCCNs(ctx context.Context, teamID, tag string) ([]string, error)
}

// Resolver resolves scopes to identifier sets. Resolution is idempotent:
// the same scope against the same backing data yields the same sorted,
// deduplicated set.
type Resolver struct {
	svc     TranslationService
	markets MarketStore
	log     zerolog.Logger
}

// NewResolver builds a Resolver.
func NewResolver(svc TranslationService, markets MarketStore, log zerolog.Logger) *Resolver {
	return &Resolver{svc: svc, markets: markets, log: log}
}

// Resolve translates sc into an IDSet. A zero-identifier result for a chosen
// scope is not an error; callers skip the aggregation query and render an
// explicit empty state instead.
func (r *Resolver) Resolve(ctx context.Context, sc query.Scope) (IDSet, error) {
	switch sc.Kind {
	case query.ScopeNone:
		return IDSet{}, nil

	case query.ScopeCCNs:
		// Explicit lists need no translation.
		return IDSet{IDs: dedupe(sc.CCNs), Chosen: true}, nil

	case query.ScopeMarket:
		return r.resolveMarket(ctx, sc.MarketID)

	case query.ScopeTag:
		return r.resolveTag(ctx, sc.TeamID, sc.Tag)

	default:
		return IDSet{}, fmt.Errorf("unknown scope kind %q", sc.Kind)
	}
}

func (r *Resolver) resolveMarket(ctx context.Context, marketID string) (IDSet, error) {
	m, err := r.markets.Market(ctx, marketID)
	if err != nil {
		return IDSet{}, fmt.Errorf("load market %s: %w", marketID, err)
	}

	// One nearby lookup, reused for both the facility list and the
	// identifier translation.
	facilities, err := r.svc.NearbyFacilities(ctx, m.Lat, m.Lng, m.RadiusMiles)
	if err != nil {
		return IDSet{}, fmt.Errorf("nearby facilities for market %s: %w", marketID, err)
	}
	if len(facilities) == 0 {
		r.log.Info().Str("market", marketID).Msg("market radius contains no facilities")
		return IDSet{Chosen: true}, nil
	}

	ccns := make([]string, 0, len(facilities))
	for _, f := range facilities {
		if f.CCN != "" {
			ccns = append(ccns, f.CCN)
		}
	}
	return r.translate(ctx, ccns)
}

func (r *Resolver) resolveTag(ctx context.Context, teamID, tag string) (IDSet, error) {
	ccns, err := r.markets.TaggedCCNs(ctx, teamID, tag)
	if err != nil {
		return IDSet{}, fmt.Errorf("load tag %s/%s: %w", teamID, tag, err)
	}
	if len(ccns) == 0 {
		r.log.Info().Str("team", teamID).Str("tag", tag).Msg("tag has no facilities")
		return IDSet{Chosen: true}, nil
	}
	return r.translate(ctx, ccns)
}

// translate maps facility CCNs to billing NPIs. A chosen scope that maps to
// nothing stays an explicitly-empty set.
func (r *Resolver) translate(ctx context.Context, ccns []string) (IDSet, error) {
	if len(ccns) == 0 {
		return IDSet{Chosen: true}, nil
	}
	npis, err := r.svc.RelatedIdentifiers(ctx, dedupe(ccns))
	if err != nil {
		return IDSet{}, fmt.Errorf("related identifiers: %w", err)
	}
	return IDSet{IDs: dedupe(npis), Chosen: true}, nil
}

// dedupe sorts and deduplicates, dropping empties, so resolution output is
// deterministic.
func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
