package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/gyeh/claimscope/internal/db"
	"github.com/gyeh/claimscope/internal/fetch"
	"github.com/gyeh/claimscope/internal/investigate"
	"github.com/gyeh/claimscope/internal/pathway"
	"github.com/gyeh/claimscope/internal/query"
	"github.com/gyeh/claimscope/internal/remote"
	"github.com/gyeh/claimscope/internal/sample"
	"github.com/gyeh/claimscope/internal/scope"
	"github.com/gyeh/claimscope/internal/store"
)

// backend bundles the query services for one run: either the remote claims
// backend or the offline sample engine.
type backend struct {
	agg      fetch.AggregationService
	distinct investigate.DistinctService
	path     pathway.Service
	resolver fetch.ScopeResolver
	maxDate  func(ctx context.Context) (time.Time, error)
	pool     *pgxpool.Pool
}

func (b *backend) close() {
	if b.pool != nil {
		b.pool.Close()
	}
}

// localResolver handles the scopes that need no backing services: none and
// explicit CCN lists. Market/tag scopes are rejected up front in sample mode.
type localResolver struct{}

func (localResolver) Resolve(_ context.Context, sc query.Scope) (scope.IDSet, error) {
	switch sc.Kind {
	case query.ScopeNone:
		return scope.IDSet{}, nil
	case query.ScopeCCNs:
		return scope.IDSet{IDs: sc.CCNs, Chosen: true}, nil
	default:
		return scope.IDSet{}, fmt.Errorf("scope %q requires --base-url and --dsn", sc.Kind)
	}
}

// openBackend builds the service bundle. needsStore is true when the chosen
// scope is a market or tag, which requires the configuration database.
func openBackend(ctx context.Context, log zerolog.Logger, needsStore bool) (*backend, error) {
	if cfg.SamplePath != "" {
		if needsStore {
			return nil, fmt.Errorf("market and tag scopes are not available in --sample mode")
		}
		eng, err := sample.Load(cfg.SamplePath, log)
		if err != nil {
			return nil, fmt.Errorf("load sample: %w", err)
		}
		return &backend{
			agg:      eng,
			distinct: eng,
			path:     eng,
			resolver: localResolver{},
			maxDate: func(context.Context) (time.Time, error) {
				return eng.MaxDate(), nil
			},
		}, nil
	}

	client := remote.NewClient(cfg.BaseURL, log)
	b := &backend{
		agg:      client,
		distinct: client,
		path:     client,
		resolver: localResolver{},
		maxDate:  client.MaxAvailableDate,
	}

	if needsStore {
		if cfg.DSN == "" {
			return nil, fmt.Errorf("--dsn or SUPABASE_DB_URL is required for market and tag scopes")
		}
		pool, err := db.NewPool(ctx, cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("database connection failed: %w", err)
		}
		b.pool = pool
		b.resolver = scope.NewResolver(client, store.New(pool), log)
	}
	return b, nil
}
