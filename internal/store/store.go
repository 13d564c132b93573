// Package store reads the persisted investigation configuration — saved
// markets and team facility tags — from Supabase/Postgres. All paths are
// read-only: markets and tags are written by the web application, not here.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	embedsql "github.com/gyeh/claimscope/internal/sql"
)

// ErrNotFound is returned when a market id does not exist.
var ErrNotFound = errors.New("not found")

// Market is one saved geographic market: a point plus a radius.
type Market struct {
	ID          string
	TeamID      string
	Name        string
	Lat         float64
	Lng         float64
	RadiusMiles float64
}

// Store provides read access to saved markets and facility tags.
type Store struct {
	pool *pgxpool.Pool
}

// New wraps a pgx pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Market loads one saved market by id.
func (s *Store) Market(ctx context.Context, marketID string) (Market, error) {
	var m Market
	err := s.pool.QueryRow(ctx, embedsql.GetMarket, marketID).
		Scan(&m.ID, &m.TeamID, &m.Name, &m.Lat, &m.Lng, &m.RadiusMiles)
	if errors.Is(err, pgx.ErrNoRows) {
		return Market{}, fmt.Errorf("market %s: %w", marketID, ErrNotFound)
	}
	if err != nil {
		return Market{}, fmt.Errorf("query market %s: %w", marketID, err)
	}
	return m, nil
}

// ListMarkets returns a team's saved markets ordered by name.
func (s *Store) ListMarkets(ctx context.Context, teamID string) ([]Market, error) {
	rows, err := s.pool.Query(ctx, embedsql.ListMarkets, teamID)
	if err != nil {
		return nil, fmt.Errorf("query markets for team %s: %w", teamID, err)
	}
	defer rows.Close()

	var out []Market
	for rows.Next() {
		var m Market
		if err := rows.Scan(&m.ID, &m.TeamID, &m.Name, &m.Lat, &m.Lng, &m.RadiusMiles); err != nil {
			return nil, fmt.Errorf("scan market: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// TaggedCCNs returns the CCNs a team has tagged under the given tag. An
// unknown tag yields an empty slice, not an error.
func (s *Store) TaggedCCNs(ctx context.Context, teamID, tag string) ([]string, error) {
	rows, err := s.pool.Query(ctx, embedsql.GetTaggedCCNs, teamID, tag)
	if err != nil {
		return nil, fmt.Errorf("query tag %s/%s: %w", teamID, tag, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var ccn string
		if err := rows.Scan(&ccn); err != nil {
			return nil, fmt.Errorf("scan ccn: %w", err)
		}
		out = append(out, ccn)
	}
	return out, rows.Err()
}

// ListTags returns a team's distinct tags.
func (s *Store) ListTags(ctx context.Context, teamID string) ([]string, error) {
	rows, err := s.pool.Query(ctx, embedsql.ListTeamTags, teamID)
	if err != nil {
		return nil, fmt.Errorf("query tags for team %s: %w", teamID, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		out = append(out, tag)
	}
	return out, rows.Err()
}
