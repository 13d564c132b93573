package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/gyeh/claimscope/internal/catalog"
)

// Client talks to the claims backend: aggregation, distinct-values, pathway,
// and scope-translation endpoints, all JSON over POST with a common
// {success, data, message} envelope.
type Client struct {
	baseURL string
	httpc   *http.Client
	log     zerolog.Logger
}

// NewClient builds a Client for the given base URL.
func NewClient(baseURL string, log zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpc:   &http.Client{},
		log:     log,
	}
}

// envelope is the common response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// IsCanceled reports whether err is a request cancellation rather than a
// failure. Cancellations must never populate user-facing error state.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}

// post sends body as JSON and decodes the envelope's data into out.
func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpc.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return context.Canceled
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%s: read response: %w", path, err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: status %d: %s", path, resp.StatusCode, truncate(raw, 200))
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("%s: decode envelope: %w", path, err)
	}
	if !env.Success {
		return fmt.Errorf("%s: %s", path, env.Message)
	}

	c.log.Debug().Str("path", path).Dur("duration", time.Since(start)).Msg("request complete")

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%s: decode data: %w", path, err)
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}

// Aggregate runs a grouped aggregation query.
func (c *Client) Aggregate(ctx context.Context, req AggregateRequest) ([]Row, error) {
	var rows []Row
	if err := c.post(ctx, "/api/claims/aggregate", req, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// DistinctValues returns distinct values with counts for each requested
// column, narrowed by the scope identifiers and existing filters.
func (c *Client) DistinctValues(ctx context.Context, req DistinctRequest) (map[string][]ValueCount, error) {
	out := map[string][]ValueCount{}
	if err := c.post(ctx, "/api/claims/distinct", req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Pathway runs an upstream/downstream pathway aggregation.
func (c *Client) Pathway(ctx context.Context, req PathwayRequest) ([]Row, error) {
	var rows []Row
	if err := c.post(ctx, "/api/pathway/aggregate", req, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// PathwayDistinct returns distinct values for one pathway column.
func (c *Client) PathwayDistinct(ctx context.Context, req PathwayDistinctRequest) ([]ValueCount, error) {
	var vals []ValueCount
	if err := c.post(ctx, "/api/pathway/distinct", req, &vals); err != nil {
		return nil, err
	}
	return vals, nil
}

// NearbyFacilities returns facilities within radiusMiles of a point.
func (c *Client) NearbyFacilities(ctx context.Context, lat, lng float64, radiusMiles float64) ([]Facility, error) {
	req := struct {
		Lat         float64 `json:"lat"`
		Lng         float64 `json:"lng"`
		RadiusMiles float64 `json:"radius_miles"`
	}{lat, lng, radiusMiles}
	var out []Facility
	if err := c.post(ctx, "/api/providers/nearby", req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// RelatedIdentifiers maps facility CCNs to the billing NPIs that bill
// through them.
func (c *Client) RelatedIdentifiers(ctx context.Context, ccns []string) ([]string, error) {
	req := struct {
		CCNs []string `json:"ccns"`
	}{ccns}
	var out []string
	if err := c.post(ctx, "/api/providers/identifiers", req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MaxAvailableDate reports the newest claim date available, used to seed the
// default month window.
func (c *Client) MaxAvailableDate(ctx context.Context) (time.Time, error) {
	var out struct {
		MaxDate string `json:"max_date"`
	}
	if err := c.post(ctx, "/api/claims/metadata", struct{}{}, &out); err != nil {
		return time.Time{}, err
	}
	return catalog.ParseMaxDate(out.MaxDate)
}
