package optioncache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gyeh/claimscope/internal/remote"
)

func countingFetch(calls *int, data []remote.ValueCount) FetchFunc {
	return func(ctx context.Context) ([]remote.ValueCount, error) {
		*calls++
		return data, nil
	}
}

func TestGet_CachesWithinTTL(t *testing.T) {
	c := New(DefaultTTL)
	calls := 0
	fetch := countingFetch(&calls, []remote.ValueCount{{Value: "Medicare", Count: 12}})

	for i := 0; i < 3; i++ {
		got, err := c.Get(context.Background(), "k", fetch)
		if err != nil {
			t.Fatalf("get %d: %v", i, err)
		}
		if len(got) != 1 || got[0].Value != "Medicare" {
			t.Fatalf("get %d: %v", i, got)
		}
	}
	if calls != 1 {
		t.Errorf("fetch calls = %d, want 1", calls)
	}
}

func TestGet_ExpiresAfterTTL(t *testing.T) {
	c := New(5 * time.Minute)
	clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return clock }

	calls := 0
	fetch := countingFetch(&calls, nil)

	if _, err := c.Get(context.Background(), "k", fetch); err != nil {
		t.Fatal(err)
	}
	clock = clock.Add(4 * time.Minute)
	if _, err := c.Get(context.Background(), "k", fetch); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Fatalf("fresh entry refetched: calls = %d", calls)
	}

	clock = clock.Add(2 * time.Minute) // now 6m past the store
	if _, err := c.Get(context.Background(), "k", fetch); err != nil {
		t.Fatal(err)
	}
	if calls != 2 {
		t.Errorf("stale entry not refetched: calls = %d", calls)
	}
}

func TestGet_ErrorsNotCached(t *testing.T) {
	c := New(DefaultTTL)
	calls := 0
	boom := errors.New("backend down")
	fail := true
	fetch := func(ctx context.Context) ([]remote.ValueCount, error) {
		calls++
		if fail {
			return nil, boom
		}
		return []remote.ValueCount{{Value: "ok", Count: 1}}, nil
	}

	if _, err := c.Get(context.Background(), "k", fetch); !errors.Is(err, boom) {
		t.Fatalf("expected fetch error, got %v", err)
	}
	if c.Len() != 0 {
		t.Fatalf("failed fetch was cached: len = %d", c.Len())
	}

	fail = false
	got, err := c.Get(context.Background(), "k", fetch)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Value != "ok" {
		t.Fatalf("recovery fetch = %v", got)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestClear_DropsAllEntries(t *testing.T) {
	c := New(DefaultTTL)
	calls := 0
	fetch := countingFetch(&calls, nil)

	for _, k := range []string{"a", "b", "c"} {
		if _, err := c.Get(context.Background(), k, fetch); err != nil {
			t.Fatal(err)
		}
	}
	if c.Len() != 3 {
		t.Fatalf("len = %d, want 3", c.Len())
	}

	c.Clear()
	if c.Len() != 0 {
		t.Fatalf("len after clear = %d", c.Len())
	}
	if _, err := c.Get(context.Background(), "a", fetch); err != nil {
		t.Fatal(err)
	}
	if calls != 4 {
		t.Errorf("calls = %d, want refetch after clear", calls)
	}
}

func TestKey_DistinguishesParams(t *testing.T) {
	type params struct {
		Column string   `json:"column"`
		IDs    []string `json:"ids"`
	}
	a := Key("/api/claims/distinct", params{Column: "payer_name", IDs: []string{"1", "2"}})
	b := Key("/api/claims/distinct", params{Column: "payer_name", IDs: []string{"1", "2"}})
	c := Key("/api/claims/distinct", params{Column: "payer_name", IDs: []string{"1"}})
	d := Key("/api/pathway/distinct", params{Column: "payer_name", IDs: []string{"1", "2"}})

	if a != b {
		t.Errorf("equal params produced different keys:\n%s\n%s", a, b)
	}
	if a == c {
		t.Error("different identifier sets collided")
	}
	if a == d {
		t.Error("different endpoints collided")
	}
}
