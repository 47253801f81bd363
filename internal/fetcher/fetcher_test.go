package fetcher_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/Masterminds/semver/v3"

	"cdcheck/internal/clearlydefined"
	"cdcheck/internal/data"
	"cdcheck/internal/fetcher"
)

func newTestFetcher(t *testing.T, handler http.HandlerFunc) (*fetcher.Fetcher, *fetcher.RequestBudget) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	budget := fetcher.NewRequestBudget()
	client, err := clearlydefined.NewClient(context.Background(), "",
		clearlydefined.WithBaseURL(server.URL),
		clearlydefined.WithResponseObserver(budget.UpdateFromResponse),
	)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return fetcher.NewFetcher(client, budget, nil), budget
}

func dep(t *testing.T, name, version string) data.Dependency {
	t.Helper()
	v, err := semver.NewVersion(version)
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	return data.NewDependency(name, v, data.EcosystemCargo)
}

func TestFetcher_Fetch(t *testing.T) {
	var calls int32
	f, budget := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("X-RateLimit-Remaining", "42")
		if strings.Contains(r.URL.Path, "/missing/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"licensed":{"declared":"MIT","score":{"total":60}},"scores":{"effective":90}}`))
	})

	ctx := context.Background()
	cd, err := f.Fetch(ctx, dep(t, "leftpad", "1.0.0"))
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if cd == nil || cd.EffectiveScore != 90 || cd.LicensedScore != 60 {
		t.Fatalf("unexpected record: %+v", cd)
	}

	// Cache hit
	if _, err := f.Fetch(ctx, dep(t, "leftpad", "1.0.0")); err != nil {
		t.Fatalf("Fetch (cached) failed: %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected 1 request, got %d", got)
	}

	// Missing data is cached as nil.
	for i := 0; i < 2; i++ {
		cd, err := f.Fetch(ctx, dep(t, "missing", "1.0.0"))
		if err != nil || cd != nil {
			t.Fatalf("want (nil, nil), got (%+v, %v)", cd, err)
		}
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Fatalf("expected 2 requests, got %d", got)
	}

	if rem := budget.Remaining(); rem != 42 {
		t.Fatalf("expected budget from the last response headers, got %d", rem)
	}
}

func TestFetcher_Concurrency(t *testing.T) {
	var calls int32
	f, _ := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte(`{"scores":{"effective":10}}`))
	})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.Fetch(context.Background(), dep(t, "serde", "1.0.0")); err != nil {
				t.Errorf("Fetch failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected 1 request, got %d", got)
	}
}

func TestFetcher_NonTemporaryErrorNotRetried(t *testing.T) {
	var calls int32
	f, _ := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := f.Fetch(context.Background(), dep(t, "leftpad", "1.0.0"))
	if err == nil || !strings.Contains(err.Error(), "leftpad@1.0.0") {
		t.Fatalf("expected wrapped error, got %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected 1 request, got %d", got)
	}
}

func TestFetcher_InvalidInputs(t *testing.T) {
	f, _ := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {})

	var nilCtx context.Context
	if _, err := f.Fetch(nilCtx, dep(t, "a", "1.0.0")); err == nil {
		t.Fatalf("expected error for nil ctx")
	}
	if _, err := f.Fetch(context.Background(), data.Dependency{Name: "a"}); err == nil {
		t.Fatalf("expected error for missing version")
	}

	var nilFetcher *fetcher.Fetcher
	if _, err := nilFetcher.Fetch(context.Background(), dep(t, "a", "1.0.0")); err == nil {
		t.Fatalf("expected error for nil fetcher")
	}
}
