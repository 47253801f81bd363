package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/Masterminds/semver/v3"

	"cdcheck/internal/clearlydefined"
	"cdcheck/internal/data"
)

var budgetNow = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

func fixedBudget(remaining int, reset time.Time) *RequestBudget {
	b := NewRequestBudget()
	b.now = func() time.Time { return budgetNow }
	b.remaining = remaining
	b.reset = reset
	return b
}

// observedClient returns a client whose responses are fed into b.
func observedClient(t *testing.T, b *RequestBudget, handler http.HandlerFunc) *clearlydefined.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := clearlydefined.NewClient(context.Background(), "",
		clearlydefined.WithBaseURL(server.URL),
		clearlydefined.WithResponseObserver(b.UpdateFromResponse),
	)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return client
}

func leftpad(t *testing.T) data.Coordinates {
	t.Helper()
	return data.NewDependency("leftpad", semver.MustParse("1.0.0"), data.EcosystemCargo).Coordinates()
}

func acquireWithin(b *RequestBudget, d time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	return b.Acquire(ctx)
}

func TestRequestBudget_TooManyRequestsOpensCooldown(t *testing.T) {
	b := fixedBudget(DefaultRequestsPerWindow, budgetNow.Add(time.Hour))
	reset := budgetNow.Add(time.Minute)
	client := observedClient(t, b, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.Definition(context.Background(), leftpad(t))
	var er *clearlydefined.ErrorResponse
	if !errors.As(err, &er) || !er.Temporary() {
		t.Fatalf("expected temporary ErrorResponse, got %v", err)
	}

	if rem := b.Remaining(); rem != 0 {
		t.Fatalf("expected 0 remaining, got %d", rem)
	}
	b.mu.Lock()
	cooldown, gotReset := b.cooldown, b.reset
	b.mu.Unlock()
	if !cooldown.Equal(budgetNow.Add(30 * time.Second)) {
		t.Fatalf("expected cooldown until %v, got %v", budgetNow.Add(30*time.Second), cooldown)
	}
	if !gotReset.Equal(time.Unix(reset.Unix(), 0)) {
		t.Fatalf("expected reset %v, got %v", reset, gotReset)
	}

	if err := acquireWithin(b, 20*time.Millisecond); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected Acquire to block during cooldown, got %v", err)
	}
}

func TestRequestBudget_SuccessfulResponseRefillsAllowance(t *testing.T) {
	b := fixedBudget(0, budgetNow.Add(time.Hour))
	client := observedClient(t, b, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("X-RateLimit-Remaining", "5")
		_, _ = w.Write([]byte(`{"licensed":{"declared":"MIT","score":{"total":60}},"scores":{"effective":90}}`))
	})

	if _, err := client.Definition(context.Background(), leftpad(t)); err != nil {
		t.Fatalf("Definition failed: %v", err)
	}
	if rem := b.Remaining(); rem != 5 {
		t.Fatalf("expected 5 remaining, got %d", rem)
	}
	if err := b.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if rem := b.Remaining(); rem != 4 {
		t.Fatalf("expected 4 remaining, got %d", rem)
	}
}

func TestRequestBudget_MalformedHeadersAreIgnored(t *testing.T) {
	b := fixedBudget(7, budgetNow.Add(time.Hour))
	client := observedClient(t, b, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Retry-After", "Wed, 21 Oct 2015 07:28:00 GMT")
		w.Header().Set("X-RateLimit-Remaining", "-1")
		w.Header().Set("X-RateLimit-Reset", "soon")
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, _ = client.Definition(context.Background(), leftpad(t))

	if rem := b.Remaining(); rem != 7 {
		t.Fatalf("expected remaining unchanged at 7, got %d", rem)
	}
	b.mu.Lock()
	cooldown := b.cooldown
	b.mu.Unlock()
	if !cooldown.IsZero() {
		t.Fatalf("expected no cooldown, got %v", cooldown)
	}
}

func TestRequestBudget_Acquire(t *testing.T) {
	t.Run("spends the allowance", func(t *testing.T) {
		b := fixedBudget(2, budgetNow.Add(time.Hour))
		for i := 0; i < 2; i++ {
			if err := b.Acquire(context.Background()); err != nil {
				t.Fatalf("Acquire %d failed: %v", i, err)
			}
		}
		if rem := b.Remaining(); rem != 0 {
			t.Fatalf("expected 0 remaining, got %d", rem)
		}
	})

	t.Run("waits out the cooldown", func(t *testing.T) {
		b := NewRequestBudget()
		b.remaining = 1
		b.cooldown = time.Now().Add(20 * time.Millisecond)

		start := time.Now()
		if err := b.Acquire(context.Background()); err != nil {
			t.Fatalf("Acquire failed: %v", err)
		}
		if elapsed := time.Since(start); elapsed < 15*time.Millisecond {
			t.Fatalf("expected Acquire to wait for the cooldown, returned after %v", elapsed)
		}
		if rem := b.Remaining(); rem != 0 {
			t.Fatalf("expected 0 remaining, got %d", rem)
		}
	})

	t.Run("single request after the window elapses", func(t *testing.T) {
		b := fixedBudget(0, budgetNow.Add(-time.Second))
		if err := b.Acquire(context.Background()); err != nil {
			t.Fatalf("first Acquire after reset failed: %v", err)
		}
		if err := acquireWithin(b, 20*time.Millisecond); !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("expected second Acquire to wait for headers, got %v", err)
		}
	})

	t.Run("exhausted budget waits for headers", func(t *testing.T) {
		b := fixedBudget(0, budgetNow.Add(time.Hour))
		client := observedClient(t, b, func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("X-RateLimit-Remaining", "3")
			w.WriteHeader(http.StatusNotFound)
		})

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		done := make(chan error, 1)
		go func() { done <- b.Acquire(ctx) }()

		if _, err := client.Definition(context.Background(), leftpad(t)); err != nil {
			t.Fatalf("Definition failed: %v", err)
		}
		if err := <-done; err != nil {
			t.Fatalf("expected Acquire to resume after headers, got %v", err)
		}
		if rem := b.Remaining(); rem != 2 {
			t.Fatalf("expected 2 remaining, got %d", rem)
		}
	})

	t.Run("rejects nil context", func(t *testing.T) {
		var ctx context.Context
		if err := NewRequestBudget().Acquire(ctx); err == nil {
			t.Fatal("expected error for nil context")
		}
	})

	t.Run("rejects zero value", func(t *testing.T) {
		if err := (&RequestBudget{}).Acquire(context.Background()); err == nil {
			t.Fatal("expected error for uninitialized budget")
		}
	})
}

func TestWait(t *testing.T) {
	t.Run("closed channel", func(t *testing.T) {
		ch := make(chan struct{})
		close(ch)
		if err := wait(context.Background(), ch, time.Hour, true); err != nil {
			t.Fatalf("expected nil, got %v", err)
		}
	})

	t.Run("timer", func(t *testing.T) {
		if err := wait(context.Background(), nil, time.Millisecond, true); err != nil {
			t.Fatalf("expected nil, got %v", err)
		}
	})

	t.Run("negative duration fires at once", func(t *testing.T) {
		if err := wait(context.Background(), nil, -time.Minute, true); err != nil {
			t.Fatalf("expected nil, got %v", err)
		}
	})

	t.Run("untimed returns on cancel", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := wait(ctx, nil, 0, false); !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	})
}

func TestRequestBudget_UpdateFromResponseNilSafe(t *testing.T) {
	var nilBudget *RequestBudget
	nilBudget.UpdateFromResponse(&http.Response{Header: make(http.Header)})
	NewRequestBudget().UpdateFromResponse(nil)
}
