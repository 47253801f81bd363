package fetcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"cdcheck/internal/clearlydefined"
	"cdcheck/internal/data"
	"cdcheck/internal/logging"
)

// Source returns the definition for coordinates, or nil when none exists.
type Source interface {
	Definition(ctx context.Context, coords data.Coordinates) (*data.ClearlyDefined, error)
}

// DefaultMaxAttempts bounds retries of temporary failures (429, 5xx).
const DefaultMaxAttempts = 3

type Fetcher struct {
	source      Source
	budget      *RequestBudget
	group       Group
	cache       *Cache
	log         *zap.SugaredLogger
	maxAttempts int
	backoff     time.Duration
}

func NewFetcher(source Source, budget *RequestBudget, log *zap.SugaredLogger) *Fetcher {
	if log == nil {
		log = logging.Nop()
	}
	return &Fetcher{
		source:      source,
		budget:      budget,
		cache:       NewCache(),
		log:         log,
		maxAttempts: DefaultMaxAttempts,
		backoff:     time.Second,
	}
}

// Cached returns the number of distinct coordinates looked up so far.
func (f *Fetcher) Cached() int {
	return f.cache.Len()
}

func (f *Fetcher) Budget() *RequestBudget {
	return f.budget
}

// Fetch returns the provenance record for dep. Repeated and concurrent
// lookups of the same coordinates hit the service once per run.
func (f *Fetcher) Fetch(ctx context.Context, dep data.Dependency) (*data.ClearlyDefined, error) {
	if ctx == nil {
		return nil, fmt.Errorf("Fetch: nil context")
	}
	if f == nil {
		return nil, fmt.Errorf("Fetch: nil Fetcher")
	}
	if f.source == nil {
		return nil, fmt.Errorf("Fetch: nil source (use NewFetcher)")
	}
	if f.budget == nil {
		return nil, fmt.Errorf("Fetch: nil request budget (use NewFetcher)")
	}
	if dep.Name == "" || dep.Version == nil {
		return nil, fmt.Errorf("Fetch: dependency name and version are required")
	}

	coords := dep.Coordinates()
	key := coords.Path()

	if cd, ok := f.cache.Get(key); ok {
		return cd, nil
	}

	cd, err, shared := f.group.Do(key, func() (*data.ClearlyDefined, error) {
		return f.fetchWithRetry(ctx, coords)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", dep, err)
	}
	if shared {
		f.log.Debugw("shared in-flight lookup", "coordinates", key)
	}

	f.cache.Set(key, cd)
	return cd, nil
}

func (f *Fetcher) fetchWithRetry(ctx context.Context, coords data.Coordinates) (*data.ClearlyDefined, error) {
	var lastErr error
	for attempt := 1; attempt <= f.maxAttempts; attempt++ {
		if err := f.budget.Acquire(ctx); err != nil {
			return nil, err
		}

		cd, err := f.source.Definition(ctx, coords)
		if err == nil {
			return cd, nil
		}
		lastErr = err

		var er *clearlydefined.ErrorResponse
		if !errors.As(err, &er) || !er.Temporary() || attempt == f.maxAttempts {
			break
		}

		delay := f.backoff * time.Duration(attempt)
		f.log.Infow("retrying lookup", "coordinates", coords.Path(), "status", er.StatusCode, "attempt", attempt, "delay", delay)
		if err := wait(ctx, nil, delay, true); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}
