package engine

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"cdcheck/internal/data"
	"cdcheck/internal/logging"
)

// Lookup resolves the provenance record of one dependency.
type Lookup interface {
	Fetch(ctx context.Context, dep data.Dependency) (*data.ClearlyDefined, error)
}

type Scheduler struct {
	lookup      Lookup
	concurrency int
	keepGoing   bool
	log         *zap.SugaredLogger
}

// FetchResult is the outcome of fetching provenance for a set of dependencies.
type FetchResult struct {
	// Dependencies are in input order with ClearlyDefined populated.
	Dependencies []data.Dependency
	// Failures counts lookups that errored and were recorded as missing
	// provenance. Always zero unless keep-going is enabled.
	Failures int
}

// Partial reports whether any lookup was skipped over.
func (r FetchResult) Partial() bool {
	return r.Failures > 0
}

func NewScheduler(l Lookup, concurrency int, keepGoing bool, log *zap.SugaredLogger) (*Scheduler, error) {
	if l == nil {
		return nil, errors.New("lookup is nil")
	}
	if concurrency <= 0 {
		return nil, fmt.Errorf("concurrency must be >= 1, got %d", concurrency)
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Scheduler{lookup: l, concurrency: concurrency, keepGoing: keepGoing, log: log}, nil
}

// Execute fetches provenance for every dependency with at most concurrency
// lookups in flight. Results are stored by input index, so the output order
// does not depend on completion order.
//
// Without keep-going the first failure cancels outstanding lookups and is
// returned. With keep-going a failure is logged and the dependency keeps a
// nil record.
func (s *Scheduler) Execute(ctx context.Context, deps []data.Dependency) (FetchResult, error) {
	if ctx == nil {
		return FetchResult{}, errors.New("context is nil")
	}
	if s == nil || s.lookup == nil {
		return FetchResult{}, errors.New("scheduler is not initialized (use NewScheduler)")
	}

	out := make([]data.Dependency, len(deps))
	copy(out, deps)

	var failures atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i := range out {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			rec, err := s.lookup.Fetch(gctx, out[i])
			if err != nil {
				if !s.keepGoing || ctx.Err() != nil {
					return err
				}
				failures.Add(1)
				s.log.Warnw("provenance lookup failed; treating as missing", "dependency", out[i].String(), "error", err)
				return nil
			}
			out[i].ClearlyDefined = rec
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return FetchResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return FetchResult{}, err
	}
	return FetchResult{Dependencies: out, Failures: int(failures.Load())}, nil
}
