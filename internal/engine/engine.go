package engine

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"cdcheck/internal/clearlydefined"
	"cdcheck/internal/config"
	"cdcheck/internal/data"
	"cdcheck/internal/fetcher"
	"cdcheck/internal/lockfile"
	"cdcheck/internal/logging"
	"cdcheck/internal/output"
	"cdcheck/internal/policy"
)

// NoLicenseChecksHint is printed when the run has no license policy.
const NoLicenseChecksHint = "You have no license checks. Try --approve-osi, --approve-all, or provide a manual selection using e.g. --approve <spdx-license>"

func exitCodeForRun(fatal, partial, failures bool) int {
	// Exit code contract:
	// 0 = every dependency passed
	// 1 = at least one dependency failed a check
	// 2 = partial run (lookups skipped with --keep-going)
	// 3 = fatal error (check did not complete)
	if fatal {
		return 3
	}
	if partial {
		return 2
	}
	if failures {
		return 1
	}
	return 0
}

// PolicyFor translates validated configuration into an evaluation policy.
func PolicyFor(cfg *config.Config) policy.Policy {
	var checks []policy.LicenseCheck
	if cfg.Policy.ApproveOSI {
		checks = append(checks, policy.OSIApproved())
	}
	if len(cfg.Policy.Approve) > 0 {
		checks = append(checks, policy.ApprovedLicenses(cfg.Policy.Approve))
	}
	return policy.Policy{
		RequiredScore: cfg.Policy.Score,
		ScoreType:     data.ScoreType(cfg.Policy.ScoreType),
		Ignore:        cfg.Policy.Ignore,
		Checks:        checks,
		ApproveAll:    cfg.Policy.ApproveAll,
		Lax:           cfg.Policy.Lax,
	}
}

// OutputOptions derives rendering options from configuration and policy.
func OutputOptions(cfg *config.Config, p policy.Policy) (output.Options, error) {
	f, err := output.ParseFormat(cfg.Output.Format)
	if err != nil {
		return output.Options{}, err
	}
	// Approve-all is not a predicate; its verdict column would always pass.
	return output.Options{
		Format:           f,
		Link:             cfg.Output.Link,
		ShowLicenseCheck: len(p.Checks) > 0,
		ShowScoreCheck:   p.HasScoreCheck(),
		ScoreType:        p.ScoreType,
		Lax:              p.Lax,
	}, nil
}

func setupOutputManager(cfg *config.Config, opts output.Options, stdout io.Writer) (*output.Manager, error) {
	outMgr := output.NewManager()

	// Console Sink
	if !cfg.Output.Quiet {
		if err := outMgr.AddSink(output.NewConsoleSink(stdout, opts)); err != nil {
			outMgr.Close()
			return nil, err
		}
	}

	// File Sink (format inferred from the extension)
	if cfg.Output.File != "" {
		fileOpts := opts
		fileOpts.Format = ""
		fs, err := output.NewFileSink(cfg.Output.File, fileOpts)
		if err != nil {
			outMgr.Close()
			return nil, err
		}
		if err := outMgr.AddSink(fs); err != nil {
			outMgr.Close()
			return nil, err
		}
	}

	return outMgr, nil
}

type Engine struct {
	Lookup Lookup
	Log    *zap.SugaredLogger

	Stdout io.Writer
	Stderr io.Writer
}

// NewEngine wires the provenance client, request budget and fetcher for cfg.
func NewEngine(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) (*Engine, error) {
	if log == nil {
		log = logging.Nop()
	}

	budget := fetcher.NewRequestBudget()
	token, source := clearlydefined.ResolveToken(cfg.Runtime.Token)
	if source != clearlydefined.TokenSourceNone {
		log.Infow("using access token", "source", string(source))
	}

	opts := []clearlydefined.Option{
		clearlydefined.WithBaseURL(cfg.Runtime.APIURL),
		clearlydefined.WithResponseObserver(budget.UpdateFromResponse),
		clearlydefined.WithTimeout(cfg.Runtime.Timeout),
	}
	if cfg.Runtime.Verbose > 0 {
		opts = append(opts, clearlydefined.WithVerbose(log))
	}
	client, err := clearlydefined.NewClient(ctx, token, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create provenance client: %w", err)
	}

	return &Engine{
		Lookup: fetcher.NewFetcher(client, budget, log),
		Log:    log,
	}, nil
}

func (e *Engine) stdout() io.Writer {
	if e.Stdout != nil {
		return e.Stdout
	}
	return os.Stdout
}

func (e *Engine) stderr() io.Writer {
	if e.Stderr != nil {
		return e.Stderr
	}
	return os.Stderr
}

func (e *Engine) loadDependencies(cfg *config.Config, log *zap.SugaredLogger) ([]data.Dependency, bool) {
	path, err := lockfile.ResolveInput(cfg.Input.Path, cfg.Input.BaseDir)
	if err != nil {
		fmt.Fprintf(e.stderr(), "Error resolving input: %v\n", err)
		return nil, false
	}
	deps, err := lockfile.Load(path, cfg.Input.Exclude)
	if err != nil {
		fmt.Fprintf(e.stderr(), "Error reading dependencies: %v\n", err)
		return nil, false
	}
	log.Infow("loaded dependencies", "input", path, "count", len(deps))
	return deps, true
}

// Run checks every dependency of the configured input against the policy,
// renders the report and returns the process exit code.
func (e *Engine) Run(ctx context.Context, cfg *config.Config) int {
	log := e.Log
	if log == nil {
		log = logging.Nop()
	}
	runID := uuid.NewString()
	log = log.With("run", runID)

	if cfg.Runtime.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Runtime.Timeout)
		defer cancel()
	}

	deps, ok := e.loadDependencies(cfg, log)
	if !ok {
		return exitCodeForRun(true, false, false)
	}

	scheduler, err := NewScheduler(e.Lookup, cfg.Runtime.Concurrency, cfg.Runtime.KeepGoing, log)
	if err != nil {
		fmt.Fprintf(e.stderr(), "Error: %v\n", err)
		return exitCodeForRun(true, false, false)
	}
	fetched, err := scheduler.Execute(ctx, deps)
	if err != nil {
		fmt.Fprintf(e.stderr(), "Error fetching provenance: %v\n", err)
		return exitCodeForRun(true, false, false)
	}

	if f, ok := e.Lookup.(*fetcher.Fetcher); ok {
		log.Infow("provenance fetched", "dependencies", len(deps), "unique", f.Cached(), "budget_remaining", f.Budget().Remaining(), "skipped", fetched.Failures)
	}

	evaluator := policy.NewEvaluator(PolicyFor(cfg), log)
	evaluated := evaluator.Evaluate(fetched.Dependencies)
	data.Sort(evaluated)
	summary := policy.Summarize(evaluated)

	shown := evaluated
	if cfg.Output.Failed {
		shown = policy.FailedOnly(evaluated)
	}

	opts, err := OutputOptions(cfg, evaluator.Policy())
	if err != nil {
		fmt.Fprintf(e.stderr(), "Error: %v\n", err)
		return exitCodeForRun(true, false, false)
	}
	outMgr, err := setupOutputManager(cfg, opts, e.stdout())
	if err != nil {
		fmt.Fprintf(e.stderr(), "Error creating output sinks: %v\n", err)
		return exitCodeForRun(true, false, false)
	}

	if outMgr.Len() == 0 {
		log.Debugw("report suppressed", "quiet", cfg.Output.Quiet)
	}
	writeErr := outMgr.Write(output.Report{RunID: runID, Dependencies: shown})
	closeErr := outMgr.Close()
	if writeErr != nil || closeErr != nil {
		fmt.Fprintf(e.stderr(), "Error writing report: %v\n", firstErr(writeErr, closeErr))
		return exitCodeForRun(true, false, false)
	}

	if !evaluator.Policy().HasLicenseChecks() && !cfg.Output.Quiet {
		fmt.Fprintln(e.stderr(), color.YellowString(NoLicenseChecksHint))
	}

	if !summary.Passed() {
		log.Errorf("%d dependencies out of %d failed at least one of the tests", summary.Failed, summary.Total)
	}

	return exitCodeForRun(false, fetched.Partial(), !summary.Passed())
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
