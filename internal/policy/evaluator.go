package policy

import (
	"errors"
	"slices"

	"go.uber.org/zap"

	"cdcheck/internal/data"
	"cdcheck/internal/logging"
)

// Policy is the caller-supplied configuration applied to every dependency.
type Policy struct {
	RequiredScore uint64
	ScoreType     data.ScoreType
	// Ignore lists dependency names exempt from both checks.
	Ignore     []string
	Checks     []LicenseCheck
	ApproveAll bool
	Lax        bool
}

// HasLicenseChecks reports whether the caller opted into any license policy.
// Approve-all counts as a policy.
func (p Policy) HasLicenseChecks() bool {
	return len(p.Checks) > 0 || p.ApproveAll
}

// HasScoreCheck reports whether a score threshold is active.
func (p Policy) HasScoreCheck() bool {
	return p.RequiredScore > 0
}

func (p Policy) ignored(name string) bool {
	return slices.Contains(p.Ignore, name)
}

// Evaluator applies a Policy to dependencies.
type Evaluator struct {
	policy Policy
	log    *zap.SugaredLogger
}

// NewEvaluator returns an evaluator. A nil logger discards diagnostics.
func NewEvaluator(p Policy, log *zap.SugaredLogger) *Evaluator {
	if log == nil {
		log = logging.Nop()
	}
	if p.ScoreType == "" {
		p.ScoreType = data.ScoreEffective
	}
	return &Evaluator{policy: p, log: log}
}

// Policy returns the effective policy.
func (e *Evaluator) Policy() Policy {
	return e.policy
}

// Evaluate returns a copy of deps with both outcomes computed. The input is
// not modified.
func (e *Evaluator) Evaluate(deps []data.Dependency) []data.Dependency {
	out := make([]data.Dependency, len(deps))
	for i, d := range deps {
		out[i] = e.EvaluateOne(d)
	}
	return out
}

// EvaluateOne computes the outcomes for a single dependency.
func (e *Evaluator) EvaluateOne(dep data.Dependency) data.Dependency {
	p := e.policy
	dep.PassedLicense = data.OutcomeIgnore
	dep.PassedScore = data.OutcomeIgnore

	if p.ignored(dep.Name) {
		e.log.Debugw("dependency ignored", "dependency", dep.String())
		return dep
	}

	score := dep.Score(p.ScoreType)
	dep.PassedScore = data.OutcomeFromBool(score >= p.RequiredScore)

	switch {
	case !p.HasLicenseChecks():
		dep.PassedLicense = data.OutcomeFail
	case p.ApproveAll:
		dep.PassedLicense = data.OutcomePass
	default:
		errs := TestLicense(dep, p.Lax, p.Checks)
		for _, err := range errs {
			var ce *CheckError
			if errors.As(err, &ce) {
				e.log.Debugw("license check failed", "dependency", dep.String(), "error", err, "unapproved", ce.Unapproved)
				continue
			}
			e.log.Debugw("license check failed", "dependency", dep.String(), "error", err)
		}
		dep.PassedLicense = data.OutcomeFromBool(len(errs) == 0)
	}

	e.log.Debugw("dependency evaluated",
		"dependency", dep.String(),
		"score", score,
		"score_outcome", dep.PassedScore,
		"license_outcome", dep.PassedLicense,
	)
	return dep
}

// Summary counts overall failures.
type Summary struct {
	Total  int
	Failed int
}

// Passed reports whether no dependency failed.
func (s Summary) Passed() bool {
	return s.Failed == 0
}

// Summarize counts the dependencies that failed at least one check.
func Summarize(deps []data.Dependency) Summary {
	s := Summary{Total: len(deps)}
	for _, d := range deps {
		if !d.Passed() {
			s.Failed++
		}
	}
	return s
}

// FailedOnly returns the dependencies that failed at least one check,
// preserving order.
func FailedOnly(deps []data.Dependency) []data.Dependency {
	var out []data.Dependency
	for _, d := range deps {
		if !d.Passed() {
			out = append(out, d)
		}
	}
	return out
}
