package data

import (
	"cmp"
	"slices"

	"github.com/Masterminds/semver/v3"
)

// Ecosystem identifies the package registry a dependency was resolved from.
type Ecosystem string

const (
	EcosystemCargo Ecosystem = "crate"
	EcosystemGo    Ecosystem = "go"
)

// Dependency is one resolved package plus its provenance record and the
// outcomes of the policy checks.
//
// PassedLicense and PassedScore stay OutcomeIgnore until the evaluator runs.
type Dependency struct {
	Name      string
	Version   *semver.Version
	Ecosystem Ecosystem

	ClearlyDefined *ClearlyDefined

	PassedLicense Outcome
	PassedScore   Outcome
}

// NewDependency returns an unevaluated dependency.
func NewDependency(name string, version *semver.Version, eco Ecosystem) Dependency {
	if eco == "" {
		eco = EcosystemCargo
	}
	return Dependency{
		Name:          name,
		Version:       version,
		Ecosystem:     eco,
		PassedLicense: OutcomeIgnore,
		PassedScore:   OutcomeIgnore,
	}
}

// VersionString returns the version as written in the lockfile.
func (d Dependency) VersionString() string {
	if d.Version == nil {
		return ""
	}
	if orig := d.Version.Original(); orig != "" {
		return orig
	}
	return d.Version.String()
}

func (d Dependency) String() string {
	return d.Name + "@" + d.VersionString()
}

// Score returns the selected score, or 0 when no provenance was fetched.
func (d Dependency) Score(st ScoreType) uint64 {
	return d.ClearlyDefined.Score(st)
}

// DeclaredLicense returns the declared license, if any.
func (d Dependency) DeclaredLicense() (License, bool) {
	if d.ClearlyDefined == nil || d.ClearlyDefined.DeclaredLicense == nil {
		return License{}, false
	}
	return *d.ClearlyDefined.DeclaredLicense, true
}

// Passed reports whether neither check failed.
func (d Dependency) Passed() bool {
	return Passed(d.PassedScore, d.PassedLicense)
}

// Equal compares identity only (name and version).
func (d Dependency) Equal(o Dependency) bool {
	return Compare(d, o) == 0
}

// Compare orders by name, then by version. A missing version sorts first.
func Compare(a, b Dependency) int {
	if c := cmp.Compare(a.Name, b.Name); c != 0 {
		return c
	}
	switch {
	case a.Version == nil && b.Version == nil:
		return 0
	case a.Version == nil:
		return -1
	case b.Version == nil:
		return 1
	}
	return a.Version.Compare(b.Version)
}

// Sort orders deps in place by Compare. The sort is stable.
func Sort(deps []Dependency) {
	slices.SortStableFunc(deps, Compare)
}
