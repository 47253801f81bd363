package policy

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"cdcheck/internal/data"
	"cdcheck/internal/spdx"
)

// ErrMissingLicense is reported when a dependency has no declared license,
// either because nothing was fetched or because the record has none.
var ErrMissingLicense = errors.New("Missing license information")

// Kind enumerates the built-in license checks.
type Kind int

const (
	KindOSIApproved Kind = iota
	KindApprovedLicenses
)

func (k Kind) String() string {
	switch k {
	case KindOSIApproved:
		return "osi-approved"
	case KindApprovedLicenses:
		return "approved-licenses"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// LicenseCheck is a single license predicate. Licenses is only used by
// KindApprovedLicenses and holds canonical SPDX identifiers.
type LicenseCheck struct {
	Kind     Kind
	Licenses []string
}

// OSIApproved passes expressions satisfiable with OSI-approved licenses only.
func OSIApproved() LicenseCheck {
	return LicenseCheck{Kind: KindOSIApproved}
}

// ApprovedLicenses passes expressions satisfiable with the given identifiers.
func ApprovedLicenses(ids []string) LicenseCheck {
	return LicenseCheck{Kind: KindApprovedLicenses, Licenses: append([]string(nil), ids...)}
}

func (c LicenseCheck) String() string {
	if c.Kind == KindApprovedLicenses {
		return fmt.Sprintf("%s(%s)", c.Kind, strings.Join(c.Licenses, ","))
	}
	return c.Kind.String()
}

// CheckError names the expression a check rejected.
type CheckError struct {
	Kind       Kind
	Expression string
	// Unapproved lists the license references in Expression that the check
	// does not accept.
	Unapproved []string
}

func (e *CheckError) Error() string {
	if e.Kind == KindApprovedLicenses {
		return fmt.Sprintf("%s is not an approved license", e.Expression)
	}
	return fmt.Sprintf("%s is not OSI approved", e.Expression)
}

// Check returns nil when expr satisfies the check, otherwise a *CheckError.
// License references outside the SPDX catalog never satisfy a check.
func (c LicenseCheck) Check(expr *spdx.Expression) error {
	var ok bool
	switch c.Kind {
	case KindOSIApproved:
		ok = expr.Satisfies(spdx.OSIApproved())
	case KindApprovedLicenses:
		ok = expr.Satisfies(c.Licenses)
	default:
		return fmt.Errorf("unknown license check kind: %d", int(c.Kind))
	}
	if ok {
		return nil
	}
	return &CheckError{Kind: c.Kind, Expression: expr.String(), Unapproved: c.unapproved(expr)}
}

func (c LicenseCheck) unapproved(expr *spdx.Expression) []string {
	var out []string
	for _, ref := range expr.Licenses() {
		id, _, _ := strings.Cut(ref, " WITH ")
		var ok bool
		switch c.Kind {
		case KindOSIApproved:
			ok = spdx.IsOSIApproved(id)
		case KindApprovedLicenses:
			ok = slices.ContainsFunc(c.Licenses, func(l string) bool { return strings.EqualFold(l, id) })
		}
		if !ok {
			out = append(out, ref)
		}
	}
	return out
}

// TestLicense runs every check against the dependency's declared license and
// returns all failures. A missing license or a parse error is returned alone
// and no checks run.
func TestLicense(dep data.Dependency, lax bool, checks []LicenseCheck) []error {
	license, ok := dep.DeclaredLicense()
	if !ok {
		return []error{ErrMissingLicense}
	}

	expr, err := license.Expression(lax)
	if err != nil {
		return []error{err}
	}

	var errs []error
	for _, c := range checks {
		if err := c.Check(expr); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}
