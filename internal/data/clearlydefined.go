package data

import (
	"fmt"
	"strings"

	"cdcheck/internal/spdx"
)

// ScoreType selects which ClearlyDefined score a threshold applies to.
type ScoreType string

const (
	ScoreEffective ScoreType = "effective"
	ScoreLicensed  ScoreType = "licensed"
)

// ParseScoreType accepts "effective" or "licensed" (case-insensitive).
func ParseScoreType(raw string) (ScoreType, error) {
	switch st := ScoreType(strings.ToLower(strings.TrimSpace(raw))); st {
	case ScoreEffective, ScoreLicensed:
		return st, nil
	default:
		return "", fmt.Errorf("unsupported score type: %s (must be one of: effective, licensed)", raw)
	}
}

// License is a declared license string exactly as received from the
// provenance service. It is parsed on demand because the parse mode is a
// caller decision.
type License struct {
	Raw string
}

// Expression parses the license under the given mode.
func (l License) Expression(lax bool) (*spdx.Expression, error) {
	return spdx.Parse(l.Raw, spdx.ModeFor(lax))
}

// ClearlyDefined is the provenance record fetched for one dependency.
type ClearlyDefined struct {
	DeclaredLicense *License
	EffectiveScore  uint64
	LicensedScore   uint64
}

// NewClearlyDefined builds a record; an empty declared string means no license.
func NewClearlyDefined(declared string, effective, licensed uint64) *ClearlyDefined {
	cd := &ClearlyDefined{EffectiveScore: effective, LicensedScore: licensed}
	if declared != "" {
		cd.DeclaredLicense = &License{Raw: declared}
	}
	return cd
}

// Score returns the score selected by st.
func (cd *ClearlyDefined) Score(st ScoreType) uint64 {
	if cd == nil {
		return 0
	}
	if st == ScoreLicensed {
		return cd.LicensedScore
	}
	return cd.EffectiveScore
}
