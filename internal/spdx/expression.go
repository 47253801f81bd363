package spdx

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/github/go-spdx/v2/spdxexp"
)

// Mode selects how strictly a license string is interpreted.
type Mode int

const (
	// Strict accepts only well-formed SPDX expressions with upper-case operators.
	Strict Mode = iota
	// Lax additionally accepts "/" as OR, lower-case operators and a set of
	// common imprecise license names.
	Lax
)

// ModeFor maps the --lax flag onto a parse mode.
func ModeFor(lax bool) Mode {
	if lax {
		return Lax
	}
	return Strict
}

func (m Mode) String() string {
	if m == Lax {
		return "lax"
	}
	return "strict"
}

// ParseError reports a license string that is not a valid expression under the
// requested mode.
type ParseError struct {
	Raw    string
	Mode   Mode
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid license expression %q (%s): %s", e.Raw, e.Mode, e.Reason)
}

// Expression is a parsed SPDX license expression.
type Expression struct {
	text     string
	eval     string
	licenses []string
}

// Parse validates raw under mode and returns the parsed expression.
func Parse(raw string, mode Mode) (*Expression, error) {
	src := raw
	if mode == Lax {
		src = replaceImpreciseNames(src)
	}

	toks := tokenize(src)
	if len(toks) == 0 {
		return nil, &ParseError{Raw: raw, Mode: mode, Reason: "empty expression"}
	}

	if mode == Lax {
		toks = laxTokens(toks)
	} else if reason := checkStrict(toks); reason != "" {
		return nil, &ParseError{Raw: raw, Mode: mode, Reason: reason}
	}

	text := joinTokens(toks)
	licenses, err := spdxexp.ExtractLicenses(text)
	if err != nil {
		return nil, &ParseError{Raw: raw, Mode: mode, Reason: err.Error()}
	}

	return &Expression{
		text:     text,
		eval:     joinTokens(stripExceptions(toks)),
		licenses: licenses,
	}, nil
}

// String returns the expression text as it was evaluated.
func (e *Expression) String() string {
	if e == nil {
		return ""
	}
	return e.text
}

// Licenses returns the distinct license references in the expression.
func (e *Expression) Licenses() []string {
	if e == nil {
		return nil
	}
	out := make([]string, len(e.licenses))
	copy(out, e.licenses)
	return out
}

// Satisfies reports whether the expression evaluates to true when every leaf
// license identifier in allowed is true and every other leaf is false.
// Exceptions attached with WITH are not part of the leaf predicate.
func (e *Expression) Satisfies(allowed []string) bool {
	if e == nil || len(allowed) == 0 {
		return false
	}
	ok, err := spdxexp.Satisfies(e.eval, allowed)
	if err != nil {
		return false
	}
	return ok
}

func tokenize(raw string) []string {
	var out []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
	}
	for _, r := range raw {
		switch {
		case unicode.IsSpace(r):
			flush()
		case r == '(' || r == ')':
			flush()
			out = append(out, string(r))
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return out
}

func operator(tok string) (string, bool) {
	switch up := strings.ToUpper(tok); up {
	case "AND", "OR", "WITH":
		return up, true
	}
	return "", false
}

func checkStrict(toks []string) string {
	for _, t := range toks {
		if up, ok := operator(t); ok && up != t {
			return fmt.Sprintf("operator %q must be upper-case", t)
		}
		if strings.Contains(t, "/") {
			return fmt.Sprintf("%q: \"/\" is not an SPDX operator", t)
		}
	}
	return ""
}

func laxTokens(toks []string) []string {
	out := make([]string, 0, len(toks))
	for _, t := range toks {
		if up, ok := operator(t); ok {
			out = append(out, up)
			continue
		}
		if !strings.Contains(t, "/") {
			out = append(out, t)
			continue
		}

		var parts []string
		for _, p := range strings.Split(t, "/") {
			if p != "" {
				parts = append(parts, p)
			}
		}
		if len(parts) == 0 {
			continue
		}
		grouped := len(parts) > 1 && len(toks) > 1
		if grouped {
			out = append(out, "(")
		}
		for i, p := range parts {
			if i > 0 {
				out = append(out, "OR")
			}
			out = append(out, p)
		}
		if grouped {
			out = append(out, ")")
		}
	}
	return out
}

func stripExceptions(toks []string) []string {
	out := make([]string, 0, len(toks))
	for i := 0; i < len(toks); i++ {
		if toks[i] == "WITH" {
			i++
			continue
		}
		out = append(out, toks[i])
	}
	return out
}

func joinTokens(toks []string) string {
	var b strings.Builder
	for i, t := range toks {
		if i > 0 && t != ")" && toks[i-1] != "(" {
			b.WriteByte(' ')
		}
		b.WriteString(t)
	}
	return b.String()
}
