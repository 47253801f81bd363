package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"cdcheck/internal/clearlydefined"
	"cdcheck/internal/data"
	"cdcheck/internal/output"
	"cdcheck/internal/spdx"
)

// DefaultFile is loaded from the input's directory when --config is not given.
const DefaultFile = ".cdcheck.yaml"

type Config struct {
	// MAINTAINER NOTE: If you add/change/remove config fields, keep these in sync:
	// - CLI flags in internal/cli/check.go
	// - the YAML file schema in internal/config/file.go
	Input   Input
	Policy  Policy
	Output  Output
	Runtime Runtime
}

type Input struct {
	// Path is the lockfile to read (see --input). Relative paths are resolved
	// against BaseDir.
	Path string

	// BaseDir is taken from CARGO_MANIFEST_DIR when set. Empty means the
	// working directory.
	BaseDir string

	// Exclude drops dependencies by name before anything is fetched (see --exclude).
	// Values may be provided as repeated flags and/or comma-separated lists.
	Exclude []string
}

type Policy struct {
	// Score is the minimum score to pass (see --score). 0 disables the score check column.
	Score uint64

	// ScoreType selects the score compared against Score (see --score-type).
	// Allowed values: effective, licensed.
	ScoreType string

	// Ignore exempts dependencies from both checks (see --ignore).
	Ignore []string

	// ApproveAll passes every license (see --approve-all).
	ApproveAll bool

	// ApproveOSI passes OSI-approved licenses (see --approve-osi).
	ApproveOSI bool

	// Approve lists accepted SPDX identifiers (see --approve). Validate
	// replaces each entry with its canonical identifier.
	Approve []string

	// Lax relaxes SPDX expression parsing (see --lax).
	Lax bool
}

type Output struct {
	// Format is the stdout report format (see --output-format).
	// Allowed values: text, csv, markdown, json.
	Format string

	// File additionally writes the report to a path (see --output-file).
	// The format is inferred from the extension.
	File string

	// Link adds provenance links or badges to the score column (see --link).
	Link bool

	// Failed shows only dependencies that failed a check (see --failed).
	Failed bool

	// Quiet suppresses the report and the no-policy hint (see --quiet).
	Quiet bool
}

type Runtime struct {
	// ConfigFile is an explicit YAML policy file (see --config).
	ConfigFile string

	// Concurrency bounds parallel provenance lookups (see --concurrency). Must be >= 1.
	Concurrency int

	// Timeout bounds the whole run (see --timeout). Must be > 0.
	Timeout time.Duration

	// KeepGoing records failed lookups as missing provenance instead of
	// aborting the run (see --keep-going).
	KeepGoing bool

	// Verbose is the -v count.
	Verbose int

	// APIURL is the provenance service root (see --api-url).
	APIURL string

	// Token authenticates to the provenance service (see --token).
	Token string
}

func New() *Config {
	return &Config{
		Input: Input{
			Path: "Cargo.lock",
		},
		Policy: Policy{
			Score:     80,
			ScoreType: "effective",
		},
		Output: Output{
			Format: "text",
		},
		Runtime: Runtime{
			Concurrency: 8,
			Timeout:     5 * time.Minute,
			APIURL:      clearlydefined.DefaultBaseURL,
		},
	}
}

func (c *Config) Validate() error {
	// Normalize comma-delimited list inputs.
	c.Input.Exclude = splitCommaList(c.Input.Exclude)
	c.Policy.Ignore = splitCommaList(c.Policy.Ignore)
	c.Policy.Approve = splitCommaList(c.Policy.Approve)

	if strings.TrimSpace(c.Input.Path) == "" {
		return errors.New("--input must not be empty")
	}

	// Policy validation
	c.Policy.ScoreType = normalizeEnumValue(c.Policy.ScoreType)
	if c.Policy.ScoreType == "" {
		c.Policy.ScoreType = string(data.ScoreEffective)
	}
	st, err := data.ParseScoreType(c.Policy.ScoreType)
	if err != nil {
		return fmt.Errorf("unsupported --score-type: %s (must be one of: effective, licensed)", c.Policy.ScoreType)
	}
	c.Policy.ScoreType = string(st)

	approved := make([]string, 0, len(c.Policy.Approve))
	for _, raw := range c.Policy.Approve {
		id, ok := spdx.LicenseID(raw)
		if !ok {
			return fmt.Errorf("unknown license: %s", raw)
		}
		approved = append(approved, id)
	}
	c.Policy.Approve = approved

	// Output validation
	c.Output.Format = normalizeEnumValue(c.Output.Format)
	if c.Output.Format == "" {
		return errors.New("--output-format must be one of: text, csv, markdown, json")
	}
	format, err := output.ParseFormat(c.Output.Format)
	if err != nil {
		return fmt.Errorf("unsupported --output-format: %s (must be one of: text, csv, markdown, json)", c.Output.Format)
	}
	c.Output.Format = string(format)

	if c.Output.Quiet && c.Runtime.Verbose > 0 {
		return errors.New("--quiet and --verbose are mutually exclusive")
	}

	// Runtime validation
	if c.Runtime.Concurrency <= 0 {
		return errors.New("--concurrency must be >= 1")
	}
	if c.Runtime.Timeout <= 0 {
		return errors.New("--timeout must be > 0")
	}
	u, err := url.Parse(strings.TrimSpace(c.Runtime.APIURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid --api-url: %q", c.Runtime.APIURL)
	}
	c.Runtime.APIURL = strings.TrimRight(u.String(), "/")

	return nil
}

// HasLicenseChecks reports whether any license policy was selected.
func (c *Config) HasLicenseChecks() bool {
	return c.Policy.ApproveAll || c.Policy.ApproveOSI || len(c.Policy.Approve) > 0
}

func normalizeEnumValue(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func splitCommaList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			p := strings.TrimSpace(part)
			if p == "" {
				continue
			}
			out = append(out, p)
		}
	}
	return out
}
