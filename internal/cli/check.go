package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"cdcheck/internal/config"
	"cdcheck/internal/engine"
	"cdcheck/internal/flags"
	"cdcheck/internal/lockfile"
	"cdcheck/internal/logging"
)

// ManifestDirEnv is set by cargo when running as a subcommand; relative
// inputs are resolved against it.
const ManifestDirEnv = "CARGO_MANIFEST_DIR"

const checkLong = `Check every dependency of a lockfile against ClearlyDefined provenance data.

Each dependency gets two verdicts:
  - license: its declared SPDX expression must satisfy the selected license
    policy (--approve-osi, --approve, --approve-all).
  - score: its ClearlyDefined score must be at least --score.
Dependencies named with --ignore are exempt from both.

Input:
  Cargo.lock and go.mod files are supported. A relative --input is resolved
  against $CARGO_MANIFEST_DIR when set, else the working directory.

Configuration file:
  Policy settings may also be given in YAML (--config, or .cdcheck.yaml next
  to the input when present). Flags given on the command line win.

Authentication:
  The ClearlyDefined API is public. A token may be supplied with --token or
  the CLEARLYDEFINED_TOKEN environment variable.

Exit codes:
	0 = every dependency passed
	1 = at least one dependency failed a check
	2 = partial run (lookups skipped with --keep-going)
	3 = fatal error (configuration, input or fetch failure)

Examples:
  # OSI-approved licenses and a minimum score of 75
  cdcheck check --approve-osi --score 75

  # Explicit allow-list, CSV report written to a file as well
  cdcheck check -L MIT -L Apache-2.0 -o csv --output-file deps.csv

  # Go modules, lax license parsing, skip over lookup failures
  cdcheck check -i go.mod --approve-osi --lax --keep-going
`

func newCheckCmd() *cobra.Command {
	cfg := config.New()

	cmd := &cobra.Command{
		Use:          "check",
		Short:        "Check dependencies against a license and score policy",
		Long:         checkLong,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			code := runCheck(cmd, cfg, os.Getenv(ManifestDirEnv))
			if code != 0 {
				return exitCodeError{code: code}
			}
			return nil
		},
	}

	// MAINTAINER NOTE: If you add/change/remove flags here, keep the YAML
	// schema in internal/config/file.go in sync.
	f := cmd.Flags()

	// Input
	f.StringVarP(&cfg.Input.Path, flags.FlagInput, "i", cfg.Input.Path, "Lockfile to check (Cargo.lock or go.mod)")
	f.StringSliceVarP(&cfg.Input.Exclude, flags.FlagExclude, "x", nil, "Dependency names to drop before checking (repeatable; comma-separated accepted)")

	// Policy
	f.Uint64VarP(&cfg.Policy.Score, flags.FlagScore, "s", cfg.Policy.Score, "Minimum score to pass (0 disables the score check)")
	f.StringVarP(&cfg.Policy.ScoreType, flags.FlagScoreType, "t", cfg.Policy.ScoreType, "Score compared against --score: effective|licensed")
	f.StringSliceVarP(&cfg.Policy.Ignore, flags.FlagIgnore, "n", nil, "Dependency names exempt from both checks (repeatable; comma-separated accepted)")
	f.BoolVar(&cfg.Policy.ApproveAll, flags.FlagApproveAll, false, "Approve every license")
	f.BoolVar(&cfg.Policy.ApproveOSI, flags.FlagApproveOSI, false, "Approve OSI-approved licenses")
	f.StringSliceVarP(&cfg.Policy.Approve, flags.FlagApprove, "L", nil, "Approve an SPDX license identifier (repeatable; comma-separated accepted)")
	f.BoolVar(&cfg.Policy.Lax, flags.FlagLax, false, "Accept imprecise license expressions (\"/\" as OR, lower-case operators, common names)")

	// Output
	f.StringVarP(&cfg.Output.Format, flags.FlagOutputFormat, "o", cfg.Output.Format, "Report format: text|csv|markdown|json")
	f.StringVar(&cfg.Output.File, flags.FlagOutputFile, "", "Also write the report to this path (format inferred from the extension)")
	f.BoolVarP(&cfg.Output.Link, flags.FlagLink, "l", false, "Link scores to their ClearlyDefined page (badges in markdown)")
	f.BoolVarP(&cfg.Output.Failed, flags.FlagFailed, "f", false, "Only report dependencies that failed a check")
	f.BoolVarP(&cfg.Output.Quiet, flags.FlagQuiet, "q", false, "Suppress the report; only the exit code reflects the result")
	f.CountVarP(&cfg.Runtime.Verbose, flags.FlagVerbose, "v", "Increase log verbosity (-v info, -vv debug with API calls)")

	// Runtime
	f.StringVar(&cfg.Runtime.ConfigFile, flags.FlagConfig, "", "YAML policy file (default: "+config.DefaultFile+" next to the input, if present)")
	f.IntVar(&cfg.Runtime.Concurrency, flags.FlagConcurrency, cfg.Runtime.Concurrency, "Concurrent provenance lookups")
	f.DurationVar(&cfg.Runtime.Timeout, flags.FlagTimeout, cfg.Runtime.Timeout, "Global timeout")
	f.BoolVar(&cfg.Runtime.KeepGoing, flags.FlagKeepGoing, false, "Treat failed lookups as missing provenance instead of aborting")
	f.StringVar(&cfg.Runtime.APIURL, flags.FlagAPIURL, cfg.Runtime.APIURL, "ClearlyDefined API root")
	f.StringVar(&cfg.Runtime.Token, flags.FlagToken, "", "ClearlyDefined access token (default: $CLEARLYDEFINED_TOKEN)")

	return cmd
}

// runCheck loads the optional policy file, validates cfg and runs the engine.
func runCheck(cmd *cobra.Command, cfg *config.Config, manifestDir string) int {
	stderr := cmd.ErrOrStderr()

	if cfg.Input.BaseDir == "" {
		cfg.Input.BaseDir = manifestDir
	}

	if err := applyConfigFile(cmd, cfg); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 3
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 3
	}

	log := logging.New(cfg.Runtime.Verbose, cfg.Output.Quiet, stderr)
	defer func() { _ = log.Sync() }()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	eng, err := engine.NewEngine(ctx, cfg, log)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 3
	}
	eng.Stdout = cmd.OutOrStdout()
	eng.Stderr = stderr
	return eng.Run(ctx, cfg)
}

func applyConfigFile(cmd *cobra.Command, cfg *config.Config) error {
	var (
		file *config.File
		err  error
	)
	if cfg.Runtime.ConfigFile != "" {
		file, err = config.LoadFile(cfg.Runtime.ConfigFile)
	} else {
		file, err = config.LoadOptionalFile(defaultConfigPath(cfg))
	}
	if err != nil {
		return err
	}
	file.ApplyTo(cfg, cmd.Flags().Changed)
	return nil
}

func defaultConfigPath(cfg *config.Config) string {
	input, err := lockfile.ResolveInput(cfg.Input.Path, cfg.Input.BaseDir)
	if err != nil {
		return config.DefaultFile
	}
	return filepath.Join(filepath.Dir(input), config.DefaultFile)
}
