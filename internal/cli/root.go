package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	buildVersion = "dev"
	buildCommit  = "unknown"
	buildDate    = "unknown"
)

// exitCodeError carries a process exit code out of a command without printing
// anything further.
type exitCodeError struct {
	code int
}

func (e exitCodeError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "cdcheck",
		Short: "Check dependency licenses and provenance scores against a policy",
		Long: `cdcheck checks every dependency of a Cargo.lock (or go.mod) against
ClearlyDefined provenance data and a license/score policy.

Examples:
	# Check the lockfile in the current directory, approving OSI licenses
	cdcheck check --approve-osi

	# Markdown report with badges, only failing dependencies
	cdcheck check --approve-osi -o markdown --link --failed

	# List the OSI-approved license catalog
	cdcheck licenses osi

	# Print build info
	cdcheck version`,
		SilenceErrors: true,
	}
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", errUsage, err)
	})

	root.AddCommand(newCheckCmd())
	root.AddCommand(newLicensesCmd())
	root.AddCommand(newVersionCmd())
	return root
}

var rootCmd = newRootCmd()

func SetBuildInfo(version, commit, date string) {
	if version != "" {
		buildVersion = version
	}
	if commit != "" {
		buildCommit = commit
	}
	if date != "" {
		buildDate = date
	}

	rootCmd.Version = fmt.Sprintf("%s (%s) %s", buildVersion, buildCommit, buildDate)
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

func BuildInfo() (version, commit, date string) {
	return buildVersion, buildCommit, buildDate
}

// errUsage marks flag parsing failures.
var errUsage = errors.New("usage error")

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	return execute(rootCmd)
}

func execute(cmd *cobra.Command) int {
	err := cmd.Execute()
	if err == nil {
		return 0
	}
	var ec exitCodeError
	if errors.As(err, &ec) {
		return ec.code
	}
	// Anything other than an engine result is a usage or configuration
	// error; exit 1 is reserved for dependencies that failed a check.
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
	return 3
}
