package flags

// Package flags defines canonical CLI flag names shared by the CLI and the
// config file loader, which needs them to tell whether a flag was set.
// IMPORTANT: These are flag *names* without leading dashes.
// Example usage:
//
//	cmd.Flags().StringVarP(&cfg.Input.Path, flags.FlagInput, "i", "Cargo.lock", "...")
const (
	// Input
	FlagInput   = "input"
	FlagExclude = "exclude"

	// Policy
	FlagScore      = "score"
	FlagScoreType  = "score-type"
	FlagIgnore     = "ignore"
	FlagApproveAll = "approve-all"
	FlagApproveOSI = "approve-osi"
	FlagApprove    = "approve"
	FlagLax        = "lax"

	// Output
	FlagOutputFormat = "output-format"
	FlagOutputFile   = "output-file"
	FlagLink         = "link"
	FlagFailed       = "failed"
	FlagQuiet        = "quiet"
	FlagVerbose      = "verbose"

	// Runtime
	FlagConfig      = "config"
	FlagConcurrency = "concurrency"
	FlagTimeout     = "timeout"
	FlagKeepGoing   = "keep-going"
	FlagAPIURL      = "api-url"
	FlagToken       = "token"
)
