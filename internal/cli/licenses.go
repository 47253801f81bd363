package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"cdcheck/internal/spdx"
)

func newLicensesCmd() *cobra.Command {
	var quiet bool

	licensesCmd := &cobra.Command{
		Use:   "licenses",
		Short: "Inspect the SPDX license catalog",
		Long: `Inspect the SPDX license catalog used by "cdcheck check".

Examples:
  # List OSI-approved licenses (what --approve-osi accepts)
  cdcheck licenses osi

  # Resolve an identifier for use with --approve
  cdcheck licenses show apache-2.0
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	osiCmd := &cobra.Command{
		Use:   "osi",
		Short: "List OSI-approved licenses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			printOSI(cmd.OutOrStdout(), spdx.OSIApproved(), quiet)
			return nil
		},
	}
	osiCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Only print license identifiers")

	showCmd := &cobra.Command{
		Use:   "show [license-id]",
		Short: "Show the canonical identifier and OSI status of a license",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, ok := spdx.LicenseID(args[0])
			if !ok {
				return fmt.Errorf("unknown license: %s", args[0])
			}
			printLicense(cmd.OutOrStdout(), id)
			return nil
		},
	}

	licensesCmd.AddCommand(osiCmd, showCmd)
	return licensesCmd
}

func printOSI(w io.Writer, ids []string, quiet bool) {
	if !quiet {
		color.New(color.Bold).Fprintf(w, "OSI-approved licenses (%d)\n", len(ids))
	}
	for _, id := range ids {
		fmt.Fprintln(w, id)
	}
}

func printLicense(w io.Writer, id string) {
	bold := color.New(color.Bold)
	fmt.Fprintln(w, "----------------------------------------")
	bold.Fprintf(w, "LICENSE: %s\n", id)
	fmt.Fprintln(w, "----------------------------------------")
	osi := "no"
	if spdx.IsOSIApproved(id) {
		osi = "yes"
	}
	fmt.Fprintf(w, "OSI approved: %s\n", osi)
	fmt.Fprintf(w, "Approve with: --approve %s\n", id)
	fmt.Fprintln(w)
}
