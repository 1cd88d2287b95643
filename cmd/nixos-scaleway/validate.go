package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/schlarpc/nixos-scaleway/nixos"
)

// newValidateCmd creates the validate subcommand
func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the embedded NixOS configuration fragments",
		Long: `Check the three embedded configuration fragments against the contract the
installer assumes: the import graph, the state version, and the by-label
filesystem declarations matching the partition labels the procedure
creates.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runValidate(cmd.OutOrStdout())
		},
	}
}

// runValidate reports fragment issues and fails when any are errors.
func runValidate(w io.Writer) error {
	result := nixos.Verify()

	errors := 0
	for _, issue := range result.Issues {
		prefix := "WARNING"
		if issue.Severity == nixos.SeverityError {
			prefix = "ERROR"
			errors++
		}
		if issue.Fragment != "" {
			fmt.Fprintf(w, "[%s] %s: %s\n", prefix, issue.Fragment, issue.Message)
		} else {
			fmt.Fprintf(w, "[%s] %s\n", prefix, issue.Message)
		}
	}

	if result.HasErrors() {
		return fmt.Errorf("validation failed with %d error(s)", errors)
	}

	if len(result.Issues) == 0 {
		fmt.Fprintln(w, "All configuration fragments are valid.")
	} else {
		fmt.Fprintf(w, "\nValidation passed with %d warning(s).\n", len(result.Issues))
	}

	return nil
}
