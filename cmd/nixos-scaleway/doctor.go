package main

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/schlarpc/nixos-scaleway/pkg/doctor"
	"github.com/schlarpc/nixos-scaleway/pkg/executor"
	"github.com/schlarpc/nixos-scaleway/pkg/tui"
)

// newDoctorCmd creates the doctor subcommand
func newDoctorCmd() *cobra.Command {
	var fix, verbose bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check that this host has the tools the bootstrap needs",
		Long: `Check for the external tools the bootstrap procedure shells out to
(apt-get, parted, udevadm, mkfs.ext4, mkfs.fat, mount, poweroff) and
report what is missing, with the command that would install it.

With --fix, run the install commands for the missing tools.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd.Context(), cmd.OutOrStdout(), fix, verbose)
		},
	}

	cmd.Flags().BoolVar(&fix, "fix", false, "install missing tools")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "show passing checks too")

	return cmd
}

// runDoctor renders the check report and optionally applies fixes.
func runDoctor(ctx context.Context, w io.Writer, fix, verbose bool) error {
	// The checks only probe versions; their transcript is noise here.
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)
	exec := executor.NewReal(logrus.NewEntry(quiet))

	checker := doctor.NewChecker(exec)
	groups := checker.CheckAllAsync(ctx)
	printDoctorReport(w, groups, verbose)

	summary := checker.GetSummary(groups)
	fmt.Fprintf(w, "%d checks: %d ok, %d missing, %d errors\n",
		summary.Total, summary.OK, summary.Missing, summary.Errors)

	if !checker.HasIssues(groups) {
		return nil
	}
	if !fix {
		return fmt.Errorf("missing tools; re-run with --fix or install them by hand")
	}

	// Fixes run apt-get, whose output is worth seeing.
	log := newTranscriptLogger()
	fixer := doctor.NewFixer(executor.NewReal(logrus.NewEntry(log)))
	fixed, err := fixer.FixAll(ctx, groups)
	if err != nil {
		return fmt.Errorf("fix failed after %d repair(s): %w", fixed, err)
	}
	fmt.Fprintf(w, "\nInstalled %d missing tool(s), re-checking...\n\n", fixed)

	groups = checker.CheckAllAsync(ctx)
	printDoctorReport(w, groups, verbose)
	if checker.HasIssues(groups) {
		return fmt.Errorf("tools still missing after fixes")
	}
	return nil
}

func printDoctorReport(w io.Writer, groups []doctor.CheckGroup, verbose bool) {
	for _, group := range groups {
		shown := false
		for _, check := range group.Checks {
			switch check.Status {
			case doctor.StatusOK:
				if !verbose {
					continue
				}
				if !shown {
					fmt.Fprintln(w, tui.TitleStyle.Render(group.Name))
					shown = true
				}
				fmt.Fprintf(w, "  %s %s: %s\n", tui.SuccessStyle.Render("✓"), check.Name, check.Message)
			case doctor.StatusMissing:
				if !shown {
					fmt.Fprintln(w, tui.TitleStyle.Render(group.Name))
					shown = true
				}
				fmt.Fprintf(w, "  %s %s: %s\n", tui.ErrorStyle.Render("✗"), check.Name, check.Message)
				if check.FixCommand != nil {
					fmt.Fprintf(w, "      fix: %s\n", check.FixCommand.Command)
				}
			default:
				if !shown {
					fmt.Fprintln(w, tui.TitleStyle.Render(group.Name))
					shown = true
				}
				fmt.Fprintf(w, "  %s %s: %s\n", tui.WarningStyle.Render("⚠"), check.Name, check.Message)
			}
		}
		if shown {
			fmt.Fprintln(w)
		}
	}
}
