package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/schlarpc/nixos-scaleway/pkg/bootstrap"
)

// newPlanCmd creates the plan subcommand
func newPlanCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show the provisioning plan without executing it",
		Long: `Print every phase of the bootstrap procedure with the exact commands it
would run, in order. The plan is rendered from the same command builders
the procedure executes, so it cannot drift from a real run.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPlan(cmd.OutOrStdout(), format)
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "output format (text or yaml)")

	return cmd
}

// runPlan renders the phase plan to w.
func runPlan(w io.Writer, format string) error {
	plans := bootstrap.DefaultConfig().Plan()

	switch format {
	case "yaml":
		data, err := yaml.Marshal(plans)
		if err != nil {
			return fmt.Errorf("failed to render plan: %w", err)
		}
		_, err = w.Write(data)
		return err

	case "text":
		for i, phase := range plans {
			fmt.Fprintf(w, "Phase %d: %s (%s -> %s)\n", i+1, phase.Name, phase.From, phase.To)
			for _, step := range phase.Steps {
				if step.Command != "" {
					fmt.Fprintf(w, "  $ %s\n", step.Command)
				} else {
					fmt.Fprintf(w, "  * %s\n", step.Action)
				}
			}
			fmt.Fprintln(w)
		}
		return nil

	default:
		return fmt.Errorf("unknown format %q (want text or yaml)", format)
	}
}
