// Package main provides the nixos-scaleway CLI for building bootable NixOS
// images on Scaleway.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set via -ldflags during build
var version = "dev"

func main() {
	rootCmd := newRootCmd()

	// Cobra handles error printing
	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCmd creates the root command for nixos-scaleway
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "nixos-scaleway",
		Short: "Build NixOS images for Scaleway",
		Long: `nixos-scaleway builds bootable NixOS disk images on Scaleway.

It boots a throwaway Ubuntu server with a second volume attached, runs its
own binary there over SSH to install NixOS onto that volume, then snapshots
the volume and registers the snapshot as a bootable image.

Typical use:
  nixos-scaleway init --secret-key <key>   # store workstation defaults
  nixos-scaleway build                     # build an image
  nixos-scaleway bootstrap                 # what the build server runs`,
		Version: version,
	}

	rootCmd.AddCommand(
		newBuildCmd(),
		newBootstrapCmd(),
		newPlanCmd(),
		newDoctorCmd(),
		newValidateCmd(),
		newInitCmd(),
		newVersionCmd(),
	)

	return rootCmd
}

// newVersionCmd creates the version subcommand
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "nixos-scaleway %s\n", version)
		},
	}
}
