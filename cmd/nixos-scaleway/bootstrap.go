package main

import (
	"errors"
	"os"
	"os/exec"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/schlarpc/nixos-scaleway/pkg/bootstrap"
	"github.com/schlarpc/nixos-scaleway/pkg/executor"
)

// newBootstrapCmd creates the bootstrap subcommand
func newBootstrapCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bootstrap",
		Short: "Install NixOS onto this machine's second disk",
		Long: `Run the provisioning procedure on the machine this command executes on:
install the disk tools, partition /dev/vdb, create and mount the
filesystems, install the Nix package manager, build the system closure,
install it onto the mounted disk, and power the machine off.

This is what the build server runs. It is destructive to /dev/vdb and not
meant for workstations. It takes no flags; the target is fixed.`,
		Args: cobra.NoArgs,
		RunE: runBootstrap,
	}
}

// runBootstrap executes the five-phase procedure, mirroring every command
// into a timestamped transcript. On failure the process exits with the
// failing tool's exit code.
func runBootstrap(cmd *cobra.Command, _ []string) error {
	log := newTranscriptLogger()
	entry := logrus.NewEntry(log)

	proc := bootstrap.New(bootstrap.DefaultConfig(), executor.NewReal(entry), entry)
	report, err := proc.Run(cmd.Context())
	if err != nil {
		entry.Error(err)
		os.Exit(exitCode(err))
	}

	entry.Infof("provisioning finished in %s, powering off",
		report.Finished.Sub(report.Started).Round(time.Second))
	return nil
}

// newTranscriptLogger returns the plain line logger used on the build
// server; there is no terminal there worth a richer display.
func newTranscriptLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return log
}

// exitCode maps a procedure failure to the process exit code, preserving
// the failing tool's status when there is one.
func exitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if code := exitErr.ExitCode(); code > 0 {
			return code
		}
	}
	return 1
}
