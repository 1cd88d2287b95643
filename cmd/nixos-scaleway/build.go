package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/schlarpc/nixos-scaleway/pkg/builder"
	"github.com/schlarpc/nixos-scaleway/pkg/globalconfig"
	"github.com/schlarpc/nixos-scaleway/pkg/scaleway"
	"github.com/schlarpc/nixos-scaleway/pkg/tui"
)

// newBuildCmd creates the build subcommand
func newBuildCmd() *cobra.Command {
	var (
		secretKey     string
		region        string
		instanceType  string
		diskSize      int
		imagePrefix   string
		binaryPath    string
		keepOnFailure bool
		plain         bool
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build a NixOS image on a throwaway Scaleway server",
		Long: `Boot an Ubuntu server with a second volume, run the bootstrap procedure
on it over SSH, snapshot the NixOS volume once the server powers itself
off, and register the snapshot as a bootable image. The server is
terminated afterwards.

The secret key is taken from --secret-key, the SCW_SECRET_KEY environment
variable, secrets.env beside the workstation config, or the config itself,
in that order.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := builder.DefaultOptions()
			if cfg, err := globalconfig.LoadOrCreate(); err == nil {
				opts.Zone = cfg.DefaultZone
				opts.InstanceType = cfg.DefaultInstanceType
			}
			// Explicit flags outrank the stored defaults.
			if cmd.Flags().Changed("region") {
				opts.Zone = region
			}
			if cmd.Flags().Changed("instance-type") {
				opts.InstanceType = instanceType
			}
			opts.BootstrapDiskGB = diskSize
			opts.ImagePrefix = imagePrefix
			opts.BootstrapBinary = binaryPath
			opts.KeepOnFailure = keepOnFailure

			key, err := globalconfig.ResolveSecretKey(secretKey)
			if err != nil {
				return err
			}

			return runBuild(cmd.Context(), key, opts, plain)
		},
	}

	cmd.Flags().StringVar(&secretKey, "secret-key", "", "Scaleway secret key (default SCW_SECRET_KEY or the stored config)")
	cmd.Flags().StringVar(&region, "region", "fr-par-1", "zone to build in")
	cmd.Flags().StringVar(&instanceType, "instance-type", "DEV1-M", "commercial type of the build server")
	cmd.Flags().IntVar(&diskSize, "bootstrap-disk-size", 20, "build server boot disk size in GB")
	cmd.Flags().StringVar(&imagePrefix, "image-prefix", "nixos", "name prefix for the resulting image")
	cmd.Flags().StringVar(&binaryPath, "binary", "", "linux build of this binary to upload (default the running executable)")
	cmd.Flags().BoolVar(&keepOnFailure, "keep-on-failure", false, "keep the build server around when the build fails")
	cmd.Flags().BoolVar(&plain, "plain", false, "line-based progress instead of the interactive display")

	return cmd
}

// runBuild drives one image build with either the interactive progress
// display or plain log lines.
func runBuild(ctx context.Context, secretKey string, opts builder.Options, plain bool) error {
	api := scaleway.New(secretKey)

	var result *builder.Result
	var err error
	if !plain && isatty.IsTerminal(os.Stdout.Fd()) {
		// The builder's own logger stays quiet; the model renders events.
		quiet := logrus.New()
		quiet.SetOutput(io.Discard)
		b := builder.New(api, logrus.NewEntry(quiet))
		result, err = tui.Run(b.Build, opts)
	} else {
		log := newTranscriptLogger()
		b := builder.New(api, logrus.NewEntry(log))
		result, err = b.Build(ctx, opts, plainProgress(log))
	}
	if err != nil {
		return err
	}
	if result == nil || !result.Success {
		if result != nil && result.Error != nil {
			return result.Error
		}
		return fmt.Errorf("build failed")
	}

	fmt.Printf("\n%s Image %s ready (image %s, snapshot %s) in %s\n",
		tui.SuccessStyle.Render("✓"),
		result.ImageName, result.ImageID, result.SnapshotID,
		result.Duration.Round(time.Second))
	return nil
}

// plainProgress renders progress events as log lines. Bootstrap output
// lines are skipped because the builder's logger already carries them.
func plainProgress(log *logrus.Logger) builder.ProgressCallback {
	return func(e builder.ProgressEvent) {
		switch {
		case e.IsError:
			log.Error(e.Message)
		case e.Stage == builder.StageBootstrap && e.Detail != "":
			// transcript line, already logged
		case e.Detail != "":
			log.Infof("%s (%s)", e.Message, e.Detail)
		default:
			log.Info(e.Message)
		}
	}
}
