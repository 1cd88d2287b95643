package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/schlarpc/nixos-scaleway/pkg/globalconfig"
)

// newInitCmd creates the init subcommand
func newInitCmd() *cobra.Command {
	var region, instanceType, secretKey string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Store workstation defaults",
		Long: `Write the workstation config at ~/.config/nixos-scaleway/config.yaml with
the default zone and instance type for builds.

Passing --secret-key stores the key in the config file. Without it, builds
read the key from SCW_SECRET_KEY or from a secrets.env file beside the
config.

Examples:
  nixos-scaleway init
  nixos-scaleway init --region nl-ams-1 --instance-type DEV1-L
  nixos-scaleway init --secret-key 11111111-2222-3333-4444-555555555555`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runInit(region, instanceType, secretKey)
		},
	}

	cmd.Flags().StringVar(&region, "region", "fr-par-1", "default zone for builds")
	cmd.Flags().StringVar(&instanceType, "instance-type", "DEV1-M", "default commercial type for build servers")
	cmd.Flags().StringVar(&secretKey, "secret-key", "", "Scaleway secret key to store (optional)")

	return cmd
}

// runInit writes the config, preserving a previously stored secret key.
func runInit(region, instanceType, secretKey string) error {
	cfg, err := globalconfig.LoadOrCreate()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	cfg.DefaultZone = region
	cfg.DefaultInstanceType = instanceType
	if secretKey != "" {
		cfg.SecretKey = secretKey
	}

	if err := cfg.Save(); err != nil {
		return err
	}

	path, err := globalconfig.GetConfigPath()
	if err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", path)
	if cfg.SecretKey == "" {
		fmt.Println("No secret key stored; builds will use --secret-key, SCW_SECRET_KEY, or secrets.env.")
	}
	return nil
}
