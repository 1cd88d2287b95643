// Package nixos provides the embedded NixOS configuration fragments that the
// installation phase copies onto the target filesystem.
package nixos

import _ "embed"

// Configuration is the top-level system configuration. It imports the two
// sibling fragments and pins the release the system state was created with;
// everything else lives in the siblings.
//
//go:embed configuration.nix
var Configuration string

// HardwareConfiguration declares the boot-time kernel modules and mounts the
// two filesystems the partitioning phases create, by label.
//
//go:embed hardware-configuration.nix
var HardwareConfiguration string

// Scaleway pulls in the QEMU guest profile and caps build parallelism to
// match the instance size.
//
//go:embed scaleway.nix
var Scaleway string
