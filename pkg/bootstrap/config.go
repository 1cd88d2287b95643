// Package bootstrap implements the on-host provisioning procedure: five
// fail-fast phases that turn the secondary block device into a bootable
// NixOS disk and power the machine off.
package bootstrap

import (
	"os"

	"github.com/schlarpc/nixos-scaleway/pkg/disk"
	"github.com/schlarpc/nixos-scaleway/pkg/nix"
)

// Config carries every parameter the procedure reads. Phases receive it
// explicitly instead of reaching into process state, so a test can run the
// whole procedure against a scratch directory and a stub executor.
type Config struct {
	// Device is the block device that becomes the NixOS disk.
	Device string
	// MountPoint is where the new root filesystem tree is assembled.
	MountPoint string

	// Packages are installed on the bootstrap host before any disk work.
	Packages []string

	// ChannelURL and ChannelName pin the package set the system is built
	// from. The state version in the embedded configuration tracks the
	// same release.
	ChannelURL  string
	ChannelName string

	// InstallerURL is fetched over plain HTTP, per the pinned release's
	// install instructions; the script lands at InstallerPath.
	InstallerURL  string
	InstallerPath string

	// Build group and user required by the package manager.
	BuildGroup string
	BuildUser  string
	BuildID    int

	// SudoersFile is the policy file that lets the automation elevate
	// without prompting.
	SudoersFile string

	// SystemLink is the out-link left pointing at the built system
	// closure.
	SystemLink string

	// FragmentsDir optionally overrides the embedded configuration
	// fragments with a directory carried beside the binary. Empty means
	// embedded.
	FragmentsDir string

	// ByLabelDir is where filesystem labels resolve to device nodes.
	ByLabelDir string

	// Home, User and BasePath describe the invoking user, captured once
	// so the package-manager environment is explicit rather than
	// inherited.
	Home     string
	User     string
	BasePath string
}

// DefaultConfig returns the fixed-target configuration. The device path,
// channel and partition spans are constants of the procedure, not tunables;
// parameterizing them would let the disk layout drift away from the labels
// the embedded fragments mount.
func DefaultConfig() Config {
	home := os.Getenv("HOME")
	if home == "" {
		home = "/root"
	}
	user := os.Getenv("USER")
	if user == "" {
		user = "root"
	}

	return Config{
		Device:        "/dev/vdb",
		MountPoint:    "/mnt",
		Packages:      []string{"parted", "dosfstools", "e2fsprogs"},
		ChannelURL:    "https://nixos.org/channels/nixos-20.03",
		ChannelName:   "nixos",
		InstallerURL:  "http://nixos.org/nix/install",
		InstallerPath: "/tmp/nix-install",
		BuildGroup:    "nixbld",
		BuildUser:     "nixbld",
		BuildID:       30000,
		SudoersFile:   "/etc/sudoers.d/nixos-bootstrap",
		SystemLink:    "/tmp/nixos-system",
		ByLabelDir:    disk.ByLabelDir,
		Home:          home,
		User:          user,
		BasePath:      os.Getenv("PATH"),
	}
}

// ConfigDir is the target directory the fragments are copied into.
func (c Config) ConfigDir() string {
	return c.MountPoint + "/etc/nixos"
}

// ProfileBin is the invoking user's package-manager profile bin directory.
func (c Config) ProfileBin() string {
	return c.Home + "/.nix-profile/bin"
}

// Tools locates the package-manager binaries installed into the profile.
func (c Config) Tools() nix.Tools {
	return nix.Tools{BinDir: c.ProfileBin()}
}

// NixEnv is the explicit environment overlay for package-manager commands.
func (c Config) NixEnv() []string {
	return nix.Environment(c.Home, c.User, c.BasePath, c.ChannelName, c.ConfigDir()+"/configuration.nix")
}
