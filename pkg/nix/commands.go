// Package nix assembles the package-manager invocations the provisioning
// phases run, and fetches the installer that puts the package manager on the
// bootstrap host in the first place.
package nix

import (
	"path/filepath"

	"github.com/schlarpc/nixos-scaleway/pkg/executor"
)

// installToolsExpr evaluates the NixOS module system against an empty
// configuration and picks the installer out of its build products, so the
// bootstrap host gets nixos-install without dragging in a full system
// profile.
const installToolsExpr = `_: with import <nixpkgs/nixos> { configuration = {}; }; with config.system.build; [ nixos-install ]`

// InstallScript runs the downloaded installer script through sh.
func InstallScript(path string) executor.Command {
	return executor.Command{Path: "sh", Args: []string{path}}
}

// Tools invokes the package manager out of an installed profile. The
// installer script never touches this process's search path, so BinDir
// locates the tools explicitly; an empty BinDir falls back to plain command
// names.
type Tools struct {
	BinDir string
}

func (t Tools) tool(name string) string {
	if t.BinDir == "" {
		return name
	}
	return filepath.Join(t.BinDir, name)
}

// ChannelAdd subscribes the channel at url under name.
func (t Tools) ChannelAdd(url, name string) executor.Command {
	return executor.Command{Path: t.tool("nix-channel"), Args: []string{"--add", url, name}}
}

// ChannelUpdate fetches the subscribed channels.
func (t Tools) ChannelUpdate() executor.Command {
	return executor.Command{Path: t.tool("nix-channel"), Args: []string{"--update"}}
}

// InstallTools installs the OS installer into the current profile.
func (t Tools) InstallTools() executor.Command {
	return executor.Command{Path: t.tool("nix-env"), Args: []string{"-iE", installToolsExpr}}
}

// BuildSystem evaluates and builds the system closure, leaving outLink
// pointing at it. Running this separately from the installer means an
// evaluation error surfaces before the installer touches the target.
func (t Tools) BuildSystem(outLink string) executor.Command {
	return executor.Command{Path: t.tool("nix-build"), Args: []string{"<nixpkgs/nixos>", "-A", "system", "-o", outLink}}
}

// InstallSystem installs the prebuilt closure onto the filesystem mounted at
// root without prompting for a root password.
func (t Tools) InstallSystem(root, system string) executor.Command {
	return executor.Command{Path: t.tool("nixos-install"), Args: []string{"--root", root, "--system", system, "--no-root-passwd"}}
}
