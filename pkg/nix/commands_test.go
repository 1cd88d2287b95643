package nix

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInstallScript(t *testing.T) {
	cmd := InstallScript("/tmp/nix-install")
	assert.Equal(t, "sh", cmd.Path)
	assert.Equal(t, []string{"/tmp/nix-install"}, cmd.Args)
}

func TestToolsResolveAgainstProfile(t *testing.T) {
	tools := Tools{BinDir: "/root/.nix-profile/bin"}

	assert.Equal(t, "/root/.nix-profile/bin/nix-channel", tools.ChannelAdd("x", "y").Path)
	assert.Equal(t, "/root/.nix-profile/bin/nix-channel", tools.ChannelUpdate().Path)
	assert.Equal(t, "/root/.nix-profile/bin/nix-env", tools.InstallTools().Path)
	assert.Equal(t, "/root/.nix-profile/bin/nix-build", tools.BuildSystem("/tmp/system").Path)
	assert.Equal(t, "/root/.nix-profile/bin/nixos-install", tools.InstallSystem("/mnt", "/tmp/system").Path)
}

func TestToolsFallBackToBareNames(t *testing.T) {
	tools := Tools{}
	assert.Equal(t, "nix-build", tools.BuildSystem("/tmp/system").Path)
}

func TestChannelCommands(t *testing.T) {
	tools := Tools{}

	add := tools.ChannelAdd("https://nixos.org/channels/nixos-20.03", "nixos")
	assert.Equal(t, []string{"--add", "https://nixos.org/channels/nixos-20.03", "nixos"}, add.Args)

	update := tools.ChannelUpdate()
	assert.Equal(t, []string{"--update"}, update.Args)
}

func TestInstallToolsExpression(t *testing.T) {
	cmd := Tools{}.InstallTools()
	assert.Equal(t, "-iE", cmd.Args[0])
	assert.Contains(t, cmd.Args[1], "nixos-install")
	assert.Contains(t, cmd.Args[1], "configuration = {}")
}

func TestBuildSystem(t *testing.T) {
	cmd := Tools{}.BuildSystem("/tmp/nixos-system")
	assert.Equal(t, []string{"<nixpkgs/nixos>", "-A", "system", "-o", "/tmp/nixos-system"}, cmd.Args)
}

func TestInstallSystem(t *testing.T) {
	cmd := Tools{}.InstallSystem("/mnt", "/tmp/nixos-system")
	assert.Equal(t, []string{"--root", "/mnt", "--system", "/tmp/nixos-system", "--no-root-passwd"}, cmd.Args)
}

func TestEnvironment(t *testing.T) {
	env := Environment("/root", "root", "/usr/bin:/bin", "nixos", "/mnt/etc/nixos/configuration.nix")

	assert.Contains(t, env, "HOME=/root")
	assert.Contains(t, env, "USER=root")
	assert.Contains(t, env, "PATH=/root/.nix-profile/bin:/usr/bin:/bin")

	var nixPath string
	for _, entry := range env {
		if strings.HasPrefix(entry, "NIX_PATH=") {
			nixPath = strings.TrimPrefix(entry, "NIX_PATH=")
		}
	}
	assert.Equal(t,
		"nixpkgs=/root/.nix-defexpr/channels/nixos:nixos-config=/mnt/etc/nixos/configuration.nix",
		nixPath)
}
