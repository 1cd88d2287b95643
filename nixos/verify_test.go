package nixos

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyEmbeddedFragments(t *testing.T) {
	result := Verify()
	assert.False(t, result.HasErrors(), "embedded fragments should verify cleanly: %+v", result.Issues)
}

func TestVerifyMissingFragment(t *testing.T) {
	fragments := []Fragment{
		{Name: "configuration.nix", Content: Configuration},
		{Name: "hardware-configuration.nix", Content: HardwareConfiguration},
	}

	result := verifyFragments(fragments)
	require.True(t, result.HasErrors())

	var found bool
	for _, issue := range result.Issues {
		if issue.Fragment == "scaleway.nix" && issue.Message == "fragment is missing" {
			found = true
		}
	}
	assert.True(t, found, "missing scaleway.nix should be reported: %+v", result.Issues)
}

func TestVerifyExtraImport(t *testing.T) {
	mutated := []Fragment{
		{Name: "hardware-configuration.nix", Content: HardwareConfiguration},
		{Name: "scaleway.nix", Content: Scaleway},
		{Name: "configuration.nix", Content: "{ ... }:\n{\n  imports = [ ./hardware-configuration.nix ./scaleway.nix ./extra.nix ];\n  system.stateVersion = \"20.03\";\n}\n"},
	}

	result := verifyFragments(mutated)
	assert.True(t, result.HasErrors(), "an unexpected sibling import must be an error")
}

func TestVerifyMissingStateVersion(t *testing.T) {
	mutated := []Fragment{
		{Name: "hardware-configuration.nix", Content: HardwareConfiguration},
		{Name: "scaleway.nix", Content: Scaleway},
		{Name: "configuration.nix", Content: "{ ... }:\n{\n  imports = [ ./hardware-configuration.nix ./scaleway.nix ];\n}\n"},
	}

	result := verifyFragments(mutated)
	require.True(t, result.HasErrors())

	var found bool
	for _, issue := range result.Issues {
		if issue.Message == "missing system.stateVersion" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestVerifyHardwareWithoutLabels(t *testing.T) {
	mutated := []Fragment{
		{Name: "hardware-configuration.nix", Content: "{ ... }:\n{\n  boot.initrd.availableKernelModules = [ ];\n  boot.kernelModules = [ ];\n}\n"},
		{Name: "scaleway.nix", Content: Scaleway},
		{Name: "configuration.nix", Content: Configuration},
	}

	result := verifyFragments(mutated)
	require.True(t, result.HasErrors())

	messages := make([]string, 0, len(result.Issues))
	for _, issue := range result.Issues {
		messages = append(messages, issue.Message)
	}
	assert.Contains(t, messages, "root filesystem must mount by the nixos label")
	assert.Contains(t, messages, "boot filesystem must mount by the boot label")
}

func TestVerifyScalewayWithoutMaxJobs(t *testing.T) {
	mutated := []Fragment{
		{Name: "hardware-configuration.nix", Content: HardwareConfiguration},
		{Name: "scaleway.nix", Content: "{ modulesPath, ... }:\n{\n  imports = [ (modulesPath + \"/profiles/qemu-guest.nix\") ];\n}\n"},
		{Name: "configuration.nix", Content: Configuration},
	}

	result := verifyFragments(mutated)
	assert.True(t, result.HasErrors())
}

func TestVerifyWarnsOnMissingTrailingNewline(t *testing.T) {
	mutated := []Fragment{
		{Name: "hardware-configuration.nix", Content: HardwareConfiguration},
		{Name: "scaleway.nix", Content: Scaleway},
		{Name: "configuration.nix", Content: "{ ... }:\n{\n  imports = [ ./hardware-configuration.nix ./scaleway.nix ];\n  system.stateVersion = \"20.03\";\n}"},
	}

	result := verifyFragments(mutated)
	assert.False(t, result.HasErrors(), "missing newline is only a warning")

	var warned bool
	for _, issue := range result.Issues {
		if issue.Severity == SeverityWarning {
			warned = true
		}
	}
	assert.True(t, warned)
}
