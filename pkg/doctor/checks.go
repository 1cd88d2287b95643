package doctor

import (
	"context"
	"regexp"

	"github.com/schlarpc/nixos-scaleway/pkg/executor"
)

// CheckAptGet checks for the host package manager.
func CheckAptGet(ctx context.Context, exec executor.Executor) Check {
	return checkTool(ctx, exec, IDAptGet, "apt-get",
		"Installs parted, dosfstools, and e2fsprogs",
		[]string{"--version"}, nil)
}

// CheckParted checks for the GPT partitioning tool.
func CheckParted(ctx context.Context, exec executor.Executor) Check {
	return checkTool(ctx, exec, IDParted, "parted",
		"Writes the GPT layout to the target device",
		[]string{"--version"}, &FixCommand{
			Description: "Install GNU parted",
			Command:     "apt-get install --yes parted",
			Sudo:        true,
		})
}

// CheckUdevadm checks for the udev control tool.
func CheckUdevadm(ctx context.Context, exec executor.Executor) Check {
	return checkTool(ctx, exec, IDUdevadm, "udevadm",
		"Waits for the kernel to publish the new partitions",
		[]string{"--version"}, nil)
}

// CheckMkfsExt4 checks for the ext4 formatter.
func CheckMkfsExt4(ctx context.Context, exec executor.Executor) Check {
	return checkTool(ctx, exec, IDMkfsExt4, "mkfs.ext4",
		"Formats the root filesystem",
		nil, &FixCommand{
			Description: "Install e2fsprogs",
			Command:     "apt-get install --yes e2fsprogs",
			Sudo:        true,
		})
}

// CheckMkfsFat checks for the FAT formatter.
func CheckMkfsFat(ctx context.Context, exec executor.Executor) Check {
	return checkTool(ctx, exec, IDMkfsFat, "mkfs.fat",
		"Formats the boot filesystem",
		nil, &FixCommand{
			Description: "Install dosfstools",
			Command:     "apt-get install --yes dosfstools",
			Sudo:        true,
		})
}

// CheckMount checks for the mount tool.
func CheckMount(ctx context.Context, exec executor.Executor) Check {
	return checkTool(ctx, exec, IDMount, "mount",
		"Mounts the new filesystems by label",
		[]string{"--version"}, nil)
}

// CheckPoweroff checks for the shutdown tool.
func CheckPoweroff(ctx context.Context, exec executor.Executor) Check {
	return checkTool(ctx, exec, IDPoweroff, "poweroff",
		"Stops the host once the installation is done",
		nil, nil)
}

// checkTool checks that a tool resolves on PATH and tries to read its
// version.
func checkTool(ctx context.Context, exec executor.Executor, id, name, desc string, versionArgs []string, fix *FixCommand) Check {
	check := Check{
		ID:          id,
		Name:        name,
		Description: desc,
		FixCommand:  fix,
	}

	path, err := exec.LookPath(id)
	if err != nil {
		check.Status = StatusMissing
		check.Message = "not installed"
		return check
	}

	check.Status = StatusOK
	check.Message = "installed"
	if len(versionArgs) == 0 {
		return check
	}

	output, err := exec.Output(ctx, executor.Command{Path: path, Args: versionArgs})
	if err != nil {
		// Tool exists but the version check failed; still usable.
		check.Message = "installed (version unknown)"
		return check
	}
	if version := extractVersion(output); version != "" {
		check.Message = version
	}
	return check
}

var versionRe = regexp.MustCompile(`v?(\d+\.\d+(?:\.\d+)?(?:-[a-zA-Z0-9]+)?)`)

// extractVersion pulls a version number out of command output.
func extractVersion(output string) string {
	matches := versionRe.FindStringSubmatch(output)
	if len(matches) >= 2 {
		return matches[1]
	}
	return ""
}
