package bootstrap

import (
	"strconv"

	"github.com/schlarpc/nixos-scaleway/pkg/disk"
	"github.com/schlarpc/nixos-scaleway/pkg/executor"
)

// Command builders shared by the phases and the plan renderer, so what the
// plan shows is what the phases run.

// Layout is the partition table the disk phases realize on Device.
func (c Config) Layout() disk.Layout {
	return disk.NewLayout(c.Device, c.MountPoint)
}

func (c Config) packageCommands() []executor.Command {
	env := []string{"DEBIAN_FRONTEND=noninteractive"}
	install := append([]string{"install", "--yes"}, c.Packages...)
	return []executor.Command{
		{Path: "apt-get", Args: []string{"update"}, Env: env},
		{Path: "apt-get", Args: install, Env: env},
	}
}

func (c Config) partitionCommands() []executor.Command {
	return []executor.Command{
		c.Layout().PartedCommand(),
		disk.SettleCommand(),
	}
}

func (c Config) mkfsCommands() []executor.Command {
	var cmds []executor.Command
	for _, fs := range c.Layout().Filesystems() {
		cmds = append(cmds, fs.MkfsCommand())
	}
	return cmds
}

func (c Config) mountCommands() []executor.Command {
	var cmds []executor.Command
	for _, fs := range c.Layout().Filesystems() {
		cmds = append(cmds, fs.MountCommand())
	}
	return cmds
}

func (c Config) principalCommands() []executor.Command {
	id := strconv.Itoa(c.BuildID)
	return []executor.Command{
		{Path: "groupadd", Args: []string{"-g", id, c.BuildGroup}},
		{Path: "useradd", Args: []string{
			"-u", id,
			"-g", c.BuildGroup,
			"-G", c.BuildGroup,
			"-M", "-N", "-r",
			"-s", "/usr/sbin/nologin",
			c.BuildUser,
		}},
	}
}

func (c Config) channelCommands() []executor.Command {
	env := c.NixEnv()
	tools := c.Tools()
	cmds := []executor.Command{
		tools.ChannelAdd(c.ChannelURL, c.ChannelName),
		tools.ChannelUpdate(),
		tools.InstallTools(),
	}
	for i := range cmds {
		cmds[i].Env = env
	}
	return cmds
}

func (c Config) closureCommands() []executor.Command {
	env := c.NixEnv()
	tools := c.Tools()
	cmds := []executor.Command{
		tools.BuildSystem(c.SystemLink),
		tools.InstallSystem(c.MountPoint, c.SystemLink),
	}
	for i := range cmds {
		cmds[i].Env = env
	}
	return cmds
}

func powerOffCommand() executor.Command {
	return executor.Command{Path: "poweroff"}
}
