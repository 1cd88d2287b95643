package bootstrap

import (
	"context"
	"fmt"
	"os"

	"github.com/google/renameio"
	"golang.org/x/sys/unix"

	"github.com/schlarpc/nixos-scaleway/nixos"
	"github.com/schlarpc/nixos-scaleway/pkg/disk"
	"github.com/schlarpc/nixos-scaleway/pkg/nix"
)

// installPackages puts the partitioning and filesystem tools on the
// bootstrap host.
func (p *Procedure) installPackages(ctx context.Context) error {
	for _, cmd := range p.cfg.packageCommands() {
		if err := p.exec.Run(ctx, cmd); err != nil {
			return err
		}
	}
	return nil
}

// partitionDevice writes the GPT layout and waits for the kernel and udev to
// publish the new partition nodes.
func (p *Procedure) partitionDevice(ctx context.Context) error {
	for _, cmd := range p.cfg.partitionCommands() {
		if err := p.exec.Run(ctx, cmd); err != nil {
			return err
		}
	}
	return nil
}

// makeFilesystems formats both partitions, proves both labels resolve, and
// mounts root then boot.
func (p *Procedure) makeFilesystems(ctx context.Context) error {
	for _, cmd := range p.cfg.mkfsCommands() {
		if err := p.exec.Run(ctx, cmd); err != nil {
			return err
		}
	}

	// Both labels must resolve before anything mounts; a missing label
	// here means the filesystem creation did not take.
	for _, fs := range p.cfg.Layout().Filesystems() {
		device, err := disk.ResolveLabel(p.cfg.ByLabelDir, fs.Label)
		if err != nil {
			return err
		}
		p.log.Infof("label %s resolved to %s", fs.Label, device)
	}

	for _, fs := range p.cfg.Layout().Filesystems() {
		if err := os.MkdirAll(fs.Mountpoint, 0o755); err != nil {
			return fmt.Errorf("creating mountpoint %s: %w", fs.Mountpoint, err)
		}
		if err := p.exec.Run(ctx, fs.MountCommand()); err != nil {
			return err
		}
	}
	return nil
}

// bootstrapPackageManager creates the build principals, relaxes the sudo
// policy for the automation, installs the package manager for the invoking
// user, and subscribes it to the pinned channel.
func (p *Procedure) bootstrapPackageManager(ctx context.Context) error {
	for _, cmd := range p.cfg.principalCommands() {
		if err := p.exec.Run(ctx, cmd); err != nil {
			return err
		}
	}

	policy := fmt.Sprintf("%s ALL=(ALL) NOPASSWD: ALL\n", p.cfg.User)
	if err := renameio.WriteFile(p.cfg.SudoersFile, []byte(policy), 0o440); err != nil {
		return fmt.Errorf("writing sudoers policy: %w", err)
	}
	p.log.Infof("wrote sudoers policy %s", p.cfg.SudoersFile)

	if err := nix.FetchInstaller(ctx, p.client, p.cfg.InstallerURL, p.cfg.InstallerPath); err != nil {
		return err
	}
	if err := p.exec.Run(ctx, nix.InstallScript(p.cfg.InstallerPath)); err != nil {
		return err
	}

	for _, cmd := range p.cfg.channelCommands() {
		if err := p.exec.Run(ctx, cmd); err != nil {
			return err
		}
	}
	return nil
}

// installSystem copies the configuration fragments onto the target,
// evaluates the system closure, runs the installer against the mounted
// root, and powers the host off to signal completion.
func (p *Procedure) installSystem(ctx context.Context) error {
	dir := p.cfg.ConfigDir()
	if p.cfg.FragmentsDir != "" {
		if err := nixos.InstallFrom(p.cfg.FragmentsDir, dir); err != nil {
			return err
		}
	} else {
		if err := nixos.Install(dir); err != nil {
			return err
		}
	}
	p.log.Infof("installed configuration fragments into %s", dir)

	// The closure build runs before the installer so an evaluation
	// failure aborts with the installer never invoked.
	for _, cmd := range p.cfg.closureCommands() {
		if err := p.exec.Run(ctx, cmd); err != nil {
			return err
		}
	}

	unix.Sync()
	return p.exec.Run(ctx, powerOffCommand())
}
