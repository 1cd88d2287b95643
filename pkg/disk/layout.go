// Package disk models the target device's partition table and filesystems as
// data, and assembles the tool invocations that realize them.
package disk

import (
	"strconv"
	"unicode"

	"github.com/google/uuid"

	"github.com/schlarpc/nixos-scaleway/pkg/executor"
)

// GPT partition type GUIDs, per the UEFI specification.
var (
	TypeLinuxFilesystem = uuid.MustParse("0fc63daf-8483-4772-8e79-3d69d8477de4")
	TypeEFISystem       = uuid.MustParse("c12a7328-f81f-11d2-ba4b-00a0c93ec93b")
)

// Partition is one GPT partition, in declaration order.
type Partition struct {
	Number     int
	Name       string // partition name given to the partitioner
	FSTypeHint string // filesystem type hint recorded in the table
	Start      string
	End        string
	Type       uuid.UUID
	Bootable   bool
	Filesystem *Filesystem // created on this partition in the filesystem phase
}

// Filesystem is a filesystem to create and mount on one partition.
type Filesystem struct {
	Device     string
	Type       string // mkfs family: ext4 or vfat
	Label      string
	Mountpoint string
}

// Layout is the complete table for one device.
//
// The shape is fixed: partition 1 is the root filesystem spanning 512MiB to
// the end of the device, partition 2 is the EFI system partition squeezed
// into the first 512MiB and marked bootable. Root is declared first even
// though it sits second on disk, so the root filesystem lands on the first
// partition device node.
type Layout struct {
	Device     string
	TableType  string
	Partitions []Partition
}

// NewLayout returns the layout for device, with filesystems mounted under
// root. The filesystem labels must match what the system configuration
// mounts by, so they are part of the layout, not parameters.
func NewLayout(device, root string) Layout {
	return Layout{
		Device:    device,
		TableType: "gpt",
		Partitions: []Partition{
			{
				Number:     1,
				Name:       "primary",
				FSTypeHint: "ext4",
				Start:      "512MiB",
				End:        "100%",
				Type:       TypeLinuxFilesystem,
				Filesystem: &Filesystem{
					Device:     PartitionDevice(device, 1),
					Type:       "ext4",
					Label:      "nixos",
					Mountpoint: root,
				},
			},
			{
				Number:     2,
				Name:       "ESP",
				FSTypeHint: "fat32",
				Start:      "1MiB",
				End:        "512MiB",
				Type:       TypeEFISystem,
				Bootable:   true,
				Filesystem: &Filesystem{
					Device:     PartitionDevice(device, 2),
					Type:       "vfat",
					Label:      "boot",
					Mountpoint: root + "/boot",
				},
			},
		},
	}
}

// PartedArgs assembles the argument vector for a single parted --script run
// that writes the label, declares every partition, and sets the boot flags.
func (l Layout) PartedArgs() []string {
	args := []string{"--script", l.Device, "--", "mklabel", l.TableType}
	for _, p := range l.Partitions {
		args = append(args, "mkpart", p.Name, p.FSTypeHint, p.Start, p.End)
	}
	for _, p := range l.Partitions {
		if p.Bootable {
			args = append(args, "set", strconv.Itoa(p.Number), "esp", "on")
		}
	}
	return args
}

// PartedCommand is the parted invocation realizing the layout.
func (l Layout) PartedCommand() executor.Command {
	return executor.Command{Path: "parted", Args: l.PartedArgs()}
}

// SettleCommand waits for the kernel and udev to publish the new partition
// device nodes before anything touches them.
func SettleCommand() executor.Command {
	return executor.Command{Path: "udevadm", Args: []string{"settle"}}
}

// Filesystems returns the filesystems in creation and mount order: root
// first, so the boot mountpoint exists inside it.
func (l Layout) Filesystems() []*Filesystem {
	fs := make([]*Filesystem, 0, len(l.Partitions))
	for _, p := range l.Partitions {
		if p.Filesystem != nil {
			fs = append(fs, p.Filesystem)
		}
	}
	return fs
}

// MkfsCommand is the mkfs invocation for the filesystem, labeling it as it
// is created.
func (f *Filesystem) MkfsCommand() executor.Command {
	switch f.Type {
	case "vfat":
		return executor.Command{Path: "mkfs.fat", Args: []string{"-F", "32", "-n", f.Label, f.Device}}
	default:
		return executor.Command{Path: "mkfs." + f.Type, Args: []string{"-L", f.Label, f.Device}}
	}
}

// MountCommand mounts the filesystem by label rather than by device node, so
// the mount proves the label actually resolves.
func (f *Filesystem) MountCommand() executor.Command {
	return executor.Command{Path: "mount", Args: []string{ByLabelPath(f.Label), f.Mountpoint}}
}

// PartitionDevice returns the kernel device node for partition number on
// device. Devices whose name ends in a digit get a "p" separator, the way
// the kernel names nvme and loop partitions.
func PartitionDevice(device string, number int) string {
	if device == "" {
		return strconv.Itoa(number)
	}
	last := rune(device[len(device)-1])
	if unicode.IsDigit(last) {
		return device + "p" + strconv.Itoa(number)
	}
	return device + strconv.Itoa(number)
}
