package disk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLayoutShape(t *testing.T) {
	l := NewLayout("/dev/vdb", "/mnt")

	assert.Equal(t, "/dev/vdb", l.Device)
	assert.Equal(t, "gpt", l.TableType)
	require.Len(t, l.Partitions, 2, "layout must declare exactly two partitions")

	root := l.Partitions[0]
	assert.Equal(t, 1, root.Number)
	assert.Equal(t, "primary", root.Name)
	assert.Equal(t, "512MiB", root.Start)
	assert.Equal(t, "100%", root.End)
	assert.Equal(t, TypeLinuxFilesystem, root.Type)
	assert.False(t, root.Bootable)

	esp := l.Partitions[1]
	assert.Equal(t, 2, esp.Number)
	assert.Equal(t, "ESP", esp.Name)
	assert.Equal(t, "1MiB", esp.Start)
	assert.Equal(t, "512MiB", esp.End)
	assert.Equal(t, TypeEFISystem, esp.Type)
	assert.True(t, esp.Bootable, "the system partition must be marked bootable")
}

func TestNewLayoutFilesystems(t *testing.T) {
	l := NewLayout("/dev/vdb", "/mnt")

	fs := l.Filesystems()
	require.Len(t, fs, 2)

	assert.Equal(t, "/dev/vdb1", fs[0].Device)
	assert.Equal(t, "ext4", fs[0].Type)
	assert.Equal(t, "nixos", fs[0].Label)
	assert.Equal(t, "/mnt", fs[0].Mountpoint)

	assert.Equal(t, "/dev/vdb2", fs[1].Device)
	assert.Equal(t, "vfat", fs[1].Type)
	assert.Equal(t, "boot", fs[1].Label)
	assert.Equal(t, "/mnt/boot", fs[1].Mountpoint, "boot mounts inside the root filesystem")
}

func TestPartedArgs(t *testing.T) {
	l := NewLayout("/dev/vdb", "/mnt")

	want := []string{
		"--script", "/dev/vdb", "--",
		"mklabel", "gpt",
		"mkpart", "primary", "ext4", "512MiB", "100%",
		"mkpart", "ESP", "fat32", "1MiB", "512MiB",
		"set", "2", "esp", "on",
	}
	assert.Equal(t, want, l.PartedArgs())

	cmd := l.PartedCommand()
	assert.Equal(t, "parted", cmd.Path)
	assert.Equal(t, want, cmd.Args)
}

func TestMkfsCommands(t *testing.T) {
	l := NewLayout("/dev/vdb", "/mnt")
	fs := l.Filesystems()

	root := fs[0].MkfsCommand()
	assert.Equal(t, "mkfs.ext4", root.Path)
	assert.Equal(t, []string{"-L", "nixos", "/dev/vdb1"}, root.Args)

	esp := fs[1].MkfsCommand()
	assert.Equal(t, "mkfs.fat", esp.Path)
	assert.Equal(t, []string{"-F", "32", "-n", "boot", "/dev/vdb2"}, esp.Args)
}

func TestMountCommands(t *testing.T) {
	l := NewLayout("/dev/vdb", "/mnt")
	fs := l.Filesystems()

	root := fs[0].MountCommand()
	assert.Equal(t, "mount", root.Path)
	assert.Equal(t, []string{"/dev/disk/by-label/nixos", "/mnt"}, root.Args)

	esp := fs[1].MountCommand()
	assert.Equal(t, []string{"/dev/disk/by-label/boot", "/mnt/boot"}, esp.Args)
}

func TestSettleCommand(t *testing.T) {
	cmd := SettleCommand()
	assert.Equal(t, "udevadm", cmd.Path)
	assert.Equal(t, []string{"settle"}, cmd.Args)
}

func TestPartitionDevice(t *testing.T) {
	tests := []struct {
		device string
		number int
		want   string
	}{
		{"/dev/vdb", 1, "/dev/vdb1"},
		{"/dev/vdb", 2, "/dev/vdb2"},
		{"/dev/sda", 3, "/dev/sda3"},
		{"/dev/nvme0n1", 1, "/dev/nvme0n1p1"},
		{"/dev/loop0", 2, "/dev/loop0p2"},
	}

	for _, tt := range tests {
		t.Run(tt.device, func(t *testing.T) {
			assert.Equal(t, tt.want, PartitionDevice(tt.device, tt.number))
		})
	}
}
