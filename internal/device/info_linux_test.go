//go:build linux

package device

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinuxInfoMountedPartitions(t *testing.T) {
	table := filepath.Join(t.TempDir(), "mounts")
	require.NoError(t, os.WriteFile(table, []byte(
		"/dev/sda1 / ext4 rw 0 0\n"+
			"/dev/sdb1 /run/media/user/KAIROS iso9660 ro 0 0\n"+
			"/dev/sdb2 /run/media/user/COS_GRUB vfat rw 0 0\n"), 0644))

	info := &linuxInfo{mountsPath: table}
	mounts, err := info.MountedPartitions("/dev/sdb")
	require.NoError(t, err)
	assert.Equal(t, []Mount{
		{Device: "/dev/sdb1", MountPoint: "/run/media/user/KAIROS"},
		{Device: "/dev/sdb2", MountPoint: "/run/media/user/COS_GRUB"},
	}, mounts)

	mounts, err = info.MountedPartitions("/dev/sdc")
	require.NoError(t, err)
	assert.Empty(t, mounts)
}

func TestLinuxInfoCapacityOfRegularFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "disk.img")
	require.NoError(t, os.WriteFile(path, make([]byte, 512), 0644))

	_, ok := (&linuxInfo{}).Capacity(path)
	assert.False(t, ok, "only block devices have a capacity")
	assert.Zero(t, OpenFlags(path))
}

func TestLinuxInfoMountedThroughSymlink(t *testing.T) {
	dir := t.TempDir()
	dev := filepath.Join(dir, "sdb")
	require.NoError(t, os.WriteFile(dev, nil, 0644))
	dev, err := filepath.EvalSymlinks(dev)
	require.NoError(t, err)
	link := filepath.Join(t.TempDir(), "usb-Kingston_DataTraveler")
	require.NoError(t, os.Symlink(dev, link))

	table := filepath.Join(t.TempDir(), "mounts")
	require.NoError(t, os.WriteFile(table, []byte(dev+"1 /run/media/user/KAIROS iso9660 ro 0 0\n"), 0644))

	target, err := Describe(&linuxInfo{mountsPath: table}, link)
	require.NoError(t, err)
	assert.Equal(t, []Mount{{Device: dev + "1", MountPoint: "/run/media/user/KAIROS"}}, target.Mounts)
}
