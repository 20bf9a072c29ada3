// Package device answers questions about block devices that must be settled
// before an image is written to them: whether they exist, whether any part of
// them is mounted and how large they are.
package device

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Target is a device an image can be written to.
type Target struct {
	Path string
	// Capacity is the raw size in bytes, valid only when CapacityKnown.
	Capacity      int64
	CapacityKnown bool
	// Removable is informational; nothing refuses fixed disks.
	Removable bool
	Vendor    string
	Model     string
	Mounts    []Mount
}

// Mounted reports whether the last mount check found any mounted source.
func (t Target) Mounted() bool {
	return len(t.Mounts) > 0
}

func (t Target) String() string {
	size := "unknown size"
	if t.CapacityKnown {
		size = fmt.Sprintf("%.2f GB", float64(t.Capacity)/(1024*1024*1024))
	}
	name := strings.TrimSpace(t.Vendor + " " + t.Model)
	if name == "" {
		return fmt.Sprintf("%s (%s)", t.Path, size)
	}
	return fmt.Sprintf("%s (%s) %s", t.Path, size, name)
}

// Mount is one live mount table entry.
type Mount struct {
	Device     string
	MountPoint string
}

// InfoProvider is the platform capability set used by the validator.
type InfoProvider interface {
	// Exists reports whether path names an existing device node.
	Exists(path string) (bool, error)
	// Capacity returns the raw byte size of the device at path. ok is false
	// when the platform cannot tell; that is not an error.
	Capacity(path string) (size int64, ok bool)
	// MountedPartitions returns every live mount whose source starts with path.
	MountedPartitions(path string) ([]Mount, error)
}

// NewInfoProvider returns the implementation for the running platform.
func NewInfoProvider() InfoProvider {
	return newInfoProvider()
}

// Describe fills a Target for path with a fresh capacity and mount check.
// The mount table lists canonical device names, so a symlink such as
// /dev/disk/by-id/usb-... is resolved before the lookup.
func Describe(info InfoProvider, path string) (Target, error) {
	t := Target{Path: path}
	t.Capacity, t.CapacityKnown = info.Capacity(path)
	mounts, err := info.MountedPartitions(Canonical(path))
	if err != nil {
		return t, err
	}
	t.Mounts = mounts
	return t, nil
}

// Canonical resolves symlinks in path. Paths that cannot be resolved are
// returned cleaned. Windows device paths are returned unchanged.
func Canonical(path string) string {
	if runtime.GOOS == "windows" {
		return path
	}
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved
	}
	return filepath.Clean(path)
}

// statExists is the os.Stat based existence check shared by the platforms
// where device nodes live in the filesystem.
func statExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// matchMounts keeps the entries whose source path begins with device. This
// catches partitions such as /dev/sdb1 when asked about /dev/sdb.
func matchMounts(entries []Mount, device string) []Mount {
	var out []Mount
	for _, m := range entries {
		if device != "" && strings.HasPrefix(m.Device, device) {
			out = append(out, m)
		}
	}
	return out
}
