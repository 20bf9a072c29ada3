//go:build linux

package device

import (
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

const procMounts = "/proc/mounts"

type linuxInfo struct {
	mountsPath string
}

func newInfoProvider() InfoProvider {
	return &linuxInfo{mountsPath: procMounts}
}

func (l *linuxInfo) Exists(path string) (bool, error) {
	return statExists(path)
}

// Capacity asks the kernel with BLKGETSIZE64. Anything that is not a block
// device, or a device we may not open, has no known capacity.
func (l *linuxInfo) Capacity(path string) (int64, bool) {
	fi, err := os.Stat(path)
	if err != nil || fi.Mode()&os.ModeDevice == 0 || fi.Mode()&os.ModeCharDevice != 0 {
		return 0, false
	}
	f, err := os.Open(path)
	if err != nil {
		return 0, false
	}
	defer f.Close()

	var size uint64
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, f.Fd(), unix.BLKGETSIZE64, uintptr(unsafe.Pointer(&size)))
	if errno != 0 {
		return 0, false
	}
	return int64(size), true
}

// MountedPartitions scans /proc/mounts and falls back to gopsutil when procfs
// is not available.
func (l *linuxInfo) MountedPartitions(path string) ([]Mount, error) {
	file, err := os.Open(l.mountsPath)
	if err != nil {
		all, perr := psutilMounts()
		if perr != nil {
			return nil, err
		}
		return matchMounts(all, path), nil
	}
	defer file.Close()

	all, err := parseMountTable(file)
	if err != nil {
		return nil, err
	}
	return matchMounts(all, path), nil
}
