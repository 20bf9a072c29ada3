//go:build darwin

package device

import (
	"os"
	"strings"
	"syscall"
	"unsafe"
)

const (
	dkiocGetBlockSize  = 0x40046418 // _IOR('d', 24, uint32)
	dkiocGetBlockCount = 0x40086419 // _IOR('d', 25, uint64)
)

type darwinInfo struct{}

func newInfoProvider() InfoProvider {
	return darwinInfo{}
}

func (darwinInfo) Exists(path string) (bool, error) {
	return statExists(path)
}

func (darwinInfo) Capacity(path string) (int64, bool) {
	fi, err := os.Stat(path)
	if err != nil || fi.Mode()&os.ModeDevice == 0 {
		return 0, false
	}
	f, err := os.Open(path)
	if err != nil {
		return 0, false
	}
	defer f.Close()

	var blockSize uint32
	var blockCount uint64
	if _, _, errno := syscall.Syscall(syscall.SYS_IOCTL, f.Fd(), dkiocGetBlockSize, uintptr(unsafe.Pointer(&blockSize))); errno != 0 {
		return 0, false
	}
	if _, _, errno := syscall.Syscall(syscall.SYS_IOCTL, f.Fd(), dkiocGetBlockCount, uintptr(unsafe.Pointer(&blockCount))); errno != 0 {
		return 0, false
	}
	return int64(blockSize) * int64(blockCount), true
}

// MountedPartitions matches on the buffered /dev/diskN name, which is what
// the mount table records even when the raw /dev/rdiskN node is given.
func (darwinInfo) MountedPartitions(path string) ([]Mount, error) {
	all, err := psutilMounts()
	if err != nil {
		return nil, err
	}
	return matchMounts(all, strings.Replace(path, "/dev/rdisk", "/dev/disk", 1)), nil
}
