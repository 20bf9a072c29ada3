//go:build linux

package device

import (
	"os"

	"golang.org/x/sys/unix"
)

// OpenFlags returns extra open(2) flags for writing to path. Block devices are
// opened with O_EXCL so the kernel refuses with EBUSY while a filesystem or
// another exclusive opener holds them.
func OpenFlags(path string) int {
	fi, err := os.Stat(path)
	if err != nil || fi.Mode()&os.ModeDevice == 0 || fi.Mode()&os.ModeCharDevice != 0 {
		return 0
	}
	return unix.O_EXCL
}
