//go:build linux || darwin || freebsd

package device

import (
	"fmt"
	"os/exec"
	"runtime"

	"golang.org/x/sys/unix"
)

// Unmount releases every given mount. It tries umount(2) on the mount point
// first and falls back to the platform tool, which also copes with being
// handed a device.
func Unmount(mounts []Mount) error {
	for _, m := range mounts {
		if err := unmount(m); err != nil {
			return fmt.Errorf("failed to unmount %s from %s: %w", m.Device, m.MountPoint, err)
		}
	}
	return nil
}

func unmount(m Mount) error {
	if m.MountPoint != "" {
		if err := unix.Unmount(m.MountPoint, 0); err == nil {
			return nil
		}
	}
	target := m.MountPoint
	if target == "" {
		target = m.Device
	}
	var cmd *exec.Cmd
	if runtime.GOOS == "darwin" {
		cmd = exec.Command("diskutil", "unmount", target)
	} else {
		cmd = exec.Command("umount", target)
	}
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", cmd.Path, err, out)
	}
	return nil
}
