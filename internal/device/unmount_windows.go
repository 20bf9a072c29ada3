//go:build windows

package device

import (
	"fmt"
	"os/exec"
)

// Unmount removes the drive letters attached to the device with mountvol.
func Unmount(mounts []Mount) error {
	for _, m := range mounts {
		out, err := exec.Command("mountvol", m.MountPoint+`\`, "/p").CombinedOutput()
		if err != nil {
			return fmt.Errorf("failed to unmount %s: %w: %s", m.MountPoint, err, out)
		}
	}
	return nil
}
