//go:build !linux && !darwin && !freebsd && !windows

package device

import (
	"fmt"
	"runtime"
)

func Unmount(mounts []Mount) error {
	if len(mounts) == 0 {
		return nil
	}
	return fmt.Errorf("unmount not supported on %s", runtime.GOOS)
}
