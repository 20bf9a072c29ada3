//go:build darwin

package device

import "strings"

// RawPath converts /dev/diskN to the unbuffered /dev/rdiskN node, which is
// several times faster for sequential writes.
func RawPath(path string) string {
	if strings.HasPrefix(path, "/dev/disk") {
		return "/dev/r" + path[len("/dev/"):]
	}
	return path
}
