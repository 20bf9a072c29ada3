//go:build windows

package device

import "strings"

// RawPath puts drive letters ("E:") and bare drive names ("PhysicalDrive1")
// into the \\.\ device namespace.
func RawPath(path string) string {
	if strings.HasPrefix(path, `\\.\`) {
		return path
	}
	if letter, ok := driveLetter(path); ok {
		return `\\.\` + letter
	}
	if strings.HasPrefix(strings.ToUpper(path), "PHYSICALDRIVE") {
		return `\\.\` + path
	}
	return path
}

// driveLetter returns "E:" for "E:", `E:\` and `\\.\E:`.
func driveLetter(path string) (string, bool) {
	p := strings.TrimSuffix(strings.TrimPrefix(path, `\\.\`), `\`)
	if len(p) != 2 || p[1] != ':' {
		return "", false
	}
	c := p[0] | 0x20
	if c < 'a' || c > 'z' {
		return "", false
	}
	return strings.ToUpper(p), true
}
