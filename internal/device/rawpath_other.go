//go:build !darwin && !windows

package device

// RawPath returns the path to open for writing. Device nodes are used as given.
func RawPath(path string) string {
	return path
}
