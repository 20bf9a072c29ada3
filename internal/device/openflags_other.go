//go:build !linux

package device

// OpenFlags returns extra open flags for writing to path.
func OpenFlags(string) int {
	return 0
}
