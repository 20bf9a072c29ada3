package burn

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"must-burn/internal/device"
)

// fakeInfo answers device questions from fixed values. Existence follows the
// filesystem so regular files can stand in for devices.
type fakeInfo struct {
	capacity  int64
	known     bool
	mounts    []device.Mount
	mountsErr error
	// table, when set, is matched by device prefix instead of returning mounts.
	table []device.Mount
}

func (f *fakeInfo) Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	return err == nil, err
}

func (f *fakeInfo) Capacity(string) (int64, bool) {
	return f.capacity, f.known
}

func (f *fakeInfo) MountedPartitions(path string) ([]device.Mount, error) {
	if f.table == nil {
		return f.mounts, f.mountsErr
	}
	var out []device.Mount
	for _, m := range f.table {
		if strings.HasPrefix(m.Device, path) {
			out = append(out, m)
		}
	}
	return out, f.mountsErr
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}
