//go:build !windows

package device

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jaypipes/ghw"
	"github.com/jaypipes/ghw/pkg/block"
)

// List returns the removable disks the host knows about. It is a convenience
// for front-ends; the write path never relies on it.
func List() ([]Target, error) {
	b, err := block.New(ghw.WithDisableTools())
	if err != nil {
		return nil, fmt.Errorf("detect block devices: %w", err)
	}
	return candidates(b.Disks), nil
}

// candidates keeps removable or USB attached disks.
func candidates(disks []*block.Disk) []Target {
	var out []Target
	for _, d := range disks {
		if d == nil || d.Name == "" {
			continue
		}
		usb := strings.Contains(d.BusPath, "usb")
		if !d.IsRemovable && !usb {
			continue
		}
		out = append(out, Target{
			Path:          filepath.Join("/dev", d.Name),
			Capacity:      int64(d.SizeBytes),
			CapacityKnown: d.SizeBytes > 0,
			Removable:     true,
			Vendor:        cleanUnknown(d.Vendor),
			Model:         cleanUnknown(d.Model),
		})
	}
	return out
}

func cleanUnknown(s string) string {
	if s == "unknown" {
		return ""
	}
	return strings.TrimSpace(s)
}
