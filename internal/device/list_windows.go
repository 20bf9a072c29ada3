//go:build windows

package device

import (
	"fmt"
	"strings"

	"github.com/bi-zone/wmi"
)

// List returns the USB and removable-media physical drives reported by WMI.
func List() ([]Target, error) {
	var dst []win32DiskDrive
	err := wmi.Query("SELECT DeviceID, Model, InterfaceType, MediaType, Size FROM Win32_DiskDrive", &dst)
	if err != nil {
		return nil, fmt.Errorf("query Win32_DiskDrive: %w", err)
	}

	var out []Target
	for _, d := range dst {
		media := strings.ToLower(d.MediaType)
		if d.InterfaceType != "USB" && !strings.Contains(media, "external") && d.MediaType != "Removable Media" {
			continue
		}
		out = append(out, Target{
			Path:          d.DeviceID,
			Capacity:      int64(d.Size),
			CapacityKnown: d.Size > 0,
			Removable:     true,
			Model:         d.Model,
		})
	}
	return out, nil
}
