//go:build windows

package device

import (
	"fmt"
	"strings"

	"github.com/bi-zone/wmi"
)

type win32DiskDrive struct {
	DeviceID      string
	Model         string
	InterfaceType string
	MediaType     string
	Size          uint64
}

type win32DiskPartition struct {
	DeviceID string
}

type win32LogicalDisk struct {
	DeviceID string
}

type windowsInfo struct{}

func newInfoProvider() InfoProvider {
	return windowsInfo{}
}

// wqlQuote escapes a value for a single quoted WQL literal.
func wqlQuote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}

func isPhysicalDrive(path string) bool {
	return strings.HasPrefix(strings.ToUpper(RawPath(path)), `\\.\PHYSICALDRIVE`)
}

func lookupDrive(path string) ([]win32DiskDrive, error) {
	var dst []win32DiskDrive
	q := fmt.Sprintf("SELECT DeviceID, Model, InterfaceType, MediaType, Size FROM Win32_DiskDrive WHERE DeviceID = '%s'", wqlQuote(RawPath(path)))
	if err := wmi.Query(q, &dst); err != nil {
		return nil, err
	}
	return dst, nil
}

func (windowsInfo) Exists(path string) (bool, error) {
	if !isPhysicalDrive(path) {
		return statExists(path)
	}
	drives, err := lookupDrive(path)
	if err != nil {
		return false, err
	}
	return len(drives) > 0, nil
}

func (windowsInfo) Capacity(path string) (int64, bool) {
	if !isPhysicalDrive(path) {
		return 0, false
	}
	drives, err := lookupDrive(path)
	if err != nil || len(drives) == 0 || drives[0].Size == 0 {
		return 0, false
	}
	return int64(drives[0].Size), true
}

// MountedPartitions walks drive → partitions → logical disks. A drive letter
// attached to any partition of the drive counts as a mount. A target given as
// a drive letter is a mounted volume by definition.
func (windowsInfo) MountedPartitions(path string) ([]Mount, error) {
	if letter, ok := driveLetter(path); ok {
		return []Mount{{Device: RawPath(letter), MountPoint: letter}}, nil
	}
	if !isPhysicalDrive(path) {
		return nil, nil
	}
	id := RawPath(path)

	var parts []win32DiskPartition
	q := fmt.Sprintf("ASSOCIATORS OF {Win32_DiskDrive.DeviceID='%s'} WHERE AssocClass = Win32_DiskDriveToDiskPartition", wqlQuote(id))
	if err := wmi.Query(q, &parts); err != nil {
		return nil, err
	}

	var mounts []Mount
	for _, p := range parts {
		var disks []win32LogicalDisk
		q := fmt.Sprintf("ASSOCIATORS OF {Win32_DiskPartition.DeviceID='%s'} WHERE AssocClass = Win32_LogicalDiskToPartition", wqlQuote(p.DeviceID))
		if err := wmi.Query(q, &disks); err != nil {
			return nil, err
		}
		for _, d := range disks {
			mounts = append(mounts, Mount{Device: id, MountPoint: d.DeviceID})
		}
	}
	return mounts, nil
}
