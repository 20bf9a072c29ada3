package device

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v3/disk"
)

// parseMountTable reads a /proc/mounts style table: whitespace separated
// fields, source first, mount point second, octal escapes for blanks.
func parseMountTable(r io.Reader) ([]Mount, error) {
	var mounts []Mount
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		mounts = append(mounts, Mount{
			Device:     unescapeMountField(fields[0]),
			MountPoint: unescapeMountField(fields[1]),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return mounts, nil
}

// unescapeMountField decodes the \040 style escapes the kernel uses for
// spaces, tabs, newlines and backslashes.
func unescapeMountField(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+4 <= len(s) {
			if v, err := strconv.ParseUint(s[i+1:i+4], 8, 8); err == nil {
				b.WriteByte(byte(v))
				i += 3
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// psutilMounts lists live mounts through gopsutil, which knows how to read
// the mount table on every platform it supports.
func psutilMounts() ([]Mount, error) {
	parts, err := disk.Partitions(true)
	if err != nil {
		return nil, err
	}
	mounts := make([]Mount, 0, len(parts))
	for _, p := range parts {
		mounts = append(mounts, Mount{Device: p.Device, MountPoint: p.Mountpoint})
	}
	return mounts, nil
}
