package app

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"must-burn/internal/device"
)

func (a *app) newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List removable devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			targets, err := device.List()
			if err != nil {
				return err
			}
			if len(targets) == 0 {
				pterm.Info.Println("No removable devices found.")
				return nil
			}
			data := pterm.TableData{{"Device", "Size", "Model", "Mounted"}}
			for _, t := range targets {
				size := "unknown"
				if t.CapacityKnown {
					size = formatBytes(t.Capacity)
				}
				if mounts, err := a.info.MountedPartitions(t.Path); err == nil {
					t.Mounts = mounts
				}
				data = append(data, []string{
					t.Path,
					size,
					strings.TrimSpace(t.Vendor + " " + t.Model),
					mountPoints(t.Mounts),
				})
			}
			return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
		},
	}
}

func mountPoints(mounts []device.Mount) string {
	if len(mounts) == 0 {
		return "-"
	}
	points := make([]string, 0, len(mounts))
	for _, m := range mounts {
		points = append(points, m.MountPoint)
	}
	return strings.Join(points, ", ")
}

func formatBytes(n int64) string {
	const unit = 1000
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "kMGTPE"[exp])
}
