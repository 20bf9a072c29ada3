package app

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"must-burn/internal/burn"
	"must-burn/internal/config"
	"must-burn/internal/device"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, ExitOK},
		{"plain error", errors.New("boom"), ExitFailure},
		{"mounted", &burn.Error{Kind: burn.KindDeviceMounted}, ExitRetryable},
		{"busy wrapped", fmt.Errorf("write: %w", &burn.Error{Kind: burn.KindDeviceBusy}), ExitRetryable},
		{"cancelled", &burn.Error{Kind: burn.KindCancelled}, ExitRetryable},
		{"verification", &burn.Error{Kind: burn.KindVerificationFailed}, ExitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestRootCommandTree(t *testing.T) {
	root := NewRootCommand()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"write", "verify", "list", "fetch"}, names)
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "999 B", formatBytes(999))
	assert.Equal(t, "16.0 GB", formatBytes(16_000_000_000))
	assert.Equal(t, "1.5 MB", formatBytes(1_500_000))
}

func TestMountPoints(t *testing.T) {
	assert.Equal(t, "-", mountPoints(nil))
	assert.Equal(t, "/mnt/a, /mnt/b", mountPoints([]device.Mount{
		{Device: "/dev/sdb1", MountPoint: "/mnt/a"},
		{Device: "/dev/sdb2", MountPoint: "/mnt/b"},
	}))
}

func TestHumanRate(t *testing.T) {
	assert.Equal(t, "512 B/s", humanRate(512))
	assert.Equal(t, "2.0 KB/s", humanRate(2048))
	assert.Equal(t, "3.5 MB/s", humanRate(3.5*1024*1024))
}

func TestRequestMergesFlagsOverConfig(t *testing.T) {
	a := &app{cfg: &config.Config{
		CopyBuffer:       "1M",
		VerifyBuffer:     "64K",
		ProgressInterval: 250 * time.Millisecond,
		Verify:           true,
	}}

	req, err := a.request("image.iso", "/dev/sdb", writeFlags{copyBuffer: "4M"})
	require.NoError(t, err)
	assert.Equal(t, "image.iso", req.Source)
	assert.Equal(t, "/dev/sdb", req.Target)
	assert.Equal(t, 4<<20, req.CopyBufferSize)
	assert.Equal(t, 64<<10, req.VerifyBufferSize)
	assert.Equal(t, 250*time.Millisecond, req.ProgressInterval)
	assert.False(t, req.SkipVerify)

	req, err = a.request("image.iso", "/dev/sdb", writeFlags{noVerify: true})
	require.NoError(t, err)
	assert.True(t, req.SkipVerify)

	_, err = a.request("image.iso", "/dev/sdb", writeFlags{verifyBuffer: "nope"})
	assert.ErrorContains(t, err, "--verify-buffer")
}

func TestRequestRejectsHugeBufferFlags(t *testing.T) {
	a := &app{cfg: &config.Config{CopyBuffer: "1M", VerifyBuffer: "64K", Verify: true}}

	_, err := a.request("image.iso", "/dev/sdb", writeFlags{copyBuffer: "64g"})
	assert.ErrorContains(t, err, "--copy-buffer")

	_, err = a.request("image.iso", "/dev/sdb", writeFlags{verifyBuffer: "4g"})
	assert.ErrorContains(t, err, "--verify-buffer")
}

func TestPlainProgressPrintsEveryTenPercent(t *testing.T) {
	var p plainProgress
	var lines []string
	emit := func(phase burn.Phase, percent float64) {
		if line, ok := p.line(burn.Sample{Phase: phase, Percent: percent, BytesWritten: int64(percent), TotalBytes: 100}); ok {
			lines = append(lines, line)
		}
	}

	for _, pct := range []float64{0.5, 3, 9.9, 10, 14, 25, 99.9, 100} {
		emit(burn.PhaseWriting, pct)
	}
	emit(burn.PhaseVerifying, 1)
	emit(burn.PhaseVerifying, 100)

	assert.Equal(t, []string{
		"Writing:   0% (0/100 bytes, 0 B/s)",
		"Writing:  10% (10/100 bytes, 0 B/s)",
		"Writing:  25% (25/100 bytes, 0 B/s)",
		"Writing:  99% (99/100 bytes, 0 B/s)",
		"Writing: 100% (100/100 bytes, 0 B/s)",
		"Verifying:   1% (1/100 bytes, 0 B/s)",
		"Verifying: 100% (100/100 bytes, 0 B/s)",
	}, lines)
}
