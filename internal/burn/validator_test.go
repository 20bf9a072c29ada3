package burn

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"must-burn/internal/device"
)

func TestValidatorSource(t *testing.T) {
	v := NewValidator(&fakeInfo{}, zerolog.Nop())

	path := writeFile(t, "image.iso", make([]byte, 2048))
	src, err := v.Source(path)
	require.NoError(t, err)
	assert.Equal(t, ImageSource{Path: path, Size: 2048}, src)

	_, err = v.Source(filepath.Join(t.TempDir(), "missing.iso"))
	assert.True(t, IsKind(err, KindSourceNotFound))

	_, err = v.Source(t.TempDir())
	assert.True(t, IsKind(err, KindInvalidSourceFormat))
}

func TestValidatorSourceAcceptsAnyExtension(t *testing.T) {
	v := NewValidator(&fakeInfo{}, zerolog.Nop())
	_, err := v.Source(writeFile(t, "image.qcow", []byte("x")))
	assert.NoError(t, err)
}

func TestValidatorTarget(t *testing.T) {
	dev := writeFile(t, "sdb", nil)

	tests := []struct {
		name string
		info *fakeInfo
		path string
		want Kind
	}{
		{"free device", &fakeInfo{capacity: 4096, known: true}, dev, ""},
		{"missing device", &fakeInfo{}, filepath.Join(t.TempDir(), "sdz"), KindDeviceNotFound},
		{"mounted partition", &fakeInfo{mounts: []device.Mount{{Device: dev + "1", MountPoint: "/media/usb"}}}, dev, KindDeviceMounted},
		{"mount table unreadable", &fakeInfo{mountsErr: errors.New("no procfs")}, dev, KindIO},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewValidator(tt.info, zerolog.Nop())
			target, err := v.Target(tt.path)
			if tt.want == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.path, target.Path)
				assert.True(t, target.CapacityKnown)
				assert.Equal(t, int64(4096), target.Capacity)
				return
			}
			assert.Equal(t, tt.want, KindOf(err))
		})
	}
}

func TestValidatorCapacity(t *testing.T) {
	v := NewValidator(&fakeInfo{}, zerolog.Nop())
	src := ImageSource{Path: "image.iso", Size: 1000}

	assert.NoError(t, v.Capacity(src, device.Target{Capacity: 1000, CapacityKnown: true}))
	assert.NoError(t, v.Capacity(src, device.Target{}), "unknown capacity passes")

	err := v.Capacity(src, device.Target{Path: "/dev/sdb", Capacity: 999, CapacityKnown: true})
	assert.True(t, IsKind(err, KindInsufficientSpace))
}
