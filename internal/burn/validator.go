package burn

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"must-burn/internal/device"
)

// ImageSource is the file being written. Size is read once, at validation.
type ImageSource struct {
	Path string
	Size int64
}

var imageExtensions = map[string]bool{
	".iso": true,
	".img": true,
	".raw": true,
	".bin": true,
}

// Validator runs the read-only precondition checks. It never opens the
// target for writing.
type Validator struct {
	info device.InfoProvider
	log  zerolog.Logger
}

func NewValidator(info device.InfoProvider, log zerolog.Logger) *Validator {
	return &Validator{info: info, log: log}
}

// Source checks that the image exists and is a regular file.
func (v *Validator) Source(path string) (ImageSource, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return ImageSource{}, classifySource(path, err)
	}
	if !fi.Mode().IsRegular() {
		e := newError(KindInvalidSourceFormat, path)
		e.Detail = fmt.Sprintf("not a regular file (%s)", fi.Mode().Type())
		return ImageSource{}, e
	}
	if ext := strings.ToLower(filepath.Ext(path)); !imageExtensions[ext] {
		v.log.Warn().Str("source", path).Str("extension", ext).Msg("Image does not have a disk image extension")
	}
	return ImageSource{Path: path, Size: fi.Size()}, nil
}

// Target checks that the device exists and that nothing on it is mounted,
// and records its capacity when the platform can tell.
func (v *Validator) Target(path string) (device.Target, error) {
	if err := v.Present(path); err != nil {
		return device.Target{}, err
	}

	t, err := device.Describe(v.info, path)
	if err != nil {
		return t, wrapError(KindIO, path, fmt.Errorf("read mount table: %w", err))
	}
	if t.Mounted() {
		mounted := make([]string, 0, len(t.Mounts))
		for _, m := range t.Mounts {
			mounted = append(mounted, m.Device)
		}
		e := newError(KindDeviceMounted, path)
		e.Detail = "mounted: " + strings.Join(mounted, ", ")
		return t, e
	}
	return t, nil
}

// Present checks only that the device exists.
func (v *Validator) Present(path string) error {
	ok, err := v.info.Exists(path)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return wrapError(KindPermissionDenied, path, err)
		}
		return wrapError(KindIO, path, err)
	}
	if !ok {
		return newError(KindDeviceNotFound, path)
	}
	return nil
}

// Capacity fails with KindInsufficientSpace when the device is known to be
// smaller than the image. Unknown capacity passes.
func (v *Validator) Capacity(src ImageSource, t device.Target) error {
	if !t.CapacityKnown {
		v.log.Debug().Str("target", t.Path).Msg("Device capacity unknown, skipping size check")
		return nil
	}
	if src.Size > t.Capacity {
		e := newError(KindInsufficientSpace, t.Path)
		e.Detail = fmt.Sprintf("image is %d bytes, device holds %d", src.Size, t.Capacity)
		return e
	}
	return nil
}
