package burn

import (
	"errors"
	"fmt"
	"io/fs"
	"syscall"
)

// Kind identifies a class of write session failure.
type Kind string

const (
	KindSourceNotFound      Kind = "SOURCE_NOT_FOUND"
	KindDeviceNotFound      Kind = "DEVICE_NOT_FOUND"
	KindDeviceMounted       Kind = "DEVICE_MOUNTED"
	KindPermissionDenied    Kind = "PERMISSION_DENIED"
	KindInsufficientSpace   Kind = "INSUFFICIENT_SPACE"
	KindVerificationFailed  Kind = "VERIFICATION_FAILED"
	KindDeviceBusy          Kind = "DEVICE_BUSY"
	KindInvalidSourceFormat Kind = "INVALID_SOURCE_FORMAT"
	KindCancelled           Kind = "CANCELLED"
	KindIO                  Kind = "IO_FAILURE"
)

// Error is the terminal failure of a write session.
type Error struct {
	Kind Kind
	// Path is the source or device path the failure relates to, if any.
	Path string
	// Detail is a diagnostic string, mostly for KindIO.
	Detail string
	// Offset is the first mismatching byte for KindVerificationFailed, -1 otherwise.
	Offset int64
	Err    error
}

func newError(kind Kind, path string) *Error {
	return &Error{Kind: kind, Path: path, Offset: -1}
}

func wrapError(kind Kind, path string, err error) *Error {
	e := newError(kind, path)
	e.Err = err
	if err != nil {
		e.Detail = err.Error()
	}
	return e
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Kind == KindVerificationFailed && e.Offset >= 0 {
		msg += fmt.Sprintf(": first mismatch at byte %d", e.Offset)
	}
	if e.Err != nil {
		return fmt.Sprintf("[%s]: %v", msg, e.Err)
	}
	if e.Detail != "" {
		return fmt.Sprintf("[%s]: %s", msg, e.Detail)
	}
	return "[" + msg + "]"
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

// Retryable reports whether the user can fix the condition and try again
// without changing hardware or privileges.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindDeviceMounted, KindDeviceBusy, KindCancelled:
		return true
	}
	return false
}

// UserMessage is a sentence suitable for showing in a front-end.
func (e *Error) UserMessage() string {
	switch e.Kind {
	case KindSourceNotFound:
		return fmt.Sprintf("The image file '%s' could not be found. Check that the file exists and try again.", e.Path)
	case KindDeviceNotFound:
		return fmt.Sprintf("The device '%s' could not be found. Make sure it is connected and refresh the device list.", e.Path)
	case KindDeviceMounted:
		return fmt.Sprintf("The device '%s' is currently mounted. Unmount all of its partitions before writing.", e.Path)
	case KindPermissionDenied:
		return "Permission denied. Writing to a raw device usually requires root or administrator privileges."
	case KindInsufficientSpace:
		return "The device is smaller than the image. Use a larger device."
	case KindVerificationFailed:
		return "The image was written but verification failed. The data on the device may be corrupted, write it again."
	case KindDeviceBusy:
		return "The device is busy. Wait for other programs to release it and try again."
	case KindInvalidSourceFormat:
		return "The selected file does not look like a disk image."
	case KindCancelled:
		return "The operation was cancelled."
	}
	return fmt.Sprintf("An I/O error occurred: %s. Check the device connection.", e.Detail)
}

// KindOf returns the failure kind carried by err, or "" when err is not a
// session failure.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given failure kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// classifyDevice maps an error from opening or writing the target device.
func classifyDevice(path string, err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return wrapError(KindDeviceNotFound, path, err)
	case errors.Is(err, fs.ErrPermission), errors.Is(err, syscall.EROFS):
		return wrapError(KindPermissionDenied, path, err)
	case errors.Is(err, syscall.EBUSY):
		return wrapError(KindDeviceBusy, path, err)
	}
	return wrapError(KindIO, path, err)
}

// classifySource maps an error from opening or reading the image.
func classifySource(path string, err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	if errors.Is(err, fs.ErrNotExist) {
		return wrapError(KindSourceNotFound, path, err)
	}
	if errors.Is(err, fs.ErrPermission) {
		return wrapError(KindPermissionDenied, path, err)
	}
	return wrapError(KindIO, path, err)
}
