package devices

import (
	"errors"
	"fmt"

	"github.com/emu-next/devio/devices/nemu"
	"github.com/emu-next/devio/devices/screen"
	"github.com/emu-next/devio/devices/touch"
)

var (
	// ErrTransportLost reports a severed adb connection or a dead
	// helper pipe. Recoverable by reconnecting the session.
	ErrTransportLost = errors.New("device transport lost")

	// ErrAdbServerDown reports a local adb server that stopped
	// answering. Recoverable by restarting the server.
	ErrAdbServerDown = errors.New("adb server not responding")

	// ErrCaptureToolMissing reports an absent or non-executable capture
	// helper on the device.
	ErrCaptureToolMissing = errors.New("capture helper missing on device")

	// ErrDeviceUnresponsive reports a device that made no observable
	// progress past the stall limit. Terminal.
	ErrDeviceUnresponsive = errors.New("device unresponsive past stall limit")

	// ErrInputLoop reports the same operations repeating past the loop
	// thresholds. Terminal: retrying is what caused it.
	ErrInputLoop = errors.New("input loop detected")
)

// OperatorError is the terminal give-up: every retry and remediation
// was spent. It wraps the last concrete cause.
type OperatorError struct {
	Attempts int
	Cause    error
}

func (e *OperatorError) Error() string {
	return fmt.Sprintf("giving up after %d attempts: %v", e.Attempts, e.Cause)
}

func (e *OperatorError) Unwrap() error {
	return e.Cause
}

// Category buckets errors by the remediation that can fix them.
type Category int

const (
	CategoryOther Category = iota
	CategoryTransportLost
	CategoryAdbServerDown
	CategoryCaptureCorrupted
	CategoryCaptureToolMissing
	CategoryInjectionToolMissing
	CategoryTerminal
)

func (c Category) String() string {
	switch c {
	case CategoryTransportLost:
		return "transport-lost"
	case CategoryAdbServerDown:
		return "adb-server-down"
	case CategoryCaptureCorrupted:
		return "capture-corrupted"
	case CategoryCaptureToolMissing:
		return "capture-tool-missing"
	case CategoryInjectionToolMissing:
		return "injection-tool-missing"
	case CategoryTerminal:
		return "terminal"
	default:
		return "other"
	}
}

// Terminal reports whether errors of this category must never be
// retried.
func (c Category) Terminal() bool {
	return c == CategoryTerminal
}

// Classify folds any error from the capture, injection and transport
// layers into its remediation category.
func Classify(err error) Category {
	var opErr *OperatorError
	switch {
	case err == nil:
		return CategoryOther
	case errors.As(err, &opErr),
		errors.Is(err, ErrDeviceUnresponsive),
		errors.Is(err, ErrInputLoop):
		return CategoryTerminal
	case errors.Is(err, ErrAdbServerDown):
		return CategoryAdbServerDown
	case errors.Is(err, ErrTransportLost),
		errors.Is(err, touch.ErrConnClosed),
		errors.Is(err, nemu.ErrBroken),
		errors.Is(err, nemu.ErrTimeout):
		return CategoryTransportLost
	case errors.Is(err, screen.ErrCorrupted):
		return CategoryCaptureCorrupted
	case errors.Is(err, ErrCaptureToolMissing),
		errors.Is(err, nemu.ErrUnsupported):
		return CategoryCaptureToolMissing
	case errors.Is(err, touch.ErrNotInstalled):
		return CategoryInjectionToolMissing
	default:
		return CategoryOther
	}
}
