package devices

import (
	"errors"
	"fmt"
	"testing"

	"github.com/emu-next/devio/devices/nemu"
	"github.com/emu-next/devio/devices/screen"
	"github.com/emu-next/devio/devices/touch"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Category
	}{
		{"nil", nil, CategoryOther},
		{"plain", errors.New("boom"), CategoryOther},
		{"transport", ErrTransportLost, CategoryTransportLost},
		{"wrapped_transport", fmt.Errorf("adb shell: %w", ErrTransportLost), CategoryTransportLost},
		{"helper_pipe", touch.ErrConnClosed, CategoryTransportLost},
		{"renderer_broken", nemu.ErrBroken, CategoryTransportLost},
		{"renderer_timeout", nemu.ErrTimeout, CategoryTransportLost},
		{"server_down", ErrAdbServerDown, CategoryAdbServerDown},
		{"corrupted", screen.ErrCorrupted, CategoryCaptureCorrupted},
		{"wrapped_corrupted", fmt.Errorf("decode: %w", screen.ErrCorrupted), CategoryCaptureCorrupted},
		{"capture_tool", ErrCaptureToolMissing, CategoryCaptureToolMissing},
		{"renderer_unsupported", nemu.ErrUnsupported, CategoryCaptureToolMissing},
		{"input_tool", touch.ErrNotInstalled, CategoryInjectionToolMissing},
		{"unresponsive", ErrDeviceUnresponsive, CategoryTerminal},
		{"input_loop", ErrInputLoop, CategoryTerminal},
		{"operator", &OperatorError{Attempts: 3, Cause: ErrTransportLost}, CategoryTerminal},
		{"wrapped_operator", fmt.Errorf("screenshot: %w", &OperatorError{Attempts: 2, Cause: errors.New("x")}), CategoryTerminal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestCategoryTerminal(t *testing.T) {
	if !CategoryTerminal.Terminal() {
		t.Error("CategoryTerminal must be terminal")
	}
	for _, c := range []Category{CategoryOther, CategoryTransportLost, CategoryAdbServerDown,
		CategoryCaptureCorrupted, CategoryCaptureToolMissing, CategoryInjectionToolMissing} {
		if c.Terminal() {
			t.Errorf("%v must not be terminal", c)
		}
	}
}

func TestOperatorError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("capture: %w", screen.ErrCorrupted)
	err := &OperatorError{Attempts: 3, Cause: cause}

	if !errors.Is(err, screen.ErrCorrupted) {
		t.Error("OperatorError must expose its cause chain")
	}

	var opErr *OperatorError
	if !errors.As(error(err), &opErr) || opErr.Attempts != 3 {
		t.Errorf("errors.As lost the attempt count: %+v", opErr)
	}
}
