package devices

import (
	"fmt"
	"strings"

	"github.com/emu-next/devio/devices/screen"
)

// AscapPath is where the compressed-capture helper lives on device.
const AscapPath = "/data/local/tmp/ascap"

// ascapCapture invokes the pushed helper, which grabs the framebuffer
// and emits the LZ4-packed format. Worth the install on arm devices
// where screencap's PNG encode dominates capture latency.
type ascapCapture struct {
	adb *Adb
}

func newAscapCapture(adb *Adb, abi string) (*ascapCapture, error) {
	if !strings.HasPrefix(abi, "arm") {
		return nil, fmt.Errorf("helper ships arm builds only, device is %s: %w", abi, ErrCaptureToolMissing)
	}
	c := &ascapCapture{adb: adb}
	frame, err := c.Capture()
	if err != nil {
		return nil, err
	}
	if frame == nil {
		return nil, ErrCaptureToolMissing
	}
	return c, nil
}

func (c *ascapCapture) Name() string {
	return "ascap"
}

func (c *ascapCapture) Capture() (*screen.Frame, error) {
	raw, err := c.adb.ExecOut(AscapPath, "--pack")
	if err != nil {
		return nil, err
	}
	if missing := helperMissingOutput(string(raw)); missing != "" {
		return nil, fmt.Errorf("%s: %w", missing, ErrCaptureToolMissing)
	}
	return screen.DecodeCompressed(raw)
}

func (c *ascapCapture) Oriented() bool {
	return false
}

func (c *ascapCapture) Close() error {
	return nil
}

// helperMissingOutput recognizes the shell's complaints about an
// absent or unrunnable binary inside what should be frame bytes.
func helperMissingOutput(out string) string {
	if len(out) > 256 {
		out = out[:256]
	}
	for _, marker := range []string{"not executable", "No such file", "not found", "Permission denied"} {
		if strings.Contains(out, marker) {
			return strings.TrimSpace(out)
		}
	}
	return ""
}
