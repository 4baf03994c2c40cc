package devices

import (
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/emu-next/devio/devices/screen"
	"github.com/emu-next/devio/utils"
)

// shellCapture grabs frames with the on-device screencap binary. The
// preferred channel is `adb exec-out` (8-bit clean); devices without
// it fall back to `adb shell screencap -p`, whose output goes through
// CR repair before PNG decoding.
type shellCapture struct {
	adb     *Adb
	repair  *screen.Repair
	execOut bool
}

func newShellCapture(adb *Adb, repair *screen.Repair) *shellCapture {
	c := &shellCapture{adb: adb, repair: repair}
	c.execOut = c.probeExecOut()
	if !c.execOut {
		utils.Verbose("Device %s has no exec-out, using shell capture with CR repair", adb.Serial)
	}
	return c
}

func (c *shellCapture) probeExecOut() bool {
	out, err := c.adb.ExecOut("echo", "ok")
	return err == nil && strings.Contains(string(out), "ok")
}

func (c *shellCapture) Name() string {
	return "shell"
}

func (c *shellCapture) Capture() (*screen.Frame, error) {
	if c.execOut {
		raw, err := c.adb.ExecOut("screencap")
		if err != nil {
			return nil, err
		}
		frame, rawErr := screen.DecodeRaw(raw)
		if rawErr == nil {
			return frame, nil
		}
		// Some screencap builds only emit PNG; one probe settles it.
		if png, err := c.adb.ExecOut("screencap", "-p"); err == nil {
			if frame, err := screen.DecodePNG(png); err == nil {
				return frame, nil
			}
		}
		return nil, rawErr
	}

	raw, err := c.adb.ShellBytes("screencap", "-p")
	if err != nil {
		return nil, err
	}
	return c.repair.DecodePNG(raw)
}

func (c *shellCapture) Oriented() bool {
	return true
}

func (c *shellCapture) Close() error {
	return nil
}

// ncCapture runs screencap on the device and streams the raw frame
// over netcat through an adb reverse tunnel. On emulators this beats
// the exec-out channel by a wide margin because the bytes ride the
// loopback instead of the adb protocol.
type ncCapture struct {
	adb        *Adb
	forwards   *ForwardManager
	listener   net.Listener
	devicePort int
	timeout    time.Duration
}

// ncDevicePort is where the device-side nc dials; reversed onto the
// host listener.
const ncDevicePort = 20937

func newNcCapture(adb *Adb, forwards *ForwardManager, timeout time.Duration) (*ncCapture, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("failed to open capture listener: %w", err)
	}
	localPort := listener.Addr().(*net.TCPAddr).Port

	if err := forwards.Reverse(ncDevicePort, localPort); err != nil {
		listener.Close()
		return nil, fmt.Errorf("reverse for netcat capture: %w", err)
	}

	c := &ncCapture{
		adb:        adb,
		forwards:   forwards,
		listener:   listener,
		devicePort: ncDevicePort,
		timeout:    timeout,
	}
	if err := c.probe(); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

// probe checks the device actually has nc and the tunnel works.
func (c *ncCapture) probe() error {
	out, err := c.adb.Shell("which", "nc")
	if err != nil {
		return err
	}
	if strings.TrimSpace(out) == "" {
		return fmt.Errorf("device has no nc binary: %w", ErrCaptureToolMissing)
	}
	_, err = c.Capture()
	return err
}

func (c *ncCapture) Name() string {
	return "shell-nc"
}

func (c *ncCapture) Capture() (*screen.Frame, error) {
	type result struct {
		data []byte
		err  error
	}
	accepted := make(chan result, 1)
	go func() {
		if tl, ok := c.listener.(*net.TCPListener); ok {
			tl.SetDeadline(time.Now().Add(c.timeout))
		}
		conn, err := c.listener.Accept()
		if err != nil {
			accepted <- result{nil, err}
			return
		}
		defer conn.Close()
		conn.SetReadDeadline(time.Now().Add(c.timeout))
		data, err := io.ReadAll(conn)
		accepted <- result{data, err}
	}()

	cmd := fmt.Sprintf("screencap | nc 127.0.0.1 %d", c.devicePort)
	if _, err := c.adb.Shell("sh", "-c", cmd); err != nil {
		return nil, err
	}

	res := <-accepted
	if res.err != nil {
		return nil, fmt.Errorf("netcat capture stream: %v: %w", res.err, ErrTransportLost)
	}
	return screen.DecodeRaw(res.data)
}

func (c *ncCapture) Oriented() bool {
	return true
}

func (c *ncCapture) Close() error {
	return c.listener.Close()
}
