// Package nemu drives the MuMu 12 renderer IPC library for in-process
// screen capture and touch injection. The library hands back the
// composited frame without going through adb at all, which makes it
// both the fastest capture backend and the only one that survives an
// adb server restart.
//
// Everything OS-specific lives behind the ipc interface; the bindings
// exist only on windows, and Open fails with ErrUnsupported elsewhere.
package nemu

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/emu-next/devio/devices/screen"
	"github.com/emu-next/devio/types"
	"github.com/emu-next/devio/utils"
)

var (
	// ErrUnsupported reports that the renderer IPC library cannot be
	// used on this platform.
	ErrUnsupported = errors.New("renderer ipc requires windows")

	// ErrBroken reports a link that has been abandoned after a wedged
	// call; the owner must reopen.
	ErrBroken = errors.New("renderer ipc link broken")
)

// DefaultTimeout bounds each raw IPC entry. The library occasionally
// never returns when the renderer it talks to has gone away.
const DefaultTimeout = 3 * time.Second

// adbPortBase and adbPortStride describe the emulator's player-index
// to adb-port mapping: instance n listens on 16384+32n, give or take
// a couple of ports on some builds.
const (
	adbPortBase   = 16384
	adbPortStride = 32
	adbPortSlack  = 2
)

// InstanceFromPort recovers the player index from an adb port. The
// second return is false for ports outside the emulator's range.
func InstanceFromPort(port int) (int, bool) {
	d := port - adbPortBase + adbPortStride/2
	if d < 0 {
		return 0, false
	}
	q, r := d/adbPortStride, d%adbPortStride
	if r < adbPortStride/2-adbPortSlack || r > adbPortStride/2+adbPortSlack {
		return 0, false
	}
	return q, true
}

// ConvertTouch maps a screen-space point onto the IPC touch axes. The
// library addresses the panel in its native landscape orientation, so
// the portrait point (x, y) lands at (height-y, x).
func ConvertTouch(p types.Point, display types.Size) types.Point {
	return types.Point{X: display.Height - p.Y, Y: p.X}
}

// ipc is the raw binding surface. Implementations must tolerate being
// abandoned mid-call: a timed-out invocation keeps running on its
// goroutine and its results are discarded.
type ipc interface {
	connect(base string, instance int) (uintptr, error)
	disconnect(handle uintptr)
	captureQuery(handle uintptr, display int) (width, height int, err error)
	capture(handle uintptr, display int, buf []byte, width, height int) error
	touchDown(handle uintptr, display, x, y int) error
	touchUp(handle uintptr, display int) error
}

// Config selects one emulator player instance.
type Config struct {
	// BasePath is the emulator installation directory (the one holding
	// shell/ and the renderer dll).
	BasePath string
	// Instance is the player index, recoverable from the adb port via
	// InstanceFromPort.
	Instance int
	// Display selects the in-player display; 0 is the main screen.
	Display int
	// Timeout bounds each raw call; zero means DefaultTimeout.
	Timeout time.Duration
}

// Link is an open connection to one player. All methods serialize:
// the library is not reentrant per handle.
type Link struct {
	cfg    Config
	ipc    ipc
	handle uintptr

	mutex  sync.Mutex
	broken bool
	size   types.Size
	buf    []byte
}

// Open connects to the given player instance.
func Open(cfg Config) (*Link, error) {
	impl, err := newIPC(cfg.BasePath)
	if err != nil {
		return nil, err
	}
	return openWith(cfg, impl)
}

func openWith(cfg Config, impl ipc) (*Link, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	l := &Link{cfg: cfg, ipc: impl}

	err := dispatch(cfg.Timeout, func() error {
		h, err := impl.connect(cfg.BasePath, cfg.Instance)
		if err != nil {
			return err
		}
		l.handle = h
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to player %d: %w", cfg.Instance, err)
	}

	utils.Verbose("Renderer IPC link up: instance=%d handle=%#x", cfg.Instance, l.handle)
	return l, nil
}

// run executes one raw call with the link's timeout. A timeout
// abandons the worker goroutine and poisons the link. Callers hold
// the mutex.
func (l *Link) run(op string, fn func() error) error {
	if l.broken {
		return ErrBroken
	}
	err := dispatch(l.cfg.Timeout, fn)
	if errors.Is(err, ErrTimeout) {
		l.broken = true
		utils.Warn("Renderer IPC %s timed out, abandoning link to player %d", op, l.cfg.Instance)
	}
	return err
}

func (l *Link) querySize() error {
	var w, h int
	err := l.run("size query", func() error {
		var qerr error
		w, h, qerr = l.ipc.captureQuery(l.handle, l.cfg.Display)
		return qerr
	})
	if err != nil {
		return err
	}
	if w <= 0 || h <= 0 {
		return fmt.Errorf("player reported display %dx%d: %w", w, h, screen.ErrCorrupted)
	}
	l.size = types.Size{Width: w, Height: h}
	return nil
}

// DisplaySize queries the current display dimensions.
func (l *Link) DisplaySize() (types.Size, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	if err := l.querySize(); err != nil {
		return types.Size{}, err
	}
	return l.size, nil
}

// Capture grabs one frame. The size is re-queried every time because
// rotation changes the display under us.
func (l *Link) Capture() (*screen.Frame, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if err := l.querySize(); err != nil {
		return nil, err
	}

	need := l.size.Width * l.size.Height * screen.Channels
	if cap(l.buf) < need {
		l.buf = make([]byte, need)
	}
	buf := l.buf[:need]

	err := l.run("capture", func() error {
		return l.ipc.capture(l.handle, l.cfg.Display, buf, l.size.Width, l.size.Height)
	})
	if err != nil {
		return nil, err
	}

	// The library fills the buffer bottom-up, as a GL readback.
	return screen.FromRGBA(l.size.Width, l.size.Height, buf, true)
}

// TouchDown presses or repositions the single IPC contact. Repeated
// calls while held are how drags move.
func (l *Link) TouchDown(p types.Point) error {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if l.size == (types.Size{}) {
		if err := l.querySize(); err != nil {
			return err
		}
	}
	cp := ConvertTouch(p, l.size)
	return l.run("touch down", func() error {
		return l.ipc.touchDown(l.handle, l.cfg.Display, cp.X, cp.Y)
	})
}

// TouchUp lifts the contact.
func (l *Link) TouchUp() error {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return l.run("touch up", func() error {
		return l.ipc.touchUp(l.handle, l.cfg.Display)
	})
}

// Broken reports whether the link has been poisoned by a timeout.
func (l *Link) Broken() bool {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return l.broken
}

// Close disconnects from the player. Safe on a broken link.
func (l *Link) Close() error {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	if l.broken {
		// A wedged worker may still hold the handle; disconnecting
		// under it risks a crash in the library. Leak it.
		return nil
	}
	l.broken = true
	return dispatch(l.cfg.Timeout, func() error {
		l.ipc.disconnect(l.handle)
		return nil
	})
}
