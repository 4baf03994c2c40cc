package devices

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/emu-next/devio/devices/nemu"
	"github.com/emu-next/devio/devices/screen"
	"github.com/emu-next/devio/devices/touch"
	"github.com/emu-next/devio/types"
	"github.com/emu-next/devio/utils"
)

// captureStrategy is one resolved way to obtain frames. Strategies
// are picked once at connect and replaced only by demotion. Oriented
// reports whether frames already match the display rotation (the
// screencap paths do; framebuffer and renderer IPC reads are in panel
// space and need the session's rotation applied).
type captureStrategy interface {
	Name() string
	Capture() (*screen.Frame, error)
	Oriented() bool
	Close() error
}

// inputStrategy is one resolved way to deliver gestures.
type inputStrategy interface {
	Name() string
	Send(g *touch.Gesture) error
	Close() error
}

// Backend describes one probe outcome, for diagnostics.
type Backend struct {
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	Available bool   `json:"available"`
	Note      string `json:"note,omitempty"`
}

var (
	captureAutoOrder = []string{"nemu", "ascap", "shell-nc", "shell"}
	inputAutoOrder   = []string{"maatouch", "minitouch", "nemu", "shell"}
)

func captureOrder(pref string) []string {
	if pref == "" || pref == "auto" {
		return captureAutoOrder
	}
	return []string{pref}
}

func inputOrder(pref string) []string {
	if pref == "" || pref == "auto" {
		return inputAutoOrder
	}
	return []string{pref}
}

// resolveCapture walks the order until one backend probes healthy.
func (s *Session) resolveCapture(order []string) (captureStrategy, int, error) {
	var failures []string
	for i, name := range order {
		strat, err := s.buildCapture(name)
		if err == nil {
			utils.Verbose("Capture backend for %s: %s", s.adb.Serial, strat.Name())
			return strat, i, nil
		}
		utils.Verbose("Capture backend %s unavailable: %v", name, err)
		failures = append(failures, fmt.Sprintf("%s: %v", name, err))
	}
	return nil, 0, fmt.Errorf("no capture backend available (%s)", strings.Join(failures, "; "))
}

func (s *Session) buildCapture(name string) (captureStrategy, error) {
	switch name {
	case "nemu":
		link, err := s.openNemu()
		if err != nil {
			return nil, err
		}
		return &nemuCapture{link: link}, nil
	case "ascap":
		return newAscapCapture(s.adb, s.identity.ABI)
	case "shell-nc":
		return newNcCapture(s.adb, s.forwards, s.profile.AdbTimeout)
	case "shell":
		return newShellCapture(s.adb, s.repair), nil
	default:
		return nil, fmt.Errorf("unknown capture strategy %q", name)
	}
}

// resolveInput walks the order until a backend handshakes.
func (s *Session) resolveInput(order []string) (inputStrategy, int, error) {
	var failures []string
	for i, name := range order {
		strat, err := s.buildInput(name)
		if err == nil {
			utils.Verbose("Input backend for %s: %s", s.adb.Serial, strat.Name())
			return strat, i, nil
		}
		utils.Verbose("Input backend %s unavailable: %v", name, err)
		failures = append(failures, fmt.Sprintf("%s: %v", name, err))
	}
	return nil, 0, fmt.Errorf("no input backend available (%s)", strings.Join(failures, "; "))
}

func (s *Session) buildInput(name string) (inputStrategy, error) {
	switch name {
	case "maatouch":
		return newHelperInput(s.adb, touch.HelperMaaTouch, s.display)
	case "minitouch":
		return newHelperInput(s.adb, touch.HelperMinitouch, s.display)
	case "nemu":
		if s.nemuLink == nil {
			return nil, fmt.Errorf("renderer ipc input needs an open capture link")
		}
		return &nemuInput{link: s.nemuLink}, nil
	case "shell":
		return &shellInput{adb: s.adb}, nil
	default:
		return nil, fmt.Errorf("unknown input strategy %q", name)
	}
}

// openNemu establishes (or returns the existing) renderer IPC link.
func (s *Session) openNemu() (*nemu.Link, error) {
	if s.nemuLink != nil && !s.nemuLink.Broken() {
		return s.nemuLink, nil
	}
	if s.profile.EmulatorPath == "" {
		return nil, fmt.Errorf("no emulator path configured")
	}
	if !s.identity.Vendor.SupportsNemu() {
		return nil, fmt.Errorf("vendor %s has no renderer ipc", s.identity.Vendor)
	}
	port, ok := SerialPort(s.adb.Serial)
	if !ok {
		return nil, fmt.Errorf("serial %s has no adb port", s.adb.Serial)
	}
	instance, ok := nemu.InstanceFromPort(port)
	if !ok {
		return nil, fmt.Errorf("port %d is outside the player range", port)
	}

	link, err := nemu.Open(nemu.Config{
		BasePath: s.profile.EmulatorPath,
		Instance: instance,
		Display:  s.profile.NemuDisplay,
		Timeout:  s.profile.NemuTimeout,
	})
	if err != nil {
		return nil, err
	}
	s.nemuLink = link
	return link, nil
}

// nemuCapture borrows the session's renderer IPC link. The session
// owns the link; Close here is a no-op.
type nemuCapture struct {
	link *nemu.Link
}

func (c *nemuCapture) Name() string {
	return "nemu"
}

func (c *nemuCapture) Capture() (*screen.Frame, error) {
	return c.link.Capture()
}

func (c *nemuCapture) Oriented() bool {
	return false
}

func (c *nemuCapture) Close() error {
	return nil
}

// nemuInput replays gesture events as renderer IPC contact calls.
// The IPC has a single contact; moves are repeated downs.
type nemuInput struct {
	link *nemu.Link
}

func (n *nemuInput) Name() string {
	return "nemu"
}

func (n *nemuInput) Send(g *touch.Gesture) error {
	if g == nil {
		return nil
	}
	for _, ev := range g.Events {
		switch ev.Kind {
		case touch.EventDown, touch.EventMove:
			if err := n.link.TouchDown(ev.Pos); err != nil {
				return err
			}
		case touch.EventUp:
			if err := n.link.TouchUp(); err != nil {
				return err
			}
		case touch.EventWait:
			time.Sleep(time.Duration(ev.WaitMS) * time.Millisecond)
		}
	}
	return nil
}

func (n *nemuInput) Close() error {
	return nil
}

// helperInput drives a persistent stdin helper (maatouch/minitouch).
type helperInput struct {
	helper touch.Helper
	conn   *touch.Conn
	scaler *touch.Scaler
}

func newHelperInput(adb *Adb, helper touch.Helper, display types.Size) (*helperInput, error) {
	conn, err := touch.Dial(adb.ShellCommand(helper.ShellArgs()...))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", helper, err)
	}
	return &helperInput{
		helper: helper,
		conn:   conn,
		scaler: conn.Banner().ScalerFor(display),
	}, nil
}

func (h *helperInput) Name() string {
	return h.helper.String()
}

func (h *helperInput) Send(g *touch.Gesture) error {
	return h.conn.Send(context.Background(), g, h.scaler)
}

func (h *helperInput) Close() error {
	return h.conn.Close()
}

// shellInput is the always-available fallback: the stock `input`
// command. One exec per gesture and tap/swipe shapes only, but it
// needs nothing installed.
type shellInput struct {
	adb *Adb
}

func (s *shellInput) Name() string {
	return "shell"
}

func (s *shellInput) Send(g *touch.Gesture) error {
	if g == nil {
		return nil
	}
	var down, last types.Point
	var haveDown, haveMove bool
	for _, ev := range g.Events {
		switch ev.Kind {
		case touch.EventDown:
			if !haveDown {
				down = ev.Pos
				haveDown = true
			}
		case touch.EventMove:
			last = ev.Pos
			haveMove = true
		}
	}
	if !haveDown {
		return nil
	}

	if !haveMove {
		_, err := s.adb.Shell("input", "tap", strconv.Itoa(down.X), strconv.Itoa(down.Y))
		return err
	}

	durationMS := int(g.Duration().Milliseconds())
	if durationMS <= 0 {
		durationMS = 300
	}
	_, err := s.adb.Shell("input", "swipe",
		strconv.Itoa(down.X), strconv.Itoa(down.Y),
		strconv.Itoa(last.X), strconv.Itoa(last.Y),
		strconv.Itoa(durationMS))
	return err
}

func (s *shellInput) Close() error {
	return nil
}

// ProbeBackends tries every backend once and reports availability.
// Probed strategies are closed immediately; the session's resolved
// strategies are untouched.
func (s *Session) ProbeBackends() []Backend {
	var out []Backend
	for _, name := range captureAutoOrder {
		b := Backend{Name: name, Kind: "capture"}
		if name == s.captureName() {
			b.Available = true
			b.Note = "active"
		} else if strat, err := s.buildCapture(name); err != nil {
			b.Note = err.Error()
		} else {
			b.Available = true
			strat.Close()
		}
		out = append(out, b)
	}
	for _, name := range inputAutoOrder {
		b := Backend{Name: name, Kind: "input"}
		if name == s.inputName() {
			b.Available = true
			b.Note = "active"
		} else if strat, err := s.buildInput(name); err != nil {
			b.Note = err.Error()
		} else {
			b.Available = true
			strat.Close()
		}
		out = append(out, b)
	}
	return out
}
