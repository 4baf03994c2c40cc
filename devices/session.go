package devices

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/emu-next/devio/devices/nemu"
	"github.com/emu-next/devio/devices/screen"
	"github.com/emu-next/devio/devices/touch"
	"github.com/emu-next/devio/devices/watchdog"
	"github.com/emu-next/devio/types"
	"github.com/emu-next/devio/utils"
)

// State tracks where a session is in its lifecycle. Any failure along
// the way lands back in Disconnected; operations are gated on Ready.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateIdentified
	StateReady
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateIdentified:
		return "identified"
	case StateReady:
		return "ready"
	default:
		return "disconnected"
	}
}

// Identity is what one round of probes learned about the device.
// Resolved once per connect and dropped on reconnect.
type Identity struct {
	Serial string `json:"serial"`
	Model  string `json:"model,omitempty"`
	ABI    string `json:"abi"`
	SDK    int    `json:"sdk"`
	Vendor Vendor `json:"vendor"`
}

// Session is one device's I/O channel: a resolved capture strategy, a
// resolved input strategy, and the bookkeeping to survive both of
// them failing. One caller at a time; Screenshot and Inject are not
// concurrent-safe by contract.
type Session struct {
	ID      string
	profile *Profile
	adb     *Adb

	identity    Identity
	display     types.Size
	orientation int
	state       State

	repair   *screen.Repair
	forwards *ForwardManager
	watchdog *watchdog.Watchdog
	recorder *Recorder
	retrier  *Retrier

	capture         captureStrategy
	captureSeq      []string
	capturePos      int
	corruptedStreak int

	input    inputStrategy
	inputSeq []string
	inputPos int

	nemuLink *nemu.Link

	prewarm   *errgroup.Group
	prewarmed bool

	lastShot time.Time
}

// Connect normalizes the serial, brings the device up, identifies it,
// and resolves the capture and input strategies. The input side
// pre-warms in the background and is joined before the first send.
func Connect(serial string, profile *Profile) (*Session, error) {
	if profile == nil {
		profile = DefaultProfile()
	}
	serial = NormalizeSerial(serial)
	if serial == "" {
		return nil, fmt.Errorf("empty device serial")
	}

	s := &Session{
		ID:      uuid.New().String(),
		profile: profile,
		adb:     NewAdb(serial, profile),
		repair:  screen.NewRepair(),
		state:   StateConnecting,
	}
	s.forwards = NewForwardManager(s.adb)
	s.watchdog = watchdog.New(profile.WatchdogConfig())
	s.recorder = NewRecorder(profile.RecorderDepth)
	s.retrier = &Retrier{
		Tries: profile.RetryTries,
		Sleep: Backoff(profile.RetryBackoff),
		OnCategory: map[Category]func() error{
			CategoryTransportLost:        s.remediateTransport,
			CategoryAdbServerDown:        s.remediateAdbServer,
			CategoryCaptureCorrupted:     s.remediateCorrupted,
			CategoryCaptureToolMissing:   s.remediateCaptureTool,
			CategoryInjectionToolMissing: s.remediateInputTool,
		},
	}

	if err := s.establish(); err != nil {
		s.teardownTransports()
		s.state = StateDisconnected
		return nil, err
	}
	return s, nil
}

func (s *Session) establish() error {
	s.state = StateConnecting
	utils.Verbose("Connecting to %s", s.adb.Serial)

	if err := s.adb.Connect(); err != nil {
		return err
	}
	if err := s.adb.WaitDevice(s.profile.ConnectTimeout); err != nil {
		return err
	}
	if err := s.identify(); err != nil {
		return err
	}
	s.state = StateIdentified

	capture, pos, err := s.resolveCapture(captureOrder(s.profile.CaptureStrategy))
	if err != nil {
		return err
	}
	s.capture = capture
	s.captureSeq = captureOrder(s.profile.CaptureStrategy)
	s.capturePos = pos
	s.corruptedStreak = 0

	// The injection helpers take a second or two to handshake; start
	// them now and join before the first send.
	s.inputSeq = inputOrder(s.profile.InputStrategy)
	s.prewarm = &errgroup.Group{}
	s.prewarmed = false
	s.prewarm.Go(func() error {
		input, pos, err := s.resolveInput(s.inputSeq)
		if err != nil {
			return err
		}
		s.input = input
		s.inputPos = pos
		return nil
	})

	s.watchdog.Start()
	s.state = StateReady
	return nil
}

func (s *Session) identify() error {
	abi, err := s.adb.Getprop("ro.product.cpu.abi")
	if err != nil {
		return fmt.Errorf("failed to read device abi: %w", err)
	}
	sdkText, err := s.adb.Getprop("ro.build.version.sdk")
	if err != nil {
		return fmt.Errorf("failed to read sdk version: %w", err)
	}
	sdk, _ := strconv.Atoi(sdkText)
	model, _ := s.adb.Getprop("ro.product.model")

	s.identity = Identity{
		Serial: s.adb.Serial,
		Model:  model,
		ABI:    abi,
		SDK:    sdk,
		Vendor: DetectVendor(s.adb.Serial),
	}

	size, err := s.adb.DisplaySize()
	if err != nil {
		return err
	}
	s.display = size

	turn, err := s.adb.Orientation()
	if err != nil {
		utils.Verbose("Orientation probe failed, assuming portrait: %v", err)
		turn = 0
	}
	s.orientation = turn

	utils.Info("Identified %s: %s abi=%s sdk=%d vendor=%s display=%dx%d rotation=%d",
		s.identity.Serial, s.identity.Model, abi, sdk, s.identity.Vendor,
		size.Width, size.Height, turn)
	return nil
}

// guard gates every operation on session health.
func (s *Session) guard() error {
	if s.state != StateReady {
		return fmt.Errorf("session %s is %s: %w", s.adb.Serial, s.state, ErrTransportLost)
	}
	if s.watchdog.PollStuck() {
		return s.terminalize(fmt.Errorf("no progress for over %v: %w",
			s.profile.StuckLimit, ErrDeviceUnresponsive))
	}
	return nil
}

// ensureInput joins the pre-warm before the first gesture goes out.
func (s *Session) ensureInput() error {
	if s.prewarmed {
		return nil
	}
	if s.prewarm == nil {
		return fmt.Errorf("no input backend resolved: %w", ErrTransportLost)
	}
	if err := s.prewarm.Wait(); err != nil {
		return fmt.Errorf("input backend: %w", err)
	}
	s.prewarmed = true
	return nil
}

// Screenshot captures one frame, normalized to the display
// orientation, with black-frame re-captures and the retry policy
// applied. Consecutive captures are throttled to the profile's
// interval floor.
func (s *Session) Screenshot() (*screen.Frame, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}
	s.throttle()

	var frame *screen.Frame
	err := s.retrier.Do("screenshot", func() error {
		f, err := s.captureOnce()
		if err != nil {
			return err
		}
		frame = f
		return nil
	})
	if err != nil {
		return nil, s.terminalize(err)
	}

	s.lastShot = time.Now()
	s.recorder.AddFrame(frame)
	return frame, nil
}

func (s *Session) throttle() {
	interval := s.profile.ScreenshotInterval
	if interval < minScreenshotInterval {
		interval = minScreenshotInterval
	}
	if since := time.Since(s.lastShot); since < interval {
		time.Sleep(interval - since)
	}
}

func (s *Session) captureOnce() (*screen.Frame, error) {
	raw, err := s.capture.Capture()
	if err != nil {
		return nil, err
	}

	// An all-black frame is a transient surface glitch, not a decode
	// failure; re-capture a bounded number of times before treating it
	// as corruption.
	for i := 0; raw.IsPureBlack(); i++ {
		if i >= s.profile.BlackFrameRetries {
			return nil, fmt.Errorf("capture stayed black after %d retries: %w",
				s.profile.BlackFrameRetries, screen.ErrCorrupted)
		}
		utils.Verbose("Captured pure black frame, re-capturing (%d/%d)", i+1, s.profile.BlackFrameRetries)
		time.Sleep(100 * time.Millisecond)
		if raw, err = s.capture.Capture(); err != nil {
			return nil, err
		}
	}
	s.corruptedStreak = 0

	if s.capture.Oriented() {
		return raw, nil
	}
	frame := raw.Rotate(s.orientation)
	if !s.matchesDisplay(frame) {
		// Rotation may have changed under the cached value; one
		// re-probe settles it.
		if turn, err := s.adb.Orientation(); err == nil && turn != s.orientation {
			utils.Verbose("Display rotation changed %d -> %d", s.orientation, turn)
			s.orientation = turn
			frame = raw.Rotate(turn)
		}
	}
	return frame, nil
}

func (s *Session) matchesDisplay(f *screen.Frame) bool {
	if s.display.Width == 0 {
		return true
	}
	return (f.Width == s.display.Width && f.Height == s.display.Height) ||
		(f.Width == s.display.Height && f.Height == s.display.Width)
}

// Inject delivers one gesture through the resolved input backend. A
// nil gesture (a dropped micro-swipe) is a successful no-op. Named
// gestures feed the loop detector.
func (s *Session) Inject(g *touch.Gesture) error {
	if err := s.guard(); err != nil {
		return err
	}
	if g == nil {
		return nil
	}
	if err := s.ensureInput(); err != nil {
		return err
	}

	if g.Name != "" {
		s.watchdog.Record(g.Name)
		s.recorder.NoteOp(g.Name)
		if names, looping := s.watchdog.LoopCheck(); looping {
			return s.terminalize(fmt.Errorf("operation %q repeating: %w", names, ErrInputLoop))
		}
	}

	label := "inject"
	if g.Name != "" {
		label = "inject " + g.Name
	}
	return s.terminalize(s.retrier.Do(label, func() error {
		return s.input.Send(g)
	}))
}

// Tap presses and releases at p.
func (s *Session) Tap(p types.Point, name string) error {
	return s.Inject(touch.Tap(p, name))
}

// LongPress holds at p for the given duration.
func (s *Session) LongPress(p types.Point, hold time.Duration, name string) error {
	return s.Inject(touch.LongPress(p, hold, name))
}

// Swipe synthesizes and injects a drag. Endpoints closer than the
// swipe threshold are dropped successfully.
func (s *Session) Swipe(from, to types.Point, duration time.Duration, name string) error {
	if duration <= 0 {
		duration = s.profile.SwipeDuration
	}
	g := touch.BuildSwipe(from, to, touch.SwipeOptions{Duration: duration}, name)
	if g == nil {
		utils.Verbose("Swipe %v -> %v under threshold, dropped as no-op", from, to)
		return nil
	}
	return s.Inject(g)
}

// TypeText sends text through the stock input command. Spaces need
// the %s escape on every Android version.
func (s *Session) TypeText(text string) error {
	if err := s.guard(); err != nil {
		return err
	}
	escaped := strings.ReplaceAll(text, " ", "%s")
	return s.terminalize(s.retrier.Do("type text", func() error {
		_, err := s.adb.Shell("input", "text", escaped)
		return err
	}))
}

var buttonKeycodes = map[string]string{
	"home":        "3",
	"back":        "4",
	"menu":        "82",
	"power":       "26",
	"volume_up":   "24",
	"volume_down": "25",
}

// PressButton injects a hardware key by name.
func (s *Session) PressButton(key string) error {
	if err := s.guard(); err != nil {
		return err
	}
	keycode, ok := buttonKeycodes[key]
	if !ok {
		return fmt.Errorf("unsupported button %q", key)
	}
	return s.terminalize(s.retrier.Do("press "+key, func() error {
		_, err := s.adb.Shell("input", "keyevent", keycode)
		return err
	}))
}

// Progress tells the watchdog the outside world observed forward
// motion. The session cannot judge that itself.
func (s *Session) Progress() {
	s.watchdog.Progress()
}

// terminalize dumps a failure report for terminal errors on their way
// out.
func (s *Session) terminalize(err error) error {
	if err == nil || !Classify(err).Terminal() {
		return err
	}
	if s.profile.ReportDir != "" {
		if _, derr := s.recorder.Dump(s.profile.ReportDir, s.identity, err); derr != nil {
			utils.Verbose("Failed to write failure report: %v", derr)
		}
	}
	return err
}

// DumpReport writes the current recorder contents regardless of
// session health.
func (s *Session) DumpReport(cause error) (string, error) {
	return s.recorder.Dump(s.profile.ReportDir, s.identity, cause)
}

// Reconnect tears the transports down and replays the connect
// sequence. The CR-repair rule cache survives; identity and
// orientation are re-probed.
func (s *Session) Reconnect() error {
	utils.Info("Reconnecting %s", s.adb.Serial)
	s.teardownTransports()
	if err := s.adb.Disconnect(); err != nil {
		utils.Verbose("adb disconnect during reconnect: %v", err)
	}
	if err := s.establish(); err != nil {
		s.state = StateDisconnected
		return fmt.Errorf("reconnect %s: %w", s.adb.Serial, err)
	}
	return nil
}

func (s *Session) teardownTransports() {
	if s.prewarm != nil {
		// A pre-warm still in flight owns s.input until joined.
		if err := s.prewarm.Wait(); err != nil {
			utils.Verbose("Pre-warm ended with: %v", err)
		}
		s.prewarm = nil
	}
	s.prewarmed = false

	if s.input != nil {
		s.input.Close()
		s.input = nil
	}
	if s.capture != nil {
		s.capture.Close()
		s.capture = nil
	}
	if s.nemuLink != nil {
		s.nemuLink.Close()
		s.nemuLink = nil
	}
	s.forwards.RemoveAll()
}

// Close is idempotent.
func (s *Session) Close() error {
	if s.state == StateDisconnected {
		return nil
	}
	s.teardownTransports()
	if err := s.adb.Disconnect(); err != nil {
		utils.Verbose("adb disconnect on close: %v", err)
	}
	s.state = StateDisconnected
	utils.Verbose("Session %s closed", s.ID)
	return nil
}

// Remediations. All are safe to re-run.

func (s *Session) remediateTransport() error {
	return s.Reconnect()
}

func (s *Session) remediateAdbServer() error {
	if err := s.adb.RestartServer(); err != nil {
		return err
	}
	return s.Reconnect()
}

// remediateCorrupted lets the first corrupted capture retry plainly;
// a repeat demotes the backend.
func (s *Session) remediateCorrupted() error {
	s.corruptedStreak++
	if s.corruptedStreak < 2 {
		return nil
	}
	return s.demoteCapture()
}

func (s *Session) remediateCaptureTool() error {
	name := s.captureName()
	if err := s.reinstallHelper(name); err != nil {
		utils.Verbose("Capture helper reinstall unavailable: %v", err)
		return s.demoteCapture()
	}
	return s.reinitCapture()
}

func (s *Session) remediateInputTool() error {
	name := ""
	if s.input != nil {
		name = s.input.Name()
	}
	if err := s.reinstallHelper(name); err != nil {
		utils.Verbose("Input helper reinstall unavailable: %v", err)
		return s.demoteInput()
	}
	return s.reinitInput()
}

func (s *Session) demoteCapture() error {
	if s.capture != nil {
		s.capture.Close()
		s.capture = nil
	}
	for i := s.capturePos + 1; i < len(s.captureSeq); i++ {
		strat, err := s.buildCapture(s.captureSeq[i])
		if err != nil {
			utils.Verbose("Capture backend %s unavailable during demotion: %v", s.captureSeq[i], err)
			continue
		}
		utils.Info("Capture backend demoted to %s", strat.Name())
		s.capture = strat
		s.capturePos = i
		s.corruptedStreak = 0
		return nil
	}
	return fmt.Errorf("no capture backend left to fall back to")
}

func (s *Session) demoteInput() error {
	if s.input != nil {
		s.input.Close()
		s.input = nil
	}
	for i := s.inputPos + 1; i < len(s.inputSeq); i++ {
		strat, err := s.buildInput(s.inputSeq[i])
		if err != nil {
			utils.Verbose("Input backend %s unavailable during demotion: %v", s.inputSeq[i], err)
			continue
		}
		utils.Info("Input backend demoted to %s", strat.Name())
		s.input = strat
		s.inputPos = i
		return nil
	}
	return fmt.Errorf("no input backend left to fall back to")
}

// reinitCapture rebuilds the active capture strategy in place, after
// a helper reinstall.
func (s *Session) reinitCapture() error {
	if s.capture != nil {
		s.capture.Close()
	}
	strat, err := s.buildCapture(s.captureSeq[s.capturePos])
	if err != nil {
		s.capture = nil
		return err
	}
	s.capture = strat
	return nil
}

func (s *Session) reinitInput() error {
	if s.input != nil {
		s.input.Close()
	}
	strat, err := s.buildInput(s.inputSeq[s.inputPos])
	if err != nil {
		s.input = nil
		return err
	}
	s.input = strat
	return nil
}

// Accessors used by the command and server layers.

func (s *Session) Serial() string {
	return s.adb.Serial
}

func (s *Session) State() State {
	return s.state
}

func (s *Session) Identity() Identity {
	return s.identity
}

func (s *Session) Display() types.Size {
	return s.display
}

func (s *Session) Orientation() int {
	return s.orientation
}

func (s *Session) Adb() *Adb {
	return s.adb
}

func (s *Session) captureName() string {
	if s.capture == nil {
		return ""
	}
	return s.capture.Name()
}

func (s *Session) inputName() string {
	if s.input == nil {
		return ""
	}
	return s.input.Name()
}

// SessionInfo is the JSON-friendly session snapshot.
type SessionInfo struct {
	ID string `json:"id"`
	Identity
	Display        types.Size `json:"display"`
	Orientation    int        `json:"orientation"`
	State          string     `json:"state"`
	CaptureBackend string     `json:"captureBackend,omitempty"`
	InputBackend   string     `json:"inputBackend,omitempty"`
}

func (s *Session) Info() SessionInfo {
	if err := s.ensureInput(); err != nil {
		utils.Verbose("Input backend unavailable: %v", err)
	}
	return SessionInfo{
		ID:             s.ID,
		Identity:       s.identity,
		Display:        s.display,
		Orientation:    s.orientation,
		State:          s.state.String(),
		CaptureBackend: s.captureName(),
		InputBackend:   s.inputName(),
	}
}
