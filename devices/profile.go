package devices

import (
	"os"
	"time"

	"gopkg.in/ini.v1"

	"github.com/emu-next/devio/devices/watchdog"
	"github.com/emu-next/devio/utils"
)

// Profile carries every tunable a session consumes. No globals: a
// profile is built once (defaults, optionally overlaid from an ini
// file, then flags) and threaded into Connect explicitly.
type Profile struct {
	AdbPath        string
	AdbTimeout     time.Duration
	ConnectTimeout time.Duration

	CaptureStrategy    string
	InputStrategy      string
	ScreenshotInterval time.Duration
	BlackFrameRetries  int

	RetryTries   int
	RetryBackoff time.Duration

	StuckLimit    time.Duration
	StuckConfirm  int
	LoopOverrides map[string]int

	SwipeDuration time.Duration

	ToolsDir      string
	ReportDir     string
	RecorderDepth int

	EmulatorPath string
	NemuDisplay  int
	NemuTimeout  time.Duration
}

// minScreenshotInterval is the hard floor under every configuration;
// capturing faster than this starves the device's own rendering.
const minScreenshotInterval = 100 * time.Millisecond

// DefaultProfile returns the settings used when no config file exists.
func DefaultProfile() *Profile {
	return &Profile{
		AdbPath:        "adb",
		AdbTimeout:     20 * time.Second,
		ConnectTimeout: 60 * time.Second,

		CaptureStrategy:    "auto",
		InputStrategy:      "auto",
		ScreenshotInterval: minScreenshotInterval,
		BlackFrameRetries:  2,

		RetryTries:   3,
		RetryBackoff: 500 * time.Millisecond,

		StuckLimit:    watchdog.DefaultStuckLimit,
		StuckConfirm:  watchdog.DefaultStuckConfirm,
		LoopOverrides: map[string]int{},

		SwipeDuration: 300 * time.Millisecond,

		ReportDir:     "reports",
		RecorderDepth: 4,

		NemuDisplay: 0,
		NemuTimeout: 3 * time.Second,
	}
}

// DefaultProfilePath is the config file looked up next to the working
// directory when no --config flag is given.
const DefaultProfilePath = "devio.ini"

// LoadProfile overlays an ini file onto the defaults. An empty path
// means DefaultProfilePath, and a missing default file is not an
// error.
func LoadProfile(path string) (*Profile, error) {
	p := DefaultProfile()

	optional := path == ""
	if optional {
		path = DefaultProfilePath
	}
	if _, err := os.Stat(path); err != nil {
		if optional && os.IsNotExist(err) {
			return p, nil
		}
		return nil, err
	}

	cfg, err := ini.Load(path)
	if err != nil {
		return nil, err
	}
	utils.Verbose("Loaded profile from %s", path)

	adb := cfg.Section("adb")
	p.AdbPath = adb.Key("path").MustString(p.AdbPath)
	p.AdbTimeout = adb.Key("timeout").MustDuration(p.AdbTimeout)
	p.ConnectTimeout = adb.Key("connect_timeout").MustDuration(p.ConnectTimeout)

	capture := cfg.Section("capture")
	p.CaptureStrategy = capture.Key("strategy").MustString(p.CaptureStrategy)
	p.ScreenshotInterval = capture.Key("interval").MustDuration(p.ScreenshotInterval)
	if p.ScreenshotInterval < minScreenshotInterval {
		p.ScreenshotInterval = minScreenshotInterval
	}
	p.BlackFrameRetries = capture.Key("black_retries").MustInt(p.BlackFrameRetries)

	input := cfg.Section("input")
	p.InputStrategy = input.Key("strategy").MustString(p.InputStrategy)
	p.SwipeDuration = input.Key("swipe_duration").MustDuration(p.SwipeDuration)

	retry := cfg.Section("retry")
	p.RetryTries = retry.Key("tries").MustInt(p.RetryTries)
	p.RetryBackoff = retry.Key("backoff").MustDuration(p.RetryBackoff)

	wd := cfg.Section("watchdog")
	p.StuckLimit = wd.Key("stuck_limit").MustDuration(p.StuckLimit)
	p.StuckConfirm = wd.Key("stuck_confirm").MustInt(p.StuckConfirm)
	for _, key := range cfg.Section("watchdog.overrides").Keys() {
		if limit := key.MustInt(0); limit > 0 {
			p.LoopOverrides[key.Name()] = limit
		}
	}

	tools := cfg.Section("tools")
	p.ToolsDir = tools.Key("dir").MustString(p.ToolsDir)

	report := cfg.Section("report")
	p.ReportDir = report.Key("dir").MustString(p.ReportDir)
	p.RecorderDepth = report.Key("depth").MustInt(p.RecorderDepth)

	emu := cfg.Section("emulator")
	p.EmulatorPath = emu.Key("path").MustString(p.EmulatorPath)
	p.NemuDisplay = emu.Key("display").MustInt(p.NemuDisplay)
	p.NemuTimeout = emu.Key("nemu_timeout").MustDuration(p.NemuTimeout)

	return p, nil
}

// WatchdogConfig derives the watchdog settings from the profile.
func (p *Profile) WatchdogConfig() watchdog.Config {
	return watchdog.Config{
		StuckLimit:   p.StuckLimit,
		StuckConfirm: p.StuckConfirm,
		Overrides:    p.LoopOverrides,
	}
}
