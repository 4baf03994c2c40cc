// Package watchdog guards an automation session against two failure
// shapes that no single call can observe: a device that stops making
// progress entirely, and an automation loop stuck clicking the same
// control. Both checks are advisory; they never block the call they
// are consulted for.
package watchdog

import (
	"fmt"
	"time"
)

// Timer is a debounced deadline timer. Reached reports true only when
// both the elapsed time exceeds Limit and the number of polls since
// the last reset exceeds Confirm, so a single slow operation cannot
// trip it on its own.
type Timer struct {
	Limit   time.Duration
	Confirm int

	start time.Time
	polls int
}

func NewTimer(limit time.Duration, confirm int) *Timer {
	return &Timer{Limit: limit, Confirm: confirm}
}

// Start arms the timer if it is not already running.
func (t *Timer) Start() *Timer {
	if !t.Started() {
		t.start = time.Now()
		t.polls = 0
	}
	return t
}

func (t *Timer) Started() bool {
	return !t.start.IsZero()
}

// Elapsed returns the time since the last Start/Reset, or zero when
// the timer is not running.
func (t *Timer) Elapsed() time.Duration {
	if !t.Started() {
		return 0
	}
	return time.Since(t.start)
}

// SetCurrent rewinds the timer so that Elapsed reports d and the poll
// count is polls. Used to restore state and to make expiry testable.
func (t *Timer) SetCurrent(d time.Duration, polls int) *Timer {
	t.start = time.Now().Add(-d)
	t.polls = polls
	return t
}

// Reached counts one poll and reports whether the timer has expired.
func (t *Timer) Reached() bool {
	t.polls++
	return t.Elapsed() > t.Limit && t.polls > t.Confirm
}

// Reset re-arms the timer from now.
func (t *Timer) Reset() *Timer {
	t.start = time.Now()
	t.polls = 0
	return t
}

// Clear disarms the timer.
func (t *Timer) Clear() *Timer {
	t.start = time.Time{}
	t.polls = 0
	return t
}

func (t *Timer) ReachedAndReset() bool {
	if t.Reached() {
		t.Reset()
		return true
	}
	return false
}

// Wait sleeps until Limit has elapsed since the last Start/Reset.
func (t *Timer) Wait() {
	if !t.Started() {
		return
	}
	if diff := t.Limit - time.Since(t.start); diff > 0 {
		time.Sleep(diff)
	}
}

// Loop-detector window sizes. A single operation dominating the recent
// window, or two operations ping-ponging across the full window, both
// indicate an automation loop rather than normal interaction.
const (
	recordWindow = 30
	recentWindow = 15
	recentLimit  = 12
	pairLimit    = 6
)

// ClickMonitor keeps the identifiers of the most recent operations and
// detects repetition patterns. Overrides raises the recent-window limit
// for named operations that are legitimately clicked many times.
type ClickMonitor struct {
	Overrides map[string]int

	record []string
}

func NewClickMonitor(overrides map[string]int) *ClickMonitor {
	return &ClickMonitor{Overrides: overrides}
}

// Record appends one operation identifier, discarding the oldest entry
// once the window is full.
func (m *ClickMonitor) Record(name string) {
	m.record = append(m.record, name)
	if len(m.record) > recordWindow {
		m.record = m.record[len(m.record)-recordWindow:]
	}
}

// Clear drops the recorded history.
func (m *ClickMonitor) Clear() {
	m.record = m.record[:0]
}

// Len returns the number of recorded operations, capped at the window size.
func (m *ClickMonitor) Len() int {
	return len(m.record)
}

// Check reports whether the history looks like a click loop. The
// returned description names the offending operation(s).
func (m *ClickMonitor) Check() (string, bool) {
	recent := m.record
	if len(recent) > recentWindow {
		recent = recent[len(recent)-recentWindow:]
	}

	counts := map[string]int{}
	for _, name := range recent {
		counts[name]++
	}
	for name, n := range counts {
		limit := recentLimit
		if override, ok := m.Overrides[name]; ok {
			limit = override
		}
		if n >= limit {
			return name, true
		}
	}

	counts = map[string]int{}
	for _, name := range m.record {
		counts[name]++
	}
	var offenders []string
	for name, n := range counts {
		if _, ok := m.Overrides[name]; ok {
			continue
		}
		if n >= pairLimit {
			offenders = append(offenders, name)
		}
	}
	if len(offenders) >= 2 {
		return fmt.Sprintf("%s, %s", offenders[0], offenders[1]), true
	}

	return "", false
}

// Config holds the thresholds for one Watchdog. Zero values select the
// defaults.
type Config struct {
	StuckLimit   time.Duration
	StuckConfirm int
	Overrides    map[string]int
}

const (
	DefaultStuckLimit   = 60 * time.Second
	DefaultStuckConfirm = 60
)

// Watchdog combines the debounced stuck timer with the click-loop
// monitor. One instance per session; not safe for concurrent use, by
// the same single-caller contract the session itself has.
type Watchdog struct {
	stuck  *Timer
	clicks *ClickMonitor
}

func New(cfg Config) *Watchdog {
	if cfg.StuckLimit <= 0 {
		cfg.StuckLimit = DefaultStuckLimit
	}
	if cfg.StuckConfirm <= 0 {
		cfg.StuckConfirm = DefaultStuckConfirm
	}
	return &Watchdog{
		stuck:  NewTimer(cfg.StuckLimit, cfg.StuckConfirm),
		clicks: NewClickMonitor(cfg.Overrides),
	}
}

// Start arms the stuck timer. Called when the session becomes ready.
func (w *Watchdog) Start() {
	w.stuck.Start()
}

// Progress resets the stuck timer. Called whenever the session observes
// forward progress.
func (w *Watchdog) Progress() {
	w.stuck.Reset()
}

// PollStuck counts one poll against the stuck timer and reports whether
// the device should be considered unresponsive.
func (w *Watchdog) PollStuck() bool {
	w.stuck.Start()
	return w.stuck.Reached()
}

// StuckTimer exposes the underlying timer for state restoration.
func (w *Watchdog) StuckTimer() *Timer {
	return w.stuck
}

// Record notes one injected operation for loop detection.
func (w *Watchdog) Record(name string) {
	if name == "" {
		return
	}
	w.clicks.Record(name)
}

// LoopCheck reports whether the recorded operations form a click loop.
func (w *Watchdog) LoopCheck() (string, bool) {
	return w.clicks.Check()
}

// ClearRecord drops the loop-detection history.
func (w *Watchdog) ClearRecord() {
	w.clicks.Clear()
}
