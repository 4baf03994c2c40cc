package watchdog

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimer_NotStartedByDefault(t *testing.T) {
	timer := NewTimer(5*time.Second, 3)
	assert.False(t, timer.Started())
	assert.Equal(t, time.Duration(0), timer.Elapsed())
}

func TestTimer_ReachedRequiresBothConditions(t *testing.T) {
	timer := NewTimer(5*time.Second, 3).Start()

	// Deadline exceeded, but only poll 1..3: still debouncing.
	timer.SetCurrent(6*time.Second, 0)
	assert.False(t, timer.Reached(), "poll 1 should not trip")
	assert.False(t, timer.Reached(), "poll 2 should not trip")
	assert.False(t, timer.Reached(), "poll 3 should not trip")

	// Poll 4 with elapsed > limit trips.
	assert.True(t, timer.Reached(), "poll 4 past the deadline should trip")
}

func TestTimer_ReachedFalseBeforeDeadline(t *testing.T) {
	timer := NewTimer(5*time.Second, 3).Start()

	// Plenty of polls, but the deadline has not passed.
	timer.SetCurrent(4*time.Second, 10)
	assert.False(t, timer.Reached(), "elapsed below limit should never trip")
}

func TestTimer_ResetDisarmsBothCounters(t *testing.T) {
	timer := NewTimer(5*time.Second, 3).Start()
	timer.SetCurrent(10*time.Second, 10)
	require.True(t, timer.Reached())

	timer.Reset()
	assert.False(t, timer.Reached(), "freshly reset timer should not trip")
	assert.Less(t, timer.Elapsed(), time.Second)
}

func TestTimer_StartIsIdempotent(t *testing.T) {
	timer := NewTimer(time.Minute, 0)
	timer.Start()
	timer.SetCurrent(30*time.Second, 0)

	// A second Start must not rewind a running timer.
	timer.Start()
	assert.GreaterOrEqual(t, timer.Elapsed(), 29*time.Second)
}

func TestTimer_ReachedAndReset(t *testing.T) {
	timer := NewTimer(time.Second, 0).Start()
	timer.SetCurrent(5*time.Second, 5)

	assert.True(t, timer.ReachedAndReset())
	assert.False(t, timer.Reached(), "timer should have been reset")
}

func TestTimer_Wait(t *testing.T) {
	timer := NewTimer(20*time.Millisecond, 0).Start()

	begin := time.Now()
	timer.Wait()
	assert.GreaterOrEqual(t, time.Since(begin), 15*time.Millisecond)

	// Waiting on an expired timer returns immediately.
	begin = time.Now()
	timer.Wait()
	assert.Less(t, time.Since(begin), 10*time.Millisecond)
}

func TestClickMonitor_DominantRecentOperation(t *testing.T) {
	monitor := NewClickMonitor(nil)

	// 3 distinct ops, then 12 identical: 12 of the last 15.
	monitor.Record("a")
	monitor.Record("b")
	monitor.Record("c")
	for i := 0; i < 12; i++ {
		monitor.Record("confirm")
	}

	name, hit := monitor.Check()
	assert.True(t, hit)
	assert.Equal(t, "confirm", name)
}

func TestClickMonitor_ElevenDoesNotFire(t *testing.T) {
	monitor := NewClickMonitor(nil)

	for i := 0; i < 4; i++ {
		monitor.Record(fmt.Sprintf("op-%d", i))
	}
	for i := 0; i < 11; i++ {
		monitor.Record("confirm")
	}

	_, hit := monitor.Check()
	assert.False(t, hit, "11 of 15 should stay below the limit")
}

func TestClickMonitor_TwoAlternatingOperations(t *testing.T) {
	monitor := NewClickMonitor(nil)

	// a and b alternating with filler: each appears 6 times in the
	// 30-slot window without dominating the recent 15.
	for i := 0; i < 6; i++ {
		monitor.Record("a")
		monitor.Record("b")
		monitor.Record(fmt.Sprintf("filler-%d", i*3))
		monitor.Record(fmt.Sprintf("filler-%d", i*3+1))
		monitor.Record(fmt.Sprintf("filler-%d", i*3+2))
	}

	name, hit := monitor.Check()
	assert.True(t, hit)
	assert.Contains(t, name, "a")
	assert.Contains(t, name, "b")
}

func TestClickMonitor_WindowSlides(t *testing.T) {
	monitor := NewClickMonitor(nil)

	// 12 identical clicks fall out of the window once 30 fresh
	// distinct operations follow them.
	for i := 0; i < 12; i++ {
		monitor.Record("confirm")
	}
	for i := 0; i < 30; i++ {
		monitor.Record(fmt.Sprintf("fresh-%d", i))
	}

	_, hit := monitor.Check()
	assert.False(t, hit)
	assert.Equal(t, 30, monitor.Len())
}

func TestClickMonitor_OverrideRaisesLimit(t *testing.T) {
	monitor := NewClickMonitor(map[string]int{"blessing-confirm": 25})

	for i := 0; i < 15; i++ {
		monitor.Record("blessing-confirm")
	}

	_, hit := monitor.Check()
	assert.False(t, hit, "overridden operation should be allowed past the default limit")
}

func TestClickMonitor_Clear(t *testing.T) {
	monitor := NewClickMonitor(nil)
	for i := 0; i < 12; i++ {
		monitor.Record("confirm")
	}
	monitor.Clear()

	_, hit := monitor.Check()
	assert.False(t, hit)
	assert.Equal(t, 0, monitor.Len())
}

func TestWatchdog_StuckDeviceDetected(t *testing.T) {
	dog := New(Config{})
	dog.Start()

	// Simulate 61 polls with no progress across 61 seconds.
	dog.StuckTimer().SetCurrent(61*time.Second, 60)
	assert.True(t, dog.PollStuck(), "60s+ without progress across 60+ polls should fire")
}

func TestWatchdog_ProgressResets(t *testing.T) {
	dog := New(Config{})
	dog.Start()
	dog.StuckTimer().SetCurrent(61*time.Second, 60)

	dog.Progress()
	assert.False(t, dog.PollStuck())
}

func TestWatchdog_DefaultThresholds(t *testing.T) {
	dog := New(Config{})
	assert.Equal(t, DefaultStuckLimit, dog.StuckTimer().Limit)
	assert.Equal(t, DefaultStuckConfirm, dog.StuckTimer().Confirm)
}

func TestWatchdog_RecordIgnoresEmptyName(t *testing.T) {
	dog := New(Config{})
	for i := 0; i < 20; i++ {
		dog.Record("")
	}

	_, hit := dog.LoopCheck()
	assert.False(t, hit)
}
