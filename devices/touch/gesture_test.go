package touch

import (
	"testing"
	"time"

	"github.com/emu-next/devio/types"
)

func TestBuilder_ChainsEvents(t *testing.T) {
	g := NewBuilder().
		Name("scroll").
		Down(0, types.Point{X: 10, Y: 20}, 0).
		Commit().
		Wait(25).
		Move(0, types.Point{X: 10, Y: 120}, 0).
		Commit().
		Up(0).
		Commit().
		Gesture()

	if g.Name != "scroll" {
		t.Errorf("expected name scroll, got %q", g.Name)
	}
	kinds := []EventKind{EventDown, EventCommit, EventWait, EventMove, EventCommit, EventUp, EventCommit}
	if len(g.Events) != len(kinds) {
		t.Fatalf("expected %d events, got %d", len(kinds), len(g.Events))
	}
	for i, want := range kinds {
		if g.Events[i].Kind != want {
			t.Errorf("event %d: expected %v, got %v", i, want, g.Events[i].Kind)
		}
	}
}

func TestBuilder_GestureClearsState(t *testing.T) {
	b := NewBuilder().Name("first").Down(0, types.Point{X: 1, Y: 1}, 0)
	if b.Empty() {
		t.Fatal("builder should not be empty after Down")
	}
	first := b.Gesture()
	if !b.Empty() {
		t.Error("builder should be empty after Gesture()")
	}

	second := b.Name("second").Up(0).Gesture()
	if second.Name != "second" {
		t.Errorf("expected name second, got %q", second.Name)
	}
	if len(second.Events) != 1 || second.Events[0].Kind != EventUp {
		t.Errorf("second gesture leaked events from the first: %+v", second.Events)
	}
	if len(first.Events) != 1 {
		t.Errorf("first gesture mutated after reuse: %+v", first.Events)
	}
}

func TestBuilder_DefaultPressure(t *testing.T) {
	g := NewBuilder().Down(0, types.Point{}, 0).Move(0, types.Point{}, -5).Gesture()
	for i, ev := range g.Events {
		if ev.Pressure != DefaultPressure {
			t.Errorf("event %d: expected default pressure %d, got %d", i, DefaultPressure, ev.Pressure)
		}
	}

	g = NewBuilder().Down(0, types.Point{}, 42).Gesture()
	if g.Events[0].Pressure != 42 {
		t.Errorf("explicit pressure overridden: got %d", g.Events[0].Pressure)
	}
}

func TestBuilder_WaitIgnoresNonPositive(t *testing.T) {
	g := NewBuilder().Wait(0).Wait(-10).Wait(5).Gesture()
	if len(g.Events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(g.Events))
	}
	if g.Events[0].WaitMS != 5 {
		t.Errorf("expected wait of 5ms, got %d", g.Events[0].WaitMS)
	}
}

func TestGesture_DurationSumsWaits(t *testing.T) {
	g := NewBuilder().
		Down(0, types.Point{}, 0).Commit().
		Wait(100).
		Move(0, types.Point{X: 5}, 0).Commit().
		Wait(150).
		Up(0).Commit().
		Gesture()
	if got := g.Duration(); got != 250*time.Millisecond {
		t.Errorf("expected 250ms, got %v", got)
	}
}

func TestTap_Structure(t *testing.T) {
	g := Tap(types.Point{X: 300, Y: 400}, "confirm")
	if g.Name != "confirm" {
		t.Errorf("expected name confirm, got %q", g.Name)
	}
	kinds := []EventKind{EventDown, EventCommit, EventUp, EventCommit}
	if len(g.Events) != len(kinds) {
		t.Fatalf("expected %d events, got %d", len(kinds), len(g.Events))
	}
	for i, want := range kinds {
		if g.Events[i].Kind != want {
			t.Errorf("event %d: expected %v, got %v", i, want, g.Events[i].Kind)
		}
	}
	if g.Events[0].Pos != (types.Point{X: 300, Y: 400}) {
		t.Errorf("down at wrong position: %+v", g.Events[0].Pos)
	}
}

func TestLongPress_HoldsBetweenDownAndUp(t *testing.T) {
	g := LongPress(types.Point{X: 50, Y: 60}, 800*time.Millisecond, "hold")
	if got := g.Duration(); got != 800*time.Millisecond {
		t.Errorf("expected 800ms of waits, got %v", got)
	}
	if g.Events[0].Kind != EventDown {
		t.Errorf("expected leading down, got %v", g.Events[0].Kind)
	}
	last := g.Events[len(g.Events)-2]
	if last.Kind != EventUp {
		t.Errorf("expected trailing up before commit, got %v", last.Kind)
	}
}
