// Package touch models multi-contact gestures and speaks the text
// command protocol used by the injection helpers. A gesture is built
// incrementally, transmitted as one batch over a persistent helper
// connection, and cleared after the flush.
package touch

import (
	"time"

	"github.com/emu-next/devio/types"
)

// DefaultPressure is the pressure value sent when the caller does not
// care; helpers treat it as a normal finger press.
const DefaultPressure = 100

// EventKind enumerates the touch protocol operations.
type EventKind int

const (
	EventDown EventKind = iota
	EventMove
	EventUp
	EventWait
	EventCommit
)

func (k EventKind) String() string {
	switch k {
	case EventDown:
		return "down"
	case EventMove:
		return "move"
	case EventUp:
		return "up"
	case EventWait:
		return "wait"
	case EventCommit:
		return "commit"
	default:
		return "unknown"
	}
}

// Event is one step of a gesture. Contact identifies the touch point
// for multi-finger input; contacts are reused across gestures but never
// concurrently for the same id within one batch.
type Event struct {
	Kind     EventKind
	Contact  int
	Pos      types.Point
	Pressure int
	WaitMS   int
}

// Gesture is an ordered event sequence transmitted as one logical
// interaction. Name labels the operation for loop detection and is
// never sent over the wire.
type Gesture struct {
	Name   string
	Events []Event
}

// Duration sums the explicit waits in the gesture.
func (g *Gesture) Duration() time.Duration {
	var ms int
	for _, ev := range g.Events {
		if ev.Kind == EventWait {
			ms += ev.WaitMS
		}
	}
	return time.Duration(ms) * time.Millisecond
}

// Builder accumulates events for one gesture. Methods chain; Gesture
// hands the batch off and resets the builder for reuse.
type Builder struct {
	name   string
	events []Event
}

func NewBuilder() *Builder {
	return &Builder{}
}

// Name labels the gesture for the loop detector.
func (b *Builder) Name(name string) *Builder {
	b.name = name
	return b
}

func (b *Builder) Down(contact int, pos types.Point, pressure int) *Builder {
	if pressure <= 0 {
		pressure = DefaultPressure
	}
	b.events = append(b.events, Event{Kind: EventDown, Contact: contact, Pos: pos, Pressure: pressure})
	return b
}

func (b *Builder) Move(contact int, pos types.Point, pressure int) *Builder {
	if pressure <= 0 {
		pressure = DefaultPressure
	}
	b.events = append(b.events, Event{Kind: EventMove, Contact: contact, Pos: pos, Pressure: pressure})
	return b
}

func (b *Builder) Up(contact int) *Builder {
	b.events = append(b.events, Event{Kind: EventUp, Contact: contact})
	return b
}

// Wait inserts a pause the helper honors between the surrounding
// commits.
func (b *Builder) Wait(ms int) *Builder {
	if ms > 0 {
		b.events = append(b.events, Event{Kind: EventWait, WaitMS: ms})
	}
	return b
}

// Commit finalizes the current line; the helper applies everything
// since the previous commit atomically.
func (b *Builder) Commit() *Builder {
	b.events = append(b.events, Event{Kind: EventCommit})
	return b
}

// Empty reports whether no events are queued.
func (b *Builder) Empty() bool {
	return len(b.events) == 0
}

// Gesture returns the accumulated batch and clears the builder.
func (b *Builder) Gesture() *Gesture {
	g := &Gesture{Name: b.name, Events: b.events}
	b.events = nil
	b.name = ""
	return g
}

// Tap builds the canonical single-contact click gesture.
func Tap(pos types.Point, name string) *Gesture {
	return NewBuilder().
		Name(name).
		Down(0, pos, 0).
		Commit().
		Up(0).
		Commit().
		Gesture()
}

// LongPress builds a press-hold-release gesture.
func LongPress(pos types.Point, hold time.Duration, name string) *Gesture {
	return NewBuilder().
		Name(name).
		Down(0, pos, 0).
		Commit().
		Wait(int(hold.Milliseconds())).
		Up(0).
		Commit().
		Gesture()
}
