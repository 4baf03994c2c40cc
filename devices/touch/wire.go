package touch

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/emu-next/devio/types"
)

// Scaler converts screen-space coordinates into the helper's reported
// coordinate range. The helpers advertise their axis maxima in the
// handshake banner; screens and helpers frequently disagree (the
// helper sees the raw panel, the screen is the rendered surface), so
// every outgoing position passes through one of these.
type Scaler struct {
	Screen      types.Size
	MaxX        int
	MaxY        int
	MaxPressure int
}

// ScalePos maps a screen point onto the helper axes. A zero Scaler is
// the identity.
func (s *Scaler) ScalePos(p types.Point) types.Point {
	if s == nil || s.Screen.Width <= 0 || s.Screen.Height <= 0 || s.MaxX <= 0 || s.MaxY <= 0 {
		return p
	}
	return types.Point{
		X: p.X * s.MaxX / s.Screen.Width,
		Y: p.Y * s.MaxY / s.Screen.Height,
	}
}

// ScalePressure clamps pressure into the helper's advertised range.
func (s *Scaler) ScalePressure(pressure int) int {
	if s == nil || s.MaxPressure <= 0 {
		return pressure
	}
	if pressure > s.MaxPressure {
		return s.MaxPressure
	}
	return pressure
}

// Encode renders a gesture as helper protocol text. Lines are
// newline-terminated single-letter commands:
//
//	d <contact> <x> <y> <pressure>
//	m <contact> <x> <y> <pressure>
//	u <contact>
//	w <ms>
//	c
//
// Wait events become protocol waits so the helper paces multi-step
// gestures itself; the caller still sleeps the same total so the
// connection is not reused mid-gesture.
func Encode(g *Gesture, s *Scaler) []byte {
	var buf bytes.Buffer
	for _, ev := range g.Events {
		switch ev.Kind {
		case EventDown:
			p := s.ScalePos(ev.Pos)
			fmt.Fprintf(&buf, "d %d %d %d %d\n", ev.Contact, p.X, p.Y, s.ScalePressure(ev.Pressure))
		case EventMove:
			p := s.ScalePos(ev.Pos)
			fmt.Fprintf(&buf, "m %d %d %d %d\n", ev.Contact, p.X, p.Y, s.ScalePressure(ev.Pressure))
		case EventUp:
			fmt.Fprintf(&buf, "u %d\n", ev.Contact)
		case EventWait:
			fmt.Fprintf(&buf, "w %d\n", ev.WaitMS)
		case EventCommit:
			buf.WriteString("c\n")
		}
	}
	return buf.Bytes()
}

// Parse decodes protocol text back into an event list. It is the
// inverse of Encode under the identity scaler and exists so recorded
// batches can be replayed and inspected.
func Parse(data []byte) (*Gesture, error) {
	g := &Gesture{}
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		ev, err := parseLine(fields)
		if err != nil {
			return nil, fmt.Errorf("line %q: %w", line, err)
		}
		g.Events = append(g.Events, ev)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return g, nil
}

func parseLine(fields []string) (Event, error) {
	switch fields[0] {
	case "d", "m":
		if len(fields) != 5 {
			return Event{}, fmt.Errorf("expected 5 fields, got %d", len(fields))
		}
		vals, err := atoiAll(fields[1:])
		if err != nil {
			return Event{}, err
		}
		kind := EventDown
		if fields[0] == "m" {
			kind = EventMove
		}
		return Event{
			Kind:     kind,
			Contact:  vals[0],
			Pos:      types.Point{X: vals[1], Y: vals[2]},
			Pressure: vals[3],
		}, nil
	case "u":
		if len(fields) != 2 {
			return Event{}, fmt.Errorf("expected 2 fields, got %d", len(fields))
		}
		contact, err := strconv.Atoi(fields[1])
		if err != nil {
			return Event{}, err
		}
		return Event{Kind: EventUp, Contact: contact}, nil
	case "w":
		if len(fields) != 2 {
			return Event{}, fmt.Errorf("expected 2 fields, got %d", len(fields))
		}
		ms, err := strconv.Atoi(fields[1])
		if err != nil {
			return Event{}, err
		}
		return Event{Kind: EventWait, WaitMS: ms}, nil
	case "c":
		return Event{Kind: EventCommit}, nil
	default:
		return Event{}, fmt.Errorf("unknown command %q", fields[0])
	}
}

func atoiAll(fields []string) ([]int, error) {
	vals := make([]int, len(fields))
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}
