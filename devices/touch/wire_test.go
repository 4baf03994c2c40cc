package touch

import (
	"reflect"
	"testing"

	"github.com/emu-next/devio/types"
)

func TestEncodeParse_RoundTrip(t *testing.T) {
	g := NewBuilder().
		Down(0, types.Point{X: 100, Y: 500}, 0).
		Commit().
		Wait(10).
		Move(0, types.Point{X: 150, Y: 500}, 0).
		Commit().
		Wait(10).
		Move(0, types.Point{X: 200, Y: 500}, 0).
		Commit().
		Wait(10).
		Move(0, types.Point{X: 250, Y: 500}, 0).
		Commit().
		Up(0).
		Commit().
		Gesture()

	parsed, err := Parse(Encode(g, nil))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if !reflect.DeepEqual(parsed.Events, g.Events) {
		t.Errorf("round trip changed events:\n got %+v\nwant %+v", parsed.Events, g.Events)
	}
}

func TestEncode_ProtocolText(t *testing.T) {
	g := NewBuilder().
		Down(2, types.Point{X: 10, Y: 20}, 30).
		Commit().
		Wait(40).
		Move(2, types.Point{X: 11, Y: 21}, 30).
		Commit().
		Up(2).
		Commit().
		Gesture()

	want := "d 2 10 20 30\nc\nw 40\nm 2 11 21 30\nc\nu 2\nc\n"
	if got := string(Encode(g, nil)); got != want {
		t.Errorf("encoded text mismatch:\n got %q\nwant %q", got, want)
	}
}

func TestScaler_MapsScreenToHelperAxes(t *testing.T) {
	s := &Scaler{
		Screen:      types.Size{Width: 720, Height: 1280},
		MaxX:        32767,
		MaxY:        32767,
		MaxPressure: 2048,
	}

	got := s.ScalePos(types.Point{X: 360, Y: 640})
	want := types.Point{X: 16383, Y: 16383}
	if got != want {
		t.Errorf("center point: got %+v, want %+v", got, want)
	}

	if got := s.ScalePos(types.Point{}); got != (types.Point{}) {
		t.Errorf("origin must map to origin, got %+v", got)
	}
	if got := s.ScalePos(types.Point{X: 720, Y: 1280}); got != (types.Point{X: 32767, Y: 32767}) {
		t.Errorf("far corner: got %+v", got)
	}
}

func TestScaler_NilAndZeroAreIdentity(t *testing.T) {
	p := types.Point{X: 123, Y: 456}
	var s *Scaler
	if got := s.ScalePos(p); got != p {
		t.Errorf("nil scaler changed point: %+v", got)
	}
	if got := (&Scaler{}).ScalePos(p); got != p {
		t.Errorf("zero scaler changed point: %+v", got)
	}
	if got := s.ScalePressure(77); got != 77 {
		t.Errorf("nil scaler changed pressure: %d", got)
	}
}

func TestScaler_ClampsPressure(t *testing.T) {
	s := &Scaler{MaxPressure: 255}
	if got := s.ScalePressure(100); got != 100 {
		t.Errorf("in-range pressure changed: %d", got)
	}
	if got := s.ScalePressure(9999); got != 255 {
		t.Errorf("expected clamp to 255, got %d", got)
	}
}

func TestParse_RejectsMalformedLines(t *testing.T) {
	cases := []struct {
		name string
		text string
	}{
		{"unknown command", "z 1 2 3\n"},
		{"down missing fields", "d 0 10\n"},
		{"down non-numeric", "d 0 x y 100\n"},
		{"up missing contact", "u\n"},
		{"wait non-numeric", "w soon\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Parse([]byte(tc.text)); err == nil {
				t.Errorf("expected error for %q", tc.text)
			}
		})
	}
}

func TestParse_SkipsBlankLines(t *testing.T) {
	g, err := Parse([]byte("\nd 0 1 2 100\n\n\nc\n"))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(g.Events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(g.Events))
	}
}

func TestEncode_AppliesScaler(t *testing.T) {
	s := &Scaler{
		Screen:      types.Size{Width: 100, Height: 100},
		MaxX:        1000,
		MaxY:        1000,
		MaxPressure: 50,
	}
	g := NewBuilder().Down(0, types.Point{X: 10, Y: 20}, 200).Commit().Gesture()

	want := "d 0 100 200 50\nc\n"
	if got := string(Encode(g, s)); got != want {
		t.Errorf("scaled encoding mismatch:\n got %q\nwant %q", got, want)
	}
}
