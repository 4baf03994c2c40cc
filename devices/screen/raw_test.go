package screen

import (
	"encoding/binary"
	"errors"
	"testing"
)

func buildRawCapture(width, height int, extra int) []byte {
	header := make([]byte, rawHeaderSize)
	binary.LittleEndian.PutUint32(header[0:4], uint32(width))
	binary.LittleEndian.PutUint32(header[4:8], uint32(height))
	binary.LittleEndian.PutUint32(header[8:12], 1) // RGBA_8888

	payload := make([]byte, extra+width*height*Channels)
	for i := range payload {
		payload[i] = byte(i % 251)
	}
	return append(header, payload...)
}

func TestDecodeRaw_ExactPayload(t *testing.T) {
	raw := buildRawCapture(1280, 720, 0)

	frame, err := DecodeRaw(raw)
	if err != nil {
		t.Fatalf("DecodeRaw() error: %v", err)
	}
	if frame.Width != 1280 || frame.Height != 720 {
		t.Errorf("frame = %dx%d, want 1280x720", frame.Width, frame.Height)
	}
	if len(frame.Data) != 1280*720*Channels {
		t.Errorf("buffer length = %d, want %d", len(frame.Data), 1280*720*Channels)
	}
}

func TestDecodeRaw_LeadingGarbageSlicedOff(t *testing.T) {
	// 7 garbage bytes between header and pixel block; the frame is
	// the tail of the payload
	raw := buildRawCapture(4, 2, 7)

	frame, err := DecodeRaw(raw)
	if err != nil {
		t.Fatalf("DecodeRaw() error: %v", err)
	}

	want := raw[len(raw)-4*2*Channels:]
	if frame.Data[0] != want[0] || frame.Data[len(frame.Data)-1] != want[len(want)-1] {
		t.Error("frame not sliced from the payload tail")
	}
}

func TestDecodeRaw_ShortPayload(t *testing.T) {
	raw := buildRawCapture(1280, 720, 0)
	raw = raw[:len(raw)-1]

	_, err := DecodeRaw(raw)
	if !errors.Is(err, ErrCorrupted) {
		t.Errorf("error = %v, want ErrCorrupted", err)
	}
}

func TestDecodeRaw_TruncatedHeader(t *testing.T) {
	for _, n := range []int{0, 1, 11} {
		_, err := DecodeRaw(make([]byte, n))
		if !errors.Is(err, ErrCorrupted) {
			t.Errorf("header of %d bytes: error = %v, want ErrCorrupted", n, err)
		}
	}
}

func TestDecodeRaw_GarbageDimensions(t *testing.T) {
	tests := []struct {
		name   string
		width  uint32
		height uint32
	}{
		{"zero width", 0, 720},
		{"zero height", 1280, 0},
		{"absurd width", 0xFFFFFFFF, 720},
		{"absurd height", 1280, 1 << 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := make([]byte, rawHeaderSize+64)
			binary.LittleEndian.PutUint32(raw[0:4], tt.width)
			binary.LittleEndian.PutUint32(raw[4:8], tt.height)

			_, err := DecodeRaw(raw)
			if !errors.Is(err, ErrCorrupted) {
				t.Errorf("error = %v, want ErrCorrupted", err)
			}
		})
	}
}
