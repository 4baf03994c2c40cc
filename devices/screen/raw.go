package screen

import (
	"encoding/binary"
	"fmt"
)

// rawHeaderSize is the screencap preamble: three little-endian u32
// fields (width, height, pixel format).
const rawHeaderSize = 12

// DecodeRaw decodes the raw framebuffer dump emitted by screencap
// without -p: a 12-byte header followed by RGBA pixel data. Some
// devices prepend extra bytes between header and pixels, so the pixel
// block is taken from the tail (exactly width*height*4 bytes). A
// shorter payload is corruption, never a truncated frame.
func DecodeRaw(raw []byte) (*Frame, error) {
	if len(raw) < rawHeaderSize {
		return nil, fmt.Errorf("raw capture of %d bytes has no header: %w", len(raw), ErrCorrupted)
	}

	width := int(binary.LittleEndian.Uint32(raw[0:4]))
	height := int(binary.LittleEndian.Uint32(raw[4:8]))
	// raw[8:12] is the pixel format tag; every supported device
	// reports RGBA_8888 here, so it is validated only by the buffer
	// length check below.

	if !validDimensions(width, height) {
		return nil, fmt.Errorf("raw capture claims %dx%d: %w", width, height, ErrCorrupted)
	}

	need := width * height * Channels
	payload := raw[rawHeaderSize:]
	if len(payload) < need {
		return nil, fmt.Errorf("raw capture %dx%d needs %d pixel bytes, got %d: %w",
			width, height, need, len(payload), ErrCorrupted)
	}

	data := make([]byte, need)
	copy(data, payload[len(payload)-need:])
	return newFrame(width, height, data), nil
}
