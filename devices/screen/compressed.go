package screen

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/pierrec/lz4/v4"
)

// compressMagic starts a compressed capture frame. The helper prints
// version banners and occasional warnings before it, so the decoder
// scans for the token instead of assuming an offset.
var compressMagic = []byte("BMZ1")

// compressHeaderSize covers the magic plus three little-endian u32
// fields: uncompressed size, width, height.
const compressHeaderSize = 16

// maxCompressedFrame bounds the uncompressed size field so a corrupted
// header cannot demand an absurd allocation.
const maxCompressedFrame = maxDimension * maxDimension * Channels

// DecodeCompressed decodes the compressed-helper stream: an arbitrary
// preamble, the 4-byte magic, a size/width/height header, then one LZ4
// block holding a bottom-up BGRA pixel dump.
func DecodeCompressed(raw []byte) (*Frame, error) {
	start := bytes.Index(raw, compressMagic)
	if start < 0 {
		return nil, fmt.Errorf("compressed capture of %d bytes has no magic token: %w", len(raw), ErrCorrupted)
	}

	payload := raw[start:]
	if len(payload) < compressHeaderSize {
		return nil, fmt.Errorf("compressed capture header truncated at %d bytes: %w", len(payload), ErrCorrupted)
	}

	uncompressedSize := int(binary.LittleEndian.Uint32(payload[4:8]))
	width := int(binary.LittleEndian.Uint32(payload[8:12]))
	height := int(binary.LittleEndian.Uint32(payload[12:16]))

	if !validDimensions(width, height) {
		return nil, fmt.Errorf("compressed capture claims %dx%d: %w", width, height, ErrCorrupted)
	}
	if uncompressedSize < width*height*Channels || uncompressedSize > maxCompressedFrame {
		return nil, fmt.Errorf("compressed capture claims %d uncompressed bytes for %dx%d: %w",
			uncompressedSize, width, height, ErrCorrupted)
	}

	pixels := make([]byte, uncompressedSize)
	read, err := lz4.UncompressBlock(payload[compressHeaderSize:], pixels)
	if err != nil {
		return nil, fmt.Errorf("lz4 block: %v: %w", err, ErrCorrupted)
	}
	if read != uncompressedSize {
		return nil, fmt.Errorf("lz4 block inflated to %d bytes, expected %d: %w", read, uncompressedSize, ErrCorrupted)
	}

	return FromBGRA(width, height, pixels, true)
}
