package screen

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/pierrec/lz4/v4"
)

// buildCompressedCapture assembles a helper-format frame: prefix bytes,
// magic, size/width/height header, lz4 block of bottom-up BGRA pixels.
func buildCompressedCapture(t *testing.T, width, height int, prefix []byte) []byte {
	t.Helper()

	pixels := make([]byte, width*height*Channels)
	for i := 0; i < len(pixels); i += Channels {
		pixels[i] = 200 // B
		pixels[i+3] = 255
	}

	block := make([]byte, lz4.CompressBlockBound(len(pixels)))
	written, err := lz4.CompressBlock(pixels, block, nil)
	if err != nil {
		t.Fatalf("lz4 compress: %v", err)
	}
	if written == 0 {
		t.Fatal("lz4 compress: test pixels were incompressible")
	}

	var buf bytes.Buffer
	buf.Write(prefix)
	buf.Write(compressMagic)
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(pixels)))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(width))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(height))
	buf.Write(block[:written])
	return buf.Bytes()
}

func TestDecodeCompressed_PreambleLengths(t *testing.T) {
	garbage := func(n int) []byte {
		out := make([]byte, n)
		for i := range out {
			out[i] = byte('a' + i%20)
		}
		return out
	}

	for _, prefixLen := range []int{0, 1, 500} {
		raw := buildCompressedCapture(t, 32, 16, garbage(prefixLen))

		frame, err := DecodeCompressed(raw)
		if err != nil {
			t.Fatalf("prefix %d: DecodeCompressed() error: %v", prefixLen, err)
		}
		if frame.Width != 32 || frame.Height != 16 {
			t.Errorf("prefix %d: frame = %dx%d, want 32x16", prefixLen, frame.Width, frame.Height)
		}
		// helper pixels are BGRA; blue must land in the blue channel
		if frame.Data[2] != 200 {
			t.Errorf("prefix %d: pixel = %v, want blue=200", prefixLen, frame.Data[:4])
		}
	}
}

func TestDecodeCompressed_MissingMagic(t *testing.T) {
	raw := buildCompressedCapture(t, 8, 8, nil)
	raw = bytes.ReplaceAll(raw, compressMagic, []byte("XXXX"))

	_, err := DecodeCompressed(raw)
	if !errors.Is(err, ErrCorrupted) {
		t.Errorf("error = %v, want ErrCorrupted", err)
	}
}

func TestDecodeCompressed_TruncatedBlock(t *testing.T) {
	raw := buildCompressedCapture(t, 32, 16, nil)
	raw = raw[:len(raw)-len(raw)/2]

	_, err := DecodeCompressed(raw)
	if !errors.Is(err, ErrCorrupted) {
		t.Errorf("error = %v, want ErrCorrupted", err)
	}
}

func TestDecodeCompressed_HeaderOnly(t *testing.T) {
	_, err := DecodeCompressed(compressMagic)
	if !errors.Is(err, ErrCorrupted) {
		t.Errorf("error = %v, want ErrCorrupted", err)
	}
}

func TestDecodeCompressed_LyingSizeField(t *testing.T) {
	raw := buildCompressedCapture(t, 32, 16, nil)

	// shrink the declared uncompressed size below width*height*4
	idx := bytes.Index(raw, compressMagic)
	binary.LittleEndian.PutUint32(raw[idx+4:], 16)

	_, err := DecodeCompressed(raw)
	if !errors.Is(err, ErrCorrupted) {
		t.Errorf("error = %v, want ErrCorrupted", err)
	}
}
