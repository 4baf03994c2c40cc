// Package screen decodes the byte streams produced by the capture
// backends into normalized pixel buffers. All decoders are pure: they
// take bytes, never touch a transport, and return ErrCorrupted instead
// of panicking on malformed input.
package screen

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"time"
)

// Channels is the canonical channel count of a decoded Frame (RGBA).
const Channels = 4

// maxDimension rejects garbage headers before they turn into huge
// allocations. No Android display comes close.
const maxDimension = 8192

// ErrCorrupted marks a capture payload that failed structural
// validation. Recoverable: the caller retries or falls back to another
// backend.
var ErrCorrupted = errors.New("corrupted capture")

// Frame is one decoded screen capture: an RGBA buffer plus dimensions.
// Frames are not mutated after creation; every normalization step
// returns a new Frame sharing nothing with its input.
type Frame struct {
	Width   int
	Height  int
	Data    []byte // RGBA, length Width*Height*4
	TakenAt time.Time
}

func newFrame(width, height int, data []byte) *Frame {
	return &Frame{
		Width:   width,
		Height:  height,
		Data:    data,
		TakenAt: time.Now(),
	}
}

func validDimensions(width, height int) bool {
	return width > 0 && height > 0 && width <= maxDimension && height <= maxDimension
}

// FromImage converts a decoded image into a Frame, flattening any
// source color model into RGBA.
func FromImage(img image.Image) *Frame {
	bounds := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || bounds.Min != (image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	}
	return newFrame(bounds.Dx(), bounds.Dy(), rgba.Pix)
}

// FromBGRA builds a Frame from a BGRA pixel dump, optionally stored
// bottom-up (the shared-memory and compressed backends both produce
// that layout). The input is not retained.
func FromBGRA(width, height int, pixels []byte, bottomUp bool) (*Frame, error) {
	if !validDimensions(width, height) {
		return nil, fmt.Errorf("bgra buffer claims %dx%d: %w", width, height, ErrCorrupted)
	}
	need := width * height * Channels
	if len(pixels) < need {
		return nil, fmt.Errorf("bgra buffer holds %d bytes, need %d: %w", len(pixels), need, ErrCorrupted)
	}

	// Backends prepend scratch bytes on some versions; the frame is
	// always the tail of the buffer.
	pixels = pixels[len(pixels)-need:]

	data := make([]byte, need)
	stride := width * Channels
	for y := 0; y < height; y++ {
		srcRow := y * stride
		dstRow := srcRow
		if bottomUp {
			dstRow = (height - 1 - y) * stride
		}
		for x := 0; x < stride; x += Channels {
			data[dstRow+x] = pixels[srcRow+x+2]
			data[dstRow+x+1] = pixels[srcRow+x+1]
			data[dstRow+x+2] = pixels[srcRow+x]
			data[dstRow+x+3] = pixels[srcRow+x+3]
		}
	}

	return newFrame(width, height, data), nil
}

// FromRGBA builds a Frame from a raw RGBA dump, optionally stored
// bottom-up (OpenGL readbacks arrive that way). The input is not
// retained.
func FromRGBA(width, height int, pixels []byte, bottomUp bool) (*Frame, error) {
	if !validDimensions(width, height) {
		return nil, fmt.Errorf("rgba buffer claims %dx%d: %w", width, height, ErrCorrupted)
	}
	need := width * height * Channels
	if len(pixels) < need {
		return nil, fmt.Errorf("rgba buffer holds %d bytes, need %d: %w", len(pixels), need, ErrCorrupted)
	}
	pixels = pixels[len(pixels)-need:]

	data := make([]byte, need)
	if !bottomUp {
		copy(data, pixels)
		return newFrame(width, height, data), nil
	}

	stride := width * Channels
	for y := 0; y < height; y++ {
		src := y * stride
		dst := (height - 1 - y) * stride
		copy(data[dst:dst+stride], pixels[src:src+stride])
	}
	return newFrame(width, height, data), nil
}

// Image exposes the frame as an *image.RGBA without copying. The
// returned image shares the frame's buffer and must be treated as
// read-only.
func (f *Frame) Image() *image.RGBA {
	return &image.RGBA{
		Pix:    f.Data,
		Stride: f.Width * Channels,
		Rect:   image.Rect(0, 0, f.Width, f.Height),
	}
}

// Size returns the frame dimensions in pixels.
func (f *Frame) Size() (int, int) {
	return f.Width, f.Height
}

// Clone returns a deep copy.
func (f *Frame) Clone() *Frame {
	data := make([]byte, len(f.Data))
	copy(data, f.Data)
	clone := *f
	clone.Data = data
	return &clone
}

// Rotate returns a new Frame turned counter-clockwise by turns*90
// degrees. turns is taken modulo 4; zero returns the frame unchanged.
func (f *Frame) Rotate(turns int) *Frame {
	turns = ((turns % 4) + 4) % 4
	if turns == 0 {
		return f
	}

	srcStride := f.Width * Channels
	var width, height int
	if turns == 2 {
		width, height = f.Width, f.Height
	} else {
		width, height = f.Height, f.Width
	}
	dstStride := width * Channels
	data := make([]byte, len(f.Data))

	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			var dx, dy int
			switch turns {
			case 1: // 90 CCW: right edge becomes top edge
				dx, dy = y, f.Width-1-x
			case 2:
				dx, dy = f.Width-1-x, f.Height-1-y
			case 3: // 90 CW
				dx, dy = f.Height-1-y, x
			}
			src := y*srcStride + x*Channels
			dst := dy*dstStride + dx*Channels
			copy(data[dst:dst+Channels], f.Data[src:src+Channels])
		}
	}

	rotated := newFrame(width, height, data)
	rotated.TakenAt = f.TakenAt
	return rotated
}

// IsPureBlack reports whether the frame is effectively a black screen:
// the per-channel means of R, G and B sum to less than one. Emulators
// emit such frames transiently while a surface is being recreated;
// they are a glitch to re-capture, not a decode failure.
func (f *Frame) IsPureBlack() bool {
	if len(f.Data) == 0 {
		return true
	}

	var r, g, b uint64
	for i := 0; i+3 < len(f.Data); i += Channels {
		r += uint64(f.Data[i])
		g += uint64(f.Data[i+1])
		b += uint64(f.Data[i+2])
	}
	pixels := uint64(f.Width * f.Height)
	if pixels == 0 {
		return true
	}

	mean := float64(r)/float64(pixels) + float64(g)/float64(pixels) + float64(b)/float64(pixels)
	return mean < 1.0
}
