package utils

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func TestConvertPngToJpeg(t *testing.T) {
	w := 32
	h := 32
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), 0, 255})
		}
	}

	var pngBuf bytes.Buffer
	err := png.Encode(&pngBuf, img)
	if err != nil {
		t.Fatalf("Failed to encode test PNG: %v", err)
	}

	jpegBytes, err := ConvertPngToJpeg(pngBuf.Bytes(), 90)
	if err != nil {
		t.Errorf("ConvertPngToJpeg() error = %v", err)
	}

	out, err := jpeg.Decode(bytes.NewReader(jpegBytes))
	if err != nil {
		t.Errorf("Output is not valid JPEG: %v", err)
	}

	if out.Bounds().Dx() != w || out.Bounds().Dy() != h {
		t.Errorf("Output is not %dx%d: %v", w, h, out.Bounds())
	}
}

func TestScaleImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 640, 480))

	scaled := ScaleImage(img, 0.5)
	if scaled.Bounds().Dx() != 320 || scaled.Bounds().Dy() != 240 {
		t.Errorf("ScaleImage(0.5) = %v, want 320x240", scaled.Bounds())
	}
}

func TestScaleImage_NoopOutsideRange(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 100, 100))

	for _, scale := range []float64{0, -1, 1.0, 2.0} {
		scaled := ScaleImage(img, scale)
		if scaled != img {
			t.Errorf("ScaleImage(%v) should return the input unchanged", scale)
		}
	}
}

func TestEncodePng_RoundTrip(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 16, 9))

	data, err := EncodePng(img)
	if err != nil {
		t.Fatalf("EncodePng() error = %v", err)
	}

	decoded, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("EncodePng output is not valid PNG: %v", err)
	}
	if decoded.Bounds().Dx() != 16 || decoded.Bounds().Dy() != 9 {
		t.Errorf("decoded bounds = %v, want 16x9", decoded.Bounds())
	}
}
