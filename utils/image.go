package utils

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
)

func ConvertPngToJpeg(pngBytes []byte, quality int) ([]byte, error) {
	img, err := png.Decode(bytes.NewReader(pngBytes))
	if err != nil {
		return nil, err
	}

	return EncodeJpeg(img, quality)
}

func EncodeJpeg(img image.Image, quality int) ([]byte, error) {
	var jpegBytes bytes.Buffer
	if err := jpeg.Encode(&jpegBytes, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}

	return jpegBytes.Bytes(), nil
}

func EncodePng(img image.Image) ([]byte, error) {
	var pngBytes bytes.Buffer
	if err := png.Encode(&pngBytes, img); err != nil {
		return nil, err
	}

	return pngBytes.Bytes(), nil
}

// ScaleImage resizes img by the given factor (0 < scale <= 1). Uses
// approximate bilinear interpolation, which is fast enough to keep up
// with a capture stream.
func ScaleImage(img image.Image, scale float64) image.Image {
	if scale <= 0 || scale >= 1.0 {
		return img
	}

	bounds := img.Bounds()
	width := int(float64(bounds.Dx()) * scale)
	height := int(float64(bounds.Dy()) * scale)
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}
