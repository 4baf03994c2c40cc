package commands

import (
	"encoding/base64"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/emu-next/devio/utils"
)

// ScreenshotRequest represents the parameters for taking a screenshot
type ScreenshotRequest struct {
	DeviceID   string  `json:"deviceId"`
	Format     string  `json:"format,omitempty"`     // "png" or "jpeg"
	Quality    int     `json:"quality,omitempty"`    // 1-100, only used for JPEG
	Scale      float64 `json:"scale,omitempty"`      // 0 < scale <= 1, 0 means full size
	OutputPath string  `json:"outputPath,omitempty"` // file path, "-" for stdout, or empty for default naming
}

// ScreenshotResponse represents the response for a screenshot command
type ScreenshotResponse struct {
	Format   string `json:"format"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Data     string `json:"data,omitempty"`     // base64 encoded image data
	FilePath string `json:"filePath,omitempty"` // path where file was saved
}

// CaptureFrame grabs one frame from the device and encodes it,
// applying scale first. Shared by the screenshot command and the
// streaming endpoints.
func CaptureFrame(deviceID, format string, quality int, scale float64) ([]byte, image.Image, error) {
	session, err := AcquireSession(deviceID)
	if err != nil {
		return nil, nil, fmt.Errorf("error finding device: %w", err)
	}

	frame, err := session.Screenshot()
	if err != nil {
		return nil, nil, fmt.Errorf("error taking screenshot: %w", err)
	}

	var img image.Image = frame.Image()
	if scale > 0 && scale < 1 {
		img = utils.ScaleImage(img, scale)
	}

	var encoded []byte
	switch format {
	case "jpeg":
		encoded, err = utils.EncodeJpeg(img, quality)
	default:
		encoded, err = utils.EncodePng(img)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("error encoding %s: %w", format, err)
	}
	return encoded, img, nil
}

// ScreenshotCommand takes a screenshot of the specified device
func ScreenshotCommand(req ScreenshotRequest) *CommandResponse {
	// Set default format
	if req.Format == "" {
		req.Format = "png"
	}

	// Validate format
	req.Format = strings.ToLower(req.Format)
	if req.Format != "png" && req.Format != "jpeg" {
		return NewErrorResponse(fmt.Errorf("invalid format '%s'. Supported formats are 'png' and 'jpeg'", req.Format))
	}

	// Validate JPEG quality
	if req.Format == "jpeg" {
		if req.Quality < 1 || req.Quality > 100 {
			req.Quality = 90 // Default quality
		}
	}

	if req.Scale < 0 || req.Scale > 1 {
		return NewErrorResponse(fmt.Errorf("invalid scale %v, must be within (0, 1]", req.Scale))
	}

	imageBytes, img, err := CaptureFrame(req.DeviceID, req.Format, req.Quality, req.Scale)
	if err != nil {
		return NewErrorResponse(err)
	}

	bounds := img.Bounds()
	response := ScreenshotResponse{
		Format: req.Format,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}

	// Handle output
	if req.OutputPath == "-" {
		// Return as base64 data for stdout
		response.Data = base64.StdEncoding.EncodeToString(imageBytes)
	} else {
		// Save to file
		var finalPath string
		if req.OutputPath != "" {
			finalPath, err = filepath.Abs(req.OutputPath)
			if err != nil {
				return NewErrorResponse(fmt.Errorf("invalid output path: %v", err))
			}
		} else {
			// Default filename generation
			timestamp := time.Now().Format("20060102150405")
			safeDeviceID := strings.ReplaceAll(req.DeviceID, ":", "_")
			if safeDeviceID == "" {
				safeDeviceID = "device"
			}
			extension := "png"
			if req.Format == "jpeg" {
				extension = "jpg"
			}
			fileName := fmt.Sprintf("screenshot-%s-%s.%s", safeDeviceID, timestamp, extension)
			finalPath, err = filepath.Abs("./" + fileName)
			if err != nil {
				return NewErrorResponse(fmt.Errorf("error creating default path: %v", err))
			}
		}

		// Write file
		err = os.WriteFile(finalPath, imageBytes, 0o600)
		if err != nil {
			return NewErrorResponse(fmt.Errorf("error writing file: %v", err))
		}

		response.FilePath = finalPath
	}

	return NewSuccessResponse(response)
}
