package commands

import (
	"fmt"

	"github.com/emu-next/devio/utils"
)

const (
	// Default MJPEG streaming quality (1-100)
	DefaultMJPEGQuality = 80
	// Default MJPEG streaming scale (0.1-1.0)
	DefaultMJPEGScale = 1.0

	// MJPEGBoundary separates parts in a multipart MJPEG stream.
	MJPEGBoundary = "BoundaryString"
)

// ScreenCaptureRequest represents the parameters for a continuous
// capture stream (MJPEG over HTTP or binary frames over WebSocket).
type ScreenCaptureRequest struct {
	DeviceID string  `json:"deviceId"`
	Format   string  `json:"format"` // "mjpeg"
	Quality  int     `json:"quality,omitempty"`
	Scale    float64 `json:"scale,omitempty"`
}

// StreamScreenCapture captures frames in a loop, wraps each one as an
// MJPEG part, and hands it to emit. The loop ends when emit reports
// false. A capture failure before the first frame is returned to the
// caller; failures after that just end the stream, since the session
// has already exhausted its own retries by then.
func StreamScreenCapture(req ScreenCaptureRequest, emit func(part []byte) bool) error {
	if req.Format != "mjpeg" {
		return fmt.Errorf("format must be 'mjpeg' for screen capture")
	}

	quality := req.Quality
	if quality == 0 {
		quality = DefaultMJPEGQuality
	}
	scale := req.Scale
	if scale == 0.0 {
		scale = DefaultMJPEGScale
	}

	sent := 0
	for {
		// the session throttles capture, which paces this loop
		frame, _, err := CaptureFrame(req.DeviceID, "jpeg", quality, scale)
		if err != nil {
			if sent == 0 {
				return err
			}
			utils.Warn("Screen capture stream ended: %v", err)
			return nil
		}

		header := fmt.Sprintf("--%s\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", MJPEGBoundary, len(frame))
		part := make([]byte, 0, len(header)+len(frame)+2)
		part = append(part, header...)
		part = append(part, frame...)
		part = append(part, '\r', '\n')

		if !emit(part) {
			return nil
		}
		sent++
	}
}
