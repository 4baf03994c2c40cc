package commands

import (
	"fmt"
)

// URLRequest represents the parameters for a URL opening command
type URLRequest struct {
	DeviceID string `json:"deviceId"`
	URL      string `json:"url"`
}

// URLCommand opens a URL on the specified device
func URLCommand(req URLRequest) *CommandResponse {
	if req.URL == "" {
		return NewErrorResponse(fmt.Errorf("URL is required"))
	}

	session, err := AcquireSession(req.DeviceID)
	if err != nil {
		return NewErrorResponse(fmt.Errorf("error finding device: %v", err))
	}

	_, err = session.Adb().Shell("am", "start", "-a", "android.intent.action.VIEW", "-d", req.URL)
	if err != nil {
		return NewErrorResponse(fmt.Errorf("failed to open URL on device %s: %v", session.Serial(), err))
	}

	session.Progress()
	return NewSuccessResponse(map[string]interface{}{
		"message": fmt.Sprintf("Opened URL '%s' on device %s", req.URL, session.Serial()),
	})
}
