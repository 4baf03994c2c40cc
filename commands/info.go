package commands

import (
	"fmt"
)

// InfoCommand connects to a device and returns the session snapshot:
// identity, display geometry and the resolved backends.
func InfoCommand(deviceID string) *CommandResponse {
	session, err := AcquireSession(deviceID)
	if err != nil {
		return NewErrorResponse(fmt.Errorf("error finding device: %v", err))
	}

	return NewSuccessResponse(session.Info())
}
