package commands

import (
	"github.com/emu-next/devio/devices"
)

// DevicesCommand lists adb-visible devices; showAll adds configured
// AVDs that are not running.
func DevicesCommand(showAll bool) *CommandResponse {
	entries, err := devices.ListDeviceEntries(activeProfile.AdbPath, showAll)
	if err != nil {
		return NewErrorResponse(err)
	}

	return NewSuccessResponse(map[string]interface{}{
		"devices": entries,
	})
}
