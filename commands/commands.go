package commands

import (
	"fmt"
	"strings"

	"github.com/emu-next/devio/devices"
)

// CommandResponse represents a standardized response format for all commands
type CommandResponse struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// NewSuccessResponse creates a success response
func NewSuccessResponse(data interface{}) *CommandResponse {
	return &CommandResponse{
		Status: "ok",
		Data:   data,
	}
}

// NewErrorResponse creates an error response
func NewErrorResponse(err error) *CommandResponse {
	return &CommandResponse{
		Status: "error",
		Error:  err.Error(),
	}
}

// activeProfile holds the profile every command connects with. It is
// set once at startup (flags overlaid on the config file) before any
// command runs.
var activeProfile = devices.DefaultProfile()

// SetProfile installs the profile used for new sessions.
func SetProfile(p *devices.Profile) {
	if p != nil {
		activeProfile = p
	}
}

// ActiveProfile returns the profile commands connect with.
func ActiveProfile() *devices.Profile {
	return activeProfile
}

// sessionRegistry tracks open device sessions so repeated commands
// against one device reuse the resolved backends instead of
// re-probing, and so graceful shutdown can close them all. Set once
// at application startup via SetRegistry.
var sessionRegistry = devices.NewRegistry(devices.DefaultRegistrySize)

// SetRegistry replaces the session registry for cleanup tracking.
func SetRegistry(registry *devices.Registry) {
	if registry != nil {
		sessionRegistry = registry
	}
}

// GetRegistry returns the current session registry.
func GetRegistry() *devices.Registry {
	return sessionRegistry
}

// AcquireSession returns an open session for the serial, connecting
// one if needed. An empty serial auto-selects when exactly one usable
// device is attached.
func AcquireSession(serial string) (*devices.Session, error) {
	if serial == "" {
		picked, err := autoSelectSerial()
		if err != nil {
			return nil, err
		}
		serial = picked
	}

	if session, ok := sessionRegistry.Get(serial); ok {
		return session, nil
	}

	session, err := devices.Connect(serial, activeProfile)
	if err != nil {
		return nil, err
	}
	sessionRegistry.Register(session)
	return session, nil
}

// autoSelectSerial picks the single usable device, or explains why it
// cannot.
func autoSelectSerial() (string, error) {
	serials, err := devices.ListSerials(activeProfile.AdbPath)
	if err != nil {
		return "", fmt.Errorf("error listing devices: %w", err)
	}
	switch len(serials) {
	case 0:
		return "", fmt.Errorf("no usable devices found")
	case 1:
		return serials[0], nil
	default:
		return "", fmt.Errorf("multiple devices found (%d), please specify --device with one of: [%s]",
			len(serials), strings.Join(serials, ", "))
	}
}
