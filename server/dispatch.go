package server

import (
	"encoding/json"
	"fmt"
)

// HandlerFunc is the signature for non-streaming JSON-RPC method handlers
type HandlerFunc func(params json.RawMessage) (interface{}, error)

// GetMethodRegistry returns a map of method names to handler functions.
// This is used by both the HTTP server and the WebSocket endpoint.
// Streaming methods (screencapture) and server.shutdown are dispatched
// separately.
func GetMethodRegistry() map[string]HandlerFunc {
	return map[string]HandlerFunc{
		"devices":        handleDevicesList,
		"screenshot":     handleScreenshot,
		"io_tap":         handleIoTap,
		"io_longpress":   handleIoLongPress,
		"io_text":        handleIoText,
		"io_button":      handleIoButton,
		"io_swipe":       handleIoSwipe,
		"io_gesture":     handleIoGesture,
		"url":            handleURL,
		"device_info":    handleDeviceInfo,
		"apps_launch":    handleAppsLaunch,
		"apps_terminate": handleAppsTerminate,
		"apps_list":      handleAppsList,
		"report":         handleReport,
		"reports":        handleReports,
	}
}

// Execute dispatches a method call using the registry
// This is the main entry point for embedded clients
func Execute(method string, params json.RawMessage) (interface{}, error) {
	registry := GetMethodRegistry()

	handler, exists := registry[method]
	if !exists {
		return nil, fmt.Errorf("method not found: %s", method)
	}

	return handler(params)
}
