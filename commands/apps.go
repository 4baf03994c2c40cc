package commands

import (
	"fmt"
	"strings"
)

// AppRequest represents the parameters for app-related commands
type AppRequest struct {
	DeviceID  string `json:"deviceId"`
	PackageID string `json:"packageId"`
}

// ListAppsRequest represents the parameters for listing packages
type ListAppsRequest struct {
	DeviceID string `json:"deviceId"`
	All      bool   `json:"all,omitempty"` // include system packages
}

// LaunchAppCommand launches an app on the specified device
func LaunchAppCommand(req AppRequest) *CommandResponse {
	if req.PackageID == "" {
		return NewErrorResponse(fmt.Errorf("package ID is required"))
	}

	session, err := AcquireSession(req.DeviceID)
	if err != nil {
		return NewErrorResponse(fmt.Errorf("error finding device: %v", err))
	}

	// monkey resolves the launcher activity so the package name alone
	// is enough
	out, err := session.Adb().Shell("monkey", "-p", req.PackageID,
		"-c", "android.intent.category.LAUNCHER", "1")
	if err != nil {
		return NewErrorResponse(fmt.Errorf("failed to launch app on device %s: %v", session.Serial(), err))
	}
	if strings.Contains(out, "No activities found") {
		return NewErrorResponse(fmt.Errorf("package '%s' has no launchable activity", req.PackageID))
	}

	session.Progress()
	return NewSuccessResponse(map[string]interface{}{
		"message": fmt.Sprintf("Launched app '%s' on device %s", req.PackageID, session.Serial()),
	})
}

// TerminateAppCommand force-stops an app on the specified device
func TerminateAppCommand(req AppRequest) *CommandResponse {
	if req.PackageID == "" {
		return NewErrorResponse(fmt.Errorf("package ID is required"))
	}

	session, err := AcquireSession(req.DeviceID)
	if err != nil {
		return NewErrorResponse(fmt.Errorf("error finding device: %v", err))
	}

	_, err = session.Adb().Shell("am", "force-stop", req.PackageID)
	if err != nil {
		return NewErrorResponse(fmt.Errorf("failed to terminate app on device %s: %v", session.Serial(), err))
	}

	return NewSuccessResponse(map[string]interface{}{
		"message": fmt.Sprintf("Terminated app '%s' on device %s", req.PackageID, session.Serial()),
	})
}

// ListAppsCommand lists installed packages on the specified device
func ListAppsCommand(req ListAppsRequest) *CommandResponse {
	session, err := AcquireSession(req.DeviceID)
	if err != nil {
		return NewErrorResponse(fmt.Errorf("error finding device: %v", err))
	}

	args := []string{"pm", "list", "packages"}
	if !req.All {
		args = append(args, "-3")
	}
	out, err := session.Adb().Shell(args...)
	if err != nil {
		return NewErrorResponse(fmt.Errorf("failed to list packages on device %s: %v", session.Serial(), err))
	}

	var packages []string
	for _, line := range strings.Split(out, "\n") {
		if pkg, ok := strings.CutPrefix(strings.TrimSpace(line), "package:"); ok && pkg != "" {
			packages = append(packages, pkg)
		}
	}

	return NewSuccessResponse(map[string]interface{}{
		"packages": packages,
	})
}
