package commands

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/emu-next/devio/devices"
)

// DoctorInfo is the environment diagnostic report.
type DoctorInfo struct {
	Version       string            `json:"devio_version"`
	OS            string            `json:"os"`
	OSVersion     string            `json:"os_version"`
	AndroidHome   string            `json:"android_home"`
	ADBPath       string            `json:"adb_path"`
	ADBVersion    string            `json:"adb_version,omitempty"`
	EmulatorPath  string            `json:"emulator_path"`
	ToolsDir      string            `json:"tools_dir,omitempty"`
	Helpers       map[string]bool   `json:"helpers,omitempty"`
	DeviceSerial  string            `json:"device_serial,omitempty"`
	Backends      []devices.Backend `json:"backends,omitempty"`
	RendererReady bool              `json:"renderer_ready,omitempty"`
}

func getAndroidSdkPath() string {
	sdkPath := os.Getenv("ANDROID_HOME")
	if sdkPath != "" {
		if _, err := os.Stat(sdkPath); err == nil {
			return sdkPath
		}
	}

	// try default Android SDK location on macOS
	homeDir := os.Getenv("HOME")
	if homeDir != "" {
		defaultPath := filepath.Join(homeDir, "Library", "Android", "sdk")
		if _, err := os.Stat(defaultPath); err == nil {
			return defaultPath
		}
	}

	// try default Android SDK location on Windows
	if runtime.GOOS == "windows" {
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData != "" {
			defaultPath := filepath.Join(localAppData, "Android", "Sdk")
			if _, err := os.Stat(defaultPath); err == nil {
				return defaultPath
			}
		}

		// fallback to USERPROFILE on Windows
		userProfile := os.Getenv("USERPROFILE")
		if userProfile != "" {
			defaultPath := filepath.Join(userProfile, "AppData", "Local", "Android", "Sdk")
			if _, err := os.Stat(defaultPath); err == nil {
				return defaultPath
			}
		}
	}

	return ""
}

func getAdbPath() string {
	sdkPath := getAndroidSdkPath()
	if sdkPath != "" {
		adbPath := filepath.Join(sdkPath, "platform-tools", "adb")
		if runtime.GOOS == "windows" {
			adbPath += ".exe"
		}

		if _, err := os.Stat(adbPath); err == nil {
			return adbPath
		}
	}

	// check if adb is in PATH
	adbPath, err := exec.LookPath("adb")
	if err == nil {
		return adbPath
	}

	return ""
}

func getEmulatorPath() string {
	sdkPath := getAndroidSdkPath()
	if sdkPath != "" {
		emulatorPath := filepath.Join(sdkPath, "emulator", "emulator")
		if runtime.GOOS == "windows" {
			emulatorPath += ".exe"
		}
		if _, err := os.Stat(emulatorPath); err == nil {
			return emulatorPath
		}
	}

	// check if emulator is in PATH
	emulatorPath, err := exec.LookPath("emulator")
	if err == nil {
		return emulatorPath
	}

	return ""
}

func getAdbVersion(adbPath string) string {
	if adbPath == "" {
		return ""
	}

	cmd := exec.Command(adbPath, "version")
	output, err := cmd.CombinedOutput()
	if err != nil {
		return ""
	}

	// parse the output to get just the version line
	lines := strings.Split(string(output), "\n")
	for _, line := range lines {
		if strings.Contains(line, "Android Debug Bridge version") {
			return strings.TrimSpace(line)
		}
	}

	return strings.TrimSpace(string(output))
}

func getOSVersion() string {
	switch runtime.GOOS {
	case "darwin":
		cmd := exec.Command("sw_vers", "-productVersion")
		output, err := cmd.CombinedOutput()
		if err != nil {
			return ""
		}
		return strings.TrimSpace(string(output))
	case "windows":
		cmd := exec.Command("cmd", "/c", "ver")
		output, err := cmd.CombinedOutput()
		if err != nil {
			return ""
		}
		return strings.TrimSpace(string(output))
	case "linux":
		// try reading /etc/os-release
		data, err := os.ReadFile("/etc/os-release")
		if err != nil {
			return ""
		}
		lines := strings.Split(string(data), "\n")
		for _, line := range lines {
			if strings.HasPrefix(line, "PRETTY_NAME=") {
				return strings.Trim(strings.TrimPrefix(line, "PRETTY_NAME="), "\"")
			}
		}
		return ""
	default:
		return ""
	}
}

// helperInventory reports which installable helpers exist in the
// tools directory.
func helperInventory(toolsDir string) map[string]bool {
	if toolsDir == "" {
		return nil
	}
	inventory := make(map[string]bool)
	for _, name := range []string{"maatouch", "minitouch", "ascap"} {
		found := false
		if spec, ok := devices.LookupHelper(name); ok {
			// any abi counts as present for the inventory
			matches, _ := filepath.Glob(filepath.Join(toolsDir, spec.Name, "*", spec.Name))
			if len(matches) > 0 {
				found = true
			} else if _, err := os.Stat(filepath.Join(toolsDir, spec.Name)); err == nil {
				found = true
			}
		}
		inventory[name] = found
	}
	return inventory
}

// DoctorCommand performs system diagnostics. With a device serial it
// also connects and probes every capture and input backend.
func DoctorCommand(version, deviceID string) *CommandResponse {
	info := DoctorInfo{
		Version:      version,
		OS:           runtime.GOOS,
		OSVersion:    getOSVersion(),
		AndroidHome:  os.Getenv("ANDROID_HOME"),
		ADBPath:      getAdbPath(),
		EmulatorPath: getEmulatorPath(),
		ToolsDir:     activeProfile.ToolsDir,
		Helpers:      helperInventory(activeProfile.ToolsDir),
	}

	// get adb version if adb is available
	if info.ADBPath != "" {
		info.ADBVersion = getAdbVersion(info.ADBPath)
	}

	if deviceID != "" {
		session, err := AcquireSession(deviceID)
		if err != nil {
			return NewErrorResponse(err)
		}
		info.DeviceSerial = session.Serial()
		info.Backends = session.ProbeBackends()
		for _, b := range info.Backends {
			if b.Name == "nemu" && b.Kind == "capture" && b.Available {
				info.RendererReady = true
			}
		}
	}

	return NewSuccessResponse(info)
}
