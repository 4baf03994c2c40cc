package devices

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/emu-next/devio/utils"
)

// DeviceEntry is one row of the device listing: a serial adb can see,
// or a configured AVD that is not currently running.
type DeviceEntry struct {
	Serial  string `json:"serial"`
	Name    string `json:"name,omitempty"`
	Vendor  Vendor `json:"vendor"`
	State   string `json:"state"`
	Version string `json:"version,omitempty"`
}

// AVDInfo is what the local AVD configs say about one virtual device.
type AVDInfo struct {
	Name        string
	DisplayName string
	APILevel    string
	AvdID       string
}

// apiLevelToVersion maps Android API levels to version strings
var apiLevelToVersion = map[string]string{
	"36": "16.0",
	"35": "15.0",
	"34": "14.0",
	"33": "13.0",
	"32": "12.1", // Android 12L
	"31": "12.0",
	"30": "11.0",
	"29": "10.0",
	"28": "9.0",
	"27": "8.1",
	"26": "8.0",
	"25": "7.1",
	"24": "7.0",
	"23": "6.0",
	"22": "5.1",
	"21": "5.0",
}

func convertAPILevelToVersion(apiLevel string) string {
	if version, ok := apiLevelToVersion[apiLevel]; ok {
		return version
	}
	// if no mapping found, return the API level as-is
	return apiLevel
}

// ListAVDs retrieves AVD information by reading .ini files directly
func ListAVDs() (map[string]AVDInfo, error) {
	avdMap := make(map[string]AVDInfo)

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return avdMap, err
	}

	avdDir := filepath.Join(homeDir, ".android", "avd")
	pattern := filepath.Join(avdDir, "*.ini")

	matches, err := filepath.Glob(pattern)
	if err != nil {
		return avdMap, err
	}

	for _, iniFile := range matches {
		// extract avd name from .ini filename
		avdName := strings.TrimSuffix(filepath.Base(iniFile), ".ini")

		// read the .ini file to get the path
		iniConfig, err := ini.Load(iniFile)
		if err != nil {
			utils.Verbose("Failed to read %s: %v", iniFile, err)
			continue
		}

		avdPath := iniConfig.Section("").Key("path").String()
		if avdPath == "" {
			continue
		}

		// read the config.ini inside the .avd directory
		configPath := filepath.Join(avdPath, "config.ini")
		configData, err := ini.Load(configPath)
		if err != nil {
			utils.Verbose("Failed to read %s: %v", configPath, err)
			continue
		}

		displayName := configData.Section("").Key("avd.ini.displayname").String()
		if displayName == "" {
			displayName = strings.ReplaceAll(avdName, "_", " ")
		}

		// extract API level from target (e.g., "android-31" -> "31")
		target := configData.Section("").Key("target").String()
		apiLevel := strings.TrimPrefix(target, "android-")

		avdMap[avdName] = AVDInfo{
			Name:        avdName,
			DisplayName: displayName,
			APILevel:    apiLevel,
			AvdID:       configData.Section("").Key("AvdId").String(),
		}
	}

	return avdMap, nil
}

// avdNameOf asks a running emulator which AVD it was launched from.
// The console replies with the name on one line and "OK" on the next.
func avdNameOf(adbPath, serial string) string {
	a := &Adb{Path: adbPath, Serial: serial}
	out, err := a.run("emu", "avd", "name")
	if err != nil {
		return ""
	}
	line := strings.SplitN(strings.TrimSpace(string(out)), "\n", 2)[0]
	return strings.TrimSpace(line)
}

// ListDeviceEntries merges adb-visible devices with configured AVDs
// that are not running. Offline AVDs are listed under their AVD name.
func ListDeviceEntries(adbPath string, includeOffline bool) ([]DeviceEntry, error) {
	a := &Adb{Path: adbPath}
	out, err := a.global("devices")
	if err != nil {
		return nil, err
	}
	entries := parseDeviceStates(string(out))

	running := make(map[string]bool)
	for i := range entries {
		entries[i].Vendor = DetectVendor(NormalizeSerial(entries[i].Serial))
		if entries[i].Vendor == VendorAVD {
			if name := avdNameOf(adbPath, entries[i].Serial); name != "" {
				entries[i].Name = name
				running[name] = true
			}
		}
	}
	if !includeOffline {
		return entries, nil
	}

	avds, err := ListAVDs()
	if err != nil {
		utils.Verbose("Failed to enumerate AVDs: %v", err)
		return entries, nil
	}
	for avdName, info := range avds {
		if running[avdName] {
			continue
		}
		entries = append(entries, DeviceEntry{
			Serial:  avdName,
			Name:    info.DisplayName,
			Vendor:  VendorAVD,
			State:   "offline",
			Version: convertAPILevelToVersion(info.APILevel),
		})
	}
	return entries, nil
}

// parseDeviceStates keeps every serial row of `adb devices`,
// whatever its state; daemon chatter lines are dropped.
func parseDeviceStates(output string) []DeviceEntry {
	var entries []DeviceEntry
	lines := strings.Split(output, "\n")
	for i := 1; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" || strings.HasPrefix(line, "*") {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) >= 2 {
			entries = append(entries, DeviceEntry{Serial: parts[0], State: parts[1]})
		}
	}
	return entries
}
