package devices

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/emu-next/devio/devices/touch"
	"github.com/emu-next/devio/utils"
)

// Helper binaries live under the profile's tools directory, either
// flat or in per-ABI subdirectories. The native helpers (minitouch,
// ascap) must match the device ABI; maatouch is a dex and runs
// anywhere.
//
//	tools/
//	  maatouch
//	  minitouch/arm64-v8a/minitouch
//	  ascap/arm64-v8a/ascap

// HelperSpec describes one installable device helper.
type HelperSpec struct {
	Name       string
	DevicePath string
	PerABI     bool
}

var helperSpecs = map[string]HelperSpec{
	"maatouch":  {Name: "maatouch", DevicePath: touch.MaaTouchPath, PerABI: false},
	"minitouch": {Name: "minitouch", DevicePath: touch.MinitouchPath, PerABI: true},
	"ascap":     {Name: "ascap", DevicePath: AscapPath, PerABI: true},
}

// LookupHelper returns the spec for a helper name.
func LookupHelper(name string) (HelperSpec, bool) {
	spec, ok := helperSpecs[name]
	return spec, ok
}

// localHelperPath finds the helper binary on disk, preferring the
// per-ABI layout and falling back to a flat file.
func localHelperPath(toolsDir string, spec HelperSpec, abi string) (string, error) {
	var candidates []string
	if spec.PerABI && abi != "" {
		candidates = append(candidates,
			filepath.Join(toolsDir, spec.Name, abi, spec.Name),
			filepath.Join(toolsDir, "libs", abi, spec.Name),
		)
	}
	candidates = append(candidates, filepath.Join(toolsDir, spec.Name))

	for _, path := range candidates {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", fmt.Errorf("helper %s not found under %s (abi %s)", spec.Name, toolsDir, abi)
}

// InstallHelper pushes a helper binary to its device path and marks
// it executable.
func InstallHelper(adb *Adb, toolsDir, name, abi string) error {
	if toolsDir == "" {
		return fmt.Errorf("no tools directory configured")
	}
	spec, ok := LookupHelper(name)
	if !ok {
		return fmt.Errorf("unknown helper %q", name)
	}
	local, err := localHelperPath(toolsDir, spec, abi)
	if err != nil {
		return err
	}

	utils.Info("Installing %s from %s to %s", name, local, spec.DevicePath)
	if err := adb.Push(local, spec.DevicePath); err != nil {
		return fmt.Errorf("failed to push %s: %w", name, err)
	}
	if err := adb.Chmod(spec.DevicePath); err != nil {
		return fmt.Errorf("failed to chmod %s: %w", name, err)
	}
	return nil
}

// reinstallHelper re-pushes the named helper for this session's
// device.
func (s *Session) reinstallHelper(name string) error {
	if name == "" {
		return fmt.Errorf("no helper to reinstall")
	}
	return InstallHelper(s.adb, s.profile.ToolsDir, name, s.identity.ABI)
}
