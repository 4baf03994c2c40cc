package commands

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/emu-next/devio/devices"
	"github.com/emu-next/devio/utils"
)

// InstallToolsRequest names the helpers to download and push.
type InstallToolsRequest struct {
	DeviceID string   `json:"deviceId"`
	Names    []string `json:"names"`
	NoFetch  bool     `json:"noFetch,omitempty"`
}

// helperSources maps helper names to the GitHub repositories their
// release assets are fetched from.
var helperSources = map[string]string{
	"maatouch":  "MaaAssistantArknights/MaaTouch",
	"minitouch": "DeviceFarmer/minitouch",
	"ascap":     "ClnViewer/Android-fast-screen-capture",
}

// InstallToolsCommand fetches helper binaries from their release pages
// into the tools directory, then pushes them to the device.
func InstallToolsCommand(req InstallToolsRequest) *CommandResponse {
	toolsDir := activeProfile.ToolsDir
	if toolsDir == "" {
		return NewErrorResponse(fmt.Errorf("no tools directory configured"))
	}

	names := req.Names
	if len(names) == 0 {
		names = []string{"maatouch", "minitouch", "ascap"}
	}

	session, err := AcquireSession(req.DeviceID)
	if err != nil {
		return NewErrorResponse(fmt.Errorf("error finding device: %v", err))
	}
	abi := session.Identity().ABI

	var installed []string
	for _, name := range names {
		if _, ok := devices.LookupHelper(name); !ok {
			return NewErrorResponse(fmt.Errorf("unknown helper %q", name))
		}
		if !req.NoFetch {
			if err := fetchHelper(toolsDir, name); err != nil {
				return NewErrorResponse(fmt.Errorf("error fetching %s: %v", name, err))
			}
		}
		if err := devices.InstallHelper(session.Adb(), toolsDir, name, abi); err != nil {
			return NewErrorResponse(fmt.Errorf("error installing %s: %v", name, err))
		}
		installed = append(installed, name)
	}

	return NewSuccessResponse(map[string]interface{}{
		"message":   fmt.Sprintf("Installed %s on device %s", strings.Join(installed, ", "), session.Serial()),
		"installed": installed,
	})
}

// fetchHelper downloads the latest release asset for a helper and
// unpacks it into the tools directory layout.
func fetchHelper(toolsDir, name string) error {
	repo, ok := helperSources[name]
	if !ok {
		return fmt.Errorf("no release source for helper %q", name)
	}

	url, err := utils.GetLatestReleaseDownloadURL(repo)
	if err != nil {
		return fmt.Errorf("failed to resolve release for %s: %w", repo, err)
	}

	tempDir, err := os.MkdirTemp("", "devio_tools_")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tempDir)

	asset := filepath.Join(tempDir, path.Base(url))
	utils.Info("Downloading %s from %s", name, url)
	if err := utils.DownloadFile(url, asset); err != nil {
		return err
	}

	if strings.HasSuffix(asset, ".zip") {
		extracted, err := utils.Unzip(asset)
		if err != nil {
			return err
		}
		defer os.RemoveAll(extracted)
		return placeHelperFiles(extracted, toolsDir, name)
	}

	// bare asset, install flat
	if err := os.MkdirAll(toolsDir, 0o755); err != nil {
		return err
	}
	return utils.CopyFile(asset, filepath.Join(toolsDir, name))
}

// placeHelperFiles walks an extracted release and copies every file
// named after the helper into the tools directory, keeping per-ABI
// subdirectories from layouts like libs/arm64-v8a/<name>.
func placeHelperFiles(extracted, toolsDir, name string) error {
	placed := 0
	err := filepath.WalkDir(extracted, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		if d.Name() != name {
			return nil
		}

		dest := filepath.Join(toolsDir, name)
		abi := filepath.Base(filepath.Dir(p))
		if abi != "" && abi != "." && filepath.Dir(p) != extracted {
			dest = filepath.Join(toolsDir, name, abi, name)
		}
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return err
		}
		if err := utils.CopyFile(p, dest); err != nil {
			return err
		}
		placed++
		return nil
	})
	if err != nil {
		return err
	}
	if placed == 0 {
		return fmt.Errorf("release asset contained no %s binary", name)
	}
	return nil
}
