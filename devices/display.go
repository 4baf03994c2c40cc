package devices

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/emu-next/devio/types"
)

var (
	wmSizePattern      = regexp.MustCompile(`(Physical|Override) size:\s*(\d+)x(\d+)`)
	viewportPattern    = regexp.MustCompile(`orientation=(\d)`)
	orientationPattern = regexp.MustCompile(`mCurrentOrientation=(\d)`)
)

// DisplaySize queries the rendered surface size via `wm size`. An
// override size (set by resolution-changing tools) wins over the
// physical panel.
func (a *Adb) DisplaySize() (types.Size, error) {
	out, err := a.Shell("wm", "size")
	if err != nil {
		return types.Size{}, err
	}
	return parseWmSize(out)
}

func parseWmSize(out string) (types.Size, error) {
	var physical, override types.Size
	for _, m := range wmSizePattern.FindAllStringSubmatch(out, -1) {
		w, _ := strconv.Atoi(m[2])
		h, _ := strconv.Atoi(m[3])
		size := types.Size{Width: w, Height: h}
		if m[1] == "Override" {
			override = size
		} else {
			physical = size
		}
	}
	if override.Width > 0 {
		return override, nil
	}
	if physical.Width > 0 {
		return physical, nil
	}
	return types.Size{}, fmt.Errorf("no display size in %q", strings.TrimSpace(out))
}

// Orientation queries the current rotation in quarter-turns (0..3)
// from the display viewport dump.
func (a *Adb) Orientation() (int, error) {
	out, err := a.Shell("dumpsys", "display")
	if err != nil {
		return 0, err
	}
	return parseOrientation(out)
}

func parseOrientation(out string) (int, error) {
	for _, line := range strings.Split(out, "\n") {
		if !strings.Contains(line, "Viewport") {
			continue
		}
		if m := viewportPattern.FindStringSubmatch(line); m != nil {
			return atoiTurn(m[1])
		}
	}
	if m := orientationPattern.FindStringSubmatch(out); m != nil {
		return atoiTurn(m[1])
	}
	return 0, fmt.Errorf("no orientation in display dump")
}

func atoiTurn(s string) (int, error) {
	turn, err := strconv.Atoi(s)
	if err != nil || turn < 0 || turn > 3 {
		return 0, fmt.Errorf("bad orientation %q", s)
	}
	return turn, nil
}
