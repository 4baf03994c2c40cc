package touch

import "fmt"

// Device-side locations of the injection helpers. Both live in the
// world-writable tmp directory so no install privileges are needed.
const (
	MinitouchPath = "/data/local/tmp/minitouch"
	MaaTouchPath  = "/data/local/tmp/maatouch"

	maaTouchMainClass = "com.shxyke.MaaTouch.App"
)

// Helper identifies one of the stdin-driven injection backends.
type Helper int

const (
	// HelperMaaTouch is the dex-based helper run under app_process. It
	// survives Android 10+ where native input injection broke, so it
	// probes first.
	HelperMaaTouch Helper = iota
	// HelperMinitouch is the native per-ABI helper.
	HelperMinitouch
)

func (h Helper) String() string {
	switch h {
	case HelperMaaTouch:
		return "maatouch"
	case HelperMinitouch:
		return "minitouch"
	default:
		return fmt.Sprintf("helper(%d)", int(h))
	}
}

// ShellArgs returns the device-side argv that launches the helper
// reading protocol text from stdin. The caller prefixes the adb
// transport ("adb -s <serial> shell").
func (h Helper) ShellArgs() []string {
	switch h {
	case HelperMaaTouch:
		return []string{"CLASSPATH=" + MaaTouchPath, "app_process", "/", maaTouchMainClass}
	case HelperMinitouch:
		return []string{MinitouchPath, "-i"}
	default:
		return nil
	}
}

// BinaryPath returns where the helper's payload lives on the device.
func (h Helper) BinaryPath() string {
	if h == HelperMaaTouch {
		return MaaTouchPath
	}
	return MinitouchPath
}

// ProbeOrder lists the helpers from most to least preferred.
func ProbeOrder() []Helper {
	return []Helper{HelperMaaTouch, HelperMinitouch}
}
