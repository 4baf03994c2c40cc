package devices

import (
	"strconv"
	"strings"
)

// NormalizeSerial cleans up a user-supplied adb serial. Config files
// written on Chinese-locale systems routinely carry fullwidth
// punctuation, and bare port numbers are shorthand for loopback tcp
// devices.
func NormalizeSerial(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.NewReplacer("。", ".", "，", ".", "：", ":").Replace(s)
	if s != "" && isDigits(s) {
		return "127.0.0.1:" + s
	}
	return s
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// IsTCPSerial reports whether the serial addresses a device over tcp
// (host:port form) rather than usb or the emulator console.
func IsTCPSerial(serial string) bool {
	return strings.Contains(serial, ":")
}

// SerialPort extracts the adb port a serial speaks to. For
// "emulator-<p>" serials that is the console port plus one.
func SerialPort(serial string) (int, bool) {
	if rest, ok := strings.CutPrefix(serial, "emulator-"); ok {
		console, err := strconv.Atoi(rest)
		if err != nil {
			return 0, false
		}
		return console + 1, true
	}
	if i := strings.LastIndex(serial, ":"); i >= 0 {
		port, err := strconv.Atoi(serial[i+1:])
		if err != nil {
			return 0, false
		}
		return port, true
	}
	return 0, false
}

// SameDevice reports whether two serials address the same device.
// "emulator-5554" and "127.0.0.1:5555" are the same emulator seen
// through its console name and its adb port.
func SameDevice(a, b string) bool {
	a, b = NormalizeSerial(a), NormalizeSerial(b)
	if a == b {
		return true
	}
	pa, oka := SerialPort(a)
	pb, okb := SerialPort(b)
	if !oka || !okb || pa != pb {
		return false
	}
	// Same port only counts when one side is the console alias or both
	// are loopback names for it.
	return isLoopbackOrConsole(a) && isLoopbackOrConsole(b)
}

func isLoopbackOrConsole(serial string) bool {
	return strings.HasPrefix(serial, "emulator-") ||
		strings.HasPrefix(serial, "127.0.0.1:") ||
		strings.HasPrefix(serial, "localhost:")
}
