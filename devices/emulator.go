package devices

import (
	"encoding/json"
	"strings"

	"github.com/emu-next/devio/devices/nemu"
)

// Vendor identifies which emulator family a serial belongs to. The
// port layout is the only reliable signal: every vendor carves its own
// range, and the choice gates backend eligibility (only MuMu 12 ships
// the renderer IPC library).
type Vendor int

const (
	VendorUnknown Vendor = iota
	VendorAVD
	VendorMuMu
	VendorLDPlayer
	VendorNox
	VendorMEmu
)

func (v Vendor) String() string {
	switch v {
	case VendorAVD:
		return "avd"
	case VendorMuMu:
		return "mumu"
	case VendorLDPlayer:
		return "ldplayer"
	case VendorNox:
		return "nox"
	case VendorMEmu:
		return "memu"
	default:
		return "unknown"
	}
}

// SupportsNemu reports whether the renderer IPC backend can exist for
// this vendor at all.
func (v Vendor) SupportsNemu() bool {
	return v == VendorMuMu
}

func (v Vendor) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.String())
}

func (v *Vendor) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for _, candidate := range []Vendor{VendorUnknown, VendorAVD, VendorMuMu, VendorLDPlayer, VendorNox, VendorMEmu} {
		if candidate.String() == name {
			*v = candidate
			return nil
		}
	}
	*v = VendorUnknown
	return nil
}

// DetectVendor classifies a normalized serial by its port family:
// MuMu 12 at 16384+32k, LDPlayer at 5555+2k, Nox at 62001/62025+,
// MEmu at 21503+10k, and the stock emulator by its console prefix.
func DetectVendor(serial string) Vendor {
	if strings.HasPrefix(serial, "emulator-") {
		return VendorAVD
	}
	port, ok := SerialPort(serial)
	if !ok {
		return VendorUnknown
	}

	if _, ok := nemu.InstanceFromPort(port); ok {
		return VendorMuMu
	}
	if port == 62001 || (port >= 62025 && port <= 62999) {
		return VendorNox
	}
	if port >= 21503 && port <= 21803 && (port-21503)%10 == 0 {
		return VendorMEmu
	}
	if port >= 5555 && port <= 5683 && (port-5555)%2 == 0 {
		return VendorLDPlayer
	}
	return VendorUnknown
}
