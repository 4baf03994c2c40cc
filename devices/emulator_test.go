package devices

import (
	"encoding/json"
	"testing"
)

func TestDetectVendor(t *testing.T) {
	tests := []struct {
		serial string
		want   Vendor
	}{
		{"emulator-5554", VendorAVD},
		{"emulator-5584", VendorAVD},
		{"127.0.0.1:16384", VendorMuMu},
		{"127.0.0.1:16416", VendorMuMu},
		{"127.0.0.1:16448", VendorMuMu},
		{"127.0.0.1:62001", VendorNox},
		{"127.0.0.1:62025", VendorNox},
		{"127.0.0.1:62999", VendorNox},
		{"127.0.0.1:62024", VendorUnknown},
		{"127.0.0.1:21503", VendorMEmu},
		{"127.0.0.1:21513", VendorMEmu},
		{"127.0.0.1:21803", VendorMEmu},
		{"127.0.0.1:21504", VendorUnknown},
		{"127.0.0.1:5555", VendorLDPlayer},
		{"127.0.0.1:5557", VendorLDPlayer},
		{"127.0.0.1:5683", VendorLDPlayer},
		{"127.0.0.1:5556", VendorUnknown},
		{"127.0.0.1:5685", VendorUnknown},
		{"R5CT10XXXX", VendorUnknown},
		{"192.168.1.20:40001", VendorUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.serial, func(t *testing.T) {
			if got := DetectVendor(tt.serial); got != tt.want {
				t.Errorf("DetectVendor(%q) = %v, want %v", tt.serial, got, tt.want)
			}
		})
	}
}

func TestVendorSupportsNemu(t *testing.T) {
	if !VendorMuMu.SupportsNemu() {
		t.Error("expected MuMu to support the renderer IPC backend")
	}
	for _, v := range []Vendor{VendorUnknown, VendorAVD, VendorLDPlayer, VendorNox, VendorMEmu} {
		if v.SupportsNemu() {
			t.Errorf("expected %v not to support the renderer IPC backend", v)
		}
	}
}

func TestVendorJSON(t *testing.T) {
	data, err := json.Marshal(VendorMuMu)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `"mumu"` {
		t.Errorf("marshaled vendor = %s, want %q", data, `"mumu"`)
	}

	var v Vendor
	if err := json.Unmarshal(data, &v); err != nil {
		t.Fatal(err)
	}
	if v != VendorMuMu {
		t.Errorf("round-trip = %v, want %v", v, VendorMuMu)
	}

	if err := json.Unmarshal([]byte(`"somethingelse"`), &v); err != nil {
		t.Fatal(err)
	}
	if v != VendorUnknown {
		t.Errorf("unknown name = %v, want %v", v, VendorUnknown)
	}
}
