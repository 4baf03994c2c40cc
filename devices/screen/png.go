package screen

import (
	"bytes"
	"fmt"
	"image/png"
)

// vmosPrefix is a banner some VMOS builds print before binary shell
// output. It is stripped, line included, before decoding.
var vmosPrefix = []byte("long long=8 fun*=10")

// repairRule is one carriage-return substitution. Devices running the
// capture through a pty mangle binary output by expanding newlines;
// which expansion depends on the Android version.
type repairRule int

const (
	repairNone repairRule = iota
	repairCRLF
	repairCRCRLF
)

func (r repairRule) apply(raw []byte) []byte {
	switch r {
	case repairCRLF:
		return bytes.ReplaceAll(raw, []byte("\r\n"), []byte("\n"))
	case repairCRCRLF:
		return bytes.ReplaceAll(raw, []byte("\r\r\n"), []byte("\n"))
	default:
		return raw
	}
}

func (r repairRule) String() string {
	switch r {
	case repairCRLF:
		return `\r\n`
	case repairCRCRLF:
		return `\r\r\n`
	default:
		return "none"
	}
}

// Repair decodes PNG captures, cycling through the known
// carriage-return substitutions until one yields a structurally valid
// image. The rule that worked is promoted to the front, so a session
// pays the scan cost once per device.
type Repair struct {
	order []repairRule
}

func NewRepair() *Repair {
	return &Repair{order: []repairRule{repairNone, repairCRLF, repairCRCRLF}}
}

// DecodePNG decodes one capture. Each substitution is applied to the
// original bytes, not cumulatively.
func (r *Repair) DecodePNG(raw []byte) (*Frame, error) {
	raw = trimShellBanner(raw)

	for i, rule := range r.order {
		img, err := png.Decode(bytes.NewReader(rule.apply(raw)))
		if err != nil {
			continue
		}
		if i != 0 {
			copy(r.order[1:i+1], r.order[:i])
			r.order[0] = rule
		}
		return FromImage(img), nil
	}

	return nil, fmt.Errorf("png capture of %d bytes not decodable under any line-ending rule: %w",
		len(raw), ErrCorrupted)
}

// DecodePNG decodes a PNG capture without rule caching.
func DecodePNG(raw []byte) (*Frame, error) {
	return NewRepair().DecodePNG(raw)
}

func trimShellBanner(raw []byte) []byte {
	if !bytes.HasPrefix(raw, vmosPrefix) {
		return raw
	}
	if idx := bytes.IndexByte(raw, '\n'); idx >= 0 {
		return raw[idx+1:]
	}
	return raw
}
