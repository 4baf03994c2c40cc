package screen

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func buildPNGCapture(t *testing.T) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 24, 24))
	for y := 0; y < 24; y++ {
		for x := 0; x < 24; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 10), G: uint8(y * 10), B: 128, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png encode: %v", err)
	}
	return buf.Bytes()
}

func TestDecodePNG_Clean(t *testing.T) {
	frame, err := DecodePNG(buildPNGCapture(t))
	if err != nil {
		t.Fatalf("DecodePNG() error: %v", err)
	}
	if frame.Width != 24 || frame.Height != 24 {
		t.Errorf("frame = %dx%d, want 24x24", frame.Width, frame.Height)
	}
}

func TestDecodePNG_RepairsCRLF(t *testing.T) {
	clean := buildPNGCapture(t)

	// a pty transport expands every \n to \r\n; the PNG signature
	// alone guarantees the stream is affected
	corrupted := bytes.ReplaceAll(clean, []byte("\n"), []byte("\r\n"))
	if bytes.Equal(corrupted, clean) {
		t.Fatal("test PNG contains no newline bytes")
	}

	frame, err := DecodePNG(corrupted)
	if err != nil {
		t.Fatalf("DecodePNG() error: %v", err)
	}
	if frame.Width != 24 {
		t.Errorf("frame width = %d, want 24", frame.Width)
	}
}

func TestDecodePNG_RepairsCRCRLF(t *testing.T) {
	clean := buildPNGCapture(t)
	corrupted := bytes.ReplaceAll(clean, []byte("\n"), []byte("\r\r\n"))

	frame, err := DecodePNG(corrupted)
	if err != nil {
		t.Fatalf("DecodePNG() error: %v", err)
	}
	if frame.Height != 24 {
		t.Errorf("frame height = %d, want 24", frame.Height)
	}
}

func TestDecodePNG_Unrepairable(t *testing.T) {
	_, err := DecodePNG([]byte("definitely not a png"))
	if !errors.Is(err, ErrCorrupted) {
		t.Errorf("error = %v, want ErrCorrupted", err)
	}
}

func TestRepair_PromotesWinningRule(t *testing.T) {
	repair := NewRepair()
	corrupted := bytes.ReplaceAll(buildPNGCapture(t), []byte("\n"), []byte("\r\n"))

	if _, err := repair.DecodePNG(corrupted); err != nil {
		t.Fatalf("first decode error: %v", err)
	}
	if repair.order[0] != repairCRLF {
		t.Errorf("winning rule not promoted: order = %v", repair.order)
	}

	// subsequent captures with the same corruption decode under the
	// promoted rule
	if _, err := repair.DecodePNG(corrupted); err != nil {
		t.Fatalf("second decode error: %v", err)
	}
	if repair.order[0] != repairCRLF {
		t.Errorf("rule order changed after hit: %v", repair.order)
	}

	// a clean capture still decodes, re-promoting the identity rule
	if _, err := repair.DecodePNG(buildPNGCapture(t)); err != nil {
		t.Fatalf("clean decode error: %v", err)
	}
	if repair.order[0] != repairNone {
		t.Errorf("identity rule not re-promoted: order = %v", repair.order)
	}
}

func TestDecodePNG_StripsShellBanner(t *testing.T) {
	banner := append([]byte("long long=8 fun*=10\n"), buildPNGCapture(t)...)

	frame, err := DecodePNG(banner)
	if err != nil {
		t.Fatalf("DecodePNG() error: %v", err)
	}
	if frame.Width != 24 {
		t.Errorf("frame width = %d, want 24", frame.Width)
	}
}
