package devices

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	"github.com/emu-next/devio/devices/screen"
	"github.com/emu-next/devio/utils"
)

// Recorder keeps a small rolling window of decoded frames and recent
// operation names so a terminal failure can be dumped with the
// context that led up to it.
type Recorder struct {
	mu     sync.Mutex
	depth  int
	frames []*screen.Frame
	ops    []string
	enc    *zstd.Encoder
}

const recorderOpWindow = 32

func NewRecorder(depth int) *Recorder {
	if depth <= 0 {
		depth = 4
	}
	// EncodeAll with a reused encoder; options are static so the
	// constructor cannot fail.
	enc, _ := zstd.NewWriter(nil)
	return &Recorder{depth: depth, enc: enc}
}

// AddFrame pushes a frame into the ring. Frames are immutable by
// contract, so they are retained without copying.
func (r *Recorder) AddFrame(f *screen.Frame) {
	if f == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, f)
	if len(r.frames) > r.depth {
		r.frames = r.frames[len(r.frames)-r.depth:]
	}
}

// NoteOp records an operation name for the report's recent-history
// section.
func (r *Recorder) NoteOp(name string) {
	if name == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, name)
	if len(r.ops) > recorderOpWindow {
		r.ops = r.ops[len(r.ops)-recorderOpWindow:]
	}
}

// Report is the metadata file written next to the dumped frames.
type Report struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"createdAt"`
	Identity   Identity  `json:"identity"`
	Cause      string    `json:"cause"`
	CauseChain []string  `json:"causeChain,omitempty"`
	Attempts   int       `json:"attempts,omitempty"`
	RecentOps  []string  `json:"recentOps,omitempty"`
	Frames     []string  `json:"frames"`
}

// Dump writes the recorded frames (PNG, zstd-compressed) and a
// report.json into a fresh timestamped directory under dir, returning
// the directory path.
func (r *Recorder) Dump(dir string, identity Identity, cause error) (string, error) {
	r.mu.Lock()
	frames := make([]*screen.Frame, len(r.frames))
	copy(frames, r.frames)
	ops := make([]string, len(r.ops))
	copy(ops, r.ops)
	r.mu.Unlock()

	report := Report{
		ID:        uuid.New().String()[:8],
		CreatedAt: time.Now(),
		Identity:  identity,
		RecentOps: ops,
	}
	if cause != nil {
		report.Cause = cause.Error()
		for err := errors.Unwrap(cause); err != nil; err = errors.Unwrap(err) {
			report.CauseChain = append(report.CauseChain, err.Error())
		}
		var opErr *OperatorError
		if errors.As(cause, &opErr) {
			report.Attempts = opErr.Attempts
		}
	}

	out := filepath.Join(dir, fmt.Sprintf("%s-%s", report.CreatedAt.Format("20060102-150405"), report.ID))
	if err := os.MkdirAll(out, 0o755); err != nil {
		return "", fmt.Errorf("failed to create report dir: %w", err)
	}

	for i, frame := range frames {
		name := fmt.Sprintf("frame-%d.png.zst", i)
		data, err := utils.EncodePng(frame.Image())
		if err != nil {
			utils.Warn("Failed to encode report frame %d: %v", i, err)
			continue
		}
		compressed := r.enc.EncodeAll(data, nil)
		if err := os.WriteFile(filepath.Join(out, name), compressed, 0o644); err != nil {
			return "", fmt.Errorf("failed to write %s: %w", name, err)
		}
		report.Frames = append(report.Frames, name)
	}

	meta, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(out, "report.json"), meta, 0o644); err != nil {
		return "", fmt.Errorf("failed to write report.json: %w", err)
	}

	utils.Info("Wrote failure report to %s (%d frames)", out, len(report.Frames))
	return out, nil
}
