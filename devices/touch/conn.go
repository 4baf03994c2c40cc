package touch

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/emu-next/devio/types"
	"github.com/emu-next/devio/utils"
)

var (
	// ErrNotInstalled reports that the injection helper binary is not
	// present on the device; the caller should reinstall and retry.
	ErrNotInstalled = errors.New("touch helper not installed on device")

	// ErrConnClosed reports a write to a helper whose process has
	// exited; the caller should redial.
	ErrConnClosed = errors.New("touch helper connection closed")
)

// HandshakeTimeout bounds how long Dial waits for the helper banner.
const HandshakeTimeout = 10 * time.Second

// flushDelay pads every batch so the helper drains its queue before
// the next batch arrives on the same pipe.
const flushDelay = 50 * time.Millisecond

// Banner carries the helper's advertised limits from the handshake
// line "^ <max-contacts> <max-x> <max-y> <max-pressure>".
type Banner struct {
	MaxContacts int
	MaxX        int
	MaxY        int
	MaxPressure int
}

// ScalerFor builds the coordinate mapper from screen space onto the
// axes this banner advertises.
func (b Banner) ScalerFor(screen types.Size) *Scaler {
	return &Scaler{
		Screen:      screen,
		MaxX:        b.MaxX,
		MaxY:        b.MaxY,
		MaxPressure: b.MaxPressure,
	}
}

// Conn is a persistent pipe to one injection helper process. Batches
// are serialized: one goroutine writes at a time, and the writer
// sleeps out the gesture's own pacing before releasing the lock.
type Conn struct {
	mutex  sync.Mutex
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	banner Banner
	closed bool
	done   chan struct{}
}

// Dial starts the helper command and performs the banner handshake.
// The command's stdout and stderr are merged so abort messages from a
// missing binary are visible; a handshake line mentioning an abort or
// load failure maps to ErrNotInstalled.
func Dial(cmd *exec.Cmd) (*Conn, error) {
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open helper stdin: %w", err)
	}

	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw
	utils.ConfigureDetachedProcAttr(cmd)

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start touch helper: %w", err)
	}
	utils.Verbose("Started touch helper (PID %d)", cmd.Process.Pid)

	conn := &Conn{
		cmd:   cmd,
		stdin: stdin,
		done:  make(chan struct{}),
	}

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(pr)
		for scanner.Scan() {
			lines <- strings.TrimSpace(scanner.Text())
		}
		close(lines)
	}()

	go func() {
		err := cmd.Wait()
		pw.Close()
		conn.mutex.Lock()
		conn.closed = true
		conn.mutex.Unlock()
		close(conn.done)
		if err != nil {
			utils.Verbose("Touch helper exited: %v", err)
		} else {
			utils.Verbose("Touch helper exited cleanly")
		}
	}()

	banner, err := readBanner(lines)

	// Keep draining so neither the helper nor the scanner goroutine
	// ever blocks on a full pipe, in the failure paths too.
	go func() {
		for line := range lines {
			if line != "" {
				utils.Verbose("Touch helper output: %s", line)
			}
		}
	}()

	if err != nil {
		conn.kill()
		return nil, err
	}
	conn.banner = banner
	utils.Verbose("Touch helper ready: contacts=%d max=%dx%d pressure=%d",
		banner.MaxContacts, banner.MaxX, banner.MaxY, banner.MaxPressure)

	return conn, nil
}

func readBanner(lines <-chan string) (Banner, error) {
	deadline := time.After(HandshakeTimeout)
	for {
		select {
		case line, ok := <-lines:
			if !ok {
				return Banner{}, fmt.Errorf("%w: helper exited during handshake", ErrNotInstalled)
			}
			if line == "" {
				continue
			}
			utils.Verbose("Touch helper handshake: %s", line)
			if isAbortLine(line) {
				return Banner{}, ErrNotInstalled
			}
			if strings.HasPrefix(line, "^") {
				return parseBanner(line)
			}
			// "v <version>" and "$ <pid>" lines precede or follow the
			// banner depending on the helper; skip anything else.
		case <-deadline:
			return Banner{}, fmt.Errorf("timed out waiting for touch helper handshake")
		}
	}
}

func isAbortLine(line string) bool {
	for _, marker := range []string{"Aborted", "not found", "No such file", "Error:", "Exception"} {
		if strings.Contains(line, marker) {
			return true
		}
	}
	return false
}

func parseBanner(line string) (Banner, error) {
	fields := strings.Fields(line)
	if len(fields) != 5 {
		return Banner{}, fmt.Errorf("malformed handshake line %q", line)
	}
	vals := make([]int, 4)
	for i, f := range fields[1:] {
		v, err := strconv.Atoi(f)
		if err != nil {
			return Banner{}, fmt.Errorf("malformed handshake line %q: %w", line, err)
		}
		vals[i] = v
	}
	return Banner{MaxContacts: vals[0], MaxX: vals[1], MaxY: vals[2], MaxPressure: vals[3]}, nil
}

// Banner returns the limits advertised during the handshake.
func (c *Conn) Banner() Banner {
	return c.banner
}

// Alive reports whether the helper process is still running.
func (c *Conn) Alive() bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return !c.closed
}

// Send encodes one gesture, writes it as a single batch, and then
// sleeps out the gesture's accumulated waits plus a flush pad so the
// helper finishes pacing before the connection is reused. A write to
// a dead helper returns ErrConnClosed.
func (c *Conn) Send(ctx context.Context, g *Gesture, scaler *Scaler) error {
	if g == nil || len(g.Events) == 0 {
		return nil
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.closed {
		return ErrConnClosed
	}

	data := Encode(g, scaler)
	if _, err := c.stdin.Write(data); err != nil {
		return fmt.Errorf("%w: %v", ErrConnClosed, err)
	}

	pause := g.Duration() + flushDelay
	select {
	case <-time.After(pause):
		return nil
	case <-c.done:
		return ErrConnClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close resets any held contacts and terminates the helper.
func (c *Conn) Close() error {
	c.mutex.Lock()
	if !c.closed {
		// Best effort: lift everything before the pipe goes away.
		c.stdin.Write([]byte("r\nc\n"))
	}
	c.mutex.Unlock()

	c.stdin.Close()
	c.kill()

	select {
	case <-c.done:
	case <-time.After(3 * time.Second):
		utils.Warn("Touch helper did not exit after kill")
	}
	return nil
}

func (c *Conn) kill() {
	if c.cmd.Process != nil {
		c.cmd.Process.Kill()
	}
}
