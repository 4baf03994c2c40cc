package devices

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/emu-next/devio/utils"
)

// Adb runs commands against one device through the adb binary. Every
// one-shot invocation is bounded by Timeout; long-lived helper
// processes are built with ShellCommand and owned by their callers.
type Adb struct {
	Path    string
	Serial  string
	Timeout time.Duration
}

func NewAdb(serial string, profile *Profile) *Adb {
	return &Adb{
		Path:    profile.AdbPath,
		Serial:  serial,
		Timeout: profile.AdbTimeout,
	}
}

func (a *Adb) timeout() time.Duration {
	if a.Timeout <= 0 {
		return 20 * time.Second
	}
	return a.Timeout
}

func (a *Adb) deviceArgs(args []string) []string {
	if a.Serial == "" {
		return args
	}
	return append([]string{"-s", a.Serial}, args...)
}

// run executes one device-scoped adb command with combined output.
func (a *Adb) run(args ...string) ([]byte, error) {
	return a.runTimeout(a.timeout(), args...)
}

func (a *Adb) runTimeout(timeout time.Duration, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, a.Path, a.deviceArgs(args)...).CombinedOutput()
	if err != nil {
		return out, a.wrapError(args, out, err, ctx.Err())
	}
	return out, nil
}

// output executes one device-scoped command keeping stdout pristine;
// stderr is collected separately so binary payloads are not polluted
// by adb chatter.
func (a *Adb) output(args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout())
	defer cancel()

	cmd := exec.CommandContext(ctx, a.Path, a.deviceArgs(args)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return stdout.Bytes(), a.wrapError(args, stderr.Bytes(), err, ctx.Err())
	}
	return stdout.Bytes(), nil
}

// global executes adb without the -s scope (connect, server control).
func (a *Adb) global(args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout())
	defer cancel()

	out, err := exec.CommandContext(ctx, a.Path, args...).CombinedOutput()
	if err != nil {
		return out, a.wrapError(args, out, err, ctx.Err())
	}
	return out, nil
}

// wrapError folds adb's well-known failure chatter into the error
// taxonomy so the retry engine can pick a remediation.
func (a *Adb) wrapError(args []string, out []byte, err, ctxErr error) error {
	text := string(out)
	switch {
	case containsAny(text, "cannot connect to daemon", "daemon not running", "failed to start daemon"):
		return fmt.Errorf("adb %s: %s: %w", args[0], strings.TrimSpace(text), ErrAdbServerDown)
	case containsAny(text, "device offline", "device not found", "no devices/emulators found", "connection reset", "device still authorizing"):
		return fmt.Errorf("adb %s: %s: %w", args[0], strings.TrimSpace(text), ErrTransportLost)
	case ctxErr == context.DeadlineExceeded:
		return fmt.Errorf("adb %s timed out after %v: %w", args[0], a.timeout(), ErrTransportLost)
	default:
		return fmt.Errorf("adb %s failed: %v (%s)", strings.Join(args, " "), err, strings.TrimSpace(text))
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// Shell runs a device shell command and returns trimmed text output.
func (a *Adb) Shell(args ...string) (string, error) {
	out, err := a.run(append([]string{"shell"}, args...)...)
	return strings.TrimSpace(string(out)), err
}

// ShellBytes runs a device shell command keeping the raw byte stream.
// On devices without exec-out this is the CR-mangling path; the
// screen codec repairs it.
func (a *Adb) ShellBytes(args ...string) ([]byte, error) {
	return a.output(append([]string{"shell"}, args...)...)
}

// ExecOut runs a command through `adb exec-out`, the 8-bit-clean
// channel. Not every device ships it.
func (a *Adb) ExecOut(args ...string) ([]byte, error) {
	return a.output(append([]string{"exec-out"}, args...)...)
}

// ShellCommand builds (without starting) a long-lived device shell
// process, for the injection helpers.
func (a *Adb) ShellCommand(args ...string) *exec.Cmd {
	full := a.deviceArgs(append([]string{"shell"}, args...))
	return exec.Command(a.Path, full...)
}

// Getprop reads one system property.
func (a *Adb) Getprop(name string) (string, error) {
	return a.Shell("getprop", name)
}

// State returns adb's view of the device ("device", "offline", ...).
func (a *Adb) State() (string, error) {
	out, err := a.run("get-state")
	return strings.TrimSpace(string(out)), err
}

// Connect dials a tcp serial. Safe to repeat: "already connected"
// counts as success.
func (a *Adb) Connect() error {
	if !IsTCPSerial(a.Serial) {
		return nil
	}
	out, err := a.global("connect", a.Serial)
	text := strings.TrimSpace(string(out))
	if err != nil {
		return err
	}
	if !strings.Contains(text, "connected to") {
		return fmt.Errorf("adb connect %s: %s: %w", a.Serial, text, ErrTransportLost)
	}
	utils.Verbose("adb connect %s: %s", a.Serial, text)
	return nil
}

// Disconnect drops a tcp serial. Unknown-device responses are fine.
func (a *Adb) Disconnect() error {
	if !IsTCPSerial(a.Serial) {
		return nil
	}
	out, err := a.global("disconnect", a.Serial)
	if err != nil && !strings.Contains(string(out), "no such device") {
		return err
	}
	return nil
}

// WaitDevice blocks until adb reports the device, bounded by timeout.
func (a *Adb) WaitDevice(timeout time.Duration) error {
	_, err := a.runTimeout(timeout, "wait-for-device")
	return err
}

// RestartServer bounces the local adb server. The kill is best
// effort; the start must succeed.
func (a *Adb) RestartServer() error {
	if _, err := a.global("kill-server"); err != nil {
		utils.Verbose("adb kill-server: %v", err)
	}
	if _, err := a.global("start-server"); err != nil {
		return fmt.Errorf("failed to restart adb server: %w", err)
	}
	return nil
}

// Push copies a local file onto the device.
func (a *Adb) Push(local, remote string) error {
	out, err := a.run("push", local, remote)
	if err != nil {
		return fmt.Errorf("adb push %s: %v (%s)", local, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Chmod marks a pushed helper executable.
func (a *Adb) Chmod(remote string) error {
	_, err := a.Shell("chmod", "755", remote)
	return err
}

// ListSerials returns the serials adb currently reports as usable.
func ListSerials(adbPath string) ([]string, error) {
	a := &Adb{Path: adbPath}
	out, err := a.global("devices")
	if err != nil {
		return nil, fmt.Errorf("failed to run 'adb devices': %w", err)
	}
	return parseDevicesOutput(string(out)), nil
}

func parseDevicesOutput(output string) []string {
	var serials []string
	lines := strings.Split(output, "\n")
	for i := 1; i < len(lines); i++ {
		parts := strings.Fields(strings.TrimSpace(lines[i]))
		if len(parts) == 2 && parts[1] == "device" {
			serials = append(serials, parts[0])
		}
	}
	return serials
}
