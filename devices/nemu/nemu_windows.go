//go:build windows

package nemu

import (
	"fmt"
	"path/filepath"
	"syscall"
	"unsafe"
)

// dllRelPath locates the renderer IPC library inside the emulator
// installation.
var dllRelPath = filepath.Join("shell", "sdk", "external_renderer_ipc.dll")

type dllIPC struct {
	connectProc    *syscall.LazyProc
	disconnectProc *syscall.LazyProc
	captureProc    *syscall.LazyProc
	touchDownProc  *syscall.LazyProc
	touchUpProc    *syscall.LazyProc
}

func newIPC(base string) (ipc, error) {
	dll := syscall.NewLazyDLL(filepath.Join(base, dllRelPath))
	if err := dll.Load(); err != nil {
		return nil, fmt.Errorf("failed to load renderer ipc library: %w", err)
	}

	d := &dllIPC{
		connectProc:    dll.NewProc("nemu_connect"),
		disconnectProc: dll.NewProc("nemu_disconnect"),
		captureProc:    dll.NewProc("nemu_capture_display"),
		touchDownProc:  dll.NewProc("nemu_input_event_touch_down"),
		touchUpProc:    dll.NewProc("nemu_input_event_touch_up"),
	}
	for _, p := range []*syscall.LazyProc{
		d.connectProc, d.disconnectProc, d.captureProc, d.touchDownProc, d.touchUpProc,
	} {
		if err := p.Find(); err != nil {
			return nil, fmt.Errorf("renderer ipc library too old: %w", err)
		}
	}
	return d, nil
}

func (d *dllIPC) connect(base string, instance int) (uintptr, error) {
	wpath, err := syscall.UTF16PtrFromString(base)
	if err != nil {
		return 0, err
	}
	handle, _, _ := d.connectProc.Call(uintptr(unsafe.Pointer(wpath)), uintptr(instance))
	if handle == 0 {
		return 0, fmt.Errorf("nemu_connect refused player %d (is it running?)", instance)
	}
	return handle, nil
}

func (d *dllIPC) disconnect(handle uintptr) {
	d.disconnectProc.Call(handle)
}

func (d *dllIPC) captureQuery(handle uintptr, display int) (int, int, error) {
	var w, h int32
	rc, _, _ := d.captureProc.Call(
		handle,
		uintptr(display),
		0,
		uintptr(unsafe.Pointer(&w)),
		uintptr(unsafe.Pointer(&h)),
		0,
	)
	if rc != 0 {
		return 0, 0, fmt.Errorf("nemu_capture_display size query failed (rc=%d)", rc)
	}
	return int(w), int(h), nil
}

func (d *dllIPC) capture(handle uintptr, display int, buf []byte, width, height int) error {
	w, h := int32(width), int32(height)
	rc, _, _ := d.captureProc.Call(
		handle,
		uintptr(display),
		uintptr(len(buf)),
		uintptr(unsafe.Pointer(&w)),
		uintptr(unsafe.Pointer(&h)),
		uintptr(unsafe.Pointer(&buf[0])),
	)
	if rc != 0 {
		return fmt.Errorf("nemu_capture_display failed (rc=%d)", rc)
	}
	if int(w) != width || int(h) != height {
		return fmt.Errorf("display resized to %dx%d during capture", w, h)
	}
	return nil
}

func (d *dllIPC) touchDown(handle uintptr, display, x, y int) error {
	rc, _, _ := d.touchDownProc.Call(handle, uintptr(display), uintptr(x), uintptr(y))
	if rc != 0 {
		return fmt.Errorf("nemu_input_event_touch_down failed (rc=%d)", rc)
	}
	return nil
}

func (d *dllIPC) touchUp(handle uintptr, display int) error {
	rc, _, _ := d.touchUpProc.Call(handle, uintptr(display))
	if rc != 0 {
		return fmt.Errorf("nemu_input_event_touch_up failed (rc=%d)", rc)
	}
	return nil
}
