package nemu

import (
	"errors"
	"time"
)

// ErrTimeout reports a raw IPC call that did not return in time. The
// worker goroutine that made it is abandoned; it parks on its buffered
// channel send whenever the library eventually comes back.
var ErrTimeout = errors.New("renderer ipc call timed out")

// dispatch runs fn on a disposable goroutine so a wedged library call
// can be abandoned instead of hanging the caller.
func dispatch(timeout time.Duration, fn func() error) error {
	done := make(chan error, 1)
	go func() {
		done <- fn()
	}()
	select {
	case err := <-done:
		return err
	case <-time.After(timeout):
		return ErrTimeout
	}
}
