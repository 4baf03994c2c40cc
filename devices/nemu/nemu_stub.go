//go:build !windows

package nemu

func newIPC(base string) (ipc, error) {
	return nil, ErrUnsupported
}
