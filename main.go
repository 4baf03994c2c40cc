package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/emu-next/devio/cli"
	"github.com/emu-next/devio/commands"
	"github.com/emu-next/devio/devices"
)

func main() {
	// session registry for reuse and cleanup tracking
	registry := devices.NewRegistry(devices.DefaultRegistrySize)
	commands.SetRegistry(registry)

	// setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// run command in goroutine
	done := make(chan error, 1)
	go func() {
		done <- cli.Execute()
	}()

	// wait for command completion or signal
	select {
	case <-sigChan:
		// close sessions so transports and port forwards are released
		registry.CleanupAll()
		os.Exit(0)
	case err := <-done:
		// normal exit: forwards stay up for the next invocation
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
}
