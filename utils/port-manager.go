package utils

import (
	"fmt"
	"net"
)

func IsPortAvailable(host string, port int) bool {
	Verbose("Checking if port %d is available on %s", port, host)
	listener, err := net.ListenTCP("tcp4", &net.TCPAddr{IP: net.ParseIP(host), Port: port})
	if err != nil {
		Verbose("error: %v", err)
		return false
	}

	defer listener.Close()
	return true
}

// FindFreePort returns the first port in [start, end) that accepts a
// listener on host. Used when allocating local ends for adb forwards.
func FindFreePort(host string, start, end int) (int, error) {
	for port := start; port < end; port++ {
		if IsPortAvailable(host, port) {
			return port, nil
		}
	}

	return 0, fmt.Errorf("no free port on %s in range %d-%d", host, start, end)
}
