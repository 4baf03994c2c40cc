package devices

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/emu-next/devio/utils"
)

// Local ports for device tunnels come from this range, scanned
// densely so stale mappings are easy to spot in `adb forward --list`.
const (
	forwardPortStart = 20000
	forwardPortEnd   = 21000
)

type forwardRecord struct {
	Local  int
	Remote int
}

// ForwardManager owns the adb forward/reverse mappings one session
// creates, so Close and Reconnect can tear down exactly what was set
// up and nothing else.
type ForwardManager struct {
	mutex    sync.Mutex
	adb      *Adb
	forwards []forwardRecord
	reverses []forwardRecord
}

func NewForwardManager(adb *Adb) *ForwardManager {
	return &ForwardManager{adb: adb}
}

// Forward maps device port remote to a local port and returns the
// local end. An existing mapping to the same remote is reused;
// redundant duplicates are removed along the way.
func (m *ForwardManager) Forward(remote int) (int, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	existing, err := m.listForwards()
	if err != nil {
		return 0, err
	}

	reuse := 0
	for _, rec := range existing {
		if rec.Remote != remote {
			continue
		}
		if reuse == 0 {
			reuse = rec.Local
			continue
		}
		// duplicate mapping to the same remote; drop it
		if _, err := m.adb.run("forward", "--remove", tcpSpec(rec.Local)); err != nil {
			utils.Verbose("Failed to remove duplicate forward %d: %v", rec.Local, err)
		}
	}
	if reuse != 0 {
		utils.Verbose("Reusing forward %d -> device:%d", reuse, remote)
		m.remember(&m.forwards, forwardRecord{Local: reuse, Remote: remote})
		return reuse, nil
	}

	local, err := utils.FindFreePort("127.0.0.1", forwardPortStart, forwardPortEnd)
	if err != nil {
		return 0, fmt.Errorf("no free local port for forward: %w", err)
	}
	if _, err := m.adb.run("forward", tcpSpec(local), tcpSpec(remote)); err != nil {
		return 0, err
	}
	utils.Verbose("Forwarded %d -> device:%d", local, remote)
	m.remember(&m.forwards, forwardRecord{Local: local, Remote: remote})
	return local, nil
}

// Reverse maps device port devicePort back to the given local port,
// so on-device producers can reach a host listener.
func (m *ForwardManager) Reverse(devicePort, localPort int) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, err := m.adb.run("reverse", tcpSpec(devicePort), tcpSpec(localPort)); err != nil {
		return err
	}
	utils.Verbose("Reversed device:%d -> %d", devicePort, localPort)
	m.remember(&m.reverses, forwardRecord{Local: localPort, Remote: devicePort})
	return nil
}

// RemoveAll tears down every mapping this manager created. Errors are
// logged, not returned: the device may already be gone.
func (m *ForwardManager) RemoveAll() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for _, rec := range m.forwards {
		if _, err := m.adb.run("forward", "--remove", tcpSpec(rec.Local)); err != nil {
			utils.Verbose("Failed to remove forward %d: %v", rec.Local, err)
		}
	}
	for _, rec := range m.reverses {
		if _, err := m.adb.run("reverse", "--remove", tcpSpec(rec.Remote)); err != nil {
			utils.Verbose("Failed to remove reverse %d: %v", rec.Remote, err)
		}
	}
	m.forwards = nil
	m.reverses = nil
}

func (m *ForwardManager) remember(records *[]forwardRecord, rec forwardRecord) {
	for _, r := range *records {
		if r == rec {
			return
		}
	}
	*records = append(*records, rec)
}

// listForwards parses `adb forward --list` for this device's entries.
func (m *ForwardManager) listForwards() ([]forwardRecord, error) {
	out, err := m.adb.run("forward", "--list")
	if err != nil {
		return nil, err
	}
	return parseForwardList(string(out), m.adb.Serial), nil
}

func parseForwardList(out, serial string) []forwardRecord {
	var records []forwardRecord
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(strings.TrimSpace(line))
		if len(fields) != 3 || fields[0] != serial {
			continue
		}
		local, ok1 := parseTCPSpec(fields[1])
		remote, ok2 := parseTCPSpec(fields[2])
		if ok1 && ok2 {
			records = append(records, forwardRecord{Local: local, Remote: remote})
		}
	}
	return records
}

func tcpSpec(port int) string {
	return "tcp:" + strconv.Itoa(port)
}

func parseTCPSpec(spec string) (int, bool) {
	rest, ok := strings.CutPrefix(spec, "tcp:")
	if !ok {
		return 0, false
	}
	port, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	return port, true
}
