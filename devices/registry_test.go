package devices

import "testing"

// registryTestSession builds a session that can be closed without a
// device: a non-tcp serial makes disconnect a no-op and the forward
// manager holds no mappings.
func registryTestSession(serial string) *Session {
	adb := &Adb{Path: "adb", Serial: serial}
	return &Session{
		ID:       "test-" + serial,
		profile:  DefaultProfile(),
		adb:      adb,
		forwards: NewForwardManager(adb),
		state:    StateReady,
	}
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry(4)
	s := registryTestSession("127.0.0.1:5555")
	r.Register(s)

	got, ok := r.Get("127.0.0.1:5555")
	if !ok || got != s {
		t.Fatal("exact serial lookup failed")
	}

	// console alias of the same emulator
	got, ok = r.Get("emulator-5554")
	if !ok || got != s {
		t.Fatal("console alias lookup failed")
	}

	// bare port shorthand
	got, ok = r.Get("5555")
	if !ok || got != s {
		t.Fatal("bare port lookup failed")
	}

	if _, ok := r.Get("127.0.0.1:16416"); ok {
		t.Error("unrelated serial matched")
	}
}

func TestRegistry_EvictionClosesSession(t *testing.T) {
	r := NewRegistry(2)
	first := registryTestSession("a1")
	r.Register(first)
	r.Register(registryTestSession("b2"))
	r.Register(registryTestSession("c3"))

	if r.Len() != 2 {
		t.Fatalf("Len = %d, want 2", r.Len())
	}
	if first.State() != StateDisconnected {
		t.Error("evicted session was not closed")
	}
	if _, ok := r.Get("a1"); ok {
		t.Error("evicted session still resolvable")
	}
}

func TestRegistry_ReplaceClosesOld(t *testing.T) {
	r := NewRegistry(4)
	old := registryTestSession("a1")
	r.Register(old)

	replacement := registryTestSession("a1")
	r.Register(replacement)

	if r.Len() != 1 {
		t.Fatalf("Len = %d, want 1", r.Len())
	}
	if old.State() != StateDisconnected {
		t.Error("replaced session was not closed")
	}
	if got, _ := r.Get("a1"); got != replacement {
		t.Error("lookup did not return the replacement")
	}
}

func TestRegistry_Close(t *testing.T) {
	r := NewRegistry(4)
	s := registryTestSession("127.0.0.1:5555")
	r.Register(s)

	if !r.Close("emulator-5554") {
		t.Fatal("Close via console alias failed")
	}
	if s.State() != StateDisconnected {
		t.Error("session not closed")
	}
	if r.Len() != 0 {
		t.Errorf("Len = %d after close", r.Len())
	}
	if r.Close("127.0.0.1:5555") {
		t.Error("second close reported success")
	}
}

func TestRegistry_CleanupAll(t *testing.T) {
	r := NewRegistry(4)
	sessions := []*Session{
		registryTestSession("a1"),
		registryTestSession("b2"),
		registryTestSession("c3"),
	}
	for _, s := range sessions {
		r.Register(s)
	}

	r.CleanupAll()

	if r.Len() != 0 {
		t.Errorf("Len = %d after cleanup", r.Len())
	}
	for _, s := range sessions {
		if s.State() != StateDisconnected {
			t.Errorf("session %s not closed", s.ID)
		}
	}
}
