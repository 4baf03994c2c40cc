package devices

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/emu-next/devio/utils"
)

// DefaultRegistrySize bounds how many device sessions stay open at
// once. The least recently used session is closed when the cap is
// hit; emulator farms run dozens of instances but a client works a
// handful at a time.
const DefaultRegistrySize = 16

// Registry tracks live sessions by normalized serial. Only eviction
// and CleanupAll close sessions.
type Registry struct {
	mu    sync.Mutex
	cache *lru.Cache[string, *Session]
}

// NewRegistry creates a session registry holding at most size
// sessions.
func NewRegistry(size int) *Registry {
	if size <= 0 {
		size = DefaultRegistrySize
	}
	cache, _ := lru.NewWithEvict(size, func(serial string, s *Session) {
		utils.Verbose("Evicting session for %s", serial)
		if err := s.Close(); err != nil {
			utils.Verbose("Error closing session %s: %v", serial, err)
		}
	})
	return &Registry{cache: cache}
}

// Register adds a session for cleanup tracking. A session already
// registered under the same serial is closed and replaced.
func (r *Registry) Register(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	serial := s.Serial()
	// Add on an existing key swaps the value without the eviction
	// callback; evict explicitly so the old session gets closed.
	if old, ok := r.cache.Peek(serial); ok && old != s {
		r.cache.Remove(serial)
	}
	r.cache.Add(serial, s)
}

// Get returns the session for serial, matching console and loopback
// aliases of the same emulator instance.
func (r *Registry) Get(serial string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	serial = NormalizeSerial(serial)
	if s, ok := r.cache.Get(serial); ok {
		return s, true
	}
	for _, key := range r.cache.Keys() {
		if SameDevice(key, serial) {
			if s, ok := r.cache.Get(key); ok {
				return s, true
			}
		}
	}
	return nil, false
}

// Close closes and drops the session for serial. Returns false when
// no session matched.
func (r *Registry) Close(serial string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	serial = NormalizeSerial(serial)
	if r.cache.Contains(serial) {
		return r.cache.Remove(serial)
	}
	for _, key := range r.cache.Keys() {
		if SameDevice(key, serial) {
			return r.cache.Remove(key)
		}
	}
	return false
}

// Len reports how many sessions are registered.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache.Len()
}

// CleanupAll gracefully closes all registered sessions.
func (r *Registry) CleanupAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cache.Len() == 0 {
		return
	}
	utils.Verbose("Closing %d device sessions", r.cache.Len())
	r.cache.Purge()
}
