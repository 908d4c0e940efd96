package duplex

import (
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/jrwynneiii/hackrfduplex/hackrf"
)

// Registry holds the serials currently owned by a live Device. Serials are
// stored trimmed so padded and unpadded forms name the same unit.
type Registry struct {
	mu      sync.Mutex
	serials map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{serials: make(map[string]struct{})}
}

var defaultRegistry = NewRegistry()

// DefaultRegistry is the process-wide registry used when none is injected.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

func registryKey(serial string) string {
	return hackrf.TrimSerial(serial)
}

// Claim records every serial, or none if one of them is already held.
func (r *Registry) Claim(serials ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range serials {
		if _, ok := r.serials[registryKey(s)]; ok {
			return fmt.Errorf("serial %s: %w", s, ErrClaimed)
		}
	}
	for _, s := range serials {
		r.serials[registryKey(s)] = struct{}{}
	}
	return nil
}

func (r *Registry) Release(serials ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range serials {
		delete(r.serials, registryKey(s))
	}
}

func (r *Registry) Claimed(serial string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.serials[registryKey(serial)]
	return ok
}

// Serials returns the claimed serials in sorted order.
func (r *Registry) Serials() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Sorted(maps.Keys(r.serials))
}
