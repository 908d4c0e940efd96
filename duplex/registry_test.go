package duplex

import (
	"errors"
	"slices"
	"sync"
	"testing"
)

func TestRegistryClaimRelease(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Claim("0000a1", "b2"); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if !reg.Claimed("a1") || !reg.Claimed("00b2") {
		t.Fatalf("claims should ignore zero padding")
	}
	if err := reg.Claim("c3", "a1"); !errors.Is(err, ErrClaimed) {
		t.Fatalf("got %v, want ErrClaimed", err)
	}
	if reg.Claimed("c3") {
		t.Fatalf("failed claim must not record any serial")
	}

	reg.Release("a1", "b2")
	if len(reg.Serials()) != 0 {
		t.Fatalf("serials left: %v", reg.Serials())
	}
	reg.Release("never-claimed")
}

func TestRegistriesAreIsolated(t *testing.T) {
	a, b := NewRegistry(), NewRegistry()
	a.Claim("1")
	if b.Claimed("1") {
		t.Fatalf("registries share state")
	}
}

func TestRegistryConcurrentClaims(t *testing.T) {
	reg := NewRegistry()
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if reg.Claim("1", "2") == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if wins != 1 {
		t.Fatalf("%d goroutines claimed the same pair", wins)
	}
	if !slices.Equal(reg.Serials(), []string{"1", "2"}) {
		t.Fatalf("unexpected serials %v", reg.Serials())
	}
}
