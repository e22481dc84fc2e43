// Package busy refuses a new generation from a client while its previous one
// is still outstanding.
package busy

import (
	"context"
	"errors"
	"sync"
)

// ErrBusy is returned by Acquire when the key is already held.
var ErrBusy = errors.New("busy: a generation is already in progress")

// Guard grants at most one holder per key. The returned release function
// must be called exactly once; it is safe to call after the lease expired.
type Guard interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// MemoryGuard is an in-process Guard. Leases never expire; a holder that
// returns always releases.
type MemoryGuard struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewMemoryGuard creates an empty MemoryGuard.
func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{held: make(map[string]struct{})}
}

// Acquire takes key or returns ErrBusy.
func (g *MemoryGuard) Acquire(_ context.Context, key string) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.held[key]; ok {
		return nil, ErrBusy
	}
	g.held[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.held, key)
			g.mu.Unlock()
		})
	}, nil
}

// isHeld reports whether key is currently taken.
func (g *MemoryGuard) isHeld(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.held[key]
	return ok
}
