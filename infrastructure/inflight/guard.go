// Package inflight rejects a second action on an entity while the first is
// still running.
package inflight

import (
	"context"
	"sync"

	"duoadmin/domain/shared"
)

// MemoryGuard keeps claims in process memory. It serves a single instance.
type MemoryGuard struct {
	mu   sync.Mutex
	busy map[string]struct{}
}

// NewMemoryGuard creates an empty MemoryGuard.
func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{busy: make(map[string]struct{})}
}

// Acquire claims key or fails with a conflict if it is already claimed. The
// returned release ends the claim and is safe to call more than once.
func (g *MemoryGuard) Acquire(_ context.Context, key string) (release func(), err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.busy[key]; ok {
		return nil, busyError(key)
	}
	g.busy[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.busy, key)
			g.mu.Unlock()
		})
	}, nil
}

// Close is a no-op.
func (g *MemoryGuard) Close() error { return nil }

func busyError(key string) error {
	return shared.NewConflictError("action", "another action on "+key+" is still in progress")
}
