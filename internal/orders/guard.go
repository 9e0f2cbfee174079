package orders

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Guard keeps at most one status update per order in flight. Updates to
// different orders never wait on each other.
type Guard interface {
	// Acquire marks orderID as updating and returns the holder's token. ok is
	// false when another update already holds it.
	Acquire(ctx context.Context, orderID string) (token string, ok bool, err error)
	// Release frees orderID only while token still holds it.
	Release(ctx context.Context, orderID, token string) error
	// Updating reports whether orderID is currently held.
	Updating(ctx context.Context, orderID string) (bool, error)
}

// MemoryGuard is a process-local Guard keyed by order id.
type MemoryGuard struct {
	mu       sync.Mutex
	inFlight map[string]string
}

func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{inFlight: make(map[string]string)}
}

func (g *MemoryGuard) Acquire(_ context.Context, orderID string) (string, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.inFlight[orderID]; busy {
		return "", false, nil
	}
	token := uuid.NewString()
	g.inFlight[orderID] = token
	return token, true, nil
}

func (g *MemoryGuard) Release(_ context.Context, orderID, token string) error {
	g.mu.Lock()
	if g.inFlight[orderID] == token {
		delete(g.inFlight, orderID)
	}
	g.mu.Unlock()
	return nil
}

func (g *MemoryGuard) Updating(_ context.Context, orderID string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, busy := g.inFlight[orderID]
	return busy, nil
}
