package console

import (
	"errors"
	"sync"
)

// ErrUpdateInFlight is returned when an order already has a request
// outstanding from this console.
var ErrUpdateInFlight = errors.New("an update for this order is already in progress")

// inFlight is the set of order ids with a request outstanding.
type inFlight struct {
	mu  sync.Mutex
	ids map[string]struct{}
}

func newInFlight() *inFlight { return &inFlight{ids: make(map[string]struct{})} }

func (f *inFlight) begin(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.ids[id]; ok {
		return false
	}
	f.ids[id] = struct{}{}
	return true
}

func (f *inFlight) end(id string) {
	f.mu.Lock()
	delete(f.ids, id)
	f.mu.Unlock()
}

func (f *inFlight) has(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.ids[id]
	return ok
}
