package library

import "sync"

// Handle is an opaque, process-unique reference to a song or album.
// Handles are never reused.
type Handle uint64

// registry maps live handles to their items. It has its own lock so point
// lookups never contend with index iteration.
type registry struct {
	mu    sync.RWMutex
	next  Handle
	items map[Handle]Item
}

func newRegistry() *registry {
	return &registry{items: make(map[Handle]Item)}
}

func (r *registry) register(it Item) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.next++
	r.items[r.next] = it
	return r.next
}

func (r *registry) unregister(handles ...Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, h := range handles {
		delete(r.items, h)
	}
}

func (r *registry) lookup(h Handle) Item {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.items[h]
}

func (r *registry) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}
