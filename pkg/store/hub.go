package store

import (
	"sync"
)

// Hub fans out collection snapshots to in-process subscribers
type Hub struct {
	mu   sync.RWMutex
	next int
	subs map[string]map[int]func(Snapshot)
}

// NewHub creates an empty Hub
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[int]func(Snapshot))}
}

// Subscribe registers fn for collection and returns the unsubscribe function
func (h *Hub) Subscribe(collection string, fn func(Snapshot)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.next++
	id := h.next
	if h.subs[collection] == nil {
		h.subs[collection] = make(map[int]func(Snapshot))
	}
	h.subs[collection][id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs[collection], id)
		})
	}
}

// HasSubscribers reports whether anyone listens on collection
func (h *Hub) HasSubscribers(collection string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[collection]) > 0
}

// Publish delivers s to every subscriber of s.Collection. Subscribers run on
// the caller's goroutine, outside the hub lock.
func (h *Hub) Publish(s Snapshot) {
	h.mu.RLock()
	fns := make([]func(Snapshot), 0, len(h.subs[s.Collection]))
	for _, fn := range h.subs[s.Collection] {
		fns = append(fns, fn)
	}
	h.mu.RUnlock()

	for _, fn := range fns {
		fn(s)
	}
}
