package session

import (
	"sync"

	"motorhub/pkg/model"
)

// Source delivers sign-in state changes for one identity. The callback gets
// the current identity, or nil once the identity has signed out.
type Source interface {
	Subscribe(identityID string, fn func(*model.Identity)) (unsubscribe func())
}

// Hub is the in-process Source. Publish calls subscribers synchronously.
type Hub struct {
	mu   sync.RWMutex
	next uint64
	subs map[string]map[uint64]func(*model.Identity)
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[uint64]func(*model.Identity))}
}

func (h *Hub) Subscribe(identityID string, fn func(*model.Identity)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.next++
	id := h.next
	if h.subs[identityID] == nil {
		h.subs[identityID] = make(map[uint64]func(*model.Identity))
	}
	h.subs[identityID][id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs[identityID], id)
			if len(h.subs[identityID]) == 0 {
				delete(h.subs, identityID)
			}
		})
	}
}

func (h *Hub) Publish(identityID string, identity *model.Identity) {
	h.mu.RLock()
	fns := make([]func(*model.Identity), 0, len(h.subs[identityID]))
	for _, fn := range h.subs[identityID] {
		fns = append(fns, fn)
	}
	h.mu.RUnlock()

	for _, fn := range fns {
		fn(identity)
	}
}

// Subscribers returns the number of live subscriptions for an identity.
func (h *Hub) Subscribers(identityID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[identityID])
}
