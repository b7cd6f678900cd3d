package store

import "sync"

// Hub is a pub/sub registry keyed by collection name. Notifications carry
// no data and coalesce: a subscriber that has not consumed the previous
// signal receives only one.
type Hub struct {
	mu   sync.Mutex
	next int
	subs map[int]*subscription
}

type subscription struct {
	collections map[string]struct{}
	ch          chan struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[int]*subscription)}
}

// Subscribe registers interest in collections (all when none are given).
// The returned cancel func unregisters and closes the channel.
func (h *Hub) Subscribe(collections ...string) (<-chan struct{}, func()) {
	sub := &subscription{ch: make(chan struct{}, 1)}
	if len(collections) > 0 {
		sub.collections = make(map[string]struct{}, len(collections))
		for _, c := range collections {
			sub.collections[c] = struct{}{}
		}
	}

	h.mu.Lock()
	id := h.next
	h.next++
	h.subs[id] = sub
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(sub.ch)
		})
	}
	return sub.ch, cancel
}

// Publish notifies every subscriber watching any of collections.
func (h *Hub) Publish(collections ...string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, sub := range h.subs {
		if !sub.matches(collections) {
			continue
		}
		select {
		case sub.ch <- struct{}{}:
		default:
		}
	}
}

func (s *subscription) matches(collections []string) bool {
	if s.collections == nil {
		return true
	}
	for _, c := range collections {
		if _, ok := s.collections[c]; ok {
			return true
		}
	}
	return false
}
