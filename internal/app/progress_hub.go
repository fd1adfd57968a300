package app

import (
	"sync"

	"quiz-progression-service/internal/domain"
)

// Presence marks a user's live feed subscription in a shared store so
// other instances (or ops tooling) can see who is connected. Optional.
type Presence interface {
	MarkOnline(userID string)
	MarkOffline(userID string)
}

// ProgressHub fans progression updates out to per-user feed
// subscribers. Slow subscribers never block a write path: the stalest
// buffered update is dropped instead.
type ProgressHub struct {
	presence Presence

	mu          sync.Mutex
	subscribers map[string]map[chan domain.ProgressUpdate]struct{}
}

func NewProgressHub() *ProgressHub {
	return &ProgressHub{subscribers: make(map[string]map[chan domain.ProgressUpdate]struct{})}
}

// WithPresence attaches an optional presence marker.
func (h *ProgressHub) WithPresence(p Presence) *ProgressHub {
	h.presence = p
	return h
}

// Subscribe returns a channel of updates for one user. The caller must
// invoke the returned cancel function to avoid leaks.
func (h *ProgressHub) Subscribe(userID string) (<-chan domain.ProgressUpdate, func()) {
	ch := make(chan domain.ProgressUpdate, 8)

	h.mu.Lock()
	set, ok := h.subscribers[userID]
	if !ok {
		set = make(map[chan domain.ProgressUpdate]struct{})
		h.subscribers[userID] = set
	}
	set[ch] = struct{}{}
	h.mu.Unlock()

	if h.presence != nil {
		h.presence.MarkOnline(userID)
	}

	cancel := func() {
		h.mu.Lock()
		if set, ok := h.subscribers[userID]; ok {
			if _, ok := set[ch]; ok {
				delete(set, ch)
				close(ch)
			}
			if len(set) == 0 {
				delete(h.subscribers, userID)
			}
		}
		h.mu.Unlock()
		if h.presence != nil {
			h.presence.MarkOffline(userID)
		}
	}
	return ch, cancel
}

// Broadcast delivers an update to every subscriber of its user. Safe to
// call with a nil hub so services can be wired without one in tests.
func (h *ProgressHub) Broadcast(update domain.ProgressUpdate) {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subscribers[update.UserID] {
		select {
		case ch <- update:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- update
		}
	}
}
