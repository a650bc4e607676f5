package app

import (
	"context"
	"sync"

	"english-mcq-service/internal/domain"
)

// Hub fans points updates out to the live subscribers of each user.
type Hub struct {
	mu          sync.Mutex
	subscribers map[string]map[chan domain.DashboardData]struct{}
}

func NewHub() *Hub {
	return &Hub{subscribers: make(map[string]map[chan domain.DashboardData]struct{})}
}

// Subscribe registers a buffered channel for userID.
func (h *Hub) Subscribe(userID string) (<-chan domain.DashboardData, func()) {
	ch := make(chan domain.DashboardData, 8)

	h.mu.Lock()
	subs, ok := h.subscribers[userID]
	if !ok {
		subs = make(map[chan domain.DashboardData]struct{})
		h.subscribers[userID] = subs
	}
	subs[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		subs, ok := h.subscribers[userID]
		if !ok {
			return
		}
		if _, ok := subs[ch]; ok {
			delete(subs, ch)
			close(ch)
		}
		if len(subs) == 0 {
			delete(h.subscribers, userID)
		}
	}
	return ch, cancel
}

// Publish delivers the update locally; it never fails.
func (h *Hub) Publish(_ context.Context, update domain.DashboardUpdate) error {
	h.Deliver(update)
	return nil
}

// Deliver sends the update to every subscriber of update.UserID.
func (h *Hub) Deliver(update domain.DashboardUpdate) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subscribers[update.UserID] {
		select {
		case ch <- update.Data:
		default:
			// slow subscriber: drop the stale update so publishers never block
			select {
			case <-ch:
			default:
			}
			ch <- update.Data
		}
	}
}

// SubscriberCount reports how many live subscribers a user has.
func (h *Hub) SubscriberCount(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers[userID])
}
