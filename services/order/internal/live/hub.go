package live

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/Skotchmaster/bubba_express/services/order/internal/models"
)

const DefaultBuffer = 16

// Filter selects which order snapshots a subscriber receives. The zero value matches every order.
type Filter struct {
	OrderID uuid.UUID
	UserID  uuid.UUID
}

func (f Filter) Match(o *models.Order) bool {
	if f.OrderID != uuid.Nil && o.ID != f.OrderID {
		return false
	}
	if f.UserID != uuid.Nil && o.UserID != f.UserID {
		return false
	}
	return true
}

// Hub fans order snapshots out to in-process subscribers.
type Hub struct {
	mu     sync.Mutex
	subs   map[uint64]*Subscription
	nextID uint64
	buffer int
}

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub{subs: make(map[uint64]*Subscription), buffer: buffer}
}

type Subscription struct {
	C <-chan models.Order

	id     uint64
	ch     chan models.Order
	filter Filter
	hub    *Hub
	once   sync.Once
}

func (h *Hub) Subscribe(f Filter) *Subscription {
	ch := make(chan models.Order, h.buffer)

	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	s := &Subscription{C: ch, id: h.nextID, ch: ch, filter: f, hub: h}
	h.subs[s.id] = s
	return s
}

// Close detaches the subscription. Once Close returns no further snapshot is delivered. Safe to call twice.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		defer s.hub.mu.Unlock()
		s.hub.remove(s)
	})
}

// remove must be called with h.mu held.
func (h *Hub) remove(s *Subscription) {
	if _, ok := h.subs[s.id]; !ok {
		return
	}
	delete(h.subs, s.id)
	close(s.ch)
}

// Publish never blocks: a subscriber whose buffer is full is dropped and its channel closed.
func (h *Hub) Publish(o models.Order) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, s := range h.subs {
		if !s.filter.Match(&o) {
			continue
		}
		select {
		case s.ch <- o:
		default:
			h.remove(s)
		}
	}
}

func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Local publishes straight into the hub. Used by single-instance deployments and tests.
type Local struct {
	Hub *Hub
}

func (l Local) OrderChanged(_ context.Context, o *models.Order) {
	l.Hub.Publish(*o)
}
