// Package realtime fans analysis status events out to dashboard listeners over
// websockets. With a Bus attached, events published on one gateway instance reach
// listeners connected to every instance.
package realtime

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pharmaguard-dashboard/internal/domain"
	"github.com/sirupsen/logrus"
)

const clientBuffer = 16

// Client is one listener subscribed to the events of a session.
type Client struct {
	ID        uuid.UUID
	SessionID string
	Outbound  chan domain.StatusEvent

	once sync.Once
}

func (c *Client) close() {
	c.once.Do(func() { close(c.Outbound) })
}

// Bus carries status events between gateway instances.
type Bus interface {
	Publish(ctx context.Context, event domain.StatusEvent) error
	StartForwarder(ctx context.Context, onEvent func(domain.StatusEvent)) error
	Close() error
}

// Hub keeps the listeners of every session and implements domain.StatusPublisher.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
	bus     Bus
	log     *logrus.Logger
}

// NewHub creates a hub delivering events in-process.
func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
		log:     logger,
	}
}

// AttachBus routes published events through bus and delivers whatever the bus
// forwards back. The forwarder stops when ctx is cancelled.
func (h *Hub) AttachBus(ctx context.Context, bus Bus) error {
	if err := bus.StartForwarder(ctx, h.Deliver); err != nil {
		return err
	}
	h.mu.Lock()
	h.bus = bus
	h.mu.Unlock()
	return nil
}

// Subscribe registers a new listener for sessionID.
func (h *Hub) Subscribe(sessionID string) *Client {
	c := &Client{
		ID:        uuid.New(),
		SessionID: sessionID,
		Outbound:  make(chan domain.StatusEvent, clientBuffer),
	}

	h.mu.Lock()
	set, ok := h.clients[sessionID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[sessionID] = set
	}
	set[c] = struct{}{}
	h.mu.Unlock()

	h.log.WithFields(logrus.Fields{
		"session_id": sessionID,
		"client_id":  c.ID,
	}).Debug("Status listener subscribed")
	return c
}

// Unsubscribe removes the listener and closes its channel.
func (h *Hub) Unsubscribe(c *Client) {
	h.mu.Lock()
	if set, ok := h.clients[c.SessionID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.clients, c.SessionID)
		}
	}
	h.mu.Unlock()
	c.close()
}

// Listeners returns the number of listeners of sessionID.
func (h *Hub) Listeners(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[sessionID])
}

// Publish sends event to every listener of its session.
func (h *Hub) Publish(event domain.StatusEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	h.mu.RLock()
	bus := h.bus
	h.mu.RUnlock()

	if bus != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		err := bus.Publish(ctx, event)
		if err == nil {
			return
		}
		h.log.WithError(err).Warn("Status bus publish failed, delivering locally")
	}
	h.Deliver(event)
}

// Deliver hands event to the local listeners of its session. A listener whose
// buffer is full misses the event.
func (h *Hub) Deliver(event domain.StatusEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients[event.SessionID] {
		select {
		case c.Outbound <- event:
		default:
			h.log.WithFields(logrus.Fields{
				"session_id": event.SessionID,
				"client_id":  c.ID,
				"status":     event.Status,
			}).Warn("Status listener too slow, event dropped")
		}
	}
}

// Close disconnects every listener and closes the bus.
func (h *Hub) Close() error {
	h.mu.Lock()
	for sessionID, set := range h.clients {
		for c := range set {
			c.close()
		}
		delete(h.clients, sessionID)
	}
	bus := h.bus
	h.bus = nil
	h.mu.Unlock()

	if bus != nil {
		return bus.Close()
	}
	return nil
}
