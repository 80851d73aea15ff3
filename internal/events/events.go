package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"payment-offers-api/internal/models"
)

// EventType represents the type of event.
type EventType string

const (
	// EventOffersIngested is emitted after a vendor payload has been processed
	EventOffersIngested EventType = "offers.ingested"
	// EventDiscountQueried is emitted when a discount query has been resolved
	EventDiscountQueried EventType = "discount.queried"
)

// Event represents an event in the system.
type Event struct {
	ID        string
	Type      EventType
	Timestamp time.Time
	Data      interface{}
}

// OffersIngestedData contains data for offers ingested events.
type OffersIngestedData struct {
	Identified int
	Created    int
}

// DiscountQueriedData contains data for discount queried events.
type DiscountQueriedData struct {
	Query     models.DiscountQuery
	Result    models.DiscountResult
	QueriedAt time.Time
}

// Handler is a function that handles events.
type Handler func(ctx context.Context, event Event) error

// Manager manages event handlers and event publishing.
type Manager struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
	enabled  bool
}

// NewManager creates a new event manager.
func NewManager(enabled bool) *Manager {
	return &Manager{
		handlers: make(map[EventType][]Handler),
		enabled:  enabled,
	}
}

// Subscribe subscribes a handler to a specific event type.
func (m *Manager) Subscribe(eventType EventType, handler Handler) {
	if !m.enabled {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.handlers[eventType] = append(m.handlers[eventType], handler)
}

// Publish publishes an event to all subscribed handlers.
func (m *Manager) Publish(ctx context.Context, eventType EventType, data interface{}) {
	if m == nil || !m.enabled {
		return
	}

	m.mu.RLock()
	handlers := m.handlers[eventType]
	m.mu.RUnlock()

	if len(handlers) == 0 {
		return
	}

	event := Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
	}

	// Execute handlers asynchronously to avoid blocking
	for _, handler := range handlers {
		go func(h Handler) {
			if err := h(ctx, event); err != nil {
				// In production, you might want to log this or send to error tracking
				_ = err
			}
		}(handler)
	}
}

// PublishOffersIngested publishes an offers ingested event.
func (m *Manager) PublishOffersIngested(ctx context.Context, identified, created int) {
	m.Publish(ctx, EventOffersIngested, OffersIngestedData{
		Identified: identified,
		Created:    created,
	})
}

// PublishDiscountQueried publishes a discount queried event.
func (m *Manager) PublishDiscountQueried(ctx context.Context, query models.DiscountQuery, result models.DiscountResult) {
	m.Publish(ctx, EventDiscountQueried, DiscountQueriedData{
		Query:     query,
		Result:    result,
		QueriedAt: time.Now(),
	})
}

// Shutdown shuts down the event manager.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.enabled = false
	m.handlers = make(map[EventType][]Handler)
}
