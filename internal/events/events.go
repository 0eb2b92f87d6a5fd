package events

import (
	"encoding/json"
	"sync"
	"time"

	"expertrait/internal/models"
)

const (
	EventBookingAccepted  = "booking_accepted"
	EventBookingCompleted = "booking_completed"
	EventExportCompleted  = "export_completed"
	EventExportFailed     = "export_failed"
)

// BookingEventPayload is the minimal snapshot published when a status
// transition is proxied to the backend.
type BookingEventPayload struct {
	BookingID string      `json:"booking_id"`
	Role      models.Role `json:"role,omitempty"`
	ViewerID  string      `json:"viewer_id,omitempty"`
	Status    string      `json:"status,omitempty"`
}

// ExportEventPayload describes a finished (or failed) export job.
type ExportEventPayload struct {
	JobID    string      `json:"job_id"`
	Role     models.Role `json:"role"`
	ViewerID string      `json:"viewer_id"`
	Format   string      `json:"format"`
	RowCount int         `json:"row_count"`
	FilePath string      `json:"file_path,omitempty"`
	Error    string      `json:"error,omitempty"`
}

// Event represents a lightweight domain event.
type Event struct {
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event type.
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		// Handlers run synchronously; caller decides concurrency model.
		_ = handler(event)
	}
}

// PublishJSON serializes the payload and publishes an event.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	b.Publish(&Event{Type: eventType, Payload: raw, CreatedAt: time.Now()})
	return nil
}
