package websocket

import (
	"encoding/json"
	"time"

	"github.com/band-availability/backend/internal/storage/models"
	"github.com/band-availability/backend/internal/suggest"
)

// MessageType identifies the type of WebSocket message.
type MessageType string

const (
	// Server -> Client event types
	TypeAvailabilityChanged MessageType = "availability.changed"
	TypeEventCreated        MessageType = "event.created"
	TypeDateCleared         MessageType = "date.cleared"
	TypeSuggestionsUpdated  MessageType = "suggestions.updated"
	TypeNotification        MessageType = "notification"

	// Client -> Server command types
	TypePing MessageType = "ping"

	// Server -> Client response types
	TypePong  MessageType = "pong"
	TypeError MessageType = "error"
)

// Message represents a WebSocket message envelope.
type Message struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   any         `json:"payload,omitempty"`
}

// NewMessage creates a new message with the current timestamp.
func NewMessage(msgType MessageType, payload any) Message {
	return Message{
		Type:      msgType,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// JSON serializes the message to JSON bytes.
func (m Message) JSON() ([]byte, error) {
	return json.Marshal(m)
}

// ClientMessage is a command sent by a client.
type ClientMessage struct {
	Type MessageType `json:"type"`
}

// AvailabilityPayload is the payload for availability.changed events.
type AvailabilityPayload struct {
	Date     models.DateKey  `json:"date"`
	Member   models.Member   `json:"member"`
	Response models.Response `json:"response"`
	Status   string          `json:"status,omitempty"`
}

// EventPayload is the payload for event.created events.
type EventPayload struct {
	Event models.Event `json:"event"`
}

// DateClearedPayload is the payload for date.cleared events.
type DateClearedPayload struct {
	Date models.DateKey `json:"date"`
}

// SuggestionsPayload is the payload for suggestions.updated events.
type SuggestionsPayload struct {
	From        models.DateKey       `json:"from"`
	To          models.DateKey       `json:"to"`
	Suggestions []suggest.Suggestion `json:"suggestions"`
}

// NotificationPayload is the payload for notification events.
type NotificationPayload struct {
	Level       string `json:"level"` // info, warning, error, success
	Title       string `json:"title"`
	Message     string `json:"message"`
	Dismissible bool   `json:"dismissible"`
}

// ErrorPayload is the payload for error messages.
type ErrorPayload struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	OriginalType string `json:"original_type,omitempty"`
}
