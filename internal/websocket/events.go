package websocket

import (
	"log"

	"github.com/band-availability/backend/internal/storage/models"
	"github.com/band-availability/backend/internal/suggest"
)

// Broadcaster accepts encoded messages for delivery to every client.
type Broadcaster interface {
	Broadcast(message []byte)
}

// EventBroadcaster handles broadcasting WebSocket events.
type EventBroadcaster struct {
	hub Broadcaster
}

// NewEventBroadcaster creates a new event broadcaster.
func NewEventBroadcaster(hub Broadcaster) *EventBroadcaster {
	return &EventBroadcaster{hub: hub}
}

// BroadcastAvailabilityChanged sends a member's new answer for a date.
// status is the date's classification status, empty once the date has no answers.
func (b *EventBroadcaster) BroadcastAvailabilityChanged(date models.DateKey, member models.Member, response models.Response, status string) {
	payload := AvailabilityPayload{
		Date:     date,
		Member:   member,
		Response: response,
		Status:   status,
	}

	b.broadcast(NewMessage(TypeAvailabilityChanged, payload))
}

// BroadcastEventCreated sends a newly scheduled band event.
func (b *EventBroadcaster) BroadcastEventCreated(event models.Event) {
	b.broadcast(NewMessage(TypeEventCreated, EventPayload{Event: event}))
}

// BroadcastDateCleared announces that a whole date was wiped.
func (b *EventBroadcaster) BroadcastDateCleared(date models.DateKey) {
	b.broadcast(NewMessage(TypeDateCleared, DateClearedPayload{Date: date}))
}

// BroadcastSuggestions sends the ranked suggestions for a range.
func (b *EventBroadcaster) BroadcastSuggestions(from, to models.DateKey, suggestions []suggest.Suggestion) {
	payload := SuggestionsPayload{
		From:        from,
		To:          to,
		Suggestions: suggestions,
	}

	b.broadcast(NewMessage(TypeSuggestionsUpdated, payload))
}

// BroadcastNotification sends a notification to all connected clients.
func (b *EventBroadcaster) BroadcastNotification(level, title, message string) {
	payload := NotificationPayload{
		Level:       level,
		Title:       title,
		Message:     message,
		Dismissible: true,
	}

	b.broadcast(NewMessage(TypeNotification, payload))
}

// broadcast sends a message to all connected clients.
func (b *EventBroadcaster) broadcast(msg Message) {
	data, err := msg.JSON()
	if err != nil {
		log.Printf("Error encoding WebSocket message: %v", err)
		return
	}

	b.hub.Broadcast(data)
}
