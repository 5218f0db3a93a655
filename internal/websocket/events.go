package websocket

import (
	"log"

	"github.com/sla-calendar/backend/internal/storage/models"
)

// EventBroadcaster handles broadcasting WebSocket events.
type EventBroadcaster struct {
	hub *Hub
}

// NewEventBroadcaster creates a new event broadcaster.
func NewEventBroadcaster(hub *Hub) *EventBroadcaster {
	return &EventBroadcaster{hub: hub}
}

// BroadcastSyncCompleted sends a calendar sync completed event.
func (b *EventBroadcaster) BroadcastSyncCompleted(result models.SyncResult) {
	payload := CalendarSyncPayload{
		CalendarID:   result.CalendarID,
		CalendarName: result.CalendarName,
		Status:       "success",
		DatesAdded:   result.DatesAdded,
		DatesRemoved: result.DatesRemoved,
	}

	if result.Error != nil {
		payload.Status = "error"
	}

	b.broadcast(NewMessage(TypeCalendarSyncCompleted, payload))
}

// BroadcastSyncError sends a calendar sync error event.
func (b *EventBroadcaster) BroadcastSyncError(calendarID, calendarName string, err error) {
	payload := CalendarSyncErrorPayload{
		CalendarID:   calendarID,
		CalendarName: calendarName,
		Error:        "sync_error",
		Message:      err.Error(),
	}

	b.broadcast(NewMessage(TypeCalendarSyncError, payload))
}

// BroadcastDefaultChanged announces a newly promoted default calendar.
func (b *EventBroadcaster) BroadcastDefaultChanged(calendarID, calendarName string) {
	payload := CalendarDefaultPayload{
		CalendarID:   calendarID,
		CalendarName: calendarName,
	}

	b.broadcast(NewMessage(TypeCalendarDefaultChanged, payload))
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

func (b *EventBroadcaster) broadcast(msg Message) {
	data, err := msg.JSON()
	if err != nil {
		log.Printf("Error encoding WebSocket message: %v", err)
		return
	}

	b.hub.Broadcast(data)
}
