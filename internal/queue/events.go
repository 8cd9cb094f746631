package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"loyaltypush/internal/model"
)

// Event types for the notification stream
const (
	EventChatMessage = "chat_message"
	EventScheduled   = "scheduled"
)

// Stream names
const (
	StreamNotifications = "stream:notifications"
)

// Consumer group name for notification workers
const (
	ConsumerGroupNotifications = "notification_workers"
)

// NotificationEvent is one unit of deferred push work.
// Exactly one of Message and Scheduled is set, matching Type.
type NotificationEvent struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"` // Unix seconds when published

	Message   *model.OutgoingMessage       `json:"message,omitempty"`
	Scheduled *model.ScheduledNotification `json:"scheduled,omitempty"`
}

// NewChatMessageEvent defers the fan-out of msg to a worker.
func NewChatMessageEvent(msg model.OutgoingMessage) NotificationEvent {
	return NotificationEvent{
		Type:      EventChatMessage,
		Timestamp: time.Now().Unix(),
		Message:   &msg,
	}
}

// NewScheduledEvent hands a due scheduled notification to a worker.
func NewScheduledEvent(n model.ScheduledNotification) NotificationEvent {
	return NotificationEvent{
		Type:      EventScheduled,
		Timestamp: time.Now().Unix(),
		Scheduled: &n,
	}
}

// ToMap converts the event to field-value pairs for XADD.
// The payload is JSON in a "data" field.
func (e NotificationEvent) ToMap() (map[string]interface{}, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return map[string]interface{}{
		"type": e.Type,
		"data": string(data),
	}, nil
}

// ParseNotificationEvent parses an event from Redis stream message values.
func ParseNotificationEvent(values map[string]interface{}) (NotificationEvent, error) {
	data, ok := values["data"].(string)
	if !ok {
		return NotificationEvent{}, fmt.Errorf("missing or invalid 'data' field")
	}

	var event NotificationEvent
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return NotificationEvent{}, fmt.Errorf("unmarshal event: %w", err)
	}

	switch {
	case event.Type == EventChatMessage && event.Message == nil:
		return NotificationEvent{}, fmt.Errorf("chat_message event without message")
	case event.Type == EventScheduled && event.Scheduled == nil:
		return NotificationEvent{}, fmt.Errorf("scheduled event without notification")
	}
	return event, nil
}
