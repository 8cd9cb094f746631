package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"loyaltypush/internal/model"
	"loyaltypush/internal/queue"
)

// FanoutDispatcher runs the chat-message fan-out. Satisfied by *service.Dispatcher.
type FanoutDispatcher interface {
	SendPushNotificationsToOtherUsers(ctx context.Context, msg model.OutgoingMessage) model.FanoutResult
}

// ScheduledDeliverer pushes a due scheduled notification.
// Satisfied by *service.NotificationService.
type ScheduledDeliverer interface {
	DeliverScheduled(ctx context.Context, n model.ScheduledNotification) error
}

// Handler processes notification events from the queue.
type Handler struct {
	dispatcher FanoutDispatcher
	deliverer  ScheduledDeliverer
}

func NewHandler(dispatcher FanoutDispatcher, deliverer ScheduledDeliverer) *Handler {
	return &Handler{
		dispatcher: dispatcher,
		deliverer:  deliverer,
	}
}

// HandleEvent routes an event by type. Fan-out failures are per-recipient
// and already logged, so they never fail the event.
func (h *Handler) HandleEvent(ctx context.Context, event queue.NotificationEvent) error {
	startTime := time.Now()
	var err error

	switch event.Type {
	case queue.EventChatMessage:
		err = h.handleChatMessage(ctx, event)
	case queue.EventScheduled:
		err = h.handleScheduled(ctx, event)
	default:
		log.Printf("[Worker] Unknown event type: %s", event.Type)
		return fmt.Errorf("unknown event type: %s", event.Type)
	}

	if err != nil {
		log.Printf("[Worker] HandleEvent FAILED: type=%s duration=%v err=%v",
			event.Type, time.Since(startTime), err)
		return err
	}

	log.Printf("[Worker] HandleEvent OK: type=%s duration=%v", event.Type, time.Since(startTime))
	return nil
}

func (h *Handler) handleChatMessage(ctx context.Context, event queue.NotificationEvent) error {
	if event.Message == nil {
		return fmt.Errorf("chat_message event without message")
	}
	msg := *event.Message
	log.Printf("[Worker] ChatMessage: chat=%s sender=%s group=%t", msg.ChatID, msg.Sender.ID, msg.IsGroup)

	result := h.dispatcher.SendPushNotificationsToOtherUsers(ctx, msg)

	log.Printf("[Worker] ChatMessage DONE: chat=%s recipients=%d sent=%d failed=%d",
		msg.ChatID, result.Recipients, result.Sent, len(result.Failures))
	return nil
}

func (h *Handler) handleScheduled(ctx context.Context, event queue.NotificationEvent) error {
	if event.Scheduled == nil {
		return fmt.Errorf("scheduled event without notification")
	}
	if h.deliverer == nil {
		log.Printf("[Worker] Scheduled: deliverer not set, skipping id=%s", event.Scheduled.ID)
		return nil
	}

	if err := h.deliverer.DeliverScheduled(ctx, *event.Scheduled); err != nil {
		return fmt.Errorf("deliver scheduled notification: %w", err)
	}
	return nil
}
