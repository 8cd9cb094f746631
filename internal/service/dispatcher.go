package service

import (
	"context"
	"fmt"
	"log"

	"loyaltypush/internal/model"
	"loyaltypush/internal/repository"
)

// Dispatcher sends classified chat notifications and records each send.
// Send and record are not transactional: the push goes out even when the
// audit insert is skipped or fails.
type Dispatcher struct {
	gateway   PushGateway
	notifRepo repository.NotificationRepository
	resolver  *RecipientResolver
}

func NewDispatcher(gateway PushGateway, notifRepo repository.NotificationRepository, resolver *RecipientResolver) *Dispatcher {
	return &Dispatcher{
		gateway:   gateway,
		notifRepo: notifRepo,
		resolver:  resolver,
	}
}

// SendPushNotification pushes one message to one token, then inserts one
// audit row. Every failure is logged and returned in the result.
func (d *Dispatcher) SendPushNotification(ctx context.Context, req model.DispatchRequest) model.DispatchResult {
	body := notificationBody(Classify(req.Content, req.Sender))
	result := model.DispatchResult{Token: req.Token, Body: body}

	msg := model.PushMessage{
		To:    req.Token,
		Sound: model.PushSoundDefault,
		Title: req.Sender,
		Body:  body,
		Data: model.PushData{
			ChatID:    req.ChatID,
			UserID:    req.UserID,
			FriendID:  req.FriendID,
			UserName:  req.Sender,
			IsGroup:   req.IsGroup,
			AvatarURL: req.AvatarURL,
		},
	}

	if err := d.gateway.Send(ctx, msg); err != nil {
		log.Printf("[Dispatcher] Failed to send push notification: chat=%s err=%v", req.ChatID, err)
		result.Failures = append(result.Failures, asFailure(model.FailureGateway, "send push", err))
	} else {
		result.Sent = true
	}

	if req.UserID == "" || req.ChatID == "" {
		log.Printf("[Dispatcher] Invalid id for user_id or chat_id, not recording: user=%q chat=%q", req.UserID, req.ChatID)
		result.Failures = append(result.Failures,
			model.NewFailure(model.FailureInvalidInput, "record notification", fmt.Errorf("user_id and chat_id are required")))
		return result
	}

	record := &model.NotificationRecord{
		UserID:      req.UserID,
		ChatID:      req.ChatID,
		FriendID:    optional(req.FriendID),
		Title:       req.Sender,
		Message:     body,
		IsGroup:     req.IsGroup,
		AvatarURL:   req.AvatarURL,
		RecipientID: optional(req.FriendID),
	}
	if err := d.notifRepo.Create(ctx, record); err != nil {
		log.Printf("[Dispatcher] Error inserting notification: chat=%s err=%v", req.ChatID, err)
		result.Failures = append(result.Failures, model.NewFailure(model.FailurePersistence, "record notification", err))
		return result
	}

	result.Recorded = true
	return result
}

// SendPushNotificationsToOtherUsers notifies everyone in the conversation
// except the sender. Tokens are dispatched one at a time, in resolver order.
func (d *Dispatcher) SendPushNotificationsToOtherUsers(ctx context.Context, msg model.OutgoingMessage) model.FanoutResult {
	title := NotificationTitle(msg.Sender, msg.IsGroup, msg.GroupName)
	result := model.FanoutResult{Title: title}

	tokens, failure := d.resolver.ResolveRecipientTokens(ctx, model.RecipientContext{
		ChatID:   msg.ChatID,
		SenderID: msg.Sender.ID,
		FriendID: msg.FriendID,
		IsGroup:  msg.IsGroup,
	})
	if failure != nil {
		result.Failures = append(result.Failures, failure.Error())
	}
	result.Recipients = len(tokens)

	for _, token := range tokens {
		r := d.SendPushNotification(ctx, model.DispatchRequest{
			Token:     token,
			Content:   msg.Content,
			Sender:    title,
			UserID:    msg.Sender.ID,
			ChatID:    msg.ChatID,
			FriendID:  msg.FriendID,
			IsGroup:   msg.IsGroup,
			GroupName: msg.GroupName,
			AvatarURL: msg.Sender.AvatarURL,
		})
		if r.Sent {
			result.Sent++
		}
		if r.Recorded {
			result.Recorded++
		}
		for _, f := range r.Failures {
			result.Failures = append(result.Failures, f.Error())
		}
		result.Results = append(result.Results, r)
	}

	log.Printf("[Dispatcher] Fan-out DONE: chat=%s group=%t recipients=%d sent=%d recorded=%d",
		msg.ChatID, msg.IsGroup, result.Recipients, result.Sent, result.Recorded)
	return result
}

// NotificationTitle is the sender's display name, suffixed with the group
// name for group chats.
func NotificationTitle(sender model.Sender, isGroup bool, groupName string) string {
	name := sender.DisplayName()
	if isGroup {
		return fmt.Sprintf("%s in %s", name, groupName)
	}
	return name
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// asFailure keeps a gateway's own classification when it returned one.
func asFailure(kind model.FailureKind, op string, err error) *model.Failure {
	if f, ok := err.(*model.Failure); ok {
		return f
	}
	return model.NewFailure(kind, op, err)
}
