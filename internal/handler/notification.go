package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"loyaltypush/internal/httputil"
	"loyaltypush/internal/model"
	"loyaltypush/internal/transport/http/middleware"
)

// ChatNotifier runs a fan-out inline. Satisfied by *service.Dispatcher.
type ChatNotifier interface {
	SendPushNotificationsToOtherUsers(ctx context.Context, msg model.OutgoingMessage) model.FanoutResult
}

// ChatPublisher queues a fan-out for the workers. Satisfied by *queue.RedisPublisher.
type ChatPublisher interface {
	PublishChatMessage(ctx context.Context, msg model.OutgoingMessage) (string, error)
}

// NotificationReader is the history and scheduling side.
// Satisfied by *service.NotificationService.
type NotificationReader interface {
	GetNotifications(ctx context.Context, recipientID string, limit int) (*model.NotificationListResponse, error)
	ScheduleNotification(ctx context.Context, userID string, req model.ScheduleRequest) (*model.ScheduledNotification, error)
}

// ChatArchiver exports a chat's records. Satisfied by *service.NotificationArchiver.
type ChatArchiver interface {
	ArchiveChat(ctx context.Context, chatID string) (*model.ArchiveResult, error)
}

// ChatMembership guards chat-scoped endpoints. Satisfied by
// repository.ChatMemberRepository.
type ChatMembership interface {
	IsMember(ctx context.Context, chatID, userID string) (bool, error)
}

type NotificationHandler struct {
	notifier  ChatNotifier
	publisher ChatPublisher // nil without Redis
	notifs    NotificationReader
	archiver  ChatArchiver // nil without R2
	members   ChatMembership
}

func NewNotificationHandler(notifier ChatNotifier, publisher ChatPublisher, notifs NotificationReader, archiver ChatArchiver, members ChatMembership) *NotificationHandler {
	return &NotificationHandler{
		notifier:  notifier,
		publisher: publisher,
		notifs:    notifs,
		archiver:  archiver,
		members:   members,
	}
}

// requireMembers writes 403 unless every user belongs to chatID.
func (h *NotificationHandler) requireMembers(w http.ResponseWriter, r *http.Request, chatID string, userIDs ...string) bool {
	for _, userID := range userIDs {
		ok, err := h.members.IsMember(r.Context(), chatID, userID)
		if err != nil {
			log.Printf("[ERROR] Check chat membership: chat=%s user=%s err=%v", chatID, userID, err)
			httputil.WriteInternalError(w, "Failed to check chat membership")
			return false
		}
		if !ok {
			httputil.WriteForbidden(w, "Not a member of this chat")
			return false
		}
	}
	return true
}

// Notify handles POST /chats/{chatID}/notify
// The caller is the sender; everyone else in the chat is notified.
func (h *NotificationHandler) Notify(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req model.NotifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}
	if !req.IsGroup && req.FriendID == "" {
		httputil.WriteBadRequest(w, "friend_id is required for direct chats")
		return
	}

	chatID := chi.URLParam(r, "chatID")
	participants := []string{userID}
	if !req.IsGroup {
		participants = append(participants, req.FriendID)
	}
	if !h.requireMembers(w, r, chatID, participants...) {
		return
	}

	msg := model.OutgoingMessage{
		Content:   req.Content,
		ChatID:    chatID,
		FriendID:  req.FriendID,
		IsGroup:   req.IsGroup,
		GroupName: req.GroupName,
		Sender: model.Sender{
			ID:        userID,
			Username:  req.Username,
			Email:     req.Email,
			AvatarURL: req.AvatarURL,
		},
	}

	if req.Async {
		if h.publisher != nil {
			msgID, err := h.publisher.PublishChatMessage(r.Context(), msg)
			if err != nil {
				log.Printf("[ERROR] Queue chat notification: chat=%s err=%v", msg.ChatID, err)
				httputil.WriteUnavailable(w, "Failed to queue notification")
				return
			}
			httputil.WriteJSON(w, http.StatusAccepted, map[string]string{
				"status":     "queued",
				"message_id": msgID,
			})
			return
		}
		log.Printf("[NotificationHandler] Async requested without a queue, sending inline: chat=%s", msg.ChatID)
	}

	result := h.notifier.SendPushNotificationsToOtherUsers(r.Context(), msg)
	httputil.WriteJSON(w, http.StatusOK, result)
}

// List handles GET /notifications
// Returns notifications addressed to the authenticated user, newest first.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed <= 0 {
			httputil.WriteBadRequest(w, "Invalid limit parameter")
			return
		}
		limit = parsed
	}

	notifications, err := h.notifs.GetNotifications(r.Context(), userID, limit)
	if err != nil {
		log.Printf("[ERROR] List notifications: user=%s err=%v", userID, err)
		httputil.WriteInternalError(w, "Failed to get notifications")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, notifications)
}

// Schedule handles POST /notifications/schedule
func (h *NotificationHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req model.ScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	scheduled, err := h.notifs.ScheduleNotification(r.Context(), userID, req)
	if err != nil {
		writeFailure(w, err, "Failed to schedule notification")
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, scheduled)
}

// Archive handles POST /chats/{chatID}/notifications/archive
func (h *NotificationHandler) Archive(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}
	if h.archiver == nil {
		httputil.WriteUnavailable(w, "Archive storage is not configured")
		return
	}

	chatID := chi.URLParam(r, "chatID")
	if !h.requireMembers(w, r, chatID, userID) {
		return
	}
	result, err := h.archiver.ArchiveChat(r.Context(), chatID)
	if err != nil {
		log.Printf("[ERROR] Archive notifications: chat=%s err=%v", chatID, err)
		writeFailure(w, err, "Failed to archive notifications")
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, result)
}
