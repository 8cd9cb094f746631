package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"loyaltypush/internal/cache"
	"loyaltypush/internal/model"
	"loyaltypush/internal/repository"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 50
)

// NotificationService covers everything around the chat fan-out: the
// history read side and delayed plain pushes.
type NotificationService struct {
	notifRepo   repository.NotificationRepository
	profileRepo repository.ProfileRepository
	gateway     PushGateway
	schedule    cache.ScheduleCache // nil when Redis is not configured
	now         func() time.Time
}

func NewNotificationService(
	notifRepo repository.NotificationRepository,
	profileRepo repository.ProfileRepository,
	gateway PushGateway,
	schedule cache.ScheduleCache,
) *NotificationService {
	return &NotificationService{
		notifRepo:   notifRepo,
		profileRepo: profileRepo,
		gateway:     gateway,
		schedule:    schedule,
		now:         time.Now,
	}
}

// GetNotifications returns the notifications addressed to recipientID, newest first.
func (s *NotificationService) GetNotifications(ctx context.Context, recipientID string, limit int) (*model.NotificationListResponse, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	records, err := s.notifRepo.ListByRecipient(ctx, recipientID, limit)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []model.NotificationRecord{}
	}

	return &model.NotificationListResponse{Notifications: records}, nil
}

// ScheduleNotification stores a plain push for userID, due after req.DelaySeconds.
func (s *NotificationService) ScheduleNotification(ctx context.Context, userID string, req model.ScheduleRequest) (*model.ScheduledNotification, error) {
	if s.schedule == nil {
		return nil, model.NewFailure(model.FailureUnsupported, "schedule notification", errors.New("scheduling requires REDIS_URL"))
	}
	if strings.TrimSpace(req.Title) == "" && strings.TrimSpace(req.Body) == "" {
		return nil, model.NewFailure(model.FailureInvalidInput, "schedule notification", errors.New("title or body is required"))
	}
	if req.DelaySeconds < 0 {
		return nil, model.NewFailure(model.FailureInvalidInput, "schedule notification", errors.New("delay_seconds must not be negative"))
	}
	// Every Add refreshes the schedule key's TTL, so anything due later
	// than that could expire with the key before it is ever popped.
	if int64(req.DelaySeconds) > int64(cache.ScheduleTTL/time.Second) {
		return nil, model.NewFailure(model.FailureInvalidInput, "schedule notification",
			fmt.Errorf("delay_seconds must not exceed %d", int64(cache.ScheduleTTL/time.Second)))
	}

	n := model.ScheduledNotification{
		ID:     uuid.NewString(),
		UserID: userID,
		Title:  req.Title,
		Body:   req.Body,
		DueAt:  s.now().Add(time.Duration(req.DelaySeconds) * time.Second).Unix(),
	}
	if err := s.schedule.Add(ctx, n); err != nil {
		return nil, model.NewFailure(model.FailurePersistence, "schedule notification", err)
	}

	return &n, nil
}

// DeliverScheduled pushes n to the user's current token. A user without a
// token is skipped, not failed.
func (s *NotificationService) DeliverScheduled(ctx context.Context, n model.ScheduledNotification) error {
	token, err := s.profileRepo.GetPushToken(ctx, n.UserID)
	if err != nil {
		return model.NewFailure(model.FailureLookup, "deliver scheduled", err)
	}
	if token == "" {
		log.Printf("[NotificationService] Scheduled notification skipped, no token: id=%s user=%s", n.ID, n.UserID)
		return nil
	}

	err = s.gateway.Send(ctx, model.PushMessage{
		To:    token,
		Sound: model.PushSoundDefault,
		Title: n.Title,
		Body:  n.Body,
		Data:  model.PushData{UserID: n.UserID},
	})
	if err != nil {
		return fmt.Errorf("deliver scheduled %s: %w", n.ID, err)
	}

	log.Printf("[NotificationService] Scheduled notification delivered: id=%s user=%s", n.ID, n.UserID)
	return nil
}
