package service

import (
	"context"
	"errors"
	"log"

	"loyaltypush/internal/model"
	"loyaltypush/internal/repository"
)

// DefaultChannelID is the Android channel every push is posted to.
const DefaultChannelID = "default"

// DefaultChannel is ensured on Android before a token is requested.
// Re-creating an existing channel is a no-op on the device.
var DefaultChannel = model.NotificationChannel{
	ID:               DefaultChannelID,
	Name:             "default",
	Importance:       model.AndroidImportanceMax,
	VibrationPattern: []int{0, 250, 250, 250},
	LightColor:       "#FF231F7C",
}

// NotificationPlatform is the device's notification service as seen by the
// registry: permission state, channels, and token issuance.
type NotificationPlatform interface {
	OS() string
	IsDevice() bool
	PermissionStatus(ctx context.Context) string
	RequestPermission(ctx context.Context) string
	SetNotificationChannel(ctx context.Context, ch model.NotificationChannel) error
	ExpoPushToken(ctx context.Context, projectID string) (string, error)
}

// TokenRegistry obtains a device's push token and keeps profiles.expo_push_token current.
type TokenRegistry struct {
	profileRepo repository.ProfileRepository
	projectID   string
}

func NewTokenRegistry(profileRepo repository.ProfileRepository, projectID string) *TokenRegistry {
	return &TokenRegistry{
		profileRepo: profileRepo,
		projectID:   projectID,
	}
}

// RegisterForPushNotifications returns the device's token, or "" when the
// device cannot receive pushes (simulator, permission refused, token error).
// "" means unsupported, not failure.
func (r *TokenRegistry) RegisterForPushNotifications(ctx context.Context, p NotificationPlatform) string {
	if p.OS() == model.PlatformAndroid {
		if err := p.SetNotificationChannel(ctx, DefaultChannel); err != nil {
			log.Printf("[TokenRegistry] Failed to set notification channel: %v", err)
		}
	}

	if !p.IsDevice() {
		log.Printf("[TokenRegistry] Must use physical device for push notifications")
		return ""
	}

	status := p.PermissionStatus(ctx)
	if status != model.PermissionGranted {
		status = p.RequestPermission(ctx)
	}
	if status != model.PermissionGranted {
		return ""
	}

	token, err := p.ExpoPushToken(ctx, r.projectID)
	if err != nil {
		log.Printf("[TokenRegistry] Error getting push token: %v", err)
		return ""
	}
	return token
}

// SavePushToken stores the device's current token on the user's profile,
// writing only when it differs from what is stored. Failures are logged and
// returned in the result; nothing propagates as an error.
func (r *TokenRegistry) SavePushToken(ctx context.Context, userID string, p NotificationPlatform) model.TokenSaveResult {
	token := r.RegisterForPushNotifications(ctx, p)
	if token == "" {
		return model.TokenSaveResult{Status: model.TokenUnsupported}
	}

	current, err := r.profileRepo.GetPushToken(ctx, userID)
	if err != nil {
		log.Printf("[TokenRegistry] Error fetching current push token: user=%s err=%v", userID, err)
		return failedSave(token, model.FailureLookup, err)
	}

	if current == token {
		return model.TokenSaveResult{Status: model.TokenUnchanged, Token: token}
	}

	if err := r.profileRepo.UpdatePushToken(ctx, userID, token); err != nil {
		log.Printf("[TokenRegistry] Error updating push token: user=%s err=%v", userID, err)
		return failedSave(token, model.FailurePersistence, err)
	}

	log.Printf("[TokenRegistry] Push token updated: user=%s", userID)
	return model.TokenSaveResult{Status: model.TokenUpdated, Token: token}
}

// ClearPushToken removes the stored token, e.g. on logout.
func (r *TokenRegistry) ClearPushToken(ctx context.Context, userID string) error {
	if err := r.profileRepo.UpdatePushToken(ctx, userID, ""); err != nil {
		if errors.Is(err, model.ErrProfileNotFound) {
			return err
		}
		return model.NewFailure(model.FailurePersistence, "clear push token", err)
	}
	return nil
}

func failedSave(token string, kind model.FailureKind, err error) model.TokenSaveResult {
	return model.TokenSaveResult{
		Status:  model.TokenFailed,
		Token:   token,
		Failure: model.NewFailure(kind, "save push token", err),
	}
}
