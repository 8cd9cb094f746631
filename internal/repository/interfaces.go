package repository

import (
	"context"

	"loyaltypush/internal/model"
)

type ProfileRepository interface {
	// GetPushToken returns the stored token for a user ("" when none is stored)
	GetPushToken(ctx context.Context, userID string) (string, error)
	// UpdatePushToken replaces the stored token; "" clears it
	UpdatePushToken(ctx context.Context, userID, token string) error
	// GetPushTokens returns the raw token column for each of the given users,
	// with NULL read as ""
	GetPushTokens(ctx context.Context, userIDs []string) ([]string, error)
}

type ChatMemberRepository interface {
	// GetMemberIDsExcept returns the members of a chat other than excludeUserID
	GetMemberIDsExcept(ctx context.Context, chatID, excludeUserID string) ([]string, error)
	// IsMember reports whether userID belongs to the chat
	IsMember(ctx context.Context, chatID, userID string) (bool, error)
}

type NotificationRepository interface {
	// Create inserts one audit row
	Create(ctx context.Context, record *model.NotificationRecord) error
	// ListByRecipient returns the newest rows addressed to a user
	ListByRecipient(ctx context.Context, recipientID string, limit int) ([]model.NotificationRecord, error)
	// ListByChat returns every row of a chat, oldest first
	ListByChat(ctx context.Context, chatID string) ([]model.NotificationRecord, error)
}
