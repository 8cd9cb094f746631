package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"loyaltypush/internal/model"
)

type notificationRepository struct {
	db *sqlx.DB
}

func NewNotificationRepository(db *sqlx.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

// Create inserts a new notification audit row and fills in ID and CreatedAt.
func (r *notificationRepository) Create(ctx context.Context, n *model.NotificationRecord) error {
	query := `
		INSERT INTO notifications (user_id, chat_id, friend_id, title, message, is_group, avatar_url, recipient_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`
	row := r.db.QueryRowxContext(ctx, query,
		n.UserID,
		n.ChatID,
		n.FriendID,
		n.Title,
		n.Message,
		n.IsGroup,
		n.AvatarURL,
		n.RecipientID,
	)
	if err := row.Scan(&n.ID, &n.CreatedAt); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// ListByRecipient returns the newest notifications addressed to a user.
func (r *notificationRepository) ListByRecipient(ctx context.Context, recipientID string, limit int) ([]model.NotificationRecord, error) {
	query := `
		SELECT id, user_id, chat_id, friend_id, title, message, is_group, avatar_url, recipient_id, created_at
		FROM notifications
		WHERE recipient_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`
	records := []model.NotificationRecord{}
	err := r.db.SelectContext(ctx, &records, query, recipientID, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications by recipient: %w", err)
	}
	return records, nil
}

// ListByChat returns the whole audit trail of a chat in insertion order.
func (r *notificationRepository) ListByChat(ctx context.Context, chatID string) ([]model.NotificationRecord, error) {
	query := `
		SELECT id, user_id, chat_id, friend_id, title, message, is_group, avatar_url, recipient_id, created_at
		FROM notifications
		WHERE chat_id = $1
		ORDER BY id ASC
	`
	records := []model.NotificationRecord{}
	err := r.db.SelectContext(ctx, &records, query, chatID)
	if err != nil {
		return nil, fmt.Errorf("list notifications by chat: %w", err)
	}
	return records, nil
}
