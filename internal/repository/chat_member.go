package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type chatMemberRepository struct {
	db *sqlx.DB
}

func NewChatMemberRepository(db *sqlx.DB) ChatMemberRepository {
	return &chatMemberRepository{db: db}
}

// GetMemberIDsExcept lists chat members, leaving out the sender.
// Membership is read on every call, never cached.
func (r *chatMemberRepository) GetMemberIDsExcept(ctx context.Context, chatID, excludeUserID string) ([]string, error) {
	query := `
		SELECT user_id
		FROM chat_members
		WHERE chat_id = $1 AND user_id <> $2
	`
	var ids []string
	err := r.db.SelectContext(ctx, &ids, query, chatID, excludeUserID)
	if err != nil {
		return nil, fmt.Errorf("get chat members: %w", err)
	}
	return ids, nil
}

func (r *chatMemberRepository) IsMember(ctx context.Context, chatID, userID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM chat_members WHERE chat_id = $1 AND user_id = $2)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, chatID, userID); err != nil {
		return false, fmt.Errorf("check chat membership: %w", err)
	}
	return exists, nil
}
