package model

import (
	"time"
)

// NotificationRecord is one row of the append-only notifications audit table.
// Rows are inserted at dispatch time and never updated or deleted here.
type NotificationRecord struct {
	ID          int64     `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"user_id"` // Sender
	ChatID      string    `db:"chat_id" json:"chat_id"`
	FriendID    *string   `db:"friend_id" json:"friend_id,omitempty"`
	Title       string    `db:"title" json:"title"`
	Message     string    `db:"message" json:"message"`
	IsGroup     bool      `db:"is_group" json:"is_group"`
	AvatarURL   string    `db:"avatar_url" json:"avatar_url"`
	RecipientID *string   `db:"recipient_id" json:"recipient_id,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// NotificationListResponse is returned by GET /notifications.
type NotificationListResponse struct {
	Notifications []NotificationRecord `json:"notifications"`
}

// ScheduledNotification is a plain title/body push delivered to a user's
// current token once DueAt has passed. It is never recorded in the audit table.
type ScheduledNotification struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	Title  string `json:"title"`
	Body   string `json:"body"`
	DueAt  int64  `json:"due_at"` // Unix seconds
}

// ScheduleRequest is the request body for POST /notifications/schedule.
type ScheduleRequest struct {
	Title        string `json:"title"`
	Body         string `json:"body"`
	DelaySeconds int    `json:"delay_seconds"`
}

// ArchiveResult describes an uploaded audit archive.
type ArchiveResult struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}
