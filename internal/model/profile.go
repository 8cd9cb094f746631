package model

import (
	"errors"
)

// Profile is the subset of the user profile row this service reads and writes.
// Rows are created by the auth backend; we only touch expo_push_token.
type Profile struct {
	ID            string  `db:"id" json:"id"`
	Username      *string `db:"username" json:"username"`
	Email         *string `db:"email" json:"email"`
	AvatarURL     *string `db:"avatar_url" json:"avatar_url"`
	ExpoPushToken *string `db:"expo_push_token" json:"-"`
}

// Sender is the identity of whoever sends a chat message.
type Sender struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

// DisplayName falls back to the email when no username is set.
func (s Sender) DisplayName() string {
	if s.Username != "" {
		return s.Username
	}
	return s.Email
}

var (
	// ErrProfileNotFound is returned when no profile row exists for an id
	ErrProfileNotFound = errors.New("profile not found")
)

// Auth error codes returned by the JWT middleware
const (
	CodeTokenExpired = "TOKEN_EXPIRED"
	CodeTokenInvalid = "TOKEN_INVALID"
)
