package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"loyaltypush/internal/model"
)

// profileRepository implements ProfileRepository using sqlx
type profileRepository struct {
	db *sqlx.DB
}

func NewProfileRepository(db *sqlx.DB) ProfileRepository {
	return &profileRepository{db: db}
}

// GetPushToken reads profiles.expo_push_token for one user.
func (r *profileRepository) GetPushToken(ctx context.Context, userID string) (string, error) {
	query := `SELECT expo_push_token FROM profiles WHERE id = $1`

	var token sql.NullString
	err := r.db.GetContext(ctx, &token, query, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", model.ErrProfileNotFound
		}
		return "", fmt.Errorf("get push token: %w", err)
	}

	return token.String, nil
}

// UpdatePushToken overwrites the token. There is no compare-and-swap guard:
// concurrent saves for one user are last-writer-wins.
func (r *profileRepository) UpdatePushToken(ctx context.Context, userID, token string) error {
	query := `UPDATE profiles SET expo_push_token = $1 WHERE id = $2`

	value := sql.NullString{String: token, Valid: token != ""}
	res, err := r.db.ExecContext(ctx, query, value, userID)
	if err != nil {
		return fmt.Errorf("update push token: %w", err)
	}

	rows, err := res.RowsAffected()
	if err == nil && rows == 0 {
		return model.ErrProfileNotFound
	}
	return nil
}

// GetPushTokens returns the token column for each existing profile in userIDs.
// NULL columns come back as "".
func (r *profileRepository) GetPushTokens(ctx context.Context, userIDs []string) ([]string, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	query := `SELECT expo_push_token FROM profiles WHERE id = ANY($1)`

	var rows []sql.NullString
	err := r.db.SelectContext(ctx, &rows, query, pq.Array(userIDs))
	if err != nil {
		return nil, fmt.Errorf("get push tokens: %w", err)
	}

	tokens := make([]string, len(rows))
	for i, row := range rows {
		tokens[i] = row.String
	}
	return tokens, nil
}
