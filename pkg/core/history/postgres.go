package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"codecanvas/pkg/core/store"

	"github.com/jackc/pgx/v5"
)

// PostgresStore keeps conversations in the conversations table with the
// messages as JSONB.
type PostgresStore struct {
	db store.DB
}

var _ Store = (*PostgresStore)(nil)

func NewPostgresStore(db store.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) List(ctx context.Context, userID string) ([]Summary, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, title, jsonb_array_length(messages), updated_at
		FROM conversations
		WHERE user_id = $1
		ORDER BY updated_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sum Summary
		if err := rows.Scan(&sum.ID, &sum.Title, &sum.Messages, &sum.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Get(ctx context.Context, userID, id string) (*Conversation, error) {
	c := Conversation{ID: id, UserID: userID}
	var messages []byte
	err := s.db.QueryRow(ctx, `
		SELECT title, messages, created_at, updated_at
		FROM conversations
		WHERE user_id = $1 AND id = $2
	`, userID, id).Scan(&c.Title, &messages, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}
	if err := json.Unmarshal(messages, &c.Messages); err != nil {
		return nil, fmt.Errorf("failed to unmarshal messages: %w", err)
	}
	return &c, nil
}

func (s *PostgresStore) Save(ctx context.Context, c *Conversation) error {
	messages, err := json.Marshal(c.Messages)
	if err != nil {
		return fmt.Errorf("failed to marshal messages: %w", err)
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO conversations (id, user_id, title, messages, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, id)
		DO UPDATE SET
			title = EXCLUDED.title,
			messages = EXCLUDED.messages,
			updated_at = EXCLUDED.updated_at
	`, c.ID, c.UserID, c.Title, messages, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save conversation: %w", err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, userID, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM conversations WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
