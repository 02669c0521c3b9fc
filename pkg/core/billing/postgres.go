package billing

import (
	"context"
	"errors"
	"fmt"

	"codecanvas/pkg/core/store"

	"github.com/jackc/pgx/v5"
)

// PostgresStore keeps accounts in the users table (see store.Migrate).
type PostgresStore struct {
	db store.DB
}

var _ Store = (*PostgresStore)(nil)

func NewPostgresStore(db store.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Get(ctx context.Context, userID string) (*Account, error) {
	acct := Account{UserID: userID}
	var plan string
	err := s.db.QueryRow(ctx, `SELECT plan, credits FROM users WHERE id = $1`, userID).Scan(&plan, &acct.Credits)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	acct.Plan = Plan(plan)
	return &acct, nil
}

func (s *PostgresStore) Create(ctx context.Context, acct Account) (*Account, error) {
	_, err := s.db.Exec(ctx, `
		INSERT INTO users (id, plan, credits) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO NOTHING
	`, acct.UserID, string(acct.Plan), acct.Credits)
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	return s.Get(ctx, acct.UserID)
}

func (s *PostgresStore) Debit(ctx context.Context, userID string) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE users SET credits = credits - 1, updated_at = NOW()
		WHERE id = $1 AND credits > 0
	`, userID)
	if err != nil {
		return fmt.Errorf("failed to debit credit: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := s.Get(ctx, userID); err != nil {
			return err
		}
		return ErrNoCredits
	}
	return nil
}

func (s *PostgresStore) Credit(ctx context.Context, userID string, n int) error {
	return s.update(ctx, `UPDATE users SET credits = credits + $2, updated_at = NOW() WHERE id = $1`, userID, n)
}

func (s *PostgresStore) SetPlan(ctx context.Context, userID string, plan Plan) error {
	return s.update(ctx, `UPDATE users SET plan = $2, updated_at = NOW() WHERE id = $1`, userID, string(plan))
}

func (s *PostgresStore) update(ctx context.Context, sql, userID string, arg any) error {
	tag, err := s.db.Exec(ctx, sql, userID, arg)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}
