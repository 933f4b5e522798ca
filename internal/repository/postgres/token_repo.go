package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/novadock/hangar/internal/domain/auth"
)

var _ auth.Store = (*TokenRepo)(nil)

type TokenRepo struct {
	db *DB
}

func NewTokenRepo(db *DB) *TokenRepo { return &TokenRepo{db: db} }

const (
	// Rows are never deleted. A save of an existing token value only
	// moves the flags forward, so replaying a revocation is a no-op.
	qTokenUpsert = `
INSERT INTO tokens (user_id, token, token_type, expired, revoked)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (token) DO UPDATE
SET expired = EXCLUDED.expired,
    revoked = EXCLUDED.revoked
RETURNING id;`

	qTokenByValue = `
SELECT id, user_id, token, token_type, expired, revoked
FROM tokens
WHERE token = $1;`

	qTokensActiveForUser = `
SELECT id, user_id, token, token_type, expired, revoked
FROM tokens
WHERE user_id = $1 AND (expired = FALSE OR revoked = FALSE);`
)

func (r *TokenRepo) Save(ctx context.Context, t *auth.Token) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	if err := r.db.execQueryer(ctx).
		QueryRow(ctx, qTokenUpsert, t.UserID, t.Value, t.Type, t.Expired, t.Revoked).
		Scan(&t.ID); err != nil {
		return fmt.Errorf("token save: %w", err)
	}
	return nil
}

func (r *TokenRepo) FindByValue(ctx context.Context, value string) (*auth.Token, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var t auth.Token
	if err := r.db.execQueryer(ctx).QueryRow(ctx, qTokenByValue, value).
		Scan(&t.ID, &t.UserID, &t.Value, &t.Type, &t.Expired, &t.Revoked); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, auth.ErrTokenNotFound
		}
		return nil, fmt.Errorf("token by value: %w", err)
	}
	return &t, nil
}

func (r *TokenRepo) FindActiveForUser(ctx context.Context, userID int64) ([]*auth.Token, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.execQueryer(ctx).Query(ctx, qTokensActiveForUser, userID)
	if err != nil {
		return nil, fmt.Errorf("tokens for user: %w", err)
	}
	defer rows.Close()

	var out []*auth.Token
	for rows.Next() {
		var t auth.Token
		if err := rows.Scan(&t.ID, &t.UserID, &t.Value, &t.Type, &t.Expired, &t.Revoked); err != nil {
			return nil, fmt.Errorf("scan token: %w", err)
		}
		out = append(out, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("tokens for user: %w", err)
	}
	return out, nil
}

func (r *TokenRepo) SaveAll(ctx context.Context, ts []*auth.Token) error {
	for _, t := range ts {
		if err := r.Save(ctx, t); err != nil {
			return err
		}
	}
	return nil
}
