package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Append only ledger of refresh tokens that must never authorize again.
// Rows are never deleted in normal operation, only the token's own expiry
// makes the entry irrelevant.
type RevokedTokenRepo struct {
	DB DBTX
}

const revokeToken = `-- name: RevokeToken
INSERT INTO revoked_tokens (token)
VALUES ($1)
ON CONFLICT (token) DO NOTHING
`

// Revoke records the token; recording the same token twice is a no-op
func (r *RevokedTokenRepo) Revoke(ctx context.Context, token string) error {
	_, err := r.DB.Exec(ctx, revokeToken, token)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

const isTokenRevoked = `-- name: IsTokenRevoked
SELECT true
FROM revoked_tokens
WHERE token = $1
`

func (r *RevokedTokenRepo) IsRevoked(ctx context.Context, token string) (bool, error) {
	rows, _ := r.DB.Query(ctx, isTokenRevoked, token)
	revoked, err := pgx.CollectOneRow(rows, pgx.RowTo[bool])

	switch {
	case err == nil:
		return revoked, nil
	case errors.Is(err, pgx.ErrNoRows):
		return false, nil
	default:
		return false, fmt.Errorf("db error: %w", err)
	}
}
