package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/blogware/bloghub/internal/apperrors"
	"github.com/blogware/bloghub/internal/models"
)

// Values for the AccountCodeRepo purpose discriminator
const (
	PurposeConfirmation = "confirmation"
	PurposeRecovery     = "recovery"
)

// Pending one-time codes for one purpose, one row per email.
// Confirmation and recovery records share the table and the code;
// the purpose column keeps the two flows apart.
type AccountCodeRepo struct {
	DB      DBTX
	Purpose string
}

const createAccountCode = `-- name: CreateAccountCode
INSERT INTO account_codes (purpose, email, code, expires_at)
VALUES ($1, $2, $3, $4)
`

func (r *AccountCodeRepo) Create(ctx context.Context, code models.AccountCode) error {
	_, err := r.DB.Exec(ctx, createAccountCode, r.Purpose, code.Email, code.Code, code.ExpiresAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

const updateAccountCode = `-- name: UpdateAccountCode
UPDATE account_codes
SET code = $3, expires_at = $4
WHERE purpose = $1 AND email = $2
RETURNING email, code, expires_at
`

// Update rotates code and expiry of an existing record only.
// A missing row means the flow was already completed (or never started)
func (r *AccountCodeRepo) Update(ctx context.Context, email string, code string, expiresAt time.Time) (models.AccountCode, error) {
	rows, _ := r.DB.Query(ctx, updateAccountCode, r.Purpose, email, code, expiresAt)
	return collectAccountCode(rows)
}

const getAccountCodeByEmail = `-- name: GetAccountCodeByEmail
SELECT email, code, expires_at
FROM account_codes
WHERE purpose = $1 AND email = $2
`

func (r *AccountCodeRepo) GetByEmail(ctx context.Context, email string) (models.AccountCode, error) {
	rows, _ := r.DB.Query(ctx, getAccountCodeByEmail, r.Purpose, email)
	return collectAccountCode(rows)
}

const getAccountCodeByCode = `-- name: GetAccountCodeByCode
SELECT email, code, expires_at
FROM account_codes
WHERE purpose = $1 AND code = $2
`

func (r *AccountCodeRepo) GetByCode(ctx context.Context, code string) (models.AccountCode, error) {
	rows, _ := r.DB.Query(ctx, getAccountCodeByCode, r.Purpose, code)
	return collectAccountCode(rows)
}

const deleteAccountCode = `-- name: DeleteAccountCode
DELETE FROM account_codes
WHERE purpose = $1 AND email = $2
`

func (r *AccountCodeRepo) Delete(ctx context.Context, email string) error {
	tag, err := r.DB.Exec(ctx, deleteAccountCode, r.Purpose, email)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return apperrors.ErrCodeNotFound
	}

	return nil
}

func collectAccountCode(rows pgx.Rows) (models.AccountCode, error) {
	code, err := pgx.CollectOneRow(rows, rowToAccountCode)

	switch {
	case err == nil:
		return code, nil
	case errors.Is(err, pgx.ErrNoRows):
		return code, apperrors.ErrCodeNotFound
	default:
		return code, fmt.Errorf("db error: %w", err)
	}
}

func rowToAccountCode(row pgx.CollectableRow) (models.AccountCode, error) {
	var c models.AccountCode
	err := row.Scan(&c.Email, &c.Code, &c.ExpiresAt)
	return c, err
}
