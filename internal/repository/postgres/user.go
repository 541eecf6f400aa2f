package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/blogware/bloghub/internal/apperrors"
	"github.com/blogware/bloghub/internal/models"
)

type UserRepo struct {
	DB DBTX
}

const createUser = `-- name: CreateUser
INSERT INTO users (id, login, email, password_hash)
VALUES ($1, $2, $3, $4)
RETURNING id, created_at, login, email, password_hash
`

func (r *UserRepo) CreateUser(ctx context.Context, login string, email string, hashedPassword string) (models.User, error) {
	rows, _ := r.DB.Query(ctx, createUser, uuid.New(), login, email, hashedPassword)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return user, apperrors.ErrUserAlreadyExists
		}

		return user, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

const getUserByID = `-- name: GetUserByID
SELECT id, created_at, login, email, password_hash
FROM users
WHERE id = $1
`

func (r *UserRepo) GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByID, userID)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, pgx.ErrNoRows):
		return user, apperrors.ErrUserNotFound
	default:
		return user, fmt.Errorf("db error: %w", err)
	}
}

const getUserByLoginOrEmail = `-- name: GetUserByLoginOrEmail
SELECT id, created_at, login, email, password_hash
FROM users
WHERE login = $1 OR email = $1
`

func (r *UserRepo) GetUserByLoginOrEmail(ctx context.Context, loginOrEmail string) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByLoginOrEmail, loginOrEmail)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, pgx.ErrNoRows):
		return user, apperrors.ErrUserNotFound
	default:
		return user, fmt.Errorf("db error: %w", err)
	}
}

const updateUserPassword = `-- name: UpdateUserPassword
UPDATE users
SET password_hash = $2
WHERE email = $1
`

func (r *UserRepo) UpdatePassword(ctx context.Context, email string, hashedPassword string) error {
	tag, err := r.DB.Exec(ctx, updateUserPassword, email, hashedPassword)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}

	return nil
}

func rowToUser(row pgx.CollectableRow) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.CreatedAt, &u.Login, &u.Email, &u.HashedPassword)
	return u, err
}
