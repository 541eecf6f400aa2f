package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/blogware/bloghub/internal/apperrors"
	"github.com/blogware/bloghub/internal/models"
)

type SessionRepo struct {
	DB DBTX
}

const createSession = `-- name: CreateSession
INSERT INTO sessions (id, user_id, device_id, device_title, ip, issued_at, expires_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, user_id, device_id, device_title, ip, issued_at, expires_at
`

func (r *SessionRepo) CreateSession(ctx context.Context, session models.Session) (models.Session, error) {
	id := session.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	rows, _ := r.DB.Query(ctx, createSession,
		id, session.UserID, session.DeviceID, session.DeviceTitle, session.IP, session.IssuedAt, session.ExpiresAt,
	)
	created, err := pgx.CollectOneRow(rows, rowToSession)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return created, apperrors.ErrSessionExists
		}

		return created, fmt.Errorf("db error: %w", err)
	}

	return created, nil
}

const getSessionByDeviceTitle = `-- name: GetSessionByDeviceTitle
SELECT id, user_id, device_id, device_title, ip, issued_at, expires_at
FROM sessions
WHERE user_id = $1 AND device_title = $2
`

// Lookup key is the human device label, not deviceID: two logins from the
// same labelled client reuse the same deviceID across token regenerations
func (r *SessionRepo) GetSessionByDeviceTitle(ctx context.Context, userID uuid.UUID, deviceTitle string) (models.Session, error) {
	rows, _ := r.DB.Query(ctx, getSessionByDeviceTitle, userID, deviceTitle)
	return collectSession(rows)
}

const getSession = `-- name: GetSession
SELECT id, user_id, device_id, device_title, ip, issued_at, expires_at
FROM sessions
WHERE user_id = $1 AND device_id = $2
`

func (r *SessionRepo) GetSession(ctx context.Context, userID uuid.UUID, deviceID uuid.UUID) (models.Session, error) {
	rows, _ := r.DB.Query(ctx, getSession, userID, deviceID)
	return collectSession(rows)
}

const getSessionByDeviceID = `-- name: GetSessionByDeviceID
SELECT id, user_id, device_id, device_title, ip, issued_at, expires_at
FROM sessions
WHERE device_id = $1
`

func (r *SessionRepo) GetSessionByDeviceID(ctx context.Context, deviceID uuid.UUID) (models.Session, error) {
	rows, _ := r.DB.Query(ctx, getSessionByDeviceID, deviceID)
	return collectSession(rows)
}

const updateSession = `-- name: UpdateSession
UPDATE sessions
SET issued_at = $3, expires_at = $4
WHERE user_id = $1 AND device_id = $2
RETURNING id, user_id, device_id, device_title, ip, issued_at, expires_at
`

// Update timestamps of an existing row only
// A missing row means the session was terminated while the token stayed valid
func (r *SessionRepo) UpdateSession(ctx context.Context, userID uuid.UUID, deviceID uuid.UUID, issuedAt time.Time, expiresAt time.Time) (models.Session, error) {
	rows, _ := r.DB.Query(ctx, updateSession, userID, deviceID, issuedAt, expiresAt)
	return collectSession(rows)
}

const deleteSession = `-- name: DeleteSession
DELETE FROM sessions
WHERE user_id = $1 AND device_id = $2
`

func (r *SessionRepo) DeleteSession(ctx context.Context, userID uuid.UUID, deviceID uuid.UUID) error {
	tag, err := r.DB.Exec(ctx, deleteSession, userID, deviceID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return apperrors.ErrSessionNotFound
	}

	return nil
}

const deleteOtherSessions = `-- name: DeleteOtherSessions
DELETE FROM sessions
WHERE user_id = $1 AND device_id != $2
`

func (r *SessionRepo) DeleteOtherSessions(ctx context.Context, userID uuid.UUID, deviceID uuid.UUID) error {
	_, err := r.DB.Exec(ctx, deleteOtherSessions, userID, deviceID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

const listUserSessions = `-- name: ListUserSessions
SELECT id, user_id, device_id, device_title, ip, issued_at, expires_at
FROM sessions
WHERE user_id = $1
ORDER BY issued_at
`

func (r *SessionRepo) ListUserSessions(ctx context.Context, userID uuid.UUID) ([]models.Session, error) {
	rows, _ := r.DB.Query(ctx, listUserSessions, userID)
	sessions, err := pgx.CollectRows(rows, rowToSession)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return sessions, nil
}

func collectSession(rows pgx.Rows) (models.Session, error) {
	session, err := pgx.CollectOneRow(rows, rowToSession)

	switch {
	case err == nil:
		return session, nil
	case errors.Is(err, pgx.ErrNoRows):
		return session, apperrors.ErrSessionNotFound
	default:
		return session, fmt.Errorf("db error: %w", err)
	}
}

func rowToSession(row pgx.CollectableRow) (models.Session, error) {
	var s models.Session
	err := row.Scan(&s.ID, &s.UserID, &s.DeviceID, &s.DeviceTitle, &s.IP, &s.IssuedAt, &s.ExpiresAt)
	return s, err
}
