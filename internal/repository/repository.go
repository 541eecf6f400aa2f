package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/blogware/bloghub/internal/models"
)

// User repository interface
type UserRepo interface {
	// Create user
	// If user with the same login or email exists must return apperrors.ErrUserAlreadyExists
	CreateUser(ctx context.Context, login string, email string, hashedPassword string) (models.User, error)

	// Get user by id
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)

	// Get user by login or email (single lookup key, matched against both columns)
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByLoginOrEmail(ctx context.Context, loginOrEmail string) (models.User, error)

	// Replace the password hash of the user with this email
	// If user not found must return apperrors.ErrUserNotFound
	UpdatePassword(ctx context.Context, email string, hashedPassword string) error
}

// Pending confirmation or recovery codes, one per email.
// Two instances exist, one per purpose; the purpose never leaks through
// the interface
type AccountCodeRepo interface {
	// Store a fresh pending code for the email
	Create(ctx context.Context, code models.AccountCode) error

	// Replace code and expiry of an existing pending record
	// If there is no record for the email must return apperrors.ErrCodeNotFound
	Update(ctx context.Context, email string, code string, expiresAt time.Time) (models.AccountCode, error)

	// Lookups; must return apperrors.ErrCodeNotFound when missing
	GetByEmail(ctx context.Context, email string) (models.AccountCode, error)
	GetByCode(ctx context.Context, code string) (models.AccountCode, error)

	// Remove the pending record, completing the flow
	// If there is no record for the email must return apperrors.ErrCodeNotFound
	Delete(ctx context.Context, email string) error
}

// Session repository interface
// A session is keyed by (userID, deviceID); at most one row per pair exists
type SessionRepo interface {
	// Create session row
	// Must return apperrors.ErrSessionExists on (userID, deviceID) conflict
	CreateSession(ctx context.Context, session models.Session) (models.Session, error)

	// Find session by the human readable device title
	// Used to decide whether a login comes from a known device
	// If not found must return apperrors.ErrSessionNotFound
	GetSessionByDeviceTitle(ctx context.Context, userID uuid.UUID, deviceTitle string) (models.Session, error)

	// Find session by (userID, deviceID)
	// If not found must return apperrors.ErrSessionNotFound
	GetSession(ctx context.Context, userID uuid.UUID, deviceID uuid.UUID) (models.Session, error)

	// Find session by deviceID only
	// Needed to distinguish "no such device" from "device of another user"
	GetSessionByDeviceID(ctx context.Context, deviceID uuid.UUID) (models.Session, error)

	// Update issue and expiry timestamps of an existing session
	// If no matching row exists must return apperrors.ErrSessionNotFound:
	// the token was valid but the session is gone, callers treat it as unauthenticated
	UpdateSession(ctx context.Context, userID uuid.UUID, deviceID uuid.UUID, issuedAt time.Time, expiresAt time.Time) (models.Session, error)

	// Delete session row
	// If no matching row exists must return apperrors.ErrSessionNotFound
	DeleteSession(ctx context.Context, userID uuid.UUID, deviceID uuid.UUID) error

	// Delete every session of the user except the one for deviceID
	DeleteOtherSessions(ctx context.Context, userID uuid.UUID, deviceID uuid.UUID) error

	// List all sessions of the user
	ListUserSessions(ctx context.Context, userID uuid.UUID) ([]models.Session, error)
}

// Revoked refresh token ledger
// Write once, read many: there is no delete path in normal operation
type RevokedTokenRepo interface {
	// Record the token as revoked
	// Idempotent: revoking the same token twice is not an error
	Revoke(ctx context.Context, token string) error

	// Report whether the token has been revoked
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// Append only log of requests passing through the access throttle
type AccessLogRepo interface {
	// Record a request; always appends, never fails on duplicates
	Record(ctx context.Context, record models.AccessRecord) error

	// Count records for the exact (ip, url) pair within [now-window, now]
	CountInWindow(ctx context.Context, ip string, url string, now time.Time, window time.Duration) (int, error)
}
