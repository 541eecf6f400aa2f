package models

import (
	"time"

	"github.com/google/uuid"
)

// Session tracks one authenticated device of a user.
// At most one session may exist per (UserID, DeviceID) pair.
type Session struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	DeviceID    uuid.UUID
	DeviceTitle string
	IP          string
	IssuedAt    time.Time
	ExpiresAt   time.Time
}
