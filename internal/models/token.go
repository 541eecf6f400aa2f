package models

import (
	"time"

	"github.com/google/uuid"
)

type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}

// Token pair issued by TokenManager, AuthService
type TokenPair struct {
	Access  IssuedToken
	Refresh IssuedToken
}

// TokenInfo is the claim set of a verified refresh token
type TokenInfo struct {
	UserID    uuid.UUID
	DeviceID  uuid.UUID
	IssuedAt  time.Time
	ExpiresAt time.Time
}
