package apperrors

import (
	"errors"
)

var (
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrUserNotFound      = errors.New("user not found")

	ErrTokenExpired = errors.New("token is expired")
	ErrTokenInvalid = errors.New("token is invalid")
	ErrTokenRevoked = errors.New("token is revoked")

	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExists   = errors.New("session already exists for this device")
	ErrDeviceNotFound  = errors.New("device not found")
	ErrDeviceForbidden = errors.New("device belongs to another user")

	ErrCodeNotFound = errors.New("code not found")
	ErrCodeExpired  = errors.New("code is expired")

	ErrRateLimited = errors.New("too many requests")
)
