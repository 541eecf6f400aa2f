package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/blogware/bloghub/internal/handlers/middleware"
	"github.com/blogware/bloghub/internal/logger"
	"github.com/blogware/bloghub/internal/models"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

func NewRouter(
	auth authService,
	users userService,
	limit func(next http.Handler) http.Handler,
	trustForwarded bool,
	logger logger.Logger,
) http.Handler {
	authMiddleware := middleware.NewAuth(auth)
	withAuth := func(h http.Handler) http.Handler {
		return authMiddleware.Auth(h)
	}

	mux := http.NewServeMux()

	// Credential and email driven endpoints are the flood targets, only they
	// are throttled. Refresh and logout authenticate by the refresh cookie
	// instead.
	mux.Handle("POST /api/auth/registration", limit(handleRegister(users, logger)))
	mux.Handle("POST /api/auth/registration-confirmation", limit(handleConfirmRegistration(users, logger)))
	mux.Handle("POST /api/auth/registration-email-resending", limit(handleResendConfirmation(users, logger)))
	mux.Handle("POST /api/auth/password-recovery", limit(handleRecoverPassword(users, logger)))
	mux.Handle("POST /api/auth/new-password", limit(handleNewPassword(users, logger)))
	mux.Handle("POST /api/auth/login", limit(handleLogin(auth, trustForwarded, logger)))
	mux.Handle("POST /api/auth/refresh-token", handleRefresh(auth, logger))
	mux.Handle("POST /api/auth/logout", handleLogout(auth, logger))
	mux.Handle("GET /api/auth/me", withAuth(handleMe()))

	mux.Handle("GET /api/security/devices", handleListDevices(auth, logger))
	mux.Handle("DELETE /api/security/devices", handleTerminateOtherDevices(auth, logger))
	mux.Handle("DELETE /api/security/devices/{deviceID}", handleTerminateDevice(auth, logger))

	handler := chain(mux,
		middleware.LoggerMiddleware(logger),
	)

	return handler
}

type authService interface {
	// Login user with loginOrEmail and password, connecting a session for the device
	// Has to return apperrors.ErrUserNotFound if credentials don't match
	Login(ctx context.Context, loginOrEmail string, password string, ip string, deviceTitle string) (models.TokenPair, error)

	// Rotate the token pair using a refresh token
	// Any rejected token surfaces as one of the apperrors token sentinels
	Refresh(ctx context.Context, refresh string) (models.TokenPair, error)

	// Revoke the token and delete the session
	// Has to return apperrors.ErrSessionNotFound if there was nothing to delete
	Logout(ctx context.Context, refresh string) error

	// Validate a refresh token against the ledger and signature
	CheckRefresh(ctx context.Context, refresh string) (models.TokenInfo, error)

	// Device session management
	ListDevices(ctx context.Context, userID uuid.UUID) ([]models.Session, error)
	TerminateDevice(ctx context.Context, userID uuid.UUID, deviceID uuid.UUID) error
	TerminateOtherDevices(ctx context.Context, userID uuid.UUID, deviceID uuid.UUID) error

	// Refresh token transport: http-only secure cookie
	RefreshFromRequest(r *http.Request) (string, error)
	SetRefreshCookie(w http.ResponseWriter, refresh models.IssuedToken)

	// Authenticate request by its bearer access token
	Auth(ctx context.Context, r *http.Request) (models.User, error)
}

type userService interface {
	// Register user with a pending email confirmation
	// Has to return apperrors.ErrUserAlreadyExists if login or email is taken
	SignUp(ctx context.Context, login string, email string, password string) (models.User, error)

	// Complete the registration with the emailed code
	// Has to return apperrors.ErrCodeNotFound / apperrors.ErrCodeExpired on bad codes
	ConfirmAccount(ctx context.Context, code string) error

	// Rotate the pending confirmation code and mail it again
	// Has to return apperrors.ErrCodeNotFound when nothing is pending
	ResendConfirmation(ctx context.Context, email string) error

	// Start password recovery; unknown emails succeed silently
	RecoverPassword(ctx context.Context, email string) error

	// Replace the password using an emailed recovery code
	// Has to return apperrors.ErrCodeNotFound / apperrors.ErrCodeExpired on bad codes
	ConfirmNewPassword(ctx context.Context, code string, newPassword string) error
}
