package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/blogware/bloghub/internal/apperrors"
	"github.com/blogware/bloghub/internal/models"
	"github.com/blogware/bloghub/internal/repository"
)

const (
	defaultRefreshCookieName = "refreshToken"
	defaultAccessHeaderName  = "Authorization"
	defaultAccessAuthScheme  = "Bearer"
	defaultDeviceTitle       = "Unknown device"
)

// Manager that issues and verifies token pairs
type TokenManager interface {
	GeneratePair(userID uuid.UUID, deviceID uuid.UUID) (models.TokenPair, error)
	ParseAccess(access string) (uuid.UUID, error)
	InspectRefresh(refresh string) (models.TokenInfo, error)
	InspectExpiredRefresh(refresh string) (models.TokenInfo, error)
}

// Credential validator and user directory (implemented by the user service)
type UserDirectory interface {
	ValidateCredentials(ctx context.Context, loginOrEmail string, password string) (models.User, error)
	GetUser(ctx context.Context, userID uuid.UUID) (models.User, error)
}

type Config struct {
	// Cookie name the refresh token travels in
	// If not set than default is used
	RefreshCookieName string

	// Header and scheme clients present the access token with
	AccessHeaderName string
	AccessAuthScheme string
}

// AuthService coordinates the session lifecycle: it keeps the token manager,
// the revocation ledger and the session store consistent on every
// login, refresh and logout.
type AuthService struct {
	refreshCookieName string
	accessHeaderName  string
	accessAuthScheme  string

	token   TokenManager
	users   UserDirectory
	session repository.SessionRepo
	revoked repository.RevokedTokenRepo
}

func NewService(cfg Config, token TokenManager, users UserDirectory, session repository.SessionRepo, revoked repository.RevokedTokenRepo) (*AuthService, error) {
	setDefaultString := func(field *string, def string) {
		if *field == "" {
			*field = def
		}
	}
	setDefaultString(&cfg.RefreshCookieName, defaultRefreshCookieName)
	setDefaultString(&cfg.AccessHeaderName, defaultAccessHeaderName)
	setDefaultString(&cfg.AccessAuthScheme, defaultAccessAuthScheme)

	return &AuthService{
		refreshCookieName: cfg.RefreshCookieName,
		accessHeaderName:  cfg.AccessHeaderName,
		accessAuthScheme:  cfg.AccessAuthScheme,
		token:             token,
		users:             users,
		session:           session,
		revoked:           revoked,
	}, nil
}

// Login validates credentials and connects a session for the device.
// A device that logged in before (same user, same device title) keeps its
// deviceID, so rotated refresh tokens stay continuous for one physical client.
func (s *AuthService) Login(ctx context.Context, loginOrEmail string, password string, ip string, deviceTitle string) (models.TokenPair, error) {
	user, err := s.users.ValidateCredentials(ctx, loginOrEmail, password)
	if err != nil {
		return models.TokenPair{}, err
	}

	return s.connectSession(ctx, user.ID, ip, deviceTitle)
}

func (s *AuthService) connectSession(ctx context.Context, userID uuid.UUID, ip string, deviceTitle string) (models.TokenPair, error) {
	var pair models.TokenPair

	if deviceTitle == "" {
		deviceTitle = defaultDeviceTitle
	}

	deviceID := uuid.New()
	known := false

	existing, err := s.session.GetSessionByDeviceTitle(ctx, userID, deviceTitle)
	switch {
	case err == nil:
		deviceID = existing.DeviceID
		known = true
	case errors.Is(err, apperrors.ErrSessionNotFound):
		// first login from this device
	default:
		return pair, err
	}

	pair, err = s.token.GeneratePair(userID, deviceID)
	if err != nil {
		return pair, fmt.Errorf("token could not be generated, sorry. %w", err)
	}

	// Session bookkeeping follows the refresh token timestamps
	info, err := s.token.InspectRefresh(pair.Refresh.Value)
	if err != nil {
		return pair, fmt.Errorf("can't inspect just issued token. Err: %w", err)
	}

	if known {
		_, err = s.session.UpdateSession(ctx, userID, deviceID, info.IssuedAt, info.ExpiresAt)
	} else {
		_, err = s.session.CreateSession(ctx, models.Session{
			UserID:      userID,
			DeviceID:    deviceID,
			DeviceTitle: deviceTitle,
			IP:          ip,
			IssuedAt:    info.IssuedAt,
			ExpiresAt:   info.ExpiresAt,
		})
	}
	if err != nil {
		return pair, fmt.Errorf("can't persist session. Err: %w", err)
	}

	return pair, nil
}

// CheckRefresh is the gate every refresh token presenting endpoint passes:
// the revocation ledger first, then signature and claims. A token that fails
// verification is revoked on the spot to close any latent reuse window.
func (s *AuthService) CheckRefresh(ctx context.Context, refresh string) (models.TokenInfo, error) {
	var info models.TokenInfo

	revoked, err := s.revoked.IsRevoked(ctx, refresh)
	if err != nil {
		return info, fmt.Errorf("can't check revocation ledger. Err: %w", err)
	}
	if revoked {
		return info, apperrors.ErrTokenRevoked
	}

	info, err = s.token.InspectRefresh(refresh)
	if err != nil {
		_ = s.revoked.Revoke(ctx, refresh)
		return info, err
	}

	return info, nil
}

// Refresh rotates the token pair: the old refresh token is consumed
// (revoked unconditionally) and the session row is moved to the new
// timestamps. A missing session row fails the refresh, the row is
// authoritative over the token.
func (s *AuthService) Refresh(ctx context.Context, refresh string) (models.TokenPair, error) {
	var pair models.TokenPair

	info, err := s.CheckRefresh(ctx, refresh)
	if err != nil {
		return pair, err
	}

	pair, err = s.token.GeneratePair(info.UserID, info.DeviceID)
	if err != nil {
		return pair, fmt.Errorf("token could not be generated, sorry. %w", err)
	}

	// One-time-use: replay of a consumed refresh token must always fail,
	// even before its expiry
	if err := s.revoked.Revoke(ctx, refresh); err != nil {
		return pair, fmt.Errorf("can't revoke consumed token. Err: %w", err)
	}

	newInfo, err := s.token.InspectRefresh(pair.Refresh.Value)
	if err != nil {
		return pair, fmt.Errorf("can't inspect just issued token. Err: %w", err)
	}

	_, err = s.session.UpdateSession(ctx, info.UserID, info.DeviceID, newInfo.IssuedAt, newInfo.ExpiresAt)
	if err != nil {
		return pair, err
	}

	return pair, nil
}

// Logout revokes the presented token and deletes the session row.
// The token is consumed whatever its state (already revoked or expired ones
// included), so revocation comes first and its failure alone does not block
// the logout. Only a token with a bad signature fails outright: there is no
// trusted session to delete then.
func (s *AuthService) Logout(ctx context.Context, refresh string) error {
	_ = s.revoked.Revoke(ctx, refresh)

	info, err := s.token.InspectExpiredRefresh(refresh)
	if err != nil {
		return err
	}

	return s.session.DeleteSession(ctx, info.UserID, info.DeviceID)
}

func (s *AuthService) ListDevices(ctx context.Context, userID uuid.UUID) ([]models.Session, error) {
	return s.session.ListUserSessions(ctx, userID)
}

// TerminateDevice deletes the session of one device.
// Session row deletion is the actual authority here: stale refresh tokens of
// the device fail the session lookup on their next refresh anyway, so the
// revocation ledger is not touched.
func (s *AuthService) TerminateDevice(ctx context.Context, userID uuid.UUID, deviceID uuid.UUID) error {
	session, err := s.session.GetSessionByDeviceID(ctx, deviceID)
	switch {
	case errors.Is(err, apperrors.ErrSessionNotFound):
		return apperrors.ErrDeviceNotFound
	case err != nil:
		return err
	}

	if session.UserID != userID {
		return apperrors.ErrDeviceForbidden
	}

	return s.session.DeleteSession(ctx, userID, deviceID)
}

// TerminateOtherDevices implements "log out everywhere else"
func (s *AuthService) TerminateOtherDevices(ctx context.Context, userID uuid.UUID, deviceID uuid.UUID) error {
	return s.session.DeleteOtherSessions(ctx, userID, deviceID)
}

// Auth authenticates a request by its bearer access token
func (s *AuthService) Auth(ctx context.Context, r *http.Request) (models.User, error) {
	var user models.User

	scheme, access, found := strings.Cut(r.Header.Get(s.accessHeaderName), " ")
	if !found || scheme != s.accessAuthScheme || access == "" {
		return user, apperrors.ErrTokenInvalid
	}

	userID, err := s.token.ParseAccess(access)
	if err != nil {
		return user, err
	}

	return s.users.GetUser(ctx, userID)
}

// Get refresh token from the request cookie
func (s *AuthService) RefreshFromRequest(r *http.Request) (string, error) {
	cookie, err := r.Cookie(s.refreshCookieName)
	if err != nil {
		return "", fmt.Errorf("refresh cookie not found. Err: %w", apperrors.ErrTokenInvalid)
	}

	return cookie.Value, nil
}

// SetRefreshCookie delivers the refresh token as an http-only secure
// cookie, never readable by page scripts
func (s *AuthService) SetRefreshCookie(w http.ResponseWriter, refresh models.IssuedToken) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.refreshCookieName,
		Value:    refresh.Value,
		Path:     "/",
		Expires:  refresh.ExpiresAt,
		HttpOnly: true,
		Secure:   true,
	})
}

// SetTokenPairToRequest sets both tokens to an outgoing request (test helper)
func (s *AuthService) SetTokenPairToRequest(req *http.Request, pair models.TokenPair) {
	req.AddCookie(&http.Cookie{Name: s.refreshCookieName, Value: pair.Refresh.Value})
	req.Header.Set(s.accessHeaderName, s.accessAuthScheme+" "+pair.Access.Value)
}
