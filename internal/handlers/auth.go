package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/blogware/bloghub/internal/apperrors"
	"github.com/blogware/bloghub/internal/handlers/render"
	"github.com/blogware/bloghub/internal/handlers/userctx"
	"github.com/blogware/bloghub/internal/logger"
	"github.com/blogware/bloghub/internal/netutil"
)

func handleRegister(users userService, l logger.Logger) http.Handler {
	type RegisterRequest struct {
		Login    string `json:"login" validate:"required,min=3,max=30"`
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=6,max=72"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[RegisterRequest](w, r)
		if err != nil {
			return
		}

		_, err = users.SignUp(r.Context(), data.Login, data.Email, data.Password)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrUserAlreadyExists):
				render.ServiceError(w, "User already exists", http.StatusConflict)
			default:
				l.Error("user registration failed", "error", err.Error())
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.NoContent(w)
	})
}

func handleConfirmRegistration(users userService, l logger.Logger) http.Handler {
	type ConfirmRequest struct {
		Code string `json:"code" validate:"required"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[ConfirmRequest](w, r)
		if err != nil {
			return
		}

		err = users.ConfirmAccount(r.Context(), data.Code)
		switch {
		case err == nil:
			render.NoContent(w)
		case errors.Is(err, apperrors.ErrCodeNotFound):
			render.ServiceError(w, "Confirmation code is incorrect", http.StatusBadRequest)
		case errors.Is(err, apperrors.ErrCodeExpired):
			render.ServiceError(w, "Confirmation code is expired", http.StatusBadRequest)
		default:
			l.Error("registration confirmation failed", "error", err.Error())
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleResendConfirmation(users userService, l logger.Logger) http.Handler {
	type ResendRequest struct {
		Email string `json:"email" validate:"required,email"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[ResendRequest](w, r)
		if err != nil {
			return
		}

		err = users.ResendConfirmation(r.Context(), data.Email)
		switch {
		case err == nil:
			render.NoContent(w)
		case errors.Is(err, apperrors.ErrCodeNotFound):
			// Nothing pending: either the address is unknown or already confirmed
			render.ServiceError(w, "Account is already confirmed", http.StatusBadRequest)
		default:
			l.Error("confirmation resending failed", "error", err.Error())
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleRecoverPassword(users userService, l logger.Logger) http.Handler {
	type RecoverRequest struct {
		Email string `json:"email" validate:"required,email"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[RecoverRequest](w, r)
		if err != nil {
			return
		}

		// Unknown emails answer 204 too, the service keeps that secret
		if err := users.RecoverPassword(r.Context(), data.Email); err != nil {
			l.Error("password recovery failed", "error", err.Error())
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.NoContent(w)
	})
}

func handleNewPassword(users userService, l logger.Logger) http.Handler {
	type NewPasswordRequest struct {
		NewPassword  string `json:"newPassword" validate:"required,min=6,max=72"`
		RecoveryCode string `json:"recoveryCode" validate:"required"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[NewPasswordRequest](w, r)
		if err != nil {
			return
		}

		err = users.ConfirmNewPassword(r.Context(), data.RecoveryCode, data.NewPassword)
		switch {
		case err == nil:
			render.NoContent(w)
		case errors.Is(err, apperrors.ErrCodeNotFound):
			render.ServiceError(w, "Recovery code is incorrect", http.StatusBadRequest)
		case errors.Is(err, apperrors.ErrCodeExpired):
			render.ServiceError(w, "Recovery code is expired", http.StatusBadRequest)
		default:
			l.Error("password change failed", "error", err.Error())
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleLogin(auth authService, trustForwarded bool, l logger.Logger) http.Handler {
	type LoginRequest struct {
		LoginOrEmail string `json:"loginOrEmail" validate:"required"`
		Password     string `json:"password" validate:"required"`
	}
	type LoginSuccessResponse struct {
		AccessToken string `json:"accessToken"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[LoginRequest](w, r)
		if err != nil {
			return
		}

		pair, err := auth.Login(r.Context(), data.LoginOrEmail, data.Password, netutil.ClientIP(r, trustForwarded), r.UserAgent())
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrUserNotFound):
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
			default:
				l.Error("login failed", "error", err.Error())
				render.ServiceError(w, "Can't login", http.StatusBadRequest)
			}
			return
		}

		auth.SetRefreshCookie(w, pair.Refresh)
		render.JSON(w, LoginSuccessResponse{AccessToken: pair.Access.Value})
	})
}

func handleRefresh(auth authService, l logger.Logger) http.Handler {
	type RefreshSuccessResponse struct {
		AccessToken string `json:"accessToken"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		refresh, err := auth.RefreshFromRequest(r)
		if err != nil {
			render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		pair, err := auth.Refresh(r.Context(), refresh)
		if err != nil {
			// Revoked, expired, malformed and session-gone tokens all look
			// the same from outside
			l.Info("refresh rejected", "error", err.Error())
			render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		auth.SetRefreshCookie(w, pair.Refresh)
		render.JSON(w, RefreshSuccessResponse{AccessToken: pair.Access.Value})
	})
}

func handleLogout(auth authService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		refresh, err := auth.RefreshFromRequest(r)
		if err != nil {
			render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		err = auth.Logout(r.Context(), refresh)
		switch {
		case err == nil:
			render.NoContent(w)
		case errors.Is(err, apperrors.ErrSessionNotFound):
			// Revocation and deletion were attempted, there just was no
			// session left to delete
			render.NoContent(w)
		case errors.Is(err, apperrors.ErrTokenInvalid):
			render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
		default:
			l.Error("logout failed", "error", err.Error())
			render.ServiceError(w, "Can't logout", http.StatusBadRequest)
		}
	})
}

func handleMe() http.Handler {
	type MeResponse struct {
		UserID uuid.UUID `json:"userId"`
		Login  string    `json:"login"`
		Email  string    `json:"email"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _ := userctx.FromContext(r.Context())
		render.JSON(w, MeResponse{UserID: user.ID, Login: user.Login, Email: user.Email})
	})
}
