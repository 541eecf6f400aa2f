package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/blogware/bloghub/internal/apperrors"
	"github.com/blogware/bloghub/internal/handlers/render"
	"github.com/blogware/bloghub/internal/logger"
	"github.com/blogware/bloghub/internal/models"
)

// Device endpoints authenticate with the refresh cookie, not the bearer
// access token: managing sessions is itself a session scoped operation
func refreshTokenInfo(auth authService, w http.ResponseWriter, r *http.Request) (models.TokenInfo, bool) {
	refresh, err := auth.RefreshFromRequest(r)
	if err != nil {
		render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
		return models.TokenInfo{}, false
	}

	info, err := auth.CheckRefresh(r.Context(), refresh)
	if err != nil {
		render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
		return models.TokenInfo{}, false
	}

	return info, true
}

func handleListDevices(auth authService, l logger.Logger) http.Handler {
	type DeviceResponse struct {
		IP             string    `json:"ip"`
		Title          string    `json:"title"`
		DeviceID       uuid.UUID `json:"deviceId"`
		LastActiveDate time.Time `json:"lastActiveDate"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info, ok := refreshTokenInfo(auth, w, r)
		if !ok {
			return
		}

		sessions, err := auth.ListDevices(r.Context(), info.UserID)
		if err != nil {
			l.Error("can't list devices", "error", err.Error())
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		devices := make([]DeviceResponse, 0, len(sessions))
		for _, s := range sessions {
			devices = append(devices, DeviceResponse{
				IP:             s.IP,
				Title:          s.DeviceTitle,
				DeviceID:       s.DeviceID,
				LastActiveDate: s.IssuedAt,
			})
		}

		render.JSON(w, devices)
	})
}

func handleTerminateDevice(auth authService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info, ok := refreshTokenInfo(auth, w, r)
		if !ok {
			return
		}

		deviceID, err := uuid.Parse(r.PathValue("deviceID"))
		if err != nil {
			render.ServiceError(w, "Device not found", http.StatusNotFound)
			return
		}

		err = auth.TerminateDevice(r.Context(), info.UserID, deviceID)
		switch {
		case err == nil:
			render.NoContent(w)
		case errors.Is(err, apperrors.ErrDeviceNotFound):
			render.ServiceError(w, "Device not found", http.StatusNotFound)
		case errors.Is(err, apperrors.ErrDeviceForbidden):
			render.ServiceError(w, "Forbidden", http.StatusForbidden)
		default:
			l.Error("can't terminate device", "error", err.Error())
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleTerminateOtherDevices(auth authService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info, ok := refreshTokenInfo(auth, w, r)
		if !ok {
			return
		}

		if err := auth.TerminateOtherDevices(r.Context(), info.UserID, info.DeviceID); err != nil {
			l.Error("can't terminate other devices", "error", err.Error())
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.NoContent(w)
	})
}
