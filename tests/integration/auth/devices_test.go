package auth

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blogware/bloghub/internal/testutil"
	"github.com/blogware/bloghub/tests/integration"
)

const (
	DevicesURL = "/api/security/devices"
)

type device struct {
	IP             string `json:"ip"`
	Title          string `json:"title"`
	DeviceID       string `json:"deviceId"`
	LastActiveDate string `json:"lastActiveDate"`
}

// Login over http pretending to be the named device (user agent becomes the title)
func loginAs(t *testing.T, srvURL string, userAgent string) *http.Cookie {
	t.Helper()

	data := `{"loginOrEmail": "nkiryanov", "password": "StrongEnoughPassword"}`
	req, err := http.NewRequest(http.MethodPost, srvURL+LoginURL, strings.NewReader(data))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close() // nolint:errcheck
	require.Equal(t, http.StatusOK, resp.StatusCode)

	for _, c := range resp.Cookies() {
		if c.Name == "refreshToken" {
			return c
		}
	}

	t.Fatal("refreshToken cookie not found in response")
	return nil
}

func listDevices(t *testing.T, srvURL string, cookie *http.Cookie) []device {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, srvURL+DevicesURL, nil)
	require.NoError(t, err)
	req.AddCookie(cookie)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	defer resp.Body.Close() // nolint:errcheck

	require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", string(body))

	var devices []device
	require.NoError(t, json.Unmarshal(body, &devices))
	return devices
}

func Test_Devices(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	t.Run("every device gets its own session", func(t *testing.T) {
		integration.RunTx(pg.Pool, t, func(srvURL string, s integration.Services) {
			_, err := s.UserService.Register(t.Context(), "nkiryanov", "nk@example.com", "StrongEnoughPassword")
			require.NoError(t, err)

			phone := loginAs(t, srvURL, "iPhone Safari")
			_ = loginAs(t, srvURL, "Desktop Firefox")

			devices := listDevices(t, srvURL, phone)
			require.Len(t, devices, 2)

			titles := []string{devices[0].Title, devices[1].Title}
			require.ElementsMatch(t, []string{"iPhone Safari", "Desktop Firefox"}, titles)
			for _, d := range devices {
				require.NotEmpty(t, d.DeviceID)
				require.NotEmpty(t, d.IP)
				require.NotEmpty(t, d.LastActiveDate)
			}
		})
	})

	t.Run("terminate other devices leaves only the caller", func(t *testing.T) {
		integration.RunTx(pg.Pool, t, func(srvURL string, s integration.Services) {
			_, err := s.UserService.Register(t.Context(), "nkiryanov", "nk@example.com", "StrongEnoughPassword")
			require.NoError(t, err)

			phone := loginAs(t, srvURL, "iPhone Safari")
			laptop := loginAs(t, srvURL, "Desktop Firefox")

			req, err := http.NewRequest(http.MethodDelete, srvURL+DevicesURL, nil)
			require.NoError(t, err)
			req.AddCookie(laptop)

			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close() // nolint:errcheck
			require.Equal(t, http.StatusNoContent, resp.StatusCode)

			devices := listDevices(t, srvURL, laptop)
			require.Len(t, devices, 1)
			require.Equal(t, "Desktop Firefox", devices[0].Title)

			// The kicked device fails the next refresh: its session row is gone
			// and the row is authoritative over the still well-signed token
			req, err = http.NewRequest(http.MethodPost, srvURL+RefreshURL, nil)
			require.NoError(t, err)
			req.AddCookie(phone)

			resp, err = http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close() // nolint:errcheck
			require.Equal(t, http.StatusUnauthorized, resp.StatusCode, "terminated device should not refresh its session")
		})
	})

	t.Run("terminate single device by id", func(t *testing.T) {
		integration.RunTx(pg.Pool, t, func(srvURL string, s integration.Services) {
			_, err := s.UserService.Register(t.Context(), "nkiryanov", "nk@example.com", "StrongEnoughPassword")
			require.NoError(t, err)

			_ = loginAs(t, srvURL, "iPhone Safari")
			laptop := loginAs(t, srvURL, "Desktop Firefox")

			var phoneID string
			for _, d := range listDevices(t, srvURL, laptop) {
				if d.Title == "iPhone Safari" {
					phoneID = d.DeviceID
				}
			}
			require.NotEmpty(t, phoneID, "phone session should be listed")

			req, err := http.NewRequest(http.MethodDelete, srvURL+DevicesURL+"/"+phoneID, nil)
			require.NoError(t, err)
			req.AddCookie(laptop)

			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close() // nolint:errcheck
			require.Equal(t, http.StatusNoContent, resp.StatusCode)

			devices := listDevices(t, srvURL, laptop)
			require.Len(t, devices, 1)
			require.Equal(t, "Desktop Firefox", devices[0].Title)
		})
	})
}
