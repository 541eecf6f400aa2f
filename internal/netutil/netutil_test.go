package netutil

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeIP(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"bare ipv4", "192.0.2.4", "192.0.2.4"},
		{"ipv4 with port", "192.0.2.4:1234", "192.0.2.4"},
		{"bare ipv6", "2001:db8::1", "2001:db8::1"},
		{"ipv6 with port", "[2001:db8::1]:443", "2001:db8::1"},
		{"ipv6 with zone", "fe80::1%eth0", "fe80::1"},
		{"padded input", "  192.0.2.4 ", "192.0.2.4"},
		{"not an ip", "localhost", "localhost"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, NormalizeIP(tt.input))
		})
	}
}

func TestClientIP(t *testing.T) {
	t.Run("remote addr", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = "192.0.2.4:1234"

		require.Equal(t, "192.0.2.4", ClientIP(req, true))
	})

	t.Run("forwarded for wins when trusted", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")

		require.Equal(t, "203.0.113.7", ClientIP(req, true), "first forwarded entry is the client")
	})

	t.Run("single forwarded entry", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("X-Forwarded-For", "203.0.113.7")

		require.Equal(t, "203.0.113.7", ClientIP(req, true))
	})

	t.Run("forwarded for ignored when not trusted", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		req.Header.Set("X-Forwarded-For", "203.0.113.7")

		require.Equal(t, "10.0.0.1", ClientIP(req, false), "header from an untrusted peer must not be believed")
	})
}
