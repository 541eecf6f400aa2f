package middleware

import (
	"context"
	"net/http"

	"github.com/blogware/bloghub/internal/handlers/render"
	"github.com/blogware/bloghub/internal/handlers/userctx"
	"github.com/blogware/bloghub/internal/models"
)

type authService interface {
	Auth(ctx context.Context, r *http.Request) (models.User, error)
}

type AuthMiddleware struct {
	auth authService
}

func NewAuth(auth authService) *AuthMiddleware {
	return &AuthMiddleware{auth: auth}
}

// Auth authenticates the request by its bearer access token and puts the
// user into the request context. Any failure is a uniform 401.
func (m *AuthMiddleware) Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := m.auth.Auth(r.Context(), r)
		if err != nil {
			render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		ctx := userctx.New(r.Context(), user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
