package auth

import (
	"context"
	"net/http"
	"strings"

	"venue-cms/internal/apperr"
	"venue-cms/internal/logger"
	"venue-cms/internal/models"
	"venue-cms/internal/utils"
)

type contextKey string

const identityKey contextKey = "identity"

// Identity is the verified caller attached to the request context.
type Identity struct {
	UserID string
	Email  string
	Name   string
	Role   string
}

func (i Identity) IsAdmin() bool {
	return i.Role == models.RoleAdmin
}

// UserLoader resolves a token subject to a live user record.
type UserLoader interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// Middleware validates the bearer token and resolves its subject against
// the user store, so deactivated or deleted users are rejected even with a
// still-valid token.
func Middleware(secret string, users UserLoader, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				utils.WriteError(w, apperr.Unauthorized("missing bearer token"))
				return
			}
			raw := strings.TrimPrefix(authHeader, "Bearer ")

			claims, err := ParseAccessToken(secret, raw)
			if err != nil {
				utils.WriteError(w, apperr.Unauthorized("invalid or expired token"))
				return
			}

			user, err := users.GetUserByID(r.Context(), claims.UserID)
			if err != nil || user == nil || !user.IsActive {
				log.LogSecurity("AUTH", "token subject missing or inactive: "+claims.UserID)
				utils.WriteError(w, apperr.Unauthorized("account not found or inactive"))
				return
			}

			identity := Identity{
				UserID: user.ID,
				Email:  user.Email,
				Name:   user.Name,
				Role:   user.Role,
			}
			ctx := context.WithValue(r.Context(), identityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// FromContext returns the identity set by Middleware.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

// RequireRole allows only the listed roles through. Membership is an exact
// set check: admin does not implicitly cover editor, routes that accept
// both must list both.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := FromContext(r.Context())
			if !ok || !allowed[identity.Role] {
				utils.WriteError(w, apperr.Forbidden("forbidden"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
