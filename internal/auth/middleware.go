package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/paddygate/paddygate/internal/models"
	pkghttp "github.com/paddygate/paddygate/pkg/http"
)

type contextKey string

// UserContextKey holds the authenticated *models.User
const UserContextKey contextKey = "user"

// UserFetcher loads the caller on every authenticated request so role and
// status changes take effect without reissuing tokens.
type UserFetcher interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// Authenticate requires a valid bearer token for an existing user.
func Authenticate(tm *TokenManager, users UserFetcher) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := bearerToken(r)
			if !ok {
				pkghttp.WriteUnauthorized(w, "Not authorized, no token")
				return
			}

			claims, err := tm.Validate(tokenString)
			if err != nil {
				pkghttp.WriteUnauthorized(w, "Not authorized, token failed")
				return
			}

			user, err := users.GetByID(r.Context(), claims.UserID)
			if err != nil {
				if errors.Is(err, models.ErrNotFound) {
					pkghttp.WriteUnauthorized(w, "Not authorized, user not found")
					return
				}
				pkghttp.WriteInternalError(w, "Failed to load user")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// RequireRole admits only users whose role is in roles. Must run after Authenticate.
func RequireRole(roles ...models.Role) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := UserFromContext(r.Context())
			if user == nil {
				pkghttp.WriteUnauthorized(w, "Not authorized")
				return
			}

			for _, role := range roles {
				if user.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			pkghttp.WriteForbidden(w, fmt.Sprintf("User role %s is not authorized to access this route", user.Role))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, UserContextKey, user)
}

// UserFromContext returns the authenticated user, or nil outside Authenticate.
func UserFromContext(ctx context.Context) *models.User {
	user, _ := ctx.Value(UserContextKey).(*models.User)
	return user
}
