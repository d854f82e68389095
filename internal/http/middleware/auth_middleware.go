package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"user-account-service/internal/domain"
	"user-account-service/internal/http/response"
	"user-account-service/internal/repository"
	"user-account-service/internal/security"
)

type contextKey string

const userContextKey contextKey = "auth.user"

// UserFromContext returns the authenticated user attached by RequireAuth.
func UserFromContext(ctx context.Context) (*domain.User, bool) {
	user, ok := ctx.Value(userContextKey).(*domain.User)
	return user, ok
}

// WithUser attaches a user to the context the way RequireAuth does.
func WithUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// RequireAuth guards protected routes. A request passes only when it carries
// a valid Bearer token whose stored counterpart on the user record matches
// byte for byte; everything else is a 401.
func RequireAuth(jwtMgr *security.JWTManager, repo repository.UserRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "not authorized", nil)
				return
			}

			claims, err := jwtMgr.ParseSessionToken(raw)
			if err != nil {
				response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "not authorized", nil)
				return
			}
			userID, err := claims.UserID()
			if err != nil {
				response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "not authorized", nil)
				return
			}

			user, err := repo.FindByID(userID)
			if err != nil {
				response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "not authorized", nil)
				return
			}
			if user.SessionToken == nil || subtle.ConstantTimeCompare([]byte(*user.SessionToken), []byte(raw)) != 1 {
				response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "not authorized", nil)
				return
			}

			ctx := context.WithValue(r.Context(), userContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
