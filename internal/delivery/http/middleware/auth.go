package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"eventbooking/internal/delivery/http/helpers"
	"eventbooking/internal/domain"
)

type contextKey string

const userKey contextKey = "user"

// UserLoader fetches the current state of an authenticated user.
type UserLoader interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// SetUser returns a context carrying the authenticated user.
func SetUser(ctx context.Context, u *domain.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFromContext returns the authenticated user, or nil for anonymous requests.
func UserFromContext(ctx context.Context) *domain.User {
	u, _ := ctx.Value(userKey).(*domain.User)
	return u
}

// Authenticate resolves an optional Bearer token; the "Bearer " prefix may be omitted. Requests without an Authorization
// header pass through anonymously; a header that does not verify, or that names a
// missing or inactive user, gets 401. Role claims in the token are ignored: the user
// row is reloaded on every request.
func Authenticate(verifier domain.TokenVerifier, users UserLoader, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if auth == "" {
				next.ServeHTTP(w, r)
				return
			}
			// A bare token is accepted as if it carried the Bearer prefix.
			token, found := strings.CutPrefix(auth, "Bearer ")
			if !found && strings.ContainsAny(auth, " \t") {
				helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "invalid authorization format")
				return
			}
			token = strings.TrimSpace(token)
			if token == "" {
				helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "missing token")
				return
			}
			userID, err := verifier.Verify(token)
			if err != nil {
				helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "invalid or expired token")
				return
			}
			user, err := users.GetByID(r.Context(), userID)
			if err != nil {
				if !errors.Is(err, domain.ErrNotFound) {
					logger.ErrorContext(r.Context(), "failed to load authenticated user", "user_id", userID, "err", err)
					helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "internal server error")
					return
				}
				helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "invalid or expired token")
				return
			}
			if !user.IsActive {
				helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "account is not active")
				return
			}
			next.ServeHTTP(w, r.WithContext(SetUser(r.Context(), user)))
		})
	}
}

// RequireAuth responds 401 unless Authenticate placed a user in the context.
func RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if UserFromContext(r.Context()) == nil {
			helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "authentication required")
			return
		}
		next(w, r)
	}
}
