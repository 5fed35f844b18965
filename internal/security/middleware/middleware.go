package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"github.com/yourorg/rentalhub/internal/domain"
	"github.com/yourorg/rentalhub/internal/security/auth"
	"github.com/yourorg/rentalhub/internal/security/ratelimit"
)

type UserContextKey struct{}
type ClaimsContextKey struct{}

// RequireAuth validates the bearer token and re-resolves the user row on
// every request, so role changes and suspensions take effect immediately.
func RequireAuth(tm *auth.TokenManager, users domain.UserRepository, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, `{"error":"missing auth"}`, http.StatusUnauthorized)
				return
			}

			tokenString, err := auth.ExtractToken(authHeader)
			if err != nil {
				http.Error(w, `{"error":"invalid auth"}`, http.StatusUnauthorized)
				return
			}

			claims, err := tm.ValidateToken(tokenString)
			if err != nil {
				http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
				return
			}

			user, err := users.GetByID(claims.UserID)
			if err != nil {
				http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
				return
			}
			if user.Suspended {
				log.Warn("suspended user rejected", slog.Int64("user_id", user.ID))
				http.Error(w, `{"error":"account suspended"}`, http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), ClaimsContextKey{}, claims)
			ctx = context.WithValue(ctx, UserContextKey{}, user)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole gates a route to the given roles. Must run inside RequireAuth.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := GetUserFromContext(r.Context())
			if user == nil {
				http.Error(w, `{"error":"missing auth"}`, http.StatusUnauthorized)
				return
			}
			for _, role := range roles {
				if user.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			http.Error(w, `{"error":"not authorized"}`, http.StatusForbidden)
		})
	}
}

// RateLimitMiddleware limits by user id when authenticated, remote host
// otherwise.
func RateLimitMiddleware(limiter *ratelimit.Limiter, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := ""
			if user := GetUserFromContext(r.Context()); user != nil {
				key = strconv.FormatInt(user.ID, 10)
			} else if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
				key = host
			} else {
				key = r.RemoteAddr
			}

			if !limiter.Allow(key) {
				log.Warn("rate limit exceeded", slog.String("key", key), slog.String("path", r.URL.Path))
				http.Error(w, `{"error":"rate limit exceeded"}`, http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func GetUserFromContext(ctx context.Context) *domain.User {
	if u := ctx.Value(UserContextKey{}); u != nil {
		return u.(*domain.User)
	}
	return nil
}

func GetClaimsFromContext(ctx context.Context) *auth.Claims {
	if c := ctx.Value(ClaimsContextKey{}); c != nil {
		return c.(*auth.Claims)
	}
	return nil
}
