package auth

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const claimsContextKey contextKey = "auth_claims"

// ClaimsFromContext returns the claims RequireAuth stored on the request
// context, or nil for unauthenticated requests.
func ClaimsFromContext(ctx context.Context) *Claims {
	if c, ok := ctx.Value(claimsContextKey).(*Claims); ok {
		return c
	}
	return nil
}

// RequireAuth wraps a handler so that only requests bearing a valid token
// with at least minRole privilege pass through. The validated claims are
// stored on the request context. A nil manager disables authentication
// entirely, for deployments that front the service with their own gateway.
func RequireAuth(manager *JWTManager, minRole string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if manager == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				unauthorized(w, "missing authorization header")
				return
			}
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				unauthorized(w, "authorization header must be a bearer token")
				return
			}

			claims, err := manager.ValidateToken(r.Context(), token)
			if err != nil {
				unauthorized(w, "invalid or expired token")
				return
			}
			if !RoleAtLeast(claims.Role, minRole) {
				http.Error(w, "insufficient role", http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), claimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="graphlapse"`)
	http.Error(w, msg, http.StatusUnauthorized)
}
