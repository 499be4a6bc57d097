package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// ContextKey is the type used for values this package stores on the request context.
type ContextKey string

const (
	// RequestIDContextKey is the context key under which the request ID is stored.
	RequestIDContextKey ContextKey = "request_id"

	// RequestIDHeader is the header used to propagate request IDs.
	RequestIDHeader = "X-Request-ID"

	maxRequestIDLength = 64
)

// GetRequestID returns the request ID from the request context, or "" if none was set.
func GetRequestID(r *http.Request) string {
	if id, ok := r.Context().Value(RequestIDContextKey).(string); ok {
		return id
	}
	return ""
}

// sanitizeRequestID strips characters that could corrupt logs or headers.
// Only alphanumerics, dashes and underscores survive.
func sanitizeRequestID(id string) string {
	var b strings.Builder
	b.Grow(len(id))
	for _, c := range id {
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '-' || c == '_' {
			b.WriteRune(c)
		}
	}
	return b.String()
}

// RequestID creates middleware that attaches a unique ID to each request.
// A client-supplied X-Request-ID is honored after sanitization; otherwise a
// fresh UUID is generated. The ID is echoed back on the response and stored
// on the request context for handlers and downstream middleware.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(RequestIDHeader)
			if requestID != "" {
				if len(requestID) > maxRequestIDLength {
					requestID = requestID[:maxRequestIDLength]
				}
				requestID = sanitizeRequestID(requestID)
			}
			if requestID == "" {
				requestID = uuid.NewString()
			}

			w.Header().Set(RequestIDHeader, requestID)
			ctx := context.WithValue(r.Context(), RequestIDContextKey, requestID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
