package middleware

import "net/http"

// BodySizeLimit creates middleware that caps incoming request body size.
// Oversized requests are rejected early from Content-Length when present;
// MaxBytesReader covers chunked bodies where it is not.
func BodySizeLimit(maxBytes int64) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
