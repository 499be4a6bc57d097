package middleware

import "net/http"

// Middleware is the standard wrapping function shape used throughout this package.
type Middleware func(http.Handler) http.Handler

// Chain composes middleware around a handler. The first middleware in the
// list becomes the outermost wrapper, so it sees the request first.
func Chain(handler http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] == nil {
			continue
		}
		handler = mws[i](handler)
	}
	return handler
}
