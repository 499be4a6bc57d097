// Package middleware provides HTTP middleware for the layout service.
//
// All middleware follows the standard pattern:
//
//	func(http.Handler) http.Handler
//
// which lets handlers be wrapped in a chain:
//
//	handler = middleware.PanicRecovery(logger)(
//	    middleware.RequestID()(
//	        middleware.Logging(logger)(mux)))
//
// Chain builds the same composition from a slice, outermost first.
package middleware
