// Package middleware provides the HTTP middleware chain of the layout
// service.
//
// Every middleware has the shape func(http.Handler) http.Handler so they
// compose by nesting:
//
//	handler := middleware.PanicRecovery(logger)(mux)
//	handler = middleware.RequestID()(handler)
//	handler = middleware.Logging(logger, middleware.GetRequestID)(handler)
//
// Errors produced by the middleware itself are JSON bodies of the same shape
// the API handlers use.
package middleware
