package middleware

import (
	"context"
	"net/http"
	"time"
)

const (
	KB = 1024
	MB = 1024 * KB

	// DefaultMaxBodySize fits a quote of several thousand line items.
	DefaultMaxBodySize = 4 * MB

	// DefaultTimeout bounds one calculation request.
	DefaultTimeout = 15 * time.Second
)

// MaxBodySize rejects bodies over maxBytes with 413 and caps the reader for
// bodies of unknown length.
func MaxBodySize(maxBytes int64) func(http.Handler) http.Handler {
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

// Timeout attaches a deadline to the request context. The calculation
// engine checks it only before pricing each item in its first pass; the
// quote-level steps after that run to completion.
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
