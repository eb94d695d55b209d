package middleware

import (
	"context"
	"net/http"
	"time"
)

// RequestTimeout bounds the context of each request to d. Calls to the
// invoicing API made by the handler are cancelled when it expires.
func RequestTimeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if d <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
