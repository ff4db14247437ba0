package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"
)

// RateLimit returns an HTTP middleware that limits requests per IP address
// to the specified number per minute. Uses a sliding window algorithm.
func RateLimit(requestsPerMinute int) func(http.Handler) http.Handler {
	return httprate.LimitByIP(requestsPerMinute, time.Minute)
}

// RateLimitByCredential returns an HTTP middleware that limits requests per
// bearer credential per minute, so one noisy API key cannot starve the rest
// of an address's traffic. Requests without a credential fall back to the
// remote IP.
func RateLimitByCredential(requestsPerMinute int) func(http.Handler) http.Handler {
	return httprate.Limit(
		requestsPerMinute,
		time.Minute,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			if token := bearerToken(r); token != "" {
				return token, nil
			}
			return httprate.KeyByIP(r)
		}),
	)
}
