package middleware

import (
	"errors"

	"golang.org/x/time/rate"

	"mini-jsonrpc/transport"
)

var ErrRateLimited = errors.New("rate limit exceeded")

// RateLimitMiddleware creates a token bucket limiter in front of the transport.
// Sends beyond the bucket fail with ErrRateLimited instead of waiting.
func RateLimitMiddleware(r float64, burst int) Middleware {
	limiter := rate.NewLimiter(rate.Limit(r), burst)
	return func(next transport.Transport) transport.Transport {
		return transport.Func(func(payload string, onResult func(string)) error {
			if !limiter.Allow() {
				return ErrRateLimited
			}
			return next.Send(payload, onResult)
		})
	}
}
