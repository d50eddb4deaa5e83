// Package ratelimiter provides request rate limiting for expensive routes.
package ratelimiter

// RateLimiter is the interface for rate limiting.
type RateLimiter interface {
	// Allow returns true if the request is allowed, otherwise false.
	Allow() bool
}
