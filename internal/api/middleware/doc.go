// Package middleware provides the HTTP middleware for the coordinator API.
//
//   - CORS: cross-origin resource sharing for the local UI shells
//   - RateLimit: per-IP token bucket rate limiting with idle pruning
//   - RequestID: per-request correlation identifiers
//
// Example Usage:
//
//	router.Use(middleware.RequestID())
//	router.Use(middleware.CORS())
//	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
package middleware
