// Package common defines shared constants and sentinel errors used across
// the ReadyInterview client SDK. Callers should use errors.Is to match
// these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Backend-reported auth errors.
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailInUse         = errors.New("email already in use")
	ErrWeakPassword       = errors.New("weak password")
	ErrTooManyRequests    = errors.New("too many requests")
	ErrRequiresRecentAuth = errors.New("requires recent authentication")

	// Locally raised errors.
	ErrValidation = errors.New("validation error")
	ErrTimeout    = errors.New("timed out")
	ErrClosed     = errors.New("closed")

	// Transport / availability errors.
	ErrUnavailable = errors.New("backend unavailable")

	// Token lifecycle errors (invalid or expired backend tokens).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
