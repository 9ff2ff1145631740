// Package otp stores one-time login codes for beneficiary phone
// authentication. Codes are stored hashed with a TTL; attempt counting and
// resend throttling live next to the code so the whole challenge expires
// together.
package otp

import (
	"context"
	"time"
)

// Store persists OTP challenges keyed by phone number.
type Store interface {
	// SaveCode stores the hashed code with the given TTL, replacing any
	// previous challenge for the phone and resetting its attempt counter.
	SaveCode(ctx context.Context, phone, codeHash string, ttl time.Duration) error
	// LoadCode returns the stored hash. sentinel.ErrNotFound means no live
	// challenge (never issued, expired, or already consumed).
	LoadCode(ctx context.Context, phone string) (string, error)
	// CountAttempt increments and returns the attempt counter for the live
	// challenge.
	CountAttempt(ctx context.Context, phone string) (int, error)
	// Clear removes the challenge after successful verification.
	Clear(ctx context.Context, phone string) error
	// MarkSent records a send and reports whether sending was allowed, i.e.
	// no send happened within the throttle window.
	MarkSent(ctx context.Context, phone string, window time.Duration) (bool, error)
}
