package otp

import (
	"context"
	"time"

	"github.com/Abraxas-365/contractorconnect/pkg/notifx"
)

// Repository persists OTPs. Implementations must make Replace and Consume atomic.
type Repository interface {
	// Replace invalidates every outstanding code for (o.Identifier, o.Purpose)
	// and inserts o, serialized per pair.
	Replace(ctx context.Context, o *OTP) error

	// Consume marks the unused, unexpired code matching identifier, code and
	// purpose as verified and returns it. It returns ErrInvalidOrExpired when
	// no such code exists.
	Consume(ctx context.Context, identifier, code string, purpose Purpose, now time.Time) (*OTP, error)

	// RecordFailedAttempt bumps the failure counter on the outstanding code
	// for (identifier, purpose) and invalidates it once maxAttempts is
	// reached. maxAttempts <= 0 only counts.
	RecordFailedAttempt(ctx context.Context, identifier string, purpose Purpose, maxAttempts int, now time.Time) error

	// CountSince counts codes issued for identifier, any purpose, at or after since.
	CountSince(ctx context.Context, identifier string, since time.Time) (int, error)

	// Outstanding lists the unused, unexpired codes for (identifier, purpose).
	Outstanding(ctx context.Context, identifier string, purpose Purpose, now time.Time) ([]*OTP, error)

	// DeleteOlderThan removes codes created before cutoff.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// RateLimiter bounds issuance per identifier within a sliding window.
type RateLimiter interface {
	// Allow returns the time until the next issuance is allowed; zero means allowed now.
	Allow(ctx context.Context, identifier string, now time.Time) (time.Duration, error)
	// Record notes one issuance for identifier.
	Record(ctx context.Context, identifier string, now time.Time) error
}

// Notifier delivers a code. notifx.Dispatcher implements it.
type Notifier interface {
	Deliver(ctx context.Context, recipient, code, purpose string) notifx.DeliveryOutcome
}
