package otpinfra

import (
	"context"
	"sync"
	"time"

	"github.com/Abraxas-365/contractorconnect/pkg/iam/otp"
)

// MemoryRepository keeps OTPs in process. It backs tests and DB-less development.
type MemoryRepository struct {
	mu   sync.Mutex
	otps []*otp.OTP
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Replace(_ context.Context, o *otp.OTP) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.otps {
		if existing.Identifier == o.Identifier && existing.Purpose == o.Purpose && !existing.Used {
			existing.Used = true
		}
	}

	stored := *o
	r.otps = append(r.otps, &stored)
	return nil
}

func (r *MemoryRepository) Consume(_ context.Context, identifier, code string, purpose otp.Purpose, now time.Time) (*otp.OTP, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// newest first
	for i := len(r.otps) - 1; i >= 0; i-- {
		o := r.otps[i]
		if o.Identifier != identifier || o.Purpose != purpose || o.Code != code {
			continue
		}
		if !o.IsValidAt(now) {
			continue
		}
		o.Consume(now)
		out := *o
		return &out, nil
	}

	return nil, otp.ErrInvalidOrExpired()
}

func (r *MemoryRepository) RecordFailedAttempt(_ context.Context, identifier string, purpose otp.Purpose, maxAttempts int, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, o := range r.otps {
		if o.Identifier != identifier || o.Purpose != purpose || !o.IsValidAt(now) {
			continue
		}
		o.FailedAttempts++
		if maxAttempts > 0 && o.FailedAttempts >= maxAttempts {
			o.Used = true
		}
	}
	return nil
}

func (r *MemoryRepository) CountSince(_ context.Context, identifier string, since time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, o := range r.otps {
		if o.Identifier == identifier && !o.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepository) Outstanding(_ context.Context, identifier string, purpose otp.Purpose, now time.Time) ([]*otp.OTP, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*otp.OTP
	for _, o := range r.otps {
		if o.Identifier == identifier && o.Purpose == purpose && o.IsValidAt(now) {
			c := *o
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *MemoryRepository) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.otps[:0]
	var deleted int64
	for _, o := range r.otps {
		if o.CreatedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, o)
	}
	r.otps = kept
	return deleted, nil
}

// All returns a snapshot of every stored code, newest last.
func (r *MemoryRepository) All() []*otp.OTP {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*otp.OTP, len(r.otps))
	for i, o := range r.otps {
		c := *o
		out[i] = &c
	}
	return out
}
