package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/Abraxas-365/contractorconnect/pkg/kernel"
)

// Purpose is what an OTP may be used for.
type Purpose string

const (
	PurposeLogin        Purpose = "login"
	PurposeRegistration Purpose = "registration"
	PurposeVerification Purpose = "verification"
)

// ParsePurpose maps a request value onto a Purpose.
func ParsePurpose(s string) (Purpose, error) {
	p := Purpose(strings.ToLower(strings.TrimSpace(s)))
	if !p.IsValid() {
		return "", ErrValidation("purpose must be one of login, registration, verification").
			WithDetail("purpose", s)
	}
	return p, nil
}

func (p Purpose) IsValid() bool {
	switch p {
	case PurposeLogin, PurposeRegistration, PurposeVerification:
		return true
	}
	return false
}

func (p Purpose) String() string { return string(p) }

// Channel is the medium an OTP is addressed to.
type Channel string

const (
	ChannelSMS   Channel = "sms"
	ChannelEmail Channel = "email"
)

// ChannelFor infers the channel from an identifier: email when it contains '@', sms otherwise.
// NormalizeIdentifier is the form codes are stored and rate-limited under:
// emails lowercased, phone numbers without spaces or dashes.
func NormalizeIdentifier(identifier string) string {
	identifier = strings.TrimSpace(identifier)
	if strings.Contains(identifier, "@") {
		return strings.ToLower(identifier)
	}
	return strings.NewReplacer(" ", "", "-", "").Replace(identifier)
}

func ChannelFor(identifier string) Channel {
	if strings.Contains(identifier, "@") {
		return ChannelEmail
	}
	return ChannelSMS
}

func (c Channel) IsValid() bool {
	return c == ChannelSMS || c == ChannelEmail
}

// OTP is one issued code. Only the engine mutates it.
type OTP struct {
	ID             string         `db:"id" json:"id"`
	Identifier     string         `db:"identifier" json:"identifier"`
	Code           string         `db:"-" json:"-"`
	Purpose        Purpose        `db:"purpose" json:"purpose"`
	Channel        Channel        `db:"channel" json:"channel"`
	UserID         *kernel.UserID `db:"user_id" json:"user_id,omitempty"`
	Used           bool           `db:"used" json:"used"`
	Verified       bool           `db:"verified" json:"verified"`
	VerifiedAt     *time.Time     `db:"verified_at" json:"verified_at,omitempty"`
	FailedAttempts int            `db:"failed_attempts" json:"failed_attempts"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	ExpiresAt      time.Time      `db:"expires_at" json:"expires_at"`
}

// IsValidAt reports whether the code can still be consumed at t.
func (o *OTP) IsValidAt(t time.Time) bool {
	return !o.Used && t.Before(o.ExpiresAt)
}

// IsExpiredAt reports whether the code expired at or before t.
func (o *OTP) IsExpiredAt(t time.Time) bool {
	return !t.Before(o.ExpiresAt)
}

// Consume marks the code as verified. It is applied once, by the store, under its lock.
func (o *OTP) Consume(at time.Time) {
	o.Used = true
	o.Verified = true
	o.VerifiedAt = &at
}

// GenerateCode returns a uniformly random numeric code of the given length,
// zero padded, drawn from crypto/rand.
func GenerateCode(length int) (string, error) {
	if length <= 0 || length > 18 {
		return "", ErrValidation("code length must be between 1 and 18").WithDetail("length", length)
	}

	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length)), nil)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%0*d", length, n), nil
}
