package config

import (
	"errors"
	"fmt"
	"math"
)

// PlaceholderSecretKey is used when SECRET_KEY is unset. Validate only
// accepts it with DEBUG=true.
const PlaceholderSecretKey = "change-me-in-production"

const (
	minSecretKeyLength = 16
	maxOTPLength       = 10
	minOTPLength       = 4
)

// Validate reports every setting the service cannot run with.
func (c *Config) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	switch c.Database.Driver {
	case "postgres", "pgx", "memory":
	default:
		fail("DB_DRIVER must be postgres, pgx or memory, got %q", c.Database.Driver)
	}

	switch {
	case c.Auth.SecretKey == PlaceholderSecretKey && !c.Server.Debug:
		fail("SECRET_KEY must be set outside DEBUG mode")
	case len(c.Auth.SecretKey) < minSecretKeyLength:
		fail("SECRET_KEY must be at least %d bytes", minSecretKeyLength)
	}
	if c.Auth.AccessTokenTTL <= 0 || c.Auth.RefreshTokenTTL <= 0 {
		fail("token lifetimes must be positive")
	}

	errs = append(errs, c.OTP.validate()...)
	errs = append(errs, c.Market.validate()...)

	switch c.Storage.Mode {
	case "local", "s3":
	default:
		fail("STORAGE_MODE must be local or s3, got %q", c.Storage.Mode)
	}

	return errors.Join(errs...)
}

func (o OTPConfig) validate() []error {
	var errs []error
	if o.Length < minOTPLength || o.Length > maxOTPLength {
		errs = append(errs, fmt.Errorf("OTP_LENGTH must be between %d and %d, got %d", minOTPLength, maxOTPLength, o.Length))
	}
	if o.TTL <= 0 {
		errs = append(errs, errors.New("OTP_EXPIRE_MINUTES must be positive"))
	}
	if o.RateWindow <= 0 || o.RateMax <= 0 {
		errs = append(errs, errors.New("OTP_RATE_WINDOW and MAX_OTP_ATTEMPTS must be positive"))
	}
	if o.MaxVerifyAttempts < 0 {
		errs = append(errs, errors.New("OTP_MAX_VERIFY_ATTEMPTS must not be negative"))
	}
	if o.RateLimiter != "store" && o.RateLimiter != "redis" {
		errs = append(errs, fmt.Errorf("OTP_RATE_LIMITER must be store or redis, got %q", o.RateLimiter))
	}
	if o.DeliveryTimeout <= 0 {
		errs = append(errs, errors.New("OTP_DELIVERY_TIMEOUT must be positive"))
	}
	if o.RetentionDays <= 0 || o.SweepInterval <= 0 {
		errs = append(errs, errors.New("OTP_RETENTION_DAYS and OTP_SWEEP_INTERVAL must be positive"))
	}
	return errs
}

func (m MarketConfig) validate() []error {
	var errs []error
	if m.MinProposalLength < 0 {
		errs = append(errs, errors.New("MIN_PROPOSAL_LENGTH must not be negative"))
	}
	if math.IsNaN(m.MinBidAmount) || m.MinBidAmount < 0 {
		errs = append(errs, errors.New("MIN_BID_AMOUNT must not be negative"))
	}
	if m.DefaultPageSize <= 0 || m.MaxPageSize < m.DefaultPageSize {
		errs = append(errs, errors.New("DEFAULT_PAGE_SIZE must be positive and not above MAX_PAGE_SIZE"))
	}
	return errs
}
