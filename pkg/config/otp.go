package config

import "time"

// OTPConfig tunes the OTP issuance and verification engine.
type OTPConfig struct {
	Length            int
	TTL               time.Duration
	RateWindow        time.Duration
	RateMax           int
	MaxVerifyAttempts int
	// RateLimiter is "store" (count persisted codes) or "redis"
	RateLimiter     string
	DeliveryMethod  string
	FallbackMethod  string
	DeliveryTimeout time.Duration
	RetentionDays   int
	SweepInterval   time.Duration
	ExposeDevCode   bool
}

// DefaultOTPConfig returns the production defaults.
func DefaultOTPConfig() OTPConfig {
	return OTPConfig{
		Length:            6,
		TTL:               5 * time.Minute,
		RateWindow:        5 * time.Minute,
		RateMax:           3,
		MaxVerifyAttempts: 5,
		RateLimiter:       "store",
		DeliveryMethod:    "console",
		FallbackMethod:    "none",
		DeliveryTimeout:   10 * time.Second,
		RetentionDays:     7,
		SweepInterval:     24 * time.Hour,
	}
}

func loadOTPConfig() OTPConfig {
	d := DefaultOTPConfig()
	return OTPConfig{
		Length:            getEnvInt("OTP_LENGTH", d.Length),
		TTL:               time.Duration(getEnvInt("OTP_EXPIRE_MINUTES", 5)) * time.Minute,
		RateWindow:        getEnvDuration("OTP_RATE_WINDOW", d.RateWindow),
		RateMax:           getEnvInt("MAX_OTP_ATTEMPTS", d.RateMax),
		MaxVerifyAttempts: getEnvInt("OTP_MAX_VERIFY_ATTEMPTS", d.MaxVerifyAttempts),
		RateLimiter:       getEnv("OTP_RATE_LIMITER", d.RateLimiter),
		DeliveryMethod:    getEnv("OTP_DELIVERY_METHOD", d.DeliveryMethod),
		FallbackMethod:    getEnv("OTP_FALLBACK_METHOD", d.FallbackMethod),
		DeliveryTimeout:   getEnvDuration("OTP_DELIVERY_TIMEOUT", d.DeliveryTimeout),
		RetentionDays:     getEnvInt("OTP_RETENTION_DAYS", d.RetentionDays),
		SweepInterval:     getEnvDuration("OTP_SWEEP_INTERVAL", d.SweepInterval),
		ExposeDevCode:     getEnvBool("OTP_EXPOSE_DEV_CODE", false),
	}
}
