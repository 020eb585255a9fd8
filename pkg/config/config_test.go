package config_test

import (
	"strings"
	"testing"

	"github.com/Abraxas-365/contractorconnect/pkg/config"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// --- Load tests ---

func TestLoad_MarketDefaultsAndOverrides(t *testing.T) {
	t.Setenv("SECRET_KEY", testSecret)

	cfg := config.Load()
	if cfg.Market.MinBidAmount != 0.01 || cfg.Market.MinProposalLength != 50 {
		t.Fatalf("unexpected market defaults %+v", cfg.Market)
	}

	t.Setenv("MIN_BID_AMOUNT", "250.50")
	t.Setenv("MIN_PROPOSAL_LENGTH", "80")
	cfg = config.Load()
	if cfg.Market.MinBidAmount != 250.5 || cfg.Market.MinProposalLength != 80 {
		t.Fatalf("expected env overrides, got %+v", cfg.Market)
	}

	t.Setenv("MIN_BID_AMOUNT", "lots")
	if got := config.Load().Market.MinBidAmount; got != 0.01 {
		t.Fatalf("expected unparsable value to fall back, got %v", got)
	}
}

// --- Validate tests ---

func TestValidate_Defaults(t *testing.T) {
	t.Setenv("SECRET_KEY", testSecret)
	if err := config.Load().Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
}

func TestValidate_PlaceholderSecret(t *testing.T) {
	t.Setenv("SECRET_KEY", "")
	t.Setenv("DEBUG", "false")

	cfg := config.Load()
	if cfg.Auth.SecretKey != config.PlaceholderSecretKey {
		t.Fatalf("expected placeholder secret, got %q", cfg.Auth.SecretKey)
	}
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "SECRET_KEY") {
		t.Fatalf("expected SECRET_KEY error, got %v", err)
	}

	t.Setenv("DEBUG", "true")
	if err := config.Load().Validate(); err != nil {
		t.Fatalf("expected placeholder to be allowed in debug, got %v", err)
	}

	t.Setenv("SECRET_KEY", "short")
	if err := config.Load().Validate(); err == nil {
		t.Fatal("expected short secret to be rejected")
	}
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	t.Setenv("SECRET_KEY", testSecret)
	t.Setenv("OTP_LENGTH", "20")
	t.Setenv("OTP_RATE_LIMITER", "memcached")
	t.Setenv("MIN_BID_AMOUNT", "-1")
	t.Setenv("STORAGE_MODE", "ftp")

	err := config.Load().Validate()
	if err == nil {
		t.Fatal("expected validation errors")
	}
	for _, key := range []string{"OTP_LENGTH", "OTP_RATE_LIMITER", "MIN_BID_AMOUNT", "STORAGE_MODE"} {
		if !strings.Contains(err.Error(), key) {
			t.Fatalf("expected %s in %q", key, err)
		}
	}
}
