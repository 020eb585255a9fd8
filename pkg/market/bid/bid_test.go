package bid_test

import (
	"math"
	"testing"

	"github.com/Abraxas-365/contractorconnect/pkg/errx"
	"github.com/Abraxas-365/contractorconnect/pkg/market"
	"github.com/Abraxas-365/contractorconnect/pkg/market/bid"
)

// --- Amount tests ---

func TestValidateAmount(t *testing.T) {
	valid := []float64{0.01, 19.99, 45000, 1250.5, bid.MaxAmount}
	for _, a := range valid {
		if err := bid.ValidateAmount(a, 0); err != nil {
			t.Fatalf("ValidateAmount(%v) = %v, want nil", a, err)
		}
	}

	invalid := []float64{0, -5, 0.004, 0.009, 12.345, 1e13, bid.MaxAmount + 1, math.NaN(), math.Inf(1)}
	for _, a := range invalid {
		if err := bid.ValidateAmount(a, 0); !errx.IsCode(err, market.ErrValidation) {
			t.Fatalf("ValidateAmount(%v) = %v, want %s", a, err, market.ErrValidation.Code)
		}
	}
}

func TestValidateAmount_Minimum(t *testing.T) {
	if err := bid.ValidateAmount(999.99, 1000); !errx.IsCode(err, market.ErrValidation) {
		t.Fatalf("expected amount below the minimum to fail, got %v", err)
	}
	if err := bid.ValidateAmount(1000, 1000); err != nil {
		t.Fatalf("expected amount at the minimum to pass, got %v", err)
	}
	// a configured minimum below one cent is raised to it
	if err := bid.ValidateAmount(0.005, -1); err == nil {
		t.Fatal("expected sub-cent amount to fail even with a negative minimum")
	}
}
