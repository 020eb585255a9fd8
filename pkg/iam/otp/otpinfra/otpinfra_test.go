package otpinfra_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Abraxas-365/contractorconnect/pkg/iam/otp"
	"github.com/Abraxas-365/contractorconnect/pkg/iam/otp/otpinfra"
)

var t0 = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func newOTP(id, identifier, code string, purpose otp.Purpose, at time.Time) *otp.OTP {
	return &otp.OTP{
		ID:         id,
		Identifier: identifier,
		Code:       code,
		Purpose:    purpose,
		Channel:    otp.ChannelFor(identifier),
		CreatedAt:  at,
		ExpiresAt:  at.Add(5 * time.Minute),
	}
}

// --- MemoryRepository tests ---

func TestMemoryRepository_ConcurrentConsumeSucceedsOnce(t *testing.T) {
	repo := otpinfra.NewMemoryRepository()
	ctx := context.Background()
	_ = repo.Replace(ctx, newOTP("1", "a@x.in", "123456", otp.PurposeLogin, t0))

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.Consume(ctx, "a@x.in", "123456", otp.PurposeLogin, t0.Add(time.Minute)); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Fatalf("expected exactly one successful consume, got %d", wins)
	}
}

func TestMemoryRepository_ConcurrentReplaceKeepsOneValid(t *testing.T) {
	repo := otpinfra.NewMemoryRepository()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = repo.Replace(ctx, newOTP(string(rune('a'+i)), "+919876543210", "000000", otp.PurposeLogin, t0))
		}(i)
	}
	wg.Wait()

	list, _ := repo.Outstanding(ctx, "+919876543210", otp.PurposeLogin, t0)
	if len(list) != 1 {
		t.Fatalf("expected one outstanding code, got %d", len(list))
	}
}

func TestMemoryRepository_CountSince(t *testing.T) {
	repo := otpinfra.NewMemoryRepository()
	ctx := context.Background()
	_ = repo.Replace(ctx, newOTP("1", "a@x.in", "1", otp.PurposeLogin, t0))
	_ = repo.Replace(ctx, newOTP("2", "a@x.in", "2", otp.PurposeRegistration, t0.Add(time.Minute)))
	_ = repo.Replace(ctx, newOTP("3", "b@x.in", "3", otp.PurposeLogin, t0.Add(time.Minute)))

	n, _ := repo.CountSince(ctx, "a@x.in", t0)
	if n != 2 {
		t.Fatalf("expected 2 codes across purposes, got %d", n)
	}
	n, _ = repo.CountSince(ctx, "a@x.in", t0.Add(30*time.Second))
	if n != 1 {
		t.Fatalf("expected 1 code in the narrower window, got %d", n)
	}
}

// --- StoreRateLimiter tests ---

func TestStoreRateLimiter(t *testing.T) {
	repo := otpinfra.NewMemoryRepository()
	limiter := otpinfra.NewStoreRateLimiter(repo, 5*time.Minute, 2)
	ctx := context.Background()

	for i, id := range []string{"1", "2"} {
		wait, err := limiter.Allow(ctx, "a@x.in", t0)
		if err != nil || wait != 0 {
			t.Fatalf("issuance %d should be allowed, wait=%v err=%v", i+1, wait, err)
		}
		_ = repo.Replace(ctx, newOTP(id, "a@x.in", id, otp.PurposeLogin, t0))
	}

	wait, _ := limiter.Allow(ctx, "a@x.in", t0.Add(time.Minute))
	if wait <= 0 {
		t.Fatal("expected third issuance to be limited")
	}

	wait, _ = limiter.Allow(ctx, "a@x.in", t0.Add(5*time.Minute+time.Millisecond))
	if wait != 0 {
		t.Fatalf("expected window to have elapsed, wait=%v", wait)
	}
}

// --- CodeDigester tests ---

func TestCodeDigester(t *testing.T) {
	d := otpinfra.NewCodeDigester("secret")
	a := d.Digest("a@x.in", "123456")

	if a != d.Digest("a@x.in", "123456") {
		t.Fatal("digest must be deterministic")
	}
	if a == d.Digest("b@x.in", "123456") {
		t.Fatal("digest must depend on the identifier")
	}
	if a == otpinfra.NewCodeDigester("other").Digest("a@x.in", "123456") {
		t.Fatal("digest must depend on the key")
	}
	if len(a) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(a))
	}
}
