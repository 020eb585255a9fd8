package asyncx_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Abraxas-365/contractorconnect/pkg/asyncx"
)

// --- AllSettled tests ---

func TestAllSettled_KeepsOrderAndErrors(t *testing.T) {
	boom := errors.New("boom")
	results := asyncx.AllSettled(context.Background(),
		func(ctx context.Context) (string, error) {
			time.Sleep(10 * time.Millisecond)
			return "db", nil
		},
		func(ctx context.Context) (string, error) { return "", boom },
	)

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if !results[0].OK() || results[0].Value != "db" {
		t.Fatalf("unexpected first result: %+v", results[0])
	}
	if results[1].OK() || !errors.Is(results[1].Err, boom) {
		t.Fatalf("expected boom, got %+v", results[1])
	}
}

// --- WithTimeout tests ---

func TestWithTimeout_Expires(t *testing.T) {
	_, err := asyncx.WithTimeout(context.Background(), 10*time.Millisecond, func(ctx context.Context) (int, error) {
		<-ctx.Done()
		time.Sleep(5 * time.Millisecond)
		return 1, nil
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestWithTimeout_ReturnsValue(t *testing.T) {
	v, err := asyncx.WithTimeout(context.Background(), time.Second, func(ctx context.Context) (int, error) {
		return 42, nil
	})
	if err != nil || v != 42 {
		t.Fatalf("expected 42, got %d (%v)", v, err)
	}
}
