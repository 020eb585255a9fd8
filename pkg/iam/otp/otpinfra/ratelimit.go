package otpinfra

import (
	"context"
	"strconv"
	"time"

	"github.com/Abraxas-365/contractorconnect/pkg/errx"
	"github.com/Abraxas-365/contractorconnect/pkg/iam/otp"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// StoreRateLimiter counts the codes already persisted for an identifier.
// Issued rows are the record, so Record is a no-op.
type StoreRateLimiter struct {
	repo   otp.Repository
	window time.Duration
	max    int
}

func NewStoreRateLimiter(repo otp.Repository, window time.Duration, max int) *StoreRateLimiter {
	return &StoreRateLimiter{repo: repo, window: window, max: max}
}

func (l *StoreRateLimiter) Allow(ctx context.Context, identifier string, now time.Time) (time.Duration, error) {
	if l.max <= 0 {
		return 0, nil
	}
	n, err := l.repo.CountSince(ctx, identifier, now.Add(-l.window))
	if err != nil {
		return 0, err
	}
	if n >= l.max {
		return l.window, nil
	}
	return 0, nil
}

func (l *StoreRateLimiter) Record(context.Context, string, time.Time) error { return nil }

// RedisRateLimiter keeps a sliding log per identifier in a sorted set scored
// by issuance time in milliseconds.
type RedisRateLimiter struct {
	client redis.Cmdable
	prefix string
	window time.Duration
	max    int
}

func NewRedisRateLimiter(client redis.Cmdable, window time.Duration, max int) *RedisRateLimiter {
	return &RedisRateLimiter{
		client: client,
		prefix: "otp:ratelimit:",
		window: window,
		max:    max,
	}
}

func (l *RedisRateLimiter) key(identifier string) string {
	return l.prefix + identifier
}

func (l *RedisRateLimiter) Allow(ctx context.Context, identifier string, now time.Time) (time.Duration, error) {
	if l.max <= 0 {
		return 0, nil
	}

	key := l.key(identifier)
	floor := now.Add(-l.window).UnixMilli()

	var card *redis.IntCmd
	var oldest *redis.ZSliceCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		// entries strictly older than the window fall out; one created
		// exactly at the floor still counts
		pipe.ZRemRangeByScore(ctx, key, "-inf", "("+strconv.FormatInt(floor, 10))
		card = pipe.ZCard(ctx, key)
		oldest = pipe.ZRangeWithScores(ctx, key, 0, 0)
		return nil
	})
	if err != nil {
		return 0, errx.Wrap(err, "failed to read OTP rate limit", errx.TypeInternal)
	}

	if int(card.Val()) < l.max {
		return 0, nil
	}

	wait := l.window
	if zs := oldest.Val(); len(zs) > 0 {
		oldestAt := time.UnixMilli(int64(zs[0].Score))
		wait = oldestAt.Add(l.window).Sub(now)
	}
	if wait <= 0 {
		wait = time.Second
	}
	return wait, nil
}

func (l *RedisRateLimiter) Record(ctx context.Context, identifier string, now time.Time) error {
	key := l.key(identifier)
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, key, redis.Z{Score: float64(now.UnixMilli()), Member: uuid.NewString()})
		pipe.Expire(ctx, key, l.window)
		return nil
	})
	if err != nil {
		return errx.Wrap(err, "failed to record OTP issuance", errx.TypeInternal)
	}
	return nil
}
