package jobxredis

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/Abraxas-365/contractorconnect/pkg/jobx"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Queue implements jobx.Queue on Redis. Ready jobs live in a list per queue,
// delayed jobs in a sorted set scored by run time in milliseconds.
type Queue struct {
	rdb    redis.UniversalClient
	prefix string
	// jobTTL bounds how long finished jobs stay readable.
	jobTTL time.Duration
	now    func() time.Time
}

// NewQueue creates a Redis-backed queue. Keys are namespaced under prefix.
func NewQueue(rdb redis.UniversalClient, prefix string) *Queue {
	if prefix == "" {
		prefix = "contractorconnect"
	}
	return &Queue{rdb: rdb, prefix: prefix, jobTTL: 7 * 24 * time.Hour, now: time.Now}
}

func (q *Queue) readyKey(name string) string     { return q.prefix + ":jobx:ready:" + name }
func (q *Queue) scheduledKey(name string) string { return q.prefix + ":jobx:scheduled:" + name }
func (q *Queue) jobKey(id string) string         { return q.prefix + ":jobx:job:" + id }

func (q *Queue) Enqueue(ctx context.Context, job jobx.Job, runAt time.Time) (string, error) {
	now := q.now().UTC()
	info := jobx.NewJobInfo(uuid.NewString(), job, now, runAt.UTC())

	data, err := json.Marshal(info)
	if err != nil {
		return "", redisErrors.NewWithCause(ErrCodec, err)
	}

	_, err = q.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, q.jobKey(info.ID), data, 0)
		if info.Status == jobx.JobStatusScheduled {
			pipe.ZAdd(ctx, q.scheduledKey(job.Queue), redis.Z{Score: float64(runAt.UnixMilli()), Member: info.ID})
		} else {
			pipe.LPush(ctx, q.readyKey(job.Queue), info.ID)
		}
		return nil
	})
	if err != nil {
		return "", redisErrors.NewWithCause(ErrEnqueue, err).
			WithDetail("queue", job.Queue).
			WithDetail("type", job.Type)
	}
	return info.ID, nil
}

func (q *Queue) GetJob(ctx context.Context, jobID string) (*jobx.JobInfo, error) {
	data, err := q.rdb.Get(ctx, q.jobKey(jobID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, jobx.NotFound(jobID)
		}
		return nil, redisErrors.NewWithCause(ErrGetJob, err).WithDetail("job_id", jobID)
	}

	var info jobx.JobInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, redisErrors.NewWithCause(ErrCodec, err).WithDetail("job_id", jobID)
	}
	return &info, nil
}

func (q *Queue) save(ctx context.Context, info *jobx.JobInfo, ttl time.Duration) error {
	info.UpdatedAt = q.now().UTC()
	data, err := json.Marshal(info)
	if err != nil {
		return redisErrors.NewWithCause(ErrCodec, err).WithDetail("job_id", info.ID)
	}
	if err := q.rdb.Set(ctx, q.jobKey(info.ID), data, ttl).Err(); err != nil {
		return redisErrors.NewWithCause(ErrSave, err).WithDetail("job_id", info.ID)
	}
	return nil
}

func (q *Queue) Dequeue(ctx context.Context, queues []string, timeout time.Duration) (*jobx.JobInfo, error) {
	keys := make([]string, len(queues))
	for i, name := range queues {
		keys[i] = q.readyKey(name)
	}

	result, err := q.rdb.BRPop(ctx, timeout, keys...).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) || ctx.Err() != nil {
			return nil, nil
		}
		return nil, redisErrors.NewWithCause(ErrDequeue, err)
	}

	// result[0] is the list key, result[1] the job id
	info, err := q.GetJob(ctx, result[1])
	if err != nil {
		return nil, err
	}

	info.Status = jobx.JobStatusActive
	info.Attempts++
	if err := q.save(ctx, info, 0); err != nil {
		return nil, err
	}
	return info, nil
}

func (q *Queue) Complete(ctx context.Context, jobID string) error {
	info, err := q.GetJob(ctx, jobID)
	if err != nil {
		return err
	}
	info.Status = jobx.JobStatusCompleted
	info.Error = ""
	return q.save(ctx, info, q.jobTTL)
}

func (q *Queue) Fail(ctx context.Context, jobID string, errMsg string) (bool, error) {
	info, err := q.GetJob(ctx, jobID)
	if err != nil {
		return false, err
	}

	retry := info.CanRetry()
	ttl := time.Duration(0)
	if retry {
		info.Status = jobx.JobStatusRetrying
	} else {
		info.Status = jobx.JobStatusFailed
		ttl = q.jobTTL
	}
	info.Error = errMsg

	if err := q.save(ctx, info, ttl); err != nil {
		return false, err
	}
	return retry, nil
}

func (q *Queue) Retry(ctx context.Context, jobID string, runAt time.Time) error {
	info, err := q.GetJob(ctx, jobID)
	if err != nil {
		return err
	}
	info.RunAt = runAt.UTC()
	if err := q.save(ctx, info, 0); err != nil {
		return err
	}
	if err := q.rdb.ZAdd(ctx, q.scheduledKey(info.Queue), redis.Z{
		Score:  float64(runAt.UnixMilli()),
		Member: jobID,
	}).Err(); err != nil {
		return redisErrors.NewWithCause(ErrSave, err).WithDetail("job_id", jobID)
	}
	return nil
}

// promoteScript moves due ids from the scheduled set to the ready list atomically.
var promoteScript = redis.NewScript(`
local ids = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1])
for _, id in ipairs(ids) do
    redis.call('LPUSH', KEYS[2], id)
end
if #ids > 0 then
    redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', ARGV[1])
end
return #ids
`)

func (q *Queue) PromoteDue(ctx context.Context, queues []string, now time.Time) error {
	cutoff := strconv.FormatInt(now.UnixMilli(), 10)
	for _, name := range queues {
		err := promoteScript.Run(ctx, q.rdb, []string{q.scheduledKey(name), q.readyKey(name)}, cutoff).Err()
		if err != nil && !errors.Is(err, redis.Nil) {
			return redisErrors.NewWithCause(ErrPromote, err).WithDetail("queue", name)
		}
	}
	return nil
}
