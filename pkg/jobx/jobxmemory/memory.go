package jobxmemory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Abraxas-365/contractorconnect/pkg/jobx"
	"github.com/google/uuid"
)

// Queue is an in-process jobx.Queue used when Redis is not configured and in tests.
// Jobs do not survive a restart.
type Queue struct {
	mu        sync.Mutex
	jobs      map[string]*jobx.JobInfo
	ready     map[string][]string
	scheduled map[string][]string
	notify    chan struct{}
	now       func() time.Time
}

func NewQueue() *Queue {
	return &Queue{
		jobs:      make(map[string]*jobx.JobInfo),
		ready:     make(map[string][]string),
		scheduled: make(map[string][]string),
		notify:    make(chan struct{}, 1),
		now:       time.Now,
	}
}

func (q *Queue) signal() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

func (q *Queue) Enqueue(_ context.Context, job jobx.Job, runAt time.Time) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	info := jobx.NewJobInfo(uuid.NewString(), job, q.now(), runAt)
	q.jobs[info.ID] = &info
	if info.Status == jobx.JobStatusScheduled {
		q.scheduled[job.Queue] = append(q.scheduled[job.Queue], info.ID)
		return info.ID, nil
	}
	q.ready[job.Queue] = append(q.ready[job.Queue], info.ID)
	q.signal()
	return info.ID, nil
}

func (q *Queue) GetJob(_ context.Context, jobID string) (*jobx.JobInfo, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	info, ok := q.jobs[jobID]
	if !ok {
		return nil, jobx.NotFound(jobID)
	}
	cp := *info
	return &cp, nil
}

func (q *Queue) pop(queues []string) *jobx.JobInfo {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, name := range queues {
		ids := q.ready[name]
		if len(ids) == 0 {
			continue
		}
		q.ready[name] = ids[1:]
		info := q.jobs[ids[0]]
		info.Status = jobx.JobStatusActive
		info.Attempts++
		info.UpdatedAt = q.now()
		cp := *info
		return &cp
	}
	return nil
}

func (q *Queue) Dequeue(ctx context.Context, queues []string, timeout time.Duration) (*jobx.JobInfo, error) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	for {
		if info := q.pop(queues); info != nil {
			return info, nil
		}
		select {
		case <-ctx.Done():
			return nil, nil
		case <-deadline.C:
			return nil, nil
		case <-q.notify:
		}
	}
}

func (q *Queue) update(jobID string, fn func(*jobx.JobInfo)) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	info, ok := q.jobs[jobID]
	if !ok {
		return jobx.NotFound(jobID)
	}
	fn(info)
	info.UpdatedAt = q.now()
	return nil
}

func (q *Queue) Complete(_ context.Context, jobID string) error {
	return q.update(jobID, func(info *jobx.JobInfo) {
		info.Status = jobx.JobStatusCompleted
		info.Error = ""
	})
}

func (q *Queue) Fail(_ context.Context, jobID string, errMsg string) (bool, error) {
	var retry bool
	err := q.update(jobID, func(info *jobx.JobInfo) {
		retry = info.CanRetry()
		info.Error = errMsg
		if retry {
			info.Status = jobx.JobStatusRetrying
		} else {
			info.Status = jobx.JobStatusFailed
		}
	})
	return retry, err
}

func (q *Queue) Retry(_ context.Context, jobID string, runAt time.Time) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	info, ok := q.jobs[jobID]
	if !ok {
		return jobx.NotFound(jobID)
	}
	info.RunAt = runAt
	info.UpdatedAt = q.now()
	q.scheduled[info.Queue] = append(q.scheduled[info.Queue], jobID)
	return nil
}

func (q *Queue) PromoteDue(_ context.Context, queues []string, now time.Time) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	promoted := false
	for _, name := range queues {
		ids := q.scheduled[name]
		sort.SliceStable(ids, func(i, j int) bool {
			return q.jobs[ids[i]].RunAt.Before(q.jobs[ids[j]].RunAt)
		})
		n := 0
		for n < len(ids) && !q.jobs[ids[n]].RunAt.After(now) {
			info := q.jobs[ids[n]]
			if info.Status == jobx.JobStatusScheduled {
				info.Status = jobx.JobStatusPending
			}
			q.ready[name] = append(q.ready[name], ids[n])
			n++
		}
		q.scheduled[name] = ids[n:]
		promoted = promoted || n > 0
	}
	if promoted {
		q.signal()
	}
	return nil
}
