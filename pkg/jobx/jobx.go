package jobx

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Abraxas-365/contractorconnect/pkg/logx"
)

// HandlerFunc processes a job. Return nil on success, an error to trigger retry/fail.
type HandlerFunc func(ctx context.Context, job *JobInfo) error

// Queue is the storage backend behind a Client.
type Queue interface {
	// Enqueue stores job and makes it available once runAt has passed.
	Enqueue(ctx context.Context, job Job, runAt time.Time) (string, error)
	GetJob(ctx context.Context, jobID string) (*JobInfo, error)

	// Dequeue blocks up to timeout for a ready job. (nil, nil) means none.
	Dequeue(ctx context.Context, queues []string, timeout time.Duration) (*JobInfo, error)
	Complete(ctx context.Context, jobID string) error
	// Fail records errMsg and reports whether the job may be retried.
	Fail(ctx context.Context, jobID string, errMsg string) (retry bool, err error)
	Retry(ctx context.Context, jobID string, runAt time.Time) error
	// PromoteDue moves scheduled jobs whose run time is at or before now to the ready queue.
	PromoteDue(ctx context.Context, queues []string, now time.Time) error
}

// schedule is a job enqueued every interval while the client runs.
type schedule struct {
	job      Job
	interval time.Duration
}

// Client enqueues jobs and runs the worker pool that processes them.
type Client struct {
	queue     Queue
	opts      WorkerOptions
	handlers  map[string]HandlerFunc
	schedules []schedule
	mu        sync.RWMutex
	running   bool
}

// NewClient creates a new job processing client.
func NewClient(queue Queue, options ...WorkerOption) *Client {
	opts := defaultWorkerOptions()
	for _, o := range options {
		o(&opts)
	}
	return &Client{
		queue:    queue,
		opts:     opts,
		handlers: make(map[string]HandlerFunc),
	}
}

// Register adds a handler for a given job type.
func (c *Client) Register(jobType string, handler HandlerFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[jobType] = handler
}

// Every enqueues job once when the client starts and then every interval.
// Must be called before Start.
func (c *Client) Every(job Job, interval time.Duration) error {
	if interval <= 0 {
		return jobxErrors.New(ErrInvalidJob).
			WithDetail("type", job.Type).
			WithDetail("reason", "interval must be positive")
	}
	if job.Type == "" {
		return jobxErrors.New(ErrInvalidJob).WithDetail("reason", "job type is required")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.schedules = append(c.schedules, schedule{job: c.withDefaults(job), interval: interval})
	return nil
}

// Enqueue enqueues a job for immediate processing.
func (c *Client) Enqueue(ctx context.Context, job Job) (string, error) {
	now := c.opts.Clock()
	return c.queue.Enqueue(ctx, c.withDefaults(job), now)
}

// EnqueueIn enqueues a job that becomes available after delay.
func (c *Client) EnqueueIn(ctx context.Context, job Job, delay time.Duration) (string, error) {
	now := c.opts.Clock()
	return c.queue.Enqueue(ctx, c.withDefaults(job), now.Add(delay))
}

// GetJob returns the current state of a job.
func (c *Client) GetJob(ctx context.Context, jobID string) (*JobInfo, error) {
	return c.queue.GetJob(ctx, jobID)
}

func (c *Client) withDefaults(job Job) Job {
	if job.Queue == "" {
		job.Queue = c.opts.Queues[0]
	}
	if job.MaxRetries == 0 {
		job.MaxRetries = 3
	}
	return job
}

// Start begins processing jobs. It blocks until ctx is cancelled.
func (c *Client) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return jobxErrors.New(ErrAlreadyRunning)
	}
	c.running = true
	schedules := append([]schedule(nil), c.schedules...)
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
	}()

	logx.WithFields(logx.Fields{
		"workers":   c.opts.Concurrency,
		"queues":    c.opts.Queues,
		"schedules": len(schedules),
	}).Info("jobx: starting")

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		c.promoteLoop(ctx)
	}()

	for _, s := range schedules {
		wg.Add(1)
		go func(s schedule) {
			defer wg.Done()
			c.scheduleLoop(ctx, s)
		}(s)
	}

	for i := range c.opts.Concurrency {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			c.workerLoop(ctx, id)
		}(i)
	}

	<-ctx.Done()
	logx.Info("jobx: shutting down workers...")

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logx.Info("jobx: all workers stopped")
	case <-time.After(c.opts.ShutdownTimeout):
		logx.Warn("jobx: shutdown timed out, some jobs may not have completed")
	}

	return nil
}

func (c *Client) promoteLoop(ctx context.Context) {
	ticker := time.NewTicker(c.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.queue.PromoteDue(ctx, c.opts.Queues, c.opts.Clock()); err != nil {
				if ctx.Err() != nil {
					return
				}
				logx.WithError(err).Warn("jobx: failed to promote scheduled jobs")
			}
		}
	}
}

func (c *Client) scheduleLoop(ctx context.Context, s schedule) {
	enqueue := func() {
		id, err := c.queue.Enqueue(ctx, s.job, c.opts.Clock())
		if err != nil {
			if ctx.Err() == nil {
				logx.WithError(err).Warnf("jobx: failed to enqueue recurring %s", s.job.Type)
			}
			return
		}
		logx.WithFields(logx.Fields{"job_id": id, "type": s.job.Type}).Debug("jobx: recurring job enqueued")
	}

	enqueue()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			enqueue()
		}
	}
}

func (c *Client) workerLoop(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, err := c.queue.Dequeue(ctx, c.opts.Queues, c.opts.DequeueTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logx.WithError(err).Warnf("jobx: worker %d dequeue error", id)
			select {
			case <-ctx.Done():
				return
			case <-time.After(c.opts.PollInterval):
			}
			continue
		}
		if job == nil {
			continue
		}

		c.processJob(ctx, job)
	}
}

func (c *Client) processJob(ctx context.Context, job *JobInfo) {
	c.mu.RLock()
	handler, ok := c.handlers[job.Type]
	c.mu.RUnlock()

	fields := logx.Fields{"job_id": job.ID, "type": job.Type, "attempt": job.Attempts}

	if !ok {
		logx.WithFields(fields).Warn("jobx: no handler registered")
		if _, err := c.queue.Fail(ctx, job.ID, "no handler registered for job type"); err != nil {
			logx.WithFields(fields).WithError(err).Error("jobx: failed to mark job as failed")
		}
		return
	}

	if err := runHandler(ctx, handler, job); err != nil {
		logx.WithFields(fields).WithError(err).Warn("jobx: job failed")

		shouldRetry, failErr := c.queue.Fail(ctx, job.ID, err.Error())
		if failErr != nil {
			logx.WithFields(fields).WithError(failErr).Error("jobx: failed to mark job as failed")
			return
		}

		if shouldRetry {
			runAt := c.opts.Clock().Add(c.opts.DefaultRetryDelay)
			if retryErr := c.queue.Retry(ctx, job.ID, runAt); retryErr != nil {
				logx.WithFields(fields).WithError(retryErr).Error("jobx: failed to retry job")
			}
		}
		return
	}

	if err := c.queue.Complete(ctx, job.ID); err != nil {
		logx.WithFields(fields).WithError(err).Error("jobx: failed to complete job")
	}
}

// runHandler turns a handler panic into a job failure.
func runHandler(ctx context.Context, handler HandlerFunc, job *JobInfo) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = jobxErrors.New(ErrHandlerPanicked).
				WithDetail("type", job.Type).
				WithDetail("panic", fmt.Sprint(r))
		}
	}()
	return handler(ctx, job)
}
