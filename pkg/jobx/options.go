package jobx

import (
	"time"

	"github.com/Abraxas-365/contractorconnect/pkg/config"
)

// WorkerOptions configures the job processing client.
type WorkerOptions struct {
	Queues            []string
	Concurrency       int
	PollInterval      time.Duration
	ShutdownTimeout   time.Duration
	DequeueTimeout    time.Duration
	DefaultRetryDelay time.Duration
	Clock             func() time.Time
}

func defaultWorkerOptions() WorkerOptions {
	return WorkerOptions{
		Queues:            []string{DefaultQueue},
		Concurrency:       2,
		PollInterval:      time.Second,
		ShutdownTimeout:   30 * time.Second,
		DequeueTimeout:    5 * time.Second,
		DefaultRetryDelay: 30 * time.Second,
		Clock:             time.Now,
	}
}

// WorkerOption is a functional option for configuring the client.
type WorkerOption func(*WorkerOptions)

// FromConfig translates the environment configuration into options.
func FromConfig(cfg config.JobxConfig) []WorkerOption {
	return []WorkerOption{
		WithQueues(cfg.Queues...),
		WithConcurrency(cfg.Concurrency),
		WithPollInterval(cfg.PollInterval),
		WithShutdownTimeout(cfg.ShutdownTimeout),
		WithDequeueTimeout(cfg.DequeueTimeout),
		WithDefaultRetryDelay(cfg.DefaultRetryDelay),
	}
}

// WithQueues sets the queues to process. Empty input keeps the default.
func WithQueues(queues ...string) WorkerOption {
	return func(o *WorkerOptions) {
		if len(queues) > 0 {
			o.Queues = queues
		}
	}
}

// WithConcurrency sets the number of worker goroutines.
func WithConcurrency(n int) WorkerOption {
	return func(o *WorkerOptions) {
		if n > 0 {
			o.Concurrency = n
		}
	}
}

func WithPollInterval(d time.Duration) WorkerOption {
	return func(o *WorkerOptions) {
		if d > 0 {
			o.PollInterval = d
		}
	}
}

func WithShutdownTimeout(d time.Duration) WorkerOption {
	return func(o *WorkerOptions) {
		if d > 0 {
			o.ShutdownTimeout = d
		}
	}
}

// WithDequeueTimeout sets the timeout passed to the blocking dequeue call.
func WithDequeueTimeout(d time.Duration) WorkerOption {
	return func(o *WorkerOptions) {
		if d > 0 {
			o.DequeueTimeout = d
		}
	}
}

func WithDefaultRetryDelay(d time.Duration) WorkerOption {
	return func(o *WorkerOptions) {
		if d >= 0 {
			o.DefaultRetryDelay = d
		}
	}
}

// WithClock replaces the wall clock used for scheduling. Tests only.
func WithClock(now func() time.Time) WorkerOption {
	return func(o *WorkerOptions) {
		if now != nil {
			o.Clock = now
		}
	}
}
