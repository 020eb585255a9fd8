package jobx

import (
	"encoding/json"
	"time"
)

// JobStatus represents the current state of a job.
type JobStatus string

const (
	JobStatusScheduled JobStatus = "scheduled"
	JobStatusPending   JobStatus = "pending"
	JobStatusActive    JobStatus = "active"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusRetrying  JobStatus = "retrying"
)

// DefaultQueue receives jobs that do not name a queue.
const DefaultQueue = "maintenance"

// Job is a unit of work to be enqueued.
type Job struct {
	Type    string          `json:"type"`
	Queue   string          `json:"queue"`
	Payload json.RawMessage `json:"payload,omitempty"`

	// MaxRetries is the maximum number of attempts after the first. Default is 3.
	MaxRetries int `json:"max_retries"`
}

// NewJob builds a job whose payload is the JSON encoding of payload.
// A nil payload leaves the job without one.
func NewJob(jobType string, payload any) (Job, error) {
	job := Job{Type: jobType}
	if jobType == "" {
		return job, jobxErrors.New(ErrInvalidJob).WithDetail("reason", "job type is required")
	}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return job, jobxErrors.NewWithCause(ErrInvalidJob, err).WithDetail("type", jobType)
		}
		job.Payload = data
	}
	return job, nil
}

// JobInfo is the full representation of a job stored in the backend.
type JobInfo struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Queue      string          `json:"queue"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	Status     JobStatus       `json:"status"`
	Error      string          `json:"error,omitempty"`
	MaxRetries int             `json:"max_retries"`
	Attempts   int             `json:"attempts"`
	RunAt      time.Time       `json:"run_at"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// NewJobInfo is the stored form of job, due at runAt. Backends assign the ID.
func NewJobInfo(id string, job Job, now, runAt time.Time) JobInfo {
	status := JobStatusPending
	if runAt.After(now) {
		status = JobStatusScheduled
	}
	return JobInfo{
		ID:         id,
		Type:       job.Type,
		Queue:      job.Queue,
		Payload:    job.Payload,
		Status:     status,
		MaxRetries: job.MaxRetries,
		RunAt:      runAt,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Decode unmarshals the payload into v. An empty payload leaves v untouched.
func (j *JobInfo) Decode(v any) error {
	if len(j.Payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(j.Payload, v); err != nil {
		return jobxErrors.NewWithCause(ErrInvalidJob, err).
			WithDetail("job_id", j.ID).
			WithDetail("type", j.Type)
	}
	return nil
}

// CanRetry reports whether another attempt is allowed.
func (j *JobInfo) CanRetry() bool {
	return j.Attempts <= j.MaxRetries
}
