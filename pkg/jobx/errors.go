package jobx

import "github.com/Abraxas-365/contractorconnect/pkg/errx"

var jobxErrors = errx.NewRegistry("JOBX")

var (
	ErrJobNotFound     = jobxErrors.Register("JOB_NOT_FOUND", errx.TypeNotFound, 404, "Job not found")
	ErrInvalidJob      = jobxErrors.Register("INVALID_JOB", errx.TypeValidation, 400, "Invalid job definition")
	ErrAlreadyRunning  = jobxErrors.Register("ALREADY_RUNNING", errx.TypeConflict, 409, "Worker is already running")
	ErrHandlerPanicked = jobxErrors.Register("HANDLER_PANICKED", errx.TypeInternal, 500, "Job handler panicked")
)

// NotFound builds the error backends return for an unknown job id.
func NotFound(jobID string) error {
	return jobxErrors.New(ErrJobNotFound).WithDetail("job_id", jobID)
}
