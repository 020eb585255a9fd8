package jobxredis

import "github.com/Abraxas-365/contractorconnect/pkg/errx"

var redisErrors = errx.NewRegistry("JOBX_REDIS")

var (
	ErrEnqueue = redisErrors.Register("ENQUEUE", errx.TypeExternal, 500, "Redis enqueue failed")
	ErrDequeue = redisErrors.Register("DEQUEUE", errx.TypeExternal, 500, "Redis dequeue failed")
	ErrGetJob  = redisErrors.Register("GET_JOB", errx.TypeExternal, 500, "Redis get job failed")
	ErrSave    = redisErrors.Register("SAVE", errx.TypeExternal, 500, "Redis job update failed")
	ErrPromote = redisErrors.Register("PROMOTE", errx.TypeExternal, 500, "Redis promote failed")
	ErrCodec   = redisErrors.Register("CODEC", errx.TypeInternal, 500, "Failed to encode or decode job data")
)
