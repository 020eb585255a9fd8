package notifxses

import "github.com/Abraxas-365/contractorconnect/pkg/errx"

var sesErrors = errx.NewRegistry("NOTIFX_SES")

var (
	ErrSendFailed   = sesErrors.Register("SEND_FAILED", errx.TypeExternal, 502, "SES send email failed")
	ErrBuildMessage = sesErrors.Register("BUILD_MESSAGE", errx.TypeValidation, 400, "Failed to build SES message")
)
