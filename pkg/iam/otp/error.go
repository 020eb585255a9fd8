package otp

import (
	"net/http"

	"github.com/Abraxas-365/contractorconnect/pkg/errx"
)

var ErrRegistry = errx.NewRegistry("OTP")

var (
	CodeRateLimited      = ErrRegistry.Register("RATE_LIMITED", errx.TypeRateLimited, http.StatusTooManyRequests, "Too many OTP requests, please try again later")
	CodeInvalidOrExpired = ErrRegistry.Register("INVALID_OR_EXPIRED", errx.TypeValidation, http.StatusBadRequest, "Invalid or expired OTP")
	CodeValidation       = ErrRegistry.Register("VALIDATION", errx.TypeValidation, http.StatusBadRequest, "Invalid OTP request")
	CodeStorage          = ErrRegistry.Register("STORAGE", errx.TypeInternal, http.StatusInternalServerError, "OTP storage failure")
)

func ErrRateLimited() *errx.Error      { return ErrRegistry.New(CodeRateLimited) }
func ErrInvalidOrExpired() *errx.Error { return ErrRegistry.New(CodeInvalidOrExpired) }

func ErrValidation(msg string) *errx.Error {
	return ErrRegistry.NewWithMessage(CodeValidation, msg)
}

// ErrStorage hides the cause from clients while keeping it for logs.
func ErrStorage(cause error) *errx.Error {
	return ErrRegistry.NewWithCause(CodeStorage, cause)
}
