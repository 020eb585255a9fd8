// Package market holds what the work request and bid packages share: the
// MARKET error registry.
package market

import "github.com/Abraxas-365/contractorconnect/pkg/errx"

var marketErrors = errx.NewRegistry("MARKET")

var (
	ErrRequestNotFound   = marketErrors.Register("REQUEST_NOT_FOUND", errx.TypeNotFound, 404, "Work request not found")
	ErrBidNotFound       = marketErrors.Register("BID_NOT_FOUND", errx.TypeNotFound, 404, "Bid not found")
	ErrForbidden         = marketErrors.Register("FORBIDDEN", errx.TypeForbidden, 403, "Not allowed to perform this action")
	ErrInvalidState      = marketErrors.Register("INVALID_STATE", errx.TypeBusiness, 409, "Operation not allowed in the current status")
	ErrInvalidTransition = marketErrors.Register("INVALID_TRANSITION", errx.TypeBusiness, 422, "Status transition not allowed")
	ErrInvalidOperation  = marketErrors.Register("INVALID_OPERATION", errx.TypeBusiness, 422, "Invalid operation")
	ErrDuplicateBid      = marketErrors.Register("DUPLICATE_BID", errx.TypeConflict, 409, "An active bid already exists for this request")
	ErrValidation        = marketErrors.Register("VALIDATION", errx.TypeValidation, 400, "Validation failed")
)

func RequestNotFound(id string) *errx.Error {
	return marketErrors.New(ErrRequestNotFound).WithDetail("request_id", id)
}

func BidNotFound(id string) *errx.Error {
	return marketErrors.New(ErrBidNotFound).WithDetail("bid_id", id)
}

func Forbidden(msg string) *errx.Error {
	return marketErrors.NewWithMessage(ErrForbidden, msg)
}

func InvalidState(msg string) *errx.Error {
	return marketErrors.NewWithMessage(ErrInvalidState, msg)
}

func InvalidTransition(from, to string) *errx.Error {
	return marketErrors.New(ErrInvalidTransition).
		WithDetail("from", from).
		WithDetail("to", to)
}

func InvalidOperation(msg string) *errx.Error {
	return marketErrors.NewWithMessage(ErrInvalidOperation, msg)
}

func DuplicateBid() *errx.Error {
	return marketErrors.New(ErrDuplicateBid)
}

func Validation(msg string) *errx.Error {
	return marketErrors.NewWithMessage(ErrValidation, msg)
}
