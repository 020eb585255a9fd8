package errx

import "net/http"

// Type is the category of an error. It decides the default HTTP status.
type Type string

const (
	TypeInternal      Type = "INTERNAL"
	TypeValidation    Type = "VALIDATION"
	TypeAuthorization Type = "AUTHORIZATION" // missing or bad credentials
	TypeForbidden     Type = "FORBIDDEN"     // authenticated, but wrong role or not the owner
	TypeNotFound      Type = "NOT_FOUND"
	TypeConflict      Type = "CONFLICT"
	TypeBusiness      Type = "BUSINESS" // a rule of the marketplace refused the operation
	TypeExternal      Type = "EXTERNAL"
	TypeRateLimited   Type = "RATE_LIMITED"
)

var typeStatus = map[Type]int{
	TypeInternal:      http.StatusInternalServerError,
	TypeValidation:    http.StatusBadRequest,
	TypeAuthorization: http.StatusUnauthorized,
	TypeForbidden:     http.StatusForbidden,
	TypeNotFound:      http.StatusNotFound,
	TypeConflict:      http.StatusConflict,
	TypeBusiness:      http.StatusUnprocessableEntity,
	TypeExternal:      http.StatusBadGateway,
	TypeRateLimited:   http.StatusTooManyRequests,
}

func (t Type) String() string { return string(t) }

// HTTPStatus is the default status for t; unknown types map to 500.
func (t Type) HTTPStatus() int {
	if s, ok := typeStatus[t]; ok {
		return s
	}
	return http.StatusInternalServerError
}
