package errx

// HTTPErrorResponse represents a standard HTTP error response
type HTTPErrorResponse struct {
	Error     string                 `json:"error"`
	Code      string                 `json:"code"`
	Type      string                 `json:"type"`
	Status    int                    `json:"status"`
	RequestID string                 `json:"request_id,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// ToHTTPResponse converts an Error to an HTTPErrorResponse
func (e *Error) ToHTTPResponse(requestID string) HTTPErrorResponse {
	resp := HTTPErrorResponse{
		Error:     e.Message,
		Code:      e.Code,
		Type:      string(e.Type),
		Status:    e.HTTPStatus,
		RequestID: requestID,
	}
	if len(e.Details) > 0 {
		resp.Details = e.Details
	}
	return resp
}

// FromError returns err as an *Error, turning unknown errors into a generic
// internal error that does not leak the cause to clients.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var customErr *Error
	if As(err, &customErr) {
		return customErr
	}
	e := New("An unexpected error occurred", TypeInternal)
	e.Code = "INTERNAL_ERROR"
	e.Err = err
	return e
}
