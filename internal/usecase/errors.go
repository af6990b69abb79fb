package usecase

import "fmt"

type ErrorCode string

const (
	ErrorInvalidRequest   ErrorCode = "INVALID_REQUEST"
	ErrorMethodNotAllowed ErrorCode = "METHOD_NOT_ALLOWED"
	ErrorUpstream         ErrorCode = "UPSTREAM_ERROR"
	ErrorInternal         ErrorCode = "INTERNAL_ERROR"
)

// Reasons are logged; only InvalidRequest reasons change what the caller sees.
const (
	ReasonMissingMessages   = "missing_messages"
	ReasonInvalidMessages   = "invalid_messages"
	ReasonMethodNotAllowed  = "method_not_allowed"
	ReasonAPIKey            = "api_key_error"
	ReasonOpenAIRateLimited = "openai_rate_limited"
	ReasonOpenAI            = "openai_error"
	ReasonPanic             = "panic"
)

type Error struct {
	Code   ErrorCode
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("usecase: %s (%s)", e.Code, e.Reason)
	}
	return fmt.Sprintf("usecase: %s (%s): %v", e.Code, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func NewError(code ErrorCode, reason string, err error) *Error {
	return &Error{Code: code, Reason: reason, Err: err}
}
