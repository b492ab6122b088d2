package llm

import "errors"

// ErrorCode classifies provider failures, aligned with HTTP status and
// retryability.
type ErrorCode string

const (
	ErrInvalidRequest      ErrorCode = "LLM_INVALID_REQUEST"
	ErrUnauthorized        ErrorCode = "LLM_UNAUTHORIZED"
	ErrForbidden           ErrorCode = "LLM_FORBIDDEN"
	ErrRateLimited         ErrorCode = "LLM_RATE_LIMITED"
	ErrQuotaExceeded       ErrorCode = "LLM_QUOTA_EXCEEDED"
	ErrContentFiltered     ErrorCode = "LLM_CONTENT_FILTERED"
	ErrModelOverloaded     ErrorCode = "LLM_MODEL_OVERLOADED"
	ErrUpstreamTimeout     ErrorCode = "LLM_UPSTREAM_TIMEOUT"
	ErrUpstreamError       ErrorCode = "LLM_UPSTREAM_ERROR"
	ErrProviderUnavailable ErrorCode = "LLM_PROVIDER_UNAVAILABLE"
	ErrEmptyResponse       ErrorCode = "LLM_EMPTY_RESPONSE"
)

// Error is the unified provider error.
type Error struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	HTTPStatus int       `json:"http_status,omitempty"`
	Retryable  bool      `json:"retryable"`
	Provider   string    `json:"provider,omitempty"`
}

func (e *Error) Error() string { return e.Message }

// AsError unwraps err into the unified provider error, if it is one.
func AsError(err error) (*Error, bool) {
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr, true
	}
	return nil, false
}

// CodeFromStatus maps an HTTP status to the closest error code.
func CodeFromStatus(status int) ErrorCode {
	switch {
	case status == 400:
		return ErrInvalidRequest
	case status == 401:
		return ErrUnauthorized
	case status == 403:
		return ErrForbidden
	case status == 429:
		return ErrRateLimited
	case status == 503:
		return ErrModelOverloaded
	case status == 504:
		return ErrUpstreamTimeout
	case status >= 500:
		return ErrUpstreamError
	default:
		return ErrUpstreamError
	}
}
