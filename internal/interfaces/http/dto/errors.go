package dto

import "net/http"

// Transport error codes
const (
	ErrCodeInternal           = "INTERNAL_ERROR"
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeRequestTooLarge    = "REQUEST_TOO_LARGE"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeTokenExpired       = "TOKEN_EXPIRED"
	ErrCodeTokenInvalid       = "INVALID_TOKEN"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeDuplicateRequest   = "DUPLICATE_REQUEST"
	ErrCodeInvalidIdemKey     = "INVALID_IDEMPOTENCY_KEY"
	ErrCodeBatchFailed        = "BATCH_PROCESSING_FAILED"
	ErrCodeNotImplemented     = "NOT_IMPLEMENTED"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// Domain error codes that reach the HTTP layer as a DomainError
const (
	ErrCodeInvalidInput         = "INVALID_INPUT"
	ErrCodeInvalidStatus        = "INVALID_STATUS"
	ErrCodeInvalidCondition     = "INVALID_CONDITION"
	ErrCodeInvalidOperationType = "INVALID_OPERATION_TYPE"
	ErrCodeInvalidParameters    = "INVALID_PARAMETERS"
	ErrCodeInvalidDateRange     = "INVALID_DATE_RANGE"
	ErrCodeJobAlreadyRunning    = "JOB_ALREADY_RUNNING"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeRequestTooLarge:    http.StatusRequestEntityTooLarge,
	ErrCodeUnauthorized:       http.StatusUnauthorized,
	ErrCodeForbidden:          http.StatusForbidden,
	ErrCodeTokenExpired:       http.StatusUnauthorized,
	ErrCodeTokenInvalid:       http.StatusUnauthorized,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeDuplicateRequest:   http.StatusConflict,
	ErrCodeInvalidIdemKey:     http.StatusBadRequest,
	ErrCodeBatchFailed:        http.StatusInternalServerError,
	ErrCodeNotImplemented:     http.StatusNotImplemented,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,

	ErrCodeInvalidInput:         http.StatusBadRequest,
	ErrCodeInvalidStatus:        http.StatusBadRequest,
	ErrCodeInvalidCondition:     http.StatusBadRequest,
	ErrCodeInvalidOperationType: http.StatusBadRequest,
	ErrCodeInvalidParameters:    http.StatusBadRequest,
	ErrCodeInvalidDateRange:     http.StatusBadRequest,
	ErrCodeJobAlreadyRunning:    http.StatusConflict,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes map to 500.
func GetHTTPStatus(code string) int {
	return GetHTTPStatusOr(code, http.StatusInternalServerError)
}

// GetHTTPStatusOr returns the HTTP status code for an error code, or fallback if it is unknown
func GetHTTPStatusOr(code string, fallback int) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return fallback
}
