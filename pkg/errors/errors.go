package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeNotFound           = "NOT_FOUND"
	CodeValidation         = "VALIDATION_ERROR"
	CodeUnauthenticated    = "UNAUTHENTICATED"
	CodeForbidden          = "FORBIDDEN"
	CodePermissionDenied   = "PERMISSION_DENIED"
	CodeConflict           = "CONFLICT"
	CodeBusinessRejected   = "BUSINESS_REJECTED"
	CodeBackendUnreachable = "BACKEND_UNREACHABLE"
	CodeInternal           = "INTERNAL_ERROR"
	CodeTimeout            = "TIMEOUT"
	CodeUnavailable        = "SERVICE_UNAVAILABLE"
	CodeInvalidInput       = "INVALID_INPUT"
	CodeRateLimited        = "RATE_LIMITED"
	CodeUnsupportedMedia   = "UNSUPPORTED_MEDIA_TYPE"
)

// LoginPath is where an unauthenticated client is sent.
const LoginPath = "/login"

type AppError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	Retryable  bool           `json:"retryable,omitempty"`
	Err        error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) StatusCode() int {
	if e.HTTPStatus == 0 {
		return http.StatusInternalServerError
	}
	return e.HTTPStatus
}

func (e *AppError) ToJSON() []byte {
	data, _ := json.Marshal(e.ToResponse())
	return data
}

func (e *AppError) ToResponse() ErrorResponse {
	return ErrorResponse{
		Code:      e.Code,
		Message:   e.Message,
		Details:   e.Details,
		Retryable: e.Retryable,
	}
}

type ErrorResponse struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Retryable bool           `json:"retryable,omitempty"`
}

func New(code, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

func Wrap(err error, code, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any, len(details))
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

func NotFound(resource string) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
	}
}

func NotFoundWithID(resource, id string) *AppError {
	return NotFound(resource).WithDetails(map[string]any{
		"resource": resource,
		"id":       id,
	})
}

func Validation(message string, details map[string]any) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    details,
	}
}

// MissingFields reports a form that is incomplete. The field names are
// listed under details.missing_fields.
func MissingFields(fields []string) *AppError {
	return Validation("Please fill in all required fields", map[string]any{
		"missing_fields": fields,
	})
}

func InvalidInput(message string) *AppError {
	return &AppError{
		Code:       CodeInvalidInput,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// Unauthenticated is the terminal "signed out" answer.
func Unauthenticated(message string) *AppError {
	return &AppError{
		Code:       CodeUnauthenticated,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
		Details:    map[string]any{"redirect": LoginPath},
	}
}

func Forbidden(message string) *AppError {
	return &AppError{
		Code:       CodeForbidden,
		Message:    message,
		HTTPStatus: http.StatusForbidden,
	}
}

// PermissionDenied reports a document-store authorization rejection for the
// given account.
func PermissionDenied(account string, err error) *AppError {
	if account == "" {
		return &AppError{
			Code:       CodePermissionDenied,
			Message:    "Permission denied",
			HTTPStatus: http.StatusForbidden,
			Err:        err,
		}
	}
	return &AppError{
		Code:       CodePermissionDenied,
		Message:    fmt.Sprintf("Permission denied for account %s", account),
		HTTPStatus: http.StatusForbidden,
		Details:    map[string]any{"account": account},
		Err:        err,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

// BusinessRejected carries the backend's own message. status is the backend
// status code; anything outside 4xx is reported as 422.
func BusinessRejected(message string, status int) *AppError {
	if status < 400 || status > 499 {
		status = http.StatusUnprocessableEntity
	}
	if message == "" {
		message = "The request was rejected"
	}
	return &AppError{
		Code:       CodeBusinessRejected,
		Message:    message,
		HTTPStatus: status,
	}
}

func BackendUnreachable(err error) *AppError {
	return &AppError{
		Code:       CodeBackendUnreachable,
		Message:    "Service is unreachable, check your connection and try again",
		HTTPStatus: http.StatusServiceUnavailable,
		Retryable:  true,
		Err:        err,
	}
}

func Internal(message string, err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func Timeout(message string) *AppError {
	return &AppError{
		Code:       CodeTimeout,
		Message:    message,
		HTTPStatus: http.StatusGatewayTimeout,
		Retryable:  true,
	}
}

func Unavailable(service string) *AppError {
	return &AppError{
		Code:       CodeUnavailable,
		Message:    fmt.Sprintf("%s is temporarily unavailable", service),
		HTTPStatus: http.StatusServiceUnavailable,
		Retryable:  true,
	}
}

func RateLimited() *AppError {
	return &AppError{
		Code:       CodeRateLimited,
		Message:    "Too many requests, slow down and try again",
		HTTPStatus: http.StatusTooManyRequests,
		Retryable:  true,
	}
}

func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// HasCode reports whether err is an AppError with the given code.
func HasCode(err error, code string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("An unexpected error occurred", err)
}
