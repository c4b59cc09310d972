// Package errors provides standardized error handling for the loan
// origination pipeline.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeGatewayCallFailed      ErrorCode = "GATEWAY_CALL_FAILED"
	ErrCodeGatewayTimeout         ErrorCode = "GATEWAY_TIMEOUT"
	ErrCodeSchemaValidationFailed ErrorCode = "SCHEMA_VALIDATION_FAILED"

	ErrCodeVerificationFailed   ErrorCode = "VERIFICATION_FAILED"
	ErrCodeInvalidApplicantData ErrorCode = "INVALID_APPLICANT_DATA"

	ErrCodeDataSourceUnavailable ErrorCode = "DATA_SOURCE_UNAVAILABLE"
	ErrCodeDataFetchFailed       ErrorCode = "DATA_FETCH_FAILED"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeDatabaseInsertFailed     ErrorCode = "DATABASE_INSERT_FAILED"
	ErrCodeApplicationNotFound      ErrorCode = "APPLICATION_NOT_FOUND"

	ErrCodeProgressCacheFailed    ErrorCode = "PROGRESS_CACHE_FAILED"
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. Error Constructors
// ==========================

// NewGatewayCallFailedError creates a non-retryable gateway error. Model
// calls are never retried; callers fall back to closed-fail records instead.
func NewGatewayCallFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeGatewayCallFailed,
		Message:   "Model gateway call failed",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewGatewayTimeoutError creates a non-retryable gateway timeout error.
func NewGatewayTimeoutError() *StandardError {
	return &StandardError{
		Code:      ErrCodeGatewayTimeout,
		Message:   "Model gateway call timed out",
		Details:   "call exceeded the configured timeout",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSchemaValidationFailedError creates a non-retryable error for model
// output that does not match the requested response schema.
func NewSchemaValidationFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSchemaValidationFailed,
		Message:   "Model output failed schema validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidApplicantDataError creates a non-retryable input validation error.
func NewInvalidApplicantDataError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidApplicantData,
		Message:   "Applicant data validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDataSourceUnavailableError creates a non-retryable data source error.
func NewDataSourceUnavailableError(source string) *StandardError {
	return &StandardError{
		Code:      ErrCodeDataSourceUnavailable,
		Message:   "Financial data source unavailable",
		Details:   fmt.Sprintf("source: %s", source),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDataFetchFailedError creates a retryable data fetch error.
func NewDataFetchFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDataFetchFailed,
		Message:   "Financial data fetch failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseInsertFailedError creates a retryable database insert error.
func NewDatabaseInsertFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseInsertFailed,
		Message:   "Database insert operation failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewApplicationNotFoundError creates a non-retryable lookup error.
func NewApplicationNotFoundError(applicationID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeApplicationNotFound,
		Message:   "Application not found",
		Details:   fmt.Sprintf("applicationId: %s", applicationID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewProgressCacheFailedError creates a retryable progress cache error.
func NewProgressCacheFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeProgressCacheFailed,
		Message:   "Progress cache operation failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError creates a retryable notification send error.
func NewNotificationSendFailedError(notificationType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("type: %s, error: %s", notificationType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// Generic constructors

func NewBusinessRuleError(message, details string) *StandardError {
	return &StandardError{
		Code:      "BUSINESS_RULE_VIOLATION",
		Message:   message,
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewExternalServiceError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "EXTERNAL_SERVICE_ERROR",
		Message:   fmt.Sprintf("External service '%s' error", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Utility Functions
// ==========================

// IsRetryable reports whether err is a StandardError flagged retryable.
func IsRetryable(err error) bool {
	if stdErr, ok := err.(*StandardError); ok {
		return stdErr.Retryable
	}
	return false
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "GATEWAY") || strings.Contains(codeStr, "SCHEMA"):
		return "MODEL_GATEWAY"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "APPLICATION"):
		return "DATABASE"
	case strings.Contains(codeStr, "DATA_"):
		return "DATA_SOURCE"
	case strings.Contains(codeStr, "NOTIFICATION") || strings.Contains(codeStr, "PROGRESS"):
		return "DELIVERY"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VERIFICATION"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
