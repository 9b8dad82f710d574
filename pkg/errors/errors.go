package errors

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrLoanNotFound          = errors.New("loan not found")
	ErrInvalidBatchRequest   = errors.New("invalid batch request")
	ErrInvalidProjection     = errors.New("invalid projection request")
	ErrHistoryIncomplete     = errors.New("payment history incomplete")
	ErrNotificationFailed    = errors.New("notification failed")
	ErrJobAlreadyRunning     = errors.New("job already running")
	ErrInvalidPaymentHistory = errors.New("invalid payment history")
)

// BusinessError represents a business logic error
type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error codes
const (
	ErrCodeLoanNotFound        = "LOAN_NOT_FOUND"
	ErrCodeInvalidBatchRequest = "INVALID_BATCH_REQUEST"
	ErrCodeInvalidProjection   = "INVALID_PROJECTION"
	ErrCodeHistoryIncomplete   = "HISTORY_INCOMPLETE"
	ErrCodeDatabaseError       = "DATABASE_ERROR"
	ErrCodeCacheError          = "CACHE_ERROR"
	ErrCodeNotifyError         = "NOTIFY_ERROR"
	ErrCodeJobAlreadyRunning   = "JOB_ALREADY_RUNNING"
)

// CodeOf returns the business error code carried by err, or "" when err is not a BusinessError.
func CodeOf(err error) string {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}

// Wrap common errors with business context
func WrapLoanNotFound(loanID string) *BusinessError {
	return NewBusinessError(
		ErrCodeLoanNotFound,
		fmt.Sprintf("Loan with ID %s not found", loanID),
		ErrLoanNotFound,
	)
}

func WrapInvalidBatchRequest(reason string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidBatchRequest,
		reason,
		ErrInvalidBatchRequest,
	)
}

func WrapInvalidProjection(reason string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidProjection,
		reason,
		ErrInvalidProjection,
	)
}

func WrapHistoryIncomplete(tagged, real int) *BusinessError {
	return NewBusinessError(
		ErrCodeHistoryIncomplete,
		fmt.Sprintf("%d installments recorded in tags but only %d payment rows exist; synthesize history first", tagged, real),
		ErrHistoryIncomplete,
	)
}

func WrapDatabaseError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeDatabaseError,
		"database operation failed",
		err,
	)
}

func WrapCacheError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeCacheError,
		"Cache operation failed",
		err,
	)
}

func WrapNotifyError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeNotifyError,
		"notification delivery failed",
		fmt.Errorf("%w: %v", ErrNotificationFailed, err),
	)
}

func WrapJobAlreadyRunning(job string) *BusinessError {
	return NewBusinessError(
		ErrCodeJobAlreadyRunning,
		fmt.Sprintf("Job %s is already running on another instance", job),
		ErrJobAlreadyRunning,
	)
}
