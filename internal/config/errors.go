package config

import (
	"errors"
	"time"
)

// Sentinel errors for internal use.
var (
	ErrInvalidConfig       = errors.New("invalid configuration")
	ErrInvalidAddress      = errors.New("invalid wallet address")
	ErrRPCExhausted        = errors.New("all RPC endpoints failed")
	ErrProviderRateLimit   = errors.New("provider rate limit exceeded")
	ErrProviderUnavailable = errors.New("provider unavailable")
	ErrScanFailed          = errors.New("wallet scan failed")
	ErrScanNotFound        = errors.New("scan not found")
	ErrScanAlreadyRunning  = errors.New("scan already running for this wallet")
	ErrReportNotFound      = errors.New("report not found")
	ErrNoInstructions      = errors.New("transaction has no instructions")
	ErrSOLTxTooLarge       = errors.New("SOL transaction exceeds 1232 byte limit")
	ErrExportFailed        = errors.New("report export failed")
)

// TransientError wraps an error that should be retried.
type TransientError struct {
	Err        error
	RetryAfter time.Duration // 0 = use default backoff
}

func (e *TransientError) Error() string { return e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// NewTransientError wraps an error as transient (retriable).
func NewTransientError(err error) error {
	return &TransientError{Err: err}
}

// NewTransientErrorWithRetry wraps with explicit retry delay.
func NewTransientErrorWithRetry(err error, retryAfter time.Duration) error {
	return &TransientError{Err: err, RetryAfter: retryAfter}
}

// IsTransient returns true if the error is transient (retriable).
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// GetRetryAfter returns the retry delay if set, or 0.
func GetRetryAfter(err error) time.Duration {
	var te *TransientError
	if errors.As(err, &te) {
		return te.RetryAfter
	}
	return 0
}

// Error codes shared with clients via API responses.
const (
	ErrorInvalidAddress      = "ERROR_INVALID_ADDRESS"
	ErrorInvalidRequest      = "ERROR_INVALID_REQUEST"
	ErrorScanFailed          = "ERROR_SCAN_FAILED"
	ErrorScanNotFound        = "ERROR_SCAN_NOT_FOUND"
	ErrorScanAlreadyRunning  = "ERROR_SCAN_ALREADY_RUNNING"
	ErrorReportNotFound      = "ERROR_REPORT_NOT_FOUND"
	ErrorProviderRateLimit   = "ERROR_PROVIDER_RATE_LIMIT"
	ErrorProviderUnavailable = "ERROR_PROVIDER_UNAVAILABLE"
	ErrorTxBuildFailed       = "ERROR_TX_BUILD_FAILED"
	ErrorTxTooLarge          = "ERROR_TX_TOO_LARGE"
	ErrorDatabase            = "ERROR_DATABASE"
	ErrorExportFailed        = "ERROR_EXPORT_FAILED"
	ErrorInvalidConfig       = "ERROR_INVALID_CONFIG"
)
