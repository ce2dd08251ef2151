package errors

import "fmt"

// InvalidInputError covers missing or malformed request fields and
// disallowed file types. Callers must not retry without changing the request.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return e.Reason
}

// NewInvalidInputError creates an InvalidInputError with a formatted reason.
func NewInvalidInputError(format string, args ...interface{}) error {
	return &InvalidInputError{Reason: fmt.Sprintf(format, args...)}
}

// StagingError covers fetch, extraction, and filesystem failures while
// materializing uploaded content. A retry needs a fresh scan id.
type StagingError struct {
	Reason string
	Err    error
}

func (e *StagingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *StagingError) Unwrap() error {
	return e.Err
}

// NewStagingError creates a StagingError wrapping the underlying cause.
func NewStagingError(reason string, err error) error {
	return &StagingError{Reason: reason, Err: err}
}

// ConfigNotFoundError indicates no persisted configuration exists for the
// scan id; the caller must upload first.
type ConfigNotFoundError struct {
	ScanID string
}

func (e *ConfigNotFoundError) Error() string {
	return fmt.Sprintf("no scan configuration found for %q", e.ScanID)
}

func NewConfigNotFoundError(scanID string) error {
	return &ConfigNotFoundError{ScanID: scanID}
}

// TimeoutError indicates the external executor exceeded its wall-clock
// budget and was terminated. Partial artifacts may still be inspectable.
type TimeoutError struct {
	ScanID  string
	Timeout string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("scan %q timed out after %s", e.ScanID, e.Timeout)
}

func NewTimeoutError(scanID, timeout string) error {
	return &TimeoutError{ScanID: scanID, Timeout: timeout}
}
