package models

import (
	"errors"
	"fmt"
)

// Error codes used in API responses and internal error handling.
const (
	ErrCodeTimeout      = "CAPTURE_TIMEOUT"
	ErrCodeNavigation   = "NAVIGATION_FAILED"
	ErrCodeBrowserCrash = "BROWSER_CRASH"
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeRateLimited  = "RATE_LIMITED"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeInternal     = "INTERNAL_ERROR"

	// ErrCodeCollaboratorTimeout marks a per-region await that ran out.
	// It fails that region's presence check and nothing else.
	ErrCodeCollaboratorTimeout = "COLLABORATOR_TIMEOUT"

	// ErrCodeBestEffort marks a failed optional interaction (consent
	// dismissal). Such errors are logged and dropped, never reported.
	ErrCodeBestEffort = "BEST_EFFORT"
)

// ErrorDetail is the structured error in API responses.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CheckError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type CheckError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *CheckError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *CheckError) Unwrap() error {
	return e.Err
}

// NewCheckError creates a new CheckError.
func NewCheckError(code, message string, err error) *CheckError {
	return &CheckError{Code: code, Message: message, Err: err}
}

// ToDetail converts an internal error to an API-facing ErrorDetail.
func (e *CheckError) ToDetail() *ErrorDetail {
	return &ErrorDetail{Code: e.Code, Message: e.Message}
}

// BestEffort wraps err as an ignorable failure of an optional step.
func BestEffort(step string, err error) error {
	return NewCheckError(ErrCodeBestEffort, step, err)
}

// IsBestEffort reports whether err is (or wraps) a best-effort failure.
func IsBestEffort(err error) bool {
	return CodeOf(err) == ErrCodeBestEffort
}

// CollaboratorTimeout records that the page never produced what a region
// waited for.
func CollaboratorTimeout(region string, err error) error {
	return NewCheckError(ErrCodeCollaboratorTimeout, "timed out waiting for "+region, err)
}

// CodeOf returns the code of the outermost CheckError in err's chain, or ""
// if there is none.
func CodeOf(err error) string {
	var ce *CheckError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}
