package continuity

import (
	"errors"
	"fmt"
)

// Error codes carried by ScanError.
const (
	CodeValidationFailure = "VALIDATION_FAILURE"
	CodeNotFound          = "NOT_FOUND"
	CodeStoreFailure      = "STORE_FAILURE"
)

// ScanError is the engine's error type. Code is a stable machine-readable
// string; EntityID names the entity the error is about when there is one.
type ScanError struct {
	Code     string
	Message  string
	EntityID string
	Err      error
}

func (e *ScanError) Error() string {
	msg := e.Message
	if e.EntityID != "" {
		msg = fmt.Sprintf("%s (entity %s)", msg, e.EntityID)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

func (e *ScanError) Unwrap() error {
	return e.Err
}

// NewValidationError builds a VALIDATION_FAILURE error.
func NewValidationError(entityID, message string) *ScanError {
	return &ScanError{Code: CodeValidationFailure, Message: message, EntityID: entityID}
}

// NewNotFoundError builds a NOT_FOUND error.
func NewNotFoundError(entityID, message string) *ScanError {
	return &ScanError{Code: CodeNotFound, Message: message, EntityID: entityID}
}

// NewStoreError wraps a storage failure.
func NewStoreError(message string, err error) *ScanError {
	return &ScanError{Code: CodeStoreFailure, Message: message, Err: err}
}

func isCode(err error, code string) bool {
	var se *ScanError
	return errors.As(err, &se) && se.Code == code
}

// IsNotFound reports whether err is a NOT_FOUND scan error.
func IsNotFound(err error) bool { return isCode(err, CodeNotFound) }

// IsValidation reports whether err is a VALIDATION_FAILURE scan error.
func IsValidation(err error) bool { return isCode(err, CodeValidationFailure) }

// IsStoreFailure reports whether err is a STORE_FAILURE scan error.
func IsStoreFailure(err error) bool { return isCode(err, CodeStoreFailure) }
