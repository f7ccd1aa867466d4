package errors

import "fmt"

// ErrorCode represents a pillbox error code.
type ErrorCode string

const (
	ErrInvalidRequest    ErrorCode = "INVALID_REQUEST"     // 400
	ErrNotFound          ErrorCode = "NOT_FOUND"           // 404
	ErrFileNotFound      ErrorCode = "FILE_NOT_FOUND"      // 404
	ErrDuplicateDoseTime ErrorCode = "DUPLICATE_DOSE_TIME" // 409
	ErrImportMalformed   ErrorCode = "IMPORT_MALFORMED"    // 422
	ErrPersistence       ErrorCode = "PERSISTENCE"         // 503
	ErrInternal          ErrorCode = "INTERNAL"            // 500
)

// PillboxError represents a structured error with code, status, and details.
type PillboxError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *PillboxError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *PillboxError {
	return &PillboxError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for a medication that cannot be found.
func NewNotFound(identifier string) *PillboxError {
	return &PillboxError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("medication not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewFileNotFound creates a 404 error for a missing import/export file.
func NewFileNotFound(path string) *PillboxError {
	return &PillboxError{
		Code:    ErrFileNotFound,
		Status:  404,
		Message: fmt.Sprintf("file not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewDuplicateDoseTime creates a 409 error for repeated dose times within
// one medication.
func NewDuplicateDoseTime(timeOfDay string) *PillboxError {
	return &PillboxError{
		Code:    ErrDuplicateDoseTime,
		Status:  409,
		Message: fmt.Sprintf("dose time %s appears more than once", timeOfDay),
		Details: map[string]any{"time": timeOfDay},
	}
}

// NewImportMalformed creates a 422 error for a rejected import document.
// Nothing has been written when this is returned.
func NewImportMalformed(msg string) *PillboxError {
	return &PillboxError{
		Code:    ErrImportMalformed,
		Status:  422,
		Message: msg,
	}
}

// NewPersistence creates a 503 error for a failed durable write. The failure
// is transient from the user's point of view; the caller surfaces a notice
// and may retry.
func NewPersistence(err error) *PillboxError {
	msg := "persistence failure"
	if err != nil {
		msg = fmt.Sprintf("persistence failure: %v", err)
	}
	return &PillboxError{
		Code:    ErrPersistence,
		Status:  503,
		Message: msg,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *PillboxError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &PillboxError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is a PillboxError with the given code.
func Is(err error, code ErrorCode) bool {
	if pErr, ok := err.(*PillboxError); ok {
		return pErr.Code == code
	}
	return false
}
