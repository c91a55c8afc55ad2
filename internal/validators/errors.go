package validators

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedType = errors.New("unsupported type for validation")
	ErrUnknownField    = errors.New("unknown field for validation")

	ErrInvalidOpID         = errors.New("operation id must be a UUID")
	ErrInvalidEntryID      = errors.New("entry id must be a UUID")
	ErrInvalidKind         = errors.New("unknown operation kind")
	ErrEmptyDeviceID       = errors.New("origin device id is required")
	ErrInvalidLogicalClock = errors.New("logical clock must be positive")
	ErrStaleLogicalClock   = errors.New("logical clock is not greater than the last clock issued by the device")
	ErrEmptyWallClock      = errors.New("wall clock is required")
	ErrMissingPayload      = errors.New("payload is required for create and update")
	ErrEmptyEmotion        = errors.New("emotion label is required")
	ErrEmotionTooLong      = errors.New("emotion label is too long")
	ErrCategoryTooLong     = errors.New("category tag is too long")
	ErrNoteTooLong         = errors.New("note is too long")
	ErrInvalidVersion      = errors.New("version must be greater than base version")
	ErrVersionNotAssigned  = errors.New("version is not assigned")
	ErrEmptyOperations     = errors.New("operations list cannot be empty")
	ErrForeignOperation    = errors.New("operation was issued by a different device")
	ErrEntryExists         = errors.New("entry already exists")
	ErrEntryMissing        = errors.New("entry does not exist")
	ErrEntryDeleted        = errors.New("entry is already deleted")
)

// ValidationError reports a malformed operation or request.
// Operations failing validation are rejected locally and never queued.
type ValidationError struct {
	Field string
	Err   error
}

// NewValidationError wraps err as a ValidationError for field.
func NewValidationError(field string, err error) *ValidationError {
	return &ValidationError{Field: field, Err: err}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation failed: %v", e.Err)
	}
	return fmt.Sprintf("validation failed on %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// IsValidationError reports whether err carries a ValidationError.
func IsValidationError(err error) bool {
	var vErr *ValidationError
	return errors.As(err, &vErr)
}
