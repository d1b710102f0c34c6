package apperrors

import (
	"fmt"

	"github.com/pkg/errors"
)

// Sentinel error kinds surfaced to the transport boundary. Layers wrap
// these with pkg/errors so errors.Is still classifies them after wrapping.
var (
	// ErrNotFound covers absent trips, places and items, including
	// found-but-nothing-changed updates
	ErrNotFound = errors.New("not found")

	// ErrForbidden means the caller lacks ownership or share access
	ErrForbidden = errors.New("forbidden")

	// ErrItemsNotFound means one or more ids in a batch reorder do not exist
	ErrItemsNotFound = errors.New("one or more items not found")

	// ErrPersistence is the generic storage-layer failure kind
	ErrPersistence = errors.New("persistence failure")
)

// ValidationError reports a missing or invalid request field. Detected
// before any mutation; the operation is blocked entirely.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validationf builds a ValidationError for a field
func Validationf(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError and
// returns it for field-level reporting
func IsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
