package common

import (
	"errors"
	"fmt"
)

// Sentinel errors for the request-recoverable failure taxonomy. Handlers
// match on these with errors.Is and surface user-facing messages; none of
// them is fatal to the process.
var (
	// ErrValidation covers user-correctable signup field issues.
	ErrValidation = errors.New("validation error")

	// ErrAuthentication is the single generic credential failure. It does
	// not distinguish an unknown username from a wrong password.
	ErrAuthentication = errors.New("invalid username or password")

	// ErrUnsupportedFileType rejects an upload before anything is stored.
	ErrUnsupportedFileType = errors.New("unsupported file type")

	// ErrImageDecode means the stored bytes are not a decodable raster
	// image. Callers log it and show a generic processing notice.
	ErrImageDecode = errors.New("image decode error")
)

func NewErrorf(format string, a ...any) error {
	msg := fmt.Sprintf(format, a...)
	return errors.New(msg)
}

// NewValidationError wraps ErrValidation with a field-level message suitable
// for inline form display.
func NewValidationError(format string, a ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, a...))
}
