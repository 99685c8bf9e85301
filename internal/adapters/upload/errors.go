package upload

import "errors"

var (
	// ErrNoFile is returned when the multipart form carries no "file" part.
	ErrNoFile = errors.New("no file uploaded")
	// ErrInvalidUpload marks a file rejected by name validation.
	ErrInvalidUpload = errors.New("invalid upload")
	// ErrTooLarge is returned when the request body exceeds the configured limit.
	ErrTooLarge = errors.New("upload too large")
)

// ValidationError carries the translated message of the first failed rule.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Is reports ErrInvalidUpload so callers can branch with errors.Is.
func (e *ValidationError) Is(target error) bool { return target == ErrInvalidUpload }
