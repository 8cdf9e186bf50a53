package booking

import "errors"

var (
	ErrValidation              = errors.New("validation error")
	ErrConflict                = errors.New("dates already booked")
	ErrUnauthorized            = errors.New("unauthorized")
	ErrNotFound                = errors.New("booking not found")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
)

// ValidationError carries a message that is safe to show to the guest.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}
