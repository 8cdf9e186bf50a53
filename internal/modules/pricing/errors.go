package pricing

import "errors"

var (
	ErrValidation = errors.New("validation error")
	ErrBadMonth   = errors.New("month must be YYYY-MM")
)
