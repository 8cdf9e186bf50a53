package validator

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate returns field -> failed tag, or nil when v is valid.
func Validate(v any) map[string]string {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"_": err.Error()}
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = fe.Tag()
	}
	return out
}

// Struct is Validate flattened into a single error for startup checks.
func Struct(v any) error {
	fields := Validate(v)
	if len(fields) == 0 {
		return nil
	}
	parts := make([]string, 0, len(fields))
	for f, tag := range fields {
		parts = append(parts, fmt.Sprintf("%s failed %q", f, tag))
	}
	sort.Strings(parts)
	return fmt.Errorf("invalid configuration: %s", strings.Join(parts, ", "))
}
