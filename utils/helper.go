package utils

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ProcessValidationErrors flattens validator errors into field -> failed tag.
func ProcessValidationErrors(err error) map[string]string {
	errorResponse := make(map[string]string)

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return errorResponse
	}
	for _, ve := range validationErrors {
		errorResponse[ve.Field()] = ve.Tag()
	}
	return errorResponse
}

// safely dereference pointer of type T, nil pointer return zero value or optional default
func DereferencePtr[T any](ptr *T, defaults ...T) T {
	var defaultValue T
	if len(defaults) > 0 {
		defaultValue = defaults[0]
	}
	if ptr == nil {
		return defaultValue
	}
	return *ptr
}

func NilIfEmpty[T comparable](ptr T) *T {
	var defaultZero T
	if ptr == defaultZero {
		return nil
	}
	return &ptr
}

// SplitAndTrim splits a comma separated env value, dropping blanks.
func SplitAndTrim(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
