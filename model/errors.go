package model

import (
	"github.com/pkg/errors"
)

var (
	ValidationError = errors.New("validation failed")
	maskAny         = errors.WithStack
)

// IsValidationError returns true if the given error is caused by a ValidationError.
func IsValidationError(err error) bool {
	return err == ValidationError || errors.Cause(err) == ValidationError
}
