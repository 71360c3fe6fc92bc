package core

import "github.com/pkg/errors"

// FieldError is a message about one input field, keyed by its json name.
type FieldError struct {
	Field string
	Error string
}

// ValidationError is returned when input is rejected after struct validation:
// a uniqueness clash, a reference to the wrong subject or an out-of-range value.
// Err holds the underlying cause, if any. Over HTTP it becomes a 400 with FieldMap as body.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err != nil {
		return err.Err.Error()
	}
	if len(err.Fields) > 0 {
		return err.Fields[0].Field + ": " + err.Fields[0].Error
	}
	return "validation failed"
}

// FieldMap returns the field errors as field -> message; nil when there are none.
func (err ValidationError) FieldMap() map[string]string {
	if len(err.Fields) == 0 {
		return nil
	}
	fields := make(map[string]string, len(err.Fields))
	for _, fErr := range err.Fields {
		fields[fErr.Field] = fErr.Error
	}
	return fields
}

// shutdown errors stop the API gracefully once the current request is answered.
type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
