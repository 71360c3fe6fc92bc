package grading

import (
	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core"
)

var (
	// not found
	ErrStudentNotFound    = errors.New("student not found")
	ErrSubjectNotFound    = errors.New("subject not found")
	ErrCutNotFound        = errors.New("cut not found")
	ErrGradeNotFound      = errors.New("grade not found")
	ErrFinalGradeNotFound = errors.New("final grade not found")

	// constraint violations
	ErrStudentCodeExists    = errors.New("a student with this code already exists")
	ErrSubjectNameExists    = errors.New("a subject with this name already exists")
	ErrCutNumberExists      = errors.New("this subject already has a cut with this number")
	ErrCutSubjectMismatch   = errors.New("cut does not belong to this subject")
	ErrFinalGradeOutOfRange = errors.New("computed final grade is out of range")

	ErrSubjectRequired = errors.New("a subject is required")
)

// IsNotFound reports whether err was caused by an identifier that does not resolve.
func IsNotFound(err error) bool {
	switch errors.Cause(err) {
	case ErrStudentNotFound, ErrSubjectNotFound, ErrCutNotFound, ErrGradeNotFound, ErrFinalGradeNotFound:
		return true
	default:
		return false
	}
}

// IsConstraintViolation reports whether err was caused by a uniqueness or range constraint.
func IsConstraintViolation(err error) bool {
	switch errors.Cause(err) {
	case ErrStudentCodeExists, ErrSubjectNameExists, ErrCutNumberExists, ErrCutSubjectMismatch, ErrFinalGradeOutOfRange:
		return true
	default:
		return false
	}
}

// RangeError reports an out-of-range value on one of the bounded fields:
// "value" (grade), "percentage" or "number" (cut).
func RangeError(field string, cause error) error {
	var text string
	switch field {
	case "value":
		text = gradeValueText
	case "percentage":
		text = percentageText
	case "number":
		text = cutNumberText
	default:
		text = "value out of range"
	}
	return core.NewValidationError(cause, core.FieldError{Field: field, Error: text})
}

// fieldError turns a constraint sentinel into a validation error on the matching input field.
// Any other error is returned unchanged.
func fieldError(err error) error {
	var field string
	switch errors.Cause(err) {
	case ErrStudentCodeExists:
		field = "code"
	case ErrSubjectNameExists:
		field = "name"
	case ErrCutNumberExists:
		field = "number"
	case ErrCutSubjectMismatch:
		field = "cut_id"
	case ErrSubjectRequired:
		field = "subject"
	default:
		return err
	}
	cause := errors.Cause(err)
	return core.NewValidationError(cause, core.FieldError{Field: field, Error: cause.Error()})
}
