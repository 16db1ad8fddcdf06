package services

import (
	"errors"
	"strings"

	"folio/validation"
)

var (
	// ErrNotInitialized 는 저장소가 구성되지 않았을 때(mongo.uri 미설정) 반환된다.
	ErrNotInitialized = errors.New("post store is not initialized")
	ErrNotFound       = errors.New("not found")
	// ErrConflict 는 slug 충돌이다.
	ErrConflict   = errors.New("a post with this slug already exists")
	ErrValidation = errors.New("validation failed")
)

// ValidationError carries every field-level failure of a request.
// errors.Is(err, ErrValidation) holds for it.
type ValidationError struct {
	Fields []validation.FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.String())
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func newValidationError(fields ...validation.FieldError) *ValidationError {
	return &ValidationError{Fields: fields}
}
