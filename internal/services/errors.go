package services

import (
	"errors"
	"fmt"

	"github.com/SAP-F-2025/exam-desk/internal/validator"
)

var (
	ErrQuestionNotFound   = errors.New("question not found")
	ErrTemplateNotFound   = errors.New("template not found")
	ErrStudentNotFound    = errors.New("student not found")
	ErrTestNotFound       = errors.New("test not found")
	ErrTestHasNoQuestions = errors.New("test has no questions")
	ErrStudentExists      = errors.New("a student with this name already exists")
	ErrNoQuestionsMatched = errors.New("no questions found matching criteria")
)

// NewValidationError builds a single-field validation failure.
func NewValidationError(field, message string, value any) error {
	return validator.ValidationErrors{{Field: field, Message: message, Value: value}}
}

// IsNotFound reports whether err is one of the service not-found errors.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrQuestionNotFound) ||
		errors.Is(err, ErrTemplateNotFound) ||
		errors.Is(err, ErrStudentNotFound) ||
		errors.Is(err, ErrTestNotFound) ||
		errors.Is(err, ErrNoQuestionsMatched)
}

// IsConflict reports whether err is caused by existing state.
func IsConflict(err error) bool {
	return errors.Is(err, ErrStudentExists)
}

// EngineError wraps a failure reported by the analysis engine.
type EngineError struct {
	Operation string
	Err       error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("%s: %v", e.Operation, e.Err)
}

func (e *EngineError) Unwrap() error { return e.Err }
