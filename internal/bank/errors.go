package bank

import (
	"errors"
	"fmt"
)

var (
	// ErrNotAList is returned when a bank's top-level value is not a list of records.
	ErrNotAList = errors.New("question bank must be a list")
	// ErrInsufficientQuestions is matched by *InsufficientError.
	ErrInsufficientQuestions = errors.New("insufficient questions")
	// ErrUnknownFormat is returned for bank files with an unrecognised extension.
	ErrUnknownFormat = errors.New("unknown bank format")
)

// ValidationError describes the first schema violation found in a bank.
type ValidationError struct {
	QuestionID any // raw id value as found in the record
	Field      string
	Msg        string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("question %v: field '%s' %s", e.QuestionID, e.Field, e.Msg)
}

// InsufficientError reports a pool too small for the requested draw.
type InsufficientError struct {
	Available int
	Required  int
}

func (e *InsufficientError) Error() string {
	return fmt.Sprintf("need %d questions but only %d match the selected categories", e.Required, e.Available)
}

func (e *InsufficientError) Is(target error) bool {
	return target == ErrInsufficientQuestions
}
