package criteria

import (
	"errors"
	"fmt"
)

const ReasonInvalidFormat = "invalid format"

var (
	ErrBlankDocument      = errors.New("criteria document is blank")
	ErrMalformedDocument  = errors.New("criteria document is not valid yaml")
	ErrInvalidFormat      = errors.New(ReasonInvalidFormat)
	ErrCriteriaNotFound   = errors.New("criteria not found")
	ErrCriterionNotFound  = errors.New("criterion not found")
	ErrAssignmentNotFound = errors.New("assignment not found")
	ErrDuplicateName      = errors.New("criterion name already taken")
)

// InvalidFormatError rejects a single document entry. Detail is kept for logs;
// the report only carries the shared reason.
type InvalidFormatError struct {
	Name   string
	Detail string
}

func (e *InvalidFormatError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("criterion %q: %s", e.Name, ReasonInvalidFormat)
	}
	return fmt.Sprintf("criterion %q: %s: %s", e.Name, ReasonInvalidFormat, e.Detail)
}

func (e *InvalidFormatError) Unwrap() error { return ErrInvalidFormat }

func invalid(name, format string, args ...any) error {
	return &InvalidFormatError{Name: name, Detail: fmt.Sprintf(format, args...)}
}
