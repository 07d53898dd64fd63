package specialization

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is.
var (
	// ErrInconsistentSpecialization covers missing, disabled or ambiguous
	// specialized beans.
	ErrInconsistentSpecialization = errors.New("inconsistent specialization")
	// ErrDefinition covers ill-defined specializing beans, such as a
	// redeclared name.
	ErrDefinition = errors.New("definition error")
)

// Error names the class whose specialization failed.
type Error struct {
	Class string
	Msg   string
	Kind  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v: %s: %s", e.Kind, e.Class, e.Msg)
}

func (e *Error) Unwrap() error { return e.Kind }

func inconsistent(class, format string, args ...any) *Error {
	return &Error{Class: class, Msg: fmt.Sprintf(format, args...), Kind: ErrInconsistentSpecialization}
}

func definition(class, format string, args ...any) *Error {
	return &Error{Class: class, Msg: fmt.Sprintf(format, args...), Kind: ErrDefinition}
}
