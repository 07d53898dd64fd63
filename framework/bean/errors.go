package bean

import (
	"fmt"
	"sync"

	"go.uber.org/multierr"
)

// ConfigurationError reports an ill-formed declaration. Class and Method
// name the offender; Method is empty for class-level problems.
type ConfigurationError struct {
	Class  string
	Method string
	Msg    string
	Err    error
}

func (e *ConfigurationError) Error() string {
	where := e.Class
	if e.Method != "" {
		where += "." + e.Method
	}
	if e.Err != nil {
		return fmt.Sprintf("configuration error in %s: %s: %v", where, e.Msg, e.Err)
	}
	return fmt.Sprintf("configuration error in %s: %s", where, e.Msg)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// Configf builds a ConfigurationError.
func Configf(class, method, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Class: class, Method: method, Msg: fmt.Sprintf(format, args...)}
}

// ErrorStack accumulates deployment defects so they can be reported
// together.
type ErrorStack struct {
	mu  sync.Mutex
	err error
}

// Push records err. Nil errors are ignored.
func (s *ErrorStack) Push(err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = multierr.Append(s.err, err)
}

// HasErrors reports whether anything was pushed.
func (s *ErrorStack) HasErrors() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err != nil
}

// Errors returns every recorded defect in push order.
func (s *ErrorStack) Errors() []error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return multierr.Errors(s.err)
}

// Err returns the combined error, or nil.
func (s *ErrorStack) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Clear forgets every recorded defect.
func (s *ErrorStack) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = nil
}
