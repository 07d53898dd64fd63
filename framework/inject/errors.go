package inject

import (
	"errors"
	"fmt"
	"strings"

	"github.com/km-arc/go-webbeans/framework/metadata"
)

// Sentinels matched by the typed errors below.
var (
	ErrUnsatisfied = errors.New("unsatisfied dependency")
	ErrAmbiguous   = errors.New("ambiguous dependency")
)

// UnsatisfiedError reports that no enabled bean matches a request.
type UnsatisfiedError struct {
	Type       string
	Qualifiers []metadata.Qualifier
	Point      string
}

func (e *UnsatisfiedError) Error() string {
	msg := fmt.Sprintf("unsatisfied dependency: no bean of type %s with qualifiers %s", e.Type, qualifierList(e.Qualifiers))
	if e.Point != "" {
		msg += " for injection point " + e.Point
	}
	return msg
}

func (e *UnsatisfiedError) Is(target error) bool { return target == ErrUnsatisfied }

// AmbiguousError reports several beans left after narrowing.
type AmbiguousError struct {
	Type       string
	Qualifiers []metadata.Qualifier
	Candidates []string
	Point      string
}

func (e *AmbiguousError) Error() string {
	msg := fmt.Sprintf("ambiguous dependency: type %s with qualifiers %s matches %s",
		e.Type, qualifierList(e.Qualifiers), strings.Join(e.Candidates, ", "))
	if e.Point != "" {
		msg += " for injection point " + e.Point
	}
	return msg
}

func (e *AmbiguousError) Is(target error) bool { return target == ErrAmbiguous }

func qualifierList(qs []metadata.Qualifier) string {
	parts := make([]string, len(qs))
	for i, q := range qs {
		parts[i] = q.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}
