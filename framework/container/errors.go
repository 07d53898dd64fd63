package container

import (
	"errors"
	"fmt"
	"strings"
)

// ErrShutdown is returned for references requested after Shutdown.
var ErrShutdown = errors.New("container: shut down")

// DeploymentError collects every defect found while deploying. It is
// returned once, after the whole pipeline has run.
type DeploymentError struct {
	Errs []error
}

func (e *DeploymentError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "container: deployment failed with %d error(s)", len(e.Errs))
	for _, err := range e.Errs {
		sb.WriteString("\n  - ")
		sb.WriteString(err.Error())
	}
	return sb.String()
}

// Unwrap exposes the individual defects to errors.Is and errors.As.
func (e *DeploymentError) Unwrap() []error { return e.Errs }
