package process

import (
	"fmt"
	"strings"
)

// ExitError reports a command that ran but exited nonzero
type ExitError struct {
	Command string
	Args    []string
	Code    int
	Stderr  string
	err     error
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s %s exited with code %d", e.Command, strings.Join(e.Args, " "), e.Code)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *ExitError) Unwrap() error {
	return e.err
}
