package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/OndrejSlamecka/s5upload/internal/sync"
)

var green = color.New(color.FgHiGreen).SprintFunc()

// exitError carries the process exit code for err.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func (e *exitError) Unwrap() error { return e.err }

func exitErr(code int, err error) error {
	return &exitError{code: code, err: err}
}

// exitCode maps an error returned by the root command to an exit code. Errors
// that carry no code come from cobra itself, i.e. bad arguments.
func exitCode(err error) int {
	if err == nil {
		return Success
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return CmdLineOptionError
}

// printPlan writes one "+\t/key" line per planned upload.
func printPlan(out io.Writer, plan sync.Plan) {
	for _, a := range plan {
		fmt.Fprintf(out, "%s\t/%s\n", green("+"), a.Key)
	}
}
