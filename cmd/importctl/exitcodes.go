package main

import "github.com/go-faster/errors"

type cliError struct {
	code int
	err  error
}

func (e *cliError) Error() string {
	return e.err.Error()
}

func (e *cliError) Unwrap() error {
	return e.err
}

const (
	exitOK        = 0
	exitRowErrors = 1
	exitUsage     = 2
	exitFatal     = 3
)

func withCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &cliError{code: code, err: err}
}

// exitCode maps err onto the process exit status. Errors cobra raises on
// its own (unknown command, bad args) count as usage errors.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var ce *cliError
	if errors.As(err, &ce) {
		return ce.code
	}
	return exitUsage
}
