package cmd

import "errors"

// Exit codes returned by ExitCode.
const (
	exitUser   = 1 // bad input, unknown entry, not signed in
	exitSystem = 2 // storage or network failure
	exitEditor = 3 // the external editor failed
)

type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func userError(err error) error   { return &exitError{code: exitUser, err: err} }
func systemError(err error) error { return &exitError{code: exitSystem, err: err} }
func editorError(err error) error { return &exitError{code: exitEditor, err: err} }

// ExitCode maps an error returned by Execute to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var e *exitError
	if errors.As(err, &e) {
		return e.code
	}
	return exitUser
}
