package main

import (
	"errors"
	"fmt"
	"io"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitGeneral   = 1
	exitConfig    = 2
	exitQuery     = 3
	exitDBConnect = 4
)

// exitError wraps an error with an exit code.
type exitError struct {
	code    int
	message string
	err     error
}

func (e *exitError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.message, e.err)
	}
	return e.message
}

func (e *exitError) Unwrap() error { return e.err }

func configError(msg string, err error) *exitError {
	return &exitError{code: exitConfig, message: msg, err: err}
}

func queryError(msg string, err error) *exitError {
	return &exitError{code: exitQuery, message: msg, err: err}
}

func dbConnectError(msg string, err error) *exitError {
	return &exitError{code: exitDBConnect, message: msg, err: err}
}

// reportError prints err and returns the exit code it maps to.
func reportError(w io.Writer, err error) int {
	_, _ = fmt.Fprintln(w, "Error:", err)
	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}
	return exitGeneral
}
