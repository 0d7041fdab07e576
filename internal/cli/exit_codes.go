package cli

import (
	"errors"
	"fmt"

	clierrors "github.com/ariel-frischer/bumpkit/internal/errors"
)

// Exit codes for the bumpkit CLI
// These codes support programmatic composition and CI/CD integration
const (
	// ExitSuccess indicates successful command execution
	ExitSuccess = 0

	// ExitRuntimeError indicates the release failed part way
	ExitRuntimeError = 1

	// ExitInvalidArguments indicates invalid command arguments
	ExitInvalidArguments = 3

	// ExitConfigError indicates an invalid configuration or a repository
	// that is not ready for a release
	ExitConfigError = 4
)

// ExitError carries an exit code for errors that were already reported.
type ExitError struct {
	Code int
}

// NewExitError returns an ExitError with the given code.
func NewExitError(code int) *ExitError {
	return &ExitError{Code: code}
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// ExitCode maps an error returned by a command onto a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	if cliErr := clierrors.AsCLIError(err); cliErr != nil {
		switch cliErr.Category {
		case clierrors.Argument:
			return ExitInvalidArguments
		case clierrors.Configuration, clierrors.Prerequisite:
			return ExitConfigError
		}
	}
	return ExitRuntimeError
}
