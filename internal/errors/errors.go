// Package errors provides the structured errors bumpkit reports to users:
// a category that selects the exit code, a message, and remediation steps.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies a CLIError.
type ErrorCategory int

const (
	// Argument errors come from invalid flags or flag combinations.
	Argument ErrorCategory = iota
	// Configuration errors come from an unusable config file or value.
	Configuration
	// Prerequisite errors mean the repository or a bump file is not in a
	// usable state.
	Prerequisite
	// Runtime errors happen while releasing.
	Runtime
)

var categoryNames = [...]string{
	Argument:      "Argument Error",
	Configuration: "Configuration Error",
	Prerequisite:  "Prerequisite Error",
	Runtime:       "Runtime Error",
}

func (c ErrorCategory) String() string {
	if c < 0 || int(c) >= len(categoryNames) {
		return "Error"
	}
	return categoryNames[c]
}

// CLIError is what bumpkit prints when a command fails.
type CLIError struct {
	Category    ErrorCategory
	Message     string
	Remediation []string
	// Usage is the correct command syntax, for argument errors.
	Usage string
	Err   error
}

func (e *CLIError) Error() string { return e.Message }

func (e *CLIError) Unwrap() error { return e.Err }

func newError(category ErrorCategory, message string, remediation []string) *CLIError {
	return &CLIError{Category: category, Message: message, Remediation: remediation}
}

func NewArgumentError(message string, remediation ...string) *CLIError {
	return newError(Argument, message, remediation)
}

// NewArgumentErrorWithUsage is NewArgumentError with the correct syntax
// printed below the message.
func NewArgumentErrorWithUsage(message, usage string, remediation ...string) *CLIError {
	e := newError(Argument, message, remediation)
	e.Usage = usage
	return e
}

func NewConfigError(message string, remediation ...string) *CLIError {
	return newError(Configuration, message, remediation)
}

func NewPrerequisiteError(message string, remediation ...string) *CLIError {
	return newError(Prerequisite, message, remediation)
}

func NewRuntimeError(message string, remediation ...string) *CLIError {
	return newError(Runtime, message, remediation)
}

// Wrap categorizes err, keeping its message. It returns nil for a nil err.
func Wrap(err error, category ErrorCategory, remediation ...string) *CLIError {
	if err == nil {
		return nil
	}
	e := newError(category, err.Error(), remediation)
	e.Err = err
	return e
}

// WrapWithMessage is Wrap with message prepended to err's text.
func WrapWithMessage(err error, category ErrorCategory, message string, remediation ...string) *CLIError {
	if err == nil {
		return nil
	}
	e := newError(category, fmt.Sprintf("%s: %v", message, err), remediation)
	e.Err = err
	return e
}

// AsCLIError finds the first CLIError in err's chain, or returns nil.
func AsCLIError(err error) *CLIError {
	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return cliErr
	}
	return nil
}
