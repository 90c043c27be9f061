// Package errors provides the error taxonomy and exit codes for i2cssh.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents the classification of errors
type ErrorType int

const (
	// UnknownErrorType represents unclassified errors
	UnknownErrorType ErrorType = iota

	// SetupErrorType represents invalid flags or option values
	SetupErrorType

	// InvalidHostSpecType represents an empty or malformed host string
	InvalidHostSpecType

	// UnknownClusterType represents a cluster name missing from the config file
	UnknownClusterType

	// NoHostsFoundType represents an invocation that resolved to zero hosts
	NoHostsFoundType

	// ConfigParseType represents an unreadable or malformed config file
	ConfigParseType

	// NoActiveWindowType represents a multiplexer without a current window
	NoActiveWindowType

	// MultiplexerType represents a failed call into the multiplexer
	MultiplexerType
)

// String returns a string representation of the error type
func (et ErrorType) String() string {
	switch et {
	case SetupErrorType:
		return "setup"
	case InvalidHostSpecType:
		return "invalid_host_spec"
	case UnknownClusterType:
		return "unknown_cluster"
	case NoHostsFoundType:
		return "no_hosts_found"
	case ConfigParseType:
		return "config_parse"
	case NoActiveWindowType:
		return "no_active_window"
	case MultiplexerType:
		return "multiplexer"
	default:
		return "unknown"
	}
}

// ExitCode returns the process exit status for the error type.
func (et ErrorType) ExitCode() int {
	switch et {
	case MultiplexerType:
		return 1
	case SetupErrorType:
		return 2
	case NoHostsFoundType:
		return 3
	case UnknownClusterType:
		return 4
	case NoActiveWindowType:
		return 5
	case ConfigParseType:
		return 6
	case InvalidHostSpecType:
		return 7
	default:
		return 2
	}
}

// ClassifiedError wraps an error with classification information
type ClassifiedError struct {
	Type     ErrorType
	Original error
	Message  string
}

// Error implements the error interface
func (ce *ClassifiedError) Error() string {
	switch {
	case ce.Message != "" && ce.Original != nil:
		return fmt.Sprintf("%s: %v", ce.Message, ce.Original)
	case ce.Message != "":
		return ce.Message
	case ce.Original != nil:
		return ce.Original.Error()
	}
	return "unknown error"
}

// Unwrap returns the original error for error unwrapping
func (ce *ClassifiedError) Unwrap() error {
	return ce.Original
}

// Is reports whether target is a ClassifiedError of the same type, so that
// errors.Is(err, errors.NoHostsFound) style checks work on wrapped errors.
func (ce *ClassifiedError) Is(target error) bool {
	t, ok := target.(*ClassifiedError)
	if !ok {
		return false
	}
	return t.Type == ce.Type && t.Message == "" && t.Original == nil
}

// Sentinels for errors.Is comparisons.
var (
	ErrSetup           = &ClassifiedError{Type: SetupErrorType}
	ErrInvalidHostSpec = &ClassifiedError{Type: InvalidHostSpecType}
	ErrUnknownCluster  = &ClassifiedError{Type: UnknownClusterType}
	ErrNoHostsFound    = &ClassifiedError{Type: NoHostsFoundType}
	ErrConfigParse     = &ClassifiedError{Type: ConfigParseType}
	ErrNoActiveWindow  = &ClassifiedError{Type: NoActiveWindowType}
	ErrMultiplexer     = &ClassifiedError{Type: MultiplexerType}
)

// TypeOf returns the classification of err, looking through wrapping.
func TypeOf(err error) ErrorType {
	var ce *ClassifiedError
	if stderrors.As(err, &ce) {
		return ce.Type
	}
	return UnknownErrorType
}

// ExitCode determines the process exit status for err.
// Returns 0 for nil and 2 for unclassified errors.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return TypeOf(err).ExitCode()
}

// NewSetupError creates a new setup error
func NewSetupError(message string, original error) *ClassifiedError {
	return &ClassifiedError{Type: SetupErrorType, Message: message, Original: original}
}

// NewInvalidHostSpec creates an error for an unusable host string
func NewInvalidHostSpec(spec string, reason string) *ClassifiedError {
	return &ClassifiedError{
		Type:    InvalidHostSpecType,
		Message: fmt.Sprintf("invalid host specification %q: %s", spec, reason),
	}
}

// NewUnknownCluster creates an error for a cluster missing from the config
func NewUnknownCluster(name string) *ClassifiedError {
	return &ClassifiedError{
		Type:    UnknownClusterType,
		Message: fmt.Sprintf("unknown cluster %q", name),
	}
}

// NewNoHostsFound creates the error raised when nothing resolved to a host
func NewNoHostsFound() *ClassifiedError {
	return &ClassifiedError{Type: NoHostsFoundType, Message: "No hosts found"}
}

// NewConfigParseError creates an error for an unreadable config file
func NewConfigParseError(path string, original error) *ClassifiedError {
	return &ClassifiedError{
		Type:     ConfigParseType,
		Message:  fmt.Sprintf("failed to parse config file %s", path),
		Original: original,
	}
}

// NewNoActiveWindow creates the error raised when the multiplexer has no current window
func NewNoActiveWindow(original error) *ClassifiedError {
	return &ClassifiedError{Type: NoActiveWindowType, Message: "No current window", Original: original}
}

// NewMultiplexerError creates an error for a failed multiplexer call
func NewMultiplexerError(message string, original error) *ClassifiedError {
	return &ClassifiedError{Type: MultiplexerType, Message: message, Original: original}
}
