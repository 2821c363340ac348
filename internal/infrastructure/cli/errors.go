package cli

import (
	"errors"
	"fmt"

	"github.com/felixgeelhaar/specguard/pkg/domain/compliance"
)

// Exit codes.
const (
	ExitOK      = 0
	ExitFailed  = 1
	ExitInvalid = 2
)

// CLIError wraps domain errors with user-facing messages and actionable hints.
type CLIError struct {
	Message  string
	Hint     string
	Err      error
	ExitCode int
}

func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a CLIError with a default exit code of 1.
func NewCLIError(msg, hint string, err error) *CLIError {
	return &CLIError{
		Message:  msg,
		Hint:     hint,
		Err:      err,
		ExitCode: ExitFailed,
	}
}

// failures reports check or spec failures. The findings were already
// printed, so only the count is repeated.
func failures(format string, args ...any) *CLIError {
	return &CLIError{Message: fmt.Sprintf(format, args...), ExitCode: ExitFailed}
}

// MapError converts known domain errors into CLIErrors with actionable hints.
// Unmapped errors are returned as-is.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return cliErr
	}

	var pathErr *compliance.PathError
	if errors.As(err, &pathErr) {
		return &CLIError{
			Message:  "invalid project path",
			Hint:     "Pass an existing directory, e.g. 'specguard scan .'",
			Err:      err,
			ExitCode: ExitInvalid,
		}
	}

	var cfgErr *compliance.ConfigError
	if errors.As(err, &cfgErr) {
		hint := "Run 'specguard rules list' to see a valid rule set"
		switch {
		case cfgErr.Handler != "":
			hint = "Run 'specguard rules handlers' to list the builtin handlers"
		case cfgErr.Line > 0:
			hint = fmt.Sprintf("Fix the TOML syntax on line %d of %s", cfgErr.Line, cfgErr.Source)
		case cfgErr.Source == "--ids":
			hint = "Use comma-separated ids and ranges, e.g. --ids 1-5,8"
		}
		return &CLIError{
			Message:  "invalid configuration",
			Hint:     hint,
			Err:      err,
			ExitCode: ExitInvalid,
		}
	}

	return err
}
