package compliance

import (
	"errors"
	"fmt"
)

var (
	// ErrPath marks errors about the scanned root itself.
	ErrPath = errors.New("path error")

	// ErrConfig marks malformed or inconsistent rule configuration.
	ErrConfig = errors.New("config error")
)

// PathError reports a root that does not exist or is not a directory.
type PathError struct {
	Path   string
	Reason string
	Err    error
}

func (e *PathError) Error() string {
	msg := fmt.Sprintf("path %q: %s", e.Path, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *PathError) Unwrap() error { return e.Err }

// Is allows errors.Is(err, ErrPath).
func (e *PathError) Is(target error) bool {
	return target == ErrPath
}

// ConfigError reports a rule document that cannot be turned into checks.
// Line is set for syntax errors, RuleID for rule-level problems.
type ConfigError struct {
	Source  string
	Line    int
	RuleID  int
	Handler string
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	msg := "config"
	if e.Source != "" {
		msg += " " + e.Source
	}
	switch {
	case e.Line > 0:
		msg += fmt.Sprintf(": line %d", e.Line)
	case e.RuleID > 0:
		msg += fmt.Sprintf(": rule %d", e.RuleID)
	}
	msg += ": " + e.Message
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Is allows errors.Is(err, ErrConfig).
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfig
}
