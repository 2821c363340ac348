// Package compliance defines the rule, result and report model shared by the
// compliance engine, the declarative runner and the builtin handlers.
package compliance

import (
	"fmt"
	"strings"
)

// Severity is the importance attached to a rule and to each violation it produces.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// ParseSeverity normalises a severity name. Matching is case-insensitive.
func ParseSeverity(s string) (Severity, error) {
	switch Severity(strings.ToLower(strings.TrimSpace(s))) {
	case SeverityError:
		return SeverityError, nil
	case SeverityWarning:
		return SeverityWarning, nil
	case SeverityInfo:
		return SeverityInfo, nil
	}
	return "", fmt.Errorf("unknown severity %q (want error, warning or info)", s)
}

// CheckKind selects the evaluator for a rule.
type CheckKind string

const (
	KindFileExists            CheckKind = "file_exists"
	KindDirExists             CheckKind = "dir_exists"
	KindDirNotExists          CheckKind = "dir_not_exists"
	KindFileContentMatches    CheckKind = "file_content_matches"
	KindFileContentNotMatches CheckKind = "file_content_not_matches"
	KindGlobContentMatches    CheckKind = "glob_content_matches"
	KindGlobContentNotMatches CheckKind = "glob_content_not_matches"
	KindGlobNamingMatches     CheckKind = "glob_naming_matches"
	KindGlobNamingNotMatches  CheckKind = "glob_naming_not_matches"
	KindBuiltin               CheckKind = "builtin"
)

// DeclarativeKinds lists every kind the generic evaluator understands.
var DeclarativeKinds = []CheckKind{
	KindFileExists,
	KindDirExists,
	KindDirNotExists,
	KindFileContentMatches,
	KindFileContentNotMatches,
	KindGlobContentMatches,
	KindGlobContentNotMatches,
	KindGlobNamingMatches,
	KindGlobNamingNotMatches,
}

// IsValid reports whether k is a declarative kind or builtin.
func (k CheckKind) IsValid() bool {
	if k == KindBuiltin {
		return true
	}
	for _, d := range DeclarativeKinds {
		if d == k {
			return true
		}
	}
	return false
}

// ProjectType restricts a rule to one class of project.
type ProjectType string

const (
	ProjectOpenSource ProjectType = "open_source"
	ProjectInternal   ProjectType = "internal"
)

// ParseProjectType accepts the canonical names plus a few common spellings.
func ParseProjectType(s string) (ProjectType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "open_source", "open-source", "opensource", "oss":
		return ProjectOpenSource, nil
	case "internal", "private":
		return ProjectInternal, nil
	}
	return "", fmt.Errorf("unknown project type %q (want open_source or internal)", s)
}

// Scope is a cumulative size tier: small ⊂ medium ⊂ large.
type Scope string

const (
	ScopeSmall  Scope = "small"
	ScopeMedium Scope = "medium"
	ScopeLarge  Scope = "large"
)

// ParseScope normalises a scope tier name.
func ParseScope(s string) (Scope, error) {
	switch Scope(strings.ToLower(strings.TrimSpace(s))) {
	case ScopeSmall:
		return ScopeSmall, nil
	case ScopeMedium:
		return ScopeMedium, nil
	case ScopeLarge:
		return ScopeLarge, nil
	}
	return "", fmt.Errorf("unknown scope %q (want small, medium or large)", s)
}

func (s Scope) rank() int {
	switch s {
	case ScopeSmall:
		return 1
	case ScopeMedium:
		return 2
	case ScopeLarge:
		return 3
	}
	return 0
}

// Includes reports whether a rule tagged with tier applies to a project of scope s.
// An untagged rule applies everywhere.
func (s Scope) Includes(tier Scope) bool {
	if tier == "" {
		return true
	}
	return tier.rank() <= s.rank()
}

// RuleDef is one record of a rule document.
type RuleDef struct {
	ID          int         `json:"id"`
	Category    string      `json:"category"`
	Description string      `json:"description"`
	Severity    Severity    `json:"severity"`
	Kind        CheckKind   `json:"type"`
	Handler     string      `json:"handler,omitempty"`
	Path        string      `json:"path,omitempty"`
	Glob        string      `json:"glob,omitempty"`
	Pattern     string      `json:"pattern,omitempty"`
	ProjectType ProjectType `json:"project_type,omitempty"`
	Scope       Scope       `json:"scope,omitempty"`
	Message     string      `json:"message,omitempty"`
}

// IsBuiltin reports whether the rule delegates to a named handler.
func (r RuleDef) IsBuiltin() bool {
	return r.Kind == KindBuiltin
}

// Target returns the handler name for builtin rules and the kind otherwise.
func (r RuleDef) Target() string {
	if r.IsBuiltin() {
		return "builtin:" + r.Handler
	}
	return string(r.Kind)
}
