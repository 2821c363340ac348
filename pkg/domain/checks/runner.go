// Package checks interprets declarative rules: existence, content and naming
// conditions expressed entirely in the rule document.
package checks

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"strings"

	"github.com/felixgeelhaar/specguard/pkg/domain/compliance"
)

// Check evaluates one declarative rule.
type Check struct {
	rule    compliance.RuleDef
	pattern *regexp.Regexp
}

// New validates rule and compiles its pattern.
func New(rule compliance.RuleDef) (*Check, error) {
	if rule.IsBuiltin() || !rule.Kind.IsValid() {
		return nil, fmt.Errorf("kind %q is not declarative", rule.Kind)
	}
	c := &Check{rule: rule}

	if needsPath(rule.Kind) && strings.TrimSpace(rule.Path) == "" {
		return nil, fmt.Errorf("kind %s requires path", rule.Kind)
	}
	if needsGlob(rule.Kind) {
		if rule.Glob == "" {
			return nil, fmt.Errorf("kind %s requires glob", rule.Kind)
		}
		if !ValidGlob(rule.Glob) {
			return nil, fmt.Errorf("invalid glob %q", rule.Glob)
		}
	}
	if needsPattern(rule.Kind) {
		if rule.Pattern == "" {
			return nil, fmt.Errorf("kind %s requires pattern", rule.Kind)
		}
		re, err := regexp.Compile(rule.Pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", rule.Pattern, err)
		}
		c.pattern = re
	}
	return c, nil
}

func needsPath(k compliance.CheckKind) bool {
	switch k {
	case compliance.KindFileExists, compliance.KindDirExists, compliance.KindDirNotExists,
		compliance.KindFileContentMatches, compliance.KindFileContentNotMatches:
		return true
	}
	return false
}

func needsGlob(k compliance.CheckKind) bool {
	switch k {
	case compliance.KindGlobContentMatches, compliance.KindGlobContentNotMatches,
		compliance.KindGlobNamingMatches, compliance.KindGlobNamingNotMatches:
		return true
	}
	return false
}

func needsPattern(k compliance.CheckKind) bool {
	return k != compliance.KindFileExists && k != compliance.KindDirExists && k != compliance.KindDirNotExists
}

// Rule returns the definition the check was built from.
func (c *Check) Rule() compliance.RuleDef {
	return c.rule
}

// Evaluate runs the check against ctx.
func (c *Check) Evaluate(ctx *compliance.ScanContext) compliance.CheckResult {
	return c.evaluate(ctx).Stamp(c.rule.ID, c.rule.Severity)
}

func (c *Check) evaluate(ctx *compliance.ScanContext) compliance.CheckResult {
	r := c.rule
	switch r.Kind {
	case compliance.KindFileExists:
		if ctx.FileExists(r.Path) {
			return compliance.Pass()
		}
		return c.fail(r.Path, "file %s does not exist", r.Path)

	case compliance.KindDirExists:
		if ctx.DirExists(r.Path) {
			return compliance.Pass()
		}
		return c.fail(r.Path, "directory %s does not exist", r.Path)

	case compliance.KindDirNotExists:
		if !ctx.DirExists(r.Path) {
			return compliance.Pass()
		}
		return c.fail(r.Path, "directory %s should not exist", r.Path)

	case compliance.KindFileContentMatches, compliance.KindFileContentNotMatches:
		return c.fileContent(ctx)

	case compliance.KindGlobContentMatches, compliance.KindGlobContentNotMatches:
		return c.globContent(ctx)

	case compliance.KindGlobNamingMatches, compliance.KindGlobNamingNotMatches:
		return c.globNaming(ctx)
	}
	return compliance.Skip(fmt.Sprintf("unsupported kind %s", r.Kind))
}

func (c *Check) fileContent(ctx *compliance.ScanContext) compliance.CheckResult {
	r := c.rule
	if !ctx.FileExists(r.Path) {
		return compliance.Skip(fmt.Sprintf("%s not found", r.Path))
	}
	data, err := ctx.ReadFile(r.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return compliance.Skip(fmt.Sprintf("%s not found", r.Path))
		}
		return compliance.Skip(fmt.Sprintf("cannot read %s: %v", r.Path, err))
	}

	matched := c.pattern.Match(data)
	if r.Kind == compliance.KindFileContentMatches && !matched {
		return c.fail(r.Path, "%s does not match /%s/", r.Path, r.Pattern)
	}
	if r.Kind == compliance.KindFileContentNotMatches && matched {
		return c.fail(r.Path, "%s matches forbidden /%s/", r.Path, r.Pattern)
	}
	return compliance.Pass()
}

func (c *Check) globContent(ctx *compliance.ScanContext) compliance.CheckResult {
	r := c.rule
	files := FilterGlob(ctx.Files, r.Glob)
	if len(files) == 0 {
		return compliance.Skip(fmt.Sprintf("no files match %s", r.Glob))
	}

	want := r.Kind == compliance.KindGlobContentMatches
	var violations []compliance.Violation
	for _, f := range files {
		data, err := ctx.ReadFile(f)
		if err != nil {
			violations = append(violations, c.violation(f, "cannot read %s: %v", f, err))
			continue
		}
		matched := c.pattern.Match(data)
		switch {
		case want && !matched:
			violations = append(violations, c.violation(f, "%s does not match /%s/", f, r.Pattern))
		case !want && matched:
			violations = append(violations, c.violation(f, "%s matches forbidden /%s/", f, r.Pattern))
		}
	}
	return compliance.Fail(violations...)
}

func (c *Check) globNaming(ctx *compliance.ScanContext) compliance.CheckResult {
	r := c.rule
	files := FilterGlob(ctx.Files, r.Glob)
	if len(files) == 0 {
		return compliance.Skip(fmt.Sprintf("no files match %s", r.Glob))
	}

	want := r.Kind == compliance.KindGlobNamingMatches
	var violations []compliance.Violation
	for _, f := range files {
		matched := c.pattern.MatchString(path.Base(f))
		switch {
		case want && !matched:
			violations = append(violations, c.violation(f, "name of %s does not match /%s/", f, r.Pattern))
		case !want && matched:
			violations = append(violations, c.violation(f, "name of %s matches forbidden /%s/", f, r.Pattern))
		}
	}
	return compliance.Fail(violations...)
}

func (c *Check) fail(file, format string, args ...any) compliance.CheckResult {
	return compliance.Fail(c.violation(file, format, args...))
}

func (c *Check) violation(file, format string, args ...any) compliance.Violation {
	msg := fmt.Sprintf(format, args...)
	if c.rule.Message != "" {
		msg += " (" + c.rule.Message + ")"
	}
	return compliance.Violation{File: file, Message: msg}
}
