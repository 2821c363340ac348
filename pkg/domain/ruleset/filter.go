package ruleset

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/felixgeelhaar/specguard/pkg/domain/compliance"
)

type idRange struct{ lo, hi int }

// IDFilter selects rules by id. The zero value selects everything.
type IDFilter struct {
	ranges []idRange
}

// ParseIDFilter parses a list such as "1-5,8,12-13".
func ParseIDFilter(s string) (IDFilter, error) {
	var f IDFilter
	s = strings.TrimSpace(s)
	if s == "" {
		return f, nil
	}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lo, hi, isRange := strings.Cut(part, "-")
		a, err := parseID(lo)
		if err != nil {
			return IDFilter{}, idFilterError(s, err)
		}
		b := a
		if isRange {
			if b, err = parseID(hi); err != nil {
				return IDFilter{}, idFilterError(s, err)
			}
			if b < a {
				return IDFilter{}, idFilterError(s, fmt.Errorf("range %s is reversed", part))
			}
		}
		f.ranges = append(f.ranges, idRange{a, b})
	}
	return f, nil
}

func parseID(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%q is not a rule id", strings.TrimSpace(s))
	}
	if n <= 0 {
		return 0, fmt.Errorf("rule ids are positive, got %d", n)
	}
	return n, nil
}

func idFilterError(input string, err error) error {
	return &compliance.ConfigError{Source: "--ids", Message: fmt.Sprintf("invalid id filter %q", input), Err: err}
}

// IsEmpty reports whether the filter selects every rule.
func (f IDFilter) IsEmpty() bool {
	return len(f.ranges) == 0
}

// Contains reports whether id is selected.
func (f IDFilter) Contains(id int) bool {
	if f.IsEmpty() {
		return true
	}
	for _, r := range f.ranges {
		if id >= r.lo && id <= r.hi {
			return true
		}
	}
	return false
}

// Select keeps the rules whose id the filter contains.
func (f IDFilter) Select(rules []compliance.RuleDef) []compliance.RuleDef {
	if f.IsEmpty() {
		return rules
	}
	var out []compliance.RuleDef
	for _, r := range rules {
		if f.Contains(r.ID) {
			out = append(out, r)
		}
	}
	return out
}

// SkipReason explains why rule does not apply to a project of the given type
// and scope. An empty string means the rule applies.
func SkipReason(rule compliance.RuleDef, projectType compliance.ProjectType, scope compliance.Scope) string {
	if rule.ProjectType != "" && rule.ProjectType != projectType {
		return fmt.Sprintf("project type %s: rule applies to %s projects", projectType, rule.ProjectType)
	}
	if !scope.Includes(rule.Scope) {
		return fmt.Sprintf("scope %s: rule requires %s", scope, rule.Scope)
	}
	return ""
}

// skipped is a check that does not apply to the current project.
type skipped struct {
	rule   compliance.RuleDef
	reason string
}

func (s skipped) Rule() compliance.RuleDef { return s.rule }

func (s skipped) Evaluate(*compliance.ScanContext) compliance.CheckResult {
	return compliance.Skip(s.reason)
}

// Gate replaces checks that do not apply to the project with skipping ones,
// so the result set still has one entry per rule.
func Gate(list []compliance.Check, projectType compliance.ProjectType, scope compliance.Scope) []compliance.Check {
	out := make([]compliance.Check, len(list))
	for i, c := range list {
		if reason := SkipReason(c.Rule(), projectType, scope); reason != "" {
			out[i] = skipped{rule: c.Rule(), reason: reason}
			continue
		}
		out[i] = c
	}
	return out
}
