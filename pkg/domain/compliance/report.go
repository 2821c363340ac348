package compliance

import (
	"sort"
	"time"
)

// Tool identity stamped on every report. Version is overridden at build time.
var (
	ToolName    = "specguard"
	ToolVersion = "dev"
)

// RuleResult pairs a rule summary with its outcome.
type RuleResult struct {
	ID          int         `json:"id"`
	Category    string      `json:"category"`
	Description string      `json:"description"`
	Severity    Severity    `json:"severity"`
	Check       string      `json:"check"`
	Result      CheckResult `json:"result"`
}

// Summary counts results by status.
type Summary struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// ScanReport is the immutable outcome of one scan.
type ScanReport struct {
	Tool         string       `json:"tool"`
	Version      string       `json:"version"`
	Timestamp    string       `json:"timestamp"`
	ProjectRoot  string       `json:"project_root"`
	ProjectType  ProjectType  `json:"project_type"`
	ProjectScope Scope        `json:"project_scope"`
	Results      []RuleResult `json:"results"`
	Summary      Summary      `json:"summary"`
}

// NewScanReport orders results by rule id and computes the summary.
func NewScanReport(ctx *ScanContext, results []RuleResult, now time.Time) *ScanReport {
	ordered := make([]RuleResult, len(results))
	copy(ordered, results)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	var sum Summary
	for _, r := range ordered {
		sum.Total++
		switch r.Result.Status {
		case StatusPass:
			sum.Passed++
		case StatusFail:
			sum.Failed++
		case StatusSkip:
			sum.Skipped++
		}
	}

	return &ScanReport{
		Tool:         ToolName,
		Version:      ToolVersion,
		Timestamp:    now.UTC().Format(time.RFC3339),
		ProjectRoot:  ctx.Root,
		ProjectType:  ctx.ProjectType,
		ProjectScope: ctx.Scope,
		Results:      ordered,
		Summary:      sum,
	}
}

// NewRuleResult summarises rule and attaches result.
func NewRuleResult(rule RuleDef, result CheckResult) RuleResult {
	return RuleResult{
		ID:          rule.ID,
		Category:    rule.Category,
		Description: rule.Description,
		Severity:    rule.Severity,
		Check:       rule.Target(),
		Result:      result,
	}
}

// HasFailures reports whether any check failed.
func (r *ScanReport) HasFailures() bool {
	return r.Summary.Failed > 0
}

// Violations flattens every violation in id order.
func (r *ScanReport) Violations() []Violation {
	var out []Violation
	for _, res := range r.Results {
		out = append(out, res.Result.Violations...)
	}
	return out
}
