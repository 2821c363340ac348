package compliance

import "sort"

// Status is the tri-state outcome of a check.
type Status string

const (
	StatusPass Status = "pass"
	StatusFail Status = "fail"
	StatusSkip Status = "skip"
)

// Violation is a single finding. CheckID always names the originating rule.
type Violation struct {
	CheckID  int      `json:"check_id"`
	File     string   `json:"file,omitempty"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// CheckResult is exactly one of Pass, Fail(violations) or Skip(reason).
// Build it with Pass, Fail or Skip; the zero value is not a valid result.
type CheckResult struct {
	Status     Status      `json:"status"`
	Violations []Violation `json:"violations,omitempty"`
	Reason     string      `json:"reason,omitempty"`
}

// Pass returns a passing result.
func Pass() CheckResult {
	return CheckResult{Status: StatusPass}
}

// Fail returns a failing result. Fail with no violations is a pass.
func Fail(violations ...Violation) CheckResult {
	if len(violations) == 0 {
		return Pass()
	}
	return CheckResult{Status: StatusFail, Violations: violations}
}

// Skip returns an intentional non-result.
func Skip(reason string) CheckResult {
	return CheckResult{Status: StatusSkip, Reason: reason}
}

func (r CheckResult) Passed() bool  { return r.Status == StatusPass }
func (r CheckResult) Failed() bool  { return r.Status == StatusFail }
func (r CheckResult) Skipped() bool { return r.Status == StatusSkip }

// Stamp fills in the check id and default severity on every violation and
// orders violations by file then message so reports are deterministic.
func (r CheckResult) Stamp(id int, severity Severity) CheckResult {
	if r.Status != StatusFail {
		return r
	}
	out := make([]Violation, len(r.Violations))
	for i, v := range r.Violations {
		v.CheckID = id
		if v.Severity == "" {
			v.Severity = severity
		}
		out[i] = v
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].File != out[j].File {
			return out[i].File < out[j].File
		}
		return out[i].Message < out[j].Message
	})
	r.Violations = out
	return r
}
