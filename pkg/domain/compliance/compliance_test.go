package compliance_test

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/felixgeelhaar/specguard/pkg/domain/compliance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckResult_Constructors(t *testing.T) {
	assert.True(t, compliance.Pass().Passed())
	assert.True(t, compliance.Skip("no specs").Skipped())
	assert.Equal(t, "no specs", compliance.Skip("no specs").Reason)

	// Fail without violations collapses to pass.
	assert.True(t, compliance.Fail().Passed())

	res := compliance.Fail(compliance.Violation{Message: "missing"})
	assert.True(t, res.Failed())
	assert.Len(t, res.Violations, 1)
}

func TestCheckResult_Stamp(t *testing.T) {
	res := compliance.Fail(
		compliance.Violation{File: "b.md", Message: "x"},
		compliance.Violation{File: "a.md", Message: "y", Severity: compliance.SeverityInfo},
	).Stamp(7, compliance.SeverityError)

	require.Len(t, res.Violations, 2)
	assert.Equal(t, "a.md", res.Violations[0].File)
	assert.Equal(t, 7, res.Violations[0].CheckID)
	assert.Equal(t, compliance.SeverityInfo, res.Violations[0].Severity)
	assert.Equal(t, compliance.SeverityError, res.Violations[1].Severity)

	skip := compliance.Skip("r").Stamp(3, compliance.SeverityError)
	assert.Equal(t, compliance.StatusSkip, skip.Status)
}

func TestScope_Includes(t *testing.T) {
	tests := []struct {
		project compliance.Scope
		tier    compliance.Scope
		want    bool
	}{
		{compliance.ScopeSmall, "", true},
		{compliance.ScopeSmall, compliance.ScopeSmall, true},
		{compliance.ScopeSmall, compliance.ScopeMedium, false},
		{compliance.ScopeMedium, compliance.ScopeMedium, true},
		{compliance.ScopeLarge, compliance.ScopeMedium, true},
		{compliance.ScopeMedium, compliance.ScopeLarge, false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%s", tt.project, tt.tier), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.project.Includes(tt.tier))
		})
	}
}

func TestParseEnums(t *testing.T) {
	sev, err := compliance.ParseSeverity("Warning")
	require.NoError(t, err)
	assert.Equal(t, compliance.SeverityWarning, sev)
	_, err = compliance.ParseSeverity("fatal")
	assert.Error(t, err)

	pt, err := compliance.ParseProjectType("open-source")
	require.NoError(t, err)
	assert.Equal(t, compliance.ProjectOpenSource, pt)
	_, err = compliance.ParseProjectType("hobby")
	assert.Error(t, err)

	sc, err := compliance.ParseScope("LARGE")
	require.NoError(t, err)
	assert.Equal(t, compliance.ScopeLarge, sc)
	_, err = compliance.ParseScope("huge")
	assert.Error(t, err)

	assert.True(t, compliance.KindGlobNamingMatches.IsValid())
	assert.True(t, compliance.KindBuiltin.IsValid())
	assert.False(t, compliance.CheckKind("file_missing").IsValid())
}

func TestErrors_Is(t *testing.T) {
	var err error = &compliance.ConfigError{Handler: "nonexistent", Message: `unknown handler "nonexistent"`}
	assert.True(t, errors.Is(err, compliance.ErrConfig))
	assert.False(t, errors.Is(err, compliance.ErrPath))
	assert.Contains(t, err.Error(), "nonexistent")

	err = fmt.Errorf("wrapped: %w", &compliance.PathError{Path: "/nope", Reason: "does not exist"})
	assert.True(t, errors.Is(err, compliance.ErrPath))

	line := &compliance.ConfigError{Source: "rules.toml", Line: 4, Message: "syntax error"}
	assert.Equal(t, "config rules.toml: line 4: syntax error", line.Error())
}

func TestScanContext_PathsAndMemo(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "docs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "README.md"), []byte("# hi"), 0o600))

	ctx := compliance.NewScanContext(root, []string{"README.md"}, compliance.ProjectInternal, compliance.ScopeLarge, nil)
	assert.True(t, ctx.FileExists("README.md"))
	assert.True(t, ctx.DirExists("docs"))
	assert.False(t, ctx.DirExists("README.md"))
	assert.False(t, ctx.FileExists("../etc/passwd"))
	assert.True(t, ctx.HasFile("./README.md"))

	data, err := ctx.ReadFile("README.md")
	require.NoError(t, err)
	assert.Equal(t, "# hi", string(data))

	name, ok := ctx.FindRootFile("readme")
	assert.True(t, ok)
	assert.Equal(t, "README.md", name)

	calls := 0
	build := func() any { calls++; return 42 }
	assert.Equal(t, 42, ctx.Memo("k", build))
	assert.Equal(t, 42, ctx.Memo("k", build))
	assert.Equal(t, 1, calls)
}

func TestDetectProjectType(t *testing.T) {
	assert.Equal(t, compliance.ProjectOpenSource, compliance.DetectProjectType([]string{"LICENSE", "main.go"}))
	assert.Equal(t, compliance.ProjectOpenSource, compliance.DetectProjectType([]string{"COPYING.txt"}))
	assert.Equal(t, compliance.ProjectInternal, compliance.DetectProjectType([]string{"docs/LICENSE", "README.md"}))
}

func TestNewScanReport_OrdersAndCounts(t *testing.T) {
	ctx := compliance.NewScanContext("/tmp/p", nil, compliance.ProjectOpenSource, compliance.ScopeSmall, nil)
	results := []compliance.RuleResult{
		compliance.NewRuleResult(compliance.RuleDef{ID: 3, Kind: compliance.KindFileExists}, compliance.Skip("x")),
		compliance.NewRuleResult(compliance.RuleDef{ID: 1, Kind: compliance.KindFileExists}, compliance.Pass()),
		compliance.NewRuleResult(compliance.RuleDef{ID: 2, Kind: compliance.KindBuiltin, Handler: "readme_title"},
			compliance.Fail(compliance.Violation{CheckID: 2, Message: "m"})),
	}
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.FixedZone("x", 3600))
	report := compliance.NewScanReport(ctx, results, now)

	assert.Equal(t, "2026-01-02T02:04:05Z", report.Timestamp)
	assert.Equal(t, []int{1, 2, 3}, []int{report.Results[0].ID, report.Results[1].ID, report.Results[2].ID})
	assert.Equal(t, compliance.Summary{Total: 3, Passed: 1, Failed: 1, Skipped: 1}, report.Summary)
	assert.Equal(t, "builtin:readme_title", report.Results[1].Check)
	assert.True(t, report.HasFailures())
	assert.Len(t, report.Violations(), 1)
}

func TestLifecycle_Transitions(t *testing.T) {
	lc, err := compliance.NewLifecycle("/tmp")
	require.NoError(t, err)
	assert.Equal(t, compliance.StageIdle, lc.Stage())

	for _, ev := range []string{
		compliance.EventLoad, compliance.EventBuild, compliance.EventScan,
		compliance.EventEvaluate, compliance.EventReport, compliance.EventFinish,
	} {
		require.NoError(t, lc.Advance(ev), ev)
	}
	assert.Equal(t, compliance.StageDone, lc.Stage())
	assert.Error(t, lc.Advance(compliance.EventLoad))

	require.NoError(t, lc.Advance(compliance.EventReset))
	require.NoError(t, lc.Advance(compliance.EventLoad))
	require.NoError(t, lc.Advance(compliance.EventFail))
	assert.True(t, lc.Failed())
}
