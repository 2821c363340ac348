package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/felixgeelhaar/specguard/pkg/domain/compliance"
	"github.com/felixgeelhaar/specguard/pkg/domain/ruleset"
	"github.com/felixgeelhaar/specguard/pkg/storage"
)

// ScanRequest describes one compliance run.
type ScanRequest struct {
	Root      string
	RulesPath string
	// IDs restricts the run to a rule id list such as "1-5,8".
	IDs string
	// ProjectType is detected from the tree when empty.
	ProjectType string
	// Scope defaults to large.
	Scope string
	// Parallel bounds concurrent check evaluation. Values below 2 evaluate
	// sequentially.
	Parallel int
	Exclude  []string
}

// ComplianceService runs rule sets against project trees.
type ComplianceService struct {
	loader *ruleset.Loader
	logger *slog.Logger
	now    func() time.Time
}

// NewComplianceService creates a service. A nil loader uses the builtin
// handler registry and a nil logger uses slog.Default().
func NewComplianceService(loader *ruleset.Loader, logger *slog.Logger) *ComplianceService {
	if loader == nil {
		loader = ruleset.NewLoader(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ComplianceService{loader: loader, logger: logger, now: time.Now}
}

// Scan evaluates the effective rule set against req.Root. It fails only with
// a PathError or ConfigError; rule outcomes are always part of the report.
func (s *ComplianceService) Scan(ctx context.Context, req ScanRequest) (*compliance.ScanReport, error) {
	log := s.logger.With("run_id", uuid.New().String())

	lc, err := compliance.NewLifecycle(req.Root)
	if err != nil {
		return nil, err
	}
	fail := func(stage string, err error) (*compliance.ScanReport, error) {
		_ = lc.Advance(compliance.EventFail)
		log.Debug("scan failed", "stage", stage, "error", err)
		return nil, err
	}

	root, err := storage.ValidateRoot(req.Root)
	if err != nil {
		return fail(compliance.StageIdle, err)
	}
	scope, err := resolveScope(req.Scope)
	if err != nil {
		return fail(compliance.StageIdle, err)
	}
	ids, err := ruleset.ParseIDFilter(req.IDs)
	if err != nil {
		return fail(compliance.StageIdle, err)
	}

	if err := lc.Advance(compliance.EventLoad); err != nil {
		return nil, err
	}
	rules, err := s.loader.Load(req.RulesPath)
	if err != nil {
		return fail(lc.Stage(), err)
	}
	rules = ids.Select(rules)
	log.Debug("rules loaded", "source", rulesSource(req.RulesPath), "rules", len(rules))

	if err := lc.Advance(compliance.EventBuild); err != nil {
		return nil, err
	}
	checks, err := s.loader.Build(rules)
	if err != nil {
		return fail(lc.Stage(), err)
	}

	if err := lc.Advance(compliance.EventScan); err != nil {
		return nil, err
	}
	files, err := storage.NewScanner(log, req.Exclude...).Scan(root)
	if err != nil {
		return fail(lc.Stage(), err)
	}
	projectType, err := resolveProjectType(req.ProjectType, files)
	if err != nil {
		return fail(lc.Stage(), err)
	}
	if err := ctx.Err(); err != nil {
		return fail(lc.Stage(), err)
	}

	sc := compliance.NewScanContext(root, files, projectType, scope, storage.NewFileStore(root))
	log.Info("scan started", "root", root, "files", len(files), "rules", len(checks),
		"project_type", projectType, "scope", scope)

	if err := lc.Advance(compliance.EventEvaluate); err != nil {
		return nil, err
	}
	results := evaluate(sc, ruleset.Gate(checks, projectType, scope), req.Parallel)

	if err := lc.Advance(compliance.EventReport); err != nil {
		return nil, err
	}
	report := compliance.NewScanReport(sc, results, s.now())
	if err := lc.Advance(compliance.EventFinish); err != nil {
		return nil, err
	}

	log.Info("scan complete", "passed", report.Summary.Passed, "failed", report.Summary.Failed,
		"skipped", report.Summary.Skipped)
	return report, nil
}

// ListRules returns the effective rule set for rulesPath filtered by ids.
func (s *ComplianceService) ListRules(rulesPath, ids string) ([]compliance.RuleDef, error) {
	filter, err := ruleset.ParseIDFilter(ids)
	if err != nil {
		return nil, err
	}
	rules, err := s.loader.Load(rulesPath)
	if err != nil {
		return nil, err
	}
	return filter.Select(rules), nil
}

// evaluate runs every check and returns results in check order. Checks never
// fail the run, so the group error is always nil.
func evaluate(sc *compliance.ScanContext, checks []compliance.Check, parallel int) []compliance.RuleResult {
	results := make([]compliance.RuleResult, len(checks))
	if parallel < 2 {
		for i, c := range checks {
			results[i] = compliance.NewRuleResult(c.Rule(), c.Evaluate(sc))
		}
		return results
	}

	var g errgroup.Group
	g.SetLimit(parallel)
	for i, c := range checks {
		g.Go(func() error {
			results[i] = compliance.NewRuleResult(c.Rule(), c.Evaluate(sc))
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func resolveScope(s string) (compliance.Scope, error) {
	if s == "" {
		return compliance.ScopeLarge, nil
	}
	scope, err := compliance.ParseScope(s)
	if err != nil {
		return "", &compliance.ConfigError{Source: "scope", Message: err.Error()}
	}
	return scope, nil
}

func resolveProjectType(s string, files []string) (compliance.ProjectType, error) {
	if s == "" {
		return compliance.DetectProjectType(files), nil
	}
	pt, err := compliance.ParseProjectType(s)
	if err != nil {
		return "", &compliance.ConfigError{Source: "project_type", Message: err.Error()}
	}
	return pt, nil
}

func rulesSource(path string) string {
	if path == "" {
		return ruleset.DefaultSource
	}
	return path
}

// ExitCode maps a report to the process exit status: 1 when any rule failed.
func ExitCode(report *compliance.ScanReport) int {
	if report != nil && report.HasFailures() {
		return 1
	}
	return 0
}

// Describe is a one-line summary used by the watch loop and logs.
func Describe(report *compliance.ScanReport) string {
	sum := report.Summary
	return fmt.Sprintf("%d rules: %d passed, %d failed, %d skipped", sum.Total, sum.Passed, sum.Failed, sum.Skipped)
}
