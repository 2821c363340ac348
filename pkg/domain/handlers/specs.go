package handlers

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/felixgeelhaar/specguard/pkg/domain/compliance"
	"github.com/felixgeelhaar/specguard/pkg/domain/spec"
)

const corpusMemoKey = "spec.corpus"

var specStemPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Corpus returns the spec corpus of ctx, loading it on first use.
func Corpus(ctx *compliance.ScanContext) *spec.Corpus {
	return ctx.Memo(corpusMemoKey, func() any {
		return spec.Load(ctx.Files, ctx)
	}).(*spec.Corpus)
}

// specHandler wraps fn so it skips projects without spec documents.
func specHandler(name, description string, fn func(c *spec.Corpus) compliance.CheckResult) Handler {
	return handler{
		name:        name,
		category:    "specs",
		description: description,
		eval: func(ctx *compliance.ScanContext) compliance.CheckResult {
			c := Corpus(ctx)
			if c.Empty() {
				return compliance.Skip("no spec documents")
			}
			return fn(c)
		},
	}
}

func specHandlers() []Handler {
	return []Handler{
		specHandler("spec_brd_exists", "a business requirements document exists", specBrdExists),
		specHandler("spec_domain_coverage", "every spec domain is listed in the BRD", specDomainCoverage),
		specHandler("spec_schema_valid", "spec documents are well-formed in both formats", specSchemaValid),
		specHandler("spec_id_format", "feature request ids follow PREFIX-NNN", specIDFormat),
		specHandler("spec_duplicate_ids", "spec ids are unique within each format", specDuplicateIDs),
		specHandler("spec_test_coverage", "every requirement is verified by a test case", specTestCoverage),
		specHandler("spec_dependencies", "declared dependencies resolve", crossRefRule(spec.CategoryDependency)),
		specHandler("spec_inventory", "BRD inventory matches the discovered specs", specInventory),
		specHandler("spec_links", "related documents and architecture references resolve",
			crossRefRule(spec.CategoryRelatedDocs, spec.CategoryArchTrace)),
		specHandler("spec_test_traceability", "test cases verify existing ids", crossRefRule(spec.CategoryTestTrace)),
		specHandler("spec_naming", "spec file stems are kebab-case", specNaming),
		specHandler("spec_stem_consistency", "every feature has a complete lifecycle chain per format", specStemConsistency),
	}
}

func diagnosticViolations(diags []spec.Diagnostic, keep func(spec.Diagnostic) bool) []compliance.Violation {
	var out []compliance.Violation
	for _, d := range diags {
		if keep(d) {
			out = append(out, compliance.Violation{File: d.File, Message: fmt.Sprintf("%s: %s", d.Kind, d.Message)})
		}
	}
	return out
}

func entryViolations(entries []spec.CrossRefEntry) []compliance.Violation {
	out := make([]compliance.Violation, 0, len(entries))
	for _, e := range entries {
		out = append(out, compliance.Violation{File: e.File, Message: e.Message})
	}
	return out
}

func crossRefRule(categories ...spec.Category) func(c *spec.Corpus) compliance.CheckResult {
	return func(c *spec.Corpus) compliance.CheckResult {
		report := c.CrossReference()
		var violations []compliance.Violation
		for _, cat := range categories {
			violations = append(violations, entryViolations(report.Failures(cat))...)
		}
		return compliance.Fail(violations...)
	}
}

func specBrdExists(c *spec.Corpus) compliance.CheckResult {
	if len(c.OfKind(spec.KindBrd, "")) > 0 {
		return compliance.Pass()
	}
	return compliance.Fail(compliance.Violation{Message: "no business requirements document (brd.spec.yaml or brd.spec)"})
}

func brds(c *spec.Corpus) []*spec.ParsedSpec {
	var out []*spec.ParsedSpec
	for _, p := range c.Parsed {
		if p.Doc.Kind() == spec.KindBrd {
			out = append(out, p)
		}
	}
	return out
}

func specDomainCoverage(c *spec.Corpus) compliance.CheckResult {
	docs := brds(c)
	if len(docs) == 0 {
		return compliance.Skip("no parseable BRD")
	}

	listed := make(map[string]bool)
	for _, p := range docs {
		for _, d := range p.Doc.(*spec.BrdSpec).Domains {
			listed[d.Name] = true
		}
	}

	var violations []compliance.Violation
	seen := make(map[string]bool)
	withSpecs := make(map[string]bool)
	for _, d := range c.OfKind(spec.KindFeatureRequest, "") {
		if d.Domain == "" {
			continue
		}
		withSpecs[d.Domain] = true
		if !listed[d.Domain] && !seen[d.Domain] {
			seen[d.Domain] = true
			violations = append(violations, compliance.Violation{
				File:    d.Path,
				Message: fmt.Sprintf("domain %s is not listed in the BRD", d.Domain),
			})
		}
	}

	names := make([]string, 0, len(listed))
	for name := range listed {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if !withSpecs[name] {
			violations = append(violations, compliance.Violation{
				File:    docs[0].Source.Path,
				Message: fmt.Sprintf("BRD domain %s has no spec documents", name),
			})
		}
	}
	return compliance.Fail(violations...)
}

func specSchemaValid(c *spec.Corpus) compliance.CheckResult {
	return compliance.Fail(diagnosticViolations(c.Validate(), func(d spec.Diagnostic) bool {
		return d.Kind != spec.DiagDuplicateID
	})...)
}

func specIDFormat(c *spec.Corpus) compliance.CheckResult {
	var violations []compliance.Violation
	for _, p := range c.Parsed {
		fr, ok := p.Doc.(*spec.FeatureRequestSpec)
		if !ok {
			continue
		}
		if !spec.ValidFeatureID(fr.ID) {
			violations = append(violations, compliance.Violation{
				File:    p.Source.Path,
				Message: fmt.Sprintf("id %q does not match PREFIX-NNN", fr.ID),
			})
		}
	}
	return compliance.Fail(violations...)
}

func specDuplicateIDs(c *spec.Corpus) compliance.CheckResult {
	return compliance.Fail(diagnosticViolations(spec.DuplicateIDs(c.Parsed), func(spec.Diagnostic) bool { return true })...)
}

func specTestCoverage(c *spec.Corpus) compliance.CheckResult {
	verified := map[spec.Format]map[string]bool{spec.FormatTyped: {}, spec.FormatProse: {}}
	frs := 0
	for _, p := range c.Parsed {
		switch d := p.Doc.(type) {
		case *spec.TestSpec:
			for _, tc := range d.TestCases {
				for _, id := range tc.VerifiedIDs() {
					verified[p.Source.Format][id] = true
				}
			}
		case *spec.FeatureRequestSpec:
			frs++
		}
	}
	if frs == 0 {
		return compliance.Skip("no parseable feature requests")
	}

	var violations []compliance.Violation
	for _, p := range c.Parsed {
		fr, ok := p.Doc.(*spec.FeatureRequestSpec)
		if !ok {
			continue
		}
		for _, r := range fr.Requirements {
			if !verified[p.Source.Format][r.ID] {
				violations = append(violations, compliance.Violation{
					File:    p.Source.Path,
					Message: fmt.Sprintf("requirement %s is not verified by any %s test case", r.ID, p.Source.Format),
				})
			}
		}
	}
	return compliance.Fail(violations...)
}

func specInventory(c *spec.Corpus) compliance.CheckResult {
	if len(brds(c)) == 0 {
		return compliance.Skip("no parseable BRD")
	}
	return crossRefRule(spec.CategoryInventory)(c)
}

func specNaming(c *spec.Corpus) compliance.CheckResult {
	var violations []compliance.Violation
	for _, d := range c.Discovered {
		if !specStemPattern.MatchString(d.Stem) {
			violations = append(violations, compliance.Violation{
				File:    d.Path,
				Message: fmt.Sprintf("stem %q should be lowercase kebab-case", d.Stem),
			})
		}
	}
	return compliance.Fail(violations...)
}

func specStemConsistency(c *spec.Corpus) compliance.CheckResult {
	violations := entryViolations(c.CrossReference().Failures(spec.CategorySDLCChain))

	features := make(map[string]bool)
	for _, d := range c.OfKind(spec.KindFeatureRequest, "") {
		features[string(d.Format)+"|"+d.Stem] = true
	}
	for _, d := range c.Discovered {
		if d.Kind == spec.KindBrd || d.Kind == spec.KindFeatureRequest {
			continue
		}
		if !features[string(d.Format)+"|"+d.Stem] {
			violations = append(violations, compliance.Violation{
				File:    d.Path,
				Message: fmt.Sprintf("%s document has no %s%s feature request", d.Kind, d.Stem, spec.Suffix(spec.KindFeatureRequest, d.Format)),
			})
		}
	}
	return compliance.Fail(violations...)
}
