package scaffold

import (
	"fmt"
	"path"
	"strings"
	"unicode"

	"github.com/felixgeelhaar/specguard/pkg/domain/spec"
)

// FilesPerDomain is the number of artifacts emitted for every domain.
const FilesPerDomain = 10

// ProjectFiles is the number of project-level artifacts (typed and prose BRD).
const ProjectFiles = 2

const (
	initialVersion = "0.1.0"
	initialStatus  = "draft"
)

// Artifact is one generated file, relative to the output root.
type Artifact struct {
	Path    string
	Content []byte
}

// Result summarises a scaffold run.
type Result struct {
	DomainCount      int      `json:"domain_count"`
	RequirementCount int      `json:"requirement_count"`
	Created          []string `json:"created"`
	Skipped          []string `json:"skipped"`
}

// ExpectedFiles returns domainCount*FilesPerDomain + ProjectFiles.
func ExpectedFiles(domainCount int) int {
	return domainCount*FilesPerDomain + ProjectFiles
}

// DomainID derives a feature request id from the domain slug and ordinal,
// e.g. ("user-accounts", 2) -> "USERACCO-002".
func DomainID(slug string, ordinal int) string {
	var b strings.Builder
	for _, r := range slug {
		if b.Len() == 8 {
			break
		}
		if unicode.IsLetter(r) {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	prefix := b.String()
	if prefix == "" {
		prefix = "DOMAIN"
	}
	return fmt.Sprintf("%s-%03d", prefix, ordinal)
}

// Plan renders every artifact for domains. It performs no I/O.
func Plan(domains []ParsedDomain) ([]Artifact, error) {
	var artifacts []Artifact
	typedBrd := &spec.BrdSpec{Meta: spec.Meta{Title: "Business Requirements", Version: initialVersion, Status: initialStatus}}
	proseBrd := &spec.BrdSpec{Meta: typedBrd.Meta}

	seen := make(map[string]bool, len(domains))
	for i, d := range domains {
		slug := d.Slug
		if slug == "" {
			slug = fmt.Sprintf("domain-%d", i+1)
		}
		slug = uniqueSlug(slug, seen)
		id := DomainID(slug, i+1)

		typedBrd.Domains = append(typedBrd.Domains, spec.DomainEntry{
			Name: slug, SpecCount: 1, Specs: []string{path.Join(slug, slug+spec.Suffix(spec.KindFeatureRequest, spec.FormatTyped))},
		})
		proseBrd.Domains = append(proseBrd.Domains, spec.DomainEntry{
			Name: slug, SpecCount: 1, Specs: []string{path.Join(slug, slug+spec.Suffix(spec.KindFeatureRequest, spec.FormatProse))},
		})

		domainArtifacts, err := planDomain(d, slug, id)
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, domainArtifacts...)
	}

	typed, err := spec.MarshalTyped(typedBrd)
	if err != nil {
		return nil, err
	}
	prose, err := spec.Render(proseBrd)
	if err != nil {
		return nil, err
	}
	brd := []Artifact{
		{Path: "brd" + spec.Suffix(spec.KindBrd, spec.FormatTyped), Content: typed},
		{Path: "brd" + spec.Suffix(spec.KindBrd, spec.FormatProse), Content: []byte(prose)},
	}
	return append(brd, artifacts...), nil
}

// uniqueSlug returns slug, or slug-N for the first free N, and marks the
// result as taken. Domains sharing a title must not share output paths.
func uniqueSlug(slug string, seen map[string]bool) string {
	candidate := slug
	for n := 2; seen[candidate]; n++ {
		candidate = fmt.Sprintf("%s-%d", slug, n)
	}
	seen[candidate] = true
	return candidate
}

func planDomain(d ParsedDomain, slug, id string) ([]Artifact, error) {
	var reqs []spec.Requirement
	var cases []spec.TestCase
	for i, r := range d.Requirements {
		reqs = append(reqs, spec.Requirement{ID: r.ID, Title: r.Title, Priority: r.Priority, Description: r.Description})
		cases = append(cases, spec.TestCase{
			ID:       fmt.Sprintf("TC-%03d", i+1),
			Title:    "Verify " + r.Title,
			Verifies: r.ID,
			Type:     testType(r.ID),
		})
	}

	meta := func(title string, related string) spec.Meta {
		m := spec.Meta{Title: title, Version: initialVersion, Status: initialStatus}
		if related != "" {
			m.RelatedDocs = []string{related}
		}
		return m
	}

	var out []Artifact
	for _, format := range []spec.Format{spec.FormatTyped, spec.FormatProse} {
		brdRef := "../brd" + spec.Suffix(spec.KindBrd, format)

		fr := &spec.FeatureRequestSpec{Meta: meta(d.Title, brdRef), Domain: slug, Requirements: reqs}
		fr.ID = id
		docs := []spec.Document{
			fr,
			&spec.ArchSpec{Meta: meta(d.Title+" Architecture", ""), Spec: id, Components: []spec.Component{
				{Name: d.Title + " Service", Responsibility: "Implements " + id},
			}},
			&spec.TestSpec{Meta: meta(d.Title+" Test Plan", ""), Spec: id, TestCases: cases},
			&spec.DeploySpec{Meta: meta(d.Title+" Deployment", ""), Spec: id, Environments: []spec.Environment{
				{Name: "staging", Strategy: "rolling"},
				{Name: "production", Strategy: "blue-green"},
			}},
		}

		for _, doc := range docs {
			var content []byte
			if format == spec.FormatTyped {
				data, err := spec.MarshalTyped(doc)
				if err != nil {
					return nil, err
				}
				content = data
			} else {
				text, err := spec.Render(doc)
				if err != nil {
					return nil, err
				}
				content = []byte(text)
			}
			out = append(out, Artifact{Path: path.Join(slug, slug+spec.Suffix(doc.Kind(), format)), Content: content})
		}
	}

	out = append(out,
		Artifact{Path: path.Join(slug, slug+".manual.exec"), Content: execPlan(d, id, cases, "Manual")},
		Artifact{Path: path.Join(slug, slug+".auto.exec"), Content: execPlan(d, id, cases, "Automated")},
	)
	return out, nil
}

func testType(reqID string) string {
	if strings.HasPrefix(reqID, "NFR-") {
		return "non-functional"
	}
	return "functional"
}

func execPlan(d ParsedDomain, id string, cases []spec.TestCase, mode string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s %s Execution Plan\n\n", d.Title, mode)
	fmt.Fprintf(&b, "**Spec:** %s\n", id)
	fmt.Fprintf(&b, "**Mode:** %s\n\n", strings.ToLower(mode))
	b.WriteString("| Step | Test Case | Verifies | Result |\n")
	b.WriteString("| --- | --- | --- | --- |\n")
	for i, tc := range cases {
		fmt.Fprintf(&b, "| %d | %s | %s | pending |\n", i+1, tc.ID, tc.Verifies)
	}
	return []byte(b.String())
}
