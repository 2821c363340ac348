package spec

import (
	"fmt"
	"path"
	"strings"
)

// Category names a cross-reference consistency check.
type Category string

const (
	CategoryDependency  Category = "dependency"
	CategorySDLCChain   Category = "sdlc_chain"
	CategoryInventory   Category = "inventory"
	CategoryTestTrace   Category = "test_trace"
	CategoryArchTrace   Category = "arch_trace"
	CategoryRelatedDocs Category = "related_docs"
)

// Categories lists every category in report order.
var Categories = []Category{
	CategoryDependency,
	CategorySDLCChain,
	CategoryInventory,
	CategoryTestTrace,
	CategoryArchTrace,
	CategoryRelatedDocs,
}

// CrossRefEntry is one pass or fail outcome, tagged with the declaring file.
type CrossRefEntry struct {
	Passed    bool   `json:"passed"`
	File      string `json:"file"`
	Reference string `json:"reference"`
	Message   string `json:"message,omitempty"`
}

// CrossRefReport groups entries by category. Skipped is set when the project
// has no spec documents; every category is then empty.
type CrossRefReport struct {
	Skipped     bool            `json:"skipped"`
	Dependency  []CrossRefEntry `json:"dependency"`
	SDLCChain   []CrossRefEntry `json:"sdlc_chain"`
	Inventory   []CrossRefEntry `json:"inventory"`
	TestTrace   []CrossRefEntry `json:"test_trace"`
	ArchTrace   []CrossRefEntry `json:"arch_trace"`
	RelatedDocs []CrossRefEntry `json:"related_docs"`
}

// Entries returns the entries of one category.
func (r *CrossRefReport) Entries(c Category) []CrossRefEntry {
	switch c {
	case CategoryDependency:
		return r.Dependency
	case CategorySDLCChain:
		return r.SDLCChain
	case CategoryInventory:
		return r.Inventory
	case CategoryTestTrace:
		return r.TestTrace
	case CategoryArchTrace:
		return r.ArchTrace
	case CategoryRelatedDocs:
		return r.RelatedDocs
	}
	return nil
}

// Failures returns the failing entries of one category.
func (r *CrossRefReport) Failures(c Category) []CrossRefEntry {
	var out []CrossRefEntry
	for _, e := range r.Entries(c) {
		if !e.Passed {
			out = append(out, e)
		}
	}
	return out
}

// FailureCount counts failing entries across every category.
func (r *CrossRefReport) FailureCount() int {
	n := 0
	for _, c := range Categories {
		n += len(r.Failures(c))
	}
	return n
}

func emptyReport(skipped bool) *CrossRefReport {
	return &CrossRefReport{
		Skipped:     skipped,
		Dependency:  []CrossRefEntry{},
		SDLCChain:   []CrossRefEntry{},
		Inventory:   []CrossRefEntry{},
		TestTrace:   []CrossRefEntry{},
		ArchTrace:   []CrossRefEntry{},
		RelatedDocs: []CrossRefEntry{},
	}
}

// CrossReference runs all six categories. The result is computed once.
func (c *Corpus) CrossReference() *CrossRefReport {
	c.crossRefOnce.Do(func() {
		if c.Empty() {
			c.crossRef = emptyReport(true)
			return
		}
		r := emptyReport(false)
		ids := map[Format]map[string]bool{
			FormatTyped: c.idSet(FormatTyped),
			FormatProse: c.idSet(FormatProse),
		}
		r.Dependency = c.checkDependencies(ids, r.Dependency)
		r.SDLCChain = c.checkChains(r.SDLCChain)
		r.Inventory = c.checkInventory(r.Inventory)
		r.TestTrace = c.checkTestTrace(ids, r.TestTrace)
		r.ArchTrace = c.checkArchTrace(r.ArchTrace)
		r.RelatedDocs = c.checkRelated(r.RelatedDocs)
		c.crossRef = r
	})
	return c.crossRef
}

func pass(file, ref string) CrossRefEntry {
	return CrossRefEntry{Passed: true, File: file, Reference: ref}
}

func fail(file, ref, format string, args ...any) CrossRefEntry {
	return CrossRefEntry{File: file, Reference: ref, Message: fmt.Sprintf(format, args...)}
}

func (c *Corpus) checkDependencies(ids map[Format]map[string]bool, out []CrossRefEntry) []CrossRefEntry {
	for _, p := range c.Parsed {
		file := p.Source.Path
		for _, dep := range p.Doc.Header().DependsOn {
			if dep.File == "" {
				if ids[p.Source.Format][dep.Ref] {
					out = append(out, pass(file, dep.Ref))
				} else {
					out = append(out, fail(file, dep.Ref, "dependency %s is not declared by any %s spec", dep.Ref, p.Source.Format))
				}
				continue
			}

			ref := dep.Ref + " (" + dep.File + ")"
			target, ok := c.Resolve(file, dep.File)
			switch {
			case !ok:
				out = append(out, fail(file, ref, "dependency file %s not found", dep.File))
			case !c.declares(target, dep.Ref):
				out = append(out, fail(file, ref, "%s does not declare %s", target, dep.Ref))
			default:
				out = append(out, pass(file, ref))
			}
		}
	}
	return out
}

func (c *Corpus) checkChains(out []CrossRefEntry) []CrossRefEntry {
	present := make(map[string]bool)
	key := func(f Format, k Kind, stem string) string { return string(f) + "|" + string(k) + "|" + stem }
	for _, d := range c.Discovered {
		present[key(d.Format, d.Kind, d.Stem)] = true
	}

	for _, d := range c.OfKind(KindFeatureRequest, "") {
		for _, stage := range ChainStages {
			expected := d.Stem + Suffix(stage, d.Format)
			if present[key(d.Format, stage, d.Stem)] {
				out = append(out, pass(d.Path, expected))
			} else {
				out = append(out, fail(d.Path, expected, "missing %s document %s", stage, expected))
			}
		}
	}
	return out
}

func (c *Corpus) checkInventory(out []CrossRefEntry) []CrossRefEntry {
	for _, p := range c.Parsed {
		brd, ok := p.Doc.(*BrdSpec)
		if !ok {
			continue
		}
		file := p.Source.Path

		actual := make(map[string]int)
		for _, d := range c.OfKind(KindFeatureRequest, p.Source.Format) {
			actual[d.Domain]++
		}

		for _, dom := range brd.Domains {
			if got := actual[dom.Name]; got != dom.SpecCount {
				out = append(out, fail(file, dom.Name, "domain %s declares %d specs, found %d", dom.Name, dom.SpecCount, got))
			} else {
				out = append(out, pass(file, dom.Name))
			}
			for _, s := range dom.Specs {
				if _, ok := c.Resolve(file, s); ok {
					out = append(out, pass(file, s))
				} else {
					out = append(out, fail(file, s, "listed spec %s not found", s))
				}
			}
		}
	}
	return out
}

func (c *Corpus) checkTestTrace(ids map[Format]map[string]bool, out []CrossRefEntry) []CrossRefEntry {
	for _, p := range c.Parsed {
		ts, ok := p.Doc.(*TestSpec)
		if !ok {
			continue
		}
		file := p.Source.Path
		for _, tc := range ts.TestCases {
			verified := tc.VerifiedIDs()
			if len(verified) == 0 {
				out = append(out, fail(file, tc.ID, "test case %s verifies nothing", tc.ID))
				continue
			}
			for _, id := range verified {
				ref := tc.ID + " -> " + id
				if ids[p.Source.Format][id] {
					out = append(out, pass(file, ref))
				} else {
					out = append(out, fail(file, ref, "test case %s verifies unknown id %s", tc.ID, id))
				}
			}
		}
	}
	return out
}

// looksLikePath distinguishes "auth/auth.spec.yaml" from "AUTH-001".
func looksLikePath(ref string) bool {
	return strings.Contains(ref, "/") || path.Ext(ref) != ""
}

func (c *Corpus) checkArchTrace(out []CrossRefEntry) []CrossRefEntry {
	specIDs := map[Format]map[string]bool{FormatTyped: {}, FormatProse: {}}
	for _, p := range c.Parsed {
		if p.Doc.Kind() == KindFeatureRequest && p.Doc.Header().ID != "" {
			specIDs[p.Source.Format][p.Doc.Header().ID] = true
		}
	}

	for _, p := range c.Parsed {
		arch, ok := p.Doc.(*ArchSpec)
		if !ok {
			continue
		}
		file := p.Source.Path
		switch {
		case arch.Spec == "":
			out = append(out, fail(file, "", "architecture document has no spec reference"))
		case looksLikePath(arch.Spec):
			target, ok := c.Resolve(file, arch.Spec)
			if d, isSpec := Classify(target); ok && isSpec && d.Kind == KindFeatureRequest {
				out = append(out, pass(file, arch.Spec))
			} else {
				out = append(out, fail(file, arch.Spec, "referenced spec %s not found", arch.Spec))
			}
		case specIDs[p.Source.Format][arch.Spec]:
			out = append(out, pass(file, arch.Spec))
		default:
			out = append(out, fail(file, arch.Spec, "no %s spec declares id %s", p.Source.Format, arch.Spec))
		}
	}
	return out
}

func (c *Corpus) checkRelated(out []CrossRefEntry) []CrossRefEntry {
	for _, p := range c.Parsed {
		file := p.Source.Path
		for _, rel := range p.Doc.Header().RelatedDocs {
			if strings.Contains(rel, "://") {
				continue
			}
			if _, ok := c.Resolve(file, rel); ok {
				out = append(out, pass(file, rel))
			} else {
				out = append(out, fail(file, rel, "related document %s not found", rel))
			}
		}
	}
	return out
}
