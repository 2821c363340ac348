package spec

import (
	"path"
	"regexp"
	"strings"
	"sync"
)

// Reader reads project files by root-relative, slash-separated path.
type Reader interface {
	ReadFile(rel string) ([]byte, error)
}

// Corpus is the discovered and parsed spec set of one project snapshot.
// It is immutable once loaded and safe for concurrent use.
type Corpus struct {
	Discovered []DiscoveredSpec
	Parsed     []*ParsedSpec
	// ParseDiagnostics holds documents that could not be parsed.
	ParseDiagnostics []Diagnostic

	files  map[string]bool
	byPath map[string]*ParsedSpec
	reader Reader

	validateOnce sync.Once
	diagnostics  []Diagnostic

	crossRefOnce sync.Once
	crossRef     *CrossRefReport
}

// Load discovers and parses every spec document in files.
func Load(files []string, reader Reader) *Corpus {
	c := &Corpus{
		Discovered: Discover(files),
		files:      make(map[string]bool, len(files)),
		byPath:     make(map[string]*ParsedSpec),
		reader:     reader,
	}
	for _, f := range files {
		c.files[f] = true
	}

	for _, d := range c.Discovered {
		data, err := reader.ReadFile(d.Path)
		if err != nil {
			c.ParseDiagnostics = append(c.ParseDiagnostics, Diagnostic{File: d.Path, Kind: DiagParse, Message: "cannot read: " + err.Error()})
			continue
		}
		parsed, diags := Parse(d, data)
		if len(diags) > 0 {
			c.ParseDiagnostics = append(c.ParseDiagnostics, diags...)
			continue
		}
		c.Parsed = append(c.Parsed, parsed)
		c.byPath[d.Path] = parsed
	}
	return c
}

// Empty reports whether no spec documents of either format were found.
func (c *Corpus) Empty() bool {
	return len(c.Discovered) == 0
}

// Family returns the parsed documents of one format.
func (c *Corpus) Family(format Format) []*ParsedSpec {
	var out []*ParsedSpec
	for _, p := range c.Parsed {
		if p.Source.Format == format {
			out = append(out, p)
		}
	}
	return out
}

// OfKind returns the discovered documents of kind, optionally limited to format.
func (c *Corpus) OfKind(kind Kind, format Format) []DiscoveredSpec {
	var out []DiscoveredSpec
	for _, d := range c.Discovered {
		if d.Kind == kind && (format == "" || d.Format == format) {
			out = append(out, d)
		}
	}
	return out
}

// Lookup returns the parsed document at rel.
func (c *Corpus) Lookup(rel string) (*ParsedSpec, bool) {
	p, ok := c.byPath[rel]
	return p, ok
}

// Validate returns parse, per-document and duplicate-id diagnostics for the
// whole corpus, sorted by file.
func (c *Corpus) Validate() []Diagnostic {
	c.validateOnce.Do(func() {
		diags := append([]Diagnostic(nil), c.ParseDiagnostics...)
		for _, p := range c.Parsed {
			diags = append(diags, ValidateSpec(p)...)
		}
		diags = append(diags, DuplicateIDs(c.Parsed)...)
		SortDiagnostics(diags)
		c.diagnostics = diags
	})
	return c.diagnostics
}

// exists reports whether rel is a file of the snapshot or readable on disk.
func (c *Corpus) exists(rel string) bool {
	if c.files[rel] {
		return true
	}
	if c.reader == nil {
		return false
	}
	_, err := c.reader.ReadFile(rel)
	return err == nil
}

// Resolve locates ref, first relative to the project root and then relative
// to the directory of the declaring document.
func (c *Corpus) Resolve(from, ref string) (string, bool) {
	ref = strings.TrimPrefix(strings.TrimSpace(ref), "./")
	if ref == "" || strings.Contains(ref, "://") {
		return "", false
	}
	if i := strings.IndexByte(ref, '#'); i >= 0 {
		ref = ref[:i]
	}
	candidates := []string{path.Clean(ref)}
	if dir := path.Dir(from); dir != "." {
		candidates = append(candidates, path.Join(dir, ref))
	}
	for _, cand := range candidates {
		if cand == ".." || strings.HasPrefix(cand, "../") || path.IsAbs(cand) {
			continue
		}
		if c.exists(cand) {
			return cand, true
		}
	}
	return "", false
}

// declares reports whether the file at rel defines id. Parsed documents are
// checked by their declared ids; other files by content.
func (c *Corpus) declares(rel, id string) bool {
	if p, ok := c.byPath[rel]; ok {
		for _, have := range DeclaredIDs(p.Doc) {
			if have == id {
				return true
			}
		}
		return false
	}
	data, err := c.reader.ReadFile(rel)
	if err != nil {
		return false
	}
	word := regexp.MustCompile(`(^|[^A-Za-z0-9-])` + regexp.QuoteMeta(id) + `($|[^A-Za-z0-9-])`)
	return word.Match(data)
}

// idSet returns every id declared by documents of format.
func (c *Corpus) idSet(format Format) map[string]bool {
	ids := make(map[string]bool)
	for _, p := range c.Family(format) {
		for _, id := range DeclaredIDs(p.Doc) {
			ids[id] = true
		}
	}
	return ids
}
