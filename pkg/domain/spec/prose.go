package spec

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	titlePattern     = regexp.MustCompile(`^#\s+(.+?)\s*#*\s*$`)
	labelPattern     = regexp.MustCompile(`^(?:[-*]\s+)?\*\*([A-Za-z][A-Za-z ]*?):\*\*\s*(.*?)\s*$`)
	dependencyRef    = regexp.MustCompile(`([A-Z][A-Z0-9]*-\d+)\s*(?:\(([^)]*)\))?`)
	markdownLink     = regexp.MustCompile(`\[[^\]]*\]\(([^)\s]+)\)`)
	tableSeparator   = regexp.MustCompile(`^\|?\s*:?-{3,}:?\s*(\|\s*:?-{3,}:?\s*)*\|?$`)
	placeholderValue = map[string]bool{"": true, "-": true, "none": true, "n/a": true}
)

type mdTable struct {
	header []string
	rows   [][]string
}

// col returns the index of the first header equal to one of names.
func (t mdTable) col(names ...string) int {
	for i, h := range t.header {
		for _, n := range names {
			if strings.EqualFold(h, n) {
				return i
			}
		}
	}
	return -1
}

func (t mdTable) cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

type proseDoc struct {
	title  string
	labels map[string]string
	tables []mdTable
}

func (p proseDoc) label(name string) string {
	return p.labels[strings.ToLower(name)]
}

// table returns the first table whose header has every one of the required
// columns; each entry lists accepted spellings.
func (p proseDoc) table(required ...[]string) (mdTable, bool) {
	for _, t := range p.tables {
		ok := true
		for _, names := range required {
			if t.col(names...) < 0 {
				ok = false
				break
			}
		}
		if ok {
			return t, true
		}
	}
	return mdTable{}, false
}

func scanProse(text string) proseDoc {
	doc := proseDoc{labels: make(map[string]string)}
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	inFence := false
	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if strings.HasPrefix(line, "```") || strings.HasPrefix(line, "~~~") {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}

		if doc.title == "" {
			if m := titlePattern.FindStringSubmatch(line); m != nil {
				doc.title = m[1]
				continue
			}
		}
		if m := labelPattern.FindStringSubmatch(line); m != nil {
			key := strings.ToLower(strings.TrimSpace(m[1]))
			if _, seen := doc.labels[key]; !seen {
				doc.labels[key] = stripTicks(m[2])
			}
			continue
		}
		if strings.HasPrefix(line, "|") && i+1 < len(lines) && tableSeparator.MatchString(strings.TrimSpace(lines[i+1])) {
			t := mdTable{header: splitRow(line)}
			i += 2
			for ; i < len(lines); i++ {
				row := strings.TrimSpace(lines[i])
				if !strings.HasPrefix(row, "|") {
					break
				}
				t.rows = append(t.rows, splitRow(row))
			}
			i--
			doc.tables = append(doc.tables, t)
		}
	}
	return doc
}

func splitRow(line string) []string {
	line = strings.TrimSpace(line)
	line = strings.TrimPrefix(line, "|")
	if strings.HasSuffix(line, "|") && !strings.HasSuffix(line, `\|`) {
		line = line[:len(line)-1]
	}

	var cells []string
	var cur strings.Builder
	for i := 0; i < len(line); i++ {
		switch {
		case line[i] == '\\' && i+1 < len(line) && line[i+1] == '|':
			cur.WriteByte('|')
			i++
		case line[i] == '|':
			cells = append(cells, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteByte(line[i])
		}
	}
	return append(cells, strings.TrimSpace(cur.String()))
}

func stripTicks(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "`", ""))
}

// splitList splits a comma separated cell, dropping placeholders.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = stripTicks(part)
		if placeholderValue[strings.ToLower(part)] {
			continue
		}
		out = append(out, part)
	}
	return out
}

func parseDependsOn(value string) []Dependency {
	if placeholderValue[strings.ToLower(value)] {
		return nil
	}
	var deps []Dependency
	for _, m := range dependencyRef.FindAllStringSubmatch(value, -1) {
		file := stripTicks(m[2])
		if link := markdownLink.FindStringSubmatch(file); link != nil {
			file = link[1]
		}
		deps = append(deps, Dependency{Ref: m[1], File: file})
	}
	return deps
}

func parseRelated(value string) []string {
	if links := markdownLink.FindAllStringSubmatch(value, -1); links != nil {
		out := make([]string, 0, len(links))
		for _, l := range links {
			out = append(out, l[1])
		}
		return out
	}
	return splitList(value)
}

// specReference drops a trailing "(path)" annotation from a Spec label.
func specReference(value string) string {
	if i := strings.Index(value, "("); i > 0 {
		value = value[:i]
	}
	return strings.TrimSpace(value)
}

func parseProse(d DiscoveredSpec, data []byte) (*ParsedSpec, []Diagnostic) {
	p := scanProse(string(data))
	var diags []Diagnostic
	missing := func(what string) {
		diags = append(diags, Diagnostic{File: d.Path, Kind: DiagMissingField, Message: "missing " + what})
	}

	meta := Meta{
		ID:          p.label("ID"),
		Title:       p.title,
		Version:     p.label("Version"),
		Status:      p.label("Status"),
		DependsOn:   parseDependsOn(p.label("Depends On")),
		RelatedDocs: parseRelated(p.label("Related")),
	}
	if meta.Title == "" {
		missing("title heading")
	}
	if meta.Version == "" {
		missing("**Version:** label")
	}
	if meta.Status == "" {
		missing("**Status:** label")
	}

	var doc Document
	switch d.Kind {
	case KindBrd:
		brd := &BrdSpec{Meta: meta}
		t, ok := p.table([]string{"Domain"}, []string{"Spec Count"}, []string{"Specs"})
		if !ok {
			missing("domain inventory table (Domain | Spec Count | Specs)")
			break
		}
		nameCol, countCol, specsCol := t.col("Domain"), t.col("Spec Count"), t.col("Specs")
		for _, row := range t.rows {
			count, err := strconv.Atoi(stripTicks(t.cell(row, countCol)))
			if err != nil {
				diags = append(diags, Diagnostic{File: d.Path, Kind: DiagInvalidValue,
					Message: "spec count " + strconv.Quote(t.cell(row, countCol)) + " is not a number"})
				continue
			}
			brd.Domains = append(brd.Domains, DomainEntry{
				Name:      stripTicks(t.cell(row, nameCol)),
				SpecCount: count,
				Specs:     splitList(t.cell(row, specsCol)),
			})
		}
		doc = brd

	case KindFeatureRequest:
		fr := &FeatureRequestSpec{Meta: meta, Domain: p.label("Domain")}
		if meta.ID == "" {
			missing("**ID:** label")
		}
		t, ok := p.table([]string{"ID"}, []string{"Requirement", "Title"})
		if !ok {
			missing("requirements table (ID | Requirement)")
			break
		}
		idCol, titleCol := t.col("ID"), t.col("Requirement", "Title")
		prioCol, descCol := t.col("Priority"), t.col("Description")
		for _, row := range t.rows {
			fr.Requirements = append(fr.Requirements, Requirement{
				ID:          stripTicks(t.cell(row, idCol)),
				Title:       t.cell(row, titleCol),
				Priority:    t.cell(row, prioCol),
				Description: t.cell(row, descCol),
			})
		}
		doc = fr

	case KindArch:
		arch := &ArchSpec{Meta: meta, Spec: specReference(p.label("Spec"))}
		if t, ok := p.table([]string{"Component"}); ok {
			nameCol, respCol := t.col("Component"), t.col("Responsibility")
			for _, row := range t.rows {
				arch.Components = append(arch.Components, Component{
					Name:           t.cell(row, nameCol),
					Responsibility: t.cell(row, respCol),
				})
			}
		}
		doc = arch

	case KindTest:
		ts := &TestSpec{Meta: meta, Spec: specReference(p.label("Spec"))}
		t, ok := p.table([]string{"Verifies"})
		if !ok {
			missing("test case table with a Verifies column")
			break
		}
		idCol, titleCol := t.col("ID"), t.col("Title", "Test Case", "Name")
		verCol, typeCol := t.col("Verifies"), t.col("Type")
		for _, row := range t.rows {
			ts.TestCases = append(ts.TestCases, TestCase{
				ID:       stripTicks(t.cell(row, idCol)),
				Title:    t.cell(row, titleCol),
				Verifies: stripTicks(t.cell(row, verCol)),
				Type:     t.cell(row, typeCol),
			})
		}
		doc = ts

	case KindDeploy:
		dep := &DeploySpec{Meta: meta, Spec: specReference(p.label("Spec"))}
		if t, ok := p.table([]string{"Environment"}); ok {
			nameCol, stratCol, urlCol := t.col("Environment"), t.col("Strategy"), t.col("URL")
			for _, row := range t.rows {
				dep.Environments = append(dep.Environments, Environment{
					Name:     t.cell(row, nameCol),
					Strategy: t.cell(row, stratCol),
					URL:      stripTicks(t.cell(row, urlCol)),
				})
			}
		}
		doc = dep
	}

	if ref, ok := SpecRef(doc); ok && ref == "" {
		missing("**Spec:** label")
	}
	if len(diags) > 0 {
		return nil, diags
	}
	return &ParsedSpec{Source: d, Doc: doc}, nil
}
