package spec

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// Render produces the prose rendering of doc. The output parses back with
// the prose parser into an equivalent document.
func Render(doc Document) (string, error) {
	if doc == nil {
		return "", fmt.Errorf("nothing to render")
	}
	var b strings.Builder
	m := doc.Header()

	title := m.Title
	if title == "" {
		title = string(doc.Kind())
	}
	fmt.Fprintf(&b, "# %s\n\n", title)

	if m.ID != "" {
		fmt.Fprintf(&b, "**ID:** %s\n", m.ID)
	}
	fmt.Fprintf(&b, "**Version:** %s\n", m.Version)
	fmt.Fprintf(&b, "**Status:** %s\n", m.Status)
	if ref, ok := SpecRef(doc); ok {
		fmt.Fprintf(&b, "**Spec:** %s\n", ref)
	}
	if fr, ok := doc.(*FeatureRequestSpec); ok && fr.Domain != "" {
		fmt.Fprintf(&b, "**Domain:** %s\n", fr.Domain)
	}
	if len(m.DependsOn) > 0 {
		parts := make([]string, 0, len(m.DependsOn))
		for _, d := range m.DependsOn {
			if d.File != "" {
				parts = append(parts, fmt.Sprintf("%s (%s)", d.Ref, d.File))
			} else {
				parts = append(parts, d.Ref)
			}
		}
		fmt.Fprintf(&b, "**Depends On:** %s\n", strings.Join(parts, ", "))
	}
	if len(m.RelatedDocs) > 0 {
		fmt.Fprintf(&b, "**Related:** %s\n", strings.Join(m.RelatedDocs, ", "))
	}

	switch d := doc.(type) {
	case *BrdSpec:
		b.WriteString("\n## Domains\n\n")
		rows := make([][]string, 0, len(d.Domains))
		for _, dom := range d.Domains {
			rows = append(rows, []string{dom.Name, strconv.Itoa(dom.SpecCount), strings.Join(dom.Specs, ", ")})
		}
		writeTable(&b, []string{"Domain", "Spec Count", "Specs"}, rows)

	case *FeatureRequestSpec:
		b.WriteString("\n## Requirements\n\n")
		rows := make([][]string, 0, len(d.Requirements))
		for _, r := range d.Requirements {
			rows = append(rows, []string{r.ID, r.Title, r.Priority, r.Description})
		}
		writeTable(&b, []string{"ID", "Requirement", "Priority", "Description"}, rows)

	case *ArchSpec:
		if len(d.Components) > 0 {
			b.WriteString("\n## Components\n\n")
			rows := make([][]string, 0, len(d.Components))
			for _, c := range d.Components {
				rows = append(rows, []string{c.Name, c.Responsibility})
			}
			writeTable(&b, []string{"Component", "Responsibility"}, rows)
		}

	case *TestSpec:
		b.WriteString("\n## Test Cases\n\n")
		rows := make([][]string, 0, len(d.TestCases))
		for _, tc := range d.TestCases {
			rows = append(rows, []string{tc.ID, tc.Title, tc.Verifies, tc.Type})
		}
		writeTable(&b, []string{"ID", "Title", "Verifies", "Type"}, rows)

	case *DeploySpec:
		if len(d.Environments) > 0 {
			b.WriteString("\n## Environments\n\n")
			rows := make([][]string, 0, len(d.Environments))
			for _, e := range d.Environments {
				rows = append(rows, []string{e.Name, e.Strategy, e.URL})
			}
			writeTable(&b, []string{"Environment", "Strategy", "URL"}, rows)
		}
	}
	return b.String(), nil
}

func writeTable(b *strings.Builder, header []string, rows [][]string) {
	b.WriteString("| " + strings.Join(header, " | ") + " |\n")
	seps := make([]string, len(header))
	for i := range seps {
		seps[i] = "---"
	}
	b.WriteString("| " + strings.Join(seps, " | ") + " |\n")
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, c := range row {
			cells[i] = escapeCell(c)
		}
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", `\|`)
}

// DefaultMarkdownPath maps a typed document path to its prose sibling by
// dropping the .yaml or .yml extension.
func DefaultMarkdownPath(typedPath string) string {
	ext := filepath.Ext(typedPath)
	if strings.EqualFold(ext, ".yaml") || strings.EqualFold(ext, ".yml") {
		return strings.TrimSuffix(typedPath, ext)
	}
	return typedPath + ".md"
}
