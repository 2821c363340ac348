package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/felixgeelhaar/specguard/pkg/domain/compliance"
	"github.com/felixgeelhaar/specguard/pkg/domain/spec"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	passStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	skipStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	categoryStyle = lipgloss.NewStyle().Width(12)
)

func statusMark(s compliance.Status) string {
	switch s {
	case compliance.StatusPass:
		return passStyle.Render("PASS")
	case compliance.StatusFail:
		return failStyle.Render("FAIL")
	default:
		return skipStyle.Render("SKIP")
	}
}

func severityStyle(s compliance.Severity) lipgloss.Style {
	switch s {
	case compliance.SeverityError:
		return failStyle
	case compliance.SeverityWarning:
		return warnStyle
	default:
		return skipStyle
	}
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// renderReport writes the human-readable scan report.
func renderReport(w io.Writer, r *compliance.ScanReport) {
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%s %s", r.Tool, r.Version))+
		fmt.Sprintf("  %s (%s, %s)", r.ProjectRoot, r.ProjectType, r.ProjectScope))
	fmt.Fprintln(w)

	for _, res := range r.Results {
		fmt.Fprintf(w, "%s %3d %s %s\n", statusMark(res.Result.Status), res.ID,
			categoryStyle.Render(res.Category), res.Description)
		switch res.Result.Status {
		case compliance.StatusFail:
			for _, v := range res.Result.Violations {
				loc := ""
				if v.File != "" {
					loc = v.File + ": "
				}
				fmt.Fprintf(w, "         %s %s%s\n", severityStyle(v.Severity).Render(string(v.Severity)), loc, v.Message)
			}
		case compliance.StatusSkip:
			fmt.Fprintf(w, "         %s\n", skipStyle.Render(res.Result.Reason))
		}
	}

	s := r.Summary
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%d rules: %s, %s, %s\n", s.Total,
		passStyle.Render(fmt.Sprintf("%d passed", s.Passed)),
		failStyle.Render(fmt.Sprintf("%d failed", s.Failed)),
		skipStyle.Render(fmt.Sprintf("%d skipped", s.Skipped)))
}

// renderDiagnostics writes spec validation findings grouped by file.
func renderDiagnostics(w io.Writer, documents int, diags []spec.Diagnostic) {
	if len(diags) == 0 {
		fmt.Fprintln(w, passStyle.Render(fmt.Sprintf("%d spec documents valid", documents)))
		return
	}
	current := ""
	for _, d := range diags {
		if d.File != current {
			current = d.File
			fmt.Fprintln(w, titleStyle.Render(d.File))
		}
		fmt.Fprintf(w, "  %s %s\n", failStyle.Render(string(d.Kind)), d.Message)
	}
	fmt.Fprintf(w, "\n%d documents, %s\n", documents, failStyle.Render(fmt.Sprintf("%d problems", len(diags))))
}

// renderCrossRef writes per-category totals followed by the failures.
func renderCrossRef(w io.Writer, r *spec.CrossRefReport) {
	if r.Skipped {
		fmt.Fprintln(w, skipStyle.Render("no spec documents found, cross-referencing skipped"))
		return
	}
	for _, c := range spec.Categories {
		entries := r.Entries(c)
		failed := r.Failures(c)
		mark := passStyle.Render("ok  ")
		if len(failed) > 0 {
			mark = failStyle.Render("fail")
		}
		fmt.Fprintf(w, "%s %-13s %d checked, %d failed\n", mark, c, len(entries), len(failed))
		for _, e := range failed {
			fmt.Fprintf(w, "       %s: %s\n", e.File, strings.TrimSpace(e.Message))
		}
	}
}
