package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/felixgeelhaar/specguard/pkg/domain/compliance"
)

var baseStyle = lipgloss.NewStyle().
	BorderStyle(lipgloss.NormalBorder()).
	BorderForeground(lipgloss.Color("240"))

var headerStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("#FAFAFA")).
	Background(lipgloss.Color("#7D56F4")).
	PaddingLeft(1).
	PaddingRight(1)

// reportModel browses a scan report. The detail pane shows the violations
// or skip reason of the selected rule.
type reportModel struct {
	table  table.Model
	report *compliance.ScanReport
	failed bool
}

func newReportModel(r *compliance.ScanReport) reportModel {
	columns := []table.Column{
		{Title: "Status", Width: 6},
		{Title: "ID", Width: 4},
		{Title: "Category", Width: 12},
		{Title: "Severity", Width: 8},
		{Title: "Rule", Width: 50},
	}

	m := reportModel{report: r}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(m.rows()),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240"))
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229"))
	t.SetStyles(s)

	m.table = t
	return m
}

func (m reportModel) Init() tea.Cmd { return nil }

func (m reportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "f":
			m.failed = !m.failed
			m.table.SetRows(m.rows())
			m.table.SetCursor(0)
			return m, nil
		}
	}
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// rows returns the table rows, limited to failures when the filter is on.
func (m reportModel) rows() []table.Row {
	rows := make([]table.Row, 0, len(m.report.Results))
	for _, res := range m.visible() {
		rows = append(rows, table.Row{
			strings.ToUpper(string(res.Result.Status)),
			strconv.Itoa(res.ID),
			res.Category,
			string(res.Severity),
			res.Description,
		})
	}
	return rows
}

func (m reportModel) visible() []compliance.RuleResult {
	if !m.failed {
		return m.report.Results
	}
	var out []compliance.RuleResult
	for _, res := range m.report.Results {
		if res.Result.Failed() {
			out = append(out, res)
		}
	}
	return out
}

// selected returns the rule under the cursor.
func (m reportModel) selected() (compliance.RuleResult, bool) {
	visible := m.visible()
	i := m.table.Cursor()
	if i < 0 || i >= len(visible) {
		return compliance.RuleResult{}, false
	}
	return visible[i], true
}

func (m reportModel) detail() string {
	res, ok := m.selected()
	if !ok {
		return skipStyle.Render("no rules to show")
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s %d  %s\n", statusMark(res.Result.Status), res.ID, res.Check)
	switch res.Result.Status {
	case compliance.StatusFail:
		for _, v := range res.Result.Violations {
			loc := ""
			if v.File != "" {
				loc = v.File + ": "
			}
			fmt.Fprintf(&b, "  %s %s%s\n", severityStyle(v.Severity).Render(string(v.Severity)), loc, v.Message)
		}
	case compliance.StatusSkip:
		fmt.Fprintf(&b, "  %s\n", res.Result.Reason)
	default:
		b.WriteString("  all good\n")
	}
	return b.String()
}

func (m reportModel) View() string {
	s := m.report.Summary
	header := headerStyle.Render(fmt.Sprintf("%s %s", m.report.Tool, m.report.Version))
	summary := fmt.Sprintf("%s (%s, %s)  %s  %s  %s", m.report.ProjectRoot, m.report.ProjectType, m.report.ProjectScope,
		passStyle.Render(fmt.Sprintf("%d passed", s.Passed)),
		failStyle.Render(fmt.Sprintf("%d failed", s.Failed)),
		skipStyle.Render(fmt.Sprintf("%d skipped", s.Skipped)))

	filter := "[f] Failures only"
	if m.failed {
		filter = "[f] Show all"
	}

	return baseStyle.Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header,
			summary,
			"",
			m.table.View(),
			"",
			m.detail(),
			"[q] Quit  [Up/Down] Navigate  "+filter,
		),
	) + "\n"
}

// runReportTUI opens the interactive report browser. SPECGUARD_SKIP_TUI
// disables it for non-interactive runs.
func runReportTUI(r *compliance.ScanReport) error {
	if os.Getenv("SPECGUARD_SKIP_TUI") == "true" {
		return nil
	}
	p := tea.NewProgram(newReportModel(r))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("report browser failed: %w", err)
	}
	return nil
}
