package cli

import (
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/specguard/internal/infrastructure/config"
	"github.com/felixgeelhaar/specguard/pkg/domain/compliance"
	"github.com/felixgeelhaar/specguard/pkg/domain/handlers"
	"github.com/felixgeelhaar/specguard/pkg/domain/ruleset"
)

var rulesIDs string

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect the rule set and builtin handlers",
}

var rulesListCmd = &cobra.Command{
	Use:   "list [path]",
	Short: "List the active rules and whether they apply to the project",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := loadWorkspace(cmd, projectRoot(args))
		if err != nil {
			return err
		}
		rules, err := ws.compliance.ListRules(ws.cfg.Rules, rulesIDs)
		if err != nil {
			return MapError(err)
		}

		out := cmd.OutOrStdout()
		if ws.cfg.Format == config.FormatJSON {
			return writeJSON(out, rules)
		}

		// Applicability is shown against explicit overrides only; detection
		// needs a scan.
		pt, _ := compliance.ParseProjectType(ws.cfg.ProjectType)
		scope := compliance.ScopeLarge
		if ws.cfg.Scope != "" {
			if s, err := compliance.ParseScope(ws.cfg.Scope); err == nil {
				scope = s
			}
		}

		t := table.NewWriter()
		t.SetOutputMirror(out)
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"ID", "Category", "Severity", "Check", "Description", "Applies"})
		for _, r := range rules {
			// Without an explicit type, only scope decides applicability.
			typ := pt
			if typ == "" {
				typ = r.ProjectType
			}
			applies := "yes"
			if ruleset.SkipReason(r, typ, scope) != "" {
				applies = "no"
			}
			t.AppendRow(table.Row{strconv.Itoa(r.ID), r.Category, r.Severity, r.Target(), r.Description, applies})
		}
		t.AppendFooter(table.Row{"", "", "", "", strconv.Itoa(len(rules)) + " rules", ""})
		t.Render()
		return nil
	},
}

var rulesHandlersCmd = &cobra.Command{
	Use:   "handlers",
	Short: "List the builtin handlers rules may reference",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		registry := handlers.Default()

		t := table.NewWriter()
		t.SetOutputMirror(cmd.OutOrStdout())
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"Handler", "Category", "Description"})
		for _, name := range registry.Names() {
			h, _ := registry.Lookup(name)
			t.AppendRow(table.Row{h.Name(), h.Category(), h.Description()})
		}
		t.Render()
		return nil
	},
}

func init() {
	rulesListCmd.Flags().String("rules", "", "TOML rule document replacing the default rule set")
	rulesListCmd.Flags().StringVar(&rulesIDs, "ids", "", "only list these rule ids, e.g. 1-5,8")
	rulesListCmd.Flags().String("type", "", "project type used for the Applies column")
	rulesListCmd.Flags().String("scope", "", "project scope used for the Applies column")
	rulesListCmd.Flags().String("format", config.FormatText, "output format: text or json")

	rulesCmd.AddCommand(rulesListCmd)
	rulesCmd.AddCommand(rulesHandlersCmd)
	RootCmd.AddCommand(rulesCmd)
}
