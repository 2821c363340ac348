package cli

import (
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/specguard/internal/infrastructure/config"
)

var (
	scanIDs string
	scanTUI bool
)

var scanCmd = &cobra.Command{
	Use:   "scan [path]",
	Short: "Check a project against the rule set",
	Long: `Scan walks the project tree once and evaluates every rule against it.
Rules come from the embedded default set unless --rules names a TOML rule document,
which then replaces the defaults entirely.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := loadWorkspace(cmd, projectRoot(args))
		if err != nil {
			return err
		}

		report, err := ws.compliance.Scan(commandContext(cmd), ws.scanRequest(scanIDs))
		if err != nil {
			return MapError(err)
		}

		out := cmd.OutOrStdout()
		switch {
		case scanTUI:
			if err := runReportTUI(report); err != nil {
				return err
			}
		case ws.cfg.Format == config.FormatJSON:
			if err := writeJSON(out, report); err != nil {
				return err
			}
		default:
			renderReport(out, report)
		}

		if report.HasFailures() {
			return failures("%d of %d rules failed", report.Summary.Failed, report.Summary.Total)
		}
		return nil
	},
}

// addRuleFlags registers the flags shared by commands that select rules.
func addRuleFlags(cmd *cobra.Command, ids *string) {
	cmd.Flags().String("rules", "", "TOML rule document replacing the default rule set")
	cmd.Flags().StringVar(ids, "ids", "", "only run these rule ids, e.g. 1-5,8,12-13")
	cmd.Flags().String("type", "", "project type: open_source or internal (default: detected from LICENSE)")
	cmd.Flags().String("scope", "", "project scope: small, medium or large (default: large)")
}

func init() {
	addRuleFlags(scanCmd, &scanIDs)
	scanCmd.Flags().String("format", config.FormatText, "output format: text or json")
	scanCmd.Flags().Int("parallel", 1, "evaluate up to this many checks concurrently")
	scanCmd.Flags().StringSlice("exclude", nil, "additional directory names to skip")
	scanCmd.Flags().BoolVar(&scanTUI, "tui", false, "browse the results interactively")
	RootCmd.AddCommand(scanCmd)
}
