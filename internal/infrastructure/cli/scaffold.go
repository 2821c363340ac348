package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/specguard/internal/infrastructure/config"
	"github.com/felixgeelhaar/specguard/pkg/application"
)

var (
	scaffoldOut   string
	scaffoldForce bool
)

var scaffoldCmd = &cobra.Command{
	Use:   "scaffold <srs.md>",
	Short: "Generate spec documents from a requirements document",
	Long: `Scaffold reads a software requirements document, finds every domain section
with FR-* or NFR-* blocks and writes a feature request, architecture, test and deployment
document per domain, plus a project-wide architecture and deployment document.
Existing files are left alone unless --force is given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := loadWorkspace(cmd, ".")
		if err != nil {
			return err
		}
		svc := application.NewScaffoldService(ws.logger)
		result, err := svc.Scaffold(application.ScaffoldRequest{
			SRSPath: args[0],
			OutDir:  scaffoldOut,
			Force:   scaffoldForce,
		})
		if err != nil {
			return NewCLIError("scaffold failed", "Domains are numbered '### ' sections containing '#### FR-' or '#### NFR-' blocks", err)
		}

		out := cmd.OutOrStdout()
		if ws.cfg.Format == config.FormatJSON {
			return writeJSON(out, result)
		}
		for _, p := range result.Created {
			fmt.Fprintf(out, "%s %s\n", passStyle.Render("created"), p)
		}
		for _, p := range result.Skipped {
			fmt.Fprintf(out, "%s %s\n", skipStyle.Render("exists "), p)
		}
		fmt.Fprintf(out, "\n%d domains, %d requirements: %d created, %d skipped\n",
			result.DomainCount, result.RequirementCount, len(result.Created), len(result.Skipped))
		return nil
	},
}

func init() {
	scaffoldCmd.Flags().StringVarP(&scaffoldOut, "out", "o", ".", "output root for the generated documents")
	scaffoldCmd.Flags().BoolVar(&scaffoldForce, "force", false, "overwrite existing files")
	scaffoldCmd.Flags().String("format", config.FormatText, "output format: text or json")
	RootCmd.AddCommand(scaffoldCmd)
}
