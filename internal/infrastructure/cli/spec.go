package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/glamour"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/specguard/internal/infrastructure/config"
)

var (
	specMarkdownOut     string
	specMarkdownPreview bool
)

var specCmd = &cobra.Command{
	Use:   "spec",
	Short: "Discover, validate and cross-reference SDLC spec documents",
}

var specDiscoverCmd = &cobra.Command{
	Use:   "discover [path]",
	Short: "List the spec documents in a project",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := loadWorkspace(cmd, projectRoot(args))
		if err != nil {
			return err
		}
		docs, err := ws.specs.Discover(ws.root, ws.cfg.Exclude...)
		if err != nil {
			return MapError(err)
		}

		out := cmd.OutOrStdout()
		if ws.cfg.Format == config.FormatJSON {
			return writeJSON(out, docs)
		}
		if len(docs) == 0 {
			fmt.Fprintln(out, skipStyle.Render("no spec documents found"))
			return nil
		}
		t := table.NewWriter()
		t.SetOutputMirror(out)
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"Path", "Kind", "Format", "Domain"})
		for _, d := range docs {
			t.AppendRow(table.Row{d.Path, d.Kind, d.Format, d.Domain})
		}
		t.Render()
		return nil
	},
}

var specValidateCmd = &cobra.Command{
	Use:   "validate [path]",
	Short: "Validate every spec document against its schema and field rules",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := loadWorkspace(cmd, projectRoot(args))
		if err != nil {
			return err
		}
		result, err := ws.specs.Validate(ws.root, ws.cfg.Exclude...)
		if err != nil {
			return MapError(err)
		}

		out := cmd.OutOrStdout()
		if ws.cfg.Format == config.FormatJSON {
			if err := writeJSON(out, result); err != nil {
				return err
			}
		} else {
			renderDiagnostics(out, result.Documents, result.Diagnostics)
		}
		if !result.Valid() {
			return failures("%d spec problems found", len(result.Diagnostics))
		}
		return nil
	},
}

var specCrossRefCmd = &cobra.Command{
	Use:   "crossref [path]",
	Short: "Check references between spec documents",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := loadWorkspace(cmd, projectRoot(args))
		if err != nil {
			return err
		}
		report, err := ws.specs.CrossReference(ws.root, ws.cfg.Exclude...)
		if err != nil {
			return MapError(err)
		}

		out := cmd.OutOrStdout()
		if ws.cfg.Format == config.FormatJSON {
			if err := writeJSON(out, report); err != nil {
				return err
			}
		} else {
			renderCrossRef(out, report)
		}
		if n := report.FailureCount(); n > 0 {
			return failures("%d broken spec references", n)
		}
		return nil
	},
}

var specMarkdownCmd = &cobra.Command{
	Use:   "markdown <file>",
	Short: "Render a typed spec document as prose markdown",
	Long: `Render a typed document (*.spec.yaml, *.arch.yaml, *.test.yaml, *.deploy.yaml)
into its prose counterpart. The output defaults to the prose sibling of the input,
e.g. login.spec.yaml becomes login.spec. With --preview the markdown is printed
to the terminal instead of written.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := loadWorkspace(cmd, ".")
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		if specMarkdownPreview {
			md, err := ws.specs.RenderMarkdown(args[0])
			if err != nil {
				return NewCLIError("failed to render spec", "", err)
			}
			return previewMarkdown(out, md)
		}

		written, err := ws.specs.WriteMarkdown(args[0], specMarkdownOut)
		if err != nil {
			return NewCLIError("failed to render spec", "Pass --out to choose another destination", err)
		}
		fmt.Fprintf(out, "%s %s\n", passStyle.Render("wrote"), written)
		return nil
	},
}

// previewMarkdown renders md for the terminal.
func previewMarkdown(w io.Writer, md string) error {
	r, err := glamour.NewTermRenderer(
		glamour.WithWordWrap(100),
		glamour.WithStandardStyle("dark"),
	)
	if err != nil {
		return fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	rendered, err := r.Render(md)
	if err != nil {
		return fmt.Errorf("failed to render markdown: %w", err)
	}
	_, err = fmt.Fprint(w, rendered)
	return err
}

func init() {
	for _, c := range []*cobra.Command{specDiscoverCmd, specValidateCmd, specCrossRefCmd} {
		c.Flags().String("format", config.FormatText, "output format: text or json")
		c.Flags().StringSlice("exclude", nil, "additional directory names to skip")
		specCmd.AddCommand(c)
	}
	specMarkdownCmd.Flags().StringVarP(&specMarkdownOut, "out", "o", "", "output path (default: prose sibling of the input)")
	specMarkdownCmd.Flags().BoolVar(&specMarkdownPreview, "preview", false, "print rendered markdown instead of writing it")
	specCmd.AddCommand(specMarkdownCmd)

	RootCmd.AddCommand(specCmd)
}
