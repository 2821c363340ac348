package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	inframcp "github.com/felixgeelhaar/specguard/internal/infrastructure/mcp"
	"github.com/felixgeelhaar/specguard/pkg/domain/compliance"
)

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var (
	cfgFile string
	verbose bool
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:     "specguard",
	Version: Version,
	Short:   "Documentation and SDLC spec compliance checks for repositories",
	Long: `specguard checks a repository against a rule set covering project structure,
documentation quality and SDLC spec documents (feature requests, architecture,
test plans and deployment specs), and scaffolds spec documents from requirements.

Exit codes: 0 all checks passed, 1 at least one check failed,
2 the path or rule configuration is invalid.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and returns the process exit code.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() int {
	RootCmd.Version = Version
	compliance.ToolVersion = Version
	inframcp.Version = Version
	inframcp.BuildCommit = Commit
	inframcp.BuildDate = Date

	if err := RootCmd.Execute(); err != nil {
		return reportError(RootCmd.ErrOrStderr(), err)
	}
	return 0
}

func init() {
	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: <path>/.specguard.yaml)")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

var (
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	hintStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
)

// reportError prints err with its hint and returns the exit code for it.
// Errors that are not mapped to a CLIError are operational failures (exit 2).
func reportError(w io.Writer, err error) int {
	mapped := MapError(err)
	cliErr, ok := mapped.(*CLIError)
	if !ok {
		cliErr = &CLIError{Message: mapped.Error(), ExitCode: 2}
	}
	_, _ = fmt.Fprintln(w, errorStyle.Render("Error:")+" "+cliErr.Error())
	if cliErr.Hint != "" {
		_, _ = fmt.Fprintln(w, hintStyle.Render("Hint: "+cliErr.Hint))
	}
	return cliErr.ExitCode
}

// newLogger returns a text logger on w. Debug output is enabled by verbose.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// commandContext returns the command context, which is nil when RunE is
// invoked directly.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
