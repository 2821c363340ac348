package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/specguard/internal/infrastructure/config"
	"github.com/felixgeelhaar/specguard/pkg/application"
)

// workspace bundles what a command needs for one project root.
type workspace struct {
	root       string
	cfg        *config.Config
	logger     *slog.Logger
	compliance *application.ComplianceService
	specs      *application.SpecService
}

// projectRoot returns the first positional argument, defaulting to ".".
func projectRoot(args []string) string {
	if len(args) > 0 && args[0] != "" {
		return args[0]
	}
	return "."
}

// loadWorkspace resolves configuration for root from the config file,
// SPECGUARD_* variables and the command's flags, and builds the services.
func loadWorkspace(cmd *cobra.Command, root string) (*workspace, error) {
	cfg, err := config.Load(root, cfgFile, cmd.Flags())
	if err != nil {
		return nil, &CLIError{
			Message:  "invalid configuration",
			Hint:     "Check " + config.FileName + " and SPECGUARD_* environment variables",
			Err:      err,
			ExitCode: ExitInvalid,
		}
	}
	logger := newLogger(cmd.ErrOrStderr(), cfg.Verbose)
	if cfg.FileUsed != "" {
		logger.Debug("config loaded", "file", cfg.FileUsed)
	}
	return &workspace{
		root:       root,
		cfg:        cfg,
		logger:     logger,
		compliance: application.NewComplianceService(nil, logger),
		specs:      application.NewSpecService(logger),
	}, nil
}

// scanRequest builds the scan request from configuration plus the id filter.
func (w *workspace) scanRequest(ids string) application.ScanRequest {
	return application.ScanRequest{
		Root:        w.root,
		RulesPath:   w.cfg.Rules,
		IDs:         ids,
		ProjectType: w.cfg.ProjectType,
		Scope:       w.cfg.Scope,
		Parallel:    w.cfg.Parallel,
		Exclude:     w.cfg.Exclude,
	}
}
