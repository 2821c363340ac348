package cli

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"

	inframcp "github.com/felixgeelhaar/specguard/internal/infrastructure/mcp"
	"github.com/felixgeelhaar/specguard/pkg/storage"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp [path]",
	Short: "Serve scan and spec tools over MCP on stdio",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := loadWorkspace(cmd, projectRoot(args))
		if err != nil {
			return err
		}
		root, err := storage.ValidateRoot(ws.root)
		if err != nil {
			return MapError(err)
		}
		server := inframcp.NewServer(root, ws.cfg.Rules, ws.logger)
		if os.Getenv("SPECGUARD_SKIP_MCP_START") == "true" {
			return nil
		}
		if err := server.ServeStdio(commandContext(cmd)); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	mcpCmd.Flags().String("rules", "", "TOML rule document replacing the default rule set")
	RootCmd.AddCommand(mcpCmd)
}
