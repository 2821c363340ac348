package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/specguard/internal/infrastructure/config"
	"github.com/felixgeelhaar/specguard/pkg/storage"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a " + config.FileName + " with the current settings",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := storage.ValidateRoot(projectRoot(args))
		if err != nil {
			return MapError(err)
		}
		target := filepath.Join(root, config.FileName)
		if _, err := os.Stat(target); err == nil && !initForce {
			return NewCLIError(target+" already exists", "Use --force to overwrite it", nil)
		}

		ws, err := loadWorkspace(cmd, root)
		if err != nil {
			return err
		}
		cfg := *ws.cfg
		if cfg.Rules != "" {
			// The file stores the rule path relative to itself.
			if abs, err := filepath.Abs(cfg.Rules); err == nil {
				if rel, err := filepath.Rel(root, abs); err == nil {
					cfg.Rules = filepath.ToSlash(rel)
				}
			}
		}

		path, err := config.Save(root, &cfg)
		if err != nil {
			return NewCLIError("failed to write configuration", "", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", passStyle.Render("wrote"), path)
		return nil
	},
}

func init() {
	initCmd.Flags().String("rules", "", "TOML rule document replacing the default rule set")
	initCmd.Flags().String("type", "", "project type: open_source or internal")
	initCmd.Flags().String("scope", "", "project scope: small, medium or large")
	initCmd.Flags().String("format", config.FormatText, "default output format: text or json")
	initCmd.Flags().Int("parallel", 1, "default number of concurrent checks")
	initCmd.Flags().StringSlice("exclude", nil, "additional directory names to skip")
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing configuration file")
	RootCmd.AddCommand(initCmd)
}
