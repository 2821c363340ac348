package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

// resetFlags restores every flag of cmd and its children to its default.
// Cobra keeps flag state on the package-level commands between runs.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.PersistentFlags().VisitAll(reset)
	cmd.Flags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// runCLI executes the command line and returns stdout, stderr and the exit code.
func runCLI(t *testing.T, args ...string) (string, string, int) {
	t.Helper()
	t.Setenv("SPECGUARD_SKIP_TUI", "true")
	t.Setenv("SPECGUARD_SKIP_MCP_START", "true")

	resetFlags(RootCmd)
	var stdout, stderr bytes.Buffer
	RootCmd.SetOut(&stdout)
	RootCmd.SetErr(&stderr)
	RootCmd.SetArgs(args)
	t.Cleanup(func() {
		RootCmd.SetOut(nil)
		RootCmd.SetErr(nil)
		RootCmd.SetArgs(nil)
	})

	code := ExitOK
	if err := RootCmd.Execute(); err != nil {
		code = reportError(&stderr, err)
	}
	return stdout.String(), stderr.String(), code
}

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
}

func sampleProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"README.md":       "# Sample\n\n## Installation\n\nrun make\n\n## Usage\n\nrun it\n\n## Contributing\n\nPRs welcome\n\n## License\n\nMIT\n",
		"LICENSE":         "MIT License\n\nPermission is hereby granted, free of charge\n",
		"CONTRIBUTING.md": "# Contributing\n",
		"docs/index.md":   "# Docs\n",
	})
	return root
}

const readmeOnlyRules = `
[[rules]]
id = 1
category = "structure"
description = "Project has a README"
severity = "error"
type = "file_exists"
path = "README.md"

[[rules]]
id = 2
category = "structure"
description = "Project has docs"
severity = "error"
type = "dir_exists"
path = "docs"
`
