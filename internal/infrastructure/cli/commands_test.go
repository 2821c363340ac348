package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/specguard/internal/infrastructure/config"
	"github.com/felixgeelhaar/specguard/pkg/domain/compliance"
	"github.com/felixgeelhaar/specguard/pkg/domain/scaffold"
)

func TestRulesList(t *testing.T) {
	out, _, code := runCLI(t, "rules", "list", t.TempDir(), "--ids", "1-8", "--type", "internal", "--scope", "small")
	require.Equal(t, ExitOK, code)
	assert.Contains(t, out, "Project has a README")
	assert.Contains(t, out, "builtin:readme_title")
	assert.Contains(t, strings.ToLower(out), "8 rules")
	assert.Contains(t, out, "no")

	out, _, code = runCLI(t, "rules", "list", t.TempDir(), "--format", "json", "--ids", "31-42")
	require.Equal(t, ExitOK, code)
	var rules []compliance.RuleDef
	require.NoError(t, json.Unmarshal([]byte(out), &rules))
	assert.Len(t, rules, 12)
}

func TestRulesHandlers(t *testing.T) {
	out, _, code := runCLI(t, "rules", "handlers")
	require.Equal(t, ExitOK, code)
	assert.Contains(t, out, "readme_title")
	assert.Contains(t, out, "license_recognized")
}

func TestSpecCommands(t *testing.T) {
	root := t.TempDir()

	out, _, code := runCLI(t, "spec", "discover", root)
	assert.Equal(t, ExitOK, code)
	assert.Contains(t, out, "no spec documents found")

	out, _, code = runCLI(t, "spec", "crossref", root)
	assert.Equal(t, ExitOK, code)
	assert.Contains(t, out, "skipped")

	writeFiles(t, root, map[string]string{"specs/broken.spec.yaml": "id: [unterminated\n"})
	out, stderr, code := runCLI(t, "spec", "validate", root, "--format", "json")
	assert.Equal(t, ExitFailed, code)
	assert.Contains(t, stderr, "spec problems found")
	var result struct {
		Documents   int `json:"documents"`
		Diagnostics []struct {
			File string `json:"file"`
			Kind string `json:"kind"`
		} `json:"diagnostics"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, 1, result.Documents)
	require.NotEmpty(t, result.Diagnostics)
	assert.Equal(t, "specs/broken.spec.yaml", result.Diagnostics[0].File)

	_, stderr, code = runCLI(t, "spec", "validate", filepath.Join(root, "missing"))
	assert.Equal(t, ExitInvalid, code)
	assert.Contains(t, stderr, "invalid project path")
}

func TestSpecMarkdown_RejectsProse(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.md")
	require.NoError(t, os.WriteFile(path, []byte("# Notes\n"), 0o644))

	_, stderr, code := runCLI(t, "spec", "markdown", path)
	assert.Equal(t, ExitFailed, code)
	assert.Contains(t, stderr, "not a typed spec document")
}

func TestScaffoldCommand(t *testing.T) {
	srs := filepath.Join(t.TempDir(), "srs.md")
	require.NoError(t, os.WriteFile(srs, []byte("### 4.1 Login\n\n#### FR-001 Sign in\n\nUsers sign in.\n"), 0o644))
	out := filepath.Join(t.TempDir(), "specs")

	stdout, _, code := runCLI(t, "scaffold", srs, "--out", out, "--format", "json")
	require.Equal(t, ExitOK, code)
	var result scaffold.Result
	require.NoError(t, json.Unmarshal([]byte(stdout), &result))
	assert.Equal(t, 1, result.DomainCount)
	assert.Len(t, result.Created, scaffold.ExpectedFiles(1))

	stdout, _, code = runCLI(t, "scaffold", srs, "--out", out)
	require.Equal(t, ExitOK, code)
	assert.Contains(t, stdout, "0 created")

	// Generated documents cross-reference cleanly.
	_, _, code = runCLI(t, "spec", "crossref", out)
	assert.Equal(t, ExitOK, code)

	empty := filepath.Join(t.TempDir(), "empty.md")
	require.NoError(t, os.WriteFile(empty, []byte("# Nothing here\n"), 0o644))
	_, stderr, code := runCLI(t, "scaffold", empty, "--out", out)
	assert.Equal(t, ExitFailed, code)
	assert.Contains(t, stderr, "no domain sections")
}

func TestInitCommand(t *testing.T) {
	root := t.TempDir()
	rules := filepath.Join(root, "policy", "rules.toml")
	writeFiles(t, root, map[string]string{"policy/rules.toml": readmeOnlyRules})

	out, _, code := runCLI(t, "init", root, "--rules", rules, "--scope", "medium")
	require.Equal(t, ExitOK, code)
	assert.Contains(t, out, config.FileName)

	cfg, err := config.Load(root, "", nil)
	require.NoError(t, err)
	assert.Equal(t, "medium", cfg.Scope)
	assert.Equal(t, rules, cfg.Rules)

	_, stderr, code := runCLI(t, "init", root)
	assert.Equal(t, ExitFailed, code)
	assert.Contains(t, stderr, "--force")

	_, _, code = runCLI(t, "init", root, "--force", "--scope", "small")
	require.Equal(t, ExitOK, code)
	cfg, err = config.Load(root, "", nil)
	require.NoError(t, err)
	assert.Equal(t, "small", cfg.Scope)
	assert.Equal(t, rules, cfg.Rules)
}

func TestWatchRunsInitialScan(t *testing.T) {
	watchOnce = true
	t.Cleanup(func() { watchOnce = false })
	root := sampleProject(t)
	rules := writeRules(t, readmeOnlyRules)

	out, _, code := runCLI(t, "watch", root, "--rules", rules)
	assert.Equal(t, ExitOK, code)
	assert.Contains(t, out, "2 passed")
}

func TestMCPCommand(t *testing.T) {
	_, _, code := runCLI(t, "mcp", t.TempDir())
	assert.Equal(t, ExitOK, code)

	_, stderr, code := runCLI(t, "mcp", filepath.Join(t.TempDir(), "missing"))
	assert.Equal(t, ExitInvalid, code)
	assert.Contains(t, stderr, "invalid project path")
}
