package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scanFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("scan", pflag.ContinueOnError)
	fs.String("rules", "", "")
	fs.String("type", "", "")
	fs.String("scope", "", "")
	fs.StringSlice("exclude", nil, "")
	fs.String("format", "text", "")
	fs.Int("parallel", 1, "")
	fs.Bool("verbose", false, "")
	fs.String("ids", "", "")
	return fs
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(t.TempDir(), "", nil)
	require.NoError(t, err)
	assert.Equal(t, FormatText, cfg.Format)
	assert.Equal(t, 1, cfg.Parallel)
	assert.Empty(t, cfg.Rules)
	assert.Empty(t, cfg.FileUsed)
}

func TestLoad_Precedence(t *testing.T) {
	root := t.TempDir()
	content := "rules: policy/rules.toml\nscope: small\nproject_type: internal\nexclude: [generated, tmp]\nparallel: 2\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, FileName), []byte(content), 0o600))

	t.Setenv("SPECGUARD_SCOPE", "medium")
	t.Setenv("SPECGUARD_PARALLEL", "3")

	flags := scanFlags()
	require.NoError(t, flags.Parse([]string{"--parallel", "8", "--format", "json", "--ids", "1-3"}))

	cfg, err := Load(root, "", flags)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, FileName), cfg.FileUsed)
	assert.Equal(t, filepath.Join(root, "policy", "rules.toml"), cfg.Rules)
	assert.Equal(t, "internal", cfg.ProjectType)
	assert.Equal(t, "medium", cfg.Scope, "env overrides file")
	assert.Equal(t, 8, cfg.Parallel, "flag overrides env")
	assert.Equal(t, FormatJSON, cfg.Format)
	assert.Equal(t, []string{"generated", "tmp"}, cfg.Exclude)
}

func TestLoad_FlagRulesStayRelativeToWorkingDir(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, FileName), []byte("rules: from-file.toml\n"), 0o600))

	flags := scanFlags()
	require.NoError(t, flags.Parse([]string{"--rules", "mine.toml", "--type", "oss"}))

	cfg, err := Load(root, "", flags)
	require.NoError(t, err)
	assert.Equal(t, "mine.toml", cfg.Rules)
	assert.Equal(t, "oss", cfg.ProjectType)
}

func TestLoad_EnvListIsSplit(t *testing.T) {
	t.Setenv("SPECGUARD_EXCLUDE", "a, b,,c")
	cfg, err := Load(t.TempDir(), "", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, cfg.Exclude)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(t.TempDir(), filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, FileName), []byte("format: xml\n"), 0o600))
	_, err = Load(root, "", nil)
	assert.ErrorContains(t, err, `invalid format "xml"`)

	bad := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(bad, FileName), []byte("scope: [unclosed\n"), 0o600))
	_, err = Load(bad, "", nil)
	assert.ErrorContains(t, err, "error reading config file")
}

func TestSaveRoundTrip(t *testing.T) {
	root := t.TempDir()
	in := Defaults()
	in.Scope = "medium"
	in.Exclude = []string{"generated"}

	path, err := Save(root, in)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, FileName), path)

	out, err := Load(root, "", nil)
	require.NoError(t, err)
	assert.Equal(t, "medium", out.Scope)
	assert.Equal(t, []string{"generated"}, out.Exclude)
	assert.Equal(t, FormatText, out.Format)

	_, err = Save(root, nil)
	assert.Error(t, err)
}
