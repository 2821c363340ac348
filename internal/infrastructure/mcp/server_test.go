package mcp

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/specguard/pkg/application"
	"github.com/felixgeelhaar/specguard/pkg/domain/compliance"
	"github.com/felixgeelhaar/specguard/pkg/domain/spec"
)

func newTestServer(t *testing.T, files map[string]string) (*Server, string) {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
	return NewServer(root, "", nil), root
}

func TestServer_HandleScan(t *testing.T) {
	s, root := newTestServer(t, map[string]string{"README.md": "# Demo\n"})

	resp, err := s.handleScan(context.Background(), ScanArgs{IDs: "1-3"})
	require.NoError(t, err)

	report, ok := resp.(*compliance.ScanReport)
	require.True(t, ok)
	assert.Len(t, report.Results, 3)
	assert.Equal(t, root, report.ProjectRoot)
	assert.True(t, report.Results[0].Result.Passed())
}

func TestServer_HandleScanPassesActionableErrors(t *testing.T) {
	s, _ := newTestServer(t, nil)

	_, err := s.handleScan(context.Background(), ScanArgs{Path: "missing"})
	assert.True(t, errors.Is(err, compliance.ErrPath))

	_, err = s.handleScan(context.Background(), ScanArgs{Scope: "huge"})
	assert.True(t, errors.Is(err, compliance.ErrConfig))
}

func TestServer_HandleSpecTools(t *testing.T) {
	s, _ := newTestServer(t, map[string]string{
		"specs/auth/auth.spec.yaml": "kind: feature_request\nid: AUTH-001\ntitle: Auth\nversion: 1\nstatus: draft\n" +
			"requirements:\n  - id: FR-001\n    title: Login\n",
	})

	resp, err := s.handleSpecValidate(context.Background(), SpecArgs{Path: "specs"})
	require.NoError(t, err)
	validation := resp.(*application.SpecValidation)
	assert.Equal(t, 1, validation.Documents)
	assert.True(t, validation.Valid(), "%v", validation.Diagnostics)

	resp, err = s.handleSpecCrossRef(context.Background(), SpecArgs{})
	require.NoError(t, err)
	report := resp.(*spec.CrossRefReport)
	assert.False(t, report.Skipped)
	assert.NotEmpty(t, report.Failures(spec.CategorySDLCChain))
}

func TestServer_HandleRules(t *testing.T) {
	s, _ := newTestServer(t, nil)

	resp, err := s.handleRules(context.Background(), RulesArgs{IDs: "1,2"})
	require.NoError(t, err)
	rules := resp.([]compliance.RuleDef)
	require.Len(t, rules, 2)
	assert.Equal(t, 1, rules[0].ID)

	_, err = s.handleRules(context.Background(), RulesArgs{IDs: "nope"})
	assert.True(t, errors.Is(err, compliance.ErrConfig))
}

func TestServer_ExternalRules(t *testing.T) {
	root := t.TempDir()
	rules := filepath.Join(root, "rules.toml")
	doc := "[[rules]]\nid = 1\nseverity = \"error\"\ntype = \"dir_exists\"\npath = \"docs\"\n"
	require.NoError(t, os.WriteFile(rules, []byte(doc), 0o644))

	s := NewServer(root, rules, nil)
	resp, err := s.handleScan(context.Background(), ScanArgs{})
	require.NoError(t, err)
	report := resp.(*compliance.ScanReport)
	require.Len(t, report.Results, 1)
	assert.True(t, report.Results[0].Result.Failed())
}
