package application_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/specguard/pkg/application"
	"github.com/felixgeelhaar/specguard/pkg/domain/compliance"
	"github.com/felixgeelhaar/specguard/pkg/domain/spec"
)

const loginSpecYAML = `kind: feature_request
id: AUTH-001
title: Login
version: 1.0.0
status: draft
requirements:
  - id: FR-001
    title: Password login
    priority: must
`

func TestSpecService_ValidateAndDiscover(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"specs/auth/login.spec.yaml": loginSpecYAML,
		"specs/auth/broken.spec.yaml": "kind: feature_request\nid: bad\ntitle: Broken\nversion: 1\nstatus: draft\n" +
			"requirements:\n  - id: FR-002\n    title: x\n",
		"specs/auth/login.manual.exec": "steps\n",
		"README.md":                    "# x\n",
	})

	svc := application.NewSpecService(nil)
	found, err := svc.Discover(root)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "specs/auth/broken.spec.yaml", found[0].Path)
	assert.Equal(t, spec.KindFeatureRequest, found[1].Kind)

	result, err := svc.Validate(root)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Documents)
	assert.False(t, result.Valid())
	for _, d := range result.Diagnostics {
		assert.Equal(t, "specs/auth/broken.spec.yaml", d.File)
	}
}

func TestSpecService_MissingRoot(t *testing.T) {
	_, err := application.NewSpecService(nil).Validate(filepath.Join(t.TempDir(), "nope"))
	assert.ErrorIs(t, err, compliance.ErrPath)
}

func TestSpecService_CrossReference(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"auth/login.spec.yaml": loginSpecYAML})

	report, err := application.NewSpecService(nil).CrossReference(root)
	require.NoError(t, err)
	assert.False(t, report.Skipped)
	// arch, test and deploy are all missing
	assert.Len(t, report.Failures(spec.CategorySDLCChain), 3)

	empty, err := application.NewSpecService(nil).CrossReference(t.TempDir())
	require.NoError(t, err)
	assert.True(t, empty.Skipped)
	assert.Zero(t, empty.FailureCount())
}

func TestSpecService_Markdown(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"auth/login.spec.yaml": loginSpecYAML})
	src := filepath.Join(root, "auth", "login.spec.yaml")

	svc := application.NewSpecService(nil)
	text, err := svc.RenderMarkdown(src)
	require.NoError(t, err)
	assert.Contains(t, text, "# Login")
	assert.Contains(t, text, "FR-001")

	out, err := svc.WriteMarkdown(src, "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "auth", "login.spec"), out)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, text, string(data))

	// The rendered prose document joins the corpus cleanly.
	result, err := svc.Validate(root)
	require.NoError(t, err)
	assert.True(t, result.Valid(), "%v", result.Diagnostics)
	assert.Equal(t, 2, result.Documents)

	_, err = svc.RenderMarkdown(filepath.Join(root, "auth", "login.spec"))
	assert.Error(t, err)
}

func TestSpecService_WriteMarkdownCreatesDirectories(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"auth/login.spec.yaml": loginSpecYAML})
	src := filepath.Join(root, "auth", "login.spec.yaml")
	out := filepath.Join(root, "generated", "prose", "login.spec")

	svc := application.NewSpecService(nil)
	written, err := svc.WriteMarkdown(src, out)
	require.NoError(t, err)
	assert.Equal(t, out, written)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# Login")

	_, err = svc.WriteMarkdown(src, src)
	assert.Error(t, err)
}
