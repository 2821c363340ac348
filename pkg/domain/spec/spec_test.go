package spec

import (
	"io/fs"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memReader serves files from memory.
type memReader map[string]string

func (m memReader) ReadFile(rel string) ([]byte, error) {
	data, ok := m[rel]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return []byte(data), nil
}

func (m memReader) files() []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func load(m memReader) *Corpus {
	return Load(m.files(), m)
}

const authSpecYAML = `kind: feature_request
id: AUTH-001
title: Authentication
version: 1.0.0
status: draft
requirements:
  - id: FR-001
    title: Login with password
    priority: must
`

const authSpecProse = `# Authentication

**ID:** AUTH-001
**Version:** 1.0.0
**Status:** draft

## Requirements

| ID | Requirement | Priority | Description |
| --- | --- | --- | --- |
| FR-001 | Login with password | must | Users sign in |
`

func TestClassify(t *testing.T) {
	tests := []struct {
		path   string
		ok     bool
		format Format
		kind   Kind
		stem   string
		domain string
	}{
		{"brd.spec.yaml", true, FormatTyped, KindBrd, "brd", ""},
		{"specs/brd.spec", true, FormatProse, KindBrd, "brd", "specs"},
		{"auth/login.spec.yaml", true, FormatTyped, KindFeatureRequest, "login", "auth"},
		{"auth/login.spec.yml", true, FormatTyped, KindFeatureRequest, "login", "auth"},
		{"auth/login.arch.yaml", true, FormatTyped, KindArch, "login", "auth"},
		{"auth/login.test", true, FormatProse, KindTest, "login", "auth"},
		{"auth/login.deploy", true, FormatProse, KindDeploy, "login", "auth"},
		{"auth/login.manual.exec", false, "", "", "", ""},
		{"auth/login.auto.exec", false, "", "", "", ""},
		{"config.yaml", false, "", "", "", ""},
		{"README.md", false, "", "", "", ""},
		{".spec", false, "", "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			d, ok := Classify(tt.path)
			require.Equal(t, tt.ok, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.format, d.Format)
			assert.Equal(t, tt.kind, d.Kind)
			assert.Equal(t, tt.stem, d.Stem)
			assert.Equal(t, tt.domain, d.Domain)
		})
	}
}

func TestParseTyped(t *testing.T) {
	d, _ := Classify("auth/auth.spec.yaml")
	p, diags := Parse(d, []byte(authSpecYAML))
	require.Empty(t, diags)

	fr, ok := p.Doc.(*FeatureRequestSpec)
	require.True(t, ok)
	assert.Equal(t, "AUTH-001", fr.ID)
	assert.Equal(t, []string{"AUTH-001", "FR-001"}, DeclaredIDs(fr))
}

func TestParseTypedDiagnostics(t *testing.T) {
	d, _ := Classify("auth/auth.arch.yaml")

	tests := map[string]struct {
		body string
		kind DiagnosticKind
	}{
		"syntax":   {"kind: [unclosed", DiagParse},
		"no kind":  {"title: x\n", DiagMissingField},
		"unknown":  {"kind: roadmap\n", DiagInvalidValue},
		"mismatch": {"kind: test_plan\nspec: AUTH-001\n", DiagInvalidValue},
		"empty":    {"", DiagParse},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			p, diags := Parse(d, []byte(tt.body))
			assert.Nil(t, p)
			require.Len(t, diags, 1)
			assert.Equal(t, tt.kind, diags[0].Kind)
			assert.Equal(t, "auth/auth.arch.yaml", diags[0].File)
		})
	}
}

func TestParseProse(t *testing.T) {
	d, _ := Classify("auth/auth.test")
	body := "# Auth tests\n\n**Version:** 1.0\n**Status:** draft\n**Spec:** AUTH-001 (auth/auth.spec)\n" +
		"**Related:** [overview](../docs/overview.md)\n\n" +
		"```\n**Version:** ignored\n```\n\n" +
		"| ID | Title | Verifies | Type |\n|----|-------|----------|------|\n" +
		"| TC-001 | Login works | FR-001, FR-002 | e2e |\n"

	p, diags := Parse(d, []byte(body))
	require.Empty(t, diags)
	ts := p.Doc.(*TestSpec)
	assert.Equal(t, "AUTH-001", ts.Spec)
	assert.Equal(t, "1.0", ts.Version)
	assert.Equal(t, []string{"../docs/overview.md"}, ts.RelatedDocs)
	require.Len(t, ts.TestCases, 1)
	assert.Equal(t, []string{"FR-001", "FR-002"}, ts.TestCases[0].VerifiedIDs())
}

func TestParseProseMissingMetadata(t *testing.T) {
	d, _ := Classify("auth/auth.test")
	p, diags := Parse(d, []byte("# Auth tests\n\n**Status:** draft\n"))
	assert.Nil(t, p)

	var messages []string
	for _, dg := range diags {
		assert.Equal(t, DiagMissingField, dg.Kind)
		messages = append(messages, dg.Message)
	}
	assert.Contains(t, messages, "missing **Version:** label")
	assert.Contains(t, messages, "missing test case table with a Verifies column")
}

func TestValidateFeatureID(t *testing.T) {
	bad := memReader{
		"auth/auth.spec.yaml": `kind: feature_request
id: auth-1
title: Auth
version: 1.0.0
status: draft
requirements:
  - id: FR-001
    title: Login
`,
		"auth/auth.spec": "# Auth\n\n**ID:** Auth01\n**Version:** 1\n**Status:** draft\n\n| ID | Requirement |\n|---|---|\n| FR-001 | Login |\n",
	}
	diags := load(bad).Validate()
	require.Len(t, diags, 2)
	assert.Equal(t, "auth/auth.spec", diags[0].File)
	assert.Equal(t, DiagInvalidValue, diags[0].Kind)
	assert.Equal(t, "auth/auth.spec.yaml", diags[1].File)
	assert.Equal(t, DiagSchema, diags[1].Kind)
	assert.Contains(t, diags[1].Message, "id")
}

func TestValidateTypedRequiresSpecReference(t *testing.T) {
	c := load(memReader{"auth/auth.arch.yaml": "kind: architecture\ntitle: Arch\nversion: 1\nstatus: draft\n"})
	diags := c.Validate()
	require.Len(t, diags, 1)
	assert.Equal(t, DiagSchema, diags[0].Kind)
	assert.Contains(t, diags[0].Message, "spec")
}

func TestDuplicateIDsPerFamily(t *testing.T) {
	c := load(memReader{
		"auth/auth.spec.yaml":    authSpecYAML,
		"auth/auth.spec":         authSpecProse,
		"billing/auth.spec.yaml": authSpecYAML,
	})
	var dups []Diagnostic
	for _, d := range c.Validate() {
		if d.Kind == DiagDuplicateID {
			dups = append(dups, d)
		}
	}
	require.Len(t, dups, 1)
	assert.Equal(t, "billing/auth.spec.yaml", dups[0].File)
	assert.Contains(t, dups[0].Message, "auth/auth.spec.yaml")
}

func TestCrossReferenceEmptyCorpus(t *testing.T) {
	r := load(memReader{"README.md": "# x"}).CrossReference()
	assert.True(t, r.Skipped)
	for _, cat := range Categories {
		assert.Empty(t, r.Entries(cat), cat)
	}
}

func TestCrossReferenceMissingDependencyFile(t *testing.T) {
	c := load(memReader{
		"billing/billing.spec.yaml": `kind: feature_request
id: BILL-001
title: Billing
version: 1.0.0
status: draft
depends_on:
  - ref: FR-002
    file: auth/signup.spec.yaml
requirements:
  - id: FR-010
    title: Invoice
`,
	})
	failures := c.CrossReference().Failures(CategoryDependency)
	require.Len(t, failures, 1)
	assert.Equal(t, "billing/billing.spec.yaml", failures[0].File)
	assert.Contains(t, failures[0].Message, "auth/signup.spec.yaml")
}

func TestCrossReferenceDependencyResolvesRelativeToDocument(t *testing.T) {
	c := load(memReader{
		"auth/auth.spec.yaml": authSpecYAML,
		"auth/signup.spec.yaml": `kind: feature_request
id: AUTH-002
title: Signup
version: 1.0.0
status: draft
depends_on:
  - ref: FR-001
    file: auth.spec.yaml
  - ref: FR-404
    file: auth.spec.yaml
requirements:
  - id: FR-002
    title: Sign up
`,
	})
	entries := c.CrossReference().Dependency
	require.Len(t, entries, 2)
	assert.True(t, entries[0].Passed)
	assert.False(t, entries[1].Passed)
	assert.Contains(t, entries[1].Message, "does not declare FR-404")
}

func TestCrossReferenceChainIsPerFormat(t *testing.T) {
	meta := "**Version:** 1\n**Status:** draft\n**Spec:** AUTH-001\n"
	c := load(memReader{
		"auth/auth.spec":   authSpecProse,
		"auth/auth.arch":   "# Arch\n\n" + meta,
		"auth/auth.deploy": "# Deploy\n\n" + meta,
		"auth/auth.test.yaml": `kind: test_plan
title: Tests
version: 1
status: draft
spec: AUTH-001
test_cases:
  - id: TC-001
    title: t
    verifies: FR-001
`,
	})
	failures := c.CrossReference().Failures(CategorySDLCChain)
	require.Len(t, failures, 1)
	assert.Equal(t, "auth/auth.spec", failures[0].File)
	assert.Equal(t, "auth.test", failures[0].Reference)
}

func TestCrossReferenceTraceAndInventory(t *testing.T) {
	c := load(memReader{
		"brd.spec.yaml": `kind: brd
title: Product
version: 1
status: draft
related_docs: [docs/missing.md]
domains:
  - name: auth
    spec_count: 2
    specs: [auth/auth.spec.yaml]
`,
		"auth/auth.spec.yaml": authSpecYAML,
		"auth/auth.arch.yaml": "kind: architecture\ntitle: A\nversion: 1\nstatus: draft\nspec: AUTH-009\n",
		"auth/auth.test.yaml": "kind: test_plan\ntitle: T\nversion: 1\nstatus: draft\nspec: AUTH-001\ntest_cases:\n  - id: TC-001\n    title: ok\n    verifies: FR-001\n  - id: TC-002\n    title: bad\n    verifies: FR-999\n",
	})
	r := c.CrossReference()

	inv := r.Failures(CategoryInventory)
	require.Len(t, inv, 1)
	assert.Contains(t, inv[0].Message, "declares 2 specs, found 1")

	trace := r.Failures(CategoryTestTrace)
	require.Len(t, trace, 1)
	assert.Contains(t, trace[0].Message, "FR-999")

	arch := r.Failures(CategoryArchTrace)
	require.Len(t, arch, 1)
	assert.Equal(t, "AUTH-009", arch[0].Reference)

	related := r.Failures(CategoryRelatedDocs)
	require.Len(t, related, 1)
	assert.Equal(t, "brd.spec.yaml", related[0].File)
}

func TestRenderRoundTrip(t *testing.T) {
	docs := []Document{
		&FeatureRequestSpec{
			Meta: Meta{ID: "AUTH-001", Title: "Auth", Version: "1.2.0", Status: "approved",
				DependsOn:   []Dependency{{Ref: "FR-002", File: "auth/signup.spec.yaml"}},
				RelatedDocs: []string{"docs/a.md", "docs/b.md"}},
			Requirements: []Requirement{{ID: "FR-001", Title: "Login | SSO", Priority: "must"}},
		},
		&BrdSpec{
			Meta:    Meta{Title: "Product", Version: "1", Status: "draft"},
			Domains: []DomainEntry{{Name: "auth", SpecCount: 1, Specs: []string{"auth/auth.spec"}}},
		},
		&TestSpec{
			Meta:      Meta{Title: "Tests", Version: "1", Status: "draft"},
			Spec:      "AUTH-001",
			TestCases: []TestCase{{ID: "TC-001", Title: "login", Verifies: "FR-001", Type: "unit"}},
		},
		&ArchSpec{
			Meta:       Meta{Title: "Arch", Version: "1", Status: "draft"},
			Spec:       "AUTH-001",
			Components: []Component{{Name: "Gateway", Responsibility: "routing"}},
		},
		&DeploySpec{
			Meta:         Meta{Title: "Deploy", Version: "1", Status: "draft"},
			Spec:         "AUTH-001",
			Environments: []Environment{{Name: "prod", Strategy: "blue-green"}},
		},
	}
	for _, doc := range docs {
		t.Run(string(doc.Kind()), func(t *testing.T) {
			text, err := Render(doc)
			require.NoError(t, err)

			d := DiscoveredSpec{Path: "x", Format: FormatProse, Kind: doc.Kind()}
			p, diags := Parse(d, []byte(text))
			require.Empty(t, diags, text)
			assert.Equal(t, doc, p.Doc)
		})
	}
}

func TestDefaultMarkdownPath(t *testing.T) {
	assert.Equal(t, "auth/auth.spec", DefaultMarkdownPath("auth/auth.spec.yaml"))
	assert.Equal(t, "auth/auth.spec", DefaultMarkdownPath("auth/auth.spec.yml"))
	assert.Equal(t, "notes.txt.md", DefaultMarkdownPath("notes.txt"))
}
