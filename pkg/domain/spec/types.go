// Package spec discovers, parses, validates and cross-references spec
// documents written either as typed YAML or as annotated markdown.
package spec

// Format is the authoring family of a spec document.
type Format string

const (
	FormatTyped Format = "typed"
	FormatProse Format = "prose"
)

// Kind is the lifecycle stage a document describes. The values double as the
// typed envelope discriminator.
type Kind string

const (
	KindBrd            Kind = "brd"
	KindFeatureRequest Kind = "feature_request"
	KindArch           Kind = "architecture"
	KindTest           Kind = "test_plan"
	KindDeploy         Kind = "deployment"
)

// ChainStages are the stages that must follow a feature request, in order.
var ChainStages = []Kind{KindArch, KindTest, KindDeploy}

// ParseKind maps an envelope discriminator to a Kind.
func ParseKind(s string) (Kind, bool) {
	switch k := Kind(s); k {
	case KindBrd, KindFeatureRequest, KindArch, KindTest, KindDeploy:
		return k, true
	}
	return "", false
}

// DiscoveredSpec is a tagged file found during discovery.
type DiscoveredSpec struct {
	Path   string `json:"path"`
	Format Format `json:"format"`
	Kind   Kind   `json:"kind"`
	Stem   string `json:"stem"`
	Domain string `json:"domain,omitempty"`
}

// Dependency is a declared (reference, file) pair.
type Dependency struct {
	Ref  string `yaml:"ref" json:"ref"`
	File string `yaml:"file,omitempty" json:"file,omitempty"`
}

// Meta is the header every document kind carries.
type Meta struct {
	ID          string       `yaml:"id,omitempty" json:"id,omitempty"`
	Title       string       `yaml:"title" json:"title"`
	Version     string       `yaml:"version" json:"version"`
	Status      string       `yaml:"status" json:"status"`
	DependsOn   []Dependency `yaml:"depends_on,omitempty" json:"depends_on,omitempty"`
	RelatedDocs []string     `yaml:"related_docs,omitempty" json:"related_docs,omitempty"`
}

// Document is the closed set of parsed spec variants.
type Document interface {
	Kind() Kind
	Header() *Meta
	sealed()
}

// DomainEntry is one row of a BRD inventory.
type DomainEntry struct {
	Name      string   `yaml:"name" json:"name"`
	SpecCount int      `yaml:"spec_count" json:"spec_count"`
	Specs     []string `yaml:"specs,omitempty" json:"specs,omitempty"`
}

// BrdSpec is the project-level business requirements document.
type BrdSpec struct {
	Meta    `yaml:",inline"`
	Domains []DomainEntry `yaml:"domains" json:"domains"`
}

// Requirement is one line item of a feature request.
type Requirement struct {
	ID          string `yaml:"id" json:"id"`
	Title       string `yaml:"title" json:"title"`
	Priority    string `yaml:"priority,omitempty" json:"priority,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// FeatureRequestSpec is a per-feature requirements document.
type FeatureRequestSpec struct {
	Meta         `yaml:",inline"`
	Domain       string        `yaml:"domain,omitempty" json:"domain,omitempty"`
	Requirements []Requirement `yaml:"requirements" json:"requirements"`
}

// Component is one building block of an architecture.
type Component struct {
	Name           string `yaml:"name" json:"name"`
	Responsibility string `yaml:"responsibility,omitempty" json:"responsibility,omitempty"`
}

// ArchSpec describes the architecture of one feature.
type ArchSpec struct {
	Meta       `yaml:",inline"`
	Spec       string      `yaml:"spec" json:"spec"`
	Components []Component `yaml:"components,omitempty" json:"components,omitempty"`
}

// TestCase is one entry of a test plan. Verifies may list several ids
// separated by commas.
type TestCase struct {
	ID       string `yaml:"id" json:"id"`
	Title    string `yaml:"title" json:"title"`
	Verifies string `yaml:"verifies" json:"verifies"`
	Type     string `yaml:"type,omitempty" json:"type,omitempty"`
}

// VerifiedIDs splits Verifies into individual ids.
func (tc TestCase) VerifiedIDs() []string {
	return splitList(tc.Verifies)
}

// TestSpec is a test plan for one feature.
type TestSpec struct {
	Meta      `yaml:",inline"`
	Spec      string     `yaml:"spec" json:"spec"`
	TestCases []TestCase `yaml:"test_cases" json:"test_cases"`
}

// Environment is a deployment target.
type Environment struct {
	Name     string `yaml:"name" json:"name"`
	Strategy string `yaml:"strategy,omitempty" json:"strategy,omitempty"`
	URL      string `yaml:"url,omitempty" json:"url,omitempty"`
}

// DeploySpec is a deployment plan for one feature.
type DeploySpec struct {
	Meta         `yaml:",inline"`
	Spec         string        `yaml:"spec" json:"spec"`
	Environments []Environment `yaml:"environments,omitempty" json:"environments,omitempty"`
}

func (*BrdSpec) Kind() Kind            { return KindBrd }
func (*FeatureRequestSpec) Kind() Kind { return KindFeatureRequest }
func (*ArchSpec) Kind() Kind           { return KindArch }
func (*TestSpec) Kind() Kind           { return KindTest }
func (*DeploySpec) Kind() Kind         { return KindDeploy }

func (d *BrdSpec) Header() *Meta            { return &d.Meta }
func (d *FeatureRequestSpec) Header() *Meta { return &d.Meta }
func (d *ArchSpec) Header() *Meta           { return &d.Meta }
func (d *TestSpec) Header() *Meta           { return &d.Meta }
func (d *DeploySpec) Header() *Meta         { return &d.Meta }

func (*BrdSpec) sealed()            {}
func (*FeatureRequestSpec) sealed() {}
func (*ArchSpec) sealed()           {}
func (*TestSpec) sealed()           {}
func (*DeploySpec) sealed()         {}

// SpecRef returns the originating spec reference of a stage document.
func SpecRef(doc Document) (string, bool) {
	switch d := doc.(type) {
	case *ArchSpec:
		return d.Spec, true
	case *TestSpec:
		return d.Spec, true
	case *DeploySpec:
		return d.Spec, true
	}
	return "", false
}

// DeclaredIDs returns every id a document defines: its own id plus the ids
// of its requirements.
func DeclaredIDs(doc Document) []string {
	var ids []string
	if id := doc.Header().ID; id != "" {
		ids = append(ids, id)
	}
	if fr, ok := doc.(*FeatureRequestSpec); ok {
		for _, r := range fr.Requirements {
			if r.ID != "" {
				ids = append(ids, r.ID)
			}
		}
	}
	return ids
}

// ParsedSpec is a successfully parsed document with its origin.
type ParsedSpec struct {
	Source DiscoveredSpec
	Doc    Document

	raw map[string]any
}

// DiagnosticKind classifies a spec problem.
type DiagnosticKind string

const (
	DiagParse        DiagnosticKind = "parse"
	DiagMissingField DiagnosticKind = "missing_field"
	DiagInvalidValue DiagnosticKind = "invalid_value"
	DiagDuplicateID  DiagnosticKind = "duplicate_id"
	DiagSchema       DiagnosticKind = "schema"
)

// Diagnostic is a problem found in a spec document. Diagnostics are values,
// never errors.
type Diagnostic struct {
	File    string         `json:"file"`
	Kind    DiagnosticKind `json:"kind"`
	Message string         `json:"message"`
}

func (d Diagnostic) String() string {
	return d.File + ": " + string(d.Kind) + ": " + d.Message
}
