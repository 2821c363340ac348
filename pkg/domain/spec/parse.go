package spec

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Parse turns one discovered document into either a parsed spec or a list of
// diagnostics, never both.
func Parse(d DiscoveredSpec, data []byte) (*ParsedSpec, []Diagnostic) {
	if d.Format == FormatTyped {
		return parseTyped(d, data)
	}
	return parseProse(d, data)
}

func newDocument(kind Kind) Document {
	switch kind {
	case KindBrd:
		return &BrdSpec{}
	case KindFeatureRequest:
		return &FeatureRequestSpec{}
	case KindArch:
		return &ArchSpec{}
	case KindTest:
		return &TestSpec{}
	case KindDeploy:
		return &DeploySpec{}
	}
	return nil
}

func diag(d DiscoveredSpec, kind DiagnosticKind, format string, args ...any) []Diagnostic {
	return []Diagnostic{{File: d.Path, Kind: kind, Message: fmt.Sprintf(format, args...)}}
}

func parseTyped(d DiscoveredSpec, data []byte) (*ParsedSpec, []Diagnostic) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, diag(d, DiagParse, "%v", err)
	}
	if len(raw) == 0 {
		return nil, diag(d, DiagParse, "empty document")
	}

	discriminator, _ := raw["kind"].(string)
	if discriminator == "" {
		return nil, diag(d, DiagMissingField, "missing envelope field kind")
	}
	kind, ok := ParseKind(discriminator)
	if !ok {
		return nil, diag(d, DiagInvalidValue, "unknown kind %q", discriminator)
	}
	if kind != d.Kind {
		return nil, diag(d, DiagInvalidValue, "kind %q does not match file name (expected %q)", kind, d.Kind)
	}

	doc := newDocument(kind)
	if err := yaml.Unmarshal(data, doc); err != nil {
		return nil, diag(d, DiagParse, "%v", err)
	}
	return &ParsedSpec{Source: d, Doc: doc, raw: raw}, nil
}

// MarshalTyped renders doc as a typed document including the kind envelope.
func MarshalTyped(doc Document) ([]byte, error) {
	body, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", doc.Kind(), err)
	}
	return append([]byte("kind: "+string(doc.Kind())+"\n"), body...), nil
}
