package spec

import (
	"embed"
	"fmt"
	"regexp"
	"sort"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/*.json
var schemaFS embed.FS

var (
	featureIDPattern     = regexp.MustCompile(`^[A-Z]+-\d{3}$`)
	requirementIDPattern = regexp.MustCompile(`^[A-Z]+-\d+$`)

	schemaOnce  sync.Once
	schemaByKey map[Kind]*gojsonschema.Schema
	schemaErr   error
)

func loadSchemas() (map[Kind]*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schemaByKey = make(map[Kind]*gojsonschema.Schema)
		for _, kind := range []Kind{KindBrd, KindFeatureRequest, KindArch, KindTest, KindDeploy} {
			data, err := schemaFS.ReadFile("schemas/" + string(kind) + ".json")
			if err != nil {
				schemaErr = fmt.Errorf("failed to read schema for %s: %w", kind, err)
				return
			}
			s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
			if err != nil {
				schemaErr = fmt.Errorf("failed to compile schema for %s: %w", kind, err)
				return
			}
			schemaByKey[kind] = s
		}
	})
	return schemaByKey, schemaErr
}

// ValidFeatureID reports whether id has the feature request shape PREFIX-NNN.
func ValidFeatureID(id string) bool {
	return featureIDPattern.MatchString(id)
}

// ValidateSpec checks one parsed document. Typed documents are validated
// against their JSON schema first; semantic checks run once the shape is sound.
func ValidateSpec(p *ParsedSpec) []Diagnostic {
	if p.Source.Format == FormatTyped {
		if diags := validateSchema(p); len(diags) > 0 {
			return diags
		}
	}
	return validateSemantics(p)
}

func validateSchema(p *ParsedSpec) []Diagnostic {
	schemas, err := loadSchemas()
	if err != nil {
		return []Diagnostic{{File: p.Source.Path, Kind: DiagSchema, Message: err.Error()}}
	}
	schema, ok := schemas[p.Doc.Kind()]
	if !ok {
		return nil
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(p.raw))
	if err != nil {
		return []Diagnostic{{File: p.Source.Path, Kind: DiagSchema, Message: err.Error()}}
	}
	if result.Valid() {
		return nil
	}

	diags := make([]Diagnostic, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		diags = append(diags, Diagnostic{
			File:    p.Source.Path,
			Kind:    DiagSchema,
			Message: fmt.Sprintf("%s: %s", e.Field(), e.Description()),
		})
	}
	return diags
}

func validateSemantics(p *ParsedSpec) []Diagnostic {
	file := p.Source.Path
	var diags []Diagnostic
	add := func(kind DiagnosticKind, format string, args ...any) {
		diags = append(diags, Diagnostic{File: file, Kind: kind, Message: fmt.Sprintf(format, args...)})
	}

	switch d := p.Doc.(type) {
	case *BrdSpec:
		if len(d.Domains) == 0 {
			add(DiagMissingField, "BRD declares no domains")
		}
		for _, dom := range d.Domains {
			if dom.Name == "" {
				add(DiagMissingField, "domain entry without a name")
			}
			if dom.SpecCount < 0 {
				add(DiagInvalidValue, "domain %s has negative spec count %d", dom.Name, dom.SpecCount)
			}
		}

	case *FeatureRequestSpec:
		if !ValidFeatureID(d.ID) {
			add(DiagInvalidValue, "feature request id %q does not match PREFIX-NNN", d.ID)
		}
		if len(d.Requirements) == 0 {
			add(DiagMissingField, "feature request lists no requirements")
		}
		seen := make(map[string]bool)
		for _, r := range d.Requirements {
			switch {
			case r.ID == "":
				add(DiagMissingField, "requirement %q has no id", r.Title)
			case !requirementIDPattern.MatchString(r.ID):
				add(DiagInvalidValue, "requirement id %q does not match PREFIX-N", r.ID)
			case seen[r.ID]:
				add(DiagDuplicateID, "requirement id %s is declared twice", r.ID)
			}
			seen[r.ID] = true
		}

	case *TestSpec:
		if len(d.TestCases) == 0 {
			add(DiagMissingField, "test plan lists no test cases")
		}
		for _, tc := range d.TestCases {
			if len(tc.VerifiedIDs()) == 0 {
				add(DiagMissingField, "test case %s verifies nothing", tc.ID)
			}
		}
	}

	if ref, ok := SpecRef(p.Doc); ok && ref == "" {
		add(DiagMissingField, "%s has no spec reference", p.Doc.Kind())
	}
	return diags
}

// DuplicateIDs reports document ids declared by more than one file of the
// same format family. The first file in path order owns the id.
func DuplicateIDs(specs []*ParsedSpec) []Diagnostic {
	ordered := make([]*ParsedSpec, len(specs))
	copy(ordered, specs)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Source.Path < ordered[j].Source.Path })

	owners := map[Format]map[string]string{
		FormatTyped: {},
		FormatProse: {},
	}
	var diags []Diagnostic
	for _, p := range ordered {
		id := p.Doc.Header().ID
		if id == "" {
			continue
		}
		family := owners[p.Source.Format]
		if first, ok := family[id]; ok {
			diags = append(diags, Diagnostic{
				File:    p.Source.Path,
				Kind:    DiagDuplicateID,
				Message: fmt.Sprintf("id %s is already declared in %s", id, first),
			})
			continue
		}
		family[id] = p.Source.Path
	}
	return diags
}

// SortDiagnostics orders diagnostics by file, kind, then message.
func SortDiagnostics(diags []Diagnostic) {
	sort.SliceStable(diags, func(i, j int) bool {
		a, b := diags[i], diags[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.Message < b.Message
	})
}
