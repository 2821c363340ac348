package spec

import (
	"path"
	"sort"
	"strings"
)

type suffixRule struct {
	suffix string
	kind   Kind
}

// Both families share the stage suffixes; typed files add .yaml or .yml.
var stageSuffixes = []suffixRule{
	{".arch", KindArch},
	{".test", KindTest},
	{".deploy", KindDeploy},
	{".spec", KindFeatureRequest},
}

// Classify tags rel as a spec document. Execution plans and every other file
// are rejected.
func Classify(rel string) (DiscoveredSpec, bool) {
	base := path.Base(rel)
	lower := strings.ToLower(base)

	format := FormatProse
	name := base
	switch {
	case strings.HasSuffix(lower, ".yaml"):
		format, name = FormatTyped, base[:len(base)-len(".yaml")]
	case strings.HasSuffix(lower, ".yml"):
		format, name = FormatTyped, base[:len(base)-len(".yml")]
	}

	lowerName := strings.ToLower(name)
	for _, r := range stageSuffixes {
		if !strings.HasSuffix(lowerName, r.suffix) {
			continue
		}
		stem := name[:len(name)-len(r.suffix)]
		if stem == "" {
			return DiscoveredSpec{}, false
		}
		kind := r.kind
		if kind == KindFeatureRequest && strings.EqualFold(stem, "brd") {
			kind = KindBrd
		}
		domain := path.Base(path.Dir(rel))
		if domain == "." || domain == "/" {
			domain = ""
		}
		return DiscoveredSpec{Path: rel, Format: format, Kind: kind, Stem: stem, Domain: domain}, true
	}
	return DiscoveredSpec{}, false
}

// Discover filters files down to spec documents, ordered by path.
func Discover(files []string) []DiscoveredSpec {
	var out []DiscoveredSpec
	for _, f := range files {
		if d, ok := Classify(f); ok {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Suffix returns the file suffix used for kind in format, e.g. ".arch.yaml".
func Suffix(kind Kind, format Format) string {
	var s string
	switch kind {
	case KindBrd, KindFeatureRequest:
		s = ".spec"
	case KindArch:
		s = ".arch"
	case KindTest:
		s = ".test"
	case KindDeploy:
		s = ".deploy"
	}
	if format == FormatTyped {
		s += ".yaml"
	}
	return s
}
