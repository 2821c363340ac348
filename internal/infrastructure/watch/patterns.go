package watch

import (
	"github.com/felixgeelhaar/specguard/pkg/domain/checks"
)

// PatternFilter decides which changed paths trigger a re-scan. Patterns use
// the rule glob syntax and match slash-separated paths relative to the root.
type PatternFilter struct {
	Include []string
	Exclude []string
}

// NewPatternFilter creates a new pattern filter.
func NewPatternFilter(include, exclude []string) *PatternFilter {
	return &PatternFilter{
		Include: include,
		Exclude: exclude,
	}
}

// Matches returns true if rel passes the filter. Excludes win; with no
// include patterns everything else passes.
func (f *PatternFilter) Matches(rel string) bool {
	for _, pattern := range f.Exclude {
		if checks.MatchGlob(pattern, rel) {
			return false
		}
	}
	if len(f.Include) == 0 {
		return true
	}
	for _, pattern := range f.Include {
		if checks.MatchGlob(pattern, rel) {
			return true
		}
	}
	return false
}
