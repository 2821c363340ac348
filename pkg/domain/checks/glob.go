package checks

import (
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ValidGlob reports whether pattern is syntactically valid.
func ValidGlob(pattern string) bool {
	return pattern != "" && doublestar.ValidatePattern(pattern)
}

// MatchGlob reports whether the slash-separated relative path rel matches
// pattern. A pattern without a slash is matched against the basename only.
func MatchGlob(pattern, rel string) bool {
	target := rel
	if !strings.Contains(pattern, "/") {
		target = path.Base(rel)
	}
	ok, err := doublestar.Match(pattern, target)
	return err == nil && ok
}

// FilterGlob returns the files matching pattern, preserving order.
func FilterGlob(files []string, pattern string) []string {
	var out []string
	for _, f := range files {
		if MatchGlob(pattern, f) {
			out = append(out, f)
		}
	}
	return out
}
