package handlers

import (
	"fmt"

	"github.com/felixgeelhaar/specguard/pkg/domain/compliance"
)

func contentHandlers() []Handler {
	return []Handler{
		handler{"heading_hierarchy", "content", "headings never skip a level", headingHierarchy},
		handler{"single_h1", "content", "each page has at most one level-1 heading", singleH1},
		handler{"code_fence_language", "content", "code fences declare a language", codeFenceLanguage},
		handler{"code_fences_balanced", "content", "every code fence is closed", codeFencesBalanced},
		handler{"image_alt_text", "accessibility", "images carry alt text", imageAltText},
	}
}

// eachMarkdown applies fn to every parsed markdown file and collects the
// violations. It skips when the project has no markdown.
func eachMarkdown(ctx *compliance.ScanContext, fn func(md *mdFile) []compliance.Violation) compliance.CheckResult {
	files := markdownFiles(ctx)
	if len(files) == 0 {
		return compliance.Skip("no markdown files")
	}
	var violations []compliance.Violation
	for _, f := range files {
		if md, ok := loadMarkdown(ctx, f); ok {
			violations = append(violations, fn(md)...)
		}
	}
	return compliance.Fail(violations...)
}

func headingHierarchy(ctx *compliance.ScanContext) compliance.CheckResult {
	return eachMarkdown(ctx, func(md *mdFile) []compliance.Violation {
		var out []compliance.Violation
		prev := 0
		for _, h := range md.Headings {
			if prev > 0 && h.Level > prev+1 {
				out = append(out, compliance.Violation{
					File:    md.Path,
					Message: fmt.Sprintf("%s:%d: heading jumps from level %d to %d", md.Path, h.Line, prev, h.Level),
				})
			}
			prev = h.Level
		}
		return out
	})
}

func singleH1(ctx *compliance.ScanContext) compliance.CheckResult {
	return eachMarkdown(ctx, func(md *mdFile) []compliance.Violation {
		var lines []int
		for _, h := range md.Headings {
			if h.Level == 1 {
				lines = append(lines, h.Line)
			}
		}
		if len(lines) <= 1 {
			return nil
		}
		return []compliance.Violation{{
			File:    md.Path,
			Message: fmt.Sprintf("%s has %d level-1 headings (lines %v)", md.Path, len(lines), lines),
		}}
	})
}

func codeFenceLanguage(ctx *compliance.ScanContext) compliance.CheckResult {
	return eachMarkdown(ctx, func(md *mdFile) []compliance.Violation {
		var out []compliance.Violation
		for _, f := range md.Fences {
			if f.Language == "" {
				out = append(out, compliance.Violation{
					File:    md.Path,
					Message: fmt.Sprintf("%s:%d: code fence has no language", md.Path, f.Line),
				})
			}
		}
		return out
	})
}

func codeFencesBalanced(ctx *compliance.ScanContext) compliance.CheckResult {
	return eachMarkdown(ctx, func(md *mdFile) []compliance.Violation {
		if !md.Unclosed {
			return nil
		}
		last := md.Fences[len(md.Fences)-1]
		return []compliance.Violation{{
			File:    md.Path,
			Message: fmt.Sprintf("%s:%d: code fence is never closed", md.Path, last.Line),
		}}
	})
}

func imageAltText(ctx *compliance.ScanContext) compliance.CheckResult {
	return eachMarkdown(ctx, func(md *mdFile) []compliance.Violation {
		var out []compliance.Violation
		for _, l := range md.Links {
			if l.Image && l.Text == "" {
				out = append(out, compliance.Violation{
					File:    md.Path,
					Message: fmt.Sprintf("%s:%d: image %s has no alt text", md.Path, l.Line, l.Target),
				})
			}
		}
		for _, line := range md.BareImages {
			out = append(out, compliance.Violation{
				File:    md.Path,
				Message: fmt.Sprintf("%s:%d: <img> tag has no alt text", md.Path, line),
			})
		}
		return out
	})
}
