package handlers

import (
	"fmt"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/felixgeelhaar/specguard/pkg/domain/compliance"
)

var (
	kebabDocName      = regexp.MustCompile(`^[a-z0-9]+(?:[-.][a-z0-9]+)*\.(?:md|markdown)$`)
	conventionalName  = regexp.MustCompile(`^[A-Z][A-Z0-9_-]*\.(?:md|markdown)$`)
	adrFileName       = regexp.MustCompile(`^(\d{4})-[a-z0-9]+(?:-[a-z0-9]+)*\.md$`)
	adrDirCandidates  = []string{"docs/adr", "docs/adrs", "docs/decisions", "docs/architecture/decisions", "adr", "doc/adr"}
	docsIndexNames    = []string{"docs/README.md", "docs/index.md", "docs/INDEX.md", "docs/readme.md"}
	adrNonRecordNames = map[string]bool{"readme.md": true, "index.md": true, "template.md": true, "0000-template.md": true}
)

func documentHandlers() []Handler {
	return []Handler{
		handler{"markdown_links", "docs", "relative markdown links resolve", markdownLinks},
		handler{"docs_index", "docs", "docs/ has an index page", docsIndex},
		handler{"docs_orphans", "docs", "every page under docs/ is linked from somewhere", docsOrphans},
		handler{"doc_naming", "naming", "pages under docs/ use kebab-case names", docNaming},
		handler{"empty_docs", "docs", "markdown files have content beyond a title", emptyDocs},
		handler{"adr_numbering", "docs", "architecture decision records are numbered sequentially", adrNumbering},
	}
}

func markdownLinks(ctx *compliance.ScanContext) compliance.CheckResult {
	files := markdownFiles(ctx)
	if len(files) == 0 {
		return compliance.Skip("no markdown files")
	}

	var violations []compliance.Violation
	for _, f := range files {
		md, ok := loadMarkdown(ctx, f)
		if !ok {
			continue
		}
		for _, l := range md.Links {
			if l.Target == "" || isExternal(l.Target) {
				continue
			}
			target, ok := resolveLink(f, l.Target)
			if ok && (ctx.FileExists(target) || ctx.DirExists(target)) {
				continue
			}
			violations = append(violations, compliance.Violation{
				File:    f,
				Message: fmt.Sprintf("%s:%d: broken link to %s", f, l.Line, l.Target),
			})
		}
	}
	return compliance.Fail(violations...)
}

func docsIndex(ctx *compliance.ScanContext) compliance.CheckResult {
	if !ctx.DirExists("docs") {
		return compliance.Skip("no docs directory")
	}
	if _, ok := firstExisting(ctx, docsIndexNames...); ok {
		return compliance.Pass()
	}
	return compliance.Fail(compliance.Violation{File: "docs", Message: "docs/ has no README.md or index.md"})
}

func docsPages(ctx *compliance.ScanContext) []string {
	var out []string
	for _, f := range markdownFiles(ctx) {
		if strings.HasPrefix(f, "docs/") {
			out = append(out, f)
		}
	}
	return out
}

func docsOrphans(ctx *compliance.ScanContext) compliance.CheckResult {
	pages := docsPages(ctx)
	if len(pages) == 0 {
		return compliance.Skip("no pages under docs/")
	}

	linked := make(map[string]bool)
	for _, f := range markdownFiles(ctx) {
		md, ok := loadMarkdown(ctx, f)
		if !ok {
			continue
		}
		for _, l := range md.Links {
			if isExternal(l.Target) {
				continue
			}
			if target, ok := resolveLink(f, l.Target); ok && target != f {
				linked[target] = true
			}
		}
	}

	var violations []compliance.Violation
	for _, p := range pages {
		if linked[p] || isIndexPage(p) {
			continue
		}
		violations = append(violations, compliance.Violation{File: p, Message: p + " is not linked from any other page"})
	}
	return compliance.Fail(violations...)
}

func isIndexPage(rel string) bool {
	base := strings.ToLower(path.Base(rel))
	return base == "readme.md" || base == "index.md"
}

func docNaming(ctx *compliance.ScanContext) compliance.CheckResult {
	pages := docsPages(ctx)
	if len(pages) == 0 {
		return compliance.Skip("no pages under docs/")
	}
	var violations []compliance.Violation
	for _, p := range pages {
		base := path.Base(p)
		if kebabDocName.MatchString(base) || conventionalName.MatchString(base) {
			continue
		}
		violations = append(violations, compliance.Violation{File: p, Message: p + " should be named in kebab-case"})
	}
	return compliance.Fail(violations...)
}

func emptyDocs(ctx *compliance.ScanContext) compliance.CheckResult {
	files := markdownFiles(ctx)
	if len(files) == 0 {
		return compliance.Skip("no markdown files")
	}
	var violations []compliance.Violation
	for _, f := range files {
		md, ok := loadMarkdown(ctx, f)
		if !ok {
			continue
		}
		if md.Body {
			continue
		}
		violations = append(violations, compliance.Violation{File: f, Message: f + " has no content beyond headings"})
	}
	return compliance.Fail(violations...)
}

func adrNumbering(ctx *compliance.ScanContext) compliance.CheckResult {
	dir := ""
	for _, d := range adrDirCandidates {
		if ctx.DirExists(d) {
			dir = d
			break
		}
	}
	if dir == "" {
		return compliance.Skip("no architecture decision record directory")
	}

	var violations []compliance.Violation
	numbers := make(map[int]string)
	for _, f := range ctx.Files {
		if path.Dir(f) != dir || !isMarkdown(f) {
			continue
		}
		base := path.Base(f)
		if adrNonRecordNames[strings.ToLower(base)] {
			continue
		}
		m := adrFileName.FindStringSubmatch(base)
		if m == nil {
			violations = append(violations, compliance.Violation{File: f, Message: f + " should be named NNNN-title.md"})
			continue
		}
		n, _ := strconv.Atoi(m[1])
		if prev, dup := numbers[n]; dup {
			violations = append(violations, compliance.Violation{File: f, Message: fmt.Sprintf("%s reuses number %s from %s", f, m[1], prev)})
			continue
		}
		numbers[n] = f
	}
	if len(numbers) == 0 && len(violations) == 0 {
		return compliance.Skip("no decision records in " + dir)
	}

	seq := make([]int, 0, len(numbers))
	for n := range numbers {
		seq = append(seq, n)
	}
	sort.Ints(seq)
	for i := 1; i < len(seq); i++ {
		for missing := seq[i-1] + 1; missing < seq[i]; missing++ {
			violations = append(violations, compliance.Violation{
				File:    dir,
				Message: fmt.Sprintf("%s: decision record %04d is missing", dir, missing),
			})
		}
	}
	return compliance.Fail(violations...)
}
