package handlers

import (
	"bytes"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/felixgeelhaar/specguard/pkg/domain/compliance"
)

var (
	htmlImage   = regexp.MustCompile(`(?i)<img\b[^>]*>`)
	htmlAltAttr = regexp.MustCompile(`(?i)\balt\s*=\s*("[^"]*"|'[^']*')`)
)

type mdHeading struct {
	Level int
	Text  string
	Line  int
}

type mdLink struct {
	Image  bool
	Text   string
	Target string
	Line   int
}

type mdFence struct {
	Language string
	Line     int
}

// mdFile is the structural outline of one markdown file. Content inside code
// blocks is excluded from headings and links.
type mdFile struct {
	Path       string
	Headings   []mdHeading
	Links      []mdLink
	Fences     []mdFence
	Unclosed   bool
	BareImages []int
	// Body is set when the file has a block other than headings and comments.
	Body bool
}

// outline walks a goldmark document and maps byte offsets to line numbers.
type outline struct {
	src    []byte
	starts []int
	cursor int
	md     *mdFile
}

func parseMarkdown(rel string, data []byte) *mdFile {
	src := bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
	o := &outline{src: src, starts: []int{0}, md: &mdFile{Path: rel}}
	for i, b := range src {
		if b == '\n' {
			o.starts = append(o.starts, i+1)
		}
	}

	doc := goldmark.DefaultParser().Parse(text.NewReader(src))
	for c := doc.FirstChild(); c != nil; c = c.NextSibling() {
		if !isDecoration(c) {
			o.md.Body = true
		}
	}
	_ = ast.Walk(doc, o.visit)
	return o.md
}

// isDecoration reports whether a top-level block carries no content.
func isDecoration(n ast.Node) bool {
	switch b := n.(type) {
	case *ast.Heading, *ast.ThematicBreak:
		return true
	case *ast.HTMLBlock:
		return b.HTMLBlockType == ast.HTMLBlockType2
	}
	return false
}

func (o *outline) visit(n ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	if n.Type() == ast.TypeBlock {
		if lines := n.Lines(); lines.Len() > 0 {
			if l := o.line(lines.At(lines.Len() - 1).Start); l > o.cursor {
				o.cursor = l
			}
		}
	}

	switch node := n.(type) {
	case *ast.Heading:
		line := o.blockLine(node)
		if line == 0 {
			line = o.nextLine(func(s string) bool { return strings.HasPrefix(s, "#") })
		}
		o.md.Headings = append(o.md.Headings, mdHeading{Level: node.Level, Text: o.inlineText(node), Line: line})
	case *ast.Link:
		o.md.Links = append(o.md.Links, mdLink{Text: o.inlineText(node), Target: string(node.Destination), Line: o.inlineLine(node)})
		return ast.WalkSkipChildren, nil
	case *ast.Image:
		o.md.Links = append(o.md.Links, mdLink{Image: true, Text: o.inlineText(node), Target: string(node.Destination), Line: o.inlineLine(node)})
		return ast.WalkSkipChildren, nil
	case *ast.FencedCodeBlock:
		o.fence(node)
		return ast.WalkSkipChildren, nil
	case *ast.CodeBlock:
		return ast.WalkSkipChildren, nil
	case *ast.HTMLBlock:
		lines := node.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			o.html(seg.Value(o.src), o.line(seg.Start))
		}
	case *ast.RawHTML:
		if node.Segments.Len() > 0 {
			var b bytes.Buffer
			for i := 0; i < node.Segments.Len(); i++ {
				b.Write(node.Segments.At(i).Value(o.src))
			}
			o.html(b.Bytes(), o.line(node.Segments.At(0).Start))
		}
	}
	return ast.WalkContinue, nil
}

func (o *outline) fence(node *ast.FencedCodeBlock) {
	open := 0
	switch {
	case node.Info != nil:
		open = o.line(node.Info.Segment.Start)
	case node.Lines().Len() > 0:
		open = o.line(node.Lines().At(0).Start) - 1
	default:
		open = o.nextLine(func(s string) bool { return strings.HasPrefix(s, "```") || strings.HasPrefix(s, "~~~") })
	}
	o.md.Fences = append(o.md.Fences, mdFence{Language: string(node.Language(o.src)), Line: open})
	if end := open + node.Lines().Len() + 1; end > o.cursor {
		o.cursor = end
	}

	// An unclosed fence runs to the end of the document; goldmark keeps no
	// closing marker, so look at the line after the content.
	marker := fenceText(o.lineText(open))
	if marker == "" {
		return
	}
	ch := marker[:1]
	width := len(marker) - len(strings.TrimLeft(marker, ch))
	closing := fenceText(o.lineText(open + node.Lines().Len() + 1))
	if len(closing) < width || strings.Trim(closing, ch) != "" {
		o.md.Unclosed = true
	}
}

func fenceText(s string) string {
	return strings.TrimSpace(strings.TrimLeft(s, " \t>"))
}

func (o *outline) html(fragment []byte, line int) {
	for _, tag := range htmlImage.FindAll(fragment, -1) {
		alt := htmlAltAttr.FindSubmatch(tag)
		if alt == nil || strings.TrimSpace(strings.Trim(string(alt[1]), `"'`)) == "" {
			o.md.BareImages = append(o.md.BareImages, line)
		}
	}
}

// line returns the 1-based line holding byte offset.
func (o *outline) line(offset int) int {
	return sort.SearchInts(o.starts, offset+1)
}

func (o *outline) lineText(n int) string {
	if n < 1 || n > len(o.starts) {
		return ""
	}
	end := len(o.src)
	if n < len(o.starts) {
		end = o.starts[n] - 1
	}
	return string(o.src[o.starts[n-1]:end])
}

// nextLine finds the first line after the cursor whose trimmed text
// satisfies match. It places nodes that carry no source segments.
func (o *outline) nextLine(match func(string) bool) int {
	for n := o.cursor + 1; n <= len(o.starts); n++ {
		if match(fenceText(o.lineText(n))) {
			o.cursor = n
			return n
		}
	}
	return o.cursor
}

// blockLine returns the first source line of the nearest block holding n,
// or 0 when no enclosing block has segments.
func (o *outline) blockLine(n ast.Node) int {
	for p := n; p != nil; p = p.Parent() {
		if p.Type() == ast.TypeBlock && p.Lines().Len() > 0 {
			return o.line(p.Lines().At(0).Start)
		}
	}
	return 0
}

// inlineLine locates an inline node by its first text segment, falling back
// to the text just before it and then to its block.
func (o *outline) inlineLine(n ast.Node) int {
	line := 0
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if t, ok := c.(*ast.Text); ok && entering {
			line = o.line(t.Segment.Start)
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	if line > 0 {
		return line
	}
	if t, ok := n.PreviousSibling().(*ast.Text); ok {
		return o.line(t.Segment.Stop)
	}
	return o.blockLine(n)
}

// inlineText concatenates the text below n, joining soft breaks with spaces.
func (o *outline) inlineText(n ast.Node) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(o.src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

func isMarkdown(rel string) bool {
	ext := strings.ToLower(path.Ext(rel))
	return ext == ".md" || ext == ".markdown"
}

// markdownFiles returns every discovered markdown file.
func markdownFiles(ctx *compliance.ScanContext) []string {
	return ctx.FilesWithSuffix(".md", ".markdown")
}

// loadMarkdown parses rel once per scan.
func loadMarkdown(ctx *compliance.ScanContext, rel string) (*mdFile, bool) {
	v := ctx.Memo("markdown:"+rel, func() any {
		data, err := ctx.ReadFile(rel)
		if err != nil {
			return nil
		}
		return parseMarkdown(rel, data)
	})
	md, ok := v.(*mdFile)
	return md, ok && md != nil
}

// isExternal reports whether a link target leaves the repository.
func isExternal(target string) bool {
	lower := strings.ToLower(target)
	for _, prefix := range []string{"http://", "https://", "mailto:", "ftp://", "tel:", "data:"} {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return strings.HasPrefix(lower, "//")
}

// resolveLink turns a relative link target in from into a root-relative path.
// Anchors and queries are dropped; pure anchors resolve to from itself.
func resolveLink(from, target string) (string, bool) {
	if i := strings.IndexAny(target, "#?"); i >= 0 {
		target = target[:i]
	}
	if target == "" {
		return from, true
	}
	var joined string
	if strings.HasPrefix(target, "/") {
		joined = path.Clean(strings.TrimPrefix(target, "/"))
	} else {
		joined = path.Join(path.Dir(from), target)
	}
	if joined == ".." || strings.HasPrefix(joined, "../") {
		return "", false
	}
	return joined, true
}
