package markdown

import (
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// marker is the full-width bullet-dot character used as a plain-text
// list convention in report bodies.
const marker = "・"

// listClass is the styling hook emitted on converted lists.
const listClass = "dot-bullet-list"

// dotListTransformer rewrites paragraphs whose every line starts with
// the bullet-dot marker into unordered lists, one item per line, with
// the marker stripped. A paragraph with any non-matching line is left
// untouched; there is no partial conversion.
type dotListTransformer struct{}

// Transform implements parser.ASTTransformer.
func (t *dotListTransformer) Transform(doc *ast.Document, reader text.Reader, _ parser.Context) {
	source := reader.Source()

	// Collect first, mutate after: replacing nodes mid-walk would
	// invalidate the traversal.
	var paragraphs []*ast.Paragraph
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if p, ok := n.(*ast.Paragraph); ok {
			paragraphs = append(paragraphs, p)
		}
		return ast.WalkContinue, nil
	})

	for _, p := range paragraphs {
		if items, ok := dotItems(p, source); ok {
			replaceWithList(p, items)
		}
	}
}

// dotItems returns one trimmed source segment per line when every line
// of the paragraph matches the bullet-dot pattern with non-empty
// content. ok is false as soon as a single line fails.
func dotItems(p *ast.Paragraph, source []byte) ([]text.Segment, bool) {
	// Only plain text and line breaks qualify. Emphasis, links, code
	// spans, raw HTML and the like all keep the paragraph as-is.
	for child := p.FirstChild(); child != nil; child = child.NextSibling() {
		if _, ok := child.(*ast.Text); !ok {
			return nil, false
		}
	}

	lines := p.Lines()
	if lines.Len() == 0 {
		return nil, false
	}

	items := make([]text.Segment, 0, lines.Len())
	for i := range lines.Len() {
		seg := lines.At(i)
		val := string(seg.Value(source))

		rest, ok := strings.CutPrefix(val, marker)
		if !ok {
			return nil, false
		}

		// Skip whitespace after the marker, then require content.
		trimmed := strings.TrimLeft(rest, " \t　")
		leading := len(rest) - len(trimmed)
		content := strings.TrimRight(trimmed, " \t\r\n")
		if content == "" {
			return nil, false
		}

		start := seg.Start + len(marker) + leading
		items = append(items, text.NewSegment(start, start+len(content)))
	}
	return items, true
}

// replaceWithList swaps the paragraph for a tight unordered list
// carrying the dot-bullet styling hook.
func replaceWithList(p *ast.Paragraph, items []text.Segment) {
	parent := p.Parent()
	if parent == nil {
		return
	}

	list := ast.NewList('-')
	list.IsTight = true
	list.SetAttributeString("class", []byte(listClass))

	for _, seg := range items {
		item := ast.NewListItem(0)
		block := ast.NewTextBlock()
		block.AppendChild(block, ast.NewTextSegment(seg))
		item.AppendChild(item, block)
		list.AppendChild(list, item)
	}

	parent.ReplaceChild(parent, p, list)
}
