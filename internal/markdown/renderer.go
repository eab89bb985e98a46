// Package markdown turns report content into sanitized HTML.
//
// Rendering is a pure function of the input string: GFM markdown is
// parsed, the bullet-dot transform is applied, and the resulting HTML
// is sanitized before it ever reaches a client.
package markdown

import (
	"bytes"
	"fmt"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/util"
)

// Renderer converts markdown to sanitized HTML. Safe for concurrent use.
type Renderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

// New creates a Renderer with GFM extensions, the bullet-dot list
// transform, and a UGC sanitization policy.
func New() *Renderer {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(
			parser.WithASTTransformers(
				util.Prioritized(&dotListTransformer{}, 100),
			),
		),
	)

	policy := bluemonday.UGCPolicy()
	// Styling hooks: the dot-bullet list class and code block language classes.
	policy.AllowAttrs("class").OnElements("ul", "code", "pre", "span")

	return &Renderer{md: md, policy: policy}
}

// DefaultVariant is the visual variant applied when none is requested.
const DefaultVariant = "v7"

// Render converts markdown to sanitized HTML.
func (r *Renderer) Render(content string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(content), &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return r.policy.Sanitize(buf.String()), nil
}

// RenderVariant renders content and wraps it in the report-markdown
// container carrying the variant styling hook. The variant changes
// the wrapper class only, never the rendered structure. Variants that
// are not plain slugs fall back to the default.
func (r *Renderer) RenderVariant(content, variant string) (string, error) {
	if !validVariant(variant) {
		variant = DefaultVariant
	}
	html, err := r.Render(content)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`<div class="report-markdown report-markdown--%s">%s</div>`, variant, html), nil
}

func validVariant(variant string) bool {
	if variant == "" {
		return false
	}
	for _, c := range variant {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '-':
		default:
			return false
		}
	}
	return true
}
