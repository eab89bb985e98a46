package markdown

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, content string) string {
	t.Helper()
	out, err := New().Render(content)
	require.NoError(t, err)
	return out
}

func TestRender_BasicMarkdown(t *testing.T) {
	out := render(t, "# Title\n\nSome **bold** text.")

	assert.Contains(t, out, "<h1>Title</h1>")
	assert.Contains(t, out, "<strong>bold</strong>")
}

func TestRender_GFMTable(t *testing.T) {
	out := render(t, "| a | b |\n|---|---|\n| 1 | 2 |")

	assert.Contains(t, out, "<table>")
	assert.Contains(t, out, "<td>1</td>")
}

func TestRender_StripsScript(t *testing.T) {
	// Raw HTML is never rendered, so the script element disappears and
	// only its inner text survives as inert plain text.
	out := render(t, "hello <script>alert(1)</script> world")

	assert.NotContains(t, out, "<script")
	assert.NotContains(t, out, "</script")
	assert.Contains(t, out, "hello")
	assert.Contains(t, out, "world")
}

func TestRender_StripsUnsafeURI(t *testing.T) {
	out := render(t, "[click](javascript:alert(1))")

	assert.NotContains(t, out, "javascript:")
}

func TestRender_KeepsSafeLinks(t *testing.T) {
	out := render(t, "[docs](https://example.com/docs)")

	assert.Contains(t, out, `href="https://example.com/docs"`)
}

func TestRender_DotParagraphBecomesList(t *testing.T) {
	out := render(t, "・first\n・second\n・third")

	assert.Contains(t, out, `<ul class="dot-bullet-list">`)
	assert.Contains(t, out, "<li>first</li>")
	assert.Contains(t, out, "<li>second</li>")
	assert.Contains(t, out, "<li>third</li>")
	assert.NotContains(t, out, marker)
	assert.NotContains(t, out, "<p>")
}

func TestRender_DotMarkerWhitespaceStripped(t *testing.T) {
	out := render(t, "・ spaced\n・\ttabbed")

	assert.Contains(t, out, "<li>spaced</li>")
	assert.Contains(t, out, "<li>tabbed</li>")
}

func TestRender_MixedParagraphLeftAlone(t *testing.T) {
	// One line without the marker means no conversion at all.
	out := render(t, "・first\nplain line\n・third")

	assert.NotContains(t, out, "<ul")
	assert.Contains(t, out, "<p>")
	assert.Contains(t, out, marker)
}

func TestRender_EmptyDotLineLeftAlone(t *testing.T) {
	// "・" with no content fails the pattern, so nothing converts.
	out := render(t, "・first\n・")

	assert.NotContains(t, out, "<ul")
}

func TestRender_DotInsideTextLeftAlone(t *testing.T) {
	// The marker must start the line.
	out := render(t, "before ・ after")

	assert.NotContains(t, out, "<ul")
	assert.Contains(t, out, "<p>")
}

func TestRender_MultipleParagraphsIndependent(t *testing.T) {
	out := render(t, "・a\n・b\n\nregular paragraph\n\n・c")

	assert.Equal(t, 2, strings.Count(out, `<ul class="dot-bullet-list">`))
	assert.Contains(t, out, "<p>regular paragraph</p>")
}

func TestRender_NativeListsUnaffected(t *testing.T) {
	out := render(t, "- one\n- two")

	assert.Contains(t, out, "<ul>")
	assert.NotContains(t, out, "dot-bullet-list")
	assert.Contains(t, out, "<li>one</li>")
}

func TestRender_InlineMarkupDisablesDotList(t *testing.T) {
	// Emphasis inside the paragraph keeps it a paragraph even though
	// every line starts with the marker.
	out := render(t, "・first\n・*second*")

	assert.NotContains(t, out, "dot-bullet-list")
	assert.Contains(t, out, "<p>")
}

func TestRenderVariant_WrapsWithStylingHook(t *testing.T) {
	out, err := New().RenderVariant("plain text", "v7")
	require.NoError(t, err)

	assert.Contains(t, out, `<div class="report-markdown report-markdown--v7">`)
	assert.Contains(t, out, "<p>plain text</p>")
}

func TestRenderVariant_InvalidVariantFallsBack(t *testing.T) {
	out, err := New().RenderVariant("x", `"><script>`)
	require.NoError(t, err)

	assert.Contains(t, out, "report-markdown--"+DefaultVariant)
	assert.NotContains(t, out, "<script>")
}

func TestRender_Deterministic(t *testing.T) {
	input := "# h\n\n・x\n・y\n\n**bold**"
	first := render(t, input)
	second := render(t, input)

	assert.Equal(t, first, second)
}
