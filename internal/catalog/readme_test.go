package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderREADME_Empty(t *testing.T) {
	html, ok := RenderREADME("   \n\t ")
	assert.False(t, ok)
	assert.Empty(t, html)
}

func TestRenderREADME_Basic(t *testing.T) {
	html, ok := RenderREADME("# Title\n\nSome **bold** text.")
	assert.True(t, ok)
	assert.Contains(t, html, "<h1")
	assert.Contains(t, html, "<strong>bold</strong>")
}

func TestRenderREADME_AlertBlock(t *testing.T) {
	html, ok := RenderREADME("> [!WARNING]\n> Back up your data first.")
	assert.True(t, ok)
	assert.Contains(t, html, `class="alert alert-warning"`)
	assert.Contains(t, html, "Back up your data first.")
	assert.NotContains(t, html, "[!WARNING]")
}

func TestRenderREADME_Emoji(t *testing.T) {
	html, ok := RenderREADME("Ship it :rocket:")
	assert.True(t, ok)
	assert.True(t, strings.Contains(html, "🚀"))
	assert.False(t, strings.Contains(html, ":rocket:"))
}

func TestRenderREADME_GFMTable(t *testing.T) {
	html, ok := RenderREADME("| a | b |\n|---|---|\n| 1 | 2 |\n")
	assert.True(t, ok)
	assert.Contains(t, html, "<table>")
}
