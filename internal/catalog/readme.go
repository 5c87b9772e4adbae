package catalog

import (
	"bytes"
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// readmeMarkdown is built once: goldmark.Markdown instances are safe for
// concurrent Convert calls once configured, so a package-level singleton
// serves every module's README render (§4.5).
var readmeMarkdown = sync.OnceValue(func() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Footnote,
			extension.Typographer,
			newAlertExtension(),
			newEmojiExtension(),
		),
		goldmark.WithRendererOptions(
			html.WithUnsafe(),
			html.WithHardWraps(),
		),
	)
})

// RenderREADME renders README markdown to HTML. An empty or whitespace-only
// input yields ("", false) — callers use the boolean to decide whether the
// Module's README/READMEHTML fields stay nil (§4.5).
func RenderREADME(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", false
	}

	var buf bytes.Buffer
	if err := readmeMarkdown().Convert([]byte(trimmed), &buf); err != nil {
		return "", false
	}
	return buf.String(), true
}
