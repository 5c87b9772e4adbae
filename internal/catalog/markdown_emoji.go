package catalog

import (
	"regexp"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// emojiShortcodes is the small, closed set of shortcodes recognized in
// module READMEs — not the full GitHub emoji table, just the ones that show
// up in module release notes and descriptions.
var emojiShortcodes = map[string]string{
	"smile":            "😄",
	"rocket":           "🚀",
	"tada":             "🎉",
	"warning":          "⚠️",
	"bulb":             "💡",
	"+1":               "👍",
	"-1":               "👎",
	"white_check_mark": "✅",
	"x":                "❌",
	"fire":             "🔥",
	"bug":              "🐛",
	"construction":     "🚧",
	"heavy_check_mark": "✔️",
	"wrench":           "🔧",
	"lock":             "🔒",
	"star":             "⭐",
}

var emojiShortcodePattern = regexp.MustCompile(`^:([a-zA-Z0-9_+-]+):`)

var kindEmoji = ast.NewNodeKind("Emoji")

type emojiNode struct {
	ast.BaseInline
	Glyph string
}

func (n *emojiNode) Kind() ast.NodeKind { return kindEmoji }

func (n *emojiNode) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Glyph": n.Glyph}, nil)
}

// emojiParser recognizes ":shortcode:" inline text, following the trigger-
// byte + regex-match shape of the example pack's FileDirectiveParser.
type emojiParser struct{}

func (p *emojiParser) Trigger() []byte { return []byte{':'} }

func (p *emojiParser) Parse(parent ast.Node, block text.Reader, pc parser.Context) ast.Node {
	line, _ := block.PeekLine()
	matches := emojiShortcodePattern.FindSubmatch(line)
	if matches == nil {
		return nil
	}

	glyph, known := emojiShortcodes[string(matches[1])]
	if !known {
		return nil
	}

	block.Advance(len(matches[0]))
	return &emojiNode{Glyph: glyph}
}

type emojiRenderer struct{}

func (r *emojiRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(kindEmoji, r.render)
}

func (r *emojiRenderer) render(w util.BufWriter, source []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	_, _ = w.WriteString(n.(*emojiNode).Glyph)
	return ast.WalkContinue, nil
}

type emojiExtension struct{}

func newEmojiExtension() goldmark.Extender {
	return &emojiExtension{}
}

func (e *emojiExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(
		parser.WithInlineParsers(
			util.Prioritized(&emojiParser{}, 500),
		),
	)
	m.Renderer().AddOptions(
		renderer.WithNodeRenderers(
			util.Prioritized(&emojiRenderer{}, 500),
		),
	)
}
