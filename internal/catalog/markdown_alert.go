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

// alertMarker recognizes the leading "[!NOTE]" (etc.) line that turns a
// plain blockquote into an admonition (§4.5).
var alertMarker = regexp.MustCompile(`^\[!(NOTE|TIP|IMPORTANT|WARNING|CAUTION)\]\s*`)

var kindAlert = ast.NewNodeKind("Alert")

// alertNode replaces a marked-up ast.Blockquote in the tree; it keeps the
// blockquote's remaining children (the marker line is stripped).
type alertNode struct {
	ast.BaseBlock
	Variant string
}

func (n *alertNode) Kind() ast.NodeKind { return kindAlert }

func (n *alertNode) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Variant": n.Variant}, nil)
}

// alertTransformer rewrites blockquotes whose first line is an alert
// marker into alertNodes, in place, after parsing.
type alertTransformer struct{}

func (t *alertTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	source := reader.Source()

	var walk func(ast.Node)
	walk = func(n ast.Node) {
		for child := n.FirstChild(); child != nil; {
			next := child.NextSibling()
			if bq, ok := child.(*ast.Blockquote); ok {
				if variant, ok := stripAlertMarker(bq, source); ok {
					alert := &alertNode{Variant: variant}
					for c := bq.FirstChild(); c != nil; {
						nc := c.NextSibling()
						bq.RemoveChild(bq, c)
						alert.AppendChild(alert, c)
						c = nc
					}
					n.ReplaceChild(n, bq, alert)
					walk(alert)
					child = next
					continue
				}
			}
			walk(child)
			child = next
		}
	}
	walk(doc)
}

// stripAlertMarker reports whether bq's first paragraph begins with an
// alert marker, and if so removes the leading text nodes that spell it.
// The marker is matched against the paragraph's first source line because
// the inline parser splits "[!NOTE]" into several text nodes.
func stripAlertMarker(bq *ast.Blockquote, source []byte) (string, bool) {
	para, ok := bq.FirstChild().(*ast.Paragraph)
	if !ok || para.Lines().Len() == 0 {
		return "", false
	}

	line := para.Lines().At(0)
	loc := alertMarker.FindSubmatchIndex(line.Value(source))
	if loc == nil {
		return "", false
	}

	end := line.Start + loc[1]
	for c := para.FirstChild(); c != nil; c = para.FirstChild() {
		t, ok := c.(*ast.Text)
		if !ok || t.Segment.Start >= end {
			break
		}
		if t.Segment.Stop > end {
			t.Segment = text.NewSegment(end, t.Segment.Stop)
			break
		}
		para.RemoveChild(para, c)
	}
	return string(line.Value(source)[loc[2]:loc[3]]), true
}

type alertRenderer struct{}

func (r *alertRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(kindAlert, r.render)
}

func (r *alertRenderer) render(w util.BufWriter, source []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	node := n.(*alertNode)
	class := "alert alert-" + toLowerASCII(node.Variant)
	if entering {
		_, _ = w.WriteString(`<div class="`)
		_, _ = w.WriteString(class)
		_, _ = w.WriteString("\">\n")
	} else {
		_, _ = w.WriteString("</div>\n")
	}
	return ast.WalkContinue, nil
}

func toLowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// alertExtension registers the alert transformer and renderer with a
// goldmark.Markdown instance, following the Extender shape used across the
// example pack's custom markdown extensions.
type alertExtension struct{}

func newAlertExtension() goldmark.Extender {
	return &alertExtension{}
}

func (e *alertExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(
		parser.WithASTTransformers(
			util.Prioritized(&alertTransformer{}, 500),
		),
	)
	m.Renderer().AddOptions(
		renderer.WithNodeRenderers(
			util.Prioritized(&alertRenderer{}, 500),
		),
	)
}
