// Package markdown renders page source content to HTML. Adapted from the
// teacher's pkg/plugins.RenderMarkdownPlugin/createMarkdownRenderer: the
// same goldmark extension set (GFM, syntax highlighting via chroma,
// figures, anchors), trimmed to the extensions SPEC_FULL.md's rendering
// component needs and wired directly into pkg/render's Pipeline instead
// of a lifecycle plugin hook.
package markdown

import (
	"bytes"
	"sync"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	figure "github.com/mangoumbrella/goldmark-figure"
	"github.com/yuin/goldmark"
	emoji "github.com/yuin/goldmark-emoji"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"go.abhg.dev/goldmark/anchor"
)

// bufferPool reuses render buffers across pages; a typical page body is a
// few KB to tens of KB of HTML.
var bufferPool = sync.Pool{
	New: func() interface{} {
		return bytes.NewBuffer(make([]byte, 0, 32*1024))
	},
}

// Renderer wraps a configured goldmark instance. Not safe for concurrent
// Render calls against the same buffer, but goldmark.Markdown itself is
// safe for concurrent use across distinct buffers, which is how
// pkg/render's worker pool uses one Renderer per pipeline.
type Renderer struct {
	md goldmark.Markdown
}

// New builds a Renderer with the GFM + syntax-highlighting + figure +
// anchor extension set, highlighting code blocks with chromaTheme.
func New(chromaTheme string) *Renderer {
	highlightOpts := []highlighting.Option{
		highlighting.WithStyle(chromaTheme),
		highlighting.WithFormatOptions(
			chromahtml.WithClasses(true),
			chromahtml.WithAllClasses(true),
		),
	}

	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Table,
			extension.Strikethrough,
			extension.Linkify,
			extension.TaskList,
			highlighting.NewHighlighting(highlightOpts...),
			figure.Figure,
			emoji.Emoji,
			&anchor.Extender{},
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithUnsafe(),
		),
	)

	return &Renderer{md: md}
}

// RenderToHTML converts markdown source bytes to HTML.
func (r *Renderer) RenderToHTML(source []byte) (string, error) {
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer bufferPool.Put(buf)

	if err := r.md.Convert(source, buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
