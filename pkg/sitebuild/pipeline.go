package sitebuild

import (
	"os"
	"path/filepath"

	"github.com/flosch/pongo2/v6"

	"github.com/bengal-go/bengal/internal/atomicio"
	"github.com/bengal-go/bengal/pkg/discover"
	"github.com/bengal-go/bengal/pkg/effects"
	"github.com/bengal-go/bengal/pkg/linkindex"
	"github.com/bengal-go/bengal/pkg/markdown"
	"github.com/bengal-go/bengal/pkg/sitemodel"
	"github.com/bengal-go/bengal/pkg/templaterender"
)

// htmlPipeline is the render.Pipeline the build composes per worker: a
// markdown renderer and a template engine, both expensive enough to
// construct once and reuse across a worker's pages within one build
// generation (render.Orchestrator handles the reuse/invalidation). tracer
// is shared across workers (effects.Tracer is its own mutex-guarded
// collaborator) and records each page's outbound link targets.
type htmlPipeline struct {
	md        *markdown.Renderer
	templates *templaterender.Engine
	cfg       map[string]any
	tracer    *effects.Tracer
}

// RenderPage implements render.Pipeline: read the source, render markdown
// to HTML, wrap it in the page's template, and write the result to
// p.OutputPath.
func (pl *htmlPipeline) RenderPage(p *sitemodel.Page) error {
	body, err := discover.Body(p.SourcePath)
	if err != nil {
		return err
	}

	content, err := pl.md.RenderToHTML(body)
	if err != nil {
		return err
	}

	ctx := map[string]any{
		"site":    pl.cfg,
		"page":    p,
		"title":   p.Title,
		"content": pongo2.AsSafeValue(content),
		"tags":    p.Tags,
	}

	out, err := pl.templates.Render(p.Template, ctx)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(p.OutputPath), 0o755); err != nil {
		return err
	}
	if err := atomicio.WriteFile(p.OutputPath, []byte(out), 0o644); err != nil {
		return err
	}

	return linkindex.RecordPageLinks(pl.tracer, p.OutputPath, p.Key, out)
}
