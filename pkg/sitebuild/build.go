// Package sitebuild composes config, discovery, the incremental core, and
// rendering into the single operation the CLI's build command calls.
// Grounded on the teacher's lifecycle.Manager.Run, which plays the same
// composing-orchestrator role over its own stage list; here the stages are
// the packages documented in DESIGN.md's per-component ledger rather than
// a single monolithic struct's methods.
package sitebuild

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/bengal-go/bengal/pkg/assetpipe"
	"github.com/bengal-go/bengal/pkg/cachekey"
	"github.com/bengal-go/bengal/pkg/cachemgr"
	"github.com/bengal-go/bengal/pkg/config"
	"github.com/bengal-go/bengal/pkg/discover"
	"github.com/bengal-go/bengal/pkg/incremental"
	"github.com/bengal-go/bengal/pkg/markdown"
	"github.com/bengal-go/bengal/pkg/provfilter"
	"github.com/bengal-go/bengal/pkg/render"
	"github.com/bengal-go/bengal/pkg/sitemodel"
	"github.com/bengal-go/bengal/pkg/templaterender"
)

const (
	defaultContentDir   = "content"
	defaultDataDir      = "data"
	defaultTemplatesDir = "templates"
	defaultOutputDir    = "public"
	defaultAssetsDir    = "assets"
	contentGlob         = "**/*.md"
)

// Options configures one build invocation.
type Options struct {
	Root        string // site root; defaults to "."
	ConfigPath  string // explicit config path; "" auto-discovers
	OutputDir   string // overrides the effective config's output_dir
	Incremental bool   // false forces a cold cache (no state reuse)
	Full        bool   // true forces every page to rebuild this round
	DryRun      bool   // true computes the rebuild set without rendering or saving
	Verbose     bool
}

// Result summarizes one build for the CLI to print.
type Result struct {
	PagesRendered int
	PagesSkipped  int
	ForceFull     bool
	Reasons       map[cachekey.Key]string
	Duration      time.Duration
}

// Run executes one full build: load config, discover content, ask the
// incremental core what needs rebuilding, render it, and persist cache
// state for the next round.
func Run(opts Options) (Result, error) {
	start := time.Now()

	root := opts.Root
	if root == "" {
		root = "."
	}

	cfg, err := config.Load(root, opts.ConfigPath)
	if err != nil {
		return Result{}, fmt.Errorf("loading config: %w", err)
	}

	outputDir := stringOr(cfg["output_dir"], defaultOutputDir)
	if opts.OutputDir != "" {
		outputDir = opts.OutputDir
	}
	outputDir = filepath.Join(root, outputDir)

	dataDir := filepath.Join(root, stringOr(cfg["data_dir"], defaultDataDir))
	templatesDir := filepath.Join(root, stringOr(cfg["templates_dir"], defaultTemplatesDir))
	contentDir := filepath.Join(root, stringOr(cfg["content_dir"], defaultContentDir))

	site, err := discover.Walk(contentDir, contentGlob, dataDir, templatesDir, outputDir)
	if err != nil {
		return Result{}, fmt.Errorf("discovering content: %w", err)
	}

	mgr := cachemgr.New(root)
	if err := mgr.Initialize(opts.Incremental); err != nil {
		return Result{}, fmt.Errorf("initializing cache: %w", err)
	}

	configHash := config.Hash(cfg)
	prevAssetHashes := mgr.LoadAssetHashes()

	filter := &provfilter.Filter{
		Store:       mgr.Provenance(),
		ConfigHash:  configHash,
		SiteRoot:    root,
		AssetHashes: prevAssetHashes,
	}

	orch := &incremental.Orchestrator{
		Cache:              mgr.Build(),
		Site:               site,
		Filter:             filter,
		CheckConfigChanged: mgr.CheckConfigChanged,
	}

	in := incremental.Inputs{ConfigHash: configHash, Verbose: opts.Verbose}
	if opts.Full {
		in.ForcedChanged = forceAll(site)
	}

	var assetHashes map[string]string
	if !opts.DryRun {
		assetsDir := filepath.Join(root, stringOr(cfg["assets_dir"], defaultAssetsDir))
		assetHashes, err = assetpipe.Process(assetsDir, outputDir, prevAssetHashes)
		if err != nil {
			return Result{}, fmt.Errorf("processing assets: %w", err)
		}
		in.Assets = assetPaths(assetHashes)
		in.AssetChanged = func(path string) bool { return prevAssetHashes[path] != assetHashes[path] }
	}

	outcome := orch.Run(in)

	toRender := pagesToRender(site, outcome)

	if !opts.DryRun {
		render.AssignOutputPaths(toRender, func(p *sitemodel.Page) string {
			return outputPathFor(p, outputDir)
		})

		themeName := stringOr(cfg["theme"], "default")
		chromaTheme := stringOr(cfg["syntax_theme"], "github")

		renderOrch := &render.Orchestrator{
			NewPipeline: func() render.Pipeline {
				return &htmlPipeline{
					md:        markdown.New(chromaTheme),
					templates: templaterender.New(templatesDir, themeName),
					cfg:       cfg,
					tracer:    mgr.Tracer(),
				}
			},
		}
		if err := renderOrch.Process(toRender, render.Auto); err != nil {
			return Result{}, fmt.Errorf("rendering: %w", err)
		}

		built := make([]cachemgr.BuiltPage, 0, len(toRender))
		for _, p := range toRender {
			built = append(built, cachemgr.BuiltPage{
				Key:        p.Key,
				SourcePath: p.SourcePath,
				Tags:       p.Tags,
			})
		}
		createdAt := time.Now().Unix()
		for _, p := range toRender {
			d := filter.Check(p, false)
			if err := filter.RecordBuilt(p, d.Provenance, "", "", createdAt); err != nil {
				return Result{}, fmt.Errorf("recording provenance: %w", err)
			}
		}
		if err := mgr.Save(built, assetHashes, nil, dataDir); err != nil {
			return Result{}, fmt.Errorf("saving cache: %w", err)
		}
	}

	reasons := make(map[cachekey.Key]string, len(outcome.Reasons))
	for k, r := range outcome.Reasons {
		reasons[k] = string(r.Code)
	}

	return Result{
		PagesRendered: len(toRender),
		PagesSkipped:  len(site.Pages()) - len(toRender),
		ForceFull:     outcome.ForceFullRebuild,
		Reasons:       reasons,
		Duration:      time.Since(start),
	}, nil
}

func forceAll(site *sitemodel.Site) map[cachekey.Key]struct{} {
	out := make(map[cachekey.Key]struct{}, len(site.Pages()))
	for _, p := range site.Pages() {
		out[p.Key] = struct{}{}
	}
	return out
}

func pagesToRender(site *sitemodel.Site, outcome incremental.Outcome) []*sitemodel.Page {
	out := make([]*sitemodel.Page, 0, len(outcome.Pages))
	for _, p := range site.Pages() {
		if _, ok := outcome.Pages[p.Key]; ok {
			out = append(out, p)
		}
	}
	return out
}

func outputPathFor(p *sitemodel.Page, outputDir string) string {
	rel := p.Section
	name := "index.html"
	if !p.IsIndex {
		base := strings.TrimSuffix(filepath.Base(p.SourcePath), filepath.Ext(p.SourcePath))
		name = filepath.Join(base, "index.html")
	}
	return filepath.Join(outputDir, rel, name)
}

func assetPaths(hashes map[string]string) []string {
	out := make([]string, 0, len(hashes))
	for path := range hashes {
		out = append(out, path)
	}
	return out
}

func stringOr(v any, fallback string) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return fallback
}
