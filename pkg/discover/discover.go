// Package discover walks a site's content tree and builds the
// sitemodel.Site the detector pipeline and render orchestrator operate
// over. Grounded on the teacher's pkg/listcache (glob-pattern content
// walk feeding a cache) and pkg/models.Post's frontmatter fields, trimmed
// to what the incremental core's Page type carries.
package discover

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/markusmobius/go-dateparser"
	"gopkg.in/yaml.v3"

	"github.com/bengal-go/bengal/pkg/cachekey"
	"github.com/bengal-go/bengal/pkg/sitemodel"
)

// frontmatter is the subset of a page's YAML frontmatter block the core
// cares about; arbitrary extra keys are preserved in Page.Metadata.
type frontmatter struct {
	Title    string         `yaml:"title"`
	Tags     []string       `yaml:"tags"`
	Template string         `yaml:"template"`
	Cascade  map[string]any `yaml:"cascade"`
	Date     string         `yaml:"date"`
	Modified string         `yaml:"modified"`
	Extra    map[string]any `yaml:",inline"`
}

// parseDate parses a frontmatter date string in whatever format the
// author happened to write, grounded on the teacher's flexible date
// handling in pkg/models/post.go. An unparseable or empty string yields
// the zero time rather than an error — a missing date must not fail
// discovery.
func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	parsed, err := dateparser.Parse(nil, s)
	if err != nil || parsed == nil {
		return time.Time{}
	}
	return parsed.Time
}

const defaultTemplate = "page.html"

// Walk discovers every markdown source under root matching pattern
// (typically "**/*.md"), returning a populated Site. Files under a
// "_shared/" path segment are marked Page.Shared per
// sitemodel.BelongsToEveryVersion's rule.
func Walk(root, pattern, dataDir, templatesDir, outputDir string) (*sitemodel.Site, error) {
	site := sitemodel.NewSite(root, dataDir, templatesDir, outputDir)

	matches, err := doublestar.Glob(os.DirFS(root), pattern)
	if err != nil {
		return nil, err
	}

	var prevKey cachekey.Key
	for _, rel := range matches {
		abs := filepath.Join(root, rel)
		page, err := buildPage(abs, root)
		if err != nil {
			return nil, err
		}

		if prevKey != "" {
			page.PrevKey = prevKey
			if prior, ok := site.Page(prevKey); ok {
				prior.NextKey = page.Key
			}
		}
		prevKey = page.Key

		site.AddPage(page)
	}

	return site, nil
}

func buildPage(path, root string) (*sitemodel.Page, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	fm, body := splitFrontmatter(raw)

	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	rel = filepath.ToSlash(rel)

	section := filepath.ToSlash(filepath.Dir(rel))
	if section == "." {
		section = ""
	}

	base := filepath.Base(rel)
	isIndex := base == "_index.md" || base == "index.md"

	template := fm.Template
	if template == "" {
		template = defaultTemplate
	}

	_ = body // body is consumed by the renderer, not stored on Page

	return &sitemodel.Page{
		SourcePath: path,
		Key:        cachekey.ContentKey(path, root),
		Title:      fm.Title,
		Metadata:   fm.Extra,
		Tags:       fm.Tags,
		Section:    section,
		IsIndex:    isIndex,
		Template:   template,
		Cascade:    fm.Cascade,
		Date:       parseDate(fm.Date),
		Modified:   parseDate(fm.Modified),
		SourceKind: sitemodel.SourceMarkdown,
		Shared:     strings.HasPrefix(rel, "_shared/") || strings.Contains(rel, "/_shared/"),
	}, nil
}

// Body reads path and returns its content with any leading YAML
// frontmatter block stripped, the input the markdown renderer consumes.
func Body(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	_, body := splitFrontmatter(raw)
	return body, nil
}

// splitFrontmatter extracts a leading "---\n...\n---\n" YAML block. A
// missing or malformed block yields a zero-value frontmatter and the
// whole input as body.
func splitFrontmatter(raw []byte) (frontmatter, []byte) {
	var fm frontmatter

	text := string(raw)
	if !strings.HasPrefix(text, "---\n") {
		return fm, raw
	}

	rest := text[4:]
	end := strings.Index(rest, "\n---\n")
	if end == -1 {
		return fm, raw
	}

	block := rest[:end]
	body := rest[end+len("\n---\n"):]

	_ = yaml.Unmarshal([]byte(block), &fm)
	return fm, []byte(body)
}
