// Package templaterender renders pages through pongo2 (Jinja2-like)
// templates. Adapted from the teacher's pkg/templates.Engine: the same
// ordered search-path resolution and thread-safe compiled-template cache,
// trimmed of the embedded-default-theme fallback (this repo ships no
// bundled theme) and the executable-relative theme lookup.
package templaterender

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/flosch/pongo2/v6"
)

// Engine renders named templates against a pongo2 context, caching
// compiled templates by name.
type Engine struct {
	mu sync.RWMutex

	searchPaths   []string
	templateCache map[string]*pongo2.Template
}

// New builds an Engine whose search-path order is: the site's own
// templates directory, then the named theme's templates directory
// (themes/<name>/templates, relative to the process's working directory,
// not resolved against the site root) if it exists.
func New(templatesDir, themeName string) *Engine {
	e := &Engine{templateCache: make(map[string]*pongo2.Template)}
	e.buildSearchPaths(templatesDir, themeName)
	return e
}

func (e *Engine) buildSearchPaths(templatesDir, themeName string) {
	if templatesDir != "" {
		if _, err := os.Stat(templatesDir); err == nil {
			e.searchPaths = append(e.searchPaths, templatesDir)
		}
	}
	if themeName != "" {
		themeDir := filepath.Join("themes", themeName, "templates")
		if _, err := os.Stat(themeDir); err == nil {
			e.searchPaths = append(e.searchPaths, themeDir)
		}
	}
	if len(e.searchPaths) == 0 && templatesDir != "" {
		e.searchPaths = append(e.searchPaths, templatesDir)
	}
}

// Render renders the named template against ctx, where ctx is the
// rendering context as a plain map (page metadata, site data, etc).
func (e *Engine) Render(templateName string, ctx map[string]any) (string, error) {
	tpl, err := e.load(templateName)
	if err != nil {
		return "", fmt.Errorf("loading template %q: %w", templateName, err)
	}
	out, err := tpl.Execute(pongo2.Context(ctx))
	if err != nil {
		return "", fmt.Errorf("executing template %q: %w", templateName, err)
	}
	return out, nil
}

// load resolves and compiles a template by name, consulting and then
// populating the cache. Call ClearCache after a template-file edit is
// detected so the next Render recompiles it.
func (e *Engine) load(name string) (*pongo2.Template, error) {
	e.mu.RLock()
	if tpl, ok := e.templateCache[name]; ok {
		e.mu.RUnlock()
		return tpl, nil
	}
	e.mu.RUnlock()

	path := e.find(name)
	if path == "" {
		return nil, fmt.Errorf("template %q not found in search paths %v", name, e.searchPaths)
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	set := pongo2.NewSet(name, &searchPathLoader{searchPaths: e.searchPaths})
	tpl, err := set.FromFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("parsing template %q: %w", name, err)
	}

	e.mu.Lock()
	e.templateCache[name] = tpl
	e.mu.Unlock()
	return tpl, nil
}

func (e *Engine) find(name string) string {
	for _, dir := range e.searchPaths {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ClearCache discards every compiled template, forcing recompilation on
// next Render. It can be handed to
// cachemgr.BuildCache.SetClearTemplateCacheFn so TemplateChangeDetector's
// best-effort invalidation reaches it; nothing in this module does so.
func (e *Engine) ClearCache() {
	e.mu.Lock()
	e.templateCache = make(map[string]*pongo2.Template)
	e.mu.Unlock()
}

// searchPathLoader implements pongo2.TemplateLoader over an ordered list
// of directories, so {% include %}/{% extends %} resolve the same way
// top-level Render calls do.
type searchPathLoader struct {
	searchPaths []string
}

func (l *searchPathLoader) Abs(base, name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return name
}

func (l *searchPathLoader) Get(path string) (io.Reader, error) {
	if filepath.IsAbs(path) {
		if f, err := os.Open(path); err == nil {
			return f, nil
		}
	}
	for _, dir := range l.searchPaths {
		if f, err := os.Open(filepath.Join(dir, path)); err == nil {
			return f, nil
		}
	}
	return nil, fmt.Errorf("template %q not found in search paths %v", path, l.searchPaths)
}
