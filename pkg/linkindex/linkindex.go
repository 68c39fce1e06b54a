// Package linkindex extracts cross-page link targets from rendered HTML
// and records them as effects.Effect dependency edges, so a changed
// target page's cache key shows up in another page's dependency closure.
// Grounded on the teacher's pkg/models/link.go and pkg/models/mentions.go
// (href/src extraction from rendered content to build a mention/backlink
// graph), rewritten against effects.Tracer instead of the teacher's own
// mention index.
package linkindex

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/bengal-go/bengal/pkg/cachekey"
	"github.com/bengal-go/bengal/pkg/effects"
)

// Extract parses html and returns every internal link/image target:
// <a href> and <img src> values that don't look like an absolute external
// URL (no "://" and not starting with "//") or a "mailto:" link.
func Extract(html string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var out []string
	add := func(target string) {
		target = strings.TrimSpace(target)
		if target == "" || isExternal(target) {
			return
		}
		if _, ok := seen[target]; ok {
			return
		}
		seen[target] = struct{}{}
		out = append(out, target)
	}

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		add(href)
	})
	doc.Find("img[src]").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		add(src)
	})

	return out, nil
}

func isExternal(target string) bool {
	return strings.Contains(target, "://") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "mailto:")
}

// RecordPageLinks extracts html's internal link targets and records an
// effect: outputPath depends on every target, and invalidates pageKey —
// so a later build that notices a target changed can find this page via
// effects.Tracer's transitive query.
func RecordPageLinks(tracer *effects.Tracer, outputPath string, pageKey cachekey.Key, html string) error {
	if tracer == nil {
		return nil
	}
	targets, err := Extract(html)
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		return nil
	}
	tracer.Record(effects.Effect{
		Outputs:     []string{outputPath},
		DependsOn:   targets,
		Invalidates: []string{string(pageKey)},
		Operation:   "link_index",
	})
	return nil
}
