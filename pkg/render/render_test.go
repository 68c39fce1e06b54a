package render

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/bengal-go/bengal/pkg/cachekey"
	"github.com/bengal-go/bengal/pkg/sitemodel"
)

type countingPipeline struct {
	rendered *int64
}

func (p *countingPipeline) RenderPage(page *sitemodel.Page) error {
	atomic.AddInt64(p.rendered, 1)
	return nil
}

func TestProcessSequentialUnderThreshold(t *testing.T) {
	var count int64
	o := &Orchestrator{NewPipeline: func() Pipeline { return &countingPipeline{rendered: &count} }}

	pages := []*sitemodel.Page{{Key: "a"}, {Key: "b"}}
	if err := o.Process(pages, Auto); err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Fatalf("expected 2 renders, got %d", count)
	}
}

func TestProcessParallelAboveThreshold(t *testing.T) {
	var count int64
	var mu sync.Mutex
	built := 0
	o := &Orchestrator{
		NewPipeline: func() Pipeline {
			mu.Lock()
			built++
			mu.Unlock()
			return &countingPipeline{rendered: &count}
		},
		Concurrency: 3,
	}

	pages := make([]*sitemodel.Page, 12)
	for i := range pages {
		pages[i] = &sitemodel.Page{Key: cachekey.Key(string(rune('a' + i)))}
	}
	if err := o.Process(pages, Parallel); err != nil {
		t.Fatal(err)
	}
	if count != 12 {
		t.Fatalf("expected 12 renders, got %d", count)
	}
}

func TestProcessInvalidatesPipelineOnNewGeneration(t *testing.T) {
	var count int64
	built := 0
	o := &Orchestrator{
		NewPipeline: func() Pipeline {
			built++
			return &countingPipeline{rendered: &count}
		},
	}

	pages := []*sitemodel.Page{{Key: "a"}}
	if err := o.Process(pages, Parallel); err != nil {
		t.Fatal(err)
	}
	if err := o.Process(pages, Parallel); err != nil {
		t.Fatal(err)
	}
	if built != 2 {
		t.Fatalf("expected the worker pipeline rebuilt for the new generation, got %d", built)
	}
}

func TestAssignOutputPathsSkipsAlreadySet(t *testing.T) {
	pages := []*sitemodel.Page{
		{Key: "a", OutputPath: "already/set.html"},
		{Key: "b"},
	}
	AssignOutputPaths(pages, func(p *sitemodel.Page) string { return "generated/" + string(p.Key) + ".html" })

	if pages[0].OutputPath != "already/set.html" {
		t.Fatalf("expected preset output path preserved, got %q", pages[0].OutputPath)
	}
	if pages[1].OutputPath != "generated/b.html" {
		t.Fatalf("expected output path assigned, got %q", pages[1].OutputPath)
	}
}
