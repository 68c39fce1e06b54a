// Package render implements the render orchestrator (C10): given a work
// list of pages, renders them sequentially, in parallel over a bounded
// worker pool, or in knowledge-graph tiers for very large sites. Grounded
// on the teacher's Manager.ProcessPostsConcurrently (semaphore-bounded
// goroutine fan-out over a WaitGroup), generalized with the
// generation-invalidated per-worker pipeline spec.md §4.10 requires.
package render

import (
	"fmt"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/bengal-go/bengal/pkg/sitemodel"
)

// sequentialThreshold: below this many pages, sequential rendering is used
// unconditionally — thread-pool startup cost exceeds any parallelism gain.
const sequentialThreshold = 5

// Pipeline is a per-worker collaborator expensive enough to construct
// (it holds a template environment) that workers reuse it across pages
// within a build, rebuilding only when the generation changes.
type Pipeline interface {
	RenderPage(p *sitemodel.Page) error
}

// PipelineFactory constructs a fresh Pipeline for a new build generation.
type PipelineFactory func() Pipeline

// Orchestrator renders a work list with a process-wide build-generation
// counter — the only cross-thread mutable state it owns — so that
// per-worker pipelines constructed in an earlier build are invalidated
// and rebuilt the first time they're used in a new one.
type Orchestrator struct {
	NewPipeline PipelineFactory
	Concurrency int // 0 means a default of min(8, ceil(N/4))

	// OutputDirCreated is the shared thread-safe set of already-mkdir'ed
	// output directories, consulted by callers before creating one so
	// concurrent renders of sibling pages don't hammer the filesystem.
	OutputDirCreated sync.Map

	generation uint64

	workerPipelines sync.Map // worker id -> *workerState
}

type workerState struct {
	generation uint64
	pipeline   Pipeline
}

// Mode selects the rendering strategy. Auto picks Sequential or Parallel
// by the page-count threshold; Streaming is only ever selected explicitly.
type Mode int

const (
	Auto Mode = iota
	Sequential
	Parallel
	Streaming
)

// AssignOutputPaths computes output paths only for the pages being
// rendered, skipping any that already carry one (e.g. set by an earlier
// incremental pass that didn't complete).
func AssignOutputPaths(pages []*sitemodel.Page, outputPathFor func(*sitemodel.Page) string) {
	for _, p := range pages {
		if p.OutputPath != "" {
			continue
		}
		p.OutputPath = outputPathFor(p)
	}
}

// Process renders pages using mode (or the threshold heuristic under
// Auto), incrementing the build generation first so that any reused
// worker pipeline is rebuilt on its first use this round.
func (o *Orchestrator) Process(pages []*sitemodel.Page, mode Mode) error {
	atomic.AddUint64(&o.generation, 1)

	switch mode {
	case Sequential:
		return o.runSequential(pages)
	case Streaming:
		return o.runStreaming(pages)
	case Parallel:
		return o.runParallel(pages)
	default:
		if len(pages) < sequentialThreshold {
			return o.runSequential(pages)
		}
		return o.runParallel(pages)
	}
}

func (o *Orchestrator) runSequential(pages []*sitemodel.Page) error {
	pipeline := o.NewPipeline()
	for _, p := range pages {
		if err := pipeline.RenderPage(p); err != nil {
			return fmt.Errorf("rendering %s: %w", p.SourcePath, err)
		}
	}
	return nil
}

func (o *Orchestrator) concurrency(n int) int {
	if o.Concurrency > 0 {
		return o.Concurrency
	}
	c := (n + 3) / 4
	if c > 8 {
		c = 8
	}
	if c < 1 {
		c = 1
	}
	return c
}

func (o *Orchestrator) runParallel(pages []*sitemodel.Page) error {
	if len(pages) == 0 {
		return nil
	}

	concurrency := o.concurrency(len(pages))
	if concurrency > len(pages) {
		concurrency = len(pages)
	}

	jobs := make(chan *sitemodel.Page)
	errCh := make(chan error, len(pages))
	var wg sync.WaitGroup

	for workerID := 0; workerID < concurrency; workerID++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			pipeline := o.pipelineForWorker(id)
			for p := range jobs {
				if err := pipeline.RenderPage(p); err != nil {
					errCh <- fmt.Errorf("rendering %s: %w", p.SourcePath, err)
				}
			}
		}(workerID)
	}

	for _, p := range pages {
		jobs <- p
	}
	close(jobs)
	wg.Wait()
	close(errCh)

	errs := make([]error, 0, len(pages))
	for err := range errCh {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("%d pages failed to render; first error: %w", len(errs), errs[0])
	}
	return nil
}

// pipelineForWorker returns workerID's cached pipeline, rebuilding it if
// it was constructed in an earlier build generation.
func (o *Orchestrator) pipelineForWorker(workerID int) Pipeline {
	gen := atomic.LoadUint64(&o.generation)

	if v, ok := o.workerPipelines.Load(workerID); ok {
		ws := v.(*workerState)
		if ws.generation == gen {
			return ws.pipeline
		}
	}

	ws := &workerState{generation: gen, pipeline: o.NewPipeline()}
	o.workerPipelines.Store(workerID, ws)
	return ws.pipeline
}

// runStreaming renders in knowledge-graph tiers: hubs (pages many others
// depend on) first, then mid-tier, then leaves. Leaf-batch completion
// triggers a GC, bounding peak memory on very large sites.
func (o *Orchestrator) runStreaming(pages []*sitemodel.Page) error {
	tiers := tierByHubness(pages)
	for _, tier := range tiers {
		if err := o.runParallel(tier); err != nil {
			return err
		}
	}
	runtime.GC()
	return nil
}

// tierByHubness buckets pages into hub/mid/leaf tiers by in-degree
// (PrevKey/NextKey neighbor count; no other link graph, including
// pkg/linkindex's, is consulted).
// Hubs render first so their dependents' navigation state is settled
// before leaves render.
func tierByHubness(pages []*sitemodel.Page) [][]*sitemodel.Page {
	degree := make(map[*sitemodel.Page]int, len(pages))
	for _, p := range pages {
		if p.PrevKey != "" {
			degree[p]++
		}
		if p.NextKey != "" {
			degree[p]++
		}
	}

	sorted := append([]*sitemodel.Page(nil), pages...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return degree[sorted[i]] > degree[sorted[j]]
	})

	third := len(sorted) / 3
	if third == 0 {
		return [][]*sitemodel.Page{sorted}
	}
	return [][]*sitemodel.Page{
		sorted[:third],
		sorted[third : 2*third],
		sorted[2*third:],
	}
}
