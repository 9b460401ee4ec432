// Package pipeline is the concurrency layer that turns a project root into
// a report.DeepContext: discover files, parse them in a worker pool, then
// — once every file has landed — run the cross-file analyses (DAG, churn,
// dead-code, TDG) that need the whole project in hand before they can
// start. Grounded on the teacher's pkg/framework/coordinator.go: the same
// channel-staged shape (commitChan -> blobOut -> diffOut there, pathChan ->
// parseOut here, with analysis run after the parse barrier), the same runtime.NumCPU()-ratio worker
// sizing, and the same signalOnDrain stage-completion signal.
package pipeline

import (
	"context"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/latticeforge/deepscan/pkg/ast"
	"github.com/latticeforge/deepscan/pkg/cache"
	"github.com/latticeforge/deepscan/pkg/churn"
	"github.com/latticeforge/deepscan/pkg/complexity"
	"github.com/latticeforge/deepscan/pkg/config"
	"github.com/latticeforge/deepscan/pkg/discovery"
	"github.com/latticeforge/deepscan/pkg/errs"
	"github.com/latticeforge/deepscan/pkg/langparse"
	"github.com/latticeforge/deepscan/pkg/observability"
	"github.com/latticeforge/deepscan/pkg/report"
	"github.com/latticeforge/deepscan/pkg/satd"
	"github.com/latticeforge/deepscan/pkg/tdg"
)

// optimalWorkerRatio is the fraction of CPU cores used for parse workers,
// matching the teacher's own finding that saturating every core adds
// contention rather than throughput.
const optimalWorkerRatio = 60

const percentDivisor = 100

// bufferSizeMultiplier scales channel buffering with the worker count, so
// a fast discovery stage doesn't stall waiting for a slow parse worker to
// drain one path at a time.
const bufferSizeMultiplier = 2

// DefaultFileTimeout bounds a single file's parse (spec.md §5's per-file
// deadline, default 5s).
const DefaultFileTimeout = 5 * time.Second

// Config configures a Pipeline run.
type Config struct {
	// Options selects which analyses run and how (spec.md §6).
	Options config.AnalysisOptions
	// Cache, when non-nil, is consulted and populated for every parsed
	// file (spec.md §4.8). A nil Cache disables caching entirely.
	Cache *cache.Layered[*ast.FileContext]
	// TdgCache, when non-nil, is consulted and populated for every file's
	// duplication-detection shingles, the one piece of TDG scoring that's
	// a pure function of a file's content. A nil TdgCache disables it.
	TdgCache *cache.Layered[[][]byte]
	// Workers bounds parse-stage concurrency. Zero picks
	// runtime.NumCPU()*60/100 (min 1); any value becomes 1 when
	// Options.Parallel is false.
	Workers int
	// FileTimeout bounds a single file's parse. Zero uses DefaultFileTimeout.
	FileTimeout time.Duration
	// Metrics is an optional observability hook; a nil value
	// degrades to "do nothing" rather than requiring a caller to wire a
	// no-op implementation.
	Metrics *observability.AnalysisMetrics
}

// withDefaults returns a copy of c with zero fields resolved.
func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = max(runtime.NumCPU()*optimalWorkerRatio/percentDivisor, 1)
	}

	if !c.Options.Parallel {
		c.Workers = 1
	}

	if c.FileTimeout <= 0 {
		c.FileTimeout = DefaultFileTimeout
	}

	return c
}

// Pipeline orchestrates one project's full analysis run.
type Pipeline struct {
	config   Config
	registry *langparse.Registry
}

// New constructs a Pipeline. root's content is read lazily during Run,
// not at construction time.
func New(cfg Config) *Pipeline {
	return &Pipeline{config: cfg.withDefaults(), registry: langparse.NewRegistry()}
}

// parseResult is one file's outcome from the parse stage: exactly one of
// Context or Err is set.
type parseResult struct {
	path    string
	content []byte
	ctx     *ast.FileContext
	err     *errs.FileError
}

// Run discovers, parses and analyzes every file under root, returning the
// assembled report. A context cancellation stops the parse stage early and
// the returned DeepContext has Metadata.Partial set rather than erroring —
// whatever was parsed before cancellation still gets analyzed and reported,
// per spec.md §5/§7 "a cancelled analysis produces a partial report".
func (p *Pipeline) Run(ctx context.Context, root string) (*report.DeepContext, error) {
	start := time.Now()

	findings, err := discovery.Walk(osFS(root), discovery.Options{
		Root:               root,
		IncludeGlobs:       p.config.Options.IncludePatterns,
		ExcludeGlobs:       p.config.Options.ExcludePatterns,
		RespectIgnoreFiles: true,
		MaxDepth:           p.config.Options.MaxDepth,
		MaxFileSize:        p.config.Options.MaxFileSize,
	})
	if err != nil {
		return nil, err //nolint:wrapcheck // caller attaches root context.
	}

	paths := discovery.ParsablePaths(findings)

	results, partial := p.parseAll(ctx, root, paths)

	sort.Slice(results, func(i, j int) bool { return results[i].path < results[j].path })

	files, contentByPath, fileErrors := splitResults(results)

	analysis := p.analyze(ctx, root, files, contentByPath)

	meta := report.Metadata{
		ToolName:    "deepscan",
		ProjectRoot: root,
		GeneratedAt: time.Now(),
		Partial:     partial || ctx.Err() != nil,
	}

	dc := report.Assemble(meta, analysis.analyses, analysis.recommendations, analysis.crossRefs, fileErrors, analysis.warnings)

	stats := observability.AnalysisStats{
		Files:          int64(len(files)),
		Stages:         analysis.stageCount,
		StageDurations: []time.Duration{time.Since(start)},
	}

	if p.config.Cache != nil {
		m := p.config.Cache.Stats()
		stats.ParseCacheHits, stats.ParseCacheMisses = m.Hits, m.Misses
	}

	if p.config.TdgCache != nil {
		m := p.config.TdgCache.Stats()
		stats.TdgCacheHits, stats.TdgCacheMisses = m.Hits, m.Misses
	}

	p.config.Metrics.RecordRun(ctx, stats)

	return dc, nil
}

// splitResults partitions results (already sorted by path) into the
// successfully parsed FileContexts, a path->content lookup for the
// analyses that need raw bytes the AST arena itself doesn't keep, and
// the per-file failures — preserving path order throughout.
func splitResults(results []parseResult) ([]*ast.FileContext, map[string][]byte, []*errs.FileError) {
	files := make([]*ast.FileContext, 0, len(results))
	content := make(map[string][]byte, len(results))
	fileErrors := make([]*errs.FileError, 0)

	for _, r := range results {
		if r.err != nil {
			fileErrors = append(fileErrors, r.err)

			continue
		}

		files = append(files, r.ctx)
		content[r.path] = r.content
	}

	return files, content, fileErrors
}

// parseAll runs the parse stage to completion and collects every result.
// The stage itself is a worker pool fed by a single path channel
// (pathChan -> parseOut, per SPEC_FULL.md §5), collected here behind a
// barrier since every cross-file analysis needs the complete file set.
func (p *Pipeline) parseAll(ctx context.Context, root string, paths []string) ([]parseResult, bool) {
	pathChan := make(chan string, p.config.Workers*bufferSizeMultiplier)

	go func() {
		defer close(pathChan)

		for _, path := range paths {
			select {
			case pathChan <- path:
			case <-ctx.Done():
				return
			}
		}
	}()

	out, done := signalOnDrain(p.parseStage(ctx, root, pathChan))

	results := make([]parseResult, 0, len(paths))
	for r := range out {
		results = append(results, r)
	}

	<-done

	return results, ctx.Err() != nil || len(results) < len(paths)
}

// parseStage fans pathChan out across Workers goroutines, each reading a
// file, consulting the cache, and parsing with a per-file timeout. Results
// are funneled onto one unbuffered output channel, closed once every
// worker has exited.
func (p *Pipeline) parseStage(ctx context.Context, root string, pathChan <-chan string) <-chan parseResult {
	out := make(chan parseResult)

	var wg sync.WaitGroup

	wg.Add(p.config.Workers)

	for range p.config.Workers {
		go func() {
			defer wg.Done()

			for path := range pathChan {
				select {
				case out <- p.parseOne(ctx, root, path):
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	return out
}

// signalOnDrain returns a channel that forwards every item from src and a
// second channel closed once src is fully drained, so a caller can learn
// a stage finished without blocking on its last item. Ground truth: the
// teacher's identically named helper in pkg/framework/coordinator.go.
func signalOnDrain[T any](src <-chan T) (forwarded <-chan T, drained <-chan struct{}) {
	sig := make(chan struct{})
	out := make(chan T)

	go func() {
		defer close(sig)
		defer close(out)

		for item := range src {
			out <- item
		}
	}()

	return out, sig
}

// complexityFor reduces a FileComplexityMetrics down to the single raw
// signal tdg.Components.Complexity wants.
func complexityFor(m complexity.FileComplexityMetrics) float64 {
	return float64(m.TotalCyclomatic)
}

// mainFiles identifies each file whose conventional name marks it as a
// binary entry point (main.rs, __main__.py, index.ts, ...), the signal
// pkg/deadcode's entry-point seeding and pkg/dag's entry-node metadata both
// need but that no pkg/langparse parser can infer from a single file in
// isolation.
func mainFiles(paths []string) map[string]bool {
	main := make(map[string]bool, len(paths))

	for _, p := range paths {
		if isMainFileName(p) {
			main[p] = true
		}
	}

	return main
}

var mainBasenames = map[string]bool{
	"main.rs": true, "main.c": true, "main.cpp": true, "main.cc": true,
	"main.py": true, "__main__.py": true,
	"main.ts": true, "main.js": true, "index.ts": true, "index.js": true,
}

func isMainFileName(path string) bool {
	return mainBasenames[baseName(path)]
}

func baseName(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[i+1:]
		}
	}

	return path
}

// churnScoreFor looks up path's churn score, or 0 if churn analysis didn't
// run or the path never appeared in history (an untracked new file).
func churnScoreFor(analysis *churn.Analysis, path string) float64 {
	if analysis == nil {
		return 0
	}

	for _, fc := range analysis.Files {
		if fc.Path == path || fc.RelativePath == path {
			return fc.ChurnScore
		}
	}

	return 0
}

// satdTotal concatenates every file's SATD markers into one slice.
func satdTotal(perFile [][]satd.Marker) []satd.Marker {
	var all []satd.Marker

	for _, markers := range perFile {
		all = append(all, markers...)
	}

	return all
}

// weightsOrDefault returns o's TDG weights, falling back to tdg's stated
// defaults when the zero value (an unconfigured AnalysisOptions) would
// otherwise fail Weights.Validate's sum-to-1.0 check.
func weightsOrDefault(w tdg.Weights) tdg.Weights {
	if w.Validate() {
		return w
	}

	return tdg.DefaultWeights
}
