package pipeline

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/latticeforge/deepscan/pkg/ast"
	"github.com/latticeforge/deepscan/pkg/churn"
	"github.com/latticeforge/deepscan/pkg/complexity"
	"github.com/latticeforge/deepscan/pkg/config"
	"github.com/latticeforge/deepscan/pkg/dag"
	"github.com/latticeforge/deepscan/pkg/deadcode"
	"github.com/latticeforge/deepscan/pkg/langparse"
	"github.com/latticeforge/deepscan/pkg/mermaid"
	"github.com/latticeforge/deepscan/pkg/report"
	"github.com/latticeforge/deepscan/pkg/satd"
	"github.com/latticeforge/deepscan/pkg/tdg"
)

// analysisResult bundles every cross-file analysis's output, ready to
// hand to report.Assemble.
type analysisResult struct {
	analyses        report.Analyses
	recommendations []tdg.Recommendation
	crossRefs       []report.CrossLanguageRef
	warnings        []string
	stageCount      int
}

// analyze runs every analysis Options.IncludeAnalyses selects, past the
// barrier where the complete, sorted file set is known. Per-file analyses
// (complexity, SATD) and the whole-project ones that need no other
// analysis's output (DAG, churn) run concurrently; TDG waits on all three
// since its Components draw from each, matching the
// sync.WaitGroup-before-cross-file-stages shape SPEC_FULL.md §5 describes.
func (p *Pipeline) analyze(ctx context.Context, root string, files []*ast.FileContext, contentByPath map[string][]byte) analysisResult {
	opts := p.config.Options
	mains := mainFiles(pathsOf(files))

	var (
		complexityOut []complexity.FileComplexityMetrics
		satdOut       []satd.Marker
		dagOut        *dag.DependencyGraph
		deadcodeOut   []deadcode.Report
		churnOut      *churn.Analysis
	)

	var wg sync.WaitGroup

	stageCount := 0

	if opts.Includes(config.AnalysisComplexity) {
		stageCount++

		wg.Add(1)

		go func() {
			defer wg.Done()

			complexityOut = runComplexity(files)
		}()
	}

	if opts.Includes(config.AnalysisSatd) {
		stageCount++

		wg.Add(1)

		go func() {
			defer wg.Done()

			satdOut = runSatd(files)
		}()
	}

	if opts.Includes(config.AnalysisDag) || opts.Includes(config.AnalysisTdg) || opts.Includes(config.AnalysisDeadCode) {
		stageCount++

		wg.Add(1)

		go func() {
			defer wg.Done()

			dagOut = dag.BuildFromProject(dag.ProjectContext{Files: files, MainFiles: mains})
		}()
	}

	if opts.Includes(config.AnalysisDeadCode) {
		stageCount++

		wg.Add(1)

		go func() {
			defer wg.Done()

			deadcodeOut = deadcode.BuildFromProject(files, mains).Analyze(opts.ConfidenceThreshold)
		}()
	}

	if opts.Includes(config.AnalysisChurn) || opts.Includes(config.AnalysisTdg) {
		stageCount++

		wg.Add(1)

		go func() {
			defer wg.Done()

			churnOut, _ = churn.Analyze(ctx, root, opts.PeriodDays) //nolint:errcheck // an unavailable VCS degrades churn to nil, it doesn't abort the run.
		}()
	}

	wg.Wait()

	var (
		scores []tdg.Score
		recs   []tdg.Recommendation
	)

	if opts.Includes(config.AnalysisTdg) {
		stageCount++

		scores, recs = p.runTdg(ctx, files, contentByPath, complexityOut, dagOut, churnOut, opts)
	}

	analyses := report.Analyses{
		Tdg:      scores,
		DeadCode: deadcodeOut,
		Satd:     satdOut,
		Dag:      dagOut,
		Churn:    churnOut,
	}

	if dagOut != nil {
		analyses.MermaidDiagram = mermaid.Render(dagOut, mermaid.Options{StyleByComplexity: true})
	}

	if opts.Includes(config.AnalysisAst) {
		analyses.AstContexts = files
	}

	if opts.Includes(config.AnalysisComplexity) {
		analyses.Complexity = complexityOut
	}

	return analysisResult{
		analyses:        analyses,
		recommendations: recs,
		crossRefs:       crossLanguageRefs(dagOut),
		stageCount:      stageCount,
	}
}

func pathsOf(files []*ast.FileContext) []string {
	paths := make([]string, len(files))
	for i, fc := range files {
		paths[i] = fc.Path
	}

	return paths
}

func runComplexity(files []*ast.FileContext) []complexity.FileComplexityMetrics {
	out := make([]complexity.FileComplexityMetrics, len(files))
	for i, fc := range files {
		out[i] = complexity.AnalyzeFile(fc)
	}

	return out
}

func runSatd(files []*ast.FileContext) []satd.Marker {
	perFile := make([][]satd.Marker, len(files))
	for i, fc := range files {
		perFile[i] = satd.Scan(fc)
	}

	return satdTotal(perFile)
}

// runTdg builds each file's raw Components from the other stages' output,
// scores them, then derives recommendations.
func (p *Pipeline) runTdg(
	ctx context.Context,
	files []*ast.FileContext,
	contentByPath map[string][]byte,
	complexityOut []complexity.FileComplexityMetrics,
	dagOut *dag.DependencyGraph,
	churnOut *churn.Analysis,
	opts config.AnalysisOptions,
) ([]tdg.Score, []tdg.Recommendation) {
	complexityByPath := make(map[string]float64, len(complexityOut))
	for _, m := range complexityOut {
		complexityByPath[m.Path] = complexityFor(m)
	}

	var coupling map[string]int
	if dagOut != nil {
		coupling = dag.Coupling(dagOut)
	}

	dup := buildDuplicationIndex(ctx, files, contentByPath, p.config.TdgCache)

	components := make([]tdg.Components, len(files))
	for i, fc := range files {
		components[i] = tdg.Components{
			FilePath:    fc.Path,
			Complexity:  complexityByPath[fc.Path],
			Churn:       churnScoreFor(churnOut, fc.Path),
			Coupling:    float64(coupling[fc.Path]),
			Duplication: duplicationScore(dup, fc.Path),
		}
	}

	weights := weightsOrDefault(opts.Weights())

	results := tdg.ComputeScores(components, weights)

	scores := make([]tdg.Score, len(results))
	for i, r := range results {
		scores[i] = tdg.Finalize(r)
	}

	return scores, tdg.Recommend(results, weights)
}

// crossLanguageRefs walks g's edges and surfaces every one whose two
// endpoints resolve to files with different inferred languages —
// DependencyGraph edges carry no language tag of their own, so the
// language comes from each endpoint's file extension via
// langparse.LanguageForPath, the same inference discovery/registry
// dispatch on.
func crossLanguageRefs(g *dag.DependencyGraph) []report.CrossLanguageRef {
	if g == nil {
		return nil
	}

	var refs []report.CrossLanguageRef

	for _, e := range g.Edges {
		fromPath, fromOK := fileOfEdge(e.From)
		toPath, toOK := fileOfEdge(e.To)

		if !fromOK || !toOK {
			continue
		}

		fromLang := langparse.LanguageForPath(fromPath)
		toLang := langparse.LanguageForPath(toPath)

		if fromLang == langparse.LangUnknown || toLang == langparse.LangUnknown || fromLang == toLang {
			continue
		}

		refs = append(refs, report.CrossLanguageRef{
			FromFile: fromPath, ToFile: toPath,
			FromLang: fromLang.String(), ToLang: toLang.String(),
		})
	}

	sort.Slice(refs, func(i, j int) bool {
		if refs[i].FromFile != refs[j].FromFile {
			return refs[i].FromFile < refs[j].FromFile
		}

		return refs[i].ToFile < refs[j].ToFile
	})

	return refs
}

func fileOfEdge(nodeID string) (string, bool) {
	path, _, ok := strings.Cut(nodeID, "#")

	return path, ok
}
