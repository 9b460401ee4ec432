// Package report assembles every analysis stage's output into the
// DeepContext aggregate spec.md §4.10 describes and serializes it to
// JSON, Markdown, and SARIF. Aggregation itself is grounded on the
// deleted pkg/analyzers/common/renderer's section-based report shape
// (header + key metrics + distribution + issues, generalized here from
// terminal-colored sections to a plain data aggregate that each
// serializer renders independently).
package report

import (
	"time"

	"github.com/latticeforge/deepscan/pkg/alg/stats"
	"github.com/latticeforge/deepscan/pkg/ast"
	"github.com/latticeforge/deepscan/pkg/churn"
	"github.com/latticeforge/deepscan/pkg/complexity"
	"github.com/latticeforge/deepscan/pkg/dag"
	"github.com/latticeforge/deepscan/pkg/deadcode"
	"github.com/latticeforge/deepscan/pkg/errs"
	"github.com/latticeforge/deepscan/pkg/satd"
	"github.com/latticeforge/deepscan/pkg/tdg"
)

// Per-file health penalties, in points out of 100, folded into
// OverallHealth below. Critical files cost more than Warning ones;
// dead functions and SATD markers are weighted lighter still since
// they're advisory rather than a debt-gradient severity.
const (
	criticalHealthPenalty = 10.0
	warningHealthPenalty  = 4.0
	deadFuncHealthPenalty = 1.0
	satdHealthPenalty     = 0.5
)

// Metadata identifies the analysis run that produced a DeepContext.
type Metadata struct {
	ToolName    string
	ToolVersion string
	ProjectRoot string
	GeneratedAt time.Time
	// Partial is set when a cancelled or per-file-failed run produced a
	// DeepContext that is valid but incomplete, per spec.md §5/§7's
	// "a cancelled analysis produces a partial report flagged as such".
	Partial bool
}

// Analyses holds every optional per-run analysis output. A nil field
// means that analysis was not in the run's include_analyses set, not
// that it failed — failures are carried in Warnings/FileErrors instead.
type Analyses struct {
	AstContexts []*ast.FileContext
	Complexity  []complexity.FileComplexityMetrics
	Churn       *churn.Analysis
	Dag         *dag.DependencyGraph
	// MermaidDiagram is Dag rendered as a `graph TD` document (spec.md
	// §4.9), populated whenever Dag is. Empty when Dag is nil.
	MermaidDiagram string
	DeadCode       []deadcode.Report
	Satd           []satd.Marker
	Tdg            []tdg.Score
}

// QualityScorecard is the report's single top-level numeric summary,
// derived from the TDG distribution.
type QualityScorecard struct {
	AverageTDG       float64
	WorstTDG         float64
	WorstFile        string
	WarningCount     int
	CriticalCount    int
	TotalFilesScored int
	SatdCount        int
	DeadFunctions    int
	// OverallHealth is a single 0..100 summary derived from the
	// Critical/Warning file counts plus dead-function and SATD counts.
	// An empty or fully-clean run scores 100.0, per spec.md §8 Scenario
	// S1 (an empty repository's quality_scorecard.overall_health = 100.0).
	OverallHealth float64
}

// DefectSummary groups defect-relevant signals by severity, the shape
// SARIF's rule/result stream is built from.
type DefectSummary struct {
	CriticalFiles []string
	WarningFiles  []string
	DeadFunctions []deadcode.Report
	SatdMarkers   []satd.Marker
}

// CrossLanguageRef names a dependency edge that crosses a language
// boundary (e.g. a Rust FFI export called from a C file), surfaced
// separately since DependencyGraph itself carries no language tag on
// edges.
type CrossLanguageRef struct {
	FromFile string
	ToFile   string
	FromLang string
	ToLang   string
}

// DeepContext is the top-level aggregate spec.md §4.10 describes,
// serialized by ToJSON/ToMarkdown/ToSARIF.
type DeepContext struct {
	Metadata          Metadata
	Analyses          Analyses
	QualityScorecard  QualityScorecard
	DefectSummary     DefectSummary
	Recommendations   []tdg.Recommendation
	CrossLanguageRefs []CrossLanguageRef
	FileErrors        []*errs.FileError
	Warnings          []string
}

// Assemble builds a DeepContext from a run's raw analysis outputs,
// computing QualityScorecard and DefectSummary from Analyses.Tdg,
// Analyses.DeadCode and Analyses.Satd. Callers supply Recommendations
// (from tdg.Recommend) and CrossLanguageRefs separately, since deriving
// the latter needs language tags this package doesn't otherwise touch.
func Assemble(meta Metadata, analyses Analyses, recs []tdg.Recommendation, refs []CrossLanguageRef, fileErrors []*errs.FileError, warnings []string) *DeepContext {
	return &DeepContext{
		Metadata:          meta,
		Analyses:          analyses,
		QualityScorecard:  buildScorecard(analyses),
		DefectSummary:     buildDefectSummary(analyses),
		Recommendations:   recs,
		CrossLanguageRefs: refs,
		FileErrors:        fileErrors,
		Warnings:          warnings,
	}
}

func buildScorecard(a Analyses) QualityScorecard {
	sc := QualityScorecard{
		SatdCount: len(a.Satd),
	}

	if len(a.Tdg) == 0 {
		sc.OverallHealth = 100.0

		return sc
	}

	var total float64

	worstIdx := 0

	for i, s := range a.Tdg {
		total += s.Value

		if s.Value > a.Tdg[worstIdx].Value {
			worstIdx = i
		}

		switch s.Severity {
		case tdg.SeverityWarning:
			sc.WarningCount++
		case tdg.SeverityCritical:
			sc.CriticalCount++
		case tdg.SeverityNormal:
		}
	}

	sc.TotalFilesScored = len(a.Tdg)
	sc.AverageTDG = total / float64(len(a.Tdg))
	sc.WorstTDG = a.Tdg[worstIdx].Value
	sc.WorstFile = a.Tdg[worstIdx].FilePath

	for _, r := range a.DeadCode {
		if r.Status == deadcode.ProvenDead {
			sc.DeadFunctions++
		}
	}

	penalty := float64(sc.CriticalCount)*criticalHealthPenalty +
		float64(sc.WarningCount)*warningHealthPenalty +
		float64(sc.DeadFunctions)*deadFuncHealthPenalty +
		float64(sc.SatdCount)*satdHealthPenalty

	sc.OverallHealth = stats.Clamp(100.0-penalty, 0.0, 100.0)

	return sc
}

func buildDefectSummary(a Analyses) DefectSummary {
	ds := DefectSummary{SatdMarkers: a.Satd}

	for _, s := range a.Tdg {
		switch s.Severity {
		case tdg.SeverityCritical:
			ds.CriticalFiles = append(ds.CriticalFiles, s.FilePath)
		case tdg.SeverityWarning:
			ds.WarningFiles = append(ds.WarningFiles, s.FilePath)
		case tdg.SeverityNormal:
		}
	}

	for _, d := range a.DeadCode {
		if d.Status == deadcode.ProvenDead {
			ds.DeadFunctions = append(ds.DeadFunctions, d)
		}
	}

	return ds
}
