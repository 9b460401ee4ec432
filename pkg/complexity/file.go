package complexity

import "github.com/latticeforge/deepscan/pkg/ast"

// AnalyzeFile computes complexity metrics for every function-shaped item in
// fc (ItemFunction; struct/trait/enum declarations have no body to walk and
// are skipped). Never fails: a file with no functions, or one whose items
// lack an arena (Dag == nil, e.g. a parser that only extracted item
// headers), yields an empty-but-valid FileComplexityMetrics.
func AnalyzeFile(fc *ast.FileContext) FileComplexityMetrics {
	metrics := FileComplexityMetrics{Path: fc.Path}

	if fc.Dag == nil {
		return metrics
	}

	for _, item := range fc.Items {
		if item.Kind != ast.ItemFunction || item.Node == ast.NilKey {
			continue
		}

		fn := AnalyzeFunction(fc.Dag, item.Node, item.Name)
		fn.FilePath = fc.Path
		fn.LineNumber = item.Line

		metrics.Functions = append(metrics.Functions, fn)
		metrics.TotalCyclomatic += fn.Cyclomatic

		if fn.Cyclomatic > metrics.MaxCyclomatic {
			metrics.MaxCyclomatic = fn.Cyclomatic
		}
	}

	if len(metrics.Functions) > 0 {
		metrics.AverageCyclomatic = float64(metrics.TotalCyclomatic) / float64(len(metrics.Functions))
	}

	return metrics
}
