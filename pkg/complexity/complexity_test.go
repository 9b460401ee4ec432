package complexity_test

import (
	"testing"

	"github.com/latticeforge/deepscan/pkg/ast"
	"github.com/latticeforge/deepscan/pkg/complexity"
)

// TestAnalyzeFunctionConstant covers spec.md §8 Testable Scenario S2: a
// function with no branches or loops is Constant time with high confidence.
func TestAnalyzeFunctionConstant(t *testing.T) {
	dag := ast.NewAstDag(4)
	fn := dag.Add(ast.Node{Type: ast.TypeFunction, Token: "greet"})
	dag.SetRoot(fn)

	got := complexity.AnalyzeFunction(dag, fn, "greet")

	if got.Cyclomatic != 1 {
		t.Errorf("Cyclomatic = %d, want 1", got.Cyclomatic)
	}

	if got.TimeComplexity.Class != complexity.ClassConstant {
		t.Errorf("TimeComplexity.Class = %v, want ClassConstant", got.TimeComplexity.Class)
	}

	if got.TimeComplexity.Confidence < 70 {
		t.Errorf("Confidence = %d, want >= 70", got.TimeComplexity.Confidence)
	}
}

// TestAnalyzeFunctionTripleNestedLoop covers spec.md §8 Testable Scenario
// S3: three nested loops classify as Polynomial{degree: 3} with confidence
// at least 70.
func TestAnalyzeFunctionTripleNestedLoop(t *testing.T) {
	dag := ast.NewAstDag(8)

	loop3 := dag.Add(ast.Node{Type: ast.TypeLoop, Token: "inner"})
	loop2 := dag.Add(ast.Node{Type: ast.TypeLoop, Token: "middle", Children: []ast.NodeKey{loop3}})
	loop1 := dag.Add(ast.Node{Type: ast.TypeLoop, Token: "outer", Children: []ast.NodeKey{loop2}})
	fn := dag.Add(ast.Node{Type: ast.TypeFunction, Token: "cube_scan", Children: []ast.NodeKey{loop1}})
	dag.SetRoot(fn)

	got := complexity.AnalyzeFunction(dag, fn, "cube_scan")

	if got.TimeComplexity.Class != complexity.ClassPolynomial {
		t.Fatalf("TimeComplexity.Class = %v, want ClassPolynomial", got.TimeComplexity.Class)
	}

	if got.TimeComplexity.Degree != 3 {
		t.Errorf("Degree = %d, want 3", got.TimeComplexity.Degree)
	}

	if got.TimeComplexity.Confidence < 70 {
		t.Errorf("Confidence = %d, want >= 70", got.TimeComplexity.Confidence)
	}

	if got.Cyclomatic != 4 {
		t.Errorf("Cyclomatic = %d, want 4 (base 1 + 3 loops)", got.Cyclomatic)
	}
}

// TestAnalyzeFunctionPairRecursionIsExponential covers the Fibonacci-shape
// recursion rule: two self-calls in one body caps confidence at 50 and
// classifies as Exponential even though no loop is present.
func TestAnalyzeFunctionPairRecursionIsExponential(t *testing.T) {
	dag := ast.NewAstDag(4)

	call1 := dag.Add(ast.Node{Type: ast.TypeCall, Token: "fib"})
	call2 := dag.Add(ast.Node{Type: ast.TypeCall, Token: "fib"})
	fn := dag.Add(ast.Node{Type: ast.TypeFunction, Token: "fib", Children: []ast.NodeKey{call1, call2}})
	dag.SetRoot(fn)

	got := complexity.AnalyzeFunction(dag, fn, "fib")

	if got.TimeComplexity.Class != complexity.ClassExponential {
		t.Fatalf("TimeComplexity.Class = %v, want ClassExponential", got.TimeComplexity.Class)
	}

	if got.TimeComplexity.Confidence > 50 {
		t.Errorf("Confidence = %d, want <= 50", got.TimeComplexity.Confidence)
	}
}

// TestAnalyzeFunctionBinarySearchDemotesToLogarithmic checks that a single
// loop calling a binary-search helper is reported Logarithmic, not Linear.
func TestAnalyzeFunctionBinarySearchDemotesToLogarithmic(t *testing.T) {
	dag := ast.NewAstDag(4)

	call := dag.Add(ast.Node{Type: ast.TypeCall, Token: "binary_search"})
	loop := dag.Add(ast.Node{Type: ast.TypeLoop, Children: []ast.NodeKey{call}})
	fn := dag.Add(ast.Node{Type: ast.TypeFunction, Token: "lookup", Children: []ast.NodeKey{loop}})
	dag.SetRoot(fn)

	got := complexity.AnalyzeFunction(dag, fn, "lookup")

	if got.TimeComplexity.Class != complexity.ClassLogarithmic {
		t.Errorf("TimeComplexity.Class = %v, want ClassLogarithmic", got.TimeComplexity.Class)
	}
}

func TestAnalyzeFileSkipsNonFunctionItems(t *testing.T) {
	dag := ast.NewAstDag(2)
	fn := dag.Add(ast.Node{Type: ast.TypeFunction, Token: "main"})
	dag.SetRoot(fn)

	fc := &ast.FileContext{
		Path: "main.rs",
		Dag:  dag,
		Items: []ast.AstItem{
			{Kind: ast.ItemFunction, Name: "main", Node: fn, Line: 1},
			{Kind: ast.ItemStruct, Name: "Config", Line: 5},
		},
	}

	metrics := complexity.AnalyzeFile(fc)

	if len(metrics.Functions) != 1 {
		t.Fatalf("Functions = %d, want 1", len(metrics.Functions))
	}

	if metrics.AverageCyclomatic != 1 {
		t.Errorf("AverageCyclomatic = %v, want 1", metrics.AverageCyclomatic)
	}
}

func TestAnalyzeFileEmptyDagIsSafe(t *testing.T) {
	fc := &ast.FileContext{Path: "empty.rs"}

	metrics := complexity.AnalyzeFile(fc)

	if len(metrics.Functions) != 0 {
		t.Errorf("Functions = %d, want 0 for a nil Dag", len(metrics.Functions))
	}
}
