package complexity_test

import (
	"context"
	"testing"

	"github.com/latticeforge/deepscan/pkg/complexity"
	"github.com/latticeforge/deepscan/pkg/langparse"
)

// TestAnalyzeFileNestedLoopsThroughRealParse guards against the review
// finding that decisionPointTypes/nestingStartTypes never matched a parsed
// node (whose Type carried the grammar's raw "for_expression" string
// instead of ast.TypeLoop), which left every real function reporting
// Cyclomatic=1 and maxLoopDepth=0 regardless of its actual shape.
func TestAnalyzeFileNestedLoopsThroughRealParse(t *testing.T) {
	src := []byte(`
fn cube_scan(n: i32) -> i32 {
    let mut total = 0;
    for i in 0..n {
        for j in 0..n {
            for k in 0..n {
                total += i * j * k;
            }
        }
    }
    total
}
`)

	reg := langparse.NewRegistry()
	p := reg.ParserFor(langparse.LangRust)

	fc, err := p.Parse(context.Background(), "src/lib.rs", src)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	metrics := complexity.AnalyzeFile(fc)
	if len(metrics.Functions) != 1 {
		t.Fatalf("Functions = %d, want 1", len(metrics.Functions))
	}

	fn := metrics.Functions[0]
	if fn.TimeComplexity.Class != complexity.ClassPolynomial {
		t.Errorf("TimeComplexity.Class = %v, want ClassPolynomial", fn.TimeComplexity.Class)
	}

	if fn.TimeComplexity.Degree != 3 {
		t.Errorf("Degree = %d, want 3", fn.TimeComplexity.Degree)
	}

	if fn.Cyclomatic <= 1 {
		t.Errorf("Cyclomatic = %d, want > 1 for three nested loops", fn.Cyclomatic)
	}
}
