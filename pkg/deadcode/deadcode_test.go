package deadcode_test

import (
	"context"
	"testing"

	"github.com/latticeforge/deepscan/pkg/ast"
	"github.com/latticeforge/deepscan/pkg/deadcode"
	"github.com/latticeforge/deepscan/pkg/langparse"
)

// TestBuildFromProjectExportedHelperIsLive exercises spec.md §8 Testable
// Scenario S5 end-to-end through the real Rust parser: a publicly visible
// function seeds reachability, and the internal helper it calls inherits
// liveness via the parser's CallEdges, not just the helper's own visibility.
func TestBuildFromProjectExportedHelperIsLive(t *testing.T) {
	src := []byte(`
pub fn exported_fn(x: i32) -> i32 {
    helper(x) + 1
}

fn helper(x: i32) -> i32 {
    x * 2
}

fn unused(x: i32) -> i32 {
    x - 1
}
`)

	reg := langparse.NewRegistry()
	p := reg.ParserFor(langparse.LangRust)

	fc, err := p.Parse(context.Background(), "src/lib.rs", src)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	graph := deadcode.BuildFromProject([]*ast.FileContext{fc}, map[string]bool{})
	reports := graph.Analyze(deadcode.DefaultConfidenceThreshold)

	byName := make(map[string]deadcode.Report, len(reports))
	for _, r := range reports {
		byName[r.Function.Name] = r
	}

	if got := byName["exported_fn"].Status; got != deadcode.ProvenLive {
		t.Errorf("exported_fn status = %v, want ProvenLive", got)
	}

	if got := byName["helper"].Status; got != deadcode.ProvenLive {
		t.Errorf("helper status = %v, want ProvenLive (reached via exported_fn's call edge)", got)
	}

	if got := byName["unused"].Status; got != deadcode.ProvenDead {
		t.Errorf("unused status = %v, want ProvenDead", got)
	}
}
