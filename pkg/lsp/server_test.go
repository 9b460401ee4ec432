package lsp

import (
	"testing"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/latticeforge/deepscan/pkg/ast"
	"github.com/latticeforge/deepscan/pkg/metrics"
)

const testDocumentURI = "file:///repo/src/lib.rs"

func TestDocumentStoreSetAndGet(t *testing.T) {
	t.Parallel()

	store := NewDocumentStore()

	store.Set(testDocumentURI, "fn main() {}")

	got, ok := store.Get(testDocumentURI)
	if !ok {
		t.Fatalf("expected document to exist for %s", testDocumentURI)
	}

	if got != "fn main() {}" {
		t.Errorf("Get = %q, want %q", got, "fn main() {}")
	}
}

func TestDocumentStoreGetNotFound(t *testing.T) {
	t.Parallel()

	store := NewDocumentStore()

	if _, ok := store.Get("file:///nonexistent.rs"); ok {
		t.Error("expected no document for an unset URI")
	}
}

func TestDocumentStoreUpdate(t *testing.T) {
	t.Parallel()

	store := NewDocumentStore()
	store.Set(testDocumentURI, "first")
	store.Set(testDocumentURI, "second")

	got, _ := store.Get(testDocumentURI)
	if got != "second" {
		t.Errorf("Get after update = %q, want %q", got, "second")
	}
}

func TestDocumentStoreDelete(t *testing.T) {
	t.Parallel()

	store := NewDocumentStore()
	store.Set(testDocumentURI, "content")
	store.Delete(testDocumentURI)

	if _, ok := store.Get(testDocumentURI); ok {
		t.Error("expected document to be gone after Delete")
	}
}

func TestNewServerInitializesStoreAndRegistry(t *testing.T) {
	t.Parallel()

	srv := NewServer()

	if srv.store == nil {
		t.Error("expected store to be initialized")
	}

	if srv.registry == nil {
		t.Error("expected registry to be initialized")
	}
}

func TestPathFromURIStripsFileScheme(t *testing.T) {
	t.Parallel()

	got := pathFromURI("file:///repo/src/lib.rs")
	if got != "/repo/src/lib.rs" {
		t.Errorf("pathFromURI = %q, want %q", got, "/repo/src/lib.rs")
	}
}

func TestLineRangeConvertsOneIndexedToZeroIndexed(t *testing.T) {
	t.Parallel()

	r := lineRange(1)
	if r.Start.Line != 0 || r.End.Line != 0 {
		t.Errorf("lineRange(1) = %+v, want line 0", r)
	}

	r = lineRange(10)
	if r.Start.Line != 9 || r.End.Line != 9 {
		t.Errorf("lineRange(10) = %+v, want line 9", r)
	}
}

func TestRiskToSeverityMapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		risk metrics.RiskLevel
		want protocol.DiagnosticSeverity
	}{
		{metrics.RiskCritical, protocol.DiagnosticSeverityWarning},
		{metrics.RiskHigh, protocol.DiagnosticSeverityWarning},
		{metrics.RiskMedium, protocol.DiagnosticSeverityInformation},
		{metrics.RiskLow, protocol.DiagnosticSeverityHint},
	}

	for _, c := range cases {
		if got := riskToSeverity(c.risk); got != c.want {
			t.Errorf("riskToSeverity(%v) = %v, want %v", c.risk, got, c.want)
		}
	}
}

func TestSatdDiagnosticsFindsMarker(t *testing.T) {
	t.Parallel()

	dag := ast.NewAstDag(2)
	root := dag.Add(ast.Node{Type: ast.TypeFile})
	comment := dag.Add(ast.Node{Type: ast.TypeComment, Token: "FIXME leaking connection", Pos: ast.Position{StartLine: 3}})

	node, _ := dag.Get(root)
	node.Children = []ast.NodeKey{comment}
	dag.SetRoot(root)

	fc := &ast.FileContext{Path: "src/lib.rs", Dag: dag}

	diags := satdDiagnostics(fc)
	if len(diags) != 1 {
		t.Fatalf("satdDiagnostics found %d diagnostics, want 1", len(diags))
	}

	if diags[0].Range.Start.Line != 2 {
		t.Errorf("diagnostic line = %d, want 2 (0-indexed from source line 3)", diags[0].Range.Start.Line)
	}

	if *diags[0].Severity != protocol.DiagnosticSeverityWarning {
		t.Errorf("diagnostic severity = %v, want Warning for FIXME", *diags[0].Severity)
	}
}

func TestComplexityDiagnosticsFlagsHighComplexityFunction(t *testing.T) {
	t.Parallel()

	dag := ast.NewAstDag(8)
	loop3 := dag.Add(ast.Node{Type: ast.TypeLoop, Token: "inner"})
	loop2 := dag.Add(ast.Node{Type: ast.TypeLoop, Token: "middle", Children: []ast.NodeKey{loop3}})
	loop1 := dag.Add(ast.Node{Type: ast.TypeLoop, Token: "outer", Children: []ast.NodeKey{loop2}})
	fn := dag.Add(ast.Node{Type: ast.TypeFunction, Token: "cube_scan", Children: []ast.NodeKey{loop1}})
	dag.SetRoot(fn)

	fc := &ast.FileContext{
		Path: "src/lib.rs",
		Dag:  dag,
		Items: []ast.AstItem{
			{Kind: ast.ItemFunction, Name: "cube_scan", Line: 5, Node: fn},
		},
	}

	diags := complexityDiagnostics(fc)
	if len(diags) != 1 {
		t.Fatalf("complexityDiagnostics found %d diagnostics, want 1", len(diags))
	}

	if diags[0].Range.Start.Line != 4 {
		t.Errorf("diagnostic line = %d, want 4 (0-indexed from source line 5)", diags[0].Range.Start.Line)
	}
}

func TestComplexityDiagnosticsSkipsSimpleFunction(t *testing.T) {
	t.Parallel()

	dag := ast.NewAstDag(2)
	fn := dag.Add(ast.Node{Type: ast.TypeFunction, Token: "greet"})
	dag.SetRoot(fn)

	fc := &ast.FileContext{
		Path:  "src/lib.rs",
		Dag:   dag,
		Items: []ast.AstItem{{Kind: ast.ItemFunction, Name: "greet", Line: 1, Node: fn}},
	}

	diags := complexityDiagnostics(fc)
	if len(diags) != 0 {
		t.Errorf("complexityDiagnostics on a trivial function = %d diagnostics, want 0", len(diags))
	}
}

func TestAnalyzeUnsupportedExtensionYieldsInfoDiagnostic(t *testing.T) {
	t.Parallel()

	srv := NewServer()

	diags := srv.analyze("file:///repo/README.unsupported", "whatever")
	if len(diags) != 1 {
		t.Fatalf("analyze on unsupported extension = %d diagnostics, want 1", len(diags))
	}

	if *diags[0].Severity != protocol.DiagnosticSeverityInformation {
		t.Errorf("diagnostic severity = %v, want Information", *diags[0].Severity)
	}
}
