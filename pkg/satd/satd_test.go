package satd_test

import (
	"testing"

	"github.com/latticeforge/deepscan/pkg/ast"
	"github.com/latticeforge/deepscan/pkg/metrics"
	"github.com/latticeforge/deepscan/pkg/satd"
)

func fileWithComments(comments ...string) *ast.FileContext {
	dag := ast.NewAstDag(len(comments) + 1)

	root := dag.Add(ast.Node{Type: ast.TypeFile})

	children := make([]ast.NodeKey, 0, len(comments))

	for i, text := range comments {
		line := uint(i + 1) //nolint:gosec // small test fixture index, never overflows uint.

		key := dag.Add(ast.Node{
			Type:  ast.TypeComment,
			Token: text,
			Pos:   ast.Position{StartLine: line},
		})
		children = append(children, key)
	}

	node, _ := dag.Get(root)
	node.Children = children
	dag.SetRoot(root)

	return &ast.FileContext{Path: "src/lib.rs", Dag: dag}
}

func TestScanNoMarkers(t *testing.T) {
	fc := fileWithComments("just a regular comment")

	markers := satd.Scan(fc)
	if len(markers) != 0 {
		t.Fatalf("Scan = %v, want no markers", markers)
	}
}

func TestScanDetectsEachKeyword(t *testing.T) {
	fc := fileWithComments(
		"TODO: refactor this",
		"FIXME leaking connection",
		"HACK around upstream bug",
		"XXX revisit",
		"NOTE: intentional",
	)

	markers := satd.Scan(fc)
	if len(markers) != 5 {
		t.Fatalf("Scan found %d markers, want 5: %+v", len(markers), markers)
	}

	want := []satd.Keyword{satd.KeywordTODO, satd.KeywordFIXME, satd.KeywordHACK, satd.KeywordXXX, satd.KeywordNOTE}
	for i, m := range markers {
		if m.Keyword != want[i] {
			t.Errorf("markers[%d].Keyword = %q, want %q", i, m.Keyword, want[i])
		}

		if m.Line != uint(i+1) {
			t.Errorf("markers[%d].Line = %d, want %d", i, m.Line, i+1)
		}
	}
}

func TestScanIgnoresLowercaseMention(t *testing.T) {
	fc := fileWithComments("a todo list feature, not a marker")

	markers := satd.Scan(fc)
	if len(markers) != 0 {
		t.Fatalf("Scan = %v, want no markers for lowercase mention", markers)
	}
}

func TestScanMultipleMarkersInOneComment(t *testing.T) {
	fc := fileWithComments("TODO: fix this\nFIXME: and this too")

	markers := satd.Scan(fc)
	if len(markers) != 2 {
		t.Fatalf("Scan found %d markers, want 2: %+v", len(markers), markers)
	}
}

func TestSeverityMapping(t *testing.T) {
	fc := fileWithComments("FIXME urgent", "TODO later", "NOTE fyi")

	markers := satd.Scan(fc)

	want := map[satd.Keyword]metrics.RiskLevel{
		satd.KeywordFIXME: metrics.RiskHigh,
		satd.KeywordTODO:  metrics.RiskMedium,
		satd.KeywordNOTE:  metrics.RiskLow,
	}

	for _, m := range markers {
		if m.Severity != want[m.Keyword] {
			t.Errorf("Severity for %s = %s, want %s", m.Keyword, m.Severity, want[m.Keyword])
		}
	}
}

func TestSummarize(t *testing.T) {
	fc := fileWithComments("TODO one", "TODO two", "FIXME three")

	s := satd.Summarize(satd.Scan(fc))

	if s.Total != 3 {
		t.Errorf("Total = %d, want 3", s.Total)
	}

	if s.ByKeyword[satd.KeywordTODO] != 2 {
		t.Errorf("ByKeyword[TODO] = %d, want 2", s.ByKeyword[satd.KeywordTODO])
	}

	if s.BySeverity[metrics.RiskHigh] != 1 {
		t.Errorf("BySeverity[High] = %d, want 1", s.BySeverity[metrics.RiskHigh])
	}
}

func TestScanNilDag(t *testing.T) {
	fc := &ast.FileContext{Path: "src/empty.rs"}

	if markers := satd.Scan(fc); markers != nil {
		t.Fatalf("Scan(nil Dag) = %v, want nil", markers)
	}
}
