package pipeline_test

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/latticeforge/deepscan/internal/pipeline"
	"github.com/latticeforge/deepscan/pkg/config"
)

func allAnalyses() config.AnalysisOptions {
	return config.AnalysisOptions{
		IncludeAnalyses: []config.AnalysisKind{
			config.AnalysisAst, config.AnalysisComplexity, config.AnalysisChurn,
			config.AnalysisDag, config.AnalysisDeadCode, config.AnalysisSatd, config.AnalysisTdg,
		},
		Parallel: true,
	}
}

func TestRun_EmptyProjectScoresPerfectHealth(t *testing.T) {
	t.Parallel()

	root := t.TempDir()

	p := pipeline.New(pipeline.Config{Options: allAnalyses()})

	dc, err := p.Run(context.Background(), root)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if dc.QualityScorecard.OverallHealth != 100.0 {
		t.Errorf("OverallHealth = %v, want 100.0 for an empty project", dc.QualityScorecard.OverallHealth)
	}

	if dc.Metadata.Partial {
		t.Error("an uncancelled empty run should not be marked Partial")
	}

	if len(dc.FileErrors) != 0 {
		t.Errorf("FileErrors = %v, want none", dc.FileErrors)
	}
}

func TestRun_ParsesAndScoresRealFiles(t *testing.T) {
	t.Parallel()

	root := t.TempDir()

	writeFile(t, root, "src/main.py", "def main():\n    if True:\n        print('hi')\n\nmain()\n")
	writeFile(t, root, "src/util.js", "function add(a, b) {\n  return a + b;\n}\nmodule.exports = { add };\n")

	p := pipeline.New(pipeline.Config{Options: allAnalyses(), Workers: 2})

	dc, err := p.Run(context.Background(), root)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(dc.Analyses.AstContexts) != 2 {
		t.Fatalf("parsed %d files, want 2", len(dc.Analyses.AstContexts))
	}

	if len(dc.Analyses.Complexity) != 2 {
		t.Errorf("complexity results for %d files, want 2", len(dc.Analyses.Complexity))
	}

	if len(dc.Analyses.Tdg) != 2 {
		t.Errorf("TDG scores for %d files, want 2", len(dc.Analyses.Tdg))
	}

	if dc.Metadata.Partial {
		t.Error("a complete run over readable files should not be Partial")
	}
}

func TestRun_IncludesGatingLeavesOtherFieldsNil(t *testing.T) {
	t.Parallel()

	root := t.TempDir()

	writeFile(t, root, "src/main.py", "def main():\n    pass\n")

	opts := config.AnalysisOptions{
		IncludeAnalyses: []config.AnalysisKind{config.AnalysisAst},
	}

	p := pipeline.New(pipeline.Config{Options: opts})

	dc, err := p.Run(context.Background(), root)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(dc.Analyses.AstContexts) != 1 {
		t.Fatalf("AstContexts = %d files, want 1", len(dc.Analyses.AstContexts))
	}

	if dc.Analyses.Complexity != nil {
		t.Error("Complexity excluded from IncludeAnalyses should stay nil, not run")
	}

	if dc.Analyses.Tdg != nil {
		t.Error("Tdg excluded from IncludeAnalyses should stay nil, not run")
	}

	if dc.Analyses.Dag != nil {
		t.Error("Dag excluded from IncludeAnalyses should stay nil, not run")
	}
}

func TestRun_CancelledContextYieldsPartialReport(t *testing.T) {
	t.Parallel()

	root := t.TempDir()

	for i := range 20 {
		writeFile(t, root, filepathJoin("src", i), "def f():\n    pass\n")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := pipeline.New(pipeline.Config{Options: allAnalyses(), Workers: 1})

	dc, err := p.Run(ctx, root)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !dc.Metadata.Partial {
		t.Error("a run started on an already-cancelled context should produce a Partial report")
	}
}

func TestRun_UnreadableFileDegradesToFileError(t *testing.T) {
	t.Parallel()

	root := t.TempDir()

	writeFile(t, root, "src/main.py", "def main():\n    pass\n")

	broken := filepath.Join(root, "src", "broken.py")
	if err := os.WriteFile(broken, []byte("x = 1\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if err := os.Chmod(broken, 0o000); err != nil {
		t.Fatalf("Chmod: %v", err)
	}

	t.Cleanup(func() { _ = os.Chmod(broken, 0o644) })

	if os.Getuid() == 0 {
		t.Skip("unreadable-file permissions have no effect when running as root")
	}

	p := pipeline.New(pipeline.Config{Options: allAnalyses(), FileTimeout: 2 * time.Second})

	dc, err := p.Run(context.Background(), root)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(dc.FileErrors) != 1 {
		t.Fatalf("FileErrors = %d, want 1 for the unreadable file", len(dc.FileErrors))
	}

	if len(dc.Analyses.AstContexts) != 1 {
		t.Errorf("the readable file should still have parsed: AstContexts = %d, want 1", len(dc.Analyses.AstContexts))
	}
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()

	full := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func filepathJoin(dir string, i int) string {
	return filepath.Join(dir, "f"+strconv.Itoa(i)+".py")
}
