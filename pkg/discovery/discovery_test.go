package discovery_test

import (
	"testing"
	"testing/fstest"

	"github.com/latticeforge/deepscan/pkg/discovery"
)

func sampleFS() fstest.MapFS {
	return fstest.MapFS{
		"src/main.rs":              &fstest.MapFile{Data: []byte("fn main() {}")},
		"src/lib.rs":               &fstest.MapFile{Data: []byte("pub fn helper() {}")},
		"node_modules/pkg/idx.js":  &fstest.MapFile{Data: []byte("module.exports = {}")},
		"dist/bundle.min.js":       &fstest.MapFile{Data: []byte("(function(){})();")},
		"README.md":                &fstest.MapFile{Data: []byte("# hi")},
		"data/file.unknownext123":  &fstest.MapFile{Data: []byte("???")},
		"Cargo.toml":               &fstest.MapFile{Data: []byte("[package]\nname=\"x\"")},
	}
}

func TestWalkSortedAndClassified(t *testing.T) {
	findings, err := discovery.Walk(sampleFS(), discovery.Options{})
	if err != nil {
		t.Fatalf("Walk returned error: %v", err)
	}

	for i := 1; i < len(findings); i++ {
		if findings[i-1].Path > findings[i].Path {
			t.Fatalf("findings not sorted: %q > %q", findings[i-1].Path, findings[i].Path)
		}
	}

	byPath := map[string]discovery.Finding{}
	for _, f := range findings {
		byPath[f.Path] = f
	}

	rsFinding, ok := byPath["src/main.rs"]
	if !ok {
		t.Fatal("src/main.rs was not discovered")
	}

	if rsFinding.Decision != discovery.DecisionParse {
		t.Errorf("src/main.rs decision = %v, want DecisionParse", rsFinding.Decision)
	}

	if _, ok := byPath["node_modules/pkg/idx.js"]; ok {
		t.Error("node_modules/pkg/idx.js should have been pruned as an artifact directory")
	}

	minFinding, ok := byPath["dist/bundle.min.js"]
	if !ok {
		t.Fatal("dist/bundle.min.js was not discovered")
	}

	if minFinding.Decision != discovery.DecisionSkip || minFinding.Reason != discovery.SkipReasonMinifiedContent {
		t.Errorf("dist/bundle.min.js = %+v, want skip MinifiedContent", minFinding)
	}

	unknownFinding, ok := byPath["data/file.unknownext123"]
	if !ok {
		t.Fatal("data/file.unknownext123 was not discovered")
	}

	if unknownFinding.Decision != discovery.DecisionSkip || unknownFinding.Reason != discovery.SkipReasonUnknownExtension {
		t.Errorf("unknown extension = %+v, want skip UnknownExtension", unknownFinding)
	}
}

func TestWalkMaxFileSize(t *testing.T) {
	big := make([]byte, 64)
	fsys := fstest.MapFS{"big.rs": &fstest.MapFile{Data: big}}

	findings, err := discovery.Walk(fsys, discovery.Options{MaxFileSize: 16})
	if err != nil {
		t.Fatalf("Walk returned error: %v", err)
	}

	if len(findings) != 1 || findings[0].Decision != discovery.DecisionSkip || findings[0].Reason != discovery.SkipReasonLargeFile {
		t.Fatalf("findings = %+v, want single LargeFile skip", findings)
	}
}

func TestParsablePaths(t *testing.T) {
	findings, err := discovery.Walk(sampleFS(), discovery.Options{})
	if err != nil {
		t.Fatalf("Walk returned error: %v", err)
	}

	paths := discovery.ParsablePaths(findings)
	for _, p := range paths {
		if p == "dist/bundle.min.js" {
			t.Error("ParsablePaths should not include a skipped file")
		}
	}
}

func TestDetectProjectMeta(t *testing.T) {
	meta := discovery.DetectProjectMeta(sampleFS())

	found := false

	for _, bs := range meta.BuildSystems {
		if bs == "cargo" {
			found = true
		}
	}

	if !found {
		t.Errorf("BuildSystems = %v, want cargo present", meta.BuildSystems)
	}

	if !meta.HasReadme {
		t.Error("HasReadme = false, want true")
	}
}

func TestIgnoreSetRespected(t *testing.T) {
	fsys := fstest.MapFS{
		".gitignore":  &fstest.MapFile{Data: []byte("*.log\n!keep.log\n")},
		"app.rs":      &fstest.MapFile{Data: []byte("fn main(){}")},
		"debug.log":   &fstest.MapFile{Data: []byte("log")},
		"keep.log":    &fstest.MapFile{Data: []byte("log")},
	}

	findings, err := discovery.Walk(fsys, discovery.Options{RespectIgnoreFiles: true})
	if err != nil {
		t.Fatalf("Walk returned error: %v", err)
	}

	for _, f := range findings {
		if f.Path == "debug.log" {
			t.Error("debug.log should have been excluded by .gitignore")
		}
	}
}
