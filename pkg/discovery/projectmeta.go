package discovery

import "io/fs"

// ProjectMeta is a build-system fingerprint attached to DeepContext.metadata
// (spec_full.md "Supplemented features", grounded on
// `server/src/services/project_meta_detector.rs` in original_source/:
// the original detects the project's build system from marker files before
// analysis so the report can frame itself, e.g., "Rust crate" vs "Node
// package" vs "CMake project").
type ProjectMeta struct {
	BuildSystems []string
	HasReadme    bool
	HasLicense   bool
}

// buildSystemMarkers maps a root-relative marker file to the build system
// it signals. Checked independently, so a polyglot repo (e.g. a Rust crate
// with a bundled npm-based docs site) reports every system it finds.
var buildSystemMarkers = []struct {
	file   string
	system string
}{
	{"Cargo.toml", "cargo"},
	{"package.json", "npm"},
	{"pyproject.toml", "python-poetry"},
	{"setup.py", "python-setuptools"},
	{"requirements.txt", "python-pip"},
	{"CMakeLists.txt", "cmake"},
	{"Makefile", "make"},
	{"go.mod", "go"},
	{"build.gradle", "gradle"},
	{"build.gradle.kts", "gradle"},
	{"pom.xml", "maven"},
}

// DetectProjectMeta inspects root for conventional build-system marker
// files. fsys is expected to be rooted at the project directory being
// analyzed (the same root Walk was given).
func DetectProjectMeta(fsys fs.FS) ProjectMeta {
	var meta ProjectMeta

	for _, marker := range buildSystemMarkers {
		if fileExists(fsys, marker.file) {
			meta.BuildSystems = append(meta.BuildSystems, marker.system)
		}
	}

	for _, name := range []string{"README.md", "README", "README.rst", "README.txt"} {
		if fileExists(fsys, name) {
			meta.HasReadme = true

			break
		}
	}

	for _, name := range []string{"LICENSE", "LICENSE.md", "LICENSE.txt", "COPYING"} {
		if fileExists(fsys, name) {
			meta.HasLicense = true

			break
		}
	}

	return meta
}

func fileExists(fsys fs.FS, name string) bool {
	info, err := fs.Stat(fsys, name)

	return err == nil && !info.IsDir()
}
