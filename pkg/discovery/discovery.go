// Package discovery walks a project tree and decides which files the
// analysis pipeline should attempt to parse. It is the leaf of the data
// flow in spec.md §2: File Discovery -> File Classifier -> Parser Registry.
//
// The emitted path sequence is always lexicographically sorted so that
// everything downstream (DAG node IDs, TDG hotspot ranking, Mermaid output)
// is reproducible across runs on unchanged input, per spec.md §4.1
// "Determinism".
package discovery

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultMaxDepth is the default directory walk depth ceiling (spec.md §6
// `max_depth`, default 10).
const DefaultMaxDepth = 10

// DefaultMaxFileSize is the hard size ceiling for files rejected with
// SkipReasonLargeFile (spec.md §4.1, default 10 MiB).
const DefaultMaxFileSize = 10 * 1024 * 1024

// DefaultMaxLineLength bounds a single source line before a file is
// rejected as LineTooLong (typically a minified bundle on one physical
// line).
const DefaultMaxLineLength = 10000

// builtinArtifactDirs are always excluded regardless of user
// configuration, matching spec.md §4.1's built-in pattern list.
var builtinArtifactDirs = []string{
	"target", "node_modules", "build", "dist", ".git", "__pycache__",
	".venv", "venv", "vendor", ".idea", ".vscode",
}

var builtinArtifactGlobs = []string{
	"*.min.js", "*.min.css",
}

// Options configures a discovery walk.
type Options struct {
	// Root is the project directory to walk.
	Root string
	// IncludeGlobs, if non-empty, restrict emitted paths to those matching
	// at least one glob (spec.md §6 `include_patterns`).
	IncludeGlobs []string
	// ExcludeGlobs are applied before built-in artifact patterns and take
	// the highest precedence (spec.md §4.1 "Policy").
	ExcludeGlobs []string
	// RespectIgnoreFiles enables `.gitignore`/`.paimlignore` parsing.
	RespectIgnoreFiles bool
	// MaxDepth bounds directory recursion. Zero uses DefaultMaxDepth.
	MaxDepth int
	// MaxFileSize bounds a single file's byte size. Zero uses
	// DefaultMaxFileSize.
	MaxFileSize int64
}

// withDefaults returns a copy of o with zero fields replaced by defaults.
func (o Options) withDefaults() Options {
	if o.MaxDepth <= 0 {
		o.MaxDepth = DefaultMaxDepth
	}

	if o.MaxFileSize <= 0 {
		o.MaxFileSize = DefaultMaxFileSize
	}

	return o
}

// Finding is one classified path from a Walk.
type Finding struct {
	Path     string
	Decision Decision
	Reason   SkipReason
	Size     int64
}

// Walk discovers every file under opts.Root and classifies it according to
// spec.md §4.1, returning findings sorted lexicographically by Path. FS is
// the filesystem to read, normally os.DirFS(opts.Root) from the caller;
// paths returned are relative to that root.
func Walk(fsys fs.FS, opts Options) ([]Finding, error) {
	opts = opts.withDefaults()

	var ignore *IgnoreSet

	if opts.RespectIgnoreFiles {
		ignore = loadIgnoreSets(fsys)
	}

	var findings []Finding

	walkErr := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err //nolint:wrapcheck // fs.WalkDir surfaces this to its own caller.
		}

		if path == "." {
			return nil
		}

		depth := strings.Count(path, "/") + 1

		if d.IsDir() {
			if isArtifactDir(d.Name()) || (ignore != nil && ignore.MatchDir(path)) {
				return fs.SkipDir
			}

			if depth >= opts.MaxDepth {
				return fs.SkipDir
			}

			return nil
		}

		if !matchesIncludeExclude(path, opts) {
			return nil
		}

		if ignore != nil && ignore.Match(path) {
			return nil
		}

		info, statErr := d.Info()
		if statErr != nil {
			return nil //nolint:nilerr // a single unreadable dirent degrades, it does not abort the walk.
		}

		findings = append(findings, classify(path, info.Size(), opts))

		return nil
	})
	if walkErr != nil {
		return nil, walkErr //nolint:wrapcheck // caller attaches path context.
	}

	sort.Slice(findings, func(i, j int) bool { return findings[i].Path < findings[j].Path })

	return findings, nil
}

// ParsablePaths filters Walk's findings down to the ones the pipeline
// should hand to the parser registry.
func ParsablePaths(findings []Finding) []string {
	paths := make([]string, 0, len(findings))

	for _, f := range findings {
		if f.Decision == DecisionParse {
			paths = append(paths, f.Path)
		}
	}

	return paths
}

func isArtifactDir(name string) bool {
	for _, d := range builtinArtifactDirs {
		if name == d {
			return true
		}
	}

	return false
}

func matchesIncludeExclude(path string, opts Options) bool {
	for _, g := range opts.ExcludeGlobs {
		if globMatch(g, path) {
			return false
		}
	}

	for _, g := range builtinArtifactGlobs {
		if globMatch(g, filepath.Base(path)) {
			return false
		}
	}

	if len(opts.IncludeGlobs) == 0 {
		return true
	}

	for _, g := range opts.IncludeGlobs {
		if globMatch(g, path) {
			return true
		}
	}

	return false
}

// globMatch matches pattern against both the full path and its base name,
// so an exclude glob like "*.min.js" works regardless of directory depth,
// matching the teacher's own permissive glob-matching preference.
func globMatch(pattern, path string) bool {
	if ok, err := filepath.Match(pattern, path); err == nil && ok {
		return true
	}

	if ok, err := filepath.Match(pattern, filepath.Base(path)); err == nil && ok {
		return true
	}

	return false
}
