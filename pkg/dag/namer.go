package dag

import (
	"strings"

	"github.com/latticeforge/deepscan/pkg/ast"
)

// sourceRootPrefixes are stripped from a file path before it's converted to
// a module-notation label, per spec.md §4.3 priority (2).
var sourceRootPrefixes = []string{"src/", "lib/", "app/"}

// trailingCollapseNames are dropped as a path's final component once the
// path has been split into module segments (e.g. "foo/mod.rs" -> "foo").
var trailingCollapseNames = map[string]bool{
	"index": true,
	"mod":   true,
}

// semanticNamer computes DependencyGraph node labels per spec.md §4.3's
// three-tier priority: the item's own name, then a language-native
// module-notation form of its file path, then a cleaned form of the raw
// ID. It is deterministic and side-effect free — no field is mutated
// across calls, matching the spec's explicit requirement.
type semanticNamer struct{}

func newSemanticNamer() *semanticNamer {
	return &semanticNamer{}
}

// Label computes the node label for item declared in path, given the
// node's already-computed id (used only as the last-resort fallback).
func (n *semanticNamer) Label(path string, item ast.AstItem, id string) string {
	if item.Name != "" && item.Name != id {
		return item.Name
	}

	if label := modulePathLabel(path); label != "" {
		return label
	}

	return cleanID(id)
}

// modulePathLabel converts a file path into a language-native module
// notation string: Rust `::`, Python/TS/JS `.`, matching spec.md §4.3
// priority (2). The file extension decides the separator since AstItem
// doesn't carry a language tag of its own.
func modulePathLabel(path string) string {
	trimmed := path

	for _, prefix := range sourceRootPrefixes {
		if strings.HasPrefix(trimmed, prefix) {
			trimmed = strings.TrimPrefix(trimmed, prefix)

			break
		}
	}

	trimmed = strings.TrimSuffix(trimmed, fileExt(trimmed))

	segments := strings.Split(trimmed, "/")

	if len(segments) > 0 && trailingCollapseNames[segments[len(segments)-1]] {
		segments = segments[:len(segments)-1]
	}

	segments = removeEmpty(segments)
	if len(segments) == 0 {
		return ""
	}

	sep := "."
	if strings.HasSuffix(path, ".rs") {
		sep = "::"
	}

	return strings.Join(segments, sep)
}

func removeEmpty(segments []string) []string {
	out := segments[:0]

	for _, s := range segments {
		if s != "" {
			out = append(out, s)
		}
	}

	return out
}

func fileExt(path string) string {
	idx := strings.LastIndexByte(path, '.')
	if idx < 0 {
		return ""
	}

	return path[idx:]
}

// cleanID is the last-resort label per spec.md §4.3 priority (3): strip
// conventional synthetic-ID prefixes and swap underscores for dots so a
// fallback label is still readable rather than a raw internal key.
func cleanID(id string) string {
	cleaned := id

	for _, prefix := range []string{"node_", "module_", "file_"} {
		cleaned = strings.TrimPrefix(cleaned, prefix)
	}

	cleaned = strings.ReplaceAll(cleaned, "_", ".")

	if cleaned == "" {
		return id
	}

	return cleaned
}
