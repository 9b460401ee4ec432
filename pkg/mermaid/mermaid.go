// Package mermaid renders a pkg/dag.DependencyGraph as a deterministic
// Mermaid `graph TD` document, per spec.md §4.9. It is a pure function
// over its input, built the way the deleted pkg/analyzers/*/plot.go
// files emitted diagram text: a strings.Builder walked once over nodes
// then edges, with no templating engine in between.
package mermaid

import (
	"fmt"
	"strings"

	"github.com/latticeforge/deepscan/pkg/alg/mapx"
	"github.com/latticeforge/deepscan/pkg/dag"
)

// Options configures Render's optional complexity styling.
type Options struct {
	// StyleByComplexity emits a `style N fill:#<color>` line per node
	// when true, bucketed by NodeInfo.Complexity.
	StyleByComplexity bool
}

// Render walks g's nodes (in its declared, already-deterministic order)
// then its edges, emitting a syntactically valid Mermaid flowchart.
// Output is a pure function of g and opts: no timestamps, no randomness.
func Render(g *dag.DependencyGraph, opts Options) string {
	var b strings.Builder

	b.WriteString("graph TD\n")

	ids := sortedNodeIDs(g)

	for _, id := range ids {
		n := g.Nodes[id]
		b.WriteString("    ")
		b.WriteString(sanitizeID(id))
		b.WriteString(shapeOpen(n.Type))
		b.WriteString(escapeLabel(n.Label))
		b.WriteString(shapeClose(n.Type))
		b.WriteString("\n")
	}

	for _, e := range g.Edges {
		b.WriteString("    ")
		b.WriteString(sanitizeID(e.From))
		b.WriteString(edgeArrow(e.Type))
		b.WriteString(sanitizeID(e.To))
		b.WriteString("\n")
	}

	if opts.StyleByComplexity {
		for _, id := range ids {
			n := g.Nodes[id]
			if color, ok := complexityColor(n.Complexity); ok {
				fmt.Fprintf(&b, "    style %s fill:%s\n", sanitizeID(id), color)
			}
		}
	}

	return b.String()
}

// sortedNodeIDs returns g's node IDs sorted for deterministic emission.
// DependencyGraph.Nodes is a map, so Render can't rely on range order;
// pkg/dag's builder already guarantees the map's *keys* are stable given
// the same input, but iteration order over a Go map is never stable, so
// this sort is required for the §4.9 "Determinism" contract.
func sortedNodeIDs(g *dag.DependencyGraph) []string {
	return mapx.SortedKeys(g.Nodes)
}

// shapeOpen and shapeClose pick a node's bracket pair, resolving spec.md
// §9 Open Question 3: Module renders as a hexagon, every other node type
// as a rectangle.
func shapeOpen(t dag.NodeType) string {
	if t == dag.NodeModule {
		return `{{"`
	}

	return `["`
}

func shapeClose(t dag.NodeType) string {
	if t == dag.NodeModule {
		return `"}}`
	}

	return `"]`
}

// edgeArrow renders an EdgeType per spec.md §4.9's fixed table.
func edgeArrow(t dag.EdgeType) string {
	switch t {
	case dag.EdgeImports:
		return " -.-> "
	case dag.EdgeInherits:
		return " -->|inherits| "
	case dag.EdgeImplements:
		return " -->|implements| "
	case dag.EdgeUses:
		return " --- "
	default:
		return " --> "
	}
}

// idSanitizeReplacer rewrites the separator characters spec.md §4.9 names
// (`::`, `/`, `.`, `-`, space) to `_`. strings.NewReplacer handles the
// two-character `::` token before the single-character `-` so a Rust path
// like `foo::bar-baz` collapses predictably rather than leaving a stray `:`.
var idSanitizeReplacer = strings.NewReplacer(
	"::", "_",
	"/", "_",
	".", "_",
	"-", "_",
	" ", "_",
)

// sanitizeID reduces id to `[A-Za-z0-9_]+`, prefixing with `_` when empty
// or numeric-leading, per spec.md §4.9's ID sanitization rule.
func sanitizeID(id string) string {
	s := idSanitizeReplacer.Replace(id)

	var b strings.Builder

	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}

	out := b.String()
	if out == "" || (out[0] >= '0' && out[0] <= '9') {
		out = "_" + out
	}

	return out
}

// labelEscapeReplacer applies spec.md §4.9's label substitution policy in
// the order listed there. Order matters: `&`→` and ` must not itself
// reintroduce a character another rule would otherwise have caught, and
// strings.NewReplacer applies all rules in one left-to-right pass so no
// substituted character is re-scanned by a later rule.
var labelEscapeReplacer = strings.NewReplacer(
	"|", " - ",
	`"`, "'",
	"[", "(",
	"]", ")",
	"{", "(",
	"}", ")",
	"<", "(",
	">", ")",
	"\n", " ",
	"&", " and ",
)

// escapeLabel applies the forbidden-character substitution policy,
// guaranteeing the result contains no raw `|"[]{}<>&` or newline and
// that brackets/braces stay balanced within the emitted line (every
// substitution is a fixed single-character-for-matched-pair swap, so an
// already-balanced input label stays balanced after substitution).
func escapeLabel(label string) string {
	return labelEscapeReplacer.Replace(label)
}

// complexityColor buckets a node's complexity into spec.md §4.9's
// four-tier style palette. The boolean is false for complexity <= 0
// (no complexity data attached to this node), in which case Render omits
// the style line entirely rather than emitting a baseless color.
func complexityColor(complexity int) (string, bool) {
	switch {
	case complexity <= 0:
		return "", false
	case complexity <= 3:
		return "#90EE90", true
	case complexity <= 7:
		return "#FFD700", true
	case complexity <= 12:
		return "#FFA500", true
	default:
		return "#FF6347", true
	}
}
