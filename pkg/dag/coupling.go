package dag

import "strings"

// Coupling computes per-file fan-in + fan-out over g, the raw signal
// pkg/tdg.Components.Coupling expects (spec.md §4.7 names "coupling"
// among the TDG components but leaves its source unspecified; this
// package is the graph that actually has fan-in/fan-out to give it).
//
// Edge endpoints are attributed to a file by the path prefix encoded in
// nodeID/moduleNodeID ("path#..."), not by a g.Nodes lookup: an Imports
// edge's From side is a synthetic per-file module ID that is never
// itself registered in g.Nodes (only declared top-level items are), so
// a map lookup would silently drop every import's fan-out. An edge's To
// side with no "#" at all is an external reference (a bare import path
// like "os") with no project file to attribute fan-in to, and is simply
// not counted on that side.
func Coupling(g *DependencyGraph) map[string]int {
	coupling := make(map[string]int, len(g.Nodes))

	for _, n := range g.Nodes {
		if _, ok := coupling[n.FilePath]; !ok {
			coupling[n.FilePath] = 0
		}
	}

	for _, e := range g.Edges {
		if path, ok := fileOf(e.From); ok {
			coupling[path]++
		}

		if path, ok := fileOf(e.To); ok {
			coupling[path]++
		}
	}

	return coupling
}

func fileOf(nodeID string) (string, bool) {
	path, _, ok := strings.Cut(nodeID, "#")

	return path, ok
}
