// Package dag builds the cross-file dependency graph spec.md §3/§4.3
// describes: a DependencyGraph whose nodes are top-level declarations
// (functions, classes, traits, modules) and whose edges carry typed
// relationships (Calls, Imports, Inherits, Implements, Uses) discovered
// while merging every file's AstItem list.
//
// Node/edge bookkeeping here is a plain string-keyed map, matching
// DependencyGraph's §3 shape directly. pkg/deadcode builds its own
// separate reachability graph over pkg/toposort.IntGraph rather than
// reusing this one (its nodes/edges carry different semantics — see
// pkg/deadcode's doc comment). Coupling (fan-in/fan-out per file, in
// coupling.go) stays a single pass over the plain Edges slice here.
package dag

import (
	"sort"
	"strings"

	"github.com/latticeforge/deepscan/pkg/ast"
)

// NodeType classifies a DependencyGraph node, per spec.md §3.
type NodeType int

const (
	NodeFunction NodeType = iota
	NodeClass
	NodeModule
	NodeTrait
	NodeInterface
)

// String renders NodeType for Mermaid/report serialization.
func (t NodeType) String() string {
	switch t {
	case NodeFunction:
		return "Function"
	case NodeClass:
		return "Class"
	case NodeModule:
		return "Module"
	case NodeTrait:
		return "Trait"
	case NodeInterface:
		return "Interface"
	default:
		return "Function"
	}
}

// EdgeType classifies a DependencyGraph edge, per spec.md §3.
type EdgeType int

const (
	EdgeCalls EdgeType = iota
	EdgeImports
	EdgeInherits
	EdgeImplements
	EdgeUses
)

// String renders EdgeType for Mermaid/report serialization.
func (t EdgeType) String() string {
	switch t {
	case EdgeCalls:
		return "Calls"
	case EdgeImports:
		return "Imports"
	case EdgeInherits:
		return "Inherits"
	case EdgeImplements:
		return "Implements"
	case EdgeUses:
		return "Uses"
	default:
		return "Calls"
	}
}

// NodeInfo describes one DependencyGraph node.
type NodeInfo struct {
	ID         string
	Label      string
	Type       NodeType
	FilePath   string
	LineNumber int
	Complexity int
	Metadata   map[string]string
}

// Edge is one typed relationship between two DependencyGraph nodes. To may
// reference a node absent from Nodes when Type == EdgeImports (an external
// module), per spec.md §3 invariant (a).
type Edge struct {
	From   string
	To     string
	Type   EdgeType
	Weight float64
}

// DependencyGraph is the cross-file dependency graph spec.md §3 describes.
// Nodes is keyed by NodeInfo.ID; Edges preserves insertion order so
// Mermaid/report output is deterministic.
type DependencyGraph struct {
	Nodes map[string]NodeInfo
	Edges []Edge
}

// FileContext is the per-file input the builder consumes; a thin alias
// over ast.FileContext so this package doesn't need to import langparse.
type FileContext = ast.FileContext

// ProjectContext is the full set of per-file ASTs a project analysis run
// produced, in any order — BuildFromProject sorts by FilePath internally so
// node/edge emission order never depends on parse-completion order (spec.md
// §5 "Ordering guarantees").
type ProjectContext struct {
	Files []*FileContext
	// MainFiles lists file paths (relative to project root) whose `main`
	// function(s) should seed the dead-code prover, used only to decide
	// AstItem.IsEntryPoint's isMainFunction argument for Metadata["entry"]
	// here; pkg/deadcode.BuildFromProject takes the same map and computes
	// the flag itself.
	MainFiles map[string]bool
}

// newGraph returns an empty DependencyGraph ready for node/edge insertion.
func newGraph() *DependencyGraph {
	return &DependencyGraph{Nodes: make(map[string]NodeInfo)}
}

// BuildFromProject merges every FileContext's top-level AstItems into a
// single DependencyGraph. Never fails: a file with zero items or a project
// with zero files yields an empty (but valid) graph, matching spec.md
// §4.3's "Never fails" contract and Testable Scenario S1.
func BuildFromProject(proj ProjectContext) *DependencyGraph {
	files := make([]*FileContext, len(proj.Files))
	copy(files, proj.Files)
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })

	g := newGraph()
	namer := newSemanticNamer()

	// Pass 1: emit one node per top-level item (except Use/Impl), so every
	// Use/Impl edge in pass 2 can resolve its "from" side regardless of
	// declaration order within or across files.
	for _, fc := range files {
		for _, item := range fc.Items {
			if item.Kind == ast.ItemUse || item.Kind == ast.ItemImpl {
				continue
			}

			id := nodeID(fc.Path, item)
			isMain := proj.MainFiles[fc.Path] && item.Kind == ast.ItemFunction && strings.EqualFold(item.Name, "main")

			g.Nodes[id] = NodeInfo{
				ID:         id,
				Label:      namer.Label(fc.Path, item, id),
				Type:       nodeType(item.Kind),
				FilePath:   fc.Path,
				LineNumber: item.Line,
				Metadata:   nodeMetadata(item, isMain),
			}
		}
	}

	// Pass 2: emit edges. Use -> Imports (may reference an external node
	// absent from g.Nodes). Impl with a trait name -> Implements from the
	// concrete type's node to the trait's node, when both are known
	// top-level declarations in this project.
	for _, fc := range files {
		fileModuleID := moduleNodeID(fc.Path)

		for _, item := range fc.Items {
			switch item.Kind {
			case ast.ItemUse:
				g.Edges = append(g.Edges, Edge{From: fileModuleID, To: item.Path, Type: EdgeImports, Weight: 1})
			case ast.ItemImpl:
				if item.TraitName == "" {
					continue
				}

				fromID := findNodeByName(g, fc.Path, item.TypeName)
				toID := findNodeByName(g, "", item.TraitName)

				if fromID == "" {
					fromID = item.TypeName
				}

				if toID == "" {
					toID = item.TraitName
				}

				g.Edges = append(g.Edges, Edge{From: fromID, To: toID, Type: EdgeImplements, Weight: 1})
			default:
			}
		}

		addCallAndInheritEdges(g, fc)
	}

	return g
}

// addCallAndInheritEdges walks the file's arena call/inherit side tables
// (populated by the langparse parser when its grammar exposes call/extends
// relationships) and emits the corresponding DependencyGraph edges. Nodes
// that can't be mapped back to a top-level declaration are skipped rather
// than fabricated, since an edge to a synthetic ID would violate spec.md
// §3 invariant (a) for non-Imports edges.
func addCallAndInheritEdges(g *DependencyGraph, fc *FileContext) {
	if fc.Dag == nil {
		return
	}

	byNodeKey := make(map[ast.NodeKey]string, len(fc.Items))

	for _, item := range fc.Items {
		if item.Node != ast.NilKey {
			byNodeKey[item.Node] = nodeID(fc.Path, item)
		}
	}

	for caller, callees := range fc.Dag.CallEdges {
		fromID, ok := byNodeKey[caller]
		if !ok {
			continue
		}

		for _, callee := range callees {
			toID, ok := byNodeKey[callee]
			if !ok {
				continue
			}

			g.Edges = append(g.Edges, Edge{From: fromID, To: toID, Type: EdgeCalls, Weight: 1})
		}
	}

	for child, parents := range fc.Dag.InheritEdges {
		childID, ok := byNodeKey[child]
		if !ok {
			continue
		}

		for _, parent := range parents {
			parentID, ok := byNodeKey[parent]
			if !ok {
				continue
			}

			g.Edges = append(g.Edges, Edge{From: childID, To: parentID, Type: EdgeInherits, Weight: 1})
		}
	}
}

// findNodeByName resolves a bare declaration name (as carried by an Impl
// item's TypeName/TraitName, which has no line number to build an exact
// nodeID from) back to a node ID. When more than one node shares the name
// across files, the one declared in preferFile wins; ties are broken by
// the lowest node ID so the choice is deterministic regardless of map
// iteration order.
func findNodeByName(g *DependencyGraph, preferFile, name string) string {
	ids := make([]string, 0, len(g.Nodes))

	for id, n := range g.Nodes {
		if n.Label == name {
			ids = append(ids, id)
		}
	}

	if len(ids) == 0 {
		return ""
	}

	sort.Strings(ids)

	if preferFile != "" {
		for _, id := range ids {
			if g.Nodes[id].FilePath == preferFile {
				return id
			}
		}
	}

	return ids[0]
}

func nodeType(kind ast.ItemKind) NodeType {
	switch kind {
	case ast.ItemFunction:
		return NodeFunction
	case ast.ItemStruct, ast.ItemEnum:
		return NodeClass
	case ast.ItemTrait:
		return NodeTrait
	case ast.ItemModule:
		return NodeModule
	case ast.ItemImpl, ast.ItemUse:
		return NodeFunction
	default:
		return NodeFunction
	}
}

func nodeMetadata(item ast.AstItem, isMain bool) map[string]string {
	meta := map[string]string{
		"visibility": item.Visibility.String(),
		"kind":       item.Kind.String(),
	}

	if item.IsEntryPoint(isMain) {
		meta["entry"] = "true"
	}

	if item.FFIExport {
		meta["ffi_export"] = "true"
	}

	return meta
}

// nodeID computes a stable node ID from (file_path, item_kind, item_name,
// line), per spec.md §4.3.
func nodeID(path string, item ast.AstItem) string {
	name := item.Name
	if name == "" {
		name = "anon"
	}

	return path + "#" + item.Kind.String() + ":" + name + ":" + itoa(item.Line)
}

func moduleNodeID(path string) string {
	return path + "#Module:" + path + ":0"
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}

	neg := n < 0
	if neg {
		n = -n
	}

	var buf [20]byte

	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}

	if neg {
		i--
		buf[i] = '-'
	}

	return string(buf[i:])
}
