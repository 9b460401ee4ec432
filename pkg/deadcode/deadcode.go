// Package deadcode implements the mark-and-sweep reachability prover
// spec.md §4.5 describes: a reference graph distinct from pkg/dag's
// DependencyGraph, whose nodes are function-level declarations and whose
// edges carry a confidence-weighted call kind, swept from an explicitly
// registered entry-point set.
//
// The mark-sweep itself is a multi-source BFS over pkg/toposort.IntGraph,
// the same adjacency-list shape the teacher's topological sort already
// walks; ReferenceGraph interns function IDs into it via
// pkg/toposort.SymbolTable rather than re-implementing graph bookkeeping.
package deadcode

import (
	"sort"
	"strings"

	"github.com/latticeforge/deepscan/pkg/ast"
	"github.com/latticeforge/deepscan/pkg/toposort"
)

// EdgeKind classifies a reference-graph edge's call shape, per spec.md §4.5.
type EdgeKind int

const (
	DirectCall EdgeKind = iota
	IndirectCall
	Closure
	DynDispatch
)

// String renders EdgeKind for report output.
func (k EdgeKind) String() string {
	switch k {
	case DirectCall:
		return "DirectCall"
	case IndirectCall:
		return "IndirectCall"
	case Closure:
		return "Closure"
	case DynDispatch:
		return "DynDispatch"
	default:
		return "DirectCall"
	}
}

// confidenceFor assigns the reference edge's confidence in [0,1] from its
// kind: direct calls are certain, indirect/dyn/closure edges degrade
// confidence in the order spec.md §4.5 lists them, reflecting how much a
// static analysis can trust that edge without running the program.
func confidenceFor(kind EdgeKind) float64 {
	switch kind {
	case DirectCall:
		return 1.0
	case Closure:
		return 0.75
	case IndirectCall:
		return 0.5
	case DynDispatch:
		return 0.35
	default:
		return 1.0
	}
}

// Status is a function's dead-code verdict, per spec.md §4.5.
type Status int

const (
	// ProvenLive is reachable from the entry set (directly or via a
	// high-enough-confidence edge chain), or FFI-exported.
	ProvenLive Status = iota
	// ProvenDead is unreachable with no incoming edges at all.
	ProvenDead
	// Unknown is reached only via indirect/dyn edges whose confidence
	// never crosses the configured threshold, or is unreached but has
	// incoming edges.
	Unknown
)

// String renders Status for report output.
func (s Status) String() string {
	switch s {
	case ProvenLive:
		return "ProvenLive"
	case ProvenDead:
		return "ProvenDead"
	default:
		return "Unknown"
	}
}

// FunctionID names a function-level node in the reference graph: its file
// and declaration name, since that's all a cross-file caller needs to
// identify a callee by static name resolution.
type FunctionID struct {
	FilePath string
	Name     string
}

func (id FunctionID) key() string {
	return id.FilePath + "#" + id.Name
}

// ReferenceGraph is the dead-code prover's own graph: nodes are
// FunctionIDs interned into a pkg/toposort.SymbolTable, adjacency is
// tracked in a pkg/toposort.IntGraph (reused for its Neighbors/
// NodeCapacity accessors rather than re-implementing an adjacency list),
// and a side table carries each edge's EdgeKind since IntGraph's edges
// are bare integer pairs. Entry points are registered explicitly rather
// than inferred from the graph's shape.
type ReferenceGraph struct {
	symtab      *toposort.SymbolTable
	graph       *toposort.IntGraph
	ids         map[int]FunctionID
	ffiExported map[int]bool
	isEntry     map[int]bool
	edgeKind    map[[2]int]EdgeKind
	inbound     map[int]int
}

// NewReferenceGraph returns an empty reference graph.
func NewReferenceGraph() *ReferenceGraph {
	return &ReferenceGraph{
		symtab:      toposort.NewSymbolTable(),
		graph:       toposort.NewIntGraph(),
		ids:         make(map[int]FunctionID),
		ffiExported: make(map[int]bool),
		isEntry:     make(map[int]bool),
		edgeKind:    make(map[[2]int]EdgeKind),
		inbound:     make(map[int]int),
	}
}

// AddFunction registers fn as a node, returning its stable symbol ID.
// Registering the same FunctionID again returns the same ID and adds any
// further ffiExported/isEntry flag; a flag once set is never cleared.
func (g *ReferenceGraph) AddFunction(fn FunctionID, ffiExported, isEntry bool) int {
	id := g.symtab.Intern(fn.key())
	g.ids[id] = fn
	g.graph.AddNode(id)

	if ffiExported {
		g.ffiExported[id] = true
	}

	if isEntry {
		g.isEntry[id] = true
	}

	return id
}

// AddEdge records a call/reference edge from caller to callee with the
// given kind. Both ends must already be registered via AddFunction. A
// repeat call with a higher-confidence kind than the one on file
// upgrades the recorded kind, since the sweep should trust the best
// evidence for an edge when a parser surfaces it more than once.
func (g *ReferenceGraph) AddEdge(caller, callee int, kind EdgeKind) {
	isNew := g.graph.AddEdge(caller, callee)

	k := [2]int{caller, callee}
	if existing, ok := g.edgeKind[k]; !ok || confidenceFor(kind) > confidenceFor(existing) {
		g.edgeKind[k] = kind
	}

	if isNew {
		g.inbound[callee]++
	}
}

// Report is one function's dead-code verdict plus the data that produced it.
type Report struct {
	Function   FunctionID
	Status     Status
	Confidence float64
	FFIExport  bool
}

// Analyze runs the mark-and-sweep reachability sweep: entry points and
// FFI-exported functions seed the reachable set (spec.md §4.5's invariant
// that FFI exports are never classified dead, even without in-project
// callers, regardless of confidenceThreshold). BFS then follows outgoing
// edges; an edge below confidenceThreshold still marks its target
// Unknown (reached, but not provably live) rather than skipping it
// entirely, so a low-confidence chain doesn't silently vanish from the report.
func (g *ReferenceGraph) Analyze(confidenceThreshold float64) []Report {
	n := g.graph.NodeCapacity()

	const (
		stateDead = iota
		stateUnknown
		stateLive
	)

	state := make([]int, n)

	queue := make([]int, 0, n)

	for id := range n {
		if g.isEntry[id] || g.ffiExported[id] {
			state[id] = stateLive
			queue = append(queue, id)
		}
	}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for _, to := range g.graph.Neighbors(cur) {
			conf := confidenceFor(g.edgeKind[[2]int{cur, to}])
			reachedLive := state[cur] == stateLive && conf >= confidenceThreshold

			switch {
			case reachedLive && state[to] != stateLive:
				state[to] = stateLive
				queue = append(queue, to)
			case !reachedLive && state[to] == stateDead:
				state[to] = stateUnknown
				queue = append(queue, to)
			}
		}
	}

	reports := make([]Report, 0, n)

	for id := range n {
		fn := g.ids[id]

		status := ProvenDead

		switch {
		case g.ffiExported[id]:
			status = ProvenLive
		case state[id] == stateLive:
			status = ProvenLive
		case state[id] == stateUnknown:
			status = Unknown
		case g.inbound[id] > 0:
			status = Unknown
		}

		reports = append(reports, Report{
			Function:   fn,
			Status:     status,
			Confidence: confidenceForStatus(status),
			FFIExport:  g.ffiExported[id],
		})
	}

	sort.Slice(reports, func(i, j int) bool {
		if reports[i].Function.FilePath != reports[j].Function.FilePath {
			return reports[i].Function.FilePath < reports[j].Function.FilePath
		}

		return reports[i].Function.Name < reports[j].Function.Name
	})

	return reports
}

func confidenceForStatus(s Status) float64 {
	switch s {
	case ProvenLive:
		return 1.0
	case Unknown:
		return 0.5
	default:
		return 0.0
	}
}

// DefaultConfidenceThreshold is the minimum edge confidence that counts
// as "reachable" for ProvenLive, matching pkg/complexity's and pkg/tdg's
// convention of defaulting to a conservative mid-range cutoff rather than
// requiring perfect certainty.
const DefaultConfidenceThreshold = 0.6

// BuildFromProject constructs a ReferenceGraph from a set of per-file
// ASTs, registering the entry-point set AstItem.IsEntryPoint decides:
// `main`, FFI exports, and every publicly visible function (library and
// binary targets are not told apart). Call edges come
// from each file's AstDag.CallEdges side table, resolved back to
// FunctionIDs the same way pkg/dag.addCallAndInheritEdges resolves NodeKeys.
func BuildFromProject(files []*ast.FileContext, mainFiles map[string]bool) *ReferenceGraph {
	g := NewReferenceGraph()

	byNodeKey := make(map[string]map[ast.NodeKey]int, len(files))

	for _, fc := range files {
		perFile := make(map[ast.NodeKey]int, len(fc.Items))

		for _, item := range fc.Items {
			if item.Kind != ast.ItemFunction {
				continue
			}

			isMain := mainFiles[fc.Path] && strings.EqualFold(item.Name, "main")
			fn := FunctionID{FilePath: fc.Path, Name: item.Name}
			id := g.AddFunction(fn, item.FFIExport, item.IsEntryPoint(isMain))

			if item.Node != ast.NilKey {
				perFile[item.Node] = id
			}
		}

		byNodeKey[fc.Path] = perFile
	}

	for _, fc := range files {
		if fc.Dag == nil {
			continue
		}

		perFile := byNodeKey[fc.Path]

		for caller, callees := range fc.Dag.CallEdges {
			fromID, ok := perFile[caller]
			if !ok {
				continue
			}

			for _, callee := range callees {
				toID, ok := perFile[callee]
				if !ok {
					continue
				}

				g.AddEdge(fromID, toID, DirectCall)
			}
		}
	}

	return g
}
