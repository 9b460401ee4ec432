package ast

import "github.com/latticeforge/deepscan/pkg/errs"

// UnifiedAstNode is the arena-resident form of Node: identical fields, but
// addressed by NodeKey instead of pointer so an AstDag can be walked,
// copied and mark-swept without chasing pointers across files.
type UnifiedAstNode = Node

// AstDag is the per-file (or per-project, once merged) node arena plus the
// call/inheritance side tables the dead-code prover and DAG builder read.
// Keeping edges out of UnifiedAstNode itself lets the same arena serve both
// a pure syntax tree (Children) and a semantic graph (CallEdges,
// InheritEdges) without the two concerns fighting over one field.
type AstDag struct {
	nodes        []UnifiedAstNode
	root         NodeKey
	CallEdges    map[NodeKey][]NodeKey
	InheritEdges map[NodeKey][]NodeKey
}

// NewAstDag returns an empty arena. capHint pre-sizes the node slice to
// avoid repeated growth when the caller knows roughly how many nodes a
// file will produce (e.g. from a prior parse of the same file).
func NewAstDag(capHint int) *AstDag {
	if capHint < 0 {
		capHint = 0
	}

	return &AstDag{
		nodes:        make([]UnifiedAstNode, 1, capHint+1), // index 0 reserved for NilKey
		CallEdges:    make(map[NodeKey][]NodeKey),
		InheritEdges: make(map[NodeKey][]NodeKey),
	}
}

// Add appends n to the arena and returns its key. The returned key is
// stable for the lifetime of the arena; nodes are never relocated.
func (d *AstDag) Add(n UnifiedAstNode) NodeKey {
	d.nodes = append(d.nodes, n)

	return NodeKey(len(d.nodes) - 1)
}

// Get returns the node at key. ok is false for NilKey or an out-of-range
// key, which callers treat as "no node" rather than panicking — parser
// bugs should degrade a single file, not crash a batch run.
func (d *AstDag) Get(key NodeKey) (*UnifiedAstNode, bool) {
	if key <= NilKey || int(key) >= len(d.nodes) {
		return nil, false
	}

	return &d.nodes[key], true
}

// Root returns the arena's root node key, set via SetRoot.
func (d *AstDag) Root() NodeKey {
	return d.root
}

// SetRoot designates key as the arena's root node.
func (d *AstDag) SetRoot(key NodeKey) {
	d.root = key
}

// Len returns the number of live nodes (excluding the reserved NilKey slot).
func (d *AstDag) Len() int {
	return len(d.nodes) - 1
}

// AddCallEdge records that the function at caller may invoke callee.
func (d *AstDag) AddCallEdge(caller, callee NodeKey) {
	d.CallEdges[caller] = append(d.CallEdges[caller], callee)
}

// AddInheritEdge records that child inherits from/implements parent.
func (d *AstDag) AddInheritEdge(child, parent NodeKey) {
	d.InheritEdges[child] = append(d.InheritEdges[child], parent)
}

// VisitFunc is called once per node during Walk, in pre-order (enter) and
// again in post-order (exit), mirroring the teacher's OnEnter/OnExit
// visitor shape so pkg/complexity can reuse the same traversal contract.
type VisitFunc func(key NodeKey, n *UnifiedAstNode, depth int)

// walkFrame tracks one node's traversal state on the explicit stack. Using
// an explicit stack rather than recursion keeps Walk's stack depth at
// O(1) regardless of source nesting, which matters for generated or
// minified files with thousands of nested blocks.
type walkFrame struct {
	key      NodeKey
	depth    int
	childIdx int
	exited   bool
}

// Walk performs an iterative pre/post-order traversal of the subtree
// rooted at root, calling onEnter before visiting children and onExit
// after. A zero root key means "use the arena's root".
func (d *AstDag) Walk(root NodeKey, onEnter, onExit VisitFunc) error {
	if root == NilKey {
		root = d.root
	}

	if _, ok := d.Get(root); !ok {
		return nil
	}

	stack := []*walkFrame{{key: root, depth: 0}}

	for len(stack) > 0 {
		frame := stack[len(stack)-1]

		node, ok := d.Get(frame.key)
		if !ok {
			return errs.ErrArenaExhausted
		}

		if frame.childIdx == 0 && !frame.exited {
			if onEnter != nil {
				onEnter(frame.key, node, frame.depth)
			}
		}

		if frame.childIdx < len(node.Children) {
			childKey := node.Children[frame.childIdx]
			frame.childIdx++
			stack = append(stack, &walkFrame{key: childKey, depth: frame.depth + 1})

			continue
		}

		if onExit != nil {
			onExit(frame.key, node, frame.depth)
		}

		stack = stack[:len(stack)-1]
	}

	return nil
}
