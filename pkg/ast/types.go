// Package ast defines the unified, language-agnostic syntax tree that every
// per-language parser in pkg/langparse produces and every analyzer in
// pkg/complexity, pkg/deadcode, pkg/dag and pkg/tdg consumes.
//
// Node vocabulary (Type/Token/Roles/Pos/Props) follows the UAST node shape
// used across the rest of this module's parsing stack; what changes here is
// the tree representation itself. Children are NodeKey indices into a flat
// Arena slice rather than *Node pointers, so a cyclic or duplicated edge
// (never expected from a parser, but reachable from a buggy DAG transform)
// cannot produce an unbounded walk: reachability analysis over the arena
// always terminates in O(nodes), because visitation is tracked by key, not
// by pointer identity.
package ast

// Type identifies the syntactic category of a node.
type Type string

// Node type constants, shared across all language parsers so that
// complexity, dead-code and TDG analysis never need per-language switches.
const (
	TypeFile           Type = "File"
	TypeFunction       Type = "Function"
	TypeFunctionDecl   Type = "FunctionDecl"
	TypeMethod         Type = "Method"
	TypeClass          Type = "Class"
	TypeInterface      Type = "Interface"
	TypeStruct         Type = "Struct"
	TypeEnum           Type = "Enum"
	TypeEnumMember     Type = "EnumMember"
	TypeVariable       Type = "Variable"
	TypeParameter      Type = "Parameter"
	TypeBlock          Type = "Block"
	TypeIf             Type = "If"
	TypeLoop           Type = "Loop"
	TypeSwitch         Type = "Switch"
	TypeCase           Type = "Case"
	TypeReturn         Type = "Return"
	TypeBreak          Type = "Break"
	TypeContinue       Type = "Continue"
	TypeAssignment     Type = "Assignment"
	TypeCall           Type = "Call"
	TypeIdentifier     Type = "Identifier"
	TypeLiteral        Type = "Literal"
	TypeBinaryOp       Type = "BinaryOp"
	TypeUnaryOp        Type = "UnaryOp"
	TypeImport         Type = "Import"
	TypePackage        Type = "Package"
	TypeAttribute      Type = "Attribute"
	TypeComment        Type = "Comment"
	TypeDocString      Type = "DocString"
	TypeTypeAnnotation Type = "TypeAnnotation"
	TypeField          Type = "Field"
	TypeLambda         Type = "Lambda"
	TypeTry            Type = "Try"
	TypeCatch          Type = "Catch"
	TypeFinally        Type = "Finally"
	TypeThrow          Type = "Throw"
	TypeModule         Type = "Module"
	TypeNamespace      Type = "Namespace"
	TypeMatch          Type = "Match"
	TypeSynthetic      Type = "Synthetic"
)

// Role is a semantic or syntactic label attached to a node, orthogonal to
// its Type (a node can be both a Function and Exported).
type Role string

// Role constants used by the complexity visitor, dead-code prover and TDG
// scorer to recognize declarations, decision points and visibility without
// per-language knowledge.
const (
	RoleFunction    Role = "Function"
	RoleDeclaration Role = "Declaration"
	RoleName        Role = "Name"
	RoleReference   Role = "Reference"
	RoleCall        Role = "Call"
	RoleParameter   Role = "Parameter"
	RoleCondition   Role = "Condition"
	RoleBody        Role = "Body"
	RoleExported    Role = "Exported"
	RolePublic      Role = "Public"
	RolePrivate     Role = "Private"
	RoleStatic      Role = "Static"
	RoleEntryPoint  Role = "EntryPoint"
	RoleTest        Role = "Test"
)

// Position is the byte and line/column span of a node in its source file.
// Fields are 1-based except the byte offsets, matching source-map
// conventions used by the Mermaid and SARIF serializers for stable anchors.
type Position struct {
	StartLine   uint
	StartCol    uint
	StartOffset uint
	EndLine     uint
	EndCol      uint
	EndOffset   uint
}

// NodeKey addresses a Node within an Arena. The zero value is reserved as
// the "no node" sentinel; real nodes start at key 1.
type NodeKey int

// NilKey is the sentinel NodeKey meaning "absent", e.g. a function node
// with no explicit return statement.
const NilKey NodeKey = 0

// Node is one syntax-tree element. Children are keys into the owning
// Arena rather than pointers, which is what lets the dead-code prover's
// mark-sweep and the DAG builder's topological walk run as plain integer
// bookkeeping instead of pointer-graph traversal.
type Node struct {
	Type     Type
	Token    string
	Roles    []Role
	Pos      Position
	Props    map[string]string
	Children []NodeKey
}

// HasAnyRole reports whether the node carries at least one of the given roles.
func (n *Node) HasAnyRole(roles ...Role) bool {
	for _, want := range roles {
		for _, have := range n.Roles {
			if have == want {
				return true
			}
		}
	}

	return false
}

// HasAllRoles reports whether the node carries every given role.
func (n *Node) HasAllRoles(roles ...Role) bool {
	for _, want := range roles {
		if !n.HasAnyRole(want) {
			return false
		}
	}

	return true
}

// HasAnyType reports whether the node's Type matches one of the given types.
func (n *Node) HasAnyType(types ...Type) bool {
	for _, t := range types {
		if n.Type == t {
			return true
		}
	}

	return false
}
