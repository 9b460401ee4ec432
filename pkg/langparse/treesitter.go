package langparse

import (
	"context"
	"fmt"
	"strings"
	"sync"

	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/latticeforge/deepscan/pkg/ast"
)

// declRule maps one tree-sitter grammar node type (e.g. "function_item" in
// the Rust grammar, "function_definition" in Python's) onto an AstItem
// variant. Every per-language parser is just a table of these plus the
// grammar's identifier node type name — the walk itself is shared.
type declRule struct {
	NodeType string
	Kind     ast.ItemKind
	// Detail fills in variant-specific fields (FieldsCount, VariantsCount,
	// TypeName, TraitName, Derives) that require grammar-specific child
	// lookups the shared walk can't express generically. Optional.
	Detail func(tsNode sitter.Node, source []byte, item *ast.AstItem)
}

// langSpec is the declarative description a per-language file provides;
// treeSitterParse below is the one engine that walks every language the
// same way. This mirrors the teacher's DSL-mapping idea (one engine, many
// declarative rule tables) without carrying over the DSL text format
// itself — SPEC_FULL.md's closed-enum registry needs compiled Go tables,
// not a runtime-loaded grammar mapping file.
type langSpec struct {
	lang           Language
	tsLanguageName string // forest package name, e.g. "rust"
	getLanguage    func() *sitter.Language
	decls          []declRule
	identifierType string // grammar node type used for plain identifiers
	exportRoles    func(tsNode sitter.Node, source []byte) ast.Visibility
	isAsync        func(tsNode sitter.Node, source []byte) bool
	// typeMap maps this grammar's own node-type strings (e.g. Rust's
	// "if_expression", Python's "if_statement") onto the canonical
	// pkg/ast.Type enum every cross-language analyzer keys off of. A
	// grammar type with no entry keeps its raw string, so node types no
	// analyzer cares about still round-trip for debugging/Mermaid output.
	typeMap map[string]ast.Type
}

// canonicalType looks up a grammar node type in spec's typeMap, falling
// back to the raw grammar string when the language file doesn't map it.
func (s *langSpec) canonicalType(grammarType string) ast.Type {
	if mapped, ok := s.typeMap[grammarType]; ok {
		return mapped
	}

	return ast.Type(grammarType)
}

var languageCache sync.Map // Language -> *sitter.Language

func (s *langSpec) language() *sitter.Language {
	if cached, ok := languageCache.Load(s.lang); ok {
		return cached.(*sitter.Language) //nolint:forcetypeassert // only *sitter.Language is stored.
	}

	lang := s.getLanguage()
	languageCache.Store(s.lang, lang)

	return lang
}

// treeSitterParse runs the shared tree-sitter walk for a langSpec: parse
// source, walk the tree, emit an AstItem for every node matching a
// declRule, and mirror the same nodes into an ast.AstDag so downstream
// stages (complexity, dead-code, DAG builder) see a uniform arena
// regardless of source language.
func treeSitterParse(ctx context.Context, spec *langSpec, path string, content []byte) (*ast.FileContext, error) {
	lang := spec.language()
	if lang == nil {
		return nil, unsupportedLanguageError(path)
	}

	tsParser := sitter.NewParser()
	tsParser.SetLanguage(lang)

	tree, err := tsParser.ParseString(ctx, nil, content)
	if err != nil {
		return nil, parseFailedError(path, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.IsNull() {
		return nil, parseFailedError(path, fmt.Errorf("empty parse tree"))
	}

	dag := ast.NewAstDag(64)
	fctx := &ast.FileContext{Path: path, Language: spec.lang.String(), Dag: dag}

	rootKey := walkDecls(spec, dag, root, content, fctx)
	dag.SetRoot(rootKey)

	linkCallEdges(dag, rootKey, fctx)
	linkInheritEdges(dag, fctx)

	return fctx, nil
}

// linkInheritEdges resolves each declaration's Supertypes (set by a
// language's class/impl Detail func) against this file's own type
// declarations and records an InheritEdge. Only same-file supertypes
// resolve, matching linkCallEdges and pkg/dag's own InheritEdges consumer;
// an extends/implements target declared in another file or package is left
// unresolved rather than guessed at.
func linkInheritEdges(dag *ast.AstDag, fctx *ast.FileContext) {
	typesByName := make(map[string]ast.NodeKey, len(fctx.Items))

	for _, item := range fctx.Items {
		switch item.Kind {
		case ast.ItemStruct, ast.ItemTrait, ast.ItemEnum:
			if item.Name != "" {
				typesByName[item.Name] = item.Node
			}
		default:
		}
	}

	for _, item := range fctx.Items {
		if len(item.Supertypes) == 0 || item.Node == ast.NilKey {
			continue
		}

		for _, super := range item.Supertypes {
			if parentKey, ok := typesByName[super]; ok {
				dag.AddInheritEdge(item.Node, parentKey)
			}
		}
	}
}

func walkDecls(spec *langSpec, dag *ast.AstDag, tsNode sitter.Node, source []byte, fctx *ast.FileContext) ast.NodeKey {
	children := make([]ast.NodeKey, 0, tsNode.NamedChildCount())

	for i := range tsNode.NamedChildCount() {
		child := tsNode.NamedChild(i)
		childKey := walkDecls(spec, dag, child, source, fctx)
		children = append(children, childKey)

		if rule, ok := matchDecl(spec, child); ok {
			item := buildItem(spec, rule, child, source)
			item.Node = childKey
			fctx.Items = append(fctx.Items, item)
		}
	}

	nodeType := spec.canonicalType(tsNode.Type())

	n := ast.Node{
		Type:     nodeType,
		Token:    leafToken(spec, tsNode, source),
		Pos:      position(tsNode),
		Children: children,
	}

	if nodeType == ast.TypeCall {
		if callee := calleeText(tsNode, source); callee != "" {
			n.Props = map[string]string{"callee": callee}
		}
	}

	return dag.Add(n)
}

// calleeText extracts a call node's callee expression text via the
// grammar's conventional "function" field (the field every call-expression
// production in this module's languages exposes), falling back to the
// call's first named child when the field is absent.
func calleeText(tsNode sitter.Node, source []byte) string {
	if fn := tsNode.ChildByFieldName("function"); !fn.IsNull() {
		return nodeText(fn, source)
	}

	if tsNode.NamedChildCount() > 0 {
		return nodeText(tsNode.NamedChild(0), source)
	}

	return ""
}

// linkCallEdges resolves every Call node's callee against this file's own
// function declarations and records a CallEdge from the enclosing function
// to the callee. pkg/deadcode.BuildFromProject and pkg/dag's DAG builder
// both already restrict call-edge resolution to a single file, so a
// same-file name map is all the grammar walk needs to provide.
func linkCallEdges(dag *ast.AstDag, root ast.NodeKey, fctx *ast.FileContext) {
	funcsByName := make(map[string]ast.NodeKey, len(fctx.Items))

	for _, item := range fctx.Items {
		if item.Kind == ast.ItemFunction && item.Name != "" {
			funcsByName[item.Name] = item.Node
		}
	}

	if len(funcsByName) == 0 {
		return
	}

	var callerStack []ast.NodeKey

	enter := func(key ast.NodeKey, n *ast.Node, _ int) {
		switch n.Type {
		case ast.TypeFunction:
			callerStack = append(callerStack, key)
		case ast.TypeCall:
			if len(callerStack) == 0 {
				return
			}

			calleeKey, ok := funcsByName[calleeName(n)]
			if !ok {
				return
			}

			dag.AddCallEdge(callerStack[len(callerStack)-1], calleeKey)
		}
	}

	exit := func(_ ast.NodeKey, n *ast.Node, _ int) {
		if n.Type == ast.TypeFunction && len(callerStack) > 0 {
			callerStack = callerStack[:len(callerStack)-1]
		}
	}

	_ = dag.Walk(root, enter, exit)
}

// calleeName strips a method-call receiver (self.foo(), this.foo(),
// Foo::bar()) down to the bare function name it ends in.
func calleeName(n *ast.Node) string {
	callee := n.Props["callee"]
	if callee == "" {
		return ""
	}

	if idx := strings.LastIndexAny(callee, ".:"); idx >= 0 {
		return callee[idx+1:]
	}

	return callee
}

func matchDecl(spec *langSpec, tsNode sitter.Node) (declRule, bool) {
	for _, rule := range spec.decls {
		if rule.NodeType == tsNode.Type() {
			return rule, true
		}
	}

	return declRule{}, false
}

func buildItem(spec *langSpec, rule declRule, tsNode sitter.Node, source []byte) ast.AstItem {
	item := ast.AstItem{
		Kind: rule.Kind,
		Name: declName(spec, tsNode, source),
		Line: int(tsNode.StartPoint().Row) + 1,
	}

	if spec.exportRoles != nil {
		item.Visibility = spec.exportRoles(tsNode, source)
	}

	if rule.Kind == ast.ItemFunction && spec.isAsync != nil {
		item.IsAsync = spec.isAsync(tsNode, source)
	}

	if rule.Detail != nil {
		rule.Detail(tsNode, source, &item)
	}

	return item
}

// declName extracts a declaration's name via the grammar's "name" field
// when present (true for nearly every tree-sitter grammar's function/
// struct/class productions), falling back to the first child whose type
// matches the language's identifier node type.
func declName(spec *langSpec, tsNode sitter.Node, source []byte) string {
	if named := tsNode.ChildByFieldName("name"); !named.IsNull() {
		return nodeText(named, source)
	}

	for i := range tsNode.NamedChildCount() {
		child := tsNode.NamedChild(i)
		if child.Type() == spec.identifierType {
			return nodeText(child, source)
		}
	}

	return ""
}

func leafToken(spec *langSpec, tsNode sitter.Node, source []byte) string {
	if tsNode.NamedChildCount() != 0 {
		return ""
	}

	return nodeText(tsNode, source)
}

func nodeText(tsNode sitter.Node, source []byte) string {
	start, end := tsNode.StartByte(), tsNode.EndByte()
	if int(end) > len(source) || start > end {
		return ""
	}

	return string(source[start:end])
}

func position(tsNode sitter.Node) ast.Position {
	start, end := tsNode.StartPoint(), tsNode.EndPoint()

	return ast.Position{
		StartLine:   start.Row + 1,
		StartCol:    start.Column + 1,
		StartOffset: tsNode.StartByte(),
		EndLine:     end.Row + 1,
		EndCol:      end.Column + 1,
		EndOffset:   tsNode.EndByte(),
	}
}
