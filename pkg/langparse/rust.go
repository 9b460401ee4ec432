package langparse

import (
	"context"

	sitter "github.com/alexaandru/go-tree-sitter-bare"
	forest "github.com/alexaandru/go-sitter-forest/rust"

	"github.com/latticeforge/deepscan/pkg/ast"
)

// RustParser extracts functions (with async), structs, enums (with variant
// counts), traits, impls (with optional trait name), modules and uses per
// spec.md §4.2's Rust requirements.
type RustParser struct {
	spec *langSpec
}

// NewRustParser constructs the Rust parser singleton for the registry.
func NewRustParser() *RustParser {
	return &RustParser{spec: &langSpec{
		lang:           LangRust,
		tsLanguageName: "rust",
		getLanguage:    func() *sitter.Language { return sitter.NewLanguage(forest.GetLanguage()) },
		identifierType: "identifier",
		decls: []declRule{
			{NodeType: "function_item", Kind: ast.ItemFunction},
			{NodeType: "struct_item", Kind: ast.ItemStruct, Detail: rustStructDetail},
			{NodeType: "enum_item", Kind: ast.ItemEnum, Detail: rustEnumDetail},
			{NodeType: "trait_item", Kind: ast.ItemTrait},
			{NodeType: "mod_item", Kind: ast.ItemModule},
			{NodeType: "impl_item", Kind: ast.ItemImpl, Detail: rustImplDetail},
			{NodeType: "use_declaration", Kind: ast.ItemUse},
		},
		exportRoles: rustVisibility,
		isAsync:     rustIsAsync,
		typeMap:     rustTypeMap,
	}}
}

// Language identifies this parser's Language enum value.
func (p *RustParser) Language() Language { return LangRust }

// Parse produces a FileContext for a single Rust source file.
func (p *RustParser) Parse(ctx context.Context, path string, content []byte) (*ast.FileContext, error) {
	return treeSitterParse(ctx, p.spec, path, content)
}

// rustVisibility reports VisibilityPublic for a plain "pub" modifier,
// VisibilityCrateLocal for any restricted form (pub(crate), pub(super),
// pub(in ...)) and VisibilityPrivate otherwise; the restricted forms are
// distinguished from plain pub by inspecting the modifier's token text. Only NamedChild
// is used to find the modifier since the grammar exposes it as a named
// sibling, not through a guaranteed field name.
func rustVisibility(tsNode sitter.Node, source []byte) ast.Visibility {
	var vis sitter.Node

	for i := range tsNode.NamedChildCount() {
		child := tsNode.NamedChild(i)
		if child.Type() == "visibility_modifier" {
			vis = child

			break
		}
	}

	if vis.IsNull() {
		return ast.VisibilityPrivate
	}

	if len(nodeText(vis, source)) > len("pub") {
		return ast.VisibilityCrateLocal
	}

	return ast.VisibilityPublic
}

// rustIsAsync reports whether a function_item carries an async modifier.
// The grammar's async keyword isn't a named node, so this is resolved by
// scanning the declaration's own source slice up to its "name" field for
// the "async" token, rather than walking unnamed children.
func rustIsAsync(tsNode sitter.Node, source []byte) bool {
	return keywordBeforeField(tsNode, source, "name", "async")
}

// rustStructDetail counts struct_item's field_declaration_list members.
func rustStructDetail(tsNode sitter.Node, _ []byte, item *ast.AstItem) {
	body := tsNode.ChildByFieldName("body")
	if body.IsNull() {
		return
	}

	for i := range body.NamedChildCount() {
		if body.NamedChild(i).Type() == "field_declaration" {
			item.FieldsCount++
		}
	}
}

// rustEnumDetail counts enum_item's enum_variant members.
func rustEnumDetail(tsNode sitter.Node, _ []byte, item *ast.AstItem) {
	body := tsNode.ChildByFieldName("body")
	if body.IsNull() {
		return
	}

	for i := range body.NamedChildCount() {
		if body.NamedChild(i).Type() == "enum_variant" {
			item.VariantsCount++
		}
	}
}

// rustImplDetail resolves impl_item's "type" field (always present) and
// optional "trait" field (present only for trait impls, absent for
// inherent impls) onto AstItem.TypeName/TraitName.
func rustImplDetail(tsNode sitter.Node, source []byte, item *ast.AstItem) {
	if typ := tsNode.ChildByFieldName("type"); !typ.IsNull() {
		item.TypeName = nodeText(typ, source)
	}

	if tr := tsNode.ChildByFieldName("trait"); !tr.IsNull() {
		item.TraitName = nodeText(tr, source)
	}
}

// rustTypeMap normalizes tree-sitter-rust's own node-type vocabulary onto
// the canonical pkg/ast.Type enum so complexity, dead-code and SATD analysis
// never need a Rust-specific switch.
var rustTypeMap = map[string]ast.Type{
	"function_item":        ast.TypeFunction,
	"if_expression":        ast.TypeIf,
	"if_let_expression":    ast.TypeIf,
	"for_expression":       ast.TypeLoop,
	"while_expression":     ast.TypeLoop,
	"while_let_expression": ast.TypeLoop,
	"loop_expression":      ast.TypeLoop,
	"match_expression":     ast.TypeMatch,
	"match_arm":            ast.TypeCase,
	"call_expression":      ast.TypeCall,
	"return_expression":    ast.TypeReturn,
	"break_expression":     ast.TypeBreak,
	"continue_expression":  ast.TypeContinue,
	"line_comment":         ast.TypeComment,
	"block_comment":        ast.TypeComment,
	"block":                ast.TypeBlock,
	"closure_expression":   ast.TypeLambda,
	"use_declaration":      ast.TypeImport,
	"mod_item":             ast.TypeModule,
	"struct_item":          ast.TypeStruct,
	"enum_item":            ast.TypeEnum,
	"trait_item":           ast.TypeInterface,
}
