package langparse

import (
	"context"

	sitter "github.com/alexaandru/go-tree-sitter-bare"
	forest "github.com/alexaandru/go-sitter-forest/typescript"

	"github.com/latticeforge/deepscan/pkg/ast"
)

const exportKeywordLookback = 16

// TypeScriptParser extracts functions, classes (as Struct), interfaces (as
// Trait), enums and imports per spec.md §4.2 — TS interfaces map onto the
// shared Trait item kind since both express a named contract with no
// runtime representation of their own.
type TypeScriptParser struct {
	spec *langSpec
}

// NewTypeScriptParser constructs the TypeScript parser singleton.
func NewTypeScriptParser() *TypeScriptParser {
	return &TypeScriptParser{spec: &langSpec{
		lang:           LangTypeScript,
		tsLanguageName: "typescript",
		getLanguage:    func() *sitter.Language { return sitter.NewLanguage(forest.GetLanguage()) },
		identifierType: "identifier",
		decls: []declRule{
			{NodeType: "function_declaration", Kind: ast.ItemFunction},
			{NodeType: "class_declaration", Kind: ast.ItemStruct, Detail: jsClassSupertypes},
			{NodeType: "interface_declaration", Kind: ast.ItemTrait},
			{NodeType: "enum_declaration", Kind: ast.ItemEnum},
			{NodeType: "module", Kind: ast.ItemModule},
			{NodeType: "import_statement", Kind: ast.ItemUse},
		},
		exportRoles: jsExportVisibility,
		isAsync:     jsIsAsync,
		typeMap:     jsTypeMap,
	}}
}

// Language identifies this parser's Language enum value.
func (p *TypeScriptParser) Language() Language { return LangTypeScript }

// Parse produces a FileContext for a single TypeScript/TSX source file.
func (p *TypeScriptParser) Parse(ctx context.Context, path string, content []byte) (*ast.FileContext, error) {
	return treeSitterParse(ctx, p.spec, path, content)
}

// jsExportVisibility treats any declaration preceded by "export" as public;
// TS/JS have no crate-local-equivalent third visibility tier, so this
// collapses to the same two-valued public/private the spec allows via its
// three-valued tag (crate-local simply never appears for this language).
func jsExportVisibility(tsNode sitter.Node, source []byte) ast.Visibility {
	if precededByKeyword(tsNode, source, "export", exportKeywordLookback) {
		return ast.VisibilityPublic
	}

	return ast.VisibilityPrivate
}

func jsIsAsync(tsNode sitter.Node, source []byte) bool {
	return keywordBeforeField(tsNode, source, "name", "async")
}

// jsTypeMap normalizes tree-sitter-javascript/typescript's shared
// node-type vocabulary onto the canonical pkg/ast.Type enum. TypeScript's
// grammar is a superset of JavaScript's for every node type mapped here, so
// both parsers share this table.
var jsTypeMap = map[string]ast.Type{
	"function_declaration":  ast.TypeFunction,
	"method_definition":     ast.TypeMethod,
	"class_declaration":     ast.TypeClass,
	"interface_declaration": ast.TypeInterface,
	"enum_declaration":      ast.TypeEnum,
	"if_statement":          ast.TypeIf,
	"for_statement":         ast.TypeLoop,
	"for_in_statement":      ast.TypeLoop,
	"while_statement":       ast.TypeLoop,
	"do_statement":          ast.TypeLoop,
	"switch_statement":      ast.TypeSwitch,
	"switch_case":           ast.TypeCase,
	"switch_default":        ast.TypeCase,
	"call_expression":       ast.TypeCall,
	"return_statement":      ast.TypeReturn,
	"break_statement":       ast.TypeBreak,
	"continue_statement":    ast.TypeContinue,
	"comment":               ast.TypeComment,
	"statement_block":       ast.TypeBlock,
	"try_statement":         ast.TypeTry,
	"catch_clause":          ast.TypeCatch,
	"finally_clause":        ast.TypeFinally,
	"throw_statement":       ast.TypeThrow,
	"import_statement":      ast.TypeImport,
	"arrow_function":        ast.TypeLambda,
	"function_expression":   ast.TypeLambda,
	"module":                ast.TypeModule,
}

// jsClassSupertypes reads a class_declaration's class_heritage clause (the
// "extends Base implements IFoo, IBar" suffix) by node type rather than
// field name, the same way rustStructDetail scans field_declaration_list by
// type: class_heritage wraps an extends_clause and, in TypeScript, an
// optional implements_clause, each holding one or more type references.
func jsClassSupertypes(tsNode sitter.Node, source []byte, item *ast.AstItem) {
	for i := range tsNode.NamedChildCount() {
		heritage := tsNode.NamedChild(i)
		if heritage.Type() != "class_heritage" {
			continue
		}

		for j := range heritage.NamedChildCount() {
			clause := heritage.NamedChild(j)

			switch clause.Type() {
			case "extends_clause", "implements_clause":
				for k := range clause.NamedChildCount() {
					item.Supertypes = append(item.Supertypes, nodeText(clause.NamedChild(k), source))
				}
			}
		}
	}
}
