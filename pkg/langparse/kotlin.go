package langparse

import (
	"context"

	sitter "github.com/alexaandru/go-tree-sitter-bare"
	forest "github.com/alexaandru/go-sitter-forest/kotlin"

	"github.com/latticeforge/deepscan/pkg/ast"
)

// KotlinParser extracts functions, classes/objects (as Struct, including
// data classes per spec.md §4.2) and imports. Kotlin's default visibility
// is public, unlike Rust's default-private, so the absence of a modifier
// maps onto VisibilityPublic here.
type KotlinParser struct {
	spec *langSpec
}

// NewKotlinParser constructs the Kotlin parser singleton.
func NewKotlinParser() *KotlinParser {
	return &KotlinParser{spec: &langSpec{
		lang:           LangKotlin,
		tsLanguageName: "kotlin",
		getLanguage:    func() *sitter.Language { return sitter.NewLanguage(forest.GetLanguage()) },
		identifierType: "simple_identifier",
		decls: []declRule{
			{NodeType: "function_declaration", Kind: ast.ItemFunction},
			{NodeType: "class_declaration", Kind: ast.ItemStruct},
			{NodeType: "object_declaration", Kind: ast.ItemStruct},
			{NodeType: "import_header", Kind: ast.ItemUse},
		},
		exportRoles: kotlinVisibility,
		typeMap:     kotlinTypeMap,
	}}
}

// Language identifies this parser's Language enum value.
func (p *KotlinParser) Language() Language { return LangKotlin }

// Parse produces a FileContext for a single Kotlin source file.
func (p *KotlinParser) Parse(ctx context.Context, path string, content []byte) (*ast.FileContext, error) {
	return treeSitterParse(ctx, p.spec, path, content)
}

func kotlinVisibility(tsNode sitter.Node, source []byte) ast.Visibility {
	switch {
	case modifierContains(tsNode, source, "private"):
		return ast.VisibilityPrivate
	case modifierContains(tsNode, source, "internal"):
		return ast.VisibilityCrateLocal
	default:
		return ast.VisibilityPublic
	}
}

// kotlinTypeMap normalizes tree-sitter-kotlin's node-type vocabulary onto
// the canonical pkg/ast.Type enum. Kotlin folds return/break/continue/throw
// into a single "jump_expression" production distinguished only by keyword
// token, so that node type is left unmapped rather than guessed at; it
// carries no decision-point weight for complexity either way.
var kotlinTypeMap = map[string]ast.Type{
	"function_declaration": ast.TypeFunction,
	"class_declaration":    ast.TypeClass,
	"object_declaration":   ast.TypeStruct,
	"if_expression":        ast.TypeIf,
	"for_statement":        ast.TypeLoop,
	"while_statement":      ast.TypeLoop,
	"do_while_statement":   ast.TypeLoop,
	"when_expression":      ast.TypeMatch,
	"when_entry":           ast.TypeCase,
	"call_expression":      ast.TypeCall,
	"line_comment":         ast.TypeComment,
	"multiline_comment":    ast.TypeComment,
	"import_header":        ast.TypeImport,
}
