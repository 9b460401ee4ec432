package langparse

import (
	"context"

	sitter "github.com/alexaandru/go-tree-sitter-bare"
	forest "github.com/alexaandru/go-sitter-forest/c"

	"github.com/latticeforge/deepscan/pkg/ast"
)

// CParser extracts function definitions, struct/enum specifiers and
// includes. C has no pub/private keyword; "static" at file scope is the
// language's actual translation-unit-local visibility marker, so it maps
// onto VisibilityPrivate and everything else onto VisibilityPublic.
type CParser struct {
	spec *langSpec
}

// NewCParser constructs the C parser singleton.
func NewCParser() *CParser {
	return &CParser{spec: &langSpec{
		lang:           LangC,
		tsLanguageName: "c",
		getLanguage:    func() *sitter.Language { return sitter.NewLanguage(forest.GetLanguage()) },
		identifierType: "identifier",
		decls: []declRule{
			{NodeType: "function_definition", Kind: ast.ItemFunction},
			{NodeType: "struct_specifier", Kind: ast.ItemStruct},
			{NodeType: "enum_specifier", Kind: ast.ItemEnum},
			{NodeType: "preproc_include", Kind: ast.ItemUse},
		},
		exportRoles: cVisibility,
		typeMap:     cTypeMap,
	}}
}

// Language identifies this parser's Language enum value.
func (p *CParser) Language() Language { return LangC }

// Parse produces a FileContext for a single C source file.
func (p *CParser) Parse(ctx context.Context, path string, content []byte) (*ast.FileContext, error) {
	return treeSitterParse(ctx, p.spec, path, content)
}

func cVisibility(tsNode sitter.Node, source []byte) ast.Visibility {
	if keywordBeforeField(tsNode, source, "declarator", "static") {
		return ast.VisibilityPrivate
	}

	return ast.VisibilityPublic
}

// cTypeMap normalizes tree-sitter-c's node-type vocabulary onto the
// canonical pkg/ast.Type enum.
var cTypeMap = map[string]ast.Type{
	"function_definition": ast.TypeFunction,
	"struct_specifier":    ast.TypeStruct,
	"enum_specifier":      ast.TypeEnum,
	"preproc_include":     ast.TypeImport,
	"if_statement":        ast.TypeIf,
	"for_statement":       ast.TypeLoop,
	"while_statement":     ast.TypeLoop,
	"do_statement":        ast.TypeLoop,
	"switch_statement":    ast.TypeSwitch,
	"case_statement":      ast.TypeCase,
	"call_expression":     ast.TypeCall,
	"return_statement":    ast.TypeReturn,
	"break_statement":     ast.TypeBreak,
	"continue_statement":  ast.TypeContinue,
	"comment":             ast.TypeComment,
	"compound_statement":  ast.TypeBlock,
}
