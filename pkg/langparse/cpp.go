package langparse

import (
	"context"

	sitter "github.com/alexaandru/go-tree-sitter-bare"
	forest "github.com/alexaandru/go-sitter-forest/cpp"

	"github.com/latticeforge/deepscan/pkg/ast"
)

// CppParser extends CParser's declaration set with classes, namespaces
// (mapped onto Module) and using-declarations.
type CppParser struct {
	spec *langSpec
}

// NewCppParser constructs the C++ parser singleton.
func NewCppParser() *CppParser {
	return &CppParser{spec: &langSpec{
		lang:           LangCpp,
		tsLanguageName: "cpp",
		getLanguage:    func() *sitter.Language { return sitter.NewLanguage(forest.GetLanguage()) },
		identifierType: "identifier",
		decls: []declRule{
			{NodeType: "function_definition", Kind: ast.ItemFunction},
			{NodeType: "class_specifier", Kind: ast.ItemStruct},
			{NodeType: "struct_specifier", Kind: ast.ItemStruct},
			{NodeType: "enum_specifier", Kind: ast.ItemEnum},
			{NodeType: "namespace_definition", Kind: ast.ItemModule},
			{NodeType: "using_declaration", Kind: ast.ItemUse},
			{NodeType: "preproc_include", Kind: ast.ItemUse},
		},
		exportRoles: cVisibility,
		typeMap:     cppTypeMap,
	}}
}

// Language identifies this parser's Language enum value.
func (p *CppParser) Language() Language { return LangCpp }

// Parse produces a FileContext for a single C++ source file.
func (p *CppParser) Parse(ctx context.Context, path string, content []byte) (*ast.FileContext, error) {
	return treeSitterParse(ctx, p.spec, path, content)
}

// cppTypeMap extends cTypeMap with the class/namespace/exception-handling
// node types tree-sitter-cpp adds on top of its C grammar base.
var cppTypeMap = map[string]ast.Type{
	"function_definition": ast.TypeFunction,
	"class_specifier":     ast.TypeClass,
	"struct_specifier":    ast.TypeStruct,
	"enum_specifier":      ast.TypeEnum,
	"namespace_definition": ast.TypeNamespace,
	"using_declaration":   ast.TypeImport,
	"preproc_include":     ast.TypeImport,
	"if_statement":        ast.TypeIf,
	"for_statement":       ast.TypeLoop,
	"for_range_loop":      ast.TypeLoop,
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
	"try_statement":       ast.TypeTry,
	"catch_clause":        ast.TypeCatch,
	"throw_statement":     ast.TypeThrow,
}
