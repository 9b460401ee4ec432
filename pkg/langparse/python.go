package langparse

import (
	"context"
	"strings"

	sitter "github.com/alexaandru/go-tree-sitter-bare"
	forest "github.com/alexaandru/go-sitter-forest/python"

	"github.com/latticeforge/deepscan/pkg/ast"
)

// PythonParser extracts functions (with async), classes (as Struct) and
// imports. Python has no pub/export keyword, so visibility follows the
// language's own leading-underscore convention per spec.md §4.2.
type PythonParser struct {
	spec *langSpec
}

// NewPythonParser constructs the Python parser singleton.
func NewPythonParser() *PythonParser {
	return &PythonParser{spec: &langSpec{
		lang:           LangPython,
		tsLanguageName: "python",
		getLanguage:    func() *sitter.Language { return sitter.NewLanguage(forest.GetLanguage()) },
		identifierType: "identifier",
		decls: []declRule{
			{NodeType: "function_definition", Kind: ast.ItemFunction},
			{NodeType: "class_definition", Kind: ast.ItemStruct},
			{NodeType: "import_statement", Kind: ast.ItemUse},
			{NodeType: "import_from_statement", Kind: ast.ItemUse},
		},
		exportRoles: pythonVisibility,
		isAsync:     pythonIsAsync,
		typeMap:     pythonTypeMap,
	}}
}

// Language identifies this parser's Language enum value.
func (p *PythonParser) Language() Language { return LangPython }

// Parse produces a FileContext for a single Python source file.
func (p *PythonParser) Parse(ctx context.Context, path string, content []byte) (*ast.FileContext, error) {
	return treeSitterParse(ctx, p.spec, path, content)
}

func pythonVisibility(tsNode sitter.Node, source []byte) ast.Visibility {
	name := tsNode.ChildByFieldName("name")
	if name.IsNull() || strings.HasPrefix(nodeText(name, source), "_") {
		return ast.VisibilityPrivate
	}

	return ast.VisibilityPublic
}

// pythonIsAsync checks the function_definition's own leading text up to its
// name field: Python's grammar includes the "async" keyword as part of the
// definition node itself, not as a preceding sibling.
func pythonIsAsync(tsNode sitter.Node, source []byte) bool {
	return keywordBeforeField(tsNode, source, "name", "async")
}

// pythonTypeMap normalizes tree-sitter-python's node-type vocabulary onto
// the canonical pkg/ast.Type enum.
var pythonTypeMap = map[string]ast.Type{
	"function_definition": ast.TypeFunction,
	"class_definition":    ast.TypeClass,
	"if_statement":        ast.TypeIf,
	"elif_clause":         ast.TypeIf,
	"for_statement":       ast.TypeLoop,
	"while_statement":     ast.TypeLoop,
	"match_statement":     ast.TypeMatch,
	"case_clause":         ast.TypeCase,
	"call":                ast.TypeCall,
	"return_statement":    ast.TypeReturn,
	"break_statement":     ast.TypeBreak,
	"continue_statement":  ast.TypeContinue,
	"comment":             ast.TypeComment,
	"block":               ast.TypeBlock,
	"try_statement":       ast.TypeTry,
	"except_clause":       ast.TypeCatch,
	"finally_clause":      ast.TypeFinally,
	"raise_statement":     ast.TypeThrow,
	"import_statement":    ast.TypeImport,
	"import_from_statement": ast.TypeImport,
	"lambda":              ast.TypeLambda,
}
