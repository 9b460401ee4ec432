package langparse

import (
	"context"

	sitter "github.com/alexaandru/go-tree-sitter-bare"
	forest "github.com/alexaandru/go-sitter-forest/javascript"

	"github.com/latticeforge/deepscan/pkg/ast"
)

// JavaScriptParser mirrors TypeScriptParser's declaration set minus
// interfaces and enums, which don't exist in plain JS grammars.
type JavaScriptParser struct {
	spec *langSpec
}

// NewJavaScriptParser constructs the JavaScript parser singleton.
func NewJavaScriptParser() *JavaScriptParser {
	return &JavaScriptParser{spec: &langSpec{
		lang:           LangJavaScript,
		tsLanguageName: "javascript",
		getLanguage:    func() *sitter.Language { return sitter.NewLanguage(forest.GetLanguage()) },
		identifierType: "identifier",
		decls: []declRule{
			{NodeType: "function_declaration", Kind: ast.ItemFunction},
			{NodeType: "class_declaration", Kind: ast.ItemStruct, Detail: jsClassSupertypes},
			{NodeType: "import_statement", Kind: ast.ItemUse},
		},
		exportRoles: jsExportVisibility,
		isAsync:     jsIsAsync,
		typeMap:     jsTypeMap,
	}}
}

// Language identifies this parser's Language enum value.
func (p *JavaScriptParser) Language() Language { return LangJavaScript }

// Parse produces a FileContext for a single JavaScript source file.
func (p *JavaScriptParser) Parse(ctx context.Context, path string, content []byte) (*ast.FileContext, error) {
	return treeSitterParse(ctx, p.spec, path, content)
}
