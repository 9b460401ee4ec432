package langparse

import (
	"context"

	"github.com/latticeforge/deepscan/pkg/ast"
)

// AssemblyScriptParser reuses the TypeScript grammar: AssemblyScript is a
// strict syntactic subset of TypeScript (it compiles to Wasm rather than
// JS, but parses identically), so no separate tree-sitter grammar is
// needed — only the reported Language tag differs.
type AssemblyScriptParser struct {
	ts *TypeScriptParser
}

// NewAssemblyScriptParser constructs the AssemblyScript parser singleton.
func NewAssemblyScriptParser() *AssemblyScriptParser {
	return &AssemblyScriptParser{ts: NewTypeScriptParser()}
}

// Language identifies this parser's Language enum value.
func (p *AssemblyScriptParser) Language() Language { return LangAssemblyScript }

// Parse produces a FileContext for a single AssemblyScript source file.
func (p *AssemblyScriptParser) Parse(ctx context.Context, path string, content []byte) (*ast.FileContext, error) {
	fctx, err := p.ts.Parse(ctx, path, content)
	if err != nil {
		return nil, err
	}

	fctx.Language = LangAssemblyScript.String()

	return fctx, nil
}
