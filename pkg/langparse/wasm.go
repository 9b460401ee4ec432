package langparse

import (
	"context"

	"github.com/latticeforge/deepscan/pkg/ast"
	"github.com/latticeforge/deepscan/pkg/langparse/wasm"
)

// WasmTextParser adapts pkg/langparse/wasm.ParseText to the Parser
// interface so the registry dispatches .wat/.wast files alongside the
// tree-sitter-backed languages.
type WasmTextParser struct{}

// NewWasmTextParser constructs the Wasm text-format parser singleton.
func NewWasmTextParser() *WasmTextParser { return &WasmTextParser{} }

// Language identifies this parser's Language enum value.
func (p *WasmTextParser) Language() Language { return LangWasmText }

// Parse delegates to wasm.ParseText.
func (p *WasmTextParser) Parse(_ context.Context, path string, content []byte) (*ast.FileContext, error) {
	return wasm.ParseText(path, content)
}

// WasmBinaryParser adapts pkg/langparse/wasm.ParseBinary to the Parser
// interface.
type WasmBinaryParser struct{}

// NewWasmBinaryParser constructs the Wasm binary-format parser singleton.
func NewWasmBinaryParser() *WasmBinaryParser { return &WasmBinaryParser{} }

// Language identifies this parser's Language enum value.
func (p *WasmBinaryParser) Language() Language { return LangWasmBinary }

// Parse delegates to wasm.ParseBinary.
func (p *WasmBinaryParser) Parse(_ context.Context, path string, content []byte) (*ast.FileContext, error) {
	return wasm.ParseBinary(path, content)
}
