// Package wasm parses WebAssembly modules in their binary and text
// (.wat) encodings. No tree-sitter grammar exists for binary Wasm — it's
// a length-prefixed section format, not a token stream — so this package
// reads it directly with encoding/binary, the same way the rest of this
// module prefers a purpose-built reader over forcing an ill-fitting
// parser framework onto a format that doesn't need one.
package wasm

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/latticeforge/deepscan/pkg/ast"
	"github.com/latticeforge/deepscan/pkg/errs"
)

// magicNumber is the four-byte \0asm header every binary module starts with.
var magicNumber = [4]byte{0x00, 0x61, 0x73, 0x6d}

const (
	binaryVersion1 = uint32(1)

	sectionExport  = 7
	sectionExportFuncKind = 0x00
)

// ParseBinary validates the module header and walks its section table,
// extracting exported function names as AstItem entries (ItemFunction,
// FFIExport true, since a Wasm export is by definition a cross-boundary
// entry point for the host environment). Function bodies are opaque at
// this level; this is deliberately structural, not a disassembler.
func ParseBinary(path string, content []byte) (*ast.FileContext, error) {
	if len(content) < 8 {
		return nil, parseErr(path, "file too short for a module header")
	}

	var magic [4]byte

	copy(magic[:], content[:4])

	if magic != magicNumber {
		return nil, parseErr(path, "missing \\0asm magic number")
	}

	version := binary.LittleEndian.Uint32(content[4:8])
	if version != binaryVersion1 {
		return nil, parseErr(path, fmt.Sprintf("unsupported module version %d", version))
	}

	fctx := &ast.FileContext{Path: path, Language: "wasm-binary", Dag: ast.NewAstDag(8)}

	r := bytes.NewReader(content[8:])

	for r.Len() > 0 {
		id, err := r.ReadByte()
		if err != nil {
			break
		}

		size, err := readULEB128(r)
		if err != nil {
			return fctx, nil //nolint:nilerr // truncated trailing section: report what parsed so far
		}

		body := make([]byte, size)
		if _, err := r.Read(body); err != nil {
			return fctx, nil //nolint:nilerr // truncated trailing section: report what parsed so far
		}

		if id == sectionExport {
			appendExportItems(fctx, body)
		}
	}

	return fctx, nil
}

func appendExportItems(fctx *ast.FileContext, section []byte) {
	r := bytes.NewReader(section)

	count, err := readULEB128(r)
	if err != nil {
		return
	}

	for i := uint32(0); i < count; i++ {
		name, err := readName(r)
		if err != nil {
			return
		}

		kind, err := r.ReadByte()
		if err != nil {
			return
		}

		// index into the referenced space; not needed for item extraction.
		if _, err := readULEB128(r); err != nil {
			return
		}

		if kind != sectionExportFuncKind {
			continue
		}

		key := fctx.Dag.Add(ast.Node{Type: ast.TypeFunction, Token: name, Roles: []ast.Role{ast.RoleFunction, ast.RoleExported}})
		fctx.Items = append(fctx.Items, ast.AstItem{
			Kind:       ast.ItemFunction,
			Name:       name,
			Visibility: ast.VisibilityPublic,
			FFIExport:  true,
			Node:       key,
		})
	}
}

func readName(r *bytes.Reader) (string, error) {
	n, err := readULEB128(r)
	if err != nil {
		return "", err
	}

	buf := make([]byte, n)
	if _, err := r.Read(buf); err != nil {
		return "", err
	}

	return string(buf), nil
}

// readULEB128 decodes an unsigned LEB128 integer, the variable-length
// encoding the Wasm binary format uses for every size and index field.
func readULEB128(r *bytes.Reader) (uint32, error) {
	var (
		result uint32
		shift  uint
	)

	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}

		result |= uint32(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, nil
		}

		shift += 7
	}
}

func parseErr(path, reason string) error {
	return fmt.Errorf("%s: %w: %s", path, errs.ErrParseFailed, reason)
}
