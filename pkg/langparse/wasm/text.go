package wasm

import (
	"strings"

	"github.com/latticeforge/deepscan/pkg/ast"
)

// ParseText extracts top-level (func ...), (export ...) and (module ...)
// forms from WebAssembly text format source. The .wat grammar is a fully
// parenthesized s-expression syntax with no operator precedence or
// significant whitespace, so a depth-tracking scanner that finds each
// top-level form's keyword and first atom is sufficient to recover
// function declarations and exports without a full parser.
func ParseText(path string, content []byte) (*ast.FileContext, error) {
	fctx := &ast.FileContext{Path: path, Language: "wasm-text", Dag: ast.NewAstDag(8)}

	exported := exportedNames(string(content))

	src := string(content)
	depth := 0
	line := 1

	for i := 0; i < len(src); i++ {
		switch src[i] {
		case '\n':
			line++
		case '(':
			depth++

			if depth == 2 && strings.HasPrefix(src[i+1:], "func") {
				name, consumed := readFuncDecl(src[i:])
				i += consumed

				key := fctx.Dag.Add(ast.Node{Type: ast.TypeFunction, Token: name})
				fctx.Items = append(fctx.Items, ast.AstItem{
					Kind:       ast.ItemFunction,
					Name:       name,
					Line:       line,
					Visibility: visibilityFor(name, exported),
					FFIExport:  exported[name],
					Node:       key,
				})
			}
		case ')':
			depth--
		}
	}

	return fctx, nil
}

// readFuncDecl reads a "func $name" header starting at s (which begins
// with the opening paren) and returns the function's identifier (empty
// for anonymous functions) plus how many bytes of s were consumed for the
// "func" keyword and identifier token.
func readFuncDecl(s string) (name string, consumed int) {
	const kw = "func"

	rest := s[1+len(kw):]
	rest = strings.TrimLeft(rest, " \t")

	if strings.HasPrefix(rest, "$") {
		end := strings.IndexAny(rest, " \t)\n")
		if end < 0 {
			end = len(rest)
		}

		return rest[:end], 1 + len(kw) + end
	}

	return "", 1 + len(kw)
}

// exportedNames scans for (export "name" (func $ref)) forms and returns
// the set of function identifiers referenced by an export.
func exportedNames(src string) map[string]bool {
	exported := make(map[string]bool)

	idx := 0
	for {
		pos := strings.Index(src[idx:], "(export")
		if pos < 0 {
			break
		}

		pos += idx
		end := strings.IndexByte(src[pos:], ')')
		if end < 0 {
			break
		}

		clause := src[pos : pos+end]
		if ref := strings.Index(clause, "$"); ref >= 0 {
			nameEnd := strings.IndexAny(clause[ref:], " \t)\n")
			if nameEnd < 0 {
				nameEnd = len(clause) - ref
			}

			exported[clause[ref:ref+nameEnd]] = true
		}

		idx = pos + end + 1
	}

	return exported
}

func visibilityFor(name string, exported map[string]bool) ast.Visibility {
	if exported[name] {
		return ast.VisibilityPublic
	}

	return ast.VisibilityPrivate
}
