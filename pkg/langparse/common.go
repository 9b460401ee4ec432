package langparse

import (
	"strings"

	sitter "github.com/alexaandru/go-tree-sitter-bare"
)

// precededByKeyword reports whether keyword appears in the source slice
// immediately preceding tsNode's start, up to maxBack bytes back. Used for
// grammars (TS/JS export, C/C++ static) where the modifier keyword is not
// exposed as a distinct named child of the declaration node.
func precededByKeyword(tsNode sitter.Node, source []byte, keyword string, maxBack int) bool {
	start := int(tsNode.StartByte())
	if start > len(source) {
		return false
	}

	from := start - maxBack
	if from < 0 {
		from = 0
	}

	return strings.Contains(string(source[from:start]), keyword)
}

// keywordBeforeField reports whether keyword appears in tsNode's own text
// up to (but not including) its named field-named child fieldName. Used
// for grammars where a storage-class or async modifier is lexically part
// of the declaration node itself rather than a preceding sibling.
func keywordBeforeField(tsNode sitter.Node, source []byte, fieldName, keyword string) bool {
	field := tsNode.ChildByFieldName(fieldName)

	end := tsNode.EndByte()
	if !field.IsNull() {
		end = field.StartByte()
	}

	start := tsNode.StartByte()
	if start > end || int(end) > len(source) {
		return false
	}

	return strings.Contains(string(source[start:end]), keyword)
}

// modifierContains scans a declaration's named children for a "modifiers"
// node (Kotlin, Java-family grammars) whose text contains keyword.
func modifierContains(tsNode sitter.Node, source []byte, keyword string) bool {
	for i := range tsNode.NamedChildCount() {
		child := tsNode.NamedChild(i)
		if child.Type() == "modifiers" && strings.Contains(nodeText(child, source), keyword) {
			return true
		}
	}

	return false
}
