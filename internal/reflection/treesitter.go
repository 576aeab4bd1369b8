package reflection

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// NodeText returns the source text covered by node.
func NodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	return string(source[node.StartByte():node.EndByte()])
}

// WalkTree visits node and its descendants depth first. Returning false from
// visitor skips the node's children.
func WalkTree(node *sitter.Node, visitor func(*sitter.Node) bool) {
	if node == nil {
		return
	}

	if !visitor(node) {
		return
	}

	for i := uint(0); i < node.ChildCount(); i++ {
		WalkTree(node.Child(i), visitor)
	}
}

// FindChildByType returns the first direct child of the given kind.
func FindChildByType(node *sitter.Node, kind string) *sitter.Node {
	if node == nil {
		return nil
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child != nil && child.Kind() == kind {
			return child
		}
	}
	return nil
}

// FindChildrenByType returns every direct child of the given kind.
func FindChildrenByType(node *sitter.Node, kinds ...string) []*sitter.Node {
	var results []*sitter.Node
	if node == nil {
		return results
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		for _, kind := range kinds {
			if child.Kind() == kind {
				results = append(results, child)
				break
			}
		}
	}
	return results
}

// StringLiteral returns the unescaped content of a single or double quoted
// PHP string node.
func StringLiteral(node *sitter.Node, source []byte) string {
	text := NodeText(node, source)
	if len(text) < 2 {
		return text
	}
	quote := text[0]
	if (quote != '\'' && quote != '"') || text[len(text)-1] != quote {
		return text
	}
	body := text[1 : len(text)-1]
	if quote == '\'' {
		return strings.NewReplacer(`\\`, `\`, `\'`, `'`).Replace(body)
	}
	return strings.NewReplacer(`\\`, `\`, `\"`, `"`, `\$`, `$`).Replace(body)
}

func lineOf(node *sitter.Node) int {
	return int(node.StartPosition().Row) + 1
}
