package reflection

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mvp-joe/phpintel/internal/source"
	sitter "github.com/tree-sitter/go-tree-sitter"
	php "github.com/tree-sitter/tree-sitter-php/bindings/go"
)

// TreeSitterParser extracts declarations from PHP source with tree-sitter.
type TreeSitterParser struct {
	language *sitter.Language
}

// NewTreeSitterParser creates a PHP parser.
func NewTreeSitterParser() *TreeSitterParser {
	return &TreeSitterParser{
		language: sitter.NewLanguage(php.LanguagePHP()),
	}
}

// Parse implements Parser.
func (p *TreeSitterParser) Parse(path string, src []byte) (*File, error) {
	parser := sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(p.language); err != nil {
		return nil, fmt.Errorf("failed to set php language: %w", err)
	}

	tree := parser.Parse(src, nil)
	if tree == nil {
		return nil, fmt.Errorf("failed to parse php file: %s", path)
	}
	defer tree.Close()

	w := &fileWalker{
		src:   src,
		file:  &File{Path: path},
		facts: source.NewFacts(),
	}
	w.statements(tree.RootNode())
	return w.file, nil
}

var (
	definePattern = regexp.MustCompile(`(?s)^\\?define\s*\(\s*['"]([^'"]+)['"]\s*,\s*(.+?)\s*\)\s*;?$`)
	spaces        = regexp.MustCompile(`\s+`)
)

// fileWalker carries the namespace scope while visiting top-level statements.
type fileWalker struct {
	src   []byte
	file  *File
	facts *source.Facts
}

func (w *fileWalker) text(node *sitter.Node) string {
	return NodeText(node, w.src)
}

func (w *fileWalker) statements(node *sitter.Node) {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}

		switch child.Kind() {
		case "namespace_definition":
			w.namespace(child)
		case "namespace_use_declaration":
			if kind, imports, ok := source.ParseUse(w.text(child)); ok && kind == "" {
				for alias, fqn := range imports {
					w.facts.Imports[alias] = fqn
				}
			}
		case "class_declaration":
			w.class(child, KindClass)
		case "interface_declaration":
			w.class(child, KindInterface)
		case "trait_declaration":
			w.class(child, KindTrait)
		case "enum_declaration":
			w.class(child, KindEnum)
		case "function_definition":
			w.function(child)
		case "const_declaration":
			for _, c := range w.constants(child, "") {
				c.Name = w.declared(c.Name)
				w.file.Constants = append(w.file.Constants, c)
			}
		case "expression_statement":
			w.define(child)
		case "compound_statement", "if_statement", "else_clause", "else_if_clause", "colon_block", "declare_statement":
			w.statements(child)
		}
	}
}

func (w *fileWalker) namespace(node *sitter.Node) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		nameNode = FindChildByType(node, "namespace_name")
	}

	facts := source.NewFacts()
	facts.Namespace = strings.Trim(w.text(nameNode), `\`)

	body := node.ChildByFieldName("body")
	if body == nil {
		w.facts = facts
		return
	}

	outer := w.facts
	w.facts = facts
	w.statements(body)
	w.facts = outer
}

// declared qualifies a name declared in the current namespace.
func (w *fileWalker) declared(name string) string {
	if w.facts.Namespace == "" {
		return name
	}
	return w.facts.Namespace + source.Separator + name
}

// reference qualifies a class name referenced in the current scope.
func (w *fileWalker) reference(name string) string {
	name = strings.TrimSpace(name)
	if strings.HasPrefix(name, source.Separator) {
		return strings.TrimPrefix(name, source.Separator)
	}
	return strings.TrimPrefix(source.Qualify(name, w.facts), source.Separator)
}

// typeString qualifies the class names of a declared type, keeping builtin
// and self-referencing names as written in lower case.
func (w *fileWalker) typeString(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	raw := spaces.ReplaceAllString(w.text(node), "")
	raw = strings.NewReplacer("(", "", ")", "", "&", "|").Replace(raw)

	types := source.SplitUnion(strings.TrimPrefix(raw, "?"))
	if strings.HasPrefix(raw, "?") {
		types = append(types, "null")
	}

	var out []string
	for _, t := range types {
		lower := strings.ToLower(t)
		switch {
		case source.IsBuiltinType(t), lower == "self", lower == "static", lower == "parent":
			out = append(out, lower)
		default:
			out = append(out, source.Separator+w.reference(t))
		}
	}
	return strings.Join(out, "|")
}

func (w *fileWalker) class(node *sitter.Node, kind Kind) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}

	c := &Class{
		Name:       w.declared(w.text(nameNode)),
		Kind:       kind,
		Modifiers:  w.modifiers(node),
		DocComment: w.docComment(node),
		File:       w.file.Path,
		StartLine:  lineOf(node),
	}

	for _, clause := range FindChildrenByType(node, "base_clause") {
		for _, n := range FindChildrenByType(clause, "name", "qualified_name") {
			if kind == KindInterface {
				c.Interfaces = append(c.Interfaces, w.reference(w.text(n)))
			} else if c.Parent == "" {
				c.Parent = w.reference(w.text(n))
			}
		}
	}
	for _, clause := range FindChildrenByType(node, "class_interface_clause") {
		for _, n := range FindChildrenByType(clause, "name", "qualified_name") {
			c.Interfaces = append(c.Interfaces, w.reference(w.text(n)))
		}
	}

	if body := node.ChildByFieldName("body"); body != nil {
		w.members(body, c)
	}

	w.file.Classes = append(w.file.Classes, c)
}

func (w *fileWalker) members(body *sitter.Node, c *Class) {
	for i := uint(0); i < body.ChildCount(); i++ {
		child := body.Child(i)
		if child == nil {
			continue
		}

		switch child.Kind() {
		case "method_declaration":
			w.method(child, c)
		case "property_declaration":
			w.properties(child, c)
		case "const_declaration":
			c.Constants = append(c.Constants, w.constants(child, c.Name)...)
		case "use_declaration":
			for _, n := range FindChildrenByType(child, "name", "qualified_name") {
				c.Traits = append(c.Traits, w.reference(w.text(n)))
			}
		case "enum_case":
			if nameNode := child.ChildByFieldName("name"); nameNode != nil {
				c.Constants = append(c.Constants, &Constant{
					Name:  w.text(nameNode),
					Class: c.Name,
					Value: strings.TrimSpace(w.text(child)),
				})
			}
		}
	}
}

func (w *fileWalker) method(node *sitter.Node, c *Class) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}

	m := &Method{
		Name:       w.text(nameNode),
		Class:      c.Name,
		File:       w.file.Path,
		Modifiers:  w.modifiers(node),
		DocComment: w.docComment(node),
		ReturnType: w.typeString(node.ChildByFieldName("return_type")),
		StartLine:  lineOf(node),
	}

	params := node.ChildByFieldName("parameters")
	m.Params = w.params(params)
	c.Methods = append(c.Methods, m)

	if strings.EqualFold(m.Name, "__construct") {
		for _, promoted := range FindChildrenByType(params, "property_promotion_parameter") {
			nameNode := promoted.ChildByFieldName("name")
			if nameNode == nil {
				nameNode = FindChildByType(promoted, "variable_name")
			}
			if nameNode == nil {
				continue
			}
			c.Properties = append(c.Properties, &Property{
				Name:      strings.TrimPrefix(w.text(nameNode), "$"),
				Class:     c.Name,
				Modifiers: w.modifiers(promoted),
				Type:      w.typeString(typeNode(promoted)),
			})
		}
	}
}

func (w *fileWalker) properties(node *sitter.Node, c *Class) {
	mods := w.modifiers(node)
	typ := w.typeString(typeNode(node))
	doc := w.docComment(node)

	for _, element := range FindChildrenByType(node, "property_element") {
		nameNode := FindChildByType(element, "variable_name")
		if nameNode == nil {
			continue
		}
		c.Properties = append(c.Properties, &Property{
			Name:       strings.TrimPrefix(w.text(nameNode), "$"),
			Class:      c.Name,
			Modifiers:  mods,
			Type:       typ,
			DocComment: doc,
		})
	}
}

func (w *fileWalker) constants(node *sitter.Node, class string) []*Constant {
	var out []*Constant
	for _, element := range FindChildrenByType(node, "const_element") {
		nameNode := FindChildByType(element, "name")
		if nameNode == nil {
			continue
		}
		k := &Constant{Name: w.text(nameNode), Class: class}
		if count := element.NamedChildCount(); count > 1 {
			value := element.NamedChild(count - 1)
			k.Value = spaces.ReplaceAllString(w.text(value), " ")
			k.IsArray = value.Kind() == "array_creation_expression"
		}
		out = append(out, k)
	}
	return out
}

func (w *fileWalker) function(node *sitter.Node) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}

	w.file.Functions = append(w.file.Functions, &Function{
		Name:       w.declared(w.text(nameNode)),
		File:       w.file.Path,
		Params:     w.params(node.ChildByFieldName("parameters")),
		ReturnType: w.typeString(node.ChildByFieldName("return_type")),
		DocComment: w.docComment(node),
		StartLine:  lineOf(node),
	})
}

// define records global constants created with define('NAME', value).
func (w *fileWalker) define(node *sitter.Node) {
	m := definePattern.FindStringSubmatch(strings.TrimSpace(w.text(node)))
	if m == nil {
		return
	}
	value := spaces.ReplaceAllString(m[2], " ")
	w.file.Constants = append(w.file.Constants, &Constant{
		Name:    strings.TrimPrefix(m[1], source.Separator),
		Value:   value,
		IsArray: strings.HasPrefix(value, "[") || strings.HasPrefix(strings.ToLower(value), "array("),
	})
}

func (w *fileWalker) params(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	text := strings.TrimSpace(w.text(node))
	text = strings.TrimSuffix(strings.TrimPrefix(text, "("), ")")
	return strings.TrimSpace(spaces.ReplaceAllString(text, " "))
}

// modifiers reads modifier children. Both the named modifier nodes and bare
// keyword tokens are accepted.
func (w *fileWalker) modifiers(node *sitter.Node) Modifier {
	var mods Modifier
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		word := child.Kind()
		switch word {
		case "visibility_modifier", "static_modifier", "abstract_modifier", "final_modifier", "readonly_modifier", "var_modifier":
			word = strings.ToLower(strings.TrimSpace(w.text(child)))
		}
		switch word {
		case "public", "var":
			mods |= ModPublic
		case "protected":
			mods |= ModProtected
		case "private":
			mods |= ModPrivate
		case "static":
			mods |= ModStatic
		case "abstract":
			mods |= ModAbstract
		case "final":
			mods |= ModFinal
		case "readonly":
			mods |= ModReadonly
		}
	}
	return mods
}

// docComment returns the /** */ comment directly preceding node.
func (w *fileWalker) docComment(node *sitter.Node) string {
	for prev := node.PrevSibling(); prev != nil; prev = prev.PrevSibling() {
		switch prev.Kind() {
		case "attribute_list":
			continue
		case "comment":
			text := w.text(prev)
			if strings.HasPrefix(text, "/**") {
				return text
			}
		}
		return ""
	}
	return ""
}

var typeKinds = map[string]bool{
	"primitive_type":               true,
	"named_type":                   true,
	"optional_type":                true,
	"nullable_type":                true,
	"union_type":                   true,
	"intersection_type":            true,
	"disjunctive_normal_form_type": true,
}

func typeNode(node *sitter.Node) *sitter.Node {
	if node == nil {
		return nil
	}
	if t := node.ChildByFieldName("type"); t != nil {
		return t
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		if child := node.Child(i); child != nil && typeKinds[child.Kind()] {
			return child
		}
	}
	return nil
}
