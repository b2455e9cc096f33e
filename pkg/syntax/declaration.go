package syntax

import (
	"strings"

	"github.com/panbanda/tombstone/pkg/parser"
	sitter "github.com/smacker/go-tree-sitter"
)

// Key is the positional identity of a declaration. Two declarations are the
// same declaration exactly when their keys are equal.
type Key struct {
	Tree  uint64
	Start uint32
	End   uint32
}

// Location is a human-facing source position. Line and Column are 1-based.
type Location struct {
	Path   string
	Line   int
	Column int
}

// Declaration is a declaration node inside a Tree.
type Declaration struct {
	tree *Tree
	node *sitter.Node
	kind Kind
}

// DeclarationAt returns the declaration rooted exactly at node.
func DeclarationAt(tree *Tree, node *sitter.Node) (Declaration, bool) {
	if tree == nil || node == nil {
		return Declaration{}, false
	}
	kind := KindOf(node.Type())
	if !CategoryMemberDeclaration.Has(kind) {
		return Declaration{}, false
	}
	return Declaration{tree: tree, node: node, kind: kind}, true
}

// Nodes that end the upward search in DeclarationFor: anything inside them
// belongs to a body or a parameter, never to a member name.
var declarationBarriers = map[string]bool{
	"block":                       true,
	"arrow_expression_clause":     true,
	"accessor_list":               true,
	"parameter":                   true,
	"parameter_list":              true,
	"local_declaration_statement": true,
	"equals_value_clause":         true,
	"argument_list":               true,
}

// DeclarationFor climbs from node (typically a declaration's identifier) to
// the nearest enclosing declaration. Field and event-field declarators climb
// through their variable declaration to the owning member.
func DeclarationFor(tree *Tree, node *sitter.Node) (Declaration, bool) {
	for n := node; n != nil; n = n.Parent() {
		if decl, ok := DeclarationAt(tree, n); ok {
			return decl, true
		}
		if declarationBarriers[n.Type()] {
			return Declaration{}, false
		}
	}
	return Declaration{}, false
}

// IsZero reports whether d is the zero Declaration.
func (d Declaration) IsZero() bool { return d.node == nil }

// Tree returns the owning tree.
func (d Declaration) Tree() *Tree { return d.tree }

// Node returns the declaration node.
func (d Declaration) Node() *sitter.Node { return d.node }

// Kind returns the declaration kind.
func (d Declaration) Kind() Kind { return d.kind }

// Span returns the byte span of the whole declaration.
func (d Declaration) Span() Span { return SpanOf(d.node) }

// Key returns the positional identity of the declaration.
func (d Declaration) Key() Key {
	return Key{Tree: d.tree.ID(), Start: d.node.StartByte(), End: d.node.EndByte()}
}

// Text returns the declaration's verbatim source text.
func (d Declaration) Text() string { return d.tree.Text(d.node) }

// Location returns where the declaration starts.
func (d Declaration) Location() Location {
	line, col := d.tree.Position(d.node.StartByte())
	return Location{Path: d.tree.Path(), Line: line, Column: col}
}

// NameNode returns the identifier naming the declaration. For fields and
// event fields it is the first declarator's identifier.
func (d Declaration) NameNode() *sitter.Node {
	if d.node == nil {
		return nil
	}
	switch d.kind {
	case KindField, KindEvent:
		if declarators := d.Declarators(); len(declarators) > 0 {
			return declaratorName(declarators[0])
		}
	}
	if name := d.node.ChildByFieldName("name"); name != nil {
		return name
	}
	return parser.ChildOfType(d.node, "identifier")
}

// Name returns the declared name, or "" if it cannot be determined.
func (d Declaration) Name() string {
	return d.tree.Text(d.NameNode())
}

// Declarators returns the variable declarators of a field or event field.
func (d Declaration) Declarators() []*sitter.Node {
	vd := parser.ChildOfType(d.node, "variable_declaration")
	if vd == nil {
		return nil
	}
	return parser.ChildrenOfType(vd, "variable_declarator")
}

func declaratorName(declarator *sitter.Node) *sitter.Node {
	if name := declarator.ChildByFieldName("name"); name != nil {
		return name
	}
	return parser.ChildOfType(declarator, "identifier")
}

// DeclaratorNames returns the identifiers of all declarators of a field or
// event field, or the single name node otherwise.
func (d Declaration) DeclaratorNames() []*sitter.Node {
	if d.kind == KindField || d.kind == KindEvent {
		var names []*sitter.Node
		for _, declarator := range d.Declarators() {
			if name := declaratorName(declarator); name != nil {
				names = append(names, name)
			}
		}
		if len(names) > 0 {
			return names
		}
	}
	if name := d.NameNode(); name != nil {
		return []*sitter.Node{name}
	}
	return nil
}

// TypeNode returns the declared type of a field, property, event or the
// return type of a method.
func (d Declaration) TypeNode() *sitter.Node {
	switch d.kind {
	case KindField, KindEvent:
		if vd := parser.ChildOfType(d.node, "variable_declaration"); vd != nil {
			return vd.ChildByFieldName("type")
		}
		return d.node.ChildByFieldName("type")
	case KindProperty:
		return d.node.ChildByFieldName("type")
	case KindMethod:
		if t := d.node.ChildByFieldName("returns"); t != nil {
			return t
		}
		return d.node.ChildByFieldName("type")
	}
	return nil
}

// Container returns the node enclosing the declaration, skipping member
// lists. The container may be a namespace or the compilation unit; it is
// not found when the parent is not a recognized kind.
func (d Declaration) Container() (Declaration, bool) {
	for n := d.node.Parent(); n != nil; n = n.Parent() {
		switch n.Type() {
		case "declaration_list", "enum_member_declaration_list":
			continue
		}
		kind := KindOf(n.Type())
		if kind == KindUnknown {
			return Declaration{}, false
		}
		return Declaration{tree: d.tree, node: n, kind: kind}, true
	}
	return Declaration{}, false
}

// EnclosingType returns the nearest enclosing class, struct, interface or
// record, walking past namespaces.
func (d Declaration) EnclosingType() (Declaration, bool) {
	return EnclosingType(d.tree, d.node)
}

// EnclosingType returns the nearest class, struct, interface or record
// declaration that strictly encloses node.
func EnclosingType(tree *Tree, node *sitter.Node) (Declaration, bool) {
	if node == nil {
		return Declaration{}, false
	}
	for n := node.Parent(); n != nil; n = n.Parent() {
		if kind := KindOf(n.Type()); typeContainers.Has(kind) {
			return Declaration{tree: tree, node: n, kind: kind}, true
		}
	}
	return Declaration{}, false
}

// IsNested reports whether the declaration is declared inside a type.
func (d Declaration) IsNested() bool {
	c, ok := d.Container()
	return ok && typeContainers.Has(c.kind)
}

// Namespace returns the dotted namespace enclosing the declaration.
func (d Declaration) Namespace() string {
	var parts []string
	for n := d.node.Parent(); n != nil; n = n.Parent() {
		if KindOf(n.Type()) == KindNamespace {
			if name := n.ChildByFieldName("name"); name != nil {
				parts = append(parts, d.tree.Text(name))
			}
		}
	}
	// A file-scoped namespace is a sibling of the declarations it covers.
	if root := d.tree.RootNode(); root != nil {
		if fs := parser.ChildOfType(root, "file_scoped_namespace_declaration"); fs != nil && len(parts) == 0 {
			if name := fs.ChildByFieldName("name"); name != nil {
				parts = append(parts, d.tree.Text(name))
			}
		}
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, ".")
}
