package semantic

import (
	"github.com/panbanda/tombstone/pkg/parser"
	"github.com/panbanda/tombstone/pkg/syntax"
	sitter "github.com/smacker/go-tree-sitter"
)

// local is a parameter, local variable or local function visible at a
// reference.
type local struct {
	typ      *sitter.Node
	init     *sitter.Node
	function bool
}

// Member kinds whose bodies own locals.
var localScopes = map[string]bool{
	"method_declaration":              true,
	"constructor_declaration":         true,
	"destructor_declaration":          true,
	"operator_declaration":            true,
	"conversion_operator_declaration": true,
	"property_declaration":            true,
	"indexer_declaration":             true,
	"event_declaration":               true,
	"field_declaration":               true,
}

func scopeOf(ref *sitter.Node) *sitter.Node {
	var root *sitter.Node
	for n := ref.Parent(); n != nil; n = n.Parent() {
		if n.Type() == "global_statement" {
			// Top-level statements share one scope across the compilation unit.
			root = n.Parent()
			continue
		}
		if localScopes[n.Type()] {
			return n
		}
		if syntax.KindOf(n.Type()).IsType() {
			return nil
		}
		root = n
	}
	return root
}

// findLocal looks for a local named name that is visible at ref. Locals must
// be fully declared before the reference; parameters are always visible.
func (m *Model) findLocal(ref *sitter.Node, name string) (local, bool) {
	scope := scopeOf(ref)
	if scope == nil {
		return local{}, false
	}
	refStart := ref.StartByte()

	var found local
	var ok bool
	parser.Walk(scope, func(n *sitter.Node) bool {
		if ok {
			return false
		}
		if n != scope && syntax.KindOf(n.Type()).IsType() {
			return false
		}
		if n.Type() == "namespace_declaration" {
			return false
		}
		found, ok = m.localAt(n, name, refStart)
		return !ok
	})
	return found, ok
}

func (m *Model) localAt(n *sitter.Node, name string, refStart uint32) (local, bool) {
	before := n.EndByte() <= refStart

	switch n.Type() {
	case "parameter":
		if m.tree.Text(n.ChildByFieldName("name")) == name {
			return local{typ: n.ChildByFieldName("type")}, true
		}
	case "variable_declarator":
		if !before || m.declaratorName(n) != name {
			return local{}, false
		}
		decl := n.Parent()
		if decl == nil || decl.Type() != "variable_declaration" {
			return local{}, false
		}
		switch p := decl.Parent(); {
		case p == nil, p.Type() == "field_declaration", p.Type() == "event_field_declaration":
			return local{}, false
		}
		return local{typ: decl.ChildByFieldName("type"), init: declaratorValue(n)}, true
	case "foreach_statement":
		if left := n.ChildByFieldName("left"); left != nil && left.StartByte() < refStart && m.tree.Text(left) == name {
			return local{typ: n.ChildByFieldName("type")}, true
		}
	case "declaration_expression", "catch_declaration":
		if before && m.tree.Text(n.ChildByFieldName("name")) == name {
			return local{typ: n.ChildByFieldName("type")}, true
		}
	case "declaration_pattern":
		if before && m.tree.Text(n.ChildByFieldName("name")) == name {
			return local{typ: n.ChildByFieldName("type")}, true
		}
		if d := n.ChildByFieldName("designation"); before && d != nil && m.tree.Text(d) == name {
			return local{typ: n.ChildByFieldName("type")}, true
		}
	case "lambda_expression":
		// x => ... declares an untyped parameter visible only in the body.
		p := n.ChildByFieldName("parameters")
		if p == nil {
			p = parser.ChildOfType(n, "implicit_parameter")
		}
		inside := n.StartByte() <= refStart && refStart < n.EndByte()
		if inside && p != nil && (p.Type() == "identifier" || p.Type() == "implicit_parameter") && m.tree.Text(p) == name {
			return local{}, true
		}
	case "local_function_statement":
		if m.tree.Text(n.ChildByFieldName("name")) == name {
			return local{function: true}, true
		}
	}
	return local{}, false
}

func (m *Model) declaratorName(declarator *sitter.Node) string {
	if name := declarator.ChildByFieldName("name"); name != nil {
		return m.tree.Text(name)
	}
	return m.tree.Text(parser.ChildOfType(declarator, "identifier"))
}

func declaratorValue(declarator *sitter.Node) *sitter.Node {
	if eq := parser.ChildOfType(declarator, "equals_value_clause"); eq != nil {
		return eq.NamedChild(0)
	}
	n := int(declarator.NamedChildCount())
	if n > 1 {
		return declarator.NamedChild(n - 1)
	}
	return nil
}
