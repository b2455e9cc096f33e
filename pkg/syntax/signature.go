package syntax

import (
	"strings"

	"github.com/panbanda/tombstone/pkg/parser"
	sitter "github.com/smacker/go-tree-sitter"
)

// MethodSignature renders a method as its name followed by its parameters
// exactly as written, e.g. "Method(int value = 10)".
func MethodSignature(decl Declaration) string {
	params := Parameters(decl)
	texts := make([]string, 0, len(params))
	for _, p := range params {
		texts = append(texts, decl.tree.SpanText(p.Span))
	}
	return decl.Name() + "(" + strings.Join(texts, ", ") + ")"
}

// Parameter is one formal parameter. A params array has no node of its own
// in the grammar, so Node is nil for it and Span runs from the params
// keyword to the end of the name.
type Parameter struct {
	Span     Span
	Node     *sitter.Node
	Type     *sitter.Node
	Name     *sitter.Node
	Optional bool
	Variadic bool
}

// Parameters returns the parameters of a method, constructor or delegate in
// declaration order.
func Parameters(decl Declaration) []Parameter {
	list := decl.node.ChildByFieldName("parameters")
	if list == nil {
		list = parser.ChildOfType(decl.node, "parameter_list")
	}
	if list == nil {
		return nil
	}

	var (
		params  []Parameter
		pending *Parameter
	)
	for child := range parser.Children(list) {
		if pending != nil {
			switch {
			case !child.IsNamed():
			case pending.Type == nil:
				pending.Type = child
			default:
				pending.Name = child
				pending.Span.End = child.EndByte()
				params = append(params, *pending)
				pending = nil
			}
			continue
		}
		switch child.Type() {
		case "params":
			pending = &Parameter{Span: Span{Start: child.StartByte()}, Variadic: true}
		case "parameter", "parameter_array":
			params = append(params, parameterOf(decl.tree, child))
		}
	}
	return params
}

func parameterOf(tree *Tree, node *sitter.Node) Parameter {
	p := Parameter{
		Span:     SpanOf(node),
		Node:     node,
		Type:     node.ChildByFieldName("type"),
		Name:     node.ChildByFieldName("name"),
		Variadic: node.Type() == "parameter_array" || hasParamsModifier(tree, node),
	}
	if p.Variadic {
		return p
	}
	if p.Name == nil {
		p.Optional = parser.ChildOfType(node, "equals_value_clause") != nil
		return p
	}
	// The default value, bare or wrapped, is the only named child after the name.
	for i := range int(node.NamedChildCount()) {
		if child := node.NamedChild(i); child.StartByte() >= p.Name.EndByte() {
			p.Optional = true
			break
		}
	}
	return p
}

func hasParamsModifier(tree *Tree, param *sitter.Node) bool {
	for child := range parser.Children(param) {
		if child.Type() == "params" || (child.Type() == "modifier" && tree.Text(child) == "params") {
			return true
		}
	}
	return false
}

// Arity describes how many arguments a parameter list accepts.
type Arity struct {
	Required int
	Total    int
	Variadic bool
}

// Accepts reports whether a call with n arguments fits.
func (a Arity) Accepts(n int) bool {
	if n < a.Required {
		return false
	}
	return a.Variadic || n <= a.Total
}

// ArityOf computes the arity of a method, constructor or delegate. A params
// array is not counted in Total; it accepts any number of extra arguments.
func ArityOf(decl Declaration) Arity {
	var a Arity
	for _, p := range Parameters(decl) {
		if p.Variadic {
			a.Variadic = true
			continue
		}
		a.Total++
		if !p.Optional {
			a.Required++
		}
	}
	return a
}
