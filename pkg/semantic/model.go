package semantic

import (
	"context"

	"github.com/panbanda/tombstone/pkg/parser"
	"github.com/panbanda/tombstone/pkg/syntax"
	sitter "github.com/smacker/go-tree-sitter"
)

// Model resolves references inside one document against the solution Index.
type Model struct {
	index *Index
	tree  *syntax.Tree
}

// Tree returns the document tree the model answers for.
func (m *Model) Tree() *syntax.Tree { return m.tree }

// SymbolInfo resolves an invocation to the method, field, property or event
// it calls. Other node types and external calls yield a nil symbol.
func (m *Model) SymbolInfo(ctx context.Context, node *sitter.Node) (*Symbol, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if node == nil || node.Type() != "invocation_expression" {
		return nil, nil
	}
	target, ok := m.resolveInvocation(node)
	if !ok {
		return nil, nil
	}
	return target.symbol(), nil
}

func (m *Model) resolveInvocation(call *sitter.Node) (member, bool) {
	fn := call.ChildByFieldName("function")
	if fn == nil {
		fn = call.NamedChild(0)
	}
	if fn == nil {
		return member{}, false
	}
	args := m.arguments(call)

	switch fn.Type() {
	case "identifier", "generic_name":
		return m.resolveUnqualified(call, m.simpleName(fn), args)
	case "member_access_expression":
		return m.resolveMember(call, fn.ChildByFieldName("expression"), m.simpleName(fn.ChildByFieldName("name")), args)
	case "member_binding_expression":
		return m.resolveMember(call, conditionalReceiver(fn), m.simpleName(fn.ChildByFieldName("name")), args)
	case "conditional_access_expression":
		binding := parser.ChildOfType(fn, "member_binding_expression")
		if binding == nil {
			return member{}, false
		}
		return m.resolveMember(call, conditionalReceiver(binding), m.simpleName(binding.ChildByFieldName("name")), args)
	}
	return member{}, false
}

func (m *Model) simpleName(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	if node.Type() == "generic_name" {
		if id := parser.ChildOfType(node, "identifier"); id != nil {
			return m.tree.Text(id)
		}
		return m.tree.Text(node.NamedChild(0))
	}
	return m.tree.Text(node)
}

// conditionalReceiver returns x for the binding ".M" in "x?.M()".
func conditionalReceiver(binding *sitter.Node) *sitter.Node {
	for n := binding.Parent(); n != nil; n = n.Parent() {
		if n.Type() == "conditional_access_expression" {
			if c := n.ChildByFieldName("condition"); c != nil {
				return c
			}
			return n.NamedChild(0)
		}
	}
	return nil
}

func (m *Model) arguments(call *sitter.Node) []argType {
	list := call.ChildByFieldName("arguments")
	if list == nil {
		list = parser.ChildOfType(call, "argument_list")
	}
	args := make([]argType, 0)
	if list == nil {
		return args
	}
	for i := range int(list.NamedChildCount()) {
		arg := list.NamedChild(i)
		if arg.Type() != "argument" {
			continue
		}
		var t argType
		if n := arg.NamedChildCount(); n > 0 {
			expr := arg.NamedChild(int(n) - 1)
			if lit := literalType(expr.Type()); lit != "" {
				t = lit
			} else if name, ok := m.typeOf(expr); ok {
				t = name
			}
		}
		args = append(args, t)
	}
	return args
}

func (m *Model) enclosingTypes(node *sitter.Node) []*typeInfo {
	var out []*typeInfo
	for d, ok := syntax.EnclosingType(m.tree, node); ok; d, ok = d.EnclosingType() {
		if info := m.index.byFullName[qualifiedName(d)]; info != nil {
			out = append(out, info)
		}
	}
	return out
}

func (m *Model) namespaceOf(node *sitter.Node) string {
	if d, ok := syntax.EnclosingType(m.tree, node); ok {
		return d.Namespace()
	}
	return ""
}

func (m *Model) resolveUnqualified(call *sitter.Node, name string, args []argType) (member, bool) {
	if _, ok := m.findLocal(call, name); ok {
		return member{}, false
	}
	for _, info := range m.enclosingTypes(call) {
		if target, ok := m.index.lookupMember(info, name, args); ok {
			return target, true
		}
	}
	return m.globalUnique(name, args)
}

func (m *Model) resolveMember(call, receiver *sitter.Node, name string, args []argType) (member, bool) {
	if receiver == nil || name == "" {
		return member{}, false
	}

	switch receiver.Type() {
	case "this_expression", "this":
		if types := m.enclosingTypes(call); len(types) > 0 {
			return m.index.lookupMember(types[0], name, args)
		}
		return member{}, false
	case "base_expression", "base":
		types := m.enclosingTypes(call)
		if len(types) == 0 {
			return member{}, false
		}
		for _, b := range types[0].bases {
			if info := m.index.lookupType(b, types[0].namespace); info != nil {
				if target, ok := m.index.lookupMember(info, name, args); ok {
					return target, true
				}
			}
		}
		return member{}, false
	}

	typeName, determined := m.typeOf(receiver)
	if !determined {
		return m.globalUnique(name, args)
	}
	if info := m.index.lookupType(typeName, m.namespaceOf(call)); info != nil {
		if target, ok := m.index.lookupMember(info, name, args); ok {
			return target, true
		}
	}
	return pickOverload(m.index.extensions[name], args)
}

// globalUnique binds a call whose receiver type is unknown to the only
// applicable member with that name anywhere in the solution.
func (m *Model) globalUnique(name string, args []argType) (member, bool) {
	applicable := applicableOverloads(m.index.members[name], len(args))
	for _, c := range m.index.extensions[name] {
		if c.arity.Accepts(len(args)) {
			applicable = append(applicable, c)
		}
	}
	if len(applicable) != 1 {
		return member{}, false
	}
	return applicable[0], true
}

// typeOf infers the simple type name of an expression. The second result is
// false when inference failed; a true result with an empty or unindexed name
// means the type lies outside the solution.
func (m *Model) typeOf(expr *sitter.Node) (string, bool) {
	if expr == nil {
		return "", false
	}
	if lit := literalType(expr.Type()); lit != "" && lit != "null" {
		return lit, true
	}

	switch expr.Type() {
	case "identifier":
		return m.typeOfIdentifier(expr)
	case "generic_name", "qualified_name", "predefined_type":
		return normalizeTypeName(m.tree.Text(expr)), true
	case "this_expression", "this":
		if types := m.enclosingTypes(expr); len(types) > 0 {
			return types[0].name, true
		}
	case "base_expression", "base":
		if types := m.enclosingTypes(expr); len(types) > 0 && len(types[0].bases) > 0 {
			return types[0].bases[0], true
		}
	case "member_access_expression":
		return m.typeOfMemberAccess(expr)
	case "invocation_expression":
		if target, ok := m.resolveInvocation(expr); ok && target.typeName != "" {
			return target.typeName, true
		}
		if m.callsExternal(expr) {
			return "", true
		}
	case "object_creation_expression", "cast_expression", "array_creation_expression":
		if t := expr.ChildByFieldName("type"); t != nil {
			return normalizeTypeName(m.tree.Text(t)), true
		}
	case "as_expression":
		if t := expr.ChildByFieldName("right"); t != nil {
			return normalizeTypeName(m.tree.Text(t)), true
		}
	case "parenthesized_expression":
		return m.typeOf(expr.NamedChild(0))
	}
	return "", false
}

// callsExternal reports whether call is x.M(...) on a receiver whose type
// is known to lie outside the solution, with no extension method named M.
func (m *Model) callsExternal(call *sitter.Node) bool {
	fn := call.ChildByFieldName("function")
	if fn == nil || fn.Type() != "member_access_expression" {
		return false
	}
	owner, ok := m.typeOf(fn.ChildByFieldName("expression"))
	if !ok || m.index.lookupType(owner, m.namespaceOf(call)) != nil {
		return false
	}
	return len(m.index.extensions[m.simpleName(fn.ChildByFieldName("name"))]) == 0
}

func (m *Model) typeOfMemberAccess(expr *sitter.Node) (string, bool) {
	owner, ok := m.typeOf(expr.ChildByFieldName("expression"))
	if !ok {
		return "", false
	}
	name := m.simpleName(expr.ChildByFieldName("name"))
	ns := m.namespaceOf(expr)
	info := m.index.lookupType(owner, ns)
	if info == nil {
		return "", true
	}
	if target, ok := m.index.lookupMember(info, name, nil); ok {
		return target.typeName, true
	}
	if nested := m.index.lookupType(name, ns); nested != nil {
		return nested.name, true
	}
	return "", true
}

// typeOfIdentifier looks the name up as a local or parameter, then as a
// member of the enclosing types, then as a type name for static access.
// Anything else is treated as external.
func (m *Model) typeOfIdentifier(id *sitter.Node) (string, bool) {
	name := m.tree.Text(id)

	if l, ok := m.findLocal(id, name); ok {
		switch {
		case l.function:
			return "", false
		case l.typ != nil && m.tree.Text(l.typ) != "var":
			return normalizeTypeName(m.tree.Text(l.typ)), true
		case l.init != nil:
			return m.typeOf(l.init)
		}
		return "", false
	}

	for _, info := range m.enclosingTypes(id) {
		if target, ok := m.index.lookupMember(info, name, nil); ok {
			return target.typeName, true
		}
	}

	if info := m.index.lookupType(name, m.namespaceOf(id)); info != nil {
		return info.name, true
	}
	return "", true
}
