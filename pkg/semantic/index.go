package semantic

import (
	"context"
	"strings"

	"github.com/panbanda/tombstone/pkg/parser"
	"github.com/panbanda/tombstone/pkg/syntax"
	sitter "github.com/smacker/go-tree-sitter"
)

// typeInfo merges every partial declaration of one type.
type typeInfo struct {
	name      string
	fullName  string
	namespace string
	decls     []syntax.Declaration
	bases     []string
	members   map[string][]member
}

type member struct {
	decl     syntax.Declaration
	name     *sitter.Node
	typeName string
	arity    syntax.Arity
	params   []string

	// extension is set for static methods whose first parameter is "this T".
	extension bool
}

func (m member) symbol() *Symbol {
	return &Symbol{
		Name: m.decl.Tree().Text(m.name),
		Kind: m.decl.Kind(),
		Locations: []Location{{
			Tree: m.decl.Tree(),
			Span: syntax.SpanOf(m.name),
		}},
	}
}

// Index is the solution-wide symbol table. It is built once from every
// parsed tree and is read-only afterwards, so models may share it.
type Index struct {
	types      map[string][]*typeInfo
	byFullName map[string]*typeInfo
	members    map[string][]member
	extensions map[string][]member
	trees      map[uint64]*syntax.Tree
}

// NewIndex builds an index over trees.
func NewIndex(ctx context.Context, trees ...*syntax.Tree) (*Index, error) {
	idx := &Index{
		types:      make(map[string][]*typeInfo),
		byFullName: make(map[string]*typeInfo),
		members:    make(map[string][]member),
		extensions: make(map[string][]member),
		trees:      make(map[uint64]*syntax.Tree, len(trees)),
	}
	for _, tree := range trees {
		root, err := tree.Root(ctx)
		if err != nil {
			return nil, err
		}
		idx.trees[tree.ID()] = tree
		idx.addTree(tree, root)
	}
	return idx, nil
}

// Tree returns the indexed tree with the given ID.
func (idx *Index) Tree(id uint64) *syntax.Tree {
	return idx.trees[id]
}

// Model returns the resolver for one document.
func (idx *Index) Model(tree *syntax.Tree) *Model {
	return &Model{index: idx, tree: tree}
}

func (idx *Index) addTree(tree *syntax.Tree, root *sitter.Node) {
	for node := range parser.Descendants(root) {
		decl, ok := syntax.DeclarationAt(tree, node)
		if !ok {
			continue
		}
		switch decl.Kind() {
		case syntax.KindClass, syntax.KindStruct, syntax.KindInterface, syntax.KindRecord, syntax.KindEnum:
			idx.addType(decl)
		}
	}
}

func (idx *Index) addType(decl syntax.Declaration) {
	full := qualifiedName(decl)
	info, ok := idx.byFullName[full]
	if !ok {
		info = &typeInfo{
			name:      decl.Name(),
			fullName:  full,
			namespace: decl.Namespace(),
			members:   make(map[string][]member),
		}
		idx.byFullName[full] = info
		idx.types[info.name] = append(idx.types[info.name], info)
	}
	info.decls = append(info.decls, decl)
	info.bases = append(info.bases, baseNames(decl)...)

	body := decl.Node().ChildByFieldName("body")
	if body == nil {
		body = parser.ChildOfType(decl.Node(), "declaration_list")
	}
	if body == nil {
		return
	}
	for i := range int(body.NamedChildCount()) {
		md, ok := syntax.DeclarationAt(decl.Tree(), body.NamedChild(i))
		if !ok {
			continue
		}
		switch md.Kind() {
		case syntax.KindMethod, syntax.KindField, syntax.KindProperty, syntax.KindEvent:
		default:
			continue
		}
		for _, m := range newMembers(md) {
			name := md.Tree().Text(m.name)
			info.members[name] = append(info.members[name], m)
			idx.members[name] = append(idx.members[name], m)
			if m.extension {
				idx.extensions[name] = append(idx.extensions[name], m.receiverForm())
			}
		}
	}
}

func newMembers(decl syntax.Declaration) []member {
	typeName := ""
	if t := decl.TypeNode(); t != nil {
		typeName = normalizeTypeName(decl.Tree().Text(t))
	}
	static := syntax.ModifiersOf(decl).Has(syntax.ModifierStatic)

	if decl.Kind() != syntax.KindMethod {
		var out []member
		for _, name := range decl.DeclaratorNames() {
			out = append(out, member{decl: decl, name: name, typeName: typeName})
		}
		return out
	}

	m := member{
		decl:     decl,
		name:     decl.NameNode(),
		typeName: typeName,
		arity:    syntax.ArityOf(decl),
	}
	if m.name == nil {
		return nil
	}
	for i, p := range syntax.Parameters(decl) {
		written := decl.Tree().Text(p.Type)
		if p.Variadic {
			// Arguments bind to the element type.
			written = strings.TrimSuffix(strings.TrimSpace(written), "[]")
		}
		m.params = append(m.params, normalizeTypeName(written))
		if i == 0 && static && p.Node != nil && isExtensionParameter(decl.Tree(), p.Node) {
			m.extension = true
		}
	}
	return []member{m}
}

// receiverForm returns an extension method as seen through "x.Method(...)",
// where the first parameter is bound to x rather than to an argument.
func (m member) receiverForm() member {
	m.arity.Required--
	m.arity.Total--
	m.params = m.params[1:]
	return m
}

func isExtensionParameter(tree *syntax.Tree, param *sitter.Node) bool {
	for i := range int(param.ChildCount()) {
		child := param.Child(i)
		switch child.Type() {
		case "this", "parameter_modifier", "modifier":
			if strings.TrimSpace(tree.Text(child)) == "this" {
				return true
			}
		}
	}
	return false
}

func qualifiedName(decl syntax.Declaration) string {
	parts := []string{decl.Name()}
	for t, ok := decl.EnclosingType(); ok; t, ok = t.EnclosingType() {
		parts = append(parts, t.Name())
	}
	if ns := decl.Namespace(); ns != "" {
		parts = append(parts, ns)
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, ".")
}

func baseNames(decl syntax.Declaration) []string {
	list := decl.Node().ChildByFieldName("bases")
	if list == nil {
		list = parser.ChildOfType(decl.Node(), "base_list")
	}
	if list == nil {
		return nil
	}
	var names []string
	for i := range int(list.NamedChildCount()) {
		child := list.NamedChild(i)
		// Primary constructor calls on records: "record B(int X) : A(X)".
		if child.Type() == "primary_constructor_base_type" {
			if t := child.NamedChild(0); t != nil {
				child = t
			}
		}
		if child.Type() == "argument_list" {
			continue
		}
		if name := normalizeTypeName(decl.Tree().Text(child)); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// lookupType finds a type by simple name, preferring one in namespace.
func (idx *Index) lookupType(name, namespace string) *typeInfo {
	candidates := idx.types[name]
	if len(candidates) == 0 {
		return nil
	}
	for _, c := range candidates {
		if c.namespace == namespace {
			return c
		}
	}
	return candidates[0]
}

// lookupMember searches t and then its bases, breadth first. The first
// level holding an applicable member decides, mirroring member hiding; an
// ambiguous call there does not fall through to the bases.
func (idx *Index) lookupMember(t *typeInfo, name string, args []argType) (member, bool) {
	seen := map[*typeInfo]bool{}
	level := []*typeInfo{t}
	for len(level) > 0 {
		var next []*typeInfo
		var found []member
		for _, cur := range level {
			if cur == nil || seen[cur] {
				continue
			}
			seen[cur] = true
			found = append(found, cur.members[name]...)
			for _, b := range cur.bases {
				next = append(next, idx.lookupType(b, cur.namespace))
			}
		}
		if args != nil && len(applicableOverloads(found, len(args))) > 0 {
			return pickOverload(found, args)
		}
		if m, ok := pickOverload(found, args); ok {
			return m, true
		}
		level = next
	}
	return member{}, false
}
