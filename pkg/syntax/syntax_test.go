package syntax

import (
	"context"
	"testing"

	"github.com/panbanda/tombstone/pkg/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseTree(t *testing.T, path, src string) *Tree {
	t.Helper()
	p := parser.New()
	defer p.Close()

	result, err := p.Parse(context.Background(), []byte(src), parser.LangCSharp, path)
	require.NoError(t, err)
	tree := NewTree(result)
	t.Cleanup(tree.Close)
	return tree
}

func declarations(tree *Tree, category Category) []Declaration {
	var out []Declaration
	for node := range parser.Descendants(tree.RootNode()) {
		if d, ok := DeclarationAt(tree, node); ok && category.Has(d.Kind()) {
			out = append(out, d)
		}
	}
	return out
}

func findDecl(t *testing.T, tree *Tree, name string) Declaration {
	t.Helper()
	for _, d := range declarations(tree, CategoryMemberDeclaration) {
		if d.Name() == name {
			return d
		}
	}
	t.Fatalf("declaration %q not found", name)
	return Declaration{}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		nodeType string
		want     Kind
	}{
		{"class_declaration", KindClass},
		{"record_declaration", KindRecord},
		{"method_declaration", KindMethod},
		{"field_declaration", KindField},
		{"event_field_declaration", KindEvent},
		{"event_declaration", KindEvent},
		{"invocation_expression", KindInvocation},
		{"identifier", KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.nodeType, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.nodeType))
		})
	}
}

func TestCategory(t *testing.T) {
	assert.True(t, CategoryMember.Has(KindField))
	assert.True(t, CategoryMember.Has(KindProperty))
	assert.True(t, CategoryMember.Has(KindEvent))
	assert.False(t, CategoryMember.Has(KindMethod))
	assert.True(t, CategoryMethod.Has(KindMethod))
	assert.False(t, CategoryMethod.Has(KindConstructor))
	assert.True(t, CategoryMemberDeclaration.Has(KindEnumMember))
	assert.False(t, CategoryMemberDeclaration.Has(KindInvocation))
	assert.False(t, CategoryMemberDeclaration.Has(KindUnknown))
	assert.True(t, KindDelegate.IsType())
	assert.Equal(t, "Method", KindMethod.String())
}

func TestVisibilityOf_ExplicitUnion(t *testing.T) {
	tree := parseTree(t, "A.cs", `
class A {
    protected internal void One() { }
    internal protected void Two() { }
    private protected void Three() { }
    public void Four() { }
    public static readonly int Five;
}`)

	tests := []struct {
		name string
		want Visibility
	}{
		{"One", VisibilityProtectedInternal},
		{"Two", VisibilityProtectedInternal},
		{"Three", VisibilityPrivateProtected},
		{"Four", VisibilityPublic},
		{"Five", VisibilityPublic},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, VisibilityOf(findDecl(t, tree, tt.name)))
		})
	}
}

func TestVisibilityOf_Defaults(t *testing.T) {
	tree := parseTree(t, "Defaults.cs", `
namespace App {
    class Outer {
        class Nested { }
        delegate void Handler();
        int field;
        int Prop { get; set; }
        void Method() { }
        event System.Action Changed;
    }
    struct Point {
        int x;
    }
    interface IShape {
        void Draw();
        int Sides { get; }
    }
    enum Color { Red, Green }
    delegate void TopLevel();
}`)

	tests := []struct {
		name string
		want Visibility
	}{
		{"Outer", VisibilityInternal},
		{"Nested", VisibilityPrivate},
		{"Handler", VisibilityPrivate},
		{"field", VisibilityPrivate},
		{"Prop", VisibilityPrivate},
		{"Method", VisibilityPrivate},
		{"Changed", VisibilityPrivate},
		{"Point", VisibilityInternal},
		{"x", VisibilityPrivate},
		{"IShape", VisibilityInternal},
		{"Draw", VisibilityPublic},
		{"Sides", VisibilityPublic},
		{"Color", VisibilityInternal},
		{"Red", VisibilityPublic},
		{"TopLevel", VisibilityInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := findDecl(t, tree, tt.name)
			assert.Equal(t, tt.want, VisibilityOf(d))
			assert.Equal(t, tt.want, DefaultVisibility(d))
		})
	}
}

func TestVisibilityOf_ModifiersDoNotTriggerDefault(t *testing.T) {
	tree := parseTree(t, "A.cs", `class A { static void Helper() { } public static void Api() { } }`)

	helper := findDecl(t, tree, "Helper")
	assert.Equal(t, VisibilityPrivate, VisibilityOf(helper))
	assert.Equal(t, ModifierStatic, ModifiersOf(helper))

	api := findDecl(t, tree, "Api")
	assert.Equal(t, VisibilityPublic, VisibilityOf(api))
}

func TestDefaultVisibilityTable(t *testing.T) {
	tests := []struct {
		kind, parent Kind
		want         Visibility
	}{
		{KindInterface, KindClass, VisibilityInternal},
		{KindInterface, KindNamespace, VisibilityInternal},
		{KindClass, KindStruct, VisibilityPrivate},
		{KindDelegate, KindNamespace, VisibilityInternal},
		{KindEnum, KindUnknown, VisibilityInternal},
		{KindEnum, KindClass, VisibilityPrivate},
		{KindEnumMember, KindEnum, VisibilityPublic},
		{KindField, KindStruct, VisibilityPrivate},
		{KindEvent, KindInterface, VisibilityPublic},
		{KindMethod, KindRecord, VisibilityNone},
		{KindConstructor, KindClass, VisibilityNone},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String()+"/"+tt.parent.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, defaultVisibility(tt.kind, tt.parent))
		})
	}
}

func TestModifiersOf(t *testing.T) {
	tree := parseTree(t, "M.cs", `
abstract class M {
    public abstract void A();
    protected virtual async System.Threading.Tasks.Task B() { }
    public override string ToString() { return ""; }
    private static volatile int c;
    const int D = 1;
    public void Plain() { }
}`)

	tests := []struct {
		name string
		want Modifier
	}{
		{"A", ModifierAbstract},
		{"B", ModifierVirtual | ModifierAsync},
		{"ToString", ModifierOverride},
		{"c", ModifierStatic | ModifierVolatile},
		{"D", ModifierConst},
		{"Plain", ModifierNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ModifiersOf(findDecl(t, tree, tt.name)))
		})
	}

	assert.Equal(t, ModifierNone, foldModifiers([]string{"public", "partial", "new"}))
	assert.Equal(t, ModifierSealed|ModifierExtern|ModifierUnsafe|ModifierReadOnly|ModifierEvent,
		foldModifiers([]string{"sealed", "extern", "unsafe", "readonly", "event", "bogus"}))
}

func TestMethodSignature(t *testing.T) {
	tree := parseTree(t, "S.cs", `
class S {
    public void Method(int value = 10) { }
    public override void Example() { }
    private static string Join(string sep, params string[] parts) => "";
}`)

	assert.Equal(t, "Method(int value = 10)", MethodSignature(findDecl(t, tree, "Method")))
	assert.Equal(t, "Example()", MethodSignature(findDecl(t, tree, "Example")))
	assert.Equal(t, "Join(string sep, params string[] parts)", MethodSignature(findDecl(t, tree, "Join")))
}

func TestArityOf(t *testing.T) {
	tree := parseTree(t, "S.cs", `
class S {
    void None() { }
    void Opt(int a, int b = 2) { }
    void Var(int a, params int[] rest) { }
}`)

	none := ArityOf(findDecl(t, tree, "None"))
	assert.True(t, none.Accepts(0))
	assert.False(t, none.Accepts(1))

	opt := ArityOf(findDecl(t, tree, "Opt"))
	assert.Equal(t, Arity{Required: 1, Total: 2}, opt)
	assert.True(t, opt.Accepts(1))
	assert.True(t, opt.Accepts(2))
	assert.False(t, opt.Accepts(3))

	variadic := ArityOf(findDecl(t, tree, "Var"))
	assert.True(t, variadic.Variadic)
	assert.False(t, variadic.Accepts(0))
	assert.True(t, variadic.Accepts(5))
}

func TestParameters(t *testing.T) {
	tree := parseTree(t, "S.cs", `
class S {
    void Sum(params int[] xs) { }
    void Mixed(string m, int level = 0, params object[] rest) { }
}`)

	sum := Parameters(findDecl(t, tree, "Sum"))
	require.Len(t, sum, 1)
	assert.True(t, sum[0].Variadic)
	assert.Nil(t, sum[0].Node)
	assert.Equal(t, "params int[] xs", tree.SpanText(sum[0].Span))
	assert.Equal(t, "int[]", tree.Text(sum[0].Type))
	assert.Equal(t, "xs", tree.Text(sum[0].Name))
	assert.Equal(t, "Sum(params int[] xs)", MethodSignature(findDecl(t, tree, "Sum")))

	mixed := Parameters(findDecl(t, tree, "Mixed"))
	require.Len(t, mixed, 3)
	assert.False(t, mixed[0].Optional)
	assert.True(t, mixed[1].Optional)
	assert.Equal(t, "int level = 0", tree.SpanText(mixed[1].Span))
	assert.True(t, mixed[2].Variadic)
	assert.Equal(t, "rest", tree.Text(mixed[2].Name))
	assert.Equal(t, Arity{Required: 1, Total: 2, Variadic: true}, ArityOf(findDecl(t, tree, "Mixed")))
}

func TestDeclaration_IdentityAndLocation(t *testing.T) {
	src := "class A { void Same() { } }\nclass B { void Same() { } }\n"
	tree := parseTree(t, "/src/Same.cs", src)

	methods := declarations(tree, CategoryMethod)
	require.Len(t, methods, 2)
	assert.Equal(t, methods[0].Text(), methods[1].Text())
	assert.NotEqual(t, methods[0].Key(), methods[1].Key())

	loc := methods[1].Location()
	assert.Equal(t, "/src/Same.cs", loc.Path)
	assert.Equal(t, 2, loc.Line)
	assert.Equal(t, 11, loc.Column)
}

func TestDeclarationFor(t *testing.T) {
	tree := parseTree(t, "F.cs", `class F { int a, b; void M(int p) { int local = 1; } }`)

	field := findDecl(t, tree, "a")
	names := field.DeclaratorNames()
	require.Len(t, names, 2)

	got, ok := DeclarationFor(tree, tree.FindNode(SpanOf(names[1])))
	require.True(t, ok)
	assert.Equal(t, field.Key(), got.Key())
	assert.Equal(t, KindField, got.Kind())

	method := findDecl(t, tree, "M")
	got, ok = DeclarationFor(tree, tree.FindNode(SpanOf(method.NameNode())))
	require.True(t, ok)
	assert.Equal(t, method.Key(), got.Key())

	for node := range parser.Descendants(tree.RootNode()) {
		if node.Type() == "local_declaration_statement" {
			_, ok := DeclarationFor(tree, node.NamedChild(0))
			assert.False(t, ok, "locals never climb to their method")
		}
	}
}

func TestDeclaration_Container(t *testing.T) {
	tree := parseTree(t, "C.cs", `
namespace N.Sub {
    class Outer { class Inner { void M() { } } }
}`)

	m := findDecl(t, tree, "M")
	c, ok := m.Container()
	require.True(t, ok)
	assert.Equal(t, "Inner", c.Name())
	assert.True(t, m.IsNested())

	outer := findDecl(t, tree, "Outer")
	c, ok = outer.Container()
	require.True(t, ok)
	assert.Equal(t, KindNamespace, c.Kind())
	assert.False(t, outer.IsNested())
	assert.Equal(t, "N.Sub", outer.Namespace())

	et, ok := m.EnclosingType()
	require.True(t, ok)
	assert.Equal(t, "Inner", et.Name())
}

func TestTree_Position(t *testing.T) {
	tree := parseTree(t, "U.cs", "// é😀\nclass U { }\n")

	line, col := tree.Position(0)
	assert.Equal(t, 1, line)
	assert.Equal(t, 1, col)

	// "// " (3) + é (1 unit) + 😀 (2 units)
	line, col = tree.Position(uint32(len("// é😀")))
	assert.Equal(t, 1, line)
	assert.Equal(t, 7, col)

	line, col = tree.Position(uint32(len("// é😀\nclass ")))
	assert.Equal(t, 2, line)
	assert.Equal(t, 7, col)
}

func TestTree_RootCancelled(t *testing.T) {
	tree := parseTree(t, "R.cs", "class R { }")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := tree.Root(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	root, err := tree.Root(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "compilation_unit", root.Type())
	assert.NotZero(t, tree.ID())
}
