// Package semantic resolves call-shaped references in C# syntax trees to the
// declarations they target.
//
// Resolution is name-based: an Index is built once over every tree of a
// solution, and a per-document Model answers SymbolInfo queries by looking
// at the receiver of a call (locals, parameters, fields, this/base, type
// names), the enclosing type chain with its base types, and the argument
// count and literal types. Calls whose receiver cannot be tied to a type
// declared in the solution are reported as unresolved.
package semantic

import (
	"context"

	"github.com/panbanda/tombstone/pkg/syntax"
	sitter "github.com/smacker/go-tree-sitter"
)

// Location is a declaring source location. A nil Tree means the symbol has
// no declaring tree in the analyzed set.
type Location struct {
	Tree *syntax.Tree
	Span syntax.Span
}

// InSource reports whether the location points into an analyzed tree.
func (l Location) InSource() bool { return l.Tree != nil }

// Symbol is the target of a resolved reference.
type Symbol struct {
	Name      string
	Kind      syntax.Kind
	Locations []Location
}

// Resolver maps a reference node to the symbol it targets. A nil symbol
// with a nil error means the reference is unresolved or external.
type Resolver interface {
	SymbolInfo(ctx context.Context, node *sitter.Node) (*Symbol, error)
}
