package syntax

import (
	"strings"

	"github.com/panbanda/tombstone/pkg/parser"
)

// Modifier is a set of non-visibility keyword flags.
type Modifier uint16

const (
	ModifierNone     Modifier = 0
	ModifierAbstract Modifier = 1 << (iota - 1)
	ModifierAsync
	ModifierConst
	ModifierEvent
	ModifierExtern
	ModifierOverride
	ModifierReadOnly
	ModifierSealed
	ModifierStatic
	ModifierUnsafe
	ModifierVirtual
	ModifierVolatile
)

var modifierKeywords = map[string]Modifier{
	"abstract": ModifierAbstract,
	"async":    ModifierAsync,
	"const":    ModifierConst,
	"event":    ModifierEvent,
	"extern":   ModifierExtern,
	"override": ModifierOverride,
	"readonly": ModifierReadOnly,
	"sealed":   ModifierSealed,
	"static":   ModifierStatic,
	"unsafe":   ModifierUnsafe,
	"virtual":  ModifierVirtual,
	"volatile": ModifierVolatile,
}

// Has reports whether all flags in m2 are set.
func (m Modifier) Has(m2 Modifier) bool { return m&m2 == m2 }

// Visibility is an access-level flag set.
type Visibility uint8

const (
	VisibilityNone      Visibility = 0
	VisibilityPublic    Visibility = 1
	VisibilityProtected Visibility = 2
	VisibilityInternal  Visibility = 4
	VisibilityPrivate   Visibility = 8

	VisibilityProtectedInternal = VisibilityProtected | VisibilityInternal
	VisibilityPrivateProtected  = VisibilityPrivate | VisibilityProtected
)

var visibilityKeywords = map[string]Visibility{
	"public":    VisibilityPublic,
	"protected": VisibilityProtected,
	"internal":  VisibilityInternal,
	"private":   VisibilityPrivate,
}

func (v Visibility) String() string {
	switch v {
	case VisibilityNone:
		return "None"
	case VisibilityPublic:
		return "Public"
	case VisibilityProtected:
		return "Protected"
	case VisibilityInternal:
		return "Internal"
	case VisibilityPrivate:
		return "Private"
	case VisibilityProtectedInternal:
		return "ProtectedInternal"
	case VisibilityPrivateProtected:
		return "PrivateProtected"
	}
	var parts []string
	for _, f := range []Visibility{VisibilityPublic, VisibilityProtected, VisibilityInternal, VisibilityPrivate} {
		if v&f != 0 {
			parts = append(parts, f.String())
		}
	}
	return strings.Join(parts, "|")
}

// ModifierTokens returns the declaration's modifier keywords as written.
func (d Declaration) ModifierTokens() []string {
	nodes := parser.ChildrenOfType(d.node, "modifier")
	tokens := make([]string, 0, len(nodes))
	for _, n := range nodes {
		tokens = append(tokens, strings.TrimSpace(d.tree.Text(n)))
	}
	return tokens
}

// ModifiersOf folds the recognized modifier keywords of decl into a set.
func ModifiersOf(decl Declaration) Modifier {
	return foldModifiers(decl.ModifierTokens())
}

func foldModifiers(tokens []string) Modifier {
	var m Modifier
	for _, tok := range tokens {
		m |= modifierKeywords[tok]
	}
	return m
}

// VisibilityOf returns the union of decl's written access keywords, or its
// default visibility when none are written.
func VisibilityOf(decl Declaration) Visibility {
	if v := foldVisibility(decl.ModifierTokens()); v != VisibilityNone {
		return v
	}
	return DefaultVisibility(decl)
}

func foldVisibility(tokens []string) Visibility {
	var v Visibility
	for _, tok := range tokens {
		v |= visibilityKeywords[tok]
	}
	return v
}

// DefaultVisibility is the access level C# assigns when none is written,
// keyed by the declaration kind and the kind of its container. Every type
// kind, enums and records included, is private when nested in a type and
// internal otherwise. Neither rule enumerates types, so this only shows
// through VisibilityOf.
func DefaultVisibility(decl Declaration) Visibility {
	parent := KindUnknown
	if c, ok := decl.Container(); ok {
		parent = c.Kind()
	}
	return defaultVisibility(decl.Kind(), parent)
}

func defaultVisibility(kind, parent Kind) Visibility {
	switch {
	case kind == KindInterface:
		return VisibilityInternal
	case kind.IsType():
		if typeContainers.Has(parent) {
			return VisibilityPrivate
		}
		return VisibilityInternal
	case kind == KindEnumMember:
		if parent == KindEnum {
			return VisibilityPublic
		}
	case CategoryMethod.Has(kind) || CategoryMember.Has(kind):
		switch parent {
		case KindClass, KindStruct:
			return VisibilityPrivate
		case KindInterface:
			return VisibilityPublic
		}
	}
	return VisibilityNone
}
