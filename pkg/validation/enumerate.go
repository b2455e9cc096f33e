package validation

import (
	"context"
	"iter"

	"github.com/panbanda/tombstone/pkg/parser"
	"github.com/panbanda/tombstone/pkg/semantic"
	"github.com/panbanda/tombstone/pkg/syntax"
)

// Declarations yields the declarations of the context's document whose kind
// is in category, in document order. Public declarations are left out when
// the context ignores public members. Each call walks the tree again.
//
// On cancellation the sequence yields ctx.Err() once and stops.
func Declarations(ctx context.Context, sc *SyntaxContext, category syntax.Category) iter.Seq2[syntax.Declaration, error] {
	return func(yield func(syntax.Declaration, error) bool) {
		if sc == nil || sc.tree == nil {
			yield(syntax.Declaration{}, ErrNilContext)
			return
		}
		root, err := sc.tree.Root(ctx)
		if err != nil {
			yield(syntax.Declaration{}, err)
			return
		}
		for node := range parser.Descendants(root) {
			if err := ctx.Err(); err != nil {
				yield(syntax.Declaration{}, err)
				return
			}
			decl, ok := syntax.DeclarationAt(sc.tree, node)
			if !ok || !category.Has(decl.Kind()) {
				continue
			}
			if sc.IgnorePublicMembers() && syntax.VisibilityOf(decl) == syntax.VisibilityPublic {
				continue
			}
			if !yield(decl, nil) {
				return
			}
		}
	}
}

// referenceSource is one document searched for references.
type referenceSource struct {
	tree  *syntax.Tree
	model semantic.Resolver
}

// ReferencedDeclarations scans every reference node whose kind is in
// refCategory, across the context's document and every other document in
// its scope, and yields the declaration each one resolves to when that
// declaration's kind is in declCategory. A declaration is yielded once per
// reference to it.
//
// References that resolve to nothing, to a symbol without a declaring
// location, or to a location outside the analyzed trees are skipped.
func ReferencedDeclarations(
	ctx context.Context,
	sc *SyntaxContext,
	declCategory, refCategory syntax.Category,
) iter.Seq2[syntax.Declaration, error] {
	return func(yield func(syntax.Declaration, error) bool) {
		if sc == nil || sc.tree == nil || sc.model == nil {
			yield(syntax.Declaration{}, ErrNilContext)
			return
		}
		sources, err := referenceSources(ctx, sc)
		if err != nil {
			yield(syntax.Declaration{}, err)
			return
		}
		for _, src := range sources {
			if !scanReferences(ctx, src, declCategory, refCategory, yield) {
				return
			}
		}
	}
}

// referenceSources lists the context's own document first, then every
// other document of the scope that has both a tree and a resolver.
func referenceSources(ctx context.Context, sc *SyntaxContext) ([]referenceSource, error) {
	sources := []referenceSource{{tree: sc.tree, model: sc.model}}
	if sc.scope == nil {
		return sources, nil
	}
	seen := map[uint64]bool{sc.tree.ID(): true}
	for _, doc := range sc.scope.Documents() {
		tree, err := doc.SyntaxTree(ctx)
		if err != nil {
			return nil, err
		}
		if tree == nil || seen[tree.ID()] {
			continue
		}
		model, err := doc.SemanticModel(ctx)
		if err != nil {
			return nil, err
		}
		if model == nil {
			continue
		}
		seen[tree.ID()] = true
		sources = append(sources, referenceSource{tree: tree, model: model})
	}
	return sources, nil
}

// scanReferences reports false when iteration must stop.
func scanReferences(
	ctx context.Context,
	src referenceSource,
	declCategory, refCategory syntax.Category,
	yield func(syntax.Declaration, error) bool,
) bool {
	root, err := src.tree.Root(ctx)
	if err != nil {
		yield(syntax.Declaration{}, err)
		return false
	}
	for node := range parser.Descendants(root) {
		if err := ctx.Err(); err != nil {
			yield(syntax.Declaration{}, err)
			return false
		}
		if !refCategory.Has(syntax.KindOf(node.Type())) {
			continue
		}

		sym, err := src.model.SymbolInfo(ctx, node)
		if err != nil {
			yield(syntax.Declaration{}, err)
			return false
		}
		if sym == nil || len(sym.Locations) == 0 || !sym.Locations[0].InSource() {
			continue
		}

		loc := sym.Locations[0]
		if _, err := loc.Tree.Root(ctx); err != nil {
			yield(syntax.Declaration{}, err)
			return false
		}
		decl, ok := syntax.DeclarationFor(loc.Tree, loc.Tree.FindNode(loc.Span))
		if !ok || !declCategory.Has(decl.Kind()) {
			continue
		}
		if !yield(decl, nil) {
			return false
		}
	}
	return true
}
