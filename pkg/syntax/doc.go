// Package syntax provides a C#-aware view over tree-sitter trees: stable
// document trees, node kinds and categories, declarations with positional
// identity, and the modifier/visibility classifier.
//
// Declarations are never built on their own. They are read-only views into
// an already parsed Tree and are obtained with DeclarationAt or DeclarationFor:
//
//	tree := syntax.NewTree(result)
//	for node := range parser.Descendants(tree.RootNode()) {
//	    if decl, ok := syntax.DeclarationAt(tree, node); ok {
//	        fmt.Println(decl.Name(), syntax.VisibilityOf(decl))
//	    }
//	}
package syntax
