package syntax

import (
	"context"
	"sort"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"
	"github.com/panbanda/tombstone/pkg/parser"
	sitter "github.com/smacker/go-tree-sitter"
)

// Span is a half-open byte range within a tree's source.
type Span struct {
	Start uint32
	End   uint32
}

// SpanOf returns the byte span of a node.
func SpanOf(node *sitter.Node) Span {
	return Span{Start: node.StartByte(), End: node.EndByte()}
}

// Contains reports whether s fully covers other.
func (s Span) Contains(other Span) bool {
	return s.Start <= other.Start && other.End <= s.End
}

// Tree is a parsed document. Its ID is derived from the document path and is
// stable for the lifetime of a run.
type Tree struct {
	id         uint64
	path       string
	source     []byte
	tree       *sitter.Tree
	lineStarts []int
}

// NewTree wraps a parse result.
func NewTree(result *parser.ParseResult) *Tree {
	return &Tree{
		id:         xxhash.Sum64String(result.Path),
		path:       result.Path,
		source:     result.Source,
		tree:       result.Tree,
		lineStarts: lineStarts(result.Source),
	}
}

func lineStarts(source []byte) []int {
	starts := []int{0}
	for i, b := range source {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// ID returns the tree identity used in declaration keys.
func (t *Tree) ID() uint64 { return t.id }

// Path returns the document path.
func (t *Tree) Path() string { return t.path }

// Source returns the raw document text.
func (t *Tree) Source() []byte { return t.source }

// RootNode returns the root node without a cancellation check.
func (t *Tree) RootNode() *sitter.Node {
	return t.tree.RootNode()
}

// Root returns the root node, failing if ctx is already done.
func (t *Tree) Root(ctx context.Context) (*sitter.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return t.tree.RootNode(), nil
}

// Text returns the verbatim source text of node.
func (t *Tree) Text(node *sitter.Node) string {
	return parser.NodeText(node, t.source)
}

// SpanText returns the verbatim source text covered by span.
func (t *Tree) SpanText(span Span) string {
	if span.Start > span.End || int(span.End) > len(t.source) {
		return ""
	}
	return string(t.source[span.Start:span.End])
}

// FindNode returns the smallest named node whose span covers span, or nil if
// span lies outside the tree.
func (t *Tree) FindNode(span Span) *sitter.Node {
	node := t.tree.RootNode()
	if node == nil || !SpanOf(node).Contains(span) {
		return nil
	}

	for {
		next := (*sitter.Node)(nil)
		for i := range int(node.NamedChildCount()) {
			child := node.NamedChild(i)
			if child != nil && SpanOf(child).Contains(span) {
				next = child
				break
			}
		}
		if next == nil {
			return node
		}
		node = next
	}
}

// Position converts a byte offset to a 1-based line and column. Columns count
// UTF-16 code units.
func (t *Tree) Position(offset uint32) (line, column int) {
	off := int(offset)
	if off > len(t.source) {
		off = len(t.source)
	}
	idx := sort.Search(len(t.lineStarts), func(i int) bool { return t.lineStarts[i] > off }) - 1
	if idx < 0 {
		idx = 0
	}

	units := 0
	for prefix := t.source[t.lineStarts[idx]:off]; len(prefix) > 0; {
		r, size := utf8.DecodeRune(prefix)
		n := utf16.RuneLen(r)
		if n < 0 {
			n = 1
		}
		units += n
		prefix = prefix[size:]
	}
	return idx + 1, units + 1
}

// Close releases the underlying tree-sitter tree.
func (t *Tree) Close() {
	if t.tree != nil {
		t.tree.Close()
	}
}
