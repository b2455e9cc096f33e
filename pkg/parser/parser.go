// Package parser wraps tree-sitter's C# grammar and provides the node
// traversal helpers the syntax and semantic packages build on.
package parser

import (
	"context"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/csharp"
)

// Language identifies a source grammar.
type Language string

const (
	LangCSharp  Language = "csharp"
	LangUnknown Language = "unknown"
)

// DetectLanguage maps a file extension to a Language. C# scripts (.csx)
// share the C# grammar.
func DetectLanguage(path string) Language {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cs", ".csx":
		return LangCSharp
	}
	return LangUnknown
}

func grammar(lang Language) (*sitter.Language, error) {
	if lang == LangCSharp {
		return csharp.GetLanguage(), nil
	}
	return nil, fmt.Errorf("unsupported language: %s", lang)
}

// Parser owns a tree-sitter parser. It is not safe for concurrent use; the
// file pool gives every worker its own.
type Parser struct {
	ts *sitter.Parser
}

// ParseResult is one parsed document. The caller closes Tree.
type ParseResult struct {
	Tree     *sitter.Tree
	Language Language
	Source   []byte
	Path     string
}

func New() *Parser {
	return &Parser{ts: sitter.NewParser()}
}

// Close releases the underlying tree-sitter parser.
func (p *Parser) Close() {
	p.ts.Close()
}

// ParseFile reads path and parses it with the grammar its extension selects.
func (p *Parser) ParseFile(ctx context.Context, path string) (*ParseResult, error) {
	lang := DetectLanguage(path)
	if lang == LangUnknown {
		return nil, fmt.Errorf("%s: unsupported language", path)
	}
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read source: %w", err)
	}
	return p.Parse(ctx, source, lang, path)
}

// Parse parses source as lang. Cancelling ctx aborts the parse.
func (p *Parser) Parse(ctx context.Context, source []byte, lang Language, path string) (*ParseResult, error) {
	g, err := grammar(lang)
	if err != nil {
		return nil, err
	}
	p.ts.SetLanguage(g)
	tree, err := p.ts.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &ParseResult{Tree: tree, Language: lang, Source: source, Path: path}, nil
}

// Descendants returns a pre-order iterator over node and its descendants.
// Iteration stops as soon as yield returns false.
func Descendants(node *sitter.Node) iter.Seq[*sitter.Node] {
	return func(yield func(*sitter.Node) bool) {
		descend(node, yield)
	}
}

func descend(node *sitter.Node, yield func(*sitter.Node) bool) bool {
	if node == nil {
		return true
	}
	if !yield(node) {
		return false
	}
	for child := range Children(node) {
		if !descend(child, yield) {
			return false
		}
	}
	return true
}

// Walk visits node and its descendants in pre-order. Returning false from
// visit skips that node's subtree but not its siblings.
func Walk(node *sitter.Node, visit func(*sitter.Node) bool) {
	if node == nil || !visit(node) {
		return
	}
	for child := range Children(node) {
		Walk(child, visit)
	}
}

// Children iterates over the direct children of node, named or not.
func Children(node *sitter.Node) iter.Seq[*sitter.Node] {
	return func(yield func(*sitter.Node) bool) {
		if node == nil {
			return
		}
		for i := range int(node.ChildCount()) {
			if child := node.Child(i); child != nil && !yield(child) {
				return
			}
		}
	}
}

// FindNodesByType collects every node of nodeType under root, root included.
func FindNodesByType(root *sitter.Node, nodeType string) []*sitter.Node {
	var out []*sitter.Node
	for n := range Descendants(root) {
		if n.Type() == nodeType {
			out = append(out, n)
		}
	}
	return out
}

// NodeText returns the source text of node, or "" for a nil node or a span
// outside source.
func NodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	start, end := node.StartByte(), node.EndByte()
	if start > end || int(end) > len(source) {
		return ""
	}
	return string(source[start:end])
}

// ChildOfType returns the first direct child of nodeType.
func ChildOfType(node *sitter.Node, nodeType string) *sitter.Node {
	for child := range Children(node) {
		if child.Type() == nodeType {
			return child
		}
	}
	return nil
}

// ChildrenOfType returns every direct child of nodeType in source order.
func ChildrenOfType(node *sitter.Node, nodeType string) []*sitter.Node {
	var out []*sitter.Node
	for child := range Children(node) {
		if child.Type() == nodeType {
			out = append(out, child)
		}
	}
	return out
}
