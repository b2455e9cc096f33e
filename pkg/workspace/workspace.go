// Package workspace loads C# solutions into an ordered set of projects and
// documents, each document carrying its syntax tree and semantic model.
package workspace

import (
	"context"
	"errors"
	"strings"

	"github.com/panbanda/tombstone/pkg/semantic"
	"github.com/panbanda/tombstone/pkg/syntax"
)

var (
	// ErrUnsupportedPath is returned when the input is not a .sln, a .csproj
	// or a directory.
	ErrUnsupportedPath = errors.New("unsupported workspace path")

	// ErrNoProjects is returned when a solution resolves to zero projects.
	ErrNoProjects = errors.New("no projects found")
)

// OutputKind is a project's declared build output.
type OutputKind int

const (
	OutputLibrary OutputKind = iota
	OutputExecutable
	OutputModule
)

func (k OutputKind) String() string {
	switch k {
	case OutputExecutable:
		return "executable"
	case OutputModule:
		return "module"
	default:
		return "library"
	}
}

// ParseOutputKind maps an MSBuild OutputType value. An empty value is the
// MSBuild default, Library.
func ParseOutputKind(outputType string) OutputKind {
	switch strings.ToLower(strings.TrimSpace(outputType)) {
	case "exe", "winexe", "appcontainerexe":
		return OutputExecutable
	case "module":
		return OutputModule
	default:
		return OutputLibrary
	}
}

// Solution is the analysis source: projects in solution order.
type Solution struct {
	path     string
	projects []*Project
	index    *semantic.Index
}

// NewSolution assembles a solution from already built projects.
func NewSolution(path string, projects ...*Project) *Solution {
	return &Solution{path: path, projects: projects}
}

// Path returns the solution descriptor path.
func (s *Solution) Path() string { return s.path }

// Projects returns the projects in solution order.
func (s *Solution) Projects() []*Project { return s.projects }

// Index returns the semantic index shared by every document, if built.
func (s *Solution) Index() *semantic.Index { return s.index }

// Documents returns every document of every project, in project order.
func (s *Solution) Documents() []*Document {
	var docs []*Document
	for _, p := range s.projects {
		docs = append(docs, p.documents...)
	}
	return docs
}

// Close releases all syntax trees.
func (s *Solution) Close() {
	for _, d := range s.Documents() {
		if d.tree != nil {
			d.tree.Close()
		}
	}
}

// Project is one project of a solution.
type Project struct {
	name      string
	path      string
	kind      OutputKind
	documents []*Document
}

// NewProject creates a project holding docs in order.
func NewProject(name, path string, kind OutputKind, docs ...*Document) *Project {
	return &Project{name: name, path: path, kind: kind, documents: docs}
}

// Name returns the project name.
func (p *Project) Name() string { return p.name }

// Path returns the project file path.
func (p *Project) Path() string { return p.path }

// OutputKind returns the declared output kind.
func (p *Project) OutputKind() OutputKind { return p.kind }

// Documents returns the project's documents in order.
func (p *Project) Documents() []*Document { return p.documents }

// Document is one source file. Its tree or model is nil when the file could
// not be read or parsed.
type Document struct {
	path  string
	tree  *syntax.Tree
	model semantic.Resolver
}

// NewDocument creates a document. tree and model may be nil.
func NewDocument(path string, tree *syntax.Tree, model semantic.Resolver) *Document {
	return &Document{path: path, tree: tree, model: model}
}

// Path returns the document path.
func (d *Document) Path() string { return d.path }

// SyntaxTree returns the document tree, or nil if it is unavailable.
func (d *Document) SyntaxTree(ctx context.Context) (*syntax.Tree, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return d.tree, nil
}

// SemanticModel returns the document resolver, or nil if it is unavailable.
func (d *Document) SemanticModel(ctx context.Context) (semantic.Resolver, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if d.model == nil {
		return nil, nil
	}
	return d.model, nil
}
