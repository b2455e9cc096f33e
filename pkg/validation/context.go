// Package validation finds declarations in a C# solution that nothing
// references. Rules run per document through a Pipeline; the Executor
// drives the pipeline over every document of a workspace.Solution.
package validation

import (
	"slices"

	"github.com/panbanda/tombstone/pkg/semantic"
	"github.com/panbanda/tombstone/pkg/syntax"
	"github.com/panbanda/tombstone/pkg/workspace"
)

// SyntaxContext is the per-document analysis state shared by the rules of
// one pipeline run.
type SyntaxContext struct {
	project  *workspace.Project
	document *workspace.Document
	tree     *syntax.Tree
	model    semantic.Resolver
	scope    *workspace.Solution

	isLibrary   bool
	diagnostics []DiagnosticMessage
}

// NewSyntaxContext bundles a document with its tree and resolver. scope is
// the solution searched for references; a nil scope limits the search to the
// document itself.
func NewSyntaxContext(
	project *workspace.Project,
	document *workspace.Document,
	tree *syntax.Tree,
	model semantic.Resolver,
	scope *workspace.Solution,
) *SyntaxContext {
	return &SyntaxContext{
		project:   project,
		document:  document,
		tree:      tree,
		model:     model,
		scope:     scope,
		isLibrary: project != nil && project.OutputKind() == workspace.OutputLibrary,
	}
}

func (sc *SyntaxContext) Project() *workspace.Project   { return sc.project }
func (sc *SyntaxContext) Document() *workspace.Document { return sc.document }
func (sc *SyntaxContext) Tree() *syntax.Tree            { return sc.tree }
func (sc *SyntaxContext) Model() semantic.Resolver      { return sc.model }
func (sc *SyntaxContext) Scope() *workspace.Solution    { return sc.scope }

// IsLibrary reports whether the project builds a library.
func (sc *SyntaxContext) IsLibrary() bool { return sc.isLibrary }

// IgnorePublicMembers reports whether public declarations are exempt. A
// library's public surface may be used by code outside the solution.
func (sc *SyntaxContext) IgnorePublicMembers() bool { return sc.isLibrary }

// ReportDiagnostic records a finding for this document.
func (sc *SyntaxContext) ReportDiagnostic(msg DiagnosticMessage) {
	sc.diagnostics = append(sc.diagnostics, msg)
}

// Diagnostics returns the findings reported so far, in report order.
func (sc *SyntaxContext) Diagnostics() []DiagnosticMessage {
	return slices.Clone(sc.diagnostics)
}
