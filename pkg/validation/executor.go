package validation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/panbanda/tombstone/pkg/workspace"
)

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithContextHook calls fn with each context after its pipeline run,
// including a run cut short by an error.
func WithContextHook(fn func(*SyntaxContext)) ExecutorOption {
	return func(e *Executor) {
		e.hook = fn
	}
}

// WithExecutorLogger logs skipped documents at debug level.
func WithExecutorLogger(logger *slog.Logger) ExecutorOption {
	return func(e *Executor) {
		e.logger = loggerOrDiscard(logger)
	}
}

// Executor drives a pipeline over every document of a solution: projects
// in solution order, documents in project order, one at a time.
type Executor struct {
	solution *workspace.Solution
	pipeline *Pipeline
	hook     func(*SyntaxContext)
	logger   *slog.Logger
}

// NewExecutor creates an executor for solution.
func NewExecutor(solution *workspace.Solution, pipeline *Pipeline, opts ...ExecutorOption) *Executor {
	e := &Executor{
		solution: solution,
		pipeline: pipeline,
		logger:   loggerOrDiscard(nil),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs the pipeline for each document that has both a syntax tree
// and a semantic model; other documents are skipped. The first error,
// including cancellation, stops the run.
func (e *Executor) Execute(ctx context.Context) error {
	if e.pipeline == nil {
		return ErrNilPipeline
	}
	if e.solution == nil {
		return ErrNilSolution
	}

	for _, project := range e.solution.Projects() {
		for _, doc := range project.Documents() {
			tree, err := doc.SyntaxTree(ctx)
			if err != nil {
				return err
			}
			model, err := doc.SemanticModel(ctx)
			if err != nil {
				return err
			}
			if tree == nil || model == nil {
				e.logger.Debug("document skipped", slog.String("file", doc.Path()))
				continue
			}

			sc := NewSyntaxContext(project, doc, tree, model, e.solution)
			err = e.pipeline.Execute(ctx, sc)
			if e.hook != nil {
				e.hook(sc)
			}
			if err != nil {
				return fmt.Errorf("%s: %w", doc.Path(), err)
			}
		}
	}
	return nil
}
