package validation

import (
	"context"
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrNilContext is returned when a rule or enumeration receives no
	// context, or a context without a tree or resolver.
	ErrNilContext = errors.New("validation: nil syntax context")

	// ErrNilPipeline is returned by an executor built without a pipeline.
	ErrNilPipeline = errors.New("validation: nil pipeline")

	// ErrNilSolution is returned by an executor built without a solution.
	ErrNilSolution = errors.New("validation: nil solution")
)

// Pipeline runs its rules against a context one after another.
type Pipeline struct {
	rules []Rule
}

// NewPipeline creates a pipeline running rules in the given order.
func NewPipeline(rules ...Rule) *Pipeline {
	return &Pipeline{rules: rules}
}

// Rules returns the rules in execution order.
func (p *Pipeline) Rules() []Rule { return slices.Clone(p.rules) }

// Execute runs every rule against sc in order. The first failing rule stops
// the pipeline and its error is returned.
func (p *Pipeline) Execute(ctx context.Context, sc *SyntaxContext) error {
	if p == nil {
		return ErrNilPipeline
	}
	if sc == nil {
		return ErrNilContext
	}
	for _, rule := range p.rules {
		if err := rule.Validate(ctx, sc); err != nil {
			return fmt.Errorf("%s: %w", rule.Name(), err)
		}
	}
	return nil
}
