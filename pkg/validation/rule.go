package validation

import (
	"context"
	"log/slog"

	"github.com/panbanda/tombstone/pkg/syntax"
)

// Rule is one validation step run against a SyntaxContext.
type Rule interface {
	// Name identifies the rule in errors and logs.
	Name() string

	// Validate reports findings to sc. It returns ctx.Err() when cancelled.
	Validate(ctx context.Context, sc *SyntaxContext) error
}

// unusedCheck is the shape shared by the unused-declaration rules: collect
// every referenced declaration of a category, then flag each eligible
// declaration of the document that was never referenced.
type unusedCheck struct {
	kind         DiagnosticKind
	declarations syntax.Category
	references   syntax.Category
	exempt       func(syntax.Declaration) bool
	logger       *slog.Logger
}

func (c unusedCheck) run(ctx context.Context, sc *SyntaxContext) error {
	if sc == nil {
		return ErrNilContext
	}

	used := NewUsedSet()
	for decl, err := range ReferencedDeclarations(ctx, sc, c.declarations, c.references) {
		if err != nil {
			return err
		}
		used.Add(decl)
	}

	for decl, err := range Declarations(ctx, sc, c.declarations) {
		if err != nil {
			return err
		}
		if used.Contains(decl) || (c.exempt != nil && c.exempt(decl)) {
			continue
		}
		msg := NewDiagnosticMessage(c.kind, decl)
		sc.ReportDiagnostic(msg)
		c.logger.LogAttrs(ctx, slog.LevelError, UnusedMessage, msg.Attrs()...)
	}
	return nil
}

func loggerOrDiscard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return logger
}
