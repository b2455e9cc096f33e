package validation

import (
	"context"
	"log/slog"

	"github.com/panbanda/tombstone/pkg/syntax"
)

// MethodRule flags methods that no invocation in the solution resolves to.
// The conventional entry point, a static Main on a type named Program, is
// never flagged.
type MethodRule struct {
	logger *slog.Logger
}

// NewMethodRule creates the rule. Findings are logged to logger at error
// level; a nil logger discards them.
func NewMethodRule(logger *slog.Logger) *MethodRule {
	return &MethodRule{logger: loggerOrDiscard(logger)}
}

func (r *MethodRule) Name() string { return "unused-method" }

func (r *MethodRule) Validate(ctx context.Context, sc *SyntaxContext) error {
	return unusedCheck{
		kind:         DiagnosticMethod,
		declarations: syntax.CategoryMethod,
		references:   syntax.CategoryInvocation,
		exempt:       IsEntryPoint,
		logger:       r.logger,
	}.run(ctx, sc)
}

// IsEntryPoint reports whether decl is a static method named Main declared
// on a type named Program.
func IsEntryPoint(decl syntax.Declaration) bool {
	if decl.Kind() != syntax.KindMethod || decl.Name() != "Main" {
		return false
	}
	if !syntax.ModifiersOf(decl).Has(syntax.ModifierStatic) {
		return false
	}
	owner, ok := decl.EnclosingType()
	return ok && owner.Name() == "Program"
}
