package validation

import (
	"context"
	"log/slog"

	"github.com/panbanda/tombstone/pkg/syntax"
)

// MemberRule flags fields, properties and events that no invocation in the
// solution resolves to. Only call-shaped references count: a field that is
// read or assigned but never invoked is still flagged.
type MemberRule struct {
	logger *slog.Logger
}

// NewMemberRule creates the rule. A nil logger discards findings.
func NewMemberRule(logger *slog.Logger) *MemberRule {
	return &MemberRule{logger: loggerOrDiscard(logger)}
}

func (r *MemberRule) Name() string { return "unused-member" }

func (r *MemberRule) Validate(ctx context.Context, sc *SyntaxContext) error {
	return unusedCheck{
		kind:         DiagnosticMember,
		declarations: syntax.CategoryMember,
		references:   syntax.CategoryInvocation,
		logger:       r.logger,
	}.run(ctx, sc)
}
