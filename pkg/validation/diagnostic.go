package validation

import (
	"fmt"
	"log/slog"

	"github.com/panbanda/tombstone/internal/logging"
	"github.com/panbanda/tombstone/pkg/syntax"
)

// DiagnosticKind names what a diagnostic flags.
type DiagnosticKind string

const (
	DiagnosticMethod DiagnosticKind = "Method"
	DiagnosticMember DiagnosticKind = "Member"
)

// UnusedMessage ends every diagnostic line.
const UnusedMessage = "can be removed, as it's not used."

// DiagnosticMessage is one unused declaration. Everything it renders is
// captured at construction, so it stays valid after the tree is closed.
type DiagnosticMessage struct {
	kind     DiagnosticKind
	key      syntax.Key
	location syntax.Location
	text     string
}

// NewDiagnosticMessage captures decl. Methods render as their signature,
// every other declaration as its verbatim source text.
func NewDiagnosticMessage(kind DiagnosticKind, decl syntax.Declaration) DiagnosticMessage {
	text := decl.Text()
	if decl.Kind() == syntax.KindMethod {
		text = syntax.MethodSignature(decl)
	}
	return DiagnosticMessage{
		kind:     kind,
		key:      decl.Key(),
		location: decl.Location(),
		text:     text,
	}
}

func (d DiagnosticMessage) Kind() DiagnosticKind { return d.kind }

// Key identifies the flagged declaration.
func (d DiagnosticMessage) Key() syntax.Key { return d.key }

// Location is where the flagged declaration starts.
func (d DiagnosticMessage) Location() syntax.Location { return d.location }

func (d DiagnosticMessage) String() string { return d.text }

// Line renders the diagnostic the way compilers report warnings.
func (d DiagnosticMessage) Line() string {
	return fmt.Sprintf("%s(%d,%d) %s '%s' %s",
		d.location.Path, d.location.Line, d.location.Column, d.kind, d.text, UnusedMessage)
}

// Attrs returns the structured log attributes of the diagnostic.
func (d DiagnosticMessage) Attrs() []slog.Attr {
	return []slog.Attr{
		slog.String(logging.KeyFile, d.location.Path),
		slog.Int(logging.KeyLine, d.location.Line),
		slog.Int(logging.KeyColumn, d.location.Column),
		slog.String(logging.KeyKind, string(d.kind)),
		slog.String(logging.KeySignature, d.text),
	}
}
