package output

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/fatih/color"
	"github.com/panbanda/tombstone/internal/logging"
)

// Diagnostic is one flagged declaration.
type Diagnostic struct {
	File      string `json:"file" toon:"file"`
	Line      int    `json:"line" toon:"line"`
	Column    int    `json:"column" toon:"column"`
	Kind      string `json:"kind" toon:"kind"`
	Signature string `json:"signature" toon:"signature"`
	Message   string `json:"message" toon:"message"`
}

// String renders d as a diagnostic line.
func (d Diagnostic) String() string {
	return fmt.Sprintf("%s(%d,%d) %s '%s' %s", d.File, d.Line, d.Column, d.Kind, d.Signature, d.Message)
}

// ProjectSummary counts the diagnostics of one project.
type ProjectSummary struct {
	Project   string `json:"project" toon:"project"`
	Output    string `json:"output" toon:"output"`
	Documents int    `json:"documents" toon:"documents"`
	Methods   int    `json:"methods" toon:"methods"`
	Members   int    `json:"members" toon:"members"`
}

// Report is the result of one analysis run.
type Report struct {
	Diagnostics []Diagnostic     `json:"diagnostics" toon:"diagnostics"`
	Summary     []ProjectSummary `json:"summary,omitempty" toon:"summary,omitempty"`

	// LinesWritten is set when the text handler already streamed the
	// diagnostic lines, so RenderText only prints the summary.
	LinesWritten bool `json:"-" toon:"-"`
}

// DiagnosticsFromRecords converts the diagnostic records among records,
// keeping their order. Other records are dropped.
func DiagnosticsFromRecords(records []slog.Record) []Diagnostic {
	var out []Diagnostic
	for _, r := range records {
		if !logging.IsDiagnostic(r) {
			continue
		}
		attrs := logging.Attrs(r)
		out = append(out, Diagnostic{
			File:      attrs[logging.KeyFile].String(),
			Line:      intValue(attrs[logging.KeyLine]),
			Column:    intValue(attrs[logging.KeyColumn]),
			Kind:      attrs[logging.KeyKind].String(),
			Signature: attrs[logging.KeySignature].String(),
			Message:   r.Message,
		})
	}
	return out
}

func intValue(v slog.Value) int {
	switch v.Kind() {
	case slog.KindInt64:
		return int(v.Int64())
	case slog.KindUint64:
		return int(v.Uint64())
	default:
		n, _ := strconv.Atoi(v.String())
		return n
	}
}

// Total returns the number of diagnostics.
func (r *Report) Total() int { return len(r.Diagnostics) }

// RenderData returns r for JSON and TOON serialization.
func (r *Report) RenderData() any {
	if r.Diagnostics == nil {
		// Encode an empty run as [] rather than null.
		return &Report{Diagnostics: []Diagnostic{}, Summary: r.Summary}
	}
	return r
}

func (r *Report) RenderText(w io.Writer, colored bool) error {
	if !r.LinesWritten {
		red := color.New(color.FgRed)
		if colored {
			red.EnableColor()
		} else {
			red.DisableColor()
		}
		for _, d := range r.Diagnostics {
			if _, err := red.Fprintln(w, d.String()); err != nil {
				return err
			}
		}
	}
	if len(r.Summary) == 0 {
		return nil
	}
	fmt.Fprintln(w)
	return r.summaryTable().RenderText(w, colored)
}

func (r *Report) RenderMarkdown(w io.Writer) error {
	fmt.Fprintf(w, "# Unused code\n\n")
	if len(r.Diagnostics) == 0 {
		fmt.Fprintf(w, "No unused methods or members found.\n\n")
	} else {
		t := &Table{
			Title:   "Diagnostics",
			Headers: []string{"File", "Line", "Column", "Kind", "Declaration"},
		}
		for _, d := range r.Diagnostics {
			t.Rows = append(t.Rows, []string{
				d.File,
				strconv.Itoa(d.Line),
				strconv.Itoa(d.Column),
				d.Kind,
				"`" + d.Signature + "`",
			})
		}
		if err := t.RenderMarkdown(w); err != nil {
			return err
		}
	}
	if len(r.Summary) == 0 {
		return nil
	}
	return r.summaryTable().RenderMarkdown(w)
}

func (r *Report) summaryTable() *Table {
	t := &Table{
		Title:   "Summary",
		Headers: []string{"Project", "Output", "Documents", "Methods", "Members"},
	}
	var docs, methods, members int
	for _, s := range r.Summary {
		t.Rows = append(t.Rows, []string{
			s.Project,
			s.Output,
			strconv.Itoa(s.Documents),
			strconv.Itoa(s.Methods),
			strconv.Itoa(s.Members),
		})
		docs += s.Documents
		methods += s.Methods
		members += s.Members
	}
	if len(r.Summary) > 1 {
		t.Footer = []string{"Total", "", strconv.Itoa(docs), strconv.Itoa(methods), strconv.Itoa(members)}
	}
	return t
}
