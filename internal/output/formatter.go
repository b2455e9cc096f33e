package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	toon "github.com/toon-format/toon-go"
)

// Format is a report output format.
type Format string

const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatTOON     Format = "toon"
	FormatMarkdown Format = "markdown"
)

var formatAliases = map[string]Format{
	"json":     FormatJSON,
	"toon":     FormatTOON,
	"markdown": FormatMarkdown,
	"md":       FormatMarkdown,
}

// ParseFormat maps a flag or config value to a Format. Unknown names fall
// back to text.
func ParseFormat(s string) Format {
	if f, ok := formatAliases[strings.ToLower(s)]; ok {
		return f
	}
	return FormatText
}

// Structured reports whether f collects results instead of streaming lines.
func (f Format) Structured() bool {
	return f != FormatText
}

// Renderable is anything the Formatter can write.
type Renderable interface {
	RenderText(w io.Writer, colored bool) error
	RenderMarkdown(w io.Writer) error
	// RenderData returns the value encoded by the JSON and TOON formats.
	RenderData() any
}

// Formatter writes Renderables in one format to stdout or a file.
type Formatter struct {
	format  Format
	out     io.Writer
	closer  io.Closer
	colored bool
}

// NewFormatter opens a formatter. An empty path writes to stdout; otherwise
// the file is created and color is turned off.
func NewFormatter(format Format, path string, colored bool) (*Formatter, error) {
	if path == "" {
		return NewWriterFormatter(format, os.Stdout, colored), nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create output file: %w", err)
	}
	return &Formatter{format: format, out: f, closer: f}, nil
}

// NewWriterFormatter creates a formatter writing to w. The caller owns w.
func NewWriterFormatter(format Format, w io.Writer, colored bool) *Formatter {
	return &Formatter{format: format, out: w, colored: colored}
}

func (f *Formatter) Format() Format    { return f.format }
func (f *Formatter) Writer() io.Writer { return f.out }
func (f *Formatter) Colored() bool     { return f.colored }

// Close closes the output file, if the formatter opened one.
func (f *Formatter) Close() error {
	if f.closer == nil {
		return nil
	}
	err := f.closer.Close()
	f.closer = nil
	return err
}

// Output renders r.
func (f *Formatter) Output(r Renderable) error {
	switch f.format {
	case FormatJSON:
		enc := json.NewEncoder(f.out)
		enc.SetIndent("", "  ")
		return enc.Encode(r.RenderData())
	case FormatTOON:
		data, err := toon.Marshal(r.RenderData(), toon.WithIndent(2))
		if err != nil {
			return fmt.Errorf("encode toon: %w", err)
		}
		_, err = fmt.Fprintf(f.out, "%s\n", data)
		return err
	case FormatMarkdown:
		return r.RenderMarkdown(f.out)
	default:
		return r.RenderText(f.out, f.colored)
	}
}

// Table is a titled grid with an optional totals row.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
	Footer  []string
}

// RenderData returns one map per row, keyed by header.
func (t *Table) RenderData() any {
	rows := make([]map[string]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		m := make(map[string]string, len(t.Headers))
		for i, cell := range row {
			if i < len(t.Headers) {
				m[t.Headers[i]] = cell
			}
		}
		rows = append(rows, m)
	}
	return rows
}

// RenderText draws the table without borders. Headers are upper-cased by
// tablewriter.
func (t *Table) RenderText(w io.Writer, colored bool) error {
	if t.Title != "" {
		title := color.New(color.Bold)
		if !colored {
			title.DisableColor()
		}
		title.Fprintln(w, t.Title)
		fmt.Fprintf(w, "%s\n\n", strings.Repeat("=", len(t.Title)))
	}

	left := tw.CellAlignment{Global: tw.AlignLeft}
	table := tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Header: tw.CellConfig{Alignment: left, Formatting: tw.CellFormatting{AutoFormat: tw.On}},
			Row:    tw.CellConfig{Alignment: left},
			Footer: tw.CellConfig{Alignment: left},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders:  tw.Border{Left: tw.Off, Right: tw.Off, Top: tw.Off, Bottom: tw.Off},
			Settings: tw.Settings{Separators: tw.Separators{BetweenColumns: tw.Off}},
		}),
	)
	table.Header(t.Headers)
	if err := table.Bulk(t.Rows); err != nil {
		return err
	}
	if len(t.Footer) > 0 {
		footer := make([]any, 0, len(t.Footer))
		for _, cell := range t.Footer {
			footer = append(footer, cell)
		}
		table.Footer(footer...)
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w)
	return err
}

// RenderMarkdown writes a GitHub table. Cells are escaped so verbatim
// declarations stay in one cell.
func (t *Table) RenderMarkdown(w io.Writer) error {
	if t.Title != "" {
		fmt.Fprintf(w, "## %s\n\n", t.Title)
	}
	writeRow := func(cells []string) {
		fmt.Fprintf(w, "| %s |\n", strings.Join(cells, " | "))
	}
	writeRow(t.Headers)
	rule := make([]string, len(t.Headers))
	for i := range rule {
		rule[i] = "---"
	}
	writeRow(rule)
	for _, row := range t.Rows {
		writeRow(escapeCells(row))
	}
	if len(t.Footer) > 0 {
		writeRow(t.Footer)
	}
	_, err := fmt.Fprintln(w)
	return err
}

var cellEscaper = strings.NewReplacer("|", `\|`, "\r\n", " ", "\n", " ")

func escapeCells(row []string) []string {
	out := make([]string, len(row))
	for i, cell := range row {
		out[i] = cellEscaper.Replace(cell)
	}
	return out
}
