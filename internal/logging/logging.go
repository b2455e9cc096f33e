// Package logging provides the slog handlers used by tombstone: a text
// handler that prints diagnostic lines the way compilers do, and a
// collecting handler that keeps records for structured reports.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/fatih/color"
)

// LevelFatal is used for failures that halt the run before analysis.
const LevelFatal = slog.Level(12)

// Attribute keys carried by diagnostic records.
const (
	KeyFile      = "file"
	KeyLine      = "line"
	KeyColumn    = "column"
	KeyKind      = "kind"
	KeySignature = "signature"
)

// LevelName renders a level, naming LevelFatal.
func LevelName(l slog.Level) string {
	if l >= LevelFatal {
		return "FATAL"
	}
	return l.String()
}

// IsDiagnostic reports whether r carries the attributes of an unused
// declaration diagnostic.
func IsDiagnostic(r slog.Record) bool {
	found := 0
	r.Attrs(func(a slog.Attr) bool {
		switch a.Key {
		case KeyFile, KeyLine, KeyColumn, KeyKind, KeySignature:
			found++
		}
		return true
	})
	return found == 5
}

// Attrs flattens a record's attributes into a map. Later keys win.
func Attrs(r slog.Record) map[string]slog.Value {
	out := make(map[string]slog.Value, r.NumAttrs())
	r.Attrs(func(a slog.Attr) bool {
		out[a.Key] = a.Value.Resolve()
		return true
	})
	return out
}

// Options configures a TextHandler.
type Options struct {
	Level   slog.Leveler
	NoColor bool
}

// TextHandler writes diagnostic records as
//
//	<file>(<line>,<column>) <Kind> '<signature>' <message>
//
// and every other record as "LEVEL message key=value ...".
type TextHandler struct {
	mu    *sync.Mutex
	w     io.Writer
	opts  Options
	attrs []slog.Attr
	group string
}

// NewTextHandler creates a handler writing to w.
func NewTextHandler(w io.Writer, opts *Options) *TextHandler {
	h := &TextHandler{mu: &sync.Mutex{}, w: w}
	if opts != nil {
		h.opts = *opts
	}
	if h.opts.Level == nil {
		h.opts.Level = slog.LevelInfo
	}
	return h
}

func (h *TextHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level.Level()
}

func (h *TextHandler) Handle(_ context.Context, r slog.Record) error {
	if len(h.attrs) > 0 || h.group != "" {
		own := make([]slog.Attr, 0, r.NumAttrs())
		r.Attrs(func(a slog.Attr) bool {
			own = append(own, a)
			return true
		})
		merged := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
		merged.AddAttrs(h.attrs...)
		merged.AddAttrs(qualify(h.group, own)...)
		r = merged
	}

	var line string
	if IsDiagnostic(r) {
		line = h.diagnosticLine(r)
	} else {
		line = h.plainLine(r)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, line+"\n")
	return err
}

func (h *TextHandler) diagnosticLine(r slog.Record) string {
	a := Attrs(r)
	text := fmt.Sprintf("%s(%s,%s) %s '%s' %s",
		a[KeyFile].String(), a[KeyLine].String(), a[KeyColumn].String(),
		a[KeyKind].String(), a[KeySignature].String(), r.Message)
	return h.paint(text, color.FgRed)
}

func (h *TextHandler) plainLine(r slog.Record) string {
	var b strings.Builder
	b.WriteString(h.paint(LevelName(r.Level), levelColor(r.Level)))
	b.WriteByte(' ')
	b.WriteString(r.Message)
	r.Attrs(func(a slog.Attr) bool {
		fmt.Fprintf(&b, " %s=%s", a.Key, a.Value.Resolve().String())
		return true
	})
	return b.String()
}

func levelColor(l slog.Level) color.Attribute {
	switch {
	case l >= LevelFatal:
		return color.FgMagenta
	case l >= slog.LevelError:
		return color.FgRed
	case l >= slog.LevelWarn:
		return color.FgYellow
	case l >= slog.LevelInfo:
		return color.FgCyan
	default:
		return color.FgHiBlack
	}
}

func (h *TextHandler) paint(text string, attr color.Attribute) string {
	c := color.New(attr)
	if h.opts.NoColor {
		c.DisableColor()
	} else {
		c.EnableColor()
	}
	return c.Sprint(text)
}

func (h *TextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(slices.Clip(h.attrs), qualify(h.group, attrs)...)
	return &clone
}

func (h *TextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	if clone.group != "" {
		name = clone.group + "." + name
	}
	clone.group = name
	return &clone
}

func qualify(group string, attrs []slog.Attr) []slog.Attr {
	if group == "" {
		return attrs
	}
	out := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		out[i] = slog.Attr{Key: group + "." + a.Key, Value: a.Value}
	}
	return out
}

// CollectHandler keeps every enabled record in memory. Handlers derived
// with WithAttrs share the same store.
type CollectHandler struct {
	store *recordStore
	level slog.Leveler
	attrs []slog.Attr
}

type recordStore struct {
	mu      sync.Mutex
	records []slog.Record
}

// NewCollectHandler creates a collecting handler for records at or above
// level. A nil level collects everything.
func NewCollectHandler(level slog.Leveler) *CollectHandler {
	if level == nil {
		level = slog.LevelDebug
	}
	return &CollectHandler{store: &recordStore{}, level: level}
}

func (h *CollectHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *CollectHandler) Handle(_ context.Context, r slog.Record) error {
	r = r.Clone()
	r.AddAttrs(h.attrs...)
	h.store.mu.Lock()
	h.store.records = append(h.store.records, r)
	h.store.mu.Unlock()
	return nil
}

func (h *CollectHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(slices.Clip(h.attrs), attrs...)
	return &clone
}

func (h *CollectHandler) WithGroup(string) slog.Handler { return h }

// Records returns a copy of the collected records in arrival order.
func (h *CollectHandler) Records() []slog.Record {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	return slices.Clone(h.store.records)
}

// Fanout sends each record to every handler that accepts its level.
type Fanout []slog.Handler

func (f Fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f Fanout) Handle(ctx context.Context, r slog.Record) error {
	var first error
	for _, h := range f {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (f Fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(Fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f Fanout) WithGroup(name string) slog.Handler {
	out := make(Fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}

// Only forwards records accepted by keep to h. The CLI uses it to route
// diagnostics and operational logs to different handlers.
func Only(h slog.Handler, keep func(slog.Record) bool) slog.Handler {
	return &filterHandler{next: h, keep: keep}
}

type filterHandler struct {
	next slog.Handler
	keep func(slog.Record) bool
}

func (f *filterHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return f.next.Enabled(ctx, level)
}

func (f *filterHandler) Handle(ctx context.Context, r slog.Record) error {
	if !f.keep(r) {
		return nil
	}
	return f.next.Handle(ctx, r)
}

func (f *filterHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &filterHandler{next: f.next.WithAttrs(attrs), keep: f.keep}
}

func (f *filterHandler) WithGroup(name string) slog.Handler {
	return &filterHandler{next: f.next.WithGroup(name), keep: f.keep}
}
