package main

import (
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"
	"github.com/panbanda/tombstone/internal/logging"
	"github.com/panbanda/tombstone/internal/output"
	"github.com/panbanda/tombstone/internal/progress"
	"github.com/panbanda/tombstone/pkg/config"
	"github.com/panbanda/tombstone/pkg/validation"
	"github.com/panbanda/tombstone/pkg/workspace"
	"github.com/urfave/cli/v2"
)

// afterDocument, when set, runs after each analyzed document.
var afterDocument func(*validation.SyntaxContext)

// loadConfig reads --config when given, otherwise searches the directory
// holding path.
func loadConfig(c *cli.Context, path string) (*config.Config, error) {
	if file := c.String("config"); file != "" {
		return config.Load(file)
	}
	dir := path
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		dir = filepath.Dir(path)
	}
	return config.LoadFromDir(dir), nil
}

func runAnalyze(c *cli.Context, path string) error {
	cfg, err := loadConfig(c, path)
	if err != nil {
		return err
	}

	formatName := cfg.Output.Format
	if c.IsSet("format") {
		formatName = c.String("format")
	}
	format := output.ParseFormat(formatName)
	colored := cfg.Output.Color && !c.Bool("no-color") && !color.NoColor
	summary := cfg.Output.Summary || c.Bool("summary")

	var formatter *output.Formatter
	if file := c.String("output"); file != "" {
		formatter, err = output.NewFormatter(format, file, colored)
		if err != nil {
			return err
		}
		colored = formatter.Colored()
	} else {
		formatter = output.NewWriterFormatter(format, c.App.Writer, colored)
	}
	defer formatter.Close()

	level := slog.LevelInfo
	if c.Bool("verbose") {
		level = slog.LevelDebug
	}

	// Diagnostics go to the report; everything else goes to stderr.
	collect := logging.NewCollectHandler(slog.LevelError)
	var diagnostics slog.Handler = collect
	if !format.Structured() {
		diagnostics = logging.NewTextHandler(formatter.Writer(), &logging.Options{NoColor: !colored})
	}
	logger := slog.New(logging.Fanout{
		logging.Only(diagnostics, logging.IsDiagnostic),
		logging.Only(
			logging.NewTextHandler(c.App.ErrWriter, &logging.Options{Level: level, NoColor: !colored}),
			func(r slog.Record) bool { return !logging.IsDiagnostic(r) },
		),
	})

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []workspace.Option{workspace.WithConfig(cfg), workspace.WithLogger(logger)}
	if !c.Bool("no-progress") {
		opts = append(opts, workspace.WithProgress(func(total int) *progress.Tracker {
			return progress.NewTrackerTo(c.App.ErrWriter, "Loading documents", total)
		}))
	}

	sol, err := workspace.Load(ctx, path, opts...)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		logger.LogAttrs(ctx, logging.LevelFatal, "workspace failed to load",
			slog.String("path", path), slog.String("error", err.Error()))
		return errFatal
	}
	defer sol.Close()

	summaries := newSummaryCollector()
	exec := validation.NewExecutor(sol, buildPipeline(cfg, logger),
		validation.WithContextHook(func(sc *validation.SyntaxContext) {
			summaries.observe(sc)
			if afterDocument != nil {
				afterDocument(sc)
			}
		}),
		validation.WithExecutorLogger(logger),
	)
	// An interrupted run still reports what it found so far.
	if err := exec.Execute(ctx); err != nil && ctx.Err() == nil {
		logger.LogAttrs(ctx, logging.LevelFatal, "analysis failed", slog.String("error", err.Error()))
		return errFatal
	}

	report := &output.Report{LinesWritten: !format.Structured()}
	if format.Structured() {
		report.Diagnostics = output.DiagnosticsFromRecords(collect.Records())
	}
	if summary {
		report.Summary = summaries.projects(sol)
	}
	if !format.Structured() && !summary {
		return nil
	}
	return formatter.Output(report)
}

// buildPipeline keeps the method rule ahead of the member rule; disabled
// rules are left out.
func buildPipeline(cfg *config.Config, logger *slog.Logger) *validation.Pipeline {
	var rules []validation.Rule
	if cfg.Rules.Methods {
		rules = append(rules, validation.NewMethodRule(logger))
	}
	if cfg.Rules.Members {
		rules = append(rules, validation.NewMemberRule(logger))
	}
	return validation.NewPipeline(rules...)
}

type summaryCollector struct {
	byProject map[*workspace.Project]*output.ProjectSummary
}

func newSummaryCollector() *summaryCollector {
	return &summaryCollector{byProject: make(map[*workspace.Project]*output.ProjectSummary)}
}

func (s *summaryCollector) observe(sc *validation.SyntaxContext) {
	project := sc.Project()
	sum, ok := s.byProject[project]
	if !ok {
		sum = &output.ProjectSummary{Project: project.Name(), Output: project.OutputKind().String()}
		s.byProject[project] = sum
	}
	sum.Documents++
	for _, d := range sc.Diagnostics() {
		switch d.Kind() {
		case validation.DiagnosticMethod:
			sum.Methods++
		case validation.DiagnosticMember:
			sum.Members++
		}
	}
}

// projects returns one summary per project in solution order, including
// projects with no analyzed documents.
func (s *summaryCollector) projects(sol *workspace.Solution) []output.ProjectSummary {
	out := make([]output.ProjectSummary, 0, len(sol.Projects()))
	for _, project := range sol.Projects() {
		if sum, ok := s.byProject[project]; ok {
			out = append(out, *sum)
			continue
		}
		out = append(out, output.ProjectSummary{Project: project.Name(), Output: project.OutputKind().String()})
	}
	return out
}
