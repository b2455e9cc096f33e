package workspace

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar"
	"github.com/panbanda/tombstone/internal/fileproc"
	"github.com/panbanda/tombstone/internal/progress"
	"github.com/panbanda/tombstone/internal/scanner"
	"github.com/panbanda/tombstone/pkg/config"
	"github.com/panbanda/tombstone/pkg/parser"
	"github.com/panbanda/tombstone/pkg/semantic"
	"github.com/panbanda/tombstone/pkg/syntax"
)

// Option configures Load.
type Option func(*loader)

// WithConfig sets the configuration used for discovery and parsing.
func WithConfig(cfg *config.Config) Option {
	return func(l *loader) {
		if cfg != nil {
			l.cfg = cfg
		}
	}
}

// WithLogger sets the logger for load diagnostics (skipped files, counts).
func WithLogger(logger *slog.Logger) Option {
	return func(l *loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithProgress reports parsing progress to t.
func WithProgress(t func(total int) *progress.Tracker) Option {
	return func(l *loader) {
		l.newTracker = t
	}
}

type loader struct {
	cfg        *config.Config
	logger     *slog.Logger
	newTracker func(total int) *progress.Tracker
	scanner    *scanner.Scanner
}

type pendingProject struct {
	ref   projectRef
	dir   string
	info  *projectInfo
	files []string
}

// Load reads a .sln, a .csproj or a directory and returns the parsed
// solution. Every document is parsed and indexed before Load returns.
func Load(ctx context.Context, path string, opts ...Option) (*Solution, error) {
	l := &loader{
		cfg:    config.DefaultConfig(),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.scanner = scanner.NewScanner(l.cfg)

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}

	pending, err := l.resolveProjects(abs)
	if err != nil {
		return nil, err
	}
	if len(pending) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoProjects)
	}

	for i := range pending {
		files, err := l.projectFiles(pending, i)
		if err != nil {
			return nil, err
		}
		pending[i].files = files
	}

	trees, err := l.parse(ctx, pending)
	if err != nil {
		return nil, err
	}

	all := make([]*syntax.Tree, 0, len(trees))
	for _, t := range trees {
		all = append(all, t)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Path() < all[j].Path() })
	index, err := semantic.NewIndex(ctx, all...)
	if err != nil {
		return nil, err
	}

	sol := &Solution{path: abs, index: index}
	for _, p := range pending {
		project := &Project{name: p.ref.Name, path: p.ref.Path, kind: p.info.Kind}
		for _, f := range p.files {
			doc := &Document{path: f}
			if tree, ok := trees[f]; ok {
				doc.tree = tree
				doc.model = index.Model(tree)
			}
			project.documents = append(project.documents, doc)
		}
		sol.projects = append(sol.projects, project)
		l.logger.Debug("project loaded",
			slog.String("project", project.name),
			slog.String("output", project.kind.String()),
			slog.Int("documents", len(project.documents)))
	}
	return sol, nil
}

func (l *loader) resolveProjects(abs string) ([]pendingProject, error) {
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("open workspace: %w", err)
	}

	var refs []projectRef
	switch {
	case info.IsDir():
		var found bool
		refs, found, err = l.discover(abs)
		if err != nil {
			return nil, err
		}
		if !found {
			return []pendingProject{{
				ref:  projectRef{Name: filepath.Base(abs), Path: abs},
				dir:  abs,
				info: &projectInfo{Name: filepath.Base(abs), Kind: OutputExecutable, SDKStyle: true, DefaultItems: true},
			}}, nil
		}
	case strings.EqualFold(filepath.Ext(abs), ".sln"):
		refs, err = readSolution(abs)
		if err != nil {
			return nil, err
		}
	case strings.EqualFold(filepath.Ext(abs), ".csproj"):
		refs = []projectRef{{Path: abs}}
	default:
		return nil, fmt.Errorf("%s: %w", abs, ErrUnsupportedPath)
	}

	pending := make([]pendingProject, 0, len(refs))
	for _, ref := range refs {
		pi, err := readProject(ref.Path)
		if err != nil {
			return nil, err
		}
		if ref.Name == "" {
			ref.Name = pi.Name
		}
		pending = append(pending, pendingProject{ref: ref, dir: filepath.Dir(ref.Path), info: pi})
	}
	return pending, nil
}

// discover finds the solution for a directory: a .sln directly inside it,
// otherwise every .csproj beneath it. found is false when neither exists.
func (l *loader) discover(dir string) (refs []projectRef, found bool, err error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.sln"))
	if err != nil {
		return nil, false, err
	}
	if len(matches) > 0 {
		sort.Strings(matches)
		refs, err = readSolution(matches[0])
		return refs, true, err
	}

	projects, err := l.scanner.FindFiles(dir, ".csproj")
	if err != nil {
		return nil, false, fmt.Errorf("find projects: %w", err)
	}
	for _, p := range projects {
		refs = append(refs, projectRef{Path: p})
	}
	return refs, len(refs) > 0, nil
}

// projectFiles lists the documents of pending[i]: default SDK items minus
// directories owned by other projects, plus Compile includes, minus Compile
// removes.
func (l *loader) projectFiles(pending []pendingProject, i int) ([]string, error) {
	p := pending[i]
	dir := p.dir

	seen := make(map[string]bool)
	var files []string
	add := func(f string) {
		if !seen[f] {
			seen[f] = true
			files = append(files, f)
		}
	}

	if p.info.DefaultItems {
		var nested []string
		for j, other := range pending {
			if j != i && strings.HasPrefix(other.dir, dir+string(filepath.Separator)) {
				nested = append(nested, other.dir)
			}
		}
		found, err := l.scanner.ScanSources(dir, nested...)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", p.ref.Name, err)
		}
		for _, f := range found {
			add(f)
		}
	}

	for _, pattern := range p.info.Includes {
		matches, err := doublestar.Glob(filepath.ToSlash(filepath.Join(dir, pattern)))
		if err != nil {
			l.logger.Debug("invalid compile include", slog.String("project", p.ref.Name), slog.String("pattern", pattern))
			continue
		}
		for _, m := range matches {
			m = filepath.FromSlash(m)
			if parser.DetectLanguage(m) == parser.LangCSharp && !l.cfg.ShouldExclude(m) {
				add(m)
			}
		}
	}

	if len(p.info.Removes) > 0 {
		kept := files[:0]
		for _, f := range files {
			if !removed(dir, f, p.info.Removes) {
				kept = append(kept, f)
			}
		}
		files = kept
	}

	// Paths from the scanner are symlink-resolved; keep a single spelling.
	for k, f := range files {
		if resolved, err := filepath.EvalSymlinks(f); err == nil {
			files[k] = resolved
		}
	}
	sort.Strings(files)
	return dedupe(files), nil
}

func removed(dir, file string, patterns []string) bool {
	rel, err := filepath.Rel(dir, file)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

func dedupe(sorted []string) []string {
	out := sorted[:0]
	for i, s := range sorted {
		if i == 0 || s != sorted[i-1] {
			out = append(out, s)
		}
	}
	return out
}

// parse parses every distinct document once, in parallel.
func (l *loader) parse(ctx context.Context, pending []pendingProject) (map[string]*syntax.Tree, error) {
	var paths []string
	seen := make(map[string]bool)
	for _, p := range pending {
		for _, f := range p.files {
			if !seen[f] {
				seen[f] = true
				paths = append(paths, f)
			}
		}
	}

	tracker := progress.Disabled()
	if l.newTracker != nil && len(paths) > 0 {
		tracker = l.newTracker(len(paths))
	}

	results, failures := fileproc.ParseAll(ctx, paths, l.cfg.WorkerCount(), tracker.Tick)
	if err := ctx.Err(); err != nil {
		tracker.FinishError(err)
		return nil, err
	}
	tracker.FinishSuccess()

	for _, f := range failures {
		l.logger.Debug("document skipped", slog.String("file", f.Path), slog.String("error", f.Err.Error()))
	}

	trees := make(map[string]*syntax.Tree, len(results))
	for _, r := range results {
		if r != nil {
			trees[r.Path] = syntax.NewTree(r)
		}
	}
	l.logger.Debug("documents parsed", slog.Int("parsed", len(trees)), slog.Int("total", len(paths)))
	return trees, nil
}
