package scanner

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"github.com/panbanda/tombstone/pkg/config"
	"github.com/panbanda/tombstone/pkg/parser"
)

// matcher applies gitignore patterns relative to base.
type matcher struct {
	base string
	m    gitignore.Matcher
}

// Scanner finds C# sources and project files in a directory tree.
type Scanner struct {
	config   *config.Config
	matchers []matcher
	loaded   map[string]bool
}

// NewScanner creates a new file scanner.
func NewScanner(cfg *config.Config) *Scanner {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Scanner{config: cfg, loaded: make(map[string]bool)}
}

// findGitRoot finds the root of the git repository by looking for .git directory.
// Returns empty string if not in a git repository.
func findGitRoot(start string) string {
	dir := start
	for {
		gitDir := filepath.Join(dir, ".git")
		if info, err := os.Stat(gitDir); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadExcludePatterns loads exclusion patterns from both config and .gitignore files.
// Config patterns are rooted at root; .gitignore patterns at the git root.
func (s *Scanner) loadExcludePatterns(root string) {
	if s.loaded[root] {
		return
	}
	s.loaded[root] = true

	var patterns []gitignore.Pattern
	for _, pattern := range s.config.Exclude.Patterns {
		patterns = append(patterns, gitignore.ParsePattern(pattern, nil))
	}
	if len(patterns) > 0 {
		s.matchers = append(s.matchers, matcher{base: root, m: gitignore.NewMatcher(patterns)})
	}

	if !s.config.Exclude.Gitignore {
		return
	}
	gitRoot := findGitRoot(root)
	if gitRoot == "" || s.loaded["git:"+gitRoot] {
		return
	}
	s.loaded["git:"+gitRoot] = true
	if gitPatterns, err := gitignore.ReadPatterns(osfs.New(gitRoot), nil); err == nil && len(gitPatterns) > 0 {
		s.matchers = append(s.matchers, matcher{base: gitRoot, m: gitignore.NewMatcher(gitPatterns)})
	}
}

// isExcluded checks if an absolute path matches any exclusion pattern.
func (s *Scanner) isExcluded(path string, isDir bool) bool {
	for _, m := range s.matchers {
		rel, err := filepath.Rel(m.base, path)
		if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
			continue
		}
		if m.m.Match(strings.Split(rel, string(filepath.Separator)), isDir) {
			return true
		}
	}
	return false
}

func absRoot(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}

// ScanSources returns the C# files under root in lexical order. Excluded
// directories, gitignored paths, generated files and every directory listed
// in skip (typically the directories of other projects) are left out.
// Symlinks that escape root are not followed.
func (s *Scanner) ScanSources(root string, skip ...string) ([]string, error) {
	base, err := absRoot(root)
	if err != nil {
		return nil, err
	}
	s.loadExcludePatterns(base)

	skipped := make(map[string]bool, len(skip))
	for _, dir := range skip {
		if abs, err := absRoot(dir); err == nil {
			skipped[abs] = true
		}
	}

	files := make([]string, 0, 256)
	walkErr := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			resolved, err := filepath.EvalSymlinks(path)
			if err != nil || !isWithinRoot(resolved, base) {
				return nil
			}
		}

		if d.IsDir() {
			if path == base {
				return nil
			}
			if skipped[path] || s.config.IsExcludedDir(d.Name()) || s.isExcluded(path, true) {
				return filepath.SkipDir
			}
			return nil
		}

		if parser.DetectLanguage(path) != parser.LangCSharp || s.isExcluded(path, false) {
			return nil
		}
		rel, _ := filepath.Rel(base, path)
		if s.config.ShouldExclude(rel) {
			return nil
		}
		files = append(files, path)
		return nil
	})

	sort.Strings(files)
	return files, walkErr
}

// FindFiles returns files under root whose extension is ext (for example
// ".csproj"), in lexical order. Excluded directories are not entered.
func (s *Scanner) FindFiles(root, ext string) ([]string, error) {
	base, err := absRoot(root)
	if err != nil {
		return nil, err
	}
	s.loadExcludePatterns(base)

	var found []string
	walkErr := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != base && (s.config.IsExcludedDir(d.Name()) || s.isExcluded(path, true)) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ext) {
			found = append(found, path)
		}
		return nil
	})

	sort.Strings(found)
	return found, walkErr
}

// isWithinRoot checks if a path is contained within the root directory.
// Returns false if the path escapes via symlinks or relative paths.
func isWithinRoot(path, root string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}

	absPath = filepath.Clean(absPath)
	root = filepath.Clean(root)

	// Add separator to prevent "/root2" matching "/root"
	return absPath == root || strings.HasPrefix(absPath, root+string(filepath.Separator))
}
