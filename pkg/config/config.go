package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration options for tombstone.
type Config struct {
	// Analysis settings
	Analysis AnalysisConfig `koanf:"analysis"`

	// Which unused-declaration rules run
	Rules RulesConfig `koanf:"rules"`

	// File exclusion patterns
	Exclude ExcludeConfig `koanf:"exclude"`

	// Output settings
	Output OutputConfig `koanf:"output"`
}

// AnalysisConfig controls workspace loading.
type AnalysisConfig struct {
	Workers          int  `koanf:"workers"` // 0 means 2x NumCPU
	IncludeGenerated bool `koanf:"include_generated"`
}

// RulesConfig toggles the validation rules.
type RulesConfig struct {
	Methods bool `koanf:"methods"`
	Members bool `koanf:"members"`
}

// ExcludeConfig defines file exclusion patterns.
type ExcludeConfig struct {
	Patterns  []string `koanf:"patterns"`
	Dirs      []string `koanf:"dirs"`
	Gitignore bool     `koanf:"gitignore"`
}

// OutputConfig controls output formatting.
type OutputConfig struct {
	Format  string `koanf:"format"` // text, json, toon, markdown
	Color   bool   `koanf:"color"`
	Summary bool   `koanf:"summary"`
}

// GeneratedPatterns match compiler and designer output. Files matching them
// are skipped unless analysis.include_generated is set.
var GeneratedPatterns = []string{
	"*.g.cs",
	"*.g.i.cs",
	"*.designer.cs",
	"*.Designer.cs",
	"*.AssemblyInfo.cs",
	"*.AssemblyAttributes.cs",
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			Workers:          0,
			IncludeGenerated: false,
		},
		Rules: RulesConfig{
			Methods: true,
			Members: true,
		},
		Exclude: ExcludeConfig{
			Dirs: []string{
				"bin",
				"obj",
				".git",
				".vs",
				".tombstone",
				"node_modules",
				"packages",
			},
			Gitignore: true,
		},
		Output: OutputConfig{
			Format:  "text",
			Color:   true,
			Summary: false,
		},
	}
}

// WorkerCount resolves the configured worker count.
func (c *Config) WorkerCount() int {
	if c.Analysis.Workers > 0 {
		return c.Analysis.Workers
	}
	return runtime.NumCPU() * 2
}

// Load loads configuration from a file.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		parser = toml.Parser()
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		parser = toml.Parser()
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks option values that cannot be expressed in the types.
func (c *Config) Validate() error {
	switch c.Output.Format {
	case "", "text", "json", "toon", "markdown", "md":
	default:
		return fmt.Errorf("unknown output format %q", c.Output.Format)
	}
	if c.Analysis.Workers < 0 {
		return fmt.Errorf("analysis.workers must not be negative, got %d", c.Analysis.Workers)
	}
	return nil
}

// LoadOrDefault tries to load config from standard locations or returns defaults.
func LoadOrDefault() *Config {
	return LoadFromDir(".")
}

// LoadFromDir searches dir and dir/.tombstone for a config file.
func LoadFromDir(dir string) *Config {
	configNames := []string{
		"tombstone.toml",
		"tombstone.yaml",
		"tombstone.yml",
		"tombstone.json",
		".tombstone.toml",
		".tombstone.yaml",
		".tombstone.yml",
		".tombstone.json",
	}

	searchDirs := []string{dir, filepath.Join(dir, ".tombstone")}

	for _, d := range searchDirs {
		for _, name := range configNames {
			path := filepath.Join(d, name)
			if _, err := os.Stat(path); err == nil {
				cfg, err := Load(path)
				if err == nil {
					return cfg
				}
			}
		}
	}

	return DefaultConfig()
}

// ShouldExclude checks if a path should be excluded from analysis.
func (c *Config) ShouldExclude(path string) bool {
	path = filepath.Clean(path)
	sep := string(filepath.Separator)

	for _, dir := range c.Exclude.Dirs {
		if strings.Contains(path, sep+dir+sep) || strings.HasPrefix(path, dir+sep) {
			return true
		}
	}

	base := filepath.Base(path)
	for _, pattern := range c.Exclude.Patterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}

	return !c.Analysis.IncludeGenerated && IsGenerated(base)
}

// IsGenerated reports whether a file name matches GeneratedPatterns.
func IsGenerated(name string) bool {
	for _, pattern := range GeneratedPatterns {
		if matched, _ := filepath.Match(pattern, name); matched {
			return true
		}
	}
	return false
}

// IsExcludedDir reports whether a directory name is excluded.
func (c *Config) IsExcludedDir(name string) bool {
	for _, dir := range c.Exclude.Dirs {
		if dir == name {
			return true
		}
	}
	return false
}
