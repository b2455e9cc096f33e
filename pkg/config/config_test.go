package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg == nil {
		t.Fatal("DefaultConfig() returned nil")
	}
	if !cfg.Rules.Methods || !cfg.Rules.Members {
		t.Error("both rules should be enabled by default")
	}
	if cfg.Analysis.IncludeGenerated {
		t.Error("Analysis.IncludeGenerated should be false by default")
	}
	if !cfg.Exclude.Gitignore {
		t.Error("Exclude.Gitignore should be true by default")
	}
	if !cfg.IsExcludedDir("bin") || !cfg.IsExcludedDir("obj") {
		t.Error("bin and obj should be excluded by default")
	}
	if cfg.Output.Format != "text" {
		t.Errorf("Output.Format = %s, want text", cfg.Output.Format)
	}
	if !cfg.Output.Color {
		t.Error("Output.Color should be true by default")
	}
	if cfg.WorkerCount() != runtime.NumCPU()*2 {
		t.Errorf("WorkerCount() = %d, want %d", cfg.WorkerCount(), runtime.NumCPU()*2)
	}
}

func TestLoadTOML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "tombstone.toml")

	content := `
[analysis]
workers = 3
include_generated = true

[rules]
members = false

[exclude]
dirs = ["bin", "legacy"]
patterns = ["*Tests.cs"]

[output]
format = "json"
summary = true
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.WorkerCount())
	assert.True(t, cfg.Analysis.IncludeGenerated)
	assert.True(t, cfg.Rules.Methods, "unset keys keep their defaults")
	assert.False(t, cfg.Rules.Members)
	assert.Contains(t, cfg.Exclude.Dirs, "legacy")
	assert.Equal(t, []string{"*Tests.cs"}, cfg.Exclude.Patterns)
	assert.Equal(t, "json", cfg.Output.Format)
	assert.True(t, cfg.Output.Summary)
}

func TestLoadYAMLAndJSON(t *testing.T) {
	tmpDir := t.TempDir()

	yamlPath := filepath.Join(tmpDir, "tombstone.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("rules:\n  methods: false\noutput:\n  format: toon\n"), 0644))
	cfg, err := Load(yamlPath)
	require.NoError(t, err)
	assert.False(t, cfg.Rules.Methods)
	assert.Equal(t, "toon", cfg.Output.Format)

	jsonPath := filepath.Join(tmpDir, "tombstone.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"output": {"format": "markdown", "color": false}}`), 0644))
	cfg, err = Load(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, "markdown", cfg.Output.Format)
	assert.False(t, cfg.Output.Color)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load("/nonexistent/tombstone.toml")
	assert.Error(t, err)

	tmpDir := t.TempDir()
	bad := filepath.Join(tmpDir, "tombstone.toml")
	require.NoError(t, os.WriteFile(bad, []byte("[output]\nformat = \"xml\"\n"), 0644))
	_, err = Load(bad)
	assert.ErrorContains(t, err, "unknown output format")

	negative := filepath.Join(tmpDir, "neg.toml")
	require.NoError(t, os.WriteFile(negative, []byte("[analysis]\nworkers = -1\n"), 0644))
	_, err = Load(negative)
	assert.Error(t, err)
}

func TestLoadFromDir(t *testing.T) {
	tmpDir := t.TempDir()
	assert.Equal(t, DefaultConfig(), LoadFromDir(tmpDir))

	nested := filepath.Join(tmpDir, ".tombstone")
	require.NoError(t, os.MkdirAll(nested, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(nested, "tombstone.toml"), []byte("[rules]\nmembers = false\n"), 0644))

	cfg := LoadFromDir(tmpDir)
	assert.False(t, cfg.Rules.Members)
}

func TestShouldExclude(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Exclude.Patterns = []string{"*Tests.cs"}

	tests := []struct {
		path string
		want bool
	}{
		{"src/App/Service.cs", false},
		{"src/App/bin/Debug/Service.cs", true},
		{"obj/Generated.cs", true},
		{"src/App/Form1.Designer.cs", true},
		{"src/App/Api.g.cs", true},
		{"src/App/ServiceTests.cs", true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, cfg.ShouldExclude(filepath.FromSlash(tt.path)))
		})
	}

	cfg.Analysis.IncludeGenerated = true
	assert.False(t, cfg.ShouldExclude("src/App/Api.g.cs"))
	assert.True(t, cfg.ShouldExclude("src/App/ServiceTests.cs"))
}
