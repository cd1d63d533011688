package config

// Notes:
// - resolveConfigPath: only the current-directory branch is tested. The user
//   config directory depends on HOME/XDG variables, which t.Setenv would
//   change for the whole process.
// These are acceptable gaps: we test observable behavior, not implementation details.

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// TestDefaultConfig - Neutral defaults
// ---------------------------------------------------------------------------

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()

	if cfg.Input.DefaultDir != "" || cfg.Input.Kind != "" {
		t.Errorf("Input = %+v, want zero value", cfg.Input)
	}
	if cfg.Output.DefaultDir != "" || len(cfg.Output.Targets) != 0 {
		t.Errorf("Output = %+v, want zero value", cfg.Output)
	}
	if cfg.Assets.BasePath != "" {
		t.Errorf("Assets.BasePath = %q, want empty", cfg.Assets.BasePath)
	}
	if cfg.Workers != 0 {
		t.Errorf("Workers = %d, want 0", cfg.Workers)
	}
	if cfg.Normalize {
		t.Error("Normalize = true, want false")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() = %v, want nil", err)
	}
}

// ---------------------------------------------------------------------------
// TestValidateFieldLength - Length limit helper
// ---------------------------------------------------------------------------

func TestValidateFieldLength(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		value   string
		max     int
		wantErr bool
	}{
		{"empty", "", 10, false},
		{"at limit", strings.Repeat("a", 10), 10, false},
		{"over limit", strings.Repeat("a", 11), 10, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := validateFieldLength("field", tt.value, tt.max)
			if tt.wantErr {
				if !errors.Is(err, ErrFieldTooLong) {
					t.Errorf("error = %v, want ErrFieldTooLong", err)
				}
				if err != nil && !strings.Contains(err.Error(), "field (11 chars, max 10)") {
					t.Errorf("error = %q, want field name and sizes", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestConfig_Validate - Field values and lengths
// ---------------------------------------------------------------------------

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{
			name: "full valid config",
			cfg: Config{
				Input:    InputConfig{DefaultDir: "scans", Kind: "text_formula"},
				Output:   OutputConfig{DefaultDir: "out", Targets: []string{"latex", "omml", "docx"}},
				Assets:   AssetsConfig{BasePath: "assets", Transform: "mml2omml", Style: "preview"},
				Document: DocumentConfig{Title: "Homework", Author: "A. Student"},
				Workers:  4,
			},
		},
		{
			name: "hyphenated kind",
			cfg:  Config{Input: InputConfig{Kind: "text-formula"}},
		},
		{
			name: "document alias target",
			cfg:  Config{Output: OutputConfig{Targets: []string{"document"}}},
		},
		{
			name:    "unknown kind",
			cfg:     Config{Input: InputConfig{Kind: "handwriting"}},
			wantErr: ErrInvalidValue,
		},
		{
			name:    "unknown target",
			cfg:     Config{Output: OutputConfig{Targets: []string{"latex", "pdf"}}},
			wantErr: ErrInvalidValue,
		},
		{
			name:    "negative workers",
			cfg:     Config{Workers: -1},
			wantErr: ErrInvalidValue,
		},
		{
			name:    "too many workers",
			cfg:     Config{Workers: 17},
			wantErr: ErrInvalidValue,
		},
		{
			name:    "title too long",
			cfg:     Config{Document: DocumentConfig{Title: strings.Repeat("t", MaxTitleLength+1)}},
			wantErr: ErrFieldTooLong,
		},
		{
			name:    "author too long",
			cfg:     Config{Document: DocumentConfig{Author: strings.Repeat("a", MaxAuthorLength+1)}},
			wantErr: ErrFieldTooLong,
		},
		{
			name:    "transform name too long",
			cfg:     Config{Assets: AssetsConfig{Transform: strings.Repeat("x", MaxAssetNameLength+1)}},
			wantErr: ErrFieldTooLong,
		},
		{
			name:    "target too long",
			cfg:     Config{Output: OutputConfig{Targets: []string{strings.Repeat("x", MaxTargetLength+1)}}},
			wantErr: ErrFieldTooLong,
		},
		{
			name:    "kind too long",
			cfg:     Config{Input: InputConfig{Kind: strings.Repeat("k", MaxKindLength+1)}},
			wantErr: ErrFieldTooLong,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestLoadConfig - Loading from paths
// ---------------------------------------------------------------------------

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	writeConfig := func(t *testing.T, content string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "mathocr.yaml")
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("setup: %v", err)
		}
		return path
	}

	t.Run("empty name returns ErrEmptyConfigName", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfig("")
		if !errors.Is(err, ErrEmptyConfigName) {
			t.Errorf("error = %v, want ErrEmptyConfigName", err)
		}
	})

	t.Run("valid file path loads config", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, `input:
  defaultDir: "scans"
  kind: "formula"
output:
  defaultDir: "out"
  targets: [latex, docx]
assets:
  basePath: "assets"
document:
  title: "Week 3"
  author: "Jane"
workers: 2
normalize: true
`)

		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}
		if cfg.Input.DefaultDir != "scans" || cfg.Input.Kind != "formula" {
			t.Errorf("Input = %+v", cfg.Input)
		}
		if cfg.Output.DefaultDir != "out" || len(cfg.Output.Targets) != 2 || cfg.Output.Targets[1] != "docx" {
			t.Errorf("Output = %+v", cfg.Output)
		}
		if cfg.Assets.BasePath != "assets" {
			t.Errorf("Assets.BasePath = %q, want %q", cfg.Assets.BasePath, "assets")
		}
		if cfg.Document.Title != "Week 3" || cfg.Document.Author != "Jane" {
			t.Errorf("Document = %+v", cfg.Document)
		}
		if cfg.Workers != 2 {
			t.Errorf("Workers = %d, want 2", cfg.Workers)
		}
		if !cfg.Normalize {
			t.Error("Normalize = false, want true")
		}
	})

	t.Run("nonexistent file path returns ErrConfigNotFound", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("error = %v, want ErrConfigNotFound", err)
		}
	})

	t.Run("invalid YAML returns ErrConfigParse", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfig(writeConfig(t, "output: [unclosed"))
		if !errors.Is(err, ErrConfigParse) {
			t.Errorf("error = %v, want ErrConfigParse", err)
		}
	})

	t.Run("unknown field returns ErrConfigParse in strict mode", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfig(writeConfig(t, "style: professional\n"))
		if !errors.Is(err, ErrConfigParse) {
			t.Errorf("error = %v, want ErrConfigParse", err)
		}
	})

	t.Run("invalid value fails validation", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfig(writeConfig(t, "output:\n  targets: [pdf]\n"))
		if !errors.Is(err, ErrInvalidValue) {
			t.Errorf("error = %v, want ErrInvalidValue", err)
		}
	})

	t.Run("unknown name lists searched paths", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfig("no-such-mathocr-config")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Fatalf("error = %v, want ErrConfigNotFound", err)
		}
		if !strings.Contains(err.Error(), "no-such-mathocr-config.yaml") {
			t.Errorf("error = %q, want searched paths", err)
		}
	})
}

// ---------------------------------------------------------------------------
// TestSearchPaths - Lookup order
// ---------------------------------------------------------------------------

func TestSearchPaths(t *testing.T) {
	t.Parallel()

	paths := SearchPaths("work")
	if len(paths) < 2 {
		t.Fatalf("SearchPaths() = %v, want at least the local paths", paths)
	}
	if paths[0] != "work.yaml" || paths[1] != "work.yml" {
		t.Errorf("local paths = %v, want [work.yaml work.yml]", paths[:2])
	}
	for _, p := range paths[2:] {
		if !strings.Contains(p, userConfigDirName) {
			t.Errorf("user path %q does not contain %q", p, userConfigDirName)
		}
	}
}
