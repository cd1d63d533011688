// Package config loads the YAML configuration of the mathocr CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	mathocr "github.com/alnah/go-mathocr"
	"github.com/alnah/go-mathocr/internal/fileutil"
	"github.com/alnah/go-mathocr/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// Field length limits.
const (
	MaxPathLength      = 4096 // PATH_MAX on Linux
	MaxAssetNameLength = 64   // Same limit as asset name validation
	MaxTitleLength     = 200  // Document title
	MaxAuthorLength    = 100  // Full name (generous)
	MaxKindLength      = 20   // "document_scan"
	MaxTargetLength    = 20   // "mathml", "docx"
)

// userConfigDirName is the directory searched under os.UserConfigDir.
const userConfigDirName = "go-mathocr"

// Config holds all configuration for the convert command.
type Config struct {
	Input     InputConfig    `yaml:"input"`
	Output    OutputConfig   `yaml:"output"`
	Assets    AssetsConfig   `yaml:"assets"`
	Document  DocumentConfig `yaml:"document"`
	Workers   int            `yaml:"workers"`   // 0 = auto
	Normalize bool           `yaml:"normalize"` // NFC-normalize recognizer text
}

// InputConfig defines input source options.
type InputConfig struct {
	DefaultDir string `yaml:"defaultDir"` // Default input directory (empty = must specify)
	Kind       string `yaml:"kind"`       // text, formula, text_formula (default: text_formula)
}

// OutputConfig defines output destination options.
type OutputConfig struct {
	DefaultDir string   `yaml:"defaultDir"` // Default output directory (empty = same as source)
	Targets    []string `yaml:"targets"`    // latex, mathml, omml, docx, html
}

// AssetsConfig defines asset loading options.
type AssetsConfig struct {
	BasePath  string `yaml:"basePath"`  // Empty = use embedded assets
	Transform string `yaml:"transform"` // Transform rule set name (default: mml2omml)
	Style     string `yaml:"style"`     // Preview style name (default: preview)
}

// DocumentConfig defines metadata written to documents and previews.
type DocumentConfig struct {
	Title  string `yaml:"title"`  // Empty = input file name
	Author string `yaml:"author"` // Optional
}

// Validate checks field lengths and values.
// Called automatically by LoadConfig, but available for consumers
// who construct Config manually.
func (c *Config) Validate() error {
	fields := []struct {
		name  string
		value string
		max   int
	}{
		{"input.defaultDir", c.Input.DefaultDir, MaxPathLength},
		{"input.kind", c.Input.Kind, MaxKindLength},
		{"output.defaultDir", c.Output.DefaultDir, MaxPathLength},
		{"assets.basePath", c.Assets.BasePath, MaxPathLength},
		{"assets.transform", c.Assets.Transform, MaxAssetNameLength},
		{"assets.style", c.Assets.Style, MaxAssetNameLength},
		{"document.title", c.Document.Title, MaxTitleLength},
		{"document.author", c.Document.Author, MaxAuthorLength},
	}
	for _, f := range fields {
		if err := validateFieldLength(f.name, f.value, f.max); err != nil {
			return err
		}
	}

	if c.Input.Kind != "" {
		if _, err := mathocr.ParseInputKind(c.Input.Kind); err != nil {
			return fmt.Errorf("%w: input.kind: %v", ErrInvalidValue, err)
		}
	}

	for i, target := range c.Output.Targets {
		if err := validateFieldLength(fmt.Sprintf("output.targets[%d]", i), target, MaxTargetLength); err != nil {
			return err
		}
		if _, err := mathocr.ParseTarget(target); err != nil {
			return fmt.Errorf("%w: output.targets[%d]: %v", ErrInvalidValue, i, err)
		}
	}

	if c.Workers < 0 || c.Workers > mathocr.MaxPoolSize {
		return fmt.Errorf("%w: workers: must be between 0 and %d, got %d", ErrInvalidValue, mathocr.MaxPoolSize, c.Workers)
	}

	return nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// DefaultConfig returns a neutral configuration. Empty fields fall back to
// the library defaults.
func DefaultConfig() *Config {
	return &Config{}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	configPath := nameOrPath
	if !fileutil.IsFilePath(nameOrPath) {
		var err error
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := yamlutil.DecodeFile(configPath, &cfg); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		var pathErr *os.PathError
		if errors.As(err, &pathErr) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// SearchPaths returns the files LoadConfig tries for a config name, in order:
// current directory, then the user config directory, .yaml before .yml.
func SearchPaths(name string) []string {
	extensions := []string{".yaml", ".yml"}
	paths := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		paths = append(paths, name+ext)
	}

	if userConfigDir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			paths = append(paths, filepath.Join(userConfigDir, userConfigDirName, name+ext))
		}
	}

	return paths
}

// resolveConfigPath searches for a config file by name in standard locations.
func resolveConfigPath(name string) (string, error) {
	paths := SearchPaths(name)
	for _, p := range paths {
		if fileutil.FileExists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(paths, ", "))
}
