package main

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/alnah/go-mathocr/internal/config"
)

// envPrefix marks the environment variables read by mathocr.
const envPrefix = "MATHOCR_"

// envConfig holds configuration from environment variables.
// Provides CI-friendly overrides without requiring YAML files.
type envConfig struct {
	ConfigPath string   // MATHOCR_CONFIG: config file name or path
	Kind       string   // MATHOCR_KIND: input kind
	Targets    []string // MATHOCR_TARGETS: comma-separated targets
	OutputDir  string   // MATHOCR_OUTPUT_DIR: default output directory
	AssetPath  string   // MATHOCR_ASSET_PATH: custom asset directory
	Workers    int      // MATHOCR_WORKERS: parallel workers
}

// knownEnvVars lists valid MATHOCR_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	"MATHOCR_CONFIG":     true,
	"MATHOCR_KIND":       true,
	"MATHOCR_TARGETS":    true,
	"MATHOCR_OUTPUT_DIR": true,
	"MATHOCR_ASSET_PATH": true,
	"MATHOCR_WORKERS":    true,
	"MATHOCR_CONTAINER":  true, // read by doctor
}

// loadEnvConfig reads configuration from environment variables.
// Malformed numbers are ignored.
func loadEnvConfig() *envConfig {
	cfg := &envConfig{
		ConfigPath: os.Getenv("MATHOCR_CONFIG"),
		Kind:       os.Getenv("MATHOCR_KIND"),
		OutputDir:  os.Getenv("MATHOCR_OUTPUT_DIR"),
		AssetPath:  os.Getenv("MATHOCR_ASSET_PATH"),
	}

	if targets := os.Getenv("MATHOCR_TARGETS"); targets != "" {
		for field := range strings.SplitSeq(targets, ",") {
			if field = strings.TrimSpace(field); field != "" {
				cfg.Targets = append(cfg.Targets, field)
			}
		}
	}

	if workers := os.Getenv("MATHOCR_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil && w > 0 {
			cfg.Workers = w
		}
	}

	return cfg
}

// unknownEnvVars returns the sorted names of unrecognized MATHOCR_* variables.
func unknownEnvVars() []string {
	var names []string
	for _, env := range os.Environ() {
		name, _, _ := strings.Cut(env, "=")
		if strings.HasPrefix(name, envPrefix) && !knownEnvVars[name] {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

// warnUnknownEnvVars writes a warning for each unrecognized MATHOCR_* variable.
// Helps catch typos like MATHOCR_TARGET instead of MATHOCR_TARGETS.
func warnUnknownEnvVars(w io.Writer) {
	for _, name := range unknownEnvVars() {
		fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
	}
}

// applyEnvConfig overrides config values with the environment variables
// that are set. CLI flags are applied afterwards by mergeFlags, giving:
// CLI flags > env vars > config file > defaults.
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	if env.Kind != "" {
		cfg.Input.Kind = env.Kind
	}
	if len(env.Targets) > 0 {
		cfg.Output.Targets = env.Targets
	}
	if env.OutputDir != "" {
		cfg.Output.DefaultDir = env.OutputDir
	}
	if env.AssetPath != "" {
		cfg.Assets.BasePath = env.AssetPath
	}
	if env.Workers > 0 {
		cfg.Workers = env.Workers
	}
}
