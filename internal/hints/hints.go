// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"path/filepath"
	"strings"

	"github.com/alnah/go-mathocr/internal/fileutil"
)

// IsInContainer detects if running inside a Docker container or similar.
// Checks for /.dockerenv file which Docker creates automatically.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// ForConfigNotFound returns hints for config file not found errors.
// Suggests --config flag and creating a config in the user config directory.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"

	for _, p := range searchedPaths {
		if strings.Contains(filepath.ToSlash(p), "/go-mathocr/") {
			hint += " or create " + p
			break
		}
	}

	return format(hint)
}

// ForOutputDirectory returns hints for output directory creation errors.
func ForOutputDirectory() string {
	return format("check parent directory exists and is writable")
}

// ForTransformLoad returns hints for transform rules that failed to load.
// With a custom asset path the expected file location is named.
func ForTransformLoad(assetPath, name string) string {
	if assetPath == "" {
		return format("run 'mathocr doctor' to check the bundled transform")
	}
	return format("expected " + filepath.Join(assetPath, "transforms", name+".yaml") + " or remove --asset-path to use the bundled transform")
}

// ForStyleNotFound returns hints for style not found errors.
func ForStyleNotFound(available []string) string {
	if len(available) == 0 {
		return ""
	}
	return format("available: " + strings.Join(available, ", "))
}

// ForConversion returns a hint for formulas that could not be converted.
func ForConversion() string {
	return format("use --target latex to inspect the repaired formula; latex, mathml and omml keep unconvertible formulas as LaTeX")
}

// ForInputKind returns a hint for input kinds the analyser does not handle.
func ForInputKind(supported []string) string {
	if len(supported) == 0 {
		return ""
	}
	return format("supported kinds: " + strings.Join(supported, ", "))
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}
