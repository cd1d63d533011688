package main

import (
	"errors"
	"os"

	mathocr "github.com/alnah/go-mathocr"
	"github.com/alnah/go-mathocr/internal/config"
)

// Exit codes for the mathocr CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess    = 0 // All inputs converted
	ExitGeneral    = 1 // General/unexpected error
	ExitUsage      = 2 // Invalid flags, config, or validation
	ExitIO         = 3 // File not found, permission denied
	ExitConversion = 4 // A formula could not be converted
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Conversion errors (exit 4)
	if errors.Is(err, mathocr.ErrConversion) ||
		errors.Is(err, mathocr.ErrMalformedMarkup) {
		return ExitConversion
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, ErrReadInput) ||
		errors.Is(err, ErrWriteOutput) ||
		errors.Is(err, ErrNoInput) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrEmptyConfigName) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, mathocr.ErrEmptyTargets) ||
		errors.Is(err, mathocr.ErrInvalidInputKind) ||
		errors.Is(err, mathocr.ErrInvalidTarget) ||
		errors.Is(err, mathocr.ErrNotImplemented) ||
		errors.Is(err, mathocr.ErrTransformLoad) ||
		errors.Is(err, mathocr.ErrStyleNotFound) ||
		errors.Is(err, mathocr.ErrInvalidAssetPath) ||
		errors.Is(err, ErrInvalidExtension) ||
		errors.Is(err, ErrInvalidWorkerCount) ||
		errors.Is(err, ErrStdinOutput) ||
		errors.Is(err, ErrUnsupportedShell) {
		return ExitUsage
	}

	return ExitGeneral
}
