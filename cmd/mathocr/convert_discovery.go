package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	mathocr "github.com/alnah/go-mathocr"
)

// inputExtensions are the recognizer output files convert accepts.
var inputExtensions = []string{".txt", ".tex", ".md"}

// FileToConvert represents a single file to process.
type FileToConvert struct {
	InputPath string
	// OutputBase is the input file relocated to the output directory.
	// Each output swaps its extension.
	OutputBase string
}

// discoverFiles returns inputPath itself, or every recognizer file below it
// when it is a directory.
func discoverFiles(inputPath, outputDir string) ([]FileToConvert, error) {
	info, err := os.Stat(inputPath)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		if err := validateInputExtension(inputPath); err != nil {
			return nil, err
		}
		return []FileToConvert{{InputPath: inputPath, OutputBase: resolveOutputBase(inputPath, outputDir, "")}}, nil
	}

	var files []FileToConvert
	err = filepath.WalkDir(inputPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isInputFile(path) {
			return nil
		}
		files = append(files, FileToConvert{InputPath: path, OutputBase: resolveOutputBase(path, outputDir, inputPath)})
		return nil
	})

	return files, err
}

// resolveOutputBase places inputPath under outputDir, keeping its path
// relative to baseInputDir. An empty outputDir keeps outputs next to inputs.
func resolveOutputBase(inputPath, outputDir, baseInputDir string) string {
	if outputDir == "" {
		return inputPath
	}

	if baseInputDir != "" {
		relPath, err := filepath.Rel(baseInputDir, inputPath)
		if err == nil {
			return filepath.Join(outputDir, relPath)
		}
	}

	return filepath.Join(outputDir, filepath.Base(inputPath))
}

// isInputFile reports whether path has a recognizer output extension.
func isInputFile(path string) bool {
	return slices.Contains(inputExtensions, strings.ToLower(filepath.Ext(path)))
}

// looksLikeInput reports whether a command-line argument names an input
// rather than a command.
func looksLikeInput(arg string) bool {
	return arg == stdinArg || isInputFile(arg)
}

// validateInputExtension checks that the file has a recognizer output extension.
func validateInputExtension(path string) error {
	if !isInputFile(path) {
		return fmt.Errorf("%w: got %q", ErrInvalidExtension, filepath.Ext(path))
	}
	return nil
}

// validateWorkers checks that the worker count is within valid bounds.
func validateWorkers(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: %d (must be >= 0, 0 means auto)", ErrInvalidWorkerCount, n)
	}
	if n > mathocr.MaxPoolSize {
		return fmt.Errorf("%w: %d (maximum is %d)", ErrInvalidWorkerCount, n, mathocr.MaxPoolSize)
	}
	return nil
}
