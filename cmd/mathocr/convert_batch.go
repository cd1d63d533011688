package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	mathocr "github.com/alnah/go-mathocr"
	"github.com/alnah/go-mathocr/internal/fileutil"
	"github.com/alnah/go-mathocr/internal/hints"
)

// File permission constants.
const (
	dirPermissions  = 0o750 // rwxr-x---: owner full, group read+execute
	filePermissions = 0o644 // rw-r--r--: owner read+write, others read
)

// Output file extensions.
const (
	extJSON = "json"
	extDOCX = "docx"
	extHTML = "html"
)

// ConversionResult holds the outcome of a single conversion.
type ConversionResult struct {
	InputPath string
	Outputs   []string
	Err       error
	Duration  time.Duration
}

// convertBatch processes files concurrently with one shared analyser.
// Results keep the order of files.
func convertBatch(ctx context.Context, an Analyser, workers int, files []FileToConvert, params *conversionParams) []ConversionResult {
	if len(files) == 0 {
		return nil
	}

	concurrency := min(workers, len(files))

	results := make([]ConversionResult, len(files))
	var wg sync.WaitGroup
	jobs := make(chan int, len(files))

	for range concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for idx := range jobs {
				if ctx.Err() != nil {
					results[idx] = ConversionResult{
						InputPath: files[idx].InputPath,
						Err:       ctx.Err(),
					}
					continue
				}
				results[idx] = convertFile(ctx, an, files[idx], params)
			}
		}()
	}

	for i := range files {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	return results
}

// convertFile processes a single file and returns the result.
func convertFile(ctx context.Context, an Analyser, f FileToConvert, params *conversionParams) ConversionResult {
	start := time.Now()
	result := ConversionResult{InputPath: f.InputPath}

	content, err := os.ReadFile(f.InputPath) // #nosec G304 -- discovered path
	if err != nil {
		result.Err = fmt.Errorf("%w: %v", ErrReadInput, err)
		result.Duration = time.Since(start)
		return result
	}

	info := params.info
	if info.Title == "" {
		info.Title = titleFromPath(f.InputPath)
	}

	res, err := an.Analyse(ctx, mathocr.Input{
		Text:      string(content),
		Kind:      params.kind,
		Targets:   params.targets,
		SourceDir: filepath.Dir(f.InputPath),
		Info:      &info,
	})
	if err != nil {
		result.Err = withConversionHint(err)
		result.Duration = time.Since(start)
		return result
	}

	result.Outputs, result.Err = writeOutputs(res, params.targets, f.OutputBase, true)
	result.Duration = time.Since(start)
	return result
}

// titleFromPath derives a document title from a file name.
func titleFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// writeOutputs writes the outputs of res next to base, swapping its
// extension per output: one .json for the list targets (when withJSON),
// .docx and .html. Returns the written paths.
func writeOutputs(res *mathocr.Result, targets []mathocr.Target, base string, withJSON bool) ([]string, error) {
	if err := os.MkdirAll(filepath.Dir(base), dirPermissions); err != nil {
		return nil, fmt.Errorf("%w: creating output directory: %v%s", ErrWriteOutput, err, hints.ForOutputDirectory())
	}

	var written []string
	write := func(ext string, r io.Reader) error {
		path, err := fileutil.SwapExtension(base, ext)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrWriteOutput, err)
		}
		// #nosec G306 -- outputs are meant to be readable
		if err := fileutil.WriteAtomic(path, r, filePermissions); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrWriteOutput, path, err)
		}
		written = append(written, path)
		return nil
	}

	if lists := listOutputs(res, targets); withJSON && lists != nil {
		var buf bytes.Buffer
		if err := writeJSON(&buf, lists); err != nil {
			return written, fmt.Errorf("%w: encoding lists: %v", ErrWriteOutput, err)
		}
		if err := write(extJSON, &buf); err != nil {
			return written, err
		}
	}

	if out, ok := res.Outputs[mathocr.TargetDocument]; ok {
		if err := write(extDOCX, out.Document); err != nil {
			return written, err
		}
	}

	if out, ok := res.Outputs[mathocr.TargetHTML]; ok {
		if err := write(extHTML, strings.NewReader(out.HTML)); err != nil {
			return written, err
		}
	}

	return written, nil
}

// listOutputs collects the list targets of res, keyed by target name.
// LaTeX items are trimmed and blank ones dropped. Returns nil when no list
// target was requested.
func listOutputs(res *mathocr.Result, targets []mathocr.Target) map[mathocr.Target][]string {
	var lists map[mathocr.Target][]string
	for _, t := range targets {
		out, ok := res.Outputs[t]
		if !ok || !t.IsList() {
			continue
		}
		if lists == nil {
			lists = make(map[mathocr.Target][]string)
		}
		if t != mathocr.TargetLaTeX {
			lists[t] = out.Items
			continue
		}
		items := make([]string, 0, len(out.Items))
		for _, item := range out.Items {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		lists[t] = items
	}
	return lists
}

// writeJSON encodes v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// ResultSummary holds the count of succeeded and failed conversions.
type ResultSummary struct {
	Succeeded int
	Failed    int
}

// countResults tallies succeeded and failed conversions.
func countResults(results []ConversionResult) ResultSummary {
	var summary ResultSummary
	for _, r := range results {
		if r.Err != nil {
			summary.Failed++
		} else {
			summary.Succeeded++
		}
	}
	return summary
}

// printResultsWithWriter outputs conversion results using the provided writers.
// Returns the number of failures and the first failure.
func printResultsWithWriter(results []ConversionResult, quiet, verbose bool, env *Environment) (int, error) {
	summary := countResults(results)
	var firstErr error

	for _, r := range results {
		if r.Err != nil {
			if firstErr == nil {
				firstErr = r.Err
			}
			fmt.Fprintf(env.Stderr, "FAILED %s: %v\n", r.InputPath, r.Err)
			continue
		}

		if quiet {
			continue
		}

		if verbose {
			fmt.Fprintf(env.Stdout, "%s -> %s (%v)\n", r.InputPath, strings.Join(r.Outputs, ", "), r.Duration.Round(time.Millisecond))
		} else {
			fmt.Fprintf(env.Stdout, "Created %s\n", strings.Join(r.Outputs, ", "))
		}
	}

	if !quiet && len(results) > 1 {
		fmt.Fprintf(env.Stdout, "\n%d succeeded, %d failed\n", summary.Succeeded, summary.Failed)
	}

	return summary.Failed, firstErr
}
