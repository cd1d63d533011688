package main

// Notes:
// - Signal handling during a batch is not tested: notifyContext is a thin
//   wrapper over signal.NotifyContext (see signal_test.go).
// - Write failures of WriteAtomic are covered in internal/fileutil.
// These are acceptable gaps: we test observable behavior, not implementation details.

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	tabula "github.com/tsawler/tabula/docx"

	mathocr "github.com/alnah/go-mathocr"
	"github.com/alnah/go-mathocr/internal/config"
)

// ---------------------------------------------------------------------------
// TestConvert_EndToEnd - Files in, outputs out
// ---------------------------------------------------------------------------

func TestConvert_EndToEnd(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	in := filepath.Join(dir, "in")
	out := filepath.Join(dir, "out")
	writeInput(t, in, "page.txt", "The answer is $x^2$.")
	writeInput(t, in, "week2/proof.tex", `Let $\left( a$ be given.`)
	writeInput(t, in, "ignored.pdf", "not recognizer output")

	env, stdout, stderr := testEnv("")
	code := runMain([]string{"mathocr", "convert", in, "-o", out, "-t", "latex,omml", "--target", "docx", "-t", "html", "--author", "Ada"}, env)
	if code != ExitSuccess {
		t.Fatalf("exit code = %d, want 0 (stderr: %s)", code, stderr)
	}

	t.Run("json lists", func(t *testing.T) {
		var lists map[string][]string
		if err := json.Unmarshal([]byte(readFile(t, filepath.Join(out, "page.json"))), &lists); err != nil {
			t.Fatalf("page.json: %v", err)
		}
		wantLaTeX := []string{"The answer is", `\begin{math}x^2\end{math}`, "."}
		if !slices.Equal(lists["latex"], wantLaTeX) {
			t.Errorf("latex = %q, want %q", lists["latex"], wantLaTeX)
		}
		if len(lists["omml"]) != 1 || !strings.HasPrefix(lists["omml"][0], "<m:oMath") {
			t.Errorf("omml = %q, want one OMML formula", lists["omml"])
		}
		if _, ok := lists["mathml"]; ok {
			t.Error("mathml present but not requested")
		}
	})

	t.Run("nested input keeps its directory", func(t *testing.T) {
		var lists map[string][]string
		if err := json.Unmarshal([]byte(readFile(t, filepath.Join(out, "week2", "proof.json"))), &lists); err != nil {
			t.Fatalf("proof.json: %v", err)
		}
		if len(lists["latex"]) != 3 || !strings.Contains(lists["latex"][1], `\right.`) {
			t.Errorf("latex = %q, want repaired formula", lists["latex"])
		}
	})

	t.Run("docx metadata and text", func(t *testing.T) {
		r, err := tabula.Open(filepath.Join(out, "page.docx"))
		if err != nil {
			t.Fatalf("tabula Open() error: %v", err)
		}
		defer r.Close()

		text, err := r.Text()
		if err != nil {
			t.Fatalf("Text() error: %v", err)
		}
		if !strings.Contains(text, "The answer is") {
			t.Errorf("Text() = %q, want the prose", text)
		}
		meta := r.Metadata()
		if meta.Title != "page" {
			t.Errorf("Title = %q, want file name", meta.Title)
		}
		if meta.Author != "Ada" {
			t.Errorf("Author = %q, want %q", meta.Author, "Ada")
		}
	})

	t.Run("html preview", func(t *testing.T) {
		page := readFile(t, filepath.Join(out, "page.html"))
		if !strings.Contains(page, "<math") {
			t.Error("page.html has no MathML")
		}
	})

	t.Run("unsupported files skipped", func(t *testing.T) {
		if _, err := os.Stat(filepath.Join(out, "ignored.json")); !os.IsNotExist(err) {
			t.Errorf("ignored.pdf was converted: %v", err)
		}
	})

	t.Run("summary", func(t *testing.T) {
		if !strings.Contains(stdout.String(), "2 succeeded, 0 failed") {
			t.Errorf("stdout = %q, want summary", stdout)
		}
	})
}

func TestConvert_OutputsNextToInput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	in := writeInput(t, dir, "notes.md", "no formulas")

	env, stdout, stderr := testEnv("")
	if code := runMain([]string{"mathocr", "convert", in, "-q"}, env); code != ExitSuccess {
		t.Fatalf("exit code = %d, want 0 (stderr: %s)", code, stderr)
	}
	if stdout.Len() != 0 {
		t.Errorf("quiet mode printed %q", stdout)
	}

	var lists map[string][]string
	if err := json.Unmarshal([]byte(readFile(t, filepath.Join(dir, "notes.json"))), &lists); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"latex", "mathml", "omml"} {
		if _, ok := lists[key]; !ok {
			t.Errorf("default targets missing %s", key)
		}
	}
	if len(lists["omml"]) != 0 {
		t.Errorf("omml = %q, want empty", lists["omml"])
	}
}

// ---------------------------------------------------------------------------
// TestConvert_Errors - Exit codes of failing conversions
// ---------------------------------------------------------------------------

func TestConvert_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	good := writeInput(t, dir, "good.txt", "$x$")
	broken := writeInput(t, dir, "broken.txt", `$\frac{a}$`)
	pdf := writeInput(t, dir, "scan.pdf", "x")

	tests := []struct {
		name       string
		args       []string
		wantCode   int
		wantStderr string
	}{
		{
			name:       "document fails on unconvertible formula",
			args:       []string{broken, "-t", "docx"},
			wantCode:   ExitConversion,
			wantStderr: "hint:",
		},
		{
			name:     "list targets keep unconvertible formula",
			args:     []string{broken, "-t", "omml", "-o", filepath.Join(dir, "lists")},
			wantCode: ExitSuccess,
		},
		{
			name:       "missing input",
			args:       []string{filepath.Join(dir, "missing.txt")},
			wantCode:   ExitIO,
			wantStderr: "missing.txt",
		},
		{
			name:       "unsupported extension",
			args:       []string{pdf},
			wantCode:   ExitUsage,
			wantStderr: ".pdf",
		},
		{
			name:       "unknown kind",
			args:       []string{good, "-k", "handwriting"},
			wantCode:   ExitUsage,
			wantStderr: "input.kind",
		},
		{
			name:       "page kind not implemented",
			args:       []string{good, "-k", "page"},
			wantCode:   ExitUsage,
			wantStderr: "supported kinds: text, formula, text_formula",
		},
		{
			name:       "unknown target",
			args:       []string{good, "-t", "pdf"},
			wantCode:   ExitUsage,
			wantStderr: "output.targets",
		},
		{
			name:       "negative workers",
			args:       []string{good, "-w", "-1"},
			wantCode:   ExitUsage,
			wantStderr: "invalid worker count",
		},
		{
			name:       "missing transform",
			args:       []string{good, "--transform", "missing"},
			wantCode:   ExitUsage,
			wantStderr: "hint: run 'mathocr doctor'",
		},
		{
			name:       "invalid asset path",
			args:       []string{good, "--asset-path", filepath.Join(dir, "no-assets")},
			wantCode:   ExitUsage,
			wantStderr: "invalid asset path",
		},
		{
			name:       "missing config",
			args:       []string{good, "-c", filepath.Join(dir, "missing.yaml")},
			wantCode:   ExitUsage,
			wantStderr: "config file not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env, _, stderr := testEnv("")
			code := runMain(append([]string{"mathocr", "convert"}, tt.args...), env)
			if code != tt.wantCode {
				t.Errorf("exit code = %d, want %d (stderr: %s)", code, tt.wantCode, stderr)
			}
			if tt.wantStderr != "" && !strings.Contains(stderr.String(), tt.wantStderr) {
				t.Errorf("stderr = %q, want to contain %q", stderr, tt.wantStderr)
			}
		})
	}
}

func TestConvert_PartialFailure(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeInput(t, dir, "a.txt", "$x$")
	writeInput(t, dir, "b.txt", `$\frac{a}$`)

	env, stdout, stderr := testEnv("")
	code := runMain([]string{"mathocr", "convert", dir, "-t", "docx", "-w", "2"}, env)

	if code != ExitConversion {
		t.Errorf("exit code = %d, want %d", code, ExitConversion)
	}
	if !strings.Contains(stderr.String(), "FAILED "+filepath.Join(dir, "b.txt")) {
		t.Errorf("stderr = %q, want failed file", stderr)
	}
	if !strings.Contains(stdout.String(), "1 succeeded, 1 failed") {
		t.Errorf("stdout = %q, want summary", stdout)
	}
	if _, err := os.Stat(filepath.Join(dir, "a.docx")); err != nil {
		t.Errorf("a.docx not written: %v", err)
	}
}

func TestConvert_Config(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	in := writeInput(t, dir, "in/page.txt", `\sqrt{2}`)
	out := filepath.Join(dir, "out")
	cfgPath := writeInput(t, dir, "mathocr.yaml", "input:\n  kind: formula\noutput:\n  defaultDir: "+out+"\n  targets: [mathml]\n")

	env, _, stderr := testEnv("")
	if code := runMain([]string{"mathocr", "convert", in, "-c", cfgPath}, env); code != ExitSuccess {
		t.Fatalf("exit code = %d, want 0 (stderr: %s)", code, stderr)
	}

	var lists map[string][]string
	if err := json.Unmarshal([]byte(readFile(t, filepath.Join(out, "page.json"))), &lists); err != nil {
		t.Fatal(err)
	}
	if len(lists) != 1 || len(lists["mathml"]) != 1 || !strings.Contains(lists["mathml"][0], "<msqrt>") {
		t.Errorf("lists = %q, want one mathml formula", lists)
	}
}

// ---------------------------------------------------------------------------
// TestConvert_Stdin - Reading recognizer output from standard input
// ---------------------------------------------------------------------------

func TestConvert_Stdin(t *testing.T) {
	t.Parallel()

	t.Run("lists printed as json", func(t *testing.T) {
		t.Parallel()

		env, stdout, stderr := testEnv("  The answer is $x$  ")
		if code := runMain([]string{"mathocr", "convert", "-", "-t", "latex"}, env); code != ExitSuccess {
			t.Fatalf("exit code = %d, want 0 (stderr: %s)", code, stderr)
		}
		want := "{\n  \"latex\": [\n    \"The answer is\",\n    \"\\\\begin{math}x\\\\end{math}\"\n  ]\n}\n"
		if stdout.String() != want {
			t.Errorf("stdout = %q, want %q", stdout, want)
		}
	})

	t.Run("docx needs an output directory", func(t *testing.T) {
		t.Parallel()

		env, _, stderr := testEnv("$x$")
		if code := runMain([]string{"mathocr", "convert", "-", "-t", "docx"}, env); code != ExitUsage {
			t.Errorf("exit code = %d, want %d", code, ExitUsage)
		}
		if !strings.Contains(stderr.String(), "--output") {
			t.Errorf("stderr = %q, want --output hint", stderr)
		}
	})

	t.Run("docx written to output directory", func(t *testing.T) {
		t.Parallel()

		out := t.TempDir()
		env, stdout, stderr := testEnv("$x$")
		if code := runMain([]string{"mathocr", "convert", "-", "-t", "docx", "-o", out}, env); code != ExitSuccess {
			t.Fatalf("exit code = %d, want 0 (stderr: %s)", code, stderr)
		}
		if stdout.Len() != 0 {
			t.Errorf("stdout = %q, want nothing without list targets", stdout)
		}
		if _, err := os.Stat(filepath.Join(out, "stdin.docx")); err != nil {
			t.Errorf("stdin.docx not written: %v", err)
		}
	})
}

// ---------------------------------------------------------------------------
// TestMergeFlags - CLI values override config
// ---------------------------------------------------------------------------

func TestMergeFlags(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		Input:    config.InputConfig{Kind: "text"},
		Output:   config.OutputConfig{DefaultDir: "cfg-out", Targets: []string{"latex"}},
		Assets:   config.AssetsConfig{BasePath: "cfg-assets"},
		Document: config.DocumentConfig{Title: "Config title", Author: "Config author"},
		Workers:  2,
	}
	flags := &convertFlags{
		kind:      "formula",
		targets:   []string{"omml", "docx"},
		workers:   4,
		normalize: true,
		document:  documentFlags{title: "Flag title"},
		assets:    assetFlags{transform: "custom"},
	}

	mergeFlags(flags, cfg)

	if cfg.Input.Kind != "formula" {
		t.Errorf("Input.Kind = %q, want flag value", cfg.Input.Kind)
	}
	if !slices.Equal(cfg.Output.Targets, []string{"omml", "docx"}) {
		t.Errorf("Output.Targets = %v, want flag value", cfg.Output.Targets)
	}
	if cfg.Output.DefaultDir != "cfg-out" {
		t.Errorf("Output.DefaultDir = %q, want config value", cfg.Output.DefaultDir)
	}
	if cfg.Workers != 4 || !cfg.Normalize {
		t.Errorf("Workers = %d, Normalize = %v, want 4, true", cfg.Workers, cfg.Normalize)
	}
	if cfg.Document.Title != "Flag title" || cfg.Document.Author != "Config author" {
		t.Errorf("Document = %+v, want flag title and config author", cfg.Document)
	}
	if cfg.Assets.BasePath != "cfg-assets" || cfg.Assets.Transform != "custom" {
		t.Errorf("Assets = %+v", cfg.Assets)
	}
}

// ---------------------------------------------------------------------------
// TestBuildParams - Kind, targets and metadata resolution
// ---------------------------------------------------------------------------

func TestBuildParams(t *testing.T) {
	t.Parallel()

	env, _, _ := testEnv("")

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		params, err := buildParams(config.DefaultConfig(), env)
		if err != nil {
			t.Fatal(err)
		}
		if params.kind != mathocr.InputTextFormula {
			t.Errorf("kind = %v, want text_formula", params.kind)
		}
		if !slices.Equal(params.targets, defaultTargets) {
			t.Errorf("targets = %v, want %v", params.targets, defaultTargets)
		}
		if !params.info.Created.Equal(fixedNow) {
			t.Errorf("Created = %v, want %v", params.info.Created, fixedNow)
		}
	})

	t.Run("targets deduplicated", func(t *testing.T) {
		t.Parallel()

		cfg := &config.Config{Output: config.OutputConfig{Targets: []string{"docx", "document", "latex"}}}
		params, err := buildParams(cfg, env)
		if err != nil {
			t.Fatal(err)
		}
		want := []mathocr.Target{mathocr.TargetDocument, mathocr.TargetLaTeX}
		if !slices.Equal(params.targets, want) {
			t.Errorf("targets = %v, want %v", params.targets, want)
		}
	})

	t.Run("document scan", func(t *testing.T) {
		t.Parallel()

		cfg := &config.Config{Input: config.InputConfig{Kind: "document_scan"}}
		if _, err := buildParams(cfg, env); !errors.Is(err, mathocr.ErrNotImplemented) {
			t.Errorf("error = %v, want ErrNotImplemented", err)
		}
	})
}

// ---------------------------------------------------------------------------
// TestListOutputs - JSON payload shape
// ---------------------------------------------------------------------------

func TestListOutputs(t *testing.T) {
	t.Parallel()

	res := &mathocr.Result{Outputs: map[mathocr.Target]*mathocr.Output{
		mathocr.TargetLaTeX:    {Items: []string{"  Let ", `\begin{math}x\end{math}`, " ", "\n"}},
		mathocr.TargetMathML:   {Items: []string{"<math/>", " "}},
		mathocr.TargetDocument: {},
	}}

	t.Run("latex trimmed, others untouched", func(t *testing.T) {
		t.Parallel()

		lists := listOutputs(res, []mathocr.Target{mathocr.TargetLaTeX, mathocr.TargetMathML, mathocr.TargetDocument})
		if got, want := lists[mathocr.TargetLaTeX], []string{"Let", `\begin{math}x\end{math}`}; !slices.Equal(got, want) {
			t.Errorf("latex = %q, want %q", got, want)
		}
		if got, want := lists[mathocr.TargetMathML], []string{"<math/>", " "}; !slices.Equal(got, want) {
			t.Errorf("mathml = %q, want %q", got, want)
		}
		if _, ok := lists[mathocr.TargetDocument]; ok {
			t.Error("document listed")
		}
	})

	t.Run("no list target", func(t *testing.T) {
		t.Parallel()

		if lists := listOutputs(res, []mathocr.Target{mathocr.TargetDocument}); lists != nil {
			t.Errorf("lists = %v, want nil", lists)
		}
	})
}

// ---------------------------------------------------------------------------
// TestConvertBatch - Ordering and cancellation
// ---------------------------------------------------------------------------

type stubAnalyser struct{}

func (stubAnalyser) Analyse(_ context.Context, in mathocr.Input) (*mathocr.Result, error) {
	return &mathocr.Result{Outputs: map[mathocr.Target]*mathocr.Output{
		mathocr.TargetLaTeX: {Target: mathocr.TargetLaTeX, Items: []string{in.Info.Title}},
	}}, nil
}

func TestConvertBatch(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	var files []FileToConvert
	for _, name := range []string{"a.txt", "b.txt", "c.txt", "d.txt"} {
		path := writeInput(t, dir, name, "x")
		files = append(files, FileToConvert{InputPath: path, OutputBase: path})
	}
	params := &conversionParams{kind: mathocr.InputText, targets: []mathocr.Target{mathocr.TargetLaTeX}}

	t.Run("results keep file order", func(t *testing.T) {
		t.Parallel()

		results := convertBatch(context.Background(), stubAnalyser{}, 3, files, params)
		if len(results) != len(files) {
			t.Fatalf("len(results) = %d, want %d", len(results), len(files))
		}
		for i, r := range results {
			if r.Err != nil {
				t.Errorf("results[%d].Err = %v", i, r.Err)
			}
			if r.InputPath != files[i].InputPath {
				t.Errorf("results[%d].InputPath = %s, want %s", i, r.InputPath, files[i].InputPath)
			}
		}
	})

	t.Run("canceled context skips files", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		results := convertBatch(ctx, stubAnalyser{}, 2, files, params)
		for i, r := range results {
			if !errors.Is(r.Err, context.Canceled) {
				t.Errorf("results[%d].Err = %v, want context.Canceled", i, r.Err)
			}
		}
	})

	t.Run("no files", func(t *testing.T) {
		t.Parallel()

		if results := convertBatch(context.Background(), stubAnalyser{}, 2, nil, params); results != nil {
			t.Errorf("results = %v, want nil", results)
		}
	})
}

// ---------------------------------------------------------------------------
// TestPrintResultsWithWriter - Progress output
// ---------------------------------------------------------------------------

func TestPrintResultsWithWriter(t *testing.T) {
	t.Parallel()

	failure := errors.New("boom")
	results := []ConversionResult{
		{InputPath: "a.txt", Outputs: []string{"a.json", "a.docx"}},
		{InputPath: "b.txt", Err: failure},
	}

	env, stdout, stderr := testEnv("")
	failed, firstErr := printResultsWithWriter(results, false, false, env)

	if failed != 1 || !errors.Is(firstErr, failure) {
		t.Errorf("printResultsWithWriter() = %d, %v, want 1, boom", failed, firstErr)
	}
	if !strings.Contains(stdout.String(), "Created a.json, a.docx") {
		t.Errorf("stdout = %q", stdout)
	}
	if !strings.Contains(stderr.String(), "FAILED b.txt: boom") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestTitleFromPath(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"scans/page-3.txt": "page-3",
		"notes.v2.md":      "notes.v2",
		"formula":          "formula",
	}
	for in, want := range tests {
		if got := titleFromPath(in); got != want {
			t.Errorf("titleFromPath(%q) = %q, want %q", in, got, want)
		}
	}
}
