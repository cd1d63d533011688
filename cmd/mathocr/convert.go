package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	flag "github.com/spf13/pflag"

	mathocr "github.com/alnah/go-mathocr"
	"github.com/alnah/go-mathocr/internal/config"
	"github.com/alnah/go-mathocr/internal/hints"
)

// Sentinel errors for CLI operations.
var (
	ErrNoInput            = errors.New("no input specified")
	ErrReadInput          = errors.New("failed to read input file")
	ErrWriteOutput        = errors.New("failed to write output file")
	ErrInvalidExtension   = errors.New("file must have .txt, .tex or .md extension")
	ErrInvalidWorkerCount = errors.New("invalid worker count")
	ErrStdinOutput        = errors.New("docx and html targets need --output when reading stdin")
)

// stdinArg selects standard input as the source.
const stdinArg = "-"

// stdinName names the outputs written for standard input.
const stdinName = "stdin"

// Defaults applied when neither flags, env nor config choose.
var (
	defaultKind    = mathocr.InputTextFormula
	defaultTargets = []mathocr.Target{mathocr.TargetLaTeX, mathocr.TargetMathML, mathocr.TargetOMML}
)

// Analyser is the analysis service used by the CLI.
type Analyser interface {
	Analyse(ctx context.Context, in mathocr.Input) (*mathocr.Result, error)
}

// Compile-time interface implementation check.
var _ Analyser = (*mathocr.Analyser)(nil)

// conversionParams groups parameters shared across batch/file conversion.
type conversionParams struct {
	kind    mathocr.InputKind
	targets []mathocr.Target
	info    mathocr.DocumentInfo // Title empty = input file name
}

// runConvertCmd parses flags, runs the conversion and maps errors to exit codes.
func runConvertCmd(args []string, env *Environment) int {
	flags, positional, err := parseConvertFlags(args, env.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitSuccess
		}
		fmt.Fprintln(env.Stderr, "error:", err)
		return ExitUsage
	}

	ctx, stop := notifyContext(context.Background())
	defer stop()

	if err := runConvert(ctx, positional, flags, env); err != nil {
		fmt.Fprintln(env.Stderr, "error:", err)
		return exitCodeFor(err)
	}
	return ExitSuccess
}

// runConvert orchestrates the conversion process.
func runConvert(ctx context.Context, positionalArgs []string, flags *convertFlags, env *Environment) error {
	// Validate worker count early
	if err := validateWorkers(flags.workers); err != nil {
		return err
	}

	warnUnknownEnvVars(env.Stderr)
	envCfg := loadEnvConfig()

	cfg, err := loadConfig(flags.common.config, envCfg.ConfigPath)
	if err != nil {
		return err
	}

	// CLI flags > env vars > config file
	applyEnvConfig(envCfg, cfg)
	mergeFlags(flags, cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	params, err := buildParams(cfg, env)
	if err != nil {
		return err
	}

	analyser, err := newAnalyser(cfg)
	if err != nil {
		return err
	}

	inputPath, err := resolveInputPath(positionalArgs, cfg)
	if err != nil {
		return err
	}

	if inputPath == stdinArg {
		return convertStdin(ctx, analyser, cfg.Output.DefaultDir, params, env)
	}

	files, err := discoverFiles(inputPath, cfg.Output.DefaultDir)
	if err != nil {
		return fmt.Errorf("discovering files: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("%w: no .txt, .tex or .md files found in %s", ErrNoInput, inputPath)
	}

	workers := mathocr.ResolvePoolSize(cfg.Workers)
	if flags.common.verbose {
		fmt.Fprintf(env.Stderr, "Workers: %d, kind: %s, targets: %s\n", workers, params.kind, joinTargets(params.targets))
	}

	results := convertBatch(ctx, analyser, workers, files, params)

	failed, firstErr := printResultsWithWriter(results, flags.common.quiet, flags.common.verbose, env)
	if failed > 0 {
		return fmt.Errorf("%d conversion(s) failed: %w", failed, firstErr)
	}

	return nil
}

// loadConfig loads the config named by the flag, else by MATHOCR_CONFIG.
// Without either, the neutral defaults are returned.
func loadConfig(flagConfig, envConfig string) (*config.Config, error) {
	name := flagConfig
	if name == "" {
		name = envConfig
	}
	if name == "" {
		return config.DefaultConfig(), nil
	}

	cfg, err := config.LoadConfig(name)
	if err != nil {
		hint := ""
		if errors.Is(err, config.ErrConfigNotFound) {
			hint = hints.ForConfigNotFound(config.SearchPaths(name))
		}
		return nil, fmt.Errorf("loading config: %w%s", err, hint)
	}
	return cfg, nil
}

// mergeFlags merges CLI flags into config. CLI values override config values.
func mergeFlags(flags *convertFlags, cfg *config.Config) {
	if flags.kind != "" {
		cfg.Input.Kind = flags.kind
	}
	if len(flags.targets) > 0 {
		cfg.Output.Targets = flags.targets
	}
	if flags.output != "" {
		cfg.Output.DefaultDir = flags.output
	}
	if flags.workers > 0 {
		cfg.Workers = flags.workers
	}
	if flags.normalize {
		cfg.Normalize = true
	}

	// Document flags
	if flags.document.title != "" {
		cfg.Document.Title = flags.document.title
	}
	if flags.document.author != "" {
		cfg.Document.Author = flags.document.author
	}

	// Asset flags
	if flags.assets.assetPath != "" {
		cfg.Assets.BasePath = flags.assets.assetPath
	}
	if flags.assets.transform != "" {
		cfg.Assets.Transform = flags.assets.transform
	}
	if flags.assets.style != "" {
		cfg.Assets.Style = flags.assets.style
	}
}

// buildParams resolves the input kind, targets and document metadata.
// The creation time is taken once for the whole batch.
func buildParams(cfg *config.Config, env *Environment) (*conversionParams, error) {
	params := &conversionParams{
		kind:    defaultKind,
		targets: defaultTargets,
		info: mathocr.DocumentInfo{
			Title:   cfg.Document.Title,
			Author:  cfg.Document.Author,
			Created: env.Now(),
		},
	}

	if cfg.Input.Kind != "" {
		kind, err := mathocr.ParseInputKind(cfg.Input.Kind)
		if err != nil {
			return nil, fmt.Errorf("%w%s", err, hints.ForInputKind(supportedKinds()))
		}
		params.kind = kind
	}
	if params.kind == mathocr.InputPage || params.kind == mathocr.InputDocumentScan {
		return nil, fmt.Errorf("%w: input kind %s%s", mathocr.ErrNotImplemented, params.kind, hints.ForInputKind(supportedKinds()))
	}

	if len(cfg.Output.Targets) > 0 {
		targets, err := mathocr.ParseTargets(strings.Join(cfg.Output.Targets, ","))
		if err != nil {
			return nil, err
		}
		params.targets = targets
	}

	return params, nil
}

// supportedKinds lists the input kinds the analyser handles.
func supportedKinds() []string {
	return []string{
		mathocr.InputText.String(),
		mathocr.InputFormula.String(),
		mathocr.InputTextFormula.String(),
	}
}

// newAnalyser builds the shared analyser from config.
func newAnalyser(cfg *config.Config) (*mathocr.Analyser, error) {
	var opts []mathocr.Option
	if cfg.Assets.BasePath != "" {
		opts = append(opts, mathocr.WithAssetPath(cfg.Assets.BasePath))
	}
	transform := mathocr.DefaultTransform
	if cfg.Assets.Transform != "" {
		transform = cfg.Assets.Transform
		opts = append(opts, mathocr.WithTransformName(transform))
	}
	if cfg.Assets.Style != "" {
		opts = append(opts, mathocr.WithStyle(cfg.Assets.Style))
	}
	if cfg.Normalize {
		opts = append(opts, mathocr.WithNormalization())
	}

	an, err := mathocr.NewAnalyser(opts...)
	if err != nil {
		hint := ""
		switch {
		case errors.Is(err, mathocr.ErrTransformLoad):
			hint = hints.ForTransformLoad(cfg.Assets.BasePath, transform)
		case errors.Is(err, mathocr.ErrStyleNotFound):
			hint = hints.ForStyleNotFound([]string{mathocr.DefaultStyle})
		}
		return nil, fmt.Errorf("%w%s", err, hint)
	}
	return an, nil
}

// resolveInputPath determines the input path from args or config.
func resolveInputPath(args []string, cfg *config.Config) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if cfg.Input.DefaultDir != "" {
		return cfg.Input.DefaultDir, nil
	}
	return "", ErrNoInput
}

// convertStdin analyses standard input. The list targets are printed as
// JSON; docx and html are written to outputDir as stdin.docx and stdin.html.
func convertStdin(ctx context.Context, an Analyser, outputDir string, params *conversionParams, env *Environment) error {
	needsFiles := false
	for _, t := range params.targets {
		if !t.IsList() {
			needsFiles = true
		}
	}
	if needsFiles && outputDir == "" {
		return ErrStdinOutput
	}

	data, err := io.ReadAll(env.Stdin)
	if err != nil {
		return fmt.Errorf("%w: stdin: %v", ErrReadInput, err)
	}

	info := params.info
	if info.Title == "" {
		info.Title = stdinName
	}
	res, err := an.Analyse(ctx, mathocr.Input{
		Text:    string(data),
		Kind:    params.kind,
		Targets: params.targets,
		Info:    &info,
	})
	if err != nil {
		return withConversionHint(err)
	}

	if lists := listOutputs(res, params.targets); lists != nil {
		if err := writeJSON(env.Stdout, lists); err != nil {
			return fmt.Errorf("%w: stdout: %v", ErrWriteOutput, err)
		}
	}

	if needsFiles {
		if _, err := writeOutputs(res, params.targets, filepath.Join(outputDir, stdinName), false); err != nil {
			return err
		}
	}
	return nil
}

// withConversionHint appends a hint to formula conversion errors.
func withConversionHint(err error) error {
	if errors.Is(err, mathocr.ErrConversion) {
		return fmt.Errorf("%w%s", err, hints.ForConversion())
	}
	return err
}

// joinTargets formats targets for progress output.
func joinTargets(targets []mathocr.Target) string {
	names := make([]string, len(targets))
	for i, t := range targets {
		names[i] = t.String()
	}
	return strings.Join(names, ",")
}
