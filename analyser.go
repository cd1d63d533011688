package mathocr

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"golang.org/x/text/unicode/norm"

	"github.com/alnah/go-mathocr/internal/assets"
	"github.com/alnah/go-mathocr/internal/formula"
	"github.com/alnah/go-mathocr/internal/omml"
	"github.com/alnah/go-mathocr/internal/pipeline"
	"github.com/alnah/go-mathocr/internal/repair"
	"github.com/alnah/go-mathocr/internal/segment"
)

// Compile-time interface implementation checks.
var (
	_ pipeline.MarkdownPreprocessor = (*pipeline.CommonMarkPreprocessor)(nil)
	_ pipeline.HTMLConverter        = (*pipeline.GoldmarkConverter)(nil)
	_ pipeline.CSSInjector          = (*pipeline.CSSInjection)(nil)
	_ pipeline.HeaderInjector       = (*pipeline.HeaderInjection)(nil)
	_ assets.AssetLoader            = (*assets.AssetResolver)(nil)
	_ AssetLoader                   = (*assetLoaderAdapter)(nil)
)

type analyserConfig struct {
	assetPath     string
	transformName string
	styleName     string
	normalize     bool
	info          DocumentInfo
}

// Analyser turns recognizer output into segments and output targets.
// Create with NewAnalyser. An Analyser holds only read-only state after
// construction and is safe for concurrent use.
type Analyser struct {
	cfg               analyserConfig
	assetLoader       assets.AssetLoader
	publicAssetLoader AssetLoader
	logger            *slog.Logger
	repairer          *repair.Repairer
	formulas          *formula.Converter
	preview           *pipeline.Preview
	style             string
}

// NewAnalyser loads the transform rules and the preview style once.
// Returns an error wrapping ErrTransformLoad if the rules are missing or
// invalid; no partially initialized Analyser is returned.
func NewAnalyser(opts ...Option) (*Analyser, error) {
	a := &Analyser{
		cfg: analyserConfig{
			transformName: DefaultTransform,
			styleName:     DefaultStyle,
		},
		assetLoader: assets.NewEmbeddedLoader(),
		repairer:    repair.New(repair.DefaultTable()),
		preview:     pipeline.NewPreview(),
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.logger == nil {
		a.logger = slog.New(slog.DiscardHandler)
	}

	if a.cfg.assetPath != "" {
		resolver, err := assets.NewAssetResolver(a.cfg.assetPath)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidAssetPath, err)
		}
		a.assetLoader = resolver
	}

	var loader AssetLoader = a.assetLoader
	if a.publicAssetLoader != nil {
		loader = a.publicAssetLoader
	}

	rules, err := loader.LoadTransform(a.cfg.transformName)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrTransformLoad, a.cfg.transformName, err)
	}
	transform, err := omml.Load(rules)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrTransformLoad, a.cfg.transformName, err)
	}
	a.formulas = formula.New(transform)

	style, err := loader.LoadStyle(a.cfg.styleName)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrStyleNotFound, a.cfg.styleName, err)
	}
	a.style = style

	return a, nil
}

// Segments splits raw recognizer text according to kind and repairs every
// math run. Text input becomes one unrepaired segment, and empty text
// yields no segments.
func (a *Analyser) Segments(raw string, kind InputKind) ([]Segment, error) {
	if a.cfg.normalize {
		raw = norm.NFC.String(raw)
	}

	var mode segment.Mode
	switch kind {
	case InputText:
		mode = segment.ModeTextOnly
	case InputFormula:
		mode = segment.ModeFormulaOnly
	case InputTextFormula:
		mode = segment.ModeMixed
	case InputPage, InputDocumentScan:
		return nil, fmt.Errorf("%w: input kind %s", ErrNotImplemented, kind)
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidInputKind, kind)
	}

	segs := segment.Split(raw, mode)
	if mode == segment.ModeTextOnly {
		return segs, nil
	}
	for i, s := range segs {
		if s.Kind == segment.KindMath {
			segs[i].Text = a.repairer.Repair(s.Text)
		}
	}
	return segs, nil
}

// Analyse segments the input once and produces every requested target from
// its own copy of the segment list. Duplicate targets are produced once.
// Internal panics are recovered and returned as ErrInternal.
func (a *Analyser) Analyse(ctx context.Context, in Input) (res *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = fmt.Errorf("%w: %v", ErrInternal, r)
		}
	}()

	if err := in.Validate(); err != nil {
		return nil, err
	}

	segs, err := a.Segments(in.Text, in.Kind)
	if err != nil {
		return nil, err
	}

	meta := documentMeta{info: a.cfg.info, sourceDir: in.SourceDir}
	if in.Info != nil {
		meta.info = *in.Info
	}

	res = &Result{Segments: segs, Outputs: make(map[Target]*Output, len(in.Targets))}
	for _, t := range in.Targets {
		if _, done := res.Outputs[t]; done {
			continue
		}
		out, err := a.produce(ctx, slices.Clone(segs), t, meta)
		if err != nil {
			return nil, fmt.Errorf("producing %s: %w", t, err)
		}
		res.Outputs[t] = out
	}
	return res, nil
}
