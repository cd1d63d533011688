package mathocr

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alnah/go-mathocr/internal/segment"
)

// InputKind tells the analyser how the recognizer produced its text.
type InputKind int

const (
	// InputText is plain prose. It becomes a single text segment.
	InputText InputKind = iota
	// InputFormula is a formula recognizer result, usually bare LaTeX.
	InputFormula
	// InputTextFormula is prose with dollar-delimited math.
	InputTextFormula
	// InputPage is a full page layout result. Not implemented.
	InputPage
	// InputDocumentScan is a multi-page scan. Not implemented.
	InputDocumentScan
)

var inputKindNames = []string{"text", "formula", "text_formula", "page", "document_scan"}

// String returns the wire name of k.
func (k InputKind) String() string {
	if k < 0 || int(k) >= len(inputKindNames) {
		return fmt.Sprintf("InputKind(%d)", int(k))
	}
	return inputKindNames[k]
}

// ParseInputKind parses a wire name such as "text_formula".
// Hyphens are accepted in place of underscores.
func ParseInputKind(s string) (InputKind, error) {
	name := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	for i, n := range inputKindNames {
		if n == name {
			return InputKind(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q (must be one of %s)", ErrInvalidInputKind, s, strings.Join(inputKindNames, ", "))
}

// Target is an output representation.
type Target int

const (
	TargetLaTeX Target = iota
	TargetMathML
	TargetOMML
	TargetDocument
	TargetHTML
)

var targetNames = []string{"latex", "mathml", "omml", "docx", "html"}

// String returns the wire name of t.
func (t Target) String() string {
	if t < 0 || int(t) >= len(targetNames) {
		return fmt.Sprintf("Target(%d)", int(t))
	}
	return targetNames[t]
}

// MarshalText implements encoding.TextMarshaler so targets can key JSON maps.
func (t Target) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// IsList reports whether t produces a list of strings.
func (t Target) IsList() bool {
	return t == TargetLaTeX || t == TargetMathML || t == TargetOMML
}

// ParseTarget parses a wire name. "document" is accepted for "docx".
func ParseTarget(s string) (Target, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "document" {
		name = "docx"
	}
	for i, n := range targetNames {
		if n == name {
			return Target(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q (must be one of %s)", ErrInvalidTarget, s, strings.Join(targetNames, ", "))
}

// ParseTargets parses a comma-separated list, dropping duplicates and
// keeping the first-seen order.
func ParseTargets(csv string) ([]Target, error) {
	var out []Target
	seen := make(map[Target]bool)
	for field := range strings.SplitSeq(csv, ",") {
		if strings.TrimSpace(field) == "" {
			continue
		}
		t, err := ParseTarget(field)
		if err != nil {
			return nil, err
		}
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return nil, ErrEmptyTargets
	}
	return out, nil
}

// Input contains analysis parameters.
type Input struct {
	Text      string        // Recognizer output
	Kind      InputKind     // How Text was produced
	Targets   []Target      // Outputs to produce (at least one)
	SourceDir string        // Directory of the source file, for preview image paths (optional)
	Info      *DocumentInfo // Overrides WithDocumentInfo for this input (optional)
}

// Validate checks the input kind and targets.
func (in Input) Validate() error {
	if len(in.Targets) == 0 {
		return ErrEmptyTargets
	}
	if in.Kind < InputText || in.Kind > InputDocumentScan {
		return fmt.Errorf("%w: %s", ErrInvalidInputKind, in.Kind)
	}
	for _, t := range in.Targets {
		if t < TargetLaTeX || t > TargetHTML {
			return fmt.Errorf("%w: %s", ErrInvalidTarget, t)
		}
	}
	return nil
}

// Segment is one ordered text or math run. Math segments carry the
// \begin{math} and \end{math} markers in Text.
type Segment = segment.Segment

// Segment kinds.
const (
	SegmentText = segment.KindText
	SegmentMath = segment.KindMath
)

// Output is the result for one target. Items is set for list targets,
// Document for TargetDocument and HTML for TargetHTML.
type Output struct {
	Target   Target
	Items    []string
	Document *bytes.Reader
	HTML     string
}

// Result holds the segments of one input and the output of every
// requested target.
type Result struct {
	Segments []Segment
	Outputs  map[Target]*Output
}

// DocumentInfo is written to generated documents and previews.
type DocumentInfo struct {
	Title   string
	Author  string
	Created time.Time
}

// Option configures an Analyser.
type Option func(*Analyser)

// WithAssetPath loads the transform and preview style from a directory,
// falling back to the embedded assets for anything missing there.
func WithAssetPath(path string) Option {
	return func(a *Analyser) {
		a.cfg.assetPath = path
	}
}

// WithAssetLoader sets a custom asset loader. It takes precedence over
// WithAssetPath.
func WithAssetLoader(loader AssetLoader) Option {
	return func(a *Analyser) {
		a.publicAssetLoader = loader
	}
}

// WithTransformName selects the transform rule set by name.
func WithTransformName(name string) Option {
	return func(a *Analyser) {
		a.cfg.transformName = name
	}
}

// WithStyle selects the preview stylesheet by name.
func WithStyle(name string) Option {
	return func(a *Analyser) {
		a.cfg.styleName = name
	}
}

// WithNormalization applies Unicode NFC normalization to raw input before
// segmentation. Recognizers sometimes emit decomposed accents.
func WithNormalization() Option {
	return func(a *Analyser) {
		a.cfg.normalize = true
	}
}

// WithLogger receives debug events, such as formulas that fell back to
// their LaTeX source. A nil logger keeps the analyser silent.
func WithLogger(l *slog.Logger) Option {
	return func(a *Analyser) {
		a.logger = l
	}
}

// WithDocumentInfo sets the metadata of generated documents.
func WithDocumentInfo(info DocumentInfo) Option {
	return func(a *Analyser) {
		a.cfg.info = info
	}
}
