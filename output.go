package mathocr

import (
	"bytes"
	"context"
	"fmt"

	"github.com/alnah/go-mathocr/internal/docx"
	"github.com/alnah/go-mathocr/internal/formula"
	"github.com/alnah/go-mathocr/internal/pipeline"
	"github.com/alnah/go-mathocr/internal/segment"
	"github.com/alnah/go-mathocr/internal/xmltree"
)

// application is written to the app properties of generated documents.
const application = "mathocr"

// Produce builds one target from segments.
//
// LaTeX returns every segment text in order. MathML and OMML return one
// item per math segment; a formula that cannot be converted is returned as
// its LaTeX source. The document target fails on the first formula that
// cannot be converted. The context is only observed by the HTML target.
func (a *Analyser) Produce(ctx context.Context, segments []Segment, target Target) (*Output, error) {
	return a.produce(ctx, segments, target, documentMeta{info: a.cfg.info})
}

// documentMeta carries per-input settings of the document and HTML targets.
type documentMeta struct {
	info      DocumentInfo
	sourceDir string
}

func (a *Analyser) produce(ctx context.Context, segments []Segment, target Target, meta documentMeta) (*Output, error) {
	switch target {
	case TargetLaTeX:
		items := make([]string, 0, len(segments))
		for _, s := range segments {
			items = append(items, s.Text)
		}
		return &Output{Target: target, Items: items}, nil
	case TargetMathML:
		return a.mathItems(segments, target, a.formulas.LaTeXToMathML)
	case TargetOMML:
		return a.mathItems(segments, target, a.latexToOMML)
	case TargetDocument:
		return a.document(segments, meta)
	case TargetHTML:
		return a.html(ctx, segments, meta)
	default:
		return nil, fmt.Errorf("%w: target %s", ErrNotImplemented, target)
	}
}

func (a *Analyser) latexToOMML(latex string) (string, error) {
	n, err := a.formulas.LaTeXToOMML(latex)
	if err != nil {
		return "", err
	}
	return xmltree.String(n), nil
}

// mathItems converts each math segment with convert, falling back to the
// segment text. Text segments are skipped.
func (a *Analyser) mathItems(segments []Segment, target Target, convert func(string) (string, error)) (*Output, error) {
	items := make([]string, 0, len(segments))
	for _, s := range segments {
		if !segment.IsMathText(s.Text) {
			continue
		}
		item, err := a.tryConvert(s.Text, target, convert)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return &Output{Target: target, Items: items}, nil
}

// tryConvert degrades to the input on conversion failures and logs them.
// Any other error is returned as ErrInternal.
func (a *Analyser) tryConvert(latex string, target Target, convert func(string) (string, error)) (string, error) {
	out, err := convert(latex)
	if err == nil {
		return out, nil
	}
	if !formula.Degraded(err) {
		return "", fmt.Errorf("%w: %w", ErrInternal, err)
	}
	a.logger.Debug("formula kept as LaTeX", "target", target.String(), "latex", latex, "error", err)
	return latex, nil
}

func (a *Analyser) document(segments []Segment, meta documentMeta) (*Output, error) {
	doc := docx.New(docx.Info{
		Title:       meta.info.Title,
		Author:      meta.info.Author,
		Application: application,
		Created:     meta.info.Created,
	})

	if len(segments) > 0 {
		p := doc.AddParagraph()
		for _, s := range segments {
			if !segment.IsMathText(s.Text) {
				p.AddText(s.Text)
				continue
			}
			omath, err := a.formulas.LaTeXToOMML(s.Text)
			if err != nil {
				return nil, err
			}
			if err := p.AddMath(omath); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformedMarkup, err)
			}
		}
	}

	data, err := doc.Bytes()
	if err != nil {
		return nil, fmt.Errorf("writing document: %w", err)
	}
	return &Output{Target: TargetDocument, Document: bytes.NewReader(data)}, nil
}

func (a *Analyser) html(ctx context.Context, segments []Segment, meta documentMeta) (*Output, error) {
	parts := make([]pipeline.Part, 0, len(segments))
	for _, s := range segments {
		if !segment.IsMathText(s.Text) {
			parts = append(parts, pipeline.Part{Kind: pipeline.PartText, Content: s.Text})
			continue
		}
		mathml, err := a.formulas.LaTeXToMathML(s.Text)
		if err != nil {
			if !formula.Degraded(err) {
				return nil, err
			}
			a.logger.Debug("formula kept as LaTeX", "target", TargetHTML.String(), "latex", s.Text, "error", err)
			parts = append(parts, pipeline.Part{Kind: pipeline.PartRawMath, Content: segment.Unwrap(s.Text)})
			continue
		}
		parts = append(parts, pipeline.Part{Kind: pipeline.PartMath, Content: mathml})
	}

	page, err := a.preview.Render(ctx, pipeline.PreviewInput{
		Title:     meta.info.Title,
		Author:    meta.info.Author,
		Parts:     parts,
		SourceDir: meta.sourceDir,
		CSS:       a.style,
	})
	if err != nil {
		return nil, err
	}
	return &Output{Target: TargetHTML, HTML: page}, nil
}
