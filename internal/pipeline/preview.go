package pipeline

import (
	"context"
	"fmt"
	"html"
	"strings"
)

// PartKind discriminates preview parts.
type PartKind int

const (
	// PartText is Markdown source.
	PartText PartKind = iota
	// PartMath is trusted markup, normally MathML, inserted verbatim.
	PartMath
	// PartRawMath is a formula that could not be converted; it is shown
	// escaped and marked as an error.
	PartRawMath
)

// Part is one ordered piece of a preview.
type Part struct {
	Kind    PartKind
	Content string
}

// PreviewInput holds the parts and metadata of one preview.
type PreviewInput struct {
	Title     string
	Author    string
	Parts     []Part
	SourceDir string
	CSS       string
}

// Preview renders ordered text and math parts as one HTML document.
// It is safe for concurrent use.
type Preview struct {
	preprocessor   MarkdownPreprocessor
	htmlConverter  HTMLConverter
	cssInjector    CSSInjector
	headerInjector HeaderInjector
}

// NewPreview creates a Preview with the default stages.
func NewPreview() *Preview {
	return &Preview{
		preprocessor:   &CommonMarkPreprocessor{},
		htmlConverter:  NewGoldmarkConverter(),
		cssInjector:    &CSSInjection{},
		headerInjector: NewHeaderInjection(),
	}
}

// Render runs every stage and returns the HTML document.
func (p *Preview) Render(ctx context.Context, in PreviewInput) (string, error) {
	markdown, fragments := buildMarkdown(in.Parts)

	markdown = p.preprocessor.PreprocessMarkdown(ctx, markdown)
	if err := ctx.Err(); err != nil {
		return "", err
	}

	htmlContent, err := p.htmlConverter.ToHTML(ctx, in.Title, markdown)
	if err != nil {
		return "", fmt.Errorf("converting to HTML: %w", err)
	}
	htmlContent = ReplaceMathPlaceholders(htmlContent, fragments)

	htmlContent, err = RewriteImagePaths(htmlContent, in.SourceDir)
	if err != nil {
		return "", fmt.Errorf("rewriting image paths: %w", err)
	}

	htmlContent, err = p.headerInjector.InjectHeader(ctx, htmlContent, headerFor(in))
	if err != nil {
		return "", fmt.Errorf("injecting header: %w", err)
	}

	return p.cssInjector.InjectCSS(ctx, htmlContent, in.CSS), nil
}

// buildMarkdown joins text parts and replaces each math part with a
// placeholder. It returns the Markdown and the fragments in order.
func buildMarkdown(parts []Part) (string, []string) {
	var b strings.Builder
	var fragments []string
	for _, part := range parts {
		switch part.Kind {
		case PartText:
			b.WriteString(stripPlaceholderRunes(part.Content))
		case PartMath:
			b.WriteString(MathPlaceholder(len(fragments)))
			fragments = append(fragments, part.Content)
		case PartRawMath:
			b.WriteString(MathPlaceholder(len(fragments)))
			fragments = append(fragments, `<code class="math-error">`+html.EscapeString(part.Content)+`</code>`)
		}
	}
	return b.String(), fragments
}

func headerFor(in PreviewInput) *HeaderData {
	data := &HeaderData{Title: in.Title, Author: in.Author}
	for _, part := range in.Parts {
		data.Segments++
		if part.Kind != PartText {
			data.Formulas++
		}
	}
	return data
}
