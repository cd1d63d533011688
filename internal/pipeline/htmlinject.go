package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"
)

// ErrHeaderRender indicates the document header template failed to render.
var ErrHeaderRender = errors.New("header template rendering failed")

// CSSInjector defines the contract for CSS injection into HTML.
type CSSInjector interface {
	InjectCSS(ctx context.Context, htmlContent, cssContent string) string
}

// CSSInjection injects CSS as a <style> block into HTML content.
type CSSInjection struct{}

// InjectCSS inserts a <style> block into HTML content.
// Tries </head> first, then <body>, then prepends to the HTML.
func (s *CSSInjection) InjectCSS(ctx context.Context, htmlContent, cssContent string) string {
	if cssContent == "" || ctx.Err() != nil {
		return htmlContent
	}

	styleBlock := "<style>" + sanitizeCSS(cssContent) + "</style>"
	lowerHTML := strings.ToLower(htmlContent)

	if idx := strings.Index(lowerHTML, "</head>"); idx != -1 {
		return htmlContent[:idx] + styleBlock + htmlContent[idx:]
	}
	if pos := afterBodyTag(htmlContent, lowerHTML); pos != -1 {
		return htmlContent[:pos] + styleBlock + htmlContent[pos:]
	}
	return styleBlock + htmlContent
}

// sanitizeCSS escapes "</" so the content cannot close the style element.
func sanitizeCSS(css string) string {
	return strings.ReplaceAll(css, "</", `<\/`)
}

// afterBodyTag returns the offset just past the opening body tag, or -1.
func afterBodyTag(htmlContent, lowerHTML string) int {
	idx := strings.Index(lowerHTML, "<body")
	if idx == -1 {
		return -1
	}
	closeIdx := strings.Index(htmlContent[idx:], ">")
	if closeIdx == -1 {
		return -1
	}
	return idx + closeIdx + 1
}

// HeaderData describes the document shown above the preview body.
type HeaderData struct {
	Title    string
	Author   string
	Segments int
	Formulas int
}

// HeaderInjector defines the contract for header injection into HTML.
type HeaderInjector interface {
	InjectHeader(ctx context.Context, htmlContent string, data *HeaderData) (string, error)
}

const headerTemplate = `<header class="meta">
{{- if .Title}}<strong>{{.Title}}</strong>{{end}}
{{- if .Author}} by {{.Author}}{{end}}
{{- if or .Title .Author}} · {{end}}{{.Segments}} segments, {{.Formulas}} formulas</header>`

// HeaderInjection renders a metadata header after the opening body tag.
type HeaderInjection struct {
	tmpl *template.Template
}

// NewHeaderInjection parses the header template.
func NewHeaderInjection() *HeaderInjection {
	return &HeaderInjection{tmpl: template.Must(template.New("header").Parse(headerTemplate))}
}

// InjectHeader renders data and inserts it after <body>. A nil data leaves
// htmlContent unchanged.
func (h *HeaderInjection) InjectHeader(ctx context.Context, htmlContent string, data *HeaderData) (string, error) {
	if data == nil {
		return htmlContent, nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := h.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("%w: %v", ErrHeaderRender, err)
	}

	pos := afterBodyTag(htmlContent, strings.ToLower(htmlContent))
	if pos == -1 {
		return buf.String() + htmlContent, nil
	}
	return htmlContent[:pos] + "\n" + buf.String() + htmlContent[pos:], nil
}
