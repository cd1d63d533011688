package pipeline

import (
	"context"
	"regexp"
	"strconv"
	"strings"
)

// Math placeholders use Unicode Private Use Area characters, which pass
// through Goldmark unchanged and never occur in recognizer output.
const (
	MathStartPlaceholder = "\uE000" // U+E000
	MathEndPlaceholder   = "\uE001" // U+E001
)

var (
	crlfOrCR           = regexp.MustCompile(`\r\n?`)
	multipleBlankLines = regexp.MustCompile(`\n{3,}`)
	mathPlaceholder    = regexp.MustCompile(`\x{E000}([0-9]+)\x{E001}`)
)

// MarkdownPreprocessor defines the contract for markdown preprocessing.
type MarkdownPreprocessor interface {
	PreprocessMarkdown(ctx context.Context, content string) string
}

// CommonMarkPreprocessor normalizes recognizer text before conversion.
type CommonMarkPreprocessor struct{}

// PreprocessMarkdown normalizes line endings and compresses blank lines.
func (p *CommonMarkPreprocessor) PreprocessMarkdown(ctx context.Context, content string) string {
	if ctx.Err() != nil {
		return content
	}
	content = crlfOrCR.ReplaceAllString(content, "\n")
	return multipleBlankLines.ReplaceAllString(content, "\n\n")
}

// stripPlaceholderRunes removes placeholder runes from source text so that
// only placeholders written by MathPlaceholder are substituted.
func stripPlaceholderRunes(content string) string {
	if !strings.ContainsAny(content, MathStartPlaceholder+MathEndPlaceholder) {
		return content
	}
	return strings.NewReplacer(MathStartPlaceholder, "", MathEndPlaceholder, "").Replace(content)
}

// MathPlaceholder returns the placeholder for the i-th math fragment.
func MathPlaceholder(i int) string {
	return MathStartPlaceholder + strconv.Itoa(i) + MathEndPlaceholder
}

// ReplaceMathPlaceholders swaps placeholders in rendered HTML for their
// fragments. Placeholders with no matching fragment are removed.
func ReplaceMathPlaceholders(htmlContent string, fragments []string) string {
	if !strings.Contains(htmlContent, MathStartPlaceholder) {
		return htmlContent
	}
	return mathPlaceholder.ReplaceAllStringFunc(htmlContent, func(m string) string {
		i, err := strconv.Atoi(strings.Trim(m, MathStartPlaceholder+MathEndPlaceholder))
		if err != nil || i < 0 || i >= len(fragments) {
			return ""
		}
		return fragments[i]
	})
}
