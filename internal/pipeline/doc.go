// Package pipeline renders recognized documents as a standalone HTML preview.
//
// The stages mirror a Markdown publishing pipeline:
//   - Markdown preprocessing (line normalization, math placeholders)
//   - Markdown to HTML conversion via Goldmark
//   - Placeholder replacement with MathML or escaped fallback LaTeX
//   - Relative image path rewriting for sources on disk
//   - Header and CSS injection
//
// Text segments are treated as Markdown. Math never passes through Goldmark:
// it is swapped for Private Use Area placeholders before conversion and put
// back afterwards, so Goldmark runs without raw HTML support.
package pipeline
