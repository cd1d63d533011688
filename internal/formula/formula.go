// Package formula chains the LaTeX, MathML and OMML representations of a
// single formula.
//
// The hard chain (LaTeXToOMML) fails on the first error and is used where a
// broken formula must abort the caller. The Try variants fall back to the
// original LaTeX so that one unparseable formula never loses the others.
package formula

import (
	"errors"
	"fmt"

	"github.com/beevik/etree"

	"github.com/alnah/go-mathocr/internal/omml"
	"github.com/alnah/go-mathocr/internal/segment"
	"github.com/alnah/go-mathocr/internal/tex2mml"
	"github.com/alnah/go-mathocr/internal/xmltree"
)

// Sentinel errors for conversion failures.
var (
	ErrConversion      = errors.New("formula conversion failed")
	ErrMalformedMarkup = errors.New("malformed markup")
)

// Converter is safe for concurrent use; its only state is the read-only
// transform.
type Converter struct {
	transform *omml.Transform
}

// New returns a Converter applying t for the MathML to OMML step.
func New(t *omml.Transform) *Converter {
	return &Converter{transform: t}
}

// LaTeXToMathML converts one formula. Math markers around latex are
// stripped, and the root carries no display attribute.
func (c *Converter) LaTeXToMathML(latex string) (string, error) {
	root, err := tex2mml.ConvertTree(segment.Unwrap(latex), "")
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrConversion, err)
	}
	return xmltree.String(root), nil
}

// MathMLToTree parses serialized MathML.
func (c *Converter) MathMLToTree(mathml string) (*etree.Document, error) {
	doc, err := xmltree.Parse(mathml)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedMarkup, err)
	}
	return doc, nil
}

// TreeToOMML applies the transform and returns a new tree.
func (c *Converter) TreeToOMML(doc *etree.Document) (*etree.Document, error) {
	out, err := c.transform.Apply(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedMarkup, err)
	}
	return out, nil
}

// OMMLToFragment returns the embeddable math object of doc.
func (c *Converter) OMMLToFragment(doc *etree.Document) *etree.Element {
	return doc.Root()
}

// LaTeXToOMML runs the full chain and fails on the first error.
func (c *Converter) LaTeXToOMML(latex string) (*etree.Element, error) {
	mathml, err := c.LaTeXToMathML(latex)
	if err != nil {
		return nil, err
	}
	tree, err := c.MathMLToTree(mathml)
	if err != nil {
		return nil, err
	}
	out, err := c.TreeToOMML(tree)
	if err != nil {
		return nil, err
	}
	return c.OMMLToFragment(out), nil
}

// TryLaTeXToMathML returns the MathML for latex, or latex itself when it
// cannot be converted.
func (c *Converter) TryLaTeXToMathML(latex string) string {
	s, err := c.LaTeXToMathML(latex)
	if err != nil {
		return latex
	}
	return s
}

// TryLaTeXToOMML returns the serialized OMML for latex, or latex itself when
// it cannot be converted.
func (c *Converter) TryLaTeXToOMML(latex string) string {
	n, err := c.LaTeXToOMML(latex)
	if err != nil {
		return latex
	}
	return xmltree.String(n)
}

// Degraded reports whether err is a failure the Try variants absorb.
func Degraded(err error) bool {
	return errors.Is(err, ErrConversion) || errors.Is(err, ErrMalformedMarkup)
}
