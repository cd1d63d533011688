// Package tex2mml converts LaTeX math to presentation MathML.
//
// The converter is a recursive-descent parser over an index-cursor token
// stream. Unknown control words degrade to identifiers so that partially
// recognized formulas still render; structural problems such as a missing
// argument or an unclosed environment are reported as errors.
package tex2mml

import (
	"errors"
	"fmt"

	"github.com/beevik/etree"

	"github.com/alnah/go-mathocr/internal/xmltree"
)

// Namespace is the MathML namespace written on the root element.
const Namespace = "http://www.w3.org/1998/Math/MathML"

// Sentinel errors for conversion failures.
var (
	ErrNoAvailableTokens     = errors.New("no available tokens")
	ErrUnexpectedToken       = errors.New("unexpected token")
	ErrMismatchedEnvironment = errors.New("mismatched environment")
	ErrNestingTooDeep        = errors.New("nesting too deep")
)

// Display is the value of the root display attribute.
type Display string

const (
	DisplayInline Display = "inline"
	DisplayBlock  Display = "block"
)

// Convert returns the serialized MathML for latex.
func Convert(latex string, display Display) (string, error) {
	root, err := ConvertTree(latex, display)
	if err != nil {
		return "", err
	}
	return xmltree.String(root), nil
}

// ConvertTree returns the MathML element tree for latex. The root is a math
// element holding a single mrow. An empty display omits the attribute.
func ConvertTree(latex string, display Display) (*etree.Element, error) {
	p := newParser(latex)
	nodes, err := p.parseSequence(0)
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tokEOF {
		return nil, unexpected(tok)
	}

	root := xmltree.New("math", []xmltree.Attr{{Name: "xmlns", Value: Namespace}})
	if display != "" {
		root.CreateAttr("display", string(display))
	}
	root.AddChild(row(nodes...))
	return root, nil
}

func unexpected(t token) error {
	if t.kind == tokEOF {
		return fmt.Errorf("%w: end of input", ErrNoAvailableTokens)
	}
	return fmt.Errorf("%w %q at offset %d", ErrUnexpectedToken, t.text, t.start)
}
