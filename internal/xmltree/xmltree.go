// Package xmltree holds the etree helpers shared by the MathML and OMML
// converters and the document writer.
//
// Trees are plain etree elements. Prefixed names such as "m:oMath" are kept
// as the element's Space and Tag and written back exactly as built.
package xmltree

import (
	"errors"
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

// ErrMalformed is returned when markup cannot be parsed into a single-rooted tree.
var ErrMalformed = errors.New("malformed markup")

// Attr is one attribute. Name is written verbatim and may carry a prefix.
type Attr struct {
	Name  string
	Value string
}

// WriteSettings escapes only what XML requires, so text such as a prime or
// a quote is written as the character itself.
var WriteSettings = etree.WriteSettings{
	CanonicalText:    true,
	CanonicalAttrVal: true,
}

// New returns an unparented element with attrs and children appended in order.
func New(tag string, attrs []Attr, children ...*etree.Element) *etree.Element {
	e := etree.NewElement(tag)
	for _, a := range attrs {
		e.CreateAttr(a.Name, a.Value)
	}
	for _, c := range children {
		e.AddChild(c)
	}
	return e
}

// NewText returns an unparented element holding a single text token. An
// empty text still yields an explicit end tag.
func NewText(tag string, attrs []Attr, text string) *etree.Element {
	e := New(tag, attrs)
	e.CreateText(text)
	return e
}

// AttrValue returns the value of the named attribute on e.
func AttrValue(e *etree.Element, name string) (string, bool) {
	if a := e.SelectAttr(name); a != nil {
		return a.Value, true
	}
	return "", false
}

// TextContent returns the concatenated text of e and its descendants.
func TextContent(e *etree.Element) string {
	var b strings.Builder
	collectText(e, &b)
	return b.String()
}

func collectText(e *etree.Element, b *strings.Builder) {
	for _, tok := range e.Child {
		switch t := tok.(type) {
		case *etree.CharData:
			b.WriteString(t.Data)
		case *etree.Element:
			collectText(t, b)
		}
	}
}

// String serializes e and its subtree with WriteSettings.
func String(e *etree.Element) string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	e.WriteTo(&b, &WriteSettings)
	return b.String()
}

// NewDocument returns an empty document using WriteSettings.
func NewDocument() *etree.Document {
	doc := etree.NewDocument()
	doc.WriteSettings = WriteSettings
	return doc
}

// Parse builds a document from markup. Comments, processing instructions,
// directives and whitespace-only text are dropped. Element and attribute
// names keep only their local part; namespace declarations are kept.
func Parse(markup string) (*etree.Document, error) {
	doc := NewDocument()
	if err := doc.ReadFromString(markup); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var root *etree.Element
	for _, tok := range doc.Child {
		switch t := tok.(type) {
		case *etree.Element:
			if root != nil {
				return nil, fmt.Errorf("%w: multiple root elements", ErrMalformed)
			}
			root = t
		case *etree.CharData:
			if !t.IsWhitespace() {
				return nil, fmt.Errorf("%w: text outside root element", ErrMalformed)
			}
		}
	}
	if root == nil {
		return nil, fmt.Errorf("%w: no root element", ErrMalformed)
	}

	doc.Child = doc.Child[:0]
	doc.SetRoot(normalize(root))
	return doc, nil
}

// normalize rebuilds e without prefixes or ignorable tokens.
func normalize(e *etree.Element) *etree.Element {
	out := etree.NewElement(e.Tag)
	for _, a := range e.Attr {
		if a.Space == "xmlns" {
			out.CreateAttr("xmlns:"+a.Key, a.Value)
			continue
		}
		out.CreateAttr(a.Key, a.Value)
	}
	for _, tok := range e.Child {
		switch t := tok.(type) {
		case *etree.Element:
			out.AddChild(normalize(t))
		case *etree.CharData:
			if !t.IsWhitespace() {
				out.CreateText(t.Data)
			}
		}
	}
	return out
}
