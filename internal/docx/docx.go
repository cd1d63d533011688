// Package docx writes minimal Office Open XML word-processing packages.
//
// A Document is an ordered list of paragraphs, each holding text runs and
// Office Math objects. Only the parts Word needs to open the file are
// written: content types, package relationships, the main document and the
// core and app properties.
package docx

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/beevik/etree"

	"github.com/alnah/go-mathocr/internal/xmltree"
)

// XML namespaces of the written parts.
const (
	nsW       = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	nsM       = "http://schemas.openxmlformats.org/officeDocument/2006/math"
	nsR       = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	nsPkgRels = "http://schemas.openxmlformats.org/package/2006/relationships"
	nsTypes   = "http://schemas.openxmlformats.org/package/2006/content-types"
	nsCP      = "http://schemas.openxmlformats.org/package/2006/metadata/core-properties"
	nsDC      = "http://purl.org/dc/elements/1.1/"
	nsDCTerms = "http://purl.org/dc/terms/"
	nsXSI     = "http://www.w3.org/2001/XMLSchema-instance"
	nsExtProp = "http://schemas.openxmlformats.org/officeDocument/2006/extended-properties"
)

// ContentType is the MIME type of a .docx file.
const ContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// ErrNotMath is returned when AddMath receives something other than m:oMath.
var ErrNotMath = errors.New("not an m:oMath element")

// Info is written to the core and app property parts.
type Info struct {
	Title       string
	Author      string
	Application string
	Created     time.Time
}

// Document is an in-memory word-processing document.
type Document struct {
	info       Info
	paragraphs []*Paragraph
}

// Paragraph is an ordered list of runs.
type Paragraph struct {
	content []*etree.Element
}

// New returns an empty document.
func New(info Info) *Document {
	return &Document{info: info}
}

// AddParagraph appends an empty paragraph and returns it.
func (d *Document) AddParagraph() *Paragraph {
	p := &Paragraph{}
	d.paragraphs = append(d.paragraphs, p)
	return p
}

// AddText appends a text run. Line breaks become w:br and form feeds become
// page breaks. Characters XML cannot carry are dropped, and invalid UTF-8 is
// written as U+FFFD.
func (p *Paragraph) AddText(text string) *Paragraph {
	run := xmltree.New("w:r", nil)
	var line strings.Builder
	flush := func() {
		if line.Len() == 0 {
			return
		}
		run.AddChild(xmltree.NewText("w:t", []xmltree.Attr{{Name: "xml:space", Value: "preserve"}}, line.String()))
		line.Reset()
	}

	text = strings.ReplaceAll(text, "\r\n", "\n")
	for _, r := range text {
		switch {
		case r == '\n' || r == '\r':
			flush()
			run.CreateElement("w:br")
		case r == '\f':
			flush()
			run.CreateElement("w:br").CreateAttr("w:type", "page")
		case isXMLChar(r):
			line.WriteRune(r)
		}
	}
	flush()

	p.content = append(p.content, run)
	return p
}

// isXMLChar reports whether r may appear in XML character data. Line breaks
// are handled by the caller.
func isXMLChar(r rune) bool {
	return r == '\t' ||
		r >= 0x20 && r <= 0xD7FF ||
		r >= 0xE000 && r <= 0xFFFD ||
		r >= 0x10000 && r <= 0x10FFFF
}

// AddMath appends an m:oMath object. The element is copied, and its
// namespace declaration is dropped because the document root declares it.
func (p *Paragraph) AddMath(omath *etree.Element) error {
	if omath == nil || omath.FullTag() != "m:oMath" {
		return ErrNotMath
	}
	c := omath.Copy()
	c.RemoveAttr("xmlns:m")
	p.content = append(p.content, c)
	return nil
}

// Bytes returns the packaged document.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write packages the document as a zip archive to w.
func (d *Document) Write(w io.Writer) error {
	zw := zip.NewWriter(w)

	parts := []struct {
		name string
		root *etree.Element
	}{
		{"[Content_Types].xml", contentTypes()},
		{"_rels/.rels", packageRels()},
		{"word/document.xml", d.body()},
		{"docProps/core.xml", d.coreProps()},
		{"docProps/app.xml", d.appProps()},
	}

	for _, part := range parts {
		if err := d.writePart(zw, part.name, part.root); err != nil {
			_ = zw.Close()
			return fmt.Errorf("writing %s: %w", part.name, err)
		}
	}
	return zw.Close()
}

func (d *Document) writePart(zw *zip.Writer, name string, root *etree.Element) error {
	fw, err := zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: d.info.Created,
	})
	if err != nil {
		return err
	}

	doc := xmltree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	doc.SetRoot(root)
	_, err = doc.WriteTo(fw)
	return err
}

func (d *Document) body() *etree.Element {
	body := xmltree.New("w:body", nil)
	for _, p := range d.paragraphs {
		para := body.CreateElement("w:p")
		for _, c := range p.content {
			para.AddChild(c.Copy())
		}
	}
	body.CreateElement("w:sectPr")

	return xmltree.New("w:document", []xmltree.Attr{
		{Name: "xmlns:w", Value: nsW},
		{Name: "xmlns:m", Value: nsM},
		{Name: "xmlns:r", Value: nsR},
	}, body)
}

func contentTypes() *etree.Element {
	def := func(ext, ct string) *etree.Element {
		return xmltree.New("Default", []xmltree.Attr{{Name: "Extension", Value: ext}, {Name: "ContentType", Value: ct}})
	}
	override := func(part, ct string) *etree.Element {
		return xmltree.New("Override", []xmltree.Attr{{Name: "PartName", Value: part}, {Name: "ContentType", Value: ct}})
	}
	return xmltree.New("Types", []xmltree.Attr{{Name: "xmlns", Value: nsTypes}},
		def("rels", "application/vnd.openxmlformats-package.relationships+xml"),
		def("xml", "application/xml"),
		override("/word/document.xml", "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"),
		override("/docProps/core.xml", "application/vnd.openxmlformats-package.core-properties+xml"),
		override("/docProps/app.xml", "application/vnd.openxmlformats-officedocument.extended-properties+xml"),
	)
}

func packageRels() *etree.Element {
	rel := func(id, typ, target string) *etree.Element {
		return xmltree.New("Relationship", []xmltree.Attr{
			{Name: "Id", Value: id}, {Name: "Type", Value: typ}, {Name: "Target", Value: target},
		})
	}
	return xmltree.New("Relationships", []xmltree.Attr{{Name: "xmlns", Value: nsPkgRels}},
		rel("rId1", nsR+"/officeDocument", "word/document.xml"),
		rel("rId2", "http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties", "docProps/core.xml"),
		rel("rId3", nsR+"/extended-properties", "docProps/app.xml"),
	)
}

func (d *Document) coreProps() *etree.Element {
	root := xmltree.New("cp:coreProperties", []xmltree.Attr{
		{Name: "xmlns:cp", Value: nsCP},
		{Name: "xmlns:dc", Value: nsDC},
		{Name: "xmlns:dcterms", Value: nsDCTerms},
		{Name: "xmlns:xsi", Value: nsXSI},
	})
	if d.info.Title != "" {
		root.CreateElement("dc:title").SetText(d.info.Title)
	}
	if d.info.Author != "" {
		root.CreateElement("dc:creator").SetText(d.info.Author)
	}
	if !d.info.Created.IsZero() {
		created := root.CreateElement("dcterms:created")
		created.CreateAttr("xsi:type", "dcterms:W3CDTF")
		created.SetText(d.info.Created.UTC().Format(time.RFC3339))
	}
	return root
}

func (d *Document) appProps() *etree.Element {
	root := xmltree.New("Properties", []xmltree.Attr{{Name: "xmlns", Value: nsExtProp}})
	if d.info.Application != "" {
		root.CreateElement("Application").SetText(d.info.Application)
	}
	return root
}
