package omml

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/beevik/etree"

	"github.com/alnah/go-mathocr/internal/xmltree"
)

// Apply transforms a MathML tree into a new tree rooted at the OMML math
// object. The input is not modified. Elements without a rule are treated
// as groups.
func (t *Transform) Apply(doc *etree.Document) (*etree.Document, error) {
	if doc == nil || doc.Root() == nil {
		return nil, ErrEmptyTree
	}
	src := doc.Root()
	r, ok := t.match(src)
	if !ok || r.Kind != kindRoot {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedRoot, src.Tag)
	}

	children := t.sequence(src.ChildElements())
	out := xmltree.NewDocument()
	out.SetRoot(xmltree.New(t.q(t.root), []xmltree.Attr{{Name: "xmlns:" + t.prefix, Value: t.namespace}}, children...))
	return out, nil
}

func (t *Transform) q(local string) string {
	return t.prefix + ":" + local
}

func (t *Transform) el(local string, children ...*etree.Element) *etree.Element {
	return xmltree.New(t.q(local), nil, children...)
}

func (t *Transform) val(local, value string) *etree.Element {
	return xmltree.New(t.q(local), []xmltree.Attr{{Name: t.q("val"), Value: value}})
}

// match returns the first rule of n's element whose condition holds.
func (t *Transform) match(n *etree.Element) (rule, bool) {
	for _, r := range t.elements[n.Tag] {
		if r.When == nil || t.holds(r.When, n) {
			return r, true
		}
	}
	return rule{}, false
}

func (t *Transform) holds(c *condition, n *etree.Element) bool {
	if c.Attr != "" {
		if v, ok := xmltree.AttrValue(n, c.Attr); !ok || v != c.Value {
			return false
		}
	}
	if c.TextIn != "" && !t.sets[c.TextIn][strings.TrimSpace(xmltree.TextContent(n))] {
		return false
	}
	if c.BaseIn != "" {
		elems := n.ChildElements()
		if len(elems) == 0 || !t.sets[c.BaseIn][strings.TrimSpace(xmltree.TextContent(elems[0]))] {
			return false
		}
	}
	if c.Fenced {
		elems := n.ChildElements()
		if len(elems) == 0 || !isFence(elems[0]) {
			return false
		}
	}
	return true
}

func isFence(n *etree.Element) bool {
	return n.Tag == "mo" && n.SelectAttrValue("fence", "") == "true"
}

// sequence transforms sibling elements. An n-ary operator takes the sibling
// after it as its operand.
func (t *Transform) sequence(elems []*etree.Element) []*etree.Element {
	var out []*etree.Element
	for i := 0; i < len(elems); i++ {
		n := elems[i]
		r, ok := t.match(n)
		if !ok {
			out = append(out, t.sequence(n.ChildElements())...)
			continue
		}
		if r.Kind == kindNary {
			var operand *etree.Element
			if i+1 < len(elems) {
				operand = elems[i+1]
				i++
			}
			out = append(out, t.nary(n, r, operand))
			continue
		}
		out = append(out, t.node(n, r)...)
	}
	return out
}

func (t *Transform) node(n *etree.Element, r rule) []*etree.Element {
	switch r.Kind {
	case kindSkip:
		return nil
	case kindRun:
		return []*etree.Element{t.run(n, r)}
	case kindStruct:
		return []*etree.Element{t.structure(n, r)}
	case kindAccent:
		return []*etree.Element{t.accent(n)}
	case kindLimits:
		return []*etree.Element{t.limits(n)}
	case kindTable:
		return []*etree.Element{t.table(n)}
	case kindFence:
		return []*etree.Element{t.fence(n)}
	case kindNary:
		return []*etree.Element{t.nary(n, r, nil)}
	}
	// root and group
	return t.sequence(n.ChildElements())
}

// slot wraps the transformed content in m:<name>.
func (t *Transform) slot(name string, content ...*etree.Element) *etree.Element {
	var children []*etree.Element
	for _, c := range content {
		if c != nil {
			children = append(children, t.sequence([]*etree.Element{c})...)
		}
	}
	return t.el(name, children...)
}

func (t *Transform) props(element string, props []prop, extra ...*etree.Element) *etree.Element {
	children := extra
	for _, p := range props {
		children = append(children, t.val(p.Name, p.Val))
	}
	if len(children) == 0 {
		return nil
	}
	return t.el(element+"Pr", children...)
}

func (t *Transform) run(n *etree.Element, r rule) *etree.Element {
	text := xmltree.TextContent(n)
	sty := r.Style
	if r.MultiStyle != "" && utf8.RuneCountInString(text) > 1 {
		sty = r.MultiStyle
	}
	scr := ""
	if mv, ok := xmltree.AttrValue(n, "mathvariant"); ok {
		if v, ok := t.variants[mv]; ok {
			sty, scr = v.Sty, v.Scr
		}
	}

	run := t.el("r")
	var rPr []*etree.Element
	if scr != "" {
		rPr = append(rPr, t.val("scr", scr))
	}
	if sty != "" {
		rPr = append(rPr, t.val("sty", sty))
	}
	if len(rPr) > 0 {
		run.AddChild(t.el("rPr", rPr...))
	}

	tNode := xmltree.NewText(t.q("t"), nil, text)
	if strings.TrimSpace(text) != text {
		tNode.CreateAttr("xml:space", "preserve")
	}
	run.AddChild(tNode)
	return run
}

func (t *Transform) structure(n *etree.Element, r rule) *etree.Element {
	elems := n.ChildElements()
	filled := make(map[string][]*etree.Element, len(r.Children))
	if len(r.Children) == 1 {
		// A single slot takes every child, as for msqrt's inferred mrow.
		filled[r.Children[0]] = elems
	} else {
		for i, name := range r.Children {
			if i < len(elems) {
				filled[name] = []*etree.Element{elems[i]}
			}
		}
		if extra := len(elems) - len(r.Children); extra > 0 {
			last := r.Children[len(r.Children)-1]
			filled[last] = append(filled[last], elems[len(r.Children):]...)
		}
	}

	out := t.el(r.Element)
	if pr := t.props(r.Element, r.Props); pr != nil {
		out.AddChild(pr)
	}
	order := r.Order
	if len(order) == 0 {
		order = r.Children
	}
	for _, name := range order {
		out.AddChild(t.slot(name, filled[name]...))
	}
	return out
}

func (t *Transform) accent(n *etree.Element) *etree.Element {
	elems := n.ChildElements()
	var base *etree.Element
	chr := ""
	if len(elems) > 0 {
		base = elems[0]
	}
	if len(elems) > 1 {
		chr = strings.TrimSpace(xmltree.TextContent(elems[1]))
	}
	return t.el("acc",
		t.el("accPr", t.val("chr", chr)),
		t.slot("e", base),
	)
}

func (t *Transform) limits(n *etree.Element) *etree.Element {
	elems := make([]*etree.Element, 3)
	copy(elems, n.ChildElements())
	base, under, over := elems[0], elems[1], elems[2]

	upper := t.el("limUpp", t.slot("e", base), t.slot("lim", over))
	return t.el("limLow", t.el("e", upper), t.slot("lim", under))
}

// nary builds m:nary. A rule without children means n is the bare operator.
func (t *Transform) nary(n *etree.Element, r rule, operand *etree.Element) *etree.Element {
	op := n
	var sub, sup *etree.Element
	if len(r.Children) > 0 {
		elems := n.ChildElements()
		if len(elems) > 0 {
			op = elems[0]
		}
		for i, name := range r.Children[1:] {
			if i+1 >= len(elems) {
				break
			}
			switch name {
			case "sub":
				sub = elems[i+1]
			case "sup":
				sup = elems[i+1]
			}
		}
	}

	chr := t.val("chr", strings.TrimSpace(xmltree.TextContent(op)))
	pr := t.props("nary", r.Props, chr)
	if sub == nil {
		pr.AddChild(t.val("subHide", "1"))
	}
	if sup == nil {
		pr.AddChild(t.val("supHide", "1"))
	}
	return t.el("nary", pr, t.slot("sub", sub), t.slot("sup", sup), t.slot("e", operand))
}

func (t *Transform) table(n *etree.Element) *etree.Element {
	m := t.el("m")
	for _, tr := range n.ChildElements() {
		mr := t.el("mr")
		for _, td := range tr.ChildElements() {
			mr.AddChild(t.el("e", t.sequence(td.ChildElements())...))
		}
		m.AddChild(mr)
	}
	return m
}

func (t *Transform) fence(n *etree.Element) *etree.Element {
	elems := n.ChildElements()
	begin := strings.TrimSpace(xmltree.TextContent(elems[0]))
	inner := elems[1:]
	end := ""
	if k := len(inner); k > 0 && isFence(inner[k-1]) {
		end = strings.TrimSpace(xmltree.TextContent(inner[k-1]))
		inner = inner[:k-1]
	}

	return t.el("d",
		t.el("dPr", t.val("begChr", begin), t.val("endChr", end)),
		t.el("e", t.sequence(inner)...),
	)
}
