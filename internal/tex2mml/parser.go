package tex2mml

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/beevik/etree"

	"github.com/alnah/go-mathocr/internal/xmltree"
)

// maxDepth bounds group and argument nesting.
const maxDepth = 64

// stopSet lists the tokens that end a sequence besides EOF and '}'.
type stopSet uint8

const (
	stopRight stopSet = 1 << iota
	stopEnd
	stopCell
	stopBracket
)

type parser struct {
	src   string
	toks  []token
	pos   int
	depth int
}

func newParser(src string) *parser {
	return &parser{src: src, toks: tokenize(src)}
}

func (p *parser) peek() token {
	if p.pos >= len(p.toks) {
		return token{kind: tokEOF, start: len(p.src), end: len(p.src)}
	}
	return p.toks[p.pos]
}

func (p *parser) next() token {
	t := p.peek()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

func (p *parser) enter() error {
	p.depth++
	if p.depth > maxDepth {
		return fmt.Errorf("%w: more than %d levels", ErrNestingTooDeep, maxDepth)
	}
	return nil
}

func (p *parser) leave() { p.depth-- }

func (p *parser) stopsAt(t token, stops stopSet) bool {
	switch {
	case t.kind == tokEOF, t.kind == tokCloseBrace:
		return true
	case t.kind == tokCommand && t.text == "right":
		return stops&stopRight != 0
	case t.kind == tokCommand && t.text == "end":
		return stops&stopEnd != 0
	case t.kind == tokAmp, isRowSeparator(t):
		return stops&stopCell != 0
	case t.kind == tokSymbol && t.text == "]":
		return stops&stopBracket != 0
	}
	return false
}

func isRowSeparator(t token) bool {
	return t.kind == tokCommand && (t.text == `\` || t.text == "cr")
}

// parseSequence parses atoms and their scripts until a stop token.
func (p *parser) parseSequence(stops stopSet) ([]*etree.Element, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	var nodes []*etree.Element
	for {
		tok := p.peek()
		if p.stopsAt(tok, stops) {
			return nodes, nil
		}

		var node *etree.Element
		if tok.kind == tokSup || tok.kind == tokSub {
			// Scripts attach to the previous node, or to an empty base.
			if n := len(nodes); n > 0 {
				node = nodes[n-1]
				nodes = nodes[:n-1]
			} else {
				node = row()
			}
		} else {
			atom, err := p.parseAtom()
			if err != nil {
				return nil, err
			}
			if atom == nil {
				continue
			}
			node = atom
		}

		scripted, err := p.parseScripts(node)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, scripted)
	}
}

func (p *parser) parseScripts(base *etree.Element) (*etree.Element, error) {
	var sub, sup *etree.Element
	primes := ""

loop:
	for {
		tok := p.peek()
		switch {
		case tok.kind == tokSymbol && tok.text == "'" && sup == nil:
			p.next()
			primes += "′"
		case tok.kind == tokSup && sup == nil:
			p.next()
			arg, err := p.parseArgument()
			if err != nil {
				return nil, err
			}
			sup = arg
		case tok.kind == tokSub && sub == nil:
			p.next()
			arg, err := p.parseArgument()
			if err != nil {
				return nil, err
			}
			sub = arg
		default:
			break loop
		}
	}

	if primes != "" {
		mark := textNode("mo", primes)
		if sup == nil {
			sup = mark
		} else {
			sup = row(mark, sup)
		}
	}

	limits := usesLimits(base)
	switch {
	case sub != nil && sup != nil:
		if limits {
			return el("munderover", base, sub, sup), nil
		}
		return el("msubsup", base, sub, sup), nil
	case sub != nil:
		if limits {
			return el("munder", base, sub), nil
		}
		return el("msub", base, sub), nil
	case sup != nil:
		if limits {
			return el("mover", base, sup), nil
		}
		return el("msup", base, sup), nil
	}
	return base, nil
}

func usesLimits(n *etree.Element) bool {
	if n.Tag != "mo" && n.Tag != "mi" {
		return false
	}
	if n.SelectAttrValue("movablelimits", "") == "true" {
		return true
	}
	return limitOperators[xmltree.TextContent(n)]
}

// parseArgument parses one required macro argument: a group or a single token.
func (p *parser) parseArgument() (*etree.Element, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	tok := p.peek()
	switch tok.kind {
	case tokEOF:
		return nil, fmt.Errorf("%w: argument expected at offset %d", ErrNoAvailableTokens, tok.start)
	case tokCloseBrace, tokSup, tokSub, tokAmp:
		return nil, unexpected(tok)
	case tokNumber:
		// A bare number argument takes one digit: \frac12 is \frac{1}{2}.
		r, size := utf8.DecodeRuneInString(tok.text)
		if size < len(tok.text) {
			p.toks[p.pos].text = tok.text[size:]
			p.toks[p.pos].start += size
			return textNode("mn", string(r)), nil
		}
	}

	node, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	if node == nil {
		return row(), nil
	}
	return node, nil
}

func (p *parser) parseGroup() (*etree.Element, error) {
	open := p.next()
	nodes, err := p.parseSequence(0)
	if err != nil {
		return nil, err
	}
	if tok := p.next(); tok.kind != tokCloseBrace {
		return nil, fmt.Errorf("%w: missing } for group at offset %d", ErrNoAvailableTokens, open.start)
	}
	return group(nodes), nil
}

func (p *parser) parseAtom() (*etree.Element, error) {
	tok := p.peek()
	switch tok.kind {
	case tokEOF:
		return nil, fmt.Errorf("%w: atom expected at offset %d", ErrNoAvailableTokens, tok.start)
	case tokOpenBrace:
		return p.parseGroup()
	case tokCloseBrace, tokSup, tokSub:
		return nil, unexpected(tok)
	}

	p.next()
	switch tok.kind {
	case tokLetter:
		return textNode("mi", tok.text), nil
	case tokNumber:
		return textNode("mn", tok.text), nil
	case tokAmp:
		// Column separator outside a table.
		return nil, nil
	case tokSymbol:
		return symbolNode(tok.text), nil
	case tokCommand:
		return p.parseCommand(tok)
	}
	return nil, unexpected(tok)
}

func symbolNode(s string) *etree.Element {
	switch s {
	case "~":
		return textNode("mtext", "\u00a0")
	case "'":
		return textNode("mo", "′")
	}
	return textNode("mo", s)
}

func (p *parser) parseCommand(tok token) (*etree.Element, error) {
	name := tok.text

	if sym, ok := symbols[name]; ok {
		return textNode(sym.tag, sym.char), nil
	}
	if functions[name] {
		return textNode("mi", name), nil
	}
	if width, ok := spaces[name]; ok {
		return xmltree.New("mspace", attrs("width", width)), nil
	}
	if ignored[name] {
		return nil, nil
	}
	if variant, ok := fonts[name]; ok {
		arg, err := p.parseArgument()
		if err != nil {
			return nil, err
		}
		applyVariant(arg, variant)
		return arg, nil
	}
	if mark, ok := accents[name]; ok {
		arg, err := p.parseArgument()
		if err != nil {
			return nil, err
		}
		return xmltree.New("mover", attrs("accent", "true"), arg, textNode("mo", mark)), nil
	}
	if mark, ok := underAccents[name]; ok {
		arg, err := p.parseArgument()
		if err != nil {
			return nil, err
		}
		return xmltree.New("munder", attrs("accentunder", "true"), arg, textNode("mo", mark)), nil
	}
	if bigDelimiters[name] {
		d, err := p.parseDelimiter()
		if err != nil {
			return nil, err
		}
		return xmltree.NewText("mo", attrs("stretchy", "false"), d), nil
	}

	switch name {
	case "frac", "dfrac", "tfrac", "cfrac":
		return p.parseBinary(func(num, den *etree.Element) *etree.Element {
			return el("mfrac", num, den)
		})
	case "binom", "dbinom", "tbinom":
		return p.parseBinary(func(top, bottom *etree.Element) *etree.Element {
			frac := xmltree.New("mfrac", attrs("linethickness", "0"), top, bottom)
			return row(fence("(", "prefix"), frac, fence(")", "postfix"))
		})
	case "overset", "stackrel":
		return p.parseBinary(func(over, base *etree.Element) *etree.Element {
			return el("mover", base, over)
		})
	case "underset":
		return p.parseBinary(func(under, base *etree.Element) *etree.Element {
			return el("munder", base, under)
		})
	case "sqrt":
		return p.parseSqrt()
	case "left":
		return p.parseFence(tok)
	case "right":
		return nil, fmt.Errorf(`%w: \right without \left at offset %d`, ErrUnexpectedToken, tok.start)
	case "middle":
		d, err := p.parseDelimiter()
		if err != nil {
			return nil, err
		}
		return xmltree.NewText("mo", attrs("stretchy", "true"), d), nil
	case "begin":
		return p.parseEnvironment(tok)
	case "end":
		return nil, fmt.Errorf(`%w: \end without \begin at offset %d`, ErrMismatchedEnvironment, tok.start)
	case "text", "textrm", "textnormal", "textup", "mbox", "hbox":
		return p.parseText("")
	case "textbf":
		return p.parseText("bold")
	case "textit", "emph":
		return p.parseText("italic")
	case "textsf":
		return p.parseText("sans-serif")
	case "texttt":
		return p.parseText("monospace")
	case "operatorname":
		return p.parseOperatorName()
	case "mathop":
		arg, err := p.parseArgument()
		if err != nil {
			return nil, err
		}
		arg.CreateAttr("movablelimits", "true")
		return arg, nil
	case "overbrace":
		return p.parseUnary(func(arg *etree.Element) *etree.Element {
			return el("mover", arg, textNode("mo", "⏞"))
		})
	case "underbrace":
		return p.parseUnary(func(arg *etree.Element) *etree.Element {
			return el("munder", arg, textNode("mo", "⏟"))
		})
	case "boxed", "fbox":
		return p.parseUnary(func(arg *etree.Element) *etree.Element {
			return xmltree.New("menclose", attrs("notation", "box"), arg)
		})
	case "cancel":
		return p.parseUnary(func(arg *etree.Element) *etree.Element {
			return xmltree.New("menclose", attrs("notation", "updiagonalstrike"), arg)
		})
	case "bcancel":
		return p.parseUnary(func(arg *etree.Element) *etree.Element {
			return xmltree.New("menclose", attrs("notation", "downdiagonalstrike"), arg)
		})
	case "phantom":
		return p.parseUnary(func(arg *etree.Element) *etree.Element {
			return el("mphantom", arg)
		})
	case "not":
		return p.parseNot()
	case "xrightarrow", "xleftarrow":
		return p.parseExtensibleArrow(name)
	case "pmod":
		return p.parseUnary(func(arg *etree.Element) *etree.Element {
			return row(
				xmltree.New("mspace", attrs("width", "1em")),
				textNode("mo", "("), textNode("mi", "mod"),
				xmltree.New("mspace", attrs("width", "0.333em")),
				arg, textNode("mo", ")"),
			)
		})
	case "bmod", "mod":
		return textNode("mo", "mod"), nil
	case "color", "label":
		if _, err := p.parseRawArgument(); err != nil {
			return nil, err
		}
		return nil, nil
	case "textcolor":
		color, err := p.parseRawArgument()
		if err != nil {
			return nil, err
		}
		arg, err := p.parseArgument()
		if err != nil {
			return nil, err
		}
		return xmltree.New("mstyle", attrs("mathcolor", strings.TrimSpace(color)), arg), nil
	case "tag":
		raw, err := p.parseRawArgument()
		if err != nil {
			return nil, err
		}
		return textNode("mtext", "("+raw+")"), nil
	case "hspace":
		raw, err := p.parseRawArgument()
		if err != nil {
			return nil, err
		}
		return xmltree.New("mspace", attrs("width", strings.TrimSpace(raw))), nil
	}

	// Unknown commands degrade to an identifier carrying the command name.
	return textNode("mi", `\`+name), nil
}

func (p *parser) parseUnary(build func(arg *etree.Element) *etree.Element) (*etree.Element, error) {
	arg, err := p.parseArgument()
	if err != nil {
		return nil, err
	}
	return build(arg), nil
}

func (p *parser) parseBinary(build func(a, b *etree.Element) *etree.Element) (*etree.Element, error) {
	a, err := p.parseArgument()
	if err != nil {
		return nil, err
	}
	b, err := p.parseArgument()
	if err != nil {
		return nil, err
	}
	return build(a, b), nil
}

// parseOptional parses a bracketed optional argument, or returns nil.
func (p *parser) parseOptional() (*etree.Element, error) {
	tok := p.peek()
	if tok.kind != tokSymbol || tok.text != "[" {
		return nil, nil
	}
	p.next()
	nodes, err := p.parseSequence(stopBracket)
	if err != nil {
		return nil, err
	}
	if end := p.next(); end.kind != tokSymbol || end.text != "]" {
		return nil, fmt.Errorf("%w: missing ] at offset %d", ErrNoAvailableTokens, tok.start)
	}
	return group(nodes), nil
}

func (p *parser) parseSqrt() (*etree.Element, error) {
	index, err := p.parseOptional()
	if err != nil {
		return nil, err
	}
	body, err := p.parseArgument()
	if err != nil {
		return nil, err
	}
	if index != nil {
		return el("mroot", body, index), nil
	}
	return el("msqrt", body), nil
}

func (p *parser) parseExtensibleArrow(name string) (*etree.Element, error) {
	below, err := p.parseOptional()
	if err != nil {
		return nil, err
	}
	above, err := p.parseArgument()
	if err != nil {
		return nil, err
	}
	arrow := "→"
	if name == "xleftarrow" {
		arrow = "←"
	}
	op := xmltree.NewText("mo", attrs("stretchy", "true"), arrow)
	if below != nil {
		return el("munderover", op, below, above), nil
	}
	return el("mover", op, above), nil
}

func (p *parser) parseNot() (*etree.Element, error) {
	arg, err := p.parseArgument()
	if err != nil {
		return nil, err
	}
	text := xmltree.TextContent(arg)
	if neg, ok := negations[text]; ok {
		return textNode("mo", neg), nil
	}
	return textNode("mo", text+"\u0338"), nil
}

func (p *parser) parseFence(left token) (*etree.Element, error) {
	open, err := p.parseDelimiter()
	if err != nil {
		return nil, err
	}
	body, err := p.parseSequence(stopRight)
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tokCommand || tok.text != "right" {
		return nil, fmt.Errorf(`%w: missing \right for \left at offset %d`, ErrNoAvailableTokens, left.start)
	}
	p.next()
	closing, err := p.parseDelimiter()
	if err != nil {
		return nil, err
	}

	children := make([]*etree.Element, 0, len(body)+2)
	children = append(children, fence(open, "prefix"))
	children = append(children, body...)
	children = append(children, fence(closing, "postfix"))
	return row(children...), nil
}

// parseDelimiter reads the delimiter after \left, \right, \middle or a size
// command. A period yields the empty delimiter.
func (p *parser) parseDelimiter() (string, error) {
	tok := p.next()
	switch tok.kind {
	case tokEOF:
		return "", fmt.Errorf("%w: delimiter expected at offset %d", ErrNoAvailableTokens, tok.start)
	case tokSymbol:
		switch tok.text {
		case ".":
			return "", nil
		case "<":
			return "⟨", nil
		case ">":
			return "⟩", nil
		}
		return tok.text, nil
	case tokCommand:
		if sym, ok := symbols[tok.text]; ok && sym.tag == "mo" {
			return sym.char, nil
		}
	}
	return "", unexpected(tok)
}

func (p *parser) parseText(variant string) (*etree.Element, error) {
	raw, err := p.parseRawArgument()
	if err != nil {
		return nil, err
	}
	n := textNode("mtext", textUnescaper.Replace(raw))
	if variant != "" {
		n.CreateAttr("mathvariant", variant)
	}
	return n, nil
}

func (p *parser) parseOperatorName() (*etree.Element, error) {
	limits := false
	if tok := p.peek(); tok.kind == tokSymbol && tok.text == "*" {
		p.next()
		limits = true
	}
	raw, err := p.parseRawArgument()
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(textUnescaper.Replace(raw))
	n := textNode("mi", name)
	if utf8.RuneCountInString(name) == 1 {
		n.CreateAttr("mathvariant", "normal")
	}
	if limits {
		n.CreateAttr("movablelimits", "true")
	}
	return n, nil
}

// parseRawArgument returns the source text of a braced argument, or of a
// single token when no brace follows.
func (p *parser) parseRawArgument() (string, error) {
	tok := p.peek()
	switch tok.kind {
	case tokEOF:
		return "", fmt.Errorf("%w: argument expected at offset %d", ErrNoAvailableTokens, tok.start)
	case tokCloseBrace:
		return "", unexpected(tok)
	case tokOpenBrace:
	default:
		p.next()
		return p.src[tok.start:tok.end], nil
	}

	open := p.next()
	depth := 1
	for {
		t := p.next()
		switch t.kind {
		case tokEOF:
			return "", fmt.Errorf("%w: missing } at offset %d", ErrNoAvailableTokens, open.start)
		case tokOpenBrace:
			depth++
		case tokCloseBrace:
			depth--
			if depth == 0 {
				return p.src[open.end:t.start], nil
			}
		}
	}
}

func (p *parser) parseEnvironment(begin token) (*etree.Element, error) {
	name, err := p.parseEnvName()
	if err != nil {
		return nil, err
	}
	if tableEnvironments[name] {
		return p.parseTable(name, begin)
	}

	body, err := p.parseSequence(stopEnd)
	if err != nil {
		return nil, err
	}
	if err := p.expectEnd(name, begin); err != nil {
		return nil, err
	}
	return group(body), nil
}

func (p *parser) parseEnvName() (string, error) {
	if tok := p.peek(); tok.kind != tokOpenBrace {
		return "", fmt.Errorf("%w: environment name expected at offset %d", ErrNoAvailableTokens, tok.start)
	}
	raw, err := p.parseRawArgument()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(raw), nil
}

func (p *parser) expectEnd(name string, begin token) error {
	if tok := p.peek(); tok.kind != tokCommand || tok.text != "end" {
		return fmt.Errorf(`%w: missing \end{%s} for \begin at offset %d`, ErrNoAvailableTokens, name, begin.start)
	}
	p.next()
	got, err := p.parseEnvName()
	if err != nil {
		return err
	}
	if got != name {
		return fmt.Errorf(`%w: \begin{%s} closed by \end{%s}`, ErrMismatchedEnvironment, name, got)
	}
	return nil
}

func (p *parser) parseTable(name string, begin token) (*etree.Element, error) {
	// Column specification of array and alignat.
	if name == "array" || strings.HasPrefix(name, "alignat") {
		if tok := p.peek(); tok.kind == tokOpenBrace {
			if _, err := p.parseRawArgument(); err != nil {
				return nil, err
			}
		}
	}

	var rows []*etree.Element
	for {
		var cells []*etree.Element
		for {
			content, err := p.parseSequence(stopEnd | stopCell)
			if err != nil {
				return nil, err
			}
			cells = append(cells, el("mtd", content...))
			if tok := p.peek(); tok.kind == tokAmp {
				p.next()
				continue
			}
			break
		}
		rows = append(rows, el("mtr", cells...))

		if tok := p.peek(); isRowSeparator(tok) {
			p.next()
			if _, err := p.parseOptional(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}

	// A trailing row separator leaves one empty row behind.
	if n := len(rows); n > 1 {
		if cells := rows[n-1].ChildElements(); len(cells) == 1 && len(cells[0].Child) == 0 {
			rows = rows[:n-1]
		}
	}

	if err := p.expectEnd(name, begin); err != nil {
		return nil, err
	}

	table := el("mtable", rows...)
	switch name {
	case "cases":
		table.CreateAttr("columnalign", "left left")
		return row(fence("{", "prefix"), table), nil
	case "aligned", "align", "align*", "split", "alignat", "alignat*", "eqnarray", "eqnarray*":
		table.CreateAttr("columnalign", "right left")
	}
	if f, ok := matrixFences[name]; ok {
		return row(fence(f[0], "prefix"), table, fence(f[1], "postfix")), nil
	}
	return table, nil
}

func applyVariant(n *etree.Element, variant string) {
	if n.Tag == "mi" || n.Tag == "mn" {
		n.CreateAttr("mathvariant", variant)
		return
	}
	for _, c := range n.ChildElements() {
		applyVariant(c, variant)
	}
}

var textUnescaper = strings.NewReplacer(
	`\%`, "%", `\&`, "&", `\_`, "_", `\$`, "$", `\#`, "#",
	`\{`, "{", `\}`, "}", `\ `, " ", "~", "\u00a0",
)

func el(name string, children ...*etree.Element) *etree.Element {
	return xmltree.New(name, nil, children...)
}

func row(children ...*etree.Element) *etree.Element {
	return el("mrow", children...)
}

func group(nodes []*etree.Element) *etree.Element {
	if len(nodes) == 1 {
		return nodes[0]
	}
	return row(nodes...)
}

func textNode(name, text string) *etree.Element {
	return xmltree.NewText(name, nil, text)
}

func fence(char, form string) *etree.Element {
	return xmltree.NewText("mo", []xmltree.Attr{
		{Name: "fence", Value: "true"},
		{Name: "form", Value: form},
		{Name: "stretchy", Value: "true"},
	}, char)
}

func attrs(name, value string) []xmltree.Attr {
	return []xmltree.Attr{{Name: name, Value: value}}
}
