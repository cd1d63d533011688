// Package segment splits recognizer output into ordered text and math runs.
//
// Math runs are delimited by dollar toggles. A run is also cut at line
// breaks, matrix row separators and matrix environment keywords, because
// recognizers emit one formula per visual line. Math runs are returned
// wrapped in repair.MathBegin and repair.MathEnd.
package segment

import (
	"sort"
	"strings"

	"github.com/alnah/go-mathocr/internal/repair"
)

// Kind discriminates text and math segments.
type Kind int

const (
	KindText Kind = iota
	KindMath
)

// String returns the lowercase kind name.
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindMath:
		return "math"
	default:
		return "unknown"
	}
}

// Segment is one run of recognized content. Math segments carry the math
// markers in Text.
type Segment struct {
	Kind Kind
	Text string
}

// IsMathText reports whether s is a wrapped math run.
func IsMathText(s string) bool {
	return strings.HasPrefix(s, repair.MathBegin)
}

// Unwrap returns the interior of a wrapped math run, or s unchanged.
func Unwrap(s string) string {
	if !IsMathText(s) {
		return s
	}
	return strings.TrimSuffix(strings.TrimPrefix(s, repair.MathBegin), repair.MathEnd)
}

// Mode selects how raw input is scanned.
type Mode int

const (
	// ModeMixed treats input as prose with dollar-delimited math.
	ModeMixed Mode = iota
	// ModeFormulaOnly treats input as math. Dollar toggles are honored when
	// at least one opens and closes a run; otherwise the whole input is one
	// math scope and stray toggles are dropped.
	ModeFormulaOnly
	// ModeTextOnly returns the input as a single text segment.
	ModeTextOnly
)

type keywordKind int

const (
	kwRowSep keywordKind = iota
	kwMatrix
	kwArrayBegin
	kwArrayEnd
)

type keyword struct {
	text []rune
	kind keywordKind
}

// keywords is sorted longest first so lookups prefer the longest match.
var keywords = buildKeywords()

func buildKeywords() []keyword {
	var kws []keyword
	add := func(s string, k keywordKind) {
		kws = append(kws, keyword{text: []rune(s), kind: k})
	}
	add(`\\`, kwRowSep)
	add(`\begin{array}`, kwArrayBegin)
	add(`\end{array}`, kwArrayEnd)
	for _, env := range []string{"matrix", "pmatrix", "bmatrix", "Bmatrix", "vmatrix", "Vmatrix", "smallmatrix"} {
		add(`\begin{`+env+`}`, kwMatrix)
		add(`\end{`+env+`}`, kwMatrix)
	}
	sort.SliceStable(kws, func(i, j int) bool {
		return len(kws[i].text) > len(kws[j].text)
	})
	return kws
}

var arrayEnd = []rune(`\end{array}`)

// Split scans raw and returns its segments in source order. No returned
// segment is empty, a bare line break, or a math run with a blank interior.
func Split(raw string, mode Mode) []Segment {
	if mode == ModeTextOnly {
		if raw == "" {
			return nil
		}
		return []Segment{{Kind: KindText, Text: raw}}
	}

	s := newScanner(raw)
	if mode == ModeFormulaOnly && !s.hasTogglePair() {
		s.inMath = true
		s.dropToggles = true
	}
	s.run()
	return s.out
}

type scanner struct {
	src []rune
	pos int

	inMath      bool
	dropToggles bool
	arrayDepth  int
	buf         []rune
	out         []Segment

	toggle       []bool
	nextToggle   []int // first toggle at or after i, len(src) if none
	nextArrayEnd []int // first \end{array} at or after i, len(src) if none
}

func newScanner(raw string) *scanner {
	src := []rune(raw)
	n := len(src)
	s := &scanner{
		src:          src,
		toggle:       make([]bool, n),
		nextToggle:   make([]int, n+1),
		nextArrayEnd: make([]int, n+1),
	}

	backslashes := 0
	for i, r := range src {
		if r == '$' && backslashes%2 == 0 {
			s.toggle[i] = true
		}
		if r == '\\' {
			backslashes++
		} else {
			backslashes = 0
		}
	}

	s.nextToggle[n] = n
	s.nextArrayEnd[n] = n
	for i := n - 1; i >= 0; i-- {
		s.nextToggle[i] = s.nextToggle[i+1]
		if s.toggle[i] {
			s.nextToggle[i] = i
		}
		s.nextArrayEnd[i] = s.nextArrayEnd[i+1]
		if hasRunesAt(src, i, arrayEnd) {
			s.nextArrayEnd[i] = i
		}
	}
	return s
}

// hasTogglePair reports whether the first toggle marker has a closer.
// A doubled marker counts as one.
func (s *scanner) hasTogglePair() bool {
	first := s.nextToggle[0]
	if first >= len(s.src) {
		return false
	}
	after := first + 1
	if after < len(s.src) && s.toggle[after] {
		after++
	}
	return s.nextToggle[after] < len(s.src)
}

func (s *scanner) run() {
	for s.pos < len(s.src) {
		switch {
		case s.toggle[s.pos] && s.dropToggles:
			s.pos++
		case s.toggle[s.pos]:
			s.flip()
		case s.inMath:
			s.scanMath()
		default:
			s.buf = append(s.buf, s.src[s.pos])
			s.pos++
		}
	}
	if s.inMath {
		s.flushMath()
	} else {
		s.flushText()
	}
}

// flip handles a toggle marker, treating a doubled marker as one.
func (s *scanner) flip() {
	start := s.pos
	s.pos++
	if s.pos < len(s.src) && s.toggle[s.pos] {
		s.pos++
	}

	if s.inMath {
		s.flushMath()
		s.inMath = false
		s.arrayDepth = 0
		return
	}

	// An opener with no closer anywhere after it is literal text.
	if s.nextToggle[s.pos] >= len(s.src) {
		s.buf = append(s.buf, s.src[start:s.pos]...)
		return
	}
	s.flushText()
	s.inMath = true
	s.arrayDepth = 0
}

func (s *scanner) scanMath() {
	if kw, ok := s.keywordAt(); ok {
		s.applyKeyword(kw)
		return
	}

	r := s.src[s.pos]
	switch r {
	case '\r', '\n':
		s.pos++
		if r == '\r' && s.pos < len(s.src) && s.src[s.pos] == '\n' {
			s.pos++
		}
		if s.arrayDepth > 0 {
			s.buf = append(s.buf, ' ')
		} else {
			s.flushMath()
		}
	case '&':
		if s.arrayDepth > 0 {
			s.buf = append(s.buf, r)
		}
		s.pos++
	case '\\':
		s.buf = append(s.buf, r)
		s.pos++
		// Keep escaped symbols such as \& and \$ together.
		if s.pos < len(s.src) && !isBreak(s.src[s.pos]) && !s.toggle[s.pos] {
			s.buf = append(s.buf, s.src[s.pos])
			s.pos++
		}
	default:
		s.buf = append(s.buf, r)
		s.pos++
	}
}

func (s *scanner) keywordAt() (keyword, bool) {
	if s.src[s.pos] != '\\' {
		return keyword{}, false
	}
	for _, kw := range keywords {
		if hasRunesAt(s.src, s.pos, kw.text) {
			return kw, true
		}
	}
	return keyword{}, false
}

func (s *scanner) applyKeyword(kw keyword) {
	start := s.pos
	s.pos += len(kw.text)
	literal := func() { s.buf = append(s.buf, s.src[start:s.pos]...) }

	switch kw.kind {
	case kwRowSep, kwMatrix:
		if s.arrayDepth > 0 {
			literal()
			return
		}
		s.flushMath()
	case kwArrayBegin:
		switch {
		case s.arrayDepth > 0:
			s.arrayDepth++
			literal()
		case s.nextArrayEnd[s.pos] < s.nextToggle[s.pos]:
			s.arrayDepth = 1
			literal()
		}
	case kwArrayEnd:
		if s.arrayDepth > 0 {
			s.arrayDepth--
			literal()
		}
	}
}

func (s *scanner) flushText() {
	text := string(s.buf)
	s.buf = s.buf[:0]
	if text == "" || text == "\n" || text == "\r\n" {
		return
	}
	s.out = append(s.out, Segment{Kind: KindText, Text: text})
}

func (s *scanner) flushMath() {
	text := string(s.buf)
	s.buf = s.buf[:0]
	if strings.TrimSpace(text) == "" {
		return
	}
	s.out = append(s.out, Segment{Kind: KindMath, Text: repair.MathBegin + text + repair.MathEnd})
}

func hasRunesAt(src []rune, i int, want []rune) bool {
	if i+len(want) > len(src) {
		return false
	}
	for k, r := range want {
		if src[i+k] != r {
			return false
		}
	}
	return true
}

func isBreak(r rune) bool {
	return r == '\n' || r == '\r'
}
