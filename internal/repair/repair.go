// Package repair balances bracket-like LaTeX syntax inside recognized math runs.
//
// Recognizers regularly drop a closing brace or a \right, or emit a closer
// with nothing open. A Repairer fixes that with a single left-to-right pass
// driven by a stack of pending closers, so downstream converters receive
// input where every opener has exactly one matching closer.
package repair

import (
	"sort"
	"strings"
)

// Math run markers. A run wrapped in these is repaired on its interior, and
// any synthesized closers are spliced just before MathEnd.
const (
	MathBegin = `\begin{math}`
	MathEnd   = `\end{math}`
)

// Pair is an opener and the closer that balances it.
type Pair struct {
	Open  string
	Close string
}

// Table configures which tokens a Repairer balances.
type Table struct {
	// Pairs lists balanced tokens.
	Pairs []Pair

	// Substitutes maps a closer to the text emitted when it is synthesized
	// rather than found in the input.
	Substitutes map[string]string

	// Unrecognised lists control words removed after balancing.
	Unrecognised []string
}

// DefaultTable returns the table used by Repair.
func DefaultTable() Table {
	return Table{
		Pairs: []Pair{
			{Open: "{", Close: "}"},
			{Open: `\left`, Close: `\right`},
		},
		Substitutes: map[string]string{
			`\right`: `\right.`,
		},
		Unrecognised: []string{`\textcircled`},
	}
}

// Repairer balances runs according to a Table. It holds no mutable state
// and is safe for concurrent use.
type Repairer struct {
	openers      map[string]string // opener -> closer
	closers      map[string]bool
	substitutes  map[string]string
	tokens       []string // openers and closers, longest first
	unrecognised []string
}

// New builds a Repairer from table. Pairs with an empty opener or closer are ignored.
func New(table Table) *Repairer {
	r := &Repairer{
		openers:     make(map[string]string, len(table.Pairs)),
		closers:     make(map[string]bool, len(table.Pairs)),
		substitutes: make(map[string]string, len(table.Substitutes)),
	}
	seen := make(map[string]bool)
	for _, p := range table.Pairs {
		if p.Open == "" || p.Close == "" {
			continue
		}
		r.openers[p.Open] = p.Close
		r.closers[p.Close] = true
		for _, tok := range []string{p.Open, p.Close} {
			if !seen[tok] {
				seen[tok] = true
				r.tokens = append(r.tokens, tok)
			}
		}
	}
	sort.SliceStable(r.tokens, func(i, j int) bool {
		return len(r.tokens[i]) > len(r.tokens[j])
	})
	for k, v := range table.Substitutes {
		r.substitutes[k] = v
	}
	for _, u := range table.Unrecognised {
		if u != "" {
			r.unrecognised = append(r.unrecognised, u)
		}
	}
	return r
}

var defaultRepairer = New(DefaultTable())

// Repair balances run with the default table.
func Repair(run string) string {
	return defaultRepairer.Repair(run)
}

// Repair returns run with every opener matched by exactly one closer.
// Stray closers are dropped, missing closers are synthesized innermost-first,
// and unrecognised control words are removed. Repair is idempotent.
func (r *Repairer) Repair(run string) string {
	inner := run
	hasBegin := strings.HasPrefix(inner, MathBegin)
	if hasBegin {
		inner = inner[len(MathBegin):]
	}
	hasEnd := strings.HasSuffix(inner, MathEnd)
	if hasEnd {
		inner = inner[:len(inner)-len(MathEnd)]
	}

	balanced := r.stripUnrecognised(r.balance(inner))

	var b strings.Builder
	b.Grow(len(balanced) + len(MathBegin) + len(MathEnd))
	if hasBegin {
		b.WriteString(MathBegin)
	}
	b.WriteString(balanced)
	if hasEnd {
		b.WriteString(MathEnd)
	}
	return b.String()
}

func (r *Repairer) balance(s string) string {
	out := emitter{buf: make([]byte, 0, len(s)+16)}
	var stack []string
	escaped := false // s[i] follows an odd run of backslashes

	for i := 0; i < len(s); {
		if !escaped {
			// Closer of the innermost open pair.
			if n := len(stack); n > 0 && r.matchAt(s, i, stack[n-1]) {
				out.writeString(stack[n-1])
				i += len(stack[n-1])
				stack = stack[:n-1]
				continue
			}

			// Closer of a deeper pair: close everything in between first.
			if depth := r.deeperMatch(s, i, stack); depth >= 0 {
				for k := len(stack) - 1; k > depth; k-- {
					out.writeString(r.substitute(stack[k]))
					out.writeByte(' ')
				}
				out.writeString(stack[depth])
				i += len(stack[depth])
				stack = stack[:depth]
				continue
			}

			if tok := r.tokenAt(s, i); tok != "" {
				if closer, ok := r.openers[tok]; ok {
					out.writeString(tok)
					stack = append(stack, closer)
				} else if out.word && isLetterAt(s, i+len(tok)) {
					// A closer with nothing open is dropped, but must not
					// join a control word to the letters after it.
					out.writeByte(' ')
				}
				i += len(tok)
				continue
			}
		}

		c := s[i]
		out.writeByte(c)
		escaped = c == '\\' && !escaped
		i++
	}

	// A trailing lone backslash escapes nothing and would escape a closer.
	if out.run%2 == 1 {
		out.dropLast()
	}

	for k := len(stack) - 1; k >= 0; k-- {
		out.writeString(r.substitute(stack[k]))
		out.writeByte(' ')
	}
	return string(out.buf)
}

// emitter accumulates balanced output and tracks how it ends.
type emitter struct {
	buf  []byte
	run  int  // trailing backslashes
	word bool // buf ends with a control word such as \left
}

func (e *emitter) writeString(s string) {
	for i := 0; i < len(s); i++ {
		e.writeByte(s[i])
	}
}

func (e *emitter) writeByte(c byte) {
	switch {
	case c == '\\':
		e.run++
		e.word = false
	case isLetter(c):
		e.word = e.word || e.run%2 == 1
		e.run = 0
	default:
		e.run = 0
		e.word = false
	}
	e.buf = append(e.buf, c)
}

func (e *emitter) dropLast() {
	e.buf = e.buf[:len(e.buf)-1]
	e.run--
	e.word = false
}

func (r *Repairer) deeperMatch(s string, i int, stack []string) int {
	for k := len(stack) - 2; k >= 0; k-- {
		if r.matchAt(s, i, stack[k]) {
			return k
		}
	}
	return -1
}

func (r *Repairer) substitute(closer string) string {
	if sub, ok := r.substitutes[closer]; ok {
		return sub
	}
	return closer
}

// tokenAt returns the longest registered token at s[i:], or "".
func (r *Repairer) tokenAt(s string, i int) string {
	for _, tok := range r.tokens {
		if r.matchAt(s, i, tok) {
			return tok
		}
	}
	return ""
}

func (r *Repairer) matchAt(s string, i int, tok string) bool {
	if !strings.HasPrefix(s[i:], tok) {
		return false
	}
	return !isControlWord(tok) || !isLetterAt(s, i+len(tok))
}

func (r *Repairer) stripUnrecognised(s string) string {
	for _, word := range r.unrecognised {
		s = removeWord(s, word)
	}
	return s
}

// removeWord deletes unescaped occurrences of word that end at a word
// boundary.
func removeWord(s, word string) string {
	if !strings.Contains(s, word) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	escaped := false
	for i := 0; i < len(s); {
		if !escaped && strings.HasPrefix(s[i:], word) &&
			!(isControlWord(word) && isLetterAt(s, i+len(word))) {
			i += len(word)
			continue
		}
		c := s[i]
		b.WriteByte(c)
		escaped = c == '\\' && !escaped
		i++
	}
	return b.String()
}

func isControlWord(tok string) bool {
	return len(tok) > 1 && tok[0] == '\\' && isLetter(tok[len(tok)-1])
}

func isLetterAt(s string, i int) bool {
	return i < len(s) && isLetter(s[i])
}

func isLetter(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}
