package tex2mml

import (
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokCommand
	tokLetter
	tokNumber
	tokSymbol
	tokOpenBrace
	tokCloseBrace
	tokSup
	tokSub
	tokAmp
)

// token is one lexical unit. Command text excludes the backslash.
// start and end are byte offsets into the source.
type token struct {
	kind  tokenKind
	text  string
	start int
	end   int
}

// tokenize splits src with an index cursor. Whitespace and % comments are
// skipped; offsets let raw-text commands recover the original spelling.
func tokenize(src string) []token {
	var toks []token
	i := 0
	for i < len(src) {
		r, size := utf8.DecodeRuneInString(src[i:])
		start := i

		switch {
		case unicode.IsSpace(r):
			i += size
		case r == '%':
			for i < len(src) && src[i] != '\n' {
				i++
			}
		case r == '\\':
			i += size
			if i >= len(src) {
				toks = append(toks, token{kind: tokSymbol, text: `\`, start: start, end: i})
				continue
			}
			next, nsize := utf8.DecodeRuneInString(src[i:])
			if isASCIILetter(next) {
				for i < len(src) && isASCIILetter(rune(src[i])) {
					i++
				}
			} else {
				i += nsize
			}
			toks = append(toks, token{kind: tokCommand, text: src[start+1 : i], start: start, end: i})
		case r == '{':
			i += size
			toks = append(toks, token{kind: tokOpenBrace, text: "{", start: start, end: i})
		case r == '}':
			i += size
			toks = append(toks, token{kind: tokCloseBrace, text: "}", start: start, end: i})
		case r == '^':
			i += size
			toks = append(toks, token{kind: tokSup, text: "^", start: start, end: i})
		case r == '_':
			i += size
			toks = append(toks, token{kind: tokSub, text: "_", start: start, end: i})
		case r == '&':
			i += size
			toks = append(toks, token{kind: tokAmp, text: "&", start: start, end: i})
		case isDigit(r):
			i += size
			for i < len(src) {
				if isDigit(rune(src[i])) {
					i++
					continue
				}
				if src[i] == '.' && i+1 < len(src) && isDigit(rune(src[i+1])) {
					i++
					continue
				}
				break
			}
			toks = append(toks, token{kind: tokNumber, text: src[start:i], start: start, end: i})
		case unicode.IsLetter(r):
			i += size
			toks = append(toks, token{kind: tokLetter, text: src[start:i], start: start, end: i})
		default:
			i += size
			toks = append(toks, token{kind: tokSymbol, text: src[start:i], start: start, end: i})
		}
	}
	return toks
}

func isASCIILetter(r rune) bool {
	return ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z')
}

func isDigit(r rune) bool {
	return '0' <= r && r <= '9'
}
