package syntax

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/Comcast/sweep/term"
)

// Norm is the form to which source text is normalized before
// lexing, so that visually equal atoms are equal.
const Norm = norm.NFC

type tokenKind int

const (
	tkEOF tokenKind = iota
	tkName
	tkVar
	tkInt
	tkFloat
	tkString
	tkBackQuote
	tkPunct
	tkOpenCT
	tkEnd
)

type token struct {
	kind tokenKind
	text string
	ival int64
	fval float64

	// quoted is true for a name written in single quotes.
	quoted bool

	// layout is true when whitespace or a comment preceded the
	// token.
	layout bool

	line, col int
}

func (t token) String() string {
	switch t.kind {
	case tkEOF:
		return "end of file"
	case tkEnd:
		return "end of clause"
	case tkInt:
		return strconv.FormatInt(t.ival, 10)
	case tkFloat:
		return term.FormatFloat(t.fval)
	case tkString:
		return term.QuoteString(t.text)
	}
	return t.text
}

// lexer turns source text into tokens.  It also collects structured
// documentation comments (%! lines and /** */ blocks).
type lexer struct {
	name string
	src  []rune
	pos  int
	line int
	col  int

	// doc is the most recent documentation comment.
	doc string
}

func newLexer(name, src string) *lexer {
	return &lexer{
		name: name,
		src:  []rune(Norm.String(src)),
		line: 1,
	}
}

func (l *lexer) peekRune(ahead int) rune {
	if i := l.pos + ahead; i < len(l.src) {
		return l.src[i]
	}
	return -1
}

func (l *lexer) advance() rune {
	r := l.src[l.pos]
	l.pos++
	if r == '\n' {
		l.line++
		l.col = 0
	} else {
		l.col++
	}
	return r
}

func (l *lexer) errorf(format string, args ...interface{}) *SyntaxError {
	return &SyntaxError{
		Name: l.name,
		Line: l.line,
		Col:  l.col,
		Msg:  fmt.Sprintf(format, args...),
	}
}

// skipLayout skips whitespace and comments and reports whether
// there was any.
func (l *lexer) skipLayout() (bool, error) {
	skipped := false
	for l.pos < len(l.src) {
		r := l.src[l.pos]
		switch {
		case unicode.IsSpace(r):
			l.advance()
		case r == '%':
			start := l.pos
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.advance()
			}
			line := string(l.src[start:l.pos])
			if strings.HasPrefix(line, "%!") {
				l.lineDoc(line)
			}
		case r == '/' && l.peekRune(1) == '*':
			start := l.pos
			l.advance()
			l.advance()
			for {
				if len(l.src) <= l.pos {
					return skipped, l.errorf("unterminated block comment")
				}
				if l.src[l.pos] == '*' && l.peekRune(1) == '/' {
					l.advance()
					l.advance()
					break
				}
				l.advance()
			}
			block := string(l.src[start:l.pos])
			if strings.HasPrefix(block, "/**") && block != "/**/" {
				l.doc = blockDoc(block)
			}
		default:
			return skipped, nil
		}
		skipped = true
	}
	return skipped, nil
}

// lineDoc collects a %! line and the % lines that follow it.
func (l *lexer) lineDoc(first string) {
	lines := []string{strings.TrimSpace(strings.TrimPrefix(first, "%!"))}
	for {
		// Look at the next line without leaving this one if it
		// does not continue the comment.
		i := l.pos
		if i < len(l.src) && l.src[i] == '\n' {
			i++
		}
		for i < len(l.src) && (l.src[i] == ' ' || l.src[i] == '\t') {
			i++
		}
		if len(l.src) <= i || l.src[i] != '%' || (i+1 < len(l.src) && l.src[i+1] == '!') {
			break
		}
		for l.pos < i {
			l.advance()
		}
		start := l.pos
		for l.pos < len(l.src) && l.src[l.pos] != '\n' {
			l.advance()
		}
		lines = append(lines, trimDocIndent(string(l.src[start+1:l.pos])))
	}
	l.doc = strings.TrimRight(strings.Join(lines, "\n"), "\n ")
}

// trimDocIndent removes the conventional three spaces after %.
func trimDocIndent(s string) string {
	for i := 0; i < 3 && strings.HasPrefix(s, " "); i++ {
		s = s[1:]
	}
	return strings.TrimRight(s, " \t")
}

func blockDoc(block string) string {
	body := strings.TrimSuffix(strings.TrimPrefix(block, "/**"), "*/")
	lines := strings.Split(body, "\n")
	acc := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "*") {
			line = strings.TrimSpace(line[1:])
		}
		acc = append(acc, line)
	}
	return strings.TrimSpace(strings.Join(acc, "\n"))
}

// next returns the next token.
func (l *lexer) next() (token, error) {
	layout, err := l.skipLayout()
	if err != nil {
		return token{}, err
	}
	tok := token{layout: layout, line: l.line, col: l.col}
	if len(l.src) <= l.pos {
		tok.kind = tkEOF
		return tok, nil
	}

	r := l.src[l.pos]
	switch {
	case unicode.IsDigit(r):
		return l.number(tok)

	case r == '_' || unicode.IsUpper(r) || unicode.Is(unicode.Lt, r):
		tok.kind = tkVar
		tok.text = l.alnum()
		return tok, nil

	case unicode.IsLetter(r):
		tok.kind = tkName
		tok.text = l.alnum()
		return l.functorCheck(tok), nil

	case r == '\'':
		l.advance()
		s, err := l.quoted('\'')
		if err != nil {
			return tok, err
		}
		tok.kind = tkName
		tok.text = s
		tok.quoted = true
		return l.functorCheck(tok), nil

	case r == '"':
		l.advance()
		s, err := l.quoted('"')
		if err != nil {
			return tok, err
		}
		tok.kind = tkString
		tok.text = s
		return tok, nil

	case r == '`':
		l.advance()
		s, err := l.quoted('`')
		if err != nil {
			return tok, err
		}
		tok.kind = tkBackQuote
		tok.text = s
		return tok, nil

	case strings.ContainsRune("()[]{},|", r):
		l.advance()
		tok.kind = tkPunct
		tok.text = string(r)
		if r == '|' && l.peekRune(0) == '|' {
			l.advance()
			tok.kind = tkName
			tok.text = "||"
		}
		return tok, nil

	case r == '!' || r == ';':
		l.advance()
		tok.kind = tkName
		tok.text = string(r)
		return l.functorCheck(tok), nil

	case r == '.':
		n := l.peekRune(1)
		if n == -1 || unicode.IsSpace(n) || n == '%' {
			l.advance()
			tok.kind = tkEnd
			tok.text = "."
			return tok, nil
		}
		fallthrough

	case term.IsSymbolChar(r):
		start := l.pos
		for l.pos < len(l.src) && term.IsSymbolChar(l.src[l.pos]) {
			l.advance()
		}
		tok.kind = tkName
		tok.text = string(l.src[start:l.pos])
		return l.functorCheck(tok), nil
	}

	l.advance()
	return tok, l.errorf("illegal character %q", r)
}

// functorCheck notes a name that is immediately followed by '('.
func (l *lexer) functorCheck(tok token) token {
	if l.peekRune(0) == '(' {
		tok.kind = tkName
		l.advance()
		return token{kind: tkOpenCT, text: tok.text, quoted: tok.quoted, layout: tok.layout, line: tok.line, col: tok.col}
	}
	return tok
}

func (l *lexer) alnum() string {
	start := l.pos
	for l.pos < len(l.src) && term.IsAlnum(l.src[l.pos]) {
		l.advance()
	}
	return string(l.src[start:l.pos])
}

func (l *lexer) quoted(q rune) (string, error) {
	var b strings.Builder
	for {
		if len(l.src) <= l.pos {
			return "", l.errorf("unterminated quoted")
		}
		r := l.advance()
		switch r {
		case q:
			if l.peekRune(0) == q {
				l.advance()
				b.WriteRune(q)
				continue
			}
			return b.String(), nil
		case '\\':
			c, ok, err := l.escape()
			if err != nil {
				return "", err
			}
			if ok {
				b.WriteRune(c)
			}
		default:
			b.WriteRune(r)
		}
	}
}

// escape reads the rest of an escape sequence.  ok is false for a
// line continuation.
func (l *lexer) escape() (rune, bool, error) {
	if len(l.src) <= l.pos {
		return 0, false, l.errorf("unterminated escape sequence")
	}
	r := l.advance()
	switch r {
	case 'a':
		return 7, true, nil
	case 'b':
		return 8, true, nil
	case 'f':
		return 12, true, nil
	case 'n':
		return '\n', true, nil
	case 'r':
		return '\r', true, nil
	case 't':
		return '\t', true, nil
	case 'v':
		return 11, true, nil
	case 'e':
		return 27, true, nil
	case 's':
		return ' ', true, nil
	case '\\', '\'', '"', '`':
		return r, true, nil
	case '\n':
		return 0, false, nil
	case 'x':
		return l.codeEscape(16)
	}
	if '0' <= r && r <= '7' {
		l.pos--
		l.col--
		return l.codeEscape(8)
	}
	return 0, false, l.errorf("undefined escape sequence \\%c", r)
}

func (l *lexer) codeEscape(base int) (rune, bool, error) {
	start := l.pos
	for l.pos < len(l.src) && isDigitIn(l.src[l.pos], base) {
		l.advance()
	}
	digits := string(l.src[start:l.pos])
	if l.peekRune(0) == '\\' {
		l.advance()
	}
	n, err := strconv.ParseInt(digits, base, 32)
	if err != nil || unicode.MaxRune < n {
		return 0, false, l.errorf("bad character code escape")
	}
	return rune(n), true, nil
}

func isDigitIn(r rune, base int) bool {
	switch base {
	case 2:
		return r == '0' || r == '1'
	case 8:
		return '0' <= r && r <= '7'
	case 16:
		return ('0' <= r && r <= '9') || ('a' <= r && r <= 'f') || ('A' <= r && r <= 'F')
	}
	return '0' <= r && r <= '9'
}

func (l *lexer) number(tok token) (token, error) {
	tok.kind = tkInt
	if l.src[l.pos] == '0' {
		switch l.peekRune(1) {
		case '\'':
			l.advance()
			l.advance()
			if len(l.src) <= l.pos {
				return tok, l.errorf("unterminated character code")
			}
			r := l.advance()
			switch r {
			case '\\':
				c, ok, err := l.escape()
				if err != nil {
					return tok, err
				}
				if !ok {
					return tok, l.errorf("bad character code")
				}
				r = c
			case '\'':
				if l.peekRune(0) == '\'' {
					l.advance()
				}
			}
			tok.ival = int64(r)
			return tok, nil
		case 'x', 'o', 'b':
			base := map[rune]int{'x': 16, 'o': 8, 'b': 2}[l.peekRune(1)]
			if isDigitIn(l.peekRune(2), base) {
				l.advance()
				l.advance()
				start := l.pos
				for l.pos < len(l.src) && isDigitIn(l.src[l.pos], base) {
					l.advance()
				}
				n, err := strconv.ParseInt(string(l.src[start:l.pos]), base, 64)
				if err != nil {
					return tok, l.errorf("integer too large")
				}
				tok.ival = n
				return tok, nil
			}
		}
	}

	start := l.pos
	l.digits()
	isFloat := false
	if l.peekRune(0) == '.' && unicode.IsDigit(l.peekRune(1)) {
		isFloat = true
		l.advance()
		l.digits()
	}
	if e := l.peekRune(0); e == 'e' || e == 'E' {
		k := 1
		if s := l.peekRune(1); s == '+' || s == '-' {
			k = 2
		}
		if unicode.IsDigit(l.peekRune(k)) {
			isFloat = true
			for ; 0 < k; k-- {
				l.advance()
			}
			l.digits()
		}
	}
	text := strings.ReplaceAll(string(l.src[start:l.pos]), "_", "")
	if isFloat {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return tok, l.errorf("bad float %s", text)
		}
		tok.kind = tkFloat
		tok.fval = f
		return tok, nil
	}
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return tok, l.errorf("integer too large")
	}
	tok.ival = n
	return tok, nil
}

// digits reads decimal digits, allowing _ between digit groups.
func (l *lexer) digits() {
	for l.pos < len(l.src) {
		r := l.src[l.pos]
		if unicode.IsDigit(r) {
			l.advance()
			continue
		}
		if r == '_' && unicode.IsDigit(l.peekRune(1)) {
			l.advance()
			continue
		}
		return
	}
}
