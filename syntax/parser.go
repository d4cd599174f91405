package syntax

import (
	"fmt"
	"io"

	"github.com/Comcast/sweep/term"
)

// DoubleQuotes says what "text" reads as.
type DoubleQuotes int

const (
	DQString DoubleQuotes = iota
	DQCodes
	DQChars
	DQAtom
)

// ParseDoubleQuotes parses a double_quotes flag value.
func ParseDoubleQuotes(s string) (DoubleQuotes, bool) {
	switch s {
	case "string":
		return DQString, true
	case "codes":
		return DQCodes, true
	case "chars":
		return DQChars, true
	case "atom":
		return DQAtom, true
	}
	return 0, false
}

func (dq DoubleQuotes) String() string {
	return [...]string{"string", "codes", "chars", "atom"}[dq]
}

// VarName pairs a source variable name with its variable.
type VarName struct {
	Name string
	Var  *term.Variable
}

// Clause is one term read from source along with what the reader
// learned about it.
type Clause struct {
	Term term.Term

	// Vars are the named variables in order of appearance.
	Vars []VarName

	// Singletons are named variables that appear once, excluding
	// those that start with an underscore.
	Singletons []VarName

	// Doc is the documentation comment that preceded the term.
	Doc string

	Line int
}

// Parser reads terms from source text using an operator table.
type Parser struct {
	Ops          *Ops
	DoubleQuotes DoubleQuotes

	// AllowEOF accepts the end of input in place of the final '.'.
	AllowEOF bool

	lex    *lexer
	back   []token
	last   token
	vars   map[string]*term.Variable
	names  []VarName
	counts map[string]int
}

// NewParser makes a parser.  A nil ops means DefaultOps.
func NewParser(name, src string, ops *Ops) *Parser {
	if ops == nil {
		ops = DefaultOps()
	}
	return &Parser{
		Ops: ops,
		lex: newLexer(name, src),
	}
}

func (p *Parser) next() (token, error) {
	if n := len(p.back); 0 < n {
		t := p.back[n-1]
		p.back = p.back[:n-1]
		p.last = t
		return t, nil
	}
	t, err := p.lex.next()
	if err != nil {
		// Not a terminator, so recover keeps skipping.
		p.last = token{kind: tkName}
		return t, err
	}
	p.last = t
	return t, nil
}

func (p *Parser) peek() (token, error) {
	t, err := p.next()
	if err != nil {
		return t, err
	}
	p.back = append(p.back, t)
	return t, nil
}

func (p *Parser) unread(t token) {
	p.back = append(p.back, t)
}

func (p *Parser) errorAt(t token, format string, args ...interface{}) *SyntaxError {
	return &SyntaxError{
		Name: p.lex.name,
		Line: t.line,
		Col:  t.col,
		Msg:  fmt.Sprintf(format, args...),
	}
}

// Read reads the next clause.  It returns io.EOF when the input is
// exhausted.  After a syntax error the parser skips to the end of
// the offending clause so that reading can continue.
func (p *Parser) Read() (*Clause, error) {
	p.vars = make(map[string]*term.Variable)
	p.names = nil
	p.counts = make(map[string]int)
	p.lex.doc = ""

	first, err := p.peek()
	if err != nil {
		p.recover()
		return nil, err
	}
	if first.kind == tkEOF {
		return nil, io.EOF
	}
	doc := p.lex.doc

	t, _, err := p.parse(1200)
	if err != nil {
		p.recover()
		return nil, err
	}
	end, err := p.next()
	if err != nil {
		p.recover()
		return nil, err
	}
	switch end.kind {
	case tkEnd:
	case tkEOF:
		if !p.AllowEOF {
			return nil, p.errorAt(end, "operator expected, got end of file")
		}
	default:
		p.recover()
		return nil, p.errorAt(end, "operator expected, got %s", end)
	}

	c := &Clause{
		Term: t,
		Vars: p.names,
		Doc:  doc,
		Line: first.line,
	}
	for _, vn := range p.names {
		if p.counts[vn.Name] == 1 && vn.Name[0] != '_' {
			c.Singletons = append(c.Singletons, vn)
		}
	}
	return c, nil
}

// recover skips to the end of the current clause.
func (p *Parser) recover() {
	for _, t := range p.back {
		if t.kind == tkEnd || t.kind == tkEOF {
			p.back = nil
			return
		}
	}
	p.back = nil
	if p.last.kind == tkEnd || p.last.kind == tkEOF {
		return
	}
	for {
		t, err := p.lex.next()
		if err != nil {
			continue
		}
		if t.kind == tkEnd || t.kind == tkEOF {
			return
		}
	}
}

func (p *Parser) variable(name string) *term.Variable {
	if name == "_" {
		return term.NewNamedVariable("_")
	}
	p.counts[name]++
	if v, have := p.vars[name]; have {
		return v
	}
	v := term.NewNamedVariable(name)
	p.vars[name] = v
	p.names = append(p.names, VarName{Name: name, Var: v})
	return v
}

func (p *Parser) expect(text string) error {
	t, err := p.next()
	if err != nil {
		return err
	}
	if t.kind != tkPunct || t.text != text {
		return p.errorAt(t, "expected %s, got %s", text, t)
	}
	return nil
}

// parse reads a term with priority at most max and returns it with
// its priority.
func (p *Parser) parse(max int) (term.Term, int, error) {
	left, leftPrec, err := p.primary(max)
	if err != nil {
		return nil, 0, err
	}
	for {
		t, err := p.peek()
		if err != nil {
			return nil, 0, err
		}
		var name string
		switch t.kind {
		case tkName, tkOpenCT:
			name = t.text
		case tkPunct:
			if t.text != "," && t.text != "|" {
				return left, leftPrec, nil
			}
			name = t.text
		default:
			return left, leftPrec, nil
		}

		if op, is := p.Ops.Infix(name); is {
			la, ra := op.Args()
			if op.Prec <= max && leftPrec <= la {
				p.next()
				if t.kind == tkOpenCT {
					p.unread(token{kind: tkPunct, text: "(", line: t.line, col: t.col})
				}
				right, _, err := p.parse(ra)
				if err != nil {
					return nil, 0, err
				}
				if name == "|" {
					name = ";"
				}
				left = &term.Compound{Functor: term.Atom(name), Args: []term.Term{left, right}}
				leftPrec = op.Prec
				continue
			}
		}
		if op, is := p.Ops.Postfix(name); is && t.kind == tkName {
			la, _ := op.Args()
			if op.Prec <= max && leftPrec <= la {
				p.next()
				left = &term.Compound{Functor: term.Atom(name), Args: []term.Term{left}}
				leftPrec = op.Prec
				continue
			}
		}
		return left, leftPrec, nil
	}
}

// startsTerm reports whether the token can begin a term.
func startsTerm(t token) bool {
	switch t.kind {
	case tkEOF, tkEnd:
		return false
	case tkPunct:
		return t.text == "(" || t.text == "[" || t.text == "{"
	}
	return true
}

func (p *Parser) primary(max int) (term.Term, int, error) {
	t, err := p.next()
	if err != nil {
		return nil, 0, err
	}
	switch t.kind {
	case tkInt:
		return term.Integer(t.ival), 0, nil
	case tkFloat:
		return term.Float(t.fval), 0, nil
	case tkVar:
		v := p.variable(t.text)
		if d, err := p.maybeDict(v); d != nil || err != nil {
			return d, 0, err
		}
		return v, 0, nil
	case tkString:
		return p.doubleQuoted(t.text), 0, nil
	case tkBackQuote:
		return codes(t.text), 0, nil
	case tkOpenCT:
		args, err := p.args(")")
		if err != nil {
			return nil, 0, err
		}
		return &term.Compound{Functor: term.Atom(t.text), Args: args}, 0, nil
	case tkPunct:
		switch t.text {
		case "(":
			x, _, err := p.parse(1200)
			if err != nil {
				return nil, 0, err
			}
			return x, 0, p.expect(")")
		case "[":
			n, err := p.peek()
			if err != nil {
				return nil, 0, err
			}
			if n.kind == tkPunct && n.text == "]" {
				p.next()
				return term.EmptyList, 0, nil
			}
			return p.list()
		case "{":
			n, err := p.peek()
			if err != nil {
				return nil, 0, err
			}
			if n.kind == tkPunct && n.text == "}" {
				p.next()
				return term.Atom("{}"), 0, nil
			}
			x, _, err := p.parse(1200)
			if err != nil {
				return nil, 0, err
			}
			if err = p.expect("}"); err != nil {
				return nil, 0, err
			}
			return &term.Compound{Functor: "{}", Args: []term.Term{x}}, 0, nil
		}
		return nil, 0, p.errorAt(t, "unexpected %s", t.text)
	case tkEnd:
		return nil, 0, p.errorAt(t, "unexpected end of clause")
	case tkEOF:
		return nil, 0, p.errorAt(t, "unexpected end of file")
	}

	// A name.
	name := t.text
	n, err := p.peek()
	if err != nil {
		return nil, 0, err
	}
	if name == "-" && !t.quoted && !n.layout {
		switch n.kind {
		case tkInt:
			p.next()
			return term.Integer(-n.ival), 0, nil
		case tkFloat:
			p.next()
			return term.Float(-n.fval), 0, nil
		}
	}
	if d, err := p.maybeDict(term.Atom(name)); d != nil || err != nil {
		return d, 0, err
	}
	if op, is := p.Ops.Prefix(name); is && !t.quoted {
		asAtom := !startsTerm(n)
		if n.kind == tkName {
			_, infix := p.Ops.Infix(n.text)
			_, prefix := p.Ops.Prefix(n.text)
			_, postfix := p.Ops.Postfix(n.text)
			if (infix || postfix) && !prefix {
				asAtom = true
			}
		}
		if !asAtom {
			prec := op.Prec
			_, ra := op.Args()
			if max < prec {
				prec = max
				if max < ra {
					ra = max
				}
			}
			arg, _, err := p.parse(ra)
			if err != nil {
				return nil, 0, err
			}
			return &term.Compound{Functor: term.Atom(name), Args: []term.Term{arg}}, prec, nil
		}
	}
	if name == "[]" {
		return term.Atom("[]"), 0, nil
	}
	return term.Atom(name), 0, nil
}

func (p *Parser) args(close string) ([]term.Term, error) {
	var acc []term.Term
	for {
		x, _, err := p.parse(999)
		if err != nil {
			return nil, err
		}
		acc = append(acc, x)
		t, err := p.next()
		if err != nil {
			return nil, err
		}
		if t.kind == tkPunct && t.text == "," {
			continue
		}
		if t.kind == tkPunct && t.text == close {
			return acc, nil
		}
		return nil, p.errorAt(t, "expected , or %s, got %s", close, t)
	}
}

func (p *Parser) list() (term.Term, int, error) {
	var xs []term.Term
	for {
		x, _, err := p.parse(999)
		if err != nil {
			return nil, 0, err
		}
		xs = append(xs, x)
		t, err := p.next()
		if err != nil {
			return nil, 0, err
		}
		if t.kind != tkPunct {
			return nil, 0, p.errorAt(t, "expected , | or ] in list, got %s", t)
		}
		switch t.text {
		case ",":
			continue
		case "]":
			return term.List(xs...), 0, nil
		case "|":
			tail, _, err := p.parse(999)
			if err != nil {
				return nil, 0, err
			}
			if err = p.expect("]"); err != nil {
				return nil, 0, err
			}
			return term.ListWithTail(xs, tail), 0, nil
		}
		return nil, 0, p.errorAt(t, "expected , | or ] in list, got %s", t)
	}
}

// maybeDict reads Tag{...} when a '{' follows the tag directly.
func (p *Parser) maybeDict(tag term.Term) (term.Term, error) {
	t, err := p.peek()
	if err != nil {
		return nil, err
	}
	if t.kind != tkPunct || t.text != "{" || t.layout {
		return nil, nil
	}
	p.next()
	var pairs []term.DictPair
	n, err := p.peek()
	if err != nil {
		return nil, err
	}
	if n.kind == tkPunct && n.text == "}" {
		p.next()
		return term.NewDict(tag, nil)
	}
	for {
		k, err := p.next()
		if err != nil {
			return nil, err
		}
		var key term.Term
		switch k.kind {
		case tkName:
			key = term.Atom(k.text)
		case tkInt:
			key = term.Integer(k.ival)
		default:
			return nil, p.errorAt(k, "dict key expected, got %s", k)
		}
		c, err := p.next()
		if err != nil {
			return nil, err
		}
		if c.kind != tkName || c.text != ":" {
			return nil, p.errorAt(c, "expected : after dict key, got %s", c)
		}
		v, _, err := p.parse(999)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, term.DictPair{Key: key, Value: v})
		s, err := p.next()
		if err != nil {
			return nil, err
		}
		if s.kind == tkPunct && s.text == "," {
			continue
		}
		if s.kind == tkPunct && s.text == "}" {
			d, err := term.NewDict(tag, pairs)
			if err != nil {
				return nil, p.errorAt(s, "%s", err)
			}
			return d, nil
		}
		return nil, p.errorAt(s, "expected , or } in dict, got %s", s)
	}
}

func (p *Parser) doubleQuoted(s string) term.Term {
	switch p.DoubleQuotes {
	case DQCodes:
		return codes(s)
	case DQChars:
		return chars(s)
	case DQAtom:
		return term.Atom(s)
	}
	return term.String(s)
}

func codes(s string) term.Term {
	var acc []term.Term
	for _, r := range s {
		acc = append(acc, term.Integer(r))
	}
	return term.List(acc...)
}

func chars(s string) term.Term {
	var acc []term.Term
	for _, r := range s {
		acc = append(acc, term.Atom(string(r)))
	}
	return term.List(acc...)
}

// ParseTerm reads a single term from text.  The final '.' is
// optional.
func ParseTerm(src string, ops *Ops) (term.Term, []VarName, error) {
	p := NewParser("", src, ops)
	p.AllowEOF = true
	c, err := p.Read()
	if err == io.EOF {
		return nil, nil, &SyntaxError{Line: 1, Msg: "unexpected end of file"}
	}
	if err != nil {
		return nil, nil, err
	}
	if t, err := p.next(); err == nil && t.kind != tkEOF {
		return nil, nil, p.errorAt(t, "end of file expected, got %s", t)
	}
	return c.Term, c.Vars, nil
}

// MustParseTerm is ParseTerm that panics.
func MustParseTerm(src string) term.Term {
	t, _, err := ParseTerm(src, nil)
	if err != nil {
		panic(err)
	}
	return t
}

// ParseAll reads every clause.  It stops at the first error.
func ParseAll(name, src string, ops *Ops) ([]*Clause, error) {
	p := NewParser(name, src, ops)
	var acc []*Clause
	for {
		c, err := p.Read()
		if err == io.EOF {
			return acc, nil
		}
		if err != nil {
			return acc, err
		}
		acc = append(acc, c)
	}
}
