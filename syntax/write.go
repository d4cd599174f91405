package syntax

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Comcast/sweep/term"
)

// WriteOptions control the writer, as in write_term/2.
type WriteOptions struct {
	Quoted     bool
	IgnoreOps  bool
	NumberVars bool

	// Ops is the operator table.  Nil means DefaultOps.
	Ops *Ops

	// VarNames names variables, as with the variable_names option.
	VarNames map[*term.Variable]string
}

var defaultOps = DefaultOps()

// Format renders a term.
func Format(t term.Term, opts WriteOptions) string {
	if opts.Ops == nil {
		opts.Ops = defaultOps
	}
	w := &writer{opts: opts}
	w.term(t, 1200)
	return w.b.String()
}

// Write renders a term as write/1 does.
func Write(t term.Term) string {
	return Format(t, WriteOptions{NumberVars: true})
}

// Writeq renders a term as writeq/1 does.
func Writeq(t term.Term) string {
	return Format(t, WriteOptions{Quoted: true, NumberVars: true})
}

// Canonical renders a term as write_canonical/1 does.
func Canonical(t term.Term) string {
	return Format(t, WriteOptions{Quoted: true, IgnoreOps: true})
}

type writer struct {
	opts WriteOptions
	b    strings.Builder

	// path holds the structured terms being written.  A term met
	// again inside itself is cyclic and is written as "...".
	path map[term.Term]bool
}

// enter adds t to the path.  It reports false, having written the
// elision, when t is already there.
func (w *writer) enter(t term.Term) bool {
	if w.path == nil {
		w.path = make(map[term.Term]bool)
	}
	if w.path[t] {
		w.emit("...")
		return false
	}
	w.path[t] = true
	return true
}

// emit writes s, adding a space if s would otherwise fuse with what
// precedes it into a different token.
func (w *writer) emit(s string) {
	if s == "" {
		return
	}
	if w.b.Len() != 0 {
		prev, _ := utf8.DecodeLastRuneInString(w.b.String())
		next, _ := utf8.DecodeRuneInString(s)
		if fuses(prev, next) {
			w.b.WriteByte(' ')
		}
	}
	w.b.WriteString(s)
}

func fuses(prev, next rune) bool {
	switch {
	case term.IsAlnum(prev) && term.IsAlnum(next):
		return true
	case term.IsSymbolChar(prev) && term.IsSymbolChar(next):
		return true
	case prev == ',' && next == ',':
		return false
	}
	return false
}

func (w *writer) atom(a string) {
	if w.opts.Quoted {
		w.emit(term.QuoteAtom(a))
	} else {
		w.emit(a)
	}
}

func (w *writer) term(t term.Term, max int) {
	switch tt := term.Resolve(t).(type) {
	case *term.Variable:
		if name, have := w.opts.VarNames[tt]; have {
			w.emit(name)
		} else {
			w.emit(term.VariableName(tt))
		}
	case term.Atom:
		if !w.opts.IgnoreOps && w.opts.Ops.IsOp(string(tt)) && max < 1200 && w.opPrec(string(tt)) > max {
			w.emit("(")
			w.atom(string(tt))
			w.b.WriteString(")")
			return
		}
		w.atom(string(tt))
	case term.String:
		if w.opts.Quoted {
			w.emit(term.QuoteString(string(tt)))
		} else {
			w.emit(string(tt))
		}
	case term.Integer:
		w.emit(strconv.FormatInt(int64(tt), 10))
	case term.Float:
		w.emit(term.FormatFloat(float64(tt)))
	case term.Nil:
		w.emit("[]")
	case *term.Pair:
		w.list(tt)
	case *term.Compound:
		if !w.enter(tt) {
			return
		}
		defer delete(w.path, tt)
		w.compound(tt, max)
	case *term.Dict:
		if !w.enter(tt) {
			return
		}
		defer delete(w.path, tt)
		w.term(tt.Tag, 0)
		w.b.WriteString("{")
		for i, p := range tt.Pairs {
			if 0 < i {
				w.b.WriteString(",")
			}
			w.term(p.Key, 0)
			w.b.WriteString(":")
			w.term(p.Value, 599)
		}
		w.b.WriteString("}")
	case *term.Blob:
		w.emit(term.FormatBlob(tt))
	}
}

func (w *writer) opPrec(name string) int {
	prec := 0
	for _, f := range []func(string) (Op, bool){w.opts.Ops.Prefix, w.opts.Ops.Infix, w.opts.Ops.Postfix} {
		if op, is := f(name); is && prec < op.Prec {
			prec = op.Prec
		}
	}
	return prec
}

func (w *writer) list(p *term.Pair) {
	if !w.enter(p) {
		return
	}
	cells := []term.Term{p}
	defer func() {
		for _, c := range cells {
			delete(w.path, c)
		}
	}()

	w.emit("[")
	w.term(p.Head, 999)
	rest := term.Resolve(p.Tail)
	for {
		q, is := rest.(*term.Pair)
		if !is || w.path[q] {
			break
		}
		w.path[q] = true
		cells = append(cells, q)
		w.b.WriteString(",")
		w.term(q.Head, 999)
		rest = term.Resolve(q.Tail)
	}
	if _, is := rest.(term.Nil); !is {
		w.b.WriteString("|")
		w.term(rest, 999)
	}
	w.b.WriteString("]")
}

func isLetterOp(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return unicode.IsLetter(r)
}

func (w *writer) compound(c *term.Compound, max int) {
	name := string(c.Functor)

	if w.opts.NumberVars && name == "$VAR" && len(c.Args) == 1 {
		switch n := term.Resolve(c.Args[0]).(type) {
		case term.Integer:
			if 0 <= n {
				w.emit(numberVarName(int64(n)))
				return
			}
		case term.Atom:
			w.emit(string(n))
			return
		case term.String:
			w.emit(string(n))
			return
		}
	}

	if !w.opts.IgnoreOps {
		if name == "{}" && len(c.Args) == 1 {
			w.emit("{")
			w.term(c.Args[0], 1200)
			w.b.WriteString("}")
			return
		}
		if len(c.Args) == 2 {
			if op, is := w.opts.Ops.Infix(name); is {
				la, ra := op.Args()
				open := max < op.Prec
				if open {
					w.emit("(")
				}
				w.term(c.Args[0], la)
				switch {
				case name == ",":
					w.b.WriteString(",")
				case isLetterOp(name) || name == "->" || name == ":-" || name == "-->" || name == "*->":
					w.b.WriteString(" ")
					w.atom(name)
					w.b.WriteString(" ")
				default:
					w.atom(name)
				}
				w.term(c.Args[1], ra)
				if open {
					w.b.WriteString(")")
				}
				return
			}
		}
		if len(c.Args) == 1 {
			if op, is := w.opts.Ops.Prefix(name); is && name != "-" && name != "+" || is && !isNumber(c.Args[0]) {
				_, ra := op.Args()
				open := max < op.Prec
				if open {
					w.emit("(")
				}
				w.atom(name)
				arg := term.Resolve(c.Args[0])
				if isLetterOp(name) || needsSpaceAfterPrefix(arg, w.opts.Ops) {
					w.b.WriteString(" ")
				}
				w.term(arg, ra)
				if open {
					w.b.WriteString(")")
				}
				return
			}
			if op, is := w.opts.Ops.Postfix(name); is {
				la, _ := op.Args()
				open := max < op.Prec
				if open {
					w.emit("(")
				}
				w.term(c.Args[0], la)
				w.atom(name)
				if open {
					w.b.WriteString(")")
				}
				return
			}
		}
	}

	w.atom(name)
	w.b.WriteString("(")
	for i, a := range c.Args {
		if 0 < i {
			w.b.WriteString(",")
		}
		w.term(a, 999)
	}
	w.b.WriteString(")")
}

func isNumber(t term.Term) bool {
	switch term.Resolve(t).(type) {
	case term.Integer, term.Float:
		return true
	}
	return false
}

// needsSpaceAfterPrefix is true when the argument of a prefix
// operator would otherwise be read as the operator's argument list
// or as a negative number.
func needsSpaceAfterPrefix(arg term.Term, ops *Ops) bool {
	switch a := arg.(type) {
	case *term.Compound:
		if len(a.Args) == 2 {
			if op, is := ops.Infix(string(a.Functor)); is && 999 < op.Prec {
				return true
			}
		}
		if len(a.Args) <= 2 && ops.IsOp(string(a.Functor)) {
			return true
		}
	case term.Atom:
		return ops.IsOp(string(a))
	case term.Integer, term.Float:
		return true
	}
	return false
}

// numberVarName is A, B, ... Z, A1, B1, ...
func numberVarName(n int64) string {
	s := string(rune('A' + n%26))
	if 26 <= n {
		s += strconv.FormatInt(n/26, 10)
	}
	return s
}

// PortrayClause renders a clause the way listing/1 shows it, with
// variables named A, B, ... and one goal per line.
func PortrayClause(t term.Term, ops *Ops) string {
	if ops == nil {
		ops = defaultOps
	}
	names := make(map[*term.Variable]string)
	nameVars(t, names)
	opts := WriteOptions{Quoted: true, NumberVars: true, Ops: ops, VarNames: names}

	var b strings.Builder
	t = term.Resolve(t)
	if c, is := t.(*term.Compound); is && c.Functor == ":-" && len(c.Args) == 2 {
		b.WriteString(Format(c.Args[0], opts))
		b.WriteString(" :-")
		portrayBody(&b, c.Args[1], 1, opts)
	} else if c, is := t.(*term.Compound); is && c.Functor == ":-" && len(c.Args) == 1 {
		b.WriteString(":-")
		portrayBody(&b, c.Args[0], 1, opts)
	} else {
		opts.Ops = ops
		b.WriteString(format999(t, opts))
	}
	b.WriteString(".\n")
	return b.String()
}

func format999(t term.Term, opts WriteOptions) string {
	w := &writer{opts: opts}
	w.term(t, 999)
	return w.b.String()
}

func portrayBody(b *strings.Builder, body term.Term, depth int, opts WriteOptions) {
	indent := strings.Repeat("    ", depth)
	body = term.Resolve(body)
	if c, is := body.(*term.Compound); is && c.Functor == "," && len(c.Args) == 2 {
		portrayBody(b, c.Args[0], depth, opts)
		b.WriteString(",")
		portrayBody(b, c.Args[1], depth, opts)
		return
	}
	b.WriteString("\n")
	b.WriteString(indent)
	b.WriteString(format999(body, opts))
}

func nameVars(t term.Term, names map[*term.Variable]string) {
	switch tt := term.Resolve(t).(type) {
	case *term.Variable:
		if _, have := names[tt]; !have {
			names[tt] = numberVarName(int64(len(names)))
		}
	case *term.Pair:
		nameVars(tt.Head, names)
		nameVars(tt.Tail, names)
	case *term.Compound:
		for _, a := range tt.Args {
			nameVars(a, names)
		}
	case *term.Dict:
		nameVars(tt.Tag, names)
		for _, p := range tt.Pairs {
			nameVars(p.Value, names)
		}
	}
}
