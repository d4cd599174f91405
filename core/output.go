package core

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/Comcast/sweep/syntax"
	"github.com/Comcast/sweep/term"
)

func (e *Engine) installOutputBuiltins() {
	writer := func(opts syntax.WriteOptions) Builtin {
		return func(m *Machine, args []term.Term) (bool, error) {
			s, x, err := m.outputArgs(args)
			if err != nil {
				return false, err
			}
			o := opts
			o.Ops = m.engine.ops
			return true, m.emit(s, syntax.Format(x, o))
		}
	}
	for _, arity := range []int{1, 2} {
		e.def("write", arity, writer(syntax.WriteOptions{NumberVars: true}))
		e.def("print", arity, writer(syntax.WriteOptions{Quoted: true, NumberVars: true}))
		e.def("writeq", arity, writer(syntax.WriteOptions{Quoted: true, NumberVars: true}))
		e.def("write_canonical", arity, writer(syntax.WriteOptions{Quoted: true, IgnoreOps: true}))
		e.def("writeln", arity, func(m *Machine, args []term.Term) (bool, error) {
			s, x, err := m.outputArgs(args)
			if err != nil {
				return false, err
			}
			return true, m.emit(s, syntax.Format(x, syntax.WriteOptions{NumberVars: true, Ops: m.engine.ops})+"\n")
		})
		e.def("portray_clause", arity, func(m *Machine, args []term.Term) (bool, error) {
			s, x, err := m.outputArgs(args)
			if err != nil {
				return false, err
			}
			return true, m.emit(s, syntax.PortrayClause(x, m.engine.ops))
		})
		e.def("put_char", arity, func(m *Machine, args []term.Term) (bool, error) {
			s, x, err := m.outputArgs(args)
			if err != nil {
				return false, err
			}
			c, err := atomArg(x)
			if err != nil {
				return false, err
			}
			if utf8.RuneCountInString(string(c)) != 1 {
				return false, TypeError("character", c)
			}
			return true, m.emit(s, string(c))
		})
	}
	e.def("write_term", 2, biWriteTerm)
	e.def("write_term", 3, biWriteTerm)
	e.def("nl", 0, biNl)
	e.def("nl", 1, biNl)
	e.def("tab", 1, biTab)
	e.def("tab", 2, biTab)
	e.def("flush_output", 0, func(m *Machine, args []term.Term) (bool, error) { return true, nil })
	e.def("flush_output", 1, func(m *Machine, args []term.Term) (bool, error) { return true, nil })
	e.def("format", 1, biFormat)
	e.def("format", 2, biFormat)
	e.def("format", 3, biFormat)
	e.def("with_output_to", 2, biWithOutputTo)
	e.def("current_output", 1, func(m *Machine, args []term.Term) (bool, error) {
		return m.Unify(args[0], m.engine.Output().Blob()), nil
	})
	e.def("listing", 0, biListing)
	e.def("listing", 1, biListing)
}

// outputArgs splits optional leading stream argument from the term.
func (m *Machine) outputArgs(args []term.Term) (*Stream, term.Term, error) {
	if len(args) == 1 {
		return m.engine.Output(), args[0], nil
	}
	s, err := m.engine.stream(args[0])
	return s, args[1], err
}

func (m *Machine) emit(s *Stream, text string) error {
	if _, err := io.WriteString(s.W, text); err != nil {
		return PermissionError("output", "stream", s.Alias)
	}
	return nil
}

func biNl(m *Machine, args []term.Term) (bool, error) {
	s := m.engine.Output()
	if len(args) == 1 {
		var err error
		if s, err = m.engine.stream(args[0]); err != nil {
			return false, err
		}
	}
	return true, m.emit(s, "\n")
}

func biTab(m *Machine, args []term.Term) (bool, error) {
	s, x, err := m.outputArgs(args)
	if err != nil {
		return false, err
	}
	n, err := Eval(x)
	if err != nil {
		return false, err
	}
	k, is := n.(term.Integer)
	if !is {
		return false, TypeError("integer", n)
	}
	if k < 0 {
		k = 0
	}
	return true, m.emit(s, strings.Repeat(" ", int(k)))
}

func biWriteTerm(m *Machine, args []term.Term) (bool, error) {
	s := m.engine.Output()
	if len(args) == 3 {
		var err error
		if s, err = m.engine.stream(args[0]); err != nil {
			return false, err
		}
		args = args[1:]
	}
	opts := syntax.WriteOptions{Ops: m.engine.ops}
	xs, err := listArg(args[1])
	if err != nil {
		return false, err
	}
	for _, x := range xs {
		c, is := term.Resolve(x).(*term.Compound)
		if !is || len(c.Args) != 1 {
			return false, DomainError("write_option", x)
		}
		on := term.Resolve(c.Args[0]) == term.Atom("true")
		switch c.Functor {
		case "quoted":
			opts.Quoted = on
		case "ignore_ops":
			opts.IgnoreOps = on
		case "numbervars":
			opts.NumberVars = on
		case "max_depth", "portray", "spacing":
		case "variable_names":
			bs, err := listArg(c.Args[0])
			if err != nil {
				return false, err
			}
			opts.VarNames = make(map[*term.Variable]string)
			for _, b := range bs {
				eq, is := compoundOf(b, "=", 2)
				if !is {
					return false, DomainError("write_option", x)
				}
				name, err := atomArg(eq.Args[0])
				if err != nil {
					return false, err
				}
				if v, is := term.Resolve(eq.Args[1]).(*term.Variable); is {
					opts.VarNames[v] = string(name)
				}
			}
		default:
			return false, DomainError("write_option", x)
		}
	}
	return true, m.emit(s, syntax.Format(args[0], opts))
}

// sink is where format/3 and with_output_to/2 send text.
type sink struct {
	kind term.Atom
	arg  term.Term
}

func sinkOf(t term.Term) (*sink, bool) {
	c, is := term.Resolve(t).(*term.Compound)
	if !is || len(c.Args) != 1 {
		return nil, false
	}
	switch c.Functor {
	case "atom", "string", "codes", "chars":
		return &sink{kind: c.Functor, arg: c.Args[0]}, true
	}
	return nil, false
}

func (s *sink) result(text string) term.Term {
	switch s.kind {
	case "atom":
		return term.Atom(text)
	case "string":
		return term.String(text)
	case "codes":
		return codeList(text)
	}
	return charList(text)
}

func biWithOutputTo(m *Machine, args []term.Term) (bool, error) {
	sk, ok := sinkOf(args[0])
	if !ok {
		if isUnbound(args[0]) {
			return false, InstantiationError()
		}
		return false, DomainError("output_sink", args[0])
	}
	var buf bytes.Buffer
	m.engine.pushOutput(newStream("", &buf))
	ok, err := m.SolveOnce(args[1], m.Module(), true)
	m.engine.popOutput()
	if err != nil || !ok {
		return false, err
	}
	return m.Unify(sk.arg, sk.result(buf.String())), nil
}

func biFormat(m *Machine, args []term.Term) (bool, error) {
	var (
		out   = m.engine.Output()
		sk    *sink
		spec  term.Term
		fargs term.Term = term.Nil{}
	)
	switch len(args) {
	case 1:
		spec = args[0]
	case 2:
		spec, fargs = args[0], args[1]
	case 3:
		spec, fargs = args[1], args[2]
		var ok bool
		if sk, ok = sinkOf(args[0]); !ok {
			var err error
			if out, err = m.engine.stream(args[0]); err != nil {
				return false, err
			}
		}
	}
	f, err := textOf(spec, true)
	if err != nil {
		return false, err
	}
	xs, tail := term.Slice(fargs)
	if _, is := term.Resolve(tail).(term.Nil); !is {
		xs = []term.Term{fargs}
	}
	text, err := m.format(f, xs)
	if err != nil {
		return false, err
	}
	if sk != nil {
		return m.Unify(sk.arg, sk.result(text)), nil
	}
	return true, m.emit(out, text)
}

func formatError(msg string) error {
	return &Exception{Term: term.Atom("error").Of(
		term.Atom("format").Of(term.String(msg)), term.NewVariable())}
}

// format renders a format/2 control string.
func (m *Machine) format(f string, args []term.Term) (string, error) {
	var (
		b         strings.Builder
		lineStart int
		segStart  int
		fills     []int
		fillChar  = ' '
		rs        = []rune(f)
	)
	next := func() (term.Term, error) {
		if len(args) == 0 {
			return nil, formatError("not enough arguments")
		}
		a := args[0]
		args = args[1:]
		return a, nil
	}
	column := func() int {
		return utf8.RuneCountInString(b.String()[lineStart:])
	}
	write := func(s string) {
		b.WriteString(s)
		if i := strings.LastIndexByte(s, '\n'); 0 <= i {
			lineStart = b.Len() - len(s) + i + 1
			segStart = lineStart
			fills = nil
		}
	}

	for i := 0; i < len(rs); i++ {
		r := rs[i]
		if r != '~' {
			write(string(r))
			continue
		}
		i++
		if len(rs) <= i {
			return "", formatError("truncated format directive")
		}
		num := -1
		if rs[i] == '*' {
			a, err := next()
			if err != nil {
				return "", err
			}
			n, err := intArg(a)
			if err != nil {
				return "", err
			}
			num = int(n)
			i++
		} else if rs[i] == '`' && i+1 < len(rs) {
			num = int(rs[i+1])
			i += 2
		} else {
			j := i
			for j < len(rs) && '0' <= rs[j] && rs[j] <= '9' {
				j++
			}
			if i < j {
				num, _ = strconv.Atoi(string(rs[i:j]))
				i = j
			}
		}
		if len(rs) <= i {
			return "", formatError("truncated format directive")
		}
		switch d := rs[i]; d {
		case '~':
			write("~")
		case 'n':
			if num < 1 {
				num = 1
			}
			write(strings.Repeat("\n", num))
		case 'w', 'p', 'q', 'a':
			a, err := next()
			if err != nil {
				return "", err
			}
			opts := syntax.WriteOptions{NumberVars: true, Ops: m.engine.ops, Quoted: d == 'q' || d == 'p'}
			if d == 'a' {
				s, err := textOf(a, false)
				if err != nil {
					return "", err
				}
				write(s)
				continue
			}
			write(syntax.Format(a, opts))
		case 'd', 'D':
			a, err := next()
			if err != nil {
				return "", err
			}
			n, err := Eval(a)
			if err != nil {
				return "", err
			}
			k, is := n.(term.Integer)
			if !is {
				return "", TypeError("integer", a)
			}
			write(formatInt(int64(k), num, d == 'D'))
		case 'f', 'e', 'g':
			a, err := next()
			if err != nil {
				return "", err
			}
			n, err := Eval(a)
			if err != nil {
				return "", err
			}
			if num < 0 {
				num = 6
			}
			write(strconv.FormatFloat(toFloat(n), byte(d), num, 64))
		case 's':
			a, err := next()
			if err != nil {
				return "", err
			}
			s, err := textOf(a, true)
			if err != nil {
				return "", err
			}
			write(s)
		case 'c':
			a, err := next()
			if err != nil {
				return "", err
			}
			c, err := intArg(a)
			if err != nil {
				return "", err
			}
			if num < 1 {
				num = 1
			}
			write(strings.Repeat(string(rune(c)), num))
		case 'r', 'R':
			a, err := next()
			if err != nil {
				return "", err
			}
			k, err := intArg(a)
			if err != nil {
				return "", err
			}
			if num < 2 || 36 < num {
				return "", formatError("radix expected")
			}
			s := strconv.FormatInt(k, num)
			if d == 'R' {
				s = strings.ToUpper(s)
			}
			write(s)
		case 'i':
			if _, err := next(); err != nil {
				return "", err
			}
		case 't':
			if 0 <= num {
				fillChar = rune(num)
			}
			fills = append(fills, b.Len())
		case '|', '+':
			segCol := utf8.RuneCountInString(b.String()[lineStart:segStart])
			target := num
			if d == '+' {
				if num < 0 {
					num = 8
				}
				target = segCol + num
			} else if target < 0 {
				target = column()
			}
			if pad := target - column(); 0 < pad {
				at := b.Len()
				if 0 < len(fills) {
					at = fills[0]
				}
				s := b.String()
				b.Reset()
				b.WriteString(s[:at])
				b.WriteString(strings.Repeat(string(fillChar), pad))
				b.WriteString(s[at:])
			}
			segStart = b.Len()
			fills = nil
			fillChar = ' '
		default:
			return "", formatError(fmt.Sprintf("unknown directive ~%c", d))
		}
	}
	if 0 < len(args) {
		return "", formatError("too many arguments")
	}
	return b.String(), nil
}

func formatInt(k int64, frac int, group bool) string {
	neg := k < 0
	s := strconv.FormatInt(k, 10)
	if neg {
		s = s[1:]
	}
	var fpart string
	if 0 < frac {
		for len(s) <= frac {
			s = "0" + s
		}
		s, fpart = s[:len(s)-frac], s[len(s)-frac:]
	}
	if group {
		var acc []string
		for 3 < len(s) {
			acc = append([]string{s[len(s)-3:]}, acc...)
			s = s[:len(s)-3]
		}
		s = strings.Join(append([]string{s}, acc...), ",")
	}
	if fpart != "" {
		s += "." + fpart
	}
	if neg {
		s = "-" + s
	}
	return s
}

func biListing(m *Machine, args []term.Term) (bool, error) {
	var (
		preds []*Predicate
		mod   = m.Module()
	)
	if mod.Name == "system" {
		mod = m.engine.User()
	}
	if len(args) == 0 {
		preds = mod.Predicates()
	} else {
		spec := term.Resolve(args[0])
		pi, isPI := indicatorOf(spec)
		name, isName := spec.(term.Atom)
		if !isPI && !isName {
			return false, TypeError("predicate_indicator", spec)
		}
		for _, p := range mod.Predicates() {
			if (isPI && p.Indicator == pi) || (isName && p.Name == name) {
				preds = append(preds, p)
			}
		}
	}
	var b strings.Builder
	for _, p := range preds {
		if p.IsBuiltin() {
			continue
		}
		if p.Dynamic {
			fmt.Fprintf(&b, ":- dynamic %s.\n\n", syntax.Writeq(p.Indicator.Term()))
		}
		for _, c := range p.Clauses() {
			b.WriteString(syntax.PortrayClause(c.Term(), m.engine.ops))
		}
		b.WriteString("\n")
	}
	return true, m.emit(m.engine.Output(), b.String())
}
