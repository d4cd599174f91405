package core

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Comcast/sweep/syntax"
	"github.com/Comcast/sweep/term"
)

// textOf returns the text of an atomic term, or of a code or
// character list when lists is true.
func textOf(t term.Term, lists bool) (string, error) {
	switch x := term.Resolve(t).(type) {
	case *term.Variable:
		return "", InstantiationError()
	case term.Atom:
		return string(x), nil
	case term.Nil:
		if lists {
			return "", nil
		}
		return "[]", nil
	case term.String:
		return string(x), nil
	case term.Integer, term.Float:
		return syntax.Write(x), nil
	case *term.Pair:
		if lists {
			return listText(x)
		}
	}
	return "", TypeError("atomic", t)
}

// listText reads a code list or a character list.
func listText(t term.Term) (string, error) {
	xs, err := listArg(t)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, x := range xs {
		switch c := term.Resolve(x).(type) {
		case *term.Variable:
			return "", InstantiationError()
		case term.Integer:
			if c < 0 || c > unicode.MaxRune {
				return "", RepresentationError("character_code")
			}
			b.WriteRune(rune(c))
		case term.Atom:
			if utf8.RuneCountInString(string(c)) != 1 {
				return "", TypeError("character", c)
			}
			b.WriteString(string(c))
		default:
			return "", TypeError("text", t)
		}
	}
	return b.String(), nil
}

func codeList(s string) term.Term {
	acc := make([]term.Term, 0, len(s))
	for _, r := range s {
		acc = append(acc, term.Integer(r))
	}
	return term.List(acc...)
}

func charList(s string) term.Term {
	acc := make([]term.Term, 0, len(s))
	for _, r := range s {
		acc = append(acc, term.Atom(string(r)))
	}
	return term.List(acc...)
}

func isUnbound(t term.Term) bool {
	_, is := term.Resolve(t).(*term.Variable)
	return is
}

// parseNumber reads a number the way number_codes/2 does.
func parseNumber(s string) (term.Term, error) {
	src := strings.TrimLeftFunc(s, unicode.IsSpace)
	t, _, err := syntax.ParseTerm(src, nil)
	if err != nil {
		return nil, SyntaxError(err)
	}
	switch x := t.(type) {
	case term.Integer, term.Float:
		return x, nil
	case *term.Compound:
		// - 1 with layout is not a number.
		if x.Functor == "-" && len(x.Args) == 1 && isNumber(x.Args[0]) && !strings.HasPrefix(src, "- ") {
			n, err := evalUnary("-", x.Args[0])
			if err == nil {
				return n, nil
			}
		}
	}
	return nil, &Exception{Term: term.Atom("error").Of(
		term.Atom("syntax_error").Of(term.Atom("illegal_number")), term.NewVariable())}
}

func (e *Engine) installTextBuiltins() {
	e.def("atom_codes", 2, convText(func(s string) term.Term { return term.Atom(s) }, codeList))
	e.def("atom_chars", 2, convText(func(s string) term.Term { return term.Atom(s) }, charList))
	e.def("string_codes", 2, convText(func(s string) term.Term { return term.String(s) }, codeList))
	e.def("string_chars", 2, convText(func(s string) term.Term { return term.String(s) }, charList))
	e.def("atom_string", 2, convText(func(s string) term.Term { return term.Atom(s) }, func(s string) term.Term { return term.String(s) }))
	e.def("string_to_atom", 2, convText(func(s string) term.Term { return term.String(s) }, func(s string) term.Term { return term.Atom(s) }))
	e.def("text_to_string", 2, func(m *Machine, args []term.Term) (bool, error) {
		s, err := textOf(args[0], true)
		if err != nil {
			return false, err
		}
		return m.Unify(args[1], term.String(s)), nil
	})
	e.def("number_codes", 2, numberText(codeList))
	e.def("number_chars", 2, numberText(charList))
	e.def("number_string", 2, numberText(func(s string) term.Term { return term.String(s) }))
	e.def("atom_number", 2, biAtomNumber)
	e.def("char_code", 2, biCharCode)
	e.def("atom_length", 2, textLength)
	e.def("string_length", 2, textLength)
	e.def("atom_concat", 3, concat(func(s string) term.Term { return term.Atom(s) }))
	e.def("string_concat", 3, concat(func(s string) term.Term { return term.String(s) }))
	e.def("sub_atom", 5, sub(func(s string) term.Term { return term.Atom(s) }))
	e.def("sub_string", 5, sub(func(s string) term.Term { return term.String(s) }))
	e.def("upcase_atom", 2, mapText(strings.ToUpper, func(s string) term.Term { return term.Atom(s) }))
	e.def("downcase_atom", 2, mapText(strings.ToLower, func(s string) term.Term { return term.Atom(s) }))
	e.def("string_upper", 2, mapText(strings.ToUpper, func(s string) term.Term { return term.String(s) }))
	e.def("string_lower", 2, mapText(strings.ToLower, func(s string) term.Term { return term.String(s) }))
	e.def("string_code", 3, biStringCode)
	e.def("split_string", 4, biSplitString)
	e.def("atomic_list_concat", 2, biAtomicListConcat)
	e.def("atomic_list_concat", 3, biAtomicListConcat)
	e.def("term_to_atom", 2, termText(func(s string) term.Term { return term.Atom(s) }))
	e.def("term_string", 2, termText(func(s string) term.Term { return term.String(s) }))
	e.def("atom_to_term", 3, biAtomToTerm)
	e.def("read_term_from_atom", 3, func(m *Machine, args []term.Term) (bool, error) {
		s, err := textOf(args[0], false)
		if err != nil {
			return false, err
		}
		t, _, err := syntax.ParseTerm(s, m.engine.ops)
		if err != nil {
			return false, SyntaxError(err)
		}
		return m.Unify(args[1], t), nil
	})
	e.def("char_type", 2, charType(func(t term.Term) (rune, error) {
		s, err := atomArg(t)
		if err != nil {
			return 0, err
		}
		if utf8.RuneCountInString(string(s)) != 1 {
			return 0, TypeError("character", t)
		}
		r, _ := utf8.DecodeRuneInString(string(s))
		return r, nil
	}, func(r rune) term.Term { return term.Atom(string(r)) }))
	e.def("code_type", 2, charType(func(t term.Term) (rune, error) {
		switch x := term.Resolve(t).(type) {
		case term.Integer:
			return rune(x), nil
		case term.Atom:
			if r, n := utf8.DecodeRuneInString(string(x)); n == len(x) && 0 < n {
				return r, nil
			}
		case *term.Variable:
			return 0, InstantiationError()
		}
		return 0, TypeError("character_code", t)
	}, func(r rune) term.Term { return term.Integer(r) }))
}

// convText relates text (first argument) to another representation.
func convText(mk func(string) term.Term, other func(string) term.Term) Builtin {
	return func(m *Machine, args []term.Term) (bool, error) {
		if !isUnbound(args[0]) {
			s, err := textOf(args[0], false)
			if err != nil {
				return false, err
			}
			return m.Unify(args[1], other(s)), nil
		}
		s, err := textOf(args[1], true)
		if err != nil {
			return false, err
		}
		return m.Unify(args[0], mk(s)), nil
	}
}

func numberText(mk func(string) term.Term) Builtin {
	return func(m *Machine, args []term.Term) (bool, error) {
		if !isUnbound(args[1]) {
			s, err := textOf(args[1], true)
			if err != nil {
				return false, err
			}
			n, err := parseNumber(s)
			if err != nil {
				return false, err
			}
			return m.Unify(args[0], n), nil
		}
		n := term.Resolve(args[0])
		if _, is := n.(*term.Variable); is {
			return false, InstantiationError()
		}
		if !isNumber(n) {
			return false, TypeError("number", n)
		}
		return m.Unify(args[1], mk(syntax.Write(n))), nil
	}
}

func biAtomNumber(m *Machine, args []term.Term) (bool, error) {
	if isUnbound(args[0]) {
		n := term.Resolve(args[1])
		if _, is := n.(*term.Variable); is {
			return false, InstantiationError()
		}
		if !isNumber(n) {
			return false, TypeError("number", n)
		}
		return m.Unify(args[0], term.Atom(syntax.Write(n))), nil
	}
	s, err := textOf(args[0], false)
	if err != nil {
		return false, err
	}
	n, err := parseNumber(s)
	if err != nil {
		return false, nil
	}
	return m.Unify(args[1], n), nil
}

func biCharCode(m *Machine, args []term.Term) (bool, error) {
	if c, is := term.Resolve(args[0]).(term.Atom); is {
		r, n := utf8.DecodeRuneInString(string(c))
		if n != len(c) || n == 0 {
			return false, TypeError("character", c)
		}
		return m.Unify(args[1], term.Integer(r)), nil
	}
	if !isUnbound(args[0]) {
		return false, TypeError("character", args[0])
	}
	n, err := intArg(args[1])
	if err != nil {
		return false, err
	}
	if n < 0 || n > unicode.MaxRune {
		return false, RepresentationError("character_code")
	}
	return m.Unify(args[0], term.Atom(string(rune(n)))), nil
}

func textLength(m *Machine, args []term.Term) (bool, error) {
	s, err := textOf(args[0], false)
	if err != nil {
		return false, err
	}
	switch n := term.Resolve(args[1]).(type) {
	case *term.Variable:
	case term.Integer:
		if n < 0 {
			return false, DomainError("not_less_than_zero", n)
		}
	default:
		return false, TypeError("integer", n)
	}
	return m.Unify(args[1], term.Integer(utf8.RuneCountInString(s))), nil
}

func concat(mk func(string) term.Term) Builtin {
	return func(m *Machine, args []term.Term) (bool, error) {
		if !isUnbound(args[0]) && !isUnbound(args[1]) {
			a, err := textOf(args[0], false)
			if err != nil {
				return false, err
			}
			b, err := textOf(args[1], false)
			if err != nil {
				return false, err
			}
			return m.Unify(args[2], mk(a+b)), nil
		}
		whole, err := textOf(args[2], false)
		if err != nil {
			return false, err
		}
		rs := []rune(whole)
		i := 0
		return m.Generate(func() (bool, bool, error) {
			k := i
			i++
			ok := m.Unify(args[0], mk(string(rs[:k]))) && m.Unify(args[1], mk(string(rs[k:])))
			return ok, len(rs) < i, nil
		})
	}
}

// sub implements sub_atom/5 and sub_string/5: Text, Before, Length,
// After, Sub.
func sub(mk func(string) term.Term) Builtin {
	return func(m *Machine, args []term.Term) (bool, error) {
		s, err := textOf(args[0], false)
		if err != nil {
			return false, err
		}
		rs := []rune(s)
		n := len(rs)
		fixed := [3]int{-1, -1, -1}
		for i := 0; i < 3; i++ {
			switch x := term.Resolve(args[i+1]).(type) {
			case *term.Variable:
			case term.Integer:
				fixed[i] = int(x)
			default:
				return false, TypeError("integer", x)
			}
		}
		if !isUnbound(args[4]) {
			want, err := textOf(args[4], false)
			if err != nil {
				return false, err
			}
			wr := []rune(want)
			var cands []term.Term
			for b := 0; b+len(wr) <= n; b++ {
				if string(rs[b:b+len(wr)]) != want {
					continue
				}
				cands = append(cands, term.List(term.Integer(b), term.Integer(len(wr)), term.Integer(n-b-len(wr))))
			}
			return m.Alternatives(term.List(args[1], args[2], args[3]), cands)
		}
		var cands [][3]int
		for b := 0; b <= n; b++ {
			if 0 <= fixed[0] && b != fixed[0] {
				continue
			}
			for l := 0; b+l <= n; l++ {
				a := n - b - l
				if (0 <= fixed[1] && l != fixed[1]) || (0 <= fixed[2] && a != fixed[2]) {
					continue
				}
				cands = append(cands, [3]int{b, l, a})
			}
		}
		i := 0
		return m.Generate(func() (bool, bool, error) {
			if len(cands) == 0 {
				return false, true, nil
			}
			c := cands[i]
			i++
			ok := m.Unify(args[1], term.Integer(c[0])) &&
				m.Unify(args[2], term.Integer(c[1])) &&
				m.Unify(args[3], term.Integer(c[2])) &&
				m.Unify(args[4], mk(string(rs[c[0]:c[0]+c[1]])))
			return ok, len(cands) <= i, nil
		})
	}
}

func mapText(f func(string) string, mk func(string) term.Term) Builtin {
	return func(m *Machine, args []term.Term) (bool, error) {
		s, err := textOf(args[0], false)
		if err != nil {
			return false, err
		}
		return m.Unify(args[1], mk(f(s))), nil
	}
}

func biStringCode(m *Machine, args []term.Term) (bool, error) {
	i, err := intArg(args[0])
	if err != nil {
		return false, err
	}
	s, err := textOf(args[1], false)
	if err != nil {
		return false, err
	}
	rs := []rune(s)
	if i < 1 || int(i) > len(rs) {
		return false, nil
	}
	return m.Unify(args[2], term.Integer(rs[i-1])), nil
}

func biSplitString(m *Machine, args []term.Term) (bool, error) {
	s, err := textOf(args[0], true)
	if err != nil {
		return false, err
	}
	seps, err := textOf(args[1], true)
	if err != nil {
		return false, err
	}
	pad, err := textOf(args[2], true)
	if err != nil {
		return false, err
	}
	var parts []string
	if seps == "" {
		parts = []string{s}
	} else {
		start := 0
		for i, r := range s {
			if strings.ContainsRune(seps, r) {
				parts = append(parts, s[start:i])
				start = i + utf8.RuneLen(r)
			}
		}
		parts = append(parts, s[start:])
	}
	acc := make([]term.Term, len(parts))
	for i, p := range parts {
		acc[i] = term.String(strings.Trim(p, pad))
	}
	return m.Unify(args[3], term.List(acc...)), nil
}

func biAtomicListConcat(m *Machine, args []term.Term) (bool, error) {
	sep := ""
	if len(args) == 3 {
		s, err := textOf(args[1], false)
		if err != nil {
			return false, err
		}
		sep = s
	}
	result := args[len(args)-1]
	xs, tail := term.Slice(args[0])
	_, open := term.Resolve(tail).(*term.Variable)
	parts := make([]string, 0, len(xs))
	ground := !open
	for _, x := range xs {
		if isUnbound(x) {
			ground = false
			break
		}
		s, err := textOf(x, false)
		if err != nil {
			return false, err
		}
		parts = append(parts, s)
	}
	if ground {
		return m.Unify(result, term.Atom(strings.Join(parts, sep))), nil
	}
	if sep == "" || isUnbound(result) {
		return false, InstantiationError()
	}
	whole, err := textOf(result, false)
	if err != nil {
		return false, err
	}
	split := strings.Split(whole, sep)
	acc := make([]term.Term, len(split))
	for i, p := range split {
		acc[i] = term.Atom(p)
	}
	return m.Unify(args[0], term.List(acc...)), nil
}

func termText(mk func(string) term.Term) Builtin {
	return func(m *Machine, args []term.Term) (bool, error) {
		if isUnbound(args[1]) {
			return m.Unify(args[1], mk(syntax.Format(args[0], syntax.WriteOptions{Quoted: true, Ops: m.engine.ops}))), nil
		}
		s, err := textOf(args[1], false)
		if err != nil {
			return false, err
		}
		t, _, err := syntax.ParseTerm(s, m.engine.ops)
		if err != nil {
			return false, SyntaxError(err)
		}
		return m.Unify(args[0], t), nil
	}
}

func biAtomToTerm(m *Machine, args []term.Term) (bool, error) {
	s, err := textOf(args[0], false)
	if err != nil {
		return false, err
	}
	t, vars, err := syntax.ParseTerm(s, m.engine.ops)
	if err != nil {
		return false, SyntaxError(err)
	}
	bs := make([]term.Term, len(vars))
	for i, v := range vars {
		bs[i] = term.Atom("=").Of(term.Atom(v.Name), v.Var)
	}
	return m.Unify(args[1], t) && m.Unify(args[2], term.List(bs...)), nil
}

// charType implements a useful subset of char_type/2 and
// code_type/2.
func charType(get func(term.Term) (rune, error), mk func(rune) term.Term) Builtin {
	return func(m *Machine, args []term.Term) (bool, error) {
		r, err := get(args[0])
		if err != nil {
			return false, err
		}
		typ := term.Resolve(args[1])
		if name, is := typ.(term.Atom); is {
			switch name {
			case "alnum":
				return unicode.IsLetter(r) || unicode.IsDigit(r), nil
			case "alpha", "csym":
				return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_', nil
			case "csymf":
				return unicode.IsLetter(r) || r == '_', nil
			case "digit":
				return unicode.IsDigit(r), nil
			case "space", "white":
				return unicode.IsSpace(r), nil
			case "upper":
				return unicode.IsUpper(r), nil
			case "lower":
				return unicode.IsLower(r), nil
			case "punct":
				return unicode.IsPunct(r) || unicode.IsSymbol(r), nil
			case "graph":
				return unicode.IsGraphic(r) && !unicode.IsSpace(r), nil
			case "end_of_line":
				return r == '\n' || r == '\r', nil
			}
			return false, DomainError("char_type", typ)
		}
		c, is := typ.(*term.Compound)
		if !is || len(c.Args) != 1 {
			if _, is := typ.(*term.Variable); is {
				return false, InstantiationError()
			}
			return false, DomainError("char_type", typ)
		}
		switch c.Functor {
		case "digit":
			if '0' <= r && r <= '9' {
				return m.Unify(c.Args[0], term.Integer(r-'0')), nil
			}
			return false, nil
		case "to_lower":
			return m.Unify(c.Args[0], mk(unicode.ToLower(r))), nil
		case "to_upper":
			return m.Unify(c.Args[0], mk(unicode.ToUpper(r))), nil
		case "upper":
			return unicode.IsUpper(r) && m.Unify(c.Args[0], mk(unicode.ToLower(r))), nil
		case "lower":
			return unicode.IsLower(r) && m.Unify(c.Args[0], mk(unicode.ToUpper(r))), nil
		}
		return false, DomainError("char_type", typ)
	}
}
