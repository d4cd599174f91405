package core

import (
	"sort"

	"github.com/Comcast/sweep/match"
	"github.com/Comcast/sweep/term"
)

func typeCheck(f func(term.Term) bool) Builtin {
	return func(m *Machine, args []term.Term) (bool, error) {
		return f(term.Resolve(args[0])), nil
	}
}

func isAtom(t term.Term) bool {
	switch t.(type) {
	case term.Atom, term.Nil:
		return true
	}
	return false
}

func isNumber(t term.Term) bool {
	switch t.(type) {
	case term.Integer, term.Float:
		return true
	}
	return false
}

func (e *Engine) installTermBuiltins() {
	e.def("var", 1, typeCheck(func(t term.Term) bool { _, is := t.(*term.Variable); return is }))
	e.def("nonvar", 1, typeCheck(func(t term.Term) bool { _, is := t.(*term.Variable); return !is }))
	e.def("atom", 1, typeCheck(isAtom))
	e.def("number", 1, typeCheck(isNumber))
	e.def("integer", 1, typeCheck(func(t term.Term) bool { _, is := t.(term.Integer); return is }))
	e.def("float", 1, typeCheck(func(t term.Term) bool { _, is := t.(term.Float); return is }))
	e.def("atomic", 1, typeCheck(term.IsAtomic))
	e.def("compound", 1, typeCheck(func(t term.Term) bool {
		switch t.(type) {
		case *term.Compound, *term.Pair:
			return true
		}
		return false
	}))
	e.def("callable", 1, typeCheck(term.IsCallable))
	e.def("is_list", 1, typeCheck(func(t term.Term) bool { _, ok := term.ProperList(t); return ok }))
	e.def("string", 1, typeCheck(func(t term.Term) bool { _, is := t.(term.String); return is }))
	e.def("is_dict", 1, typeCheck(func(t term.Term) bool { _, is := t.(*term.Dict); return is }))
	e.def("blob", 2, biBlob)
	e.def("ground", 1, typeCheck(match.Ground))

	e.def("=", 2, func(m *Machine, args []term.Term) (bool, error) {
		return m.Unify(args[0], args[1]), nil
	})
	e.def(`\=`, 2, func(m *Machine, args []term.Term) (bool, error) {
		tr := match.NewTrail()
		ok := match.Unify(tr, args[0], args[1])
		tr.Undo(0)
		return !ok, nil
	})
	e.def("unify_with_occurs_check", 2, func(m *Machine, args []term.Term) (bool, error) {
		return (&match.Matcher{OccursCheck: true}).Unify(m.trail, args[0], args[1]), nil
	})
	e.def("==", 2, compareWith(func(c int) bool { return c == 0 }))
	e.def(`\==`, 2, compareWith(func(c int) bool { return c != 0 }))
	e.def("@<", 2, compareWith(func(c int) bool { return c < 0 }))
	e.def("@>", 2, compareWith(func(c int) bool { return c > 0 }))
	e.def("@=<", 2, compareWith(func(c int) bool { return c <= 0 }))
	e.def("@>=", 2, compareWith(func(c int) bool { return c >= 0 }))
	e.def("compare", 3, biCompare)
	e.def("=@=", 2, func(m *Machine, args []term.Term) (bool, error) {
		return match.Variant(args[0], args[1]), nil
	})
	e.def(`\=@=`, 2, func(m *Machine, args []term.Term) (bool, error) {
		return !match.Variant(args[0], args[1]), nil
	})
	e.def("subsumes_term", 2, func(m *Machine, args []term.Term) (bool, error) {
		return match.Subsumes(args[0], args[1]), nil
	})

	e.def("is", 2, func(m *Machine, args []term.Term) (bool, error) {
		n, err := Eval(args[1])
		if err != nil {
			return false, err
		}
		return m.Unify(args[0], n), nil
	})
	e.def("=:=", 2, arithCompare(func(c int) bool { return c == 0 }))
	e.def(`=\=`, 2, arithCompare(func(c int) bool { return c != 0 }))
	e.def("<", 2, arithCompare(func(c int) bool { return c < 0 }))
	e.def(">", 2, arithCompare(func(c int) bool { return c > 0 }))
	e.def("=<", 2, arithCompare(func(c int) bool { return c <= 0 }))
	e.def(">=", 2, arithCompare(func(c int) bool { return c >= 0 }))
	e.def("succ", 2, biSucc)
	e.def("plus", 3, biPlus)
	e.def("between", 3, biBetween)

	e.def("functor", 3, biFunctor)
	e.def("arg", 3, biArg)
	e.def("=..", 2, biUniv)
	e.def("copy_term", 2, func(m *Machine, args []term.Term) (bool, error) {
		return m.Unify(args[1], match.Copy(args[0], nil)), nil
	})
	e.def("setarg", 3, biSetarg(false))
	e.def("nb_setarg", 3, biSetarg(true))
	e.def("term_variables", 2, func(m *Machine, args []term.Term) (bool, error) {
		vs := match.Vars(args[0])
		acc := make([]term.Term, len(vs))
		for i, v := range vs {
			acc[i] = v
		}
		return m.Unify(args[1], term.List(acc...)), nil
	})
	e.def("numbervars", 3, biNumbervars)

	e.def("length", 2, biLength)
	e.def("msort", 2, biSort("msort"))
	e.def("sort", 2, biSort("sort"))
	e.def("keysort", 2, biSort("keysort"))
	e.def("sort", 4, biSort4)

	e.def("b_setval", 2, biSetval(false))
	e.def("nb_setval", 2, biSetval(true))
	e.def("b_getval", 2, biGetval)
	e.def("nb_getval", 2, biGetval)
	e.def("set_prolog_flag", 2, func(m *Machine, args []term.Term) (bool, error) {
		name, err := atomArg(args[0])
		if err != nil {
			return false, err
		}
		return true, m.engine.SetFlag(name, args[1])
	})
	e.def("current_prolog_flag", 2, biCurrentFlag)

	e.def("dict_pairs", 3, biDictPairs)
	e.def("dict_create", 3, biDictCreate)
	e.def("get_dict", 3, biGetDict)
	e.def("put_dict", 4, biPutDict4)
	e.def("put_dict", 3, biPutDict3)
	e.def("del_dict", 4, biDelDict)
	e.def("is_dict", 2, func(m *Machine, args []term.Term) (bool, error) {
		d, is := term.Resolve(args[0]).(*term.Dict)
		return is && m.Unify(args[1], d.Tag), nil
	})
}

func compareWith(f func(int) bool) Builtin {
	return func(m *Machine, args []term.Term) (bool, error) {
		return f(term.Compare(args[0], args[1])), nil
	}
}

func arithCompare(f func(int) bool) Builtin {
	return func(m *Machine, args []term.Term) (bool, error) {
		a, err := Eval(args[0])
		if err != nil {
			return false, err
		}
		b, err := Eval(args[1])
		if err != nil {
			return false, err
		}
		return f(compareNum(a, b)), nil
	}
}

func biCompare(m *Machine, args []term.Term) (bool, error) {
	switch o := term.Resolve(args[0]).(type) {
	case *term.Variable:
	case term.Atom:
		if o != "<" && o != ">" && o != "=" {
			return false, DomainError("order", o)
		}
	default:
		return false, TypeError("atom", o)
	}
	var order term.Atom
	switch c := term.Compare(args[1], args[2]); {
	case c < 0:
		order = "<"
	case c > 0:
		order = ">"
	default:
		order = "="
	}
	return m.Unify(args[0], order), nil
}

func biBlob(m *Machine, args []term.Term) (bool, error) {
	var typ term.Atom
	switch x := term.Resolve(args[0]).(type) {
	case *term.Blob:
		typ = term.Atom(x.Type)
	case term.Atom, term.Nil:
		typ = "text"
	default:
		return false, nil
	}
	return m.Unify(args[1], typ), nil
}

func biSucc(m *Machine, args []term.Term) (bool, error) {
	a, b := term.Resolve(args[0]), term.Resolve(args[1])
	if x, is := a.(term.Integer); is {
		if x < 0 {
			return false, TypeError("not_less_than_zero", x)
		}
		n, err := evalBinary("+", x, term.Integer(1))
		if err != nil {
			return false, err
		}
		if _, is := b.(*term.Variable); !is {
			if _, is := b.(term.Integer); !is {
				return false, TypeError("integer", b)
			}
		}
		return m.Unify(b, n), nil
	}
	if _, is := a.(*term.Variable); !is {
		return false, TypeError("integer", a)
	}
	switch y := b.(type) {
	case *term.Variable:
		return false, InstantiationError()
	case term.Integer:
		if y < 0 {
			return false, TypeError("not_less_than_zero", y)
		}
		if y == 0 {
			return false, nil
		}
		return m.Unify(a, y-1), nil
	}
	return false, TypeError("integer", b)
}

func biPlus(m *Machine, args []term.Term) (bool, error) {
	var ns [3]*term.Integer
	unbound := 0
	for i, a := range args {
		switch x := term.Resolve(a).(type) {
		case *term.Variable:
			unbound++
		case term.Integer:
			ns[i] = &x
		default:
			return false, TypeError("integer", a)
		}
	}
	if 1 < unbound {
		return false, InstantiationError()
	}
	switch {
	case ns[2] == nil:
		n, err := evalBinary("+", *ns[0], *ns[1])
		if err != nil {
			return false, err
		}
		return m.Unify(args[2], n), nil
	case ns[1] == nil:
		n, err := evalBinary("-", *ns[2], *ns[0])
		if err != nil {
			return false, err
		}
		return m.Unify(args[1], n), nil
	default:
		n, err := evalBinary("-", *ns[2], *ns[1])
		if err != nil {
			return false, err
		}
		return m.Unify(args[0], n), nil
	}
}

func biBetween(m *Machine, args []term.Term) (bool, error) {
	lo, err := intArg(args[0])
	if err != nil {
		return false, err
	}
	var hi int64
	switch h := term.Resolve(args[1]).(type) {
	case term.Atom:
		if h != "inf" && h != "infinite" {
			return false, TypeError("integer", h)
		}
		hi = 1<<63 - 1
	default:
		if hi, err = intArg(h); err != nil {
			return false, err
		}
	}
	switch x := term.Resolve(args[2]).(type) {
	case term.Integer:
		return lo <= int64(x) && int64(x) <= hi, nil
	case *term.Variable:
	default:
		return false, TypeError("integer", x)
	}
	if hi < lo {
		return false, nil
	}
	i := lo
	return m.Generate(func() (bool, bool, error) {
		n := i
		last := n == hi
		i++
		return m.Unify(args[2], term.Integer(n)), last, nil
	})
}

func biFunctor(m *Machine, args []term.Term) (bool, error) {
	switch t := term.Resolve(args[0]).(type) {
	case *term.Variable:
		name := term.Resolve(args[1])
		n, err := intArg(args[2])
		if err != nil {
			return false, err
		}
		if n < 0 {
			return false, DomainError("not_less_than_zero", args[2])
		}
		if n == 0 {
			if _, is := name.(*term.Variable); is {
				return false, InstantiationError()
			}
			if !term.IsAtomic(name) {
				return false, TypeError("atomic", name)
			}
			return m.Unify(t, name), nil
		}
		var a term.Atom
		switch x := name.(type) {
		case *term.Variable:
			return false, InstantiationError()
		case term.Atom:
			a = x
		case term.Nil:
			a = "[]"
		case *term.Compound, *term.Pair:
			return false, TypeError("atomic", name)
		default:
			return false, TypeError("atom", name)
		}
		fresh := make([]term.Term, n)
		for i := range fresh {
			fresh[i] = term.NewVariable()
		}
		if a == term.ListFunctor && n == 2 {
			return m.Unify(t, term.NewPair(fresh[0], fresh[1])), nil
		}
		return m.Unify(t, &term.Compound{Functor: a, Args: fresh}), nil
	case *term.Compound:
		return m.Unify(args[1], t.Functor) && m.Unify(args[2], term.Integer(len(t.Args))), nil
	case *term.Pair:
		return m.Unify(args[1], term.ListFunctor) && m.Unify(args[2], term.Integer(2)), nil
	default:
		return m.Unify(args[1], t) && m.Unify(args[2], term.Integer(0)), nil
	}
}

func biArg(m *Machine, args []term.Term) (bool, error) {
	var targs []term.Term
	switch t := term.Resolve(args[1]).(type) {
	case *term.Variable:
		return false, InstantiationError()
	case *term.Compound:
		targs = t.Args
	case *term.Pair:
		targs = []term.Term{t.Head, t.Tail}
	default:
		return false, TypeError("compound", t)
	}
	switch n := term.Resolve(args[0]).(type) {
	case term.Integer:
		if n < 1 || int(n) > len(targs) {
			return false, nil
		}
		return m.Unify(args[2], targs[n-1]), nil
	case *term.Variable:
		i := 0
		return m.Generate(func() (bool, bool, error) {
			i++
			last := len(targs) <= i
			return m.Unify(n, term.Integer(i)) && m.Unify(args[2], targs[i-1]), last, nil
		})
	default:
		return false, TypeError("integer", n)
	}
}

func biUniv(m *Machine, args []term.Term) (bool, error) {
	switch t := term.Resolve(args[0]).(type) {
	case *term.Variable:
		xs, err := listArg(args[1])
		if err != nil {
			return false, err
		}
		if len(xs) == 0 {
			return false, DomainError("non_empty_list", term.Nil{})
		}
		head := term.Resolve(xs[0])
		if len(xs) == 1 {
			if _, is := head.(*term.Variable); is {
				return false, InstantiationError()
			}
			return m.Unify(t, head), nil
		}
		var name term.Atom
		switch h := head.(type) {
		case *term.Variable:
			return false, InstantiationError()
		case term.Atom:
			name = h
		case term.Nil:
			name = "[]"
		default:
			return false, TypeError("atom", h)
		}
		if name == term.ListFunctor && len(xs) == 3 {
			return m.Unify(t, term.NewPair(xs[1], xs[2])), nil
		}
		return m.Unify(t, &term.Compound{Functor: name, Args: append([]term.Term(nil), xs[1:]...)}), nil
	case *term.Compound:
		return m.Unify(args[1], term.List(append([]term.Term{t.Functor}, t.Args...)...)), nil
	case *term.Pair:
		return m.Unify(args[1], term.List(term.ListFunctor, t.Head, t.Tail)), nil
	default:
		return m.Unify(args[1], term.List(t)), nil
	}
}

// biSetarg changes an argument in place.  setarg/3 undoes the change
// on backtracking; nb_setarg/3 doesn't.
func biSetarg(keep bool) Builtin {
	return func(m *Machine, args []term.Term) (bool, error) {
		n, err := intArg(args[0])
		if err != nil {
			return false, err
		}
		c, is := term.Resolve(args[1]).(*term.Compound)
		if !is {
			return false, TypeError("compound", args[1])
		}
		if n < 1 || int(n) > len(c.Args) {
			return false, nil
		}
		i := int(n) - 1
		old := c.Args[i]
		if keep {
			c.Args[i] = match.Copy(match.Snapshot(args[2]), nil)
			return true, nil
		}
		c.Args[i] = args[2]
		m.OnBacktrack(func() { c.Args[i] = old })
		return true, nil
	}
}

func biNumbervars(m *Machine, args []term.Term) (bool, error) {
	n, err := intArg(args[1])
	if err != nil {
		return false, err
	}
	for _, v := range match.Vars(args[0]) {
		if !m.Unify(v, term.Atom("$VAR").Of(term.Integer(n))) {
			return false, nil
		}
		n++
	}
	return m.Unify(args[2], term.Integer(n)), nil
}

func biLength(m *Machine, args []term.Term) (bool, error) {
	xs, tail := term.Slice(args[0])
	switch t := term.Resolve(tail).(type) {
	case term.Nil:
		return m.Unify(args[1], term.Integer(len(xs))), nil
	case *term.Variable:
		switch n := term.Resolve(args[1]).(type) {
		case term.Integer:
			if int(n) < len(xs) {
				if n < 0 {
					return false, DomainError("not_less_than_zero", n)
				}
				return false, nil
			}
			fresh := make([]term.Term, int(n)-len(xs))
			for i := range fresh {
				fresh[i] = term.NewVariable()
			}
			return m.Unify(t, term.List(fresh...)), nil
		case *term.Variable:
			k := len(xs)
			return m.Generate(func() (bool, bool, error) {
				fresh := make([]term.Term, k-len(xs))
				for i := range fresh {
					fresh[i] = term.NewVariable()
				}
				ok := m.Unify(t, term.List(fresh...)) && m.Unify(n, term.Integer(k))
				k++
				return ok, false, nil
			})
		default:
			return false, TypeError("integer", n)
		}
	default:
		return false, TypeError("list", args[0])
	}
}

func biSort(how string) Builtin {
	return func(m *Machine, args []term.Term) (bool, error) {
		xs, err := listArg(args[0])
		if err != nil {
			return false, err
		}
		if err := partialListArg(args[1]); err != nil {
			return false, err
		}
		xs = append([]term.Term(nil), xs...)
		switch how {
		case "msort":
			sort.SliceStable(xs, func(i, j int) bool { return term.Compare(xs[i], xs[j]) < 0 })
		case "sort":
			xs = sortUnique(xs)
		case "keysort":
			keys := make([]term.Term, len(xs))
			for i, x := range xs {
				p, is := compoundOf(x, "-", 2)
				if !is {
					if _, is := term.Resolve(x).(*term.Variable); is {
						return false, InstantiationError()
					}
					return false, TypeError("pair", x)
				}
				keys[i] = p.Args[0]
			}
			idx := make([]int, len(xs))
			for i := range idx {
				idx[i] = i
			}
			sort.SliceStable(idx, func(i, j int) bool { return term.Compare(keys[idx[i]], keys[idx[j]]) < 0 })
			acc := make([]term.Term, len(xs))
			for i, j := range idx {
				acc[i] = xs[j]
			}
			xs = acc
		}
		return m.Unify(args[1], term.List(xs...)), nil
	}
}

// sort(Key, Order, List, Sorted)
func biSort4(m *Machine, args []term.Term) (bool, error) {
	key, err := intArg(args[0])
	if err != nil {
		return false, err
	}
	order, err := atomArg(args[1])
	if err != nil {
		return false, err
	}
	xs, err := listArg(args[2])
	if err != nil {
		return false, err
	}
	keyOf := func(t term.Term) (term.Term, error) {
		if key == 0 {
			return t, nil
		}
		as := argsOf(t)
		if len(as) < int(key) {
			return nil, TypeError("compound", t)
		}
		return as[key-1], nil
	}
	type item struct {
		k, t term.Term
	}
	items := make([]item, len(xs))
	for i, x := range xs {
		k, err := keyOf(x)
		if err != nil {
			return false, err
		}
		items[i] = item{k, x}
	}
	var less func(c int) bool
	dedup := false
	switch order {
	case "@<":
		less, dedup = func(c int) bool { return c < 0 }, true
	case "@=<":
		less = func(c int) bool { return c < 0 }
	case "@>":
		less, dedup = func(c int) bool { return c > 0 }, true
	case "@>=":
		less = func(c int) bool { return c > 0 }
	default:
		return false, DomainError("order", args[1])
	}
	sort.SliceStable(items, func(i, j int) bool { return less(term.Compare(items[i].k, items[j].k)) })
	acc := make([]term.Term, 0, len(items))
	for i, it := range items {
		if dedup && 0 < i && term.Compare(items[i-1].k, it.k) == 0 {
			continue
		}
		acc = append(acc, it.t)
	}
	return m.Unify(args[3], term.List(acc...)), nil
}

func biSetval(keep bool) Builtin {
	return func(m *Machine, args []term.Term) (bool, error) {
		name, err := atomArg(args[0])
		if err != nil {
			return false, err
		}
		g := m.engine.globals
		if keep {
			g[name] = match.Copy(match.Snapshot(args[1]), nil)
			return true, nil
		}
		old, had := g[name]
		g[name] = args[1]
		m.OnBacktrack(func() {
			if had {
				g[name] = old
			} else {
				delete(g, name)
			}
		})
		return true, nil
	}
}

func biGetval(m *Machine, args []term.Term) (bool, error) {
	name, err := atomArg(args[0])
	if err != nil {
		return false, err
	}
	v, have := m.engine.globals[name]
	if !have {
		return false, ExistenceError("variable", name)
	}
	return m.Unify(args[1], v), nil
}

func biCurrentFlag(m *Machine, args []term.Term) (bool, error) {
	flags := m.engine.flags
	switch name := term.Resolve(args[0]).(type) {
	case term.Atom:
		v, have := flags[name]
		return have && m.Unify(args[1], v), nil
	case *term.Variable:
		names := make([]string, 0, len(flags))
		for k := range flags {
			names = append(names, string(k))
		}
		sort.Strings(names)
		cands := make([]term.Term, len(names))
		for i, k := range names {
			cands[i] = term.Atom("-").Of(term.Atom(k), flags[term.Atom(k)])
		}
		return m.Alternatives(term.Atom("-").Of(name, args[1]), cands)
	default:
		return false, TypeError("atom", name)
	}
}

func dictArg(t term.Term) (*term.Dict, error) {
	switch d := term.Resolve(t).(type) {
	case *term.Variable:
		return nil, InstantiationError()
	case *term.Dict:
		return d, nil
	}
	return nil, TypeError("dict", t)
}

// dictError turns construction errors into exceptions.
func dictError(err error) error {
	switch x := err.(type) {
	case *term.DuplicateKey:
		return &Exception{Term: term.Atom("duplicate_key").Of(x.Key)}
	case *term.BadKey:
		if _, is := term.Resolve(x.Key).(*term.Variable); is {
			return InstantiationError()
		}
		return TypeError("dict-key", x.Key)
	}
	return err
}

func pairsOf(t term.Term) ([]term.DictPair, error) {
	xs, err := listArg(t)
	if err != nil {
		return nil, err
	}
	acc := make([]term.DictPair, 0, len(xs))
	for _, x := range xs {
		x = term.Resolve(x)
		if c, is := x.(*term.Compound); is && len(c.Args) == 2 {
			switch c.Functor {
			case "-", "=", ":":
				acc = append(acc, term.DictPair{Key: term.Resolve(c.Args[0]), Value: c.Args[1]})
				continue
			}
		}
		if c, is := x.(*term.Compound); is && len(c.Args) == 1 {
			acc = append(acc, term.DictPair{Key: c.Functor, Value: c.Args[0]})
			continue
		}
		return nil, TypeError("pair", x)
	}
	return acc, nil
}

func biDictPairs(m *Machine, args []term.Term) (bool, error) {
	if d, is := term.Resolve(args[0]).(*term.Dict); is {
		acc := make([]term.Term, len(d.Pairs))
		for i, p := range d.Pairs {
			acc[i] = term.Atom("-").Of(p.Key, p.Value)
		}
		return m.Unify(args[1], d.Tag) && m.Unify(args[2], term.List(acc...)), nil
	}
	ps, err := pairsOf(args[2])
	if err != nil {
		return false, err
	}
	d, err := term.NewDict(args[1], ps)
	if err != nil {
		return false, dictError(err)
	}
	return m.Unify(args[0], d), nil
}

func biDictCreate(m *Machine, args []term.Term) (bool, error) {
	ps, err := pairsOf(args[2])
	if err != nil {
		return false, err
	}
	d, err := term.NewDict(args[1], ps)
	if err != nil {
		return false, dictError(err)
	}
	return m.Unify(args[0], d), nil
}

func biGetDict(m *Machine, args []term.Term) (bool, error) {
	d, err := dictArg(args[1])
	if err != nil {
		return false, err
	}
	switch k := term.Resolve(args[0]).(type) {
	case *term.Variable:
		cands := make([]term.Term, len(d.Pairs))
		for i, p := range d.Pairs {
			cands[i] = term.Atom("-").Of(p.Key, p.Value)
		}
		return m.Alternatives(term.Atom("-").Of(k, args[2]), cands)
	default:
		v, have := d.Get(k)
		return have && m.Unify(args[2], v), nil
	}
}

func biPutDict4(m *Machine, args []term.Term) (bool, error) {
	d, err := dictArg(args[1])
	if err != nil {
		return false, err
	}
	nd, err := d.Put(term.DictPair{Key: term.Resolve(args[0]), Value: args[2]})
	if err != nil {
		return false, dictError(err)
	}
	return m.Unify(args[3], nd), nil
}

func biPutDict3(m *Machine, args []term.Term) (bool, error) {
	d, err := dictArg(args[1])
	if err != nil {
		return false, err
	}
	var ps []term.DictPair
	if nd, is := term.Resolve(args[0]).(*term.Dict); is {
		ps = nd.Pairs
	} else if ps, err = pairsOf(args[0]); err != nil {
		return false, err
	}
	nd, err := d.Put(ps...)
	if err != nil {
		return false, dictError(err)
	}
	return m.Unify(args[2], nd), nil
}

func biDelDict(m *Machine, args []term.Term) (bool, error) {
	d, err := dictArg(args[1])
	if err != nil {
		return false, err
	}
	k := term.Resolve(args[0])
	v, have := d.Get(k)
	if !have {
		return false, nil
	}
	nd, _ := d.Delete(k)
	return m.Unify(args[2], v) && m.Unify(args[3], nd), nil
}
