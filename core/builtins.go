package core

import (
	"sort"

	"github.com/Comcast/sweep/match"
	"github.com/Comcast/sweep/term"
)

func (e *Engine) def(name string, arity int, fn Builtin) {
	p := e.System().Ensure(term.Indicator{Name: term.Atom(name), Arity: arity})
	p.builtin = fn
}

func (e *Engine) defControl(name string, arity int) {
	p := e.System().Ensure(term.Indicator{Name: term.Atom(name), Arity: arity})
	p.control = true
}

func (e *Engine) installBuiltins() {
	for _, c := range []struct {
		name  string
		arity int
	}{
		{"true", 0}, {"fail", 0}, {"false", 0}, {"!", 0},
		{",", 2}, {";", 2}, {"->", 2}, {"*->", 2}, {`\+`, 1}, {"not", 1},
		{":", 2}, {"catch", 3}, {"once", 1}, {"ignore", 1},
		{"setup_call_cleanup", 3}, {"setup_call_catcher_cleanup", 4}, {"call_cleanup", 2},
	} {
		e.defControl(c.name, c.arity)
	}
	for n := 1; n <= 8; n++ {
		e.defControl("call", n)
	}

	e.def("throw", 1, biThrow)
	e.def("halt", 0, biHalt)
	e.def("halt", 1, biHalt)
	e.def("findall", 3, biFindall)
	e.def("findall", 4, biFindall)
	e.def("bagof", 3, biBagof)
	e.def("setof", 3, biSetof)
	e.def("aggregate_all", 3, biAggregateAll)
	e.def("at_halt", 1, biAtHalt)
	e.def("phrase", 2, biPhrase)
	e.def("phrase", 3, biPhrase)
	e.def("dcg_translate_rule", 2, biDCGTranslate)

	e.installTermBuiltins()
	e.installTextBuiltins()
	e.installOutputBuiltins()
	e.installDatabaseBuiltins()
}

// PushGoal arranges for goal to run next, as call/1 would.
func (m *Machine) PushGoal(goal term.Term) {
	m.cont = &frame{goal: goal, module: m.Module(), cutB: len(m.cps), next: m.cont}
}

func biThrow(m *Machine, args []term.Term) (bool, error) {
	ball := term.Resolve(args[0])
	if _, is := ball.(*term.Variable); is {
		return false, InstantiationError()
	}
	return false, Throw(ball)
}

func biHalt(m *Machine, args []term.Term) (bool, error) {
	code := int64(0)
	if len(args) == 1 {
		n, err := intArg(args[0])
		if err != nil {
			return false, err
		}
		code = n
	}
	return false, &Exception{Term: haltBall(code)}
}

func biAtHalt(m *Machine, args []term.Term) (bool, error) {
	g, err := callableArg(args[0])
	if err != nil {
		return false, err
	}
	m.engine.atHalt = append(m.engine.atHalt, match.Copy(match.Snapshot(g), nil))
	return true, nil
}

// findall(T, G, L) and findall(T, G, L, Tail).
func biFindall(m *Machine, args []term.Term) (bool, error) {
	if err := partialListArg(args[2]); err != nil {
		return false, err
	}
	var acc []term.Term
	err := m.SolveAll(args[1], m.Module(), func() (bool, error) {
		acc = append(acc, match.Copy(match.Snapshot(args[0]), nil))
		return true, nil
	})
	if err != nil {
		return false, err
	}
	if len(args) == 4 {
		return m.Unify(args[2], term.ListWithTail(acc, args[3])), nil
	}
	return m.Unify(args[2], term.List(acc...)), nil
}

// stripCarets removes V^ prefixes from a bagof/setof goal, returning
// the goal and the variables the prefixes name.
func stripCarets(g term.Term) (term.Term, []*term.Variable) {
	var bound []*term.Variable
	for {
		c, is := compoundOf(g, "^", 2)
		if !is {
			return term.Resolve(g), bound
		}
		bound = append(bound, match.Vars(c.Args[0])...)
		g = c.Args[1]
	}
}

// witness is the free variables of goal that don't occur in the
// template or the ^ prefixes.
func witness(template, goal term.Term, bound []*term.Variable) []term.Term {
	skip := make(map[*term.Variable]bool)
	for _, v := range match.Vars(template) {
		skip[v] = true
	}
	for _, v := range bound {
		skip[v] = true
	}
	var acc []term.Term
	for _, v := range match.Vars(goal) {
		if !skip[v] {
			acc = append(acc, v)
			skip[v] = true
		}
	}
	return acc
}

func biBagof(m *Machine, args []term.Term) (bool, error) {
	return bagof(m, args, false)
}

func biSetof(m *Machine, args []term.Term) (bool, error) {
	return bagof(m, args, true)
}

func bagof(m *Machine, args []term.Term, set bool) (bool, error) {
	if err := partialListArg(args[2]); err != nil {
		return false, err
	}
	goal, bound := stripCarets(args[1])
	if _, err := callableArg(goal); err != nil {
		return false, err
	}
	w := term.Atom("$w").Of(witness(args[0], goal, bound)...)
	pair := term.Atom("-").Of(w, args[0])

	var sols []term.Term
	err := m.SolveAll(goal, m.Module(), func() (bool, error) {
		sols = append(sols, match.Copy(match.Snapshot(pair), nil))
		return true, nil
	})
	if err != nil || len(sols) == 0 {
		return false, err
	}

	type group struct {
		w  term.Term
		ts []term.Term
	}
	var groups []*group
	for _, s := range sols {
		p := s.(*term.Compound)
		sw, st := p.Args[0], p.Args[1]
		var g *group
		for _, h := range groups {
			if match.Variant(h.w, sw) {
				g = h
				break
			}
		}
		if g == nil {
			g = &group{w: sw}
			groups = append(groups, g)
		} else {
			// Variant witnesses share their variables.
			tr := match.NewTrail()
			match.Unify(tr, g.w, sw)
		}
		g.ts = append(g.ts, st)
	}
	if set {
		for _, g := range groups {
			g.ts = sortUnique(g.ts)
		}
		sort.SliceStable(groups, func(i, j int) bool {
			return term.Compare(groups[i].w, groups[j].w) < 0
		})
	}

	i := 0
	return m.Generate(func() (bool, bool, error) {
		g := groups[i]
		i++
		last := len(groups) <= i
		return m.Unify(w, g.w) && m.Unify(args[2], term.List(g.ts...)), last, nil
	})
}

func sortUnique(ts []term.Term) []term.Term {
	acc := append([]term.Term(nil), ts...)
	sort.SliceStable(acc, func(i, j int) bool { return term.Compare(acc[i], acc[j]) < 0 })
	out := acc[:0]
	for i, t := range acc {
		if 0 < i && term.Compare(out[len(out)-1], t) == 0 {
			continue
		}
		out = append(out, t)
	}
	return out
}

func biAggregateAll(m *Machine, args []term.Term) (bool, error) {
	spec := term.Resolve(args[0])
	if _, is := spec.(*term.Variable); is {
		return false, InstantiationError()
	}
	goal := args[1]
	switch spec {
	case term.Atom("count"):
		n := 0
		err := m.SolveAll(goal, m.Module(), func() (bool, error) {
			n++
			return true, nil
		})
		if err != nil {
			return false, err
		}
		return m.Unify(args[2], term.Integer(n)), nil
	}

	c, is := spec.(*term.Compound)
	if !is {
		return false, DomainError("aggregate_spec", spec)
	}
	var acc []term.Term
	collect := func(t term.Term) error {
		return m.SolveAll(goal, m.Module(), func() (bool, error) {
			acc = append(acc, match.Copy(match.Snapshot(t), nil))
			return true, nil
		})
	}
	switch {
	case c.Functor == "count" && len(c.Args) == 1:
		if err := collect(c.Args[0]); err != nil {
			return false, err
		}
		return m.Unify(args[2], term.Integer(len(acc))), nil
	case c.Functor == "bag" && len(c.Args) == 1:
		if err := collect(c.Args[0]); err != nil {
			return false, err
		}
		return m.Unify(args[2], term.List(acc...)), nil
	case c.Functor == "set" && len(c.Args) == 1:
		if err := collect(c.Args[0]); err != nil {
			return false, err
		}
		return m.Unify(args[2], term.List(sortUnique(acc)...)), nil
	case c.Functor == "sum" && len(c.Args) == 1:
		if err := collect(c.Args[0]); err != nil {
			return false, err
		}
		var sum Number = term.Integer(0)
		for _, x := range acc {
			n, err := Eval(x)
			if err != nil {
				return false, err
			}
			if sum, err = evalBinary("+", sum, n); err != nil {
				return false, err
			}
		}
		return m.Unify(args[2], sum), nil
	case (c.Functor == "max" || c.Functor == "min") && len(c.Args) == 1:
		if err := collect(c.Args[0]); err != nil {
			return false, err
		}
		if len(acc) == 0 {
			return false, nil
		}
		best, err := Eval(acc[0])
		if err != nil {
			return false, err
		}
		for _, x := range acc[1:] {
			n, err := Eval(x)
			if err != nil {
				return false, err
			}
			if better(c.Functor, n, best) {
				best = n
			}
		}
		return m.Unify(args[2], best), nil
	case (c.Functor == "max" || c.Functor == "min") && len(c.Args) == 2:
		if err := collect(term.Atom("-").Of(c.Args[0], c.Args[1])); err != nil {
			return false, err
		}
		if len(acc) == 0 {
			return false, nil
		}
		var (
			best    Number
			bestWit term.Term
		)
		for i, x := range acc {
			p := x.(*term.Compound)
			n, err := Eval(p.Args[0])
			if err != nil {
				return false, err
			}
			if i == 0 || better(c.Functor, n, best) {
				best, bestWit = n, p.Args[1]
			}
		}
		return m.Unify(args[2], c.Functor.Of(best, bestWit)), nil
	}
	return false, DomainError("aggregate_spec", spec)
}

func better(which term.Atom, n, best Number) bool {
	if which == "max" {
		return 0 < compareNum(n, best)
	}
	return compareNum(n, best) < 0
}

func biPhrase(m *Machine, args []term.Term) (bool, error) {
	g, err := callableArg(args[0])
	if err != nil {
		return false, err
	}
	if err := partialListArg(args[1]); err != nil {
		return false, err
	}
	rest := term.Term(term.Nil{})
	if len(args) == 3 {
		rest = args[2]
	}
	body, err := dcgBody(g, args[1], rest)
	if err != nil {
		return false, err
	}
	m.PushGoal(body)
	return true, nil
}

func biDCGTranslate(m *Machine, args []term.Term) (bool, error) {
	c, err := dcgTranslate(args[0])
	if err != nil {
		return false, err
	}
	return m.Unify(args[1], c), nil
}

func intArg(t term.Term) (int64, error) {
	switch x := term.Resolve(t).(type) {
	case *term.Variable:
		return 0, InstantiationError()
	case term.Integer:
		return int64(x), nil
	}
	return 0, TypeError("integer", t)
}

func atomArg(t term.Term) (term.Atom, error) {
	switch x := term.Resolve(t).(type) {
	case *term.Variable:
		return "", InstantiationError()
	case term.Atom:
		return x, nil
	case term.Nil:
		return "[]", nil
	}
	return "", TypeError("atom", t)
}

func callableArg(t term.Term) (term.Term, error) {
	t = term.Resolve(t)
	switch t.(type) {
	case *term.Variable:
		return nil, InstantiationError()
	case term.Atom, *term.Compound:
		return t, nil
	}
	return nil, TypeError("callable", t)
}

// listArg requires a proper list.
func listArg(t term.Term) ([]term.Term, error) {
	xs, tail := term.Slice(t)
	switch term.Resolve(tail).(type) {
	case term.Nil:
		return xs, nil
	case *term.Variable:
		return nil, InstantiationError()
	}
	return nil, TypeError("list", t)
}

// partialListArg accepts a list or a list with an unbound tail.
func partialListArg(t term.Term) error {
	_, tail := term.Slice(t)
	switch term.Resolve(tail).(type) {
	case term.Nil, *term.Variable:
		return nil
	}
	return TypeError("list", t)
}

// indicatorOf reads Name/Arity.
func indicatorOf(t term.Term) (term.Indicator, bool) {
	c, is := compoundOf(t, "/", 2)
	if !is {
		return term.Indicator{}, false
	}
	name, is := term.Resolve(c.Args[0]).(term.Atom)
	if !is {
		return term.Indicator{}, false
	}
	n, is := term.Resolve(c.Args[1]).(term.Integer)
	if !is || n < 0 {
		return term.Indicator{}, false
	}
	return term.Indicator{Name: name, Arity: int(n)}, true
}

// indicatorArg is indicatorOf with errors.
func indicatorArg(t term.Term) (term.Indicator, error) {
	t = term.Resolve(t)
	if _, is := t.(*term.Variable); is {
		return term.Indicator{}, InstantiationError()
	}
	c, is := compoundOf(t, "/", 2)
	if !is {
		return term.Indicator{}, TypeError("predicate_indicator", t)
	}
	name, err := atomArg(c.Args[0])
	if err != nil {
		return term.Indicator{}, err
	}
	n, err := intArg(c.Args[1])
	if err != nil {
		return term.Indicator{}, err
	}
	if n < 0 {
		return term.Indicator{}, DomainError("not_less_than_zero", c.Args[1])
	}
	return term.Indicator{Name: name, Arity: int(n)}, nil
}
