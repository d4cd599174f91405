package core

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Comcast/sweep/match"
	"github.com/Comcast/sweep/storage"
	"github.com/Comcast/sweep/syntax"
	"github.com/Comcast/sweep/term"

	"go.uber.org/zap"
)

func (e *Engine) installDatabaseBuiltins() {
	e.def("assert", 1, assertBuiltin(false))
	e.def("assertz", 1, assertBuiltin(false))
	e.def("asserta", 1, assertBuiltin(true))
	e.def("assert", 2, assertBuiltin(false))
	e.def("assertz", 2, assertBuiltin(false))
	e.def("asserta", 2, assertBuiltin(true))
	e.def("retract", 1, biRetract)
	e.def("retractall", 1, biRetractAll)
	e.def("abolish", 1, biAbolish)
	e.def("abolish", 2, func(m *Machine, args []term.Term) (bool, error) {
		return biAbolish(m, []term.Term{term.Atom("/").Of(args[0], args[1])})
	})
	e.def("clause", 2, biClause)
	e.def("clause", 3, biClause)
	e.def("erase", 1, biErase)
	e.def("dynamic", 1, declaration(func(m *Machine, p *Predicate) error {
		if p.IsBuiltin() {
			return PermissionError("modify", "static_procedure", p.Indicator.Term())
		}
		p.Dynamic = true
		return nil
	}))
	e.def("discontiguous", 1, declaration(func(m *Machine, p *Predicate) error {
		p.Discontiguous = true
		return nil
	}))
	e.def("persistent", 1, declaration(func(m *Machine, p *Predicate) error {
		if p.IsBuiltin() {
			return PermissionError("modify", "static_procedure", p.Indicator.Term())
		}
		return m.engine.makePersistent(p)
	}))
	e.def("current_predicate", 1, biCurrentPredicate)
	e.def("predicate_property", 2, biPredicateProperty)
	e.def("op", 3, biOp)
	e.def("current_op", 3, biCurrentOp)
	e.def("consult", 1, biConsult(false))
	e.def("ensure_loaded", 1, biConsult(true))
	e.def("use_module", 1, biConsult(true))
	e.def("use_module", 2, biConsult(true))
	e.def("module", 2, biModule)
	e.def("initialization", 1, biInitialization)
	e.def("initialization", 2, biInitialization)
	e.def("garbage_collect", 0, func(m *Machine, args []term.Term) (bool, error) { return true, nil })
	e.def("statistics", 2, biStatistics)
}

// clauseParts splits a clause term into its target module, head and
// body.
func (m *Machine) clauseParts(t term.Term) (*Module, term.Term, term.Term, error) {
	mod := m.Module()
	if mod.Name == "system" {
		mod = m.engine.User()
	}
	return m.engine.clauseParts(mod, t)
}

func (e *Engine) clauseParts(mod *Module, t term.Term) (*Module, term.Term, term.Term, error) {
	t = term.Resolve(t)
	for {
		c, is := compoundOf(t, ":", 2)
		if !is {
			break
		}
		name, err := atomArg(c.Args[0])
		if err != nil {
			return nil, nil, nil, err
		}
		mod = e.db.Module(name)
		t = term.Resolve(c.Args[1])
	}
	var head, body term.Term = t, term.Atom("true")
	if c, is := compoundOf(t, ":-", 2); is {
		head, body = term.Resolve(c.Args[0]), term.Resolve(c.Args[1])
		if q, is := compoundOf(head, ":", 2); is {
			name, err := atomArg(q.Args[0])
			if err != nil {
				return nil, nil, nil, err
			}
			mod = e.db.Module(name)
			head = term.Resolve(q.Args[1])
		}
	}
	switch head.(type) {
	case *term.Variable:
		return nil, nil, nil, InstantiationError()
	case term.Atom, *term.Compound:
	default:
		return nil, nil, nil, TypeError("callable", head)
	}
	switch body.(type) {
	case *term.Variable:
		body = term.Atom("call").Of(body)
	case term.Atom, *term.Compound:
	default:
		return nil, nil, nil, TypeError("callable", body)
	}
	return mod, head, body, nil
}

func headIndicator(head term.Term) term.Indicator {
	name, arity, _ := term.NameArity(head)
	return term.Indicator{Name: name, Arity: arity}
}

// modifiable finds the predicate that a clause for head in mod goes
// to, refusing builtins and consulted static code.
func (e *Engine) modifiable(mod *Module, pi term.Indicator) (*Predicate, error) {
	if p, found := e.db.Resolve(mod, pi); found && p.IsBuiltin() {
		return nil, PermissionError("modify", "static_procedure", pi.Term())
	}
	p := mod.Ensure(pi)
	if !p.Dynamic && 0 < len(p.clauses) && p.File != "" && e.loadingFile() != p.File {
		return nil, PermissionError("modify", "static_procedure", pi.Term())
	}
	return p, nil
}

func assertBuiltin(front bool) Builtin {
	return func(m *Machine, args []term.Term) (bool, error) {
		mod, head, body, err := m.clauseParts(args[0])
		if err != nil {
			return false, err
		}
		p, err := m.engine.modifiable(mod, headIndicator(head))
		if err != nil {
			return false, err
		}
		if m.engine.loadingFile() == "" {
			p.Dynamic = true
		}
		// Head and body share variables.
		r := make(map[*term.Variable]term.Term)
		c := &Clause{
			Head: match.Copy(head, r),
			Body: match.Copy(body, r),
		}
		p.add(c, front)
		if err := m.engine.persist(p); err != nil {
			return false, err
		}
		if len(args) == 2 {
			return m.Unify(args[1], c.Ref()), nil
		}
		return true, nil
	}
}

// accessible finds the predicate for clause/2 and retract/1.
func (m *Machine) accessible(head term.Term, action string) (*Predicate, bool, error) {
	mod := m.Module()
	if mod.Name == "system" {
		mod = m.engine.User()
	}
	head = term.Resolve(head)
	if c, is := compoundOf(head, ":", 2); is {
		name, err := atomArg(c.Args[0])
		if err != nil {
			return nil, false, err
		}
		mod = m.engine.db.Module(name)
		head = term.Resolve(c.Args[1])
	}
	switch head.(type) {
	case *term.Variable:
		return nil, false, InstantiationError()
	case term.Atom, *term.Compound:
	default:
		return nil, false, TypeError("callable", head)
	}
	pi := headIndicator(head)
	p, found := m.engine.db.Resolve(mod, pi)
	if !found {
		return nil, false, nil
	}
	if p.IsBuiltin() {
		if action == "access" {
			return nil, false, PermissionError("access", "private_procedure", pi.Term())
		}
		return nil, false, PermissionError("modify", "static_procedure", pi.Term())
	}
	return p, true, nil
}

func biRetract(m *Machine, args []term.Term) (bool, error) {
	t := term.Resolve(args[0])
	var head, body term.Term = t, term.Atom("true")
	if c, is := compoundOf(t, ":-", 2); is {
		head, body = c.Args[0], c.Args[1]
	}
	p, found, err := m.accessible(head, "modify")
	if err != nil || !found {
		return false, err
	}
	if q, is := compoundOf(head, ":", 2); is {
		head = q.Args[1]
	}
	clauses := p.Clauses()
	i := 0
	return m.Generate(func() (bool, bool, error) {
		for i < len(clauses) {
			c := clauses[i]
			i++
			if c.erased {
				continue
			}
			h, b := c.rename()
			mark := m.trail.Mark()
			if m.Unify(head, h) && m.Unify(body, b) {
				p.erase(c)
				if err := m.engine.persist(p); err != nil {
					return false, true, err
				}
				return true, len(clauses) <= i, nil
			}
			m.trail.Undo(mark)
		}
		return false, true, nil
	})
}

func biRetractAll(m *Machine, args []term.Term) (bool, error) {
	mod, head, _, err := m.clauseParts(args[0])
	if err != nil {
		return false, err
	}
	pi := headIndicator(head)
	p, found := m.engine.db.Resolve(mod, pi)
	if found && p.IsBuiltin() {
		return false, PermissionError("modify", "static_procedure", pi.Term())
	}
	if !found || p.Module != mod {
		p = mod.Ensure(pi)
		p.Dynamic = true
		return true, nil
	}
	changed := false
	for _, c := range p.Clauses() {
		h, _ := c.rename()
		tr := match.NewTrail()
		if match.Unify(tr, head, h) {
			p.erase(c)
			changed = true
		}
		tr.Undo(0)
	}
	if !p.Dynamic && len(p.clauses) == 0 {
		p.Dynamic = true
	}
	if changed {
		return true, m.engine.persist(p)
	}
	return true, nil
}

func biAbolish(m *Machine, args []term.Term) (bool, error) {
	spec := term.Resolve(args[0])
	mod := m.Module()
	if mod.Name == "system" {
		mod = m.engine.User()
	}
	if c, is := compoundOf(spec, ":", 2); is {
		name, err := atomArg(c.Args[0])
		if err != nil {
			return false, err
		}
		mod = m.engine.db.Module(name)
		spec = c.Args[1]
	}
	pi, err := indicatorArg(spec)
	if err != nil {
		return false, err
	}
	p, found := mod.Lookup(pi)
	if !found {
		if q, found := m.engine.db.Resolve(mod, pi); found && q.IsBuiltin() {
			return false, PermissionError("modify", "static_procedure", pi.Term())
		}
		return true, nil
	}
	if p.IsBuiltin() {
		return false, PermissionError("modify", "static_procedure", pi.Term())
	}
	p.removeAll()
	if p.Persistent {
		err := m.engine.store.WriteClauses(context.Background(), string(mod.Name), []*storage.PredicateState{
			{Name: string(pi.Name), Arity: pi.Arity, Deleted: true},
		})
		if err != nil {
			return false, SystemError(err)
		}
	}
	p.Dynamic, p.Persistent = false, false
	return true, nil
}

func biClause(m *Machine, args []term.Term) (bool, error) {
	if len(args) == 3 && !isUnbound(args[2]) {
		c, err := clauseRef(args[2])
		if err != nil {
			return false, err
		}
		if c.erased {
			return false, nil
		}
		h, b := c.rename()
		head := args[0]
		if q, is := compoundOf(head, ":", 2); is {
			head = q.Args[1]
		}
		return m.Unify(head, h) && m.Unify(args[1], b), nil
	}
	p, found, err := m.accessible(args[0], "access")
	if err != nil || !found {
		return false, err
	}
	switch term.Resolve(args[1]).(type) {
	case *term.Variable, term.Atom, *term.Compound:
	default:
		return false, TypeError("callable", args[1])
	}
	head := args[0]
	if q, is := compoundOf(head, ":", 2); is {
		head = q.Args[1]
	}
	clauses := p.Clauses()
	i := 0
	return m.Generate(func() (bool, bool, error) {
		for i < len(clauses) {
			c := clauses[i]
			i++
			h, b := c.rename()
			mark := m.trail.Mark()
			ok := m.Unify(head, h) && m.Unify(args[1], b)
			if ok && len(args) == 3 {
				ok = m.Unify(args[2], c.Ref())
			}
			if ok {
				return true, len(clauses) <= i, nil
			}
			m.trail.Undo(mark)
		}
		return false, true, nil
	})
}

func clauseRef(t term.Term) (*Clause, error) {
	switch b := term.Resolve(t).(type) {
	case *term.Variable:
		return nil, InstantiationError()
	case *term.Blob:
		if c, is := b.Value.(*Clause); is {
			return c, nil
		}
	}
	return nil, TypeError("db_reference", t)
}

func biErase(m *Machine, args []term.Term) (bool, error) {
	c, err := clauseRef(args[0])
	if err != nil {
		return false, err
	}
	if c.erased || !c.Pred.erase(c) {
		return false, nil
	}
	return true, m.engine.persist(c.Pred)
}

// declaration makes a builtin for dynamic/1 and its kin, which take
// PI, (PI, PI...) or [PI...], possibly module-qualified.
func declaration(f func(m *Machine, p *Predicate) error) Builtin {
	var walk func(m *Machine, mod *Module, t term.Term) error
	walk = func(m *Machine, mod *Module, t term.Term) error {
		t = term.Resolve(t)
		if c, is := compoundOf(t, ",", 2); is {
			if err := walk(m, mod, c.Args[0]); err != nil {
				return err
			}
			return walk(m, mod, c.Args[1])
		}
		if c, is := compoundOf(t, ":", 2); is {
			name, err := atomArg(c.Args[0])
			if err != nil {
				return err
			}
			return walk(m, m.engine.db.Module(name), c.Args[1])
		}
		if _, is := t.(*term.Pair); is {
			xs, err := listArg(t)
			if err != nil {
				return err
			}
			for _, x := range xs {
				if err := walk(m, mod, x); err != nil {
					return err
				}
			}
			return nil
		}
		if _, is := t.(term.Nil); is {
			return nil
		}
		pi, err := indicatorArg(t)
		if err != nil {
			return err
		}
		if q, found := m.engine.db.Resolve(mod, pi); found && q.IsBuiltin() {
			return PermissionError("modify", "static_procedure", pi.Term())
		}
		return f(m, mod.Ensure(pi))
	}
	return func(m *Machine, args []term.Term) (bool, error) {
		mod := m.Module()
		if mod.Name == "system" {
			mod = m.engine.User()
		}
		return true, walk(m, mod, args[0])
	}
}

// makePersistent declares p persistent and loads its stored clauses.
func (e *Engine) makePersistent(p *Predicate) error {
	p.Dynamic = true
	if p.Persistent {
		return nil
	}
	p.Persistent = true
	ctx := context.Background()
	module := string(p.Module.Name)
	if err := e.store.MakeModule(ctx, module); err != nil {
		return SystemError(err)
	}
	pss, err := e.store.GetClauses(ctx, module)
	if err != nil {
		return SystemError(err)
	}
	for _, ps := range pss {
		if ps.Name != string(p.Name) || ps.Arity != p.Arity {
			continue
		}
		for _, src := range ps.Clauses {
			t, _, err := syntax.ParseTerm(src, e.ops)
			if err != nil {
				return SyntaxError(err)
			}
			var head, body term.Term = t, term.Atom("true")
			if c, is := compoundOf(t, ":-", 2); is {
				head, body = c.Args[0], c.Args[1]
			}
			p.add(&Clause{Head: head, Body: body}, false)
		}
		e.logger.Debug("loaded persistent predicate", zap.String("predicate", p.String()), zap.Int("clauses", len(ps.Clauses)))
	}
	return nil
}

// persist writes a persistent predicate's clauses to storage.
func (e *Engine) persist(p *Predicate) error {
	if !p.Persistent {
		return nil
	}
	ps := &storage.PredicateState{
		Name:    string(p.Name),
		Arity:   p.Arity,
		Clauses: make([]string, 0, len(p.clauses)),
	}
	for _, c := range p.clauses {
		ps.Clauses = append(ps.Clauses, syntax.Canonical(c.Term())+".")
	}
	if err := e.store.WriteClauses(context.Background(), string(p.Module.Name), []*storage.PredicateState{ps}); err != nil {
		return SystemError(err)
	}
	return nil
}

func visiblePredicates(m *Machine, mod *Module) []*Predicate {
	acc := mod.Predicates()
	if mod.Name != "user" {
		acc = append(acc, m.engine.User().Predicates()...)
	}
	return acc
}

func biCurrentPredicate(m *Machine, args []term.Term) (bool, error) {
	spec := term.Resolve(args[0])
	mod := m.Module()
	if c, is := compoundOf(spec, ":", 2); is {
		name, err := atomArg(c.Args[0])
		if err != nil {
			return false, err
		}
		mod = m.engine.db.Module(name)
		spec = term.Resolve(c.Args[1])
	}
	switch spec.(type) {
	case *term.Variable:
	case *term.Compound:
		if _, is := compoundOf(spec, "/", 2); !is {
			return false, TypeError("predicate_indicator", spec)
		}
	default:
		return false, TypeError("predicate_indicator", spec)
	}
	var cands []term.Term
	for _, p := range visiblePredicates(m, mod) {
		if p.IsBuiltin() || (len(p.clauses) == 0 && !p.Dynamic) {
			continue
		}
		cands = append(cands, p.Indicator.Term())
	}
	return m.Alternatives(spec, cands)
}

func properties(p *Predicate) []term.Term {
	acc := []term.Term{term.Atom("defined"), term.Atom("visible")}
	if p.IsBuiltin() || p.Module.Name == "system" {
		acc = append(acc, term.Atom("built_in"), term.Atom("system"))
	}
	if p.Dynamic {
		acc = append(acc, term.Atom("dynamic"))
	} else {
		acc = append(acc, term.Atom("static"))
	}
	if p.Persistent {
		acc = append(acc, term.Atom("persistent"))
	}
	if p.Discontiguous {
		acc = append(acc, term.Atom("discontiguous"))
	}
	if !p.IsBuiltin() {
		acc = append(acc, term.Atom("number_of_clauses").Of(term.Integer(len(p.clauses))))
	}
	if p.File != "" {
		acc = append(acc, term.Atom("file").Of(term.Atom(p.File)), term.Atom("line_count").Of(term.Integer(p.Line)))
	}
	return acc
}

func skeleton(pi term.Indicator) term.Term {
	args := make([]term.Term, pi.Arity)
	for i := range args {
		args[i] = term.NewVariable()
	}
	return pi.Name.Of(args...)
}

func biPredicateProperty(m *Machine, args []term.Term) (bool, error) {
	head := term.Resolve(args[0])
	if q, is := compoundOf(head, ":", 2); is {
		head = term.Resolve(q.Args[1])
	}
	var preds []*Predicate
	switch head.(type) {
	case *term.Variable:
		for _, p := range visiblePredicates(m, m.Module()) {
			if p.Defined() {
				preds = append(preds, p)
			}
		}
	case term.Atom, *term.Compound:
		mod := m.Module()
		if p, found := m.engine.db.Resolve(mod, headIndicator(head)); found && p.Defined() {
			preds = append(preds, p)
		}
	default:
		return false, TypeError("callable", head)
	}
	var cands []term.Term
	for _, p := range preds {
		sk := skeleton(p.Indicator)
		for _, prop := range properties(p) {
			cands = append(cands, term.Atom("-").Of(sk, prop))
		}
	}
	return m.Alternatives(term.Atom("-").Of(head, args[1]), cands)
}

func biOp(m *Machine, args []term.Term) (bool, error) {
	prec, err := intArg(args[0])
	if err != nil {
		return false, err
	}
	if prec < 0 || 1200 < prec {
		return false, DomainError("operator_priority", args[0])
	}
	ta, err := atomArg(args[1])
	if err != nil {
		return false, err
	}
	typ, ok := syntax.ParseOpType(string(ta))
	if !ok {
		return false, DomainError("operator_specifier", ta)
	}
	var names []term.Term
	switch x := term.Resolve(args[2]).(type) {
	case *term.Pair:
		if names, err = listArg(x); err != nil {
			return false, err
		}
	default:
		names = []term.Term{x}
	}
	for _, n := range names {
		name, err := atomArg(n)
		if err != nil {
			return false, err
		}
		if err := m.engine.ops.Add(int(prec), typ, string(name)); err != nil {
			return false, PermissionError("create", "operator", name)
		}
	}
	return true, nil
}

func biCurrentOp(m *Machine, args []term.Term) (bool, error) {
	ops := m.engine.ops.All()
	cands := make([]term.Term, len(ops))
	for i, op := range ops {
		cands[i] = term.Atom("op").Of(term.Integer(op.Prec), term.Atom(op.Type.String()), term.Atom(op.Name))
	}
	return m.Alternatives(term.Atom("op").Of(args[0], args[1], args[2]), cands)
}

// sourceName finds a file name from foo, 'foo.pl', "foo" or
// library(foo).  Library references return "".
func sourceName(t term.Term) (string, error) {
	t = term.Resolve(t)
	if _, is := compoundOf(t, "library", 1); is {
		return "", nil
	}
	return textOf(t, false)
}

func biConsult(once bool) Builtin {
	return func(m *Machine, args []term.Term) (bool, error) {
		specs := []term.Term{args[0]}
		if _, is := term.Resolve(args[0]).(*term.Pair); is {
			xs, err := listArg(args[0])
			if err != nil {
				return false, err
			}
			specs = xs
		}
		for _, spec := range specs {
			name, err := sourceName(spec)
			if err != nil {
				return false, err
			}
			if name == "" {
				continue
			}
			path, ok := m.engine.resolveSource(name)
			if !ok {
				return false, ExistenceError("source_sink", spec)
			}
			if once && m.engine.loaded(path) {
				continue
			}
			err = m.engine.Consult(path)
			if h, halted := err.(*HaltError); halted {
				return false, Throw(haltBall(h.Code))
			}
			var le *LoadError
			if err != nil && !errors.As(err, &le) {
				return false, err
			}
		}
		return true, nil
	}
}

func biModule(m *Machine, args []term.Term) (bool, error) {
	name, err := atomArg(args[0])
	if err != nil {
		return false, err
	}
	exports, err := listArg(args[1])
	if err != nil {
		return false, err
	}
	l := m.engine.currentLoad()
	if l == nil {
		return false, PermissionError("execute", "directive", term.Atom("module").Of(name, args[1]))
	}
	mod := m.engine.db.Module(name)
	mod.File = l.file
	mod.Exports = nil
	for _, x := range exports {
		x = term.Resolve(x)
		if c, is := compoundOf(x, "op", 3); is {
			if _, err := biOp(m, c.Args); err != nil {
				return false, err
			}
			continue
		}
		pi, err := indicatorArg(x)
		if err != nil {
			return false, err
		}
		mod.Exports = append(mod.Exports, pi)
	}
	l.module = mod
	return true, nil
}

func biInitialization(m *Machine, args []term.Term) (bool, error) {
	g, err := callableArg(args[0])
	if err != nil {
		return false, err
	}
	main := len(args) == 2 && term.Resolve(args[1]) == term.Atom("main")
	if l := m.engine.currentLoad(); l != nil {
		l.inits = append(l.inits, initGoal{goal: match.Copy(match.Snapshot(g), nil), module: m.Module(), main: main})
		return true, nil
	}
	m.PushGoal(g)
	return true, nil
}

func biStatistics(m *Machine, args []term.Term) (bool, error) {
	key, err := atomArg(args[0])
	if err != nil {
		return false, err
	}
	ms := term.Integer(time.Since(started).Milliseconds())
	var v term.Term
	switch key {
	case "runtime", "process_cputime", "real_time", "walltime":
		v = term.List(ms, term.Integer(0))
	case "cputime":
		v = term.Float(time.Since(started).Seconds())
	case "inferences":
		v = term.Integer(m.engine.inferences)
	default:
		return false, DomainError("statistics_key", key)
	}
	return m.Unify(args[1], v), nil
}

// qualifiedName is used in messages.
func qualifiedName(mod *Module, pi term.Indicator) string {
	if mod == nil || mod.Name == "user" {
		return pi.String()
	}
	return strings.Join([]string{string(mod.Name), pi.String()}, ":")
}
