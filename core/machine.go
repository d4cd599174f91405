package core

import (
	"sync/atomic"

	"github.com/Comcast/sweep/match"
	"github.com/Comcast/sweep/term"
)

type frameKind int

const (
	fGoal frameKind = iota
	fCutTo
	fSoftCut
	fPopCatch
	fCleanupExit
	fFunc
)

// frame is one link of a continuation: what to do next.
type frame struct {
	kind   frameKind
	goal   term.Term
	module *Module

	// cutB is the choicepoint height that '!' in goal cuts back
	// to.  For fCutTo it is the height to cut to.
	cutB int

	cp   *choicepoint
	fn   func(m *Machine) (bool, error)
	next *frame
}

type cpKind int

const (
	cpClauses cpKind = iota
	cpAlt
	cpRedo
	cpCatch
	cpCleanup
	cpBarrier
)

type choicepoint struct {
	kind  cpKind
	trail int
	floor int64
	cont  *frame

	// cpClauses
	goal    term.Term
	key     indexKey
	pred    *Predicate
	clauses []*Clause
	idx     int

	// cpAlt
	alt *frame

	// cpRedo
	redo func() (ok, last bool, err error)

	// cpCatch and cpCleanup
	module   *Module
	catcher  term.Term
	recovery term.Term
	active   bool
	cleanup  term.Term
	done     bool
}

// Machine runs goals.  A Query owns one; findall/3 and friends run
// nested machines.
type Machine struct {
	engine *Engine
	trail  *match.Trail
	cps    []*choicepoint
	cont   *frame
	floor0 int64

	// module is the context module of the builtin being called.
	module *Module
}

func (e *Engine) newMachine() *Machine {
	m := &Machine{
		engine: e,
		trail:  match.NewTrail(),
		floor0: term.VariableCount(),
	}
	m.trail.Floor = m.floor0
	return m
}

// Engine is the machine's engine.
func (m *Machine) Engine() *Engine {
	return m.engine
}

// Module is the context module of the current builtin call.
func (m *Machine) Module() *Module {
	if m.module == nil {
		return m.engine.User()
	}
	return m.module
}

// Unify unifies and trails.
func (m *Machine) Unify(x, y term.Term) bool {
	if m.engine.occursCheck() {
		return (&match.Matcher{OccursCheck: true}).Unify(m.trail, x, y)
	}
	return match.Unify(m.trail, x, y)
}

// OnBacktrack registers an action to run when execution backtracks
// past this point.
func (m *Machine) OnBacktrack(f func()) {
	m.trail.Push(f)
}

func (m *Machine) push(cp *choicepoint) {
	cp.trail = m.trail.Mark()
	cp.floor = term.VariableCount()
	m.cps = append(m.cps, cp)
	m.trail.Floor = cp.floor
}

func (m *Machine) top() *choicepoint {
	if n := len(m.cps); 0 < n {
		return m.cps[n-1]
	}
	return nil
}

func (m *Machine) pop() *choicepoint {
	n := len(m.cps)
	cp := m.cps[n-1]
	m.cps[n-1] = nil
	m.cps = m.cps[:n-1]
	m.setFloor()
	return cp
}

func (m *Machine) setFloor() {
	if cp := m.top(); cp != nil {
		m.trail.Floor = cp.floor
	} else {
		m.trail.Floor = m.floor0
	}
}

// cutTo removes choicepoints above height h, running any cleanup
// handlers they guard.
func (m *Machine) cutTo(h int) error {
	var first error
	for h < len(m.cps) {
		cp := m.pop()
		if cp.kind == cpCleanup {
			if err := m.runCleanup(cp, term.Atom("!")); err != nil && first == nil {
				first = err
			}
		}
	}
	return first
}

// Generate offers alternative solutions.  next is called now and
// again on each backtrack until it reports last.  Each call that
// reports ok is a solution.
func (m *Machine) Generate(next func() (ok, last bool, err error)) (bool, error) {
	cp := &choicepoint{kind: cpRedo, redo: next, cont: m.cont}
	m.push(cp)
	for {
		ok, last, err := next()
		if err != nil {
			m.removeCP(cp)
			return false, err
		}
		if last {
			m.removeCP(cp)
		}
		if ok {
			return true, nil
		}
		if last {
			return false, nil
		}
		m.trail.Undo(cp.trail)
	}
}

// removeCP drops cp if it is on top.
func (m *Machine) removeCP(cp *choicepoint) {
	if m.top() == cp {
		m.pop()
	}
}

// Alternatives unifies t with each candidate in turn.
func (m *Machine) Alternatives(t term.Term, cands []term.Term) (bool, error) {
	i := 0
	return m.Generate(func() (bool, bool, error) {
		if len(cands) <= i {
			return false, true, nil
		}
		c := cands[i]
		i++
		return m.Unify(t, c), len(cands) <= i, nil
	})
}

// solve runs until a solution, a failure or an uncaught exception.
// With redo, it first backtracks into the previous solution.
func (m *Machine) solve(redo bool) (bool, error) {
	ok, err := !redo, error(nil)
	for {
		for !ok || err != nil {
			if err != nil {
				if err = m.handle(err); err != nil {
					return false, err
				}
				ok = true
				break
			}
			ok, err = m.backtrack()
			if !ok && err == nil {
				return false, nil
			}
		}
		if m.cont == nil {
			return true, nil
		}
		if atomic.LoadInt32(&m.engine.interrupted) != 0 {
			ok, err = false, Throw(term.Atom("$aborted"))
			continue
		}
		fr := m.cont
		m.cont = fr.next
		ok, err = m.step(fr)
	}
}

// backtrack resumes the most recent choicepoint that has
// alternatives left.
func (m *Machine) backtrack() (bool, error) {
	for 0 < len(m.cps) {
		cp := m.top()
		m.trail.Undo(cp.trail)
		switch cp.kind {
		case cpClauses:
			ok, err := m.resumeClauses(cp)
			if ok || err != nil {
				return ok, err
			}
		case cpAlt:
			m.pop()
			m.cont = cp.alt
			return true, nil
		case cpRedo:
			m.cont = cp.cont
			for {
				ok, last, err := cp.redo()
				if err != nil {
					m.removeCP(cp)
					return false, err
				}
				if last {
					m.removeCP(cp)
				}
				if ok {
					return true, nil
				}
				if last {
					break
				}
				m.trail.Undo(cp.trail)
			}
		case cpCleanup:
			m.pop()
			if err := m.runCleanup(cp, term.Atom("fail")); err != nil {
				return false, err
			}
		default:
			m.pop()
		}
	}
	return false, nil
}

// handle unwinds to a catch/3 whose catcher unifies with the ball.
// It returns nil when one did, and the exception otherwise.
func (m *Machine) handle(err error) error {
	ex := asException(err)
	ball := match.Copy(match.Snapshot(ex.Term), nil)
	_, halting := isHalt(ball)
	aborting := ball == term.Atom("$aborted")

	for 0 < len(m.cps) {
		cp := m.top()
		switch cp.kind {
		case cpCatch:
			m.trail.Undo(cp.trail)
			m.pop()
			if !cp.active || halting || aborting {
				continue
			}
			mark := m.trail.Mark()
			if m.Unify(cp.catcher, ball) {
				m.cont = &frame{goal: cp.recovery, module: cp.module, cutB: len(m.cps), next: cp.cont}
				return nil
			}
			m.trail.Undo(mark)
		case cpCleanup:
			m.trail.Undo(cp.trail)
			m.pop()
			if err := m.runCleanup(cp, term.Atom("exception").Of(ball)); err != nil {
				m.engine.logger.Warn("exception in cleanup handler during unwinding")
			}
		default:
			m.pop()
		}
	}
	return &Exception{Term: ball}
}

func (m *Machine) step(fr *frame) (bool, error) {
	switch fr.kind {
	case fCutTo:
		return true, m.cutTo(fr.cutB)
	case fSoftCut:
		fr.cp.kind = cpBarrier
		return true, nil
	case fPopCatch:
		cp := fr.cp
		if m.top() == cp {
			m.pop()
		} else {
			cp.active = false
			m.trail.Push(func() { cp.active = true })
		}
		return true, nil
	case fCleanupExit:
		cp := fr.cp
		if m.top() == cp {
			m.pop()
			if err := m.runCleanup(cp, term.Atom("exit")); err != nil {
				return false, err
			}
		}
		return true, nil
	case fFunc:
		return fr.fn(m)
	}
	return m.call(fr)
}

func compoundOf(t term.Term, name term.Atom, arity int) (*term.Compound, bool) {
	c, is := term.Resolve(t).(*term.Compound)
	if !is || c.Functor != name || len(c.Args) != arity {
		return nil, false
	}
	return c, true
}

// call runs a goal frame: control constructs here, everything else
// through the database.
func (m *Machine) call(fr *frame) (bool, error) {
	var (
		goal   = term.Resolve(fr.goal)
		module = fr.module
		next   = m.cont
		name   term.Atom
		args   []term.Term
	)
	if module == nil {
		module = m.engine.User()
	}
	switch g := goal.(type) {
	case *term.Variable:
		return false, InstantiationError()
	case term.Atom:
		name = g
	case *term.Compound:
		name, args = g.Functor, g.Args
	default:
		return false, TypeError("callable", goal)
	}

	switch len(args) {
	case 0:
		switch name {
		case "true":
			return true, nil
		case "fail", "false":
			return false, nil
		case "!":
			return true, m.cutTo(fr.cutB)
		}
	case 1:
		switch name {
		case `\+`, "not":
			h := len(m.cps)
			m.push(&choicepoint{kind: cpAlt, alt: next})
			m.cont = &frame{goal: args[0], module: module, cutB: h + 1,
				next: &frame{kind: fCutTo, cutB: h,
					next: &frame{goal: term.Atom("fail")}}}
			return true, nil
		case "call":
			m.cont = &frame{goal: args[0], module: module, cutB: len(m.cps), next: next}
			return true, nil
		case "once":
			h := len(m.cps)
			m.cont = &frame{goal: args[0], module: module, cutB: h,
				next: &frame{kind: fCutTo, cutB: h, next: next}}
			return true, nil
		case "ignore":
			h := len(m.cps)
			m.push(&choicepoint{kind: cpAlt, alt: next})
			m.cont = &frame{goal: args[0], module: module, cutB: h + 1,
				next: &frame{kind: fCutTo, cutB: h, next: next}}
			return true, nil
		}
	case 2:
		switch name {
		case ",":
			m.cont = &frame{goal: args[0], module: module, cutB: fr.cutB,
				next: &frame{goal: args[1], module: module, cutB: fr.cutB, next: next}}
			return true, nil
		case ";":
			if c, is := compoundOf(args[0], "->", 2); is {
				h := len(m.cps)
				m.push(&choicepoint{kind: cpAlt, alt: &frame{goal: args[1], module: module, cutB: fr.cutB, next: next}})
				m.cont = &frame{goal: c.Args[0], module: module, cutB: h + 1,
					next: &frame{kind: fCutTo, cutB: h,
						next: &frame{goal: c.Args[1], module: module, cutB: fr.cutB, next: next}}}
				return true, nil
			}
			if c, is := compoundOf(args[0], "*->", 2); is {
				h := len(m.cps)
				cp := &choicepoint{kind: cpAlt, alt: &frame{goal: args[1], module: module, cutB: fr.cutB, next: next}}
				m.push(cp)
				m.cont = &frame{goal: c.Args[0], module: module, cutB: h + 1,
					next: &frame{kind: fSoftCut, cp: cp,
						next: &frame{goal: c.Args[1], module: module, cutB: fr.cutB, next: next}}}
				return true, nil
			}
			m.push(&choicepoint{kind: cpAlt, alt: &frame{goal: args[1], module: module, cutB: fr.cutB, next: next}})
			m.cont = &frame{goal: args[0], module: module, cutB: fr.cutB, next: next}
			return true, nil
		case "->":
			h := len(m.cps)
			m.cont = &frame{goal: args[0], module: module, cutB: h,
				next: &frame{kind: fCutTo, cutB: h,
					next: &frame{goal: args[1], module: module, cutB: fr.cutB, next: next}}}
			return true, nil
		case "*->":
			m.cont = &frame{goal: args[0], module: module, cutB: len(m.cps),
				next: &frame{goal: args[1], module: module, cutB: fr.cutB, next: next}}
			return true, nil
		case ":":
			mod, is := term.Resolve(args[0]).(term.Atom)
			if !is {
				if _, is := term.Resolve(args[0]).(*term.Variable); is {
					return false, InstantiationError()
				}
				return false, TypeError("module", args[0])
			}
			m.cont = &frame{goal: args[1], module: m.engine.db.Module(mod), cutB: fr.cutB, next: next}
			return true, nil
		}
	case 3:
		if name == "catch" {
			cp := &choicepoint{kind: cpCatch, catcher: args[1], recovery: args[2], module: module, cont: next, active: true}
			m.push(cp)
			m.cont = &frame{goal: args[0], module: module, cutB: len(m.cps),
				next: &frame{kind: fPopCatch, cp: cp, next: next}}
			return true, nil
		}
		if name == "setup_call_cleanup" {
			return m.setupCallCleanup(args[0], args[1], term.NewVariable(), args[2], module, next)
		}
	case 4:
		if name == "setup_call_catcher_cleanup" {
			return m.setupCallCleanup(args[0], args[1], args[2], args[3], module, next)
		}
	}

	if name == "call" && 1 < len(args) {
		g, mod, err := addArgs(args[0], args[1:])
		if err != nil {
			return false, err
		}
		if mod != nil {
			module = m.engine.db.Module(*mod)
		}
		m.cont = &frame{goal: g, module: module, cutB: len(m.cps), next: next}
		return true, nil
	}
	if name == "call_cleanup" && len(args) == 2 {
		return m.setupCallCleanup(term.Atom("true"), args[0], term.NewVariable(), args[1], module, next)
	}

	if err := m.engine.countInference(); err != nil {
		return false, err
	}

	pi := term.Indicator{Name: name, Arity: len(args)}
	p, found := m.engine.db.Resolve(module, pi)
	if !found || !p.Defined() {
		return m.unknown(module, pi)
	}
	if p.builtin != nil {
		m.module = module
		return p.builtin(m, args)
	}
	return m.callClauses(goal, args, p, next)
}

func (m *Machine) unknown(module *Module, pi term.Indicator) (bool, error) {
	if p, have := module.Lookup(pi); have && p.Dynamic {
		return false, nil
	}
	switch m.engine.Flag("unknown") {
	case term.Atom("fail"):
		return false, nil
	case term.Atom("warning"):
		m.engine.logger.Warn("unknown procedure " + pi.String())
		return false, nil
	}
	culprit := pi.Term()
	if module.Name != "user" {
		culprit = term.Atom(":").Of(module.Name, culprit)
	}
	return false, ExistenceError("procedure", culprit)
}

// addArgs appends extra arguments to a callable, looking through
// module qualification.
func addArgs(g term.Term, extra []term.Term) (term.Term, *term.Atom, error) {
	var mod *term.Atom
	g = term.Resolve(g)
	for {
		c, is := compoundOf(g, ":", 2)
		if !is {
			break
		}
		a, is := term.Resolve(c.Args[0]).(term.Atom)
		if !is {
			return nil, nil, TypeError("module", c.Args[0])
		}
		mod = &a
		g = term.Resolve(c.Args[1])
	}
	switch gg := g.(type) {
	case *term.Variable:
		return nil, nil, InstantiationError()
	case term.Atom:
		return &term.Compound{Functor: gg, Args: extra}, mod, nil
	case *term.Compound:
		args := make([]term.Term, 0, len(gg.Args)+len(extra))
		args = append(args, gg.Args...)
		args = append(args, extra...)
		return &term.Compound{Functor: gg.Functor, Args: args}, mod, nil
	}
	return nil, nil, TypeError("callable", g)
}

func (m *Machine) setupCallCleanup(setup, goal, catcher, cleanup term.Term, module *Module, next *frame) (bool, error) {
	h := len(m.cps)
	m.cont = &frame{goal: setup, module: module, cutB: h,
		next: &frame{kind: fCutTo, cutB: h,
			next: &frame{kind: fFunc, next: next, fn: func(m *Machine) (bool, error) {
				cp := &choicepoint{kind: cpCleanup, catcher: catcher, cleanup: cleanup, module: module, cont: next}
				m.push(cp)
				m.cont = &frame{goal: goal, module: module, cutB: len(m.cps),
					next: &frame{kind: fCleanupExit, cp: cp, next: next}}
				return true, nil
			}}}}
	return true, nil
}

// runCleanup runs a cleanup handler once, if its catcher matches the
// reason.  The handler's bindings are discarded.
func (m *Machine) runCleanup(cp *choicepoint, reason term.Term) error {
	if cp.done {
		return nil
	}
	cp.done = true
	g := term.Atom(";").Of(
		term.Atom("->").Of(term.Atom("=").Of(cp.catcher, reason), cp.cleanup),
		term.Atom("true"))
	_, err := m.SolveOnce(g, cp.module, false)
	return err
}

func (m *Machine) nextMatch(cp *choicepoint, from int) int {
	for i := from; i < len(cp.clauses); i++ {
		if cp.key.compatible(cp.clauses[i].key) {
			return i
		}
	}
	return -1
}

func (m *Machine) callClauses(goal term.Term, args []term.Term, p *Predicate, next *frame) (bool, error) {
	cp := &choicepoint{kind: cpClauses, goal: goal, key: keyOf(args), pred: p, clauses: p.clauses, cont: next}
	cp.idx = m.nextMatch(cp, 0)
	if cp.idx < 0 {
		return false, nil
	}
	m.push(cp)
	return m.resumeClauses(cp)
}

// resumeClauses tries the remaining clauses of the choicepoint on
// top of the stack.  The choicepoint is dropped as soon as no further
// clause could match, so a call to a deterministic predicate leaves
// nothing behind.
func (m *Machine) resumeClauses(cp *choicepoint) (bool, error) {
	h := len(m.cps) - 1
	for {
		c := cp.clauses[cp.idx]
		j := m.nextMatch(cp, cp.idx+1)
		if j < 0 {
			m.pop()
		} else {
			cp.idx = j
		}
		head, body := c.rename()
		if match.Unify(m.trail, head, cp.goal) {
			m.cont = &frame{goal: body, module: cp.pred.Module, cutB: h, next: cp.cont}
			return true, nil
		}
		m.trail.Undo(cp.trail)
		if j < 0 {
			return false, nil
		}
	}
}

// SolveOnce runs goal in a nested machine and stops at the first
// solution.  With keep, the solution's bindings stay (and are undone
// when this machine backtracks); otherwise they are undone.
func (m *Machine) SolveOnce(goal term.Term, module *Module, keep bool) (bool, error) {
	sub := m.engine.newMachine()
	sub.cont = &frame{goal: goal, module: module}
	ok, err := sub.solve(false)
	if err != nil {
		sub.trail.Undo(0)
		return false, err
	}
	cerr := sub.cutTo(0)
	if keep && ok {
		m.trail.Adopt(sub.trail)
	} else {
		sub.trail.Undo(0)
	}
	return ok, cerr
}

// SolveAll runs goal in a nested machine, calling each for every
// solution while it returns true.  All bindings are undone.
func (m *Machine) SolveAll(goal term.Term, module *Module, each func() (bool, error)) error {
	sub := m.engine.newMachine()
	sub.cont = &frame{goal: goal, module: module}
	defer sub.trail.Undo(0)
	redo := false
	for {
		ok, err := sub.solve(redo)
		if err != nil || !ok {
			return err
		}
		more, err := each()
		if err != nil || !more {
			if cerr := sub.cutTo(0); err == nil {
				err = cerr
			}
			return err
		}
		redo = true
	}
}
