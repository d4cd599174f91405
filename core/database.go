package core

import (
	"sort"

	"github.com/Comcast/sweep/match"
	"github.com/Comcast/sweep/term"
)

// Builtin is a predicate implemented in Go.  It returns false to
// fail and an error (usually an *Exception) to throw.
type Builtin func(m *Machine, args []term.Term) (bool, error)

// Clause is a stored clause.
type Clause struct {
	Head term.Term
	Body term.Term
	Pred *Predicate
	File string
	Line int

	key    indexKey
	erased bool
	ref    *term.Blob
}

// Ref is the clause reference blob.
func (c *Clause) Ref() *term.Blob {
	if c.ref == nil {
		c.ref = term.NewBlob("clause", c)
	}
	return c.ref
}

// Erased reports whether the clause has been retracted.
func (c *Clause) Erased() bool {
	return c.erased
}

// Term is the clause as Head :- Body (or just Head for facts).
func (c *Clause) Term() term.Term {
	if c.Body == term.Atom("true") {
		return c.Head
	}
	return term.Atom(":-").Of(c.Head, c.Body)
}

// rename copies the clause with fresh variables.
func (c *Clause) rename() (term.Term, term.Term) {
	r := make(map[*term.Variable]term.Term)
	return match.Copy(c.Head, r), match.Copy(c.Body, r)
}

// indexKey is the principal functor of a first argument.  The zero
// value matches everything.
type indexKey struct {
	kind  term.Kind
	name  term.Atom
	arity int
	value term.Term
	any   bool
}

func keyOf(args []term.Term) indexKey {
	if len(args) == 0 {
		return indexKey{any: true}
	}
	switch a := term.Resolve(args[0]).(type) {
	case *term.Variable:
		return indexKey{any: true}
	case *term.Compound:
		return indexKey{kind: term.KindCompound, name: a.Functor, arity: len(a.Args)}
	case *term.Pair:
		return indexKey{kind: term.KindListPair}
	case *term.Dict:
		return indexKey{kind: term.KindDict}
	case term.Float:
		if a != a {
			return indexKey{any: true}
		}
		return indexKey{kind: term.KindFloat, value: a}
	default:
		return indexKey{kind: a.Kind(), value: a}
	}
}

func (k indexKey) compatible(o indexKey) bool {
	if k.any || o.any {
		return true
	}
	return k.kind == o.kind && k.name == o.name && k.arity == o.arity && k.value == o.value
}

func argsOf(t term.Term) []term.Term {
	if c, is := term.Resolve(t).(*term.Compound); is {
		return c.Args
	}
	if p, is := term.Resolve(t).(*term.Pair); is {
		return []term.Term{p.Head, p.Tail}
	}
	return nil
}

// Predicate is a procedure.
type Predicate struct {
	term.Indicator
	Module *Module

	Dynamic       bool
	Discontiguous bool
	Persistent    bool

	// Doc is the documentation comment, if any.
	Doc string

	File string
	Line int

	builtin Builtin
	control bool

	// clauses is replaced, never modified, so that running calls
	// keep the view they started with.
	clauses []*Clause
}

// Clauses returns the current clauses.
func (p *Predicate) Clauses() []*Clause {
	return p.clauses
}

// IsBuiltin reports whether the predicate is implemented in Go or is
// a control construct.
func (p *Predicate) IsBuiltin() bool {
	return p.builtin != nil || p.control
}

// Defined reports whether calling the predicate can do more than
// raise an existence error.
func (p *Predicate) Defined() bool {
	return p.IsBuiltin() || p.Dynamic || 0 < len(p.clauses)
}

func (p *Predicate) add(c *Clause, front bool) {
	c.Pred = p
	c.key = keyOf(argsOf(c.Head))
	acc := make([]*Clause, 0, len(p.clauses)+1)
	if front {
		acc = append(acc, c)
		acc = append(acc, p.clauses...)
	} else {
		acc = append(acc, p.clauses...)
		acc = append(acc, c)
	}
	p.clauses = acc
}

func (p *Predicate) erase(c *Clause) bool {
	for i, d := range p.clauses {
		if d == c {
			acc := make([]*Clause, 0, len(p.clauses)-1)
			acc = append(acc, p.clauses[:i]...)
			acc = append(acc, p.clauses[i+1:]...)
			p.clauses = acc
			c.erased = true
			return true
		}
	}
	return false
}

func (p *Predicate) removeAll() {
	for _, c := range p.clauses {
		c.erased = true
	}
	p.clauses = nil
}

// Module is a named collection of predicates.
type Module struct {
	Name term.Atom
	File string

	// Exports lists the predicates named in module/2.
	Exports []term.Indicator

	db      *Database
	preds   map[term.Indicator]*Predicate
	imports map[term.Indicator]*Predicate
}

// Lookup finds a predicate defined in this module only.
func (m *Module) Lookup(pi term.Indicator) (*Predicate, bool) {
	p, have := m.preds[pi]
	return p, have
}

// Ensure finds or makes a predicate in this module.
func (m *Module) Ensure(pi term.Indicator) *Predicate {
	if p, have := m.preds[pi]; have {
		return p
	}
	p := &Predicate{Indicator: pi, Module: m}
	m.preds[pi] = p
	return p
}

// Import makes another module's predicate visible here.
func (m *Module) Import(p *Predicate) {
	if m.imports == nil {
		m.imports = make(map[term.Indicator]*Predicate)
	}
	m.imports[p.Indicator] = p
}

func (m *Module) visible(pi term.Indicator) (*Predicate, bool) {
	if p, have := m.preds[pi]; have && p.Defined() {
		return p, true
	}
	if p, have := m.imports[pi]; have && p.Defined() {
		return p, true
	}
	return nil, false
}

// Predicates returns the module's predicates sorted by indicator.
func (m *Module) Predicates() []*Predicate {
	acc := make([]*Predicate, 0, len(m.preds))
	for _, p := range m.preds {
		acc = append(acc, p)
	}
	sort.Slice(acc, func(i, j int) bool {
		if acc[i].Name != acc[j].Name {
			return acc[i].Name < acc[j].Name
		}
		return acc[i].Arity < acc[j].Arity
	})
	return acc
}

// Database holds the modules.
type Database struct {
	modules map[term.Atom]*Module
}

// NewDatabase makes a database with the system and user modules.
func NewDatabase() *Database {
	db := &Database{modules: make(map[term.Atom]*Module)}
	db.Module("system")
	db.Module("user")
	return db
}

// Module finds or makes a module.
func (db *Database) Module(name term.Atom) *Module {
	if m, have := db.modules[name]; have {
		return m
	}
	m := &Module{Name: name, db: db, preds: make(map[term.Indicator]*Predicate)}
	db.modules[name] = m
	return m
}

// HasModule reports whether the module exists.
func (db *Database) HasModule(name term.Atom) bool {
	_, have := db.modules[name]
	return have
}

// Modules returns the modules sorted by name.
func (db *Database) Modules() []*Module {
	acc := make([]*Module, 0, len(db.modules))
	for _, m := range db.modules {
		acc = append(acc, m)
	}
	sort.Slice(acc, func(i, j int) bool { return acc[i].Name < acc[j].Name })
	return acc
}

// Resolve finds the predicate visible from the module: its own or
// imported, then user's, then system's.
func (db *Database) Resolve(m *Module, pi term.Indicator) (*Predicate, bool) {
	if p, have := m.visible(pi); have {
		return p, true
	}
	for _, name := range []term.Atom{"user", "system"} {
		if name == m.Name {
			continue
		}
		if p, have := db.modules[name].visible(pi); have {
			return p, true
		}
	}
	// A declared but empty predicate in the module itself.
	if p, have := m.preds[pi]; have {
		return p, true
	}
	return nil, false
}

// Lookup finds a predicate by qualified indicator.
func (db *Database) Lookup(module term.Atom, pi term.Indicator) (*Predicate, bool) {
	m, have := db.modules[module]
	if !have {
		return nil, false
	}
	return db.Resolve(m, pi)
}
