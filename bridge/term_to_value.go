package bridge

import (
	"github.com/Comcast/sweep/lisp"
	"github.com/Comcast/sweep/term"
)

// Symbols that TermToValue produces.
const (
	SymAtom          lisp.Symbol = "atom"
	SymCompound      lisp.Symbol = "compound"
	SymVariable      lisp.Symbol = "variable"
	SymFloat         lisp.Symbol = "float"
	SymDict          lisp.Symbol = "dict"
	SymBlob          lisp.Symbol = "blob"
	SymUnconvertable lisp.Symbol = "unconvertable"
	SymException     lisp.Symbol = "exception"
	SymLast          lisp.Symbol = "!"
)

// TermToValue converts a term to a host value.  It never fails: terms
// the host can't represent become a symbol naming their kind, and a
// subterm that contains itself becomes unconvertable where the cycle
// closes.
func TermToValue(env lisp.Env, t term.Term) lisp.Value {
	c := &converter{env: env}
	return c.value(t)
}

type converter struct {
	env lisp.Env

	// path holds the pairs and compounds being converted.
	path map[term.Term]bool
}

// enter reports whether t is not already on the path and adds it.
func (c *converter) enter(t term.Term) bool {
	if c.path == nil {
		c.path = make(map[term.Term]bool)
	}
	if c.path[t] {
		return false
	}
	c.path[t] = true
	return true
}

func (c *converter) value(t term.Term) lisp.Value {
	env := c.env
	t = term.Resolve(t)
	if t == nil {
		return env.Intern(string(SymUnconvertable))
	}
	switch t.Kind() {
	case term.KindVariable:
		return env.Intern(string(SymVariable))
	case term.KindAtom:
		a := t.(term.Atom)
		return lisp.NewCons(env.Intern(string(SymAtom)), env.MakeString([]byte(a)))
	case term.KindString:
		return env.MakeString([]byte(t.(term.String)))
	case term.KindInteger:
		return lisp.Integer(t.(term.Integer))
	case term.KindNil:
		return env.Intern(string(lisp.Nil))
	case term.KindListPair:
		p := t.(*term.Pair)
		if !c.enter(p) {
			return env.Intern(string(SymUnconvertable))
		}
		defer delete(c.path, t)
		return lisp.NewCons(c.value(p.Head), c.value(p.Tail))
	case term.KindCompound:
		if !c.enter(t) {
			return env.Intern(string(SymUnconvertable))
		}
		defer delete(c.path, t)
		return c.compound(t.(*term.Compound))
	case term.KindFloat:
		return env.Intern(string(SymFloat))
	case term.KindDict:
		return env.Intern(string(SymDict))
	case term.KindBlob:
		return env.Intern(string(SymBlob))
	}
	return env.Intern(string(SymUnconvertable))
}

// compound gives (compound "f" A1 ... An).
func (c *converter) compound(t *term.Compound) lisp.Value {
	vals := make([]lisp.Value, len(t.Args)+1)
	vals[0] = c.env.MakeString([]byte(t.Functor))
	for i, arg := range t.Args {
		vals[i+1] = c.value(arg)
	}
	return lisp.NewCons(c.env.Intern(string(SymCompound)), lisp.List(vals...))
}
