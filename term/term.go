// Package term defines the logic engine's terms.
//
// A Term is one of *Variable, Atom, String, Integer, Float, Nil,
// *Pair, *Compound, *Dict or *Blob.  Kind reports which, and every
// switch over kinds in this repo is expected to name all of them.
package term

import (
	"fmt"
	"sync/atomic"
)

// Kind is the dynamic type tag of a term.
type Kind int

const (
	KindVariable Kind = iota
	KindAtom
	KindString
	KindInteger
	KindFloat
	KindNil
	KindListPair
	KindCompound
	KindDict
	KindBlob
)

var kindNames = [...]string{
	KindVariable: "variable",
	KindAtom:     "atom",
	KindString:   "string",
	KindInteger:  "integer",
	KindFloat:    "float",
	KindNil:      "nil",
	KindListPair: "list_pair",
	KindCompound: "compound",
	KindDict:     "dict",
	KindBlob:     "blob",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// Term is a logic engine value.
type Term interface {
	Kind() Kind
	term()
}

// Atom is a constant name.
type Atom string

// String is a string object (not a code list).
type String string

// Integer is a 64-bit integer.  Wider integers are not supported.
type Integer int64

// Float is a double.
type Float float64

// Nil is the empty list, which is not the atom '[]'.
type Nil struct{}

// EmptyList is the Nil value.
var EmptyList Term = Nil{}

// Pair is a list cell.
type Pair struct {
	Head Term
	Tail Term
}

// Compound is a functor applied to at least one argument.
type Compound struct {
	Functor Atom
	Args    []Term
}

// Variable is a logic variable.  A bound variable refers to another
// term; Resolve follows those references.
type Variable struct {
	id   int64
	Name string
	ref  Term
}

func (*Variable) Kind() Kind { return KindVariable }
func (Atom) Kind() Kind      { return KindAtom }
func (String) Kind() Kind    { return KindString }
func (Integer) Kind() Kind   { return KindInteger }
func (Float) Kind() Kind     { return KindFloat }
func (Nil) Kind() Kind       { return KindNil }
func (*Pair) Kind() Kind     { return KindListPair }
func (*Compound) Kind() Kind { return KindCompound }
func (*Dict) Kind() Kind     { return KindDict }
func (*Blob) Kind() Kind     { return KindBlob }

func (*Variable) term() {}
func (Atom) term()      {}
func (String) term()    {}
func (Integer) term()   {}
func (Float) term()     {}
func (Nil) term()       {}
func (*Pair) term()     {}
func (*Compound) term() {}
func (*Dict) term()     {}
func (*Blob) term()     {}

var varCounter int64

// NewVariable makes a fresh unbound variable.
func NewVariable() *Variable {
	return &Variable{id: atomic.AddInt64(&varCounter, 1)}
}

// VariableCount is the id of the most recently made variable.
func VariableCount() int64 {
	return atomic.LoadInt64(&varCounter)
}

// NewNamedVariable makes a fresh variable that remembers its source
// name.
func NewNamedVariable(name string) *Variable {
	v := NewVariable()
	v.Name = name
	return v
}

// Id is a unique number for the variable.
func (v *Variable) Id() int64 {
	return v.id
}

// Ref returns what the variable is bound to or nil.
func (v *Variable) Ref() Term {
	return v.ref
}

// Bound reports whether the variable has a binding.
func (v *Variable) Bound() bool {
	return v.ref != nil
}

// SetRef binds (or with nil, unbinds) the variable without
// trailing.  Use a match.Trail inside a computation that can
// backtrack.
func (v *Variable) SetRef(t Term) {
	v.ref = t
}

// Resolve follows variable bindings.
func Resolve(t Term) Term {
	for {
		v, is := t.(*Variable)
		if !is || v.ref == nil {
			return t
		}
		t = v.ref
	}
}

// NewCompound makes f(args...).  With no args it returns the atom f.
func NewCompound(f Atom, args ...Term) Term {
	if len(args) == 0 {
		return f
	}
	return &Compound{Functor: f, Args: args}
}

// Of is NewCompound as a method: Atom("f").Of(x, y).
func (a Atom) Of(args ...Term) Term {
	return NewCompound(a, args...)
}

// Arity is the number of arguments.
func (c *Compound) Arity() int {
	return len(c.Args)
}

// NewPair makes a list cell.
func NewPair(head, tail Term) *Pair {
	return &Pair{Head: head, Tail: tail}
}

// List makes a proper list.
func List(ts ...Term) Term {
	return ListWithTail(ts, EmptyList)
}

// ListWithTail makes a list of ts ending in tail.
func ListWithTail(ts []Term, tail Term) Term {
	acc := tail
	for i := len(ts) - 1; 0 <= i; i-- {
		acc = &Pair{Head: ts[i], Tail: acc}
	}
	return acc
}

// Slice walks a list and returns its elements and its resolved tail,
// which is Nil for a proper list.
func Slice(t Term) ([]Term, Term) {
	acc := make([]Term, 0, 8)
	for {
		t = Resolve(t)
		p, is := t.(*Pair)
		if !is {
			return acc, t
		}
		acc = append(acc, p.Head)
		t = p.Tail
	}
}

// ProperList returns the elements of a proper list.
func ProperList(t Term) ([]Term, bool) {
	xs, tail := Slice(t)
	if _, is := tail.(Nil); !is {
		return nil, false
	}
	return xs, true
}

// IsCallable reports whether t is an atom or compound.
func IsCallable(t Term) bool {
	switch Resolve(t).(type) {
	case Atom, *Compound:
		return true
	}
	return false
}

// IsAtomic reports whether t is neither a variable nor structured.
func IsAtomic(t Term) bool {
	switch Resolve(t).(type) {
	case Atom, String, Integer, Float, Nil, *Blob:
		return true
	}
	return false
}

// Name and arity of a callable term.
func NameArity(t Term) (Atom, int, bool) {
	switch tt := Resolve(t).(type) {
	case Atom:
		return tt, 0, true
	case *Compound:
		return tt.Functor, len(tt.Args), true
	case *Pair:
		return ListFunctor, 2, true
	case Nil:
		return "[]", 0, true
	}
	return "", 0, false
}

// ListFunctor is the name of the list cell functor.
const ListFunctor Atom = "[|]"

// Indicator is a predicate indicator Name/Arity.
type Indicator struct {
	Name  Atom
	Arity int
}

func (pi Indicator) String() string {
	return fmt.Sprintf("%s/%d", pi.Name, pi.Arity)
}

// Term renders the indicator as the term Name/Arity.
func (pi Indicator) Term() Term {
	return &Compound{Functor: "/", Args: []Term{pi.Name, Integer(pi.Arity)}}
}
