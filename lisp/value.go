// Package lisp implements the host side of the bridge: the dynamically
// typed values a Lisp host hands to the logic engine and gets back.
//
// Values are immutable once built.  The empty list and false are the
// symbol nil, as in Emacs Lisp.
package lisp

import (
	"math"
)

// Value is a host value.
//
// The set of implementations is closed: Symbol, String, Integer,
// Float, *Cons and *Vector.
type Value interface {
	value()
}

// Symbol is an interned name.
type Symbol string

// String is host text.
type String string

// Integer is a fixnum.
type Integer int64

// Float is a host floating-point number.  The bridge never accepts
// one, but hosts produce them.
type Float float64

// Cons is a pair.
type Cons struct {
	Car Value
	Cdr Value
}

// Vector is an array of values.
type Vector struct {
	Items []Value
}

func (Symbol) value()  {}
func (String) value()  {}
func (Integer) value() {}
func (Float) value()   {}
func (*Cons) value()   {}
func (*Vector) value() {}

const (
	// Nil is the empty list and the false value.
	Nil Symbol = "nil"

	// T is the canonical true value.
	T Symbol = "t"
)

// Intern returns the symbol with the given name.
func Intern(name string) Symbol {
	return Symbol(name)
}

// IsNil reports whether v is nil.  A Go nil counts as nil too.
func IsNil(v Value) bool {
	if v == nil {
		return true
	}
	s, is := v.(Symbol)
	return is && s == Nil
}

// Bool maps a Go bool to t or nil.
func Bool(b bool) Value {
	if b {
		return T
	}
	return Nil
}

// NewCons makes a pair.
func NewCons(car, cdr Value) *Cons {
	return &Cons{Car: car, Cdr: cdr}
}

// List makes a proper list of the given values.
func List(vs ...Value) Value {
	return ListWithTail(vs, Nil)
}

// ListWithTail makes a list of the given values ending in tail
// instead of nil.
func ListWithTail(vs []Value, tail Value) Value {
	acc := tail
	for i := len(vs) - 1; 0 <= i; i-- {
		acc = &Cons{Car: vs[i], Cdr: acc}
	}
	return acc
}

// ToSlice walks the conses of v and returns their cars along with
// whatever ended the chain (nil for a proper list).
func ToSlice(v Value) ([]Value, Value) {
	acc := make([]Value, 0, 8)
	for {
		c, is := v.(*Cons)
		if !is {
			if v == nil {
				v = Nil
			}
			return acc, v
		}
		acc = append(acc, c.Car)
		v = c.Cdr
	}
}

// Car returns the car of a cons, nil for nil and false otherwise.
func Car(v Value) (Value, bool) {
	if IsNil(v) {
		return Nil, true
	}
	c, is := v.(*Cons)
	if !is {
		return nil, false
	}
	return c.Car, true
}

// Cdr returns the cdr of a cons, nil for nil and false otherwise.
func Cdr(v Value) (Value, bool) {
	if IsNil(v) {
		return Nil, true
	}
	c, is := v.(*Cons)
	if !is {
		return nil, false
	}
	return c.Cdr, true
}

// TypeOf returns the type symbol of v the way Emacs' type-of does.
func TypeOf(v Value) Symbol {
	switch v.(type) {
	case nil, Symbol:
		return "symbol"
	case String:
		return "string"
	case Integer:
		return "integer"
	case Float:
		return "float"
	case *Cons:
		return "cons"
	case *Vector:
		return "vector"
	}
	panic("lisp: unknown value type")
}

// Equal is structural equality (Emacs' equal).
func Equal(a, b Value) bool {
	if a == nil {
		a = Nil
	}
	if b == nil {
		b = Nil
	}
	switch va := a.(type) {
	case Symbol:
		vb, is := b.(Symbol)
		return is && va == vb
	case String:
		vb, is := b.(String)
		return is && va == vb
	case Integer:
		vb, is := b.(Integer)
		return is && va == vb
	case Float:
		vb, is := b.(Float)
		if !is {
			return false
		}
		if math.IsNaN(float64(va)) {
			return math.IsNaN(float64(vb))
		}
		return va == vb
	case *Cons:
		for {
			vb, is := b.(*Cons)
			if !is {
				return false
			}
			if !Equal(va.Car, vb.Car) {
				return false
			}
			next, is := va.Cdr.(*Cons)
			if !is {
				return Equal(va.Cdr, vb.Cdr)
			}
			va, b = next, vb.Cdr
		}
	case *Vector:
		vb, is := b.(*Vector)
		if !is || len(va.Items) != len(vb.Items) {
			return false
		}
		for i := range va.Items {
			if !Equal(va.Items[i], vb.Items[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// Length counts the conses of a proper list.  It returns false for
// an improper list or a non-list.
func Length(v Value) (int, bool) {
	xs, tail := ToSlice(v)
	if !IsNil(tail) {
		return 0, false
	}
	return len(xs), true
}
