package term

import (
	"strings"
)

// Compare orders terms in the standard order:
//
//	Var < Number < Atom < Blob < String < Compound
//
// Numbers compare by value, and a float precedes an equal integer.
// Compounds (lists and dicts included) compare by arity, then name,
// then arguments left to right.  Cyclic terms compare equal where
// their cycles line up.
func Compare(a, b Term) int {
	var vs Visits
	return compare(a, b, &vs)
}

func compare(a, b Term, vs *Visits) int {
	a, b = Resolve(a), Resolve(b)
	if ra, rb := rank(a), rank(b); ra != rb {
		return sign(ra - rb)
	}
	switch ta := a.(type) {
	case *Variable:
		tb := b.(*Variable)
		return cmpInt(ta.id, tb.id)
	case Integer, Float:
		return compareNumbers(a, b)
	case Atom, Nil:
		return strings.Compare(atomText(a), atomText(b))
	case *Blob:
		tb := b.(*Blob)
		if c := strings.Compare(ta.Type, tb.Type); c != 0 {
			return c
		}
		return cmpInt(int64(ta.id), int64(tb.id))
	case String:
		return strings.Compare(string(ta), string(b.(String)))
	}
	if vs.Again(a, b) {
		return 0
	}
	fa, argsa := structure(a)
	fb, argsb := structure(b)
	if len(argsa) != len(argsb) {
		return sign(len(argsa) - len(argsb))
	}
	if c := strings.Compare(string(fa), string(fb)); c != 0 {
		return c
	}
	for i := range argsa {
		if c := compare(argsa[i], argsb[i], vs); c != 0 {
			return c
		}
	}
	return 0
}

func rank(t Term) int {
	switch t.(type) {
	case *Variable:
		return 0
	case Integer, Float:
		return 1
	case Atom, Nil:
		return 2
	case *Blob:
		return 3
	case String:
		return 4
	}
	return 5
}

func atomText(t Term) string {
	if _, is := t.(Nil); is {
		return "[]"
	}
	return string(t.(Atom))
}

// structure views a compound-like term as a functor and arguments.
func structure(t Term) (Atom, []Term) {
	switch tt := t.(type) {
	case *Compound:
		return tt.Functor, tt.Args
	case *Pair:
		return ListFunctor, []Term{tt.Head, tt.Tail}
	case *Dict:
		args := make([]Term, 0, 1+2*len(tt.Pairs))
		args = append(args, tt.Tag)
		for _, p := range tt.Pairs {
			args = append(args, p.Key, p.Value)
		}
		return "dict", args
	}
	panic("term: not structured")
}

func compareNumbers(a, b Term) int {
	switch ta := a.(type) {
	case Integer:
		switch tb := b.(type) {
		case Integer:
			return cmpInt(int64(ta), int64(tb))
		case Float:
			if c := compareFloat(float64(ta), float64(tb)); c != 0 {
				return c
			}
			return 1
		}
	case Float:
		switch tb := b.(type) {
		case Integer:
			if c := compareFloat(float64(ta), float64(tb)); c != 0 {
				return c
			}
			return -1
		case Float:
			return compareFloat(float64(ta), float64(tb))
		}
	}
	return 0
}

func compareFloat(x, y float64) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}

func cmpInt(x, y int64) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}
