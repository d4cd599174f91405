package bridge

import (
	"github.com/Comcast/sweep/lisp"
	"github.com/Comcast/sweep/term"
)

// ConversionError occurs when a host value has no term
// representation.
type ConversionError struct {
	Type  lisp.Symbol
	Value lisp.Value
}

func (e *ConversionError) Error() string {
	return "cannot convert " + string(e.Type) + " " + lisp.Print(e.Value) + " to a term"
}

// Signal is the host condition for the error.
func (e *ConversionError) Signal() *lisp.Signal {
	return &lisp.Signal{
		Symbol: "error",
		Data:   lisp.List(lisp.String("Cannot convert to a Prolog term"), e.Value),
	}
}

// ValueToTerm converts a host value to a term.  Only nil, strings,
// integers and conses convert.
func ValueToTerm(env lisp.Env, v lisp.Value) (term.Term, error) {
	if lisp.IsNil(v) {
		return term.EmptyList, nil
	}
	switch typ := env.TypeOf(v); typ {
	case "string":
		buf, n, err := hostText(env, v)
		if err != nil {
			return nil, err
		}
		// n counts the terminator.
		return term.String(buf[:n-1]), nil
	case "integer":
		i, err := env.ExtractInteger(v)
		if err != nil {
			return nil, err
		}
		return term.Integer(i), nil
	case "cons":
		car, _ := lisp.Car(v)
		cdr, _ := lisp.Cdr(v)
		head, err := ValueToTerm(env, car)
		if err != nil {
			return nil, err
		}
		tail, err := ValueToTerm(env, cdr)
		if err != nil {
			return nil, err
		}
		return term.NewPair(head, tail), nil
	default:
		return nil, &ConversionError{Type: typ, Value: v}
	}
}

// PutValue converts v into *slot.  The slot is untouched when the
// conversion fails.
func PutValue(env lisp.Env, v lisp.Value, slot *term.Term) error {
	t, err := ValueToTerm(env, v)
	if err != nil {
		return err
	}
	*slot = t
	return nil
}
