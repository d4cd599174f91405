package elisp

import (
	"strings"

	"github.com/Comcast/sweep/lisp"
)

type primitive func(ev *evaluator, args []lisp.Value) (lisp.Value, error)

var primitives map[lisp.Symbol]primitive

func init() {
	primitives = map[lisp.Symbol]primitive{
		"car":             pCar,
		"cdr":             pCdr,
		"cons":            fixed("cons", 2, func(xs []lisp.Value) (lisp.Value, error) { return lisp.NewCons(xs[0], xs[1]), nil }),
		"list":            func(_ *evaluator, xs []lisp.Value) (lisp.Value, error) { return lisp.List(xs...), nil },
		"eq":              fixed("eq", 2, func(xs []lisp.Value) (lisp.Value, error) { return lisp.Bool(eq(xs[0], xs[1])), nil }),
		"equal":           fixed("equal", 2, func(xs []lisp.Value) (lisp.Value, error) { return lisp.Bool(lisp.Equal(xs[0], xs[1])), nil }),
		"null":            fixed("null", 1, func(xs []lisp.Value) (lisp.Value, error) { return lisp.Bool(lisp.IsNil(xs[0])), nil }),
		"not":             fixed("not", 1, func(xs []lisp.Value) (lisp.Value, error) { return lisp.Bool(lisp.IsNil(xs[0])), nil }),
		"consp":           typep("consp", "cons"),
		"stringp":         typep("stringp", "string"),
		"integerp":        typep("integerp", "integer"),
		"floatp":          typep("floatp", "float"),
		"symbolp":         typep("symbolp", "symbol"),
		"vectorp":         typep("vectorp", "vector"),
		"type-of":         fixed("type-of", 1, func(xs []lisp.Value) (lisp.Value, error) { return lisp.TypeOf(xs[0]), nil }),
		"length":          fixed("length", 1, pLength),
		"nreverse":        fixed("nreverse", 1, pReverse),
		"reverse":         fixed("reverse", 1, pReverse),
		"prin1-to-string": fixed("prin1-to-string", 1, func(xs []lisp.Value) (lisp.Value, error) { return lisp.String(lisp.Print(xs[0])), nil }),
		"format":          pFormat,
		"message":         pMessage,
		"signal":          fixed("signal", 2, pSignal),
		"error":           pError,
		"+":               arith("+", 0, func(a, b int64) int64 { return a + b }),
		"*":               arith("*", 1, func(a, b int64) int64 { return a * b }),
		"-":               pMinus,
		"=":               compare("=", func(a, b int64) bool { return a == b }),
		"<":               compare("<", func(a, b int64) bool { return a < b }),
		">":               compare(">", func(a, b int64) bool { return a > b }),
		"1+":              fixed("1+", 1, func(xs []lisp.Value) (lisp.Value, error) { n, err := integer(xs[0]); return n + 1, err }),
	}
}

func fixed(name string, n int, f func(xs []lisp.Value) (lisp.Value, error)) primitive {
	return func(_ *evaluator, xs []lisp.Value) (lisp.Value, error) {
		if len(xs) != n {
			return nil, wrongArgs(name, len(xs))
		}
		return f(xs)
	}
}

func typep(name string, typ lisp.Symbol) primitive {
	return fixed(name, 1, func(xs []lisp.Value) (lisp.Value, error) {
		return lisp.Bool(lisp.TypeOf(xs[0]) == typ), nil
	})
}

// eq is identity for conses and vectors and value equality for
// everything else.
func eq(a, b lisp.Value) bool {
	switch a.(type) {
	case *lisp.Cons, *lisp.Vector:
		return a == b
	case lisp.String:
		return false
	}
	if lisp.IsNil(a) {
		return lisp.IsNil(b)
	}
	return a == b
}

func pCar(_ *evaluator, xs []lisp.Value) (lisp.Value, error) {
	if len(xs) != 1 {
		return nil, wrongArgs("car", len(xs))
	}
	v, ok := lisp.Car(xs[0])
	if !ok {
		return nil, (&lisp.WrongType{Predicate: "listp", Value: xs[0]}).Signal()
	}
	return v, nil
}

func pCdr(_ *evaluator, xs []lisp.Value) (lisp.Value, error) {
	if len(xs) != 1 {
		return nil, wrongArgs("cdr", len(xs))
	}
	v, ok := lisp.Cdr(xs[0])
	if !ok {
		return nil, (&lisp.WrongType{Predicate: "listp", Value: xs[0]}).Signal()
	}
	return v, nil
}

func pLength(xs []lisp.Value) (lisp.Value, error) {
	switch v := xs[0].(type) {
	case lisp.String:
		return lisp.Integer(len([]rune(string(v)))), nil
	case *lisp.Vector:
		return lisp.Integer(len(v.Items)), nil
	}
	n, ok := lisp.Length(xs[0])
	if !ok {
		return nil, (&lisp.WrongType{Predicate: "sequencep", Value: xs[0]}).Signal()
	}
	return lisp.Integer(n), nil
}

func pReverse(xs []lisp.Value) (lisp.Value, error) {
	elems, tail := lisp.ToSlice(xs[0])
	if !lisp.IsNil(tail) {
		return nil, (&lisp.WrongType{Predicate: "listp", Value: xs[0]}).Signal()
	}
	var acc lisp.Value = lisp.Nil
	for _, x := range elems {
		acc = lisp.NewCons(x, acc)
	}
	return acc, nil
}

// format handles %s, %S, %d and %%.
func format(xs []lisp.Value) (string, error) {
	if len(xs) == 0 {
		return "", wrongArgs("format", 0)
	}
	f, is := xs[0].(lisp.String)
	if !is {
		return "", (&lisp.WrongType{Predicate: "stringp", Value: xs[0]}).Signal()
	}
	args := xs[1:]
	var b strings.Builder
	rs := []rune(string(f))
	for i := 0; i < len(rs); i++ {
		if rs[i] != '%' || i+1 == len(rs) {
			b.WriteRune(rs[i])
			continue
		}
		i++
		c := rs[i]
		if c == '%' {
			b.WriteByte('%')
			continue
		}
		if len(args) == 0 {
			return "", lisp.Errorf("Not enough arguments for format string")
		}
		arg := args[0]
		args = args[1:]
		switch c {
		case 's':
			b.WriteString(lisp.Princ(arg))
		case 'S':
			b.WriteString(lisp.Print(arg))
		case 'd':
			n, err := integer(arg)
			if err != nil {
				return "", err
			}
			b.WriteString(lisp.Print(n))
		default:
			return "", lisp.Errorf("Invalid format operation %%%c", c)
		}
	}
	return b.String(), nil
}

func pFormat(_ *evaluator, xs []lisp.Value) (lisp.Value, error) {
	s, err := format(xs)
	if err != nil {
		return nil, err
	}
	return lisp.String(s), nil
}

// pMessage records the formatted message with the execution.
func pMessage(ev *evaluator, xs []lisp.Value) (lisp.Value, error) {
	s, err := format(xs)
	if err != nil {
		return nil, err
	}
	ev.exe.AddMessage(s)
	return lisp.String(s), nil
}

func pSignal(xs []lisp.Value) (lisp.Value, error) {
	sym, is := xs[0].(lisp.Symbol)
	if !is {
		return nil, (&lisp.WrongType{Predicate: "symbolp", Value: xs[0]}).Signal()
	}
	return nil, &lisp.Signal{Symbol: sym, Data: xs[1]}
}

func pError(_ *evaluator, xs []lisp.Value) (lisp.Value, error) {
	s, err := format(xs)
	if err != nil {
		return nil, err
	}
	return nil, lisp.Errorf("%s", s)
}

func integer(v lisp.Value) (lisp.Integer, error) {
	n, is := v.(lisp.Integer)
	if !is {
		return 0, (&lisp.WrongType{Predicate: "integerp", Value: v}).Signal()
	}
	return n, nil
}

func arith(name string, unit int64, op func(a, b int64) int64) primitive {
	return func(_ *evaluator, xs []lisp.Value) (lisp.Value, error) {
		acc := unit
		for _, x := range xs {
			n, err := integer(x)
			if err != nil {
				return nil, err
			}
			acc = op(acc, int64(n))
		}
		return lisp.Integer(acc), nil
	}
}

func pMinus(_ *evaluator, xs []lisp.Value) (lisp.Value, error) {
	if len(xs) == 0 {
		return lisp.Integer(0), nil
	}
	first, err := integer(xs[0])
	if err != nil {
		return nil, err
	}
	if len(xs) == 1 {
		return -first, nil
	}
	acc := first
	for _, x := range xs[1:] {
		n, err := integer(x)
		if err != nil {
			return nil, err
		}
		acc -= n
	}
	return acc, nil
}

func compare(name string, op func(a, b int64) bool) primitive {
	return func(_ *evaluator, xs []lisp.Value) (lisp.Value, error) {
		if len(xs) < 1 {
			return nil, wrongArgs(name, len(xs))
		}
		for i := 0; i+1 < len(xs); i++ {
			a, err := integer(xs[i])
			if err != nil {
				return nil, err
			}
			b, err := integer(xs[i+1])
			if err != nil {
				return nil, err
			}
			if !op(int64(a), int64(b)) {
				return lisp.Nil, nil
			}
		}
		return lisp.T, nil
	}
}
