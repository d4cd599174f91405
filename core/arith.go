package core

import (
	"math"
	"math/bits"
	"math/rand"
	"time"

	"github.com/Comcast/sweep/term"
)

// Number is term.Integer or term.Float.
type Number = term.Term

var started = time.Now()

// Eval evaluates an arithmetic expression.
func Eval(t term.Term) (Number, error) {
	switch x := term.Resolve(t).(type) {
	case *term.Variable:
		return nil, InstantiationError()
	case term.Integer, term.Float:
		return x, nil
	case term.Atom:
		return evalConstant(x)
	case term.String:
		rs := []rune(string(x))
		if len(rs) == 1 {
			return term.Integer(rs[0]), nil
		}
		return nil, TypeError("evaluable", x)
	case *term.Pair:
		if _, is := term.Resolve(x.Tail).(term.Nil); is {
			return Eval(x.Head)
		}
		return nil, TypeError("evaluable", term.ListFunctor.Of(term.Atom("/"), term.Integer(2)))
	case *term.Compound:
		switch len(x.Args) {
		case 1:
			a, err := Eval(x.Args[0])
			if err != nil {
				return nil, err
			}
			return evalUnary(x.Functor, a)
		case 2:
			a, err := Eval(x.Args[0])
			if err != nil {
				return nil, err
			}
			b, err := Eval(x.Args[1])
			if err != nil {
				return nil, err
			}
			return evalBinary(x.Functor, a, b)
		}
		return nil, notEvaluable(x.Functor, len(x.Args))
	}
	return nil, TypeError("evaluable", t)
}

func notEvaluable(name term.Atom, arity int) error {
	return TypeError("evaluable", term.Indicator{Name: name, Arity: arity}.Term())
}

func evalConstant(a term.Atom) (Number, error) {
	switch a {
	case "pi":
		return term.Float(math.Pi), nil
	case "e":
		return term.Float(math.E), nil
	case "inf", "infinite":
		return term.Float(math.Inf(1)), nil
	case "nan":
		return term.Float(math.NaN()), nil
	case "epsilon":
		return term.Float(math.Nextafter(1, 2) - 1), nil
	case "max_tagged_integer", "max_integer":
		return term.Integer(math.MaxInt64), nil
	case "min_tagged_integer", "min_integer":
		return term.Integer(math.MinInt64), nil
	case "random":
		return term.Integer(rand.Int63()), nil
	case "random_float":
		return term.Float(rand.Float64()), nil
	case "cputime":
		return term.Float(time.Since(started).Seconds()), nil
	case "realtime":
		return term.Integer(time.Now().Unix()), nil
	case "[]":
		return nil, TypeError("evaluable", a)
	}
	return nil, notEvaluable(a, 0)
}

func toFloat(n Number) float64 {
	switch x := n.(type) {
	case term.Integer:
		return float64(x)
	case term.Float:
		return float64(x)
	}
	return math.NaN()
}

func checkFloat(f float64) (Number, error) {
	if math.IsInf(f, 0) {
		return nil, EvaluationError("float_overflow")
	}
	if math.IsNaN(f) {
		return nil, EvaluationError("undefined")
	}
	return term.Float(f), nil
}

func mustInt(n Number) (int64, error) {
	i, is := n.(term.Integer)
	if !is {
		return 0, TypeError("integer", n)
	}
	return int64(i), nil
}

func toInteger(f float64) (Number, error) {
	if math.IsNaN(f) {
		return nil, EvaluationError("undefined")
	}
	if f >= 9.223372036854775807e18 || f < -9.223372036854775808e18 {
		return nil, EvaluationError("int_overflow")
	}
	return term.Integer(int64(f)), nil
}

func evalUnary(op term.Atom, a Number) (Number, error) {
	ai, isInt := a.(term.Integer)
	af := toFloat(a)
	switch op {
	case "-":
		if isInt {
			if ai == math.MinInt64 {
				return nil, EvaluationError("int_overflow")
			}
			return -ai, nil
		}
		return term.Float(-af), nil
	case "+":
		return a, nil
	case "abs":
		if isInt {
			if ai == math.MinInt64 {
				return nil, EvaluationError("int_overflow")
			}
			if ai < 0 {
				return -ai, nil
			}
			return ai, nil
		}
		return term.Float(math.Abs(af)), nil
	case "sign":
		if isInt {
			switch {
			case ai < 0:
				return term.Integer(-1), nil
			case 0 < ai:
				return term.Integer(1), nil
			}
			return term.Integer(0), nil
		}
		switch {
		case af < 0:
			return term.Float(-1), nil
		case 0 < af:
			return term.Float(1), nil
		}
		return term.Float(0), nil
	case "float":
		return term.Float(af), nil
	case "integer":
		if isInt {
			return ai, nil
		}
		return toInteger(math.Round(af))
	case "float_integer_part":
		return term.Float(math.Trunc(af)), nil
	case "float_fractional_part":
		return term.Float(af - math.Trunc(af)), nil
	case "truncate":
		if isInt {
			return ai, nil
		}
		return toInteger(math.Trunc(af))
	case "round":
		if isInt {
			return ai, nil
		}
		return toInteger(math.Round(af))
	case "ceiling":
		if isInt {
			return ai, nil
		}
		return toInteger(math.Ceil(af))
	case "floor":
		if isInt {
			return ai, nil
		}
		return toInteger(math.Floor(af))
	case `\`:
		if !isInt {
			return nil, TypeError("integer", a)
		}
		return ^ai, nil
	case "msb":
		if !isInt {
			return nil, TypeError("integer", a)
		}
		if ai <= 0 {
			return nil, TypeError("not_less_than_one", a)
		}
		return term.Integer(63 - bits.LeadingZeros64(uint64(ai))), nil
	case "succ":
		if !isInt {
			return nil, TypeError("integer", a)
		}
		return evalBinary("+", ai, term.Integer(1))
	case "random":
		if !isInt {
			return nil, TypeError("integer", a)
		}
		if ai <= 0 {
			return nil, DomainError("positive_integer", a)
		}
		return term.Integer(rand.Int63n(int64(ai))), nil
	case "random_float":
		return term.Float(rand.Float64()), nil
	case "sqrt":
		if af < 0 {
			return nil, EvaluationError("undefined")
		}
		return term.Float(math.Sqrt(af)), nil
	case "sin":
		return term.Float(math.Sin(af)), nil
	case "cos":
		return term.Float(math.Cos(af)), nil
	case "tan":
		return checkFloat(math.Tan(af))
	case "asin":
		if af < -1 || 1 < af {
			return nil, EvaluationError("undefined")
		}
		return term.Float(math.Asin(af)), nil
	case "acos":
		if af < -1 || 1 < af {
			return nil, EvaluationError("undefined")
		}
		return term.Float(math.Acos(af)), nil
	case "atan":
		return term.Float(math.Atan(af)), nil
	case "exp":
		return checkFloat(math.Exp(af))
	case "log":
		if af <= 0 {
			return nil, EvaluationError("undefined")
		}
		return term.Float(math.Log(af)), nil
	case "log2":
		if af <= 0 {
			return nil, EvaluationError("undefined")
		}
		return term.Float(math.Log2(af)), nil
	}
	return nil, notEvaluable(op, 1)
}

func evalBinary(op term.Atom, a, b Number) (Number, error) {
	ai, aInt := a.(term.Integer)
	bi, bInt := b.(term.Integer)
	ints := aInt && bInt
	af, bf := toFloat(a), toFloat(b)

	switch op {
	case "+":
		if ints {
			s := ai + bi
			if (s > ai) != (bi > 0) {
				return nil, EvaluationError("int_overflow")
			}
			return s, nil
		}
		return checkFloat(af + bf)
	case "-":
		if ints {
			d := ai - bi
			if (d < ai) != (bi > 0) {
				return nil, EvaluationError("int_overflow")
			}
			return d, nil
		}
		return checkFloat(af - bf)
	case "*":
		if ints {
			return mulInt(int64(ai), int64(bi))
		}
		return checkFloat(af * bf)
	case "/":
		if ints {
			if bi == 0 {
				return nil, EvaluationError("zero_divisor")
			}
			if ai%bi == 0 {
				if ai == math.MinInt64 && bi == -1 {
					return nil, EvaluationError("int_overflow")
				}
				return ai / bi, nil
			}
			return term.Float(af / bf), nil
		}
		if bf == 0 {
			return nil, EvaluationError("zero_divisor")
		}
		return checkFloat(af / bf)
	case "//", "mod", "rem", "div", ">>", "<<", `/\`, `\/`, "xor", "gcd":
		if !aInt {
			return nil, TypeError("integer", a)
		}
		if !bInt {
			return nil, TypeError("integer", b)
		}
		return intOp(op, int64(ai), int64(bi))
	case "min":
		if compareNum(a, b) <= 0 {
			return a, nil
		}
		return b, nil
	case "max":
		if compareNum(a, b) >= 0 {
			return a, nil
		}
		return b, nil
	case "**":
		if ints {
			if bi < 0 && ai != 1 && ai != -1 {
				return checkFloat(math.Pow(af, bf))
			}
			return powInt(int64(ai), int64(bi))
		}
		return checkFloat(math.Pow(af, bf))
	case "^":
		if ints {
			if bi < 0 && ai != 1 && ai != -1 {
				if ai == 0 {
					return nil, EvaluationError("zero_divisor")
				}
				return nil, TypeError("float", a)
			}
			return powInt(int64(ai), int64(bi))
		}
		return checkFloat(math.Pow(af, bf))
	case "atan2", "atan":
		return term.Float(math.Atan2(af, bf)), nil
	case "copysign":
		return term.Float(math.Copysign(af, bf)), nil
	case "log":
		if af <= 0 || bf <= 0 {
			return nil, EvaluationError("undefined")
		}
		return checkFloat(math.Log(bf) / math.Log(af))
	}
	return nil, notEvaluable(op, 2)
}

func mulInt(x, y int64) (Number, error) {
	if x == 0 || y == 0 {
		return term.Integer(0), nil
	}
	p := x * y
	if p/y != x || (x == -1 && y == math.MinInt64) || (y == -1 && x == math.MinInt64) {
		return nil, EvaluationError("int_overflow")
	}
	return term.Integer(p), nil
}

func powInt(x, n int64) (Number, error) {
	if n < 0 {
		// x is 1 or -1.
		if x == 1 || n%2 == 0 {
			return term.Integer(1), nil
		}
		return term.Integer(-1), nil
	}
	acc := int64(1)
	for 0 < n {
		if n&1 == 1 {
			r, err := mulInt(acc, x)
			if err != nil {
				return nil, err
			}
			acc = int64(r.(term.Integer))
		}
		n >>= 1
		if 0 < n {
			r, err := mulInt(x, x)
			if err != nil {
				return nil, err
			}
			x = int64(r.(term.Integer))
		}
	}
	return term.Integer(acc), nil
}

func intOp(op term.Atom, x, y int64) (Number, error) {
	switch op {
	case "//":
		if y == 0 {
			return nil, EvaluationError("zero_divisor")
		}
		if x == math.MinInt64 && y == -1 {
			return nil, EvaluationError("int_overflow")
		}
		return term.Integer(x / y), nil
	case "rem":
		if y == 0 {
			return nil, EvaluationError("zero_divisor")
		}
		if y == -1 {
			return term.Integer(0), nil
		}
		return term.Integer(x % y), nil
	case "mod":
		if y == 0 {
			return nil, EvaluationError("zero_divisor")
		}
		if y == -1 {
			return term.Integer(0), nil
		}
		m := x % y
		if m != 0 && (m < 0) != (y < 0) {
			m += y
		}
		return term.Integer(m), nil
	case "div":
		if y == 0 {
			return nil, EvaluationError("zero_divisor")
		}
		if x == math.MinInt64 && y == -1 {
			return nil, EvaluationError("int_overflow")
		}
		q := x / y
		if (x%y != 0) && ((x < 0) != (y < 0)) {
			q--
		}
		return term.Integer(q), nil
	case ">>":
		if y < 0 {
			return intOp("<<", x, -y)
		}
		if 63 < y {
			y = 63
		}
		return term.Integer(x >> uint(y)), nil
	case "<<":
		if y < 0 {
			return intOp(">>", x, -y)
		}
		if 63 < y || (x<<uint(y))>>uint(y) != x {
			return nil, EvaluationError("int_overflow")
		}
		return term.Integer(x << uint(y)), nil
	case `/\`:
		return term.Integer(x & y), nil
	case `\/`:
		return term.Integer(x | y), nil
	case "xor":
		return term.Integer(x ^ y), nil
	case "gcd":
		for y != 0 {
			x, y = y, x%y
		}
		if x < 0 {
			if x == math.MinInt64 {
				return nil, EvaluationError("int_overflow")
			}
			x = -x
		}
		return term.Integer(x), nil
	}
	return nil, notEvaluable(op, 2)
}

// compareNum compares numbers by value.
func compareNum(a, b Number) int {
	ai, aInt := a.(term.Integer)
	bi, bInt := b.(term.Integer)
	if aInt && bInt {
		switch {
		case ai < bi:
			return -1
		case ai > bi:
			return 1
		}
		return 0
	}
	af, bf := toFloat(a), toFloat(b)
	switch {
	case af < bf:
		return -1
	case af > bf:
		return 1
	}
	return 0
}
