package term

import (
	"sort"
	"testing"
)

func TestFormat(t *testing.T) {
	x := NewVariable()
	tests := []struct {
		t    Term
		want string
	}{
		{Atom("foo"), "foo"},
		{Atom("Foo"), "'Foo'"},
		{Atom("hello world"), "'hello world'"},
		{Atom("[]"), "'[]'"},
		{EmptyList, "[]"},
		{Atom("=.."), "=.."},
		{Atom("it's"), `'it\'s'`},
		{String("a\"b"), `"a\"b"`},
		{Integer(-42), "-42"},
		{Float(1), "1.0"},
		{Float(1.5), "1.5"},
		{Float(1e22), "1.0e+22"},
		{List(Integer(1), Integer(2)), "[1,2]"},
		{ListWithTail([]Term{Atom("a")}, x), "[a|" + VariableName(x) + "]"},
		{Atom("f").Of(Atom("a"), String("b")), `f(a,"b")`},
		{Atom("+").Of(Integer(1), Integer(2)), "+(1,2)"},
	}
	for _, test := range tests {
		if got := Format(test.t); got != test.want {
			t.Fatalf("Format: got %s, wanted %s", got, test.want)
		}
	}
}

func TestResolve(t *testing.T) {
	x, y := NewVariable(), NewVariable()
	x.SetRef(y)
	y.SetRef(Atom("a"))
	if got := Resolve(x); got != Atom("a") {
		t.Fatal(got)
	}
	y.SetRef(nil)
	if got := Resolve(x); got != Term(y) {
		t.Fatal(got)
	}
}

func TestNewCompoundNoArgs(t *testing.T) {
	if got := NewCompound("foo"); got != Atom("foo") {
		t.Fatal(got)
	}
}

func TestSlice(t *testing.T) {
	xs, tail := Slice(List(Atom("a"), Atom("b")))
	if len(xs) != 2 || tail != EmptyList {
		t.Fatal(xs, tail)
	}
	v := NewVariable()
	xs, tail = Slice(ListWithTail([]Term{Atom("a")}, v))
	if len(xs) != 1 || tail != Term(v) {
		t.Fatal(xs, tail)
	}
	if _, ok := ProperList(tail); ok {
		t.Fatal("partial list is proper")
	}
}

func TestStandardOrder(t *testing.T) {
	v := NewVariable()
	b := NewBlob("clause", nil)
	ordered := []Term{
		v,
		Float(1.0),
		Integer(1),
		Integer(2),
		Float(2.5),
		EmptyList,
		Atom("a"),
		Atom("b"),
		b,
		String("a"),
		Atom("z").Of(Integer(1)),
		List(Integer(1)),
		Atom("a").Of(Integer(1), Integer(2)),
		Atom("b").Of(Integer(1), Integer(2)),
	}
	shuffled := make([]Term, len(ordered))
	for i := range ordered {
		shuffled[i] = ordered[len(ordered)-1-i]
	}
	sort.SliceStable(shuffled, func(i, j int) bool {
		return Compare(shuffled[i], shuffled[j]) < 0
	})
	for i := range ordered {
		if Compare(ordered[i], shuffled[i]) != 0 {
			t.Fatalf("position %d: got %s, wanted %s", i, Format(shuffled[i]), Format(ordered[i]))
		}
	}
}

func TestDict(t *testing.T) {
	d, err := NewDict(Atom("point"), []DictPair{
		{Key: Atom("y"), Value: Integer(2)},
		{Key: Atom("x"), Value: Integer(1)},
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := Format(d); got != "point{x:1,y:2}" {
		t.Fatal(got)
	}
	if v, ok := d.Get(Atom("y")); !ok || v != Integer(2) {
		t.Fatal(v, ok)
	}
	d2, err := d.Put(DictPair{Key: Atom("x"), Value: Integer(10)}, DictPair{Key: Atom("z"), Value: Integer(3)})
	if err != nil {
		t.Fatal(err)
	}
	if got := Format(d2); got != "point{x:10,y:2,z:3}" {
		t.Fatal(got)
	}
	d3, ok := d2.Delete(Atom("y"))
	if !ok {
		t.Fatal("delete failed")
	}
	if got := Format(d3); got != "point{x:10,z:3}" {
		t.Fatal(got)
	}

	if _, err = NewDict(nil, []DictPair{{Key: Atom("a")}, {Key: Atom("a")}}); err == nil {
		t.Fatal("expected duplicate key error")
	}
	if _, err = NewDict(nil, []DictPair{{Key: String("a")}}); err == nil {
		t.Fatal("expected bad key error")
	}
}

// cyclic makes X = f(X, extra...).
func cyclic(f Atom, extra ...Term) Term {
	x := NewVariable()
	t := f.Of(append([]Term{x}, extra...)...)
	x.SetRef(t)
	return t
}

func TestCompareCyclic(t *testing.T) {
	a, b := cyclic("f"), cyclic("f")
	if c := Compare(a, b); c != 0 {
		t.Fatalf("f(f(...)) vs f(f(...)): %d", c)
	}
	if c := Compare(cyclic("f", Integer(1)), cyclic("f", Integer(2))); c != -1 {
		t.Fatalf("f(...,1) vs f(...,2): %d", c)
	}
	if c := Compare(cyclic("g"), a); c != 1 {
		t.Fatalf("g(...) vs f(...): %d", c)
	}

	x := NewVariable()
	l := NewPair(Atom("a"), x)
	x.SetRef(l)
	y := NewVariable()
	m := NewPair(Atom("a"), y)
	y.SetRef(m)
	if c := Compare(l, m); c != 0 {
		t.Fatalf("[a|...] vs [a|...]: %d", c)
	}
}
