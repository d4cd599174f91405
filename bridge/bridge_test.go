package bridge

import (
	"errors"
	"testing"

	"github.com/Comcast/sweep/core"
	"github.com/Comcast/sweep/lisp"
	"github.com/Comcast/sweep/match"
	"github.com/Comcast/sweep/term"
	. "github.com/Comcast/sweep/util/testutil"

	"github.com/google/go-cmp/cmp"
)

const program = `
echo(X, X).
two(_, a).
two(_, b).
boom(_, _) :- throw(oops).
nothing(_, _) :- fail.
wrap(X, f(X)).
cleanup(_, X) :- setup_call_cleanup(true, member(X, [1,2]), throw(in_cleanup)).
cyclic(_, X) :- X = f(X).
loop(_, L) :- L = [a|L].
`

func newBridge(t *testing.T) *Bridge {
	t.Helper()
	e := core.NewEngine()
	if err := e.Initialise([]string{"test"}); err != nil {
		t.Fatal(err)
	}
	if err := e.ConsultString("bridge.pl", program); err != nil {
		t.Fatal(err)
	}
	return New(e, nil)
}

func TestTermToValue(t *testing.T) {
	dict, err := term.NewDict(term.Atom("t"), []term.DictPair{{Key: term.Atom("a"), Value: term.Integer(1)}})
	if err != nil {
		t.Fatal(err)
	}
	bound := term.NewVariable()
	tests := []struct {
		name string
		t    term.Term
		want lisp.Value
	}{
		{"atom", term.Atom("a"), lisp.NewCons(SymAtom, lisp.String("a"))},
		{"empty atom", term.Atom("[]"), lisp.NewCons(SymAtom, lisp.String("[]"))},
		{"string", term.String("héllo"), lisp.String("héllo")},
		{"integer", term.Integer(-42), lisp.Integer(-42)},
		{"nil", term.EmptyList, lisp.Nil},
		{"list", MustTerm("[1,2,3]"), lisp.List(lisp.Integer(1), lisp.Integer(2), lisp.Integer(3))},
		{"improper", MustTerm("[1|a]"), lisp.NewCons(lisp.Integer(1), lisp.NewCons(SymAtom, lisp.String("a")))},
		{"compound/1", MustTerm("f(1)"), lisp.NewCons(SymCompound, lisp.List(lisp.String("f"), lisp.Integer(1)))},
		{"compound/2", MustTerm("f(1,2)"), lisp.NewCons(SymCompound, lisp.List(lisp.String("f"), lisp.Integer(1), lisp.Integer(2)))},
		{"nested", MustTerm(`g("s", [x])`), lisp.NewCons(SymCompound, lisp.List(
			lisp.String("g"),
			lisp.String("s"),
			lisp.List(lisp.NewCons(SymAtom, lisp.String("x")))))},
		{"variable", term.NewVariable(), SymVariable},
		{"float", term.Float(1.5), SymFloat},
		{"dict", dict, SymDict},
		{"blob", term.NewBlob("stream", nil), SymBlob},
		{"nil term", nil, SymUnconvertable},
		{"bound variable", bound, lisp.Integer(7)},
	}
	tr := match.NewTrail()
	if !match.Unify(tr, bound, term.Integer(7)) {
		t.Fatal("unify")
	}
	defer tr.Undo(0)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TermToValue(lisp.Standard, tt.t)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatal(diff)
			}
			again := TermToValue(lisp.Standard, tt.t)
			if diff := cmp.Diff(got, again); diff != "" {
				t.Fatal(diff)
			}
		})
	}
}

func TestTermToValueCyclic(t *testing.T) {
	x := term.NewVariable()
	tr := match.NewTrail()
	c := term.Atom("g").Of(term.Integer(1), x)
	if !match.Unify(tr, x, term.Atom("h").Of(c)) {
		t.Fatal("should unify")
	}
	want := MustValue(`(compound "g" 1 (compound "h" unconvertable))`)
	if diff := cmp.Diff(want, TermToValue(lisp.Standard, c)); diff != "" {
		t.Fatal(diff)
	}

	// Shared subterms that aren't cycles convert in full.
	shared := term.Atom("s").Of(term.Integer(2))
	got := TermToValue(lisp.Standard, term.List(shared, shared))
	s := lisp.NewCons(SymCompound, lisp.List(lisp.String("s"), lisp.Integer(2)))
	if diff := cmp.Diff(lisp.List(s, s), got); diff != "" {
		t.Fatal(diff)
	}
}

func TestHandleAndSurfaceShareQuery(t *testing.T) {
	b := newBridge(t)
	q, err := b.Open("user", "user", "two", lisp.Nil)
	if err != nil {
		t.Fatal(err)
	}
	got, err := b.NextSolution()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(lisp.NewCons(lisp.T, lisp.NewCons(SymAtom, lisp.String("a"))), got); diff != "" {
		t.Fatal(diff)
	}
	if got, err = q.Next(); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(lisp.NewCons(SymLast, lisp.NewCons(SymAtom, lisp.String("b"))), got); diff != "" {
		t.Fatal(diff)
	}
	if v, err := b.CloseQuery(); err != nil || v != lisp.T {
		t.Fatal(v, err)
	}
	if _, err := q.Next(); err != ErrNoQuery {
		t.Fatal(err)
	}
	if _, err := b.NextSolution(); err == nil {
		t.Fatal("expected an error after close")
	}
}

func TestCompoundArity(t *testing.T) {
	for n := 1; n < 10; n++ {
		args := make([]term.Term, n)
		for i := range args {
			args[i] = term.Integer(i)
		}
		v := TermToValue(lisp.Standard, term.NewCompound("f", args...))
		rest, _ := lisp.Cdr(v)
		got, ok := lisp.Length(rest)
		if !ok || got != n+1 {
			t.Fatalf("arity %d gave %d elements", n, got)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	values := []lisp.Value{
		lisp.Nil,
		lisp.String(""),
		lisp.String("abc"),
		lisp.String("héllo wörld"),
		lisp.Integer(0),
		lisp.Integer(-1 << 62),
		lisp.List(lisp.Integer(1), lisp.String("two"), lisp.Nil),
		lisp.NewCons(lisp.Integer(1), lisp.Integer(2)),
		lisp.List(lisp.List(lisp.Integer(1)), lisp.List()),
	}
	for _, v := range values {
		x, err := ValueToTerm(lisp.Standard, v)
		if err != nil {
			t.Fatal(err)
		}
		got := TermToValue(lisp.Standard, x)
		if diff := cmp.Diff(v, got); diff != "" {
			t.Fatalf("%s: %s", lisp.Print(v), diff)
		}
	}
}

func TestValueToTermFailure(t *testing.T) {
	for _, v := range []lisp.Value{
		lisp.Float(1.5),
		lisp.Symbol("foo"),
		lisp.T,
		&lisp.Vector{},
		lisp.List(lisp.Integer(1), lisp.Float(2)),
	} {
		slot := term.Term(term.Atom("untouched"))
		err := PutValue(lisp.Standard, v, &slot)
		var ce *ConversionError
		if !errors.As(err, &ce) {
			t.Fatalf("%s: %v", lisp.Print(v), err)
		}
		if slot != term.Atom("untouched") {
			t.Fatalf("%s: slot is now %v", lisp.Print(v), slot)
		}
	}

	slot := term.Term(term.Atom("untouched"))
	if err := PutValue(lisp.Standard, lisp.Integer(3), &slot); err != nil {
		t.Fatal(err)
	}
	if slot != term.Integer(3) {
		t.Fatal(slot)
	}
}

// countingEnv records how strings are copied.
type countingEnv struct {
	lisp.StandardEnv
	sizes, copies int
	bufLen        int
}

func (e *countingEnv) CopyStringContents(v lisp.Value, buf []byte) (int, error) {
	if buf == nil {
		e.sizes++
	} else {
		e.copies++
		e.bufLen = len(buf)
	}
	return e.StandardEnv.CopyStringContents(v, buf)
}

func TestStringTransfer(t *testing.T) {
	env := &countingEnv{}
	x, err := ValueToTerm(env, lisp.String("hé"))
	if err != nil {
		t.Fatal(err)
	}
	if env.sizes != 1 || env.copies != 1 {
		t.Fatalf("sizes %d copies %d", env.sizes, env.copies)
	}
	// Three bytes of UTF-8 and the terminator.
	if env.bufLen != 4 {
		t.Fatal(env.bufLen)
	}
	if x != term.String("hé") {
		t.Fatal(x)
	}

	if _, err := hostString(env, lisp.Integer(1)); err == nil {
		t.Fatal("expected an error")
	}
}

func TestQuerySequencing(t *testing.T) {
	b := newBridge(t)

	if _, err := b.NextSolution(); err == nil || err.Error() != "No current query" {
		t.Fatal(err)
	}
	if _, err := b.CutQuery(); err == nil {
		t.Fatal("expected an error")
	}
	if _, err := b.CloseQuery(); err == nil {
		t.Fatal("expected an error")
	}

	args := []lisp.Value{lisp.String("user"), lisp.String("user"), lisp.String("two"), lisp.Nil}
	if v, err := b.OpenQuery(args); err != nil || v != lisp.T {
		t.Fatal(v, err)
	}
	if _, err := b.OpenQuery(args); err == nil || err.Error() != "Prolog is already executing a query" {
		t.Fatal(err)
	}
	if v, err := b.CloseQuery(); err != nil || v != lisp.T {
		t.Fatal(v, err)
	}
	if _, err := b.OpenQuery(args); err != nil {
		t.Fatal(err)
	}
	if v, err := b.CutQuery(); err != nil || v != lisp.T {
		t.Fatal(v, err)
	}
	if _, err := b.NextSolution(); err == nil {
		t.Fatal("expected an error after cut")
	}
}

func TestQuerySteps(t *testing.T) {
	b := newBridge(t)
	a := func(s string) lisp.Value { return lisp.NewCons(SymAtom, lisp.String(s)) }

	steps := []struct {
		pred  string
		input lisp.Value
		want  []lisp.Value
	}{
		{"echo", lisp.String("hi"), []lisp.Value{lisp.NewCons(SymLast, lisp.String("hi")), lisp.Nil}},
		{"two", lisp.Nil, []lisp.Value{lisp.NewCons(lisp.T, a("a")), lisp.NewCons(SymLast, a("b")), lisp.Nil}},
		{"nothing", lisp.Nil, []lisp.Value{lisp.Nil, lisp.Nil}},
		{"wrap", lisp.Integer(1), []lisp.Value{lisp.NewCons(SymLast, lisp.NewCons(SymCompound, lisp.List(lisp.String("f"), lisp.Integer(1))))}},
		{"boom", lisp.Nil, []lisp.Value{lisp.NewCons(SymException, a("oops"))}},
		{"cyclic", lisp.Nil, []lisp.Value{lisp.NewCons(SymLast, lisp.NewCons(SymCompound, lisp.List(lisp.String("f"), SymUnconvertable)))}},
		{"loop", lisp.Nil, []lisp.Value{lisp.NewCons(SymLast, lisp.NewCons(a("a"), SymUnconvertable))}},
	}
	for _, s := range steps {
		t.Run(s.pred, func(t *testing.T) {
			if _, err := b.Call("sweep-open-query", []lisp.Value{lisp.String("user"), lisp.String("user"), lisp.String(s.pred), s.input}); err != nil {
				t.Fatal(err)
			}
			for i, want := range s.want {
				got, err := b.Call("sweep-next-solution", nil)
				if err != nil {
					t.Fatal(err)
				}
				if diff := cmp.Diff(want, got); diff != "" {
					t.Fatalf("step %d: %s", i, diff)
				}
			}
			// Even after an exception the query stays open until closed.
			if v, err := b.Call("sweep-close-query", nil); err != nil || v != lisp.T {
				t.Fatal(v, err)
			}
		})
	}
}

func TestQueryLibraryPredicate(t *testing.T) {
	b := newBridge(t)
	q, err := b.Open("user", "user", "reverse", lisp.List(lisp.Integer(1), lisp.Integer(2)))
	if err != nil {
		t.Fatal(err)
	}
	got, err := q.Next()
	if err != nil {
		t.Fatal(err)
	}
	want := lisp.NewCons(SymLast, lisp.List(lisp.Integer(2), lisp.Integer(1)))
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatal(diff)
	}
	if _, err := q.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestCutKeepsBindings(t *testing.T) {
	b := newBridge(t)
	for _, cut := range []bool{true, false} {
		q, err := b.Open("user", "user", "echo", lisp.Integer(5))
		if err != nil {
			t.Fatal(err)
		}
		if _, err := q.Next(); err != nil {
			t.Fatal(err)
		}
		if cut {
			_, err = q.Cut()
		} else {
			_, err = q.Close()
		}
		if err != nil {
			t.Fatal(err)
		}
		want := lisp.Value(lisp.Integer(5))
		if !cut {
			want = SymVariable
		}
		if diff := cmp.Diff(want, q.Output()); diff != "" {
			t.Fatalf("cut %v: %s", cut, diff)
		}
		if _, err := q.Next(); !errors.Is(err, ErrNoQuery) {
			t.Fatal(err)
		}
	}
}

func TestCloseReportsCleanupException(t *testing.T) {
	b := newBridge(t)
	q, err := b.Open("user", "user", "cleanup", lisp.Nil)
	if err != nil {
		t.Fatal(err)
	}
	if v, err := q.Next(); err != nil || !lisp.Equal(v, lisp.NewCons(lisp.T, lisp.Integer(1))) {
		t.Fatal(lisp.Print(v), err)
	}
	v, err := q.Close()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(lisp.NewCons(SymAtom, lisp.String("in_cleanup")), v); diff != "" {
		t.Fatal(diff)
	}
	if b.Engine().CurrentQuery() != nil {
		t.Fatal("query still open")
	}
}

func TestOpenConversionFailure(t *testing.T) {
	b := newBridge(t)
	_, err := b.OpenQuery([]lisp.Value{lisp.String("user"), lisp.String("user"), lisp.String("echo"), lisp.Float(1)})
	var s *lisp.Signal
	if !errors.As(err, &s) || s.Symbol != "error" {
		t.Fatal(err)
	}
	if b.Engine().CurrentQuery() != nil {
		t.Fatal("query opened")
	}

	_, err = b.OpenQuery([]lisp.Value{lisp.Integer(1), lisp.String("user"), lisp.String("echo"), lisp.Nil})
	if !errors.As(err, &s) || s.Symbol != "wrong-type-argument" {
		t.Fatal(err)
	}
}

func TestLifecycle(t *testing.T) {
	b := New(core.NewEngine(), nil)
	if v, _ := b.Call("sweep-initialized-p", nil); v != lisp.Nil {
		t.Fatal(v)
	}
	if _, err := b.Call("sweep-initialize", nil); err == nil {
		t.Fatal("expected wrong-number-of-arguments")
	}
	if v, err := b.Call("sweep-initialize", []lisp.Value{lisp.String("sweep"), lisp.String("-q")}); err != nil || v != lisp.T {
		t.Fatal(v, err)
	}
	if v, _ := b.Call("sweep-initialized-p", nil); v != lisp.T {
		t.Fatal(v)
	}
	if _, err := b.Call("sweep-initialized-p", []lisp.Value{lisp.Nil}); err == nil {
		t.Fatal("expected wrong-number-of-arguments")
	}
	if v, _ := b.Call("sweep-cleanup", nil); v != lisp.T {
		t.Fatal(v)
	}
	if v, _ := b.Call("sweep-initialized-p", nil); v != lisp.Nil {
		t.Fatal(v)
	}
	if _, err := b.Call("no-such-function", nil); err == nil {
		t.Fatal("expected void-function")
	}
}

func TestFunctionsDocumented(t *testing.T) {
	for _, f := range Functions {
		if f.Doc == "" || f.Call == nil {
			t.Fatal(f.Name)
		}
	}
}
