package core

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/Comcast/sweep/storage"
	"github.com/Comcast/sweep/syntax"
	"github.com/Comcast/sweep/term"
)

// testEngine makes an initialised engine that has consulted src.
func testEngine(t *testing.T, src string, opts ...Option) (*Engine, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	opts = append([]Option{WithOutput(&out), WithErrorOutput(&out)}, opts...)
	e := NewEngine(opts...)
	if err := e.Initialise([]string{"test"}); err != nil {
		t.Fatal(err)
	}
	if src != "" {
		if err := e.ConsultString("test.pl", src); err != nil {
			t.Fatal(err)
		}
	}
	return e, &out
}

// solutions runs goal and returns writeq of X for every solution.
// The exception, if any, is returned in its writeq form.
func solutions(t *testing.T, e *Engine, src string) ([]string, string) {
	t.Helper()
	goal, names, err := syntax.ParseTerm(src, e.Ops())
	if err != nil {
		t.Fatal(err)
	}
	var x term.Term = term.Atom("none")
	for _, vn := range names {
		if vn.Name == "X" {
			x = vn.Var
		}
	}
	q, err := e.OpenGoal(e.User(), goal, QueryExtStatus|QueryCatchException)
	if err != nil {
		t.Fatal(err)
	}
	defer q.Close()
	var acc []string
	for {
		switch q.Next() {
		case StatusTrue, StatusLast:
			acc = append(acc, syntax.Writeq(x))
		case StatusFalse:
			return acc, ""
		case StatusException:
			return acc, syntax.Writeq(q.Exception())
		}
	}
}

func checkSolutions(t *testing.T, e *Engine, goal string, want ...string) {
	t.Helper()
	got, ex := solutions(t, e, goal)
	if ex != "" {
		t.Fatalf("%s: exception %s", goal, ex)
	}
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Fatalf("%s: got %q, want %q", goal, got, want)
	}
}

func checkException(t *testing.T, e *Engine, goal, want string) {
	t.Helper()
	_, ex := solutions(t, e, goal)
	if !strings.Contains(ex, want) {
		t.Fatalf("%s: exception %q doesn't contain %q", goal, ex, want)
	}
}

func TestEngineLibrary(t *testing.T) {
	e, _ := testEngine(t, "")

	checkSolutions(t, e, "append(X, _, [1,2])", "[]", "[1]", "[1,2]")
	checkSolutions(t, e, "member(X, [a,b])", "a", "b")
	checkSolutions(t, e, "memberchk(X, [a,b])", "a")
	checkSolutions(t, e, "reverse([1,2,3], X)", "[3,2,1]")
	checkSolutions(t, e, "nth0(1, [a,b,c], X)", "b")
	checkSolutions(t, e, "nth1(I, [a,b,c], c), X = I", "3")
	checkSolutions(t, e, "last([a,b,c], X)", "c")
	checkSolutions(t, e, "select(b, [a,b,c], X)", "[a,c]")
	checkSolutions(t, e, "maplist(succ, [1,2,3], X)", "[2,3,4]")
	checkSolutions(t, e, "sum_list([1,2,3], X)", "6")
	checkSolutions(t, e, "max_list([1,5,3], X)", "5")
	checkSolutions(t, e, "min_list([4,5,3], X)", "3")
	checkSolutions(t, e, "numlist(1, 4, X)", "[1,2,3,4]")
	checkSolutions(t, e, "delete([a,b,a,c], a, X)", "[b,c]")
	checkSolutions(t, e, "list_to_set([a,b,a], X)", "[a,b]")
	checkSolutions(t, e, "flatten([a,[b,[c]],[]], X)", "[a,b,c]")
	checkSolutions(t, e, "length(L, 2), L = [a|_], length(L, X)", "2")
	checkSolutions(t, e, "msort([b,a,b], X)", "[a,b,b]")
	checkSolutions(t, e, "sort(0, @>=, [1,3,2,3], X)", "[3,3,2,1]")
}

func TestEngineMetaCalls(t *testing.T) {
	e, _ := testEngine(t, `
small(X) :- X < 3.
add(X, Y, Z) :- Z is X + Y.
by_length(O, A, B) :- atom_length(A, N), atom_length(B, M), compare(O, N, M).
`)
	checkSolutions(t, e, "include(small, [1,2,3,4], X)", "[1,2]")
	checkSolutions(t, e, "exclude(small, [1,2,3,4], X)", "[3,4]")
	checkSolutions(t, e, "partition(small, [1,4,2], I, E), X = I-E", "[1,2]-[4]")
	checkSolutions(t, e, "foldl(add, [1,2,3], 0, X)", "6")
	checkSolutions(t, e, "maplist(add(10), [1,2], X)", "[11,12]")
	checkSolutions(t, e, "forall(member(Y, [1,2]), small(Y)), X = yes", "yes")
	checkSolutions(t, e, "G = add(1), call(G, 2, X)", "3")
	checkSolutions(t, e, "predsort(by_length, [ccc,a,bb,dd], X)", "[a,bb,ccc]")
}

func TestEngineControl(t *testing.T) {
	e, _ := testEngine(t, `
first(X) :- member(X, [1,2,3]), X > 1, !.
classify(X, Y) :- ( X > 0 -> Y = pos ; X < 0 -> Y = neg ; Y = zero ).
soft(X) :- ( member(X, [1,2]) *-> true ; X = none ).
`)
	checkSolutions(t, e, "first(X)", "2")
	checkSolutions(t, e, "classify(-3, X)", "neg")
	checkSolutions(t, e, "classify(0, X)", "zero")
	checkSolutions(t, e, "soft(X)", "1", "2")
	checkSolutions(t, e, `\+ member(z, [a]), X = ok`, "ok")
	checkSolutions(t, e, "once(member(X, [a,b]))", "a")
	checkSolutions(t, e, "ignore(fail), X = ok", "ok")
	checkSolutions(t, e, "(member(X, [1,2,3]), X >= 2 ; X = 9)", "2", "3", "9")
	checkSolutions(t, e, "G = (X = 1 ; X = 2), call(G)", "1", "2")
	checkSolutions(t, e, "call((member(X, [1,2]), !))", "1")
	checkSolutions(t, e, "not(fail), X = 1", "1")
}

func TestEngineCyclicTerms(t *testing.T) {
	e, _ := testEngine(t, "")
	checkSolutions(t, e, "A = f(A), B = f(B), ( A == B -> X = same ; X = differ )", "same")
	checkSolutions(t, e, "A = f(A), B = g(B), ( A == B -> X = same ; X = differ )", "differ")
	checkSolutions(t, e, "A = f(A, 1), B = f(B, 2), compare(X, A, B)", "<")
	checkSolutions(t, e, "A = f(A), B = f(B), A = B, X = unified", "unified")
	checkSolutions(t, e, "L = [a|L], M = [a|M], L = M, X = unified", "unified")
	checkSolutions(t, e, "A = f(A), B = f(B), ( A =@= B -> X = variant ; X = no )", "variant")
	checkSolutions(t, e, "A = f(A), ( ground(A) -> X = ground ; X = no )", "ground")
	checkSolutions(t, e, "A = f(A), findall(A, true, [B]), ( A == B -> X = same ; X = differ )", "same")
	checkSolutions(t, e, "A = f(A), catch(throw(A), B, true), ( A == B -> X = caught ; X = no )", "caught")
}

func TestEngineCatchThrow(t *testing.T) {
	e, _ := testEngine(t, `
risky(X) :- X > 10, throw(too_big(X)).
risky(X) :- X =< 10.
`)
	checkSolutions(t, e, "catch(throw(foo), E, X = caught(E))", "caught(foo)")
	checkSolutions(t, e, "catch(risky(20), too_big(N), X = N)", "20")
	checkSolutions(t, e, "catch(risky(5), _, true), X = fine", "fine")
	checkSolutions(t, e, "catch(Y is foo + 1, error(E, _), X = E), Y = 0", "type_error(evaluable,foo/0)")
	checkException(t, e, "throw(bar)", "bar")
	checkException(t, e, "catch(throw(bar), baz, true)", "bar")
	checkException(t, e, "undefined_thing(1)", "existence_error(procedure,undefined_thing/1)")
	checkException(t, e, "X is 1 / 0", "evaluation_error(zero_divisor)")
	checkException(t, e, "atom_length(X, _)", "instantiation_error")
	checkException(t, e, "catch(halt, _, true)", "halt")
}

func TestEngineCleanup(t *testing.T) {
	e, _ := testEngine(t, `
:- dynamic(cleaned/1).
`)
	checkSolutions(t, e, "setup_call_cleanup(true, X = 1, assertz(cleaned(a)))", "1")
	checkSolutions(t, e, "cleaned(X)", "a")

	// A nondeterministic goal is cleaned up when the query is closed.
	goal, _, err := syntax.ParseTerm("setup_call_cleanup(true, member(_, [1,2]), assertz(cleaned(b)))", e.Ops())
	if err != nil {
		t.Fatal(err)
	}
	q, err := e.OpenGoal(e.User(), goal, QueryExtStatus)
	if err != nil {
		t.Fatal(err)
	}
	if s := q.Next(); s != StatusTrue {
		t.Fatal(s)
	}
	if err := q.Close(); err != nil {
		t.Fatal(err)
	}
	checkSolutions(t, e, "cleaned(X)", "a", "b")

	checkSolutions(t, e, "catch(setup_call_cleanup(true, throw(x), assertz(cleaned(c))), x, true), cleaned(X)", "a", "b", "c")
}

func TestEngineAggregates(t *testing.T) {
	e, _ := testEngine(t, `
age(peter, 7).
age(ann, 11).
age(pat, 8).
age(tom, 5).
age(mike, 11).
`)
	checkSolutions(t, e, "findall(N, age(N, _), X)", "[peter,ann,pat,tom,mike]")
	checkSolutions(t, e, "setof(N, A^age(N, A), X)", "[ann,mike,pat,peter,tom]")
	checkSolutions(t, e, "setof(A-N, age(N, A), X)", "[5-tom,7-peter,8-pat,11-ann,11-mike]")
	checkSolutions(t, e, "bagof(N, age(N, 11), X)", "[ann,mike]")
	checkSolutions(t, e, "(bagof(N, age(N, 99), X) -> true ; X = none)", "none")
	checkSolutions(t, e, "aggregate_all(count, age(_, _), X)", "5")
	checkSolutions(t, e, "aggregate_all(sum(A), age(_, A), X)", "42")
	checkSolutions(t, e, "aggregate_all(max(A), age(_, A), X)", "11")
	checkSolutions(t, e, "aggregate_all(bag(A), age(_, A), X)", "[7,11,8,5,11]")
	checkSolutions(t, e, "aggregate_all(set(A), age(_, A), X)", "[5,7,8,11]")
}

func TestEngineArithmetic(t *testing.T) {
	e, _ := testEngine(t, "")
	checkSolutions(t, e, "X is 7 // 2 + max(2, 3) * 2", "9")
	checkSolutions(t, e, "X is 2.0 * 3", "6.0")
	checkSolutions(t, e, "X is -7 mod 3", "2")
	checkSolutions(t, e, "X is abs(-4) + sign(-2)", "3")
	checkSolutions(t, e, "between(1, 3, X)", "1", "2", "3")
	checkSolutions(t, e, "succ(X, 4)", "3")
	checkSolutions(t, e, "plus(2, X, 5)", "3")
	checkException(t, e, "X is 9223372036854775807 + 1", "int_overflow")
	checkException(t, e, "X is foo", "type_error(evaluable,foo/0)")
}

func TestEngineText(t *testing.T) {
	e, _ := testEngine(t, "")
	checkSolutions(t, e, "atom_length(hello, X)", "5")
	checkSolutions(t, e, "sub_atom(abc, _, 1, _, X)", "a", "b", "c")
	checkSolutions(t, e, "atom_concat(X, b, ab)", "a")
	checkSolutions(t, e, "atomic_list_concat([a,b,c], '-', X)", "'a-b-c'")
	checkSolutions(t, e, "atomic_list_concat(X, ',', 'a,b')", "[a,b]")
	checkSolutions(t, e, "atom_codes(X, [0'h, 0'i])", "hi")
	checkSolutions(t, e, "upcase_atom(hi, X)", "'HI'")
	checkSolutions(t, e, `split_string("a b  c", " ", "", X)`, `["a","b","","c"]`)
	checkSolutions(t, e, "term_to_atom(f(a, b), X)", "'f(a,b)'")
	checkSolutions(t, e, "term_to_atom(X, 'g(1)')", "g(1)")
}

func TestEngineFormat(t *testing.T) {
	e, out := testEngine(t, "")
	checkSolutions(t, e, "format(atom(X), '~a-~d', [x, 42])", "'x-42'")
	checkSolutions(t, e, "format(atom(X), '~w and ~q', [a, 'B'])", "'a and \\'B\\''")
	checkSolutions(t, e, "with_output_to(atom(X), (write(a), write(b)))", "ab")
	checkSolutions(t, e, "format(atom(X), '~t~w~10||', [right])", "'     right|'")
	checkSolutions(t, e, "format(atom(X), '~2f', [3.14159])", "'3.14'")

	out.Reset()
	if _, err := e.Once(MustParse(t, e, "format('~w~n', [hello])")); err != nil {
		t.Fatal(err)
	}
	if got := out.String(); got != "hello\n" {
		t.Fatalf("%q", got)
	}
}

// MustParse parses src with e's operators.
func MustParse(t *testing.T, e *Engine, src string) term.Term {
	t.Helper()
	x, _, err := syntax.ParseTerm(src, e.Ops())
	if err != nil {
		t.Fatal(err)
	}
	return x
}

func TestEngineDatabase(t *testing.T) {
	e, _ := testEngine(t, `
:- dynamic(counter/1).
counter(0).
fixed(1).
`)
	checkSolutions(t, e, "assertz(c(1)), assertz(c(2)), asserta(c(0)), findall(Y, c(Y), X)", "[0,1,2]")
	checkSolutions(t, e, "retract(c(1)), findall(Y, c(Y), X)", "[0,2]")
	checkSolutions(t, e, "retractall(c(_)), findall(Y, c(Y), X)", "[]")
	checkSolutions(t, e, "retract(counter(N)), N1 is N + 1, assertz(counter(N1)), counter(X)", "1")
	checkSolutions(t, e, "clause(fixed(X), true)", "1")
	checkException(t, e, "assertz(fixed(2))", "permission_error(modify,static_procedure,fixed/1)")
	checkException(t, e, "assertz(atom_length(_, _))", "permission_error")
	checkSolutions(t, e, "(current_predicate(fixed/1) -> X = yes ; X = no)", "yes")
	checkSolutions(t, e, "predicate_property(counter(_), dynamic), X = yes", "yes")
	checkSolutions(t, e, "abolish(c/1), (catch(c(_), _, fail) -> X = still ; X = gone)", "gone")

	// The logical update view: a running call doesn't see new clauses.
	checkSolutions(t, e, "assertz(d(1)), findall(Y, (d(Y), Z is Y + 1, assertz(d(Z))), X)", "[1]")
}

func TestEngineQueryStatus(t *testing.T) {
	e, _ := testEngine(t, "two(1).\ntwo(2).\none(1).\n")

	run := func(goal string, want ...Status) {
		t.Helper()
		q, err := e.OpenGoal(e.User(), MustParse(t, e, goal), QueryExtStatus|QueryCatchException)
		if err != nil {
			t.Fatal(err)
		}
		defer q.Close()
		for i, w := range want {
			if got := q.Next(); got != w {
				t.Fatalf("%s: step %d: got %s, want %s", goal, i, got, w)
			}
		}
	}

	run("one(_)", StatusLast, StatusFalse)
	run("two(_)", StatusTrue, StatusLast, StatusFalse)
	run("fail", StatusFalse, StatusFalse)
	run("throw(x)", StatusException, StatusFalse)

	// Without extended status there is no Last.
	q, err := e.OpenGoal(e.User(), MustParse(t, e, "one(_)"), 0)
	if err != nil {
		t.Fatal(err)
	}
	if s := q.Next(); s != StatusTrue {
		t.Fatal(s)
	}
	if err := q.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestEngineSingleQuery(t *testing.T) {
	e, _ := testEngine(t, "")
	p := e.Predicate("system", "member", 2)
	x := term.NewVariable()
	q, err := e.OpenQuery(e.User(), p, []term.Term{x, term.List(term.Integer(1))}, QueryExtStatus)
	if err != nil {
		t.Fatal(err)
	}
	if e.CurrentQuery() != q {
		t.Fatal("current query")
	}
	if _, err := e.OpenGoal(e.User(), term.Atom("true"), 0); !errors.Is(err, ErrQueryOpen) {
		t.Fatal(err)
	}
	if err := q.Close(); err != nil {
		t.Fatal(err)
	}
	if e.CurrentQuery() != nil {
		t.Fatal("query still open")
	}
	if err := q.Close(); !errors.Is(err, ErrQueryClosed) {
		t.Fatal(err)
	}
	q, err = e.OpenGoal(e.User(), term.Atom("true"), 0)
	if err != nil {
		t.Fatal(err)
	}
	q.Cut()

	if _, err := NewEngine().OpenGoal(nil, term.Atom("true"), 0); !errors.Is(err, ErrNotInitialised) {
		t.Fatal(err)
	}
}

func TestEngineCutKeepsBindings(t *testing.T) {
	e, _ := testEngine(t, "")
	for _, cut := range []bool{true, false} {
		x := term.NewVariable()
		q, err := e.OpenGoal(e.User(), term.Atom("=").Of(x, term.Integer(1)), QueryExtStatus)
		if err != nil {
			t.Fatal(err)
		}
		if s := q.Next(); s != StatusLast {
			t.Fatal(s)
		}
		if cut {
			err = q.Cut()
		} else {
			err = q.Close()
		}
		if err != nil {
			t.Fatal(err)
		}
		_, bound := term.Resolve(x).(term.Integer)
		if bound != cut {
			t.Fatalf("cut %v: bound %v", cut, bound)
		}
	}
}

func TestEngineExceptionLeavesQueryOpen(t *testing.T) {
	e, _ := testEngine(t, "")
	q, err := e.OpenGoal(e.User(), MustParse(t, e, "throw(oops)"), QueryExtStatus|QueryCatchException)
	if err != nil {
		t.Fatal(err)
	}
	if s := q.Next(); s != StatusException {
		t.Fatal(s)
	}
	if q.Exception() != term.Atom("oops") {
		t.Fatal(syntax.Writeq(q.Exception()))
	}
	if e.CurrentQuery() != q {
		t.Fatal("closed")
	}
	if err := q.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestEngineInferenceLimit(t *testing.T) {
	e, _ := testEngine(t, "loop :- loop.\n", WithInferenceLimit(1000))
	checkException(t, e, "loop", "resource_error(inferences)")
	// The count starts over with each query.
	checkSolutions(t, e, "X = ok", "ok")
}

func TestEngineInterrupt(t *testing.T) {
	e, _ := testEngine(t, "loop :- loop.\n")

	q, err := e.OpenGoal(e.User(), term.Atom("loop"), QueryCatchException)
	if err != nil {
		t.Fatal(err)
	}
	e.Interrupt()
	if s := q.Next(); s != StatusException {
		t.Fatal(s)
	}
	if q.Exception() != term.Atom("$aborted") {
		t.Fatal(syntax.Writeq(q.Exception()))
	}
	q.Close()

	ctx, cancel := context.WithCancel(context.Background())
	stop := e.InterruptOnDone(ctx)
	defer stop()
	q, err = e.OpenGoal(e.User(), term.Atom("loop"), QueryCatchException)
	if err != nil {
		t.Fatal(err)
	}
	defer q.Close()
	cancel()
	for atomic.LoadInt32(&e.interrupted) == 0 {
		runtime.Gosched()
	}
	if s := q.Next(); s != StatusException {
		t.Fatal(s)
	}
}

func TestEngineDCG(t *testing.T) {
	e, _ := testEngine(t, `
greeting --> [hello], name.
name --> [world].
name --> [prolog].
digits([D|T]) --> digit(D), digits(T).
digits([D]) --> digit(D).
digit(D) --> [D], { code_type(D, digit) }.
`)
	checkSolutions(t, e, "phrase(greeting, [hello, X])", "world", "prolog")
	checkSolutions(t, e, `atom_codes('42x', Cs), phrase(digits(Ds), Cs, Rest), atom_codes(X, Ds), Rest = [_]`, "'42'")
}

func TestEngineFlags(t *testing.T) {
	e, _ := testEngine(t, "")
	checkSolutions(t, e, "current_prolog_flag(double_quotes, X)", "string")
	checkSolutions(t, e, "set_prolog_flag(unknown, fail), (undefined_again -> X = yes ; X = no)", "no")
	checkException(t, e, "set_prolog_flag(bounded, false)", "permission_error")
	checkException(t, e, "set_prolog_flag(double_quotes, nonsense)", "domain_error")
}

func TestEngineGlobals(t *testing.T) {
	e, _ := testEngine(t, "")
	checkSolutions(t, e, "nb_setval(k, 1), nb_getval(k, X)", "1")
	checkSolutions(t, e, "nb_getval(k, X)", "1")
	checkSolutions(t, e, "(b_setval(j, 2), fail ; true), catch(b_getval(j, X), _, X = unset)", "unset")
}

func TestEngineDicts(t *testing.T) {
	e, _ := testEngine(t, "")
	checkSolutions(t, e, "dict_create(D, t, [a-1, b-2]), get_dict(b, D, X)", "2")
	checkSolutions(t, e, "dict_pairs(D, t, [b-2, a-1]), dict_pairs(D, _, X)", "[a-1,b-2]")
	checkSolutions(t, e, "dict_create(D, t, [a-1]), put_dict(a, D, 9, D1), get_dict(a, D1, X)", "9")
	checkSolutions(t, e, "dict_create(D, t, [a-1]), (is_dict(D) -> X = yes ; X = no)", "yes")
}

func TestConsultProblems(t *testing.T) {
	var out bytes.Buffer
	e := NewEngine(WithOutput(&out), WithErrorOutput(&out))
	if err := e.Initialise([]string{"test"}); err != nil {
		t.Fatal(err)
	}
	err := e.ConsultString("bad.pl", `
good(1).
bad( :- .
good(2).
:- fail.
`)
	var le *LoadError
	if !errors.As(err, &le) {
		t.Fatal(err)
	}
	if len(le.Problems) != 2 {
		t.Fatal(le)
	}
	checkSolutions(t, e, "good(X)", "1", "2")
	if !strings.Contains(out.String(), "Warning:") {
		t.Fatal(out.String())
	}
}

func TestReconsult(t *testing.T) {
	e, _ := testEngine(t, "")
	if err := e.ConsultString("a.pl", "p(1).\np(2).\n"); err != nil {
		t.Fatal(err)
	}
	checkSolutions(t, e, "p(X)", "1", "2")
	if err := e.ConsultString("a.pl", "p(3).\n"); err != nil {
		t.Fatal(err)
	}
	checkSolutions(t, e, "p(X)", "3")
}

func TestConsultDirectives(t *testing.T) {
	e, out := testEngine(t, `
:- op(700, xfx, ===>).
rule(a ===> b).
:- initialization(writeln(loaded)).
%! doc(+X) is det.
%
%  Documented.
doc(_).
`)
	checkSolutions(t, e, "rule(X ===> _)", "a")
	if !strings.Contains(out.String(), "loaded\n") {
		t.Fatal(out.String())
	}
	p, found := e.User().Lookup(term.Indicator{Name: "doc", Arity: 1})
	if !found || !strings.Contains(p.Doc, "Documented.") {
		t.Fatal(p)
	}
}

func TestConsultModule(t *testing.T) {
	e, _ := testEngine(t, "")
	if err := e.ConsultString("m.pl", `
:- module(shapes, [area/2]).
area(square(S), A) :- sq(S, A).
sq(X, Y) :- Y is X * X.
`); err != nil {
		t.Fatal(err)
	}
	checkSolutions(t, e, "area(square(3), X)", "9")
	checkSolutions(t, e, "shapes:sq(2, X)", "4")
	checkException(t, e, "sq(2, _)", "existence_error")
}

func TestConsultBuiltin(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "facts.pl")
	if err := os.WriteFile(file, []byte("fact(1).\n"), 0644); err != nil {
		t.Fatal(err)
	}
	e, _ := testEngine(t, "")
	base := strings.TrimSuffix(file, ".pl")

	checkSolutions(t, e, "consult('"+base+"'), fact(X)", "1")

	if err := os.WriteFile(file, []byte("fact(2).\n"), 0644); err != nil {
		t.Fatal(err)
	}
	checkSolutions(t, e, "ensure_loaded('"+file+"'), fact(X)", "1")
	checkSolutions(t, e, "consult(['"+file+"']), fact(X)", "2")
	checkException(t, e, "consult('"+filepath.Join(dir, "missing")+"')", "existence_error")
}

func TestInitialise(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "prog.pl")
	if err := os.WriteFile(file, []byte("p(42).\n"), 0644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	e := NewEngine(WithOutput(&out))
	if err := e.Initialise([]string{"sweep", "-q", file, "-g", "p(X), write(X)"}); err != nil {
		t.Fatal(err)
	}
	if !e.IsInitialised() {
		t.Fatal("not initialised")
	}
	if out.String() != "42" {
		t.Fatal(out.String())
	}

	e = NewEngine(WithOutput(&out))
	err := e.Initialise([]string{"sweep", "-g", "halt(3)"})
	var he *HaltError
	if !errors.As(err, &he) || he.Code != 3 {
		t.Fatal(err)
	}

	e = NewEngine()
	if err := e.Initialise([]string{"sweep", "-g", "fail"}); err == nil {
		t.Fatal("expected failure")
	}
	if e.IsInitialised() {
		t.Fatal("initialised after a failing goal")
	}
}

func TestEngineAtHalt(t *testing.T) {
	e, out := testEngine(t, ":- at_halt(writeln(bye)).\n")
	if err := e.Cleanup(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "bye") {
		t.Fatal(out.String())
	}
	if e.IsInitialised() {
		t.Fatal("still initialised")
	}
}

// memStore is an in-memory storage.Storage.
type memStore struct {
	modules map[string]map[string]*storage.PredicateState
}

func (s *memStore) MakeModule(ctx context.Context, module string) error {
	if s.modules == nil {
		s.modules = make(map[string]map[string]*storage.PredicateState)
	}
	if _, have := s.modules[module]; !have {
		s.modules[module] = make(map[string]*storage.PredicateState)
	}
	return nil
}

func (s *memStore) RemModule(ctx context.Context, module string) error {
	delete(s.modules, module)
	return nil
}

func (s *memStore) GetClauses(ctx context.Context, module string) ([]*storage.PredicateState, error) {
	var acc []*storage.PredicateState
	for _, ps := range s.modules[module] {
		acc = append(acc, ps)
	}
	return acc, nil
}

func (s *memStore) WriteClauses(ctx context.Context, module string, pss []*storage.PredicateState) error {
	if err := s.MakeModule(ctx, module); err != nil {
		return err
	}
	for _, ps := range pss {
		s.modules[module][ps.Key()] = ps
	}
	return nil
}

func TestPersistent(t *testing.T) {
	store := &memStore{}
	e, _ := testEngine(t, ":- persistent(fact/1).\n", WithStorage(store))
	checkSolutions(t, e, "assertz(fact(1)), assertz(fact('two words')), X = ok", "ok")

	ps := store.modules["user"]["fact/1"]
	if ps == nil || len(ps.Clauses) != 2 || ps.Clauses[1] != "fact('two words')." {
		t.Fatal(ps)
	}

	e, _ = testEngine(t, ":- persistent(fact/1).\n", WithStorage(store))
	checkSolutions(t, e, "fact(X)", "1", "'two words'")
}
