package syntax

import (
	"errors"
	"io"
	"testing"

	"github.com/Comcast/sweep/term"
)

func TestParseRoundTrip(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"foo", "foo"},
		{"foo(bar, Baz)", "foo(bar,Baz)"},
		{"'hello world'", "'hello world'"},
		{"[1, 2, 3]", "[1,2,3]"},
		{"[a|T]", "[a|T]"},
		{"1 + 2 * 3", "1+2*3"},
		{"(1 + 2) * 3", "(1+2)*3"},
		{"a - (b - c)", "a-(b-c)"},
		{"a - b - c", "a-b-c"},
		{"1 - -1", "1- -1"},
		{"- 1", "-(1)"},
		{"-(1)", "-(1)"},
		{"-a", "-a"},
		{"- (a + b)", "- (a+b)"},
		{"\\+ a", "\\+a"},
		{"X is 1 + 2", "X is 1+2"},
		{"(a :- b, c ; d -> e)", "a :- b,c;d -> e"},
		{"f((a, b))", "f((a,b))"},
		{"{a, b}", "{a,b}"},
		{"\"text\"", "\"text\""},
		{"0'a", "97"},
		{"0x1F", "31"},
		{"1.5e3", "1500.0"},
		{"'\\n'", "'\\n'"},
		{"point{x: 1, y: 2}", "point{x:1,y:2}"},
		{"X = f(Y)", "X=f(Y)"},
		{"a = (b , c)", "a=(b,c)"},
		{"f(-)", "f(-)"},
		{"[-]", "[-]"},
		{"(a | b)", "a;b"},
		{"p :- \\+ q", "p :- \\+q"},
	}
	for _, test := range tests {
		x, vs, err := ParseTerm(test.src, nil)
		if err != nil {
			t.Fatalf("%s: %s", test.src, err)
		}
		names := make(map[*term.Variable]string)
		for _, vn := range vs {
			names[vn.Var] = vn.Name
		}
		got := Format(x, WriteOptions{Quoted: true, VarNames: names})
		if got != test.want {
			t.Fatalf("%s: got %s, wanted %s", test.src, got, test.want)
		}
	}
}

func TestParseStructure(t *testing.T) {
	x := MustParseTerm(":- dynamic foo/1, bar/2.")
	c, is := x.(*term.Compound)
	if !is || c.Functor != ":-" || len(c.Args) != 1 {
		t.Fatal(term.Format(x))
	}
	d, is := c.Args[0].(*term.Compound)
	if !is || d.Functor != "dynamic" {
		t.Fatal(term.Format(x))
	}
	if got := term.Format(d.Args[0]); got != "','(/(foo,1),/(bar,2))" {
		t.Fatal(got)
	}

	if x := MustParseTerm("-1"); x != term.Integer(-1) {
		t.Fatal(term.Format(x))
	}
	if x := MustParseTerm("[]"); x != term.EmptyList {
		t.Fatal(term.Format(x))
	}
	if x := MustParseTerm("'[]'"); x != term.Atom("[]") {
		t.Fatal(term.Format(x))
	}
}

func TestVariables(t *testing.T) {
	p := NewParser("test", "foo(X, Y, X, _, _Z).", nil)
	c, err := p.Read()
	if err != nil {
		t.Fatal(err)
	}
	if len(c.Vars) != 3 {
		t.Fatal(c.Vars)
	}
	if len(c.Singletons) != 1 || c.Singletons[0].Name != "Y" {
		t.Fatal(c.Singletons)
	}
	args := c.Term.(*term.Compound).Args
	if args[0] != args[2] {
		t.Fatal("X not shared")
	}
}

func TestDoubleQuotes(t *testing.T) {
	p := NewParser("", `"ab".`, nil)
	p.DoubleQuotes = DQCodes
	c, err := p.Read()
	if err != nil {
		t.Fatal(err)
	}
	if got := term.Format(c.Term); got != "[97,98]" {
		t.Fatal(got)
	}
}

func TestDocComments(t *testing.T) {
	src := `
%!  double(+X, -Y) is det.
%
%   Y is twice X.
double(X, Y) :- Y is 2*X.

/** Triple a number.
 *  Really.
 */
triple(X, Y) :- Y is 3*X.

plain(1).
`
	cs, err := ParseAll("doc.pl", src, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(cs) != 3 {
		t.Fatal(len(cs))
	}
	if want := "double(+X, -Y) is det.\n\nY is twice X."; cs[0].Doc != want {
		t.Fatalf("got %q, wanted %q", cs[0].Doc, want)
	}
	if want := "Triple a number.\nReally."; cs[1].Doc != want {
		t.Fatalf("got %q, wanted %q", cs[1].Doc, want)
	}
	if cs[2].Doc != "" {
		t.Fatal(cs[2].Doc)
	}
	if cs[1].Line != 10 {
		t.Fatal(cs[1].Line)
	}
}

func TestSyntaxErrorRecovery(t *testing.T) {
	p := NewParser("bad.pl", "ok(1).\nbad(.\nok(2).\n", nil)
	c, err := p.Read()
	if err != nil || term.Format(c.Term) != "ok(1)" {
		t.Fatal(c, err)
	}
	_, err = p.Read()
	var se *SyntaxError
	if !errors.As(err, &se) {
		t.Fatal(err)
	}
	if se.Line != 2 {
		t.Fatal(se)
	}
	c, err = p.Read()
	if err != nil || term.Format(c.Term) != "ok(2)" {
		t.Fatal(c, err)
	}
	if _, err = p.Read(); err != io.EOF {
		t.Fatal(err)
	}
}

func TestNormalization(t *testing.T) {
	decomposed := MustParseTerm("'e\u0301'")
	composed := MustParseTerm("'\u00e9'")
	if decomposed != composed {
		t.Fatal(term.Format(decomposed), term.Format(composed))
	}
}

func TestOps(t *testing.T) {
	ops := DefaultOps()
	if err := ops.Add(700, XFX, "===>"); err != nil {
		t.Fatal(err)
	}
	x, _, err := ParseTerm("a ===> b", ops)
	if err != nil {
		t.Fatal(err)
	}
	if got := term.Format(x); got != "===>(a,b)" {
		t.Fatal(got)
	}
	if err := ops.Add(700, XFX, ","); err == nil {
		t.Fatal("should not redefine ','")
	}
	if err := ops.Add(0, XFX, "===>"); err != nil {
		t.Fatal(err)
	}
	if _, is := ops.Infix("===>"); is {
		t.Fatal("operator not removed")
	}
}

func TestPortrayClause(t *testing.T) {
	x := MustParseTerm("foo(X, Y) :- bar(X), baz(Y, _)")
	want := "foo(A,B) :-\n    bar(A),\n    baz(B,C).\n"
	if got := PortrayClause(x, nil); got != want {
		t.Fatalf("got %q, wanted %q", got, want)
	}
}

func TestWriteNumberVars(t *testing.T) {
	x := term.Atom("f").Of(term.Atom("$VAR").Of(term.Integer(0)), term.Atom("$VAR").Of(term.Integer(27)))
	if got := Write(x); got != "f(A,B1)" {
		t.Fatal(got)
	}
	if got := Canonical(x); got != "f('$VAR'(0),'$VAR'(27))" {
		t.Fatal(got)
	}
}

func TestWriteCyclic(t *testing.T) {
	x := term.NewVariable()
	c := term.Atom("f").Of(x, term.Atom("a"))
	x.SetRef(c)
	if got := Writeq(c); got != "f(...,a)" {
		t.Fatalf("got %s", got)
	}

	l := term.NewVariable()
	list := term.NewPair(term.Atom("a"), term.NewPair(term.Atom("b"), l))
	l.SetRef(list)
	if got := Writeq(list); got != "[a,b|...]" {
		t.Fatalf("got %s", got)
	}

	shared := term.Atom("h").Of(term.Integer(1))
	if got := Writeq(term.Atom("g").Of(shared, shared)); got != "g(h(1),h(1))" {
		t.Fatalf("got %s", got)
	}
}
