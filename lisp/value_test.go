package lisp

import (
	"errors"
	"testing"
)

func TestReadPrint(t *testing.T) {
	for _, src := range []string{
		`nil`,
		`t`,
		`42`,
		`-7`,
		`1.5`,
		`"tacos \"and\" queso"`,
		`(a b c)`,
		`(1 . 2)`,
		`(t 1 2 . 3)`,
		`(compound "f" 1 (atom . "x"))`,
		`'x`,
		`[1 "two" three]`,
		`\!`,
	} {
		v, err := Read(src)
		if err != nil {
			t.Fatalf("%s: %s", src, err)
		}
		if got := Print(v); got != src && !(src == `\!` && got == `!`) {
			t.Fatalf("%s printed as %s", src, got)
		}
	}
}

func TestReadErrors(t *testing.T) {
	for _, src := range []string{`(a b`, `)`, `"open`, `(a . )`, `a b`} {
		if _, err := Read(src); err == nil {
			t.Fatalf("%s: expected an error", src)
		}
	}
}

func TestReadAll(t *testing.T) {
	vs, err := ReadAll("(setq x 1) ; comment\n x")
	if err != nil {
		t.Fatal(err)
	}
	if len(vs) != 2 {
		t.Fatalf("got %d forms", len(vs))
	}
}

func TestEqual(t *testing.T) {
	a := List(Integer(1), String("b"), NewCons(Symbol("c"), Integer(3)))
	b, err := Read(`(1 "b" (c . 3))`)
	if err != nil {
		t.Fatal(err)
	}
	if !Equal(a, b) {
		t.Fatalf("%s != %s", Print(a), Print(b))
	}
	if Equal(a, List(Integer(1))) {
		t.Fatal("prefix lists compared equal")
	}
	if !Equal(nil, Nil) {
		t.Fatal("Go nil should equal nil")
	}
	if Equal(Integer(1), Float(1)) {
		t.Fatal("1 and 1.0 are not equal")
	}
}

func TestTypeOf(t *testing.T) {
	cases := map[Symbol]Value{
		"symbol":  Nil,
		"string":  String("x"),
		"integer": Integer(3),
		"float":   Float(3.5),
		"cons":    List(T),
		"vector":  &Vector{},
	}
	for want, v := range cases {
		if got := TypeOf(v); got != want {
			t.Fatalf("TypeOf(%s) = %s", Print(v), got)
		}
	}
}

func TestToSlice(t *testing.T) {
	xs, tail := ToSlice(ListWithTail([]Value{Integer(1), Integer(2)}, Integer(3)))
	if len(xs) != 2 || !Equal(tail, Integer(3)) {
		t.Fatalf("got %v . %v", xs, tail)
	}
	if _, ok := Length(NewCons(T, T)); ok {
		t.Fatal("improper list has a length")
	}
}

func TestCopyStringContents(t *testing.T) {
	env := Standard
	n, err := env.CopyStringContents(String("héllo"), nil)
	if err != nil {
		t.Fatal(err)
	}
	// Six bytes of UTF-8 plus the terminator.
	if n != 7 {
		t.Fatalf("size query returned %d", n)
	}
	buf := make([]byte, n)
	if _, err = env.CopyStringContents(String("héllo"), buf); err != nil {
		t.Fatal(err)
	}
	if string(buf[:n-1]) != "héllo" || buf[n-1] != 0 {
		t.Fatalf("copied %q", buf)
	}
	if _, err = env.CopyStringContents(String("héllo"), buf[:3]); err == nil {
		t.Fatal("short buffer accepted")
	}
	var wt *WrongType
	if _, err = env.CopyStringContents(Integer(1), nil); !errors.As(err, &wt) {
		t.Fatalf("got %v", err)
	}
}

func TestSignal(t *testing.T) {
	err := Errorf("No current query")
	if err.Error() != "No current query" {
		t.Fatal(err.Error())
	}
	if got := Print(err.Value()); got != `(error "No current query")` {
		t.Fatal(got)
	}
}
