package testutil

import (
	"testing"

	"github.com/Comcast/sweep/lisp"
	"github.com/Comcast/sweep/term"
)

type Person struct {
	Name string
	Age  int
}

func TestJS(t *testing.T) {
	tests := []struct {
		name string
		arg  interface{}
		want string
	}{
		{
			name: "simple struct",
			arg:  Person{"John Doe", 30},
			want: `{"Name":"John Doe","Age":30}`,
		},
		{
			name: "unmarshalable",
			arg:  func() {},
			want: "(func())",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := JS(tt.arg)
			if tt.name == "unmarshalable" {
				if got == "" {
					t.Fatal("empty")
				}
				return
			}
			if got != tt.want {
				t.Errorf("JS() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMustTerm(t *testing.T) {
	x := MustTerm("f(a, [1, 2])")
	c, is := x.(*term.Compound)
	if !is {
		t.Fatalf("%T", x)
	}
	if c.Functor != "f" || len(c.Args) != 2 {
		t.Fatal(term.Format(x))
	}

	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic")
		}
	}()
	MustTerm("f(")
}

func TestMustValue(t *testing.T) {
	v := MustValue(`(1 "two" three)`)
	if n, ok := lisp.Length(v); !ok || n != 3 {
		t.Fatal(lisp.Print(v))
	}
}
