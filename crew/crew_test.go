package crew

import (
	"context"
	"errors"
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/Comcast/sweep/interpreters"
	"github.com/Comcast/sweep/lisp"
)

func TestSessions(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "facts.pl")
	if err := ioutil.WriteFile(file, []byte("color(_, red).\n"), 0644); err != nil {
		t.Fatal(err)
	}

	c, err := NewCrew(&Conf{Interpreter: "lisp", Consult: []string{file}}, interpreters.Standard())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	s1, err := c.Open(ctx)
	if err != nil {
		t.Fatal(err)
	}
	s2, err := c.Open(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if s1.Id == s2.Id {
		t.Fatal(s1.Id)
	}
	if len(c.Ids()) != 2 {
		t.Fatal(c.Ids())
	}

	// A query open in one session doesn't block the other.
	if _, err := s1.Eval(ctx, `(sweep-open-query "user" "user" "color" nil)`); err != nil {
		t.Fatal(err)
	}
	exe, err := s2.Eval(ctx, `(sweep-open-query "user" "user" "color" nil) (cdr (cdr (sweep-next-solution)))`)
	if err != nil {
		t.Fatal(err)
	}
	if !lisp.Equal(exe.Value, lisp.String("red")) {
		t.Fatal(lisp.Print(exe.Value))
	}

	got, err := c.Get(s1.Id)
	if err != nil || got != s1 {
		t.Fatal(err)
	}

	if err := c.Close(s1.Id); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Get(s1.Id); !errors.Is(err, ErrNoSession) {
		t.Fatal(err)
	}
	if err := c.Close(s1.Id); !errors.Is(err, ErrNoSession) {
		t.Fatal(err)
	}
	if err := c.CloseAll(); err != nil {
		t.Fatal(err)
	}
	if len(c.Ids()) != 0 {
		t.Fatal(c.Ids())
	}
}

func TestSessionBindings(t *testing.T) {
	c, err := NewCrew(&Conf{Interpreter: "lisp"}, interpreters.Standard())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	s, err := c.Open(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Eval(ctx, `(setq n 1)`); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Eval(ctx, `(setq n (+ n 1))`); err != nil {
		t.Fatal(err)
	}
	// A failed evaluation keeps the old bindings.
	if _, err := s.Eval(ctx, `(setq n 10) (car 1)`); err == nil {
		t.Fatal("didn't protest")
	}
	if n := s.Bindings()["n"]; !lisp.Equal(n, lisp.Integer(2)) {
		t.Fatal(lisp.Print(n))
	}
}

func TestUnknownInterpreter(t *testing.T) {
	if _, err := NewCrew(&Conf{Interpreter: "cobol"}, interpreters.Standard()); err == nil {
		t.Fatal("didn't protest")
	}
}

func TestOpenFailure(t *testing.T) {
	c, err := NewCrew(&Conf{Interpreter: "lisp", Argv: []string{"sweep", "-g", "fail"}}, interpreters.Standard())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Open(context.Background()); err == nil {
		t.Fatal("didn't protest")
	}
	if len(c.Ids()) != 0 {
		t.Fatal(c.Ids())
	}
}
