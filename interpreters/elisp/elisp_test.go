package elisp

import (
	"context"
	"errors"
	"testing"

	"github.com/Comcast/sweep/bridge"
	"github.com/Comcast/sweep/core"
	"github.com/Comcast/sweep/lisp"
	. "github.com/Comcast/sweep/util/testutil"
)

const program = `
likes(_, X) :- member(X, [tea, toast]).
boom(_, _) :- throw(oops).
`

func newBridge(t *testing.T) *bridge.Bridge {
	t.Helper()
	e := core.NewEngine()
	if err := e.Initialise([]string{"test"}); err != nil {
		t.Fatal(err)
	}
	if err := e.ConsultString("elisp.pl", program); err != nil {
		t.Fatal(err)
	}
	return bridge.New(e, nil)
}

func eval(t *testing.T, b *bridge.Bridge, bs bridge.Bindings, src string) *bridge.Execution {
	t.Helper()
	exe, err := NewInterpreter().Exec(context.Background(), b, bs, src, nil)
	if err != nil {
		t.Fatalf("%s: %v", src, err)
	}
	return exe
}

func TestBasics(t *testing.T) {
	b := newBridge(t)
	tests := []struct {
		src  string
		want string
	}{
		{`(+ 1 2 3)`, `6`},
		{`(- 10 3 2)`, `5`},
		{`(- 4)`, `-4`},
		{`(car '(a b))`, `a`},
		{`(cdr '(a b))`, `(b)`},
		{`(car nil)`, `nil`},
		{`(let ((x 1) (y 2)) (list y x))`, `(2 1)`},
		{`(let* ((x 1) (y (1+ x))) y)`, `2`},
		{`(if nil 1 2 3)`, `3`},
		{`(when t 1 2)`, `2`},
		{`(unless t 1)`, `nil`},
		{`(prog1 1 2 3)`, `1`},
		{`(and 1 2)`, `2`},
		{`(or nil 3)`, `3`},
		{`(equal '(1 "a") (list 1 "a"))`, `t`},
		{`(eq "a" "a")`, `nil`},
		{`(length "héllo")`, `5`},
		{`(reverse '(1 2 3))`, `(3 2 1)`},
		{`(format "%s=%S %d%%" 'x "y" 7)`, `"x=\"y\" 7%"`},
		{`(setq n 0) (while (< n 5) (setq n (1+ n))) n`, `5`},
		{`(condition-case err (car 1) (error (car err)))`, `wrong-type-argument`},
		{`(condition-case err (signal 'my-error '(1)) (my-error (cdr err)))`, `(1)`},
		{`(condition-case nil (error "x %d" 1) (t 'caught))`, `caught`},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			exe := eval(t, b, nil, tt.src)
			if got := lisp.Print(exe.Value); got != tt.want {
				t.Fatalf("got %s; want %s", got, tt.want)
			}
		})
	}
}

func TestErrors(t *testing.T) {
	b := newBridge(t)
	tests := []struct {
		src string
		sym lisp.Symbol
	}{
		{`undefined-var`, "void-variable"},
		{`(no-such-function)`, "void-function"},
		{`(car 1)`, "wrong-type-argument"},
		{`(error "bad %s" "thing")`, "error"},
		{`(setq t 1)`, "setting-constant"},
		{`(sweep-next-solution)`, "error"},
		{`(sweep-open-query "user" "likes")`, "wrong-number-of-arguments"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			_, err := NewInterpreter().Exec(context.Background(), b, nil, tt.src, nil)
			var sig *lisp.Signal
			if !errors.As(err, &sig) {
				t.Fatalf("got %v; want a signal", err)
			}
			if sig.Symbol != tt.sym {
				t.Fatalf("got %s; want %s", sig.Symbol, tt.sym)
			}
		})
	}
}

func TestQueryLoop(t *testing.T) {
	b := newBridge(t)
	src := `
(sweep-open-query "user" "user" "likes" "sam")
(let ((sol (sweep-next-solution)) (acc nil))
  (while sol
    (setq acc (cons (cdr sol) acc))
    (setq sol (sweep-next-solution)))
  (sweep-close-query)
  (nreverse acc))
`
	exe := eval(t, b, nil, src)
	want := `((atom . "tea") (atom . "toast"))`
	if got := lisp.Print(exe.Value); got != want {
		t.Fatalf("got %s; want %s", got, want)
	}
}

func TestQueryException(t *testing.T) {
	b := newBridge(t)
	src := `
(sweep-open-query "user" "user" "boom" nil)
(let ((sol (sweep-next-solution)))
  (sweep-close-query)
  (car sol))
`
	exe := eval(t, b, nil, src)
	if got := lisp.Print(exe.Value); got != "exception" {
		t.Fatalf("got %s", got)
	}
}

func TestBindingsPersist(t *testing.T) {
	b := newBridge(t)
	bs := bridge.Bindings{"count": lisp.Integer(1)}
	exe := eval(t, b, bs, `(setq count (1+ count)) (let ((count 10)) (setq count 11)) count`)
	if got := lisp.Print(exe.Value); got != "2" {
		t.Fatal(got)
	}
	if !lisp.Equal(exe.Bs["count"], lisp.Integer(2)) {
		t.Fatal(exe.Bs)
	}
	if !lisp.Equal(bs["count"], lisp.Integer(1)) {
		t.Fatal("input bindings modified")
	}
}

func TestMessages(t *testing.T) {
	b := newBridge(t)
	exe := eval(t, b, nil, `(message "hello %s" "world") (message "%d" 2)`)
	if len(exe.Messages) != 2 || exe.Messages[0] != "hello world" || exe.Messages[1] != "2" {
		t.Fatal(JS(exe.Messages))
	}
}

func TestCancel(t *testing.T) {
	b := newBridge(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewInterpreter().Exec(ctx, b, nil, `(while t nil)`, nil)
	var sig *lisp.Signal
	if !errors.As(err, &sig) || sig.Symbol != "quit" {
		t.Fatal(err)
	}
}

func TestDepth(t *testing.T) {
	b := newBridge(t)
	i := &Interpreter{MaxDepth: 5}
	_, err := i.Exec(context.Background(), b, nil, `(list (list (list (list (list (list 1))))))`, nil)
	if err == nil {
		t.Fatal("expected depth error")
	}
}

func TestCompile(t *testing.T) {
	i := NewInterpreter()
	if _, err := i.Compile(context.Background(), `(car`); err == nil {
		t.Fatal("expected read error")
	}
	compiled, err := i.Compile(context.Background(), `(+ 1 1)`)
	if err != nil {
		t.Fatal(err)
	}
	exe, err := i.Exec(context.Background(), newBridge(t), nil, "", compiled)
	if err != nil {
		t.Fatal(err)
	}
	if !lisp.Equal(exe.Value, lisp.Integer(2)) {
		t.Fatal(exe.Value)
	}
}
