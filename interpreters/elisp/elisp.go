// Package elisp is a small Lisp interpreter for driving the bridge
// the way an Emacs Lisp host would.
//
// Special forms: quote, setq, progn, prog1, if, when, unless, while,
// let, let*, and, or, condition-case, unwind-protect.  Functions: the
// bridge's sweep-* functions and a handful of list, predicate and
// output primitives.
package elisp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Comcast/sweep/bridge"
	"github.com/Comcast/sweep/lisp"
)

// Interpreter implements bridge.Interpreter for Lisp source.
type Interpreter struct {
	// MaxDepth limits evaluation depth.  Zero means 1000.
	MaxDepth int
}

// NewInterpreter makes a new Interpreter.
func NewInterpreter() *Interpreter {
	return &Interpreter{}
}

// Compile reads every form in src.
func (i *Interpreter) Compile(ctx context.Context, src string) (interface{}, error) {
	return lisp.ReadAll(src)
}

// Exec evaluates the forms in order.  The value is the value of the
// last form.  setq at top level updates the returned bindings.
func (i *Interpreter) Exec(ctx context.Context, b *bridge.Bridge, bs bridge.Bindings, src string, compiled interface{}) (*bridge.Execution, error) {
	exe := bridge.NewExecution(bs.Copy())

	if compiled == nil {
		var err error
		if compiled, err = i.Compile(ctx, src); err != nil {
			return exe, err
		}
	}
	forms, is := compiled.([]lisp.Value)
	if !is {
		return exe, fmt.Errorf("elisp bad compilation: %T", compiled)
	}

	max := i.MaxDepth
	if max == 0 {
		max = 1000
	}
	ev := &evaluator{
		ctx:    ctx,
		b:      b,
		exe:    exe,
		global: exe.Bs,
		max:    max,
	}
	for _, form := range forms {
		v, err := ev.eval(form, nil)
		if err != nil {
			return exe, err
		}
		exe.Value = v
	}
	return exe, nil
}

// scope is a chain of let frames.
type scope struct {
	vars map[lisp.Symbol]lisp.Value
	up   *scope
}

func (s *scope) find(sym lisp.Symbol) (map[lisp.Symbol]lisp.Value, bool) {
	for ; s != nil; s = s.up {
		if _, have := s.vars[sym]; have {
			return s.vars, true
		}
	}
	return nil, false
}

type evaluator struct {
	ctx    context.Context
	b      *bridge.Bridge
	exe    *bridge.Execution
	global bridge.Bindings
	depth  int
	max    int
}

var errInterrupted = &lisp.Signal{Symbol: "quit", Data: lisp.Nil}

func (ev *evaluator) eval(form lisp.Value, s *scope) (lisp.Value, error) {
	if ev.ctx.Err() != nil {
		return nil, errInterrupted
	}
	ev.depth++
	defer func() { ev.depth-- }()
	if ev.max < ev.depth {
		return nil, lisp.Errorf("Lisp nesting exceeds max-lisp-eval-depth")
	}

	switch v := form.(type) {
	case nil:
		return lisp.Nil, nil
	case lisp.Symbol:
		return ev.symbolValue(v, s)
	case *lisp.Cons:
		return ev.combination(v, s)
	default:
		return form, nil
	}
}

func (ev *evaluator) symbolValue(sym lisp.Symbol, s *scope) (lisp.Value, error) {
	if sym == lisp.Nil || sym == lisp.T || strings.HasPrefix(string(sym), ":") {
		return sym, nil
	}
	if vars, have := s.find(sym); have {
		return vars[sym], nil
	}
	if v, have := ev.global[string(sym)]; have {
		return v, nil
	}
	return nil, &lisp.Signal{Symbol: "void-variable", Data: lisp.List(sym)}
}

func (ev *evaluator) set(sym lisp.Symbol, v lisp.Value, s *scope) error {
	if sym == lisp.Nil || sym == lisp.T {
		return &lisp.Signal{Symbol: "setting-constant", Data: lisp.List(sym)}
	}
	if vars, have := s.find(sym); have {
		vars[sym] = v
		return nil
	}
	ev.global[string(sym)] = v
	return nil
}

func (ev *evaluator) progn(body lisp.Value, s *scope) (lisp.Value, error) {
	forms, _ := lisp.ToSlice(body)
	var acc lisp.Value = lisp.Nil
	for _, f := range forms {
		v, err := ev.eval(f, s)
		if err != nil {
			return nil, err
		}
		acc = v
	}
	return acc, nil
}

func (ev *evaluator) combination(c *lisp.Cons, s *scope) (lisp.Value, error) {
	head, is := c.Car.(lisp.Symbol)
	if !is {
		return nil, &lisp.Signal{Symbol: "invalid-function", Data: lisp.List(c.Car)}
	}
	args, _ := lisp.ToSlice(c.Cdr)

	if sf, have := specialForms[head]; have {
		return sf(ev, args, s)
	}

	vals := make([]lisp.Value, len(args))
	for i, a := range args {
		v, err := ev.eval(a, s)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}

	if f, have := primitives[head]; have {
		return f(ev, vals)
	}
	if _, have := bridge.Lookup(string(head)); have {
		return ev.b.Call(string(head), vals)
	}
	return nil, &lisp.Signal{Symbol: "void-function", Data: lisp.List(head)}
}

type specialForm func(ev *evaluator, args []lisp.Value, s *scope) (lisp.Value, error)

var specialForms map[lisp.Symbol]specialForm

func init() {
	specialForms = map[lisp.Symbol]specialForm{
		"quote":          sfQuote,
		"setq":           sfSetq,
		"progn":          sfProgn,
		"prog1":          sfProg1,
		"if":             sfIf,
		"when":           sfWhen,
		"unless":         sfUnless,
		"while":          sfWhile,
		"let":            sfLet(false),
		"let*":           sfLet(true),
		"and":            sfAnd,
		"or":             sfOr,
		"condition-case": sfConditionCase,
		"unwind-protect": sfUnwindProtect,
	}
}

func wrongArgs(name string, n int) error {
	return &lisp.Signal{
		Symbol: "wrong-number-of-arguments",
		Data:   lisp.List(lisp.Intern(name), lisp.Integer(n)),
	}
}

func sfQuote(ev *evaluator, args []lisp.Value, s *scope) (lisp.Value, error) {
	if len(args) != 1 {
		return nil, wrongArgs("quote", len(args))
	}
	return args[0], nil
}

func sfSetq(ev *evaluator, args []lisp.Value, s *scope) (lisp.Value, error) {
	if len(args)%2 != 0 {
		return nil, wrongArgs("setq", len(args))
	}
	var acc lisp.Value = lisp.Nil
	for i := 0; i < len(args); i += 2 {
		sym, is := args[i].(lisp.Symbol)
		if !is {
			return nil, (&lisp.WrongType{Predicate: "symbolp", Value: args[i]}).Signal()
		}
		v, err := ev.eval(args[i+1], s)
		if err != nil {
			return nil, err
		}
		if err := ev.set(sym, v, s); err != nil {
			return nil, err
		}
		acc = v
	}
	return acc, nil
}

func sfProgn(ev *evaluator, args []lisp.Value, s *scope) (lisp.Value, error) {
	return ev.progn(lisp.List(args...), s)
}

func sfProg1(ev *evaluator, args []lisp.Value, s *scope) (lisp.Value, error) {
	if len(args) < 1 {
		return nil, wrongArgs("prog1", len(args))
	}
	v, err := ev.eval(args[0], s)
	if err != nil {
		return nil, err
	}
	if _, err := ev.progn(lisp.List(args[1:]...), s); err != nil {
		return nil, err
	}
	return v, nil
}

func sfIf(ev *evaluator, args []lisp.Value, s *scope) (lisp.Value, error) {
	if len(args) < 2 {
		return nil, wrongArgs("if", len(args))
	}
	c, err := ev.eval(args[0], s)
	if err != nil {
		return nil, err
	}
	if !lisp.IsNil(c) {
		return ev.eval(args[1], s)
	}
	return ev.progn(lisp.List(args[2:]...), s)
}

func sfWhen(ev *evaluator, args []lisp.Value, s *scope) (lisp.Value, error) {
	if len(args) < 1 {
		return nil, wrongArgs("when", len(args))
	}
	c, err := ev.eval(args[0], s)
	if err != nil || lisp.IsNil(c) {
		return lisp.Nil, err
	}
	return ev.progn(lisp.List(args[1:]...), s)
}

func sfUnless(ev *evaluator, args []lisp.Value, s *scope) (lisp.Value, error) {
	if len(args) < 1 {
		return nil, wrongArgs("unless", len(args))
	}
	c, err := ev.eval(args[0], s)
	if err != nil || !lisp.IsNil(c) {
		return lisp.Nil, err
	}
	return ev.progn(lisp.List(args[1:]...), s)
}

func sfWhile(ev *evaluator, args []lisp.Value, s *scope) (lisp.Value, error) {
	if len(args) < 1 {
		return nil, wrongArgs("while", len(args))
	}
	body := lisp.List(args[1:]...)
	for {
		if ev.ctx.Err() != nil {
			return nil, errInterrupted
		}
		c, err := ev.eval(args[0], s)
		if err != nil {
			return nil, err
		}
		if lisp.IsNil(c) {
			return lisp.Nil, nil
		}
		if _, err := ev.progn(body, s); err != nil {
			return nil, err
		}
	}
}

func sfLet(sequential bool) specialForm {
	return func(ev *evaluator, args []lisp.Value, s *scope) (lisp.Value, error) {
		if len(args) < 1 {
			return nil, wrongArgs("let", len(args))
		}
		bindings, _ := lisp.ToSlice(args[0])
		inner := &scope{vars: make(map[lisp.Symbol]lisp.Value, len(bindings)), up: s}
		at := s
		if sequential {
			at = inner
		}
		for _, b := range bindings {
			var (
				sym  lisp.Symbol
				init lisp.Value = lisp.Nil
				is   bool
			)
			if sym, is = b.(lisp.Symbol); !is {
				xs, _ := lisp.ToSlice(b)
				if len(xs) == 0 {
					return nil, (&lisp.WrongType{Predicate: "symbolp", Value: b}).Signal()
				}
				if sym, is = xs[0].(lisp.Symbol); !is {
					return nil, (&lisp.WrongType{Predicate: "symbolp", Value: xs[0]}).Signal()
				}
				if 1 < len(xs) {
					v, err := ev.eval(xs[1], at)
					if err != nil {
						return nil, err
					}
					init = v
				}
			}
			inner.vars[sym] = init
		}
		return ev.progn(lisp.List(args[1:]...), inner)
	}
}

func sfAnd(ev *evaluator, args []lisp.Value, s *scope) (lisp.Value, error) {
	var acc lisp.Value = lisp.T
	for _, a := range args {
		v, err := ev.eval(a, s)
		if err != nil || lisp.IsNil(v) {
			return lisp.Nil, err
		}
		acc = v
	}
	return acc, nil
}

func sfOr(ev *evaluator, args []lisp.Value, s *scope) (lisp.Value, error) {
	for _, a := range args {
		v, err := ev.eval(a, s)
		if err != nil {
			return nil, err
		}
		if !lisp.IsNil(v) {
			return v, nil
		}
	}
	return lisp.Nil, nil
}

// asSignal gives the condition for any error.
func asSignal(err error) *lisp.Signal {
	var s *lisp.Signal
	if errors.As(err, &s) {
		return s
	}
	var wt *lisp.WrongType
	if errors.As(err, &wt) {
		return wt.Signal()
	}
	return lisp.Errorf("%s", err.Error())
}

// handles reports whether a condition-case handler's condition
// catches sym.  Every condition is an error.
func handles(cond lisp.Value, sym lisp.Symbol) bool {
	switch c := cond.(type) {
	case lisp.Symbol:
		return c == sym || c == "error" || c == lisp.T
	case *lisp.Cons:
		xs, _ := lisp.ToSlice(c)
		for _, x := range xs {
			if handles(x, sym) {
				return true
			}
		}
	}
	return false
}

// sfConditionCase is (condition-case VAR BODY (CONDITION HANDLER...)...).
func sfConditionCase(ev *evaluator, args []lisp.Value, s *scope) (lisp.Value, error) {
	if len(args) < 2 {
		return nil, wrongArgs("condition-case", len(args))
	}
	v, err := ev.eval(args[1], s)
	if err == nil {
		return v, nil
	}
	if err == errInterrupted {
		return nil, err
	}
	sig := asSignal(err)
	for _, h := range args[2:] {
		hs, _ := lisp.ToSlice(h)
		if len(hs) == 0 || !handles(hs[0], sig.Symbol) {
			continue
		}
		inner := s
		if sym, is := args[0].(lisp.Symbol); is && sym != lisp.Nil {
			inner = &scope{vars: map[lisp.Symbol]lisp.Value{sym: sig.Value()}, up: s}
		}
		return ev.progn(lisp.List(hs[1:]...), inner)
	}
	return nil, err
}

func sfUnwindProtect(ev *evaluator, args []lisp.Value, s *scope) (lisp.Value, error) {
	if len(args) < 1 {
		return nil, wrongArgs("unwind-protect", len(args))
	}
	v, err := ev.eval(args[0], s)
	if _, cerr := ev.progn(lisp.List(args[1:]...), s); cerr != nil && err == nil {
		err = cerr
	}
	return v, err
}
