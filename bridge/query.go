package bridge

import (
	"github.com/Comcast/sweep/core"
	"github.com/Comcast/sweep/lisp"
	"github.com/Comcast/sweep/term"

	"go.uber.org/zap"
)

// Bridge couples a host environment with an engine.
type Bridge struct {
	env    lisp.Env
	engine *core.Engine
	logger *zap.Logger

	// current is the open query, whether opened with Open or
	// through the call surface.
	current *Query
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithLogger sets the logger.  The default logs nothing.
func WithLogger(l *zap.Logger) Option {
	return func(b *Bridge) {
		b.logger = l
	}
}

// New makes a Bridge.  A nil env means lisp.Standard.
func New(engine *core.Engine, env lisp.Env, opts ...Option) *Bridge {
	if env == nil {
		env = lisp.Standard
	}
	b := &Bridge{
		env:    env,
		engine: engine,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Engine is the bridged engine.
func (b *Bridge) Engine() *core.Engine {
	return b.engine
}

// Env is the host environment.
func (b *Bridge) Env() lisp.Env {
	return b.env
}

// Query is an open query of a two-argument predicate.  The first
// argument is the converted input and the second, the output, is
// left unbound for the predicate to bind.
//
// The open Query is also the one the call surface steps, and the
// engine refuses a second open query.
type Query struct {
	b *Bridge
	q *core.Query
	o *term.Variable
}

// Open opens a query of module:name(Input, Output) with ctx as the
// context module.  It produces no solution; call Next for those.
func (b *Bridge) Open(ctx, module, name string, input lisp.Value) (*Query, error) {
	if b.engine.CurrentQuery() != nil {
		return nil, ErrQueryOpen
	}
	in, err := ValueToTerm(b.env, input)
	if err != nil {
		return nil, err
	}
	cm := b.engine.Database().Module(term.Atom(ctx))
	p := b.engine.Predicate(module, name, 2)
	o := term.NewVariable()
	flags := core.QueryNoDebug | core.QueryExtStatus | core.QueryCatchException
	q, err := b.engine.OpenQuery(cm, p, []term.Term{in, o}, flags)
	if err != nil {
		return nil, err
	}
	b.logger.Debug("open query",
		zap.String("context", ctx),
		zap.String("predicate", module+":"+name+"/2"))
	b.current = &Query{b: b, q: q, o: o}
	return b.current, nil
}

// open reports whether the query is still the engine's query.
func (q *Query) open() bool {
	return q.q != nil && q.b.engine.CurrentQuery() == q.q
}

// Next finds the next solution.  It returns nil when there are no
// more, (t . Output) for a solution that may have alternatives,
// (! . Output) for the last one and (exception . E) when solving
// raised E.  An exception leaves the query open.
func (q *Query) Next() (lisp.Value, error) {
	if !q.open() {
		return nil, ErrNoQuery
	}
	env := q.b.env
	switch q.q.Next() {
	case core.StatusException:
		return lisp.NewCons(env.Intern(string(SymException)), TermToValue(env, q.q.Exception())), nil
	case core.StatusFalse:
		return env.Intern(string(lisp.Nil)), nil
	case core.StatusTrue:
		return lisp.NewCons(env.Intern(string(lisp.T)), TermToValue(env, q.o)), nil
	case core.StatusLast:
		return lisp.NewCons(env.Intern(string(SymLast)), TermToValue(env, q.o)), nil
	}
	return nil, lisp.Errorf("Unexpected query status")
}

// Cut ends the query and keeps the bindings of its last solution.  It
// returns t or the exception raised while cleaning up.
func (q *Query) Cut() (lisp.Value, error) {
	return q.finish(q.q.Cut)
}

// Close ends the query and undoes its bindings.  It returns t or the
// exception raised while cleaning up.
func (q *Query) Close() (lisp.Value, error) {
	return q.finish(q.q.Close)
}

func (q *Query) finish(f func() error) (lisp.Value, error) {
	if !q.open() {
		return nil, ErrNoQuery
	}
	if q.b.current == q {
		q.b.current = nil
	}
	if err := f(); err != nil {
		if v, is := exceptionValue(q.b.env, err); is {
			return v, nil
		}
		return nil, err
	}
	return q.b.env.Intern(string(lisp.T)), nil
}

// Output is the current value of the output argument.
func (q *Query) Output() lisp.Value {
	return TermToValue(q.b.env, q.o)
}

// The entry points below keep the open query in the Bridge, so hosts
// need no handle.

// OpenQuery is sweep-open-query: CONTEXT MODULE NAME INPUT.
func (b *Bridge) OpenQuery(args []lisp.Value) (lisp.Value, error) {
	if len(args) != 4 {
		return nil, wrongNumberOfArguments("sweep-open-query", len(args))
	}
	if b.engine.CurrentQuery() != nil {
		return nil, signal(ErrQueryOpen)
	}
	names := make([]string, 3)
	for i := range names {
		s, err := hostString(b.env, args[i])
		if err != nil {
			return nil, signal(err)
		}
		names[i] = s
	}
	if _, err := b.Open(names[0], names[1], names[2], args[3]); err != nil {
		return nil, signal(err)
	}
	return b.env.Intern(string(lisp.T)), nil
}

func (b *Bridge) currentQuery() (*Query, error) {
	if b.current == nil || !b.current.open() {
		b.current = nil
		return nil, signal(ErrNoQuery)
	}
	return b.current, nil
}

// NextSolution is sweep-next-solution.
func (b *Bridge) NextSolution() (lisp.Value, error) {
	q, err := b.currentQuery()
	if err != nil {
		return nil, err
	}
	v, err := q.Next()
	return v, signal(err)
}

// CutQuery is sweep-cut-query.
func (b *Bridge) CutQuery() (lisp.Value, error) {
	q, err := b.currentQuery()
	if err != nil {
		return nil, err
	}
	v, err := q.Cut()
	return v, signal(err)
}

// CloseQuery is sweep-close-query.
func (b *Bridge) CloseQuery() (lisp.Value, error) {
	q, err := b.currentQuery()
	if err != nil {
		return nil, err
	}
	v, err := q.Close()
	return v, signal(err)
}

// IsInitialized is sweep-initialized-p.
func (b *Bridge) IsInitialized() lisp.Value {
	return lisp.Bool(b.engine.IsInitialised())
}

// Initialize is sweep-initialize: argv[0] then the arguments, all
// strings.
func (b *Bridge) Initialize(args []lisp.Value) (lisp.Value, error) {
	if len(args) < 1 {
		return nil, wrongNumberOfArguments("sweep-initialize", len(args))
	}
	argv := make([]string, len(args))
	for i, a := range args {
		s, err := hostString(b.env, a)
		if err != nil {
			return nil, signal(err)
		}
		argv[i] = s
	}
	if err := b.engine.Initialise(argv); err != nil {
		b.logger.Warn("initialise", zap.Strings("argv", argv), zap.Error(err))
		return lisp.Bool(b.engine.IsInitialised()), nil
	}
	return lisp.Bool(true), nil
}

// Cleanup is sweep-cleanup.
func (b *Bridge) Cleanup() lisp.Value {
	b.current = nil
	if err := b.engine.Cleanup(); err != nil {
		b.logger.Warn("cleanup", zap.Error(err))
		return lisp.Bool(false)
	}
	return lisp.Bool(true)
}
