package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"

	"github.com/Comcast/sweep/storage"
	"github.com/Comcast/sweep/syntax"
	"github.com/Comcast/sweep/term"

	"go.uber.org/zap"
)

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.  The default logs nothing.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithStorage sets where persistent predicates live.
func WithStorage(s storage.Storage) Option {
	return func(e *Engine) {
		e.store = s
	}
}

// WithOutput sets user_output.
func WithOutput(w io.Writer) Option {
	return func(e *Engine) {
		e.stdout = newStream("user_output", w)
	}
}

// WithErrorOutput sets user_error.
func WithErrorOutput(w io.Writer) Option {
	return func(e *Engine) {
		e.stderr = newStream("user_error", w)
	}
}

// WithInferenceLimit bounds the number of predicate calls a query
// may make.  Zero means no limit.
func WithInferenceLimit(n int64) Option {
	return func(e *Engine) {
		e.limit = n
	}
}

// Stream is an output stream.
type Stream struct {
	Alias term.Atom
	W     io.Writer

	blob *term.Blob
}

func newStream(alias term.Atom, w io.Writer) *Stream {
	s := &Stream{Alias: alias, W: w}
	s.blob = term.NewBlob("stream", s)
	return s
}

// Blob is the stream's handle as a term.
func (s *Stream) Blob() *term.Blob {
	return s.blob
}

// Engine is one execution context: a database, flags, streams and
// at most one open query.
//
// An Engine is not safe for concurrent use.  Give each goroutine its
// own (see the crew package).
type Engine struct {
	logger *zap.Logger
	store  storage.Storage

	db      *Database
	ops     *syntax.Ops
	flags   map[term.Atom]term.Term
	globals map[term.Atom]term.Term

	stdout  *Stream
	stderr  *Stream
	outputs []*Stream

	query *Query

	initialised bool
	halted      *int64
	atHalt      []term.Term

	inferences  int64
	limit       int64
	interrupted int32

	// loading is the stack of files being consulted.
	loading []*load
	files   map[string]bool
}

// NewEngine makes an engine with the system library loaded.  The
// engine still needs Initialise before it runs queries.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		logger: zap.NewNop(),
		store:  &storage.NoopStorage{},
		stdout: newStream("user_output", os.Stdout),
		stderr: newStream("user_error", os.Stderr),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.reset()
	return e
}

func (e *Engine) reset() {
	e.db = NewDatabase()
	e.ops = syntax.DefaultOps()
	e.flags = defaultFlags()
	e.globals = make(map[term.Atom]term.Term)
	e.outputs = nil
	e.atHalt = nil
	e.halted = nil
	e.loading = nil
	e.files = make(map[string]bool)
	e.installBuiltins()
	if err := e.loadBoot(); err != nil {
		panic(fmt.Sprintf("boot library: %v", err))
	}
}

func (e *Engine) Logger() *zap.Logger {
	return e.logger
}

// Database is the engine's database.
func (e *Engine) Database() *Database {
	return e.db
}

// Ops is the operator table in effect.
func (e *Engine) Ops() *syntax.Ops {
	return e.ops
}

// User is the user module.
func (e *Engine) User() *Module {
	return e.db.Module("user")
}

// System is the system module where builtins and the library live.
func (e *Engine) System() *Module {
	return e.db.Module("system")
}

// Predicate finds or declares module:name/arity.  A predicate
// declared this way that nobody defines raises an existence error
// when called.
func (e *Engine) Predicate(module, name string, arity int) *Predicate {
	mod := e.db.Module(term.Atom(module))
	pi := term.Indicator{Name: term.Atom(name), Arity: arity}
	if p, found := e.db.Resolve(mod, pi); found {
		return p
	}
	return mod.Ensure(pi)
}

// IsInitialised reports whether Initialise has succeeded.
func (e *Engine) IsInitialised() bool {
	return e.initialised
}

// Initialise prepares the engine from command-line style arguments.
// argv[0] is the program name.  Recognized: -q (quiet), -f FILE and
// -s FILE (consult), -g GOAL (run GOAL after loading), and bare file
// names (consult).  A second call does nothing.
func (e *Engine) Initialise(argv []string) error {
	if e.initialised {
		return nil
	}

	var (
		files []string
		goals []string
		args  []term.Term
	)
	for _, a := range argv {
		args = append(args, term.Atom(a))
	}
	e.flags["argv"] = term.List(args...)

	for i := 1; i < len(argv); i++ {
		switch a := argv[i]; a {
		case "-q", "--quiet":
			e.flags["verbose"] = term.Atom("silent")
		case "-f", "-s", "-g":
			if i+1 == len(argv) {
				return fmt.Errorf("missing argument for %s", a)
			}
			i++
			if a == "-g" {
				goals = append(goals, argv[i])
			} else if argv[i] != "none" {
				files = append(files, argv[i])
			}
		case "--":
			i = len(argv)
		default:
			if strings.HasPrefix(a, "-") {
				e.logger.Warn("ignoring argument", zap.String("arg", a))
				continue
			}
			files = append(files, a)
		}
	}

	e.initialised = true
	e.logger.Debug("initialise", zap.Strings("argv", argv))

	for _, file := range files {
		err := e.Consult(file)
		var le *LoadError
		if err != nil && !errors.As(err, &le) {
			if _, halted := err.(*HaltError); !halted {
				e.initialised = false
			}
			return err
		}
		if e.halted != nil {
			return &HaltError{Code: *e.halted}
		}
	}
	for _, src := range goals {
		g, _, err := syntax.ParseTerm(src, e.ops)
		if err != nil {
			e.initialised = false
			return fmt.Errorf("goal %q: %w", src, err)
		}
		ok, err := e.Once(g)
		if _, halted := err.(*HaltError); halted {
			return err
		}
		if err != nil {
			e.initialised = false
			return err
		}
		if !ok {
			e.initialised = false
			return fmt.Errorf("goal (%s) failed", src)
		}
	}
	return nil
}

// Cleanup closes any open query, runs at_halt/1 goals and forgets
// everything.  The engine can be initialised again.
func (e *Engine) Cleanup() error {
	var first error
	if e.query != nil {
		first = e.query.Close()
	}
	for _, g := range e.atHalt {
		if _, err := e.Once(g); err != nil {
			e.logger.Warn("at_halt goal raised", zap.Error(err))
		}
	}
	e.reset()
	e.initialised = false
	e.logger.Debug("cleanup")
	return first
}

// Once runs goal in the user module outside any query and keeps
// nothing.  A goal that halts returns a *HaltError.
func (e *Engine) Once(goal term.Term) (bool, error) {
	return e.once(goal, e.User())
}

func (e *Engine) once(goal term.Term, module *Module) (bool, error) {
	m := e.newMachine()
	ok, err := m.SolveOnce(goal, module, false)
	if err != nil {
		if code, is := isHalt(asException(err).Term); is {
			e.halted = &code
			return false, &HaltError{Code: code}
		}
	}
	return ok, err
}

// Halted reports whether a query called halt/1, and with what code.
func (e *Engine) Halted() (int64, bool) {
	if e.halted == nil {
		return 0, false
	}
	return *e.halted, true
}

// Interrupt asks the running query to stop by throwing '$aborted',
// which catch/3 does not intercept.  It is safe to call from another
// goroutine.
func (e *Engine) Interrupt() {
	atomic.StoreInt32(&e.interrupted, 1)
}

// InterruptOnDone calls Interrupt when ctx is done.  The returned
// function releases the watcher.
func (e *Engine) InterruptOnDone(ctx context.Context) func() {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			e.Interrupt()
		case <-done:
		}
	}()
	return func() { close(done) }
}

func (e *Engine) countInference() error {
	e.inferences++
	if 0 < e.limit && e.limit < e.inferences {
		return ResourceError("inferences")
	}
	return nil
}

// Output is the current output stream.
func (e *Engine) Output() *Stream {
	if n := len(e.outputs); 0 < n {
		return e.outputs[n-1]
	}
	return e.stdout
}

func (e *Engine) pushOutput(s *Stream) {
	e.outputs = append(e.outputs, s)
}

func (e *Engine) popOutput() {
	if n := len(e.outputs); 0 < n {
		e.outputs = e.outputs[:n-1]
	}
}

// stream finds the output stream a term names.
func (e *Engine) stream(t term.Term) (*Stream, error) {
	switch s := term.Resolve(t).(type) {
	case *term.Variable:
		return nil, InstantiationError()
	case term.Atom:
		switch s {
		case "user_output":
			return e.stdout, nil
		case "user_error":
			return e.stderr, nil
		}
		return nil, ExistenceError("stream", s)
	case *term.Blob:
		if st, is := s.Value.(*Stream); is {
			return st, nil
		}
	}
	return nil, DomainError("stream_or_alias", t)
}

func defaultFlags() map[term.Atom]term.Term {
	return map[term.Atom]term.Term{
		"bounded":                term.Atom("true"),
		"max_integer":            term.Integer(1<<63 - 1),
		"min_integer":            term.Integer(-1 << 63),
		"double_quotes":          term.Atom("string"),
		"unknown":                term.Atom("error"),
		"occurs_check":           term.Atom("false"),
		"dialect":                term.Atom("sweep"),
		"version":                term.Integer(10000),
		"argv":                   term.Nil{},
		"verbose":                term.Atom("normal"),
		"debug":                  term.Atom("false"),
		"last_call_optimisation": term.Atom("true"),
	}
}

var readOnlyFlags = map[term.Atom]bool{
	"bounded":     true,
	"max_integer": true,
	"min_integer": true,
	"dialect":     true,
	"version":     true,
}

// Flag returns a Prolog flag's value or nil.
func (e *Engine) Flag(name term.Atom) term.Term {
	return e.flags[name]
}

// SetFlag changes a Prolog flag.
func (e *Engine) SetFlag(name term.Atom, value term.Term) error {
	value = term.Resolve(value)
	if _, is := value.(*term.Variable); is {
		return InstantiationError()
	}
	old, have := e.flags[name]
	if !have {
		return ExistenceError("prolog_flag", name)
	}
	if readOnlyFlags[name] {
		return PermissionError("modify", "flag", name)
	}
	bad := func() error {
		return DomainError("flag_value", term.Atom("+").Of(name, value))
	}
	switch name {
	case "double_quotes":
		a, is := value.(term.Atom)
		if !is {
			return bad()
		}
		if _, ok := syntax.ParseDoubleQuotes(string(a)); !ok {
			return bad()
		}
	case "unknown":
		if value != term.Atom("error") && value != term.Atom("fail") && value != term.Atom("warning") {
			return bad()
		}
	case "occurs_check", "debug", "last_call_optimisation":
		if value != term.Atom("true") && value != term.Atom("false") {
			return bad()
		}
	default:
		if old.Kind() != value.Kind() {
			return bad()
		}
	}
	e.flags[name] = value
	return nil
}

func (e *Engine) occursCheck() bool {
	return e.flags["occurs_check"] == term.Atom("true")
}

func (e *Engine) doubleQuotes() syntax.DoubleQuotes {
	if a, is := e.flags["double_quotes"].(term.Atom); is {
		if dq, ok := syntax.ParseDoubleQuotes(string(a)); ok {
			return dq
		}
	}
	return syntax.DQString
}
