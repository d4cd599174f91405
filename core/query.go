package core

import (
	"sync/atomic"

	"github.com/Comcast/sweep/syntax"
	"github.com/Comcast/sweep/term"

	"go.uber.org/zap"
)

// QueryFlag controls how a query runs.
type QueryFlag int

const (
	// QueryNormal reports uncaught exceptions in the log.
	QueryNormal QueryFlag = 0

	// QueryNoDebug runs without the debugger.  There is no
	// debugger, so this flag is accepted and ignored.
	QueryNoDebug QueryFlag = 1 << iota

	// QueryExtStatus makes Next report StatusLast for a solution
	// that leaves no alternatives.
	QueryExtStatus

	// QueryCatchException leaves uncaught exceptions to the
	// caller via Query.Exception without logging them.
	QueryCatchException

	// QueryPassException is QueryCatchException for callers that
	// will rethrow into an enclosing engine context.
	QueryPassException
)

// Status is the outcome of Query.Next.
type Status int

const (
	StatusException Status = -1
	StatusFalse     Status = 0
	StatusTrue      Status = 1
	StatusLast      Status = 2
)

func (s Status) String() string {
	switch s {
	case StatusException:
		return "exception"
	case StatusFalse:
		return "false"
	case StatusTrue:
		return "true"
	case StatusLast:
		return "last"
	}
	return "unknown"
}

// Query is an open query.  An engine has at most one.
type Query struct {
	engine *Engine
	m      *Machine
	goal   term.Term
	flags  QueryFlag

	started   bool
	done      bool
	closed    bool
	exception term.Term
}

// OpenQuery opens a query for p(args...) with ctx as the context
// module.  The query produces no solution until Next.
func (e *Engine) OpenQuery(ctx *Module, p *Predicate, args []term.Term, flags QueryFlag) (*Query, error) {
	if len(args) != p.Arity {
		return nil, RepresentationError("arity")
	}
	var goal term.Term = p.Name
	if 0 < len(args) {
		goal = &term.Compound{Functor: p.Name, Args: args}
	}
	goal = term.Atom(":").Of(p.Module.Name, goal)
	return e.OpenGoal(ctx, goal, flags)
}

// OpenGoal opens a query for an arbitrary goal.
func (e *Engine) OpenGoal(ctx *Module, goal term.Term, flags QueryFlag) (*Query, error) {
	if !e.initialised {
		return nil, ErrNotInitialised
	}
	if e.query != nil {
		return nil, ErrQueryOpen
	}
	if ctx == nil {
		ctx = e.User()
	}
	m := e.newMachine()
	m.cont = &frame{goal: goal, module: ctx}
	q := &Query{
		engine: e,
		m:      m,
		goal:   goal,
		flags:  flags,
	}
	e.query = q
	e.inferences = 0
	atomic.StoreInt32(&e.interrupted, 0)
	e.logger.Debug("open query", zap.String("goal", syntax.Writeq(goal)))
	return q, nil
}

// CurrentQuery is the open query or nil.
func (e *Engine) CurrentQuery() *Query {
	return e.query
}

// Goal is the goal the query runs.
func (q *Query) Goal() term.Term {
	return q.goal
}

// Exception is the exception from the last Next that returned
// StatusException.
func (q *Query) Exception() term.Term {
	return q.exception
}

// Next finds the next solution.
func (q *Query) Next() Status {
	if q.done || q.closed {
		return StatusFalse
	}
	ok, err := q.m.solve(q.started)
	q.started = true
	if err != nil {
		q.done = true
		ex := asException(err)
		q.exception = ex.Term
		if code, is := isHalt(ex.Term); is {
			q.engine.halted = &code
		}
		if q.flags&(QueryCatchException|QueryPassException) == 0 {
			q.engine.logger.Warn("uncaught exception", zap.String("exception", syntax.Writeq(ex.Term)))
		}
		return StatusException
	}
	if !ok {
		q.done = true
		return StatusFalse
	}
	if len(q.m.cps) == 0 && q.flags&QueryExtStatus != 0 {
		q.done = true
		return StatusLast
	}
	return StatusTrue
}

// Cut discards the query's alternatives and keeps its bindings.
func (q *Query) Cut() error {
	if q.closed {
		return ErrQueryClosed
	}
	err := q.m.cutTo(0)
	q.release()
	return err
}

// Close discards the query's alternatives and undoes its bindings.
func (q *Query) Close() error {
	if q.closed {
		return ErrQueryClosed
	}
	err := q.m.cutTo(0)
	q.m.trail.Undo(0)
	q.release()
	return err
}

func (q *Query) release() {
	q.closed = true
	if q.engine.query == q {
		q.engine.query = nil
	}
	q.engine.logger.Debug("close query")
}
