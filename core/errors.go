package core

// Errors that the host sees are Go errors.  Errors inside the engine
// are exceptions: terms thrown by throw/1 or by builtins, carried as
// *Exception until a catch/3 or the query boundary handles them.

import (
	"errors"
	"fmt"

	"github.com/Comcast/sweep/match"
	"github.com/Comcast/sweep/syntax"
	"github.com/Comcast/sweep/term"
)

var (
	// ErrQueryOpen occurs when opening a query while another one
	// is open.
	ErrQueryOpen = errors.New("already executing a query")

	// ErrNoQuery occurs when an operation needs an open query and
	// there isn't one.
	ErrNoQuery = errors.New("no current query")

	// ErrNotInitialised occurs when the engine is used before
	// Initialise.
	ErrNotInitialised = errors.New("engine not initialised")

	// ErrQueryClosed occurs when using a query that is no longer
	// the engine's current query.
	ErrQueryClosed = errors.New("query closed")
)

// Exception is an engine exception term as a Go error.
type Exception struct {
	Term term.Term
}

func (e *Exception) Error() string {
	return "unhandled exception: " + syntax.Writeq(e.Term)
}

// Throw makes an Exception from a snapshot of the ball so that it
// survives the undoing of bindings.
func Throw(ball term.Term) *Exception {
	return &Exception{Term: match.Copy(match.Snapshot(ball), nil)}
}

// UnknownProcedure is a convenience for tests and tools that want to
// recognize existence errors for procedures.
func UnknownProcedure(err error) (term.Indicator, bool) {
	var ex *Exception
	if !errors.As(err, &ex) {
		return term.Indicator{}, false
	}
	e, is := ex.Term.(*term.Compound)
	if !is || e.Functor != "error" || len(e.Args) != 2 {
		return term.Indicator{}, false
	}
	f, is := term.Resolve(e.Args[0]).(*term.Compound)
	if !is || f.Functor != "existence_error" || len(f.Args) != 2 || term.Resolve(f.Args[0]) != term.Atom("procedure") {
		return term.Indicator{}, false
	}
	pi, ok := indicatorOf(f.Args[1])
	return pi, ok
}

func isoError(formal term.Term) *Exception {
	return &Exception{Term: term.Atom("error").Of(formal, term.NewVariable())}
}

// InstantiationError is error(instantiation_error, _).
func InstantiationError() *Exception {
	return isoError(term.Atom("instantiation_error"))
}

// TypeError is error(type_error(Type, Culprit), _).
func TypeError(typ string, culprit term.Term) *Exception {
	return isoError(term.Atom("type_error").Of(term.Atom(typ), match.Snapshot(culprit)))
}

// DomainError is error(domain_error(Domain, Culprit), _).
func DomainError(domain string, culprit term.Term) *Exception {
	return isoError(term.Atom("domain_error").Of(term.Atom(domain), match.Snapshot(culprit)))
}

// ExistenceError is error(existence_error(Kind, Culprit), _).
func ExistenceError(kind string, culprit term.Term) *Exception {
	return isoError(term.Atom("existence_error").Of(term.Atom(kind), match.Snapshot(culprit)))
}

// PermissionError is error(permission_error(Action, Type, Culprit), _).
func PermissionError(action, typ string, culprit term.Term) *Exception {
	return isoError(term.Atom("permission_error").Of(term.Atom(action), term.Atom(typ), match.Snapshot(culprit)))
}

// RepresentationError is error(representation_error(What), _).
func RepresentationError(what string) *Exception {
	return isoError(term.Atom("representation_error").Of(term.Atom(what)))
}

// EvaluationError is error(evaluation_error(What), _).
func EvaluationError(what string) *Exception {
	return isoError(term.Atom("evaluation_error").Of(term.Atom(what)))
}

// ResourceError is error(resource_error(What), _).
func ResourceError(what string) *Exception {
	return isoError(term.Atom("resource_error").Of(term.Atom(what)))
}

// SyntaxError wraps a reader error as error(syntax_error(Msg), _).
func SyntaxError(err error) *Exception {
	msg := err.Error()
	var se *syntax.SyntaxError
	if errors.As(err, &se) {
		msg = se.Msg
	}
	return isoError(term.Atom("syntax_error").Of(term.Atom(msg)))
}

// SystemError turns a Go error into an exception.
func SystemError(err error) *Exception {
	return isoError(term.Atom("system_error").Of(term.String(err.Error())))
}

// asException turns any error into an exception term.
func asException(err error) *Exception {
	var ex *Exception
	if errors.As(err, &ex) {
		return ex
	}
	return SystemError(err)
}

// halt is thrown by halt/0,1 and is not caught by catch/3.
func haltBall(code int64) term.Term {
	return term.Atom("unwind").Of(term.Atom("halt").Of(term.Integer(code)))
}

func isHalt(ball term.Term) (int64, bool) {
	u, is := term.Resolve(ball).(*term.Compound)
	if !is || u.Functor != "unwind" || len(u.Args) != 1 {
		return 0, false
	}
	h, is := term.Resolve(u.Args[0]).(*term.Compound)
	if !is || h.Functor != "halt" || len(h.Args) != 1 {
		return 0, false
	}
	n, is := term.Resolve(h.Args[0]).(term.Integer)
	return int64(n), is
}

// HaltError reports that the program called halt/1.
type HaltError struct {
	Code int64
}

func (e *HaltError) Error() string {
	return fmt.Sprintf("halt(%d)", e.Code)
}
