package bridge

import (
	"errors"

	"github.com/Comcast/sweep/core"
	"github.com/Comcast/sweep/lisp"
)

var (
	// ErrNoQuery occurs when an operation needs an open query and
	// there isn't one.
	ErrNoQuery = errors.New("No current query")

	// ErrQueryOpen occurs when a query is opened while another is
	// still open.
	ErrQueryOpen = errors.New("Prolog is already executing a query")
)

// signal turns a Go error into the host condition the call surface
// raises.  Signals pass through unchanged.
func signal(err error) error {
	if err == nil {
		return nil
	}
	var (
		s  *lisp.Signal
		ce *ConversionError
		wt *lisp.WrongType
	)
	switch {
	case errors.As(err, &s):
		return s
	case errors.As(err, &ce):
		return ce.Signal()
	case errors.As(err, &wt):
		return wt.Signal()
	case errors.Is(err, core.ErrQueryOpen), errors.Is(err, ErrQueryOpen):
		return lisp.Errorf("%s", ErrQueryOpen.Error())
	case errors.Is(err, core.ErrQueryClosed), errors.Is(err, ErrNoQuery):
		return lisp.Errorf("%s", ErrNoQuery.Error())
	}
	return lisp.Errorf("%s", err.Error())
}

// exceptionValue is the host form of an engine exception.
func exceptionValue(env lisp.Env, err error) (lisp.Value, bool) {
	var ex *core.Exception
	if !errors.As(err, &ex) {
		return nil, false
	}
	return TermToValue(env, ex.Term), true
}
