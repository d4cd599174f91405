package bridge

import (
	"context"
	"fmt"

	"github.com/Comcast/sweep/lisp"
)

// Bindings are host variables that persist from one evaluation to
// the next.
type Bindings map[string]lisp.Value

// Copy makes a shallow copy.  Values are immutable.
func (bs Bindings) Copy() Bindings {
	acc := make(Bindings, len(bs))
	for k, v := range bs {
		acc[k] = v
	}
	return acc
}

// Execution is the result of evaluating host code.
type Execution struct {
	// Value is the value of the code.
	Value lisp.Value

	// Bs are the bindings after evaluation.
	Bs Bindings

	// Messages are what the code logged, in order.
	Messages []string
}

// NewExecution makes an Execution starting with the given bindings.
func NewExecution(bs Bindings) *Execution {
	if bs == nil {
		bs = make(Bindings)
	}
	return &Execution{
		Value: lisp.Nil,
		Bs:    bs,
	}
}

// AddMessage records a message.
func (e *Execution) AddMessage(msg string) {
	e.Messages = append(e.Messages, msg)
}

// Interpreter evaluates host source code that calls the bridge's
// functions.
type Interpreter interface {
	// Compile parses the code.  The result goes to Exec.
	Compile(ctx context.Context, src string) (interface{}, error)

	// Exec runs the code against b.  With a nil compiled, Exec
	// compiles src first.  Exec does not modify bs.
	Exec(ctx context.Context, b *Bridge, bs Bindings, src string, compiled interface{}) (*Execution, error)
}

// InterpretersMap names interpreters.
type InterpretersMap map[string]Interpreter

// NewInterpretersMap makes an empty InterpretersMap.
func NewInterpretersMap() InterpretersMap {
	return make(InterpretersMap)
}

// Find returns the named interpreter.
func (m InterpretersMap) Find(name string) (Interpreter, error) {
	i, have := m[name]
	if !have {
		return nil, fmt.Errorf("unknown interpreter %q", name)
	}
	return i, nil
}
