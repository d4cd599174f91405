// Package noop has an interpreter that evaluates nothing.
package noop

import (
	"context"

	"github.com/Comcast/sweep/bridge"

	"go.uber.org/zap"
)

// Interpreter is a bridge.Interpreter which just returns the bindings
// without modification.
type Interpreter struct {
	// Logger, if not nil, gets a warning for every use.
	Logger *zap.Logger
}

func NewInterpreter() *Interpreter {
	return &Interpreter{}
}

func (i *Interpreter) warn(what string) {
	if i.Logger != nil {
		i.Logger.Warn("using noop interpreter", zap.String("for", what))
	}
}

func (i *Interpreter) Compile(ctx context.Context, code string) (interface{}, error) {
	i.warn("compilation")
	return nil, nil
}

func (i *Interpreter) Exec(ctx context.Context, b *bridge.Bridge, bs bridge.Bindings, code string, compiled interface{}) (*bridge.Execution, error) {
	i.warn("execution")
	return bridge.NewExecution(bs.Copy()), nil
}
