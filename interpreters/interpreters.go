// Package interpreters collects the host interpreters.
package interpreters

import (
	"github.com/Comcast/sweep/bridge"
	"github.com/Comcast/sweep/interpreters/elisp"
	"github.com/Comcast/sweep/interpreters/goja"
	"github.com/Comcast/sweep/interpreters/noop"
)

// Standard returns the interpreters by the names a configuration
// can use.
func Standard() bridge.InterpretersMap {
	is := bridge.NewInterpretersMap()

	l := elisp.NewInterpreter()
	is["lisp"] = l
	is["elisp"] = l

	js := goja.NewInterpreter()
	is["js"] = js
	is["goja"] = js
	is["ecmascript"] = js

	is["noop"] = noop.NewInterpreter()

	return is
}
