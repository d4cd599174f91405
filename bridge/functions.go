package bridge

import (
	"github.com/Comcast/sweep/lisp"
)

// Feature is what a host provides once the functions are registered.
const Feature = "sweep-module"

// Variadic is Function.MaxArgs for functions that take any number
// of arguments.
const Variadic = -1

// Function describes one host-callable function.
type Function struct {
	Name    string
	MinArgs int
	MaxArgs int
	Doc     string
	Call    func(b *Bridge, args []lisp.Value) (lisp.Value, error)
}

// Functions are the functions a host registers.
var Functions = []*Function{
	{
		Name:    "sweep-initialize",
		MinArgs: 1,
		MaxArgs: Variadic,
		Doc: `Initialize Prolog.
ARG1 is passed as argv[0] to the engine's initialisation.
REST is passed as the rest of the command line arguments to Prolog.`,
		Call: func(b *Bridge, args []lisp.Value) (lisp.Value, error) {
			return b.Initialize(args)
		},
	},
	{
		Name: "sweep-initialized-p",
		Doc:  "Return t if Prolog is initialized, else return nil.",
		Call: func(b *Bridge, args []lisp.Value) (lisp.Value, error) {
			return b.IsInitialized(), nil
		},
	},
	{
		Name:    "sweep-open-query",
		MinArgs: 4,
		MaxArgs: 4,
		Doc: `Query Prolog.
ARG1 is a string denoting the context module for the query.
ARG2 and ARG3 are strings designating the module and predicate name of the Prolog predicate to invoke, which must be of arity 2.
ARG4 is any object that can be converted to a Prolog term, and will be passed as the first argument of the invoked predicate.
The second argument of the predicate is left unbound and is assumed to be treated by the invoked predicate as an output variable.
Further instantiations of the output variable can be examined via ` + "`sweep-next-solution'.",
		Call: func(b *Bridge, args []lisp.Value) (lisp.Value, error) {
			return b.OpenQuery(args)
		},
	},
	{
		Name: "sweep-next-solution",
		Doc: `Return the next solution from Prolog, or nil if there are none.
See also ` + "`sweep-open-query'.",
		Call: func(b *Bridge, args []lisp.Value) (lisp.Value, error) {
			return b.NextSolution()
		},
	},
	{
		Name: "sweep-cut-query",
		Doc: `Finalize the current Prolog query.
This function retains the current instantiation of the query variables.`,
		Call: func(b *Bridge, args []lisp.Value) (lisp.Value, error) {
			return b.CutQuery()
		},
	},
	{
		Name: "sweep-close-query",
		Doc: `Finalize the current Prolog query.
This function drops the current instantiation of the query variables.`,
		Call: func(b *Bridge, args []lisp.Value) (lisp.Value, error) {
			return b.CloseQuery()
		},
	},
	{
		Name: "sweep-cleanup",
		Doc:  "Cleanup Prolog.",
		Call: func(b *Bridge, args []lisp.Value) (lisp.Value, error) {
			return b.Cleanup(), nil
		},
	},
}

// Lookup finds a function by name.
func Lookup(name string) (*Function, bool) {
	for _, f := range Functions {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// Call calls the named function after checking the argument count.
func (b *Bridge) Call(name string, args []lisp.Value) (lisp.Value, error) {
	f, have := Lookup(name)
	if !have {
		return nil, &lisp.Signal{Symbol: "void-function", Data: lisp.List(lisp.Intern(name))}
	}
	if len(args) < f.MinArgs || (f.MaxArgs != Variadic && f.MaxArgs < len(args)) {
		return nil, wrongNumberOfArguments(name, len(args))
	}
	return f.Call(b, args)
}

func wrongNumberOfArguments(name string, n int) error {
	return &lisp.Signal{
		Symbol: "wrong-number-of-arguments",
		Data:   lisp.List(lisp.Intern(name), lisp.Integer(n)),
	}
}
