// Package goja is a JavaScript host for the bridge using Goja, which
// is a Go implementation of ECMAScript 5.1+.
//
// See https://github.com/dop251/goja.
package goja

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"math"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/Comcast/sweep/bridge"
	"github.com/Comcast/sweep/lisp"

	"github.com/dop251/goja"
)

var (
	// InterruptedMessage is the string value of Interrupted.
	InterruptedMessage = "RuntimeError: timeout"

	// Interrupted is returned by Exec if the execution is
	// interrupted.
	Interrupted = errors.New(InterruptedMessage)
)

// Interpreter implements bridge.Interpreter using Goja.
type Interpreter struct {

	// Testing is used to expose or hide some runtime
	// capabilities.
	Testing bool

	// LibraryProvider resolves the names given to top-level
	// require() calls.  When nil, DefaultLibraryProvider is used.
	LibraryProvider func(ctx context.Context, i *Interpreter, libraryName string) (string, error)
}

// NewInterpreter makes a new Interpreter.
func NewInterpreter() *Interpreter {
	return &Interpreter{}
}

// ProvideLibrary resolves the library name into source code.
func (i *Interpreter) ProvideLibrary(ctx context.Context, name string) (string, error) {
	if i.LibraryProvider != nil {
		return i.LibraryProvider(ctx, i, name)
	}
	return DefaultLibraryProvider(ctx, i, name)
}

var DefaultLibraryProvider = MakeFileLibraryProvider(".")

// MakeFileLibraryProvider makes a provider for names that are URLs
// with protocols of "file", "http", and "https".  File names are
// relative to dir.  There currently is no additional control when
// using HTTP/HTTPS.
func MakeFileLibraryProvider(dir string) func(context.Context, *Interpreter, string) (string, error) {
	return func(ctx context.Context, i *Interpreter, name string) (string, error) {
		parts := strings.SplitN(name, "://", 2)
		if 2 != len(parts) {
			return "", fmt.Errorf("bad link '%s'", name)
		}
		switch parts[0] {
		case "file":
			filename := filepath.Clean("/" + parts[1])
			bs, err := ioutil.ReadFile(filepath.Join(dir, filename))
			if err != nil {
				return "", err
			}
			return string(bs), nil
		case "http", "https":
			req, err := http.NewRequest("GET", name, nil)
			if err != nil {
				return "", err
			}
			req = req.WithContext(ctx)
			client := http.Client{}
			resp, err := client.Do(req)
			if err != nil {
				return "", err
			}
			defer resp.Body.Close()
			switch resp.StatusCode {
			case http.StatusOK:
				bs, err := ioutil.ReadAll(resp.Body)
				if err != nil {
					return "", err
				}
				return string(bs), nil
			default:
				return "", fmt.Errorf("library fetch status %s %d",
					resp.Status, resp.StatusCode)
			}
		default:
			return "", fmt.Errorf("unknown protocol '%s'", parts[0])
		}
	}
}

// MakeMapLibraryProvider makes a provider that looks up names in
// srcs.
func MakeMapLibraryProvider(srcs map[string]string) func(context.Context, *Interpreter, string) (string, error) {
	return func(ctx context.Context, i *Interpreter, name string) (string, error) {
		src, have := srcs[name]
		if !have {
			return "", fmt.Errorf("undefined library '%s'", name)
		}
		return src, nil
	}
}

// Compile calls goja.Compile after calling InlineRequires.
//
// This method can block if the interpreter's library provider blocks
// in order to obtain external libraries.
func (i *Interpreter) Compile(ctx context.Context, src string) (interface{}, error) {
	code, err := InlineRequires(ctx, src, i.ProvideLibrary)
	if err != nil {
		return nil, err
	}

	obj, err := goja.Compile("", code, true)
	if err != nil {
		return nil, err
	}

	return obj, nil
}

// jsFunctions maps the properties of the sweep object to the
// bridge's functions.
var jsFunctions = map[string]string{
	"initialize":   "sweep-initialize",
	"initialized":  "sweep-initialized-p",
	"openQuery":    "sweep-open-query",
	"nextSolution": "sweep-next-solution",
	"cutQuery":     "sweep-cut-query",
	"closeQuery":   "sweep-close-query",
	"cleanup":      "sweep-cleanup",
}

// protest throws a JavaScript exception.
func protest(o *goja.Runtime, x interface{}) {
	panic(o.ToValue(x))
}

// signalObject is how a signal appears in JavaScript.
func signalObject(s *lisp.Signal) map[string]interface{} {
	return map[string]interface{}{
		"symbol": string(s.Symbol),
		"data":   FromValue(s.Data),
	}
}

// Exec implements the Interpreter method of the same name.
//
// The value of the execution is the completion value of the program.
//
// The runtime has a "sweep" object with these functions:
//
//	openQuery(ctx, module, name, input)
//	nextSolution()
//	cutQuery()
//	closeQuery()
//	initialized()
//	initialize(argv0, ...args)
//	cleanup()
//
// A signal from one of them is thrown as {symbol: S, data: D}.  An
// uncaught one comes back from Exec as a *lisp.Signal.
//
// The following properties are available from the runtime at _.
//
//	bindings: the map of the current bindings.  Assignments persist.
//	log(x): Add the given value, as JSON, to the execution's messages.
//
// The Testing flag must be set to see sleep(ms).
func (i *Interpreter) Exec(ctx context.Context, b *bridge.Bridge, bs bridge.Bindings, src string, compiled interface{}) (*bridge.Execution, error) {
	exe := bridge.NewExecution(nil)

	var p *goja.Program
	if compiled == nil {
		var err error
		if compiled, err = i.Compile(ctx, src); err != nil {
			return exe, err
		}
	}
	var is bool
	if p, is = compiled.(*goja.Program); !is {
		return exe, fmt.Errorf("Goja bad compilation: %T %#v", compiled, compiled)
	}

	bindings := make(map[string]interface{}, len(bs))
	for k, v := range bs {
		bindings[k] = FromValue(v)
	}

	env := map[string]interface{}{
		"bindings": bindings,
	}

	o := goja.New()

	o.Set("_", env)

	if i.Testing {
		o.Set("sleep", func(ms int) {
			time.Sleep(time.Duration(ms) * time.Millisecond)
		})
	}

	env["log"] = func(x interface{}) interface{} {
		switch vv := x.(type) {
		case goja.Value:
			x = vv.Export()
		}
		js, err := json.Marshal(&x)
		if err != nil {
			protest(o, "can't marshal: "+err.Error())
		}
		exe.AddMessage(string(js))
		return x
	}

	sweep := make(map[string]interface{}, len(jsFunctions))
	for prop, name := range jsFunctions {
		name := name
		sweep[prop] = func(call goja.FunctionCall) goja.Value {
			args := make([]lisp.Value, len(call.Arguments))
			for j, arg := range call.Arguments {
				v, err := ToValue(arg.Export())
				if err != nil {
					protest(o, signalObject(lisp.Errorf("%s", err.Error())))
				}
				args[j] = v
			}
			v, err := b.Call(name, args)
			if err != nil {
				var s *lisp.Signal
				if !errors.As(err, &s) {
					s = lisp.Errorf("%s", err.Error())
				}
				protest(o, signalObject(s))
			}
			return o.ToValue(FromValue(v))
		}
	}
	o.Set("sweep", sweep)

	// We want to make sure that the following goroutine is
	// terminated as soon as possible.
	ictx, cancel := context.WithCancel(ctx)
	go func() {
		<-ictx.Done()
		// If this Exec method calls cancel() after RunProgram
		// returns, then we'll never see this
		// InterruptedMessage, which is actually the behavior
		// we want.  In this case, we weren't actually interrupted.
		o.Interrupt(InterruptedMessage)
	}()
	stop := b.Engine().InterruptOnDone(ictx)

	v, err := o.RunProgram(p)
	stop()
	cancel()

	if err != nil {
		switch vv := err.(type) {
		case *goja.InterruptedError:
			return exe, Interrupted
		case *goja.Exception:
			if s, is := asSignal(vv.Value().Export()); is {
				return exe, s
			}
		}
		return exe, err
	}

	if exe.Value, err = ToValue(v.Export()); err != nil {
		return exe, err
	}

	for k, x := range bindings {
		if x, is := x.(goja.Value); is {
			bindings[k] = x.Export()
		}
		v, err := ToValue(bindings[k])
		if err != nil {
			return exe, fmt.Errorf("binding %s: %w", k, err)
		}
		exe.Bs[k] = v
	}

	return exe, nil
}

// asSignal recognizes a thrown {symbol, data} object.
func asSignal(x interface{}) (*lisp.Signal, bool) {
	m, is := x.(map[string]interface{})
	if !is {
		return nil, false
	}
	sym, is := m["symbol"].(string)
	if !is {
		return nil, false
	}
	if _, have := m["data"]; !have {
		return nil, false
	}
	data, err := ToValue(m["data"])
	if err != nil {
		return nil, false
	}
	return &lisp.Signal{Symbol: lisp.Intern(sym), Data: data}, true
}

// ToValue converts an exported JavaScript value to a host value.
//
//	null, undefined, false  -> nil
//	true                    -> t
//	string                  -> string
//	integral number         -> integer
//	other number            -> float
//	array                   -> proper list
//	{car: A, cdr: D}        -> cons
//	{symbol: "name"}        -> symbol
//	{vector: [...]}         -> vector
func ToValue(x interface{}) (lisp.Value, error) {
	switch vv := x.(type) {
	case nil:
		return lisp.Nil, nil
	case bool:
		return lisp.Bool(vv), nil
	case string:
		return lisp.String(vv), nil
	case int:
		return lisp.Integer(vv), nil
	case int64:
		return lisp.Integer(vv), nil
	case float64:
		if vv == math.Trunc(vv) && math.Abs(vv) < 1<<53 {
			return lisp.Integer(int64(vv)), nil
		}
		return lisp.Float(vv), nil
	case []interface{}:
		vals := make([]lisp.Value, len(vv))
		for i, y := range vv {
			v, err := ToValue(y)
			if err != nil {
				return nil, err
			}
			vals[i] = v
		}
		return lisp.List(vals...), nil
	case map[string]interface{}:
		if s, is := vv["symbol"].(string); is && len(vv) == 1 {
			return lisp.Intern(s), nil
		}
		if items, is := vv["vector"].([]interface{}); is && len(vv) == 1 {
			l, err := ToValue(items)
			if err != nil {
				return nil, err
			}
			xs, _ := lisp.ToSlice(l)
			return &lisp.Vector{Items: xs}, nil
		}
		car, haveCar := vv["car"]
		cdr, haveCdr := vv["cdr"]
		if haveCar && haveCdr && len(vv) == 2 {
			a, err := ToValue(car)
			if err != nil {
				return nil, err
			}
			d, err := ToValue(cdr)
			if err != nil {
				return nil, err
			}
			return lisp.NewCons(a, d), nil
		}
		return nil, fmt.Errorf("no host value for object %v", vv)
	}
	return nil, fmt.Errorf("no host value for %T", x)
}

// FromValue converts a host value to something Goja can represent.
// It is the inverse of ToValue.
func FromValue(v lisp.Value) interface{} {
	switch vv := v.(type) {
	case nil:
		return nil
	case lisp.Symbol:
		switch vv {
		case lisp.Nil:
			return nil
		case lisp.T:
			return true
		}
		return map[string]interface{}{"symbol": string(vv)}
	case lisp.String:
		return string(vv)
	case lisp.Integer:
		return int64(vv)
	case lisp.Float:
		return float64(vv)
	case *lisp.Vector:
		acc := make([]interface{}, len(vv.Items))
		for i, x := range vv.Items {
			acc[i] = FromValue(x)
		}
		return map[string]interface{}{"vector": acc}
	case *lisp.Cons:
		xs, tail := lisp.ToSlice(vv)
		if lisp.IsNil(tail) {
			acc := make([]interface{}, len(xs))
			for i, x := range xs {
				acc[i] = FromValue(x)
			}
			return acc
		}
		return map[string]interface{}{
			"car": FromValue(vv.Car),
			"cdr": FromValue(vv.Cdr),
		}
	}
	return nil
}
