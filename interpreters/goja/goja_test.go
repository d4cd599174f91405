package goja

import (
	"context"
	"errors"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/Comcast/sweep/bridge"
	"github.com/Comcast/sweep/core"
	"github.com/Comcast/sweep/lisp"

	"github.com/google/go-cmp/cmp"
)

const program = `
likes(_, X) :- member(X, [tea, toast]).
`

func newBridge(t *testing.T) *bridge.Bridge {
	t.Helper()
	e := core.NewEngine()
	if err := e.Initialise([]string{"test"}); err != nil {
		t.Fatal(err)
	}
	if err := e.ConsultString("goja.pl", program); err != nil {
		t.Fatal(err)
	}
	return bridge.New(e, nil)
}

func run(t *testing.T, i *Interpreter, bs bridge.Bindings, code string) *bridge.Execution {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	compiled, err := i.Compile(ctx, code)
	if err != nil {
		t.Fatal(err)
	}
	exe, err := i.Exec(ctx, newBridge(t), bs, code, compiled)
	if err != nil {
		t.Fatal(err)
	}
	return exe
}

func TestActionsSimple(t *testing.T) {
	exe := run(t, NewInterpreter(), nil, `({likes:"chips"}).likes;`)
	if !lisp.Equal(exe.Value, lisp.String("chips")) {
		t.Fatal(lisp.Print(exe.Value))
	}
}

func TestActionsBindings(t *testing.T) {
	bs := bridge.Bindings{"n": lisp.Integer(1)}
	exe := run(t, NewInterpreter(), bs, `_.bindings.n = _.bindings.n + 1; _.bindings.s = "x"; null;`)
	if !lisp.Equal(exe.Bs["n"], lisp.Integer(2)) {
		t.Fatal(exe.Bs)
	}
	if !lisp.Equal(exe.Bs["s"], lisp.String("x")) {
		t.Fatal(exe.Bs)
	}
	if !lisp.Equal(bs["n"], lisp.Integer(1)) {
		t.Fatal("input bindings modified")
	}
	if !lisp.IsNil(exe.Value) {
		t.Fatal(lisp.Print(exe.Value))
	}
}

func TestActionsQuery(t *testing.T) {
	code := `
sweep.openQuery("user", "user", "likes", "sam");
var acc = [];
for (var s = sweep.nextSolution(); s !== null; s = sweep.nextSolution()) {
  acc.push(s.cdr.cdr);
}
sweep.closeQuery();
acc;
`
	exe := run(t, NewInterpreter(), nil, code)
	want := lisp.List(lisp.String("tea"), lisp.String("toast"))
	if !lisp.Equal(exe.Value, want) {
		t.Fatal(lisp.Print(exe.Value))
	}
}

func TestActionsInitialized(t *testing.T) {
	exe := run(t, NewInterpreter(), nil, `sweep.initialized();`)
	if exe.Value != lisp.T {
		t.Fatal(lisp.Print(exe.Value))
	}
}

func TestActionsSignal(t *testing.T) {
	ctx := context.Background()
	i := NewInterpreter()
	_, err := i.Exec(ctx, newBridge(t), nil, `sweep.nextSolution();`, nil)
	var s *lisp.Signal
	if !errors.As(err, &s) {
		t.Fatalf("%v (%T) isn't a signal", err, err)
	}
	if s.Symbol != "error" || s.Error() != "No current query" {
		t.Fatal(s)
	}
}

func TestActionsCatchSignal(t *testing.T) {
	code := `
var r = "none";
try {
  sweep.openQuery("user", "user", "likes");
} catch (e) {
  r = e.symbol;
}
r;
`
	exe := run(t, NewInterpreter(), nil, code)
	if !lisp.Equal(exe.Value, lisp.String("wrong-number-of-arguments")) {
		t.Fatal(lisp.Print(exe.Value))
	}
}

func TestActionsThrownSignal(t *testing.T) {
	i := NewInterpreter()
	_, err := i.Exec(context.Background(), newBridge(t), nil, `throw {symbol: "my-error", data: [1, "x"]};`, nil)
	var s *lisp.Signal
	if !errors.As(err, &s) {
		t.Fatalf("%v (%T) isn't a signal", err, err)
	}
	if s.Symbol != "my-error" || !lisp.Equal(s.Data, lisp.List(lisp.Integer(1), lisp.String("x"))) {
		t.Fatal(s)
	}
}

func TestActionsTimeout(t *testing.T) {
	code := `for (;;) { sleep(10); } null;`

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	i := NewInterpreter()
	i.Testing = true
	compiled, err := i.Compile(ctx, code)
	if err != nil {
		t.Fatal(err)
	}

	if _, err = i.Exec(ctx, newBridge(t), nil, code, compiled); err == nil {
		t.Fatal("didn't timeout")
	}
	msg := err.Error()
	if msg != InterruptedMessage {
		t.Fatalf("surprised by \"%s\"", msg)
	}
}

func TestActionsError(t *testing.T) {
	code := `likes + tacos; null;`

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	i := NewInterpreter()
	compiled, err := i.Compile(ctx, code)
	if err != nil {
		t.Fatal(err)
	}

	if _, err = i.Exec(ctx, newBridge(t), nil, code, compiled); err == nil {
		t.Fatal("didn't protest")
	}
}

func TestActionsLog(t *testing.T) {
	exe := run(t, NewInterpreter(), nil, `_.log({a: 1}); _.log("x");`)
	if diff := cmp.Diff([]string{`{"a":1}`, `"x"`}, exe.Messages); diff != "" {
		t.Fatal(diff)
	}
}

func TestActionsRequireSimple(t *testing.T) {
	code := `
require("foo");
var x = 1;
require("bar");
foo() + bar();
`

	i := NewInterpreter()
	i.LibraryProvider = MakeMapLibraryProvider(map[string]string{
		"foo": `
function foo() {
  var acc = [];
  for (var i = 0; i < 10; i++) {
      acc.push(i);
  }
  return "chips";
}
`,
		"bar": `
function bar() { return " queso"; }
`,
	})

	exe := run(t, i, nil, code)
	if !lisp.Equal(exe.Value, lisp.String("chips queso")) {
		t.Fatal(lisp.Print(exe.Value))
	}
}

func TestActionsRequireMissing(t *testing.T) {
	i := NewInterpreter()
	i.LibraryProvider = MakeMapLibraryProvider(map[string]string{})
	if _, err := i.Compile(context.Background(), `require("nope");`); err == nil {
		t.Fatal("didn't protest")
	}
}

func TestActionsLibraryCompileError(t *testing.T) {
	i := NewInterpreter()
	i.LibraryProvider = MakeMapLibraryProvider(map[string]string{
		"foo": `
function foo() this cond won't compile { return 0; }
`,
	})
	if _, err := i.Compile(context.Background(), `require("foo");`); err == nil {
		t.Fatal("didn't protest")
	}
}

func TestActionsRequireFile(t *testing.T) {
	dir := t.TempDir()
	if err := ioutil.WriteFile(filepath.Join(dir, "lib.js"), []byte(`function lib() { return 42; }`), 0644); err != nil {
		t.Fatal(err)
	}
	i := NewInterpreter()
	i.LibraryProvider = MakeFileLibraryProvider(dir)
	exe := run(t, i, nil, `require("file://lib.js"); lib();`)
	if !lisp.Equal(exe.Value, lisp.Integer(42)) {
		t.Fatal(lisp.Print(exe.Value))
	}
}

func TestActionsRequireHTTP(t *testing.T) {

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `
function foo() { return "queso"; }
`)
	})

	server := httptest.NewServer(handler)
	defer server.Close()

	code := fmt.Sprintf(`require(%q); foo();`, server.URL)

	exe := run(t, NewInterpreter(), nil, code)
	if !lisp.Equal(exe.Value, lisp.String("queso")) {
		t.Fatal(lisp.Print(exe.Value))
	}
}

func TestConversion(t *testing.T) {
	tests := []struct {
		name string
		v    lisp.Value
	}{
		{"nil", lisp.Nil},
		{"t", lisp.T},
		{"string", lisp.String("héllo")},
		{"integer", lisp.Integer(-3)},
		{"float", lisp.Float(1.5)},
		{"symbol", lisp.Intern("atom")},
		{"list", lisp.List(lisp.Integer(1), lisp.String("a"))},
		{"cons", lisp.NewCons(lisp.Intern("atom"), lisp.String("a"))},
		{"vector", &lisp.Vector{Items: []lisp.Value{lisp.Integer(1)}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToValue(FromValue(tt.v))
			if err != nil {
				t.Fatal(err)
			}
			if !lisp.Equal(got, tt.v) {
				t.Fatalf("got %s; want %s", lisp.Print(got), lisp.Print(tt.v))
			}
		})
	}

	if v, _ := ToValue(float64(2)); !lisp.Equal(v, lisp.Integer(2)) {
		t.Fatal(v)
	}
	if v, _ := ToValue(false); !lisp.IsNil(v) {
		t.Fatal(v)
	}
	if _, err := ToValue(map[string]interface{}{"x": 1}); err == nil {
		t.Fatal("didn't protest")
	}
}

func benchmarkCompiling(b *testing.B, compiling bool) {

	// Pretend we have a large library, but we only do a little
	// actual computation.

	code := `

function radians (num) {
  return num * Math.PI / 180;
}

function haversine (lon1,lat1,lon2,lat2) {
  var R = 6371;
  var dLat = radians(lat2-lat1);
  var dLon = radians(lon2-lon1);
  var lat1 = radians(lat1);
  var lat2 = radians(lat2);
  var a = Math.sin(dLat/2) * Math.sin(dLat/2) + Math.sin(dLon/2) * Math.sin(dLon/2) * Math.cos(lat1) * Math.cos(lat2);
  var c = 2 * Math.atan2(Math.sqrt(a), Math.sqrt(1-a));
  return R * c;
}

function bar() { return "chips"; }

var d = haversine(0,0,1,1);
bar();
`

	e := core.NewEngine()
	if err := e.Initialise([]string{"bench"}); err != nil {
		b.Fatal(err)
	}
	br := bridge.New(e, nil)

	i := NewInterpreter()

	var compiled interface{}
	if compiling {
		var err error
		if compiled, err = i.Compile(context.Background(), code); err != nil {
			b.Fatal(err)
		}
	}

	b.ResetTimer()

	for n := 0; n < b.N; n++ {
		if _, err := i.Exec(context.Background(), br, nil, code, compiled); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkPrecompile(b *testing.B) {
	benchmarkCompiling(b, true)
}

func BenchmarkNoPrecompile(b *testing.B) {
	benchmarkCompiling(b, false)
}
