/* Copyright 2018 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package match

import (
	"testing"

	. "github.com/Comcast/sweep/term"
)

func TestUnifyBindsAndUndoes(t *testing.T) {
	x, y := NewVariable(), NewVariable()
	tr := NewTrail()
	a := Atom("f").Of(x, Atom("b"))
	b := Atom("f").Of(Atom("a"), y)
	if !Unify(tr, a, b) {
		t.Fatal("should unify")
	}
	if Resolve(x) != Atom("a") || Resolve(y) != Atom("b") {
		t.Fatal(Format(a))
	}
	tr.Undo(0)
	if x.Bound() || y.Bound() {
		t.Fatal("bindings survived undo")
	}
	if tr.Len() != 0 {
		t.Fatal(tr.Len())
	}
}

func TestUnifyFailures(t *testing.T) {
	tests := []struct {
		x, y Term
	}{
		{Atom("a"), Atom("b")},
		{Atom("a"), String("a")},
		{Integer(1), Float(1)},
		{EmptyList, Atom("[]")},
		{Atom("f").Of(Integer(1)), Atom("f").Of(Integer(1), Integer(2))},
		{List(Integer(1)), List(Integer(1), Integer(2))},
	}
	for _, test := range tests {
		if Unify(NewTrail(), test.x, test.y) {
			t.Fatalf("%s = %s should fail", Format(test.x), Format(test.y))
		}
	}
}

func TestUnifyLongList(t *testing.T) {
	n := 100000
	xs := make([]Term, n)
	ys := make([]Term, n)
	for i := range xs {
		xs[i] = Integer(i)
		ys[i] = NewVariable()
	}
	tr := NewTrail()
	if !Unify(tr, List(xs...), List(ys...)) {
		t.Fatal("should unify")
	}
	if Resolve(ys[n-1]) != Integer(n-1) {
		t.Fatal(Resolve(ys[n-1]))
	}
}

func TestOccursCheck(t *testing.T) {
	x := NewVariable()
	m := &Matcher{OccursCheck: true}
	if m.Unify(NewTrail(), x, Atom("f").Of(x)) {
		t.Fatal("occurs check failed")
	}
}

func TestTrailPush(t *testing.T) {
	tr := NewTrail()
	n := 0
	tr.Push(func() { n++ })
	mark := tr.Mark()
	tr.Push(func() { n += 10 })
	tr.Undo(mark)
	if n != 10 {
		t.Fatal(n)
	}
	tr.Undo(0)
	if n != 11 {
		t.Fatal(n)
	}
}

func TestCopyAndVariant(t *testing.T) {
	x, y := NewVariable(), NewVariable()
	a := Atom("f").Of(x, y, x)
	c := Copy(a, nil)
	if !Variant(a, c) {
		t.Fatal("copy is not a variant")
	}
	if Compare(a, c) == 0 {
		t.Fatal("copy shares variables")
	}
	if Variant(a, Atom("f").Of(x, y, y)) {
		t.Fatal("f(X,Y,X) is not a variant of f(X,Y,Y)")
	}
	if Variant(Atom("f").Of(x, y), Atom("f").Of(x, x)) {
		t.Fatal("f(X,Y) is not a variant of f(X,X)")
	}
}

func TestSubsumes(t *testing.T) {
	x, y, z := NewVariable(), NewVariable(), NewVariable()
	if !Subsumes(Atom("f").Of(x, y), Atom("f").Of(z, z)) {
		t.Fatal("f(X,Y) subsumes f(Z,Z)")
	}
	if Subsumes(Atom("f").Of(z, z), Atom("f").Of(x, y)) {
		t.Fatal("f(Z,Z) does not subsume f(X,Y)")
	}
	if Subsumes(Atom("a"), x) {
		t.Fatal("a does not subsume X")
	}
	if x.Bound() || y.Bound() || z.Bound() {
		t.Fatal("subsumes left bindings")
	}
}

func TestVarsAndGround(t *testing.T) {
	x, y := NewVariable(), NewVariable()
	vs := Vars(Atom("f").Of(y, x, y))
	if len(vs) != 2 || vs[0] != y || vs[1] != x {
		t.Fatal(vs)
	}
	if Ground(Atom("f").Of(x)) {
		t.Fatal("not ground")
	}
	if !Ground(Atom("f").Of(List(Atom("a")))) {
		t.Fatal("ground")
	}
}

func TestBindingsResolved(t *testing.T) {
	x := NewVariable()
	tr := NewTrail()
	bs := NewBindings().Extend("X", x).Extend("_Y", Atom("b"))
	Unify(tr, x, Atom("a"))
	r := bs.Resolved()
	tr.Undo(0)
	if len(r) != 1 || r["X"] != Atom("a") {
		t.Fatal(r)
	}
}

func TestTrailFloor(t *testing.T) {
	old := NewVariable()
	tr := NewTrail()
	tr.Floor = VariableCount()
	young := NewVariable()
	tr.Bind(old, Atom("a"))
	tr.Bind(young, Atom("b"))
	if tr.Len() != 1 {
		t.Fatal(tr.Len())
	}
	other := NewTrail()
	x := NewVariable()
	other.Bind(x, Atom("c"))
	tr.Adopt(other)
	tr.Undo(0)
	if old.Bound() || x.Bound() {
		t.Fatal("not undone")
	}
	if !young.Bound() {
		t.Fatal("young binding should not be recorded")
	}
}

func TestUnifyCyclic(t *testing.T) {
	x, y := NewVariable(), NewVariable()
	tr := NewTrail()
	if !Unify(tr, x, Atom("f").Of(x)) {
		t.Fatal("X = f(X) should unify without the occurs check")
	}
	if !Unify(tr, y, Atom("f").Of(y)) {
		t.Fatal("Y = f(Y) should unify")
	}
	if !Unify(tr, x, y) {
		t.Fatal("X = Y should unify")
	}
	if !Variant(x, y) {
		t.Fatal("X and Y should be variants")
	}

	z := NewVariable()
	if !Unify(tr, z, Atom("f").Of(Atom("f").Of(z), Atom("a"))) {
		t.Fatal("Z = f(f(Z), a) should unify")
	}
	if Unify(tr, x, z) {
		t.Fatal("X = Z should fail")
	}

	l, m := NewVariable(), NewVariable()
	if !Unify(tr, l, NewPair(Atom("a"), l)) || !Unify(tr, m, NewPair(Atom("a"), m)) {
		t.Fatal("cyclic lists should be made")
	}
	if !Unify(tr, l, m) {
		t.Fatal("[a|L] = [a|M] should unify")
	}
	if Vars(l) != nil || !Ground(l) {
		t.Fatal("cyclic list should be ground")
	}

	tr.Undo(0)
	if x.Bound() || l.Bound() {
		t.Fatal("undo should unbind")
	}
}

func TestCopyCyclic(t *testing.T) {
	x := NewVariable()
	tr := NewTrail()
	y := NewVariable()
	c := Atom("f").Of(x, y)
	if !Unify(tr, x, c) {
		t.Fatal("X = f(X, Y) should unify")
	}

	renaming := make(map[*Variable]Term)
	cp := Copy(c, renaming)
	if !Variant(c, cp) {
		t.Fatal("copy should be a variant")
	}
	if _, have := renaming[y]; !have {
		t.Fatal("Y should be renamed")
	}
	if Compare(Snapshot(c), c) != 0 {
		t.Fatal("snapshot should equal the original")
	}

	l := NewVariable()
	if !Unify(tr, l, NewPair(Atom("a"), NewPair(Atom("b"), l))) {
		t.Fatal("L = [a,b|L] should unify")
	}
	if Compare(Snapshot(l), l) != 0 {
		t.Fatal("list snapshot should equal the original")
	}
}
