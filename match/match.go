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

// Package match implements unification, the trail that undoes it,
// and the structural helpers (copy, variant, subsumption) that the
// engine builds on.
package match

import (
	"errors"

	. "github.com/Comcast/sweep/term"
)

// Trail records variable bindings (and arbitrary undo actions) so
// that they can be undone on backtracking.
type Trail struct {
	entries []entry

	// Floor, when positive, is the id of the youngest variable
	// whose binding is recorded.  Variables younger than every
	// choicepoint vanish on backtracking, so their bindings need no
	// undoing.
	Floor int64
}

type entry struct {
	v    *Variable
	undo func()
}

// NewTrail makes an empty trail.
func NewTrail() *Trail {
	return &Trail{entries: make([]entry, 0, 64)}
}

// Mark returns the current position, which can be passed to Undo.
func (tr *Trail) Mark() int {
	return len(tr.entries)
}

// Len is the number of entries.
func (tr *Trail) Len() int {
	return len(tr.entries)
}

// Bind binds the variable and records the binding.
func (tr *Trail) Bind(v *Variable, t Term) {
	v.SetRef(t)
	if tr.Floor <= 0 || v.Id() <= tr.Floor {
		tr.entries = append(tr.entries, entry{v: v})
	}
}

// Adopt moves the other trail's entries onto this one, so that
// undoing this trail also undoes them.
func (tr *Trail) Adopt(other *Trail) {
	tr.entries = append(tr.entries, other.entries...)
	other.entries = other.entries[:0]
}

// Push records an action to run when the trail is undone past this
// point.
func (tr *Trail) Push(undo func()) {
	tr.entries = append(tr.entries, entry{undo: undo})
}

// Undo unbinds everything recorded since the mark, most recent
// first.
func (tr *Trail) Undo(mark int) {
	for i := len(tr.entries) - 1; mark <= i; i-- {
		e := tr.entries[i]
		if e.v != nil {
			e.v.SetRef(nil)
		} else if e.undo != nil {
			e.undo()
		}
		tr.entries[i] = entry{}
	}
	if mark < len(tr.entries) {
		tr.entries = tr.entries[:mark]
	}
}

// Matcher holds unification options.
type Matcher struct {
	// OccursCheck makes unification fail rather than create a
	// cyclic term.
	OccursCheck bool
}

var DefaultMatcher = &Matcher{}

// Unify is DefaultMatcher.Unify.
func Unify(tr *Trail, x, y Term) bool {
	return DefaultMatcher.Unify(tr, x, y)
}

// Unify attempts to make x and y equal, recording bindings on the
// trail.  A failed unification can leave partial bindings; the
// caller undoes them to its own mark.
//
// Without the occurs check the result can be cyclic, and unifying two
// cyclic terms ends: a pair of subterms met again is taken to unify.
func (m *Matcher) Unify(tr *Trail, x, y Term) bool {
	var vs Visits
	return m.unify(tr, x, y, &vs)
}

func (m *Matcher) unify(tr *Trail, x, y Term, vs *Visits) bool {
	x, y = Resolve(x), Resolve(y)
	if vx, is := x.(*Variable); is {
		if vy, is := y.(*Variable); is {
			if vx == vy {
				return true
			}
			// Younger variables point at older ones.
			if vx.Id() < vy.Id() {
				tr.Bind(vy, vx)
			} else {
				tr.Bind(vx, vy)
			}
			return true
		}
		if m.OccursCheck && Occurs(vx, y) {
			return false
		}
		tr.Bind(vx, y)
		return true
	}
	if vy, is := y.(*Variable); is {
		if m.OccursCheck && Occurs(vy, x) {
			return false
		}
		tr.Bind(vy, x)
		return true
	}

	switch tx := x.(type) {
	case Atom, String, Integer, Nil:
		return x == y
	case Float:
		ty, is := y.(Float)
		return is && (tx == ty || (tx != tx && ty != ty))
	case *Blob:
		return x == y
	case *Pair:
		ty, is := y.(*Pair)
		if !is {
			return false
		}
		for {
			if vs.Again(tx, ty) {
				return true
			}
			if !m.unify(tr, tx.Head, ty.Head, vs) {
				return false
			}
			a, b := Resolve(tx.Tail), Resolve(ty.Tail)
			pa, isa := a.(*Pair)
			pb, isb := b.(*Pair)
			if !isa || !isb {
				return m.unify(tr, a, b, vs)
			}
			tx, ty = pa, pb
		}
	case *Compound:
		ty, is := y.(*Compound)
		if !is || tx.Functor != ty.Functor || len(tx.Args) != len(ty.Args) {
			return false
		}
		if vs.Again(tx, ty) {
			return true
		}
		for i := range tx.Args {
			if !m.unify(tr, tx.Args[i], ty.Args[i], vs) {
				return false
			}
		}
		return true
	case *Dict:
		ty, is := y.(*Dict)
		if !is || len(tx.Pairs) != len(ty.Pairs) {
			return false
		}
		if vs.Again(tx, ty) {
			return true
		}
		if !m.unify(tr, tx.Tag, ty.Tag, vs) {
			return false
		}
		for i := range tx.Pairs {
			if Compare(tx.Pairs[i].Key, ty.Pairs[i].Key) != 0 {
				return false
			}
			if !m.unify(tr, tx.Pairs[i].Value, ty.Pairs[i].Value, vs) {
				return false
			}
		}
		return true
	}
	return false
}

// Occurs reports whether v appears in t.
func Occurs(v *Variable, t Term) bool {
	found := false
	Walk(t, func(x Term) bool {
		if x == Term(v) {
			found = true
		}
		return !found
	})
	return found
}

// Walk visits every subterm of t (after resolving) in depth-first,
// left-to-right order until f returns false.  Large walks enter each
// structured subterm once, so walks of cyclic terms end.
func Walk(t Term, f func(Term) bool) bool {
	var vs Visits
	return walk(t, f, &vs)
}

func walk(t Term, f func(Term) bool, vs *Visits) bool {
	t = Resolve(t)
	if !f(t) {
		return false
	}
	switch tt := t.(type) {
	case *Pair:
		if vs.Again(tt, nil) {
			return true
		}
		return walk(tt.Head, f, vs) && walk(tt.Tail, f, vs)
	case *Compound:
		if vs.Again(tt, nil) {
			return true
		}
		for _, a := range tt.Args {
			if !walk(a, f, vs) {
				return false
			}
		}
	case *Dict:
		if vs.Again(tt, nil) {
			return true
		}
		if !walk(tt.Tag, f, vs) {
			return false
		}
		for _, p := range tt.Pairs {
			if !walk(p.Value, f, vs) {
				return false
			}
		}
	}
	return true
}

// Vars returns the distinct unbound variables of t in depth-first
// order.
func Vars(t Term) []*Variable {
	var acc []*Variable
	seen := make(map[*Variable]bool)
	Walk(t, func(x Term) bool {
		if v, is := x.(*Variable); is && !seen[v] {
			seen[v] = true
			acc = append(acc, v)
		}
		return true
	})
	return acc
}

// Ground reports whether t has no unbound variables.
func Ground(t Term) bool {
	ground := true
	Walk(t, func(x Term) bool {
		if _, is := x.(*Variable); is {
			ground = false
		}
		return ground
	})
	return ground
}

// Copy makes a copy of t with fresh variables.  Variables already in
// renaming keep the mapping; new ones are added.
func Copy(t Term, renaming map[*Variable]Term) Term {
	if renaming == nil {
		renaming = make(map[*Variable]Term)
	}
	return copyTerm(t, renaming)
}

const copyThreshold = 256

// copier copies terms.  Once a copy is large it remembers the
// structured subterms it has started copying, so a cyclic term gives
// a cyclic copy instead of copying forever.
type copier struct {
	// renaming maps variables to their copies.  Nil keeps
	// variables as they are.
	renaming map[*Variable]Term

	n    int
	done map[Term]Term
}

// seen returns the copy already made of t, if any, and otherwise
// counts t.
func (c *copier) seen(t Term) (Term, bool) {
	if c.done != nil {
		if u, have := c.done[t]; have {
			return u, true
		}
	}
	c.n++
	return nil, false
}

// started records u as the copy of t.
func (c *copier) started(t, u Term) {
	if c.n < copyThreshold {
		return
	}
	if c.done == nil {
		c.done = make(map[Term]Term)
	}
	c.done[t] = u
}

func copyTerm(t Term, renaming map[*Variable]Term) Term {
	c := &copier{renaming: renaming}
	return c.copy(t)
}

func (c *copier) copy(t Term) Term {
	switch tt := Resolve(t).(type) {
	case *Variable:
		if c.renaming == nil {
			return tt
		}
		if v, have := c.renaming[tt]; have {
			return v
		}
		v := NewNamedVariable(tt.Name)
		c.renaming[tt] = v
		return v
	case *Pair:
		if u, have := c.seen(tt); have {
			return u
		}
		head := NewPair(nil, nil)
		c.started(tt, head)
		last := head
		for {
			last.Head = c.copy(tt.Head)
			next, is := Resolve(tt.Tail).(*Pair)
			if !is {
				last.Tail = c.copy(tt.Tail)
				return head
			}
			if u, have := c.seen(next); have {
				last.Tail = u
				return head
			}
			p := NewPair(nil, nil)
			c.started(next, p)
			last.Tail = p
			last, tt = p, next
		}
	case *Compound:
		if u, have := c.seen(tt); have {
			return u
		}
		u := &Compound{Functor: tt.Functor, Args: make([]Term, len(tt.Args))}
		c.started(tt, u)
		for i, a := range tt.Args {
			u.Args[i] = c.copy(a)
		}
		return u
	case *Dict:
		if u, have := c.seen(tt); have {
			return u
		}
		u := &Dict{Pairs: make([]DictPair, len(tt.Pairs))}
		c.started(tt, u)
		u.Tag = c.copy(tt.Tag)
		for i, p := range tt.Pairs {
			u.Pairs[i] = DictPair{Key: p.Key, Value: c.copy(p.Value)}
		}
		return u
	default:
		return tt
	}
}

// Snapshot copies t replacing bound variables by their values, so
// that the result survives backtracking.  Unbound variables are
// kept as they are.
func Snapshot(t Term) Term {
	c := &copier{}
	return c.copy(t)
}

// Variant reports whether x and y are equal up to a consistent
// renaming of variables.
func Variant(x, y Term) bool {
	return variant(x, y, make(map[*Variable]*Variable), make(map[*Variable]*Variable), &Visits{})
}

func variant(x, y Term, fwd, bwd map[*Variable]*Variable, vs *Visits) bool {
	x, y = Resolve(x), Resolve(y)
	switch tx := x.(type) {
	case *Variable:
		ty, is := y.(*Variable)
		if !is {
			return false
		}
		a, hx := fwd[tx]
		b, hy := bwd[ty]
		if !hx && !hy {
			fwd[tx], bwd[ty] = ty, tx
			return true
		}
		return a == ty && b == tx
	case *Pair:
		ty, is := y.(*Pair)
		if is && vs.Again(tx, ty) {
			return true
		}
		return is && variant(tx.Head, ty.Head, fwd, bwd, vs) && variant(tx.Tail, ty.Tail, fwd, bwd, vs)
	case *Compound:
		ty, is := y.(*Compound)
		if !is || tx.Functor != ty.Functor || len(tx.Args) != len(ty.Args) {
			return false
		}
		if vs.Again(tx, ty) {
			return true
		}
		for i := range tx.Args {
			if !variant(tx.Args[i], ty.Args[i], fwd, bwd, vs) {
				return false
			}
		}
		return true
	case *Dict:
		ty, is := y.(*Dict)
		if !is || len(tx.Pairs) != len(ty.Pairs) || !variant(tx.Tag, ty.Tag, fwd, bwd, vs) {
			return false
		}
		for i := range tx.Pairs {
			if Compare(tx.Pairs[i].Key, ty.Pairs[i].Key) != 0 ||
				!variant(tx.Pairs[i].Value, ty.Pairs[i].Value, fwd, bwd, vs) {
				return false
			}
		}
		return true
	}
	if _, is := y.(*Variable); is {
		return false
	}
	return Compare(x, y) == 0
}

// Subsumes reports whether general is at least as general as
// specific (subsumes_term/2).  No bindings survive the call.
func Subsumes(general, specific Term) bool {
	tr := NewTrail()
	defer tr.Undo(0)
	before := Vars(specific)
	if !Unify(tr, general, specific) {
		return false
	}
	seen := make(map[*Variable]bool, len(before))
	for _, v := range before {
		r, is := Resolve(v).(*Variable)
		if !is || seen[r] {
			return false
		}
		seen[r] = true
	}
	return true
}

// Bindings maps source variable names to their values.
type Bindings map[string]Term

// NewBindings makes empty Bindings.
func NewBindings() Bindings {
	return make(Bindings, 8)
}

// Extend adds the binding; modifies and returns the Bindings.
func (bs Bindings) Extend(name string, t Term) Bindings {
	bs[name] = t
	return bs
}

// Extendm adds pairs of names and terms.
func (bs Bindings) Extendm(pairs ...interface{}) (Bindings, error) {
	for i := 0; i < len(pairs); i += 2 {
		p, is := pairs[i].(string)
		if !is {
			return nil, errors.New("Bindings.Extendm given a non-string key")
		}
		if len(pairs) <= i+1 {
			return nil, errors.New("odd args to Bindings.Extendm")
		}
		t, is := pairs[i+1].(Term)
		if !is {
			return nil, errors.New("Bindings.Extendm given a non-term value")
		}
		bs[p] = t
	}
	return bs, nil
}

// Remove removes the given names.
func (bs Bindings) Remove(names ...string) Bindings {
	for _, p := range names {
		delete(bs, p)
	}
	return bs
}

// DeleteExcept removes all but the given names.
func (bs Bindings) DeleteExcept(keeps ...string) Bindings {
REM:
	for p := range bs {
		for _, keep := range keeps {
			if keep == p {
				continue REM
			}
		}
		delete(bs, p)
	}
	return bs
}

// Copy makes a shallow copy of the Bindings.
func (bs Bindings) Copy() Bindings {
	acc := make(Bindings, len(bs))
	for k, v := range bs {
		acc[k] = v
	}
	return acc
}

// Resolved returns the bindings with each value snapshotted.
// Variables whose names start with an underscore are dropped.
func (bs Bindings) Resolved() Bindings {
	acc := make(Bindings, len(bs))
	for k, v := range bs {
		if len(k) == 0 || k[0] == '_' {
			continue
		}
		acc[k] = Snapshot(v)
	}
	return acc
}
