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

// Fuzz patterns and messages.  Unify and then verify that the
// results are instances of both sides.

import (
	"math/rand"
	"testing"
	"time"

	. "github.com/Comcast/sweep/term"
)

// Fuzz has parameters used to generate random terms.
type Fuzz struct {
	Width       int
	Alphabet    string
	Functors    string
	StringWidth int
	MaxNumber   int

	Atoms     float64
	Strings   float64
	Numbers   float64
	Vars      float64
	Lists     float64
	Compounds float64

	// vars is the pool that generated variables are drawn from so
	// that a term can repeat a variable.
	vars []*Variable

	generated int64
}

// NoVars makes Gen produce ground terms.
func (f *Fuzz) NoVars() {
	f.Vars = 0
}

// NewFuzz returns a reasonable, general-purpose Fuzz.
func NewFuzz() *Fuzz {
	return &Fuzz{
		Width:       4,
		Alphabet:    "abcde",
		Functors:    "fgh",
		StringWidth: 3,
		MaxNumber:   10,

		Atoms:     3,
		Strings:   1,
		Numbers:   3,
		Vars:      3,
		Lists:     2,
		Compounds: 3,
	}
}

// Gen generates a random term no deeper than d.
func (f *Fuzz) Gen(r *rand.Rand, d int) Term {
	f.generated++

	m := f.Atoms + f.Strings + f.Numbers + f.Vars
	if 0 < d {
		m += f.Lists + f.Compounds
	}

	t := r.Float64() * m
	if t < f.Atoms {
		return Atom(f.genName(r, f.Alphabet))
	} else if t < f.Atoms+f.Strings {
		return String(f.genName(r, f.Alphabet))
	} else if t < f.Atoms+f.Strings+f.Numbers {
		return Integer(r.Intn(f.MaxNumber))
	} else if t < f.Atoms+f.Strings+f.Numbers+f.Vars {
		return f.genVar(r)
	} else if t < f.Atoms+f.Strings+f.Numbers+f.Vars+f.Lists {
		xs := make([]Term, r.Intn(f.Width))
		for i := range xs {
			xs[i] = f.Gen(r, d-1)
		}
		return List(xs...)
	}
	args := make([]Term, 1+r.Intn(f.Width-1))
	for i := range args {
		args[i] = f.Gen(r, d-1)
	}
	return Atom(f.genName(r, f.Functors)).Of(args...)
}

func (f *Fuzz) genName(r *rand.Rand, alphabet string) string {
	n := r.Intn(f.StringWidth-1) + 1
	s := make([]byte, n)
	for i := range s {
		s[i] = alphabet[r.Intn(len(alphabet))]
	}
	return string(s)
}

func (f *Fuzz) genVar(r *rand.Rand) Term {
	if 0 < len(f.vars) && r.Intn(3) == 0 {
		return f.vars[r.Intn(len(f.vars))]
	}
	v := NewVariable()
	f.vars = append(f.vars, v)
	return v
}

// TestUnifyFuzz unifies a bunch of patterns with a bunch of ground
// terms.
//
// Verifies that every success leaves the two sides identical and
// that undoing the trail restores the pattern.
func TestUnifyFuzz(t *testing.T) {
	var (
		pats      = 300
		msgsPer   = 300
		d         = 3
		r         = rand.New(rand.NewSource(42))
		p         = NewFuzz()
		m         = NewFuzz()
		unified   = 0
		attempted = 0
	)
	m.NoVars()

	then := time.Now()
	for i := 0; i < pats; i++ {
		p.vars = nil
		pat := p.Gen(r, d)
		before := Format(pat)
		for j := 0; j < msgsPer; j++ {
			msg := m.Gen(r, d)
			tr := NewTrail()
			attempted++
			if Unify(tr, pat, msg) {
				unified++
				if Compare(pat, msg) != 0 {
					t.Fatalf("%s != %s after unification", Format(pat), Format(msg))
				}
				if !Ground(pat) {
					t.Fatalf("%s not ground after unifying with %s", Format(pat), Format(msg))
				}
			}
			tr.Undo(0)
			if after := Format(pat); after != before {
				t.Fatalf("undo left %s (was %s)", after, before)
			}
		}

		c := Copy(pat, nil)
		if !Variant(pat, c) {
			t.Fatalf("%s is not a variant of its copy %s", before, Format(c))
		}
	}
	elapsed := time.Now().Sub(then)
	t.Logf("attempted %d, unified %d in %v", attempted, unified, elapsed)
}
