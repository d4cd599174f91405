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

// Package tools analyzes and renders loaded programs.
package tools

import (
	"sort"

	"github.com/Comcast/sweep/core"
	"github.com/Comcast/sweep/term"

	"gopkg.in/yaml.v2"
)

// PredicateInfo describes one predicate.
type PredicateInfo struct {
	Indicator  string `yaml:"indicator"`
	Module     string `yaml:"module"`
	Clauses    int    `yaml:"clauses"`
	Dynamic    bool   `yaml:"dynamic,omitempty"`
	Persistent bool   `yaml:"persistent,omitempty"`
	Exported   bool   `yaml:"exported,omitempty"`
	File       string `yaml:"file,omitempty"`
	Line       int    `yaml:"line,omitempty"`
	Doc        string `yaml:"doc,omitempty"`

	// Calls are the predicates called from the clause bodies.
	Calls []string `yaml:"calls,omitempty"`

	pred *core.Predicate
}

// Edge is a call from one predicate to another.
type Edge struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// Analysis summarizes the predicates of the non-system modules of a
// database.
type Analysis struct {
	Modules    []string         `yaml:"modules"`
	Predicates []*PredicateInfo `yaml:"predicates"`
	Edges      []Edge           `yaml:"edges,omitempty"`

	// Undefined are the callees that have no definition.
	Undefined []string `yaml:"undefined,omitempty"`

	// Orphans are the predicates that nothing calls and that are
	// not exported.
	Orphans []string `yaml:"orphans,omitempty"`

	Dynamic    []string `yaml:"dynamic,omitempty"`
	Persistent []string `yaml:"persistent,omitempty"`
}

// key names a predicate: name/arity in user and module:name/arity
// elsewhere.
func key(p *core.Predicate) string {
	if p.Module.Name == "user" {
		return p.Indicator.String()
	}
	return string(p.Module.Name) + ":" + p.Indicator.String()
}

// Analyze walks the clause bodies of every predicate outside the
// system module.
func Analyze(db *core.Database) (*Analysis, error) {
	a := &Analysis{}

	called := make(map[string]bool)
	undefined := make(map[string]bool)

	for _, m := range db.Modules() {
		if m.Name == "system" {
			continue
		}
		a.Modules = append(a.Modules, string(m.Name))

		exported := make(map[term.Indicator]bool, len(m.Exports))
		for _, pi := range m.Exports {
			exported[pi] = true
		}

		for _, p := range m.Predicates() {
			if p.IsBuiltin() || !p.Defined() {
				continue
			}
			info := &PredicateInfo{
				Indicator:  p.Indicator.String(),
				Module:     string(m.Name),
				Clauses:    len(p.Clauses()),
				Dynamic:    p.Dynamic,
				Persistent: p.Persistent,
				Exported:   exported[p.Indicator],
				File:       p.File,
				Line:       p.Line,
				Doc:        p.Doc,
				pred:       p,
			}
			from := key(p)

			calls := make(map[string]bool)
			for _, c := range p.Clauses() {
				goals(c.Body, 0, func(g term.Term, extra int) {
					callee, name, ok := resolve(db, m, g, extra)
					if !ok {
						if name != "" {
							undefined[name] = true
							calls[name] = true
						}
						return
					}
					if callee == nil {
						return
					}
					to := key(callee)
					if to != from {
						called[to] = true
					}
					calls[to] = true
				})
			}
			info.Calls = sorted(calls)
			for _, to := range info.Calls {
				a.Edges = append(a.Edges, Edge{From: from, To: to})
			}

			if p.Dynamic {
				a.Dynamic = append(a.Dynamic, from)
			}
			if p.Persistent {
				a.Persistent = append(a.Persistent, from)
			}
			a.Predicates = append(a.Predicates, info)
		}
	}

	for _, info := range a.Predicates {
		k := key(info.pred)
		if !called[k] && !info.Exported && !info.Dynamic {
			a.Orphans = append(a.Orphans, k)
		}
	}
	a.Undefined = sorted(undefined)

	return a, nil
}

// YAML renders the analysis.
func (a *Analysis) YAML() ([]byte, error) {
	return yaml.Marshal(a)
}

func sorted(m map[string]bool) []string {
	acc := make([]string, 0, len(m))
	for k := range m {
		acc = append(acc, k)
	}
	sort.Strings(acc)
	return acc
}

// resolve finds the predicate a goal calls.  It returns a nil
// predicate for calls into the system module and false, with the
// callee's name, when nothing defines it.
func resolve(db *core.Database, m *core.Module, g term.Term, extra int) (*core.Predicate, string, bool) {
	if c, is := g.(*term.Compound); is && c.Functor == ":" && len(c.Args) == 2 {
		if name, is := term.Resolve(c.Args[0]).(term.Atom); is {
			if !db.HasModule(name) {
				return nil, string(name) + ":" + format(term.Resolve(c.Args[1]), extra), false
			}
			return resolve(db, db.Module(name), term.Resolve(c.Args[1]), extra)
		}
		return nil, "", true
	}
	var pi term.Indicator
	switch t := g.(type) {
	case term.Atom:
		pi = term.Indicator{Name: t, Arity: extra}
	case *term.Compound:
		pi = term.Indicator{Name: t.Functor, Arity: len(t.Args) + extra}
	default:
		return nil, "", true
	}
	p, have := db.Resolve(m, pi)
	if !have || !p.Defined() {
		name := pi.String()
		if m.Name != "user" {
			name = string(m.Name) + ":" + name
		}
		return nil, name, false
	}
	if p.IsBuiltin() || p.Module.Name == "system" {
		return nil, "", true
	}
	return p, "", true
}

// format gives the indicator text of a goal.
func format(g term.Term, extra int) string {
	switch t := g.(type) {
	case term.Atom:
		return term.Indicator{Name: t, Arity: extra}.String()
	case *term.Compound:
		return term.Indicator{Name: t.Functor, Arity: len(t.Args) + extra}.String()
	}
	return term.Format(g)
}

// metaArgs says which arguments of control constructs and meta
// predicates are goals, and how many arguments a call adds to each.
var metaArgs = map[term.Indicator][][2]int{
	{Name: ",", Arity: 2}:                  {{0, 0}, {1, 0}},
	{Name: ";", Arity: 2}:                  {{0, 0}, {1, 0}},
	{Name: "->", Arity: 2}:                 {{0, 0}, {1, 0}},
	{Name: "*->", Arity: 2}:                {{0, 0}, {1, 0}},
	{Name: `\+`, Arity: 1}:                 {{0, 0}},
	{Name: "not", Arity: 1}:                {{0, 0}},
	{Name: "once", Arity: 1}:               {{0, 0}},
	{Name: "ignore", Arity: 1}:             {{0, 0}},
	{Name: "call", Arity: 1}:               {{0, 0}},
	{Name: "findall", Arity: 3}:            {{1, 0}},
	{Name: "findall", Arity: 4}:            {{1, 0}},
	{Name: "bagof", Arity: 3}:              {{1, 0}},
	{Name: "setof", Arity: 3}:              {{1, 0}},
	{Name: "aggregate_all", Arity: 3}:      {{1, 0}},
	{Name: "forall", Arity: 2}:             {{0, 0}, {1, 0}},
	{Name: "catch", Arity: 3}:              {{0, 0}, {2, 0}},
	{Name: "setup_call_cleanup", Arity: 3}: {{0, 0}, {1, 0}, {2, 0}},
	{Name: "call_cleanup", Arity: 2}:       {{0, 0}, {1, 0}},
	{Name: "with_output_to", Arity: 2}:     {{1, 0}},
	{Name: "include", Arity: 3}:            {{0, 1}},
	{Name: "exclude", Arity: 3}:            {{0, 1}},
	{Name: "partition", Arity: 4}:          {{0, 1}},
	{Name: "predsort", Arity: 3}:           {{0, 3}},
	{Name: "foldl", Arity: 4}:              {{0, 3}},
	{Name: "foldl", Arity: 5}:              {{0, 4}},
	{Name: "foldl", Arity: 6}:              {{0, 5}},
}

func init() {
	for n := 2; n <= 8; n++ {
		metaArgs[term.Indicator{Name: "call", Arity: n}] = [][2]int{{0, n - 1}}
	}
	for n := 2; n <= 7; n++ {
		metaArgs[term.Indicator{Name: "maplist", Arity: n}] = [][2]int{{0, n - 1}}
	}
}

// goals calls f with every goal in a body, looking through control
// constructs and meta predicates.  Goals that are variables are
// skipped.
func goals(t term.Term, extra int, f func(g term.Term, extra int)) {
	t = term.Resolve(t)
	if _, is := t.(*term.Variable); is {
		return
	}
	if c, is := t.(*term.Compound); is && extra == 0 {
		// Strip V^Goal in bagof/setof goals.
		if c.Functor == "^" && len(c.Args) == 2 {
			goals(c.Args[1], 0, f)
			return
		}
		pi := term.Indicator{Name: c.Functor, Arity: len(c.Args)}
		if ms, have := metaArgs[pi]; have {
			for _, ma := range ms {
				goals(c.Args[ma[0]], ma[1], f)
			}
			if pi.Name == "," || pi.Name == ";" || pi.Name == "->" || pi.Name == "*->" {
				return
			}
		}
	}
	if a, is := t.(term.Atom); is && extra == 0 && (a == "true" || a == "!" || a == "fail" || a == "false") {
		return
	}
	f(t, extra)
}
