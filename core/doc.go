/* Copyright 2018-2019 Comcast Cable Communications Management, LLC
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

// Package core is a Prolog engine: a database of modules and
// predicates, a consulter for source text, and a solving machine that
// a host steps one solution at a time.
//
// The primary type is Engine, and the primary method is
// Query.Next().  An Engine has at most one open Query.  OpenQuery
// starts a goal, Next finds the next solution and reports a Status
// (True, Last, False or Exception), and Cut or Close end the query.
// Cut keeps the bindings of the last solution and Close undoes them.
//
// Solving is iterative: a continuation of goal frames and a stack of
// choicepoints over a trail of bindings (see package match), so deep
// recursion doesn't grow the Go stack.  Control constructs (cut,
// if-then-else, negation, catch/throw and setup_call_cleanup) are
// handled by the machine itself, and everything else is a builtin
// implemented in Go or a predicate from the boot library written in
// Prolog.
//
// An exception is a term.  Inside the engine it is carried as an
// *Exception until a catch/3 handles it or it reaches the query,
// which then reports StatusException.  Errors the host sees outside
// a query are ordinary Go errors.
//
// Predicates declared persistent/1 are written through to a
// storage.Storage as their clauses change and are restored when
// declared again.
package core
