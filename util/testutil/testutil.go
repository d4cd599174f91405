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

// Package testutil has helpers shared by tests in other packages.
package testutil

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/Comcast/sweep/lisp"
	"github.com/Comcast/sweep/syntax"
	"github.com/Comcast/sweep/term"
)

// JS renders its argument as JSON or as a string indicating an error.
func JS(x interface{}) string {
	bs, err := json.Marshal(&x)
	if err != nil {
		log.Printf("warning: testutil.JS error %s for %#v", err, x)
		return fmt.Sprintf("%#v", x)
	}
	return string(bs)
}

// MustTerm parses a term with the default operators and panics on a
// syntax error.
func MustTerm(src string) term.Term {
	t, _, err := syntax.ParseTerm(src, syntax.DefaultOps())
	if err != nil {
		panic(err)
	}
	return t
}

// MustValue reads one s-expression and panics if it can't.
func MustValue(src string) lisp.Value {
	v, err := lisp.Read(src)
	if err != nil {
		panic(err)
	}
	return v
}
