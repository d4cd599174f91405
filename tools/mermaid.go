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

package tools

import (
	"fmt"
	"io"
	"strings"
)

type MermaidOpts struct {
	// ShowClauses labels each predicate with its clause count.
	ShowClauses bool `json:"showClauses"`

	// DynamicFill is the fill color for dynamic predicates.  Does
	// not apply if DynamicClass is set.
	DynamicFill string `json:"dynamicFill,omitempty"`

	// DynamicClass will be the CSS class for dynamic predicates.
	DynamicClass string `json:"dynamicClass,omitempty"`

	// UndefinedFill is the fill color for undefined callees.
	UndefinedFill string `json:"undefinedFill,omitempty"`
}

// Mermaid makes a Mermaid (https://mermaidjs.github.io/) input file
// for the call graph in the analysis.
func Mermaid(a *Analysis, w io.Writer, opts *MermaidOpts) error {

	if opts == nil {
		opts = &MermaidOpts{
			ShowClauses:   true,
			DynamicFill:   "#bcf2db",
			UndefinedFill: "#f98b8b",
		}
	}

	var err error
	printf := func(format string, args ...interface{}) {
		if err == nil {
			_, err = fmt.Fprintf(w, format, args...)
		}
	}

	printf("graph LR\n")

	nids := make(map[string]string)
	nid := func(name string) string {
		if id, already := nids[name]; already {
			return id
		}
		id := fmt.Sprintf("n%d", len(nids)+1)
		nids[name] = id
		return id
	}
	quote := func(s string) string {
		return strings.Replace(s, `"`, `#quot;`, -1)
	}

	for _, info := range a.Predicates {
		name := key(info.pred)
		label := name
		if opts.ShowClauses {
			label = fmt.Sprintf("%s (%d)", name, info.Clauses)
		}
		id := nid(name)
		if info.Dynamic {
			printf("  %s[(\"%s\")]\n", id, quote(label))
			switch {
			case opts.DynamicClass != "":
				printf("  class %s %s\n", id, opts.DynamicClass)
			case opts.DynamicFill != "":
				printf("  style %s fill:%s\n", id, opts.DynamicFill)
			}
		} else {
			printf("  %s(\"%s\")\n", id, quote(label))
		}
	}

	for _, u := range a.Undefined {
		id := nid(u)
		printf("  %s{{\"%s\"}}\n", id, quote(u))
		if opts.UndefinedFill != "" {
			printf("  style %s fill:%s\n", id, opts.UndefinedFill)
		}
	}

	for _, e := range a.Edges {
		printf("  %s --> %s\n", nid(e.From), nid(e.To))
	}

	printf("\n")
	return err
}
