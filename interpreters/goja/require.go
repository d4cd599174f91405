package goja

import (
	"context"
	"fmt"
	"strings"

	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/parser"
)

// InlineRequires generates new source code that replaces top-level
// require("NAME") statements with the code that provider gives for
// NAME.
//
// Goja can't currently support (easily) modification of ASTs or
// Programs; therefore, this function rewrites the given source based
// on processing of the given source's AST.  The alternative, a
// require() function in the runtime's environment, would need eval at
// runtime and would prevent precompilation.
func InlineRequires(ctx context.Context, src string, provider func(context.Context, string) (string, error)) (string, error) {

	p, err := parser.ParseFile(nil, "", src, 0)
	if err != nil {
		return "", err
	}

	type Required struct {
		From int
		To   int
		Name string
	}

	requires := make([]Required, 0, 8)

	for _, s := range p.Body {
		exps, is := s.(*ast.ExpressionStatement)
		if !is {
			continue
		}

		call, is := exps.Expression.(*ast.CallExpression)
		if !is {
			continue
		}

		id, is := call.Callee.(*ast.Identifier)
		if !is {
			continue
		}
		if id.Name != "require" {
			continue
		}
		if len(call.ArgumentList) != 1 {
			return "", fmt.Errorf("bad require args: %d", len(call.ArgumentList))
		}

		arg := call.ArgumentList[0]
		lit, is := arg.(*ast.StringLiteral)
		if !is {
			return "", fmt.Errorf("bad require arg: %T", arg)
		}

		// Idx values are 1-based.
		from, to := int(exps.Idx0())-1, int(exps.Idx1())-1
		if to < len(src) && src[to] == ';' {
			to++
		}
		requires = append(requires, Required{
			From: from,
			To:   to,
			Name: string(lit.Value),
		})
	}

	if len(requires) == 0 {
		return src, nil
	}

	var acc strings.Builder
	last := 0
	for _, r := range requires {
		lib, err := provider(ctx, r.Name)
		if err != nil {
			return "", err
		}
		acc.WriteString(src[last:r.From])
		acc.WriteString(lib)
		acc.WriteString("\n")
		last = r.To
	}
	acc.WriteString(src[last:])

	return acc.String(), nil
}
