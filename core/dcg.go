package core

import (
	"github.com/Comcast/sweep/term"
)

// dcgTranslate turns Head --> Body into a clause.
func dcgTranslate(rule term.Term) (term.Term, error) {
	c, is := compoundOf(rule, "-->", 2)
	if !is {
		return nil, TypeError("dcg_rule", rule)
	}
	var (
		head     = term.Resolve(c.Args[0])
		pushback term.Term
		s0       = term.NewVariable()
		s        = term.NewVariable()
	)
	if h, is := compoundOf(head, ",", 2); is {
		head, pushback = term.Resolve(h.Args[0]), h.Args[1]
	}
	if _, err := callableArg(head); err != nil {
		return nil, err
	}
	h, _, err := addArgs(head, []term.Term{s0, s})
	if err != nil {
		return nil, err
	}
	if pushback == nil {
		body, err := dcgBody(c.Args[1], s0, s)
		if err != nil {
			return nil, err
		}
		return term.Atom(":-").Of(h, body), nil
	}
	mid := term.NewVariable()
	body, err := dcgBody(c.Args[1], s0, mid)
	if err != nil {
		return nil, err
	}
	pb, err := dcgTerminals(pushback, s, mid)
	if err != nil {
		return nil, err
	}
	return term.Atom(":-").Of(h, term.Atom(",").Of(body, pb)), nil
}

func dcgTerminals(list, s0, s term.Term) (term.Term, error) {
	xs, err := listArg(list)
	if err != nil {
		return nil, err
	}
	return term.Atom("=").Of(s0, term.ListWithTail(xs, s)), nil
}

func unifyGoal(a, b term.Term) term.Term {
	return term.Atom("=").Of(a, b)
}

// dcgBody translates a grammar body so that it consumes the
// difference list s0-s.
func dcgBody(b, s0, s term.Term) (term.Term, error) {
	b = term.Resolve(b)
	switch x := b.(type) {
	case *term.Variable:
		return term.Atom("phrase").Of(x, s0, s), nil
	case term.Nil:
		return unifyGoal(s0, s), nil
	case *term.Pair:
		return dcgTerminals(x, s0, s)
	case term.String:
		codes := make([]term.Term, 0, len(x))
		for _, r := range string(x) {
			codes = append(codes, term.Integer(r))
		}
		return unifyGoal(s0, term.ListWithTail(codes, s)), nil
	case term.Atom:
		if x == "!" {
			return term.Atom(",").Of(x, unifyGoal(s0, s)), nil
		}
	case *term.Compound:
		switch {
		case x.Functor == "," && len(x.Args) == 2:
			mid := term.NewVariable()
			l, err := dcgBody(x.Args[0], s0, mid)
			if err != nil {
				return nil, err
			}
			r, err := dcgBody(x.Args[1], mid, s)
			if err != nil {
				return nil, err
			}
			return term.Atom(",").Of(l, r), nil
		case (x.Functor == ";" || x.Functor == "|") && len(x.Args) == 2:
			l, err := dcgBody(x.Args[0], s0, s)
			if err != nil {
				return nil, err
			}
			r, err := dcgBody(x.Args[1], s0, s)
			if err != nil {
				return nil, err
			}
			return term.Atom(";").Of(l, r), nil
		case x.Functor == "->" && len(x.Args) == 2:
			mid := term.NewVariable()
			l, err := dcgBody(x.Args[0], s0, mid)
			if err != nil {
				return nil, err
			}
			r, err := dcgBody(x.Args[1], mid, s)
			if err != nil {
				return nil, err
			}
			return term.Atom("->").Of(l, r), nil
		case x.Functor == `\+` && len(x.Args) == 1:
			g, err := dcgBody(x.Args[0], s0, term.NewVariable())
			if err != nil {
				return nil, err
			}
			return term.Atom(",").Of(term.Atom(`\+`).Of(g), unifyGoal(s0, s)), nil
		case x.Functor == "{}" && len(x.Args) == 1:
			return term.Atom(",").Of(x.Args[0], unifyGoal(s0, s)), nil
		case x.Functor == "call" && 0 < len(x.Args):
			args := append(append([]term.Term(nil), x.Args...), s0, s)
			return &term.Compound{Functor: "call", Args: args}, nil
		}
	default:
		return nil, TypeError("callable", b)
	}
	g, _, err := addArgs(b, []term.Term{s0, s})
	if err != nil {
		return nil, err
	}
	if c, is := compoundOf(b, ":", 2); is {
		return term.Atom(":").Of(c.Args[0], g), nil
	}
	return g, nil
}
