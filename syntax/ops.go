package syntax

import (
	"fmt"
	"sort"
	"strings"
)

// OpType is an operator's associativity and position.
type OpType int

const (
	XFX OpType = iota
	XFY
	YFX
	FY
	FX
	XF
	YF
)

var opTypeNames = [...]string{"xfx", "xfy", "yfx", "fy", "fx", "xf", "yf"}

func (t OpType) String() string {
	return opTypeNames[t]
}

// ParseOpType parses "xfx" and friends.
func ParseOpType(s string) (OpType, bool) {
	for i, n := range opTypeNames {
		if n == s {
			return OpType(i), true
		}
	}
	return 0, false
}

// Class is prefix, infix or postfix.
type Class int

const (
	Prefix Class = iota
	Infix
	Postfix
)

// Class of the operator type.
func (t OpType) Class() Class {
	switch t {
	case FY, FX:
		return Prefix
	case XF, YF:
		return Postfix
	}
	return Infix
}

// Op is one operator definition.
type Op struct {
	Prec int
	Type OpType
	Name string
}

// Args returns the maximum priorities of the left and right
// arguments.  A missing side is -1.
func (op Op) Args() (left, right int) {
	switch op.Type {
	case XFX:
		return op.Prec - 1, op.Prec - 1
	case XFY:
		return op.Prec - 1, op.Prec
	case YFX:
		return op.Prec, op.Prec - 1
	case FY:
		return -1, op.Prec
	case FX:
		return -1, op.Prec - 1
	case XF:
		return op.Prec - 1, -1
	case YF:
		return op.Prec, -1
	}
	return -1, -1
}

// Ops is an operator table.  The zero value has no operators.
type Ops struct {
	defs map[string]*[3]Op
}

// DefaultOps returns a fresh table with the standard operators.
func DefaultOps() *Ops {
	ops := &Ops{}
	for _, op := range standardOps {
		ops.set(op)
	}
	return ops
}

var standardOps = []Op{
	{1200, XFX, ":-"},
	{1200, XFX, "-->"},
	{1200, FX, ":-"},
	{1200, FX, "?-"},
	{1150, FX, "dynamic"},
	{1150, FX, "discontiguous"},
	{1150, FX, "initialization"},
	{1150, FX, "module_transparent"},
	{1150, FX, "multifile"},
	{1150, FX, "public"},
	{1150, FX, "table"},
	{1150, FX, "persistent"},
	{1100, XFY, ";"},
	{1105, XFY, "|"},
	{1050, XFY, "->"},
	{1050, XFY, "*->"},
	{1000, XFY, ","},
	{990, XFX, ":="},
	{900, FY, `\+`},
	{700, XFX, "="},
	{700, XFX, `\=`},
	{700, XFX, "=="},
	{700, XFX, `\==`},
	{700, XFX, "@<"},
	{700, XFX, "@>"},
	{700, XFX, "@=<"},
	{700, XFX, "@>="},
	{700, XFX, "=.."},
	{700, XFX, "is"},
	{700, XFX, "=:="},
	{700, XFX, `=\=`},
	{700, XFX, "<"},
	{700, XFX, ">"},
	{700, XFX, "=<"},
	{700, XFX, ">="},
	{700, XFX, ">:<"},
	{700, XFX, ":<"},
	{700, XFX, "as"},
	{600, XFY, ":"},
	{500, YFX, "+"},
	{500, YFX, "-"},
	{500, YFX, `/\`},
	{500, YFX, `\/`},
	{500, YFX, "xor"},
	{400, YFX, "*"},
	{400, YFX, "/"},
	{400, YFX, "//"},
	{400, YFX, "rem"},
	{400, YFX, "mod"},
	{400, YFX, "div"},
	{400, YFX, "<<"},
	{400, YFX, ">>"},
	{400, YFX, "divmod"},
	{200, XFX, "**"},
	{200, XFY, "^"},
	{200, FY, "-"},
	{200, FY, "+"},
	{200, FY, `\`},
	{100, YFX, "."},
	{1, FX, "$"},
}

func (ops *Ops) set(op Op) {
	if ops.defs == nil {
		ops.defs = make(map[string]*[3]Op)
	}
	d, have := ops.defs[op.Name]
	if !have {
		d = &[3]Op{}
		ops.defs[op.Name] = d
	}
	d[op.Type.Class()] = op
}

// Add defines an operator.  Priority 0 removes it.
func (ops *Ops) Add(prec int, typ OpType, name string) error {
	if prec < 0 || 1200 < prec {
		return fmt.Errorf("operator priority %d out of range", prec)
	}
	switch name {
	case ",":
		return fmt.Errorf("cannot modify operator ','")
	case "|":
		if prec != 0 && (prec < 1001 || typ.Class() != Infix) {
			return fmt.Errorf("bad definition for operator '|'")
		}
	case "[]", "{}":
		return fmt.Errorf("cannot make %s an operator", name)
	}
	// An infix and a postfix operator cannot share a name.
	if d, have := ops.defs[name]; have && prec != 0 {
		switch typ.Class() {
		case Infix:
			if d[Postfix].Prec != 0 {
				return fmt.Errorf("%s is already a postfix operator", name)
			}
		case Postfix:
			if d[Infix].Prec != 0 {
				return fmt.Errorf("%s is already an infix operator", name)
			}
		}
	}
	ops.set(Op{Prec: prec, Type: typ, Name: name})
	return nil
}

func (ops *Ops) get(name string, c Class) (Op, bool) {
	if ops == nil || ops.defs == nil {
		return Op{}, false
	}
	d, have := ops.defs[name]
	if !have || d[c].Prec == 0 {
		return Op{}, false
	}
	return d[c], true
}

// Prefix finds a prefix operator.
func (ops *Ops) Prefix(name string) (Op, bool) { return ops.get(name, Prefix) }

// Infix finds an infix operator.
func (ops *Ops) Infix(name string) (Op, bool) { return ops.get(name, Infix) }

// Postfix finds a postfix operator.
func (ops *Ops) Postfix(name string) (Op, bool) { return ops.get(name, Postfix) }

// IsOp reports whether name is any kind of operator.
func (ops *Ops) IsOp(name string) bool {
	_, a := ops.Prefix(name)
	_, b := ops.Infix(name)
	_, c := ops.Postfix(name)
	return a || b || c
}

// All returns the defined operators sorted by name, then class.
func (ops *Ops) All() []Op {
	var acc []Op
	for _, d := range ops.defs {
		for _, op := range d {
			if op.Prec != 0 {
				acc = append(acc, op)
			}
		}
	}
	sort.Slice(acc, func(i, j int) bool {
		if c := strings.Compare(acc[i].Name, acc[j].Name); c != 0 {
			return c < 0
		}
		return acc[i].Type.Class() < acc[j].Type.Class()
	})
	return acc
}

// Copy makes an independent table.
func (ops *Ops) Copy() *Ops {
	acc := &Ops{defs: make(map[string]*[3]Op, len(ops.defs))}
	for name, d := range ops.defs {
		dd := *d
		acc.defs[name] = &dd
	}
	return acc
}
