package lisp

import (
	"fmt"
	"strings"
)

// Signal is a host-level signaled condition: a condition symbol and
// its data, like (error "No current query").
type Signal struct {
	Symbol Symbol
	Data   Value
}

func (s *Signal) Error() string {
	xs, _ := ToSlice(s.Data)
	parts := make([]string, 0, len(xs))
	for _, x := range xs {
		if str, is := x.(String); is {
			parts = append(parts, string(str))
			continue
		}
		parts = append(parts, Print(x))
	}
	if s.Symbol == "error" && 0 < len(parts) {
		return strings.Join(parts, " ")
	}
	return string(s.Symbol) + ": " + strings.Join(parts, " ")
}

// Value returns the condition as the host sees it: (SYMBOL . DATA).
func (s *Signal) Value() Value {
	return NewCons(s.Symbol, s.Data)
}

// Errorf makes an error signal with a formatted message.
func Errorf(format string, args ...interface{}) *Signal {
	return &Signal{
		Symbol: "error",
		Data:   List(String(fmt.Sprintf(format, args...))),
	}
}

// WrongType occurs when a value fails a type predicate.
type WrongType struct {
	Predicate Symbol
	Value     Value
}

func (e *WrongType) Error() string {
	return "wrong-type-argument " + string(e.Predicate) + " " + Print(e.Value)
}

// Signal returns the wrong-type-argument condition.
func (e *WrongType) Signal() *Signal {
	return &Signal{
		Symbol: "wrong-type-argument",
		Data:   List(e.Predicate, e.Value),
	}
}
