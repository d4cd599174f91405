package lisp

import (
	"fmt"
)

// Env is what the bridge needs from a host runtime.
//
// It mirrors the small part of an embedding API that deals with
// values: probing and copying text, extracting fixnums, type tags and
// signaling.
type Env interface {
	// TypeOf returns the type symbol of v.
	TypeOf(v Value) Symbol

	// CopyStringContents copies the UTF-8 bytes of the string v
	// into buf followed by a NUL byte.  It returns the number of
	// bytes that needs, terminator included.  With a nil buf, it
	// only reports that size.  A buf that is too small is an
	// error.
	CopyStringContents(v Value, buf []byte) (int, error)

	// ExtractInteger returns the fixnum value of v.
	ExtractInteger(v Value) (int64, error)

	// MakeString makes a host string from UTF-8 bytes.
	MakeString(bs []byte) Value

	// Intern returns a symbol.
	Intern(name string) Symbol

	// Signal makes the non-local exit for the given condition.
	Signal(sym Symbol, data Value) error
}

// StandardEnv is the Env for values built by this package.
type StandardEnv struct{}

// Standard is a ready-to-use StandardEnv.
var Standard Env = &StandardEnv{}

func (e *StandardEnv) TypeOf(v Value) Symbol {
	return TypeOf(v)
}

func (e *StandardEnv) CopyStringContents(v Value, buf []byte) (int, error) {
	s, is := v.(String)
	if !is {
		return 0, &WrongType{Predicate: "stringp", Value: v}
	}
	need := len(s) + 1
	if buf == nil {
		return need, nil
	}
	if len(buf) < need {
		return need, fmt.Errorf("buffer of %d bytes too small for %d", len(buf), need)
	}
	copy(buf, s)
	buf[len(s)] = 0
	return need, nil
}

func (e *StandardEnv) ExtractInteger(v Value) (int64, error) {
	n, is := v.(Integer)
	if !is {
		return 0, &WrongType{Predicate: "integerp", Value: v}
	}
	return int64(n), nil
}

func (e *StandardEnv) MakeString(bs []byte) Value {
	return String(bs)
}

func (e *StandardEnv) Intern(name string) Symbol {
	return Intern(name)
}

func (e *StandardEnv) Signal(sym Symbol, data Value) error {
	return &Signal{Symbol: sym, Data: data}
}
