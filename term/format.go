package term

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Format writes a term canonically: quoted, no operators, and lists
// in bracket notation.  The syntax package has the full writer.
func Format(t Term) string {
	var b strings.Builder
	format(&b, t)
	return b.String()
}

func format(b *strings.Builder, t Term) {
	switch tt := Resolve(t).(type) {
	case *Variable:
		b.WriteString(VariableName(tt))
	case Atom:
		b.WriteString(QuoteAtom(string(tt)))
	case String:
		b.WriteString(QuoteString(string(tt)))
	case Integer:
		b.WriteString(strconv.FormatInt(int64(tt), 10))
	case Float:
		b.WriteString(FormatFloat(float64(tt)))
	case Nil:
		b.WriteString("[]")
	case *Pair:
		b.WriteByte('[')
		format(b, tt.Head)
		rest := Resolve(tt.Tail)
		for {
			p, is := rest.(*Pair)
			if !is {
				break
			}
			b.WriteByte(',')
			format(b, p.Head)
			rest = Resolve(p.Tail)
		}
		if _, is := rest.(Nil); !is {
			b.WriteByte('|')
			format(b, rest)
		}
		b.WriteByte(']')
	case *Compound:
		b.WriteString(QuoteAtom(string(tt.Functor)))
		b.WriteByte('(')
		for i, a := range tt.Args {
			if 0 < i {
				b.WriteByte(',')
			}
			format(b, a)
		}
		b.WriteByte(')')
	case *Dict:
		if v, is := Resolve(tt.Tag).(*Variable); is {
			b.WriteString(VariableName(v))
		} else {
			format(b, tt.Tag)
		}
		b.WriteByte('{')
		for i, p := range tt.Pairs {
			if 0 < i {
				b.WriteByte(',')
			}
			format(b, p.Key)
			b.WriteByte(':')
			format(b, p.Value)
		}
		b.WriteByte('}')
	case *Blob:
		b.WriteString(FormatBlob(tt))
	default:
		fmt.Fprintf(b, "%v", tt)
	}
}

// VariableName is how an unbound variable prints.
func VariableName(v *Variable) string {
	return "_G" + strconv.FormatInt(v.id, 10)
}

// FormatBlob renders a blob as <type>(id).
func FormatBlob(b *Blob) string {
	return fmt.Sprintf("<%s>(0x%x)", b.Type, b.id)
}

// FormatFloat writes a float so that it reads back as a float.
func FormatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	} else if i := strings.IndexByte(s, 'e'); 0 <= i && !strings.Contains(s[:i], ".") {
		s = s[:i] + ".0" + s[i:]
	}
	return s
}

// QuoteAtom quotes an atom's text if it would not read back as the
// same atom.
func QuoteAtom(s string) string {
	if !AtomNeedsQuotes(s) {
		return s
	}
	return quote(s, '\'')
}

// QuoteString renders a double-quoted string.
func QuoteString(s string) string {
	return quote(s, '"')
}

func quote(s string, q byte) string {
	var b strings.Builder
	b.WriteByte(q)
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		case 0:
			b.WriteString(`\0\`)
		default:
			if r == rune(q) {
				b.WriteByte('\\')
				b.WriteByte(q)
			} else {
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte(q)
	return b.String()
}

// SymbolChars are the characters that make up symbol atoms like =..
const SymbolChars = "+-*/\\^<>=~:.?@#&$"

// IsSymbolChar reports whether r is a symbol character.
func IsSymbolChar(r rune) bool {
	return strings.ContainsRune(SymbolChars, r)
}

// IsAlnum reports whether r can continue a name.
func IsAlnum(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// AtomNeedsQuotes reports whether s must be quoted to read back as
// an atom.
func AtomNeedsQuotes(s string) bool {
	switch s {
	case "":
		return true
	case "{}", "!", ";":
		return false
	case "[]", ",", "|":
		return true
	}
	rs := []rune(s)
	if unicode.IsLower(rs[0]) {
		for _, r := range rs[1:] {
			if !IsAlnum(r) {
				return true
			}
		}
		return false
	}
	for _, r := range rs {
		if !IsSymbolChar(r) {
			return true
		}
	}
	return false
}
