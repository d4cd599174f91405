package lisp

import (
	"math"
	"strconv"
	"strings"
)

// Print renders v readably, like prin1.
func Print(v Value) string {
	var b strings.Builder
	write(&b, v, true)
	return b.String()
}

// Princ renders v for humans: strings appear without quotes.
func Princ(v Value) string {
	var b strings.Builder
	write(&b, v, false)
	return b.String()
}

func write(b *strings.Builder, v Value, readably bool) {
	switch vv := v.(type) {
	case nil:
		b.WriteString("nil")
	case Symbol:
		writeSymbol(b, vv, readably)
	case String:
		if readably {
			writeString(b, string(vv))
		} else {
			b.WriteString(string(vv))
		}
	case Integer:
		b.WriteString(strconv.FormatInt(int64(vv), 10))
	case Float:
		b.WriteString(formatFloat(float64(vv)))
	case *Cons:
		if q, is := quoted(vv); is {
			b.WriteByte('\'')
			write(b, q, readably)
			return
		}
		b.WriteByte('(')
		for {
			write(b, vv.Car, readably)
			next, is := vv.Cdr.(*Cons)
			if is {
				b.WriteByte(' ')
				vv = next
				continue
			}
			if !IsNil(vv.Cdr) {
				b.WriteString(" . ")
				write(b, vv.Cdr, readably)
			}
			break
		}
		b.WriteByte(')')
	case *Vector:
		b.WriteByte('[')
		for i, x := range vv.Items {
			if 0 < i {
				b.WriteByte(' ')
			}
			write(b, x, readably)
		}
		b.WriteByte(']')
	}
}

// quoted recognizes (quote X).
func quoted(c *Cons) (Value, bool) {
	if s, is := c.Car.(Symbol); !is || s != "quote" {
		return nil, false
	}
	rest, is := c.Cdr.(*Cons)
	if !is || !IsNil(rest.Cdr) {
		return nil, false
	}
	return rest.Car, true
}

const symbolEscapes = " \t\n\"'();[]#`,\\?."

func writeSymbol(b *strings.Builder, s Symbol, readably bool) {
	if !readably || s == "" {
		if s == "" && readably {
			b.WriteString("##")
			return
		}
		b.WriteString(string(s))
		return
	}
	if looksNumeric(string(s)) {
		b.WriteByte('\\')
	}
	for i, r := range string(s) {
		// A lone "." or a leading "?" would read back differently.
		if strings.ContainsRune(symbolEscapes, r) && !(r == '.' && 0 < i) && !(r == '?' && 0 < i) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
}

func writeString(b *strings.Builder, s string) {
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
}

func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "1.0e+INF"
	case math.IsInf(f, -1):
		return "-1.0e+INF"
	case math.IsNaN(f):
		return "0.0e+NaN"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

func looksNumeric(s string) bool {
	if _, err := strconv.ParseInt(s, 10, 64); err == nil {
		return true
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil && strings.ContainsAny(s, "0123456789")
}
