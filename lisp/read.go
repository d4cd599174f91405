package lisp

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ErrEOF is returned by Reader.Read when the input has no more forms.
var ErrEOF = errors.New("end of input")

// ReadError reports a malformed form.
type ReadError struct {
	Offset int
	Msg    string
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read error at %d: %s", e.Offset, e.Msg)
}

// Reader reads s-expressions from text.
type Reader struct {
	src []rune
	pos int
}

// NewReader makes a Reader for the given source.
func NewReader(src string) *Reader {
	return &Reader{src: []rune(src)}
}

// Read parses the given text, which should contain exactly one form.
func Read(src string) (Value, error) {
	r := NewReader(src)
	v, err := r.Read()
	if err != nil {
		return nil, err
	}
	if _, err := r.Read(); err != ErrEOF {
		if err == nil {
			return nil, &ReadError{Offset: r.pos, Msg: "trailing input"}
		}
		return nil, err
	}
	return v, nil
}

// ReadAll parses every form in the given text.
func ReadAll(src string) ([]Value, error) {
	r := NewReader(src)
	acc := make([]Value, 0, 4)
	for {
		v, err := r.Read()
		if err == ErrEOF {
			return acc, nil
		}
		if err != nil {
			return nil, err
		}
		acc = append(acc, v)
	}
}

func (r *Reader) errorf(format string, args ...interface{}) error {
	return &ReadError{Offset: r.pos, Msg: fmt.Sprintf(format, args...)}
}

func (r *Reader) peek() (rune, bool) {
	if len(r.src) <= r.pos {
		return 0, false
	}
	return r.src[r.pos], true
}

func (r *Reader) skip() {
	for r.pos < len(r.src) {
		c := r.src[r.pos]
		switch {
		case unicode.IsSpace(c):
			r.pos++
		case c == ';':
			for r.pos < len(r.src) && r.src[r.pos] != '\n' {
				r.pos++
			}
		default:
			return
		}
	}
}

// Read returns the next form or ErrEOF.
func (r *Reader) Read() (Value, error) {
	r.skip()
	c, ok := r.peek()
	if !ok {
		return nil, ErrEOF
	}
	switch c {
	case '(':
		r.pos++
		return r.readList(')')
	case '[':
		r.pos++
		v, err := r.readList(']')
		if err != nil {
			return nil, err
		}
		xs, _ := ToSlice(v)
		return &Vector{Items: xs}, nil
	case ')', ']':
		return nil, r.errorf("unexpected %q", c)
	case '\'':
		r.pos++
		x, err := r.readNonEOF()
		if err != nil {
			return nil, err
		}
		return List(Symbol("quote"), x), nil
	case '"':
		r.pos++
		return r.readString()
	case '?':
		if r.pos+1 < len(r.src) {
			r.pos++
			return r.readChar()
		}
	}
	return r.readAtom()
}

func (r *Reader) readNonEOF() (Value, error) {
	v, err := r.Read()
	if err == ErrEOF {
		return nil, r.errorf("unexpected end of input")
	}
	return v, err
}

func (r *Reader) readList(closer rune) (Value, error) {
	acc := make([]Value, 0, 4)
	for {
		r.skip()
		c, ok := r.peek()
		if !ok {
			return nil, r.errorf("missing %q", closer)
		}
		if c == closer {
			r.pos++
			return List(acc...), nil
		}
		if c == '.' && closer == ')' && r.isDelimited(r.pos+1) && 0 < len(acc) {
			r.pos++
			tail, err := r.readNonEOF()
			if err != nil {
				return nil, err
			}
			r.skip()
			if c, ok = r.peek(); !ok || c != ')' {
				return nil, r.errorf("bad dotted list")
			}
			r.pos++
			return ListWithTail(acc, tail), nil
		}
		x, err := r.readNonEOF()
		if err != nil {
			return nil, err
		}
		acc = append(acc, x)
	}
}

func (r *Reader) isDelimited(i int) bool {
	if len(r.src) <= i {
		return true
	}
	c := r.src[i]
	return unicode.IsSpace(c) || strings.ContainsRune("()[]\";'", c)
}

func (r *Reader) readString() (Value, error) {
	var b strings.Builder
	for {
		c, ok := r.peek()
		if !ok {
			return nil, r.errorf("unterminated string")
		}
		r.pos++
		switch c {
		case '"':
			return String(b.String()), nil
		case '\\':
			e, ok := r.peek()
			if !ok {
				return nil, r.errorf("unterminated string")
			}
			r.pos++
			switch e {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case '\n':
			default:
				b.WriteRune(e)
			}
		default:
			b.WriteRune(c)
		}
	}
}

func (r *Reader) readChar() (Value, error) {
	c, _ := r.peek()
	r.pos++
	if c == '\\' {
		e, ok := r.peek()
		if !ok {
			return nil, r.errorf("bad character literal")
		}
		r.pos++
		switch e {
		case 'n':
			c = '\n'
		case 't':
			c = '\t'
		default:
			c = e
		}
	}
	return Integer(c), nil
}

func (r *Reader) readAtom() (Value, error) {
	var b strings.Builder
	escaped := false
	for r.pos < len(r.src) {
		c := r.src[r.pos]
		if c == '\\' && r.pos+1 < len(r.src) {
			b.WriteRune(r.src[r.pos+1])
			r.pos += 2
			escaped = true
			continue
		}
		if unicode.IsSpace(c) || strings.ContainsRune("()[]\";'", c) {
			break
		}
		b.WriteRune(c)
		r.pos++
	}
	s := b.String()
	if s == "" {
		return nil, r.errorf("empty symbol")
	}
	if !escaped {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return Integer(n), nil
		}
		if strings.ContainsAny(s, "0123456789") && strings.ContainsAny(s, ".eE") {
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return Float(f), nil
			}
		}
	}
	return Symbol(s), nil
}
