package bridge

import (
	"github.com/Comcast/sweep/lisp"
)

// hostText copies the text of a host string.  It returns the bytes
// and the length the host reported, which counts a terminating NUL.
//
// The host is asked twice: once for the size and once to fill a
// buffer of exactly that size.
func hostText(env lisp.Env, v lisp.Value) ([]byte, int, error) {
	n, err := env.CopyStringContents(v, nil)
	if err != nil {
		if wt, is := err.(*lisp.WrongType); is {
			return nil, 0, wt.Signal()
		}
		return nil, 0, lisp.Errorf("Failed to get string length")
	}
	buf := make([]byte, n)
	if _, err := env.CopyStringContents(v, buf); err != nil {
		return nil, 0, lisp.Errorf("Failed to copy string contents")
	}
	return buf, n, nil
}

// hostString is hostText as a Go string without the terminator.
func hostString(env lisp.Env, v lisp.Value) (string, error) {
	buf, n, err := hostText(env, v)
	if err != nil {
		return "", err
	}
	return string(buf[:n-1]), nil
}
