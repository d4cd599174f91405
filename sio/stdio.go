/* Copyright 2019 Comcast Cable Communications Management, LLC
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

package sio

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/Comcast/sweep/crew"

	"go.uber.org/zap"
)

// Stdio is a line-oriented REPL: each input line is host source for
// the session's interpreter.  A line ending in a backslash continues
// on the next line.
type Stdio struct {
	// In is the source of input lines.
	In io.Reader

	// Out gets the replies.
	Out io.Writer

	// Session evaluates the input.
	Session *crew.Session

	// Logger gets diagnostics.
	Logger *zap.Logger

	// ShellExpand enables input to include inline shell commands
	// delimited by '<<' and '>>'.  Use at your own risk, of
	// course!
	ShellExpand bool

	// Timestamps prepends a timestamp to each output line.
	Timestamps bool

	// EchoInput writes input lines (prepended with "input") to
	// the output.
	EchoInput bool

	// Tags prefixes tags indicating type of output ("input",
	// "value", "message", "error").
	Tags bool

	// PadTags adds some padding to tags used in output.
	PadTags bool

	// Prompt, if not empty, is written before each input line.
	Prompt string

	mu sync.Mutex
}

// NewStdio creates a new Stdio for the session.
//
// In and Out are initialized with os.Stdin and os.Stdout
// respectively.
func NewStdio(s *crew.Session) *Stdio {
	return &Stdio{
		In:      os.Stdin,
		Out:     os.Stdout,
		Session: s,
		Logger:  zap.NewNop(),
	}
}

func (s *Stdio) printf(tag, format string, args ...interface{}) {
	if s.PadTags {
		tag = fmt.Sprintf("% 8s", tag)
	}
	if s.Tags {
		format = tag + " " + format
	}
	if s.Timestamps {
		ts := fmt.Sprintf("%-31s", time.Now().UTC().Format(time.RFC3339Nano))
		format = ts + " " + format
	}
	s.mu.Lock()
	fmt.Fprintf(s.Out, format, args...)
	s.mu.Unlock()
}

// Eval evaluates one input and writes the reply.
func (s *Stdio) Eval(ctx context.Context, src string) *Reply {
	if s.ShellExpand {
		var err error
		if src, err = ShellExpand(src); err != nil {
			r := &Reply{Error: err.Error()}
			s.printf("error", "%s\n", r.Error)
			return r
		}
	}
	r := NewReply(s.Session.Eval(ctx, src))
	for _, msg := range r.Messages {
		s.printf("message", "%s\n", msg)
	}
	if r.Error != "" {
		s.printf("error", "%s\n", r.Error)
	} else {
		s.printf("value", "%s\n", r.Result)
	}
	return r
}

// Run reads and evaluates lines until EOF, a "quit" line or ctx is
// done.
func (s *Stdio) Run(ctx context.Context) error {
	in := bufio.NewReader(s.In)
	var acc strings.Builder
	for {
		if ctx.Err() != nil {
			return nil
		}
		if s.Prompt != "" {
			p := s.Prompt
			if 0 < acc.Len() {
				p = strings.Repeat(" ", len(p))
			}
			s.mu.Lock()
			fmt.Fprint(s.Out, p)
			s.mu.Unlock()
		}
		line, err := in.ReadString('\n')
		if err != nil && err != io.EOF {
			return err
		}
		eof := err == io.EOF
		if s.EchoInput && line != "" {
			s.printf("input", "%s\n", strings.TrimRight(line, "\n"))
		}
		trimmed := strings.TrimSpace(line)
		switch {
		case acc.Len() == 0 && trimmed == "quit":
			return nil
		case acc.Len() == 0 && (trimmed == "" || strings.HasPrefix(trimmed, "#")):
		case strings.HasSuffix(trimmed, `\`):
			acc.WriteString(strings.TrimSuffix(trimmed, `\`))
			acc.WriteString("\n")
		default:
			acc.WriteString(line)
			src := acc.String()
			acc.Reset()
			s.Logger.Debug("eval", zap.String("src", JShort(src)))
			s.Eval(ctx, src)
		}
		if eof {
			if 0 < acc.Len() {
				s.Eval(ctx, acc.String())
			}
			return nil
		}
	}
}
