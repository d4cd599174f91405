package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/Comcast/sweep/crew"
	"github.com/Comcast/sweep/lisp"
	"github.com/Comcast/sweep/sio"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const historyFile = ".sweep_history"

var (
	watch bool
	tags  bool
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Evaluate host expressions interactively",
	Long: `repl reads host expressions with line editing and evaluates each
in one session.  Lisp input continues until the form is complete; a
line ending in a backslash continues JavaScript input.  Type "quit"
to leave.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return repl(cmd.Context())
	},
}

func init() {
	replCmd.Flags().BoolVarP(&watch, "watch", "w", false, "reconsult Prolog files when they change")
	replCmd.Flags().BoolVar(&tags, "tags", false, "tag output lines")
}

func repl(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c, release, err := newCrew()
	if err != nil {
		return err
	}
	defer release()
	defer c.CloseAll()

	s, err := c.Open(ctx)
	if err != nil {
		return err
	}

	if watch || cfg.Watch {
		w, err := sio.NewWatcher(s, cfg.Consult)
		if err != nil {
			return err
		}
		w.Logger = logger.Named("watch")
		w.Reloaded = func(file string, err error) {
			if err != nil {
				fmt.Fprintf(os.Stderr, "reconsult %s: %v\n", file, err)
				return
			}
			fmt.Fprintf(os.Stderr, "reconsulted %s\n", file)
		}
		go func() {
			if err := w.Run(ctx); err != nil {
				logger.Warn("watcher", zap.Error(err))
			}
		}()
	}

	out := sio.NewStdio(s)
	out.Logger = logger
	out.Tags = tags

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)
	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	prompt := s.Interpreter + "> "
	for {
		src, ok := readInput(ln, s, prompt)
		if !ok {
			fmt.Println()
			return nil
		}
		trimmed := strings.TrimSpace(src)
		switch trimmed {
		case "":
			continue
		case "quit", ":quit":
			return nil
		}
		ln.AppendHistory(strings.ReplaceAll(trimmed, "\n", " "))
		evalInterruptibly(ctx, out, src)
	}
}

// evalInterruptibly evaluates src and lets ^C interrupt the
// evaluation rather than end the process.
func evalInterruptibly(ctx context.Context, out *sio.Stdio, src string) {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	out.Eval(ctx, src)
}

// readInput reads one complete input.  The second result is false at
// EOF.
func readInput(ln *liner.State, s *crew.Session, prompt string) (string, bool) {
	cont := strings.Repeat(" ", len(prompt)-2) + ". "
	var b strings.Builder
	for {
		p := prompt
		if 0 < b.Len() {
			p = cont
		}
		line, err := ln.Prompt(p)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			b.Reset()
			continue
		}
		if err != nil {
			return "", false
		}

		if strings.HasSuffix(line, `\`) {
			b.WriteString(strings.TrimSuffix(line, `\`))
			b.WriteByte('\n')
			continue
		}
		b.WriteString(line)

		src := b.String()
		if isLisp(s.Interpreter) && incomplete(src) {
			b.WriteByte('\n')
			continue
		}
		return src, true
	}
}

func isLisp(name string) bool {
	return name == "lisp" || name == "elisp"
}

// incomplete reports whether src is Lisp text that more input could
// finish.
func incomplete(src string) bool {
	_, err := lisp.ReadAll(src)
	var re *lisp.ReadError
	if !errors.As(err, &re) {
		return false
	}
	return strings.HasPrefix(re.Msg, "missing") ||
		re.Msg == "unterminated string" ||
		re.Msg == "unexpected end of input"
}
