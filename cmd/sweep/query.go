package main

import (
	"fmt"
	"strings"

	"github.com/Comcast/sweep/bridge"
	"github.com/Comcast/sweep/lisp"

	"github.com/spf13/cobra"
)

var (
	contextModule string
	limit         int
)

var queryCmd = &cobra.Command{
	Use:   "query [MODULE:]NAME [INPUT]",
	Short: "Print the solutions of a two-argument predicate",
	Long: `query opens NAME(Input, Output), where Input is the Lisp value
INPUT (default nil), and prints one line per solution: the Output
value, marked "!" when it is the last one.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		module, name := "user", args[0]
		if i := strings.Index(name, ":"); 0 <= i {
			module, name = name[:i], name[i+1:]
		}

		var input lisp.Value = lisp.Nil
		if len(args) == 2 {
			var err error
			if input, err = lisp.Read(args[1]); err != nil {
				return fmt.Errorf("input: %w", err)
			}
		}

		c, release, err := newCrew()
		if err != nil {
			return err
		}
		defer release()
		defer c.CloseAll()

		s, err := c.Open(cmd.Context())
		if err != nil {
			return err
		}

		q, err := s.Bridge().Open(contextModule, module, name, input)
		if err != nil {
			return err
		}
		defer q.Close()

		for n := 0; limit == 0 || n < limit; n++ {
			v, err := q.Next()
			if err != nil {
				return err
			}
			if lisp.IsNil(v) {
				return nil
			}
			status, _ := lisp.Car(v)
			out, _ := lisp.Cdr(v)
			switch status {
			case bridge.SymException:
				return fmt.Errorf("exception: %s", lisp.Print(out))
			case bridge.SymLast:
				fmt.Println(lisp.Print(out), "!")
				return nil
			default:
				fmt.Println(lisp.Print(out))
			}
		}
		return nil
	},
}

func init() {
	queryCmd.Flags().StringVar(&contextModule, "context", "user", "context module")
	queryCmd.Flags().IntVarP(&limit, "limit", "n", 0, "stop after this many solutions (0 for all)")
}
