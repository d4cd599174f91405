package main

import (
	"errors"
	"fmt"
	"io/ioutil"
	"os"

	"github.com/Comcast/sweep/sio"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var evals []string

var runCmd = &cobra.Command{
	Use:   "run [SCRIPT...]",
	Short: "Evaluate host scripts in one session",
	Long: `run evaluates each script file, and then each --eval expression,
in a single session and prints the value of the last one.  Messages
go to stderr.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 && len(evals) == 0 {
			return fmt.Errorf("nothing to run")
		}

		srcs := make([]string, 0, len(args)+len(evals))
		for _, filename := range args {
			bs, err := ioutil.ReadFile(filename)
			if err != nil {
				return err
			}
			srcs = append(srcs, string(bs))
		}
		srcs = append(srcs, evals...)

		c, release, err := newCrew()
		if err != nil {
			return err
		}
		defer release()
		defer c.CloseAll()

		ctx := cmd.Context()
		s, err := c.Open(ctx)
		if err != nil {
			return err
		}

		var r *sio.Reply
		for i, src := range srcs {
			logger.Debug("run", zap.Int("script", i))
			r = sio.NewReply(s.Eval(ctx, src))
			for _, msg := range r.Messages {
				fmt.Fprintln(os.Stderr, msg)
			}
			if r.Error != "" {
				return errors.New(r.Error)
			}
		}
		fmt.Println(r.Result)
		return nil
	},
}

func init() {
	runCmd.Flags().StringArrayVarP(&evals, "eval", "e", nil, "expression to evaluate after the scripts")
}
